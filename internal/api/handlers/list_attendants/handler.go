package list_attendants

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-WashSync/internal/api/handlers"
	"github.com/m04kA/SMC-WashSync/internal/service/attendants"
	"github.com/m04kA/SMC-WashSync/internal/service/attendants/models"
)

const (
	msgInvalidParams = "некорректные параметры запроса"
)

type Handler struct {
	service AttendantService
	logger  Logger
}

func NewHandler(service AttendantService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/attendants
// Query params: role, availableOnly (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	req := &models.ListAttendantsRequest{}
	if role := r.URL.Query().Get("role"); role != "" {
		req.Role = &role
	}
	if v := r.URL.Query().Get("availableOnly"); v != "" {
		availableOnly, err := strconv.ParseBool(v)
		if err != nil {
			h.logger.Warn("GET /attendants - Invalid availableOnly: %v", err)
			handlers.RespondBadRequest(w, msgInvalidParams)
			return
		}
		req.AvailableOnly = availableOnly
	}

	result, err := h.service.List(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, attendants.ErrInvalidInput):
			h.logger.Warn("GET /attendants - Invalid parameters: %v", err)
			handlers.RespondBadRequest(w, msgInvalidParams)

		default:
			h.logger.Error("GET /attendants - Failed to list attendants: error=%v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /attendants - Attendants retrieved successfully: count=%d", len(result.Attendants))
	handlers.RespondJSON(w, http.StatusOK, result)
}
