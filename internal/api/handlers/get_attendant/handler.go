package get_attendant

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-WashSync/internal/api/handlers"
	"github.com/m04kA/SMC-WashSync/internal/service/attendants"
)

const (
	msgInvalidAttendantID = "некорректный ID сотрудника"
	msgNotFound           = "сотрудник не найден"
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

// Handle GET /api/v1/attendants/{attendantId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	attendantID := mux.Vars(r)["attendantId"]
	if attendantID == "" {
		h.logger.Warn("GET /attendants/{id} - Missing attendant ID")
		handlers.RespondBadRequest(w, msgInvalidAttendantID)
		return
	}

	attendant, err := h.service.Get(r.Context(), attendantID)
	if err != nil {
		switch {
		case errors.Is(err, attendants.ErrAttendantNotFound):
			h.logger.Warn("GET /attendants/{id} - Attendant not found: attendant_id=%s", attendantID)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("GET /attendants/{id} - Failed to get attendant: attendant_id=%s, error=%v", attendantID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /attendants/{id} - Attendant retrieved successfully: attendant_id=%s", attendantID)
	handlers.RespondJSON(w, http.StatusOK, attendant)
}
