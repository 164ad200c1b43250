package set_attendant_availability

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-WashSync/internal/api/handlers"
	"github.com/m04kA/SMC-WashSync/internal/service/attendants"
	"github.com/m04kA/SMC-WashSync/internal/service/attendants/models"
)

const (
	msgInvalidAttendantID = "некорректный ID сотрудника"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidInput       = "нужно указать поле available"
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

// Handle PUT /api/v1/attendants/{attendantId}/availability
// Доступность хранится только на устройстве.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	attendantID := mux.Vars(r)["attendantId"]
	if attendantID == "" {
		h.logger.Warn("PUT /attendants/{id}/availability - Missing attendant ID")
		handlers.RespondBadRequest(w, msgInvalidAttendantID)
		return
	}

	var req models.SetAvailabilityRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /attendants/{id}/availability - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	attendant, err := h.service.SetAvailability(r.Context(), attendantID, &req)
	if err != nil {
		switch {
		case errors.Is(err, attendants.ErrInvalidInput):
			h.logger.Warn("PUT /attendants/{id}/availability - Invalid input: attendant_id=%s", attendantID)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, attendants.ErrAttendantNotFound):
			h.logger.Warn("PUT /attendants/{id}/availability - Attendant not found: attendant_id=%s", attendantID)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("PUT /attendants/{id}/availability - Failed to set availability: attendant_id=%s, error=%v",
				attendantID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /attendants/{id}/availability - Availability updated: attendant_id=%s, available=%t",
		attendantID, attendant.IsAvailable)
	handlers.RespondJSON(w, http.StatusOK, attendant)
}
