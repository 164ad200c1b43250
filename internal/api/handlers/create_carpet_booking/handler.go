package create_carpet_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-WashSync/internal/api/handlers"
	"github.com/m04kA/SMC-WashSync/internal/api/middleware"
	"github.com/m04kA/SMC-WashSync/internal/service/bookings"
	"github.com/m04kA/SMC-WashSync/internal/service/bookings/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidInput       = "некорректные данные бронирования"
	msgAttendantNotFound  = "мойщик не найден"
	msgNotSaved           = "не удалось сохранить бронирование"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/carpets
// Бронирование сохраняется локально всегда, на сервер уходит при наличии сети.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCarpetBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/carpets - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	token, _ := middleware.GetToken(r.Context())

	booking, err := h.service.CreateCarpetBooking(r.Context(), token, &req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("POST /bookings/carpets - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, bookings.ErrAttendantNotFound):
			h.logger.Warn("POST /bookings/carpets - Attendant not found: phone=%s", req.Phone)
			handlers.RespondNotFound(w, msgAttendantNotFound)

		case errors.Is(err, bookings.ErrEnqueue):
			h.logger.Error("POST /bookings/carpets - Failed to queue booking: phone=%s, error=%v",
				req.Phone, err)
			handlers.RespondError(w, http.StatusInternalServerError, msgNotSaved)

		default:
			h.logger.Error("POST /bookings/carpets - Failed to create booking: phone=%s, error=%v",
				req.Phone, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/carpets - Booking created successfully: local_id=%s, synced=%t",
		booking.LocalID, booking.IsSynced)
	handlers.RespondJSON(w, http.StatusCreated, booking)
}
