package update_booking

import (
	"context"

	"github.com/m04kA/SMC-WashSync/internal/service/bookings/models"
)

type BookingService interface {
	Update(ctx context.Context, id, token string, req *models.UpdateBookingRequest) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
