package create_carpet_booking

import (
	"context"

	"github.com/m04kA/SMC-WashSync/internal/service/bookings/models"
)

type BookingService interface {
	CreateCarpetBooking(ctx context.Context, token string, req *models.CreateCarpetBookingRequest) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
