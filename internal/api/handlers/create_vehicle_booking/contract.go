package create_vehicle_booking

import (
	"context"

	"github.com/m04kA/SMC-WashSync/internal/service/bookings/models"
)

type BookingService interface {
	CreateVehicleBooking(ctx context.Context, token string, req *models.CreateVehicleBookingRequest) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
