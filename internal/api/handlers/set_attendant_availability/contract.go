package set_attendant_availability

import (
	"context"

	"github.com/m04kA/SMC-WashSync/internal/service/attendants/models"
)

type AttendantService interface {
	SetAvailability(ctx context.Context, id string, req *models.SetAvailabilityRequest) (*models.AttendantResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
