package get_attendant

import (
	"context"

	"github.com/m04kA/SMC-WashSync/internal/service/attendants/models"
)

type AttendantService interface {
	Get(ctx context.Context, id string) (*models.AttendantResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
