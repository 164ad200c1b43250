package list_attendants

import (
	"context"

	"github.com/m04kA/SMC-WashSync/internal/service/attendants/models"
)

type AttendantService interface {
	List(ctx context.Context, req *models.ListAttendantsRequest) (*models.AttendantListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
