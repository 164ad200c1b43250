package mark_attendant_paid

import (
	"context"

	"github.com/m04kA/SMC-WashSync/internal/service/wallets/models"
)

type WalletService interface {
	MarkAttendantPaid(ctx context.Context, token, attendantID string) (*models.OperationResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
