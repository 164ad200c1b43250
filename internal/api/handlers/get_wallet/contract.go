package get_wallet

import (
	"context"

	"github.com/m04kA/SMC-WashSync/internal/service/wallets/models"
)

type WalletService interface {
	GetByAttendant(ctx context.Context, attendantID string) (*models.WalletResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
