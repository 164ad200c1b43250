package adjust_wallet

import (
	"context"

	"github.com/m04kA/SMC-WashSync/internal/service/wallets/models"
)

type WalletService interface {
	AdjustWalletBalance(ctx context.Context, token, attendantID string, req *models.AdjustRequest) (*models.OperationResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
