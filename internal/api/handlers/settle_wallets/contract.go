package settle_wallets

import (
	"context"

	"github.com/m04kA/SMC-WashSync/internal/service/wallets/models"
)

type WalletService interface {
	SettleAttendantBalances(ctx context.Context, token string, req *models.SettleRequest) (*models.SettleResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
