package list_wallets

import (
	"context"

	"github.com/m04kA/SMC-WashSync/internal/service/wallets/models"
)

type WalletService interface {
	List(ctx context.Context, token string, req *models.ListWalletsRequest) (*models.WalletListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
