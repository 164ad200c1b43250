package wallets

import (
	"context"
	"time"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	"github.com/m04kA/SMC-WashSync/internal/integrations/remoteapi"
)

// WalletRepository интерфейс репозитория кошельков
type WalletRepository interface {
	GetByAttendantID(ctx context.Context, attendantID string) (*domain.Wallet, error)
	GetByAttendantServerID(ctx context.Context, attendantServerID string) (*domain.Wallet, error)
	List(ctx context.Context, filter domain.WalletsFilter) ([]*domain.Wallet, error)
	Upsert(ctx context.Context, w *domain.Wallet) error
}

// QueueManager постановка операций в очередь синхронизации
type QueueManager interface {
	Enqueue(ctx context.Context, op domain.Operation, entityType domain.EntityType, localID string, payload domain.QueuePayload) *domain.QueueEntry
}

// RemoteAPI финансовые операции сервера
type RemoteAPI interface {
	ListWallets(ctx context.Context, token string, date *time.Time) ([]remoteapi.Wallet, error)
	SettleBalances(ctx context.Context, token string, req remoteapi.SettleRequest) error
	MarkAttendantPaid(ctx context.Context, token, attendantServerID string, req remoteapi.MarkPaidRequest) error
	AdjustWalletBalance(ctx context.Context, token, attendantServerID string, req remoteapi.AdjustRequest) error
}

// Connectivity источник состояния сети
type Connectivity interface {
	IsOnline() bool
}

// SyncTrigger запуск фоновой синхронизации
type SyncTrigger interface {
	TriggerBackground()
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
