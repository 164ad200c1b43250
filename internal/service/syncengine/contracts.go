package syncengine

import (
	"context"
	"time"

	"github.com/m04kA/SMC-WashSync/internal/connectivity"
	"github.com/m04kA/SMC-WashSync/internal/domain"
	"github.com/m04kA/SMC-WashSync/internal/integrations/remoteapi"
	"github.com/m04kA/SMC-WashSync/internal/service/queue"
)

// AttendantRepository интерфейс репозитория сотрудников
type AttendantRepository interface {
	GetByServerID(ctx context.Context, serverID string) (*domain.Attendant, error)
	Upsert(ctx context.Context, a *domain.Attendant) error
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByServerID(ctx context.Context, serverID string) (*domain.Booking, error)
	Upsert(ctx context.Context, b *domain.Booking) error
	CountPending(ctx context.Context) (int, error)
	CountPendingByAttendant(ctx context.Context, attendantID string) (int, error)
}

// WalletRepository интерфейс репозитория кошельков
type WalletRepository interface {
	GetByLocalID(ctx context.Context, localID string) (*domain.Wallet, error)
	GetByServerID(ctx context.Context, serverID string) (*domain.Wallet, error)
	GetByAttendantServerID(ctx context.Context, attendantServerID string) (*domain.Wallet, error)
	Upsert(ctx context.Context, w *domain.Wallet) error
	List(ctx context.Context, filter domain.WalletsFilter) ([]*domain.Wallet, error)
	CountPending(ctx context.Context) (int, error)
}

// QueueRepository чтение очереди для защиты локальных изменений
type QueueRepository interface {
	List(ctx context.Context) ([]*domain.QueueEntry, error)
	HasPendingForEntity(ctx context.Context, entityType domain.EntityType, localID string) (bool, error)
}

// QueueManager отправка очереди на сервер
type QueueManager interface {
	Drain(ctx context.Context, token string) queue.DrainResult
}

// RemoteAPI операции чтения с сервера
type RemoteAPI interface {
	ListUsers(ctx context.Context, token, role string) ([]remoteapi.User, error)
	ListBookings(ctx context.Context, token string, limit int) ([]remoteapi.Booking, error)
	ListWallets(ctx context.Context, token string, date *time.Time) ([]remoteapi.Wallet, error)
}

// Connectivity источник состояния сети
type Connectivity interface {
	IsOnline() bool
	Subscribe(fn func(connectivity.State)) func()
}

// TokenSource текущий bearer-токен для фоновых синхронизаций
type TokenSource interface {
	Token() string
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics метрики синхронизации
type Metrics interface {
	ObserveSyncCycle(result string, d time.Duration)
	SyncAreaError(area, class string)
	RecordsSynced(area string, n int)
	SetUnsynced(n int)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
