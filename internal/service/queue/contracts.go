package queue

import (
	"context"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	"github.com/m04kA/SMC-WashSync/internal/integrations/remoteapi"
)

// QueueRepository интерфейс персистентной очереди
type QueueRepository interface {
	Add(ctx context.Context, e *domain.QueueEntry) error
	List(ctx context.Context) ([]*domain.QueueEntry, error)
	Remove(ctx context.Context, id string) error
	UpdateError(ctx context.Context, id string, message string) (int, error)
	Count(ctx context.Context) (int, error)
	HasPendingForEntity(ctx context.Context, entityType domain.EntityType, localID string) (bool, error)
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByLocalID(ctx context.Context, localID string) (*domain.Booking, error)
	Upsert(ctx context.Context, b *domain.Booking) error
	Delete(ctx context.Context, localID string) error
}

// WalletRepository интерфейс репозитория кошельков
type WalletRepository interface {
	GetByLocalID(ctx context.Context, localID string) (*domain.Wallet, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// RemoteAPI операции сервера, которые выполняет очередь
type RemoteAPI interface {
	CreateVehicleBooking(ctx context.Context, token string, req remoteapi.BookingRequest) (*remoteapi.Booking, error)
	CreateCarpetBooking(ctx context.Context, token string, req remoteapi.BookingRequest) (*remoteapi.Booking, error)
	UpdateBooking(ctx context.Context, token, serverID string, req remoteapi.BookingRequest) (*remoteapi.Booking, error)
	DeleteBooking(ctx context.Context, token, serverID string) error
	SettleBalances(ctx context.Context, token string, req remoteapi.SettleRequest) error
	MarkAttendantPaid(ctx context.Context, token, attendantServerID string, req remoteapi.MarkPaidRequest) error
	AdjustWalletBalance(ctx context.Context, token, attendantServerID string, req remoteapi.AdjustRequest) error
}

// Connectivity источник состояния сети
type Connectivity interface {
	IsOnline() bool
}

// Metrics метрики очереди
type Metrics interface {
	QueueAttempt(kind, result string)
	QueueEvicted()
	SetQueueDepth(n int)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
