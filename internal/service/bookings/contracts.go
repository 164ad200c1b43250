package bookings

import (
	"context"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	"github.com/m04kA/SMC-WashSync/internal/integrations/remoteapi"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Upsert(ctx context.Context, b *domain.Booking) error
	GetByLocalID(ctx context.Context, localID string) (*domain.Booking, error)
	GetByServerID(ctx context.Context, serverID string) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
	Delete(ctx context.Context, localID string) error
}

// WalletRepository интерфейс репозитория кошельков
type WalletRepository interface {
	GetByAttendantID(ctx context.Context, attendantID string) (*domain.Wallet, error)
	Upsert(ctx context.Context, w *domain.Wallet) error
}

// AttendantRepository интерфейс репозитория мойщиков
type AttendantRepository interface {
	GetByLocalID(ctx context.Context, localID string) (*domain.Attendant, error)
	GetByServerID(ctx context.Context, serverID string) (*domain.Attendant, error)
}

// QueueRepository интерфейс очереди для чистки записей удалённого бронирования
type QueueRepository interface {
	RemoveByEntity(ctx context.Context, entityType domain.EntityType, localID string) error
	HasPendingForEntity(ctx context.Context, entityType domain.EntityType, localID string) (bool, error)
}

// QueueManager постановка операций в очередь синхронизации
type QueueManager interface {
	Enqueue(ctx context.Context, op domain.Operation, entityType domain.EntityType, localID string, payload domain.QueuePayload) *domain.QueueEntry
}

// RemoteAPI операции сервера с бронированиями
type RemoteAPI interface {
	CreateVehicleBooking(ctx context.Context, token string, req remoteapi.BookingRequest) (*remoteapi.Booking, error)
	CreateCarpetBooking(ctx context.Context, token string, req remoteapi.BookingRequest) (*remoteapi.Booking, error)
	UpdateBooking(ctx context.Context, token, serverID string, req remoteapi.BookingRequest) (*remoteapi.Booking, error)
	DeleteBooking(ctx context.Context, token, serverID string) error
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
