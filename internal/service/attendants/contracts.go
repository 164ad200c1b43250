package attendants

import (
	"context"

	"github.com/m04kA/SMC-WashSync/internal/domain"
)

// AttendantRepository интерфейс репозитория сотрудников
type AttendantRepository interface {
	GetByLocalID(ctx context.Context, localID string) (*domain.Attendant, error)
	GetByServerID(ctx context.Context, serverID string) (*domain.Attendant, error)
	List(ctx context.Context, filter domain.AttendantsFilter) ([]*domain.Attendant, error)
	SetAvailability(ctx context.Context, localID string, available bool) error
}

// Connectivity источник состояния сети
type Connectivity interface {
	IsOnline() bool
}

// SyncTrigger запуск фоновой синхронизации
type SyncTrigger interface {
	TriggerBackground()
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
