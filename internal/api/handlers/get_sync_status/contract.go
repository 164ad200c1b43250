package get_sync_status

import (
	"context"

	"github.com/m04kA/SMC-WashSync/internal/connectivity"
	"github.com/m04kA/SMC-WashSync/internal/service/syncengine"
)

type SyncEngine interface {
	Status() syncengine.Status
	UnsyncedCount(ctx context.Context) (int, error)
}

type Connectivity interface {
	State() connectivity.State
}

type Queue interface {
	Depth(ctx context.Context) (int, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
