package run_sync

import (
	"context"

	"github.com/m04kA/SMC-WashSync/internal/service/syncengine"
)

type SyncEngine interface {
	Sync(ctx context.Context, token string) (syncengine.Result, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
