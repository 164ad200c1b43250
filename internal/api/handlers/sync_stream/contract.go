package sync_stream

import (
	"github.com/m04kA/SMC-WashSync/internal/connectivity"
	"github.com/m04kA/SMC-WashSync/internal/service/syncengine"
)

type SyncEngine interface {
	Status() syncengine.Status
	Subscribe(fn func(syncengine.Status)) func()
}

type Connectivity interface {
	State() connectivity.State
	Subscribe(fn func(connectivity.State)) func()
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
