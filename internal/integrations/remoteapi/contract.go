package remoteapi

import "time"

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// CallObserver получатель метрик вызовов сервера
type CallObserver interface {
	ObserveRemoteCall(endpoint, status string, d time.Duration)
}
