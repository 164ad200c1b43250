package connectivity

import "context"

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Prober определяет текущее состояние сети
type Prober interface {
	Probe(ctx context.Context) State
}

// OnlineObserver получатель метрики доступности сети
type OnlineObserver interface {
	SetOnline(online bool)
}
