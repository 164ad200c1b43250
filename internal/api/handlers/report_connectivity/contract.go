package report_connectivity

import "github.com/m04kA/SMC-WashSync/internal/connectivity"

type Monitor interface {
	Report(s connectivity.State)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
