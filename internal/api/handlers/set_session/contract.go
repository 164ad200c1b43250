package set_session

type TokenStore interface {
	Set(token string)
}

type SyncTrigger interface {
	TriggerBackground()
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
