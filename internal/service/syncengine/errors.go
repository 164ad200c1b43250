package syncengine

import "errors"

var (
	// ErrOffline возвращается, когда синхронизация пропущена из-за отсутствия сети
	ErrOffline = errors.New("sync: device is offline")

	// ErrSessionExpired возвращается, когда токен отсутствует или просрочен
	ErrSessionExpired = errors.New("sync: session expired")

	// ErrInternal возвращается при внутренних ошибках синхронизации
	ErrInternal = errors.New("sync: internal error")
)
