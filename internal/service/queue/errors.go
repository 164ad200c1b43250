package queue

import "errors"

var (
	// ErrMissingServerID возвращается, когда обновление нельзя отправить без серверного ID
	ErrMissingServerID = errors.New("queue: booking has no server id yet")

	// ErrEntityNotFound возвращается, когда локальная сущность записи очереди не найдена
	ErrEntityNotFound = errors.New("queue: entity not found")

	// ErrUnsupported возвращается для записи, которую очередь не умеет отправить
	ErrUnsupported = errors.New("queue: unsupported entry")

	// ErrInternal возвращается при внутренних ошибках очереди
	ErrInternal = errors.New("queue: internal error")
)
