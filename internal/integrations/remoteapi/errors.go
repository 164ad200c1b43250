package remoteapi

import "errors"

var (
	// ErrNetwork возвращается, когда сервер недоступен (транспортная ошибка, таймаут).
	// Операция должна быть поставлена в очередь и повторена позже.
	ErrNetwork = errors.New("remoteapi: network error")

	// ErrServer возвращается, когда сервер ответил конвертом со статусом error
	ErrServer = errors.New("remoteapi: server error")

	// ErrInvalidResponse возвращается при некорректном ответе сервера
	ErrInvalidResponse = errors.New("remoteapi: invalid response")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("remoteapi: internal error")
)
