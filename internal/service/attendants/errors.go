package attendants

import "errors"

var (
	// ErrAttendantNotFound возвращается, когда сотрудник не найден
	ErrAttendantNotFound = errors.New("attendant not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
