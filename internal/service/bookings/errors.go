package bookings

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено или уже удалено
	ErrBookingNotFound = errors.New("booking not found")

	// ErrAttendantNotFound возвращается, когда назначаемый мойщик не найден
	ErrAttendantNotFound = errors.New("attendant not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrEnqueue возвращается, когда операцию не удалось поставить в очередь
	ErrEnqueue = errors.New("failed to enqueue operation")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
