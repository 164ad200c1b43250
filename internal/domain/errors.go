package domain

import "errors"

var (
	// ErrInvalidAmount возвращается, когда сумма не положительна
	ErrInvalidAmount = errors.New("domain: amount must be positive")

	// ErrInvalidCategory возвращается для неизвестной категории бронирования
	ErrInvalidCategory = errors.New("domain: invalid booking category")

	// ErrInvalidCategoryFields возвращается, когда поля не соответствуют категории
	ErrInvalidCategoryFields = errors.New("domain: category fields mismatch")

	// ErrInvalidPaymentType возвращается для неизвестного способа оплаты
	ErrInvalidPaymentType = errors.New("domain: invalid payment type")

	// ErrInvalidStatus возвращается для неизвестного статуса бронирования
	ErrInvalidStatus = errors.New("domain: invalid booking status")

	// ErrEmptyServerID возвращается при попытке привязать пустой серверный ID
	ErrEmptyServerID = errors.New("domain: empty server id")

	// ErrServerIDConflict возвращается при попытке заменить уже привязанный серверный ID
	ErrServerIDConflict = errors.New("domain: server id already attached")

	// ErrInvalidPayload возвращается при некорректной полезной нагрузке записи очереди
	ErrInvalidPayload = errors.New("domain: invalid queue payload")
)
