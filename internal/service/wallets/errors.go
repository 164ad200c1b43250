package wallets

import "errors"

var (
	// ErrWalletNotFound возвращается, когда у мойщика нет кошелька
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrEnqueue возвращается, когда операцию не удалось поставить в очередь
	ErrEnqueue = errors.New("failed to enqueue operation")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
