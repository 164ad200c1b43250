package attendant

import "errors"

var (
	// ErrAttendantNotFound возвращается, когда сотрудник не найден
	ErrAttendantNotFound = errors.New("attendant.repository: attendant not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("attendant.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("attendant.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("attendant.repository: failed to scan row")
)
