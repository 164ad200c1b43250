package domain

import "github.com/shopspring/decimal"

// Доли выручки при выполнении бронирования
var (
	CommissionRate   = decimal.RequireFromString("0.4") // доля мойщика
	CompanyShareRate = decimal.RequireFromString("0.6") // доля компании
)

// Параметры синхронизации
const (
	MaxQueueRetries   = 5   // после стольких неудач запись очереди отбрасывается
	PullBookingsLimit = 100 // сколько последних бронирований забирать с сервера
)

// Time format constants
const (
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// AllBookingStatuses список допустимых статусов бронирования
var AllBookingStatuses = []BookingStatus{
	StatusPending,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}
