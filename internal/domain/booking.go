package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingCategory категория услуги
type BookingCategory string

const (
	CategoryVehicle BookingCategory = "vehicle"
	CategoryCarpet  BookingCategory = "carpet"
)

// PaymentType способ оплаты услуги
type PaymentType string

const (
	PaymentAttendantCash PaymentType = "attendant_cash" // наличные остаются у мойщика
	PaymentAdminCash     PaymentType = "admin_cash"
	PaymentAdminTill     PaymentType = "admin_till"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusInProgress BookingStatus = "in progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

// SyncStatus состояние синхронизации локальной записи с сервером
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
)

// Booking represents one service transaction stored on the device
type Booking struct {
	LocalID  string  // генерируется на устройстве, никогда не меняется
	ServerID *string // появляется после подтверждения сервером

	Category BookingCategory

	// Поля категории vehicle
	RegistrationNumber *string

	// Поля категории carpet
	Phone *string
	Color *string

	// Denormalized attendant data for offline rendering
	AttendantID       string
	AttendantServerID *string
	AttendantName     string
	AttendantEmail    string

	Amount        decimal.Decimal
	PaymentType   PaymentType
	Status        BookingStatus
	AttendantPaid bool
	Note          *string

	CreatedAt time.Time
	UpdatedAt time.Time

	IsSynced   bool
	SyncStatus SyncStatus

	// Deleted помечает бронирование, удаление которого ещё не подтверждено сервером
	Deleted bool
}

// IsCompleted returns true if the booking counts towards the attendant wallet
func (b *Booking) IsCompleted() bool {
	return b.Status == StatusCompleted
}

// HasServerID returns true if the server has confirmed the booking
func (b *Booking) HasServerID() bool {
	return b.ServerID != nil && *b.ServerID != ""
}

// MarkPending помечает запись как требующую синхронизации
func (b *Booking) MarkPending(now time.Time) {
	b.IsSynced = false
	b.SyncStatus = SyncPending
	b.UpdatedAt = now
}

// MarkSynced помечает запись как подтверждённую сервером
func (b *Booking) MarkSynced() {
	b.IsSynced = true
	b.SyncStatus = SyncSynced
}

// AttachServerID привязывает серверный ID.
// Уже привязанный ID не может быть заменён другим значением.
func (b *Booking) AttachServerID(serverID string) error {
	if serverID == "" {
		return ErrEmptyServerID
	}
	if b.HasServerID() && *b.ServerID != serverID {
		return ErrServerIDConflict
	}
	b.ServerID = &serverID
	return nil
}

// Validate проверяет инварианты бронирования
func (b *Booking) Validate() error {
	if !b.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	switch b.Category {
	case CategoryVehicle:
		if isBlank(b.RegistrationNumber) || !isBlank(b.Phone) || !isBlank(b.Color) {
			return ErrInvalidCategoryFields
		}
	case CategoryCarpet:
		if isBlank(b.Phone) || isBlank(b.Color) || !isBlank(b.RegistrationNumber) {
			return ErrInvalidCategoryFields
		}
	default:
		return ErrInvalidCategory
	}

	if !b.PaymentType.IsValid() {
		return ErrInvalidPaymentType
	}
	if !b.Status.IsValid() {
		return ErrInvalidStatus
	}

	return nil
}

// IsValid returns true for a known payment type
func (p PaymentType) IsValid() bool {
	switch p {
	case PaymentAttendantCash, PaymentAdminCash, PaymentAdminTill:
		return true
	}
	return false
}

// IsValid returns true for a known booking status
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// BookingsFilter фильтр для выборки бронирований из локального хранилища
type BookingsFilter struct {
	Status      *BookingStatus
	Category    *BookingCategory
	AttendantID *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	SyncStatus  *SyncStatus
	Offset      uint64
	Limit       uint64 // 0 = без ограничения
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}
