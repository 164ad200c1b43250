package models

import (
	"time"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	"github.com/m04kA/SMC-WashSync/pkg/ptr"
	"github.com/m04kA/SMC-WashSync/pkg/validate"
)

// Имена полей бронирования в полезной нагрузке очереди
const (
	FieldRegistrationNumber = "registrationNumber"
	FieldPhone              = "phone"
	FieldColor              = "color"
	FieldAttendant          = "attendantId"
	FieldAmount             = "amount"
	FieldPaymentType        = "paymentType"
	FieldStatus             = "status"
	FieldAttendantPaid      = "attendantPaid"
	FieldNote               = "note"
)

// Request модели

// CreateVehicleBookingRequest запрос на создание бронирования мойки автомобиля
type CreateVehicleBookingRequest struct {
	RegistrationNumber string          `json:"registrationNumber" validate:"required,max=32"`
	AttendantID        *string         `json:"attendantId,omitempty"` // локальный или серверный ID мойщика
	Amount             decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentType        string          `json:"paymentType" validate:"required,oneof=attendant_cash admin_cash admin_till"`
	Status             string          `json:"status" validate:"omitempty,oneof=pending 'in progress' completed cancelled"`
	AttendantPaid      bool            `json:"attendantPaid"`
	Note               *string         `json:"note,omitempty" validate:"omitempty,max=500"`
}

// Validate проверяет запрос по тегам
func (r *CreateVehicleBookingRequest) Validate() error {
	return validate.Struct(r)
}

// ToDomain собирает новое локальное бронирование
func (r *CreateVehicleBookingRequest) ToDomain(localID string, at time.Time) *domain.Booking {
	b := newBooking(localID, at, r.Amount, r.PaymentType, r.Status, r.AttendantPaid, r.Note)
	b.Category = domain.CategoryVehicle
	b.RegistrationNumber = ptr.Ptr(r.RegistrationNumber)
	return b
}

// CreateCarpetBookingRequest запрос на создание бронирования чистки ковра
type CreateCarpetBookingRequest struct {
	Phone         string          `json:"phone" validate:"required,max=32"`
	Color         string          `json:"color" validate:"required,max=64"`
	AttendantID   *string         `json:"attendantId,omitempty"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentType   string          `json:"paymentType" validate:"required,oneof=attendant_cash admin_cash admin_till"`
	Status        string          `json:"status" validate:"omitempty,oneof=pending 'in progress' completed cancelled"`
	AttendantPaid bool            `json:"attendantPaid"`
	Note          *string         `json:"note,omitempty" validate:"omitempty,max=500"`
}

// Validate проверяет запрос по тегам
func (r *CreateCarpetBookingRequest) Validate() error {
	return validate.Struct(r)
}

// ToDomain собирает новое локальное бронирование
func (r *CreateCarpetBookingRequest) ToDomain(localID string, at time.Time) *domain.Booking {
	b := newBooking(localID, at, r.Amount, r.PaymentType, r.Status, r.AttendantPaid, r.Note)
	b.Category = domain.CategoryCarpet
	b.Phone = ptr.Ptr(r.Phone)
	b.Color = ptr.Ptr(r.Color)
	return b
}

func newBooking(localID string, at time.Time, amount decimal.Decimal, paymentType, status string, paid bool, note *string) *domain.Booking {
	if status == "" {
		status = string(domain.StatusPending)
	}
	if note != nil && *note == "" {
		note = nil
	}
	return &domain.Booking{
		LocalID:       localID,
		Amount:        amount,
		PaymentType:   domain.PaymentType(paymentType),
		Status:        domain.BookingStatus(status),
		AttendantPaid: paid,
		Note:          note,
		CreatedAt:     at,
		UpdatedAt:     at,
		IsSynced:      false,
		SyncStatus:    domain.SyncPending,
	}
}

// UpdateBookingRequest частичное обновление бронирования: nil поля не меняются.
// Пустой AttendantID снимает назначение мойщика, пустой Note удаляет заметку.
type UpdateBookingRequest struct {
	RegistrationNumber *string          `json:"registrationNumber,omitempty" validate:"omitempty,min=1,max=32"`
	Phone              *string          `json:"phone,omitempty" validate:"omitempty,min=1,max=32"`
	Color              *string          `json:"color,omitempty" validate:"omitempty,min=1,max=64"`
	AttendantID        *string          `json:"attendantId,omitempty"`
	Amount             *decimal.Decimal `json:"amount,omitempty" validate:"omitempty,gt=0"`
	PaymentType        *string          `json:"paymentType,omitempty" validate:"omitempty,oneof=attendant_cash admin_cash admin_till"`
	Status             *string          `json:"status,omitempty" validate:"omitempty,oneof=pending 'in progress' completed cancelled"`
	AttendantPaid      *bool            `json:"attendantPaid,omitempty"`
	Note               *string          `json:"note,omitempty" validate:"omitempty,max=500"`
}

// Validate проверяет запрос по тегам
func (r *UpdateBookingRequest) Validate() error {
	return validate.Struct(r)
}

// ApplyTo переносит изменения в бронирование и возвращает имена реально изменённых полей.
// Мойщик здесь не меняется: его нужно найти в хранилище.
func (r *UpdateBookingRequest) ApplyTo(b *domain.Booking) []string {
	var fields []string

	setString := func(dst **string, v *string, name string) {
		if v == nil || ptr.Value(*dst) == *v {
			return
		}
		if *v == "" {
			*dst = nil
		} else {
			*dst = ptr.Ptr(*v)
		}
		fields = append(fields, name)
	}

	setString(&b.RegistrationNumber, r.RegistrationNumber, FieldRegistrationNumber)
	setString(&b.Phone, r.Phone, FieldPhone)
	setString(&b.Color, r.Color, FieldColor)

	if r.Amount != nil && !b.Amount.Equal(*r.Amount) {
		b.Amount = *r.Amount
		fields = append(fields, FieldAmount)
	}
	if r.PaymentType != nil && string(b.PaymentType) != *r.PaymentType {
		b.PaymentType = domain.PaymentType(*r.PaymentType)
		fields = append(fields, FieldPaymentType)
	}
	if r.Status != nil && string(b.Status) != *r.Status {
		b.Status = domain.BookingStatus(*r.Status)
		fields = append(fields, FieldStatus)
	}
	if r.AttendantPaid != nil && b.AttendantPaid != *r.AttendantPaid {
		b.AttendantPaid = *r.AttendantPaid
		fields = append(fields, FieldAttendantPaid)
	}

	setString(&b.Note, r.Note, FieldNote)

	return fields
}

// ListBookingsRequest фильтр списка бронирований.
// Date выбирает один день целиком и имеет приоритет над From/To.
type ListBookingsRequest struct {
	Status      *string    `json:"status,omitempty" validate:"omitempty,oneof=pending 'in progress' completed cancelled"`
	Category    *string    `json:"category,omitempty" validate:"omitempty,oneof=vehicle carpet"`
	AttendantID *string    `json:"attendantId,omitempty"`
	SyncStatus  *string    `json:"syncStatus,omitempty" validate:"omitempty,oneof=pending synced"`
	Date        *time.Time `json:"date,omitempty"`
	From        *time.Time `json:"from,omitempty"`
	To          *time.Time `json:"to,omitempty"`
	Offset      uint64     `json:"offset,omitempty"`
	Limit       uint64     `json:"limit,omitempty" validate:"lte=500"`
}

// Validate проверяет запрос по тегам
func (r *ListBookingsRequest) Validate() error {
	return validate.Struct(r)
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListBookingsRequest) ToDomainFilter() domain.BookingsFilter {
	filter := domain.BookingsFilter{
		AttendantID: r.AttendantID,
		CreatedFrom: r.From,
		CreatedTo:   r.To,
		Offset:      r.Offset,
		Limit:       r.Limit,
	}
	if r.Status != nil {
		filter.Status = ptr.Ptr(domain.BookingStatus(*r.Status))
	}
	if r.Category != nil {
		filter.Category = ptr.Ptr(domain.BookingCategory(*r.Category))
	}
	if r.SyncStatus != nil {
		filter.SyncStatus = ptr.Ptr(domain.SyncStatus(*r.SyncStatus))
	}
	if r.Date != nil {
		day := now.With(*r.Date)
		filter.CreatedFrom = ptr.Ptr(day.BeginningOfDay().UTC())
		filter.CreatedTo = ptr.Ptr(day.EndOfDay().UTC())
	}
	return filter
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	LocalID  string  `json:"localId"`
	ServerID *string `json:"serverId,omitempty"`
	Category string  `json:"category"`

	RegistrationNumber *string `json:"registrationNumber,omitempty"`
	Phone              *string `json:"phone,omitempty"`
	Color              *string `json:"color,omitempty"`

	// Денормализованные данные мойщика
	AttendantID       string  `json:"attendantId,omitempty"`
	AttendantServerID *string `json:"attendantServerId,omitempty"`
	AttendantName     string  `json:"attendantName,omitempty"`
	AttendantEmail    string  `json:"attendantEmail,omitempty"`

	Amount        decimal.Decimal `json:"amount"`
	PaymentType   string          `json:"paymentType"`
	Status        string          `json:"status"`
	AttendantPaid bool            `json:"attendantPaid"`
	Note          *string         `json:"note,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	IsSynced   bool   `json:"isSynced"`
	SyncStatus string `json:"syncStatus"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	return &BookingResponse{
		LocalID:            b.LocalID,
		ServerID:           b.ServerID,
		Category:           string(b.Category),
		RegistrationNumber: b.RegistrationNumber,
		Phone:              b.Phone,
		Color:              b.Color,
		AttendantID:        b.AttendantID,
		AttendantServerID:  b.AttendantServerID,
		AttendantName:      b.AttendantName,
		AttendantEmail:     b.AttendantEmail,
		Amount:             b.Amount,
		PaymentType:        string(b.PaymentType),
		Status:             string(b.Status),
		AttendantPaid:      b.AttendantPaid,
		Note:               b.Note,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		IsSynced:           b.IsSynced,
		SyncStatus:         string(b.SyncStatus),
	}
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}
