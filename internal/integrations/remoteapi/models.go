package remoteapi

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Envelope стандартный ответ сервера
type Envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// IsSuccess returns true if the server accepted the request
func (e *Envelope) IsSuccess() bool {
	return e != nil && e.Status == StatusSuccess
}

// RequestOptions параметры запроса к серверу
type RequestOptions struct {
	Method string
	Data   interface{}
	Params map[string]string
	Token  string
}

// AttendantRef сотрудник, вложенный в бронирование или кошелёк
type AttendantRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Booking бронирование в представлении сервера
type Booking struct {
	ID                 string          `json:"id"`
	Category           string          `json:"category"`
	RegistrationNumber *string         `json:"registrationNumber,omitempty"`
	Phone              *string         `json:"phone,omitempty"`
	Color              *string         `json:"color,omitempty"`
	Attendant          *AttendantRef   `json:"attendant,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	PaymentType        string          `json:"paymentType"`
	Status             string          `json:"status"`
	AttendantPaid      bool            `json:"attendantPaid"`
	Note               *string         `json:"note,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// BookingRequest тело создания и обновления бронирования
type BookingRequest struct {
	RegistrationNumber *string         `json:"registrationNumber,omitempty"`
	Phone              *string         `json:"phone,omitempty"`
	Color              *string         `json:"color,omitempty"`
	AttendantID        *string         `json:"attendantId,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	PaymentType        string          `json:"paymentType"`
	Status             string          `json:"status,omitempty"`
	AttendantPaid      *bool           `json:"attendantPaid,omitempty"`
	Note               *string         `json:"note,omitempty"`
}

// Adjustment корректировка баланса в представлении сервера
type Adjustment struct {
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Reason      string          `json:"reason"`
	PerformedBy string          `json:"performedBy"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Wallet кошелёк в представлении сервера
type Wallet struct {
	ID                string          `json:"id"`
	Attendant         *AttendantRef   `json:"attendant,omitempty"`
	Balance           decimal.Decimal `json:"balance"`
	TotalEarnings     decimal.Decimal `json:"totalEarnings"`
	TotalCommission   decimal.Decimal `json:"totalCommission"`
	TotalCompanyShare decimal.Decimal `json:"totalCompanyShare"`
	CompanyDebt       decimal.Decimal `json:"companyDebt"`
	IsPaid            bool            `json:"isPaid"`
	LastPaymentAt     *time.Time      `json:"lastPaymentAt,omitempty"`
	Adjustments       []Adjustment    `json:"adjustments"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// WalletSnapshot состояние кошелька, зафиксированное на устройстве
type WalletSnapshot struct {
	Balance           decimal.Decimal `json:"balance"`
	TotalEarnings     decimal.Decimal `json:"totalEarnings"`
	TotalCommission   decimal.Decimal `json:"totalCommission"`
	TotalCompanyShare decimal.Decimal `json:"totalCompanyShare"`
	CompanyDebt       decimal.Decimal `json:"companyDebt"`
}

// SettleRequest тело расчёта с мойщиками
type SettleRequest struct {
	AttendantIDs []string                  `json:"attendantIds"`
	Snapshots    map[string]WalletSnapshot `json:"snapshots,omitempty"`
}

// MarkPaidRequest тело отметки о выплате
type MarkPaidRequest struct {
	Snapshot *WalletSnapshot `json:"snapshot,omitempty"`
}

// AdjustRequest тело корректировки баланса
type AdjustRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Type     string          `json:"type"`
	Reason   string          `json:"reason"`
	Snapshot *WalletSnapshot `json:"snapshot,omitempty"`
}

// User пользователь в представлении сервера
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Photo     *string   `json:"photo,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
