package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Operation тип мутации в очереди синхронизации
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// EntityType тип сущности, к которой относится запись очереди
type EntityType string

const (
	EntityBooking   EntityType = "booking"
	EntityWallet    EntityType = "wallet"
	EntityAttendant EntityType = "attendant"
)

// PayloadKind закрытый набор вариантов полезной нагрузки записи очереди
type PayloadKind string

const (
	KindBookingCreate  PayloadKind = "booking.create"
	KindBookingUpdate  PayloadKind = "booking.update"
	KindBookingDelete  PayloadKind = "booking.delete"
	KindWalletSettle   PayloadKind = "wallet.settle"
	KindWalletMarkPaid PayloadKind = "wallet.mark_paid"
	KindWalletAdjust   PayloadKind = "wallet.adjust"
)

// QueueEntry pending mutation awaiting transmission to the server
type QueueEntry struct {
	ID         string
	Operation  Operation
	EntityType EntityType
	LocalID    string
	Payload    QueuePayload
	RetryCount int
	LastError  *string
	EnqueuedAt time.Time
}

// QueuePayload tagged variant: ровно одно поле тела соответствует Kind
type QueuePayload struct {
	Kind PayloadKind `json:"kind"`

	Booking  *BookingChange   `json:"booking,omitempty"`
	Delete   *BookingDelete   `json:"delete,omitempty"`
	Settle   *SettlePayload   `json:"settle,omitempty"`
	MarkPaid *MarkPaidPayload `json:"markPaid,omitempty"`
	Adjust   *AdjustPayload   `json:"adjust,omitempty"`
}

// BookingChange поля бронирования, изменённые локально (для create - все поля)
type BookingChange struct {
	Fields []string `json:"fields"`
}

// BookingDelete серверный ID удаляемого бронирования на момент удаления
type BookingDelete struct {
	ServerID *string `json:"serverId,omitempty"`
}

// SettlePayload расчёт с мойщиками по их серверным ID
type SettlePayload struct {
	AttendantServerIDs []string                  `json:"attendantIds"`
	Snapshots          map[string]WalletSnapshot `json:"snapshots"`
}

// MarkPaidPayload отметка о выплате одному мойщику
type MarkPaidPayload struct {
	AttendantServerID string         `json:"attendantId"`
	Snapshot          WalletSnapshot `json:"snapshot"`
}

// AdjustPayload ручная корректировка баланса
type AdjustPayload struct {
	AttendantServerID string          `json:"attendantId"`
	Amount            decimal.Decimal `json:"amount"`
	Type              AdjustmentType  `json:"type"`
	Reason            string          `json:"reason"`
	Snapshot          WalletSnapshot  `json:"snapshot"`
}

// Validate проверяет, что заполнено тело, соответствующее Kind
func (p QueuePayload) Validate() error {
	var ok bool
	switch p.Kind {
	case KindBookingCreate, KindBookingUpdate:
		ok = p.Booking != nil
	case KindBookingDelete:
		ok = p.Delete != nil
	case KindWalletSettle:
		ok = p.Settle != nil
	case KindWalletMarkPaid:
		ok = p.MarkPaid != nil
	case KindWalletAdjust:
		ok = p.Adjust != nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPayload, p.Kind)
	}
	if !ok {
		return fmt.Errorf("%w: missing body for kind %q", ErrInvalidPayload, p.Kind)
	}
	return nil
}

// Encode сериализует полезную нагрузку для хранения
func (p QueuePayload) Encode() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(p)
}

// DecodeQueuePayload восстанавливает полезную нагрузку из хранилища
func DecodeQueuePayload(data []byte) (QueuePayload, error) {
	var p QueuePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return p, p.Validate()
}

// IsWalletOperation returns true for named financial operations
func (p QueuePayload) IsWalletOperation() bool {
	return p.Kind == KindWalletSettle || p.Kind == KindWalletMarkPaid || p.Kind == KindWalletAdjust
}
