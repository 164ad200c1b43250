package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentType тип ручной корректировки кошелька
type AdjustmentType string

const (
	AdjustmentTip       AdjustmentType = "tip"
	AdjustmentDeduction AdjustmentType = "deduction"
)

// IsValid returns true for a known adjustment type
func (t AdjustmentType) IsValid() bool {
	return t == AdjustmentTip || t == AdjustmentDeduction
}

// Adjustment ручная корректировка баланса, выполненная администратором
type Adjustment struct {
	Type        AdjustmentType  `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Reason      string          `json:"reason"`
	PerformedBy string          `json:"performedBy"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Wallet running financial ledger of one attendant
type Wallet struct {
	LocalID  string
	ServerID *string

	AttendantID       string
	AttendantServerID *string
	AttendantName     string
	AttendantEmail    string

	Balance           decimal.Decimal // знаковый: > 0 компания должна мойщику, < 0 мойщик должен компании
	TotalEarnings     decimal.Decimal
	TotalCommission   decimal.Decimal
	TotalCompanyShare decimal.Decimal
	CompanyDebt       decimal.Decimal
	IsPaid            bool
	LastPaymentAt     *time.Time
	Adjustments       []Adjustment

	CreatedAt time.Time
	UpdatedAt time.Time

	IsSynced   bool
	SyncStatus SyncStatus
}

// NewWallet создаёт пустой кошелёк мойщика
func NewWallet(localID string, attendant *Attendant, now time.Time) *Wallet {
	w := &Wallet{
		LocalID:           localID,
		Balance:           decimal.Zero,
		TotalEarnings:     decimal.Zero,
		TotalCommission:   decimal.Zero,
		TotalCompanyShare: decimal.Zero,
		CompanyDebt:       decimal.Zero,
		IsPaid:            true,
		Adjustments:       []Adjustment{},
		CreatedAt:         now,
		UpdatedAt:         now,
		IsSynced:          false,
		SyncStatus:        SyncPending,
	}
	if attendant != nil {
		w.AttendantID = attendant.LocalID
		w.AttendantServerID = attendant.ServerID
		w.AttendantName = attendant.Name
		w.AttendantEmail = attendant.Email
	}
	return w
}

// HasServerID returns true if the server knows this wallet
func (w *Wallet) HasServerID() bool {
	return w.ServerID != nil && *w.ServerID != ""
}

// MarkPending помечает кошелёк как изменённый локально
func (w *Wallet) MarkPending(now time.Time) {
	w.IsSynced = false
	w.SyncStatus = SyncPending
	w.UpdatedAt = now
}

// MarkSynced помечает кошелёк как совпадающий с сервером
func (w *Wallet) MarkSynced() {
	w.IsSynced = true
	w.SyncStatus = SyncSynced
}

// Settle обнуляет баланс и долг после внешнего расчёта с мойщиком
func (w *Wallet) Settle(now time.Time) {
	w.Balance = decimal.Zero
	w.CompanyDebt = decimal.Zero
	w.IsPaid = true
	w.LastPaymentAt = &now
	w.MarkPending(now)
}

// Snapshot фиксирует финансовые поля кошелька
func (w *Wallet) Snapshot() WalletSnapshot {
	return WalletSnapshot{
		Balance:           w.Balance,
		TotalEarnings:     w.TotalEarnings,
		TotalCommission:   w.TotalCommission,
		TotalCompanyShare: w.TotalCompanyShare,
		CompanyDebt:       w.CompanyDebt,
	}
}

// WalletSnapshot финансовое состояние кошелька на момент постановки операции в очередь
type WalletSnapshot struct {
	Balance           decimal.Decimal `json:"balance"`
	TotalEarnings     decimal.Decimal `json:"totalEarnings"`
	TotalCommission   decimal.Decimal `json:"totalCommission"`
	TotalCompanyShare decimal.Decimal `json:"totalCompanyShare"`
	CompanyDebt       decimal.Decimal `json:"companyDebt"`
}

// WalletsFilter фильтр для выборки кошельков
type WalletsFilter struct {
	AttendantID *string
	SyncStatus  *SyncStatus
	UnpaidOnly  bool
}
