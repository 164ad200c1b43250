package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	"github.com/m04kA/SMC-WashSync/internal/integrations/remoteapi"
	"github.com/m04kA/SMC-WashSync/pkg/ptr"
	"github.com/m04kA/SMC-WashSync/pkg/validate"
)

// Источники списка кошельков
const (
	SourceLocal  = "local"
	SourceServer = "server"
)

// Request модели

// ListWalletsRequest запрос списка кошельков. Date == nil или сегодня - текущее состояние.
type ListWalletsRequest struct {
	Date       *time.Time `json:"date,omitempty"`
	UnpaidOnly bool       `json:"unpaidOnly,omitempty"`
}

// SettleRequest расчёт с мойщиками по их локальным или серверным ID
type SettleRequest struct {
	AttendantIDs []string `json:"attendantIds" validate:"required,min=1,dive,required"`
}

// Validate проверяет запрос по тегам
func (r *SettleRequest) Validate() error {
	return validate.Struct(r)
}

// AdjustRequest ручная корректировка баланса
type AdjustRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Type        string          `json:"type" validate:"required,oneof=tip deduction"`
	Reason      string          `json:"reason" validate:"required,max=500"`
	PerformedBy string          `json:"performedBy,omitempty" validate:"max=128"`
}

// Validate проверяет запрос по тегам
func (r *AdjustRequest) Validate() error {
	return validate.Struct(r)
}

// ToDomain собирает корректировку
func (r *AdjustRequest) ToDomain(at time.Time) domain.Adjustment {
	performedBy := r.PerformedBy
	if performedBy == "" {
		performedBy = string(domain.RoleAdmin)
	}
	return domain.Adjustment{
		Type:        domain.AdjustmentType(r.Type),
		Amount:      r.Amount,
		Reason:      r.Reason,
		PerformedBy: performedBy,
		CreatedAt:   at,
	}
}

// Response модели

// AdjustmentResponse корректировка баланса
type AdjustmentResponse struct {
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Reason      string          `json:"reason"`
	PerformedBy string          `json:"performedBy"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// WalletResponse ответ с данными кошелька
type WalletResponse struct {
	LocalID  string  `json:"localId,omitempty"`
	ServerID *string `json:"serverId,omitempty"`

	AttendantID       string  `json:"attendantId,omitempty"`
	AttendantServerID *string `json:"attendantServerId,omitempty"`
	AttendantName     string  `json:"attendantName"`
	AttendantEmail    string  `json:"attendantEmail,omitempty"`

	Balance           decimal.Decimal      `json:"balance"`
	TotalEarnings     decimal.Decimal      `json:"totalEarnings"`
	TotalCommission   decimal.Decimal      `json:"totalCommission"`
	TotalCompanyShare decimal.Decimal      `json:"totalCompanyShare"`
	CompanyDebt       decimal.Decimal      `json:"companyDebt"`
	IsPaid            bool                 `json:"isPaid"`
	LastPaymentAt     *time.Time           `json:"lastPaymentAt,omitempty"`
	Adjustments       []AdjustmentResponse `json:"adjustments"`

	UpdatedAt  time.Time `json:"updatedAt"`
	IsSynced   bool      `json:"isSynced"`
	SyncStatus string    `json:"syncStatus"`
}

// WalletListResponse ответ со списком кошельков
type WalletListResponse struct {
	Date    *string          `json:"date,omitempty"` // YYYY-MM-DD для исторического среза
	Source  string           `json:"source"`
	Wallets []WalletResponse `json:"wallets"`
}

// SettleResponse результат расчёта
type SettleResponse struct {
	Wallets []WalletResponse `json:"wallets"`
	Queued  bool             `json:"queued"` // операция ждёт отправки на сервер
}

// OperationResponse результат операции над одним кошельком
type OperationResponse struct {
	Wallet WalletResponse `json:"wallet"`
	Queued bool           `json:"queued"`
}

// Методы конвертации

// FromDomainWallet конвертирует domain модель в DTO
func FromDomainWallet(w *domain.Wallet) *WalletResponse {
	if w == nil {
		return nil
	}

	resp := &WalletResponse{
		LocalID:           w.LocalID,
		ServerID:          w.ServerID,
		AttendantID:       w.AttendantID,
		AttendantServerID: w.AttendantServerID,
		AttendantName:     w.AttendantName,
		AttendantEmail:    w.AttendantEmail,
		Balance:           w.Balance,
		TotalEarnings:     w.TotalEarnings,
		TotalCommission:   w.TotalCommission,
		TotalCompanyShare: w.TotalCompanyShare,
		CompanyDebt:       w.CompanyDebt,
		IsPaid:            w.IsPaid,
		LastPaymentAt:     w.LastPaymentAt,
		Adjustments:       make([]AdjustmentResponse, 0, len(w.Adjustments)),
		UpdatedAt:         w.UpdatedAt,
		IsSynced:          w.IsSynced,
		SyncStatus:        string(w.SyncStatus),
	}
	for _, a := range w.Adjustments {
		resp.Adjustments = append(resp.Adjustments, AdjustmentResponse{
			Type:        string(a.Type),
			Amount:      a.Amount,
			Reason:      a.Reason,
			PerformedBy: a.PerformedBy,
			CreatedAt:   a.CreatedAt,
		})
	}
	return resp
}

// FromDomainWalletList конвертирует список domain моделей в DTO
func FromDomainWalletList(wallets []*domain.Wallet) []WalletResponse {
	out := make([]WalletResponse, 0, len(wallets))
	for _, w := range wallets {
		if resp := FromDomainWallet(w); resp != nil {
			out = append(out, *resp)
		}
	}
	return out
}

// FromRemoteWallet конвертирует кошелёк сервера (исторический срез, в хранилище не попадает)
func FromRemoteWallet(w remoteapi.Wallet) WalletResponse {
	resp := WalletResponse{
		ServerID:          ptr.Ptr(w.ID),
		Balance:           w.Balance,
		TotalEarnings:     w.TotalEarnings,
		TotalCommission:   w.TotalCommission,
		TotalCompanyShare: w.TotalCompanyShare,
		CompanyDebt:       w.CompanyDebt,
		IsPaid:            w.IsPaid,
		LastPaymentAt:     w.LastPaymentAt,
		Adjustments:       make([]AdjustmentResponse, 0, len(w.Adjustments)),
		UpdatedAt:         w.UpdatedAt,
		IsSynced:          true,
		SyncStatus:        string(domain.SyncSynced),
	}
	if w.Attendant != nil {
		resp.AttendantServerID = ptr.Ptr(w.Attendant.ID)
		resp.AttendantName = w.Attendant.Name
		resp.AttendantEmail = w.Attendant.Email
	}
	for _, a := range w.Adjustments {
		resp.Adjustments = append(resp.Adjustments, AdjustmentResponse(a))
	}
	return resp
}
