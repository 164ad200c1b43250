// Package ledger считает, как выполненное бронирование влияет на кошелёк мойщика.
// Все функции пакета чистые: ни хранилища, ни сети.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-WashSync/internal/domain"
)

// Multiplier направление применения вклада бронирования
type Multiplier int

const (
	Add    Multiplier = 1
	Remove Multiplier = -1
)

// Split результат расчёта для одного бронирования
type Split struct {
	Commission       decimal.Decimal // 40% мойщику
	CompanyShare     decimal.Decimal // 60% компании
	BalanceDelta     decimal.Decimal
	CompanyDebtDelta decimal.Decimal
}

// Calculate делит сумму бронирования между мойщиком и компанией.
//
// attendant_cash: деньги у мойщика, он должен вернуть долю компании -
// баланс уменьшается на долю компании, долг перед компанией растёт на ту же сумму.
// admin_cash / admin_till: деньги у администратора, мойщику причитается комиссия.
func Calculate(amount decimal.Decimal, paymentType domain.PaymentType) Split {
	commission := amount.Mul(domain.CommissionRate)
	companyShare := amount.Mul(domain.CompanyShareRate)

	split := Split{
		Commission:   commission,
		CompanyShare: companyShare,
	}

	if paymentType == domain.PaymentAttendantCash {
		split.BalanceDelta = companyShare.Neg()
		split.CompanyDebtDelta = companyShare
	} else {
		split.BalanceDelta = commission
		split.CompanyDebtDelta = decimal.Zero
	}

	return split
}

// Apply добавляет (Add) или убирает (Remove) вклад бронирования в кошелёк.
// Итоговые суммы и долг не уходят ниже нуля, баланс знаковый.
func Apply(w *domain.Wallet, amount decimal.Decimal, paymentType domain.PaymentType, m Multiplier, now time.Time) {
	split := Calculate(amount, paymentType)
	k := decimal.NewFromInt(int64(m))

	w.Balance = w.Balance.Add(split.BalanceDelta.Mul(k))
	w.TotalEarnings = clamp(w.TotalEarnings.Add(amount.Mul(k)))
	w.TotalCommission = clamp(w.TotalCommission.Add(split.Commission.Mul(k)))
	w.TotalCompanyShare = clamp(w.TotalCompanyShare.Add(split.CompanyShare.Mul(k)))
	w.CompanyDebt = clamp(w.CompanyDebt.Add(split.CompanyDebtDelta.Mul(k)))
	w.IsPaid = w.Balance.IsZero()
	w.MarkPending(now)
}

// ApplyAdjustment применяет ручную корректировку: tip увеличивает баланс, deduction уменьшает
func ApplyAdjustment(w *domain.Wallet, adj domain.Adjustment, now time.Time) {
	switch adj.Type {
	case domain.AdjustmentTip:
		w.Balance = w.Balance.Add(adj.Amount)
	case domain.AdjustmentDeduction:
		w.Balance = w.Balance.Sub(adj.Amount)
	}
	w.Adjustments = append(w.Adjustments, adj)
	w.IsPaid = w.Balance.IsZero()
	w.MarkPending(now)
}

// Contribution вклад бронирования в кошелёк конкретного мойщика
type Contribution struct {
	AttendantID string
	Amount      decimal.Decimal
	PaymentType domain.PaymentType
}

// ContributionOf возвращает вклад бронирования или nil, если бронирование не выполнено
func ContributionOf(b *domain.Booking) *Contribution {
	if b == nil || !b.IsCompleted() || b.Deleted || b.AttendantID == "" {
		return nil
	}
	return &Contribution{
		AttendantID: b.AttendantID,
		Amount:      b.Amount,
		PaymentType: b.PaymentType,
	}
}

// Equal returns true if both contributions affect wallets identically
func (c *Contribution) Equal(other *Contribution) bool {
	if c == nil || other == nil {
		return c == nil && other == nil
	}
	return c.AttendantID == other.AttendantID &&
		c.Amount.Equal(other.Amount) &&
		c.PaymentType == other.PaymentType
}

// Diff описывает, какие вклады нужно убрать и добавить при переходе booking old -> new.
// Если вклад не изменился, оба результата nil: повторное применение того же
// состояния не трогает кошелёк.
func Diff(before, after *domain.Booking) (remove, add *Contribution) {
	oldC := ContributionOf(before)
	newC := ContributionOf(after)
	if oldC.Equal(newC) {
		return nil, nil
	}
	return oldC, newC
}

func clamp(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
