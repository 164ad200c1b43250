package remoteapi

import (
	"github.com/m04kA/SMC-WashSync/internal/domain"
)

// BookingRequestFrom собирает тело запроса из текущего состояния локального бронирования
func BookingRequestFrom(b *domain.Booking) BookingRequest {
	paid := b.AttendantPaid
	req := BookingRequest{
		AttendantID:   b.AttendantServerID,
		Amount:        b.Amount,
		PaymentType:   string(b.PaymentType),
		Status:        string(b.Status),
		AttendantPaid: &paid,
		Note:          b.Note,
	}
	switch b.Category {
	case domain.CategoryCarpet:
		req.Phone = b.Phone
		req.Color = b.Color
	default:
		req.RegistrationNumber = b.RegistrationNumber
	}
	return req
}

// SnapshotFrom переводит снимок кошелька в представление сервера
func SnapshotFrom(s domain.WalletSnapshot) WalletSnapshot {
	return WalletSnapshot{
		Balance:           s.Balance,
		TotalEarnings:     s.TotalEarnings,
		TotalCommission:   s.TotalCommission,
		TotalCompanyShare: s.TotalCompanyShare,
		CompanyDebt:       s.CompanyDebt,
	}
}

// SettleRequestFrom собирает тело расчёта из полезной нагрузки очереди
func SettleRequestFrom(p *domain.SettlePayload) SettleRequest {
	req := SettleRequest{AttendantIDs: p.AttendantServerIDs}
	if len(p.Snapshots) > 0 {
		req.Snapshots = make(map[string]WalletSnapshot, len(p.Snapshots))
		for id, s := range p.Snapshots {
			req.Snapshots[id] = SnapshotFrom(s)
		}
	}
	return req
}

// MarkPaidRequestFrom собирает тело отметки о выплате
func MarkPaidRequestFrom(p *domain.MarkPaidPayload) MarkPaidRequest {
	s := SnapshotFrom(p.Snapshot)
	return MarkPaidRequest{Snapshot: &s}
}

// AdjustRequestFrom собирает тело корректировки
func AdjustRequestFrom(p *domain.AdjustPayload) AdjustRequest {
	s := SnapshotFrom(p.Snapshot)
	return AdjustRequest{
		Amount:   p.Amount,
		Type:     string(p.Type),
		Reason:   p.Reason,
		Snapshot: &s,
	}
}
