package syncengine

import (
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	"github.com/m04kA/SMC-WashSync/internal/integrations/remoteapi"
)

func bookingFromServer(sb remoteapi.Booking, att *domain.Attendant) *domain.Booking {
	serverID := sb.ID
	b := &domain.Booking{
		ServerID:           &serverID,
		Category:           domain.BookingCategory(sb.Category),
		RegistrationNumber: sb.RegistrationNumber,
		Phone:              sb.Phone,
		Color:              sb.Color,
		Amount:             sb.Amount,
		PaymentType:        domain.PaymentType(sb.PaymentType),
		Status:             domain.BookingStatus(sb.Status),
		AttendantPaid:      sb.AttendantPaid,
		Note:               sb.Note,
		CreatedAt:          sb.CreatedAt.UTC(),
		UpdatedAt:          sb.UpdatedAt.UTC(),
		IsSynced:           true,
		SyncStatus:         domain.SyncSynced,
	}
	if b.Category != domain.CategoryCarpet {
		b.Category = domain.CategoryVehicle
	}

	if sb.Attendant != nil {
		attendantServerID := sb.Attendant.ID
		b.AttendantServerID = &attendantServerID
		b.AttendantName = sb.Attendant.Name
		b.AttendantEmail = sb.Attendant.Email
	}
	if att != nil {
		b.AttendantID = att.LocalID
		if b.AttendantName == "" {
			b.AttendantName = att.Name
			b.AttendantEmail = att.Email
		}
	}
	return b
}

func walletFromServer(sw remoteapi.Wallet, att *domain.Attendant) *domain.Wallet {
	serverID := sw.ID
	w := &domain.Wallet{
		ServerID:          &serverID,
		Balance:           sw.Balance,
		TotalEarnings:     sw.TotalEarnings,
		TotalCommission:   sw.TotalCommission,
		TotalCompanyShare: sw.TotalCompanyShare,
		CompanyDebt:       decimal.Max(sw.CompanyDebt, decimal.Zero),
		IsPaid:            sw.IsPaid,
		LastPaymentAt:     sw.LastPaymentAt,
		Adjustments:       make([]domain.Adjustment, 0, len(sw.Adjustments)),
		CreatedAt:         sw.CreatedAt.UTC(),
		UpdatedAt:         sw.UpdatedAt.UTC(),
		IsSynced:          true,
		SyncStatus:        domain.SyncSynced,
	}
	for _, a := range sw.Adjustments {
		w.Adjustments = append(w.Adjustments, domain.Adjustment{
			Type:        domain.AdjustmentType(a.Type),
			Amount:      a.Amount,
			Reason:      a.Reason,
			PerformedBy: a.PerformedBy,
			CreatedAt:   a.CreatedAt,
		})
	}

	if sw.Attendant != nil {
		attendantServerID := sw.Attendant.ID
		w.AttendantServerID = &attendantServerID
		w.AttendantName = sw.Attendant.Name
		w.AttendantEmail = sw.Attendant.Email
	}
	if att != nil {
		w.AttendantID = att.LocalID
		if w.AttendantName == "" {
			w.AttendantName = att.Name
			w.AttendantEmail = att.Email
		}
	}
	return w
}

func attendantFromServer(u remoteapi.User, existing *domain.Attendant, localID string) *domain.Attendant {
	serverID := u.ID
	a := &domain.Attendant{
		LocalID:     localID,
		ServerID:    &serverID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        domain.Role(u.Role),
		Photo:       u.Photo,
		IsAvailable: true,
		CreatedAt:   u.CreatedAt.UTC(),
		UpdatedAt:   u.UpdatedAt.UTC(),
		IsSynced:    true,
		SyncStatus:  domain.SyncSynced,
	}
	if a.Role == "" {
		a.Role = domain.RoleAttendant
	}
	if existing != nil {
		a.LocalID = existing.LocalID
		a.IsAvailable = existing.IsAvailable
		a.CreatedAt = existing.CreatedAt
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = a.UpdatedAt
	}
	return a
}
