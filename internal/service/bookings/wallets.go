package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	attendantRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/attendant"
	walletRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/wallet"
	"github.com/m04kA/SMC-WashSync/internal/ledger"
)

// applyWallets переносит изменение вклада бронирования в кошельки мойщиков:
// старый вклад убирается, новый добавляется. Без изменения вклада кошельки не трогаются.
func (s *Service) applyWallets(ctx context.Context, before, after *domain.Booking) error {
	remove, add := ledger.Diff(before, after)
	now := s.now().UTC()

	if remove != nil {
		w, err := s.walletRepo.GetByAttendantID(ctx, remove.AttendantID)
		switch {
		case errors.Is(err, walletRepo.ErrWalletNotFound):
			s.logger.Warn("applyWallets: no wallet for attendant=%s, nothing to remove", remove.AttendantID)
		case err != nil:
			return err
		default:
			ledger.Apply(w, remove.Amount, remove.PaymentType, ledger.Remove, now)
			if err := s.walletRepo.Upsert(ctx, w); err != nil {
				return err
			}
		}
	}

	if add != nil {
		w, err := s.walletFor(ctx, add.AttendantID, now)
		if err != nil {
			return err
		}
		ledger.Apply(w, add.Amount, add.PaymentType, ledger.Add, now)
		if err := s.walletRepo.Upsert(ctx, w); err != nil {
			return err
		}
	}

	return nil
}

// walletFor возвращает кошелёк мойщика, создавая пустой при первом выполненном бронировании
func (s *Service) walletFor(ctx context.Context, attendantID string, now time.Time) (*domain.Wallet, error) {
	w, err := s.walletRepo.GetByAttendantID(ctx, attendantID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, walletRepo.ErrWalletNotFound) {
		return nil, err
	}

	a, err := s.attendantRepo.GetByLocalID(ctx, attendantID)
	if err != nil {
		if !errors.Is(err, attendantRepo.ErrAttendantNotFound) {
			return nil, err
		}
		a = nil
	}

	w = domain.NewWallet(uuid.NewString(), a, now)
	w.AttendantID = attendantID
	s.logger.Info("applyWallets: created wallet local_id=%s for attendant=%s", w.LocalID, attendantID)
	return w, nil
}

// reassign назначает мойщика по локальному или серверному ID, пустой ID снимает назначение
func (s *Service) reassign(ctx context.Context, b *domain.Booking, attendantID string) (bool, error) {
	if attendantID == "" {
		if b.AttendantID == "" {
			return false, nil
		}
		assignAttendant(b, nil)
		return true, nil
	}

	a, err := s.findAttendant(ctx, attendantID)
	if err != nil {
		return false, err
	}
	if a.LocalID == b.AttendantID {
		return false, nil
	}
	assignAttendant(b, a)
	return true, nil
}

func (s *Service) findAttendant(ctx context.Context, id string) (*domain.Attendant, error) {
	a, err := s.attendantRepo.GetByLocalID(ctx, id)
	if errors.Is(err, attendantRepo.ErrAttendantNotFound) {
		a, err = s.attendantRepo.GetByServerID(ctx, id)
	}
	if errors.Is(err, attendantRepo.ErrAttendantNotFound) {
		return nil, ErrAttendantNotFound
	}
	return a, err
}

func assignAttendant(b *domain.Booking, a *domain.Attendant) {
	if a == nil {
		b.AttendantID = ""
		b.AttendantServerID = nil
		b.AttendantName = ""
		b.AttendantEmail = ""
		return
	}
	b.AttendantID = a.LocalID
	b.AttendantServerID = a.ServerID
	b.AttendantName = a.Name
	b.AttendantEmail = a.Email
}
