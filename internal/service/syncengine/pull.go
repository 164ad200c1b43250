package syncengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	attendantRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/attendant"
	bookingRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/booking"
	walletRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/wallet"
	"github.com/m04kA/SMC-WashSync/internal/integrations/remoteapi"
)

// pullAttendants загружает список мойщиков и сохраняет его по серверному ID
func (e *Engine) pullAttendants(ctx context.Context, token string) (int, error) {
	ctx, span := tracer.Start(ctx, "sync.pull.attendants")
	defer span.End()

	users, err := e.remote.ListUsers(ctx, token, string(domain.RoleAttendant))
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	synced := 0
	for _, u := range users {
		if u.ID == "" {
			continue
		}
		err := e.txManager.Do(ctx, func(txCtx context.Context) error {
			existing, err := e.attendantRepo.GetByServerID(txCtx, u.ID)
			if err != nil && !errors.Is(err, attendantRepo.ErrAttendantNotFound) {
				return err
			}

			a := attendantFromServer(u, existing, uuid.NewString())
			if a.UpdatedAt.IsZero() {
				a.UpdatedAt = e.now().UTC()
			}
			if a.CreatedAt.IsZero() {
				a.CreatedAt = a.UpdatedAt
			}
			return e.attendantRepo.Upsert(txCtx, a)
		})
		if err != nil {
			return synced, fmt.Errorf("%w: pullAttendants - attendant %s: %v", ErrInternal, u.ID, err)
		}
		synced++
	}
	return synced, nil
}

// pullBookings загружает последние бронирования и сводит их с локальными
func (e *Engine) pullBookings(ctx context.Context, token string) (int, error) {
	ctx, span := tracer.Start(ctx, "sync.pull.bookings")
	defer span.End()

	bookings, err := e.remote.ListBookings(ctx, token, domain.PullBookingsLimit)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	attendants := newAttendantResolver(e.attendantRepo)
	synced := 0
	for _, sb := range bookings {
		if sb.ID == "" {
			continue
		}
		att, err := attendants.resolve(ctx, sb.Attendant)
		if err != nil {
			return synced, fmt.Errorf("%w: pullBookings - attendant: %v", ErrInternal, err)
		}
		server := bookingFromServer(sb, att)

		err = e.txManager.Do(ctx, func(txCtx context.Context) error {
			local, err := e.bookingRepo.GetByServerID(txCtx, sb.ID)
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				local = nil
			} else if err != nil {
				return err
			}

			pending := false
			if local != nil {
				pending, err = e.queueRepo.HasPendingForEntity(txCtx, domain.EntityBooking, local.LocalID)
				if err != nil {
					return err
				}
			} else {
				server.LocalID = uuid.NewString()
			}

			resolved, changed := MergeBooking(local, server, local != nil && !local.IsSynced, pending)
			if !changed {
				return nil
			}
			e.fillTimestamps(&resolved.CreatedAt, &resolved.UpdatedAt)
			return e.bookingRepo.Upsert(txCtx, resolved)
		})
		if err != nil {
			return synced, fmt.Errorf("%w: pullBookings - booking %s: %v", ErrInternal, sb.ID, err)
		}
		synced++
	}
	return synced, nil
}

// pullWallets загружает кошельки. Кошельки с локальными изменениями
// или с финансовыми операциями в очереди не перезаписываются.
func (e *Engine) pullWallets(ctx context.Context, token string) (int, error) {
	ctx, span := tracer.Start(ctx, "sync.pull.wallets")
	defer span.End()

	wallets, err := e.remote.ListWallets(ctx, token, nil)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	entries, err := e.queueRepo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: pullWallets - list queue: %v", ErrInternal, err)
	}
	refs := collectWalletRefs(entries)

	attendants := newAttendantResolver(e.attendantRepo)
	synced := 0
	for _, sw := range wallets {
		if sw.ID == "" {
			continue
		}
		att, err := attendants.resolve(ctx, sw.Attendant)
		if err != nil {
			return synced, fmt.Errorf("%w: pullWallets - attendant: %v", ErrInternal, err)
		}
		server := walletFromServer(sw, att)

		err = e.txManager.Do(ctx, func(txCtx context.Context) error {
			local, err := e.findWallet(txCtx, server)
			if err != nil {
				return err
			}
			if local == nil {
				server.LocalID = uuid.NewString()
			}

			resolved, changed := MergeWallet(local, server, local != nil && !local.IsSynced, refs.covers(local))
			if !changed {
				return nil
			}
			e.fillTimestamps(&resolved.CreatedAt, &resolved.UpdatedAt)
			return e.walletRepo.Upsert(txCtx, resolved)
		})
		if err != nil {
			return synced, fmt.Errorf("%w: pullWallets - wallet %s: %v", ErrInternal, sw.ID, err)
		}
		synced++
	}
	return synced, nil
}

func (e *Engine) findWallet(ctx context.Context, server *domain.Wallet) (*domain.Wallet, error) {
	local, err := e.walletRepo.GetByServerID(ctx, *server.ServerID)
	if err == nil {
		return local, nil
	}
	if !errors.Is(err, walletRepo.ErrWalletNotFound) {
		return nil, err
	}
	if server.AttendantServerID == nil {
		return nil, nil
	}

	local, err = e.walletRepo.GetByAttendantServerID(ctx, *server.AttendantServerID)
	if errors.Is(err, walletRepo.ErrWalletNotFound) {
		return nil, nil
	}
	return local, err
}

// releaseWallets помечает синхронизированными кошельки, у которых не осталось
// неподтверждённых бронирований и операций в очереди: следующий pull обновит их с сервера
func (e *Engine) releaseWallets(ctx context.Context) (int, error) {
	pending := domain.SyncPending
	wallets, err := e.walletRepo.List(ctx, domain.WalletsFilter{SyncStatus: &pending})
	if err != nil {
		return 0, err
	}
	if len(wallets) == 0 {
		return 0, nil
	}

	entries, err := e.queueRepo.List(ctx)
	if err != nil {
		return 0, err
	}
	refs := collectWalletRefs(entries)

	released := 0
	for _, w := range wallets {
		if refs.covers(w) {
			continue
		}

		err := e.txManager.Do(ctx, func(txCtx context.Context) error {
			current, err := e.walletRepo.GetByLocalID(txCtx, w.LocalID)
			if err != nil {
				return err
			}
			if current.IsSynced {
				return nil
			}
			if current.AttendantID != "" {
				n, err := e.bookingRepo.CountPendingByAttendant(txCtx, current.AttendantID)
				if err != nil || n > 0 {
					return err
				}
			}
			queued, err := e.queueRepo.HasPendingForEntity(txCtx, domain.EntityWallet, current.LocalID)
			if err != nil || queued {
				return err
			}

			current.MarkSynced()
			if err := e.walletRepo.Upsert(txCtx, current); err != nil {
				return err
			}
			released++
			return nil
		})
		if err != nil {
			return released, fmt.Errorf("%w: releaseWallets - wallet %s: %v", ErrInternal, w.LocalID, err)
		}
	}
	return released, nil
}

// fillTimestamps подставляет текущее время, если сервер не прислал отметки
func (e *Engine) fillTimestamps(createdAt, updatedAt *time.Time) {
	if updatedAt.IsZero() {
		*updatedAt = e.now().UTC()
	}
	if createdAt.IsZero() {
		*createdAt = *updatedAt
	}
}

// attendantResolver кэширует поиск локальных сотрудников по серверному ID
type attendantResolver struct {
	repo  AttendantRepository
	cache map[string]*domain.Attendant
}

func newAttendantResolver(repo AttendantRepository) *attendantResolver {
	return &attendantResolver{repo: repo, cache: make(map[string]*domain.Attendant)}
}

func (r *attendantResolver) resolve(ctx context.Context, ref *remoteapi.AttendantRef) (*domain.Attendant, error) {
	if ref == nil || ref.ID == "" {
		return nil, nil
	}
	if a, ok := r.cache[ref.ID]; ok {
		return a, nil
	}

	a, err := r.repo.GetByServerID(ctx, ref.ID)
	if errors.Is(err, attendantRepo.ErrAttendantNotFound) {
		a, err = nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.cache[ref.ID] = a
	return a, nil
}

// walletRefs кошельки, на которые ссылаются финансовые операции в очереди
type walletRefs struct {
	localIDs           map[string]bool
	attendantServerIDs map[string]bool
}

func collectWalletRefs(entries []*domain.QueueEntry) walletRefs {
	refs := walletRefs{
		localIDs:           make(map[string]bool),
		attendantServerIDs: make(map[string]bool),
	}
	for _, e := range entries {
		if !e.Payload.IsWalletOperation() {
			continue
		}
		refs.localIDs[e.LocalID] = true

		switch p := e.Payload; p.Kind {
		case domain.KindWalletSettle:
			for _, id := range p.Settle.AttendantServerIDs {
				refs.attendantServerIDs[id] = true
			}
		case domain.KindWalletMarkPaid:
			refs.attendantServerIDs[p.MarkPaid.AttendantServerID] = true
		case domain.KindWalletAdjust:
			refs.attendantServerIDs[p.Adjust.AttendantServerID] = true
		}
	}
	return refs
}

func (r walletRefs) covers(w *domain.Wallet) bool {
	if w == nil {
		return false
	}
	if r.localIDs[w.LocalID] {
		return true
	}
	return w.AttendantServerID != nil && r.attendantServerIDs[*w.AttendantServerID]
}
