// Package bookings офлайн-фасад бронирований: чтение и запись всегда идут
// через локальное хранилище, сервер вызывается сразу при наличии сети,
// иначе операция ставится в очередь.
package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	bookingRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/booking"
	"github.com/m04kA/SMC-WashSync/internal/integrations/remoteapi"
	"github.com/m04kA/SMC-WashSync/internal/service/bookings/models"
)

// Service сервис для работы с бронированиями
type Service struct {
	bookingRepo   BookingRepository
	walletRepo    WalletRepository
	attendantRepo AttendantRepository
	queueRepo     QueueRepository
	queue         QueueManager
	remote        RemoteAPI
	connectivity  Connectivity
	sync          SyncTrigger
	txManager     TransactionManager
	logger        Logger

	now func() time.Time
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	walletRepo WalletRepository,
	attendantRepo AttendantRepository,
	queueRepo QueueRepository,
	queue QueueManager,
	remote RemoteAPI,
	connectivity Connectivity,
	sync SyncTrigger,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:   bookingRepo,
		walletRepo:    walletRepo,
		attendantRepo: attendantRepo,
		queueRepo:     queueRepo,
		queue:         queue,
		remote:        remote,
		connectivity:  connectivity,
		sync:          sync,
		txManager:     txManager,
		logger:        logger,
		now:           time.Now,
	}
}

// List возвращает бронирования из локального хранилища.
// При наличии сети в фоне запускается синхронизация.
func (s *Service) List(ctx context.Context, req *models.ListBookingsRequest) (*models.BookingListResponse, error) {
	if err := req.Validate(); err != nil {
		s.logger.Warn("List: invalid request: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	bookings, err := s.bookingRepo.List(ctx, req.ToDomainFilter())
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	if s.connectivity.IsOnline() {
		s.sync.TriggerBackground()
	}

	s.logger.Info("List: fetched %d bookings", len(bookings))
	return models.FromDomainBookingList(bookings), nil
}

// Get получает бронирование по локальному или серверному ID
func (s *Service) Get(ctx context.Context, id string) (*models.BookingResponse, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			s.logger.Warn("Get: booking id=%s not found", id)
			return nil, err
		}
		s.logger.Error("Get: repository error for booking id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: Get - repository error: %v", ErrInternal, err)
	}
	return models.FromDomainBooking(b), nil
}

// CreateVehicleBooking создаёт бронирование мойки автомобиля
func (s *Service) CreateVehicleBooking(ctx context.Context, token string, req *models.CreateVehicleBookingRequest) (*models.BookingResponse, error) {
	const op = "CreateVehicleBooking"
	s.logger.Info("%s: creating booking registration=%s", op, req.RegistrationNumber)

	if err := req.Validate(); err != nil {
		s.logger.Warn("%s: invalid request: %v", op, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.create(ctx, op, token, req.ToDomain(uuid.NewString(), s.now().UTC()), req.AttendantID)
}

// CreateCarpetBooking создаёт бронирование чистки ковра
func (s *Service) CreateCarpetBooking(ctx context.Context, token string, req *models.CreateCarpetBookingRequest) (*models.BookingResponse, error) {
	const op = "CreateCarpetBooking"
	s.logger.Info("%s: creating booking phone=%s", op, req.Phone)

	if err := req.Validate(); err != nil {
		s.logger.Warn("%s: invalid request: %v", op, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.create(ctx, op, token, req.ToDomain(uuid.NewString(), s.now().UTC()), req.AttendantID)
}

func (s *Service) create(ctx context.Context, op, token string, b *domain.Booking, attendantID *string) (*models.BookingResponse, error) {
	online := s.connectivity.IsOnline()

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		if attendantID != nil && *attendantID != "" {
			a, err := s.findAttendant(txCtx, *attendantID)
			if err != nil {
				return err
			}
			assignAttendant(b, a)
		}
		if err := b.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}

		if err := s.bookingRepo.Upsert(txCtx, b); err != nil {
			return err
		}
		if err := s.applyWallets(txCtx, nil, b); err != nil {
			return err
		}
		if !online {
			return s.enqueue(txCtx, domain.OperationCreate, b.LocalID, createPayload())
		}
		return nil
	})
	if err != nil {
		return nil, s.failure(op, b.LocalID, err)
	}

	if online {
		if confirmed := s.pushCreate(ctx, op, token, b); confirmed != nil {
			b = confirmed
		}
	}

	s.logger.Info("%s: stored booking local_id=%s sync_status=%s", op, b.LocalID, b.SyncStatus)
	return models.FromDomainBooking(b), nil
}

// Update применяет изменения локально, пересчитывает кошельки и отправляет
// бронирование на сервер или ставит обновление в очередь
func (s *Service) Update(ctx context.Context, id, token string, req *models.UpdateBookingRequest) (*models.BookingResponse, error) {
	const op = "Update"
	s.logger.Info("%s: updating booking id=%s", op, id)

	if err := req.Validate(); err != nil {
		s.logger.Warn("%s: invalid request for booking id=%s: %v", op, id, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	online := s.connectivity.IsOnline()

	var (
		updated *domain.Booking
		fields  []string
		queued  bool
	)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		current, err := s.find(txCtx, id)
		if err != nil {
			return err
		}

		next := *current
		fields = req.ApplyTo(&next)
		if req.AttendantID != nil {
			changed, err := s.reassign(txCtx, &next, *req.AttendantID)
			if err != nil {
				return err
			}
			if changed {
				fields = append(fields, models.FieldAttendant)
			}
		}

		if len(fields) == 0 {
			updated = current
			return nil
		}
		if err := next.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}

		next.MarkPending(s.now().UTC())
		if err := s.bookingRepo.Upsert(txCtx, &next); err != nil {
			return err
		}
		if err := s.applyWallets(txCtx, current, &next); err != nil {
			return err
		}

		updated = &next
		if online && next.HasServerID() {
			return nil
		}
		queued = true
		return s.enqueue(txCtx, domain.OperationUpdate, next.LocalID, updatePayload(fields))
	})
	if err != nil {
		return nil, s.failure(op, id, err)
	}

	if len(fields) == 0 {
		s.logger.Info("%s: booking id=%s unchanged", op, id)
		return models.FromDomainBooking(updated), nil
	}

	if online && !queued {
		if confirmed := s.pushUpdate(ctx, op, token, updated, fields); confirmed != nil {
			updated = confirmed
		}
	}

	s.logger.Info("%s: updated booking local_id=%s fields=%v", op, updated.LocalID, fields)
	return models.FromDomainBooking(updated), nil
}

// Delete удаляет бронирование. Неизвестное серверу бронирование удаляется
// сразу и в очередь не попадает, остальные помечаются удалёнными до подтверждения.
func (s *Service) Delete(ctx context.Context, id, token string) error {
	const op = "Delete"
	s.logger.Info("%s: deleting booking id=%s", op, id)

	online := s.connectivity.IsOnline()

	var (
		localID  string
		serverID string
		local    bool
	)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		b, err := s.find(txCtx, id)
		if err != nil {
			return err
		}
		localID = b.LocalID

		if err := s.applyWallets(txCtx, b, nil); err != nil {
			return err
		}
		// Записи очереди по бронированию больше не нужны: create/update отменяются удалением
		if err := s.queueRepo.RemoveByEntity(txCtx, domain.EntityBooking, b.LocalID); err != nil {
			return err
		}

		if !b.HasServerID() {
			local = true
			return s.bookingRepo.Delete(txCtx, b.LocalID)
		}
		serverID = *b.ServerID

		b.Deleted = true
		b.MarkPending(s.now().UTC())
		if err := s.bookingRepo.Upsert(txCtx, b); err != nil {
			return err
		}
		if !online {
			return s.enqueue(txCtx, domain.OperationDelete, b.LocalID, deletePayload(serverID))
		}
		return nil
	})
	if err != nil {
		return s.failure(op, id, err)
	}

	switch {
	case local:
		s.logger.Info("%s: booking local_id=%s was never synced, deleted locally", op, localID)
	case online:
		s.pushDelete(ctx, op, token, localID, serverID)
	default:
		s.logger.Info("%s: booking local_id=%s marked deleted, queued for server", op, localID)
	}
	return nil
}

func (s *Service) pushCreate(ctx context.Context, op, token string, b *domain.Booking) *domain.Booking {
	req := remoteapi.BookingRequestFrom(b)

	var (
		created *remoteapi.Booking
		err     error
	)
	if b.Category == domain.CategoryCarpet {
		created, err = s.remote.CreateCarpetBooking(ctx, token, req)
	} else {
		created, err = s.remote.CreateVehicleBooking(ctx, token, req)
	}
	if err != nil {
		s.remoteFailed(op, b.LocalID, err)
		s.enqueueAfterFailure(ctx, op, domain.OperationCreate, b.LocalID, createPayload())
		return nil
	}

	confirmed := s.confirm(ctx, op, b.LocalID, &created.ID)
	if confirmed == nil {
		s.enqueueAfterFailure(ctx, op, domain.OperationCreate, b.LocalID, createPayload())
	}
	return confirmed
}

func (s *Service) pushUpdate(ctx context.Context, op, token string, b *domain.Booking, fields []string) *domain.Booking {
	if _, err := s.remote.UpdateBooking(ctx, token, *b.ServerID, remoteapi.BookingRequestFrom(b)); err != nil {
		s.remoteFailed(op, b.LocalID, err)
		s.enqueueAfterFailure(ctx, op, domain.OperationUpdate, b.LocalID, updatePayload(fields))
		return nil
	}

	confirmed := s.confirm(ctx, op, b.LocalID, nil)
	if confirmed == nil {
		s.enqueueAfterFailure(ctx, op, domain.OperationUpdate, b.LocalID, updatePayload(fields))
	}
	return confirmed
}

func (s *Service) pushDelete(ctx context.Context, op, token, localID, serverID string) {
	if err := s.remote.DeleteBooking(ctx, token, serverID); err != nil {
		s.remoteFailed(op, localID, err)
		s.enqueueAfterFailure(ctx, op, domain.OperationDelete, localID, deletePayload(serverID))
		return
	}

	err := s.bookingRepo.Delete(ctx, localID)
	if err != nil && !errors.Is(err, bookingRepo.ErrBookingNotFound) {
		s.logger.Error("%s: failed to remove deleted booking local_id=%s: %v", op, localID, err)
		return
	}
	s.logger.Info("%s: booking local_id=%s deleted on server", op, localID)
}

// confirm привязывает серверный ID и помечает бронирование синхронизированным,
// если в очереди нет его изменений
func (s *Service) confirm(ctx context.Context, op, localID string, serverID *string) *domain.Booking {
	var confirmed *domain.Booking

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		b, err := s.bookingRepo.GetByLocalID(txCtx, localID)
		if err != nil {
			return err
		}
		if serverID != nil {
			if err := b.AttachServerID(*serverID); err != nil {
				return err
			}
		}

		pending, err := s.queueRepo.HasPendingForEntity(txCtx, domain.EntityBooking, localID)
		if err != nil {
			return err
		}
		if !pending {
			b.MarkSynced()
		}

		confirmed = b
		return s.bookingRepo.Upsert(txCtx, b)
	})
	if err != nil {
		s.logger.Error("%s: failed to confirm booking local_id=%s: %v", op, localID, err)
		return nil
	}
	return confirmed
}

func (s *Service) find(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := s.bookingRepo.GetByLocalID(ctx, id)
	if errors.Is(err, bookingRepo.ErrBookingNotFound) {
		b, err = s.bookingRepo.GetByServerID(ctx, id)
	}
	if errors.Is(err, bookingRepo.ErrBookingNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if b.Deleted {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

func (s *Service) enqueue(ctx context.Context, op domain.Operation, localID string, payload domain.QueuePayload) error {
	if s.queue.Enqueue(ctx, op, domain.EntityBooking, localID, payload) == nil {
		return ErrEnqueue
	}
	return nil
}

func (s *Service) enqueueAfterFailure(ctx context.Context, op string, operation domain.Operation, localID string, payload domain.QueuePayload) {
	if err := s.enqueue(ctx, operation, localID, payload); err != nil {
		s.logger.Error("%s: booking local_id=%s stays unsynced: %v", op, localID, err)
	}
}

func (s *Service) remoteFailed(op, localID string, err error) {
	if remoteapi.IsNetworkError(err) {
		s.logger.Warn("%s: server unreachable for booking local_id=%s, queueing: %v", op, localID, err)
		return
	}
	s.logger.Error("%s: server rejected booking local_id=%s, queueing: %v", op, localID, err)
}

// failure переводит ошибку транзакции в ошибку сервиса
func (s *Service) failure(op, id string, err error) error {
	switch {
	case errors.Is(err, ErrBookingNotFound):
		s.logger.Warn("%s: booking id=%s not found", op, id)
		return ErrBookingNotFound
	case errors.Is(err, ErrAttendantNotFound), errors.Is(err, ErrInvalidInput):
		s.logger.Warn("%s: rejected booking id=%s: %v", op, id, err)
		return err
	}
	s.logger.Error("%s: repository error for booking id=%s: %v", op, id, err)
	return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
}

func createPayload() domain.QueuePayload {
	return domain.QueuePayload{Kind: domain.KindBookingCreate, Booking: &domain.BookingChange{}}
}

func updatePayload(fields []string) domain.QueuePayload {
	return domain.QueuePayload{Kind: domain.KindBookingUpdate, Booking: &domain.BookingChange{Fields: fields}}
}

func deletePayload(serverID string) domain.QueuePayload {
	return domain.QueuePayload{Kind: domain.KindBookingDelete, Delete: &domain.BookingDelete{ServerID: &serverID}}
}
