// Package queue хранит мутации, сделанные без сети, и отправляет их на сервер.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	bookingRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/booking"
	walletRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/wallet"
	"github.com/m04kA/SMC-WashSync/internal/integrations/remoteapi"
)

var tracer = otel.Tracer("github.com/m04kA/SMC-WashSync/internal/service/queue")

// DrainResult итог одного прохода по очереди
type DrainResult struct {
	Attempted int  `json:"attempted"`
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`
	Dropped   int  `json:"dropped"`
	Evicted   int  `json:"evicted"`
	Remaining int  `json:"remaining"`
	Skipped   bool `json:"skipped"` // другой проход уже выполняется
	Stopped   bool `json:"stopped"` // проход прерван потерей сети
}

type outcome int

const (
	outcomeSucceeded outcome = iota
	outcomeFailed
	outcomeDropped
)

// confirmation результат отправки бронирования, который нужно применить к локальной записи
type confirmation struct {
	localID  string
	serverID string // пустой для update
}

// Manager очередь операций синхронизации
type Manager struct {
	queueRepo    QueueRepository
	bookingRepo  BookingRepository
	walletRepo   WalletRepository
	txManager    TransactionManager
	remote       RemoteAPI
	connectivity Connectivity
	metrics      Metrics
	logger       Logger

	now func() time.Time

	mu       sync.Mutex
	draining bool

	seqMu        sync.Mutex
	lastEnqueued time.Time
}

// NewManager создает новый экземпляр менеджера очереди
func NewManager(
	queueRepo QueueRepository,
	bookingRepo BookingRepository,
	walletRepo WalletRepository,
	txManager TransactionManager,
	remote RemoteAPI,
	connectivity Connectivity,
	metrics Metrics,
	logger Logger,
) *Manager {
	return &Manager{
		queueRepo:    queueRepo,
		bookingRepo:  bookingRepo,
		walletRepo:   walletRepo,
		txManager:    txManager,
		remote:       remote,
		connectivity: connectivity,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// Enqueue ставит операцию в очередь. Ошибка хранилища логируется и не возвращается:
// в этом случае результат nil.
func (m *Manager) Enqueue(
	ctx context.Context,
	op domain.Operation,
	entityType domain.EntityType,
	localID string,
	payload domain.QueuePayload,
) *domain.QueueEntry {
	entry := &domain.QueueEntry{
		ID:         uuid.NewString(),
		Operation:  op,
		EntityType: entityType,
		LocalID:    localID,
		Payload:    payload,
		EnqueuedAt: m.nextEnqueueTime(),
	}

	if err := m.queueRepo.Add(ctx, entry); err != nil {
		m.logger.Error("Enqueue: failed to add %s %s local_id=%s: %v", payload.Kind, op, localID, err)
		m.metrics.QueueAttempt(string(payload.Kind), "enqueue_failed")
		return nil
	}

	m.logger.Info("Enqueue: queued %s local_id=%s id=%s", payload.Kind, localID, entry.ID)
	return entry
}

// IsDraining returns true while a drain pass is running
func (m *Manager) IsDraining() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draining
}

// Depth количество записей в очереди
func (m *Manager) Depth(ctx context.Context) (int, error) {
	n, err := m.queueRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: Depth - repository error: %v", ErrInternal, err)
	}
	return n, nil
}

// Drain отправляет записи очереди в порядке постановки, по одной попытке на запись.
// Параллельный вызов сразу возвращает Skipped.
func (m *Manager) Drain(ctx context.Context, token string) DrainResult {
	m.mu.Lock()
	if m.draining {
		m.mu.Unlock()
		m.logger.Info("Drain: already in progress, skipping")
		return DrainResult{Skipped: true}
	}
	m.draining = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.draining = false
		m.mu.Unlock()
	}()

	ctx, span := tracer.Start(ctx, "queue.drain")
	defer span.End()

	var result DrainResult

	entries, err := m.queueRepo.List(ctx)
	if err != nil {
		m.logger.Error("Drain: failed to list queue: %v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "list queue")
		return result
	}

	for _, e := range entries {
		if ctx.Err() != nil || !m.connectivity.IsOnline() {
			m.logger.Warn("Drain: connectivity lost, %d entries left for the next pass", len(entries)-result.Attempted)
			result.Stopped = true
			break
		}

		result.Attempted++
		m.handle(ctx, token, e, &result)
	}

	if depth, err := m.queueRepo.Count(ctx); err != nil {
		m.logger.Error("Drain: failed to count queue: %v", err)
	} else {
		result.Remaining = depth
		m.metrics.SetQueueDepth(depth)
	}

	span.SetAttributes(
		attribute.Int("queue.attempted", result.Attempted),
		attribute.Int("queue.succeeded", result.Succeeded),
		attribute.Int("queue.failed", result.Failed),
		attribute.Int("queue.remaining", result.Remaining),
	)

	if result.Attempted > 0 {
		m.logger.Info("Drain: attempted=%d succeeded=%d failed=%d dropped=%d evicted=%d remaining=%d",
			result.Attempted, result.Succeeded, result.Failed, result.Dropped, result.Evicted, result.Remaining)
	}
	return result
}

func (m *Manager) handle(ctx context.Context, token string, e *domain.QueueEntry, result *DrainResult) {
	kind := string(e.Payload.Kind)

	res, confirmed, err := m.process(ctx, token, e)
	switch res {
	case outcomeSucceeded:
		result.Succeeded++
		m.metrics.QueueAttempt(kind, "success")
		if err := m.queueRepo.Remove(ctx, e.ID); err != nil {
			m.logger.Error("Drain: failed to remove entry id=%s: %v", e.ID, err)
			return
		}
		if confirmed != nil {
			m.confirmBooking(ctx, confirmed)
		}

	case outcomeDropped:
		result.Dropped++
		m.metrics.QueueAttempt(kind, "dropped")
		m.logger.Warn("Drain: dropping %s local_id=%s: %v", kind, e.LocalID, err)
		if err := m.queueRepo.Remove(ctx, e.ID); err != nil {
			m.logger.Error("Drain: failed to remove entry id=%s: %v", e.ID, err)
		}

	case outcomeFailed:
		result.Failed++
		m.metrics.QueueAttempt(kind, "failure")
		if remoteapi.IsNetworkError(err) {
			m.logger.Warn("Drain: %s local_id=%s failed: %v", kind, e.LocalID, err)
		} else {
			m.logger.Error("Drain: %s local_id=%s failed: %v", kind, e.LocalID, err)
		}

		retries, uerr := m.queueRepo.UpdateError(ctx, e.ID, err.Error())
		if uerr != nil {
			m.logger.Error("Drain: failed to record error for entry id=%s: %v", e.ID, uerr)
			return
		}
		if retries >= domain.MaxQueueRetries {
			result.Evicted++
			m.metrics.QueueEvicted()
			m.logger.Error("Drain: evicting %s local_id=%s after %d attempts, last error: %v", kind, e.LocalID, retries, err)
			if err := m.queueRepo.Remove(ctx, e.ID); err != nil {
				m.logger.Error("Drain: failed to evict entry id=%s: %v", e.ID, err)
			}
		}
	}
}

func (m *Manager) process(ctx context.Context, token string, e *domain.QueueEntry) (outcome, *confirmation, error) {
	switch e.EntityType {
	case domain.EntityBooking:
		return m.processBooking(ctx, token, e)
	case domain.EntityWallet:
		res, err := m.processWallet(ctx, token, e)
		return res, nil, err
	default:
		return outcomeDropped, nil, fmt.Errorf("%w: entity type %q", ErrUnsupported, e.EntityType)
	}
}

func (m *Manager) processBooking(ctx context.Context, token string, e *domain.QueueEntry) (outcome, *confirmation, error) {
	b, err := m.bookingRepo.GetByLocalID(ctx, e.LocalID)
	if errors.Is(err, bookingRepo.ErrBookingNotFound) {
		return outcomeDropped, nil, ErrEntityNotFound
	}
	if err != nil {
		return outcomeFailed, nil, err
	}

	switch e.Payload.Kind {
	case domain.KindBookingCreate:
		req := remoteapi.BookingRequestFrom(b)
		var created *remoteapi.Booking
		if b.Category == domain.CategoryCarpet {
			created, err = m.remote.CreateCarpetBooking(ctx, token, req)
		} else {
			created, err = m.remote.CreateVehicleBooking(ctx, token, req)
		}
		if err != nil {
			return outcomeFailed, nil, err
		}
		if created == nil || created.ID == "" {
			return outcomeFailed, nil, domain.ErrEmptyServerID
		}
		return outcomeSucceeded, &confirmation{localID: b.LocalID, serverID: created.ID}, nil

	case domain.KindBookingUpdate:
		if !b.HasServerID() {
			return outcomeFailed, nil, ErrMissingServerID
		}
		if _, err := m.remote.UpdateBooking(ctx, token, *b.ServerID, remoteapi.BookingRequestFrom(b)); err != nil {
			return outcomeFailed, nil, err
		}
		return outcomeSucceeded, &confirmation{localID: b.LocalID}, nil

	case domain.KindBookingDelete:
		serverID := b.ServerID
		if serverID == nil && e.Payload.Delete != nil {
			serverID = e.Payload.Delete.ServerID
		}
		if serverID == nil || *serverID == "" {
			m.deleteLocal(ctx, b.LocalID)
			return outcomeDropped, nil, ErrMissingServerID
		}
		if err := m.remote.DeleteBooking(ctx, token, *serverID); err != nil {
			return outcomeFailed, nil, err
		}
		m.deleteLocal(ctx, b.LocalID)
		return outcomeSucceeded, nil, nil
	}

	return outcomeDropped, nil, fmt.Errorf("%w: kind %q for booking", ErrUnsupported, e.Payload.Kind)
}

func (m *Manager) processWallet(ctx context.Context, token string, e *domain.QueueEntry) (outcome, error) {
	p := e.Payload

	if p.Kind == domain.KindWalletSettle {
		if err := m.remote.SettleBalances(ctx, token, remoteapi.SettleRequestFrom(p.Settle)); err != nil {
			return outcomeFailed, err
		}
		return outcomeSucceeded, nil
	}

	if _, err := m.walletRepo.GetByLocalID(ctx, e.LocalID); err != nil {
		if errors.Is(err, walletRepo.ErrWalletNotFound) {
			return outcomeDropped, ErrEntityNotFound
		}
		return outcomeFailed, err
	}

	switch p.Kind {
	case domain.KindWalletMarkPaid:
		err := m.remote.MarkAttendantPaid(ctx, token, p.MarkPaid.AttendantServerID, remoteapi.MarkPaidRequestFrom(p.MarkPaid))
		if err != nil {
			return outcomeFailed, err
		}
		return outcomeSucceeded, nil

	case domain.KindWalletAdjust:
		err := m.remote.AdjustWalletBalance(ctx, token, p.Adjust.AttendantServerID, remoteapi.AdjustRequestFrom(p.Adjust))
		if err != nil {
			return outcomeFailed, err
		}
		return outcomeSucceeded, nil
	}

	return outcomeDropped, fmt.Errorf("%w: kind %q for wallet", ErrUnsupported, p.Kind)
}

// confirmBooking перечитывает бронирование в транзакции, привязывает серверный ID
// и помечает запись синхронизированной, если в очереди не осталось её изменений.
// Правки, сделанные во время запроса к серверу, сохраняются.
func (m *Manager) confirmBooking(ctx context.Context, c *confirmation) {
	err := m.txManager.Do(ctx, func(txCtx context.Context) error {
		b, err := m.bookingRepo.GetByLocalID(txCtx, c.localID)
		if err != nil {
			return err
		}
		if c.serverID != "" {
			if err := b.AttachServerID(c.serverID); err != nil {
				return err
			}
		}

		pending, err := m.queueRepo.HasPendingForEntity(txCtx, domain.EntityBooking, c.localID)
		if err != nil {
			return err
		}
		if !pending {
			b.MarkSynced()
		}
		return m.bookingRepo.Upsert(txCtx, b)
	})
	switch {
	case errors.Is(err, bookingRepo.ErrBookingNotFound):
		m.logger.Warn("Drain: booking local_id=%s removed before confirmation", c.localID)
	case err != nil:
		m.logger.Error("Drain: failed to store confirmed booking local_id=%s: %v", c.localID, err)
	}
}

func (m *Manager) deleteLocal(ctx context.Context, localID string) {
	err := m.bookingRepo.Delete(ctx, localID)
	if err != nil && !errors.Is(err, bookingRepo.ErrBookingNotFound) {
		m.logger.Error("Drain: failed to delete local booking local_id=%s: %v", localID, err)
	}
}

// nextEnqueueTime строго возрастающее время постановки: порядок FIFO
// сохраняется даже для записей, поставленных в одну наносекунду
func (m *Manager) nextEnqueueTime() time.Time {
	m.seqMu.Lock()
	defer m.seqMu.Unlock()

	t := m.now().UTC()
	if !t.After(m.lastEnqueued) {
		t = m.lastEnqueued.Add(time.Nanosecond)
	}
	m.lastEnqueued = t
	return t
}
