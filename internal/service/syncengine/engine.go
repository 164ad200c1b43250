// Package syncengine сводит локальное хранилище с сервером:
// подтягивает сотрудников, бронирования и кошельки и отправляет очередь.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/m04kA/SMC-WashSync/internal/connectivity"
	"github.com/m04kA/SMC-WashSync/internal/integrations/remoteapi"
	"github.com/m04kA/SMC-WashSync/internal/service/queue"
	"github.com/m04kA/SMC-WashSync/pkg/session"
)

var tracer = otel.Tracer("github.com/m04kA/SMC-WashSync/internal/service/syncengine")

// State состояние движка синхронизации
type State string

const (
	StateIdle    State = "idle"
	StateSyncing State = "syncing"
)

// Области синхронизации
const (
	AreaAttendants = "attendants"
	AreaBookings   = "bookings"
	AreaWallets    = "wallets"
	AreaQueue      = "queue"
)

// AreaResult итог синхронизации одной области
type AreaResult struct {
	Synced int    `json:"synced"`
	Error  string `json:"error,omitempty"`
}

// Result итог цикла синхронизации
type Result struct {
	AlreadySyncing bool              `json:"alreadySyncing"`
	StartedAt      time.Time         `json:"startedAt"`
	Duration       time.Duration     `json:"duration"`
	Attendants     AreaResult        `json:"attendants"`
	Bookings       AreaResult        `json:"bookings"`
	Wallets        AreaResult        `json:"wallets"`
	Queue          queue.DrainResult `json:"queue"`
	Released       int               `json:"released"`
	Unsynced       int               `json:"unsynced"`
}

// HasErrors returns true if any area failed
func (r Result) HasErrors() bool {
	return r.Attendants.Error != "" || r.Bookings.Error != "" || r.Wallets.Error != ""
}

// Status снимок состояния для подписчиков и API
type Status struct {
	State      State      `json:"state"`
	LastResult *Result    `json:"lastResult,omitempty"`
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
	LastError  string     `json:"lastError,omitempty"`
}

// Engine движок синхронизации
type Engine struct {
	attendantRepo AttendantRepository
	bookingRepo   BookingRepository
	walletRepo    WalletRepository
	queueRepo     QueueRepository
	queue         QueueManager
	remote        RemoteAPI
	connectivity  Connectivity
	tokens        TokenSource
	txManager     TransactionManager
	metrics       Metrics
	logger        Logger

	now func() time.Time

	mu     sync.Mutex
	status Status
	subs   map[int]func(Status)
	nextID int

	baseCtx context.Context
	wg      sync.WaitGroup
}

// NewEngine создает новый экземпляр движка синхронизации
func NewEngine(
	attendantRepo AttendantRepository,
	bookingRepo BookingRepository,
	walletRepo WalletRepository,
	queueRepo QueueRepository,
	queueManager QueueManager,
	remote RemoteAPI,
	conn Connectivity,
	tokens TokenSource,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *Engine {
	return &Engine{
		attendantRepo: attendantRepo,
		bookingRepo:   bookingRepo,
		walletRepo:    walletRepo,
		queueRepo:     queueRepo,
		queue:         queueManager,
		remote:        remote,
		connectivity:  conn,
		tokens:        tokens,
		txManager:     txManager,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
		status:        Status{State: StateIdle},
		subs:          make(map[int]func(Status)),
		baseCtx:       context.Background(),
	}
}

// State текущее состояние движка
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status.State
}

// Status снимок состояния и итог последнего цикла
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Subscribe регистрирует обработчик изменений состояния и возвращает функцию отписки
func (e *Engine) Subscribe(fn func(Status)) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// Start подписывает движок на переходы сети: переход в online запускает фоновую синхронизацию.
// ctx ограничивает время жизни фоновых синхронизаций.
func (e *Engine) Start(ctx context.Context) func() {
	e.mu.Lock()
	e.baseCtx = ctx
	e.mu.Unlock()

	var mu sync.Mutex
	wasOnline := e.connectivity.IsOnline()
	return e.connectivity.Subscribe(func(s connectivity.State) {
		mu.Lock()
		online := s.IsOnline()
		becameOnline := online && !wasOnline
		wasOnline = online
		mu.Unlock()

		if becameOnline {
			e.logger.Info("Sync: connectivity restored, starting background sync")
			e.TriggerBackground()
		}
	})
}

// Run периодически запускает синхронизацию, пока ctx не отменён
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !e.connectivity.IsOnline() {
				continue
			}
			if _, err := e.Sync(ctx, e.tokens.Token()); err != nil {
				e.logger.Warn("Sync: periodic sync skipped: %v", err)
			}
		}
	}
}

// TriggerBackground запускает синхронизацию без ожидания результата.
// Если цикл уже идёт, запрос отбрасывается.
func (e *Engine) TriggerBackground() {
	if !e.connectivity.IsOnline() || e.State() == StateSyncing {
		return
	}

	e.mu.Lock()
	ctx := e.baseCtx
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if _, err := e.Sync(ctx, e.tokens.Token()); err != nil {
			e.logger.Warn("Sync: background sync skipped: %v", err)
		}
	}()
}

// Wait ждёт завершения фоновых синхронизаций
func (e *Engine) Wait() {
	e.wg.Wait()
}

// UnsyncedCount количество записей, ещё не подтверждённых сервером
func (e *Engine) UnsyncedCount(ctx context.Context) (int, error) {
	bookings, err := e.bookingRepo.CountPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: UnsyncedCount - bookings: %v", ErrInternal, err)
	}
	wallets, err := e.walletRepo.CountPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: UnsyncedCount - wallets: %v", ErrInternal, err)
	}
	n := bookings + wallets
	e.metrics.SetUnsynced(n)
	return n, nil
}

// Sync выполняет один цикл синхронизации.
// Пересекающийся вызов возвращает Result{AlreadySyncing: true} без ошибки.
func (e *Engine) Sync(ctx context.Context, token string) (Result, error) {
	if !e.connectivity.IsOnline() {
		return Result{}, ErrOffline
	}
	if err := session.Check(token, e.now()); err != nil {
		e.logger.Warn("Sync: skipping, %v", err)
		return Result{}, fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	if !e.begin() {
		e.logger.Info("Sync: cycle already in progress")
		return Result{AlreadySyncing: true}, nil
	}

	result := e.cycle(ctx, token)
	e.finish(result)
	return result, nil
}

func (e *Engine) cycle(ctx context.Context, token string) Result {
	ctx, span := tracer.Start(ctx, "sync.cycle", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	result := Result{StartedAt: e.now().UTC()}
	e.logger.Info("Sync: cycle started")

	n, err := e.pullAttendants(ctx, token)
	result.Attendants = e.areaResult(AreaAttendants, n, err)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := e.pullBookings(gctx, token)
		result.Bookings = e.areaResult(AreaBookings, n, err)
		return nil
	})
	g.Go(func() error {
		n, err := e.pullWallets(gctx, token)
		result.Wallets = e.areaResult(AreaWallets, n, err)
		return nil
	})
	_ = g.Wait()

	result.Queue = e.queue.Drain(ctx, token)

	released, err := e.releaseWallets(ctx)
	if err != nil {
		e.logger.Error("Sync: failed to release wallets: %v", err)
	}
	result.Released = released

	if unsynced, err := e.UnsyncedCount(ctx); err != nil {
		e.logger.Error("Sync: %v", err)
	} else {
		result.Unsynced = unsynced
	}

	result.Duration = e.now().Sub(result.StartedAt)

	span.SetAttributes(
		attribute.Int("sync.attendants", result.Attendants.Synced),
		attribute.Int("sync.bookings", result.Bookings.Synced),
		attribute.Int("sync.wallets", result.Wallets.Synced),
		attribute.Int("sync.unsynced", result.Unsynced),
	)
	if result.HasErrors() {
		span.SetStatus(codes.Error, "one or more areas failed")
	}

	e.logger.Info("Sync: cycle finished attendants=%d bookings=%d wallets=%d queue_succeeded=%d released=%d unsynced=%d",
		result.Attendants.Synced, result.Bookings.Synced, result.Wallets.Synced,
		result.Queue.Succeeded, result.Released, result.Unsynced)
	return result
}

func (e *Engine) areaResult(area string, n int, err error) AreaResult {
	if err == nil {
		e.metrics.RecordsSynced(area, n)
		return AreaResult{Synced: n}
	}

	class := classify(err)
	e.metrics.SyncAreaError(area, class)
	if class == "network" {
		e.logger.Warn("Sync: %s pull failed: %v", area, err)
	} else {
		e.logger.Error("Sync: %s pull failed: %v", area, err)
	}
	return AreaResult{Synced: n, Error: err.Error()}
}

func (e *Engine) begin() bool {
	e.mu.Lock()
	if e.status.State == StateSyncing {
		e.mu.Unlock()
		return false
	}
	e.status.State = StateSyncing
	status := e.status
	subs := e.subscribers()
	e.mu.Unlock()

	notify(subs, status)
	return true
}

func (e *Engine) finish(result Result) {
	outcome := "success"
	if result.HasErrors() {
		outcome = "partial"
	}
	e.metrics.ObserveSyncCycle(outcome, result.Duration)

	finishedAt := result.StartedAt.Add(result.Duration)

	e.mu.Lock()
	e.status.State = StateIdle
	e.status.LastResult = &result
	e.status.LastSyncAt = &finishedAt
	e.status.LastError = firstError(result)
	status := e.status
	subs := e.subscribers()
	e.mu.Unlock()

	notify(subs, status)
}

func (e *Engine) subscribers() []func(Status) {
	subs := make([]func(Status), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Status), s Status) {
	for _, fn := range subs {
		fn(s)
	}
}

func firstError(r Result) string {
	for _, a := range []AreaResult{r.Attendants, r.Bookings, r.Wallets} {
		if a.Error != "" {
			return a.Error
		}
	}
	return ""
}

func classify(err error) string {
	switch {
	case remoteapi.IsNetworkError(err), errors.Is(err, context.DeadlineExceeded):
		return "network"
	case errors.Is(err, remoteapi.ErrServer), errors.Is(err, remoteapi.ErrInvalidResponse):
		return "server"
	default:
		return "internal"
	}
}
