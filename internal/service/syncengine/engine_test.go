package syncengine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-WashSync/internal/connectivity"
	"github.com/m04kA/SMC-WashSync/internal/domain"
	attendantRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/attendant"
	bookingRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/booking"
	queueRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/queue"
	"github.com/m04kA/SMC-WashSync/internal/infra/storage/storagetest"
	walletRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/wallet"
	"github.com/m04kA/SMC-WashSync/internal/integrations/remoteapi"
	"github.com/m04kA/SMC-WashSync/internal/service/queue"
	"github.com/m04kA/SMC-WashSync/internal/service/syncengine"
	"github.com/m04kA/SMC-WashSync/pkg/logger"
	"github.com/m04kA/SMC-WashSync/pkg/metrics"
	"github.com/m04kA/SMC-WashSync/pkg/ptr"
	"github.com/m04kA/SMC-WashSync/pkg/session"
	"github.com/m04kA/SMC-WashSync/pkg/sqlbuilder"
	"github.com/m04kA/SMC-WashSync/pkg/txmanager"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

// fakeServer отвечает на чтение и запись как сервер
type fakeServer struct {
	mu       sync.Mutex
	users    []remoteapi.User
	bookings []remoteapi.Booking
	wallets  []remoteapi.Wallet
	calls    []string
	block    chan struct{}
}

func (f *fakeServer) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
}

func (f *fakeServer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeServer) ListUsers(_ context.Context, _, _ string) ([]remoteapi.User, error) {
	f.record("list-users")
	return f.users, nil
}

func (f *fakeServer) ListBookings(_ context.Context, _ string, _ int) ([]remoteapi.Booking, error) {
	f.record("list-bookings")
	return f.bookings, nil
}

func (f *fakeServer) ListWallets(_ context.Context, _ string, _ *time.Time) ([]remoteapi.Wallet, error) {
	f.record("list-wallets")
	return f.wallets, nil
}

func (f *fakeServer) CreateVehicleBooking(_ context.Context, _ string, _ remoteapi.BookingRequest) (*remoteapi.Booking, error) {
	f.record("create-vehicle")
	return &remoteapi.Booking{ID: "srv-new"}, nil
}

func (f *fakeServer) CreateCarpetBooking(_ context.Context, _ string, _ remoteapi.BookingRequest) (*remoteapi.Booking, error) {
	f.record("create-carpet")
	return &remoteapi.Booking{ID: "srv-new"}, nil
}

func (f *fakeServer) UpdateBooking(_ context.Context, _ string, id string, _ remoteapi.BookingRequest) (*remoteapi.Booking, error) {
	f.record("update " + id)
	return &remoteapi.Booking{ID: id}, nil
}

func (f *fakeServer) DeleteBooking(_ context.Context, _ string, id string) error {
	f.record("delete " + id)
	return nil
}

func (f *fakeServer) SettleBalances(_ context.Context, _ string, _ remoteapi.SettleRequest) error {
	f.record("settle")
	return nil
}

func (f *fakeServer) MarkAttendantPaid(_ context.Context, _ string, id string, _ remoteapi.MarkPaidRequest) error {
	f.record("mark-paid " + id)
	return nil
}

func (f *fakeServer) AdjustWalletBalance(_ context.Context, _ string, id string, _ remoteapi.AdjustRequest) error {
	f.record("adjust " + id)
	return nil
}

type fixture struct {
	engine     *syncengine.Engine
	monitor    *connectivity.Monitor
	server     *fakeServer
	attendants *attendantRepo.Repository
	bookings   *bookingRepo.Repository
	wallets    *walletRepo.Repository
	queue      *queue.Manager
}

func online() connectivity.State {
	return connectivity.State{Connected: true, InternetReachable: ptr.Ptr(true)}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := storagetest.Open(t)
	m := metrics.New("test")
	log := logger.Nop()

	f := &fixture{
		monitor:    connectivity.NewMonitor(nil, 0, log, m),
		server:     &fakeServer{},
		attendants: attendantRepo.NewRepository(db, sqlbuilder.DialectSQLite),
		bookings:   bookingRepo.NewRepository(db, sqlbuilder.DialectSQLite),
		wallets:    walletRepo.NewRepository(db, sqlbuilder.DialectSQLite),
	}
	queues := queueRepo.NewRepository(db, sqlbuilder.DialectSQLite)
	txManager := txmanager.NewTransactionManager(db)
	f.queue = queue.NewManager(queues, f.bookings, f.wallets, txManager, f.server, f.monitor, m, log)
	f.engine = syncengine.NewEngine(
		f.attendants, f.bookings, f.wallets, queues, f.queue, f.server,
		f.monitor, session.NewHolder("tok"), txManager, m, log,
	)
	f.monitor.Report(online())
	return f
}

func serverUsers() []remoteapi.User {
	return []remoteapi.User{
		{ID: "u-1", Name: "John", Email: "john@example.com", Role: "attendant", UpdatedAt: t0},
		{ID: "u-2", Name: "Mary", Email: "mary@example.com", Role: "attendant", UpdatedAt: t0},
	}
}

func TestSync_SkipsWhenOffline(t *testing.T) {
	f := newFixture(t)
	f.monitor.Report(connectivity.State{Connected: false})

	_, err := f.engine.Sync(context.Background(), "tok")
	assert.ErrorIs(t, err, syncengine.ErrOffline)
	assert.Empty(t, f.server.Calls())
}

func TestSync_SkipsWithExpiredSession(t *testing.T) {
	f := newFixture(t)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = f.engine.Sync(context.Background(), token)
	assert.ErrorIs(t, err, syncengine.ErrSessionExpired)
	assert.Empty(t, f.server.Calls())
}

func TestSync_PullsAllAreas(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.server.users = serverUsers()
	f.server.bookings = []remoteapi.Booking{{
		ID:          "b-1",
		Category:    "vehicle",
		Attendant:   &remoteapi.AttendantRef{ID: "u-1", Name: "John", Email: "john@example.com"},
		Amount:      decimal.NewFromInt(1000),
		PaymentType: "attendant_cash",
		Status:      "completed",
		CreatedAt:   t0,
		UpdatedAt:   t0,
	}}
	f.server.wallets = []remoteapi.Wallet{{
		ID:                "w-1",
		Attendant:         &remoteapi.AttendantRef{ID: "u-1", Name: "John"},
		Balance:           decimal.NewFromInt(-600),
		TotalEarnings:     decimal.NewFromInt(1000),
		TotalCommission:   decimal.NewFromInt(400),
		TotalCompanyShare: decimal.NewFromInt(600),
		CompanyDebt:       decimal.NewFromInt(600),
		UpdatedAt:         t0,
	}}

	res, err := f.engine.Sync(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, res.HasErrors())
	assert.Equal(t, 2, res.Attendants.Synced)
	assert.Equal(t, 1, res.Bookings.Synced)
	assert.Equal(t, 1, res.Wallets.Synced)
	assert.Zero(t, res.Unsynced)
	assert.Equal(t, "list-users", f.server.Calls()[0])

	john, err := f.attendants.GetByServerID(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, john.IsAvailable)

	b, err := f.bookings.GetByServerID(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, john.LocalID, b.AttendantID)
	assert.True(t, b.IsSynced)

	w, err := f.wallets.GetByServerID(ctx, "w-1")
	require.NoError(t, err)
	assert.Equal(t, john.LocalID, w.AttendantID)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(-600)))

	// повторный цикл не создаёт дубликатов
	_, err = f.engine.Sync(ctx, "tok")
	require.NoError(t, err)
	list, err := f.bookings.List(ctx, domain.BookingsFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSync_WalletPullDoesNotClobberUnsyncedWallet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.server.users = serverUsers()

	_, err := f.engine.Sync(ctx, "tok")
	require.NoError(t, err)
	john, err := f.attendants.GetByServerID(ctx, "u-1")
	require.NoError(t, err)

	local := domain.NewWallet("w-local", john, t0)
	local.Balance = decimal.NewFromInt(-600)
	local.TotalEarnings = decimal.NewFromInt(1000)
	local.TotalCommission = decimal.NewFromInt(400)
	local.TotalCompanyShare = decimal.NewFromInt(600)
	local.CompanyDebt = decimal.NewFromInt(600)
	local.IsPaid = false
	require.NoError(t, f.wallets.Upsert(ctx, local))

	// неподтверждённое бронирование мойщика удерживает кошелёк в состоянии pending
	pendingBooking := &domain.Booking{
		LocalID:            "b-local",
		Category:           domain.CategoryVehicle,
		RegistrationNumber: ptr.Ptr("KAA 1"),
		AttendantID:        john.LocalID,
		Amount:             decimal.NewFromInt(1000),
		PaymentType:        domain.PaymentAttendantCash,
		Status:             domain.StatusCompleted,
		CreatedAt:          t0,
		UpdatedAt:          t0,
		SyncStatus:         domain.SyncPending,
	}
	require.NoError(t, f.bookings.Upsert(ctx, pendingBooking))

	f.server.wallets = []remoteapi.Wallet{{
		ID:        "w-server",
		Attendant: &remoteapi.AttendantRef{ID: "u-1"},
		Balance:   decimal.Zero,
		IsPaid:    true,
		UpdatedAt: t0.Add(time.Hour),
	}}

	_, err = f.engine.Sync(ctx, "tok")
	require.NoError(t, err)

	got, err := f.wallets.GetByLocalID(ctx, "w-local")
	require.NoError(t, err)
	require.NotNil(t, got.ServerID)
	assert.Equal(t, "w-server", *got.ServerID)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(-600)))
	assert.True(t, got.CompanyDebt.Equal(decimal.NewFromInt(600)))
	assert.False(t, got.IsPaid)
	assert.False(t, got.IsSynced)

	n, err := f.engine.UnsyncedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSync_QueuedWalletOperationProtectsSyncedWallet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.server.users = serverUsers()
	f.server.wallets = []remoteapi.Wallet{{
		ID:        "w-server",
		Attendant: &remoteapi.AttendantRef{ID: "u-1"},
		Balance:   decimal.NewFromInt(400),
		UpdatedAt: t0,
	}}

	_, err := f.engine.Sync(ctx, "tok")
	require.NoError(t, err)
	w, err := f.wallets.GetByServerID(ctx, "w-server")
	require.NoError(t, err)
	require.True(t, w.IsSynced)

	// операция ждёт в очереди, кошелёк при этом помечен синхронизированным
	w.Balance = decimal.NewFromInt(450)
	w.MarkSynced()
	require.NoError(t, f.wallets.Upsert(ctx, w))
	f.queue.Enqueue(ctx, domain.OperationUpdate, domain.EntityWallet, w.LocalID, domain.QueuePayload{
		Kind: domain.KindWalletAdjust,
		Adjust: &domain.AdjustPayload{
			AttendantServerID: "u-1",
			Amount:            decimal.NewFromInt(50),
			Type:              domain.AdjustmentTip,
		},
	})

	f.server.wallets[0].Balance = decimal.NewFromInt(400)
	f.server.wallets[0].UpdatedAt = t0.Add(time.Hour)

	res, err := f.engine.Sync(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Queue.Succeeded)
	assert.Contains(t, f.server.Calls(), "adjust u-1")

	got, err := f.wallets.GetByServerID(ctx, "w-server")
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(450)))
}

func TestSync_ReleasesWalletWhenNothingPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.server.users = serverUsers()

	_, err := f.engine.Sync(ctx, "tok")
	require.NoError(t, err)
	john, err := f.attendants.GetByServerID(ctx, "u-1")
	require.NoError(t, err)

	local := domain.NewWallet("w-local", john, t0)
	require.NoError(t, f.wallets.Upsert(ctx, local))

	res, err := f.engine.Sync(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Released)

	got, err := f.wallets.GetByLocalID(ctx, "w-local")
	require.NoError(t, err)
	assert.True(t, got.IsSynced)
}

func TestSync_OverlappingCallReturnsAlreadySyncing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.server.block = make(chan struct{})

	var states []syncengine.State
	var mu sync.Mutex
	f.engine.Subscribe(func(s syncengine.Status) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	})

	done := make(chan syncengine.Result)
	go func() {
		res, _ := f.engine.Sync(ctx, "tok")
		done <- res
	}()

	require.Eventually(t, func() bool { return f.engine.State() == syncengine.StateSyncing }, time.Second, 5*time.Millisecond)

	second, err := f.engine.Sync(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, second.AlreadySyncing)

	f.server.mu.Lock()
	close(f.server.block)
	f.server.block = nil
	f.server.mu.Unlock()

	first := <-done
	assert.False(t, first.AlreadySyncing)
	assert.Equal(t, syncengine.StateIdle, f.engine.State())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []syncengine.State{syncengine.StateSyncing, syncengine.StateIdle}, states)
	require.NotNil(t, f.engine.Status().LastResult)
}

func TestEngine_ReconnectTriggersBackgroundSync(t *testing.T) {
	f := newFixture(t)
	f.monitor.Report(connectivity.State{Connected: false})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := f.engine.Start(ctx)
	defer stop()

	f.monitor.Report(online())
	require.Eventually(t, func() bool {
		for _, c := range f.server.Calls() {
			if c == "list-users" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	f.engine.Wait()
}
