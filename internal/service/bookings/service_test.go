package bookings_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	attendantRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/attendant"
	bookingRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/booking"
	queueRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/queue"
	"github.com/m04kA/SMC-WashSync/internal/infra/storage/storagetest"
	walletRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/wallet"
	"github.com/m04kA/SMC-WashSync/internal/integrations/remoteapi"
	"github.com/m04kA/SMC-WashSync/internal/service/bookings"
	"github.com/m04kA/SMC-WashSync/internal/service/bookings/models"
	"github.com/m04kA/SMC-WashSync/internal/service/queue"
	"github.com/m04kA/SMC-WashSync/pkg/logger"
	"github.com/m04kA/SMC-WashSync/pkg/metrics"
	"github.com/m04kA/SMC-WashSync/pkg/ptr"
	"github.com/m04kA/SMC-WashSync/pkg/sqlbuilder"
	"github.com/m04kA/SMC-WashSync/pkg/txmanager"
)

type fakeConnectivity struct {
	online atomic.Bool
}

func (f *fakeConnectivity) IsOnline() bool { return f.online.Load() }

type fakeTrigger struct {
	calls atomic.Int32
}

func (f *fakeTrigger) TriggerBackground() { f.calls.Add(1) }

type fakeRemote struct {
	mu      sync.Mutex
	calls   []string
	fail    error
	nextID  int
	emptyID bool
}

func (f *fakeRemote) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.fail
}

func (f *fakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRemote) create(call string) (*remoteapi.Booking, error) {
	if err := f.record(call); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.emptyID {
		return &remoteapi.Booking{}, nil
	}
	f.nextID++
	return &remoteapi.Booking{ID: fmt.Sprintf("srv-%d", f.nextID)}, nil
}

func (f *fakeRemote) CreateVehicleBooking(_ context.Context, _ string, _ remoteapi.BookingRequest) (*remoteapi.Booking, error) {
	return f.create("create-vehicle")
}

func (f *fakeRemote) CreateCarpetBooking(_ context.Context, _ string, _ remoteapi.BookingRequest) (*remoteapi.Booking, error) {
	return f.create("create-carpet")
}

func (f *fakeRemote) UpdateBooking(_ context.Context, _ string, serverID string, _ remoteapi.BookingRequest) (*remoteapi.Booking, error) {
	if err := f.record("update " + serverID); err != nil {
		return nil, err
	}
	return &remoteapi.Booking{ID: serverID}, nil
}

func (f *fakeRemote) DeleteBooking(_ context.Context, _ string, serverID string) error {
	return f.record("delete " + serverID)
}

func (f *fakeRemote) SettleBalances(_ context.Context, _ string, _ remoteapi.SettleRequest) error {
	return f.record("settle")
}

func (f *fakeRemote) MarkAttendantPaid(_ context.Context, _ string, id string, _ remoteapi.MarkPaidRequest) error {
	return f.record("mark-paid " + id)
}

func (f *fakeRemote) AdjustWalletBalance(_ context.Context, _ string, id string, _ remoteapi.AdjustRequest) error {
	return f.record("adjust " + id)
}

type fixture struct {
	service    *bookings.Service
	bookings   *bookingRepo.Repository
	wallets    *walletRepo.Repository
	attendants *attendantRepo.Repository
	queue      *queueRepo.Repository
	remote     *fakeRemote
	conn       *fakeConnectivity
	trigger    *fakeTrigger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := storagetest.Open(t)

	f := &fixture{
		bookings:   bookingRepo.NewRepository(db, sqlbuilder.DialectSQLite),
		wallets:    walletRepo.NewRepository(db, sqlbuilder.DialectSQLite),
		attendants: attendantRepo.NewRepository(db, sqlbuilder.DialectSQLite),
		queue:      queueRepo.NewRepository(db, sqlbuilder.DialectSQLite),
		remote:     &fakeRemote{},
		conn:       &fakeConnectivity{},
		trigger:    &fakeTrigger{},
	}

	log := logger.Nop()
	txManager := txmanager.NewTransactionManager(db)
	manager := queue.NewManager(f.queue, f.bookings, f.wallets, txManager, f.remote, f.conn, metrics.New("test"), log)
	f.service = bookings.NewService(
		f.bookings, f.wallets, f.attendants, f.queue, manager,
		f.remote, f.conn, f.trigger, txManager, log,
	)

	now := time.Now().UTC()
	require.NoError(t, f.attendants.Upsert(context.Background(), &domain.Attendant{
		LocalID:    "att-1",
		ServerID:   ptr.Ptr("srv-att-1"),
		Name:       "Brian Otieno",
		Email:      "brian@example.com",
		Role:       domain.RoleAttendant,
		CreatedAt:  now,
		UpdatedAt:  now,
		IsSynced:   true,
		SyncStatus: domain.SyncSynced,
	}))
	return f
}

func (f *fixture) queued(t *testing.T) []*domain.QueueEntry {
	t.Helper()
	entries, err := f.queue.List(context.Background())
	require.NoError(t, err)
	return entries
}

func (f *fixture) wallet(t *testing.T) *domain.Wallet {
	t.Helper()
	w, err := f.wallets.GetByAttendantID(context.Background(), "att-1")
	require.NoError(t, err)
	return w
}

func vehicleRequest(amount int64, status domain.BookingStatus) *models.CreateVehicleBookingRequest {
	return &models.CreateVehicleBookingRequest{
		RegistrationNumber: "KDA 123X",
		AttendantID:        ptr.Ptr("att-1"),
		Amount:             decimal.NewFromInt(amount),
		PaymentType:        string(domain.PaymentAttendantCash),
		Status:             string(status),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertWallet(t *testing.T, w *domain.Wallet, balance, earnings, commission, share, debt string) {
	t.Helper()
	assert.True(t, w.Balance.Equal(dec(balance)), "balance: want %s, got %s", balance, w.Balance)
	assert.True(t, w.TotalEarnings.Equal(dec(earnings)), "totalEarnings: want %s, got %s", earnings, w.TotalEarnings)
	assert.True(t, w.TotalCommission.Equal(dec(commission)), "totalCommission: want %s, got %s", commission, w.TotalCommission)
	assert.True(t, w.TotalCompanyShare.Equal(dec(share)), "totalCompanyShare: want %s, got %s", share, w.TotalCompanyShare)
	assert.True(t, w.CompanyDebt.Equal(dec(debt)), "companyDebt: want %s, got %s", debt, w.CompanyDebt)
	assert.True(t, w.TotalEarnings.Equal(w.TotalCommission.Add(w.TotalCompanyShare)))
}

func TestCreateVehicleBooking_OfflineQueuesCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	resp, err := f.service.CreateVehicleBooking(ctx, "tok", vehicleRequest(1000, domain.StatusPending))
	require.NoError(t, err)

	assert.NotEmpty(t, resp.LocalID)
	assert.Nil(t, resp.ServerID)
	assert.False(t, resp.IsSynced)
	assert.Equal(t, string(domain.SyncPending), resp.SyncStatus)
	assert.Equal(t, "Brian Otieno", resp.AttendantName)
	assert.Equal(t, ptr.Ptr("srv-att-1"), resp.AttendantServerID)

	entries := f.queued(t)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.OperationCreate, entries[0].Operation)
	assert.Equal(t, domain.EntityBooking, entries[0].EntityType)
	assert.Equal(t, resp.LocalID, entries[0].LocalID)
	assert.Equal(t, domain.KindBookingCreate, entries[0].Payload.Kind)
	assert.Empty(t, f.remote.Calls())

	stored, err := f.bookings.GetByLocalID(ctx, resp.LocalID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncPending, stored.SyncStatus)
}

func TestCreateVehicleBooking_OnlineAttachesServerID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.conn.online.Store(true)

	resp, err := f.service.CreateVehicleBooking(ctx, "tok", vehicleRequest(1000, domain.StatusPending))
	require.NoError(t, err)

	assert.Equal(t, ptr.Ptr("srv-1"), resp.ServerID)
	assert.True(t, resp.IsSynced)
	assert.Equal(t, []string{"create-vehicle"}, f.remote.Calls())
	assert.Empty(t, f.queued(t))

	byServer, err := f.service.Get(ctx, "srv-1")
	require.NoError(t, err)
	assert.Equal(t, resp.LocalID, byServer.LocalID)
}

func TestCreateVehicleBooking_UnconfirmedCreateIsQueued(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.conn.online.Store(true)
	f.remote.emptyID = true

	resp, err := f.service.CreateVehicleBooking(ctx, "tok", vehicleRequest(1000, domain.StatusPending))
	require.NoError(t, err)

	assert.Nil(t, resp.ServerID)
	assert.Equal(t, string(domain.SyncPending), resp.SyncStatus)
	assert.Equal(t, []string{"create-vehicle"}, f.remote.Calls())

	entries := f.queued(t)
	require.Len(t, entries, 1)
	assert.Equal(t, resp.LocalID, entries[0].LocalID)
	assert.Equal(t, domain.KindBookingCreate, entries[0].Payload.Kind)
}

func TestCreateCarpetBooking_RemoteFailureQueues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.conn.online.Store(true)
	f.remote.fail = remoteapi.ErrNetwork

	resp, err := f.service.CreateCarpetBooking(ctx, "tok", &models.CreateCarpetBookingRequest{
		Phone:       "+254700000000",
		Color:       "red",
		Amount:      decimal.NewFromInt(500),
		PaymentType: string(domain.PaymentAdminTill),
	})
	require.NoError(t, err)

	assert.Equal(t, string(domain.CategoryCarpet), resp.Category)
	assert.Nil(t, resp.ServerID)
	assert.Equal(t, string(domain.SyncPending), resp.SyncStatus)
	assert.Equal(t, []string{"create-carpet"}, f.remote.Calls())

	entries := f.queued(t)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.KindBookingCreate, entries[0].Payload.Kind)
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.service.CreateVehicleBooking(ctx, "tok", vehicleRequest(0, domain.StatusPending))
	assert.ErrorIs(t, err, bookings.ErrInvalidInput)

	_, err = f.service.CreateCarpetBooking(ctx, "tok", &models.CreateCarpetBookingRequest{
		Phone:       "+254700000000",
		Amount:      decimal.NewFromInt(500),
		PaymentType: string(domain.PaymentAdminTill),
	})
	assert.ErrorIs(t, err, bookings.ErrInvalidInput)

	req := vehicleRequest(100, domain.StatusPending)
	req.AttendantID = ptr.Ptr("missing")
	_, err = f.service.CreateVehicleBooking(ctx, "tok", req)
	assert.ErrorIs(t, err, bookings.ErrAttendantNotFound)

	assert.Empty(t, f.queued(t))
}

func TestUpdate_RecomputesWalletOncePerChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.service.CreateVehicleBooking(ctx, "tok", vehicleRequest(1000, domain.StatusCompleted))
	require.NoError(t, err)
	assertWallet(t, f.wallet(t), "-600", "1000", "400", "600", "600")

	_, err = f.service.Update(ctx, created.LocalID, "tok", &models.UpdateBookingRequest{Amount: ptr.Ptr(decimal.NewFromInt(2000))})
	require.NoError(t, err)
	assertWallet(t, f.wallet(t), "-1200", "2000", "800", "1200", "1200")

	// Повтор того же состояния не меняет кошелёк и не ставит операцию в очередь
	depth := len(f.queued(t))
	_, err = f.service.Update(ctx, created.LocalID, "tok", &models.UpdateBookingRequest{Amount: ptr.Ptr(decimal.NewFromInt(2000))})
	require.NoError(t, err)
	assertWallet(t, f.wallet(t), "-1200", "2000", "800", "1200", "1200")
	assert.Len(t, f.queued(t), depth)

	_, err = f.service.Update(ctx, created.LocalID, "tok", &models.UpdateBookingRequest{PaymentType: ptr.Ptr(string(domain.PaymentAdminTill))})
	require.NoError(t, err)
	assertWallet(t, f.wallet(t), "800", "2000", "800", "1200", "0")

	_, err = f.service.Update(ctx, created.LocalID, "tok", &models.UpdateBookingRequest{Status: ptr.Ptr(string(domain.StatusCancelled))})
	require.NoError(t, err)
	assertWallet(t, f.wallet(t), "0", "0", "0", "0", "0")
}

func TestUpdate_NonFinancialChangeLeavesWallet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.service.CreateVehicleBooking(ctx, "tok", vehicleRequest(1000, domain.StatusCompleted))
	require.NoError(t, err)

	resp, err := f.service.Update(ctx, created.LocalID, "tok", &models.UpdateBookingRequest{Note: ptr.Ptr("wax")})
	require.NoError(t, err)
	assert.Equal(t, ptr.Ptr("wax"), resp.Note)
	assertWallet(t, f.wallet(t), "-600", "1000", "400", "600", "600")

	entries := f.queued(t)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.KindBookingUpdate, entries[1].Payload.Kind)
	assert.Equal(t, []string{models.FieldNote}, entries[1].Payload.Booking.Fields)
}

func TestUpdate_OnlineWithServerIDCallsServer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.conn.online.Store(true)

	created, err := f.service.CreateVehicleBooking(ctx, "tok", vehicleRequest(1000, domain.StatusPending))
	require.NoError(t, err)

	resp, err := f.service.Update(ctx, created.LocalID, "tok", &models.UpdateBookingRequest{Status: ptr.Ptr(string(domain.StatusInProgress))})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusInProgress), resp.Status)
	assert.True(t, resp.IsSynced)
	assert.Equal(t, []string{"create-vehicle", "update srv-1"}, f.remote.Calls())
	assert.Empty(t, f.queued(t))
}

func TestUpdate_WithoutServerIDQueuesEvenOnline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.service.CreateVehicleBooking(ctx, "tok", vehicleRequest(1000, domain.StatusPending))
	require.NoError(t, err)

	f.conn.online.Store(true)
	resp, err := f.service.Update(ctx, created.LocalID, "tok", &models.UpdateBookingRequest{Status: ptr.Ptr(string(domain.StatusCompleted))})
	require.NoError(t, err)

	assert.False(t, resp.IsSynced)
	assert.Empty(t, f.remote.Calls())

	entries := f.queued(t)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.KindBookingCreate, entries[0].Payload.Kind)
	assert.Equal(t, domain.KindBookingUpdate, entries[1].Payload.Kind)
}

func TestUpdate_ReassignMovesContribution(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	now := time.Now().UTC()
	require.NoError(t, f.attendants.Upsert(ctx, &domain.Attendant{
		LocalID: "att-2", ServerID: ptr.Ptr("srv-att-2"), Name: "Mary Wanjiku", Role: domain.RoleAttendant,
		CreatedAt: now, UpdatedAt: now, IsSynced: true, SyncStatus: domain.SyncSynced,
	}))

	created, err := f.service.CreateVehicleBooking(ctx, "tok", vehicleRequest(1000, domain.StatusCompleted))
	require.NoError(t, err)

	resp, err := f.service.Update(ctx, created.LocalID, "tok", &models.UpdateBookingRequest{AttendantID: ptr.Ptr("srv-att-2")})
	require.NoError(t, err)
	assert.Equal(t, "att-2", resp.AttendantID)
	assert.Equal(t, "Mary Wanjiku", resp.AttendantName)

	assertWallet(t, f.wallet(t), "0", "0", "0", "0", "0")

	other, err := f.wallets.GetByAttendantID(ctx, "att-2")
	require.NoError(t, err)
	assertWallet(t, other, "-600", "1000", "400", "600", "600")
	assert.Equal(t, "Mary Wanjiku", other.AttendantName)
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Update(context.Background(), "missing", "tok", &models.UpdateBookingRequest{Note: ptr.Ptr("x")})
	assert.ErrorIs(t, err, bookings.ErrBookingNotFound)
}

func TestDelete_NeverSyncedIsRemovedLocally(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.service.CreateVehicleBooking(ctx, "tok", vehicleRequest(1000, domain.StatusCompleted))
	require.NoError(t, err)

	f.conn.online.Store(true)
	require.NoError(t, f.service.Delete(ctx, created.LocalID, "tok"))

	_, err = f.bookings.GetByLocalID(ctx, created.LocalID)
	assert.ErrorIs(t, err, bookingRepo.ErrBookingNotFound)
	assert.Empty(t, f.queued(t))
	assert.Empty(t, f.remote.Calls())
	assertWallet(t, f.wallet(t), "0", "0", "0", "0", "0")
}

func TestDelete_SyncedOfflineLeavesTombstone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.conn.online.Store(true)

	created, err := f.service.CreateVehicleBooking(ctx, "tok", vehicleRequest(1000, domain.StatusPending))
	require.NoError(t, err)

	f.conn.online.Store(false)
	require.NoError(t, f.service.Delete(ctx, created.LocalID, "tok"))

	_, err = f.service.Get(ctx, created.LocalID)
	assert.ErrorIs(t, err, bookings.ErrBookingNotFound)

	stored, err := f.bookings.GetByLocalID(ctx, created.LocalID)
	require.NoError(t, err)
	assert.True(t, stored.Deleted)

	entries := f.queued(t)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.KindBookingDelete, entries[0].Payload.Kind)
	assert.Equal(t, ptr.Ptr("srv-1"), entries[0].Payload.Delete.ServerID)
}

func TestDelete_OnlineRemovesAfterServerConfirms(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.conn.online.Store(true)

	created, err := f.service.CreateVehicleBooking(ctx, "tok", vehicleRequest(1000, domain.StatusPending))
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(ctx, created.LocalID, "tok"))

	assert.Equal(t, []string{"create-vehicle", "delete srv-1"}, f.remote.Calls())
	_, err = f.bookings.GetByLocalID(ctx, created.LocalID)
	assert.ErrorIs(t, err, bookingRepo.ErrBookingNotFound)
	assert.Empty(t, f.queued(t))
}

func TestList_FiltersAndTriggersSync(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.service.CreateVehicleBooking(ctx, "tok", vehicleRequest(1000, domain.StatusCompleted))
	require.NoError(t, err)
	_, err = f.service.CreateVehicleBooking(ctx, "tok", vehicleRequest(300, domain.StatusPending))
	require.NoError(t, err)

	resp, err := f.service.List(ctx, &models.ListBookingsRequest{Status: ptr.Ptr(string(domain.StatusCompleted))})
	require.NoError(t, err)
	require.Len(t, resp.Bookings, 1)
	assert.True(t, resp.Bookings[0].Amount.Equal(decimal.NewFromInt(1000)))
	assert.Zero(t, f.trigger.calls.Load())

	f.conn.online.Store(true)
	today := time.Now()
	resp, err = f.service.List(ctx, &models.ListBookingsRequest{Date: &today})
	require.NoError(t, err)
	assert.Len(t, resp.Bookings, 2)
	assert.Equal(t, int32(1), f.trigger.calls.Load())

	yesterday := today.AddDate(0, 0, -1)
	resp, err = f.service.List(ctx, &models.ListBookingsRequest{Date: &yesterday})
	require.NoError(t, err)
	assert.Empty(t, resp.Bookings)

	_, err = f.service.List(ctx, &models.ListBookingsRequest{Status: ptr.Ptr("unknown")})
	assert.ErrorIs(t, err, bookings.ErrInvalidInput)
}
