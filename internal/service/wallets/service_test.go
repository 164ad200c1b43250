package wallets_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	bookingRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/booking"
	queueRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/queue"
	"github.com/m04kA/SMC-WashSync/internal/infra/storage/storagetest"
	walletRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/wallet"
	"github.com/m04kA/SMC-WashSync/internal/integrations/remoteapi"
	"github.com/m04kA/SMC-WashSync/internal/service/queue"
	"github.com/m04kA/SMC-WashSync/internal/service/wallets"
	"github.com/m04kA/SMC-WashSync/internal/service/wallets/models"
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
	wallets []remoteapi.Wallet
	settled []remoteapi.SettleRequest
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

func (f *fakeRemote) ListWallets(_ context.Context, _ string, date *time.Time) ([]remoteapi.Wallet, error) {
	call := "list-wallets"
	if date != nil {
		call += " " + date.Format(domain.DateFormat)
	}
	if err := f.record(call); err != nil {
		return nil, err
	}
	return f.wallets, nil
}

func (f *fakeRemote) SettleBalances(_ context.Context, _ string, req remoteapi.SettleRequest) error {
	f.mu.Lock()
	f.settled = append(f.settled, req)
	f.mu.Unlock()
	return f.record("settle")
}

func (f *fakeRemote) MarkAttendantPaid(_ context.Context, _ string, id string, _ remoteapi.MarkPaidRequest) error {
	return f.record("mark-paid " + id)
}

func (f *fakeRemote) AdjustWalletBalance(_ context.Context, _ string, id string, req remoteapi.AdjustRequest) error {
	return f.record("adjust " + id + " " + req.Type + " " + req.Amount.String())
}

func (f *fakeRemote) CreateVehicleBooking(_ context.Context, _ string, _ remoteapi.BookingRequest) (*remoteapi.Booking, error) {
	return nil, f.record("create-vehicle")
}

func (f *fakeRemote) CreateCarpetBooking(_ context.Context, _ string, _ remoteapi.BookingRequest) (*remoteapi.Booking, error) {
	return nil, f.record("create-carpet")
}

func (f *fakeRemote) UpdateBooking(_ context.Context, _ string, serverID string, _ remoteapi.BookingRequest) (*remoteapi.Booking, error) {
	return nil, f.record("update " + serverID)
}

func (f *fakeRemote) DeleteBooking(_ context.Context, _ string, serverID string) error {
	return f.record("delete " + serverID)
}

type fixture struct {
	service *wallets.Service
	wallets *walletRepo.Repository
	queue   *queueRepo.Repository
	remote  *fakeRemote
	conn    *fakeConnectivity
	trigger *fakeTrigger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := storagetest.Open(t)

	f := &fixture{
		wallets: walletRepo.NewRepository(db, sqlbuilder.DialectSQLite),
		queue:   queueRepo.NewRepository(db, sqlbuilder.DialectSQLite),
		remote:  &fakeRemote{},
		conn:    &fakeConnectivity{},
		trigger: &fakeTrigger{},
	}

	log := logger.Nop()
	txManager := txmanager.NewTransactionManager(db)
	manager := queue.NewManager(f.queue, bookingRepo.NewRepository(db, sqlbuilder.DialectSQLite), f.wallets,
		txManager, f.remote, f.conn, metrics.New("test"), log)
	f.service = wallets.NewService(f.wallets, manager, f.remote, f.conn, f.trigger, txManager, log)

	f.storeWallet(t, "w-1", "att-1", "srv-att-1", "-600", "600")
	f.storeWallet(t, "w-2", "att-2", "srv-att-2", "400", "0")
	return f
}

func (f *fixture) storeWallet(t *testing.T, localID, attendantID, attendantServerID, balance, debt string) {
	t.Helper()
	at := time.Now().UTC().Add(-time.Hour)
	w := &domain.Wallet{
		LocalID:           localID,
		ServerID:          ptr.Ptr("srv-" + localID),
		AttendantID:       attendantID,
		AttendantServerID: ptr.Ptr(attendantServerID),
		AttendantName:     "Attendant " + attendantID,
		Balance:           decimal.RequireFromString(balance),
		TotalEarnings:     decimal.NewFromInt(1000),
		TotalCommission:   decimal.NewFromInt(400),
		TotalCompanyShare: decimal.NewFromInt(600),
		CompanyDebt:       decimal.RequireFromString(debt),
		Adjustments:       []domain.Adjustment{},
		CreatedAt:         at,
		UpdatedAt:         at,
		IsSynced:          true,
		SyncStatus:        domain.SyncSynced,
	}
	require.NoError(t, f.wallets.Upsert(context.Background(), w))
}

func (f *fixture) queued(t *testing.T) []*domain.QueueEntry {
	t.Helper()
	entries, err := f.queue.List(context.Background())
	require.NoError(t, err)
	return entries
}

func TestAdjustWalletBalance_OfflineQueuesWithSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	resp, err := f.service.AdjustWalletBalance(ctx, "tok", "att-1", &models.AdjustRequest{
		Amount: decimal.NewFromInt(100),
		Type:   string(domain.AdjustmentTip),
		Reason: "weekend shift",
	})
	require.NoError(t, err)

	assert.True(t, resp.Queued)
	assert.True(t, resp.Wallet.Balance.Equal(decimal.NewFromInt(-500)))
	assert.Equal(t, string(domain.SyncPending), resp.Wallet.SyncStatus)
	require.Len(t, resp.Wallet.Adjustments, 1)
	assert.Equal(t, "admin", resp.Wallet.Adjustments[0].PerformedBy)
	assert.Empty(t, f.remote.Calls())

	entries := f.queued(t)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, domain.EntityWallet, e.EntityType)
	assert.Equal(t, "w-1", e.LocalID)
	require.Equal(t, domain.KindWalletAdjust, e.Payload.Kind)
	assert.Equal(t, "srv-att-1", e.Payload.Adjust.AttendantServerID)
	assert.True(t, e.Payload.Adjust.Snapshot.Balance.Equal(decimal.NewFromInt(-600)), "snapshot is taken before the adjustment")

	stored, err := f.wallets.GetByLocalID(ctx, "w-1")
	require.NoError(t, err)
	assert.False(t, stored.IsSynced)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(-500)))
}

func TestAdjustWalletBalance_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cases := []*models.AdjustRequest{
		{Amount: decimal.Zero, Type: string(domain.AdjustmentDeduction), Reason: "x"},
		{Amount: decimal.NewFromInt(10), Type: "bonus", Reason: "x"},
		{Amount: decimal.NewFromInt(10), Type: string(domain.AdjustmentTip)},
	}
	for _, req := range cases {
		_, err := f.service.AdjustWalletBalance(ctx, "tok", "att-1", req)
		assert.ErrorIs(t, err, wallets.ErrInvalidInput)
	}
	assert.Empty(t, f.queued(t))
}

func TestMarkAttendantPaid_OnlineCallsServer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.conn.online.Store(true)

	resp, err := f.service.MarkAttendantPaid(ctx, "tok", "srv-att-1")
	require.NoError(t, err)

	assert.False(t, resp.Queued)
	assert.True(t, resp.Wallet.Balance.IsZero())
	assert.True(t, resp.Wallet.CompanyDebt.IsZero())
	assert.True(t, resp.Wallet.IsPaid)
	assert.NotNil(t, resp.Wallet.LastPaymentAt)
	assert.Equal(t, []string{"mark-paid srv-att-1"}, f.remote.Calls())
	assert.Empty(t, f.queued(t))
	assert.Equal(t, int32(1), f.trigger.calls.Load())
}

func TestSettleAttendantBalances_RemoteFailureQueues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.conn.online.Store(true)
	f.remote.fail = remoteapi.ErrNetwork

	resp, err := f.service.SettleAttendantBalances(ctx, "tok", &models.SettleRequest{AttendantIDs: []string{"att-1", "srv-att-2", "att-1"}})
	require.NoError(t, err)

	assert.True(t, resp.Queued)
	require.Len(t, resp.Wallets, 2)
	for _, w := range resp.Wallets {
		assert.True(t, w.Balance.IsZero())
		assert.True(t, w.IsPaid)
	}

	entries := f.queued(t)
	require.Len(t, entries, 1)
	require.Equal(t, domain.KindWalletSettle, entries[0].Payload.Kind)
	settle := entries[0].Payload.Settle
	assert.Equal(t, []string{"srv-att-1", "srv-att-2"}, settle.AttendantServerIDs)
	assert.True(t, settle.Snapshots["srv-att-1"].Balance.Equal(decimal.NewFromInt(-600)))
	assert.True(t, settle.Snapshots["srv-att-1"].CompanyDebt.Equal(decimal.NewFromInt(600)))
	assert.True(t, settle.Snapshots["srv-att-2"].Balance.Equal(decimal.NewFromInt(400)))
}

func TestSettleAttendantBalances_UnknownAttendant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.service.SettleAttendantBalances(ctx, "tok", &models.SettleRequest{AttendantIDs: []string{"att-1", "missing"}})
	assert.ErrorIs(t, err, wallets.ErrWalletNotFound)

	w, err := f.wallets.GetByLocalID(ctx, "w-1")
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(-600)), "transaction is rolled back")
	assert.Empty(t, f.queued(t))

	_, err = f.service.SettleAttendantBalances(ctx, "tok", &models.SettleRequest{})
	assert.ErrorIs(t, err, wallets.ErrInvalidInput)
}

func TestList_PastDateComesFromServer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.remote.wallets = []remoteapi.Wallet{{
		ID:        "srv-w-9",
		Attendant: &remoteapi.AttendantRef{ID: "srv-att-9", Name: "Kevin"},
		Balance:   decimal.NewFromInt(50),
	}}
	yesterday := time.Now().AddDate(0, 0, -1)

	resp, err := f.service.List(ctx, "tok", &models.ListWalletsRequest{Date: &yesterday})
	require.NoError(t, err)
	assert.Equal(t, models.SourceLocal, resp.Source, "offline falls back to local state")
	assert.Len(t, resp.Wallets, 2)

	f.conn.online.Store(true)
	resp, err = f.service.List(ctx, "tok", &models.ListWalletsRequest{Date: &yesterday})
	require.NoError(t, err)
	assert.Equal(t, models.SourceServer, resp.Source)
	require.Len(t, resp.Wallets, 1)
	assert.Equal(t, "Kevin", resp.Wallets[0].AttendantName)
	require.NotNil(t, resp.Date)
	assert.Equal(t, yesterday.Format(domain.DateFormat), *resp.Date)

	today := time.Now()
	resp, err = f.service.List(ctx, "tok", &models.ListWalletsRequest{Date: &today, UnpaidOnly: true})
	require.NoError(t, err)
	assert.Equal(t, models.SourceLocal, resp.Source)
	assert.Len(t, resp.Wallets, 2)
	assert.Equal(t, int32(1), f.trigger.calls.Load())
}

func TestGetByAttendant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	byLocal, err := f.service.GetByAttendant(ctx, "att-2")
	require.NoError(t, err)
	byServer, err := f.service.GetByAttendant(ctx, "srv-att-2")
	require.NoError(t, err)
	assert.Equal(t, byLocal.LocalID, byServer.LocalID)

	_, err = f.service.GetByAttendant(ctx, "missing")
	assert.ErrorIs(t, err, wallets.ErrWalletNotFound)
}
