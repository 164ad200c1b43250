package wallet_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	"github.com/m04kA/SMC-WashSync/internal/infra/storage/storagetest"
	"github.com/m04kA/SMC-WashSync/internal/infra/storage/wallet"
	"github.com/m04kA/SMC-WashSync/pkg/ptr"
	"github.com/m04kA/SMC-WashSync/pkg/sqlbuilder"
)

func TestRepository_UpsertRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := wallet.NewRepository(storagetest.Open(t), sqlbuilder.DialectSQLite)

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	w := domain.NewWallet("w-1", &domain.Attendant{
		LocalID:  "att-1",
		ServerID: ptr.Ptr("srv-att-1"),
		Name:     "John",
		Email:    "john@example.com",
	}, now)
	w.Balance = decimal.RequireFromString("-600.50")
	w.TotalEarnings = decimal.NewFromInt(1000)
	w.IsPaid = false
	w.Adjustments = append(w.Adjustments, domain.Adjustment{
		Type:        domain.AdjustmentTip,
		Amount:      decimal.NewFromInt(50),
		Reason:      "great job",
		PerformedBy: "admin",
		CreatedAt:   now,
	})
	require.NoError(t, repo.Upsert(ctx, w))

	got, err := repo.GetByAttendantServerID(ctx, "srv-att-1")
	require.NoError(t, err)
	assert.Equal(t, "w-1", got.LocalID)
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("-600.5")))
	assert.False(t, got.IsPaid)
	assert.Nil(t, got.LastPaymentAt)
	require.Len(t, got.Adjustments, 1)
	assert.Equal(t, domain.AdjustmentTip, got.Adjustments[0].Type)
	assert.True(t, got.Adjustments[0].Amount.Equal(decimal.NewFromInt(50)))

	got.Settle(now.Add(time.Hour))
	got.ServerID = ptr.Ptr("srv-w-1")
	require.NoError(t, repo.Upsert(ctx, got))

	settled, err := repo.GetByServerID(ctx, "srv-w-1")
	require.NoError(t, err)
	assert.True(t, settled.Balance.IsZero())
	assert.True(t, settled.IsPaid)
	require.NotNil(t, settled.LastPaymentAt)
	assert.True(t, settled.LastPaymentAt.Equal(now.Add(time.Hour)))

	byAttendant, err := repo.GetByAttendantID(ctx, "att-1")
	require.NoError(t, err)
	assert.Equal(t, "w-1", byAttendant.LocalID)
}

func TestRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := wallet.NewRepository(storagetest.Open(t), sqlbuilder.DialectSQLite)

	_, err := repo.GetByLocalID(ctx, "missing")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
	_, err = repo.GetByAttendantID(ctx, "missing")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}

func TestRepository_ListAndCount(t *testing.T) {
	ctx := context.Background()
	repo := wallet.NewRepository(storagetest.Open(t), sqlbuilder.DialectSQLite)

	now := time.Now().UTC()
	paid := domain.NewWallet("w-paid", &domain.Attendant{LocalID: "a", Name: "Alice"}, now)
	paid.MarkSynced()
	unpaid := domain.NewWallet("w-unpaid", &domain.Attendant{LocalID: "b", Name: "Bob"}, now)
	unpaid.Balance = decimal.NewFromInt(400)
	unpaid.IsPaid = false
	require.NoError(t, repo.Upsert(ctx, unpaid))
	require.NoError(t, repo.Upsert(ctx, paid))

	all, err := repo.List(ctx, domain.WalletsFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Alice", all[0].AttendantName)

	onlyUnpaid, err := repo.List(ctx, domain.WalletsFilter{UnpaidOnly: true})
	require.NoError(t, err)
	require.Len(t, onlyUnpaid, 1)
	assert.Equal(t, "w-unpaid", onlyUnpaid[0].LocalID)

	n, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
