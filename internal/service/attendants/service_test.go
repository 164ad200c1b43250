package attendants_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	attendantRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/attendant"
	"github.com/m04kA/SMC-WashSync/internal/infra/storage/storagetest"
	"github.com/m04kA/SMC-WashSync/internal/service/attendants"
	"github.com/m04kA/SMC-WashSync/internal/service/attendants/models"
	"github.com/m04kA/SMC-WashSync/pkg/logger"
	"github.com/m04kA/SMC-WashSync/pkg/ptr"
	"github.com/m04kA/SMC-WashSync/pkg/sqlbuilder"
)

type fakeConnectivity struct {
	online atomic.Bool
}

func (f *fakeConnectivity) IsOnline() bool { return f.online.Load() }

type fakeTrigger struct {
	calls atomic.Int32
}

func (f *fakeTrigger) TriggerBackground() { f.calls.Add(1) }

func newService(t *testing.T) (*attendants.Service, *attendantRepo.Repository, *fakeConnectivity, *fakeTrigger) {
	t.Helper()
	repo := attendantRepo.NewRepository(storagetest.Open(t), sqlbuilder.DialectSQLite)
	conn := &fakeConnectivity{}
	trigger := &fakeTrigger{}

	now := time.Now().UTC()
	for _, a := range []*domain.Attendant{
		{LocalID: "att-1", ServerID: ptr.Ptr("srv-1"), Name: "Amina", Role: domain.RoleAttendant, IsAvailable: true},
		{LocalID: "att-2", ServerID: ptr.Ptr("srv-2"), Name: "Brian", Role: domain.RoleAttendant, IsAvailable: true},
		{LocalID: "adm-1", ServerID: ptr.Ptr("srv-3"), Name: "Carol", Role: domain.RoleAdmin, IsAvailable: true},
	} {
		a.CreatedAt, a.UpdatedAt = now, now
		a.IsSynced, a.SyncStatus = true, domain.SyncSynced
		require.NoError(t, repo.Upsert(context.Background(), a))
	}

	return attendants.NewService(repo, conn, trigger, logger.Nop()), repo, conn, trigger
}

func TestList_FiltersByRoleAndAvailability(t *testing.T) {
	ctx := context.Background()
	svc, _, conn, trigger := newService(t)

	resp, err := svc.List(ctx, &models.ListAttendantsRequest{Role: ptr.Ptr("attendant")})
	require.NoError(t, err)
	require.Len(t, resp.Attendants, 2)
	assert.Equal(t, "Amina", resp.Attendants[0].Name)
	assert.Zero(t, trigger.calls.Load())

	_, err = svc.SetAvailability(ctx, "srv-1", &models.SetAvailabilityRequest{Available: ptr.Ptr(false)})
	require.NoError(t, err)

	conn.online.Store(true)
	resp, err = svc.List(ctx, &models.ListAttendantsRequest{Role: ptr.Ptr("attendant"), AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, resp.Attendants, 1)
	assert.Equal(t, "Brian", resp.Attendants[0].Name)
	assert.Equal(t, int32(1), trigger.calls.Load())

	_, err = svc.List(ctx, &models.ListAttendantsRequest{Role: ptr.Ptr("owner")})
	assert.ErrorIs(t, err, attendants.ErrInvalidInput)
}

func TestSetAvailability(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := newService(t)

	resp, err := svc.SetAvailability(ctx, "att-2", &models.SetAvailabilityRequest{Available: ptr.Ptr(false)})
	require.NoError(t, err)
	assert.False(t, resp.IsAvailable)

	stored, err := repo.GetByLocalID(ctx, "att-2")
	require.NoError(t, err)
	assert.False(t, stored.IsAvailable)
	assert.Equal(t, domain.SyncSynced, stored.SyncStatus, "availability is never synced")

	_, err = svc.SetAvailability(ctx, "att-2", &models.SetAvailabilityRequest{})
	assert.ErrorIs(t, err, attendants.ErrInvalidInput)

	_, err = svc.SetAvailability(ctx, "missing", &models.SetAvailabilityRequest{Available: ptr.Ptr(true)})
	assert.ErrorIs(t, err, attendants.ErrAttendantNotFound)
}

func TestGet_ByLocalOrServerID(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newService(t)

	byLocal, err := svc.Get(ctx, "adm-1")
	require.NoError(t, err)
	byServer, err := svc.Get(ctx, "srv-3")
	require.NoError(t, err)
	assert.Equal(t, byLocal, byServer)
	assert.Equal(t, "admin", byServer.Role)

	_, err = svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, attendants.ErrAttendantNotFound)
}
