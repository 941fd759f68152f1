package period

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carteiraapp/carteira/internal/domain"
	"github.com/carteiraapp/carteira/internal/localstore"
)

var testNow = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) (*Manager, *localstore.Store, *domain.User) {
	t.Helper()
	store, err := localstore.OpenInMemory()
	require.NoError(t, err)

	user := &domain.User{Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, store.Users().Create(context.Background(), user))

	mgr := NewManager(store.Periods(), store.Transactions(), func() time.Time { return testNow })
	return mgr, store, user
}

func selectedCount(t *testing.T, store *localstore.Store, userID uint) int {
	t.Helper()
	periods, err := store.Periods().ByUser(context.Background(), userID)
	require.NoError(t, err)
	count := 0
	for _, p := range periods {
		if p.Selected {
			count++
		}
	}
	return count
}

func TestCreateDefault_SpansCurrentMonth(t *testing.T) {
	mgr, store, user := newTestManager(t)
	ctx := context.Background()

	period, err := mgr.CreateDefault(ctx, user.ID)
	require.NoError(t, err)

	assert.True(t, period.Selected)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), period.StartDate)
	require.NotNil(t, period.EndDate)
	assert.Equal(t, time.August, period.EndDate.Month())
	assert.Equal(t, domain.SyncPending, period.SyncStatus)
	assert.Equal(t, 1, selectedCount(t, store, user.ID))
}

func TestCreateDefault_NoOpWhenPeriodExists(t *testing.T) {
	mgr, store, user := newTestManager(t)
	ctx := context.Background()

	first, err := mgr.CreateDefault(ctx, user.ID)
	require.NoError(t, err)

	again, err := mgr.CreateDefault(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	periods, err := store.Periods().ByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, periods, 1)
}

func TestStartNew_ClosesOldAndOpensNew(t *testing.T) {
	mgr, store, user := newTestManager(t)
	ctx := context.Background()

	old, err := mgr.CreateDefault(ctx, user.ID)
	require.NoError(t, err)

	opened, err := mgr.StartNew(ctx, user.ID)
	require.NoError(t, err)

	closed, err := store.Periods().ByID(ctx, old.ID)
	require.NoError(t, err)
	assert.False(t, closed.Selected)
	require.NotNil(t, closed.EndDate)
	assert.True(t, closed.EndDate.Equal(testNow))

	assert.True(t, opened.Selected)
	assert.True(t, opened.StartDate.Equal(testNow))
	assert.Nil(t, opened.EndDate)
	assert.Equal(t, 1, selectedCount(t, store, user.ID))
}

func TestStartNew_WithoutSelectedPeriod(t *testing.T) {
	mgr, _, user := newTestManager(t)

	_, err := mgr.StartNew(context.Background(), user.ID)
	assert.ErrorIs(t, err, domain.ErrNoActivePeriod)
}

func TestSelect_ReassertsSingleSelected(t *testing.T) {
	mgr, store, user := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.CreateDefault(ctx, user.ID)
	require.NoError(t, err)
	second, err := mgr.StartNew(ctx, user.ID)
	require.NoError(t, err)
	third, err := mgr.StartNew(ctx, user.ID)
	require.NoError(t, err)
	_ = third

	require.NoError(t, mgr.Select(ctx, user.ID, second.ID))
	assert.Equal(t, 1, selectedCount(t, store, user.ID))

	selected, err := store.Periods().Selected(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, selected.ID)
}

func TestDelete_SelectedPeriodForbidden(t *testing.T) {
	mgr, store, user := newTestManager(t)
	ctx := context.Background()

	period, err := mgr.CreateDefault(ctx, user.ID)
	require.NoError(t, err)

	err = mgr.Delete(ctx, user.ID, []uint{period.ID})
	assert.ErrorIs(t, err, domain.ErrForbiddenDeletion)

	// State unchanged.
	periods, err := store.Periods().ByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.True(t, periods[0].Selected)
	assert.False(t, periods[0].PendingDelete)
}

func TestDelete_LocalOnlyPeriodCascades(t *testing.T) {
	mgr, store, user := newTestManager(t)
	ctx := context.Background()

	old, err := mgr.CreateDefault(ctx, user.ID)
	require.NoError(t, err)
	_, err = mgr.StartNew(ctx, user.ID)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.NoError(t, store.Transactions().Create(ctx, &domain.Transaction{
			Date:     testNow,
			Amount:   decimal.NewFromInt(-10),
			Category: domain.CategoryFood,
			UserID:   user.ID,
			PeriodID: old.ID,
		}))
	}

	require.NoError(t, mgr.Delete(ctx, user.ID, []uint{old.ID}))

	_, err = store.Periods().ByID(ctx, old.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	txs, err := store.Transactions().ByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestDelete_MirroredPeriodIsTombstoned(t *testing.T) {
	mgr, store, user := newTestManager(t)
	ctx := context.Background()

	old, err := mgr.CreateDefault(ctx, user.ID)
	require.NoError(t, err)
	_, err = mgr.StartNew(ctx, user.ID)
	require.NoError(t, err)

	// Simulate a prior successful sync.
	old, err = store.Periods().ByID(ctx, old.ID)
	require.NoError(t, err)
	old.RemoteID = "doc-period-1"
	old.SyncStatus = domain.SyncSynced
	require.NoError(t, store.Periods().Update(ctx, old))

	mirrored := &domain.Transaction{
		Date:       testNow,
		Amount:     decimal.NewFromInt(-10),
		Category:   domain.CategoryFood,
		UserID:     user.ID,
		PeriodID:   old.ID,
		RemoteID:   "doc-tx-1",
		SyncStatus: domain.SyncSynced,
	}
	require.NoError(t, store.Transactions().Create(ctx, mirrored))
	local := &domain.Transaction{
		Date:     testNow,
		Amount:   decimal.NewFromInt(-5),
		Category: domain.CategoryFood,
		UserID:   user.ID,
		PeriodID: old.ID,
	}
	require.NoError(t, store.Transactions().Create(ctx, local))

	require.NoError(t, mgr.Delete(ctx, user.ID, []uint{old.ID}))

	// Period row survives as a tombstone.
	stone, err := store.Periods().ByID(ctx, old.ID)
	require.NoError(t, err)
	assert.True(t, stone.PendingDelete)
	assert.Equal(t, domain.SyncPending, stone.SyncStatus)

	// Mirrored transaction tombstoned, local-only one gone.
	mirroredReloaded, err := store.Transactions().ByID(ctx, mirrored.ID)
	require.NoError(t, err)
	assert.True(t, mirroredReloaded.PendingDelete)

	_, err = store.Transactions().ByID(ctx, local.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLifecycle_SingleSelectedInvariantHolds(t *testing.T) {
	mgr, store, user := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.CreateDefault(ctx, user.ID)
	require.NoError(t, err)

	var last *domain.Period
	for i := 0; i < 4; i++ {
		last, err = mgr.StartNew(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, selectedCount(t, store, user.ID))
	}

	require.NoError(t, mgr.Select(ctx, user.ID, last.ID))
	assert.Equal(t, 1, selectedCount(t, store, user.ID))
}
