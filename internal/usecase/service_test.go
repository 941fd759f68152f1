package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carteiraapp/carteira/internal/classifier"
	"github.com/carteiraapp/carteira/internal/domain"
	"github.com/carteiraapp/carteira/internal/localstore"
	"github.com/carteiraapp/carteira/internal/notify"
	"github.com/carteiraapp/carteira/internal/period"
)

func testNow() time.Time {
	return time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)
}

func newService(t *testing.T) (*Service, *localstore.Store) {
	t.Helper()
	store, err := localstore.OpenInMemory()
	require.NoError(t, err)

	manager := period.NewManager(store.Periods(), store.Transactions(), testNow)
	svc := NewService(store, manager, classifier.New(), testNow)
	return svc, store
}

func registered(t *testing.T, svc *Service) *domain.User {
	t.Helper()
	user, err := svc.Register(context.Background(), "Ana", "ana@example.com")
	require.NoError(t, err)
	return user
}

func TestRegister_CreatesAccountWithDefaultPeriod(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	user := registered(t, svc)
	assert.Equal(t, domain.SyncPending, user.SyncStatus)

	active, err := store.Periods().Selected(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, active.Selected)
	assert.Equal(t, time.August, active.StartDate.Month())
}

func TestRegister_RejectsDuplicateEmail(t *testing.T) {
	svc, _ := newService(t)
	registered(t, svc)

	_, err := svc.Register(context.Background(), "Outro", "ana@example.com")
	assert.ErrorIs(t, err, domain.ErrConstraint)
}

func TestRegister_RequiresNameAndEmail(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Register(context.Background(), "", "ana@example.com")
	assert.ErrorIs(t, err, domain.ErrConstraint)
	_, err = svc.Register(context.Background(), "Ana", "")
	assert.ErrorIs(t, err, domain.ErrConstraint)
}

func TestAddTransaction_NormalizesAmountSign(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	user := registered(t, svc)

	cases := []struct {
		name     string
		category string
		amount   decimal.Decimal
		want     string
	}{
		{"income stays positive", domain.CategoryIncome, decimal.NewFromInt(100), "100"},
		{"negative income flips positive", domain.CategoryIncome, decimal.NewFromInt(-100), "100"},
		{"expense flips negative", domain.CategoryFood, decimal.NewFromInt(50), "-50"},
		{"negative expense stays negative", domain.CategoryFood, decimal.NewFromInt(-50), "-50"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx, err := svc.AddTransaction(ctx, user.ID, TransactionInput{
				Amount:   tc.amount,
				Category: tc.category,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, tx.Amount.String())
			assert.Equal(t, domain.SyncPending, tx.SyncStatus)
		})
	}
}

func TestAddTransaction_ClassifiesEmptyCategory(t *testing.T) {
	svc, _ := newService(t)
	user := registered(t, svc)

	tx, err := svc.AddTransaction(context.Background(), user.ID, TransactionInput{
		Amount:      decimal.NewFromInt(30),
		Description: "Corrida UBER centro",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryTransport, tx.Category)
	assert.Equal(t, "-30", tx.Amount.String())
}

func TestAddTransaction_RejectsUnknownCategory(t *testing.T) {
	svc, _ := newService(t)
	user := registered(t, svc)

	_, err := svc.AddTransaction(context.Background(), user.ID, TransactionInput{
		Amount:   decimal.NewFromInt(10),
		Category: "Cripto",
	})
	assert.ErrorIs(t, err, domain.ErrConstraint)
}

func TestAddTransaction_DefaultsDate(t *testing.T) {
	svc, _ := newService(t)
	user := registered(t, svc)

	tx, err := svc.AddTransaction(context.Background(), user.ID, TransactionInput{
		Amount:   decimal.NewFromInt(10),
		Category: domain.CategoryFood,
	})
	require.NoError(t, err)
	assert.True(t, tx.Date.Equal(testNow()))
}

func TestAddTransaction_CreatesDefaultPeriodWhenNoneExists(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	// Account created straight in the store, skipping Register's default
	// period.
	user := &domain.User{Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, store.Users().Create(ctx, user))

	tx, err := svc.AddTransaction(ctx, user.ID, TransactionInput{
		Amount:   decimal.NewFromInt(10),
		Category: domain.CategoryFood,
	})
	require.NoError(t, err)

	active, err := store.Periods().Selected(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, active.ID, tx.PeriodID)
}

func TestAddTransaction_UpdatesPeriodTotals(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	user := registered(t, svc)

	_, err := svc.AddTransaction(ctx, user.ID, TransactionInput{
		Amount:   decimal.NewFromInt(1000),
		Category: domain.CategoryIncome,
	})
	require.NoError(t, err)
	_, err = svc.AddTransaction(ctx, user.ID, TransactionInput{
		Amount:   decimal.NewFromFloat(59.9),
		Category: domain.CategoryFood,
	})
	require.NoError(t, err)

	active, err := store.Periods().Selected(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, active.TotalIncome.Equal(decimal.NewFromInt(1000)))
	assert.True(t, active.TotalExpenses.Equal(decimal.NewFromFloat(59.9)))
	assert.Equal(t, domain.SyncPending, active.SyncStatus)
}

func TestEditTransaction_ReappliesSignAndFlagsPending(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	user := registered(t, svc)

	tx, err := svc.AddTransaction(ctx, user.ID, TransactionInput{
		Amount:   decimal.NewFromInt(200),
		Category: domain.CategoryFood,
	})
	require.NoError(t, err)
	require.Equal(t, "-200", tx.Amount.String())

	// Pretend a sync run confirmed it, then edit: the row must go back to
	// pending and the amount must flip with the category.
	tx.SyncStatus = domain.SyncSynced
	require.NoError(t, store.Transactions().Update(ctx, tx))

	edited, err := svc.EditTransaction(ctx, user.ID, tx.ID, TransactionInput{
		Amount:   decimal.NewFromInt(200),
		Category: domain.CategoryIncome,
	})
	require.NoError(t, err)
	assert.Equal(t, "200", edited.Amount.String())
	assert.Equal(t, domain.SyncPending, edited.SyncStatus)

	active, err := store.Periods().Selected(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, active.TotalIncome.Equal(decimal.NewFromInt(200)))
	assert.True(t, active.TotalExpenses.IsZero())
}

func TestEditTransaction_RejectsOtherUsersTransaction(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	user := registered(t, svc)

	other, err := svc.Register(ctx, "Bia", "bia@example.com")
	require.NoError(t, err)

	tx, err := svc.AddTransaction(ctx, user.ID, TransactionInput{
		Amount:   decimal.NewFromInt(10),
		Category: domain.CategoryFood,
	})
	require.NoError(t, err)

	_, err = svc.EditTransaction(ctx, other.ID, tx.ID, TransactionInput{
		Amount:   decimal.NewFromInt(10),
		Category: domain.CategoryFood,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteTransaction_LocalOnlyRowIsRemoved(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	user := registered(t, svc)

	tx, err := svc.AddTransaction(ctx, user.ID, TransactionInput{
		Amount:   decimal.NewFromInt(10),
		Category: domain.CategoryFood,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTransaction(ctx, user.ID, tx.ID))

	_, err = store.Transactions().ByID(ctx, tx.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteTransaction_MirroredRowIsTombstoned(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	user := registered(t, svc)

	tx, err := svc.AddTransaction(ctx, user.ID, TransactionInput{
		Amount:   decimal.NewFromInt(10),
		Category: domain.CategoryFood,
	})
	require.NoError(t, err)
	tx.RemoteID = "doc-tx"
	tx.SyncStatus = domain.SyncSynced
	require.NoError(t, store.Transactions().Update(ctx, tx))

	require.NoError(t, svc.DeleteTransaction(ctx, user.ID, tx.ID))

	// Hidden from listings, totals no longer count it, but the row survives
	// for the next reconciliation run.
	listed, err := svc.Transactions(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)

	active, err := store.Periods().Selected(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, active.TotalExpenses.IsZero())

	row, err := store.Transactions().ByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, row.PendingDelete)
	assert.Equal(t, domain.SyncPending, row.SyncStatus)
}

func TestImportNotification_EndToEnd(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	user := registered(t, svc)

	parsed, ok := notify.Parse("com.nu.production", "Compra no débito aprovada: SUPERMERCADO PRIMAVERA R$ 45,90")
	require.True(t, ok)

	require.NoError(t, svc.ImportNotification(ctx, parsed.Text, parsed.Amount))

	txs, err := svc.Transactions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.Equal(t, "-45.9", tx.Amount.String())
	assert.Equal(t, domain.CategoryGroceries, tx.Category)
	assert.True(t, tx.Imported)
	assert.False(t, tx.Credit)
	assert.Equal(t, domain.SyncPending, tx.SyncStatus)

	active, err := store.Periods().Selected(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, active.ID, tx.PeriodID)
	assert.True(t, active.TotalExpenses.Equal(decimal.NewFromFloat(45.9)))
}

func TestImportNotification_CreditCardPurchase(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	user := registered(t, svc)

	err := svc.ImportNotification(ctx, "Compra no crédito aprovada: NETFLIX R$ 39,90", decimal.NewFromFloat(39.9))
	require.NoError(t, err)

	txs, err := svc.Transactions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Credit)
	assert.Equal(t, domain.CategoryEntertainment, txs[0].Category)
	assert.Equal(t, "-39.9", txs[0].Amount.String())
}

func TestImportNotification_SalaryIsIncome(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	user := registered(t, svc)

	err := svc.ImportNotification(ctx, "Pagamento recebido: SALARIO R$ 3.500,00", decimal.NewFromInt(3500))
	require.NoError(t, err)

	txs, err := svc.Transactions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.CategoryIncome, txs[0].Category)
	assert.Equal(t, "3500", txs[0].Amount.String())
}

func TestImportNotification_WithoutAccountFails(t *testing.T) {
	svc, _ := newService(t)

	err := svc.ImportNotification(context.Background(), "Compra R$ 10,00", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestRegisterAddRollover_EndToEnd(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	user := registered(t, svc)

	_, err := svc.AddTransaction(ctx, user.ID, TransactionInput{
		Amount:   decimal.NewFromInt(100),
		Category: domain.CategoryFood,
	})
	require.NoError(t, err)

	first, err := store.Periods().Selected(ctx, user.ID)
	require.NoError(t, err)

	next, err := svc.StartNewPeriod(ctx, user.ID)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, next.ID)

	// New entries land in the new period; the closed period keeps its totals.
	tx, err := svc.AddTransaction(ctx, user.ID, TransactionInput{
		Amount:   decimal.NewFromInt(40),
		Category: domain.CategoryTransport,
	})
	require.NoError(t, err)
	assert.Equal(t, next.ID, tx.PeriodID)

	closed, err := store.Periods().ByID(ctx, first.ID)
	require.NoError(t, err)
	assert.NotNil(t, closed.EndDate)
	assert.False(t, closed.Selected)
	assert.True(t, closed.TotalExpenses.Equal(decimal.NewFromInt(100)))

	reopened, err := store.Periods().Selected(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, next.ID, reopened.ID)
	assert.True(t, reopened.TotalExpenses.Equal(decimal.NewFromInt(40)))
}

func TestState_TaggedPhases(t *testing.T) {
	assert.Equal(t, PhaseIdle, Idle().Phase)
	assert.Equal(t, PhaseLoading, Loading().Phase)

	ok := Success("synced")
	assert.Equal(t, PhaseSuccess, ok.Phase)
	assert.Equal(t, "synced", ok.Message)
	assert.NoError(t, ok.Err)

	fail := Failure(domain.ErrSyncInFlight)
	assert.Equal(t, PhaseError, fail.Phase)
	assert.ErrorIs(t, fail.Err, domain.ErrSyncInFlight)
}
