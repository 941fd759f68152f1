package syncengine

import (
	"context"

	"github.com/carteiraapp/carteira/internal/domain"
	"github.com/carteiraapp/carteira/internal/localstore"
	"github.com/carteiraapp/carteira/internal/remotestore"
)

// LocalAdapter implements LocalStore over the SQLite-backed store.
type LocalAdapter struct {
	store *localstore.Store
}

// NewLocalAdapter wraps store for engine consumption.
func NewLocalAdapter(store *localstore.Store) *LocalAdapter {
	return &LocalAdapter{store: store}
}

func (a *LocalAdapter) User(ctx context.Context, userID uint) (*domain.User, error) {
	return a.store.Users().ByID(ctx, userID)
}

func (a *LocalAdapter) SaveUser(ctx context.Context, user *domain.User) error {
	return a.store.Users().Update(ctx, user)
}

func (a *LocalAdapter) PendingPeriods(ctx context.Context, userID uint) ([]domain.Period, error) {
	return a.store.Periods().Pending(ctx, userID)
}

func (a *LocalAdapter) SavePeriod(ctx context.Context, period *domain.Period) error {
	return a.store.Periods().Update(ctx, period)
}

func (a *LocalAdapter) CreatePeriod(ctx context.Context, period *domain.Period) error {
	return a.store.Periods().Create(ctx, period)
}

func (a *LocalAdapter) DeletePeriodRow(ctx context.Context, id uint) error {
	return a.store.Periods().HardDelete(ctx, id)
}

func (a *LocalAdapter) PeriodByID(ctx context.Context, id uint) (*domain.Period, error) {
	return a.store.Periods().ByID(ctx, id)
}

func (a *LocalAdapter) PeriodByRemoteID(ctx context.Context, userID uint, remoteID string) (*domain.Period, error) {
	return a.store.Periods().ByRemoteID(ctx, userID, remoteID)
}

func (a *LocalAdapter) PendingTransactions(ctx context.Context, userID uint) ([]domain.Transaction, error) {
	return a.store.Transactions().Pending(ctx, userID)
}

func (a *LocalAdapter) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	return a.store.Transactions().Update(ctx, tx)
}

func (a *LocalAdapter) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	return a.store.Transactions().Create(ctx, tx)
}

func (a *LocalAdapter) DeleteTransactionRow(ctx context.Context, id uint) error {
	return a.store.Transactions().Delete(ctx, id)
}

func (a *LocalAdapter) TransactionByRemoteID(ctx context.Context, userID uint, remoteID string) (*domain.Transaction, error) {
	return a.store.Transactions().ByRemoteID(ctx, userID, remoteID)
}

func (a *LocalAdapter) TombstonedTransactionCount(ctx context.Context, periodID uint) (int, error) {
	return a.store.Transactions().CountTombstonedByPeriod(ctx, periodID)
}

// RemoteAdapter implements RemoteStore over the per-entity Notion stores.
type RemoteAdapter struct {
	users        *remotestore.UserStore
	periods      *remotestore.PeriodStore
	transactions *remotestore.TransactionStore
}

// NewRemoteAdapter wraps the entity stores for engine consumption.
func NewRemoteAdapter(users *remotestore.UserStore, periods *remotestore.PeriodStore, transactions *remotestore.TransactionStore) *RemoteAdapter {
	return &RemoteAdapter{users: users, periods: periods, transactions: transactions}
}

func (a *RemoteAdapter) AddUser(ctx context.Context, user *domain.User) (string, error) {
	return a.users.Add(ctx, user)
}

func (a *RemoteAdapter) UpdateUser(ctx context.Context, docID string, user *domain.User) error {
	return a.users.Update(ctx, docID, user)
}

func (a *RemoteAdapter) FindUserByEmail(ctx context.Context, email string) (string, error) {
	return a.users.FindByEmail(ctx, email)
}

func (a *RemoteAdapter) AddPeriod(ctx context.Context, period *domain.Period, ownerDocID string) (string, error) {
	return a.periods.Add(ctx, period, ownerDocID)
}

func (a *RemoteAdapter) UpdatePeriod(ctx context.Context, docID string, period *domain.Period, ownerDocID string) error {
	return a.periods.Update(ctx, docID, period, ownerDocID)
}

func (a *RemoteAdapter) DeletePeriod(ctx context.Context, docID string) error {
	return a.periods.Delete(ctx, docID)
}

func (a *RemoteAdapter) PeriodsByOwner(ctx context.Context, ownerDocID string) ([]domain.Period, error) {
	return a.periods.ByOwner(ctx, ownerDocID)
}

func (a *RemoteAdapter) AddTransaction(ctx context.Context, tx *domain.Transaction) (string, error) {
	return a.transactions.Add(ctx, tx)
}

func (a *RemoteAdapter) UpdateTransaction(ctx context.Context, docID string, tx *domain.Transaction) error {
	return a.transactions.Update(ctx, docID, tx)
}

func (a *RemoteAdapter) DeleteTransaction(ctx context.Context, docID string) error {
	return a.transactions.Delete(ctx, docID)
}

func (a *RemoteAdapter) TransactionsByOwner(ctx context.Context, ownerDocID string) ([]domain.Transaction, error) {
	return a.transactions.ByOwner(ctx, ownerDocID)
}
