// Package syncengine reconciles the local store with the remote document
// store: push local changes out, then pull remote state in, one user at a
// time, tolerating per-record failure.
package syncengine

import (
	"context"

	"github.com/carteiraapp/carteira/internal/domain"
)

// LocalStore is the slice of the local store the engine drives. All methods
// are synchronous; any error from them is fatal to the run.
type LocalStore interface {
	User(ctx context.Context, userID uint) (*domain.User, error)
	SaveUser(ctx context.Context, user *domain.User) error

	PendingPeriods(ctx context.Context, userID uint) ([]domain.Period, error)
	SavePeriod(ctx context.Context, period *domain.Period) error
	CreatePeriod(ctx context.Context, period *domain.Period) error
	// DeletePeriodRow removes the local row and any remaining owned
	// transactions after the remote counterpart is confirmed gone.
	DeletePeriodRow(ctx context.Context, id uint) error
	PeriodByID(ctx context.Context, id uint) (*domain.Period, error)
	PeriodByRemoteID(ctx context.Context, userID uint, remoteID string) (*domain.Period, error)

	PendingTransactions(ctx context.Context, userID uint) ([]domain.Transaction, error)
	SaveTransaction(ctx context.Context, tx *domain.Transaction) error
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	DeleteTransactionRow(ctx context.Context, id uint) error
	TransactionByRemoteID(ctx context.Context, userID uint, remoteID string) (*domain.Transaction, error)
	// TombstonedTransactionCount reports how many of the period's
	// transactions still await remote deletion.
	TombstonedTransactionCount(ctx context.Context, periodID uint) (int, error)
}

// RemoteStore is the slice of the remote document store the engine drives.
// Errors are transient (RemoteError) or ErrRemoteNotFound; the engine, not
// the adapter, owns retry policy.
type RemoteStore interface {
	AddUser(ctx context.Context, user *domain.User) (string, error)
	UpdateUser(ctx context.Context, docID string, user *domain.User) error
	FindUserByEmail(ctx context.Context, email string) (string, error)

	AddPeriod(ctx context.Context, period *domain.Period, ownerDocID string) (string, error)
	UpdatePeriod(ctx context.Context, docID string, period *domain.Period, ownerDocID string) error
	DeletePeriod(ctx context.Context, docID string) error
	PeriodsByOwner(ctx context.Context, ownerDocID string) ([]domain.Period, error)

	AddTransaction(ctx context.Context, tx *domain.Transaction) (string, error)
	UpdateTransaction(ctx context.Context, docID string, tx *domain.Transaction) error
	DeleteTransaction(ctx context.Context, docID string) error
	TransactionsByOwner(ctx context.Context, ownerDocID string) ([]domain.Transaction, error)
}
