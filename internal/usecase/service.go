// Package usecase implements the application-facing operations: account
// registration, transaction entry and editing, and import of parsed bank
// notifications. It owns the amount sign convention and keeps period totals
// consistent with the transactions they summarize.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carteiraapp/carteira/internal/classifier"
	"github.com/carteiraapp/carteira/internal/domain"
	"github.com/carteiraapp/carteira/internal/localstore"
	"github.com/carteiraapp/carteira/internal/logger"
	"github.com/carteiraapp/carteira/internal/period"
)

// Clock supplies the current time; injectable for tests.
type Clock func() time.Time

// TransactionInput carries the user-editable fields of a transaction.
type TransactionInput struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	Category    string
	Credit      bool
}

// Service wires the local store, the period manager and the classifier into
// the operations a frontend calls.
type Service struct {
	store      *localstore.Store
	periods    *period.Manager
	classifier *classifier.Classifier
	now        Clock
}

// NewService builds a Service. A nil clock defaults to time.Now.
func NewService(store *localstore.Store, periods *period.Manager, cls *classifier.Classifier, now Clock) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, periods: periods, classifier: cls, now: now}
}

// Register creates the local account and its default period. The account
// reaches the remote store on the first reconciliation run.
func (s *Service) Register(ctx context.Context, name, email string) (*domain.User, error) {
	if name == "" || email == "" {
		return nil, fmt.Errorf("Register: name and email are required: %w", domain.ErrConstraint)
	}

	user := &domain.User{
		Name:       name,
		Email:      email,
		SyncStatus: domain.SyncPending,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}
	if _, err := s.periods.CreateDefault(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Uint("user_id", user.ID).
		Str("email", email).
		Msg("Registered account")
	return user, nil
}

// CurrentUser returns the device's account, or ErrNoSession when none has
// been registered yet.
func (s *Service) CurrentUser(ctx context.Context) (*domain.User, error) {
	return s.store.Users().First(ctx)
}

// AddTransaction records a new transaction in the user's active period. An
// empty category is resolved from the description; the amount sign is
// normalized from the category. When no period is selected a default one is
// created first.
func (s *Service) AddTransaction(ctx context.Context, userID uint, in TransactionInput) (*domain.Transaction, error) {
	category, err := s.resolveCategory(in)
	if err != nil {
		return nil, fmt.Errorf("AddTransaction: %w", err)
	}

	active, err := s.activePeriod(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("AddTransaction: %w", err)
	}

	date := in.Date
	if date.IsZero() {
		date = s.now()
	}

	tx := &domain.Transaction{
		Date:        date,
		Amount:      normalizeAmount(category, in.Amount),
		Description: in.Description,
		Category:    category,
		UserID:      userID,
		PeriodID:    active.ID,
		Credit:      in.Credit,
		SyncStatus:  domain.SyncPending,
	}

	err = s.store.WithTx(ctx, func(store *localstore.Store) error {
		if err := store.Transactions().Create(ctx, tx); err != nil {
			return err
		}
		return recomputeTotals(ctx, store, active.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("AddTransaction: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Uint("transaction_id", tx.ID).
		Uint("period_id", active.ID).
		Str("category", category).
		Str("amount", tx.Amount.String()).
		Msg("Added transaction")
	return tx, nil
}

// EditTransaction rewrites the editable fields of an existing transaction and
// flags it for a new push. The sign convention is re-applied, so changing the
// category can flip the amount.
func (s *Service) EditTransaction(ctx context.Context, userID, txID uint, in TransactionInput) (*domain.Transaction, error) {
	tx, err := s.ownedTransaction(ctx, userID, txID)
	if err != nil {
		return nil, fmt.Errorf("EditTransaction: %w", err)
	}

	category, err := s.resolveCategory(in)
	if err != nil {
		return nil, fmt.Errorf("EditTransaction: %w", err)
	}

	if !in.Date.IsZero() {
		tx.Date = in.Date
	}
	tx.Amount = normalizeAmount(category, in.Amount)
	tx.Description = in.Description
	tx.Category = category
	tx.Credit = in.Credit
	tx.SyncStatus = domain.SyncPending

	err = s.store.WithTx(ctx, func(store *localstore.Store) error {
		if err := store.Transactions().Update(ctx, tx); err != nil {
			return err
		}
		return recomputeTotals(ctx, store, tx.PeriodID)
	})
	if err != nil {
		return nil, fmt.Errorf("EditTransaction: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Uint("transaction_id", tx.ID).
		Str("category", category).
		Msg("Edited transaction")
	return tx, nil
}

// DeleteTransaction removes a transaction. A row the remote store has never
// seen is deleted outright; a mirrored row is tombstoned and disappears from
// listings immediately, with the document deleted on the next run.
func (s *Service) DeleteTransaction(ctx context.Context, userID, txID uint) error {
	tx, err := s.ownedTransaction(ctx, userID, txID)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}

	err = s.store.WithTx(ctx, func(store *localstore.Store) error {
		if tx.RemoteID == "" {
			if err := store.Transactions().Delete(ctx, tx.ID); err != nil {
				return err
			}
		} else {
			tx.PendingDelete = true
			tx.SyncStatus = domain.SyncPending
			if err := store.Transactions().Update(ctx, tx); err != nil {
				return err
			}
		}
		return recomputeTotals(ctx, store, tx.PeriodID)
	})
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Uint("transaction_id", txID).
		Bool("tombstoned", tx.RemoteID != "").
		Msg("Deleted transaction")
	return nil
}

// ImportNotification turns a relevant bank notification into a transaction on
// the device account's active period. The category comes from the text, the
// polarity keywords record whether the payment rode a credit card.
func (s *Service) ImportNotification(ctx context.Context, text string, amount decimal.Decimal) error {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("ImportNotification: %w", err)
	}

	credit := classifier.IsCredit(text)
	category := s.classifier.CategorizeContext(ctx, text)

	active, err := s.activePeriod(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("ImportNotification: %w", err)
	}

	tx := &domain.Transaction{
		Date:        s.now(),
		Amount:      normalizeAmount(category, amount),
		Description: text,
		Category:    category,
		UserID:      user.ID,
		PeriodID:    active.ID,
		Imported:    true,
		Credit:      credit,
		SyncStatus:  domain.SyncPending,
	}

	err = s.store.WithTx(ctx, func(store *localstore.Store) error {
		if err := store.Transactions().Create(ctx, tx); err != nil {
			return err
		}
		return recomputeTotals(ctx, store, active.ID)
	})
	if err != nil {
		return fmt.Errorf("ImportNotification: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Uint("transaction_id", tx.ID).
		Str("category", category).
		Bool("credit", credit).
		Msg("Imported transaction from notification")
	return nil
}

// Transactions lists the user's live transactions, newest first.
func (s *Service) Transactions(ctx context.Context, userID uint) ([]domain.Transaction, error) {
	return s.store.Transactions().ByUser(ctx, userID)
}

// Periods lists all of the user's periods.
func (s *Service) Periods(ctx context.Context, userID uint) ([]domain.Period, error) {
	return s.store.Periods().ByUser(ctx, userID)
}

// SelectPeriod makes periodID the user's single selected period.
func (s *Service) SelectPeriod(ctx context.Context, userID, periodID uint) error {
	return s.periods.Select(ctx, userID, periodID)
}

// StartNewPeriod closes the selected period today and opens a fresh one.
func (s *Service) StartNewPeriod(ctx context.Context, userID uint) (*domain.Period, error) {
	return s.periods.StartNew(ctx, userID)
}

// DeletePeriods removes the given periods and their transactions, refusing
// when any of them is currently selected.
func (s *Service) DeletePeriods(ctx context.Context, userID uint, periodIDs []uint) error {
	return s.periods.Delete(ctx, userID, periodIDs)
}

// ownedTransaction loads a transaction and verifies it belongs to userID.
// Rows of other users are indistinguishable from missing ones.
func (s *Service) ownedTransaction(ctx context.Context, userID, txID uint) (*domain.Transaction, error) {
	tx, err := s.store.Transactions().ByID(ctx, txID)
	if err != nil {
		return nil, err
	}
	if tx.UserID != userID {
		return nil, fmt.Errorf("transaction %d: %w", txID, domain.ErrNotFound)
	}
	return tx, nil
}

// resolveCategory validates the input category, classifying the description
// when none was given.
func (s *Service) resolveCategory(in TransactionInput) (string, error) {
	if in.Category == "" {
		return s.classifier.Categorize(in.Description), nil
	}
	if !domain.KnownCategory(in.Category) {
		return "", fmt.Errorf("unknown category %q: %w", in.Category, domain.ErrConstraint)
	}
	return in.Category, nil
}

// activePeriod resolves the user's selected period, creating the default one
// when the account has no periods yet.
func (s *Service) activePeriod(ctx context.Context, userID uint) (*domain.Period, error) {
	active, err := s.store.Periods().Selected(ctx, userID)
	if err == nil {
		return active, nil
	}
	if !errors.Is(err, domain.ErrNoActivePeriod) {
		return nil, err
	}

	active, err = s.periods.CreateDefault(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		// Periods exist but none is selected; creating another would not fix
		// the account, the user has to pick one.
		return nil, domain.ErrNoActivePeriod
	}
	return active, nil
}

// normalizeAmount applies the sign convention: income rows are non-negative,
// every other category non-positive.
func normalizeAmount(category string, amount decimal.Decimal) decimal.Decimal {
	if category == domain.CategoryIncome {
		return amount.Abs()
	}
	return amount.Abs().Neg()
}

// recomputeTotals refreshes a period's derived totals from its live
// transactions, flagging the period for push only when the totals changed.
func recomputeTotals(ctx context.Context, store *localstore.Store, periodID uint) error {
	income, expenses, err := store.Transactions().SumsByPeriod(ctx, periodID)
	if err != nil {
		return err
	}

	p, err := store.Periods().ByID(ctx, periodID)
	if err != nil {
		return err
	}
	if p.TotalIncome.Equal(income) && p.TotalExpenses.Equal(expenses) {
		return nil
	}

	p.TotalIncome = income
	p.TotalExpenses = expenses
	p.SyncStatus = domain.SyncPending
	return store.Periods().Update(ctx, p)
}
