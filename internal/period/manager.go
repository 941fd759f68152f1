// Package period enforces the lifecycle invariants of financial periods:
// at most one selected period per user, closed periods carry an end date,
// and deletion cascades to owned transactions.
package period

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carteiraapp/carteira/internal/domain"
	"github.com/carteiraapp/carteira/internal/logger"
)

// PeriodStore is the slice of the local store the manager needs.
type PeriodStore interface {
	Create(ctx context.Context, period *domain.Period) error
	Update(ctx context.Context, period *domain.Period) error
	ByID(ctx context.Context, id uint) (*domain.Period, error)
	ByUser(ctx context.Context, userID uint) ([]domain.Period, error)
	Selected(ctx context.Context, userID uint) (*domain.Period, error)
	SetSelected(ctx context.Context, userID, periodID uint) error
	HardDelete(ctx context.Context, id uint) error
}

// TransactionStore is the slice of the transaction repository the manager
// needs for cascade-safe deletion.
type TransactionStore interface {
	ByPeriod(ctx context.Context, periodID uint) ([]domain.Transaction, error)
	Update(ctx context.Context, tx *domain.Transaction) error
	Delete(ctx context.Context, id uint) error
}

// Clock supplies the current time; injectable for tests.
type Clock func() time.Time

// Manager drives period state transitions.
type Manager struct {
	periods      PeriodStore
	transactions TransactionStore
	now          Clock
}

// NewManager wires a Manager. A nil clock defaults to time.Now.
func NewManager(periods PeriodStore, transactions TransactionStore, now Clock) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{periods: periods, transactions: transactions, now: now}
}

// CreateDefault ensures the user has at least one period. When none exists it
// creates a period spanning the current calendar month, immediately selected.
// When any period already exists it is a no-op and returns the selected one
// (nil if somehow none is selected).
func (m *Manager) CreateDefault(ctx context.Context, userID uint) (*domain.Period, error) {
	existing, err := m.periods.ByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("CreateDefault: listing periods: %w", err)
	}
	if len(existing) > 0 {
		for i := range existing {
			if existing[i].Selected {
				return &existing[i], nil
			}
		}
		return nil, nil
	}

	now := m.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	period := &domain.Period{
		StartDate:     start,
		EndDate:       &end,
		Selected:      true,
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		UserID:        userID,
		SyncStatus:    domain.SyncPending,
	}
	if err := m.periods.Create(ctx, period); err != nil {
		return nil, fmt.Errorf("CreateDefault: creating period: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Uint("user_id", userID).
		Uint("period_id", period.ID).
		Time("start", start).
		Msg("Created default period")
	return period, nil
}

// StartNew closes the currently selected period (stamping today as its end
// date and clearing the flag) and opens a new selected period starting today
// with no end date. Returns ErrNoActivePeriod when nothing is selected.
func (m *Manager) StartNew(ctx context.Context, userID uint) (*domain.Period, error) {
	current, err := m.periods.Selected(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("StartNew: %w", err)
	}

	today := m.now()
	current.EndDate = &today
	current.Selected = false
	current.SyncStatus = domain.SyncPending
	if err := m.periods.Update(ctx, current); err != nil {
		return nil, fmt.Errorf("StartNew: closing period %d: %w", current.ID, err)
	}

	next := &domain.Period{
		StartDate:     today,
		EndDate:       nil,
		Selected:      true,
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		UserID:        userID,
		SyncStatus:    domain.SyncPending,
	}
	if err := m.periods.Create(ctx, next); err != nil {
		return nil, fmt.Errorf("StartNew: opening period: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Uint("user_id", userID).
		Uint("closed_period_id", current.ID).
		Uint("new_period_id", next.ID).
		Msg("Rolled over to new period")
	return next, nil
}

// Select makes periodID the single selected period of the user, reasserting
// the invariant over the whole set rather than toggling two rows.
func (m *Manager) Select(ctx context.Context, userID, periodID uint) error {
	if err := m.periods.SetSelected(ctx, userID, periodID); err != nil {
		return fmt.Errorf("Select: %w", err)
	}
	return nil
}

// Delete removes the given periods and their owned transactions. It refuses
// the whole batch when any period is currently selected, leaving all state
// unchanged. Rows already mirrored remotely are tombstoned for the next
// reconciliation run; rows the remote never saw are removed outright.
func (m *Manager) Delete(ctx context.Context, userID uint, periodIDs []uint) error {
	periods := make([]*domain.Period, 0, len(periodIDs))
	for _, id := range periodIDs {
		period, err := m.periods.ByID(ctx, id)
		if err != nil {
			return fmt.Errorf("Delete: loading period %d: %w", id, err)
		}
		if period.UserID != userID {
			return fmt.Errorf("Delete: period %d: %w", id, domain.ErrNotFound)
		}
		if period.Selected {
			return fmt.Errorf("Delete: period %d: %w", id, domain.ErrForbiddenDeletion)
		}
		periods = append(periods, period)
	}

	log := logger.FromContext(ctx)
	for _, period := range periods {
		if period.RemoteID == "" {
			if err := m.periods.HardDelete(ctx, period.ID); err != nil {
				return fmt.Errorf("Delete: period %d: %w", period.ID, err)
			}
			log.Info().Uint("period_id", period.ID).Msg("Deleted local-only period")
			continue
		}

		if err := m.tombstoneTransactions(ctx, period.ID); err != nil {
			return fmt.Errorf("Delete: period %d transactions: %w", period.ID, err)
		}

		period.PendingDelete = true
		period.Selected = false
		period.SyncStatus = domain.SyncPending
		if err := m.periods.Update(ctx, period); err != nil {
			return fmt.Errorf("Delete: tombstoning period %d: %w", period.ID, err)
		}
		log.Info().Uint("period_id", period.ID).Msg("Tombstoned period for remote deletion")
	}
	return nil
}

// tombstoneTransactions flags the period's mirrored transactions for remote
// deletion and drops the ones that never left the device.
func (m *Manager) tombstoneTransactions(ctx context.Context, periodID uint) error {
	txs, err := m.transactions.ByPeriod(ctx, periodID)
	if err != nil {
		return err
	}
	for i := range txs {
		tx := &txs[i]
		if tx.RemoteID == "" {
			if err := m.transactions.Delete(ctx, tx.ID); err != nil {
				return err
			}
			continue
		}
		tx.PendingDelete = true
		tx.SyncStatus = domain.SyncPending
		if err := m.transactions.Update(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}
