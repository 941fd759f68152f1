package syncengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carteiraapp/carteira/internal/domain"
	"github.com/carteiraapp/carteira/internal/logger"
)

// pull fetches the user's remote documents and upserts them locally, periods
// first so transactions can resolve their parent. Pulled state overwrites
// local fields for the matched row; that is safe only because push always
// precedes pull within a run. A failed remote query skips the pull rather
// than failing the run.
func (e *Engine) pull(ctx, runCtx context.Context, user *domain.User, stats *runStats) error {
	log := logger.FromContext(ctx)

	if outOfTime(ctx, runCtx) {
		return nil
	}

	var remotePeriods []domain.Period
	err := e.remoteCall(runCtx, func(callCtx context.Context) error {
		var queryErr error
		remotePeriods, queryErr = e.remote.PeriodsByOwner(callCtx, user.RemoteID)
		return queryErr
	})
	if err != nil {
		log.Warn().Err(err).Msg("Skipping pull, period query failed")
		return nil
	}

	for i := range remotePeriods {
		if outOfTime(ctx, runCtx) {
			return nil
		}
		if err := e.pullPeriod(ctx, user, &remotePeriods[i], stats); err != nil {
			return err
		}
	}

	var remoteTxs []domain.Transaction
	err = e.remoteCall(runCtx, func(callCtx context.Context) error {
		var queryErr error
		remoteTxs, queryErr = e.remote.TransactionsByOwner(callCtx, user.RemoteID)
		return queryErr
	})
	if err != nil {
		log.Warn().Err(err).Msg("Skipping transaction pull, query failed")
		return nil
	}

	for i := range remoteTxs {
		if outOfTime(ctx, runCtx) {
			return nil
		}
		if err := e.pullTransaction(ctx, user, &remoteTxs[i], stats); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) pullPeriod(ctx context.Context, user *domain.User, remote *domain.Period, stats *runStats) error {
	local, err := e.local.PeriodByRemoteID(ctx, user.ID, remote.RemoteID)
	switch {
	case err == nil:
		if local.PendingDelete {
			// A tombstone outranks the pulled copy; the next push run
			// deletes the document.
			stats.skipped++
			return nil
		}
		if local.SyncStatus.NeedsPush() {
			// The local row carries an edit that has not reached the remote
			// yet, so the pulled copy is stale. Keep the local edit.
			stats.skipped++
			return nil
		}
		if periodUnchanged(local, remote) {
			// Saving an identical row would signal observers and trigger
			// another run; a converged system must stay quiet.
			stats.skipped++
			return nil
		}
		local.StartDate = remote.StartDate
		local.EndDate = remote.EndDate
		local.Selected = remote.Selected
		local.TotalIncome = remote.TotalIncome
		local.TotalExpenses = remote.TotalExpenses
		local.SyncStatus = domain.SyncSynced
		if err := e.local.SavePeriod(ctx, local); err != nil {
			return fmt.Errorf("saving pulled period %s: %w", remote.RemoteID, err)
		}
	case errors.Is(err, domain.ErrNotFound):
		fresh := *remote
		fresh.ID = 0
		fresh.UserID = user.ID
		fresh.SyncStatus = domain.SyncSynced
		if err := e.local.CreatePeriod(ctx, &fresh); err != nil {
			return fmt.Errorf("inserting pulled period %s: %w", remote.RemoteID, err)
		}
	default:
		return fmt.Errorf("matching pulled period %s: %w", remote.RemoteID, err)
	}
	stats.pulled++
	return nil
}

// periodUnchanged reports whether the pulled document carries nothing new for
// an already-synced local row.
func periodUnchanged(local, remote *domain.Period) bool {
	return local.StartDate.Equal(remote.StartDate) &&
		datesEqual(local.EndDate, remote.EndDate) &&
		local.Selected == remote.Selected &&
		local.TotalIncome.Equal(remote.TotalIncome) &&
		local.TotalExpenses.Equal(remote.TotalExpenses)
}

func transactionUnchanged(local, remote *domain.Transaction, parentID uint) bool {
	return local.Date.Equal(remote.Date) &&
		local.Amount.Equal(remote.Amount) &&
		local.Description == remote.Description &&
		local.Category == remote.Category &&
		local.Credit == remote.Credit &&
		local.Imported == remote.Imported &&
		local.PeriodID == parentID &&
		local.RemoteUserID == remote.RemoteUserID &&
		local.RemotePeriodID == remote.RemotePeriodID
}

func datesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func (e *Engine) pullTransaction(ctx context.Context, user *domain.User, remote *domain.Transaction, stats *runStats) error {
	log := logger.FromContext(ctx)

	parent, err := e.local.PeriodByRemoteID(ctx, user.ID, remote.RemotePeriodID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().
				Str("doc_id", remote.RemoteID).
				Str("period_doc_id", remote.RemotePeriodID).
				Msg("Skipping pulled transaction, parent period unknown locally")
			stats.skipped++
			return nil
		}
		return fmt.Errorf("resolving parent of pulled transaction %s: %w", remote.RemoteID, err)
	}

	local, err := e.local.TransactionByRemoteID(ctx, user.ID, remote.RemoteID)
	switch {
	case err == nil:
		if local.PendingDelete {
			stats.skipped++
			return nil
		}
		if local.SyncStatus.NeedsPush() {
			stats.skipped++
			return nil
		}
		if transactionUnchanged(local, remote, parent.ID) {
			stats.skipped++
			return nil
		}
		local.Date = remote.Date
		local.Amount = remote.Amount
		local.Description = remote.Description
		local.Category = remote.Category
		local.Credit = remote.Credit
		local.Imported = remote.Imported
		local.PeriodID = parent.ID
		local.RemoteUserID = remote.RemoteUserID
		local.RemotePeriodID = remote.RemotePeriodID
		local.SyncStatus = domain.SyncSynced
		if err := e.local.SaveTransaction(ctx, local); err != nil {
			return fmt.Errorf("saving pulled transaction %s: %w", remote.RemoteID, err)
		}
	case errors.Is(err, domain.ErrNotFound):
		fresh := *remote
		fresh.ID = 0
		fresh.UserID = user.ID
		fresh.PeriodID = parent.ID
		fresh.SyncStatus = domain.SyncSynced
		if err := e.local.CreateTransaction(ctx, &fresh); err != nil {
			return fmt.Errorf("inserting pulled transaction %s: %w", remote.RemoteID, err)
		}
	default:
		return fmt.Errorf("matching pulled transaction %s: %w", remote.RemoteID, err)
	}
	stats.pulled++
	return nil
}
