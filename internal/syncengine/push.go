package syncengine

import (
	"context"
	"fmt"

	"github.com/carteiraapp/carteira/internal/domain"
	"github.com/carteiraapp/carteira/internal/logger"
)

// push sends every pending local change to the remote store. Deletions go
// child-before-parent (transactions, then periods) so no remote document is
// orphaned; upserts go parent-before-child (periods, then transactions) so
// children can reference their parent's document id. One record's failure
// flags it FAILED and never aborts the batch.
func (e *Engine) push(ctx, runCtx context.Context, user *domain.User, stats *runStats) error {
	pendingPeriods, err := e.local.PendingPeriods(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("listing pending periods: %w", err)
	}
	pendingTxs, err := e.local.PendingTransactions(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("listing pending transactions: %w", err)
	}

	for i := range pendingTxs {
		if !pendingTxs[i].PendingDelete {
			continue
		}
		if outOfTime(ctx, runCtx) {
			return e.deadlineReached(ctx, stats)
		}
		if err := e.pushTransactionDelete(ctx, runCtx, &pendingTxs[i], stats); err != nil {
			return err
		}
	}

	for i := range pendingPeriods {
		if !pendingPeriods[i].PendingDelete {
			continue
		}
		if outOfTime(ctx, runCtx) {
			return e.deadlineReached(ctx, stats)
		}
		if err := e.pushPeriodDelete(ctx, runCtx, &pendingPeriods[i], stats); err != nil {
			return err
		}
	}

	for i := range pendingPeriods {
		if pendingPeriods[i].PendingDelete {
			continue
		}
		if outOfTime(ctx, runCtx) {
			return e.deadlineReached(ctx, stats)
		}
		if err := e.pushPeriod(ctx, runCtx, user, &pendingPeriods[i], stats); err != nil {
			return err
		}
	}

	for i := range pendingTxs {
		if pendingTxs[i].PendingDelete {
			continue
		}
		if outOfTime(ctx, runCtx) {
			return e.deadlineReached(ctx, stats)
		}
		if err := e.pushTransaction(ctx, runCtx, user, &pendingTxs[i], stats); err != nil {
			return err
		}
	}

	return nil
}

// deadlineReached logs the early stop. Unprocessed records keep their
// current status; the next run picks them up.
func (e *Engine) deadlineReached(ctx context.Context, stats *runStats) error {
	log := logger.FromContext(ctx)
	log.Warn().
		Int("pushed", stats.pushed).
		Int("deleted", stats.deleted).
		Msg("Run deadline reached, leaving remaining records for next run")
	return nil
}

func (e *Engine) pushTransactionDelete(ctx, runCtx context.Context, tx *domain.Transaction, stats *runStats) error {
	log := logger.FromContext(ctx)

	if e.dryRun {
		log.Info().Uint("transaction_id", tx.ID).Msg("[DRY RUN] Would delete remote transaction")
		stats.deleted++
		return nil
	}

	if tx.RemoteID != "" {
		err := e.remoteCall(runCtx, func(callCtx context.Context) error {
			return e.remote.DeleteTransaction(callCtx, tx.RemoteID)
		})
		if err != nil {
			log.Warn().Err(err).Uint("transaction_id", tx.ID).Msg("Failed to delete remote transaction")
			tx.SyncStatus = domain.SyncFailed
			stats.failed++
			return e.local.SaveTransaction(ctx, tx)
		}
	}

	if err := e.local.DeleteTransactionRow(ctx, tx.ID); err != nil {
		return fmt.Errorf("removing tombstoned transaction %d: %w", tx.ID, err)
	}
	log.Info().Uint("transaction_id", tx.ID).Str("doc_id", tx.RemoteID).Msg("Deleted remote transaction")
	stats.deleted++
	return nil
}

func (e *Engine) pushPeriodDelete(ctx, runCtx context.Context, period *domain.Period, stats *runStats) error {
	log := logger.FromContext(ctx)

	// A period whose transactions still await remote deletion is deferred:
	// removing its local row would cascade the tombstones away and leak
	// remote documents.
	remaining, err := e.local.TombstonedTransactionCount(ctx, period.ID)
	if err != nil {
		return fmt.Errorf("checking tombstoned transactions of period %d: %w", period.ID, err)
	}
	if remaining > 0 {
		log.Warn().
			Uint("period_id", period.ID).
			Int("remaining_transactions", remaining).
			Msg("Deferring period deletion until its transactions are deleted remotely")
		stats.skipped++
		return nil
	}

	if e.dryRun {
		log.Info().Uint("period_id", period.ID).Msg("[DRY RUN] Would delete remote period")
		stats.deleted++
		return nil
	}

	if period.RemoteID != "" {
		err := e.remoteCall(runCtx, func(callCtx context.Context) error {
			return e.remote.DeletePeriod(callCtx, period.RemoteID)
		})
		if err != nil {
			log.Warn().Err(err).Uint("period_id", period.ID).Msg("Failed to delete remote period")
			period.SyncStatus = domain.SyncFailed
			stats.failed++
			return e.local.SavePeriod(ctx, period)
		}
	}

	if err := e.local.DeletePeriodRow(ctx, period.ID); err != nil {
		return fmt.Errorf("removing tombstoned period %d: %w", period.ID, err)
	}
	log.Info().Uint("period_id", period.ID).Str("doc_id", period.RemoteID).Msg("Deleted remote period")
	stats.deleted++
	return nil
}

func (e *Engine) pushPeriod(ctx, runCtx context.Context, user *domain.User, period *domain.Period, stats *runStats) error {
	log := logger.FromContext(ctx)

	if e.dryRun {
		if period.RemoteID == "" {
			log.Info().Uint("period_id", period.ID).Msg("[DRY RUN] Would create remote period")
		} else {
			log.Info().Uint("period_id", period.ID).Msg("[DRY RUN] Would update remote period")
		}
		stats.pushed++
		return nil
	}

	var pushErr error
	if period.RemoteID == "" {
		// Create-or-update: a record with no document id means remote
		// creation never succeeded, so create it now.
		var docID string
		pushErr = e.remoteCall(runCtx, func(callCtx context.Context) error {
			var addErr error
			docID, addErr = e.remote.AddPeriod(callCtx, period, user.RemoteID)
			return addErr
		})
		if pushErr == nil {
			period.RemoteID = docID
		}
	} else {
		pushErr = e.remoteCall(runCtx, func(callCtx context.Context) error {
			return e.remote.UpdatePeriod(callCtx, period.RemoteID, period, user.RemoteID)
		})
	}

	if pushErr != nil {
		log.Warn().Err(pushErr).Uint("period_id", period.ID).Msg("Failed to push period")
		period.SyncStatus = domain.SyncFailed
		stats.failed++
	} else {
		period.SyncStatus = domain.SyncSynced
		stats.pushed++
	}
	if err := e.local.SavePeriod(ctx, period); err != nil {
		return fmt.Errorf("recording period %d sync status: %w", period.ID, err)
	}
	return nil
}

func (e *Engine) pushTransaction(ctx, runCtx context.Context, user *domain.User, tx *domain.Transaction, stats *runStats) error {
	log := logger.FromContext(ctx)

	period, err := e.local.PeriodByID(ctx, tx.PeriodID)
	if err != nil {
		return fmt.Errorf("loading period %d of transaction %d: %w", tx.PeriodID, tx.ID, err)
	}
	if period.RemoteID == "" {
		// Parent never made it to the remote; the child cannot reference it.
		log.Warn().
			Uint("transaction_id", tx.ID).
			Uint("period_id", period.ID).
			Msg("Skipping transaction push, owning period has no remote document")
		tx.SyncStatus = domain.SyncFailed
		stats.failed++
		return e.local.SaveTransaction(ctx, tx)
	}

	if e.dryRun {
		if tx.RemoteID == "" {
			log.Info().Uint("transaction_id", tx.ID).Msg("[DRY RUN] Would create remote transaction")
		} else {
			log.Info().Uint("transaction_id", tx.ID).Msg("[DRY RUN] Would update remote transaction")
		}
		stats.pushed++
		return nil
	}

	tx.RemoteUserID = user.RemoteID
	tx.RemotePeriodID = period.RemoteID

	var pushErr error
	if tx.RemoteID == "" {
		var docID string
		pushErr = e.remoteCall(runCtx, func(callCtx context.Context) error {
			var addErr error
			docID, addErr = e.remote.AddTransaction(callCtx, tx)
			return addErr
		})
		if pushErr == nil {
			tx.RemoteID = docID
		}
	} else {
		pushErr = e.remoteCall(runCtx, func(callCtx context.Context) error {
			return e.remote.UpdateTransaction(callCtx, tx.RemoteID, tx)
		})
	}

	if pushErr != nil {
		log.Warn().Err(pushErr).Uint("transaction_id", tx.ID).Msg("Failed to push transaction")
		tx.SyncStatus = domain.SyncFailed
		stats.failed++
	} else {
		tx.SyncStatus = domain.SyncSynced
		stats.pushed++
	}
	if err := e.local.SaveTransaction(ctx, tx); err != nil {
		return fmt.Errorf("recording transaction %d sync status: %w", tx.ID, err)
	}
	return nil
}
