package localstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/carteiraapp/carteira/internal/domain"
)

// PeriodRepository persists Period rows and the batch operations that keep
// the single-selected invariant.
type PeriodRepository struct {
	db     *gorm.DB
	notify notifier
}

// Create inserts a new period. Fails with a constraint violation when the
// owner user does not exist.
func (repo *PeriodRepository) Create(ctx context.Context, period *domain.Period) error {
	if period.SyncStatus == "" {
		period.SyncStatus = domain.SyncPending
	}
	if err := repo.db.WithContext(ctx).Create(period).Error; err != nil {
		return translate(err)
	}
	repo.notify.Notify(period.UserID)
	return nil
}

// Update writes all fields of an existing period.
func (repo *PeriodRepository) Update(ctx context.Context, period *domain.Period) error {
	result := repo.db.WithContext(ctx).Model(&domain.Period{}).
		Where("id = ?", period.ID).
		Select("*").Omit("id").
		Updates(period)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	repo.notify.Notify(period.UserID)
	return nil
}

// ByID fetches a period by local id.
func (repo *PeriodRepository) ByID(ctx context.Context, id uint) (*domain.Period, error) {
	period := domain.Period{}
	if err := repo.db.WithContext(ctx).First(&period, id).Error; err != nil {
		return nil, translate(err)
	}
	return &period, nil
}

// ByUser lists all periods owned by userID, oldest first.
func (repo *PeriodRepository) ByUser(ctx context.Context, userID uint) ([]domain.Period, error) {
	periods := make([]domain.Period, 0)
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_date ASC, id ASC").
		Find(&periods).Error
	if err != nil {
		return nil, translate(err)
	}
	return periods, nil
}

// Selected returns the user's selected period, or ErrNoActivePeriod.
func (repo *PeriodRepository) Selected(ctx context.Context, userID uint) (*domain.Period, error) {
	period := domain.Period{}
	result := repo.db.WithContext(ctx).
		Where("user_id = ? AND selected = ? AND pending_delete = ?", userID, true, false).
		Limit(1).
		Find(&period)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrNoActivePeriod
	}
	return &period, nil
}

// Pending lists periods that need a push: status PENDING or FAILED, or
// flagged for remote deletion.
func (repo *PeriodRepository) Pending(ctx context.Context, userID uint) ([]domain.Period, error) {
	periods := make([]domain.Period, 0)
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND (sync_status IN ? OR pending_delete = ?)",
			userID, []domain.SyncStatus{domain.SyncPending, domain.SyncFailed}, true).
		Order("id ASC").
		Find(&periods).Error
	if err != nil {
		return nil, translate(err)
	}
	return periods, nil
}

// ByRemoteID fetches the user's period carrying the given remote doc id.
// Returns ErrNotFound when no row matches.
func (repo *PeriodRepository) ByRemoteID(ctx context.Context, userID uint, remoteID string) (*domain.Period, error) {
	period := domain.Period{}
	result := repo.db.WithContext(ctx).
		Where("user_id = ? AND remote_id = ?", userID, remoteID).
		Limit(1).
		Find(&period)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return &period, nil
}

// SetSelected reasserts the single-selected invariant in one transaction:
// every period of the user gets selected = (id == periodID). Rows whose flag
// actually changes are marked PENDING so the change syncs.
func (repo *PeriodRepository) SetSelected(ctx context.Context, userID, periodID uint) error {
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target := tx.Model(&domain.Period{}).
			Where("user_id = ? AND id = ?", userID, periodID).
			Updates(map[string]any{"selected": true, "sync_status": domain.SyncPending})
		if target.Error != nil {
			return target.Error
		}
		if target.RowsAffected == 0 {
			return domain.ErrNotFound
		}

		others := tx.Model(&domain.Period{}).
			Where("user_id = ? AND id <> ? AND selected = ?", userID, periodID, true).
			Updates(map[string]any{"selected": false, "sync_status": domain.SyncPending})
		return others.Error
	})
	if err != nil {
		return translate(err)
	}
	repo.notify.Notify(userID)
	return nil
}

// HardDelete removes the period row and every owned transaction atomically.
// Used after the remote counterpart is confirmed gone, and for rows that
// never reached the remote at all.
func (repo *PeriodRepository) HardDelete(ctx context.Context, id uint) error {
	period, err := repo.ByID(ctx, id)
	if err != nil {
		return err
	}
	err = repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("period_id = ?", id).Delete(&domain.Transaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Period{}, id).Error
	})
	if err != nil {
		return translate(err)
	}
	repo.notify.Notify(period.UserID)
	return nil
}
