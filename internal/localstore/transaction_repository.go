package localstore

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/carteiraapp/carteira/internal/domain"
)

// TransactionRepository persists Transaction rows.
type TransactionRepository struct {
	db     *gorm.DB
	notify notifier
}

// Create inserts a new transaction. The foreign keys to the owner user and
// period are enforced by the database; violations surface as constraint
// errors.
func (repo *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	if tx.SyncStatus == "" {
		tx.SyncStatus = domain.SyncPending
	}
	if err := repo.db.WithContext(ctx).Create(tx).Error; err != nil {
		return translate(err)
	}
	repo.notify.Notify(tx.UserID)
	return nil
}

// Update writes all fields of an existing transaction.
func (repo *TransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	result := repo.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("id = ?", tx.ID).
		Select("*").Omit("id").
		Updates(tx)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	repo.notify.Notify(tx.UserID)
	return nil
}

// Delete removes the transaction row.
func (repo *TransactionRepository) Delete(ctx context.Context, id uint) error {
	tx, err := repo.ByID(ctx, id)
	if err != nil {
		return err
	}
	if err := repo.db.WithContext(ctx).Delete(&domain.Transaction{}, id).Error; err != nil {
		return translate(err)
	}
	repo.notify.Notify(tx.UserID)
	return nil
}

// ByID fetches a transaction by local id.
func (repo *TransactionRepository) ByID(ctx context.Context, id uint) (*domain.Transaction, error) {
	tx := domain.Transaction{}
	if err := repo.db.WithContext(ctx).First(&tx, id).Error; err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

// ByUser lists all transactions owned by userID, newest first.
func (repo *TransactionRepository) ByUser(ctx context.Context, userID uint) ([]domain.Transaction, error) {
	txs := make([]domain.Transaction, 0)
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND pending_delete = ?", userID, false).
		Order("date DESC, id DESC").
		Find(&txs).Error
	if err != nil {
		return nil, translate(err)
	}
	return txs, nil
}

// ByPeriod lists the live transactions of one period.
func (repo *TransactionRepository) ByPeriod(ctx context.Context, periodID uint) ([]domain.Transaction, error) {
	txs := make([]domain.Transaction, 0)
	err := repo.db.WithContext(ctx).
		Where("period_id = ? AND pending_delete = ?", periodID, false).
		Order("date DESC, id DESC").
		Find(&txs).Error
	if err != nil {
		return nil, translate(err)
	}
	return txs, nil
}

// Pending lists transactions that need a push: status PENDING or FAILED, or
// flagged for remote deletion.
func (repo *TransactionRepository) Pending(ctx context.Context, userID uint) ([]domain.Transaction, error) {
	txs := make([]domain.Transaction, 0)
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND (sync_status IN ? OR pending_delete = ?)",
			userID, []domain.SyncStatus{domain.SyncPending, domain.SyncFailed}, true).
		Order("id ASC").
		Find(&txs).Error
	if err != nil {
		return nil, translate(err)
	}
	return txs, nil
}

// ByRemoteID fetches the user's transaction carrying the given remote doc id.
func (repo *TransactionRepository) ByRemoteID(ctx context.Context, userID uint, remoteID string) (*domain.Transaction, error) {
	tx := domain.Transaction{}
	result := repo.db.WithContext(ctx).
		Where("user_id = ? AND remote_id = ?", userID, remoteID).
		Limit(1).
		Find(&tx)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return &tx, nil
}

// CountTombstonedByPeriod reports how many of the period's transactions are
// still flagged for remote deletion.
func (repo *TransactionRepository) CountTombstonedByPeriod(ctx context.Context, periodID uint) (int, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("period_id = ? AND pending_delete = ?", periodID, true).
		Count(&count).Error
	if err != nil {
		return 0, translate(err)
	}
	return int(count), nil
}

// SumsByPeriod recomputes the derived totals of one period from its live
// transactions. Income is the sum of positive amounts, expenses the absolute
// sum of negative ones.
func (repo *TransactionRepository) SumsByPeriod(ctx context.Context, periodID uint) (income, expenses decimal.Decimal, err error) {
	txs, err := repo.ByPeriod(ctx, periodID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	income, expenses = decimal.Zero, decimal.Zero
	for _, tx := range txs {
		if tx.Amount.IsNegative() {
			expenses = expenses.Add(tx.Amount.Neg())
		} else {
			income = income.Add(tx.Amount)
		}
	}
	return income, expenses, nil
}
