package localstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/carteiraapp/carteira/internal/domain"
)

// UserRepository persists User rows.
type UserRepository struct {
	db     *gorm.DB
	notify notifier
}

// Create inserts a new user, assigning a fresh local id. A missing sync
// status defaults to PENDING.
func (repo *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.SyncStatus == "" {
		user.SyncStatus = domain.SyncPending
	}
	if err := repo.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(err)
	}
	repo.notify.Notify(user.ID)
	return nil
}

// Update writes all fields of an existing user.
func (repo *UserRepository) Update(ctx context.Context, user *domain.User) error {
	result := repo.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", user.ID).
		Select("*").Omit("id").
		Updates(user)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	repo.notify.Notify(user.ID)
	return nil
}

// ByID fetches a user by local id.
func (repo *UserRepository) ByID(ctx context.Context, id uint) (*domain.User, error) {
	user := domain.User{}
	if err := repo.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// ByEmail fetches a user by email.
func (repo *UserRepository) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	user := domain.User{}
	if err := repo.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// First returns the device owner: the single registered user, or
// ErrNoSession when nobody registered yet.
func (repo *UserRepository) First(ctx context.Context) (*domain.User, error) {
	user := domain.User{}
	result := repo.db.WithContext(ctx).Order("id ASC").Limit(1).Find(&user)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrNoSession
	}
	return &user, nil
}
