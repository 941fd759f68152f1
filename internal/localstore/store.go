// Package localstore is the durable on-device store for users, periods and
// transactions, backed by SQLite through GORM. Foreign keys are enforced and
// period deletion cascades to owned transactions.
package localstore

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/carteiraapp/carteira/internal/domain"
)

// Store bundles the database handle with the observation hub. Repositories
// are cheap views over the same handle.
type Store struct {
	db     *gorm.DB
	hub    *Hub
	notify notifier
}

// Open opens (creating if needed) the SQLite database at path and migrates
// the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", path)
	return open(dsn)
}

// OpenInMemory opens a fresh shared in-memory database, used by tests.
func OpenInMemory() (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	return open(dsn)
}

func open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("localstore: open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.User{}, &domain.Period{}, &domain.Transaction{}); err != nil {
		return nil, fmt.Errorf("localstore: migrate schema: %w", err)
	}

	hub := NewHub()
	return &Store{db: db, hub: hub, notify: hub}, nil
}

// Observations exposes the hub for UI-layer subscriptions.
func (s *Store) Observations() *Hub { return s.hub }

// Users returns the user repository view.
func (s *Store) Users() *UserRepository {
	return &UserRepository{db: s.db, notify: s.notify}
}

// Periods returns the period repository view.
func (s *Store) Periods() *PeriodRepository {
	return &PeriodRepository{db: s.db, notify: s.notify}
}

// Transactions returns the transaction repository view.
func (s *Store) Transactions() *TransactionRepository {
	return &TransactionRepository{db: s.db, notify: s.notify}
}

// WithTx runs fn inside one database transaction. The Store handed to fn is
// bound to that transaction; observers fire only after commit.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	pending := &pendingNotifier{target: s.notify}
	err := s.db.WithContext(ctx).Transaction(func(txdb *gorm.DB) error {
		return fn(&Store{db: txdb, hub: s.hub, notify: pending})
	})
	if err != nil {
		return err
	}
	pending.flush()
	return nil
}
