package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SyncStatus tracks how a local row relates to its remote document.
// It is the only coordination signal between local mutation and remote
// reconciliation; there is no distributed transaction.
type SyncStatus string

const (
	// SyncPending indicates the row changed locally and has not been
	// confirmed on the remote store yet.
	SyncPending SyncStatus = "PENDING"
	// SyncSynced indicates the remote document matches the local row.
	SyncSynced SyncStatus = "SYNCED"
	// SyncFailed indicates the last remote attempt errored; the row is
	// eligible for retry on the next reconciliation run.
	SyncFailed SyncStatus = "FAILED"
)

// NeedsPush reports whether a row with this status should be sent to the
// remote store on the next push pass.
func (s SyncStatus) NeedsPush() bool {
	return s == SyncPending || s == SyncFailed
}

// User is the local account record, mirrored 1:1 to a remote document.
type User struct {
	ID            uint   `gorm:"primaryKey"`
	Name          string `gorm:"not null"`
	Email         string `gorm:"uniqueIndex;not null"`
	Subscribed    bool
	SyncStatus    SyncStatus `gorm:"not null;default:PENDING"`
	PendingDelete bool
	// RemoteID is the opaque document id assigned by the remote store on
	// first creation. Empty until the record has been created remotely.
	RemoteID string `gorm:"index"`

	// Owned rows. The foreign keys make inserts with a nonexistent owner
	// fail at the database.
	Periods      []Period      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Transactions []Transaction `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Period is one budgeting cycle. An open period (EndDate nil) is the cycle
// currently receiving transactions; at most one period per user is selected.
type Period struct {
	ID            uint      `gorm:"primaryKey"`
	StartDate     time.Time `gorm:"not null"`
	EndDate       *time.Time
	Selected      bool
	TotalIncome   decimal.Decimal `gorm:"type:numeric;not null"`
	TotalExpenses decimal.Decimal `gorm:"type:numeric;not null"`
	UserID        uint            `gorm:"index;not null"`
	SyncStatus    SyncStatus      `gorm:"not null;default:PENDING"`
	PendingDelete bool
	RemoteID      string `gorm:"index"`

	Transactions []Transaction `gorm:"foreignKey:PeriodID;constraint:OnDelete:CASCADE"`
}

// Open reports whether the period has no end date yet.
func (p *Period) Open() bool { return p.EndDate == nil }

// Transaction is a single income or expense entry. The amount sign encodes
// direction: Income rows are non-negative, every other category non-positive.
type Transaction struct {
	ID          uint      `gorm:"primaryKey"`
	Date        time.Time `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:numeric;not null"`
	Description string
	Category    string `gorm:"not null"`
	UserID      uint   `gorm:"index;not null"`
	PeriodID    uint   `gorm:"index;not null"`
	// Imported marks transactions created from a parsed bank notification
	// rather than manual entry.
	Imported      bool
	Credit        bool
	SyncStatus    SyncStatus `gorm:"not null;default:PENDING"`
	PendingDelete bool
	RemoteID      string `gorm:"index"`
	// Remote foreign keys, learned during push. Local integer ids never
	// leave the device.
	RemoteUserID   string
	RemotePeriodID string
}
