package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a local row addressed by id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrRemoteNotFound is returned when a remote document id does not exist.
	ErrRemoteNotFound = errors.New("remote document not found")
	// ErrConstraint is returned on local foreign-key or uniqueness violations.
	ErrConstraint = errors.New("constraint violation")
	// ErrForbiddenDeletion is returned when deleting a selected period.
	ErrForbiddenDeletion = errors.New("cannot delete the selected period")
	// ErrNoActivePeriod is returned when an operation needs a selected period
	// and the user has none.
	ErrNoActivePeriod = errors.New("no active period")
	// ErrNoSession is returned when an operation requires a registered user
	// and none exists.
	ErrNoSession = errors.New("no registered user")
	// ErrSyncInFlight is returned when a reconciliation run is requested for
	// a user who already has one running.
	ErrSyncInFlight = errors.New("sync already in flight for user")
)

// RemoteError wraps a transient remote store failure (network, backend).
// The reconciliation engine converts it to a FAILED sync status on the
// affected record instead of aborting the batch.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a transient remote failure that should
// flag the record FAILED rather than propagate.
func IsTransient(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
