package syncengine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carteiraapp/carteira/internal/domain"
	"github.com/carteiraapp/carteira/internal/logger"
)

const (
	// DefaultCallTimeout bounds each individual remote call.
	DefaultCallTimeout = 10 * time.Second
	// DefaultRunDeadline bounds a whole reconciliation run. Records not
	// reached before the deadline keep their current sync status; running
	// out of time is not an error.
	DefaultRunDeadline = 2 * time.Minute
)

// Engine drives push and pull passes for one user's data. At most one run
// per user is in flight at any time.
type Engine struct {
	local  LocalStore
	remote RemoteStore

	callTimeout time.Duration
	runDeadline time.Duration
	dryRun      bool

	mu       sync.Mutex
	inFlight map[uint]struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithCallTimeout overrides the per-remote-call timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) { e.callTimeout = d }
}

// WithRunDeadline overrides the whole-run deadline.
func WithRunDeadline(d time.Duration) Option {
	return func(e *Engine) { e.runDeadline = d }
}

// WithDryRun makes Sync log intended remote writes without performing them.
func WithDryRun(dryRun bool) Option {
	return func(e *Engine) { e.dryRun = dryRun }
}

// New wires an Engine.
func New(local LocalStore, remote RemoteStore, opts ...Option) *Engine {
	e := &Engine{
		local:       local,
		remote:      remote,
		callTimeout: DefaultCallTimeout,
		runDeadline: DefaultRunDeadline,
		inFlight:    make(map[uint]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// runStats counts the observable effects of one run, for the summary log.
type runStats struct {
	pushed  int
	failed  int
	deleted int
	pulled  int
	skipped int
}

// Sync runs one full reconciliation for userID: resolve the remote identity,
// push local deletions and edits, then pull remote state back. Per-record
// remote failures flag the record FAILED and never abort the batch; identity
// resolution failure aborts the run. Returns ErrSyncInFlight when a run for
// the same user is already active.
func (e *Engine) Sync(ctx context.Context, userID uint) error {
	if !e.acquire(userID) {
		return fmt.Errorf("sync user %d: %w", userID, domain.ErrSyncInFlight)
	}
	defer e.release(userID)

	runID := uuid.NewString()
	log := logger.FromContext(ctx).With().
		Str("run_id", runID).
		Uint("user_id", userID).
		Bool("dry_run", e.dryRun).
		Logger()
	ctx = logger.WithContext(ctx, log)

	runCtx := ctx
	if e.runDeadline > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.runDeadline)
		defer cancel()
	}

	log.Info().Msg("Starting reconciliation run")

	user, err := e.resolveIdentity(ctx, runCtx, userID)
	if err != nil {
		return fmt.Errorf("sync user %d: identity resolution: %w", userID, err)
	}

	stats := &runStats{}
	if err := e.push(ctx, runCtx, user, stats); err != nil {
		return fmt.Errorf("sync user %d: push: %w", userID, err)
	}

	if !e.dryRun {
		if err := e.pull(ctx, runCtx, user, stats); err != nil {
			return fmt.Errorf("sync user %d: pull: %w", userID, err)
		}
	}

	log.Info().
		Int("pushed", stats.pushed).
		Int("failed", stats.failed).
		Int("deleted", stats.deleted).
		Int("pulled", stats.pulled).
		Int("skipped", stats.skipped).
		Msg("Reconciliation run completed")
	return nil
}

// acquire reserves the per-user run slot.
func (e *Engine) acquire(userID uint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[userID]; busy {
		return false
	}
	e.inFlight[userID] = struct{}{}
	return true
}

func (e *Engine) release(userID uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, userID)
}

// outOfTime reports whether the run deadline expired while the caller's own
// context is still live. That state ends the run early without an error.
func outOfTime(ctx, runCtx context.Context) bool {
	return runCtx.Err() != nil && ctx.Err() == nil
}

// remoteCall runs fn under the per-call timeout.
func (e *Engine) remoteCall(runCtx context.Context, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(runCtx, e.callTimeout)
	defer cancel()
	return fn(callCtx)
}

// resolveIdentity ensures the user has a remote document, learning or
// creating its id as needed. It never overwrites other local user fields.
// Any failure here is fatal: no later phase can proceed without an owner id.
func (e *Engine) resolveIdentity(ctx, runCtx context.Context, userID uint) (*domain.User, error) {
	log := logger.FromContext(ctx)

	user, err := e.local.User(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}

	if user.RemoteID == "" {
		var docID string
		err := e.remoteCall(runCtx, func(callCtx context.Context) error {
			var findErr error
			docID, findErr = e.remote.FindUserByEmail(callCtx, user.Email)
			return findErr
		})
		if err != nil {
			return nil, fmt.Errorf("looking up remote user: %w", err)
		}

		if docID == "" {
			if e.dryRun {
				log.Info().Msg("[DRY RUN] Would create remote user document")
				return user, nil
			}
			err := e.remoteCall(runCtx, func(callCtx context.Context) error {
				var addErr error
				docID, addErr = e.remote.AddUser(callCtx, user)
				return addErr
			})
			if err != nil {
				return nil, fmt.Errorf("creating remote user: %w", err)
			}
			log.Info().Str("doc_id", docID).Msg("Created remote user document")
		} else {
			log.Info().Str("doc_id", docID).Msg("Adopted existing remote user document")
		}

		user.RemoteID = docID
		if err := e.local.SaveUser(ctx, user); err != nil {
			return nil, fmt.Errorf("recording remote user id: %w", err)
		}
	}

	// Profile changes ride along with identity resolution; a failure here
	// only flags the user record, it does not abort the run.
	if user.SyncStatus.NeedsPush() && !e.dryRun {
		err := e.remoteCall(runCtx, func(callCtx context.Context) error {
			return e.remote.UpdateUser(callCtx, user.RemoteID, user)
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to push user profile")
			user.SyncStatus = domain.SyncFailed
		} else {
			user.SyncStatus = domain.SyncSynced
		}
		if err := e.local.SaveUser(ctx, user); err != nil {
			return nil, fmt.Errorf("recording user sync status: %w", err)
		}
	}

	return user, nil
}
