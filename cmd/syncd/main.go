// Command syncd is the background reconciliation worker. It consumes sync
// jobs from the queue, runs the engine for each, and publishes a scheduled
// job per configured interval. Local data changes also trigger an early run
// through the store's observation hub.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/carteiraapp/carteira/internal/config"
	"github.com/carteiraapp/carteira/internal/domain"
	"github.com/carteiraapp/carteira/internal/jobs"
	"github.com/carteiraapp/carteira/internal/jobs/inmemory"
	"github.com/carteiraapp/carteira/internal/localstore"
	"github.com/carteiraapp/carteira/internal/logger"
	"github.com/carteiraapp/carteira/internal/remotestore"
	"github.com/carteiraapp/carteira/internal/syncengine"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(cfg.Log.Level)

	if cfg.Notion.Token == "" {
		log.Fatal().Msg("Notion token is not configured")
	}

	store, err := localstore.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open local store")
	}

	client := remotestore.NewClient(cfg.Notion.Token)
	engine := syncengine.New(
		syncengine.NewLocalAdapter(store),
		syncengine.NewRemoteAdapter(
			remotestore.NewUserStore(client, cfg.Notion.UsersDB),
			remotestore.NewPeriodStore(client, cfg.Notion.PeriodsDB),
			remotestore.NewTransactionStore(client, cfg.Notion.TransactionsDB),
		),
		syncengine.WithCallTimeout(cfg.CallTimeout()),
		syncengine.WithRunDeadline(cfg.RunDeadline()),
	)

	jobStore := inmemory.NewStore()
	queue := inmemory.NewQueue(100, 1, jobStore)

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	log.Info().
		Dur("interval", cfg.SyncInterval()).
		Msg("Starting sync worker")

	handler := func(ctx context.Context, job *jobs.SyncJob) error {
		log := logger.FromContext(ctx).With().
			Str("job_id", job.JobID).
			Str("trigger", string(job.Trigger)).
			Logger()
		ctx = logger.WithContext(ctx, log)

		err := engine.Sync(ctx, job.UserID)
		if errors.Is(err, domain.ErrSyncInFlight) {
			// Another run for this user is active; the next trigger covers
			// whatever this one would have pushed.
			log.Debug().Msg("Skipping job, run already in flight")
			return nil
		}
		return err
	}

	if err := queue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	go publishLoop(ctx, store, queue, cfg)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down sync worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := queue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Sync worker exited")
}

// publishLoop emits one scheduled job per interval and one mutation job
// whenever the store's observation hub signals a local data change. The hub
// coalesces bursts, and the engine's in-flight guard absorbs the overlap of
// the two triggers.
func publishLoop(ctx context.Context, store *localstore.Store, queue jobs.Publisher, cfg *config.Config) {
	log := logger.FromContext(ctx)

	user, err := store.Users().First(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("No account registered, publishing nothing")
		return
	}

	changes, unsubscribe := store.Observations().Subscribe(user.ID)
	defer unsubscribe()

	ticker := time.NewTicker(cfg.SyncInterval())
	defer ticker.Stop()

	publish := func(trigger jobs.Trigger) {
		job := &jobs.SyncJob{
			UserID:     user.ID,
			Trigger:    trigger,
			MaxRetries: cfg.Sync.MaxRetries,
		}
		if err := queue.PublishSync(ctx, job); err != nil {
			log.Warn().Err(err).Str("trigger", string(trigger)).Msg("Failed to publish sync job")
		}
	}

	// One run at startup to drain anything left from the previous session.
	publish(jobs.TriggerScheduled)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			publish(jobs.TriggerScheduled)
		case <-changes:
			publish(jobs.TriggerMutation)
		}
	}
}
