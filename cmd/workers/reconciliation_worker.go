package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"eco-voyage/travel-app/footprint-backend/internal/config"
	"eco-voyage/travel-app/footprint-backend/internal/factors"
	"eco-voyage/travel-app/footprint-backend/internal/footprint"
	"eco-voyage/travel-app/footprint-backend/internal/rewards"
)

// ReconciliationWorker owns the two background duties of the footprint
// core: the daily leaderboard rebuild from authoritative balances, and
// re-driving outbox entries left by failed aggregate/reward updates.
// It shares no state with the request path beyond the stores themselves.
type ReconciliationWorker struct {
	footprints *footprint.Service
	rewards    *rewards.Service
	cfg        config.WorkerConfig
	logger     *zap.Logger
	done       chan struct{}
}

// NewReconciliationWorker creates a new reconciliation worker.
func NewReconciliationWorker(
	footprints *footprint.Service,
	rewardsService *rewards.Service,
	cfg config.WorkerConfig,
	logger *zap.Logger,
) *ReconciliationWorker {
	return &ReconciliationWorker{
		footprints: footprints,
		rewards:    rewardsService,
		cfg:        cfg,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start runs the worker until the context is cancelled or Stop is called.
func (w *ReconciliationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting reconciliation worker",
		zap.String("reconcile_schedule", w.cfg.ReconcileSchedule),
		zap.Duration("outbox_interval", w.cfg.OutboxInterval),
		zap.Int("outbox_batch_size", w.cfg.OutboxBatchSize))

	scheduler := cron.New()
	_, err := scheduler.AddFunc(w.cfg.ReconcileSchedule, func() {
		w.reconcileLeaderboard(ctx)
	})
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		<-scheduler.Stop().Done()
	}()

	ticker := time.NewTicker(w.cfg.OutboxInterval)
	defer ticker.Stop()

	// Drain anything left over from a previous run immediately.
	w.drainOutbox(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Reconciliation worker shutting down")
			return nil
		case <-w.done:
			w.logger.Info("Reconciliation worker stopped")
			return nil
		case <-ticker.C:
			w.drainOutbox(ctx)
		}
	}
}

// Stop stops the worker.
func (w *ReconciliationWorker) Stop() {
	close(w.done)
}

func (w *ReconciliationWorker) reconcileLeaderboard(ctx context.Context) {
	startTime := time.Now()

	if err := w.rewards.Reconcile(ctx); err != nil {
		w.logger.Error("Leaderboard reconciliation failed", zap.Error(err))
		return
	}

	w.logger.Info("Leaderboard reconciliation completed",
		zap.Duration("duration", time.Since(startTime)))
}

func (w *ReconciliationWorker) drainOutbox(ctx context.Context) {
	retried, err := w.footprints.RetryPending(ctx, w.cfg.OutboxBatchSize)
	if err != nil {
		w.logger.Error("Outbox drain failed", zap.Error(err))
		return
	}

	if retried > 0 {
		w.logger.Info("Outbox entries re-driven", zap.Int("count", retried))
	}
}

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	rewardsRepo := rewards.NewPostgresRepository(db)
	projection := rewards.NewRedisProjection(redisClient)
	rewardsService := rewards.NewService(rewardsRepo, projection, logger)

	// The worker only re-drives already-priced outbox entries, so it
	// never needs a live factor table.
	footprintRepo := footprint.NewPostgresRepository(db)
	footprintService := footprint.NewService(footprintRepo, &factors.StaticSource{}, rewardsService, logger)

	worker := NewReconciliationWorker(footprintService, rewardsService, cfg.Worker, logger)

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	if err := worker.Start(ctx); err != nil {
		logger.Error("Worker error", zap.Error(err))
	}

	logger.Info("Reconciliation worker stopped")
}
