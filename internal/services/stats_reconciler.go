package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/internal/infrastructure/queue"
	"github.com/fastygo/taskflow/pkg/metrics"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// StatsRecomputer rebuilds one user's stats from the task collection.
type StatsRecomputer interface {
	RecomputeStats(ctx context.Context, userID string) (*domain.UserStats, error)
}

// ReconcilerConfig controls how frequently the stale queue is drained.
type ReconcilerConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	// Retention bounds how long an entry may wait before it is discarded.
	Retention time.Duration
}

// StatsReconciler repairs stats left stale by a failed recompute.
type StatsReconciler struct {
	store   *queue.Store
	monitor ConnectionHealth
	stats   StatsRecomputer
	metrics *metrics.Metrics
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ReconcilerConfig
}

func NewStatsReconciler(
	store *queue.Store,
	monitor ConnectionHealth,
	stats StatsRecomputer,
	m *metrics.Metrics,
	logger *zap.Logger,
	cfg ReconcilerConfig,
) *StatsReconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &StatsReconciler{
		store:   store,
		monitor: monitor,
		stats:   stats,
		metrics: m,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := r.Drain(ctx); err != nil {
			r.logger.Error("stale stats drain failed", zap.Error(err))
		}
	})
	_, _ = r.cron.AddFunc("@hourly", func() {
		if err := r.store.Cleanup(time.Now().Add(-r.cfg.Retention)); err != nil {
			r.logger.Warn("stale stats cleanup failed", zap.Error(err))
		}
	})

	return r
}

// Start launches the cron scheduler.
func (r *StatsReconciler) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("stats reconciler started", zap.Duration("interval", r.cfg.Interval))
}

// Stop waits for running jobs or until ctx is done.
func (r *StatsReconciler) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("stats reconciler stopped")
}

// Drain recomputes stats for one batch of queued users.
func (r *StatsReconciler) Drain(ctx context.Context) error {
	if r == nil || r.store == nil {
		return nil
	}
	if r.monitor != nil && !r.monitor.IsOnline() {
		r.logger.Debug("skipping stale stats drain (offline)")
		return nil
	}

	items, err := r.store.GetBatch(r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if _, err := r.stats.RecomputeStats(ctx, item.UserID); err != nil {
			r.logger.Error("reconciling stats failed",
				zap.String("user_id", item.UserID),
				zap.Int("retries", item.Retries),
				zap.Error(err))

			if item.Retries+1 >= r.cfg.MaxRetries {
				// Any later mutation by the user recomputes from scratch anyway.
				r.logger.Warn("dropping stale stats entry (max retries reached)", zap.String("user_id", item.UserID))
				_ = r.store.Remove(item.UserID)
				continue
			}
			if err := r.store.Requeue(item); err != nil {
				r.logger.Error("failed to requeue stale stats entry", zap.Error(err))
			}
			continue
		}

		if err := r.store.Remove(item.UserID); err != nil {
			r.logger.Warn("failed to remove reconciled entry", zap.Error(err))
		}
	}

	r.metrics.StaleQueueSize(r.Size())
	return nil
}

// Size returns the number of queued users.
func (r *StatsReconciler) Size() int {
	if r == nil || r.store == nil {
		return 0
	}
	size, err := r.store.Size()
	if err != nil {
		return 0
	}
	return size
}
