package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/internal/infrastructure/queue"
	"github.com/fastygo/taskflow/pkg/logger"
	"github.com/fastygo/taskflow/pkg/metrics"
	"github.com/fastygo/taskflow/usecase"
)

// StaleMarker queues users for the reconciler without the use case knowing about BoltDB.
type StaleMarker struct {
	store   *queue.Store
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewStaleMarker(store *queue.Store, m *metrics.Metrics, logger *zap.Logger) *StaleMarker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaleMarker{store: store, metrics: m, logger: logger}
}

func (s *StaleMarker) MarkStale(ctx context.Context, userID string, cause error) error {
	if s.store == nil || userID == "" {
		return domain.ErrInvalidPayload
	}
	item := queue.Item{UserID: userID}
	if cause != nil {
		item.Reason = cause.Error()
	}
	if err := s.store.Enqueue(item); err != nil {
		return err
	}
	if size, err := s.store.Size(); err == nil {
		s.metrics.StaleQueueSize(size)
	}
	logger.WithRequestID(ctx, s.logger).Warn("stats queued for reconciliation", zap.String("user_id", userID))
	return nil
}

var _ usecase.StaleStatsMarker = (*StaleMarker)(nil)
