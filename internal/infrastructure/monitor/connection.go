package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/internal/infrastructure/queue"
	"github.com/fastygo/taskflow/pkg/metrics"
)

// Deps lists the dependencies to watch. Nil entries are disabled.
type Deps struct {
	Storage  string
	Postgres *pgxpool.Pool
	Redis    *redislib.Client
	Queue    *queue.Store
	Metrics  *metrics.Metrics
}

type Monitor struct {
	deps Deps

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(deps Deps, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		deps:     deps,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
	m.refresh()
	return m
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Online()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Refresh runs all checks immediately.
func (m *Monitor) Refresh() Status {
	m.refresh()
	return m.GetStatus()
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.refresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) refresh() {
	queueCheck, queueSize := m.checkQueue()
	status := Status{
		Storage:    m.deps.Storage,
		PostgreSQL: m.checkPostgres(),
		Redis:      m.checkRedis(),
		Queue:      queueCheck,
		QueueSize:  queueSize,
		LastCheck:  time.Now(),
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if !previous.LastCheck.IsZero() && previous.Online() != status.Online() {
		m.logger.Warn("dependency status changed", zap.Bool("online", status.Online()), zap.Any("status", status))
	}
	if queueCheck.Enabled {
		m.deps.Metrics.StaleQueueSize(queueSize)
	}
}

func (m *Monitor) checkPostgres() Check {
	if m.deps.Postgres == nil {
		return Check{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return Check{Enabled: true, Healthy: m.deps.Postgres.Ping(ctx) == nil}
}

func (m *Monitor) checkRedis() Check {
	if m.deps.Redis == nil {
		return Check{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return Check{Enabled: true, Healthy: m.deps.Redis.Ping(ctx).Err() == nil}
}

func (m *Monitor) checkQueue() (Check, int) {
	if m.deps.Queue == nil {
		return Check{}, 0
	}
	size, err := m.deps.Queue.Size()
	if err != nil {
		m.logger.Warn("stale queue size check failed", zap.Error(err))
		return Check{Enabled: true}, 0
	}
	return Check{Enabled: true, Healthy: true}, size
}
