// Package guarded wraps repositories in circuit breakers so a failing backend
// is reported as unavailable immediately instead of timing out request after request.
package guarded

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

// Settings tunes the breakers.
type Settings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// NewBreaker builds a breaker that trips after FailureThreshold consecutive backend failures.
// Domain errors (not found, invalid input) are answers from a healthy backend and never count.
func NewBreaker(name string, s Settings, logger *zap.Logger) *gobreaker.CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.Timeout <= 0 {
		s.Timeout = 10 * time.Second
	}
	threshold := s.FailureThreshold

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var dErr *domain.Error
			return errors.As(err, &dErr)
		},
	})
}

func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	result, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, domain.WrapError(domain.ErrBackendUnavailable.Code, domain.ErrBackendUnavailable.Message, err)
		}
		return zero, err
	}
	return result.(T), nil
}

func run(cb *gobreaker.CircuitBreaker, fn func() error) error {
	_, err := execute(cb, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

type taskRepository struct {
	next repository.TaskRepository
	cb   *gobreaker.CircuitBreaker
}

// Tasks guards a task repository.
func Tasks(next repository.TaskRepository, cb *gobreaker.CircuitBreaker) repository.TaskRepository {
	return &taskRepository{next: next, cb: cb}
}

func (r *taskRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Task, error) {
	return execute(r.cb, func() (*domain.Task, error) {
		return r.next.GetByID(ctx, ownerID, id)
	})
}

func (r *taskRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	return execute(r.cb, func() ([]domain.Task, error) {
		return r.next.ListByOwner(ctx, ownerID)
	})
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	return execute(r.cb, func() (*domain.Task, error) {
		return r.next.Create(ctx, task)
	})
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	return run(r.cb, func() error {
		return r.next.Update(ctx, task)
	})
}

func (r *taskRepository) Delete(ctx context.Context, ownerID, id string) error {
	return run(r.cb, func() error {
		return r.next.Delete(ctx, ownerID, id)
	})
}

type statsRepository struct {
	next repository.StatsRepository
	cb   *gobreaker.CircuitBreaker
}

// Stats guards a stats repository.
func Stats(next repository.StatsRepository, cb *gobreaker.CircuitBreaker) repository.StatsRepository {
	return &statsRepository{next: next, cb: cb}
}

func (r *statsRepository) Get(ctx context.Context, userID string) (*domain.UserStats, error) {
	return execute(r.cb, func() (*domain.UserStats, error) {
		return r.next.Get(ctx, userID)
	})
}

func (r *statsRepository) Upsert(ctx context.Context, stats *domain.UserStats) error {
	return run(r.cb, func() error {
		return r.next.Upsert(ctx, stats)
	})
}
