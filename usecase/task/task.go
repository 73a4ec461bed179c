package task

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/internal/insights"
	"github.com/fastygo/taskflow/internal/projection"
	"github.com/fastygo/taskflow/pkg/identity"
	"github.com/fastygo/taskflow/pkg/logger"
	"github.com/fastygo/taskflow/pkg/metrics"
	"github.com/fastygo/taskflow/repository"
	"github.com/fastygo/taskflow/usecase"
)

// Mutation names used for metrics and logs.
const (
	OpCreate          = "create"
	OpUpdate          = "update"
	OpToggle          = "toggle"
	OpAssign          = "assign"
	OpAddCollaborator = "add_collaborator"
	OpComment         = "comment"
	OpDelete          = "delete"
)

// Options carries the optional collaborators of a UseCase.
type Options struct {
	DefaultCategory string
	SortLocale      string
	Stale           usecase.StaleStatsMarker
	Metrics         *metrics.Metrics
	Now             func() time.Time
}

// UseCase is the task store: every successful mutation returns only after the
// caller's stats have been recomputed from the full task collection and upserted.
type UseCase struct {
	tasks           repository.TaskRepository
	stats           repository.StatsRepository
	stale           usecase.StaleStatsMarker
	metrics         *metrics.Metrics
	logger          *zap.Logger
	engine          projection.Engine
	defaultCategory string
	now             func() time.Time
}

func New(tasks repository.TaskRepository, stats repository.StatsRepository, logger *zap.Logger, opts Options) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultCategory == "" {
		opts.DefaultCategory = domain.CategoryPersonal
	}
	return &UseCase{
		tasks:           tasks,
		stats:           stats,
		stale:           opts.Stale,
		metrics:         opts.Metrics,
		logger:          logger,
		engine:          projection.NewEngine(opts.SortLocale),
		defaultCategory: opts.DefaultCategory,
		now:             opts.Now,
	}
}

func (uc *UseCase) ListTasks(ctx context.Context) ([]domain.Task, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := uc.tasks.ListByOwner(ctx, owner)
	if err != nil {
		return nil, domain.Unavailable("failed to list tasks", err)
	}
	return tasks, nil
}

// ProjectTasks lists the caller's tasks filtered and sorted for display.
func (uc *UseCase) ProjectTasks(ctx context.Context, key projection.SortKey, filter projection.Filter) ([]domain.Task, error) {
	tasks, err := uc.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	return uc.engine.Project(tasks, key, filter), nil
}

// Categories lists the distinct categories across the caller's tasks.
func (uc *UseCase) Categories(ctx context.Context) ([]string, error) {
	tasks, err := uc.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	return projection.Categories(tasks), nil
}

func (uc *UseCase) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	task, err := uc.tasks.GetByID(ctx, owner, id)
	if err != nil {
		return nil, domain.Unavailable("failed to load task", err)
	}
	return task, nil
}

// CreateTask validates input before anything is written. A blank title never reaches storage.
func (uc *UseCase) CreateTask(ctx context.Context, in domain.NewTaskInput) (*domain.Task, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	task, err := domain.NewTask(owner, in, uc.defaultCategory, uc.now())
	if err != nil {
		uc.metrics.Mutation(OpCreate, err)
		return nil, err
	}

	created, err := uc.tasks.Create(ctx, &task)
	if err != nil {
		err = domain.Unavailable("failed to create task", err)
		uc.metrics.Mutation(OpCreate, err)
		return nil, err
	}

	if err := uc.afterMutation(ctx, owner, OpCreate); err != nil {
		return nil, err
	}
	return created, nil
}

func (uc *UseCase) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	return uc.mutate(ctx, OpUpdate, id, func(current domain.Task) (domain.Task, error) {
		return domain.EditFields(current, patch, uc.now())
	})
}

func (uc *UseCase) ToggleComplete(ctx context.Context, id string) (*domain.Task, error) {
	return uc.mutate(ctx, OpToggle, id, func(current domain.Task) (domain.Task, error) {
		return domain.ToggleComplete(current, uc.now()), nil
	})
}

// AssignTask sets the assignee; an empty member id unassigns.
func (uc *UseCase) AssignTask(ctx context.Context, id, memberID string) (*domain.Task, error) {
	return uc.mutate(ctx, OpAssign, id, func(current domain.Task) (domain.Task, error) {
		return domain.Assign(current, memberID), nil
	})
}

func (uc *UseCase) AddCollaborator(ctx context.Context, id, memberID string) (*domain.Task, error) {
	return uc.mutate(ctx, OpAddCollaborator, id, func(current domain.Task) (domain.Task, error) {
		return domain.AddCollaborator(current, memberID)
	})
}

// AddComment appends a comment authored by the caller.
func (uc *UseCase) AddComment(ctx context.Context, id, text string) (*domain.Task, error) {
	return uc.mutate(ctx, OpComment, id, func(current domain.Task) (domain.Task, error) {
		return domain.AppendComment(current, text, current.UserID, uc.now())
	})
}

// DeleteTask removes a task. A missing or foreign id leaves the stats untouched.
func (uc *UseCase) DeleteTask(ctx context.Context, id string) error {
	owner, err := currentUser(ctx)
	if err != nil {
		return err
	}
	if err := uc.tasks.Delete(ctx, owner, id); err != nil {
		err = domain.Unavailable("failed to delete task", err)
		uc.metrics.Mutation(OpDelete, err)
		return err
	}
	return uc.afterMutation(ctx, owner, OpDelete)
}

// GetStats returns the cached stats record, building it on first access.
func (uc *UseCase) GetStats(ctx context.Context) (*domain.UserStats, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := uc.stats.Get(ctx, owner)
	if errors.Is(err, domain.ErrStatsNotFound) {
		return uc.RecomputeStats(ctx, owner)
	}
	if err != nil {
		return nil, domain.Unavailable("failed to load stats", err)
	}
	return stats, nil
}

// RefreshStats rebuilds the caller's stats on request.
func (uc *UseCase) RefreshStats(ctx context.Context) (*domain.UserStats, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return uc.RecomputeStats(ctx, owner)
}

// RecomputeStats rebuilds and upserts the stats of userID from its current tasks.
func (uc *UseCase) RecomputeStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	tasks, err := uc.tasks.ListByOwner(ctx, userID)
	if err != nil {
		err = domain.Unavailable("failed to list tasks for stats", err)
		uc.metrics.Recompute(err)
		return nil, err
	}

	stats := insights.Recompute(userID, tasks)
	if err := uc.stats.Upsert(ctx, &stats); err != nil {
		err = domain.Unavailable("failed to store stats", err)
		uc.metrics.Recompute(err)
		return nil, err
	}
	uc.metrics.Recompute(nil)
	return &stats, nil
}

// Insights reports stats and per-priority tallies, predicting for the most recent task.
func (uc *UseCase) Insights(ctx context.Context) (insights.Report, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return insights.Report{}, err
	}
	tasks, err := uc.tasks.ListByOwner(ctx, owner)
	if err != nil {
		return insights.Report{}, domain.Unavailable("failed to list tasks", err)
	}
	var candidate *domain.Task
	if len(tasks) > 0 {
		latest := tasks[0]
		candidate = &latest
	}
	return insights.BuildReport(owner, tasks, candidate), nil
}

// Predict estimates hours for a prospective task with the given priority, category and estimate.
func (uc *UseCase) Predict(ctx context.Context, priority domain.Priority, category string, estimate *float64) (float64, error) {
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return 0, domain.ErrInvalidPriority
	}
	if category == "" {
		category = uc.defaultCategory
	}
	tasks, err := uc.ListTasks(ctx)
	if err != nil {
		return 0, err
	}
	return insights.Predict(tasks, domain.Task{
		Priority:      priority,
		Category:      category,
		EstimatedTime: estimate,
	}), nil
}

func (uc *UseCase) mutate(ctx context.Context, op, id string, apply func(domain.Task) (domain.Task, error)) (*domain.Task, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	current, err := uc.tasks.GetByID(ctx, owner, id)
	if err != nil {
		err = domain.Unavailable("failed to load task", err)
		uc.metrics.Mutation(op, err)
		return nil, err
	}

	next, err := apply(*current)
	if err != nil {
		uc.metrics.Mutation(op, err)
		return nil, err
	}
	next.ID = current.ID
	next.UserID = owner

	if err := uc.tasks.Update(ctx, &next); err != nil {
		err = domain.Unavailable("failed to update task", err)
		uc.metrics.Mutation(op, err)
		return nil, err
	}

	if err := uc.afterMutation(ctx, owner, op); err != nil {
		return nil, err
	}
	return &next, nil
}

// afterMutation recomputes stats for a committed write. When that fails the
// write stands, the user is queued for reconciliation, and the caller sees the error.
func (uc *UseCase) afterMutation(ctx context.Context, owner, op string) error {
	_, err := uc.RecomputeStats(ctx, owner)
	uc.metrics.Mutation(op, err)
	if err == nil {
		return nil
	}

	log := logger.WithRequestID(ctx, uc.logger)
	log.Error("stats recompute failed after task write",
		zap.String("operation", op),
		zap.String("user_id", owner),
		zap.Error(err))

	if uc.stale != nil {
		if markErr := uc.stale.MarkStale(ctx, owner, err); markErr != nil {
			log.Error("failed to queue stale stats", zap.String("user_id", owner), zap.Error(markErr))
		}
	}
	return err
}

func currentUser(ctx context.Context) (string, error) {
	owner, ok := identity.UserID(ctx)
	if !ok {
		return "", domain.ErrNotAuthenticated
	}
	return owner, nil
}
