package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/internal/projection"
	"github.com/fastygo/taskflow/pkg/identity"
	"github.com/fastygo/taskflow/repository"
	"github.com/fastygo/taskflow/repository/memory"
)

var errBackend = errors.New("connection reset by peer")

type flakyStats struct {
	repository.StatsRepository
	failUpsert bool
}

func (f *flakyStats) Upsert(ctx context.Context, stats *domain.UserStats) error {
	if f.failUpsert {
		return errBackend
	}
	return f.StatsRepository.Upsert(ctx, stats)
}

type flakyTasks struct {
	repository.TaskRepository
	failWrites bool
}

func (f *flakyTasks) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if f.failWrites {
		return nil, errBackend
	}
	return f.TaskRepository.Create(ctx, task)
}

func (f *flakyTasks) Update(ctx context.Context, task *domain.Task) error {
	if f.failWrites {
		return errBackend
	}
	return f.TaskRepository.Update(ctx, task)
}

type staleRecorder struct {
	users []string
}

func (s *staleRecorder) MarkStale(ctx context.Context, userID string, cause error) error {
	s.users = append(s.users, userID)
	return nil
}

type fixture struct {
	uc    *UseCase
	tasks *flakyTasks
	stats *flakyStats
	stale *staleRecorder
	ctx   context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tasks := &flakyTasks{TaskRepository: memory.NewTaskRepository()}
	stats := &flakyStats{StatsRepository: memory.NewStatsRepository()}
	stale := &staleRecorder{}
	clock := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	uc := New(tasks, stats, nil, Options{
		DefaultCategory: "Work",
		Stale:           stale,
		Now:             func() time.Time { return clock },
	})
	return &fixture{
		uc:    uc,
		tasks: tasks,
		stats: stats,
		stale: stale,
		ctx:   identity.WithUserID(context.Background(), "alice"),
	}
}

func (f *fixture) create(t *testing.T, in domain.NewTaskInput) *domain.Task {
	t.Helper()
	created, err := f.uc.CreateTask(f.ctx, in)
	if err != nil {
		t.Fatalf("create %q: %v", in.Title, err)
	}
	return created
}

func (f *fixture) storedStats(t *testing.T) domain.UserStats {
	t.Helper()
	stats, err := f.stats.Get(context.Background(), "alice")
	if err != nil {
		t.Fatalf("load stats: %v", err)
	}
	return *stats
}

func hours(v float64) *float64 { return &v }

func TestCreateTask_RecomputesStats(t *testing.T) {
	f := newFixture(t)

	created := f.create(t, domain.NewTaskInput{Title: "Plan sprint", Priority: domain.PriorityHigh})
	if created.ID == "" || created.UserID != "alice" || created.Category != "Work" {
		t.Fatalf("unexpected created task: %+v", created)
	}
	if created.Completed || created.CompletedAt != nil {
		t.Errorf("new task should be incomplete: %+v", created)
	}

	stats := f.storedStats(t)
	if stats.TotalTasks != 1 || stats.CompletedTasks != 0 || stats.CompletionRate != 0 {
		t.Errorf("unexpected stats after create: %+v", stats)
	}
}

func TestCreateTask_BlankTitleLeavesCollectionUnchanged(t *testing.T) {
	f := newFixture(t)
	f.create(t, domain.NewTaskInput{Title: "keep"})
	before := f.storedStats(t)

	_, err := f.uc.CreateTask(f.ctx, domain.NewTaskInput{Title: "   "})
	if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected validation error, got %v", err)
	}

	tasks, err := f.uc.ListTasks(f.ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("expected collection unchanged, got %d tasks", len(tasks))
	}
	if after := f.storedStats(t); !after.SameAggregate(before) {
		t.Errorf("stats changed on rejected create: %+v -> %+v", before, after)
	}
}

func TestOperationsRequireIdentity(t *testing.T) {
	f := newFixture(t)
	anon := context.Background()

	if _, err := f.uc.CreateTask(anon, domain.NewTaskInput{Title: "x"}); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("create: expected not authenticated, got %v", err)
	}
	if _, err := f.uc.ListTasks(anon); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("list: expected not authenticated, got %v", err)
	}
	if err := f.uc.DeleteTask(anon, "x"); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("delete: expected not authenticated, got %v", err)
	}
	if _, err := f.uc.GetStats(anon); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("stats: expected not authenticated, got %v", err)
	}
}

func TestCompletionLifecycle(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, domain.NewTaskInput{Title: "Write tests"})

	done, err := f.uc.ToggleComplete(f.ctx, created.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !done.Completed || done.CompletedAt == nil {
		t.Fatalf("expected completed task with timestamp: %+v", done)
	}
	if stats := f.storedStats(t); stats.CompletedTasks != 1 || stats.CompletionRate != 100 {
		t.Errorf("unexpected stats after complete: %+v", stats)
	}

	reopened, err := f.uc.UpdateTask(f.ctx, created.ID, domain.TaskPatch{Completed: ptr(false)})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Completed || reopened.CompletedAt != nil {
		t.Fatalf("expected reopened task without timestamp: %+v", reopened)
	}
	if stats := f.storedStats(t); stats.CompletedTasks != 0 {
		t.Errorf("unexpected stats after reopen: %+v", stats)
	}

	stored, err := f.uc.GetTask(f.ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.ID != created.ID || stored.Completed != (stored.CompletedAt != nil) {
		t.Errorf("stored task breaks completion invariant: %+v", stored)
	}
}

func TestUpdateTask_ForeignTaskIsNotFound(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, domain.NewTaskInput{Title: "private"})

	bob := identity.WithUserID(context.Background(), "bob")
	_, err := f.uc.UpdateTask(bob, created.ID, domain.TaskPatch{Title: ptr("hijacked")})
	if !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := f.uc.DeleteTask(bob, created.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, domain.NewTaskInput{Title: "temporary"})
	f.create(t, domain.NewTaskInput{Title: "stays"})

	before := f.storedStats(t)
	if err := f.uc.DeleteTask(f.ctx, "does-not-exist"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if after := f.storedStats(t); !after.SameAggregate(before) {
		t.Errorf("stats changed on failed delete: %+v -> %+v", before, after)
	}

	if err := f.uc.DeleteTask(f.ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if stats := f.storedStats(t); stats.TotalTasks != 1 {
		t.Errorf("expected 1 task in stats, got %+v", stats)
	}
}

func TestCollaboration(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, domain.NewTaskInput{Title: "shared"})

	if _, err := f.uc.AssignTask(f.ctx, created.ID, "m1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := f.uc.AddCollaborator(f.ctx, created.ID, "m2"); err != nil {
			t.Fatalf("add collaborator: %v", err)
		}
	}
	withComment, err := f.uc.AddComment(f.ctx, created.ID, "on it")
	if err != nil {
		t.Fatalf("comment: %v", err)
	}

	c := withComment.Collaboration
	if c == nil || c.AssignedTo != "m1" {
		t.Fatalf("expected assignment to m1, got %+v", c)
	}
	if len(c.Collaborators) != 1 || c.Collaborators[0] != "m2" {
		t.Errorf("expected single collaborator m2, got %v", c.Collaborators)
	}
	if len(c.Comments) != 1 || c.Comments[0].Author != "alice" {
		t.Errorf("unexpected comments: %+v", c.Comments)
	}

	if _, err := f.uc.AddComment(f.ctx, created.ID, " "); !errors.Is(err, domain.ErrEmptyComment) {
		t.Errorf("expected empty comment error, got %v", err)
	}
}

func TestBackendFailureLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, domain.NewTaskInput{Title: "stable"})

	f.tasks.failWrites = true
	_, err := f.uc.UpdateTask(f.ctx, created.ID, domain.TaskPatch{Title: ptr("changed")})
	if !domain.IsDomainError(err, domain.ErrCodeUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	f.tasks.failWrites = false

	stored, err := f.uc.GetTask(f.ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Title != "stable" {
		t.Errorf("expected unchanged title, got %q", stored.Title)
	}
	if len(f.stale.users) != 0 {
		t.Errorf("nothing was written, no stale mark expected: %v", f.stale.users)
	}
}

func TestRecomputeFailureQueuesReconcile(t *testing.T) {
	f := newFixture(t)
	f.stats.failUpsert = true

	_, err := f.uc.CreateTask(f.ctx, domain.NewTaskInput{Title: "written"})
	if !domain.IsDomainError(err, domain.ErrCodeUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if len(f.stale.users) != 1 || f.stale.users[0] != "alice" {
		t.Fatalf("expected alice queued for reconcile, got %v", f.stale.users)
	}

	f.stats.failUpsert = false
	stats, err := f.uc.RefreshStats(f.ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if stats.TotalTasks != 1 {
		t.Errorf("expected refreshed stats to include the written task, got %+v", stats)
	}
}

func TestRecomputeStatsIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.create(t, domain.NewTaskInput{Title: "a"})
	done := f.create(t, domain.NewTaskInput{Title: "b"})
	if _, err := f.uc.UpdateTask(f.ctx, done.ID, domain.TaskPatch{Completed: ptr(true), ActualTime: hours(3)}); err != nil {
		t.Fatalf("update: %v", err)
	}

	first, err := f.uc.RecomputeStats(context.Background(), "alice")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	second, err := f.uc.RecomputeStats(context.Background(), "alice")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if !first.SameAggregate(*second) {
		t.Errorf("expected identical stats, got %+v and %+v", first, second)
	}
	if first.CompletionRate != 50 || first.AvgCompletionTime != 3 {
		t.Errorf("unexpected stats: %+v", first)
	}
}

func TestGetStats_BuildsMissingRecord(t *testing.T) {
	f := newFixture(t)
	stats, err := f.uc.GetStats(f.ctx)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.UserID != "alice" || stats.TotalTasks != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestProjectAndInsights(t *testing.T) {
	f := newFixture(t)
	for _, in := range []domain.NewTaskInput{
		{Title: "low", Priority: domain.PriorityLow},
		{Title: "high1", Priority: domain.PriorityHigh, Category: "Work"},
		{Title: "medium", Priority: domain.PriorityMedium, Category: "Home"},
		{Title: "high2", Priority: domain.PriorityHigh, Category: "Work"},
	} {
		created := f.create(t, in)
		if in.Priority == domain.PriorityHigh {
			actual := 2.0
			if in.Title == "high2" {
				actual = 4
			}
			if _, err := f.uc.UpdateTask(f.ctx, created.ID, domain.TaskPatch{Completed: ptr(true), ActualTime: &actual}); err != nil {
				t.Fatalf("complete %s: %v", in.Title, err)
			}
		}
	}

	open, err := f.uc.ProjectTasks(f.ctx, projection.SortPriority, projection.FilterTodo)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(open) != 2 || open[0].Title != "medium" || open[1].Title != "low" {
		t.Errorf("unexpected open projection: %+v", open)
	}

	predicted, err := f.uc.Predict(f.ctx, domain.PriorityHigh, "Work", nil)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if predicted != 3 {
		t.Errorf("expected prediction 3, got %v", predicted)
	}

	report, err := f.uc.Insights(f.ctx)
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	if report.Priorities[domain.PriorityHigh].Completed != 2 {
		t.Errorf("unexpected breakdown: %+v", report.Priorities)
	}
	if report.PredictedHours == nil {
		t.Error("expected a prediction for the most recent task")
	}

	categories, err := f.uc.Categories(f.ctx)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(categories) != 2 {
		t.Errorf("expected Work and Home, got %v", categories)
	}
}

func ptr[T any](v T) *T { return &v }
