// Package memory provides process-local repositories for development runs and tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

type storedTask struct {
	task domain.Task
	seq  int
}

// TaskRepository keeps tasks in a map keyed by id.
type TaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]storedTask
	seq   int
	now   func() time.Time
}

var _ repository.TaskRepository = (*TaskRepository)(nil)

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{tasks: make(map[string]storedTask), now: time.Now}
}

func (r *TaskRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.tasks[id]
	if !ok || stored.task.UserID != ownerID {
		return nil, domain.ErrTaskNotFound
	}
	task := stored.task.Clone()
	return &task, nil
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var owned []storedTask
	for _, stored := range r.tasks {
		if stored.task.UserID == ownerID {
			owned = append(owned, stored)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		a, b := owned[i], owned[j]
		if !a.task.CreatedAt.Equal(b.task.CreatedAt) {
			return a.task.CreatedAt.After(b.task.CreatedAt)
		}
		return a.seq > b.seq
	})

	tasks := make([]domain.Task, 0, len(owned))
	for _, stored := range owned {
		tasks = append(tasks, stored.task.Clone())
	}
	return tasks, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.UserID == "" {
		return nil, domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if _, exists := r.tasks[task.ID]; exists {
		return nil, domain.NewError(domain.ErrCodeConflict, "task already exists")
	}
	now := r.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	r.seq++
	r.tasks[task.ID] = storedTask{task: task.Clone(), seq: r.seq}
	return task, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tasks[task.ID]
	if !ok || stored.task.UserID != task.UserID {
		return domain.ErrTaskNotFound
	}
	task.CreatedAt = stored.task.CreatedAt
	task.UpdatedAt = r.now()
	stored.task = task.Clone()
	r.tasks[task.ID] = stored
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tasks[id]
	if !ok || stored.task.UserID != ownerID {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

// StatsRepository keeps one stats record per user.
type StatsRepository struct {
	mu    sync.RWMutex
	stats map[string]domain.UserStats
	now   func() time.Time
}

var _ repository.StatsRepository = (*StatsRepository)(nil)

func NewStatsRepository() *StatsRepository {
	return &StatsRepository{stats: make(map[string]domain.UserStats), now: time.Now}
}

func (r *StatsRepository) Get(ctx context.Context, userID string) (*domain.UserStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats, ok := r.stats[userID]
	if !ok {
		return nil, domain.ErrStatsNotFound
	}
	return &stats, nil
}

func (r *StatsRepository) Upsert(ctx context.Context, stats *domain.UserStats) error {
	if stats == nil || stats.UserID == "" {
		return domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stats.UpdatedAt = r.now()
	r.stats[stats.UserID] = *stats
	return nil
}

// Len reports how many users have a stats record.
func (r *StatsRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stats)
}

// UserRepository is a map of users by id.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

var _ repository.UserRepository = (*UserRepository)(nil)

func NewUserRepository(users ...domain.User) *UserRepository {
	r := &UserRepository{users: make(map[string]domain.User, len(users))}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (r *UserRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if existing, ok := r.users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
	} else if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

// MemberDirectory is a fixed member list.
type MemberDirectory struct {
	members []domain.Member
}

var _ repository.MemberDirectory = (*MemberDirectory)(nil)

func NewMemberDirectory(members ...domain.Member) *MemberDirectory {
	return &MemberDirectory{members: slices.Clone(members)}
}

func (d *MemberDirectory) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	for _, m := range d.members {
		if m.ID == id {
			member := m
			return &member, nil
		}
	}
	return nil, domain.ErrMemberNotFound
}

func (d *MemberDirectory) List(ctx context.Context) ([]domain.Member, error) {
	return slices.Clone(d.members), nil
}

// SessionRepository keeps sessions in process for the memory driver.
type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	ttl      time.Duration
	now      func() time.Time
}

var _ repository.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepository{sessions: make(map[string]domain.Session), ttl: ttl, now: time.Now}
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if session.IsExpired(r.now()) {
		delete(r.sessions, id)
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" || session.UserID == "" {
		return domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if session.CreatedAt.IsZero() {
		session.CreatedAt = r.now()
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}
	r.sessions[session.ID] = *session
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *SessionRepository) Extend(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.ttl
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok || session.IsExpired(r.now()) {
		return domain.ErrSessionNotFound
	}
	session.ExpiresAt = r.now().Add(ttl)
	r.sessions[id] = session
	return nil
}
