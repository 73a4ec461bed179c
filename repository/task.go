package repository

import (
	"context"

	"github.com/fastygo/taskflow/domain"
)

// TaskRepository is the persistent task collection. Every lookup is scoped to
// the owning user; a task owned by someone else reports domain.ErrTaskNotFound.
type TaskRepository interface {
	GetByID(ctx context.Context, ownerID, id string) (*domain.Task, error)
	// ListByOwner returns the owner's tasks, most recently created first.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error)
	// Create assigns the id when empty and fills the timestamps.
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	// Update replaces the stored task identified by task.UserID and task.ID.
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, ownerID, id string) error
}
