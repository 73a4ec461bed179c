package repository

import (
	"context"
	"time"

	"github.com/fastygo/taskflow/domain"
)

// SessionRepository stores logins. Get returns domain.ErrSessionNotFound for
// unknown or expired ids.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	Extend(ctx context.Context, id string, ttl time.Duration) error
}
