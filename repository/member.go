package repository

import (
	"context"

	"github.com/fastygo/taskflow/domain"
)

// MemberDirectory is a read-only lookup of people tasks can be shared with.
type MemberDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.Member, error)
	List(ctx context.Context) ([]domain.Member, error)
}
