package repository

import (
	"context"

	"github.com/fastygo/taskflow/domain"
)

// StatsRepository holds one stats record per user.
type StatsRepository interface {
	Get(ctx context.Context, userID string) (*domain.UserStats, error)
	// Upsert creates the record if missing and overwrites it otherwise.
	Upsert(ctx context.Context, stats *domain.UserStats) error
}
