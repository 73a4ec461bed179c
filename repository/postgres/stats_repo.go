package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

type statsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository returns a Postgres-backed StatsRepository keyed by user id.
func NewStatsRepository(pool *pgxpool.Pool) repository.StatsRepository {
	return &statsRepository{pool: pool}
}

func (r *statsRepository) Get(ctx context.Context, userID string) (*domain.UserStats, error) {
	const query = `
	SELECT user_id, total_tasks, completed_tasks, completion_rate, avg_completion_time, updated_at
	FROM user_stats
	WHERE user_id = $1
	`
	var stats domain.UserStats
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&stats.UserID,
		&stats.TotalTasks,
		&stats.CompletedTasks,
		&stats.CompletionRate,
		&stats.AvgCompletionTime,
		&stats.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStatsNotFound
		}
		return nil, err
	}
	return &stats, nil
}

func (r *statsRepository) Upsert(ctx context.Context, stats *domain.UserStats) error {
	if stats == nil || stats.UserID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO user_stats (user_id, total_tasks, completed_tasks, completion_rate, avg_completion_time, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	ON CONFLICT (user_id) DO UPDATE
	SET total_tasks = EXCLUDED.total_tasks,
		completed_tasks = EXCLUDED.completed_tasks,
		completion_rate = EXCLUDED.completion_rate,
		avg_completion_time = EXCLUDED.avg_completion_time,
		updated_at = NOW()
	RETURNING updated_at
	`

	return r.pool.QueryRow(ctx, query,
		stats.UserID,
		stats.TotalTasks,
		stats.CompletedTasks,
		stats.CompletionRate,
		stats.AvgCompletionTime,
	).Scan(&stats.UpdatedAt)
}
