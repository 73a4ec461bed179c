package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

type memberDirectory struct {
	pool *pgxpool.Pool
}

// NewMemberDirectory returns a read-only member lookup over the members table.
func NewMemberDirectory(pool *pgxpool.Pool) repository.MemberDirectory {
	return &memberDirectory{pool: pool}
}

func (r *memberDirectory) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	const query = `SELECT id, name, email, avatar_url FROM members WHERE id = $1`

	var m domain.Member
	if err := r.pool.QueryRow(ctx, query, id).Scan(&m.ID, &m.Name, &m.Email, &m.AvatarURL); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *memberDirectory) List(ctx context.Context) ([]domain.Member, error) {
	const query = `SELECT id, name, email, avatar_url FROM members ORDER BY name, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.AvatarURL); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
