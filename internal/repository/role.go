package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noscite/noscite-assistant/internal/domain"
)

type RoleRepository struct {
	db dbtx
}

func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{db: pool}
}

func (r *RoleRepository) HasRole(ctx context.Context, userID string, role domain.Role) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`,
		userID, role,
	).Scan(&exists)
	return exists, err
}

func (r *RoleRepository) Grant(ctx context.Context, userID string, role domain.Role) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, role,
	)
	return err
}

// Revoke reports whether a grant was removed.
func (r *RoleRepository) Revoke(ctx context.Context, userID string, role domain.Role) (bool, error) {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role = $2`,
		userID, role,
	)
	if err != nil {
		return false, err
	}
	return cmdTag.RowsAffected() > 0, nil
}
