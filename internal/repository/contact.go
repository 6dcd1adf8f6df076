package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noscite/noscite-assistant/internal/domain"
)

type ContactRepository struct {
	db dbtx
}

func NewContactRepository(pool *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{db: pool}
}

func (r *ContactRepository) Create(ctx context.Context, c *domain.ContactSubmission) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO contact_submissions (id, name, email, phone, company, message, ip, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Name, c.Email, nullableString(c.Phone), nullableString(c.Company), c.Message, nullableString(c.IP), c.CreatedAt,
	)
	return err
}
