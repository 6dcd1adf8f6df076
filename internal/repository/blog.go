package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noscite/noscite-assistant/internal/domain"
)

type BlogRepository struct {
	db dbtx
}

func NewBlogRepository(pool *pgxpool.Pool) *BlogRepository {
	return &BlogRepository{db: pool}
}

func (r *BlogRepository) Save(ctx context.Context, p *domain.BlogPost) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO blog_posts (id, slug, title, excerpt, content, published, published_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   slug = EXCLUDED.slug,
		   title = EXCLUDED.title,
		   excerpt = EXCLUDED.excerpt,
		   content = EXCLUDED.content,
		   published = EXCLUDED.published,
		   published_at = EXCLUDED.published_at,
		   updated_at = EXCLUDED.updated_at`,
		p.ID, p.Slug, p.Title, p.Excerpt, p.Content, p.Published, p.PublishedAt, p.UpdatedAt,
	)
	return err
}

// ListPublished returns published posts, newest first.
func (r *BlogRepository) ListPublished(ctx context.Context) ([]*domain.BlogPost, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, slug, title, excerpt, content, published, published_at, updated_at
		 FROM blog_posts
		 WHERE published
		 ORDER BY published_at DESC NULLS LAST, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*domain.BlogPost
	for rows.Next() {
		var p domain.BlogPost
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Excerpt, &p.Content, &p.Published, &p.PublishedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, &p)
	}
	return posts, rows.Err()
}
