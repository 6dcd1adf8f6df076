package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noscite/noscite-assistant/internal/domain"
)

type ConversationRepository struct {
	db dbtx
}

func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: pool}
}

// AppendMessages appends msgs to the session's history in one statement,
// creating the conversation on first use. Concurrent appends to the same
// session never overwrite each other.
func (r *ConversationRepository) AppendMessages(ctx context.Context, sessionID string, msgs []domain.Message, now time.Time) error {
	if len(msgs) == 0 {
		return nil
	}

	payload, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO conversations (session_id, messages, created_at, updated_at)
		 VALUES ($1, $2::jsonb, $3, $3)
		 ON CONFLICT (session_id) DO UPDATE SET
		   messages = conversations.messages || EXCLUDED.messages,
		   updated_at = EXCLUDED.updated_at`,
		sessionID, string(payload), now,
	)
	return err
}

func (r *ConversationRepository) GetMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	var raw []byte
	err := r.db.QueryRow(ctx,
		`SELECT messages FROM conversations WHERE session_id = $1`,
		sessionID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}

	var msgs []domain.Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return msgs, nil
}

// DeleteInactiveSince removes conversations not updated since cutoff.
func (r *ConversationRepository) DeleteInactiveSince(ctx context.Context, cutoff time.Time) (int64, error) {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM conversations WHERE updated_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}
