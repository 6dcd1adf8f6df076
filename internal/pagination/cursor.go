// Package pagination implements keyset cursors for (updated_at, id) ordered
// listings.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var ErrInvalidCursor = errors.New("invalid cursor format")

// Cursor is the position after which the next page starts.
type Cursor struct {
	LastID    string
	Timestamp time.Time
}

type PageResult[T any] struct {
	Items   []T    `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"hasMore"`
}

type cursorPayload struct {
	ID string    `json:"i"`
	TS time.Time `json:"t"`
}

func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// EncodeCursor returns an opaque URL-safe token, or "" for an empty id.
func EncodeCursor(lastID string, timestamp time.Time) string {
	if lastID == "" {
		return ""
	}
	raw, _ := json.Marshal(cursorPayload{ID: lastID, TS: timestamp.UTC()})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token from EncodeCursor. An empty token means the
// first page and yields a nil cursor.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var p cursorPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.ID == "" || p.TS.IsZero() {
		return nil, ErrInvalidCursor
	}
	return &Cursor{LastID: p.ID, Timestamp: p.TS}, nil
}
