// Package repository persists bot-side state in PostgreSQL.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/finance-bot/internal/database"
	"gitlab.com/yelinaung/finance-bot/internal/session"
)

// SessionRepository stores chat session snapshots as JSONB.
type SessionRepository struct {
	db database.PGXDB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db database.PGXDB) *SessionRepository {
	return &SessionRepository{db: db}
}

var _ session.Persister = (*SessionRepository)(nil)

// Load returns the stored snapshot of a chat, or nil when none exists.
func (r *SessionRepository) Load(ctx context.Context, chatID int64) (*session.Snapshot, error) {
	var payload []byte
	err := r.db.QueryRow(ctx, `
		SELECT payload FROM chat_sessions WHERE chat_id = $1
	`, chatID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat session: %w", err)
	}

	var snap session.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode chat session: %w", err)
	}
	snap.ChatID = chatID
	return &snap, nil
}

// Save upserts the snapshot of a chat.
func (r *SessionRepository) Save(ctx context.Context, snap session.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode chat session: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO chat_sessions (chat_id, state, payload, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (chat_id) DO UPDATE SET
			state = EXCLUDED.state,
			payload = EXCLUDED.payload,
			updated_at = NOW()
	`, snap.ChatID, string(snap.State), payload)
	if err != nil {
		return fmt.Errorf("failed to save chat session: %w", err)
	}
	return nil
}

// DeleteStale removes snapshots not touched for longer than maxAge and
// returns how many were removed.
func (r *SessionRepository) DeleteStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM chat_sessions WHERE updated_at < NOW() - make_interval(secs => $1)
	`, maxAge.Seconds())
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale chat sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
