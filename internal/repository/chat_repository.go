package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/voltride-support/internal/model"
)

// ChatRepo stores chat messages.  Sessions are not a table of their own;
// they are derived from the session_id column.
type ChatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo { return &ChatRepo{db: db} }

// InsertPair stores a user message and the bot reply atomically.  Both
// messages get ids assigned; the bot reply is stamped one millisecond after
// the user message so ordering by created_at is stable.
func (r *ChatRepo) InsertPair(ctx context.Context, user, bot *model.ChatMessage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, m := range []*model.ChatMessage{user, bot} {
		m.ID = uuid.NewString()
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO chat_messages (id, session_id, user_id, type, content, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			m.ID, m.SessionID, m.UserID, m.Type, m.Content, m.CreatedAt.UTC()); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// SessionOwner returns the user a session belongs to, or ErrNotFound when
// no message carries the id yet.
func (r *ChatRepo) SessionOwner(ctx context.Context, sessionID string) (string, error) {
	var owner string
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id FROM chat_messages WHERE session_id = ? ORDER BY created_at ASC, id ASC LIMIT 1",
		sessionID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return owner, err
}

const chatCols = "id, session_id, user_id, type, content, created_at"

func (r *ChatRepo) list(ctx context.Context, q string, args ...any) ([]model.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ChatMessage{}
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.UserID, &m.Type, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListUserMessages returns the user-authored messages of one user in
// chronological order.  Session summaries are built from these.
func (r *ChatRepo) ListUserMessages(ctx context.Context, userID string) ([]model.ChatMessage, error) {
	return r.list(ctx,
		"SELECT "+chatCols+" FROM chat_messages WHERE user_id = ? AND type = 'user' ORDER BY created_at ASC, id ASC",
		userID)
}

// ListAllUserMessages is the console variant of ListUserMessages.
func (r *ChatRepo) ListAllUserMessages(ctx context.Context) ([]model.ChatMessage, error) {
	return r.list(ctx,
		"SELECT "+chatCols+" FROM chat_messages WHERE type = 'user' ORDER BY created_at ASC, id ASC")
}

// ListSession returns every message of a session in chronological order.
// When userID is non-empty only that user's session is visible.
func (r *ChatRepo) ListSession(ctx context.Context, sessionID, userID string) ([]model.ChatMessage, error) {
	if userID == "" {
		return r.list(ctx,
			"SELECT "+chatCols+" FROM chat_messages WHERE session_id = ? ORDER BY created_at ASC, id ASC",
			sessionID)
	}
	return r.list(ctx,
		"SELECT "+chatCols+" FROM chat_messages WHERE session_id = ? AND user_id = ? ORDER BY created_at ASC, id ASC",
		sessionID, userID)
}
