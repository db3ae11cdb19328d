package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/voltride-support/internal/model"
)

// FeedbackRepo stores end-of-chat satisfaction ratings.
type FeedbackRepo struct {
	db *sql.DB
}

func NewFeedbackRepo(db *sql.DB) *FeedbackRepo { return &FeedbackRepo{db: db} }

// Create inserts f.  Validation of the rating range happens in the handler;
// the table carries a CHECK constraint as well.
func (r *FeedbackRepo) Create(ctx context.Context, f *model.ChatFeedback) error {
	f.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO chat_feedback (id, user_id, session_id, satisfaction_rating, feedback_text) VALUES (?, ?, ?, ?, ?)",
		f.ID, f.UserID, f.SessionID, f.SatisfactionRating, nullable(f.FeedbackText))
	return err
}

// ListAll returns all feedback newest first.
func (r *FeedbackRepo) ListAll(ctx context.Context) ([]model.ChatFeedback, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, session_id, satisfaction_rating, feedback_text, created_at FROM chat_feedback ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ChatFeedback{}
	for rows.Next() {
		var (
			f    model.ChatFeedback
			text sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.UserID, &f.SessionID, &f.SatisfactionRating, &text, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.FeedbackText = strPtr(text)
		out = append(out, f)
	}
	return out, rows.Err()
}
