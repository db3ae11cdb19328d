package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/voltride-support/internal/model"
)

// QueryRepo stores bot answers customers submitted for human review.
type QueryRepo struct {
	db *sql.DB
}

func NewQueryRepo(db *sql.DB) *QueryRepo { return &QueryRepo{db: db} }

const queryCols = "id, user_id, original_query, bot_response, status, created_at, updated_at"

// Create inserts q in the pending state.
func (r *QueryRepo) Create(ctx context.Context, q *model.SubmittedQuery) error {
	q.ID = uuid.NewString()
	q.Status = model.QueryPending
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO submitted_queries (id, user_id, original_query, bot_response, status) VALUES (?, ?, ?, ?, ?)",
		q.ID, q.UserID, q.OriginalQuery, q.BotResponse, q.Status)
	return err
}

// ListByUser returns the caller's submissions newest first.
func (r *QueryRepo) ListByUser(ctx context.Context, userID string) ([]model.SubmittedQuery, error) {
	return r.list(ctx, "SELECT "+queryCols+" FROM submitted_queries WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
}

// List returns all submissions newest first, optionally filtered by status.
func (r *QueryRepo) List(ctx context.Context, status string) ([]model.SubmittedQuery, error) {
	if status == "" {
		return r.list(ctx, "SELECT "+queryCols+" FROM submitted_queries ORDER BY created_at DESC, id DESC")
	}
	return r.list(ctx, "SELECT "+queryCols+" FROM submitted_queries WHERE status = ? ORDER BY created_at DESC, id DESC", status)
}

// UpdateStatus moves a submission to another review state.
func (r *QueryRepo) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE submitted_queries SET status = ?, updated_at = NOW() WHERE id = ?", status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *QueryRepo) list(ctx context.Context, q string, args ...any) ([]model.SubmittedQuery, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.SubmittedQuery{}
	for rows.Next() {
		var s model.SubmittedQuery
		if err := rows.Scan(&s.ID, &s.UserID, &s.OriginalQuery, &s.BotResponse, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
