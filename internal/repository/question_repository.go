package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/voltride-support/internal/model"
)

// QuestionRepo manages admin-maintained FAQ entries in domain_questions.
type QuestionRepo struct {
	db *sql.DB
}

// NewQuestionRepo returns a QuestionRepo bound to db.
func NewQuestionRepo(db *sql.DB) *QuestionRepo { return &QuestionRepo{db: db} }

const questionCols = "id, question, answer, category, keywords, is_active, created_by, created_at, updated_at"

func scanQuestion(rs rowScanner) (model.DomainQuestion, error) {
	var (
		q  model.DomainQuestion
		kw []byte
	)
	if err := rs.Scan(&q.ID, &q.Question, &q.Answer, &q.Category, &kw, &q.IsActive, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return model.DomainQuestion{}, err
	}
	q.Keywords = decodeKeywords(kw)
	return q, nil
}

func (r *QuestionRepo) list(ctx context.Context, query string, args ...any) ([]model.DomainQuestion, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.DomainQuestion{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// ListAllActive returns every active question, newest first.  The chat
// matcher consumes this list.
func (r *QuestionRepo) ListAllActive(ctx context.Context) ([]model.DomainQuestion, error) {
	return r.list(ctx, "SELECT "+questionCols+" FROM domain_questions WHERE is_active = 1 ORDER BY created_at DESC, id DESC")
}

// ListActivePage returns one page of active questions together with the
// total number of active questions.
func (r *QuestionRepo) ListActivePage(ctx context.Context, limit, offset int) ([]model.DomainQuestion, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM domain_questions WHERE is_active = 1").Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.list(ctx,
		"SELECT "+questionCols+" FROM domain_questions WHERE is_active = 1 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetActiveByID returns an active question.
func (r *QuestionRepo) GetActiveByID(ctx context.Context, id string) (model.DomainQuestion, error) {
	q, err := scanQuestion(r.db.QueryRowContext(ctx,
		"SELECT "+questionCols+" FROM domain_questions WHERE id = ? AND is_active = 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.DomainQuestion{}, ErrNotFound
	}
	return q, err
}

// Create inserts a new active question.  A blank category becomes General.
func (r *QuestionRepo) Create(ctx context.Context, q *model.DomainQuestion) error {
	q.ID = uuid.NewString()
	q.Category = strings.TrimSpace(q.Category)
	if q.Category == "" {
		q.Category = model.DefaultCategory
	}
	if q.Keywords == nil {
		q.Keywords = []string{}
	}
	kw, err := encodeKeywords(q.Keywords)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO domain_questions (id, question, answer, category, keywords, created_by) VALUES (?, ?, ?, ?, ?, ?)",
		q.ID, q.Question, q.Answer, q.Category, kw, q.CreatedBy)
	if err != nil {
		return err
	}
	stored, err := r.GetActiveByID(ctx, q.ID)
	if err != nil {
		return err
	}
	*q = stored
	return nil
}

// Update rewrites the editable fields of an active question and bumps
// updated_at.
func (r *QuestionRepo) Update(ctx context.Context, q *model.DomainQuestion) error {
	q.Category = strings.TrimSpace(q.Category)
	if q.Category == "" {
		q.Category = model.DefaultCategory
	}
	if q.Keywords == nil {
		q.Keywords = []string{}
	}
	kw, err := encodeKeywords(q.Keywords)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE domain_questions SET question = ?, answer = ?, category = ?, keywords = ?, updated_at = NOW() WHERE id = ? AND is_active = 1",
		q.Question, q.Answer, q.Category, kw, q.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	stored, err := r.GetActiveByID(ctx, q.ID)
	if err != nil {
		return err
	}
	*q = stored
	return nil
}

// SoftDelete hides a question from the matcher and the console listing.
func (r *QuestionRepo) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE domain_questions SET is_active = 0, updated_at = NOW() WHERE id = ? AND is_active = 1", id)
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
