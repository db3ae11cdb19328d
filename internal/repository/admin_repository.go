package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/voltride-support/internal/model"
)

// AdminRepo reads and creates console accounts.
type AdminRepo struct{ DB *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

// Create inserts an admin with an already hashed password and returns its id.
func (r *AdminRepo) Create(ctx context.Context, username, passwordHash string) (string, error) {
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO admin_accounts (id, username, password_hash) VALUES (?,?,?)",
		id, strings.TrimSpace(username), passwordHash)
	if err != nil {
		if isDuplicate(err) {
			return "", ErrDuplicate
		}
		return "", err
	}
	return id, nil
}

// GetActiveByUsername returns an active account.  Inactive and missing
// accounts both yield ErrNotFound so login cannot tell them apart.
func (r *AdminRepo) GetActiveByUsername(ctx context.Context, username string) (model.AdminAccount, error) {
	return r.scanOne(ctx,
		"SELECT id, username, password_hash, is_active, created_at FROM admin_accounts WHERE username=? AND is_active=1 LIMIT 1",
		strings.TrimSpace(username))
}

// GetActiveByID is used when refreshing an admin session.
func (r *AdminRepo) GetActiveByID(ctx context.Context, id string) (model.AdminAccount, error) {
	return r.scanOne(ctx,
		"SELECT id, username, password_hash, is_active, created_at FROM admin_accounts WHERE id=? AND is_active=1 LIMIT 1",
		id)
}

func (r *AdminRepo) scanOne(ctx context.Context, q string, arg any) (model.AdminAccount, error) {
	var a model.AdminAccount
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.IsActive, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AdminAccount{}, ErrNotFound
	}
	return a, err
}
