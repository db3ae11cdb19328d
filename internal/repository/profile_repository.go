package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/voltride-support/internal/model"
)

// ProfileRepo stores phone-verified customers and their app roles.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

const profileCols = "id, phone, username, created_at, updated_at"

// UpsertByPhone returns the profile for phone, creating it on first login
// with the phone number as username.
func (r *ProfileRepo) UpsertByPhone(ctx context.Context, phone string) (model.Profile, error) {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO profiles (id, phone, username) VALUES (?,?,?) ON DUPLICATE KEY UPDATE updated_at = updated_at",
		uuid.NewString(), phone, phone)
	if err != nil {
		return model.Profile{}, err
	}
	return r.scanOne(ctx, "SELECT "+profileCols+" FROM profiles WHERE phone=? LIMIT 1", phone)
}

// GetByID fetches a profile by id.
func (r *ProfileRepo) GetByID(ctx context.Context, id string) (model.Profile, error) {
	return r.scanOne(ctx, "SELECT "+profileCols+" FROM profiles WHERE id=? LIMIT 1", id)
}

// GetByPhone fetches a profile by normalized phone.
func (r *ProfileRepo) GetByPhone(ctx context.Context, phone string) (model.Profile, error) {
	return r.scanOne(ctx, "SELECT "+profileCols+" FROM profiles WHERE phone=? LIMIT 1", phone)
}

func (r *ProfileRepo) scanOne(ctx context.Context, q string, arg any) (model.Profile, error) {
	var (
		p        model.Profile
		username sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(&p.ID, &p.Phone, &username, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, ErrNotFound
	}
	if err != nil {
		return model.Profile{}, err
	}
	p.Username = strPtr(username)
	return p, nil
}

// RoleOf maps the user_roles row to a token role.  Users without a row are
// plain users.
func (r *ProfileRepo) RoleOf(ctx context.Context, userID string) (string, error) {
	var role string
	err := r.DB.QueryRowContext(ctx, "SELECT role FROM user_roles WHERE user_id=? LIMIT 1", userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RoleUser, nil
	}
	if err != nil {
		return "", err
	}
	if role == "admin" {
		return model.RoleAdmin, nil
	}
	return model.RoleUser, nil
}

// SetRole grants or revokes the admin app role for a profile.
func (r *ProfileRepo) SetRole(ctx context.Context, userID, role string) error {
	dbRole := "user"
	if role == model.RoleAdmin {
		dbRole = "admin"
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_roles (id, user_id, role) VALUES (?,?,?) ON DUPLICATE KEY UPDATE role = VALUES(role)",
		uuid.NewString(), userID, dbRole)
	return err
}
