package model

import "time"

// Role names carried in the JWT "role" claim.  Phone users are USER unless
// the user_roles table grants them admin; admin accounts are always ADMIN.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Profile is a phone-verified customer, one row per phone number in the
// `profiles` table.  Username defaults to the phone number on first login.
type Profile struct {
	ID        string    `json:"id"`         // profiles.id (uuid)
	Phone     string    `json:"phone"`      // profiles.phone, E.164 with leading +
	Username  *string   `json:"username"`   // profiles.username (nullable)
	CreatedAt time.Time `json:"created_at"` // profiles.created_at
	UpdatedAt time.Time `json:"updated_at"` // profiles.updated_at
}

// AdminAccount is a row in `admin_accounts`.  Admins sign in with a
// username and bcrypt-hashed password instead of an OTP.
type AdminAccount struct {
	ID           string    // admin_accounts.id
	Username     string    // admin_accounts.username
	PasswordHash string    // admin_accounts.password_hash
	IsActive     bool      // admin_accounts.is_active
	CreatedAt    time.Time // admin_accounts.created_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  SubjectID is
// either a profile id or an admin account id; Role tells which.  Only the
// SHA-256 hash of the token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	SubjectID string     // refresh_tokens.subject_id
	Role      string     // refresh_tokens.role
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
