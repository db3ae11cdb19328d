package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/voltride-support/internal/config"
	"github.com/iliyamo/voltride-support/internal/model"
	"github.com/iliyamo/voltride-support/internal/otp"
	"github.com/iliyamo/voltride-support/internal/repository"
	"github.com/iliyamo/voltride-support/internal/utils"
)

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	db, mock := newMock(t)
	cfg := config.Config{JWTSecret: "secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4}
	codes := otp.NewService(otp.NewMemoryStore(), nil, 5*time.Minute, 3, nil,
		otp.WithGenerator(func() (string, error) { return "123456", nil }))
	h := NewAuthHandler(cfg, codes, repository.NewProfileRepo(db), repository.NewAdminRepo(db), repository.NewTokenRepo(db), nil)
	return h, mock
}

func TestOTPLogin(t *testing.T) {
	h, mock := newAuthHandler(t)

	c, rec := request(http.MethodPost, "/v1/auth/otp/send", `{"phone":"4155550100"}`, "", "")
	require.NoError(t, h.SendOTP(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "+4155550100", decode(t, rec)["phone"])

	c, rec = request(http.MethodPost, "/v1/auth/otp/verify", `{"phone":"+4155550100","code":"654321"}`, "", "")
	require.NoError(t, h.VerifyOTP(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	mock.ExpectExec("INSERT INTO profiles").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM profiles WHERE phone=").WithArgs("+4155550100").
		WillReturnRows(sqlmock.NewRows([]string{"id", "phone", "username", "created_at", "updated_at"}).
			AddRow("p-1", "+4155550100", "+4155550100", ts, ts))
	mock.ExpectQuery("SELECT role FROM user_roles").WithArgs("p-1").WillReturnRows(sqlmock.NewRows([]string{"role"}))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs("p-1", model.RoleUser, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	c, rec = request(http.MethodPost, "/v1/auth/otp/verify", `{"phone":"+4155550100","code":"123456"}`, "", "")
	require.NoError(t, h.VerifyOTP(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	user := body["user"].(map[string]any)
	assert.Equal(t, "p-1", user["id"])
	assert.Equal(t, model.RoleUser, user["role"])
	access := body["access"].(map[string]any)["token"].(string)
	claims, err := utils.ParseAccessToken("secret", access)
	require.NoError(t, err)
	assert.Equal(t, "p-1", claims.Subject)

	// the code is single use
	c, rec = request(http.MethodPost, "/v1/auth/otp/verify", `{"phone":"+4155550100","code":"123456"}`, "", "")
	require.NoError(t, h.VerifyOTP(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOTPValidation(t *testing.T) {
	h, _ := newAuthHandler(t)

	c, rec := request(http.MethodPost, "/v1/auth/otp/send", `{"phone":"12345"}`, "", "")
	require.NoError(t, h.SendOTP(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = request(http.MethodPost, "/v1/auth/otp/verify", `{"phone":"+4155550100","code":"12ab"}`, "", "")
	require.NoError(t, h.VerifyOTP(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOTPTooManyAttempts(t *testing.T) {
	h, _ := newAuthHandler(t)
	c, _ := request(http.MethodPost, "/v1/auth/otp/send", `{"phone":"+4155550100"}`, "", "")
	require.NoError(t, h.SendOTP(c))

	codes := []int{}
	for i := 0; i < 3; i++ {
		c, rec := request(http.MethodPost, "/v1/auth/otp/verify", `{"phone":"+4155550100","code":"000000"}`, "", "")
		require.NoError(t, h.VerifyOTP(c))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}

func TestAdminLogin(t *testing.T) {
	h, mock := newAuthHandler(t)
	hash, err := utils.HashPassword("s3cret!", 4)
	require.NoError(t, err)
	cols := []string{"id", "username", "password_hash", "is_active", "created_at"}

	mock.ExpectQuery("FROM admin_accounts WHERE username=").WithArgs("ghost").WillReturnRows(sqlmock.NewRows(cols))
	c, rec := request(http.MethodPost, "/v1/auth/admin/login", `{"username":"ghost","password":"x"}`, "", "")
	require.NoError(t, h.AdminLogin(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	unknownBody := rec.Body.String()

	mock.ExpectQuery("FROM admin_accounts WHERE username=").WithArgs("ops").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("a-1", "ops", hash, true, ts))
	c, rec = request(http.MethodPost, "/v1/auth/admin/login", `{"username":"ops","password":"wrong"}`, "", "")
	require.NoError(t, h.AdminLogin(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, unknownBody, rec.Body.String())

	mock.ExpectQuery("FROM admin_accounts WHERE username=").WithArgs("ops").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("a-1", "ops", hash, true, ts))
	mock.ExpectExec("INSERT INTO refresh_tokens").WithArgs("a-1", model.RoleAdmin, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	c, rec = request(http.MethodPost, "/v1/auth/admin/login", `{"username":"ops","password":"s3cret!"}`, "", "")
	require.NoError(t, h.AdminLogin(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.RoleAdmin, decode(t, rec)["user"].(map[string]any)["role"])
}

func TestRefreshRotatesToken(t *testing.T) {
	h, mock := newAuthHandler(t)
	raw := "raw-refresh"
	hash := utils.HashRefreshRaw(raw)

	mock.ExpectQuery("FROM refresh_tokens WHERE token_hash=").WithArgs(hash).
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "role", "expires_at", "revoked_at"}).
			AddRow("p-1", model.RoleUser, time.Now().UTC().Add(time.Hour), nil))
	mock.ExpectQuery("FROM profiles WHERE id=").WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "phone", "username", "created_at", "updated_at"}).
			AddRow("p-1", "+4155550100", nil, ts, ts))
	mock.ExpectQuery("SELECT role FROM user_roles").WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at=NOW\\(\\) WHERE token_hash=").WithArgs(hash).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").WithArgs("p-1", model.RoleAdmin, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))

	c, rec := request(http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"raw-refresh"}`, "", "")
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.NotEqual(t, raw, body["refresh"].(map[string]any)["token"])
	assert.Equal(t, model.RoleAdmin, body["user"].(map[string]any)["role"])
}

func TestLogoutNeedsTokenOrBearer(t *testing.T) {
	h, _ := newAuthHandler(t)
	c, rec := request(http.MethodPost, "/v1/auth/logout", `{}`, "", "")
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshAccessKeepsRefreshToken(t *testing.T) {
	h, mock := newAuthHandler(t)
	hash := utils.HashRefreshRaw("raw-refresh")

	mock.ExpectQuery("FROM refresh_tokens WHERE token_hash=").WithArgs(hash).
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "role", "expires_at", "revoked_at"}).
			AddRow("p-1", model.RoleUser, time.Now().UTC().Add(time.Hour), nil))
	mock.ExpectQuery("FROM profiles WHERE id=").WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "phone", "username", "created_at", "updated_at"}).
			AddRow("p-1", "+4155550100", nil, ts, ts))
	mock.ExpectQuery("SELECT role FROM user_roles").WithArgs("p-1").WillReturnRows(sqlmock.NewRows([]string{"role"}))

	c, rec := request(http.MethodPost, "/v1/auth/refresh-access", `{"refresh_token":"raw-refresh"}`, "", "")
	require.NoError(t, h.RefreshAccess(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.NotContains(t, body, "refresh")
	claims, err := utils.ParseAccessToken("secret", body["access"].(map[string]any)["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "p-1", claims.Subject)
	assert.Equal(t, model.RoleUser, claims.Role)
}

func TestRefreshAccessRejectsUnknownToken(t *testing.T) {
	h, mock := newAuthHandler(t)
	mock.ExpectQuery("FROM refresh_tokens WHERE token_hash=").
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "role", "expires_at", "revoked_at"}))

	c, rec := request(http.MethodPost, "/v1/auth/refresh-access", `{"refresh_token":"stale"}`, "", "")
	require.NoError(t, h.RefreshAccess(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe(t *testing.T) {
	t.Run("phone user", func(t *testing.T) {
		h, mock := newAuthHandler(t)
		mock.ExpectQuery("FROM profiles WHERE id=").WithArgs("p-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "phone", "username", "created_at", "updated_at"}).
				AddRow("p-1", "+4155550100", "rider", ts, ts))

		c, rec := request(http.MethodGet, "/v1/me", "", "p-1", model.RoleUser)
		require.NoError(t, h.Me(c))
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "+4155550100", body["phone"])
		assert.Equal(t, "rider", body["username"])
		assert.Equal(t, model.RoleUser, body["role"])
	})

	t.Run("admin account", func(t *testing.T) {
		h, mock := newAuthHandler(t)
		mock.ExpectQuery("FROM admin_accounts WHERE id=").WithArgs("a-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "is_active", "created_at"}).
				AddRow("a-1", "ops", "hash", true, ts))

		c, rec := request(http.MethodGet, "/v1/me", "", "a-1", model.RoleAdmin)
		require.NoError(t, h.Me(c))
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "ops", body["username"])
		assert.Equal(t, model.RoleAdmin, body["role"])
		assert.NotContains(t, body, "phone")
	})

	t.Run("deleted profile", func(t *testing.T) {
		h, mock := newAuthHandler(t)
		mock.ExpectQuery("FROM profiles WHERE id=").WithArgs("p-9").
			WillReturnRows(sqlmock.NewRows([]string{"id", "phone", "username", "created_at", "updated_at"}))

		c, rec := request(http.MethodGet, "/v1/me", "", "p-9", model.RoleUser)
		require.NoError(t, h.Me(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
