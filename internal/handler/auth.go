package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/voltride-support/internal/config"
	"github.com/iliyamo/voltride-support/internal/middleware"
	"github.com/iliyamo/voltride-support/internal/model"
	"github.com/iliyamo/voltride-support/internal/otp"
	"github.com/iliyamo/voltride-support/internal/repository"
	"github.com/iliyamo/voltride-support/internal/utils"
)

// AuthHandler bundles dependencies for the two login flows and token
// lifecycle endpoints.
type AuthHandler struct {
	Cfg      config.Config
	OTP      *otp.Service
	Profiles *repository.ProfileRepo
	Admins   *repository.AdminRepo
	Tokens   *repository.TokenRepo
	Log      *zap.Logger
}

func NewAuthHandler(cfg config.Config, codes *otp.Service, p *repository.ProfileRepo, a *repository.AdminRepo, t *repository.TokenRepo, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, OTP: codes, Profiles: p, Admins: a, Tokens: t, Log: nopLogger(log)}
}

// ----- DTOs -----

type otpSendReq struct {
	Phone string `json:"phone"`
}
type otpVerifyReq struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}
type adminLoginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID       string  `json:"id"`
	Phone    string  `json:"phone,omitempty"`
	Username *string `json:"username,omitempty"`
	Role     string  `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// SendOTP issues a login code for a phone number.
func (h *AuthHandler) SendOTP(c echo.Context) error {
	var req otpSendReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	phone, exp, err := h.OTP.Send(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, otp.ErrInvalidPhone) {
			return badRequest(c, "please enter a valid phone number")
		}
		h.Log.Error("otp send failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "could not send code, please try again"})
	}
	return c.JSON(http.StatusOK, echo.Map{"phone": phone, "expires_at": exp})
}

// VerifyOTP checks the code, upserts the profile and returns a token pair.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req otpVerifyReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	phone, err := h.OTP.Verify(ctx, req.Phone, req.Code)
	switch {
	case errors.Is(err, otp.ErrInvalidPhone), errors.Is(err, otp.ErrInvalidCode):
		return badRequest(c, err.Error())
	case errors.Is(err, otp.ErrCodeMismatch), errors.Is(err, otp.ErrCodeExpired):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired code"})
	case errors.Is(err, otp.ErrTooManyAttempts):
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many attempts, request a new code"})
	case err != nil:
		return storeFailed(c, h.Log, err, "verify failed")
	}

	p, err := h.Profiles.UpsertByPhone(ctx, phone)
	if err != nil {
		return storeFailed(c, h.Log, err, "load profile failed")
	}
	role, err := h.Profiles.RoleOf(ctx, p.ID)
	if err != nil {
		return storeFailed(c, h.Log, err, "load role failed")
	}
	return h.issue(c, userPart{ID: p.ID, Phone: p.Phone, Username: p.Username, Role: role}, http.StatusOK)
}

// AdminLogin verifies console credentials.  Unknown usernames and wrong
// passwords get the same answer.
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	var req adminLoginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return badRequest(c, "username/password required")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	a, err := h.Admins.GetActiveByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return storeFailed(c, h.Log, err, "query failed")
	}
	if !utils.VerifyPassword(a.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	username := a.Username
	return h.issue(c, userPart{ID: a.ID, Username: &username, Role: model.RoleAdmin}, http.StatusOK)
}

// issue creates and stores a fresh token pair for u.
func (h *AuthHandler) issue(c echo.Context, u userPart, status int) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return storeFailed(c, h.Log, err, "issue access failed")
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return storeFailed(c, h.Log, err, "issue refresh failed")
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, u.Role, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return storeFailed(c, h.Log, err, "save refresh failed")
	}
	return c.JSON(status, authResp{
		User:    u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	})
}

// subject reloads the identity behind a refresh token.  Phone users get
// their current role so a grant or revoke takes effect on the next refresh;
// deactivated admins lose access.
func (h *AuthHandler) subject(c echo.Context, subjectID, role string) (userPart, error) {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if role == model.RoleAdmin {
		if a, err := h.Admins.GetActiveByID(ctx, subjectID); err == nil {
			username := a.Username
			return userPart{ID: a.ID, Username: &username, Role: model.RoleAdmin}, nil
		} else if !errors.Is(err, repository.ErrNotFound) {
			return userPart{}, err
		}
	}
	p, err := h.Profiles.GetByID(ctx, subjectID)
	if err != nil {
		return userPart{}, err
	}
	current, err := h.Profiles.RoleOf(ctx, p.ID)
	if err != nil {
		return userPart{}, err
	}
	return userPart{ID: p.ID, Phone: p.Phone, Username: p.Username, Role: current}, nil
}

func (h *AuthHandler) readRefresh(c echo.Context) (string, bool) {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return "", false
	}
	raw := strings.TrimSpace(req.RefreshToken)
	return raw, raw != ""
}

// Refresh validates by hash, revokes the old token and issues a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw, ok := h.readRefresh(c)
	if !ok {
		return badRequest(c, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(raw)
	ctx, cancel := withTimeout(c)
	defer cancel()

	subjectID, role, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	u, err := h.subject(c, subjectID, role)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return storeFailed(c, h.Log, err, "load user failed")
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return storeFailed(c, h.Log, err, "revoke failed")
	}
	return h.issue(c, u, http.StatusOK)
}

// RefreshAccess returns a new access token without rotating the refresh
// token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	raw, ok := h.readRefresh(c)
	if !ok {
		return badRequest(c, "refresh_token required")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	subjectID, role, err := h.Tokens.ValidateRefresh(ctx, utils.HashRefreshRaw(raw))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	u, err := h.subject(c, subjectID, role)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return storeFailed(c, h.Log, err, "load user failed")
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return storeFailed(c, h.Log, err, "issue access failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes the refresh token in the body, or every token of the
// bearer when the body names none.  With neither, the request is rejected.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := withTimeout(c)
	defer cancel()

	if raw != "" {
		hash := utils.HashRefreshRaw(raw)
		if _, _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return storeFailed(c, h.Log, err, "revoke failed")
		}
		return c.NoContent(http.StatusNoContent)
	}

	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return badRequest(c, "refresh_token or bearer token required")
	}
	claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	if err := h.Tokens.RevokeAllForSubject(ctx, claims.Subject); err != nil {
		return storeFailed(c, h.Log, err, "revoke failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated identity.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	role := middleware.Role(c)
	if role == model.RoleAdmin {
		if a, err := h.Admins.GetActiveByID(ctx, uid); err == nil {
			return c.JSON(http.StatusOK, userPart{ID: a.ID, Username: &a.Username, Role: model.RoleAdmin})
		}
	}
	p, err := h.Profiles.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "user")
		}
		return storeFailed(c, h.Log, err, "load user failed")
	}
	return c.JSON(http.StatusOK, userPart{ID: p.ID, Phone: p.Phone, Username: p.Username, Role: role})
}
