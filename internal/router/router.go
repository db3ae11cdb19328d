package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/voltride-support/internal/handler"
	"github.com/iliyamo/voltride-support/internal/middleware"
	"github.com/iliyamo/voltride-support/internal/model"
)

// RegisterRoutes registers the liveness probe and the static support
// contact card.
func RegisterRoutes(e *echo.Echo, s *handler.SupportHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/v1/support/contact", s.Contact)
}

// RegisterAuth registers both login flows and the token endpoints.  The OTP
// routes get their own, stricter limiter so a client cannot flood the SMS
// gateway.  Logout does not require JWT auth: it accepts either a refresh
// token in the body or a bearer token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, otpLimiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	otp := g.Group("/otp", otpLimiter)
	otp.POST("/send", a.SendOTP)
	otp.POST("/verify", a.VerifyOTP)
	g.POST("/admin/login", a.AdminLogin, otpLimiter)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
	)
	auth.GET("/me", a.Me)
}

// RegisterPublic registers unauthenticated reads.  cache is the Redis
// response cache; the FAQ list and catalog change rarely and are read on
// every page load.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/faqs", p.FAQs, cache)
	e.GET("/v1/scooters", p.ListScooters, cache)
	e.GET("/v1/scooters/:id", p.GetScooter, cache)
}
