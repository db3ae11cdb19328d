package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/voltride-support/internal/middleware"
	"github.com/iliyamo/voltride-support/internal/queue"
)

// dbTimeout bounds every store call made from a request.
const dbTimeout = 5 * time.Second

// EventPublisher is the subset of service.Publisher the order handlers use.
type EventPublisher interface {
	OrderPlaced(ctx context.Context, ev queue.OrderPlacedEvent) error
	OrderStatusChanged(ctx context.Context, ev queue.OrderStatusChangedEvent) error
}

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// currentUser returns the caller's subject; ok is false for anonymous calls.
func currentUser(c echo.Context) (string, bool) {
	id := middleware.UserID(c)
	return id, id != ""
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

func notFound(c echo.Context, what string) error {
	return c.JSON(http.StatusNotFound, echo.Map{"error": what + " not found"})
}

// storeFailed logs err with the route and answers 500 with msg.
func storeFailed(c echo.Context, log *zap.Logger, err error, msg string) error {
	if log != nil {
		log.Error(msg,
			zap.String("route", c.Path()),
			zap.String("user_id", middleware.UserID(c)),
			zap.Error(err))
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}

func nopLogger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// flushPublicCache drops every cached public response under prefix.  The FAQ
// list and the scooter catalog share the prefix, so question edits and stock
// changes both land here.  rdb may be nil.
func flushPublicCache(ctx context.Context, rdb *redis.Client, prefix string, log *zap.Logger) {
	if rdb == nil {
		return
	}
	if err := middleware.InvalidateCache(ctx, rdb, prefix); err != nil {
		log.Warn("cache invalidation failed", zap.String("prefix", prefix), zap.Error(err))
	}
}
