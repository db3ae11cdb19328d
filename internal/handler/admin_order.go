package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/voltride-support/internal/middleware"
	"github.com/iliyamo/voltride-support/internal/model"
	"github.com/iliyamo/voltride-support/internal/queue"
	"github.com/iliyamo/voltride-support/internal/repository"
)

type updateOrderReq struct {
	Status            string  `json:"status"`
	EstimatedDelivery *string `json:"estimated_delivery"`
}

// parseDelivery accepts RFC 3339 timestamps or plain dates.
func parseDelivery(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}

// ListOrders returns all orders with their scooter and customer.
func (h *AdminHandler) ListOrders(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Orders.ListAll(ctx)
	if err != nil {
		return storeFailed(c, h.Log, err, "load orders failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdateOrderStatus moves an order to a new status.  Cancelling returns the
// ordered quantity to stock in the same transaction.  A cancelled order is
// final.
func (h *AdminHandler) UpdateOrderStatus(c echo.Context) error {
	var req updateOrderReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if !model.ValidOrderStatus(status) {
		return badRequest(c, "invalid status")
	}
	var eta *time.Time
	if req.EstimatedDelivery != nil && strings.TrimSpace(*req.EstimatedDelivery) != "" {
		t, err := parseDelivery(strings.TrimSpace(*req.EstimatedDelivery))
		if err != nil {
			return badRequest(c, "invalid estimated_delivery")
		}
		eta = &t
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	tx, err := h.Scooters.DB().BeginTx(ctx, nil)
	if err != nil {
		return storeFailed(c, h.Log, err, "failed to start transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	o, err := h.Orders.GetForUpdateTx(ctx, tx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "order")
		}
		return storeFailed(c, h.Log, err, "load order failed")
	}
	if o.Status == model.OrderCancelled && status != model.OrderCancelled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cancelled orders cannot be reopened"})
	}
	if status == model.OrderCancelled && o.Status != model.OrderCancelled {
		if err := h.Scooters.IncrementStockTx(ctx, tx, o.ScooterID, o.Quantity); err != nil {
			return storeFailed(c, h.Log, err, "restore stock failed")
		}
	}
	if err := h.Orders.UpdateStatusTx(ctx, tx, o.ID, status, eta); err != nil {
		return storeFailed(c, h.Log, err, "update order failed")
	}
	if err := tx.Commit(); err != nil {
		return storeFailed(c, h.Log, err, "failed to commit transaction")
	}
	committed = true
	if status == model.OrderCancelled && o.Status != model.OrderCancelled {
		flushPublicCache(ctx, h.Cache, h.CachePrefix, h.Log)
	}

	prev := o.Status
	o.Status = status
	if eta != nil {
		o.EstimatedDelivery = eta
	}
	o.UpdatedAt = time.Now().UTC()
	h.publishStatus(c.Request().Context(), o, prev, middleware.UserID(c))
	return c.JSON(http.StatusOK, o)
}

func (h *AdminHandler) publishStatus(ctx context.Context, o model.Order, from, by string) {
	if h.Events == nil || from == o.Status {
		return
	}
	ev := queue.OrderStatusChangedEvent{
		OrderID:   o.ID,
		UserID:    o.UserID,
		From:      from,
		To:        o.Status,
		ChangedBy: by,
		ChangedAt: o.UpdatedAt.Format(time.RFC3339),
	}
	if o.EstimatedDelivery != nil {
		s := o.EstimatedDelivery.UTC().Format(time.RFC3339)
		ev.EstimatedDelivery = &s
	}
	if err := h.Events.OrderStatusChanged(context.WithoutCancel(ctx), ev); err != nil {
		h.Log.Warn("order.status_changed publish failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}
