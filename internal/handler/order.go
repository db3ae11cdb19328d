package handler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/voltride-support/internal/model"
	"github.com/iliyamo/voltride-support/internal/queue"
	"github.com/iliyamo/voltride-support/internal/repository"
)

// OrderHandler lets customers place and track scooter orders.
type OrderHandler struct {
	Scooters *repository.ScooterRepo
	Orders   *repository.OrderRepo
	Events   EventPublisher
	Log      *zap.Logger

	// Cache holds the public catalog responses, which show stock.  May be nil.
	Cache       *redis.Client
	CachePrefix string
}

func NewOrderHandler(s *repository.ScooterRepo, o *repository.OrderRepo, ev EventPublisher, log *zap.Logger) *OrderHandler {
	return &OrderHandler{Scooters: s, Orders: o, Events: ev, Log: nopLogger(log)}
}

// WithCache makes order placement flush the public response cache under
// prefix.
func (h *OrderHandler) WithCache(rdb *redis.Client, prefix string) *OrderHandler {
	h.Cache, h.CachePrefix = rdb, prefix
	return h
}

// MaxOrderQuantity caps the units a single order may ask for.
const MaxOrderQuantity = 1000

type createOrderReq struct {
	ScooterID       string  `json:"scooter_id"`
	Quantity        *int    `json:"quantity"`
	ShippingAddress string  `json:"shipping_address"`
	PhoneNumber     string  `json:"phone_number"`
	Notes           *string `json:"notes"`
}

// validate normalizes the request and returns the quantity to order.
func (r *createOrderReq) validate() (uint32, string) {
	r.ScooterID = strings.TrimSpace(r.ScooterID)
	r.ShippingAddress = strings.TrimSpace(r.ShippingAddress)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	if r.ScooterID == "" {
		return 0, "scooter_id required"
	}
	if r.ShippingAddress == "" || r.PhoneNumber == "" {
		return 0, "please fill in all required fields"
	}
	qty := 1
	if r.Quantity != nil {
		qty = *r.Quantity
	}
	if qty < 1 {
		return 0, "quantity must be at least 1"
	}
	if qty > MaxOrderQuantity {
		return 0, fmt.Sprintf("quantity must be at most %d", MaxOrderQuantity)
	}
	return uint32(qty), ""
}

// CreateOrder locks the scooter row, checks availability and stock,
// decrements stock and inserts the order in one transaction.  The
// order.placed event is published after commit; a broker failure is logged
// and does not fail the order.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	qty, msg := req.validate()
	if msg != "" {
		return badRequest(c, msg)
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

	s, err := h.Scooters.GetForUpdateTx(ctx, tx, req.ScooterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "scooter")
		}
		return storeFailed(c, h.Log, err, "database error")
	}
	if !s.IsAvailable {
		return c.JSON(http.StatusConflict, echo.Map{"error": "this scooter is currently unavailable"})
	}
	if qty > s.StockQuantity {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     (&repository.StockError{Requested: qty, Available: s.StockQuantity}).Error(),
			"available": s.StockQuantity,
		})
	}
	total := uint64(s.Price) * uint64(qty)
	if total > math.MaxUint32 {
		return badRequest(c, "order total too large")
	}
	if err := h.Scooters.DecrementStockTx(ctx, tx, s.ID, qty); err != nil {
		if errors.Is(err, repository.ErrOutOfStock) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient stock", "available": s.StockQuantity})
		}
		return storeFailed(c, h.Log, err, "update stock failed")
	}

	addr, phone := req.ShippingAddress, req.PhoneNumber
	o := &model.Order{
		UserID:          uid,
		ScooterID:       s.ID,
		Quantity:        qty,
		UnitPrice:       s.Price,
		TotalAmount:     uint32(total),
		Status:          model.OrderPending,
		ShippingAddress: &addr,
		PhoneNumber:     &phone,
		Notes:           req.Notes,
	}
	if err := h.Orders.CreateTx(ctx, tx, o); err != nil {
		return storeFailed(c, h.Log, err, "create order failed")
	}
	if err := tx.Commit(); err != nil {
		return storeFailed(c, h.Log, err, "failed to commit transaction")
	}
	committed = true
	flushPublicCache(ctx, h.Cache, h.CachePrefix, h.Log)

	h.publishPlaced(c.Request().Context(), *o, s)
	return c.JSON(http.StatusCreated, model.OrderDetail{
		Order:   *o,
		Scooter: model.OrderScooter{Name: s.Name, Model: s.Model, ImageURL: s.ImageURL},
	})
}

func (h *OrderHandler) publishPlaced(ctx context.Context, o model.Order, s model.Scooter) {
	if h.Events == nil {
		return
	}
	ev := queue.OrderPlacedEvent{
		OrderID:      o.ID,
		UserID:       o.UserID,
		ScooterID:    s.ID,
		ScooterName:  s.Name,
		ScooterModel: s.Model,
		Quantity:     o.Quantity,
		UnitPrice:    o.UnitPrice,
		TotalAmount:  o.TotalAmount,
		PlacedAt:     o.OrderDate.UTC().Format(time.RFC3339),
	}
	if o.PhoneNumber != nil {
		ev.PhoneNumber = *o.PhoneNumber
	}
	if err := h.Events.OrderPlaced(context.WithoutCancel(ctx), ev); err != nil {
		h.Log.Warn("order.placed publish failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}

// ListOrders returns the caller's orders, newest first.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Orders.ListByUser(ctx, uid)
	if err != nil {
		return storeFailed(c, h.Log, err, "load orders failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetOrder returns one of the caller's orders.
func (h *OrderHandler) GetOrder(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	d, err := h.Orders.GetByIDForUser(ctx, c.Param("id"), uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "order")
		}
		return storeFailed(c, h.Log, err, "load order failed")
	}
	return c.JSON(http.StatusOK, d)
}
