package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/voltride-support/internal/middleware"
	"github.com/iliyamo/voltride-support/internal/queue"
)

var ts = time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

type fakeEvents struct {
	placed  []queue.OrderPlacedEvent
	changed []queue.OrderStatusChangedEvent
}

func (f *fakeEvents) OrderPlaced(_ context.Context, ev queue.OrderPlacedEvent) error {
	f.placed = append(f.placed, ev)
	return nil
}

func (f *fakeEvents) OrderStatusChanged(_ context.Context, ev queue.OrderStatusChangedEvent) error {
	f.changed = append(f.changed, ev)
	return nil
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

const cachePrefix = "voltride:cache"

// newCache returns a Redis client on miniredis holding one cached public
// response and one unrelated key.
func newCache(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, mr.Set(cachePrefix+":catalog", "{}"))
	require.NoError(t, mr.Set("voltride:otp:+4155550100", "h"))
	return rdb, mr
}

// request builds an echo context for a JSON call made by userID/role.
// params alternate name, value.
func request(method, path, body, userID, role string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set(middleware.CtxUserID, userID)
		c.Set(middleware.CtxRole, role)
	}
	if len(params) > 0 {
		var names, values []string
		for i := 0; i+1 < len(params); i += 2 {
			names = append(names, params[i])
			values = append(values, params[i+1])
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

var scooterColumns = []string{"id", "name", "model", "description", "price", "max_speed", "range_km", "battery_capacity",
	"weight_kg", "max_load_kg", "image_url", "stock_quantity", "is_available", "created_at", "updated_at"}

func scooterRow(stock int, available bool) *sqlmock.Rows {
	return sqlmock.NewRows(scooterColumns).
		AddRow("s-1", "VoltRide City", "VR-C1", nil, 49900, 25, 40, "36V", 12.7, 120, nil, stock, available, ts, ts)
}

var orderColumns = []string{"id", "user_id", "scooter_id", "quantity", "unit_price", "total_amount", "status",
	"shipping_address", "phone_number", "notes", "order_date", "estimated_delivery", "created_at", "updated_at"}
