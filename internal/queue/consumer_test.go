package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFormatOrderLine(t *testing.T) {
	placed, err := json.Marshal(OrderPlacedEvent{
		OrderID: "o-1", UserID: "u-1", ScooterName: "VoltRide X1", ScooterModel: "X1-2024",
		Quantity: 2, UnitPrice: 49900, TotalAmount: 99800, PlacedAt: "2026-10-16T10:00:00Z",
	})
	require.NoError(t, err)
	line, err := FormatOrderLine(OrderPlacedQueue, placed)
	require.NoError(t, err)
	assert.Equal(t, "[2026-10-16T10:00:00Z] Order placed | order_id=o-1 | user_id=u-1 | scooter=\"VoltRide X1\" | model=\"X1-2024\" | qty=2 | unit=49900 cents | total=99800 cents\n", line)

	eta := "2026-10-20"
	changed, err := json.Marshal(OrderStatusChangedEvent{
		OrderID: "o-1", UserID: "u-1", From: "pending", To: "shipped", EstimatedDelivery: &eta,
		ChangedBy: "admin-1", ChangedAt: "2026-10-17T09:00:00Z",
	})
	require.NoError(t, err)
	line, err = FormatOrderLine(OrderStatusChangedQueue, changed)
	require.NoError(t, err)
	assert.Contains(t, line, "pending -> shipped | eta=2026-10-20 | by=admin-1")

	_, err = FormatOrderLine(OrderPlacedQueue, []byte("{"))
	assert.Error(t, err)
	_, err = FormatOrderLine("nope", placed)
	assert.Error(t, err)
}

func TestHandleAppendsToLogFile(t *testing.T) {
	dir := t.TempDir()
	c := &OrderConsumer{LogDir: filepath.Join(dir, "logs"), Log: zap.NewNop()}
	body, err := json.Marshal(OrderPlacedEvent{OrderID: "o-2", Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, c.handle(OrderPlacedQueue, body))
	require.NoError(t, c.handle(OrderPlacedQueue, body))

	data, err := os.ReadFile(filepath.Join(dir, "logs", "orders.log"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}
