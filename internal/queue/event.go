// Package queue defines message payloads exchanged over the message broker
// and the consumer that records order activity.
package queue

// Queue names.  All queues are durable and bound to the default exchange.
const (
	OrderPlacedQueue        = "order.placed"
	OrderStatusChangedQueue = "order.status_changed"
	OTPRequestedQueue       = "otp.requested"
)

// OrderPlacedEvent is published after an order transaction commits.  It
// carries enough for fulfilment and notification consumers to act without
// reading the database.
type OrderPlacedEvent struct {
	OrderID      string `json:"order_id"`
	UserID       string `json:"user_id"`
	ScooterID    string `json:"scooter_id"`
	ScooterName  string `json:"scooter_name"`
	ScooterModel string `json:"scooter_model"`
	Quantity     uint32 `json:"quantity"`
	UnitPrice    uint32 `json:"unit_price"`
	TotalAmount  uint32 `json:"total_amount"`
	PhoneNumber  string `json:"phone_number"`
	PlacedAt     string `json:"placed_at"`
}

// OrderStatusChangedEvent is published when an admin moves an order.
type OrderStatusChangedEvent struct {
	OrderID           string  `json:"order_id"`
	UserID            string  `json:"user_id"`
	From              string  `json:"from"`
	To                string  `json:"to"`
	EstimatedDelivery *string `json:"estimated_delivery,omitempty"`
	ChangedBy         string  `json:"changed_by"`
	ChangedAt         string  `json:"changed_at"`
}

// OTPRequestedEvent asks the SMS gateway to deliver a login code.
type OTPRequestedEvent struct {
	Phone     string `json:"phone"`
	Code      string `json:"code"`
	ExpiresAt string `json:"expires_at"`
}
