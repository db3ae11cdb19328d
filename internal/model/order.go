package model

import "time"

// Order lifecycle states, in the order an order normally moves through them.
const (
	OrderPending    = "pending"
	OrderConfirmed  = "confirmed"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// ValidOrderStatus reports whether s is a known order state.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Order mirrors a `scooter_orders` row.  UnitPrice and TotalAmount are cents
// captured at order time so later catalog price changes do not alter it.
type Order struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	ScooterID         string     `json:"scooter_id"`
	Quantity          uint32     `json:"quantity"`
	UnitPrice         uint32     `json:"unit_price"`
	TotalAmount       uint32     `json:"total_amount"`
	Status            string     `json:"status"`
	ShippingAddress   *string    `json:"shipping_address"`
	PhoneNumber       *string    `json:"phone_number"`
	Notes             *string    `json:"notes"`
	OrderDate         time.Time  `json:"order_date"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// OrderScooter is the catalog summary embedded in order listings.
type OrderScooter struct {
	Name     string  `json:"name"`
	Model    string  `json:"model"`
	ImageURL *string `json:"image_url"`
}

// OrderDetail is an order joined with its scooter and, for admin listings,
// the customer's username.
type OrderDetail struct {
	Order
	Scooter  OrderScooter `json:"scooter"`
	Username *string      `json:"username,omitempty"`
}
