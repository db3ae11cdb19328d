package model

import "time"

// Scooter is a catalog item.  Price is in cents.
type Scooter struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Model           string    `json:"model"`
	Description     *string   `json:"description"`
	Price           uint32    `json:"price"`
	MaxSpeed        *int      `json:"max_speed"`
	RangeKM         *int      `json:"range_km"`
	BatteryCapacity *string   `json:"battery_capacity"`
	WeightKG        *float64  `json:"weight_kg"`
	MaxLoadKG       *int      `json:"max_load_kg"`
	ImageURL        *string   `json:"image_url"`
	StockQuantity   uint32    `json:"stock_quantity"`
	IsAvailable     bool      `json:"is_available"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
