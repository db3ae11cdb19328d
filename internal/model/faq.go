package model

import "time"

// DomainQuestion is an admin-managed FAQ entry.  Deleting a question only
// clears IsActive; inactive questions never reach the chat matcher.
type DomainQuestion struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Category  string    `json:"category"`
	Keywords  []string  `json:"keywords"`
	IsActive  bool      `json:"is_active"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultCategory is used when a question is saved without a category.
const DefaultCategory = "General"
