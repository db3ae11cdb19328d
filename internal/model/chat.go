package model

import "time"

// Chat message authors.
const (
	MessageUser = "user"
	MessageBot  = "bot"
)

// ChatMessage is one line of a chat session.
type ChatMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatSession summarizes a session for history screens.  It is derived from
// the user's own messages; bot replies are not counted.
type ChatSession struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id,omitempty"`
	FirstMessage string    `json:"first_message"`
	Preview      string    `json:"preview"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
}

// ChatFeedback is a 1..5 satisfaction rating left at the end of a session.
type ChatFeedback struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	SessionID          string    `json:"session_id"`
	SatisfactionRating int       `json:"satisfaction_rating"`
	FeedbackText       *string   `json:"feedback_text"`
	CreatedAt          time.Time `json:"created_at"`
}

// Submitted query review states.
const (
	QueryPending  = "pending"
	QueryReviewed = "reviewed"
	QueryResolved = "resolved"
)

// SubmittedQuery is a bot answer a customer flagged for human review.
type SubmittedQuery struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	OriginalQuery string    `json:"original_query"`
	BotResponse   string    `json:"bot_response"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ValidQueryStatus reports whether s is a known review state.
func ValidQueryStatus(s string) bool {
	switch s {
	case QueryPending, QueryReviewed, QueryResolved:
		return true
	}
	return false
}
