package handler

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/voltride-support/internal/repository"
)

// AdminHandler bundles repositories for the admin console.  Every route is
// mounted behind RequireRole(ADMIN).
type AdminHandler struct {
	Questions *repository.QuestionRepo
	Orders    *repository.OrderRepo
	Scooters  *repository.ScooterRepo
	Chats     *repository.ChatRepo
	Queries   *repository.QueryRepo
	Feedback  *repository.FeedbackRepo
	Events    EventPublisher
	Log       *zap.Logger

	// Cache and CachePrefix identify the public response cache that must be
	// flushed when FAQ content changes.  Cache may be nil.
	Cache       *redis.Client
	CachePrefix string
}

// AdminDeps lists what NewAdminHandler needs.
type AdminDeps struct {
	Questions   *repository.QuestionRepo
	Orders      *repository.OrderRepo
	Scooters    *repository.ScooterRepo
	Chats       *repository.ChatRepo
	Queries     *repository.QueryRepo
	Feedback    *repository.FeedbackRepo
	Events      EventPublisher
	Cache       *redis.Client
	CachePrefix string
}

// NewAdminHandler panics if a repository is missing.
func NewAdminHandler(d AdminDeps, log *zap.Logger) *AdminHandler {
	if d.Questions == nil || d.Orders == nil || d.Scooters == nil || d.Chats == nil || d.Queries == nil || d.Feedback == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{
		Questions:   d.Questions,
		Orders:      d.Orders,
		Scooters:    d.Scooters,
		Chats:       d.Chats,
		Queries:     d.Queries,
		Feedback:    d.Feedback,
		Events:      d.Events,
		Log:         nopLogger(log),
		Cache:       d.Cache,
		CachePrefix: d.CachePrefix,
	}
}
