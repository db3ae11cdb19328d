package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/voltride-support/internal/faq"
	"github.com/iliyamo/voltride-support/internal/repository"
)

// PublicHandler serves unauthenticated reads: FAQ search and the scooter
// catalog.
type PublicHandler struct {
	Catalog  *faq.Catalog
	Scooters *repository.ScooterRepo
	Log      *zap.Logger
}

func NewPublicHandler(cat *faq.Catalog, scooters *repository.ScooterRepo, log *zap.Logger) *PublicHandler {
	return &PublicHandler{Catalog: cat, Scooters: scooters, Log: nopLogger(log)}
}

// FAQs filters the FAQ catalog by ?q= and lists its categories.
func (h *PublicHandler) FAQs(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	entries, err := h.Catalog.Entries(ctx)
	if err != nil {
		h.Log.Warn("domain questions unavailable, using predefined faqs", zap.Error(err))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":      faq.Filter(entries, c.QueryParam("q")),
		"categories": faq.Categories(entries),
	})
}

// ListScooters lists scooters for sale, cheapest first.
func (h *PublicHandler) ListScooters(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Scooters.ListAvailable(ctx)
	if err != nil {
		return storeFailed(c, h.Log, err, "database error")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetScooter returns one scooter.
func (h *PublicHandler) GetScooter(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	s, err := h.Scooters.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "scooter")
		}
		return storeFailed(c, h.Log, err, "database error")
	}
	return c.JSON(http.StatusOK, s)
}
