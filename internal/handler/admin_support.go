package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/voltride-support/internal/chat"
	"github.com/iliyamo/voltride-support/internal/model"
	"github.com/iliyamo/voltride-support/internal/repository"
)

// ListChatSessions groups every user's messages into sessions.
func (h *AdminHandler) ListChatSessions(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	msgs, err := h.Chats.ListAllUserMessages(ctx)
	if err != nil {
		return storeFailed(c, h.Log, err, "load sessions failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": chat.GroupSessions(msgs, true)})
}

// ChatSessionMessages returns the full transcript of any session.
func (h *AdminHandler) ChatSessionMessages(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	msgs, err := h.Chats.ListSession(ctx, c.Param("id"), "")
	if err != nil {
		return storeFailed(c, h.Log, err, "load messages failed")
	}
	if len(msgs) == 0 {
		return notFound(c, "session")
	}
	return c.JSON(http.StatusOK, echo.Map{"session_id": c.Param("id"), "items": msgs})
}

// ListQueries lists submitted queries, optionally by ?status=.
func (h *AdminHandler) ListQueries(c echo.Context) error {
	status := strings.ToLower(strings.TrimSpace(c.QueryParam("status")))
	if status != "" && !model.ValidQueryStatus(status) {
		return badRequest(c, "invalid status")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Queries.List(ctx, status)
	if err != nil {
		return storeFailed(c, h.Log, err, "load queries failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdateQueryStatus moves a submitted query between review states.
func (h *AdminHandler) UpdateQueryStatus(c echo.Context) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if !model.ValidQueryStatus(status) {
		return badRequest(c, "invalid status")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Queries.UpdateStatus(ctx, c.Param("id"), status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "query")
		}
		return storeFailed(c, h.Log, err, "update query failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id"), "status": status})
}

// ListFeedback returns all ratings, newest first.
func (h *AdminHandler) ListFeedback(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Feedback.ListAll(ctx)
	if err != nil {
		return storeFailed(c, h.Log, err, "load feedback failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
