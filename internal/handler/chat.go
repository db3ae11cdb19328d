package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/voltride-support/internal/chat"
	"github.com/iliyamo/voltride-support/internal/faq"
	"github.com/iliyamo/voltride-support/internal/model"
	"github.com/iliyamo/voltride-support/internal/repository"
)

// ChatHandler serves the scripted support chat, its history, end-of-chat
// feedback and query submission.
type ChatHandler struct {
	Catalog  *faq.Catalog
	Chats    *repository.ChatRepo
	Feedback *repository.FeedbackRepo
	Queries  *repository.QueryRepo
	Log      *zap.Logger
	now      func() time.Time
}

func NewChatHandler(cat *faq.Catalog, chats *repository.ChatRepo, fb *repository.FeedbackRepo, qs *repository.QueryRepo, log *zap.Logger) *ChatHandler {
	return &ChatHandler{Catalog: cat, Chats: chats, Feedback: fb, Queries: qs, Log: nopLogger(log), now: time.Now}
}

type chatMessageReq struct {
	SessionID  string `json:"session_id"`
	Content    string `json:"content"`
	Predefined bool   `json:"predefined"`
}

type feedbackReq struct {
	SessionID    string  `json:"session_id"`
	Rating       int     `json:"rating"`
	FeedbackText *string `json:"feedback_text"`
}

type submitQueryReq struct {
	OriginalQuery string `json:"original_query"`
	BotResponse   string `json:"bot_response"`
}

// entries loads the matcher list.  A store failure degrades to the
// predefined entries and is only logged.
func (h *ChatHandler) entries(c echo.Context) []faq.Entry {
	ctx, cancel := withTimeout(c)
	defer cancel()
	entries, err := h.Catalog.Entries(ctx)
	if err != nil {
		h.Log.Warn("domain questions unavailable, using predefined faqs", zap.Error(err))
	}
	return entries
}

// Suggestions returns the welcome message and the popular questions.
func (h *ChatHandler) Suggestions(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"welcome":     faq.Welcome,
		"suggestions": faq.Suggestions(h.entries(c), faq.SuggestionCount),
	})
}

// SendMessage stores the user's message and the bot's answer.  A missing
// session id starts a new session.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	var req chatMessageReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return badRequest(c, "message must not be empty")
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	} else if _, err := uuid.Parse(sessionID); err != nil {
		return badRequest(c, "invalid session_id")
	} else if err := h.checkSessionOwner(c, sessionID, uid); err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return notFound(c, "session")
		}
		return storeFailed(c, h.Log, err, "load session failed")
	}

	entries := h.entries(c)
	var answer string
	if req.Predefined {
		answer = faq.ExactAnswer(entries, content)
	} else {
		answer = faq.BestAnswer(entries, content)
	}

	now := h.now().UTC()
	user := &model.ChatMessage{SessionID: sessionID, UserID: uid, Type: model.MessageUser, Content: content, CreatedAt: now}
	bot := &model.ChatMessage{SessionID: sessionID, UserID: uid, Type: model.MessageBot, Content: answer, CreatedAt: now.Add(time.Millisecond)}

	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Chats.InsertPair(ctx, user, bot); err != nil {
		return storeFailed(c, h.Log, err, "save message failed")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"session_id": sessionID,
		"user":       user,
		"bot":        bot,
	})
}

// checkSessionOwner fails with ErrForbidden when sessionID already holds
// another user's messages.  An unused id is free to claim.
func (h *ChatHandler) checkSessionOwner(c echo.Context, sessionID, uid string) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	owner, err := h.Chats.SessionOwner(ctx, sessionID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case owner != uid:
		return repository.ErrForbidden
	}
	return nil
}

// Sessions lists the caller's chat sessions, newest first.
func (h *ChatHandler) Sessions(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	msgs, err := h.Chats.ListUserMessages(ctx, uid)
	if err != nil {
		return storeFailed(c, h.Log, err, "load sessions failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": chat.GroupSessions(msgs, false)})
}

// SessionMessages returns one of the caller's sessions in order.
func (h *ChatHandler) SessionMessages(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	msgs, err := h.Chats.ListSession(ctx, c.Param("id"), uid)
	if err != nil {
		return storeFailed(c, h.Log, err, "load messages failed")
	}
	if len(msgs) == 0 {
		return notFound(c, "session")
	}
	return c.JSON(http.StatusOK, echo.Map{"session_id": c.Param("id"), "items": msgs})
}

// SubmitFeedback records a 1..5 rating for a session.
func (h *ChatHandler) SubmitFeedback(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	var req feedbackReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return badRequest(c, "please select a rating before submitting")
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return badRequest(c, "session_id required")
	}
	var text *string
	if req.FeedbackText != nil {
		if t := strings.TrimSpace(*req.FeedbackText); t != "" {
			text = &t
		}
	}
	f := &model.ChatFeedback{
		UserID:             uid,
		SessionID:          strings.TrimSpace(req.SessionID),
		SatisfactionRating: req.Rating,
		FeedbackText:       text,
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Feedback.Create(ctx, f); err != nil {
		return storeFailed(c, h.Log, err, "save feedback failed")
	}
	f.CreatedAt = h.now().UTC()
	return c.JSON(http.StatusCreated, f)
}

// SubmitQuery flags a bot answer for human review.
func (h *ChatHandler) SubmitQuery(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	var req submitQueryReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	q := &model.SubmittedQuery{
		UserID:        uid,
		OriginalQuery: strings.TrimSpace(req.OriginalQuery),
		BotResponse:   strings.TrimSpace(req.BotResponse),
	}
	if q.OriginalQuery == "" || q.BotResponse == "" {
		return badRequest(c, "original_query and bot_response required")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Queries.Create(ctx, q); err != nil {
		return storeFailed(c, h.Log, err, "save query failed")
	}
	now := h.now().UTC()
	q.CreatedAt, q.UpdatedAt = now, now
	return c.JSON(http.StatusCreated, q)
}

// MyQueries lists the caller's submitted queries.
func (h *ChatHandler) MyQueries(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Queries.ListByUser(ctx, uid)
	if err != nil {
		return storeFailed(c, h.Log, err, "load queries failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
