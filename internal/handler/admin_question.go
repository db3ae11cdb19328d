package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/voltride-support/internal/middleware"
	"github.com/iliyamo/voltride-support/internal/model"
	"github.com/iliyamo/voltride-support/internal/repository"
)

// QuestionsPageSize is the console page size for domain questions.
const QuestionsPageSize = 20

type questionReq struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Category string   `json:"category"`
	Keywords []string `json:"keywords"`
}

// normalize trims fields and drops blank keywords.
func (r *questionReq) normalize() string {
	r.Question = strings.TrimSpace(r.Question)
	r.Answer = strings.TrimSpace(r.Answer)
	r.Category = strings.TrimSpace(r.Category)
	kw := make([]string, 0, len(r.Keywords))
	for _, k := range r.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			kw = append(kw, k)
		}
	}
	r.Keywords = kw
	if r.Question == "" || r.Answer == "" {
		return "question and answer are required"
	}
	return ""
}

// ListQuestions pages through active questions, newest first.
func (h *AdminHandler) ListQuestions(c echo.Context) error {
	page := 1
	if p := c.QueryParam("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return badRequest(c, "invalid page")
		}
		page = n
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, total, err := h.Questions.ListActivePage(ctx, QuestionsPageSize, (page-1)*QuestionsPageSize)
	if err != nil {
		return storeFailed(c, h.Log, err, "load questions failed")
	}
	pages := (total + QuestionsPageSize - 1) / QuestionsPageSize
	return c.JSON(http.StatusOK, echo.Map{
		"items":     items,
		"page":      page,
		"page_size": QuestionsPageSize,
		"total":     total,
		"pages":     pages,
	})
}

// CreateQuestion adds an active question owned by the calling admin.
func (h *AdminHandler) CreateQuestion(c echo.Context) error {
	var req questionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if msg := req.normalize(); msg != "" {
		return badRequest(c, msg)
	}
	q := &model.DomainQuestion{
		Question:  req.Question,
		Answer:    req.Answer,
		Category:  req.Category,
		Keywords:  req.Keywords,
		CreatedBy: middleware.UserID(c),
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Questions.Create(ctx, q); err != nil {
		return storeFailed(c, h.Log, err, "create question failed")
	}
	flushPublicCache(ctx, h.Cache, h.CachePrefix, h.Log)
	return c.JSON(http.StatusCreated, q)
}

// UpdateQuestion rewrites an active question.
func (h *AdminHandler) UpdateQuestion(c echo.Context) error {
	var req questionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if msg := req.normalize(); msg != "" {
		return badRequest(c, msg)
	}
	q := &model.DomainQuestion{
		ID:       c.Param("id"),
		Question: req.Question,
		Answer:   req.Answer,
		Category: req.Category,
		Keywords: req.Keywords,
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Questions.Update(ctx, q); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "question")
		}
		return storeFailed(c, h.Log, err, "update question failed")
	}
	flushPublicCache(ctx, h.Cache, h.CachePrefix, h.Log)
	return c.JSON(http.StatusOK, q)
}

// DeleteQuestion deactivates a question.
func (h *AdminHandler) DeleteQuestion(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Questions.SoftDelete(ctx, c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "question")
		}
		return storeFailed(c, h.Log, err, "delete question failed")
	}
	flushPublicCache(ctx, h.Cache, h.CachePrefix, h.Log)
	return c.NoContent(http.StatusNoContent)
}
