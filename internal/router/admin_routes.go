package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/voltride-support/internal/handler"
	"github.com/iliyamo/voltride-support/internal/middleware"
	"github.com/iliyamo/voltride-support/internal/model"
)

// RegisterAdmin registers ADMIN-scoped console endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Domain questions ----
	g.GET("/questions", a.ListQuestions)
	g.POST("/questions", a.CreateQuestion)
	g.PUT("/questions/:id", a.UpdateQuestion)
	g.DELETE("/questions/:id", a.DeleteQuestion)

	// ---- Orders ----
	g.GET("/orders", a.ListOrders)
	g.PATCH("/orders/:id", a.UpdateOrderStatus)

	// ---- Chat logs, queries, feedback ----
	g.GET("/chat/sessions", a.ListChatSessions)
	g.GET("/chat/sessions/:id/messages", a.ChatSessionMessages)
	g.GET("/queries", a.ListQueries)
	g.PATCH("/queries/:id", a.UpdateQueryStatus)
	g.GET("/feedback", a.ListFeedback)
}
