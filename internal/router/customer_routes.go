package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/voltride-support/internal/handler"
	"github.com/iliyamo/voltride-support/internal/middleware"
	"github.com/iliyamo/voltride-support/internal/model"
)

// RegisterCustomer registers the signed-in customer endpoints under /v1:
// chat, feedback, submitted queries and orders.  Admins may use them too,
// which lets support staff try the widget with their own account.
func RegisterCustomer(e *echo.Echo, ch *handler.ChatHandler, oh *handler.OrderHandler, jwtSecret string) {
	// The welcome screen is shown before login.
	e.GET("/v1/chat/suggestions", ch.Suggestions)

	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
	)
	g.POST("/chat/messages", ch.SendMessage)
	g.GET("/chat/sessions", ch.Sessions)
	g.GET("/chat/sessions/:id/messages", ch.SessionMessages)
	g.POST("/chat/feedback", ch.SubmitFeedback)

	g.POST("/queries", ch.SubmitQuery)
	g.GET("/queries", ch.MyQueries)

	g.POST("/orders", oh.CreateOrder)
	g.GET("/orders", oh.ListOrders)
	g.GET("/orders/:id", oh.GetOrder)
}
