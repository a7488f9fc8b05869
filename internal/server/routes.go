package server

import (
	"github.com/ticketwise/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Ticket resolution
	apiRoutes.POST("/tickets/resolve", routes.ResolveTicketHandler)

	// Index management
	apiRoutes.POST("/index/rebuild", routes.RebuildIndexHandler)
	apiRoutes.GET("/index/status", routes.GetIndexStatusHandler)
}
