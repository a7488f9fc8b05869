package routes

import (
	"net/http"

	"github.com/ticketwise/backend/internal/server/middleware"
	"github.com/ticketwise/backend/pkg/corpus/csv"
	"github.com/ticketwise/backend/pkg/logger"
	"github.com/ticketwise/backend/pkg/resolver"
	"github.com/ticketwise/backend/pkg/ticket"

	"github.com/labstack/echo/v4"
)

// ResolveTicketHandler runs the resolution pipeline for a new ticket and
// returns the retrieved matches, the generation context and the generated
// guidance text (null when generation degraded).
func ResolveTicketHandler(c echo.Context) error {
	type resolveBody struct {
		ID          string `json:"id"`
		Issue       string `json:"issue" validate:"required"`
		Category    string `json:"category"`
		Description string `json:"description"`
		Date        string `json:"date"`
	}

	type resolveResponse struct {
		Message string           `json:"message,omitempty"`
		Result  *resolver.Result `json:"result,omitempty"`
	}

	data := new(resolveBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, resolveResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, resolveResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	result, err := app.Resolver.Resolve(ctx, ticket.NewTicket{
		ID:          data.ID,
		Issue:       data.Issue,
		Category:    data.Category,
		Description: data.Description,
		CreatedAt:   csv.ParseDate(data.Date),
	})
	if err != nil {
		logger.Error("Failed to resolve ticket", "err", err)
		return c.JSON(http.StatusInternalServerError, resolveResponse{
			Message: "Failed to resolve ticket",
		})
	}

	return c.JSON(http.StatusOK, resolveResponse{
		Result: &result,
	})
}
