package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/ticketwise/backend/internal/server/middleware"
	"github.com/ticketwise/backend/pkg/resolver"

	"github.com/labstack/echo/v4"
)

// GetIndexStatusHandler reports the published index snapshot.
func GetIndexStatusHandler(c echo.Context) error {
	type statusResponse struct {
		Message      string    `json:"message,omitempty"`
		Size         int       `json:"size"`
		ModelVersion string    `json:"model_version,omitempty"`
		BuiltAt      time.Time `json:"built_at,omitzero"`
	}

	app := c.(*middleware.AppContext).App

	size, modelVersion, builtAt, err := app.Resolver.Status()
	if err != nil {
		if errors.Is(err, resolver.ErrNotReady) {
			return c.JSON(http.StatusServiceUnavailable, statusResponse{
				Message: "No index published yet",
			})
		}
		return c.JSON(http.StatusInternalServerError, statusResponse{
			Message: "Failed to read index status",
		})
	}

	return c.JSON(http.StatusOK, statusResponse{
		Size:         size,
		ModelVersion: modelVersion,
		BuiltAt:      builtAt,
	})
}
