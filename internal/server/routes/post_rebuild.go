package routes

import (
	"net/http"

	"github.com/ticketwise/backend/internal/queue"
	"github.com/ticketwise/backend/internal/server/middleware"
	"github.com/ticketwise/backend/internal/util"
	"github.com/ticketwise/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RebuildIndexHandler rebuilds the corpus index from a source file. With
// async=true the job is published to the rebuild queue and picked up by
// the worker; otherwise the rebuild runs inline and the new snapshot is
// published before the response returns.
func RebuildIndexHandler(c echo.Context) error {
	type rebuildBody struct {
		Source string `json:"source" validate:"omitempty,oneof=s3 file"`
		Key    string `json:"key" validate:"required"`
		Async  bool   `json:"async"`
	}

	type rebuildResponse struct {
		Message string `json:"message"`
		Tickets int    `json:"tickets,omitempty"`
	}

	data := new(rebuildBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, rebuildResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, rebuildResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	msg := queue.RebuildMsg{Source: data.Source, Key: data.Key}

	if data.Async {
		if err := queue.PublishFIFO(app.Queue, queue.RebuildQueue, []byte(util.ConvertStructToJson(msg))); err != nil {
			logger.Error("Failed to publish rebuild job", "err", err)
			return c.JSON(http.StatusInternalServerError, rebuildResponse{
				Message: "Failed to queue rebuild",
			})
		}
		return c.JSON(http.StatusAccepted, rebuildResponse{
			Message: "Rebuild queued",
		})
	}

	ctx := c.Request().Context()
	snap, err := queue.RebuildCorpus(ctx, app.S3, app.AiClient, app.Store, msg)
	if err != nil {
		logger.Error("Failed to rebuild index", "err", err)
		return c.JSON(http.StatusInternalServerError, rebuildResponse{
			Message: "Failed to rebuild index",
		})
	}
	app.Resolver.Publish(snap)

	return c.JSON(http.StatusOK, rebuildResponse{
		Message: "Rebuild complete",
		Tickets: snap.Size(),
	})
}
