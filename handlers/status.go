package handlers

import (
	"github.com/gofiber/fiber/v2"

	t "github.com/calebpeterson/Upcoming/types"
)

// StatusHandler serves the status-bar line computed on the last tick.
func (h Handlers) StatusHandler(c *fiber.Ctx) error {
	snap := h.Poller.Snapshot()

	return c.JSON(t.BaseResponse[t.StatusResponse]{
		Data: t.StatusResponse{
			Status:    snap.Status,
			HasEvents: snap.Next != nil,
			FetchedAt: snap.FetchedAt,
			Error:     snap.Err,
		},
	})
}
