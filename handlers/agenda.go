package handlers

import (
	"github.com/gofiber/fiber/v2"

	t "github.com/calebpeterson/Upcoming/types"
)

// AgendaHandler serves today's events, partitioned the way a dropdown
// menu wants them: all-day/multi-day entries first, then timed ones.
func (h Handlers) AgendaHandler(c *fiber.Ctx) error {
	snap := h.Poller.Snapshot()

	return c.JSON(t.BaseResponse[t.AgendaResponse]{
		Data: t.AgendaResponse{
			AllDay:  snap.AllDay,
			Regular: snap.Regular,
		},
	})
}

// NotificationsHandler serves recently emitted starting-soon
// notifications, oldest first. The buffer outlives a single tick so a
// client polling slower than the refresh interval still sees them.
func (h Handlers) NotificationsHandler(c *fiber.Ctx) error {
	return c.JSON(t.BaseResponse[[]t.Notification]{
		Data: h.Poller.Recent(),
	})
}
