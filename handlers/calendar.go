package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/calebpeterson/Upcoming/agenda"
	"github.com/calebpeterson/Upcoming/meeting"
	t "github.com/calebpeterson/Upcoming/types"
)

// NextEventHandler resolves the next upcoming event of an arbitrary ICS
// feed, stateless per request. Kept for clients that want a one-off
// answer without configuring a source.
func (h Handlers) NextEventHandler(c *fiber.Ctx) error {
	var icsRequest t.IcsRequest

	if err := c.BodyParser(&icsRequest); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	h.Logger.Info("NextEventHandler", zap.String("url", icsRequest.ICSUrl))

	calString, err := h.Calendar.DownloadCalendar(icsRequest.ICSUrl)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	events, err := h.Calendar.ParseCalendar(calString, icsRequest.TZ, time.Now(), "adhoc")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	_, regular := agenda.Classify(events)
	nextEvent := agenda.NextUpcoming(regular, time.Now())
	if nextEvent == nil {
		return c.Status(fiber.StatusNotFound).SendString(agenda.NoEventsStatus)
	}

	resp := t.IcsResponse{
		EventName:      nextEvent.Title,
		EventStartTime: nextEvent.Start.Unix(),
		EventEndTime:   nextEvent.End.Unix(),
		EventLocation:  nextEvent.Location,
	}
	if join, ok := meeting.ExtractURL(*nextEvent); ok {
		resp.JoinURL = join
	}

	return c.JSON(t.BaseResponse[t.IcsResponse]{Data: resp})
}
