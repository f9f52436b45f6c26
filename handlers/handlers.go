package handlers

import (
	"go.uber.org/zap"

	"github.com/calebpeterson/Upcoming/calendar"
	"github.com/calebpeterson/Upcoming/poller"
)

type Handlers struct {
	Logger   *zap.Logger
	Calendar *calendar.Calendar
	Poller   *poller.Poller
}
