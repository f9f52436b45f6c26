// Package calendar fetches ICS feeds and turns them into the day's
// event list consumed by the agenda pipeline. Recurring events are
// expanded into concrete occurrences by the parser, bounded to the
// requested day window.
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/apognu/gocal"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	t "github.com/calebpeterson/Upcoming/types"
)

// Source is one configured ICS feed.
type Source struct {
	ID  string `yaml:"id" toml:"id" json:"id"`
	URL string `yaml:"url" toml:"url" json:"url"`
	TZ  string `yaml:"tz" toml:"tz" json:"tz"`
}

// DefaultTZMap translates the Windows timezone names that Outlook-style
// feeds put in TZID parameters into IANA names.
var DefaultTZMap = map[string]string{
	"Hawaii Standard Time":     "Pacific/Honolulu",
	"Alaskan Standard Time":    "America/Anchorage",
	"Alaskan Daylight Time":    "America/Anchorage",
	"SA Pacific Standard Time": "America/Bogota",
	"Pacific Standard Time":    "America/Los_Angeles",
	"Pacific Daylight Time":    "America/Los_Angeles",
	"Central Standard Time":    "America/Chicago",
	"Central Daylight Time":    "America/Chicago",
	"Mountain Standard Time":   "America/Denver",
	"Mountain Daylight Time":   "America/Denver",
	"Eastern Standard Time":    "America/New_York",
	"Eastern Daylight Time":    "America/New_York",
}

type Calendar struct {
	Logger *zap.Logger
	TZMap  map[string]string

	client *resty.Client
}

func New(logger *zap.Logger) *Calendar {
	c := &Calendar{
		Logger: logger,
		TZMap:  DefaultTZMap,
		client: resty.New().SetTimeout(15 * time.Second),
	}
	// The TZ mapper is package-global in gocal: the most recently
	// constructed Calendar's TZMap is the one consulted. Instances all
	// share DefaultTZMap unless a caller swaps it.
	gocal.SetTZMapper(c.mapTZ)
	return c
}

func (c *Calendar) mapTZ(s string) (*time.Location, error) {
	if iana, ok := c.TZMap[s]; ok {
		s = iana
	}
	return time.LoadLocation(s)
}

func (c *Calendar) DownloadCalendar(url string) (string, error) {
	resp, err := c.client.R().Get(url)
	if err != nil {
		return "", fmt.Errorf("download calendar: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("download calendar: %s", resp.Status())
	}
	return resp.String(), nil
}

// ParseCalendar parses an ICS payload into the events overlapping the
// day containing day, interpreted in tz (IANA or Windows name; local
// time when empty). Events without a UID get a deterministic fallback
// ID so notification de-duplication still works for them.
func (c *Calendar) ParseCalendar(data, tz string, day time.Time, sourceID string) ([]t.Event, error) {
	loc := time.Local
	if tz != "" {
		if l, err := c.mapTZ(tz); err == nil {
			loc = l
		} else {
			c.Logger.Warn("unknown timezone, using local", zap.String("tz", tz))
		}
	}

	day = day.In(loc)
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.Add(24 * time.Hour)

	// gocal's range check is exclusive on both ends, so a window
	// anchored exactly at midnight loses every all-day event. Nudge the
	// start back one second; the end stays exclusive, which is what the
	// [startOfDay, startOfDay+24h) window wants.
	winStart := dayStart.Add(-time.Second)

	parser := gocal.NewParser(strings.NewReader(data))
	parser.Start, parser.End = &winStart, &dayEnd
	// FailFeed (the default) aborts the whole feed on one UID-less
	// event; FailAttribute keeps the event with an empty Uid so the
	// fallback ID below can take over.
	parser.Strict = gocal.StrictParams{Mode: gocal.StrictModeFailAttribute}
	if err := parser.Parse(); err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	seenIDs := make(map[string]bool)
	seenKeys := make(map[string]bool)

	events := make([]t.Event, 0, len(parser.Events))
	for _, e := range parser.Events {
		if e.Start == nil || e.End == nil {
			continue
		}
		if e.Status == "CANCELLED" {
			continue
		}

		ev := t.Event{
			ID:       e.Uid,
			Title:    e.Summary,
			Start:    e.Start.In(loc),
			End:      e.End.In(loc),
			AllDay:   isAllDayProp(e.RawStart),
			Notes:    e.Description,
			Location: e.Location,
			SourceID: sourceID,
		}
		if u, ok := e.CustomAttributes["URL"]; ok {
			ev.URL = u
		}
		switch {
		case ev.ID == "":
			ev.ID = fallbackID(sourceID, ev.Start, ev.Title)
		case e.IsRecurring:
			// Expanded occurrences of a recurring event share a UID;
			// qualify it so each occurrence notifies independently.
			ev.ID = ev.ID + "/" + ev.Start.Format(time.RFC3339)
		}

		key := ev.Title + "|" + ev.Start.Format(time.RFC3339)
		if seenIDs[ev.ID] || seenKeys[key] {
			continue
		}
		seenIDs[ev.ID] = true
		seenKeys[key] = true

		events = append(events, ev)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events, nil
}

// fallbackID derives a stable identifier for events whose feed omits a
// UID. uuid.NewSHA1 keeps it deterministic across ticks.
func fallbackID(sourceID string, start time.Time, title string) string {
	seed := sourceID + "|" + start.Format(time.RFC3339) + "|" + title
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(seed)).String()
}

func isAllDayProp(raw gocal.RawDate) bool {
	if v, ok := raw.Params["VALUE"]; ok && strings.EqualFold(v, "DATE") {
		return true
	}
	return raw.Value != "" && !strings.Contains(raw.Value, "T")
}

// EventsForDay fetches and parses every configured source and merges
// the results into one start-sorted list. A failing source is logged
// and skipped so a single feed outage does not blank the agenda; an
// error is returned only when every source failed.
func (c *Calendar) EventsForDay(sources []Source, day time.Time, defaultTZ string) ([]t.Event, error) {
	var merged []t.Event
	failed := 0

	for _, src := range sources {
		tz := src.TZ
		if tz == "" {
			tz = defaultTZ
		}

		data, err := c.DownloadCalendar(src.URL)
		if err != nil {
			failed++
			c.Logger.Error("calendar fetch failed", zap.String("source", src.ID), zap.Error(err))
			continue
		}

		events, err := c.ParseCalendar(data, tz, day, src.ID)
		if err != nil {
			failed++
			c.Logger.Error("calendar parse failed", zap.String("source", src.ID), zap.Error(err))
			continue
		}

		c.Logger.Info("calendar fetched",
			zap.String("source", src.ID),
			zap.Int("events", len(events)))
		merged = append(merged, events...)
	}

	if len(sources) > 0 && failed == len(sources) {
		return nil, fmt.Errorf("all %d calendar sources failed", failed)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Start.Before(merged[j].Start)
	})
	return merged, nil
}
