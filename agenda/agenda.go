// Package agenda holds the pure event pipeline: partitioning a day's
// events, picking the next upcoming one, rendering the status line and
// deciding which events are due for a starting-soon notification. Every
// function is a plain computation over its inputs; the only state that
// survives a tick is the NotifiedSet, which is threaded through
// DueForNotification as a value.
package agenda

import (
	"fmt"
	"sort"
	"time"

	t "github.com/calebpeterson/Upcoming/types"
)

const (
	// NoEventsStatus is shown when nothing is left on today's agenda.
	NoEventsStatus = "No upcoming events"

	// UntitledPlaceholder stands in for events without a summary.
	UntitledPlaceholder = "Untitled Event"

	// DefaultNotifyLead is how far ahead of its start an event becomes
	// due for a starting-soon notification.
	DefaultNotifyLead = 2 * time.Minute

	// SoonWindow is how far ahead of its start the status line begins
	// counting down to the next event.
	SoonWindow = 60 * time.Minute
)

// IsAllDay reports whether an event should be treated as all-day:
// either the feed marked it as such, or it spans at least a full day.
func IsAllDay(ev t.Event) bool {
	return ev.AllDay || ev.End.Sub(ev.Start) >= 24*time.Hour
}

// Classify splits a day's events into all-day/multi-day and regular
// events. Every input event lands in exactly one half; both halves come
// back sorted by start time, with ties keeping their input order.
func Classify(events []t.Event) (allDay, regular []t.Event) {
	sorted := make([]t.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	for _, ev := range sorted {
		if IsAllDay(ev) {
			allDay = append(allDay, ev)
		} else {
			regular = append(regular, ev)
		}
	}
	return allDay, regular
}

// NextUpcoming returns the first event still in play at now, which is
// either in progress or not yet started. Input must be sorted by start
// time. Returns nil once everything has ended.
func NextUpcoming(regular []t.Event, now time.Time) *t.Event {
	for i := range regular {
		if regular[i].End.After(now) {
			ev := regular[i]
			return &ev
		}
	}
	return nil
}

// StatusSummary renders the status-bar line for the next event. An
// in-progress event shows remaining minutes; one starting within the
// soon window shows minutes until start. Both counts round up, so an
// event never shows 0 minutes while it is still current.
func StatusSummary(next *t.Event, now time.Time) string {
	if next == nil {
		return NoEventsStatus
	}

	title := next.Title
	if title == "" {
		title = UntitledPlaceholder
	}
	summary := fmt.Sprintf("%s - %s", next.Start.Format("3:04 PM"), title)

	switch {
	case !now.Before(next.Start) && now.Before(next.End):
		summary += fmt.Sprintf(" (%dm left)", minutesCeil(next.End.Sub(now)))
	case now.Before(next.Start) && next.Start.Sub(now) <= SoonWindow:
		summary += fmt.Sprintf(" (in %d m)", minutesCeil(next.Start.Sub(now)))
	}
	return summary
}

func minutesCeil(d time.Duration) int {
	return int((d + time.Minute - 1) / time.Minute)
}

// NotifiedSet tracks which occurrences have already produced a
// starting-soon notification this session. It has value semantics:
// DueForNotification returns a fresh set rather than mutating its input.
type NotifiedSet map[string]struct{}

func NewNotifiedSet() NotifiedSet { return NotifiedSet{} }

func (s NotifiedSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// DueForNotification picks the events that newly crossed the
// starting-soon threshold and folds the notified-id set forward. An
// event is due when it starts within lead of now and its id has not
// been notified yet; emitting it marks the id. Ids whose occurrence has
// ended, or which no longer appear in the day's events, are dropped
// from the returned set so a recurring id can notify again on a later
// occurrence. Calling this twice with the same now and events never
// emits a still-current event a second time.
func DueForNotification(regular []t.Event, now time.Time, lead time.Duration, set NotifiedSet) (due []t.Event, next NotifiedSet) {
	if lead <= 0 {
		lead = DefaultNotifyLead
	}

	byID := make(map[string]t.Event, len(regular))
	for _, ev := range regular {
		byID[ev.ID] = ev
	}

	next = make(NotifiedSet, len(set))
	for id := range set {
		ev, ok := byID[id]
		if !ok || ev.End.Before(now) {
			continue
		}
		next[id] = struct{}{}
	}

	cutoff := now.Add(lead)
	for _, ev := range regular {
		if !ev.Start.After(now) || ev.Start.After(cutoff) {
			continue
		}
		if next.Has(ev.ID) {
			continue
		}
		due = append(due, ev)
		next[ev.ID] = struct{}{}
	}
	return due, next
}
