// Package poller drives the refresh tick: fetch today's events, run the
// agenda pipeline and publish an immutable snapshot for the HTTP layer.
// Ticks are serialized by the cron schedule; the notified-id set is the
// only state carried from one tick to the next.
package poller

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/calebpeterson/Upcoming/agenda"
	"github.com/calebpeterson/Upcoming/calendar"
	"github.com/calebpeterson/Upcoming/meeting"
	t "github.com/calebpeterson/Upcoming/types"
)

// Fetcher supplies the day's events. *calendar.Calendar satisfies it;
// tests substitute a stub.
type Fetcher interface {
	EventsForDay(sources []calendar.Source, day time.Time, defaultTZ string) ([]t.Event, error)
}

// Snapshot is the published result of one tick. Slices are replaced
// wholesale on every tick and must not be mutated by readers.
type Snapshot struct {
	FetchedAt time.Time
	Status    string
	AllDay    []t.AgendaEntry
	Regular   []t.AgendaEntry
	Next      *t.Event
	Due       []t.Notification
	Err       string
}

type Options struct {
	Sources    []calendar.Source
	Timezone   string
	Interval   time.Duration // tick interval, default 60s
	NotifyLead time.Duration // starting-soon threshold, default 2m
	RecentSize int           // notifications retained for slow clients
}

type Poller struct {
	logger  *zap.Logger
	fetcher Fetcher
	opts    Options

	cron *cron.Cron
	now  func() time.Time

	mu       sync.RWMutex
	snapshot Snapshot
	notified agenda.NotifiedSet
	recent   []t.Notification
}

func New(logger *zap.Logger, fetcher Fetcher, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.NotifyLead <= 0 {
		opts.NotifyLead = agenda.DefaultNotifyLead
	}
	if opts.RecentSize <= 0 {
		opts.RecentSize = 32
	}
	return &Poller{
		logger:  logger,
		fetcher: fetcher,
		opts:    opts,
		now:     time.Now,
		snapshot: Snapshot{
			Status: agenda.NoEventsStatus,
		},
		notified: agenda.NewNotifiedSet(),
	}
}

// Start runs one tick immediately, then schedules the rest.
func (p *Poller) Start() error {
	p.RunOnce()

	p.cron = cron.New()
	spec := fmt.Sprintf("@every %s", p.opts.Interval)
	if _, err := p.cron.AddFunc(spec, p.RunOnce); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	p.cron.Start()

	p.logger.Info("poller started",
		zap.Duration("interval", p.opts.Interval),
		zap.Int("sources", len(p.opts.Sources)))
	return nil
}

func (p *Poller) Stop() {
	if p.cron != nil {
		p.cron.Stop()
	}
}

// RunOnce performs a single tick. A fetch failure keeps the previous
// snapshot's lists and surfaces the error in the snapshot instead.
func (p *Poller) RunOnce() {
	now := p.now()

	events, err := p.fetcher.EventsForDay(p.opts.Sources, now, p.opts.Timezone)
	if err != nil {
		p.logger.Error("refresh failed", zap.Error(err))
		p.mu.Lock()
		p.snapshot.Err = err.Error()
		p.mu.Unlock()
		return
	}

	allDay, regular := agenda.Classify(events)
	next := agenda.NextUpcoming(regular, now)
	status := agenda.StatusSummary(next, now)

	p.mu.Lock()
	defer p.mu.Unlock()

	due, notified := agenda.DueForNotification(regular, now, p.opts.NotifyLead, p.notified)
	p.notified = notified

	notifications := make([]t.Notification, 0, len(due))
	for _, ev := range due {
		n := t.Notification{Event: ev, At: now}
		if join, ok := meeting.ExtractURL(ev); ok {
			if deep, ok := meeting.Canonicalize(join); ok {
				join = deep
			}
			n.JoinURL = join
		}
		notifications = append(notifications, n)
	}

	p.recent = append(p.recent, notifications...)
	if overflow := len(p.recent) - p.opts.RecentSize; overflow > 0 {
		p.recent = p.recent[overflow:]
	}

	p.snapshot = Snapshot{
		FetchedAt: now,
		Status:    status,
		AllDay:    entries(allDay, now),
		Regular:   entries(regular, now),
		Next:      next,
		Due:       notifications,
	}

	p.logger.Info("refreshed",
		zap.Int("all_day", len(allDay)),
		zap.Int("regular", len(regular)),
		zap.Int("due", len(notifications)),
		zap.String("status", status))
}

// Snapshot returns the latest published tick result.
func (p *Poller) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// Recent returns the retained starting-soon notifications, newest last.
func (p *Poller) Recent() []t.Notification {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]t.Notification, len(p.recent))
	copy(out, p.recent)
	return out
}

func entries(events []t.Event, now time.Time) []t.AgendaEntry {
	out := make([]t.AgendaEntry, 0, len(events))
	for _, ev := range events {
		e := t.AgendaEntry{
			Event:      ev,
			InProgress: !now.Before(ev.Start) && now.Before(ev.End),
		}
		if join, ok := meeting.ExtractURL(ev); ok {
			e.CanJoin = true
			e.JoinURL = join
			if deep, ok := meeting.Canonicalize(join); ok {
				e.DeepLink = deep
			}
		}
		out = append(out, e)
	}
	return out
}
