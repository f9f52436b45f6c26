package poller

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/calebpeterson/Upcoming/calendar"
	t "github.com/calebpeterson/Upcoming/types"
)

type stubFetcher struct {
	events []t.Event
	err    error
	calls  int
}

func (s *stubFetcher) EventsForDay(_ []calendar.Source, _ time.Time, _ string) ([]t.Event, error) {
	s.calls++
	return s.events, s.err
}

var tick = time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestPoller(f Fetcher, now time.Time) *Poller {
	p := New(zap.NewNop(), f, Options{})
	p.now = func() time.Time { return now }
	return p
}

func TestRunOncePublishesSnapshot(tt *testing.T) {
	fetcher := &stubFetcher{events: []t.Event{
		{ID: "standup", Title: "Standup", Start: tick.Add(10 * time.Minute), End: tick.Add(25 * time.Minute)},
		{ID: "pto", Title: "PTO", Start: tick.Add(-9 * time.Hour), End: tick.Add(15 * time.Hour), AllDay: true},
	}}
	p := newTestPoller(fetcher, tick)

	p.RunOnce()
	snap := p.Snapshot()

	assert.Equal(tt, tick, snap.FetchedAt)
	require.NotNil(tt, snap.Next)
	assert.Equal(tt, "standup", snap.Next.ID)
	assert.Contains(tt, snap.Status, "Standup")
	assert.Contains(tt, snap.Status, "in 10 m")
	assert.Len(tt, snap.AllDay, 1)
	assert.Len(tt, snap.Regular, 1)
	assert.Empty(tt, snap.Err)
}

func TestRunOnceResolvesJoinActions(tt *testing.T) {
	fetcher := &stubFetcher{events: []t.Event{
		{
			ID:    "sync",
			Title: "Sync",
			Start: tick.Add(90 * time.Second),
			End:   tick.Add(30 * time.Minute),
			Notes: "join https://zoom.us/j/123456789",
		},
	}}
	p := newTestPoller(fetcher, tick)

	p.RunOnce()
	snap := p.Snapshot()

	require.Len(tt, snap.Regular, 1)
	entry := snap.Regular[0]
	assert.True(tt, entry.CanJoin)
	assert.Equal(tt, "https://zoom.us/j/123456789", entry.JoinURL)
	assert.Equal(tt, "zoommtg://zoom.us/join?confno=123456789", entry.DeepLink)

	// The same event is within the notify lead, so it is due exactly
	// once, carrying the deep link.
	require.Len(tt, snap.Due, 1)
	assert.Equal(tt, "sync", snap.Due[0].Event.ID)
	assert.Equal(tt, "zoommtg://zoom.us/join?confno=123456789", snap.Due[0].JoinURL)
}

func TestRunOnceNotifiesOnlyOnce(tt *testing.T) {
	fetcher := &stubFetcher{events: []t.Event{
		{ID: "soon", Title: "Soon", Start: tick.Add(90 * time.Second), End: tick.Add(30 * time.Minute)},
	}}
	p := newTestPoller(fetcher, tick)

	p.RunOnce()
	require.Len(tt, p.Snapshot().Due, 1)

	p.now = func() time.Time { return tick.Add(10 * time.Second) }
	p.RunOnce()
	assert.Empty(tt, p.Snapshot().Due, "second tick must not re-notify")

	// The retained buffer still holds the one emission.
	assert.Len(tt, p.Recent(), 1)
}

func TestRunOnceKeepsSnapshotOnFetchError(tt *testing.T) {
	fetcher := &stubFetcher{events: []t.Event{
		{ID: "standup", Title: "Standup", Start: tick.Add(10 * time.Minute), End: tick.Add(25 * time.Minute)},
	}}
	p := newTestPoller(fetcher, tick)

	p.RunOnce()
	require.NotNil(tt, p.Snapshot().Next)

	fetcher.err = errors.New("all 1 calendar sources failed")
	p.RunOnce()

	snap := p.Snapshot()
	assert.Equal(tt, "all 1 calendar sources failed", snap.Err)
	require.NotNil(tt, snap.Next, "previous agenda survives a failed fetch")
	assert.Equal(tt, "standup", snap.Next.ID)
}

func TestRunOnceEmptyDay(tt *testing.T) {
	p := newTestPoller(&stubFetcher{}, tick)

	p.RunOnce()
	snap := p.Snapshot()

	assert.Nil(tt, snap.Next)
	assert.Equal(tt, "No upcoming events", snap.Status)
	assert.Empty(tt, snap.Due)
}

func TestRecentBufferBounded(tt *testing.T) {
	p := New(zap.NewNop(), &stubFetcher{}, Options{RecentSize: 2})

	base := tick
	for i := 0; i < 4; i++ {
		offset := time.Duration(i*10) * time.Minute
		fetcher := &stubFetcher{events: []t.Event{
			{
				ID:    string(rune('a' + i)),
				Start: base.Add(offset + 90*time.Second),
				End:   base.Add(offset + 5*time.Minute),
			},
		}}
		p.fetcher = fetcher
		now := base.Add(offset)
		p.now = func() time.Time { return now }
		p.RunOnce()
	}

	recent := p.Recent()
	require.Len(tt, recent, 2)
	assert.Equal(tt, "c", recent[0].Event.ID)
	assert.Equal(tt, "d", recent[1].Event.ID)
}
