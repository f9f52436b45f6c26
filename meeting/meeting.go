// Package meeting resolves the URL a Join action should open for a
// calendar event, and rewrites Zoom links into the native client's
// deep-link form.
package meeting

import (
	"net/url"
	"regexp"
	"strings"

	t "github.com/calebpeterson/Upcoming/types"
)

// Host markers that signal a joinable videoconference link.
var providerMarkers = []string{
	"zoom.us",
	"meet.google.com",
	"teams.microsoft.com",
	"webex.com",
	"gotomeeting.com",
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>"{}|\\^[\]` + "`" + `]+`)

// ExtractURL returns the best joinable URL for an event. Candidates are
// pooled from the event's URL field, then its notes, then its location.
// A candidate whose host matches a videoconference provider wins over
// anything else; failing that, the first candidate collected is used.
// Candidates that do not parse as absolute URLs are dropped.
func ExtractURL(ev t.Event) (string, bool) {
	var pool []*url.URL
	add := func(raw string) {
		// Strip sentence punctuation that the detector drags along
		// ("join https://zoom.us/j/42.").
		raw = strings.TrimRight(raw, ".,;:!?)")
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return
		}
		pool = append(pool, u)
	}

	if ev.URL != "" {
		add(ev.URL)
	}
	for _, raw := range urlPattern.FindAllString(ev.Notes, -1) {
		add(raw)
	}
	for _, raw := range urlPattern.FindAllString(ev.Location, -1) {
		add(raw)
	}

	for _, u := range pool {
		if isProvider(u) {
			return u.String(), true
		}
	}
	if len(pool) > 0 {
		return pool[0].String(), true
	}
	return "", false
}

func isProvider(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	for _, marker := range providerMarkers {
		if strings.Contains(host, marker) {
			return true
		}
	}
	return false
}

var zoomMeetingPath = regexp.MustCompile(`^/(?:j|s)/(\d+)`)

// Canonicalize rewrites a Zoom join link into the zoommtg:// deep link
// understood by the native client. Only the /j/<id> and /s/<id> path
// shapes are recognized; any other URL reports no rewrite and the
// caller falls back to opening the original link.
func Canonicalize(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if !strings.Contains(strings.ToLower(u.Hostname()), "zoom.us") {
		return "", false
	}
	m := zoomMeetingPath.FindStringSubmatch(u.Path)
	if m == nil {
		return "", false
	}

	deep := url.URL{
		Scheme:   "zoommtg",
		Host:     "zoom.us",
		Path:     "/join",
		RawQuery: url.Values{"confno": {m[1]}}.Encode(),
	}
	return deep.String(), true
}
