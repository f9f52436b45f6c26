package types

import "time"

// Event is a single concrete occurrence of a calendar event, bounded to
// the current day window. Recurring events arrive already expanded, one
// Event per occurrence, each with its own stable ID.
type Event struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	AllDay   bool      `json:"allDay"`
	Notes    string    `json:"notes,omitempty"`
	Location string    `json:"location,omitempty"`
	URL      string    `json:"url,omitempty"`
	SourceID string    `json:"sourceId,omitempty"`
}

type BaseResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type IcsRequest struct {
	ICSUrl string `json:"icsUrl"`
	TZ     string `json:"tz"`
}

type IcsResponse struct {
	EventName      string `json:"eventName"`
	EventStartTime int64  `json:"eventStart"`
	EventEndTime   int64  `json:"eventEnd"`
	EventLocation  string `json:"eventLocation,omitempty"`
	JoinURL        string `json:"joinUrl,omitempty"`
}

// StatusResponse is the status-bar line plus enough context for a thin
// client to decide how to render it.
type StatusResponse struct {
	Status    string    `json:"status"`
	HasEvents bool      `json:"hasEvents"`
	FetchedAt time.Time `json:"fetchedAt"`
	Error     string    `json:"error,omitempty"`
}

// AgendaEntry is a menu row: the event itself plus its resolved
// open-action. CanJoin tells the client whether the row gets a Join
// control; DeepLink, when present, should be preferred over JoinURL.
type AgendaEntry struct {
	Event
	InProgress bool   `json:"inProgress"`
	CanJoin    bool   `json:"canJoin"`
	JoinURL    string `json:"joinUrl,omitempty"`
	DeepLink   string `json:"deepLink,omitempty"`
}

type AgendaResponse struct {
	AllDay  []AgendaEntry `json:"allDay"`
	Regular []AgendaEntry `json:"regular"`
}

// Notification is one starting-soon popup: the event and the URL its
// Join action should open.
type Notification struct {
	Event   Event     `json:"event"`
	JoinURL string    `json:"joinUrl,omitempty"`
	At      time.Time `json:"at"`
}
