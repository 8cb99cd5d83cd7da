package models

import "time"

// SessionState tracks a pooled upstream session through its lifetime.
type SessionState string

const (
	SessionWarming  SessionState = "warming"
	SessionReady    SessionState = "ready"
	SessionBusy     SessionState = "busy"
	SessionDegraded SessionState = "degraded"
	SessionRetired  SessionState = "retired"
)

// Cookie is one entry in a session's jar, as harvested from the browser.
type Cookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Domain  string    `json:"domain,omitempty"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

// Fingerprint is the client identity a session presents upstream. The fast
// path replays it as headers; the fallback path runs inside a browser
// context configured with it. A handle never changes fingerprint.
type Fingerprint struct {
	UserAgent      string `json:"userAgent"`
	AcceptLanguage string `json:"acceptLanguage"`
	ViewportWidth  int    `json:"viewportWidth"`
	ViewportHeight int    `json:"viewportHeight"`
}

// SlotStatus is a point-in-time view of one pool slot, for the admin
// surface and readiness probe.
type SlotStatus struct {
	Slot       int          `json:"slot"`
	HandleID   string       `json:"handleId,omitempty"`
	State      SessionState `json:"state"`
	UsageCount int          `json:"usageCount"`
	CreatedAt  time.Time    `json:"createdAt,omitempty"`
}

// PoolSnapshot aggregates slot statuses.
type PoolSnapshot struct {
	Slots     []SlotStatus `json:"slots"`
	Healthy   bool         `json:"healthy"`
	CheckedAt time.Time    `json:"checkedAt"`
}
