// Package upstream contains the two ways this service talks to the booking
// upstream: a synthetic HTTP client that replays a harvested session, and a
// browser engine that drives a real rendered session when the synthetic
// path is rejected.
package upstream

import (
	"context"

	"pointbreak/models"
)

// Credentials modes for in-page fetches.
const (
	CredentialsInclude    = "include"
	CredentialsSameOrigin = "same-origin"
)

// CrashEvent signals that a browser page session died underneath us.
type CrashEvent struct {
	SessionID string
	Reason    string
}

// Engine is the browser capability the session pool hydrates sessions with.
type Engine interface {
	// Navigate opens a new page session with the given fingerprint applied
	// and waits for the document to load. Zero-value fingerprint fields are
	// left at the browser's own defaults.
	Navigate(ctx context.Context, url string, fp models.Fingerprint) (PageSession, error)
	// CrashEvents emits an event when a live page session crashes. The pool
	// subscribes to this to degrade the affected handle.
	CrashEvents() <-chan CrashEvent
	Close() error
}

// PageSession is one live rendered page bound to a session's fingerprint.
type PageSession interface {
	ID() string
	// ExecuteInPage evaluates script (a JS function taking (args,
	// credentials)) inside the page and returns its JSON-encoded result.
	ExecuteInPage(ctx context.Context, script string, args interface{}, credentialsMode string) ([]byte, error)
	// ReadCookies returns the page context's current cookie jar.
	ReadCookies(ctx context.Context) ([]models.Cookie, error)
	Close() error
}
