// Package dispatch routes one logical upstream search through the fast
// synthetic-client path, falling back to the browser-mediated path exactly
// once when upstream rejects the replayed session.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pointbreak/models"
	"pointbreak/services/sessionpool"
	"pointbreak/upstream"
	"pointbreak/utils"

	"go.uber.org/zap"
)

// ErrUpstreamUnavailable means both the fast path and the browser fallback
// failed for a search.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// ErrUpstreamTimeout means the per-search deadline elapsed. The session that
// served the call is preserved.
var ErrUpstreamTimeout = errors.New("upstream search timed out")

// errUpstreamRejected is the internal authentication/rate signal that moves
// an attempt from the fast path to the fallback path. It never escapes
// Execute.
var errUpstreamRejected = errors.New("upstream rejected session")

// fallbackFetchScript performs the itinerary search from inside the warm
// booking page, so the request carries the page's own live session.
const fallbackFetchScript = `async (args, credentials) => {
	const headers = {
		'accept': 'application/json, text/plain, */*',
		'content-type': 'application/json',
		'origin': location.origin,
		'referer': location.href,
		'sec-fetch-site': 'same-origin',
		'sec-fetch-mode': 'cors',
		'sec-fetch-dest': 'empty'
	};
	try {
		const res = await fetch(args.apiUrl, {
			method: 'POST',
			credentials,
			headers,
			body: JSON.stringify(args.payload),
		});
		const text = await res.text();
		return { status: res.status, body: text };
	} catch (error) {
		return { error: String(error) };
	}
}`

type attemptState int

const (
	attemptingFast attemptState = iota
	attemptingFallback
	attemptDone
	attemptFailed
)

// Dispatcher executes upstream searches against leased pool sessions.
type Dispatcher struct {
	Pool    *sessionpool.Pool
	Client  upstream.Client
	Logger  *zap.Logger
	Timeout time.Duration
}

// Execute runs one search of the given type. It leases a session, tries the
// fast path, recovers a rejection through the browser fallback (merging any
// refreshed cookies back into the pool), and releases the session with an
// outcome matching how the attempt ended.
func (d *Dispatcher) Execute(ctx context.Context, req models.SearchRequest, searchType string) ([]models.RawOffer, error) {
	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	handle, err := d.Pool.Lease(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrUpstreamTimeout
		}
		return nil, err
	}

	payload, err := json.Marshal(BuildSearchPayload(req, searchType))
	if err != nil {
		d.Pool.Release(handle, sessionpool.OutcomeHealthy)
		return nil, fmt.Errorf("failed to encode search payload: %w", err)
	}

	var (
		offers   []models.RawOffer
		attempt  error
		rejected bool
		state    = attemptingFast
	)
	for state == attemptingFast || state == attemptingFallback {
		switch state {
		case attemptingFast:
			offers, attempt = d.fastPath(ctx, handle, payload, searchType)
			switch {
			case attempt == nil:
				state = attemptDone
			case errors.Is(attempt, errUpstreamRejected):
				d.Logger.Info("fast path rejected, falling back to browser",
					zap.String("handleId", handle.ID),
					zap.String("searchType", searchType))
				rejected = true
				state = attemptingFallback
			default:
				state = attemptFailed
			}
		case attemptingFallback:
			offers, attempt = d.fallbackPath(ctx, handle, payload, searchType)
			if attempt == nil {
				state = attemptDone
			} else {
				state = attemptFailed
			}
		}
	}

	if state == attemptDone {
		d.Pool.Release(handle, sessionpool.OutcomeHealthy)
		d.Logger.Debug("search completed",
			zap.String("searchType", searchType),
			zap.Int("offers", len(offers)))
		return offers, nil
	}

	if ctx.Err() != nil || errors.Is(attempt, context.DeadlineExceeded) {
		// A deadline does not implicate the session itself.
		d.Pool.Release(handle, sessionpool.OutcomeTimedOut)
		return nil, ErrUpstreamTimeout
	}

	if rejected {
		d.Logger.Warn("both upstream paths failed",
			zap.String("handleId", handle.ID),
			zap.String("searchType", searchType),
			zap.Error(attempt))
		d.Pool.Release(handle, sessionpool.OutcomeRejected)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, attempt)
	}

	// A failure without an upstream rejection does not implicate the session.
	d.Logger.Warn("upstream search failed",
		zap.String("handleId", handle.ID),
		zap.String("searchType", searchType),
		zap.Error(attempt))
	d.Pool.Release(handle, sessionpool.OutcomeHealthy)
	return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, attempt)
}

// fastPath replays the session's cookie jar over the synthetic client.
func (d *Dispatcher) fastPath(ctx context.Context, handle *sessionpool.Handle, payload []byte, searchType string) ([]models.RawOffer, error) {
	resp, err := d.Client.Search(ctx, payload, handle.Cookies, handle.Fingerprint)
	if err != nil {
		return nil, err
	}
	if upstream.RejectedStatus(resp.Status) {
		return nil, errUpstreamRejected
	}
	if resp.Status >= 400 {
		return nil, fmt.Errorf("upstream responded with HTTP %d", resp.Status)
	}
	if len(resp.Body) == 0 {
		return nil, errors.New("upstream returned an empty body")
	}
	return ParseOffers(resp.Body, searchType)
}

// fallbackPath re-executes the search inside the handle's browser session
// and harvests the refreshed cookie jar back into the pool.
func (d *Dispatcher) fallbackPath(ctx context.Context, handle *sessionpool.Handle, payload []byte, searchType string) ([]models.RawOffer, error) {
	args := map[string]interface{}{
		"apiUrl":  utils.UpstreamSearchURL,
		"payload": json.RawMessage(payload),
	}
	raw, err := handle.Page.ExecuteInPage(ctx, fallbackFetchScript, args, upstream.CredentialsInclude)
	if err != nil {
		return nil, err
	}

	var result struct {
		Status int    `json:"status"`
		Body   string `json:"body"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("unexpected fallback result: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("in-page fetch failed: %s", result.Error)
	}
	if result.Status >= 400 {
		return nil, fmt.Errorf("upstream responded with HTTP %d", result.Status)
	}
	if result.Body == "" {
		return nil, errors.New("upstream returned an empty body")
	}

	if cookies, err := handle.Page.ReadCookies(ctx); err != nil {
		d.Logger.Warn("failed to harvest refreshed cookies", zap.Error(err))
	} else {
		d.Pool.MergeCookies(handle, cookies)
	}

	return ParseOffers([]byte(result.Body), searchType)
}
