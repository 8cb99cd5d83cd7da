package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"pointbreak/models"
	"pointbreak/utils"
)

// SearchResponse is the raw outcome of one synthetic upstream search.
type SearchResponse struct {
	Status int
	Body   []byte
}

// Client issues a direct upstream search carrying a pooled session's cookie
// jar and fingerprint headers, without driving a browser.
type Client interface {
	Search(ctx context.Context, payload []byte, cookies []models.Cookie, fp models.Fingerprint) (*SearchResponse, error)
}

// RejectedStatus reports whether an upstream status code is the
// authentication/rate signal class that warrants the browser fallback.
func RejectedStatus(code int) bool {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden, 419, http.StatusTooManyRequests:
		return true
	}
	return false
}

// HTTPClient implements Client on a shared net/http client.
type HTTPClient struct {
	hc       *http.Client
	endpoint string
}

// NewHTTPClient builds the synthetic search client.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		hc:       &http.Client{Timeout: timeout},
		endpoint: utils.UpstreamSearchURL,
	}
}

// Search POSTs the itinerary payload with the session's identity attached.
// The header set mirrors what the booking page itself sends.
func (c *HTTPClient) Search(ctx context.Context, payload []byte, cookies []models.Cookie, fp models.Fingerprint) (*SearchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}

	req.Header.Set("accept", "application/json, text/plain, */*")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("origin", utils.UpstreamOrigin)
	req.Header.Set("referer", utils.UpstreamBookingURL)
	req.Header.Set("sec-fetch-site", "same-origin")
	req.Header.Set("sec-fetch-mode", "cors")
	req.Header.Set("sec-fetch-dest", "empty")
	if fp.UserAgent != "" {
		req.Header.Set("user-agent", fp.UserAgent)
	}
	if fp.AcceptLanguage != "" {
		req.Header.Set("accept-language", fp.AcceptLanguage)
	}

	for _, cookie := range cookies {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	return &SearchResponse{Status: resp.StatusCode, Body: body}, nil
}
