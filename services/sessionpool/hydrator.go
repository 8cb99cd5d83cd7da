package sessionpool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"

	"pointbreak/models"
	"pointbreak/upstream"
	"pointbreak/utils"

	"go.uber.org/zap"
)

// Viewports replacement handles rotate through, so a fresh session does not
// present the exact fingerprint of its predecessor.
var hydrationViewports = [][2]int{
	{1280, 800},
	{1366, 768},
	{1440, 900},
	{1536, 864},
	{1920, 1080},
}

// identityScript reads the identity the browser actually presents, so the
// fast path replays the same fingerprint instead of a synthesized one.
const identityScript = `(args, credentials) => ({
	userAgent: navigator.userAgent,
	language: navigator.languages && navigator.languages.length
		? navigator.languages.join(',')
		: navigator.language,
})`

// BrowserHydrator warms the upstream booking surface in a fresh browser
// session and captures the resulting cookie jar and fingerprint.
type BrowserHydrator struct {
	Engine upstream.Engine
	Logger *zap.Logger
}

// Hydrate implements Hydrator.
func (h *BrowserHydrator) Hydrate(ctx context.Context) (*HydratedSession, error) {
	viewport := hydrationViewports[rand.Intn(len(hydrationViewports))]
	fp := models.Fingerprint{
		ViewportWidth:  viewport[0],
		ViewportHeight: viewport[1],
	}

	page, err := h.Engine.Navigate(ctx, utils.UpstreamBookingURL, fp)
	if err != nil {
		return nil, fmt.Errorf("failed to warm booking page: %w", err)
	}

	raw, err := page.ExecuteInPage(ctx, identityScript, nil, upstream.CredentialsSameOrigin)
	if err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("failed to read browser identity: %w", err)
	}
	var identity struct {
		UserAgent string `json:"userAgent"`
		Language  string `json:"language"`
	}
	if err := json.Unmarshal(raw, &identity); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("failed to decode browser identity: %w", err)
	}
	fp.UserAgent = identity.UserAgent
	fp.AcceptLanguage = identity.Language

	cookies, err := page.ReadCookies(ctx)
	if err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("failed to harvest cookies: %w", err)
	}
	if len(cookies) == 0 {
		_ = page.Close()
		return nil, errors.New("warm-up produced an empty cookie jar")
	}

	h.Logger.Debug("hydrated upstream session",
		zap.Int("cookies", len(cookies)),
		zap.String("userAgent", fp.UserAgent))

	return &HydratedSession{Page: page, Cookies: cookies, Fingerprint: fp}, nil
}
