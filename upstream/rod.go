package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pointbreak/models"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
)

// RodEngine implements Engine on a single headless browser process shared
// by all page sessions. Page sessions are isolated tabs; the fingerprint
// override is applied per tab.
type RodEngine struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	crashes  chan CrashEvent
}

// NewRodEngine launches the headless browser and connects to it.
func NewRodEngine() (*RodEngine, error) {
	l := launcher.New().Headless(true)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &RodEngine{
		browser:  browser,
		launcher: l,
		crashes:  make(chan CrashEvent, 16),
	}, nil
}

// Navigate opens a new tab, applies the fingerprint and loads the URL.
func (e *RodEngine) Navigate(ctx context.Context, url string, fp models.Fingerprint) (PageSession, error) {
	page, err := e.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	page = page.Context(ctx)

	if fp.UserAgent != "" {
		override := &proto.NetworkSetUserAgentOverride{UserAgent: fp.UserAgent}
		if fp.AcceptLanguage != "" {
			override.AcceptLanguage = fp.AcceptLanguage
		}
		if err := page.SetUserAgent(override); err != nil {
			_ = page.Close()
			return nil, fmt.Errorf("failed to apply user agent: %w", err)
		}
	}
	if fp.ViewportWidth > 0 && fp.ViewportHeight > 0 {
		viewport := &proto.EmulationSetDeviceMetricsOverride{
			Width:             fp.ViewportWidth,
			Height:            fp.ViewportHeight,
			DeviceScaleFactor: 1,
		}
		if err := page.SetViewport(viewport); err != nil {
			_ = page.Close()
			return nil, fmt.Errorf("failed to apply viewport: %w", err)
		}
	}

	if err := page.Navigate(url); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("page did not finish loading: %w", err)
	}

	session := &rodSession{id: uuid.New().String(), page: page}
	go session.watchCrash(e.crashes)
	return session, nil
}

// CrashEvents implements Engine.
func (e *RodEngine) CrashEvents() <-chan CrashEvent {
	return e.crashes
}

// Close shuts down the browser process.
func (e *RodEngine) Close() error {
	err := e.browser.Close()
	e.launcher.Cleanup()
	return err
}

type rodSession struct {
	id   string
	page *rod.Page
}

func (s *rodSession) ID() string {
	return s.id
}

// ExecuteInPage evaluates the script with (args, credentialsMode) and
// returns the JSON encoding of its resolved value.
func (s *rodSession) ExecuteInPage(ctx context.Context, script string, args interface{}, credentialsMode string) ([]byte, error) {
	result, err := s.page.Context(ctx).Eval(script, args, credentialsMode)
	if err != nil {
		return nil, fmt.Errorf("in-page script failed: %w", err)
	}
	encoded, err := json.Marshal(result.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode script result: %w", err)
	}
	return encoded, nil
}

// ReadCookies returns the tab's cookie jar.
func (s *rodSession) ReadCookies(ctx context.Context) ([]models.Cookie, error) {
	raw, err := s.page.Context(ctx).Cookies(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	cookies := make([]models.Cookie, 0, len(raw))
	for _, c := range raw {
		cookie := models.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		}
		if c.Expires > 0 {
			cookie.Expires = time.Unix(int64(c.Expires), 0)
		}
		cookies = append(cookies, cookie)
	}
	return cookies, nil
}

func (s *rodSession) Close() error {
	return s.page.Close()
}

// watchCrash forwards a crash event for this tab. Normal page close ends
// the event loop without emitting anything.
func (s *rodSession) watchCrash(crashes chan<- CrashEvent) {
	crashed := false
	wait := s.page.EachEvent(func(e *proto.InspectorTargetCrashed) bool {
		crashed = true
		return true
	})
	wait()
	if crashed {
		select {
		case crashes <- CrashEvent{SessionID: s.id, Reason: "target crashed"}:
		default:
		}
	}
}
