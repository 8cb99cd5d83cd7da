// Package sessionpool owns the set of authenticated upstream sessions.
// All handle state transitions, usage counting and cookie merges happen
// inside this package; other components only borrow handles via Lease.
package sessionpool

import (
	"context"
	"errors"
	"sync"
	"time"

	"pointbreak/models"
	"pointbreak/upstream"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrPoolExhausted is returned when no session becomes available within the
// pool-wide lease wait timeout.
var ErrPoolExhausted = errors.New("session pool exhausted")

// ErrPoolClosed is returned for leases issued after shutdown began.
var ErrPoolClosed = errors.New("session pool closed")

// Outcome reports how a leased handle fared, driving its next state.
type Outcome int

const (
	// OutcomeHealthy returns the handle to service.
	OutcomeHealthy Outcome = iota
	// OutcomeRejected means upstream flagged the session (auth/rate signal).
	OutcomeRejected
	// OutcomeCrashed means the underlying browser context died.
	OutcomeCrashed
	// OutcomeTimedOut means the caller's deadline elapsed. The session
	// itself is not suspect, so the handle stays in service.
	OutcomeTimedOut
)

// Handle is one authenticated upstream session. Fields other than the
// exported ones are guarded by the owning pool's mutex. A Busy handle is
// borrowed by exactly one dispatcher call at a time.
type Handle struct {
	ID          string
	Cookies     []models.Cookie
	Fingerprint models.Fingerprint
	Page        upstream.PageSession

	slot       int
	usageCount int
	state      models.SessionState
	crashed    bool
	createdAt  time.Time
}

// HydratedSession is the raw material a Hydrator produces for a new handle.
type HydratedSession struct {
	Page        upstream.PageSession
	Cookies     []models.Cookie
	Fingerprint models.Fingerprint
}

// Hydrator performs the out-of-band warm-up flow that establishes a fresh
// authenticated session.
type Hydrator interface {
	Hydrate(ctx context.Context) (*HydratedSession, error)
}

// Config tunes the pool.
type Config struct {
	Size              int
	RotationThreshold int
	LeaseWaitTimeout  time.Duration
	HydrationRetries  int
	HydrationBackoff  time.Duration
}

func (c *Config) applyDefaults() {
	if c.Size <= 0 {
		c.Size = 1
	}
	if c.RotationThreshold <= 0 {
		c.RotationThreshold = 75
	}
	if c.LeaseWaitTimeout <= 0 {
		c.LeaseWaitTimeout = 45 * time.Second
	}
	if c.HydrationRetries <= 0 {
		c.HydrationRetries = 3
	}
	if c.HydrationBackoff <= 0 {
		c.HydrationBackoff = 2 * time.Second
	}
}

// Pool manages a fixed arena of session slots. Replacement hydration writes
// a new handle into the slot; the worn handle is retired, never reused.
type Pool struct {
	mu        sync.Mutex
	cfg       Config
	hydrator  Hydrator
	logger    *zap.Logger
	slots     []*Handle
	hydrating []bool
	waiters   []chan *Handle
	closed    bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewPool builds a pool; call Start to begin hydrating sessions.
func NewPool(cfg Config, hydrator Hydrator, logger *zap.Logger) *Pool {
	cfg.applyDefaults()
	return &Pool{
		cfg:       cfg,
		hydrator:  hydrator,
		logger:    logger,
		slots:     make([]*Handle, cfg.Size),
		hydrating: make([]bool, cfg.Size),
		stopCh:    make(chan struct{}),
	}
}

// Start kicks off hydration for every slot.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureHydrationLocked()
}

// WatchCrashes degrades handles whose browser context reported a crash.
// Busy handles are flagged and degraded on release so in-flight work is not
// dropped; idle handles are degraded immediately.
func (p *Pool) WatchCrashes(events <-chan upstream.CrashEvent) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-p.stopCh:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				p.handleCrash(ev)
			}
		}
	}()
}

func (p *Pool) handleCrash(ev upstream.CrashEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, h := range p.slots {
		if h == nil || h.Page == nil || h.Page.ID() != ev.SessionID {
			continue
		}
		p.logger.Warn("browser session crashed",
			zap.String("handleId", h.ID),
			zap.String("reason", ev.Reason),
			zap.String("state", string(h.state)))
		if h.state == models.SessionBusy {
			h.crashed = true
		} else if h.state != models.SessionRetired {
			p.degradeLocked(h)
		}
		return
	}
}

// Lease returns a Ready handle, transitioning it to Busy. If none is
// available it queues the caller (FIFO) and triggers background hydration,
// blocking until a handle frees up, the context ends, or the pool-wide
// wait timeout elapses.
func (p *Pool) Lease(ctx context.Context) (*Handle, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	for _, h := range p.slots {
		if h != nil && h.state == models.SessionReady {
			h.state = models.SessionBusy
			p.mu.Unlock()
			return h, nil
		}
	}
	p.ensureHydrationLocked()
	waiter := make(chan *Handle, 1)
	p.waiters = append(p.waiters, waiter)
	p.mu.Unlock()

	timer := time.NewTimer(p.cfg.LeaseWaitTimeout)
	defer timer.Stop()

	select {
	case h := <-waiter:
		return h, nil
	case <-ctx.Done():
		p.abandonWaiter(waiter)
		return nil, ctx.Err()
	case <-timer.C:
		p.abandonWaiter(waiter)
		return nil, ErrPoolExhausted
	case <-p.stopCh:
		p.abandonWaiter(waiter)
		return nil, ErrPoolClosed
	}
}

// abandonWaiter removes a waiter from the queue; if a handle was delivered
// in the meantime it is put back into service without counting a use.
func (p *Pool) abandonWaiter(waiter chan *Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, w := range p.waiters {
		if w == waiter {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			break
		}
	}
	select {
	case h := <-waiter:
		p.returnToServiceLocked(h)
	default:
	}
}

// Release returns a borrowed handle. Usage is counted on every release;
// a rejected or crashed session, or one past the rotation threshold, is
// degraded and scheduled for replacement instead of re-entering service.
func (p *Pool) Release(h *Handle, outcome Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	h.usageCount++
	switch {
	case outcome == OutcomeRejected || outcome == OutcomeCrashed || h.crashed:
		p.degradeLocked(h)
	case h.usageCount >= p.cfg.RotationThreshold:
		p.logger.Info("rotating session past usage threshold",
			zap.String("handleId", h.ID),
			zap.Int("usageCount", h.usageCount))
		p.degradeLocked(h)
	default:
		p.returnToServiceLocked(h)
	}
}

// MergeCookies updates a handle's jar in place with a refreshed cookie set,
// so subsequent fast-path calls inherit the renewed session. The handle is
// leased by the caller, so no concurrent reader exists.
func (p *Pool) MergeCookies(h *Handle, refreshed []models.Cookie) {
	p.mu.Lock()
	defer p.mu.Unlock()

	byKey := make(map[string]int, len(h.Cookies))
	for i, c := range h.Cookies {
		byKey[c.Name+"\x00"+c.Domain+"\x00"+c.Path] = i
	}
	for _, c := range refreshed {
		if i, ok := byKey[c.Name+"\x00"+c.Domain+"\x00"+c.Path]; ok {
			h.Cookies[i] = c
		} else {
			h.Cookies = append(h.Cookies, c)
		}
	}
}

// Snapshot reports the state of every slot.
func (p *Pool) Snapshot() models.PoolSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := models.PoolSnapshot{CheckedAt: time.Now()}
	for i, h := range p.slots {
		status := models.SlotStatus{Slot: i}
		switch {
		case h != nil && (h.state == models.SessionReady || h.state == models.SessionBusy):
			status.HandleID = h.ID
			status.State = h.state
			status.UsageCount = h.usageCount
			status.CreatedAt = h.createdAt
		case p.hydrating[i]:
			// A replacement is being hydrated into this slot.
			status.State = models.SessionWarming
		case h != nil && h.state != models.SessionRetired:
			status.HandleID = h.ID
			status.State = h.state
			status.UsageCount = h.usageCount
			status.CreatedAt = h.createdAt
		default:
			status.State = models.SessionRetired
		}
		snap.Slots = append(snap.Slots, status)
		switch status.State {
		case models.SessionReady, models.SessionBusy, models.SessionWarming:
			snap.Healthy = true
		}
	}
	return snap
}

// Healthy reports whether at least one session is serving or warming.
func (p *Pool) Healthy() bool {
	return p.Snapshot().Healthy
}

// Close retires all handles and stops background work. Leases in flight
// fail with ErrPoolClosed.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.stopCh)
	pages := make([]upstream.PageSession, 0, len(p.slots))
	for _, h := range p.slots {
		if h != nil {
			h.state = models.SessionRetired
			if h.Page != nil {
				pages = append(pages, h.Page)
			}
		}
	}
	p.waiters = nil
	p.mu.Unlock()

	for _, page := range pages {
		_ = page.Close()
	}
	p.wg.Wait()
}

// returnToServiceLocked hands the handle to the oldest waiter, or marks it
// Ready if nobody is queued.
func (p *Pool) returnToServiceLocked(h *Handle) {
	if p.closed || h.state == models.SessionRetired {
		return
	}
	if len(p.waiters) > 0 {
		waiter := p.waiters[0]
		p.waiters = p.waiters[1:]
		h.state = models.SessionBusy
		waiter <- h
		return
	}
	h.state = models.SessionReady
}

// degradeLocked takes the handle out of service and schedules a replacement
// into its slot.
func (p *Pool) degradeLocked(h *Handle) {
	h.state = models.SessionDegraded
	if h.Page != nil {
		page := h.Page
		go func() { _ = page.Close() }()
	}
	p.ensureHydrationLocked()
}

// ensureHydrationLocked starts background hydration for every slot that has
// no serving handle and is not already warming.
func (p *Pool) ensureHydrationLocked() {
	if p.closed {
		return
	}
	for i, h := range p.slots {
		if p.hydrating[i] {
			continue
		}
		if h != nil && (h.state == models.SessionReady || h.state == models.SessionBusy || h.state == models.SessionWarming) {
			continue
		}
		p.hydrating[i] = true
		p.wg.Add(1)
		go p.hydrateSlot(i)
	}
}

// hydrateSlot establishes a fresh session and installs it into the slot,
// retiring whatever handle occupied it before. Retries with backoff.
func (p *Pool) hydrateSlot(slot int) {
	defer p.wg.Done()

	backoff := p.cfg.HydrationBackoff
	for attempt := 1; attempt <= p.cfg.HydrationRetries; attempt++ {
		select {
		case <-p.stopCh:
			p.finishHydration(slot)
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.LeaseWaitTimeout)
		hydrated, err := p.hydrator.Hydrate(ctx)
		cancel()
		if err != nil {
			p.logger.Warn("session hydration failed",
				zap.Int("slot", slot),
				zap.Int("attempt", attempt),
				zap.Error(err))
			select {
			case <-p.stopCh:
				p.finishHydration(slot)
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		h := &Handle{
			ID:          uuid.New().String(),
			Cookies:     hydrated.Cookies,
			Fingerprint: hydrated.Fingerprint,
			Page:        hydrated.Page,
			slot:        slot,
			state:       models.SessionReady,
			createdAt:   time.Now(),
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			_ = hydrated.Page.Close()
			return
		}
		if old := p.slots[slot]; old != nil {
			old.state = models.SessionRetired
		}
		p.slots[slot] = h
		p.hydrating[slot] = false
		p.logger.Info("session hydrated",
			zap.Int("slot", slot),
			zap.String("handleId", h.ID),
			zap.String("userAgent", h.Fingerprint.UserAgent))
		p.returnToServiceLocked(h)
		p.mu.Unlock()
		return
	}

	p.finishHydration(slot)
	p.logger.Error("giving up on session hydration", zap.Int("slot", slot))
}

func (p *Pool) finishHydration(slot int) {
	p.mu.Lock()
	p.hydrating[slot] = false
	p.mu.Unlock()
}
