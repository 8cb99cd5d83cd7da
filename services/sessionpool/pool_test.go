package sessionpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"pointbreak/models"
	"pointbreak/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePage struct {
	id     string
	mu     sync.Mutex
	closed bool
}

func (p *fakePage) ID() string { return p.id }

func (p *fakePage) ExecuteInPage(ctx context.Context, script string, args interface{}, credentialsMode string) ([]byte, error) {
	return []byte(`{}`), nil
}

func (p *fakePage) ReadCookies(ctx context.Context) ([]models.Cookie, error) {
	return []models.Cookie{{Name: "session", Value: "fresh"}}, nil
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

type fakeHydrator struct {
	mu    sync.Mutex
	count int
	err   error
	delay time.Duration
}

func (h *fakeHydrator) Hydrate(ctx context.Context) (*HydratedSession, error) {
	if h.delay > 0 {
		select {
		case <-time.After(h.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	h.count++
	return &HydratedSession{
		Page:        &fakePage{id: fmt.Sprintf("page-%d", h.count)},
		Cookies:     []models.Cookie{{Name: "session", Value: fmt.Sprintf("v%d", h.count)}},
		Fingerprint: models.Fingerprint{UserAgent: "test-agent"},
	}, nil
}

func (h *fakeHydrator) hydrations() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func newTestPool(t *testing.T, cfg Config, hydrator Hydrator) *Pool {
	t.Helper()
	if cfg.HydrationBackoff == 0 {
		cfg.HydrationBackoff = 10 * time.Millisecond
	}
	pool := NewPool(cfg, hydrator, zap.NewNop())
	pool.Start()
	t.Cleanup(pool.Close)
	return pool
}

func leaseWithin(t *testing.T, pool *Pool, timeout time.Duration) *Handle {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	h, err := pool.Lease(ctx)
	require.NoError(t, err)
	return h
}

func TestPool_LeaseAndRelease(t *testing.T) {
	t.Parallel()

	hydrator := &fakeHydrator{}
	pool := newTestPool(t, Config{Size: 1}, hydrator)

	h := leaseWithin(t, pool, time.Second)
	require.NotNil(t, h)
	assert.Equal(t, "test-agent", h.Fingerprint.UserAgent)

	pool.Release(h, OutcomeHealthy)

	again := leaseWithin(t, pool, time.Second)
	assert.Equal(t, h.ID, again.ID, "healthy handle should return to service")
	pool.Release(again, OutcomeHealthy)
}

func TestPool_ConcurrentLeasesServedFIFO(t *testing.T) {
	t.Parallel()

	hydrator := &fakeHydrator{}
	pool := newTestPool(t, Config{Size: 1, LeaseWaitTimeout: 5 * time.Second}, hydrator)

	first := leaseWithin(t, pool, time.Second)

	order := make(chan string, 2)
	started := make(chan struct{}, 2)
	leaseInOrder := func(label string) {
		started <- struct{}{}
		h := leaseWithin(t, pool, 5*time.Second)
		order <- label
		pool.Release(h, OutcomeHealthy)
	}

	go leaseInOrder("A")
	<-started
	time.Sleep(100 * time.Millisecond) // let A enqueue before B arrives
	go leaseInOrder("B")
	<-started
	time.Sleep(100 * time.Millisecond)

	pool.Release(first, OutcomeHealthy)

	assert.Equal(t, "A", <-order)
	assert.Equal(t, "B", <-order)
}

func TestPool_SingleHandleNeverDoubleLeased(t *testing.T) {
	t.Parallel()

	hydrator := &fakeHydrator{}
	pool := newTestPool(t, Config{Size: 1, LeaseWaitTimeout: 5 * time.Second}, hydrator)

	const workers = 8
	var (
		mu     sync.Mutex
		inUse  int
		maxUse int
	)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := leaseWithin(t, pool, 5*time.Second)
			mu.Lock()
			inUse++
			if inUse > maxUse {
				maxUse = inUse
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			inUse--
			mu.Unlock()
			pool.Release(h, OutcomeHealthy)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxUse, "pool of one must never lease concurrently")
}

func TestPool_RotationAfterThreshold(t *testing.T) {
	t.Parallel()

	hydrator := &fakeHydrator{}
	pool := newTestPool(t, Config{Size: 1, RotationThreshold: 75, LeaseWaitTimeout: 5 * time.Second}, hydrator)

	first := leaseWithin(t, pool, time.Second)
	firstID := first.ID
	pool.Release(first, OutcomeHealthy)

	for i := 0; i < 73; i++ {
		h := leaseWithin(t, pool, time.Second)
		require.Equal(t, firstID, h.ID, "handle should survive below the threshold")
		pool.Release(h, OutcomeHealthy)
	}

	// 75th use crosses the threshold; the release degrades the handle.
	h := leaseWithin(t, pool, time.Second)
	require.Equal(t, firstID, h.ID)
	pool.Release(h, OutcomeHealthy)

	replacement := leaseWithin(t, pool, 5*time.Second)
	assert.NotEqual(t, firstID, replacement.ID, "worn handle must never be leased again")
	pool.Release(replacement, OutcomeHealthy)
}

func TestPool_RejectedReleaseDegrades(t *testing.T) {
	t.Parallel()

	hydrator := &fakeHydrator{}
	pool := newTestPool(t, Config{Size: 1, LeaseWaitTimeout: 5 * time.Second}, hydrator)

	h := leaseWithin(t, pool, time.Second)
	firstID := h.ID
	page := h.Page.(*fakePage)
	pool.Release(h, OutcomeRejected)

	replacement := leaseWithin(t, pool, 5*time.Second)
	assert.NotEqual(t, firstID, replacement.ID)
	pool.Release(replacement, OutcomeHealthy)

	require.Eventually(t, func() bool {
		page.mu.Lock()
		defer page.mu.Unlock()
		return page.closed
	}, time.Second, 10*time.Millisecond, "degraded handle's page should be closed")
}

func TestPool_TimeoutReleaseKeepsHandle(t *testing.T) {
	t.Parallel()

	hydrator := &fakeHydrator{}
	pool := newTestPool(t, Config{Size: 1}, hydrator)

	h := leaseWithin(t, pool, time.Second)
	pool.Release(h, OutcomeTimedOut)

	again := leaseWithin(t, pool, time.Second)
	assert.Equal(t, h.ID, again.ID, "a timeout does not implicate the session")
	pool.Release(again, OutcomeHealthy)
}

func TestPool_LeaseTimesOutWhenHydrationFails(t *testing.T) {
	t.Parallel()

	hydrator := &fakeHydrator{err: errors.New("fingerprint banned")}
	pool := newTestPool(t, Config{
		Size:             1,
		LeaseWaitTimeout: 100 * time.Millisecond,
		HydrationRetries: 2,
	}, hydrator)

	_, err := pool.Lease(context.Background())
	assert.ErrorIs(t, err, ErrPoolExhausted)
}

func TestPool_MergeCookiesVisibleOnNextLease(t *testing.T) {
	t.Parallel()

	hydrator := &fakeHydrator{}
	pool := newTestPool(t, Config{Size: 1}, hydrator)

	h := leaseWithin(t, pool, time.Second)
	pool.MergeCookies(h, []models.Cookie{
		{Name: "session", Value: "refreshed"},
		{Name: "bm_sv", Value: "abc123", Domain: ".aa.com"},
	})
	pool.Release(h, OutcomeHealthy)

	again := leaseWithin(t, pool, time.Second)
	defer pool.Release(again, OutcomeHealthy)

	values := map[string]string{}
	for _, c := range again.Cookies {
		values[c.Name] = c.Value
	}
	assert.Equal(t, "refreshed", values["session"], "existing cookie should be replaced in place")
	assert.Equal(t, "abc123", values["bm_sv"], "new cookie should be appended")
}

func TestPool_CrashDegradesIdleHandle(t *testing.T) {
	t.Parallel()

	hydrator := &fakeHydrator{}
	pool := newTestPool(t, Config{Size: 1, LeaseWaitTimeout: 5 * time.Second}, hydrator)

	crashes := make(chan upstream.CrashEvent, 1)
	pool.WatchCrashes(crashes)

	h := leaseWithin(t, pool, time.Second)
	firstID := h.ID
	pageID := h.Page.ID()
	pool.Release(h, OutcomeHealthy)

	crashes <- upstream.CrashEvent{SessionID: pageID, Reason: "target crashed"}

	require.Eventually(t, func() bool {
		snap := pool.Snapshot()
		for _, slot := range snap.Slots {
			if slot.HandleID == firstID {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond, "crashed idle handle should leave the pool")

	replacement := leaseWithin(t, pool, 5*time.Second)
	assert.NotEqual(t, firstID, replacement.ID)
	pool.Release(replacement, OutcomeHealthy)
}

func TestPool_CrashWhileBusyDegradesOnRelease(t *testing.T) {
	t.Parallel()

	hydrator := &fakeHydrator{}
	pool := newTestPool(t, Config{Size: 1, LeaseWaitTimeout: 5 * time.Second}, hydrator)

	crashes := make(chan upstream.CrashEvent, 1)
	pool.WatchCrashes(crashes)

	h := leaseWithin(t, pool, time.Second)
	firstID := h.ID
	crashes <- upstream.CrashEvent{SessionID: h.Page.ID(), Reason: "target crashed"}

	// The in-flight lease keeps the handle until release.
	require.Eventually(t, func() bool {
		pool.mu.Lock()
		defer pool.mu.Unlock()
		return h.crashed
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, models.SessionBusy, pool.Snapshot().Slots[0].State)

	pool.Release(h, OutcomeHealthy)

	replacement := leaseWithin(t, pool, 5*time.Second)
	assert.NotEqual(t, firstID, replacement.ID, "a crashed session must not re-enter service")
	pool.Release(replacement, OutcomeHealthy)
}

func TestPool_SnapshotReportsWarming(t *testing.T) {
	t.Parallel()

	hydrator := &fakeHydrator{delay: 200 * time.Millisecond}
	pool := newTestPool(t, Config{Size: 2}, hydrator)

	snap := pool.Snapshot()
	require.Len(t, snap.Slots, 2)
	assert.Equal(t, models.SessionWarming, snap.Slots[0].State)
	assert.True(t, snap.Healthy, "warming slots count toward readiness")
}

func TestPool_ClosedPoolRejectsLeases(t *testing.T) {
	t.Parallel()

	hydrator := &fakeHydrator{}
	pool := NewPool(Config{Size: 1, HydrationBackoff: 10 * time.Millisecond}, hydrator, zap.NewNop())
	pool.Start()
	pool.Close()

	_, err := pool.Lease(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
}
