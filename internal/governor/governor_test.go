package governor_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housingreview/internal/domain"
	"housingreview/internal/governor"
)

// fakeClock advances its own time whenever something waits on it.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

// stuckClock never lets a wait complete.
type stuckClock struct{ now time.Time }

func (c stuckClock) Now() time.Time                       { return c.now }
func (c stuckClock) After(time.Duration) <-chan time.Time { return nil }

func testConfig() governor.Config {
	return governor.Config{
		MaxConcurrentCalls: 5,
		MinCallInterval:    400 * time.Millisecond,
		CooldownDuration:   15 * time.Second,
	}
}

func TestAcquire_EnforcesMinimumSpacing(t *testing.T) {
	clock := newFakeClock()
	start := clock.Now()
	g := governor.New(testConfig(), governor.WithClock(clock))
	ctx := context.Background()

	var granted []time.Duration
	for i := 0; i < 3; i++ {
		p, err := g.Acquire(ctx, domain.PriorityPrimary)
		require.NoError(t, err)
		granted = append(granted, p.GrantedAt().Sub(start))
		g.Release(p, governor.OutcomeSuccess)
	}

	assert.Equal(t, []time.Duration{0, 400 * time.Millisecond, 800 * time.Millisecond}, granted)
}

func TestRelease_ThrottledEntersCooldown(t *testing.T) {
	clock := newFakeClock()
	start := clock.Now()
	g := governor.New(testConfig(), governor.WithClock(clock))
	ctx := context.Background()

	p, err := g.Acquire(ctx, domain.PriorityPrimary)
	require.NoError(t, err)
	g.Release(p, governor.OutcomeThrottled)

	state, until := g.State()
	assert.Equal(t, governor.StateThrottled, state)
	assert.Equal(t, start.Add(15*time.Second), until)

	p, err = g.Acquire(ctx, domain.PriorityPrimary)
	require.NoError(t, err)
	assert.Equal(t, start.Add(15*time.Second), p.GrantedAt())
	g.Release(p, governor.OutcomeSuccess)

	state, _ = g.State()
	assert.Equal(t, governor.StateAdmitting, state)

	// The cooldown delays admission once; the next call only waits for spacing.
	p, err = g.Acquire(ctx, domain.PriorityPrimary)
	require.NoError(t, err)
	assert.Equal(t, start.Add(15*time.Second+400*time.Millisecond), p.GrantedAt())
	g.Release(p, governor.OutcomeSuccess)

	assert.Equal(t, 1, g.Stats().Throttled)
}

func TestRelease_IsIdempotent(t *testing.T) {
	cfg := testConfig()
	cfg.MaxConcurrentCalls = 1
	cfg.MinCallInterval = 0
	g := governor.New(cfg)

	p, err := g.Acquire(context.Background(), domain.PriorityPrimary)
	require.NoError(t, err)
	g.Release(p, governor.OutcomeSuccess)
	g.Release(p, governor.OutcomeThrottled)
	g.Release(nil, governor.OutcomeSuccess)

	state, _ := g.State()
	assert.Equal(t, governor.StateAdmitting, state)
	assert.Equal(t, 0, g.Stats().InUse)

	p, err = g.Acquire(context.Background(), domain.PriorityPrimary)
	require.NoError(t, err)
	defer g.Release(p, governor.OutcomeSuccess)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Acquire(ctx, domain.PriorityPrimary)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAcquire_BoundsConcurrency(t *testing.T) {
	cfg := testConfig()
	cfg.MaxConcurrentCalls = 3
	cfg.MinCallInterval = 0
	g := governor.New(cfg)

	var inFlight, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := g.Acquire(context.Background(), domain.PriorityPrimary)
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inFlight, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			g.Release(p, governor.OutcomeSuccess)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.Equal(t, 12, g.Stats().Granted[domain.PriorityPrimary])
	assert.Equal(t, 0, g.Stats().InUse)
}

func TestAcquire_CancelDuringCooldownReleasesSlot(t *testing.T) {
	cfg := testConfig()
	cfg.MaxConcurrentCalls = 1
	g := governor.New(cfg, governor.WithClock(stuckClock{now: time.Now()}))

	p, err := g.Acquire(context.Background(), domain.PriorityPrimary)
	require.NoError(t, err)
	g.Release(p, governor.OutcomeThrottled)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Acquire(ctx, domain.PriorityFallbackOwner)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, g.Stats().InUse)

	state, _ := g.State()
	assert.Equal(t, governor.StateThrottled, state)
}

func TestStats_CountsPerPriority(t *testing.T) {
	cfg := testConfig()
	cfg.MinCallInterval = 0
	g := governor.New(cfg)
	ctx := context.Background()

	for _, pr := range []domain.TaskPriority{
		domain.PriorityPrimary,
		domain.PriorityPrimary,
		domain.PriorityClassification,
		domain.PriorityFallbackOwner,
	} {
		p, err := g.Acquire(ctx, pr)
		require.NoError(t, err)
		assert.Equal(t, pr, p.Priority())
		g.Release(p, governor.OutcomeSuccess)
	}

	stats := g.Stats()
	assert.Equal(t, 2, stats.Granted[domain.PriorityPrimary])
	assert.Equal(t, 1, stats.Granted[domain.PriorityClassification])
	assert.Equal(t, 1, stats.Granted[domain.PriorityFallbackOwner])
}
