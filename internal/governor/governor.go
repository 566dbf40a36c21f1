// Package governor bounds outbound vision-provider calls: a fixed number of
// concurrent calls, a minimum spacing between call starts, and a cooldown
// window after the provider reports throttling.
package governor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"housingreview/internal/domain"
)

// State is the admission state of a Governor.
type State int

const (
	// StateAdmitting grants permits subject to the slot limit and spacing.
	StateAdmitting State = iota
	// StateThrottled holds every acquire until the cooldown deadline.
	StateThrottled
)

func (s State) String() string {
	if s == StateThrottled {
		return "throttled"
	}
	return "admitting"
}

// Outcome is reported when a permit is released.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeError
	OutcomeThrottled
)

// Config holds the governor tunables.
type Config struct {
	MaxConcurrentCalls int
	MinCallInterval    time.Duration
	CooldownDuration   time.Duration
}

// Option customizes a Governor.
type Option func(*Governor)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(g *Governor) { g.clock = c }
}

// Permit is one granted call slot. Release it exactly once; extra releases
// are ignored.
type Permit struct {
	priority  domain.TaskPriority
	grantedAt time.Time
	once      sync.Once
}

// Priority returns the priority class the permit was granted for.
func (p *Permit) Priority() domain.TaskPriority { return p.priority }

// GrantedAt returns the governor clock time at which the permit was granted.
func (p *Permit) GrantedAt() time.Time { return p.grantedAt }

// Stats is a snapshot of governor activity.
type Stats struct {
	Granted   map[domain.TaskPriority]int
	Throttled int
	InUse     int
}

// Governor is shared by every document processed in the process. Create one
// with New and pass it to each orchestrator.
type Governor struct {
	cfg     Config
	clock   Clock
	slots   chan struct{}
	limiter *rate.Limiter

	mu            sync.Mutex
	state         State
	cooldownUntil time.Time
	granted       map[domain.TaskPriority]int
	throttled     int
}

// New creates a Governor. A non-positive MaxConcurrentCalls is treated as 1.
func New(cfg Config, opts ...Option) *Governor {
	if cfg.MaxConcurrentCalls <= 0 {
		cfg.MaxConcurrentCalls = 1
	}
	g := &Governor{
		cfg:     cfg,
		clock:   realClock{},
		slots:   make(chan struct{}, cfg.MaxConcurrentCalls),
		granted: make(map[domain.TaskPriority]int),
	}
	if cfg.MinCallInterval > 0 {
		g.limiter = rate.NewLimiter(rate.Every(cfg.MinCallInterval), 1)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Acquire blocks until a slot is free, any active cooldown has passed and
// the minimum spacing since the previous grant has elapsed. The only error
// it returns is the context's; the slot is given back in that case.
func (g *Governor) Acquire(ctx context.Context, priority domain.TaskPriority) (*Permit, error) {
	select {
	case g.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	grantedAt, err := g.admit(ctx, priority)
	if err != nil {
		<-g.slots
		return nil, err
	}
	return &Permit{priority: priority, grantedAt: grantedAt}, nil
}

// admit waits out cooldown and spacing while holding a slot. The final state
// check and the grant happen under one lock.
func (g *Governor) admit(ctx context.Context, priority domain.TaskPriority) (time.Time, error) {
	var reservation *rate.Reservation
	for {
		g.mu.Lock()
		now := g.clock.Now()
		if wait := g.cooldownRemainingLocked(now); wait > 0 {
			g.mu.Unlock()
			if reservation != nil {
				reservation.CancelAt(now)
				reservation = nil
			}
			if err := g.sleep(ctx, wait); err != nil {
				return time.Time{}, err
			}
			continue
		}

		if g.limiter != nil && reservation == nil {
			reservation = g.limiter.ReserveN(now, 1)
			if delay := reservation.DelayFrom(now); delay > 0 {
				g.mu.Unlock()
				if err := g.sleep(ctx, delay); err != nil {
					reservation.CancelAt(g.clock.Now())
					return time.Time{}, err
				}
				continue
			}
		}

		g.granted[priority]++
		g.mu.Unlock()
		return now, nil
	}
}

// cooldownRemainingLocked moves Throttled back to Admitting once the deadline
// has passed and returns the remaining wait otherwise.
func (g *Governor) cooldownRemainingLocked(now time.Time) time.Duration {
	if g.state != StateThrottled {
		return 0
	}
	if now.Before(g.cooldownUntil) {
		return g.cooldownUntil.Sub(now)
	}
	g.state = StateAdmitting
	zap.L().Info("governor: cooldown over, admitting")
	return 0
}

func (g *Governor) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-g.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns the permit's slot. OutcomeThrottled starts (or extends) the
// cooldown window; the slot limit itself is never reduced.
func (g *Governor) Release(p *Permit, outcome Outcome) {
	if p == nil {
		return
	}
	p.once.Do(func() {
		if outcome == OutcomeThrottled {
			g.mu.Lock()
			until := g.clock.Now().Add(g.cfg.CooldownDuration)
			if until.After(g.cooldownUntil) {
				g.cooldownUntil = until
			}
			g.state = StateThrottled
			g.throttled++
			g.mu.Unlock()
			zap.L().Warn("governor: provider throttled, entering cooldown",
				zap.String("priority", string(p.priority)),
				zap.Time("until", until),
			)
		}
		<-g.slots
	})
}

// State returns the current admission state and, when throttled, the
// cooldown deadline.
func (g *Governor) State() (State, time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cooldownRemainingLocked(g.clock.Now())
	if g.state == StateThrottled {
		return g.state, g.cooldownUntil
	}
	return g.state, time.Time{}
}

// Stats returns per-priority grant counts and current slot usage.
func (g *Governor) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	granted := make(map[domain.TaskPriority]int, len(g.granted))
	for k, v := range g.granted {
		granted[k] = v
	}
	return Stats{Granted: granted, Throttled: g.throttled, InUse: len(g.slots)}
}
