// Package breaker implements a consecutive-failure circuit breaker with an
// adaptive backoff multiplier, used to guard calls against a flaky upstream.
package breaker

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// State describes the breaker position.
type State int

const (
	// Closed allows calls through.
	Closed State = iota
	// Open short-circuits calls until the cooldown elapses.
	Open
	// HalfOpen is entered when the cooldown elapses; the next call is allowed
	// through and its outcome decides whether the breaker closes again.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

const (
	// DefaultThreshold is the number of consecutive failures before the
	// breaker opens.
	DefaultThreshold = 5
	// DefaultCooldown is how long the breaker stays open after the last
	// failure before it auto-resets.
	DefaultCooldown = 15 * time.Minute

	baselineMultiplier = 1.0
	minMultiplier      = 0.5
	maxMultiplier      = 2.0
)

// Breaker tracks consecutive upstream failures. It is not safe for concurrent
// use; callers must serialize access or use one instance per worker.
type Breaker struct {
	clock     clockwork.Clock
	threshold int
	cooldown  time.Duration

	state               State
	consecutiveFailures int
	lastFailureAt       time.Time
	multiplier          float64
}

// New creates a breaker with the given failure threshold and cooldown.
func New(threshold int, cooldown time.Duration, clock clockwork.Clock) *Breaker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Breaker{
		clock:      clock,
		threshold:  threshold,
		cooldown:   cooldown,
		state:      Closed,
		multiplier: baselineMultiplier,
	}
}

// Allow reports whether a call may proceed. When the breaker is open and the
// cooldown since the last failure has elapsed, it transitions to half-open and
// resets the failure count and backoff multiplier to baseline.
func (b *Breaker) Allow() bool {
	if b.state != Open {
		return true
	}

	if b.clock.Since(b.lastFailureAt) > b.cooldown {
		b.state = HalfOpen
		b.consecutiveFailures = 0
		b.multiplier = baselineMultiplier
		return true
	}

	return false
}

// RecordSuccess closes the breaker, clears the failure count, and relaxes the
// backoff multiplier.
func (b *Breaker) RecordSuccess() {
	b.state = Closed
	b.consecutiveFailures = 0
	b.multiplier = b.multiplier * 0.9
	if b.multiplier < minMultiplier {
		b.multiplier = minMultiplier
	}
}

// RecordFailure counts a failure, tightens the backoff multiplier, and opens
// the breaker once the threshold is reached.
func (b *Breaker) RecordFailure() {
	b.consecutiveFailures++
	b.lastFailureAt = b.clock.Now()
	b.multiplier = b.multiplier * 1.1
	if b.multiplier > maxMultiplier {
		b.multiplier = maxMultiplier
	}

	if b.consecutiveFailures >= b.threshold {
		b.state = Open
	}
}

// State returns the current breaker position.
func (b *Breaker) State() State {
	return b.state
}

// ConsecutiveFailures returns the current consecutive failure count.
func (b *Breaker) ConsecutiveFailures() int {
	return b.consecutiveFailures
}

// Multiplier returns the current backoff multiplier in [0.5, 2.0].
func (b *Breaker) Multiplier() float64 {
	return b.multiplier
}
