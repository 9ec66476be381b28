package breaker

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := New(DefaultThreshold, DefaultCooldown, clock)

	for i := 0; i < DefaultThreshold-1; i++ {
		b.RecordFailure()
		assert.Equal(t, Closed, b.State())
		assert.True(t, b.Allow())
	}

	b.RecordFailure()
	assert.Equal(t, Open, b.State())
	assert.False(t, b.Allow())
}

func TestBreakerResetsAfterCooldown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := New(DefaultThreshold, DefaultCooldown, clock)

	for i := 0; i < DefaultThreshold; i++ {
		b.RecordFailure()
	}
	assert.False(t, b.Allow())

	// Just before the cooldown elapses the breaker stays open.
	clock.Advance(DefaultCooldown - time.Second)
	assert.False(t, b.Allow())

	clock.Advance(2 * time.Second)
	assert.True(t, b.Allow())
	assert.Equal(t, HalfOpen, b.State())
	assert.Equal(t, 0, b.ConsecutiveFailures())
	assert.Equal(t, 1.0, b.Multiplier())
}

func TestSuccessResetsFailureCountAndRelaxesMultiplier(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := New(DefaultThreshold, DefaultCooldown, clock)

	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, 2, b.ConsecutiveFailures())
	assert.InDelta(t, 1.1*1.1, b.Multiplier(), 1e-9)

	b.RecordSuccess()
	assert.Equal(t, Closed, b.State())
	assert.Equal(t, 0, b.ConsecutiveFailures())
	assert.InDelta(t, 1.1*1.1*0.9, b.Multiplier(), 1e-9)
}

func TestMultiplierBounds(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := New(100, DefaultCooldown, clock)

	for i := 0; i < 50; i++ {
		b.RecordFailure()
	}
	assert.Equal(t, 2.0, b.Multiplier())

	for i := 0; i < 50; i++ {
		b.RecordSuccess()
	}
	assert.Equal(t, 0.5, b.Multiplier())
}

func TestHalfOpenFailureCountsFromZero(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := New(DefaultThreshold, DefaultCooldown, clock)

	for i := 0; i < DefaultThreshold; i++ {
		b.RecordFailure()
	}
	clock.Advance(DefaultCooldown + time.Second)
	assert.True(t, b.Allow())

	// A single failure in half-open does not reopen the breaker; it takes a
	// full threshold run of failures again.
	b.RecordFailure()
	assert.NotEqual(t, Open, b.State())
	assert.True(t, b.Allow())
}
