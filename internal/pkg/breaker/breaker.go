// Package breaker provides a small circuit breaker used to stop hammering
// the message bus while it is down, so publishes fall through to local
// delivery without paying a connect attempt each time.
package breaker

import (
	"sync"
	"time"
)

// State of the breaker.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker opens after threshold consecutive failures and stays open for
// coolOff; the first Allow after the cool-off admits a single probe.
type Breaker struct {
	mu        sync.Mutex
	state     State
	failures  int
	threshold int
	coolOff   time.Duration
	openedAt  time.Time
	probing   bool
}

// New builds a closed breaker. threshold <= 0 defaults to 3,
// coolOff <= 0 to 30 seconds.
func New(threshold int, coolOff time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 3
	}
	if coolOff <= 0 {
		coolOff = 30 * time.Second
	}
	return &Breaker{threshold: threshold, coolOff: coolOff}
}

// Allow reports whether the caller may attempt the guarded operation.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if time.Since(b.openedAt) < b.coolOff {
			return false
		}
		b.state = HalfOpen
		b.probing = true
		return true
	case HalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

// Success records a successful attempt and closes the breaker.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failures = 0
	b.probing = false
}

// Failure records a failed attempt; enough consecutive failures (or a
// failed half-open probe) open the breaker.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	switch b.state {
	case HalfOpen:
		b.state = Open
		b.openedAt = time.Now()
	default:
		b.failures++
		if b.failures >= b.threshold {
			b.state = Open
			b.openedAt = time.Now()
		}
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
