package scheduler

import (
	"sync"
	"time"

	"github.com/vatpac-net/ingestd/internal/metrics"
)

// breakerState mirrors the closed/open/half-open machine required by
// spec §4.I/§7 without naming a component for it.
type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// breaker is a per-ticker circuit breaker: it trips open after
// consecutive failures, backs off exponentially, then allows one
// half-open trial tick before closing again.
type breaker struct {
	name string

	mu            sync.Mutex
	state         breakerState
	consecutive   int
	nextAttempt   time.Time
	backoff       time.Duration
	maxBackoff    time.Duration
	failThreshold int
}

func newBreaker(name string, failThreshold int, maxBackoff time.Duration) *breaker {
	b := &breaker{
		name:          name,
		state:         breakerClosed,
		backoff:       time.Second,
		maxBackoff:    maxBackoff,
		failThreshold: failThreshold,
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	return b
}

// Allow reports whether the ticker should run its work this cycle.
func (b *breaker) Allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerOpen:
		if now.Before(b.nextAttempt) {
			return false
		}
		b.state = breakerHalfOpen
		metrics.CircuitBreakerState.WithLabelValues(b.name).Set(2)
		return true
	default:
		return true
	}
}

// RecordSuccess closes the breaker and resets the failure count.
func (b *breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutive = 0
	b.backoff = time.Second
	if b.state != breakerClosed {
		b.state = breakerClosed
		metrics.CircuitBreakerState.WithLabelValues(b.name).Set(0)
	}
}

// IsOpen reports whether the breaker is currently open.
func (b *breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == breakerOpen
}

// RecordFailure counts a failure and opens the breaker once the
// consecutive-failure threshold is reached, doubling the backoff each
// time it re-opens from half-open.
func (b *breaker) RecordFailure(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutive++
	if b.state == breakerHalfOpen || b.consecutive >= b.failThreshold {
		b.state = breakerOpen
		b.nextAttempt = now.Add(b.backoff)
		metrics.CircuitBreakerState.WithLabelValues(b.name).Set(1)
		b.backoff *= 2
		if b.backoff > b.maxBackoff {
			b.backoff = b.maxBackoff
		}
	}
}
