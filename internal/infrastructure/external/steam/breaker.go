package steam

import (
	"errors"
	"sync"
	"time"
)

// circuitState represents the state of the client's circuit breaker.
type circuitState int

const (
	// circuitClosed - normal operation, requests pass through.
	circuitClosed circuitState = iota
	// circuitOpen - circuit is open, requests fail fast.
	circuitOpen
	// circuitHalfOpen - testing if Steam recovered.
	circuitHalfOpen
)

// String returns the string representation of the circuit state.
func (s circuitState) String() string {
	switch s {
	case circuitClosed:
		return "closed"
	case circuitOpen:
		return "open"
	case circuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when the circuit is open and calls to the
// Steam Web API fail fast instead of piling onto a failing upstream.
var ErrCircuitOpen = errors.New("steam: circuit breaker is open")

// BreakerConfig contains configuration for the client's circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive infrastructure
	// failures (timeouts, 5xx) before the circuit opens. Denied and
	// malformed responses never count: a private profile is not an
	// outage.
	FailureThreshold int

	// SuccessThreshold is the number of successes needed to close the
	// circuit from half-open.
	SuccessThreshold int

	// Timeout is how long to wait in open state before probing again.
	Timeout time.Duration

	// HalfOpenMaxProbes is the number of test requests allowed while
	// half-open.
	HalfOpenMaxProbes int
}

// DefaultBreakerConfig returns conservative defaults for the Steam Web
// API, which degrades in bursts during maintenance windows.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold:  5,
		SuccessThreshold:  2,
		Timeout:           30 * time.Second,
		HalfOpenMaxProbes: 3,
	}
}

// breaker implements the circuit breaker pattern for the Steam client.
type breaker struct {
	mu sync.Mutex

	failureThreshold  int
	successThreshold  int
	timeout           time.Duration
	halfOpenMaxProbes int

	state           circuitState
	failures        int
	successes       int
	halfOpenProbes  int
	lastStateChange time.Time
}

func newBreaker(cfg BreakerConfig) *breaker {
	return &breaker{
		failureThreshold:  cfg.FailureThreshold,
		successThreshold:  cfg.SuccessThreshold,
		timeout:           cfg.Timeout,
		halfOpenMaxProbes: cfg.HalfOpenMaxProbes,
		state:             circuitClosed,
		lastStateChange:   time.Now(),
	}
}

// allow checks whether a request may go out.
func (b *breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case circuitClosed:
		return nil

	case circuitOpen:
		if time.Since(b.lastStateChange) > b.timeout {
			b.toHalfOpen()
			b.halfOpenProbes++
			return nil
		}
		return ErrCircuitOpen

	case circuitHalfOpen:
		if b.halfOpenProbes < b.halfOpenMaxProbes {
			b.halfOpenProbes++
			return nil
		}
		return ErrCircuitOpen
	}

	return nil
}

// recordSuccess records a successful request.
func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case circuitHalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.toClosed()
		}
	case circuitClosed:
		b.failures = 0
	}
}

// recordFailure records an infrastructure failure.
func (b *breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++

	switch b.state {
	case circuitClosed:
		if b.failures >= b.failureThreshold {
			b.toOpen()
		}
	case circuitHalfOpen:
		// Any failure while probing opens the circuit again.
		b.toOpen()
	}
}

// State transitions, called with the lock held.

func (b *breaker) toClosed() {
	b.state = circuitClosed
	b.failures = 0
	b.successes = 0
	b.halfOpenProbes = 0
	b.lastStateChange = time.Now()
}

func (b *breaker) toOpen() {
	b.state = circuitOpen
	b.lastStateChange = time.Now()
}

func (b *breaker) toHalfOpen() {
	b.state = circuitHalfOpen
	b.successes = 0
	b.halfOpenProbes = 0
	b.lastStateChange = time.Now()
}

// currentState returns the state for logging and tests.
func (b *breaker) currentState() circuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
