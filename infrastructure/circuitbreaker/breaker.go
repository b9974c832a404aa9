// Package circuitbreaker short-circuits calls to an upstream that keeps failing.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker is open
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the state of the circuit breaker
type State int

const (
	// StateClosed means the circuit is closed and requests are allowed
	StateClosed State = iota
	// StateOpen means the circuit is open and requests are blocked
	StateOpen
	// StateHalfOpen means one probe request is allowed through
	StateHalfOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config configures a circuit breaker
type Config struct {
	// Name identifies the protected upstream in errors and callbacks
	Name string
	// FailureThreshold is the number of consecutive failures before opening the circuit
	FailureThreshold int
	// SuccessThreshold is the number of consecutive successes in half-open state before closing
	SuccessThreshold int
	// Timeout is how long the circuit stays open before transitioning to half-open
	Timeout time.Duration
	// IsFailure decides which errors count against the upstream. Defaults to any non-nil error.
	IsFailure func(error) bool
	// OnStateChange is an optional callback when state changes
	OnStateChange func(name string, from, to State)
}

// DefaultConfig returns a default circuit breaker configuration
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 1,
		Timeout:          60 * time.Second,
	}
}

// Breaker implements a circuit breaker pattern
type Breaker struct {
	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	probeInFlight   bool
	lastFailureTime time.Time
	config          Config
	now             func() time.Time
}

// New creates a new circuit breaker with the given configuration
func New(config Config) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}

	return &Breaker{
		state:  StateClosed,
		config: config,
		now:    time.Now,
	}
}

// Execute runs fn unless the circuit is open. Errors from fn are returned unchanged.
func (b *Breaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	probe, err := b.beforeCall()
	if err != nil {
		return err
	}

	err = fn()
	b.afterCall(probe, err)

	return err
}

func (b *Breaker) beforeCall() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		elapsed := b.now().Sub(b.lastFailureTime)
		if elapsed < b.config.Timeout {
			return false, fmt.Errorf("%w: %s retries after %v", ErrCircuitOpen, b.config.Name, b.config.Timeout-elapsed)
		}
		b.transitionTo(StateHalfOpen)
	}

	if b.state == StateHalfOpen {
		if b.probeInFlight {
			return false, fmt.Errorf("%w: %s probe in flight", ErrCircuitOpen, b.config.Name)
		}
		b.probeInFlight = true
		return true, nil
	}

	return false, nil
}

func (b *Breaker) afterCall(probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if probe {
		b.probeInFlight = false
	}

	if b.config.IsFailure(err) {
		b.recordFailure()
	} else {
		b.recordSuccess()
	}
}

func (b *Breaker) recordFailure() {
	b.failureCount++
	b.lastFailureTime = b.now()

	switch b.state {
	case StateClosed:
		if b.failureCount >= b.config.FailureThreshold {
			b.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		b.transitionTo(StateOpen)
	case StateOpen:
	}
}

func (b *Breaker) recordSuccess() {
	b.failureCount = 0

	if b.state == StateHalfOpen {
		b.successCount++
		if b.successCount >= b.config.SuccessThreshold {
			b.transitionTo(StateClosed)
		}
	}
}

func (b *Breaker) transitionTo(newState State) {
	if b.state == newState {
		return
	}

	oldState := b.state
	b.state = newState
	b.successCount = 0
	if newState != StateHalfOpen {
		b.failureCount = 0
	}

	if b.config.OnStateChange != nil {
		b.config.OnStateChange(b.config.Name, oldState, newState)
	}
}

// State returns the current state of the circuit breaker
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset resets the circuit breaker to closed state
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probeInFlight = false
	b.transitionTo(StateClosed)
}
