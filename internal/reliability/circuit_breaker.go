/*-------------------------------------------------------------------------
 *
 * circuit_breaker.go
 *    Circuit breakers for NeuronChat's remote calls
 *
 * Protects node forwarding from hammering an unreachable peer: after
 * enough consecutive failures the circuit opens and calls fail fast
 * until the reset timeout lets one probe through.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/reliability/circuit_breaker.go
 *
 *-------------------------------------------------------------------------
 */

package reliability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/neurondb/NeuronChat/internal/metrics"
)

/* State is the circuit position */
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

/* CircuitBreaker fails fast after consecutive failures */
type CircuitBreaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration

	mu           sync.Mutex
	state        State
	failureCount int
	lastFailure  time.Time
}

/* NewCircuitBreaker creates a closed breaker */
func NewCircuitBreaker(name string, maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:         name,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        StateClosed,
	}
}

/*
Execute runs fn unless the circuit is open.
An open circuit transitions to half-open once the reset timeout has
passed; the next call probes the target and either closes the
circuit or re-opens it.
*/
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	cb.mu.Lock()
	if cb.state == StateOpen {
		if time.Since(cb.lastFailure) < cb.resetTimeout {
			cb.mu.Unlock()
			return fmt.Errorf("circuit open: target='%s'", cb.name)
		}
		cb.transition(StateHalfOpen)
		cb.failureCount = 0
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failureCount++
		cb.lastFailure = time.Now()
		if cb.failureCount >= cb.maxFailures || cb.state == StateHalfOpen {
			cb.transition(StateOpen)
		}
		return err
	}

	if cb.state == StateHalfOpen {
		cb.transition(StateClosed)
	}
	cb.failureCount = 0
	return nil
}

/* State returns the current circuit position */
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) transition(to State) {
	if cb.state == to {
		return
	}
	metrics.InfoWithContext(context.Background(), "circuit breaker state changed", map[string]interface{}{
		"circuit": cb.name,
		"from":    string(cb.state),
		"to":      string(to),
	})
	cb.state = to
}

/* BreakerSet holds one breaker per named target */
type BreakerSet struct {
	mu           sync.Mutex
	breakers     map[string]*CircuitBreaker
	maxFailures  int
	resetTimeout time.Duration
}

/* NewBreakerSet creates a set with shared thresholds */
func NewBreakerSet(maxFailures int, resetTimeout time.Duration) *BreakerSet {
	return &BreakerSet{
		breakers:     make(map[string]*CircuitBreaker),
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
	}
}

/* For returns the breaker for a target, creating it on first use */
func (s *BreakerSet) For(name string) *CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cb, ok := s.breakers[name]; ok {
		return cb
	}
	cb := NewCircuitBreaker(name, s.maxFailures, s.resetTimeout)
	s.breakers[name] = cb
	return cb
}
