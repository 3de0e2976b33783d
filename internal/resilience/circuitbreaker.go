package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"
)

/* State is one of the three circuit breaker states guarding a remote
collaborator (the NER service, in this module's only caller). */
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

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

/* Config tunes one CircuitBreaker instance. BreakerConfig/ForNERService
build these from named presets rather than callers hand-assembling one. */
type Config struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
	MaxRequests      int
	ResetInterval    time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          60 * time.Second,
		MaxRequests:      3,
		ResetInterval:    60 * time.Second,
	}
}

/* CircuitBreaker trips open after FailureThreshold consecutive failures,
probes again after Timeout (half-open, bounded to MaxRequests), and closes
once SuccessThreshold consecutive successes land while half-open. */
type CircuitBreaker struct {
	config           *Config
	state            State
	failureCount     int
	successCount     int
	lastFailureTime  time.Time
	halfOpenRequests int
	mu               sync.RWMutex
}

func NewCircuitBreaker(config *Config) *CircuitBreaker {
	if config == nil {
		config = DefaultConfig()
	}
	return &CircuitBreaker{
		config:          config,
		state:           StateClosed,
		lastFailureTime: time.Now(),
	}
}

/* Execute runs fn if the breaker's state currently allows it, and records
the outcome against that state. Returns an error without calling fn at all
when the breaker is open and still within its Timeout window. */
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if !cb.allowRequest() {
		return fmt.Errorf("circuit breaker is open")
	}

	err := fn()
	cb.recordResult(err)
	return err
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.lastFailureTime) >= cb.config.Timeout {
			cb.mu.RUnlock()
			cb.mu.Lock()
			if cb.state == StateOpen && time.Since(cb.lastFailureTime) >= cb.config.Timeout {
				cb.transitionTo(StateHalfOpen)
			}
			cb.mu.Unlock()
			cb.mu.RLock()
			return cb.state == StateHalfOpen
		}
		return false
	case StateHalfOpen:
		return cb.halfOpenRequests < cb.config.MaxRequests
	default:
		return false
	}
}

func (cb *CircuitBreaker) recordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.recordFailure()
	} else {
		cb.recordSuccess()
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.failureCount++
	cb.lastFailureTime = time.Now()

	switch cb.state {
	case StateClosed:
		if cb.failureCount >= cb.config.FailureThreshold {
			cb.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		// one failed probe during half-open re-opens the circuit
		cb.transitionTo(StateOpen)
		cb.halfOpenRequests = 0
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.successCount++

	switch cb.state {
	case StateClosed:
		cb.failureCount = 0
	case StateHalfOpen:
		cb.halfOpenRequests++
		if cb.successCount >= cb.config.SuccessThreshold {
			cb.transitionTo(StateClosed)
			cb.failureCount = 0
			cb.successCount = 0
			cb.halfOpenRequests = 0
		}
	}
}

func (cb *CircuitBreaker) transitionTo(newState State) {
	cb.state = newState
}

/* GetState reports the breaker's current state; Available() on the NER
client treats anything but StateOpen as usable. */
func (cb *CircuitBreaker) GetState() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}
