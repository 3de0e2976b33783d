package resilience

import "time"

/* BreakerConfig holds named presets that convert to Config for a specific
collaborator, rather than hand-building a Config at every call site. */
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening
	FailureThreshold int
	// SuccessThreshold is the number of consecutive successes in half-open before closing
	SuccessThreshold int
	// Timeout is the duration to wait before attempting half-open
	Timeout time.Duration
	// MaxRequests is the maximum number of requests allowed in half-open state
	MaxRequests int
	// ResetInterval is copied into Config; CircuitBreaker does not read it
	ResetInterval time.Duration
}

/* DefaultBreakerConfig returns default breaker configuration */
func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          60 * time.Second,
		MaxRequests:      3,
		ResetInterval:    60 * time.Second,
	}
}

/* ForNERService returns breaker configuration tuned for the NER remote
detection strategy: opens faster than the default since a slow NER outage
must stop costing a per-column HTTP timeout on every detection call. */
func ForNERService() *BreakerConfig {
	return &BreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		MaxRequests:      2,
		ResetInterval:    30 * time.Second,
	}
}

/* ToConfig converts BreakerConfig to Config */
func (bc *BreakerConfig) ToConfig() *Config {
	return &Config{
		FailureThreshold: bc.FailureThreshold,
		SuccessThreshold: bc.SuccessThreshold,
		Timeout:          bc.Timeout,
		MaxRequests:      bc.MaxRequests,
		ResetInterval:    bc.ResetInterval,
	}
}
