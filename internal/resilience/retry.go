package resilience

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

/* RetryConfig bounds how many times, and how long between attempts, the
NER client retries a single detection call before giving up. */
type RetryConfig struct {
	MaxAttempts        int
	InitialDelay       time.Duration
	MaxDelay           time.Duration
	Multiplier         float64
	Jitter             bool
	RetryableErrors    []error
	NonRetryableErrors []error
}

/* ExponentialBackoffRetryConfig doubles the delay after every attempt, up
to a 10s cap, with jitter to avoid every in-flight detection call retrying
in lockstep after a shared outage. */
func ExponentialBackoffRetryConfig(maxAttempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  maxAttempts,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

/* Retry calls fn until it succeeds, config.MaxAttempts is exhausted, fn
returns a non-retryable error, or ctx is cancelled while waiting out a
backoff delay. */
func Retry(ctx context.Context, config *RetryConfig, fn func() error) error {
	if config == nil {
		config = ExponentialBackoffRetryConfig(3)
	}

	var lastErr error
	delay := config.InitialDelay

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryableError(err, config) {
			return err
		}

		if attempt >= config.MaxAttempts {
			break
		}

		delay = calculateDelay(delay, config)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("retry failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

/* calculateDelay grows currentDelay by config.Multiplier, applies up to
±20% jitter, and caps the result at config.MaxDelay. */
func calculateDelay(currentDelay time.Duration, config *RetryConfig) time.Duration {
	delay := time.Duration(float64(currentDelay) * config.Multiplier)

	if config.Jitter {
		jitter := time.Duration(float64(delay) * 0.2 * (rand.Float64()*2 - 1))
		delay += jitter
	}

	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

/* isRetryableError defaults to retrying every error; an explicit
RetryableErrors list narrows that to only named errors, and
NonRetryableErrors always wins regardless of which list an error also
appears in. */
func isRetryableError(err error, config *RetryConfig) bool {
	if err == nil {
		return false
	}

	for _, nonRetryable := range config.NonRetryableErrors {
		if err == nonRetryable || fmt.Sprintf("%v", err) == fmt.Sprintf("%v", nonRetryable) {
			return false
		}
	}

	if len(config.RetryableErrors) > 0 {
		for _, retryable := range config.RetryableErrors {
			if err == retryable || fmt.Sprintf("%v", err) == fmt.Sprintf("%v", retryable) {
				return true
			}
		}
		return false
	}

	return true
}
