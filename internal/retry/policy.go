// Package retry runs operations with capped exponential backoff.
package retry

import (
	"fmt"
	"math"
	"time"
)

// Policy holds retry configuration. It is a plain value; copy freely.
type Policy struct {
	// MaxAttempts is the total number of attempts. The first call counts as
	// attempt 1.
	MaxAttempts int

	// InitialDelay is the sleep before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the sleep between attempts.
	MaxDelay time.Duration

	// Multiplier grows the delay after every failed attempt.
	Multiplier float64
}

// DefaultPolicy returns 3 attempts starting at 1s, doubling, capped at 30s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// NoRetry returns a policy that makes exactly one attempt.
func NoRetry() Policy {
	return Policy{MaxAttempts: 1}
}

// Delay returns the backoff before retry number attempt (0-indexed):
// min(InitialDelay * Multiplier^attempt, MaxDelay). No jitter is applied.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	if delay < 0 || math.IsNaN(delay) {
		return 0
	}
	return time.Duration(delay)
}

// Validate reports policies that cannot be applied sensibly.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be >= 1, got %d", p.MaxAttempts)
	}
	if p.InitialDelay < 0 {
		return fmt.Errorf("initial delay cannot be negative")
	}
	if p.MaxDelay < p.InitialDelay {
		return fmt.Errorf("max delay %v is below initial delay %v", p.MaxDelay, p.InitialDelay)
	}
	if p.Multiplier < 1 {
		return fmt.Errorf("multiplier must be >= 1, got %v", p.Multiplier)
	}
	return nil
}
