// Package backoff holds the reconnect delay policy as a pure function
// over the previous delay, so the schedule can be tested without a
// clock.
package backoff

import (
	"fmt"
	"time"
)

// Policy bounds the delay between connection attempts. The delay starts
// at Floor, doubles after every failed attempt, and is capped at
// Ceiling. Only a successful open resets it.
type Policy struct {
	Floor   time.Duration
	Ceiling time.Duration
}

// Validate reports an unusable policy.
func (p Policy) Validate() error {
	if p.Floor <= 0 {
		return fmt.Errorf("backoff floor must be positive, got %s", p.Floor)
	}
	if p.Ceiling < p.Floor {
		return fmt.Errorf("backoff ceiling %s is below floor %s", p.Ceiling, p.Floor)
	}
	return nil
}

// Next returns the delay that follows current after a failed attempt.
func (p Policy) Next(current time.Duration) time.Duration {
	next := current * 2
	if next > p.Ceiling {
		next = p.Ceiling
	}
	if next < p.Floor {
		next = p.Floor
	}
	return next
}

// Reset returns the delay to use after a successful open.
func (p Policy) Reset() time.Duration {
	return p.Floor
}
