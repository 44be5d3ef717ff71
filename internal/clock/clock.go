// Package clock provides time abstractions so polling loops are testable
// without wall-clock waits.
package clock

import (
	"context"
	"time"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// Scheduler suspends the caller for a duration, honoring context cancellation.
type Scheduler interface {
	Wait(ctx context.Context, d time.Duration) error
}

// System implements Clock and Scheduler against the real clock.
type System struct{}

// NewSystem creates a System clock.
func NewSystem() *System {
	return &System{}
}

// Now returns the current UTC time.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Wait blocks for d or until ctx is done, whichever comes first.
func (System) Wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
