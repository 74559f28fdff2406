package pipeline

import (
	"context"
	"time"
)

// Pacer spaces out consecutive API calls.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedDelay pauses for the same duration before every call but the first.
type FixedDelay time.Duration

// NoDelay never pauses.
const NoDelay = FixedDelay(0)

// Wait blocks for the delay or until ctx is done.
func (d FixedDelay) Wait(ctx context.Context) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(time.Duration(d))
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Duration returns the delay as a time.Duration.
func (d FixedDelay) Duration() time.Duration {
	return time.Duration(d)
}
