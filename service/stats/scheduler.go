package stats

import (
	"context"
	"time"
)

// RunDaily invokes fn once per day at the given hour and minute,
// until the context is canceled. The first run waits for the next
// occurrence of that wall-clock time.
func RunDaily(ctx context.Context, hour int, minute int, fn func(ctx context.Context)) {
	for {
		timer := time.NewTimer(untilNext(time.Now(), hour, minute))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			fn(ctx)
		}
	}
}

func untilNext(now time.Time, hour int, minute int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
