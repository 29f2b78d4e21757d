package retry

import (
	"context"
	"errors"
	"time"
)

// ErrRetryFailed is returned when the loop ends without ever observing an
// error, which only happens for policies with MaxAttempts < 1.
var ErrRetryFailed = errors.New("retry failed")

// IsCancellation reports whether err (or ctx) signals cancellation. Retries
// never continue past a cancellation.
func IsCancellation(ctx context.Context, err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	return ctx != nil && errors.Is(ctx.Err(), context.Canceled)
}

// Do runs fn until it succeeds, the policy is exhausted, or ctx is done.
// The last observed error is returned on failure; ctx.Err() is returned when
// the context ends during a backoff sleep.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	return DoWithEvents(ctx, p, nil, fn)
}

// DoWithEvents is like Do but reports progress on events. Sends never block.
// Pass nil to disable event emission.
func DoWithEvents[T any](ctx context.Context, p Policy, events chan<- Event, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			emit(events, Event{Type: EventCancelled, Attempt: attempt + 1, MaxAttempts: p.MaxAttempts, Error: err})
			return zero, err
		}
		emit(events, Event{Type: EventAttemptStart, Attempt: attempt + 1, MaxAttempts: p.MaxAttempts})

		result, err := fn(ctx)
		if err == nil {
			emit(events, Event{Type: EventSuccess, Attempt: attempt + 1, MaxAttempts: p.MaxAttempts})
			return result, nil
		}
		lastErr = err

		if IsCancellation(ctx, err) || ctx.Err() != nil {
			emit(events, Event{Type: EventCancelled, Attempt: attempt + 1, MaxAttempts: p.MaxAttempts, Error: err})
			return zero, err
		}
		emit(events, Event{Type: EventAttemptFailed, Attempt: attempt + 1, MaxAttempts: p.MaxAttempts, Error: err})

		// Don't sleep after the last attempt
		if attempt < p.MaxAttempts-1 {
			delay := p.Delay(attempt)
			emit(events, Event{Type: EventRetrying, Attempt: attempt + 1, MaxAttempts: p.MaxAttempts, Delay: delay})
			if err := sleep(ctx, delay); err != nil {
				emit(events, Event{Type: EventCancelled, Attempt: attempt + 1, MaxAttempts: p.MaxAttempts, Error: err})
				return zero, err
			}
		}
	}

	if lastErr == nil {
		lastErr = ErrRetryFailed
	}
	emit(events, Event{Type: EventExhausted, Attempt: p.MaxAttempts, MaxAttempts: p.MaxAttempts, Error: lastErr})
	return zero, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
