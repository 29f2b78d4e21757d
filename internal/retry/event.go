package retry

import "time"

// EventType identifies the kind of event occurring during retry execution.
type EventType string

const (
	// EventAttemptStart fires before each attempt.
	EventAttemptStart EventType = "attempt_start"

	// EventAttemptFailed fires after a failed attempt.
	EventAttemptFailed EventType = "attempt_failed"

	// EventRetrying fires before sleeping between attempts.
	EventRetrying EventType = "retrying"

	// EventSuccess fires when an attempt succeeds.
	EventSuccess EventType = "success"

	// EventCancelled fires when cancellation stops the loop.
	EventCancelled EventType = "cancelled"

	// EventExhausted fires when all attempts failed.
	EventExhausted EventType = "exhausted"
)

// Event is an observable step of a retry loop.
type Event struct {
	Type        EventType
	Attempt     int // 1-indexed
	MaxAttempts int
	Error       error
	Delay       time.Duration // set for EventRetrying
	Timestamp   time.Time
}

// emit sends an event without blocking; a full or nil channel drops it.
func emit(ch chan<- Event, event Event) {
	if ch == nil {
		return
	}
	event.Timestamp = time.Now()
	select {
	case ch <- event:
	default:
	}
}
