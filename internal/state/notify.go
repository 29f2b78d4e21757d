package state

import (
	"sync"
	"time"
)

// maxWaitFactor bounds how long a steady stream of changes can hold back a
// signal, in debounce intervals since the first unsignalled change.
const maxWaitFactor = 2

// notifier fans change signals out to subscribers, coalescing bursts that
// arrive within the debounce window into one trailing signal.
type notifier struct {
	mu       sync.Mutex
	debounce time.Duration
	subs     []chan struct{}
	timer    *time.Timer
	deadline time.Time
	gen      uint64
	closed   bool
}

func newNotifier(debounce time.Duration) *notifier {
	return &notifier{debounce: debounce}
}

// subscribe returns a channel with a one-slot buffer; a pending signal
// absorbs later ones until the subscriber drains it.
func (n *notifier) subscribe() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	ch := make(chan struct{}, 1)
	if n.closed {
		close(ch)
		return ch
	}
	n.subs = append(n.subs, ch)
	return ch
}

func (n *notifier) notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	if n.debounce <= 0 {
		n.broadcastLocked()
		return
	}
	if n.timer != nil && n.timer.Stop() {
		delay := min(n.debounce, time.Until(n.deadline))
		if delay <= 0 {
			n.timer = nil
			n.broadcastLocked()
			return
		}
		n.timer.Reset(delay)
		return
	}
	n.gen++
	gen := n.gen
	n.deadline = time.Now().Add(maxWaitFactor * n.debounce)
	n.timer = time.AfterFunc(n.debounce, func() { n.fire(gen) })
}

func (n *notifier) fire(gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	if gen == n.gen {
		n.timer = nil
	}
	n.broadcastLocked()
}

func (n *notifier) broadcastLocked() {
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (n *notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	for _, ch := range n.subs {
		close(ch)
	}
	n.subs = nil
}
