package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifierImmediate(t *testing.T) {
	n := newNotifier(0)
	ch := n.subscribe()
	n.notify()
	n.notify()

	select {
	case <-ch:
	default:
		t.Fatal("expected immediate signal")
	}
	select {
	case <-ch:
		t.Fatal("signals should coalesce in the one-slot buffer")
	default:
	}
}

func TestNotifierDebouncesBursts(t *testing.T) {
	n := newNotifier(30 * time.Millisecond)
	ch := n.subscribe()
	for range 5 {
		n.notify()
	}

	select {
	case <-ch:
		t.Fatal("signal arrived before the debounce window elapsed")
	default:
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no trailing signal")
	}
	select {
	case <-ch:
		t.Fatal("burst produced more than one signal")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestNotifierSignalsDuringSteadyStream(t *testing.T) {
	n := newNotifier(50 * time.Millisecond)
	ch := n.subscribe()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		tick := time.NewTicker(10 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tick.C:
				n.notify()
			}
		}
	}()

	select {
	case <-ch:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("changes arriving faster than the debounce window starved subscribers")
	}
}

func TestNotifierClose(t *testing.T) {
	n := newNotifier(time.Hour)
	ch := n.subscribe()
	n.notify()
	n.close()

	_, open := <-ch
	assert.False(t, open)

	late := n.subscribe()
	_, open = <-late
	assert.False(t, open)

	require.NotPanics(t, func() {
		n.notify()
		n.close()
	})
}
