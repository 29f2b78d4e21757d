package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not finish")
	}
}

func TestRunSelfRemovesOnCompletion(t *testing.T) {
	m := NewManager(nil)
	done := m.Run(context.Background(), "a", PriorityNormal, func(context.Context) error {
		return nil
	})
	waitDone(t, done)
	m.Wait()

	assert.False(t, m.Running("a"))
	assert.Equal(t, 0, m.Len())
}

func TestRunSwallowsErrors(t *testing.T) {
	m := NewManager(nil)
	done := m.Run(context.Background(), "a", PriorityHigh, func(context.Context) error {
		return errors.New("boom")
	})
	waitDone(t, done)
	m.Wait()
	assert.Equal(t, 0, m.Len())
}

func TestRunCancelsPreviousTaskWithSameID(t *testing.T) {
	m := NewManager(nil)
	firstCancelled := make(chan struct{})
	started := make(chan struct{})

	first := m.Run(context.Background(), "a", PriorityNormal, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(firstCancelled)
		return ctx.Err()
	})
	<-started

	release := make(chan struct{})
	second := m.Run(context.Background(), "a", PriorityNormal, func(ctx context.Context) error {
		<-release
		return nil
	})

	waitDone(t, first)
	select {
	case <-firstCancelled:
	default:
		t.Fatal("first task was not cancelled")
	}

	// The finished first task must not evict the second from the registry.
	assert.True(t, m.Running("a"))
	assert.Equal(t, 1, m.Len())

	close(release)
	waitDone(t, second)
	m.Wait()
	assert.False(t, m.Running("a"))
}

func TestDifferentIDsRunIndependently(t *testing.T) {
	m := NewManager(nil)
	var running atomic.Int32
	release := make(chan struct{})
	op := func(ctx context.Context) error {
		running.Add(1)
		<-release
		return nil
	}
	d1 := m.Run(context.Background(), "load_page_1", PriorityNormal, op)
	d2 := m.Run(context.Background(), "load_page_2", PriorityNormal, op)

	require.Eventually(t, func() bool { return running.Load() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, 2, m.Len())

	close(release)
	waitDone(t, d1)
	waitDone(t, d2)
}

func TestCancelIsIdempotent(t *testing.T) {
	m := NewManager(nil)
	done := m.Run(context.Background(), "a", PriorityLow, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	m.Cancel("a")
	m.Cancel("a")
	m.Cancel("missing")
	waitDone(t, done)
	assert.False(t, m.Running("a"))
}

func TestCancelAll(t *testing.T) {
	m := NewManager(nil)
	var cancelled atomic.Int32
	op := func(ctx context.Context) error {
		<-ctx.Done()
		cancelled.Add(1)
		return ctx.Err()
	}
	m.Run(context.Background(), "a", PriorityNormal, op)
	m.Run(context.Background(), "b", PriorityNormal, op)
	m.Run(context.Background(), "c", PriorityNormal, op)

	m.CancelAll()
	m.Wait()

	assert.Equal(t, int32(3), cancelled.Load())
	assert.Equal(t, 0, m.Len())
}

func TestTasksSnapshot(t *testing.T) {
	m := NewManager(nil)
	release := make(chan struct{})
	done := m.Run(context.Background(), "a", PriorityHigh, func(context.Context) error {
		<-release
		return nil
	})

	infos := m.Tasks()
	require.Len(t, infos, 1)
	assert.Equal(t, "a", infos[0].ID)
	assert.Equal(t, PriorityHigh, infos[0].Priority)
	assert.NotEmpty(t, infos[0].Token)

	close(release)
	waitDone(t, done)
}

func TestPriorityString(t *testing.T) {
	assert.Equal(t, "normal", PriorityNormal.String())
	assert.Equal(t, "low", PriorityLow.String())
	assert.Equal(t, "high", PriorityHigh.String())
}
