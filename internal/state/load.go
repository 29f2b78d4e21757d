package state

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/statekit/internal/logfields"
	"github.com/five82/statekit/internal/metrics"
	"github.com/five82/statekit/internal/retry"
	"github.com/five82/statekit/internal/tasks"
)

// loader carries what both store variants need to run loads: the task
// registry, and a per-id sequence so a superseded load never publishes.
// inflight is guarded by the owning store's mutex.
type loader struct {
	name     string
	logger   *slog.Logger
	recorder metrics.Recorder
	tasks    *tasks.Manager
	seq      uint64
	inflight map[string]uint64
	closed   bool
}

func newLoader(o options) *loader {
	return &loader{
		name:     o.name,
		logger:   o.logger.With(logfields.Store(o.name)),
		recorder: o.recorder,
		tasks:    tasks.NewManager(o.logger.With(logfields.Store(o.name))),
		inflight: make(map[string]uint64),
	}
}

// begin claims id for a new load. Caller holds the store lock.
func (l *loader) begin(id string) uint64 {
	l.seq++
	l.inflight[id] = l.seq
	return l.seq
}

// owns reports whether seq is still the latest load for id and releases the
// claim when it is. Caller holds the store lock.
func (l *loader) owns(id string, seq uint64) bool {
	if l.inflight[id] != seq {
		return false
	}
	delete(l.inflight, id)
	return true
}

// outcome records metrics and logs for a finished load and returns the
// error to publish, or nil on success.
func (l *loader) outcome(ctx context.Context, id string, err error, started time.Time) *StateError {
	l.recorder.ObserveLoadDuration(l.name, time.Since(started))
	if err == nil && ctx.Err() == nil {
		l.recorder.IncLoad(l.name, metrics.OutcomeSuccess)
		l.logger.Debug("load succeeded", logfields.TaskID(id))
		return nil
	}
	se := classify(ctx, err)
	if se.Kind == KindCancelled {
		l.recorder.IncLoad(l.name, metrics.OutcomeCancelled)
		l.logger.Debug("load cancelled", logfields.TaskID(id))
	} else {
		l.recorder.IncLoad(l.name, metrics.OutcomeFailure)
		l.logger.Warn("load failed", logfields.TaskID(id), logfields.Error(err))
	}
	return se
}

func (l *loader) superseded(id string) {
	l.recorder.IncLoad(l.name, metrics.OutcomeSuperseded)
	l.logger.Debug("load superseded", logfields.TaskID(id))
}

// execute runs op under policy, forwarding retry progress to logs and metrics.
func execute[T any](ctx context.Context, l *loader, id string, policy retry.Policy, op func(context.Context) (T, error)) (T, error) {
	events := make(chan retry.Event, 8)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for e := range events {
			l.observe(id, e)
		}
	}()
	v, err := retry.DoWithEvents(ctx, policy, events, op)
	close(events)
	<-drained
	return v, err
}

func (l *loader) observe(id string, e retry.Event) {
	switch e.Type {
	case retry.EventRetrying:
		l.recorder.IncRetry(l.name)
		l.logger.Info("retrying load",
			logfields.TaskID(id),
			logfields.Attempt(e.Attempt),
			logfields.MaxAttempts(e.MaxAttempts),
			logfields.DelayMS(e.Delay),
		)
	case retry.EventAttemptFailed:
		l.logger.Debug("load attempt failed",
			logfields.TaskID(id),
			logfields.Attempt(e.Attempt),
			logfields.Error(e.Error),
		)
	case retry.EventExhausted:
		l.logger.Debug("retries exhausted", logfields.TaskID(id), logfields.MaxAttempts(e.MaxAttempts))
	}
}
