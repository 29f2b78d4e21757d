package state

import (
	"context"
	"sync"
	"time"

	"github.com/five82/statekit/internal/logfields"
	"github.com/five82/statekit/internal/retry"
	"github.com/five82/statekit/internal/ringbuf"
	"github.com/five82/statekit/internal/tasks"
)

// SingleStore holds one entity: its async state, at most one pending
// mutation, and optional undo/redo history. Safe for concurrent use.
type SingleStore[M any] struct {
	mu       sync.RWMutex
	cfg      Config
	undoRedo bool
	state    AsyncState[M]
	pending  Mutation[M]
	undo     *ringbuf.Buffer[Mutation[M]]
	redo     *ringbuf.Buffer[Mutation[M]]
	loads    *loader
	notifier *notifier
}

// NewSingle returns an idle store.
func NewSingle[M any](cfg Config, opts ...Option) *SingleStore[M] {
	cfg = cfg.normalized()
	o := buildOptions(cfg, "single", opts)
	return &SingleStore[M]{
		cfg:      cfg,
		undoRedo: o.undoRedo,
		undo:     ringbuf.New[Mutation[M]](cfg.MaxUndoSteps),
		redo:     ringbuf.New[Mutation[M]](cfg.MaxUndoSteps),
		loads:    newLoader(o),
		notifier: newNotifier(cfg.DebounceInterval),
	}
}

// State returns the committed state.
func (s *SingleStore[M]) State() AsyncState[M] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetState replaces the state and clears the pending mutation and history.
func (s *SingleStore[M]) SetState(st AsyncState[M]) {
	s.mu.Lock()
	s.state = st
	s.pending = Mutation[M]{}
	s.undo.RemoveAll()
	s.redo.RemoveAll()
	s.mu.Unlock()
	s.loads.logger.Debug("state replaced", logfields.Phase(st.Phase().String()))
	s.notifier.notify()
}

// CurrentModel returns the committed data with the pending mutation applied.
func (s *SingleStore[M]) CurrentModel() (M, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentLocked()
}

func (s *SingleStore[M]) currentLocked() (M, bool) {
	data, ok := s.state.Data()
	if !ok {
		return data, false
	}
	return s.pending.Apply(data), true
}

// Update stages changes on top of any pending mutation. It does nothing until
// the store holds data.
func (s *SingleStore[M]) Update(changes ...Change[M]) {
	s.stage(NewMutation(changes...))
}

// BatchUpdate stages everything accumulated in b as one undo step.
func (s *SingleStore[M]) BatchUpdate(b *UpdateBuilder[M]) {
	if b == nil {
		return
	}
	s.stage(b.Build())
}

func (s *SingleStore[M]) stage(m Mutation[M]) {
	if m.IsEmpty() {
		return
	}
	s.mu.Lock()
	if _, ok := s.state.Data(); !ok {
		s.mu.Unlock()
		s.loads.logger.Debug("update ignored: no data loaded", logfields.Fields(m.Fields()))
		return
	}
	if s.undoRedo {
		s.undo.Append(s.pending)
		s.redo.RemoveAll()
	}
	s.pending = Merge(s.pending, m)
	s.mu.Unlock()
	s.notifier.notify()
}

// HasMutation reports whether edits are pending.
func (s *SingleStore[M]) HasMutation() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.pending.IsEmpty()
}

// PendingMutation returns the staged mutation, which may be empty.
func (s *SingleStore[M]) PendingMutation() Mutation[M] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// Commit folds the pending mutation into a success state and clears the
// mutation and history. Without a pending mutation it does nothing.
func (s *SingleStore[M]) Commit() {
	s.mu.Lock()
	if s.pending.IsEmpty() {
		s.mu.Unlock()
		return
	}
	current, ok := s.currentLocked()
	if !ok {
		s.mu.Unlock()
		return
	}
	s.state = Success(current)
	s.pending = Mutation[M]{}
	s.undo.RemoveAll()
	s.redo.RemoveAll()
	s.mu.Unlock()
	s.loads.recorder.IncCommit(s.loads.name)
	s.notifier.notify()
}

// Discard drops the pending mutation. State and history are untouched.
func (s *SingleStore[M]) Discard() {
	s.mu.Lock()
	s.pending = Mutation[M]{}
	s.mu.Unlock()
	s.notifier.notify()
}

// Undo restores the mutation that preceded the last update.
func (s *SingleStore[M]) Undo() {
	s.mu.Lock()
	if !s.undoRedo {
		s.mu.Unlock()
		return
	}
	prev, ok := s.undo.RemoveLast()
	if !ok {
		s.mu.Unlock()
		return
	}
	s.redo.Append(s.pending)
	s.pending = prev
	s.mu.Unlock()
	s.notifier.notify()
}

// Redo reapplies the mutation most recently undone.
func (s *SingleStore[M]) Redo() {
	s.mu.Lock()
	if !s.undoRedo {
		s.mu.Unlock()
		return
	}
	next, ok := s.redo.RemoveLast()
	if !ok {
		s.mu.Unlock()
		return
	}
	s.undo.Append(s.pending)
	s.pending = next
	s.mu.Unlock()
	s.notifier.notify()
}

// CanUndo reports whether Undo would change anything.
func (s *SingleStore[M]) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.undoRedo && s.undo.Len() > 0
}

// CanRedo reports whether Redo would change anything.
func (s *SingleStore[M]) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.undoRedo && s.redo.Len() > 0
}

// Load replaces any load running under id, moves to loading (keeping the
// previous data) and runs op under policy. It blocks until the load
// completes, fails or is cancelled. Failures are published as state, never
// returned. A load superseded by a newer one under the same id publishes
// nothing.
func (s *SingleStore[M]) Load(ctx context.Context, id string, policy retry.Policy, op func(context.Context) (M, error)) {
	s.mu.Lock()
	if s.loads.closed {
		s.mu.Unlock()
		return
	}
	seq := s.loads.begin(id)
	prev, ok := s.state.Data()
	s.state = loadingFrom(prev, ok)
	// Registering under the lock keeps task order equal to seq order.
	done := s.loads.tasks.Run(ctx, id, tasks.PriorityNormal, func(taskCtx context.Context) error {
		started := time.Now()
		v, err := execute(taskCtx, s.loads, id, policy, op)
		s.finish(taskCtx, id, seq, v, err, started)
		return nil
	})
	s.mu.Unlock()
	s.notifier.notify()
	<-done
}

func (s *SingleStore[M]) finish(ctx context.Context, id string, seq uint64, v M, err error, started time.Time) {
	s.mu.Lock()
	if !s.loads.owns(id, seq) {
		s.mu.Unlock()
		s.loads.superseded(id)
		return
	}
	if se := s.loads.outcome(ctx, id, err, started); se != nil {
		prev, ok := s.state.Data()
		s.state = failureFrom(se, prev, ok)
	} else {
		s.state = Success(v)
	}
	s.mu.Unlock()
	s.notifier.notify()
}

// Cancel stops the load running under id. Its state becomes a cancelled failure.
func (s *SingleStore[M]) Cancel(id string) {
	s.loads.tasks.Cancel(id)
}

// Subscribe returns a channel signalled after changes. It is closed by Close.
func (s *SingleStore[M]) Subscribe() <-chan struct{} {
	return s.notifier.subscribe()
}

// Close cancels every running load, waits for them to finish and closes
// subscriber channels. Later loads are ignored.
func (s *SingleStore[M]) Close() {
	s.mu.Lock()
	s.loads.closed = true
	s.mu.Unlock()
	s.loads.tasks.CancelAll()
	s.loads.tasks.Wait()
	s.notifier.close()
}
