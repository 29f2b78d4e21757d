package state

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/five82/statekit/internal/logfields"
	"github.com/five82/statekit/internal/retry"
	"github.com/five82/statekit/internal/ringbuf"
	"github.com/five82/statekit/internal/tasks"
)

// Keyed is implemented by models with a stable unique key.
type Keyed[K comparable] interface {
	Key() K
}

// PageFunc fetches one page of models.
type PageFunc[M any] func(ctx context.Context, page, pageSize int) ([]M, error)

// Store holds a collection of keyed models with per-key pending mutations,
// undo/redo over the whole mutation map, and page-based loading. Safe for
// concurrent use.
type Store[K comparable, M Keyed[K]] struct {
	mu          sync.RWMutex
	cfg         Config
	undoRedo    bool
	state       AsyncState[[]M]
	pending     map[K]Mutation[M]
	undo        *ringbuf.Buffer[map[K]Mutation[M]]
	redo        *ringbuf.Buffer[map[K]Mutation[M]]
	currentPage int
	hasMore     bool

	// materialized is AllModels' memo, rebuilt when dirty.
	materialized []M
	dirty        bool

	loads    *loader
	notifier *notifier
}

// NewStore returns an idle collection store.
func NewStore[K comparable, M Keyed[K]](cfg Config, opts ...Option) *Store[K, M] {
	cfg = cfg.normalized()
	o := buildOptions(cfg, "collection", opts)
	return &Store[K, M]{
		cfg:      cfg,
		undoRedo: o.undoRedo,
		pending:  make(map[K]Mutation[M]),
		undo:     ringbuf.New[map[K]Mutation[M]](cfg.MaxUndoSteps),
		redo:     ringbuf.New[map[K]Mutation[M]](cfg.MaxUndoSteps),
		hasMore:  true,
		dirty:    true,
		loads:    newLoader(o),
		notifier: newNotifier(cfg.DebounceInterval),
	}
}

// Config returns the normalized configuration.
func (s *Store[K, M]) Config() Config { return s.cfg }

// State returns the committed state.
func (s *Store[K, M]) State() AsyncState[[]M] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetState replaces the state and resets mutations, history and pagination.
func (s *Store[K, M]) SetState(st AsyncState[[]M]) {
	s.mu.Lock()
	s.state = st
	s.pending = make(map[K]Mutation[M])
	s.undo.RemoveAll()
	s.redo.RemoveAll()
	s.currentPage = 0
	s.hasMore = true
	s.dirty = true
	s.mu.Unlock()
	s.loads.logger.Debug("state replaced", logfields.Phase(st.Phase().String()))
	s.notifier.notify()
}

// AllModels returns the committed models with pending mutations applied. The
// result is memoized until the mutations or the state change; callers get
// their own copy.
func (s *Store[K, M]) AllModels() []M {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.materializeLocked())
}

func (s *Store[K, M]) materializeLocked() []M {
	if !s.dirty {
		return s.materialized
	}
	data, _ := s.state.Data()
	out := make([]M, len(data))
	for i, m := range data {
		if mut, ok := s.pending[m.Key()]; ok {
			m = mut.Apply(m)
		}
		out[i] = m
	}
	s.materialized = out
	s.dirty = false
	return out
}

// Model returns the model under key with its pending mutation applied.
func (s *Store[K, M]) Model(key K) (M, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.materializeLocked() {
		if m.Key() == key {
			return m, true
		}
	}
	var zero M
	return zero, false
}

// Update stages changes for the model under key. It does nothing until the
// store holds data.
func (s *Store[K, M]) Update(key K, changes ...Change[M]) {
	s.stage(key, NewMutation(changes...))
}

// BatchUpdate stages everything accumulated in b for key as one undo step.
func (s *Store[K, M]) BatchUpdate(key K, b *UpdateBuilder[M]) {
	if b == nil {
		return
	}
	s.stage(key, b.Build())
}

func (s *Store[K, M]) stage(key K, m Mutation[M]) {
	if m.IsEmpty() {
		return
	}
	s.mu.Lock()
	if _, ok := s.state.Data(); !ok {
		s.mu.Unlock()
		s.loads.logger.Debug("update ignored: no data loaded", logfields.Key(key), logfields.Fields(m.Fields()))
		return
	}
	if s.undoRedo {
		s.undo.Append(maps.Clone(s.pending))
		s.redo.RemoveAll()
	}
	s.pending[key] = Merge(s.pending[key], m)
	s.dirty = true
	s.mu.Unlock()
	s.notifier.notify()
}

// HasMutations reports whether any edits are pending.
func (s *Store[K, M]) HasMutations() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending) > 0
}

// HasMutationsFor reports whether edits are pending for key.
func (s *Store[K, M]) HasMutationsFor(key K) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pending[key]
	return ok
}

// PendingMutations returns a copy of the per-key mutation map.
func (s *Store[K, M]) PendingMutations() map[K]Mutation[M] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.pending)
}

// Commit applies each pending mutation to the model with the same key and
// publishes the result as success, clearing mutations and history. Models
// without a mutation are left untouched. Without pending mutations it does
// nothing.
func (s *Store[K, M]) Commit() {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	data, _ := s.state.Data()
	committed := make([]M, len(data))
	for i, m := range data {
		if mut, ok := s.pending[m.Key()]; ok {
			m = mut.Apply(m)
		}
		committed[i] = m
	}
	s.state = Success(committed)
	s.pending = make(map[K]Mutation[M])
	s.undo.RemoveAll()
	s.redo.RemoveAll()
	s.dirty = true
	s.mu.Unlock()
	s.loads.recorder.IncCommit(s.loads.name)
	s.notifier.notify()
}

// Discard drops every pending mutation. History is untouched.
func (s *Store[K, M]) Discard() {
	s.mu.Lock()
	s.pending = make(map[K]Mutation[M])
	s.dirty = true
	s.mu.Unlock()
	s.notifier.notify()
}

// DiscardKey drops the pending mutation for key only.
func (s *Store[K, M]) DiscardKey(key K) {
	s.mu.Lock()
	if _, ok := s.pending[key]; !ok {
		s.mu.Unlock()
		return
	}
	if s.undoRedo {
		s.undo.Append(maps.Clone(s.pending))
		s.redo.RemoveAll()
	}
	delete(s.pending, key)
	s.dirty = true
	s.mu.Unlock()
	s.notifier.notify()
}

// Undo restores the mutation map that preceded the last update.
func (s *Store[K, M]) Undo() {
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
	s.dirty = true
	s.mu.Unlock()
	s.notifier.notify()
}

// Redo reapplies the mutation map most recently undone.
func (s *Store[K, M]) Redo() {
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
	s.dirty = true
	s.mu.Unlock()
	s.notifier.notify()
}

func (s *Store[K, M]) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.undoRedo && s.undo.Len() > 0
}

func (s *Store[K, M]) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.undoRedo && s.redo.Len() > 0
}

// CurrentPage returns the last page loaded successfully.
func (s *Store[K, M]) CurrentPage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentPage
}

// HasMorePages reports whether the last page came back full. A full final
// page reads as "more" until the next, empty, page is fetched.
func (s *Store[K, M]) HasMorePages() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasMore
}

// Load replaces the whole collection using op. Semantics match
// SingleStore.Load; the pagination cursor is not touched.
func (s *Store[K, M]) Load(ctx context.Context, id string, policy retry.Policy, op func(context.Context) ([]M, error)) {
	s.load(ctx, func() (string, bool) { return id, true }, policy, op, func(result []M) {
		s.state = Success(result)
	})
}

// LoadPage fetches page and either appends it to the existing models or
// replaces them. Loads of the same page replace each other; different pages
// run independently.
func (s *Store[K, M]) LoadPage(ctx context.Context, page int, appendResults bool, policy retry.Policy, op PageFunc[M]) {
	s.loadPage(ctx, page, appendResults, policy, op, nil)
}

// LoadNextPage loads the page after CurrentPage and appends it. It does
// nothing while a load is in flight or when the last page was short. Before
// any data exists it loads page 0.
func (s *Store[K, M]) LoadNextPage(ctx context.Context, policy retry.Policy, op PageFunc[M]) {
	s.loadPage(ctx, 0, false, policy, op, func() (int, bool, bool) {
		if !s.hasMore || s.state.IsLoading() {
			return 0, false, false
		}
		if _, ok := s.state.Data(); ok {
			return s.currentPage + 1, true, true
		}
		return 0, false, true
	})
}

// Refresh reloads page 0 and replaces the models.
func (s *Store[K, M]) Refresh(ctx context.Context, policy retry.Policy, op PageFunc[M]) {
	s.LoadPage(ctx, 0, false, policy, op)
}

// loadPage runs a page load. When pick is set it chooses page and append
// mode under the store lock and may veto the load.
func (s *Store[K, M]) loadPage(ctx context.Context, page int, appendResults bool, policy retry.Policy, op PageFunc[M], pick func() (int, bool, bool)) {
	pageSize := s.cfg.PageSize
	resolve := func() (string, bool) {
		if pick != nil {
			var proceed bool
			page, appendResults, proceed = pick()
			if !proceed {
				return "", false
			}
		}
		s.loads.logger.Debug("loading page", logfields.Page(page), logfields.PageSize(pageSize))
		return PageTaskID(page), true
	}
	fetch := func(ctx context.Context) ([]M, error) {
		return op(ctx, page, pageSize)
	}
	s.load(ctx, resolve, policy, fetch, func(result []M) {
		if prev, ok := s.state.Data(); ok && appendResults {
			merged := make([]M, 0, len(prev)+len(result))
			merged = append(merged, prev...)
			merged = append(merged, result...)
			s.state = Success(merged)
		} else {
			s.state = Success(result)
		}
		s.currentPage = page
		s.hasMore = len(result) >= pageSize
	})
}

// PageTaskID is the task id LoadPage uses for page, for use with Cancel.
func PageTaskID(page int) string {
	return fmt.Sprintf("load_page_%d", page)
}

// load moves the store to loading, claims a task id and registers the task
// in one critical section, then blocks until the task publishes. resolve
// picks the id under the lock and may veto the load. apply is called with
// the lock held on success.
func (s *Store[K, M]) load(ctx context.Context, resolve func() (string, bool), policy retry.Policy, op func(context.Context) ([]M, error), apply func([]M)) {
	s.mu.Lock()
	if s.loads.closed {
		s.mu.Unlock()
		return
	}
	id, ok := resolve()
	if !ok {
		s.mu.Unlock()
		return
	}
	seq := s.loads.begin(id)
	prev, had := s.state.Data()
	s.state = loadingFrom(prev, had)
	done := s.loads.tasks.Run(ctx, id, tasks.PriorityNormal, func(taskCtx context.Context) error {
		s.publish(taskCtx, id, seq, policy, op, apply)
		return nil
	})
	s.mu.Unlock()
	s.notifier.notify()
	<-done
}

// publish runs op and writes its outcome unless a newer load owns id.
func (s *Store[K, M]) publish(ctx context.Context, id string, seq uint64, policy retry.Policy, op func(context.Context) ([]M, error), apply func([]M)) {
	started := time.Now()
	result, err := execute(ctx, s.loads, id, policy, op)

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
		apply(result)
		s.loads.logger.Debug("load published", logfields.TaskID(id), logfields.Count(len(result)))
	}
	s.dirty = true
	s.mu.Unlock()
	s.notifier.notify()
}

// Cancel stops the load running under id, e.g. "load_page_2".
func (s *Store[K, M]) Cancel(id string) {
	s.loads.tasks.Cancel(id)
}

// Subscribe returns a channel signalled after changes. It is closed by Close.
func (s *Store[K, M]) Subscribe() <-chan struct{} {
	return s.notifier.subscribe()
}

// Close cancels every running load, waits for them and closes subscriber
// channels. Later loads are ignored. Loads register their task under the
// store lock, so none can slip past the closed flag.
func (s *Store[K, M]) Close() {
	s.mu.Lock()
	s.loads.closed = true
	s.mu.Unlock()
	s.loads.tasks.CancelAll()
	s.loads.tasks.Wait()
	s.notifier.close()
}
