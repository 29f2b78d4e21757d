// Package tasks keeps at most one running operation per string id.
package tasks

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/five82/statekit/internal/logfields"
	"github.com/five82/statekit/internal/retry"
)

// Priority is recorded with each task for diagnostics. Goroutines are not
// scheduled by priority.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityLow
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	default:
		return "normal"
	}
}

// Info describes a registered task.
type Info struct {
	ID       string
	Token    string
	Priority Priority
}

type entry struct {
	info   Info
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager is a keyed registry of cancellable goroutines. Starting a task under
// an id that is already running cancels the previous one first. Safe for
// concurrent use.
type Manager struct {
	mu     sync.Mutex
	tasks  map[string]*entry
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewManager returns an empty registry. A nil logger discards output.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		tasks:  make(map[string]*entry),
		logger: logger,
	}
}

// Run cancels any task registered under id and starts op in a new goroutine.
// The returned channel closes when op returns. Errors other than cancellation
// are logged and dropped; callers observe outcomes through whatever op records.
func (m *Manager) Run(ctx context.Context, id string, priority Priority, op func(context.Context) error) <-chan struct{} {
	taskCtx, cancel := context.WithCancel(ctx)
	e := &entry{
		info:   Info{ID: id, Token: uuid.NewString(), Priority: priority},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	if prev, ok := m.tasks[id]; ok {
		prev.cancel()
		m.logger.Debug("task superseded",
			logfields.TaskID(id),
			logfields.TaskToken(prev.info.Token),
		)
	}
	m.tasks[id] = e
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer close(e.done)
		defer cancel()
		defer m.remove(id, e.info.Token)

		err := op(taskCtx)
		switch {
		case err == nil:
		case retry.IsCancellation(taskCtx, err):
			m.logger.Debug("task cancelled", logfields.TaskID(id), logfields.TaskToken(e.info.Token))
		default:
			m.logger.Warn("task failed",
				logfields.TaskID(id),
				logfields.TaskToken(e.info.Token),
				logfields.Priority(priority.String()),
				logfields.Error(err),
			)
		}
	}()
	return e.done
}

// remove drops id from the registry only if token still owns it.
func (m *Manager) remove(id, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.tasks[id]; ok && e.info.Token == token {
		delete(m.tasks, id)
	}
}

// Cancel stops the task registered under id. Unknown ids are ignored.
func (m *Manager) Cancel(id string) {
	m.mu.Lock()
	e, ok := m.tasks[id]
	if ok {
		delete(m.tasks, id)
	}
	m.mu.Unlock()
	if ok {
		e.cancel()
	}
}

// CancelAll stops and forgets every registered task.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	entries := m.tasks
	m.tasks = make(map[string]*entry)
	m.mu.Unlock()
	for _, e := range entries {
		e.cancel()
	}
}

// Wait blocks until every goroutine started by Run has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Running reports whether a task is registered under id.
func (m *Manager) Running(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[id]
	return ok
}

// Len returns the number of registered tasks.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Tasks returns a snapshot of the registry.
func (m *Manager) Tasks() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Info, 0, len(m.tasks))
	for _, e := range m.tasks {
		out = append(out, e.info)
	}
	return out
}
