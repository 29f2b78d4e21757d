// Package state provides reactive stores for asynchronously loaded data.
//
// # Overview
//
// A store owns one AsyncState (idle, loading, success or failure), a set of
// pending optimistic edits, an optional bounded undo/redo history, and the
// background loads that feed it. Two variants exist:
//
//   - SingleStore holds one model and at most one pending Mutation.
//   - Store holds a keyed collection with one pending Mutation per key and
//     page-based loading.
//
// # State Machine
//
//	idle ──Load──→ loading ──ok──→ success
//	                  │
//	                  └──err──→ failure(err, previous)
//
// Loading and failure keep the last known data so the UI never blanks out
// during a refresh. Data() returns that value for every phase except idle.
//
// # Optimistic Edits
//
// Update stages changes without touching the committed state:
//
//	store.Update(state.Assign(nameField, "renamed"))
//	m, _ := store.CurrentModel()   // committed data with edits applied
//	store.Commit()                 // success(m), edits and history cleared
//
// Mutations are lists of Change values. Each change records the field name
// (or a custom label) it touches, so pending edits can be listed and logged.
// Updates made while no data is loaded are ignored.
//
// # Undo and Redo
//
// With WithUndoRedo every Update pushes the previous pending mutation onto
// the undo history and clears redo. Both histories are ring buffers of
// Config.MaxUndoSteps; the oldest entry falls off first. Commit, SetState
// and Load results do not push history.
//
// # Loads
//
// Load, LoadPage, LoadNextPage and Refresh block until the operation
// finishes and publish the result as state; errors are never returned.
// Each load runs under a task id in a tasks.Manager:
//
//   - a new load under a running id cancels the old one, and the old one
//     publishes nothing
//   - Cancel(id) publishes failure(cancelled, previous)
//   - operation errors are retried per retry.Policy, then recorded as
//     unknown(message); cancellation is never retried
//
// Page loads use the id "load_page_<n>". A page that comes back with
// Config.PageSize items is taken to mean more pages follow.
//
// # Notifications
//
// Subscribe returns a channel that receives a signal after state or
// mutation changes. Bursts within Config.DebounceInterval collapse into one
// trailing signal. Channels have a single buffered slot, so a slow
// subscriber sees one pending signal rather than a backlog. Close closes
// every channel.
//
// # Concurrency
//
// Every store method is safe for concurrent use. A store mutex serializes
// writes; reads take the read lock. Operations run without the lock held
// and take it only to publish.
package state
