// Package ui is the Bubble Tea terminal browser for an items collection
// store.
//
// # Data Flow
//
// The model never polls the store. It subscribes once and re-reads the
// store each time the subscription fires:
//
//	store.Subscribe() ──signal──→ storeChangedMsg ──→ Model.sync()
//	                                                    │
//	         View() ←── m.data (state, models, flags) ←─┘
//
// Loads block, so they run inside tea.Cmds (refreshCmd, nextPageCmd) and
// report back with loadDoneMsg. Edits are applied synchronously through
// store.Update and re-synced immediately.
//
// # Editing
//
// Rename (enter/r) and notes (N) open a text input bound to the selected
// item. Status (s/space) cycles open → in progress → done. Edited rows are
// marked with "*" until committed or discarded. Commit (c) folds edits into
// the store and then saves each touched item through the Fetcher; the
// outcome lands in the footer.
//
// # Item Detail
//
// Inspect (i) fetches the selected item's server copy into a separate
// single-entity store and opens a pane comparing it with the local row.
// Repeating the key replaces the fetch in flight; esc closes the pane.
//
// # Activity Pane
//
// The app logs to a file, so the pane re-reads its tail with logtail on
// every tick and keeps scrolling at the bottom unless the user scrolled up.
//
// # Preferences
//
// Theme (T) and activity visibility (a) are written to prefs.toml as soon as
// they change.
package ui
