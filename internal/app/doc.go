// Package app is the composition root of the statekit browser.
//
// # Startup
//
// Run wires everything together and then blocks in the UI:
//
//	Run()
//	 ├─> config.Load()            TOML config, STATEKIT_API_URL override
//	 ├─> setupLogger()            JSON slog to log_file
//	 ├─> serveMetrics()           /metrics when metrics_addr is set
//	 ├─> startDemo()              in-process items API with -demo
//	 ├─> items.NewClient()        HTTP fetch callbacks
//	 ├─> state.NewStore()         collection store with undo/redo
//	 └─> ui.Run()                 Bubble Tea program (blocks)
//
// The UI issues the first page load itself once the program starts, so the
// loading state and any retries are visible on screen.
//
// # Shutdown
//
// Cancelling ctx (SIGINT/SIGTERM in cmd/statekit) stops the program. Deferred
// calls then close the store, which cancels and waits for in-flight loads,
// stop the demo and metrics servers, and close the log file.
//
// # Logging
//
// Records go to a file because the terminal is owned by the UI. With
// enable_logging the level is debug and the store logs every load, retry
// and ignored update; otherwise only info and above is kept.
package app
