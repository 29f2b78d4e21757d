// Package items is the HTTP items API used by the statekit browser: a client
// whose methods plug straight into state.Store loads, and an in-memory server
// for demos and tests.
//
// # Endpoints
//
//	GET /api/items?page=0&page_size=20   → {"items": [...]}
//	GET /api/items/{id}                  → item
//	PUT /api/items/{id}                  ← item, 204 on success
//
// Pages are 0-indexed. A page shorter than page_size is the last one.
//
// # Error Mapping
//
// The client returns *state.StateError values so callers can branch on kind:
//
//   - 401 → unauthorized
//   - 404 → not found
//   - any other status ≥ 400 → network, with the path and status code
//   - transport failures → network
//   - malformed JSON → decode
//
// Context cancellation is returned unchanged so stores record it as
// cancelled rather than retrying.
//
// # Demo Server
//
// NewServer keeps items in memory. WithLatency slows responses to show
// loading states, and WithFailures answers the next n requests with 503 to
// exercise retries.
package items
