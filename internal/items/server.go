package items

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/five82/statekit/internal/logfields"
)

// Server is an in-memory items API used by -demo and in tests.
type Server struct {
	mu       sync.RWMutex
	items    []Item
	latency  time.Duration
	failures int
	logger   *slog.Logger
}

// ServerOption customizes a Server.
type ServerOption func(*Server)

// WithLatency delays every response by d.
func WithLatency(d time.Duration) ServerOption {
	return func(s *Server) { s.latency = d }
}

// WithFailures makes the next n requests answer 503.
func WithFailures(n int) ServerOption {
	return func(s *Server) { s.failures = n }
}

// WithServerLogger logs each request.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// NewServer serves a copy of seed.
func NewServer(seed []Item, opts ...ServerOption) *Server {
	s := &Server{
		items:  slices.Clone(seed),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeedItems returns n sample items with IDs 1..n.
func SeedItems(n int) []Item {
	out := make([]Item, n)
	for i := range out {
		out[i] = Item{
			ID:     int64(i + 1),
			Name:   fmt.Sprintf("Item %03d", i+1),
			Status: statusCycle[i%len(statusCycle)],
		}
	}
	return out
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/items", s.handleList)
	mux.HandleFunc("GET /api/items/{id}", s.handleGet)
	mux.HandleFunc("PUT /api/items/{id}", s.handlePut)
	return s.middleware(mux)
}

// Items returns a copy of the stored items.
func (s *Server) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.latency > 0 {
			select {
			case <-time.After(s.latency):
			case <-r.Context().Done():
				return
			}
		}
		if s.consumeFailure() {
			s.logger.Debug("injected failure", logfields.Path(r.URL.Path), logfields.StatusCode(http.StatusServiceUnavailable))
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		s.logger.Debug("items request", logfields.Path(r.URL.Path), slog.String("method", r.Method))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) consumeFailure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures <= 0 {
		return false
	}
	s.failures--
	return true
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 0)
	pageSize := queryInt(r, "page_size", 20)
	if page < 0 || pageSize < 1 {
		http.Error(w, "invalid paging", http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	start := min(page*pageSize, len(s.items))
	end := min(start+pageSize, len(s.items))
	resp := ListResponse{Items: slices.Clone(s.items[start:end])}
	s.mu.RUnlock()

	if resp.Items == nil {
		resp.Items = []Item{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.RLock()
	idx := s.indexLocked(id)
	var it Item
	if idx >= 0 {
		it = s.items[idx]
	}
	s.mu.RUnlock()

	if idx < 0 {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var it Item
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	it.ID = id

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx >= 0 {
		s.items[idx] = it
	}
	s.mu.Unlock()

	if idx < 0 {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) indexLocked(id int64) int {
	return slices.IndexFunc(s.items, func(it Item) bool { return it.ID == id })
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
