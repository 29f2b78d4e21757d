package items

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/five82/statekit/internal/state"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultAPIURL {
		t.Fatalf("host = %q, want %q", u.Host, defaultAPIURL)
	}

	u, err = parseBaseURL("https://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "https" || u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c
}

func TestClient_FetchPageAndItem(t *testing.T) {
	t.Parallel()

	srv := NewServer(SeedItems(5))
	c := newTestClient(t, srv.Handler())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	page, err := c.FetchPage(ctx, 1, 2)
	if err != nil {
		t.Fatalf("FetchPage returned error: %v", err)
	}
	if len(page) != 2 || page[0].ID != 3 || page[1].ID != 4 {
		t.Fatalf("FetchPage = %#v, want ids 3,4", page)
	}

	last, err := c.FetchPage(ctx, 2, 2)
	if err != nil {
		t.Fatalf("FetchPage returned error: %v", err)
	}
	if len(last) != 1 {
		t.Fatalf("last page len = %d, want 1", len(last))
	}

	it, err := c.FetchItem(ctx, 5)
	if err != nil {
		t.Fatalf("FetchItem returned error: %v", err)
	}
	if it.Name != "Item 005" {
		t.Fatalf("FetchItem name = %q, want %q", it.Name, "Item 005")
	}
}

func TestClient_SaveItem(t *testing.T) {
	t.Parallel()

	srv := NewServer(SeedItems(2))
	c := newTestClient(t, srv.Handler())

	want := Item{ID: 2, Name: "renamed", Status: StatusDone}
	if err := c.SaveItem(context.Background(), want); err != nil {
		t.Fatalf("SaveItem returned error: %v", err)
	}
	if got := srv.Items()[1]; got != want {
		t.Fatalf("stored item = %#v, want %#v", got, want)
	}

	err := c.SaveItem(context.Background(), Item{ID: 99})
	if !errors.Is(err, state.ErrNotFound) {
		t.Fatalf("SaveItem unknown id error = %v, want not found", err)
	}
}

func TestClient_MapsStatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want error
	}{
		{http.StatusUnauthorized, state.ErrUnauthorized},
		{http.StatusNotFound, state.ErrNotFound},
		{http.StatusInternalServerError, state.ErrNetwork},
		{http.StatusServiceUnavailable, state.ErrNetwork},
	}
	for _, tt := range tests {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.code)
		}))
		_, err := c.FetchPage(context.Background(), 0, 10)
		if !errors.Is(err, tt.want) {
			t.Fatalf("status %d: error = %v, want %v", tt.code, err, tt.want)
		}
	}
}

func TestClient_DecodeError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": [`))
	}))
	_, err := c.FetchPage(context.Background(), 0, 10)
	if !errors.Is(err, state.ErrDecode) {
		t.Fatalf("error = %v, want decode error", err)
	}
}

func TestClient_TransportErrorIsNetwork(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c, err := NewClient(url)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.FetchItem(context.Background(), 1)
	if !errors.Is(err, state.ErrNetwork) {
		t.Fatalf("error = %v, want network error", err)
	}
}

func TestClient_CancellationIsNotWrapped(t *testing.T) {
	t.Parallel()

	srv := NewServer(SeedItems(1), WithLatency(time.Second))
	c := newTestClient(t, srv.Handler())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.FetchPage(ctx, 0, 10)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestClient_NilReceiver(t *testing.T) {
	var c *Client
	if _, err := c.FetchPage(context.Background(), 0, 1); err == nil {
		t.Fatalf("FetchPage on nil client returned nil error")
	}
}
