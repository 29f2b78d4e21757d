package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/five82/statekit/internal/items"
	"github.com/five82/statekit/internal/logfields"
)

const (
	demoItemCount = 137
	demoLatency   = 300 * time.Millisecond
	demoFailures  = 1
)

// startDemo serves sample items on a loopback port. The first request fails
// so the retry path shows up in the activity pane.
func startDemo(logger *slog.Logger) (string, func(), error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, err
	}
	demo := items.NewServer(items.SeedItems(demoItemCount),
		items.WithLatency(demoLatency),
		items.WithFailures(demoFailures),
		items.WithServerLogger(logger.With(slog.String("component", "demo"))),
	)
	srv := &http.Server{
		Handler:           demo.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("demo server failed", logfields.Error(err))
		}
	}()
	url := "http://" + ln.Addr().String()
	logger.Info("demo server listening", logfields.URL(url), logfields.Count(demoItemCount))

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return url, stop, nil
}
