package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/five82/statekit/internal/config"
	"github.com/five82/statekit/internal/items"
	"github.com/five82/statekit/internal/logfields"
	"github.com/five82/statekit/internal/metrics"
	"github.com/five82/statekit/internal/prefs"
	"github.com/five82/statekit/internal/state"
	"github.com/five82/statekit/internal/ui"
)

// Options configure the statekit browser.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/statekit/prefs.toml
	Demo       bool   // serve sample items in-process instead of api_url
	PageSize   int    // zero keeps the configured page size
}

// Run boots the browser until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.PageSize > 0 {
		cfg.PageSize = opts.PageSize
	}

	logger, closeLog, err := setupLogger(cfg.LogFile, cfg.EnableLogging)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.MetricsAddr != "" {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		stop := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer stop()
	}

	apiURL := cfg.APIURL
	if opts.Demo {
		url, stop, err := startDemo(logger)
		if err != nil {
			return fmt.Errorf("start demo server: %w", err)
		}
		defer stop()
		apiURL = url
	}

	client, err := items.NewClient(apiURL)
	if err != nil {
		return fmt.Errorf("init items client: %w", err)
	}
	logger.Info("statekit starting",
		logfields.URL(apiURL),
		logfields.PageSize(cfg.PageSize),
		slog.Bool("demo", opts.Demo),
	)

	store := state.NewStore[int64, items.Item](cfg.StoreConfig(),
		state.WithName("items"),
		state.WithUndoRedo(),
		state.WithLogger(logger),
		state.WithRecorder(recorder),
	)
	defer store.Close()

	detail := state.NewSingle[items.Item](cfg.StoreConfig(),
		state.WithName("item_detail"),
		state.WithLogger(logger),
		state.WithRecorder(recorder),
	)
	defer detail.Close()

	userPrefs := prefs.Load(opts.PrefsPath)

	return ui.Run(ui.Options{
		Context:      ctx,
		Store:        store,
		Detail:       detail,
		Fetcher:      client,
		Policy:       cfg.Retry,
		ThemeName:    userPrefs.Theme,
		ShowActivity: userPrefs.ShowActivity,
		PrefsPath:    opts.PrefsPath,
		LogPath:      cfg.LogFile,
	})
}

// serveMetrics exposes reg on addr until the returned stop func runs.
func serveMetrics(addr string, reg *prom.Registry, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", logfields.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
