package state

import (
	"log/slog"
	"time"

	"github.com/five82/statekit/internal/metrics"
)

// Config is supplied at store construction.
type Config struct {
	// DebounceInterval coalesces change notifications sent to subscribers.
	// Zero notifies on every change.
	DebounceInterval time.Duration

	// MaxUndoSteps bounds both the undo and the redo history.
	MaxUndoSteps int

	// EnableLogging turns on store logging through the configured logger.
	EnableLogging bool

	// PageSize is passed to page operations and drives the has-more heuristic.
	PageSize int
}

const (
	defaultDebounce     = 300 * time.Millisecond
	defaultMaxUndoSteps = 50
	defaultPageSize     = 20
)

// DefaultConfig returns 300ms debounce, 50 undo steps, logging off, 20 per page.
func DefaultConfig() Config {
	return Config{
		DebounceInterval: defaultDebounce,
		MaxUndoSteps:     defaultMaxUndoSteps,
		PageSize:         defaultPageSize,
	}
}

func (c Config) normalized() Config {
	if c.DebounceInterval < 0 {
		c.DebounceInterval = 0
	}
	if c.MaxUndoSteps < 1 {
		c.MaxUndoSteps = defaultMaxUndoSteps
	}
	if c.PageSize < 1 {
		c.PageSize = defaultPageSize
	}
	return c
}

// Option customizes a store.
type Option func(*options)

type options struct {
	name     string
	undoRedo bool
	logger   *slog.Logger
	recorder metrics.Recorder
}

// WithName labels the store in logs and metrics.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithUndoRedo enables the undo and redo history.
func WithUndoRedo() Option {
	return func(o *options) { o.undoRedo = true }
}

// WithLogger sets the logger used when Config.EnableLogging is true.
// The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

func buildOptions(cfg Config, defaultName string, opts []Option) options {
	o := options{name: defaultName}
	for _, opt := range opts {
		opt(&o)
	}
	switch {
	case !cfg.EnableLogging:
		o.logger = slog.New(slog.DiscardHandler)
	case o.logger == nil:
		o.logger = slog.Default()
	}
	if o.recorder == nil {
		o.recorder = metrics.NoopRecorder{}
	}
	return o
}
