package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// setupLogger opens logPath for appending and returns a JSON logger writing
// to it. The terminal belongs to the UI, so nothing is written to stderr.
// Debug records are kept only when verbose is set.
func setupLogger(logPath string, verbose bool) (*slog.Logger, func(), error) {
	if logPath == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return newJSONLogger(f, level), func() { _ = f.Close() }, nil
}

func newJSONLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
