package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/statekit/internal/retry"
	"github.com/five82/statekit/internal/state"
)

// Config captures everything statekit reads from its TOML file.
type Config struct {
	APIURL        string
	PageSize      int
	MaxUndoSteps  int
	Debounce      time.Duration
	EnableLogging bool
	LogFile       string
	MetricsAddr   string
	Retry         retry.Policy
}

// EnvAPIURL overrides api_url when set.
const EnvAPIURL = "STATEKIT_API_URL"

const (
	defaultConfigPath = "~/.config/statekit/config.toml"
	defaultLogFile    = "~/.local/share/statekit/statekit.log"
	defaultAPIURL     = "http://127.0.0.1:7490"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	sc := state.DefaultConfig()
	return Config{
		APIURL:        defaultAPIURL,
		PageSize:      sc.PageSize,
		MaxUndoSteps:  sc.MaxUndoSteps,
		Debounce:      sc.DebounceInterval,
		EnableLogging: true,
		LogFile:       mustExpand(defaultLogFile),
		Retry:         retry.DefaultPolicy(),
	}
}

// Load locates and parses the statekit config, falling back to defaults when
// missing. STATEKIT_API_URL wins over the file.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL        string `toml:"api_url"`
		PageSize      int    `toml:"page_size"`
		MaxUndoSteps  int    `toml:"max_undo_steps"`
		DebounceMS    *int   `toml:"debounce_ms"`
		EnableLogging *bool  `toml:"enable_logging"`
		LogFile       string `toml:"log_file"`
		MetricsAddr   string `toml:"metrics_addr"`
		Retry         struct {
			MaxAttempts    int     `toml:"max_attempts"`
			InitialDelayMS int     `toml:"initial_delay_ms"`
			MaxDelayMS     int     `toml:"max_delay_ms"`
			Multiplier     float64 `toml:"multiplier"`
		} `toml:"retry"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if raw.PageSize > 0 {
		cfg.PageSize = raw.PageSize
	}
	if raw.MaxUndoSteps > 0 {
		cfg.MaxUndoSteps = raw.MaxUndoSteps
	}
	if raw.DebounceMS != nil && *raw.DebounceMS >= 0 {
		cfg.Debounce = time.Duration(*raw.DebounceMS) * time.Millisecond
	}
	if raw.EnableLogging != nil {
		cfg.EnableLogging = *raw.EnableLogging
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)

	if raw.Retry.MaxAttempts > 0 {
		cfg.Retry.MaxAttempts = raw.Retry.MaxAttempts
	}
	if raw.Retry.InitialDelayMS > 0 {
		cfg.Retry.InitialDelay = time.Duration(raw.Retry.InitialDelayMS) * time.Millisecond
	}
	if raw.Retry.MaxDelayMS > 0 {
		cfg.Retry.MaxDelay = time.Duration(raw.Retry.MaxDelayMS) * time.Millisecond
	}
	if raw.Retry.Multiplier > 0 {
		cfg.Retry.Multiplier = raw.Retry.Multiplier
	}
	if err := cfg.Retry.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid retry policy: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.APIURL = v
	}
}

// StoreConfig returns the store settings derived from c.
func (c Config) StoreConfig() state.Config {
	return state.Config{
		DebounceInterval: c.Debounce,
		MaxUndoSteps:     c.MaxUndoSteps,
		EnableLogging:    c.EnableLogging,
		PageSize:         c.PageSize,
	}
}

// DefaultPath returns the config path used when none is given.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
