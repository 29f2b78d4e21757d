// Package logfields holds the canonical slog attribute keys used across statekit.
package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field names.
const (
	KeyStore      = "store"
	KeyTaskID     = "task_id"
	KeyTaskToken  = "task_token"
	KeyPriority   = "priority"
	KeyAttempt    = "attempt"
	KeyAttempts   = "max_attempts"
	KeyDelayMS    = "delay_ms"
	KeyPhase      = "phase"
	KeyPage       = "page"
	KeyPageSize   = "page_size"
	KeyCount      = "count"
	KeyKey        = "key"
	KeyFields     = "fields"
	KeyURL        = "url"
	KeyStatusCode = "status_code"
	KeyPath       = "path"
	KeyError      = "error"
)

func Store(name string) slog.Attr { return slog.String(KeyStore, name) }
func TaskID(id string) slog.Attr { return slog.String(KeyTaskID, id) }
func TaskToken(tok string) slog.Attr { return slog.String(KeyTaskToken, tok) }
func Priority(p string) slog.Attr { return slog.String(KeyPriority, p) }
func Attempt(n int) slog.Attr { return slog.Int(KeyAttempt, n) }
func MaxAttempts(n int) slog.Attr { return slog.Int(KeyAttempts, n) }
func Phase(p string) slog.Attr { return slog.String(KeyPhase, p) }
func Page(n int) slog.Attr { return slog.Int(KeyPage, n) }
func PageSize(n int) slog.Attr { return slog.Int(KeyPageSize, n) }
func Count(n int) slog.Attr { return slog.Int(KeyCount, n) }
func Key(k any) slog.Attr { return slog.Any(KeyKey, k) }
func Fields(names []string) slog.Attr { return slog.Any(KeyFields, names) }
func URL(u string) slog.Attr { return slog.String(KeyURL, u) }
func StatusCode(code int) slog.Attr { return slog.Int(KeyStatusCode, code) }
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }
func DelayMS(d time.Duration) slog.Attr { return slog.Int64(KeyDelayMS, d.Milliseconds()) }

// Error renders err as a string attribute; a nil error yields an empty value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
