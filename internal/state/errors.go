package state

import (
	"context"
	"errors"

	"github.com/five82/statekit/internal/retry"
)

// ErrorKind enumerates the closed set of store error categories.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNetwork
	KindDecode
	KindNotFound
	KindUnauthorized
	KindCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindDecode:
		return "decode"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// StateError is the failure payload of an AsyncState. Callers match on Kind,
// or use errors.Is against the Err* sentinels.
type StateError struct {
	Kind    ErrorKind
	Message string
}

// Sentinels for errors.Is. Matching compares kinds only.
var (
	ErrNetwork      = &StateError{Kind: KindNetwork}
	ErrDecode       = &StateError{Kind: KindDecode}
	ErrNotFound     = &StateError{Kind: KindNotFound}
	ErrUnauthorized = &StateError{Kind: KindUnauthorized}
	ErrCancelled    = &StateError{Kind: KindCancelled}
	ErrUnknown      = &StateError{Kind: KindUnknown}
)

func NetworkError(msg string) *StateError { return &StateError{Kind: KindNetwork, Message: msg} }
func DecodeError(msg string) *StateError  { return &StateError{Kind: KindDecode, Message: msg} }
func NotFoundError() *StateError          { return &StateError{Kind: KindNotFound} }
func UnauthorizedError() *StateError      { return &StateError{Kind: KindUnauthorized} }
func CancelledError() *StateError         { return &StateError{Kind: KindCancelled} }
func UnknownError(msg string) *StateError { return &StateError{Kind: KindUnknown, Message: msg} }

func (e *StateError) Error() string {
	switch e.Kind {
	case KindNetwork:
		return withMessage("network error", e.Message)
	case KindDecode:
		return withMessage("decode error", e.Message)
	case KindNotFound:
		return withMessage("not found", e.Message)
	case KindUnauthorized:
		return withMessage("unauthorized", e.Message)
	case KindCancelled:
		return "cancelled"
	default:
		return withMessage("unknown error", e.Message)
	}
}

// Is matches any StateError of the same kind. A cancelled StateError also
// matches context.Canceled so retry loops stop on it.
func (e *StateError) Is(target error) bool {
	if e.Kind == KindCancelled && target == context.Canceled {
		return true
	}
	t, ok := target.(*StateError)
	return ok && t.Kind == e.Kind
}

func (e *StateError) equal(o *StateError) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.Kind == o.Kind && e.Message == o.Message
}

func withMessage(prefix, msg string) string {
	if msg == "" {
		return prefix
	}
	return prefix + ": " + msg
}

// classify turns an operation error into the StateError a store records.
// Cancellation is kept distinct; everything else becomes unknown(message).
func classify(ctx context.Context, err error) *StateError {
	if retry.IsCancellation(ctx, err) || errors.Is(err, ErrCancelled) {
		return CancelledError()
	}
	if err == nil {
		return UnknownError("")
	}
	return UnknownError(err.Error())
}
