package state

import "fmt"

// Phase identifies which variant an AsyncState holds.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseFailure
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseFailure:
		return "failure"
	default:
		return "idle"
	}
}

// AsyncState is an immutable snapshot of an asynchronously loaded value:
// idle, loading (with optional previous data), success, or failure (with
// optional previous data). Build values with Idle, Loading, LoadingWith,
// Success, Failure and FailureWith.
type AsyncState[T any] struct {
	phase   Phase
	value   T
	hasData bool
	err     *StateError
}

// Idle returns the state of a store that has never loaded.
func Idle[T any]() AsyncState[T] {
	return AsyncState[T]{}
}

// Loading returns an in-flight state without previous data.
func Loading[T any]() AsyncState[T] {
	return AsyncState[T]{phase: PhaseLoading}
}

// LoadingWith returns an in-flight state that keeps previous for display.
func LoadingWith[T any](previous T) AsyncState[T] {
	return AsyncState[T]{phase: PhaseLoading, value: previous, hasData: true}
}

// Success returns an authoritative state holding v.
func Success[T any](v T) AsyncState[T] {
	return AsyncState[T]{phase: PhaseSuccess, value: v, hasData: true}
}

// Failure returns a failed state without previous data. A nil err is
// recorded as an unknown error.
func Failure[T any](err *StateError) AsyncState[T] {
	return AsyncState[T]{phase: PhaseFailure, err: orUnknown(err)}
}

// FailureWith returns a failed state that keeps previous for display.
func FailureWith[T any](err *StateError, previous T) AsyncState[T] {
	return AsyncState[T]{phase: PhaseFailure, err: orUnknown(err), value: previous, hasData: true}
}

func loadingFrom[T any](previous T, ok bool) AsyncState[T] {
	if ok {
		return LoadingWith(previous)
	}
	return Loading[T]()
}

func failureFrom[T any](err *StateError, previous T, ok bool) AsyncState[T] {
	if ok {
		return FailureWith(err, previous)
	}
	return Failure[T](err)
}

func orUnknown(err *StateError) *StateError {
	if err == nil {
		return UnknownError("")
	}
	return err
}

// Phase reports the variant.
func (s AsyncState[T]) Phase() Phase { return s.phase }

// Data returns the most recent known value: the previous value while loading
// or after a failure, the current value on success, nothing when idle.
func (s AsyncState[T]) Data() (T, bool) {
	return s.value, s.hasData
}

func (s AsyncState[T]) IsIdle() bool    { return s.phase == PhaseIdle }
func (s AsyncState[T]) IsLoading() bool { return s.phase == PhaseLoading }
func (s AsyncState[T]) IsSuccess() bool { return s.phase == PhaseSuccess }
func (s AsyncState[T]) IsFailure() bool { return s.phase == PhaseFailure }

// Err returns the failure cause, or nil for every other phase.
func (s AsyncState[T]) Err() error {
	if s.phase != PhaseFailure || s.err == nil {
		return nil
	}
	return s.err
}

// StateErr is Err with its concrete type.
func (s AsyncState[T]) StateErr() *StateError {
	if s.phase != PhaseFailure {
		return nil
	}
	return s.err
}

func (s AsyncState[T]) String() string {
	switch s.phase {
	case PhaseSuccess:
		return fmt.Sprintf("success(%v)", s.value)
	case PhaseFailure:
		if s.hasData {
			return fmt.Sprintf("failure(%v, previous: %v)", s.err, s.value)
		}
		return fmt.Sprintf("failure(%v)", s.err)
	case PhaseLoading:
		if s.hasData {
			return fmt.Sprintf("loading(previous: %v)", s.value)
		}
		return "loading"
	default:
		return "idle"
	}
}

// Map transforms the payload of s, keeping its phase and error.
func Map[T, U any](s AsyncState[T], fn func(T) U) AsyncState[U] {
	out := AsyncState[U]{phase: s.phase, hasData: s.hasData, err: s.err}
	if s.hasData {
		out.value = fn(s.value)
	}
	return out
}

// Equal reports whether a and b share a phase, error and payload.
func Equal[T comparable](a, b AsyncState[T]) bool {
	return EqualFunc(a, b, func(x, y T) bool { return x == y })
}

// EqualFunc is Equal with a caller-supplied payload comparison, for payloads
// such as slices that are not comparable.
func EqualFunc[T any](a, b AsyncState[T], eq func(T, T) bool) bool {
	if a.phase != b.phase || a.hasData != b.hasData {
		return false
	}
	if !a.err.equal(b.err) {
		return false
	}
	if !a.hasData {
		return true
	}
	return eq(a.value, b.value)
}
