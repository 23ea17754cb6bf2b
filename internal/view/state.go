// Package view holds the request/state cycle behind the analysis and
// positions screens. Each screen is exactly one of Idle, Loading, Failed or
// Loaded at any time; renderers read a Snapshot and never mutate it.
package view

import "time"

// Phase tags the active variant of a State.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseFailed
	PhaseLoaded
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseFailed:
		return "error"
	case PhaseLoaded:
		return "loaded"
	default:
		return "idle"
	}
}

// State is a tagged variant. The zero value is Idle; the other variants are
// only built through Loading, Failed and Loaded, so a message and data never
// coexist.
type State[T any] struct {
	phase   Phase
	message string
	data    []T
}

func Idle[T any]() State[T] {
	return State[T]{phase: PhaseIdle}
}

func Loading[T any]() State[T] {
	return State[T]{phase: PhaseLoading}
}

func Failed[T any](message string) State[T] {
	return State[T]{phase: PhaseFailed, message: message}
}

func Loaded[T any](data []T) State[T] {
	if data == nil {
		data = []T{}
	}
	return State[T]{phase: PhaseLoaded, data: data}
}

func (s State[T]) Phase() Phase { return s.phase }
func (s State[T]) IsIdle() bool { return s.phase == PhaseIdle }
func (s State[T]) IsLoading() bool { return s.phase == PhaseLoading }
func (s State[T]) IsFailed() bool { return s.phase == PhaseFailed }
func (s State[T]) IsLoaded() bool { return s.phase == PhaseLoaded }

// Message is the failure text; empty unless Failed.
func (s State[T]) Message() string { return s.message }

// Data is the response payload; nil unless Loaded.
func (s State[T]) Data() []T { return s.data }

// Snapshot is a point-in-time copy of a Loader.
type Snapshot[T any] struct {
	State State[T]
	// Last is the most recent successful payload. It survives a later
	// Loading or Failed state so a failure never discards prior results.
	Last    []T
	Seq     uint64
	Updated time.Time
}

// Items is what a renderer lists below the status area: nothing while a
// request is in flight, otherwise the last successful payload.
func (s Snapshot[T]) Items() []T {
	if s.State.IsLoading() {
		return nil
	}
	return s.Last
}

// ShowEmpty reports whether the empty placeholder applies: not loading, no
// error and nothing to list.
func (s Snapshot[T]) ShowEmpty() bool {
	return !s.State.IsLoading() && !s.State.IsFailed() && len(s.Last) == 0
}
