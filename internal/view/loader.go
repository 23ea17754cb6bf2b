package view

import (
	"context"
	"sync"
	"time"

	"fno-analyzer/internal/logger"
)

// Fetch performs one request and returns its payload.
type Fetch[T any] func(ctx context.Context) ([]T, error)

// Loader runs requests for one screen. Every request takes a sequence number
// when it is issued and a completion is applied only if no newer request was
// issued since, so the visible state always belongs to the latest request.
type Loader[T any] struct {
	name     string
	fallback string
	now      func() time.Time

	mu      sync.Mutex
	seq     uint64
	state   State[T]
	last    []T
	updated time.Time

	inflight sync.WaitGroup
}

// NewLoader creates an idle loader. fallback is shown when a failure carries
// no message of its own.
func NewLoader[T any](name, fallback string) *Loader[T] {
	return &Loader[T]{
		name:     name,
		fallback: fallback,
		now:      time.Now,
		state:    Idle[T](),
	}
}

// Begin moves to Loading, clears any prior error and returns the sequence
// number of the new request.
func (l *Loader[T]) Begin() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	l.state = Loading[T]()
	return l.seq
}

// Complete applies the outcome of request seq. It returns false and leaves
// the state alone when a newer request has been issued.
func (l *Loader[T]) Complete(seq uint64, data []T, err error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if seq != l.seq {
		return false
	}

	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = l.fallback
		}
		l.state = Failed[T](msg)
	} else {
		l.state = Loaded(data)
		l.last = l.state.Data()
	}
	l.updated = l.now()
	return true
}

// Run issues a request and blocks until it completes.
func (l *Loader[T]) Run(ctx context.Context, fetch Fetch[T]) (applied bool) {
	seq := l.Begin()
	return l.finish(ctx, seq, fetch)
}

// Go issues a request in the background. The returned channel is closed
// once the completion has been applied or discarded.
func (l *Loader[T]) Go(ctx context.Context, fetch Fetch[T]) <-chan struct{} {
	seq := l.Begin()
	done := make(chan struct{})

	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()
		defer close(done)
		l.finish(ctx, seq, fetch)
	}()
	return done
}

func (l *Loader[T]) finish(ctx context.Context, seq uint64, fetch Fetch[T]) bool {
	data, err := fetch(ctx)
	applied := l.Complete(seq, data, err)
	if !applied {
		logger.Debug(ctx, "Discarded stale response", "view", l.name, "seq", seq)
	}
	return applied
}

// Wait blocks until every background request has finished.
func (l *Loader[T]) Wait() {
	l.inflight.Wait()
}

// Snapshot returns a copy of the current state.
func (l *Loader[T]) Snapshot() Snapshot[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Snapshot[T]{
		State:   l.state,
		Last:    l.last,
		Seq:     l.seq,
		Updated: l.updated,
	}
}
