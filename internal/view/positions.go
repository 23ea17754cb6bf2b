package view

import (
	"context"
	"sync"
	"time"

	"fno-analyzer/internal/interfaces"
	"fno-analyzer/internal/logger"
	"fno-analyzer/internal/types"
)

const positionsFallback = "Failed to load positions."

// PositionsView shows the open positions with the service's exit/hold call.
type PositionsView struct {
	backend interfaces.Backend
	loader  *Loader[types.Position]

	mu        sync.Mutex
	activated bool
}

func NewPositionsView(backend interfaces.Backend) *PositionsView {
	return &PositionsView{
		backend: backend,
		loader:  NewLoader[types.Position]("positions", positionsFallback),
	}
}

// Activate issues the initial request the first time the view is shown and
// does nothing afterwards. It reports whether a request was issued.
func (v *PositionsView) Activate(ctx context.Context) bool {
	v.mu.Lock()
	first := !v.activated
	v.activated = true
	v.mu.Unlock()

	if first {
		v.Refresh(ctx)
	}
	return first
}

// Refresh issues GET /positions in the background.
func (v *PositionsView) Refresh(ctx context.Context) <-chan struct{} {
	return v.loader.Go(ctx, v.backend.Positions)
}

// RefreshWait issues GET /positions and blocks until it is applied.
func (v *PositionsView) RefreshWait(ctx context.Context) {
	v.mu.Lock()
	v.activated = true
	v.mu.Unlock()

	v.loader.Run(ctx, v.backend.Positions)
}

// Poll refreshes every interval until ctx is done. The first refresh runs
// immediately.
func (v *PositionsView) Poll(ctx context.Context, interval time.Duration, onUpdate func(Snapshot[types.Position])) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		v.RefreshWait(ctx)
		if ctx.Err() != nil {
			return
		}
		if onUpdate != nil {
			onUpdate(v.Snapshot())
		}

		select {
		case <-ctx.Done():
			logger.Debug(ctx, "Positions polling stopped")
			return
		case <-ticker.C:
		}
	}
}

// Snapshot returns the current request state.
func (v *PositionsView) Snapshot() Snapshot[types.Position] {
	return v.loader.Snapshot()
}

// Activated reports whether the view has been shown at least once.
func (v *PositionsView) Activated() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.activated
}

// Wait blocks until background requests have finished.
func (v *PositionsView) Wait() {
	v.loader.Wait()
}
