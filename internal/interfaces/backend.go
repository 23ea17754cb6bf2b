package interfaces

import (
	"context"

	"fno-analyzer/internal/types"
)

// Backend is the remote analysis service. All pricing, sentiment and
// exit/hold logic lives behind it.
type Backend interface {
	// Analyze runs the chosen strategy for every requested ticker.
	Analyze(ctx context.Context, req types.AnalysisRequest) ([]types.AnalysisResult, error)

	// Positions returns the currently held option positions.
	Positions(ctx context.Context) ([]types.Position, error)

	// Health pings the service root.
	Health(ctx context.Context) (types.HealthStatus, error)
}
