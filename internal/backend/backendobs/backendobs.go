package backendobs

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"fno-analyzer/internal/interfaces"
	"fno-analyzer/internal/logger"
	"fno-analyzer/internal/trace"
	"fno-analyzer/internal/types"
)

// observableBackend wraps a Backend with observability (logging & tracing)
type observableBackend struct {
	backend interfaces.Backend
}

// Compile-time interface check
var _ interfaces.Backend = (*observableBackend)(nil)

// Wrap wraps a backend with observability middleware
func Wrap(backend interfaces.Backend) interfaces.Backend {
	return &observableBackend{
		backend: backend,
	}
}

// Analyze runs an analysis request with observability
func (ob *observableBackend) Analyze(ctx context.Context, req types.AnalysisRequest) ([]types.AnalysisResult, error) {
	ctx, span := trace.StartSpan(ctx, "backend.Analyze")
	defer span.End()
	span.SetAttributes(
		attribute.StringSlice("stocks", req.Stocks),
		attribute.String("strategy", string(req.Strategy)),
	)

	logger.InfoSkip(ctx, 1, "Requesting analysis", "stocks", req.Stocks, "strategy", req.Strategy)

	results, err := ob.backend.Analyze(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Analysis request failed", err, "stocks", req.Stocks, "strategy", req.Strategy)
		return nil, err
	}

	// The service silently skips tickers it cannot price.
	if len(results) < len(req.Stocks) {
		logger.WarnSkip(ctx, 1, "Analysis returned fewer results than requested",
			"requested", len(req.Stocks),
			"returned", len(results),
		)
	}

	logger.InfoSkip(ctx, 1, "Analysis received", "results", len(results))
	return results, nil
}

// Positions fetches open positions with observability
func (ob *observableBackend) Positions(ctx context.Context) ([]types.Position, error) {
	ctx, span := trace.StartSpan(ctx, "backend.Positions")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching positions")

	positions, err := ob.backend.Positions(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch positions", err)
		return nil, err
	}

	exits := 0
	for _, p := range positions {
		if p.IsExit() {
			exits++
		}
	}
	span.SetAttributes(attribute.Int("positions", len(positions)), attribute.Int("exits", exits))

	logger.InfoSkip(ctx, 1, "Positions received", "count", len(positions), "exit_signals", exits)
	return positions, nil
}

// Health pings the service with observability
func (ob *observableBackend) Health(ctx context.Context) (types.HealthStatus, error) {
	ctx, span := trace.StartSpan(ctx, "backend.Health")
	defer span.End()

	hs, err := ob.backend.Health(ctx)
	if err != nil {
		logger.WarnSkip(ctx, 1, "Analysis service health check failed", "error", err)
		return hs, err
	}

	logger.DebugSkip(ctx, 1, "Analysis service healthy", "status", hs.Status)
	return hs, nil
}
