package backendobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fno-analyzer/internal/types"
)

type stubBackend struct {
	results   []types.AnalysisResult
	positions []types.Position
	err       error
	calls     int
}

func (s *stubBackend) Analyze(ctx context.Context, req types.AnalysisRequest) ([]types.AnalysisResult, error) {
	s.calls++
	return s.results, s.err
}

func (s *stubBackend) Positions(ctx context.Context) ([]types.Position, error) {
	s.calls++
	return s.positions, s.err
}

func (s *stubBackend) Health(ctx context.Context) (types.HealthStatus, error) {
	s.calls++
	return types.HealthStatus{Status: "ok"}, s.err
}

func TestWrapPassesThrough(t *testing.T) {
	inner := &stubBackend{
		results:   []types.AnalysisResult{{Stock: "INFY"}},
		positions: []types.Position{{Symbol: "INFY", Action: "EXIT"}, {Symbol: "TCS", Action: "HOLD"}},
	}
	b := Wrap(inner)
	ctx := context.Background()

	results, err := b.Analyze(ctx, types.AnalysisRequest{Stocks: []string{"INFY", "WIPRO"}, Strategy: types.BullPut})
	require.NoError(t, err)
	assert.Equal(t, inner.results, results)

	positions, err := b.Positions(ctx)
	require.NoError(t, err)
	assert.Equal(t, inner.positions, positions)

	hs, err := b.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", hs.Status)

	assert.Equal(t, 3, inner.calls)
}

func TestWrapPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	b := Wrap(&stubBackend{err: boom})

	_, err := b.Analyze(context.Background(), types.AnalysisRequest{Stocks: []string{"TCS"}, Strategy: types.BullCall})
	assert.ErrorIs(t, err, boom)

	_, err = b.Positions(context.Background())
	assert.ErrorIs(t, err, boom)
}
