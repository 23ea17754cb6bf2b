package view

import (
	"context"
	"strings"
	"sync"

	"fno-analyzer/internal/interfaces"
	"fno-analyzer/internal/types"
)

const (
	// DefaultTickers prefills the ticker field.
	DefaultTickers = "RELIANCE, TCS, HDFCBANK"

	analysisFallback = "Failed to fetch analysis"
)

// ParseTickers splits comma separated input into trimmed, non-empty symbols
// in input order. Duplicates are kept.
func ParseTickers(text string) []string {
	tickers := []string{}
	for _, tok := range strings.Split(text, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			tickers = append(tickers, tok)
		}
	}
	return tickers
}

// Form is the analysis input as last entered by the user.
type Form struct {
	Tickers  string
	Strategy types.Strategy
}

// AnalysisSnapshot is everything the analysis screen renders.
type AnalysisSnapshot struct {
	Form Form
	Snapshot[types.AnalysisResult]
}

// AnalysisView owns the ticker/strategy form and the analyze request cycle.
type AnalysisView struct {
	backend interfaces.Backend
	loader  *Loader[types.AnalysisResult]

	mu   sync.Mutex
	form Form
}

func NewAnalysisView(backend interfaces.Backend) *AnalysisView {
	return &AnalysisView{
		backend: backend,
		loader:  NewLoader[types.AnalysisResult]("analysis", analysisFallback),
		form: Form{
			Tickers:  DefaultTickers,
			Strategy: types.DefaultStrategy,
		},
	}
}

// Submit records the form and, when it names at least one ticker, issues
// one analyze request in the background. It reports whether a request was
// issued. An unknown strategy is rejected without a request.
func (v *AnalysisView) Submit(ctx context.Context, text string, strategy types.Strategy) (bool, error) {
	req, ok, err := v.prepare(text, strategy)
	if !ok {
		return false, err
	}
	v.loader.Go(ctx, v.fetch(req))
	return true, nil
}

// SubmitWait is Submit that blocks until the response has been applied.
func (v *AnalysisView) SubmitWait(ctx context.Context, text string, strategy types.Strategy) (bool, error) {
	req, ok, err := v.prepare(text, strategy)
	if !ok {
		return false, err
	}
	v.loader.Run(ctx, v.fetch(req))
	return true, nil
}

func (v *AnalysisView) prepare(text string, strategy types.Strategy) (types.AnalysisRequest, bool, error) {
	if _, err := types.ParseStrategy(string(strategy)); err != nil {
		return types.AnalysisRequest{}, false, err
	}

	v.mu.Lock()
	v.form = Form{Tickers: text, Strategy: strategy}
	v.mu.Unlock()

	stocks := ParseTickers(text)
	if len(stocks) == 0 {
		return types.AnalysisRequest{}, false, nil
	}
	return types.AnalysisRequest{Stocks: stocks, Strategy: strategy}, true, nil
}

func (v *AnalysisView) fetch(req types.AnalysisRequest) Fetch[types.AnalysisResult] {
	return func(ctx context.Context) ([]types.AnalysisResult, error) {
		return v.backend.Analyze(ctx, req)
	}
}

// Snapshot returns the form and request state.
func (v *AnalysisView) Snapshot() AnalysisSnapshot {
	v.mu.Lock()
	form := v.form
	v.mu.Unlock()

	return AnalysisSnapshot{
		Form:     form,
		Snapshot: v.loader.Snapshot(),
	}
}

// Wait blocks until background requests have finished.
func (v *AnalysisView) Wait() {
	v.loader.Wait()
}
