package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fno-analyzer/internal/backend"
	"fno-analyzer/internal/interfaces"
	"fno-analyzer/internal/present"
	"fno-analyzer/internal/types"
	"fno-analyzer/internal/view"
)

type stubBackend struct {
	mu        sync.Mutex
	analyzeN  int
	positionN int

	results   []types.AnalysisResult
	positions []types.Position
	err       error
	healthErr error

	// gate, when set, holds Analyze until it is closed.
	gate chan struct{}
}

func (b *stubBackend) Analyze(ctx context.Context, req types.AnalysisRequest) ([]types.AnalysisResult, error) {
	b.mu.Lock()
	b.analyzeN++
	gate := b.gate
	b.mu.Unlock()

	if gate != nil {
		<-gate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.results, b.err
}

func (b *stubBackend) Positions(ctx context.Context) ([]types.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.positionN++
	return b.positions, b.err
}

func (b *stubBackend) Health(ctx context.Context) (types.HealthStatus, error) {
	return types.HealthStatus{Status: "ok"}, b.healthErr
}

func (b *stubBackend) set(fn func(b *stubBackend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func (b *stubBackend) calls() (analyze, positions int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.analyzeN, b.positionN
}

type harness struct {
	srv     *Server
	handler http.Handler
}

func newHarness(t *testing.T, b interfaces.Backend) *harness {
	t.Helper()

	f, err := present.NewFormatter("en")
	require.NoError(t, err)

	positions := view.NewPositionsView(b)
	srv, err := NewServer(context.Background(), Deps{
		Backend:   b,
		Analysis:  view.NewAnalysisView(b),
		Positions: positions,
		Tabs:      view.NewTabs(positions),
		Formatter: f,
		BaseURL:   "http://localhost:8000",
	})
	require.NoError(t, err)
	return &harness{srv: srv, handler: srv.Handler()}
}

func (h *harness) do(t *testing.T, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) page(t *testing.T, target string) *goquery.Document {
	t.Helper()
	rec := h.do(t, http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func (h *harness) submit(t *testing.T, stocks, strategy string) {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/analyze", url.Values{"stocks": {stocks}, "strategy": {strategy}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/analyze", rec.Header().Get("Location"))
}

func result(stock, signal string) types.AnalysisResult {
	pcr := decimal.RequireFromString("1.31")
	return types.AnalysisResult{
		Stock:      stock,
		Spot:       decimal.RequireFromString("2950.5"),
		Prediction: "Likely to trend up",
		Signal:     signal,
		PCR:        &pcr,
		Stats: types.StrategyStats{
			StrategyName:    "Bull Call Spread",
			PremiumPaid:     decimal.RequireFromString("4100"),
			PremiumReceived: decimal.RequireFromString("2300"),
			MaxProfit:       types.UnlimitedProfit(),
			MaxLoss:         decimal.RequireFromString("1800"),
			Margin:          decimal.RequireFromString("30000"),
			ROI:             decimal.RequireFromString("5.9322"),
			StrikesInvolved: []string{"2950 CE", "3000 CE"},
		},
		Sentiment: &types.Sentiment{
			Score: decimal.RequireFromString("0.4"),
			Mood:  "Bullish",
			Headlines: []types.Headline{
				{Title: "h1", Sentiment: "Positive"},
				{Title: "h2", Sentiment: "Negative"},
				{Title: "h3", Sentiment: "Neutral"},
				{Title: "h4", Sentiment: "Positive"},
			},
		},
	}
}

func TestRootRedirectsToAnalyze(t *testing.T) {
	h := newHarness(t, &stubBackend{})
	rec := h.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/analyze", rec.Header().Get("Location"))
}

func TestAnalyzeInitialPage(t *testing.T) {
	h := newHarness(t, &stubBackend{})
	doc := h.page(t, "/analyze")

	assert.Equal(t, "RELIANCE, TCS, HDFCBANK", doc.Find("#stocks").AttrOr("value", ""))
	assert.Equal(t, "Bull Call", doc.Find("#strategy option[selected]").AttrOr("value", ""))
	assert.Equal(t, 5, doc.Find("#strategy option").Length())
	assert.Equal(t, "Analyze", strings.TrimSpace(doc.Find("#submit").Text()))
	assert.Contains(t, doc.Find("#empty").Text(), "No analysis generated yet. Enter parameters above.")
	assert.Zero(t, doc.Find("#loading").Length())
	assert.Zero(t, doc.Find("#error").Length())
	assert.Zero(t, doc.Find(`meta[http-equiv="refresh"]`).Length())
	assert.True(t, doc.Find("#tab-analyze").HasClass("active"))
}

func TestAnalyzeLoadingThenLoaded(t *testing.T) {
	b := &stubBackend{
		gate:    make(chan struct{}),
		results: []types.AnalysisResult{result("TCS", "Bullish"), result("INFY", "Bearish")},
	}
	h := newHarness(t, b)

	h.submit(t, "TCS, INFY", "Bear Put")

	doc := h.page(t, "/analyze")
	assert.Equal(t, 1, doc.Find("#loading").Length())
	assert.Equal(t, 1, doc.Find(`meta[http-equiv="refresh"]`).Length())
	assert.Zero(t, doc.Find("#empty").Length())
	assert.Zero(t, doc.Find(".card").Length())
	submit := doc.Find("#submit")
	assert.Equal(t, "Analyzing...", strings.TrimSpace(submit.Text()))
	_, disabled := submit.Attr("disabled")
	assert.True(t, disabled)
	assert.Equal(t, "TCS, INFY", doc.Find("#stocks").AttrOr("value", ""))
	assert.Equal(t, "Bear Put", doc.Find("#strategy option[selected]").AttrOr("value", ""))

	close(b.gate)
	h.srv.Wait()

	doc = h.page(t, "/analyze")
	assert.Zero(t, doc.Find("#loading").Length())
	assert.Zero(t, doc.Find("#empty").Length())

	cards := doc.Find(".card")
	require.Equal(t, 2, cards.Length())
	assert.Equal(t, "TCS", cards.Eq(0).Find(".stock").Text())
	assert.Equal(t, "INFY", cards.Eq(1).Find(".stock").Text())

	first := cards.Eq(0)
	assert.True(t, first.Find(".signal").HasClass("badge-success"))
	assert.True(t, cards.Eq(1).Find(".signal").HasClass("badge-danger"))
	assert.Equal(t, "₹2,950.5", first.Find(".spot").Text())
	assert.Equal(t, "Unlimited", first.Find(".max-profit").Text())
	assert.Equal(t, "5.93%", first.Find(".roi").Text())
	assert.True(t, first.Find(".premium-paid").HasClass("tone-danger"))
	assert.Contains(t, first.Find(".pcr").Text(), "1.31")
	assert.True(t, first.Find(".pcr").HasClass("badge-success"))
	assert.Equal(t, 3, first.Find(".headline").Length())
	assert.Equal(t, 2, first.Find(".strikes li").Length())
}

func TestAnalyzeFailureShowsBannerAndKeepsResults(t *testing.T) {
	b := &stubBackend{results: []types.AnalysisResult{result("TCS", "Neutral")}}
	h := newHarness(t, b)

	h.submit(t, "TCS", "Bull Call")
	h.srv.Wait()

	b.set(func(b *stubBackend) {
		b.results = nil
		b.err = errors.New("Request failed with status code 500")
	})
	h.submit(t, "TCS", "Bull Call")
	h.srv.Wait()

	doc := h.page(t, "/analyze")
	assert.Equal(t,
		"Error: Request failed with status code 500. Make sure the Backend server is running.",
		doc.Find("#error").Text())
	assert.Zero(t, doc.Find("#empty").Length())
	assert.Equal(t, 1, doc.Find(".card").Length())
	assert.True(t, doc.Find(".card .signal").HasClass("badge-neutral"))
}

func TestAnalyzeEmptyResultShowsPlaceholder(t *testing.T) {
	b := &stubBackend{results: []types.AnalysisResult{}}
	h := newHarness(t, b)

	h.submit(t, "TCS", "Long Straddle")
	h.srv.Wait()

	doc := h.page(t, "/analyze")
	assert.Equal(t, 1, doc.Find("#empty").Length())
	assert.Zero(t, doc.Find(".card").Length())
}

func TestAnalyzeBlankInputIssuesNoRequest(t *testing.T) {
	b := &stubBackend{}
	h := newHarness(t, b)

	h.submit(t, " , ,", "Bull Call")
	h.srv.Wait()

	analyze, _ := b.calls()
	assert.Zero(t, analyze)
	doc := h.page(t, "/analyze")
	assert.Equal(t, 1, doc.Find("#empty").Length())
}

func TestAnalyzeRejectsUnknownStrategy(t *testing.T) {
	b := &stubBackend{}
	h := newHarness(t, b)

	rec := h.do(t, http.MethodPost, "/analyze", url.Values{"stocks": {"TCS"}, "strategy": {"Iron Fly"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	analyze, _ := b.calls()
	assert.Zero(t, analyze)
}

func TestPositionsFirstVisitLoadsOnce(t *testing.T) {
	b := &stubBackend{positions: []types.Position{}}
	h := newHarness(t, b)

	_, positions := b.calls()
	assert.Zero(t, positions)

	h.page(t, "/positions")
	h.srv.Wait()
	h.page(t, "/analyze")
	doc := h.page(t, "/positions")
	h.srv.Wait()

	_, positions = b.calls()
	assert.Equal(t, 1, positions)
	assert.Contains(t, doc.Find("#empty").Text(), "No open positions found in Zerodha.")
	assert.True(t, doc.Find("#tab-positions").HasClass("active"))
}

func TestPositionsRowsAndExitHighlight(t *testing.T) {
	b := &stubBackend{positions: []types.Position{
		{Symbol: "NIFTY24DEC24000CE", Qty: 50, PnL: decimal.RequireFromString("-3112.5"), Action: "EXIT", Reason: "Stop hit"},
		{Symbol: "BANKNIFTY24DEC52000PE", Qty: 15, PnL: decimal.RequireFromString("1557.5"), Action: "HOLD", Reason: "On track"},
	}}
	h := newHarness(t, b)

	h.page(t, "/positions")
	h.srv.Wait()
	doc := h.page(t, "/positions")

	rows := doc.Find("tr.position")
	require.Equal(t, 2, rows.Length())

	exit := rows.Eq(0)
	assert.True(t, exit.HasClass("row-warning"))
	assert.Equal(t, "⚠", exit.Find(".icon").Text())
	assert.Equal(t, "-3112.50", exit.Find(".pnl").Text())
	assert.True(t, exit.Find(".pnl").HasClass("tone-danger"))

	hold := rows.Eq(1)
	assert.True(t, hold.HasClass("row-success"))
	assert.Equal(t, "✔", hold.Find(".icon").Text())
	assert.Equal(t, "+1557.50", hold.Find(".pnl").Text())
	assert.Equal(t, "BANKNIFTY24DEC52000PE", hold.AttrOr("data-symbol", ""))
}

func TestPositionsRefresh(t *testing.T) {
	b := &stubBackend{positions: []types.Position{{Symbol: "A", Action: "HOLD"}}}
	h := newHarness(t, b)

	h.page(t, "/positions")
	h.srv.Wait()

	b.set(func(b *stubBackend) { b.err = errors.New("Network error: connection refused") })
	rec := h.do(t, http.MethodPost, "/positions/refresh", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/positions", rec.Header().Get("Location"))
	h.srv.Wait()

	doc := h.page(t, "/positions")
	assert.Contains(t, doc.Find("#error").Text(), "Network error: connection refused")
	assert.Equal(t, 1, doc.Find("tr.position").Length())

	_, positions := b.calls()
	assert.Equal(t, 2, positions)
}

func TestHealthz(t *testing.T) {
	b := &stubBackend{}
	h := newHarness(t, b)

	rec := h.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, healthResponse{Status: "ok", Backend: "up"}, body)

	b.set(func(b *stubBackend) { b.healthErr = errors.New("Network error: connection refused") })
	rec = h.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
}

func TestStaticStylesheet(t *testing.T) {
	h := newHarness(t, &stubBackend{})
	rec := h.do(t, http.MethodGet, "/static/style.css", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".row-warning")
}

// End to end through the real backend client against a fake service.
func TestPositionsAgainstHTTPService(t *testing.T) {
	svc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/positions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"symbol":"TCS24DECFUT","qty":150,"avg_price":4100,"ltp":4080.25,"underlying_price":4079,"pnl":-2962.5,"action":"EXIT","reason":"Trend reversal"}]}`))
	}))
	defer svc.Close()

	h := newHarness(t, backend.New(backend.Params{BaseURL: svc.URL}))
	h.page(t, "/positions")
	h.srv.Wait()

	doc := h.page(t, "/positions")
	row := doc.Find("tr.position")
	require.Equal(t, 1, row.Length())
	assert.True(t, row.HasClass("row-warning"))
	assert.Equal(t, "TCS24DECFUT", row.Find(".symbol").Text())
	assert.Equal(t, "4080.25", row.Find("td").Eq(3).Text())
}
