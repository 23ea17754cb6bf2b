// Package web serves the analysis and positions screens as server-rendered
// HTML. The browser never talks to the analysis service directly.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"fno-analyzer/internal/interfaces"
	"fno-analyzer/internal/logger"
	"fno-analyzer/internal/present"
	"fno-analyzer/internal/trace"
	"fno-analyzer/internal/types"
	"fno-analyzer/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const defaultRefreshSeconds = 1

// Deps wires a Server.
type Deps struct {
	Backend   interfaces.Backend
	Analysis  *view.AnalysisView
	Positions *view.PositionsView
	Tabs      *view.Tabs
	Formatter *present.Formatter
	BaseURL   string

	// RefreshSeconds is the meta refresh delay of pages shown while a
	// request is in flight. Zero means one second.
	RefreshSeconds int
}

// Server renders the two screens. Submissions run on the server's base
// context so they outlive the redirect that follows them.
type Server struct {
	deps    Deps
	baseCtx context.Context
	tmpl    *template.Template
}

type page struct {
	Tab            view.Tab
	Loading        bool
	RefreshSeconds int
	BaseURL        string
	Strategies     []types.Strategy
	Analysis       view.AnalysisSnapshot
	Positions      view.Snapshot[types.Position]
}

type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

// NewServer parses the embedded templates. baseCtx bounds every request
// issued on behalf of a browser.
func NewServer(baseCtx context.Context, deps Deps) (*Server, error) {
	if deps.Backend == nil || deps.Analysis == nil || deps.Positions == nil || deps.Tabs == nil {
		return nil, fmt.Errorf("web: backend and views are required")
	}
	if deps.Formatter == nil {
		f, err := present.NewFormatter(present.DefaultLocale)
		if err != nil {
			return nil, err
		}
		deps.Formatter = f
	}
	if deps.RefreshSeconds <= 0 {
		deps.RefreshSeconds = defaultRefreshSeconds
	}

	tmpl, err := template.New("").Funcs(funcMap(deps.Formatter)).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Server{deps: deps, baseCtx: baseCtx, tmpl: tmpl}, nil
}

func funcMap(f *present.Formatter) template.FuncMap {
	return template.FuncMap{
		"money":          f.Money,
		"number":         f.Number,
		"maxProfit":      f.MaxProfit,
		"fixed":          present.Fixed,
		"signed":         present.SignedFixed,
		"roi":            present.ROI,
		"roiTone":        present.ROITone,
		"signalTone":     present.SignalTone,
		"signalIcon":     present.SignalIcon,
		"predictionTone": present.PredictionTone,
		"showPCR":        present.ShowPCR,
		"pcrTone":        present.PCRTone,
		"sentimentTone":  present.SentimentTone,
		"headlineTone":   present.HeadlineTone,
		"headlines":      present.Headlines,
		"premiumTone":    present.PremiumPaidTone,
		"pnlTone":        present.PnLTone,
		"positionTone":   present.PositionTone,
		"actionIcon":     present.ActionIcon,
		"deref": func(d *decimal.Decimal) decimal.Decimal {
			if d == nil {
				return decimal.Zero
			}
			return *d
		},
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/analyze", s.handleAnalyzePage).Methods(http.MethodGet)
	r.HandleFunc("/analyze", s.handleAnalyzeSubmit).Methods(http.MethodPost)
	r.HandleFunc("/positions", s.handlePositionsPage).Methods(http.MethodGet)
	r.HandleFunc("/positions/refresh", s.handlePositionsRefresh).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return r
}

// Wait blocks until in-flight requests of both screens have been applied.
func (s *Server) Wait() {
	s.deps.Analysis.Wait()
	s.deps.Positions.Wait()
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/"+string(view.TabAnalyze), http.StatusFound)
}

func (s *Server) handleAnalyzePage(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Tabs.Select(s.baseCtx, view.TabAnalyze); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	snap := s.deps.Analysis.Snapshot()
	s.render(w, r, "analyze", page{
		Tab:        view.TabAnalyze,
		Loading:    snap.State.IsLoading(),
		Strategies: types.Strategies(),
		Analysis:   snap,
	})
}

func (s *Server) handleAnalyzeSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	strategy := types.Strategy(r.PostFormValue("strategy"))
	if strategy == "" {
		strategy = types.DefaultStrategy
	}

	issued, err := s.deps.Analysis.Submit(s.baseCtx, r.PostFormValue("stocks"), strategy)
	if err != nil {
		logger.Warn(r.Context(), "Rejected analysis form", "strategy", strategy, "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !issued {
		logger.Debug(r.Context(), "Analysis form named no tickers")
	}
	http.Redirect(w, r, "/"+string(view.TabAnalyze), http.StatusSeeOther)
}

func (s *Server) handlePositionsPage(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Tabs.Select(s.baseCtx, view.TabPositions); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	snap := s.deps.Positions.Snapshot()
	s.render(w, r, "positions", page{
		Tab:       view.TabPositions,
		Loading:   snap.State.IsLoading(),
		Positions: snap,
	})
}

func (s *Server) handlePositionsRefresh(w http.ResponseWriter, r *http.Request) {
	s.deps.Positions.Refresh(s.baseCtx)
	http.Redirect(w, r, "/"+string(view.TabPositions), http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Backend: "up"}
	code := http.StatusOK

	if _, err := s.deps.Backend.Health(r.Context()); err != nil {
		resp = healthResponse{Status: "degraded", Backend: err.Error()}
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorWithErr(r.Context(), "Failed to write health response", err)
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, p page) {
	p.RefreshSeconds = s.deps.RefreshSeconds
	p.BaseURL = s.deps.BaseURL

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, p); err != nil {
		logger.ErrorWithErr(r.Context(), "Failed to render page", err, "page", name)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := trace.StartSpan(r.Context(), "web."+r.Method)
		defer span.End()

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		logger.Debug(ctx, "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds())
	})
}
