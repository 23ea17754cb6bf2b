// Command analyzer is the client of the F&O options analysis service. It
// serves the analysis and positions screens over HTTP and offers the same
// two operations from the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"fno-analyzer/internal/console"
	"fno-analyzer/internal/interfaces"
	"fno-analyzer/internal/logger"
	"fno-analyzer/internal/store"
	"fno-analyzer/internal/types"
	"fno-analyzer/internal/view"
	"fno-analyzer/internal/web"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const shutdownTimeout = 10 * time.Second

// errRequestFailed marks a failure whose banner has already been printed.
var errRequestFailed = errors.New("request failed")

var errNoTickers = errors.New("no tickers given")

var (
	cfg *store.Config
	svc interfaces.Backend
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errRequestFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "analyzer",
	Short:         "F&O options analyzer client",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeSystem(); err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("config")

		var err error
		cfg, err = loadConfig(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		svc = initializeBackend(cfg)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownSystem(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "config.yaml", "config file path")

	analyzeCmd.Flags().String("strategy", string(types.DefaultStrategy), "strategy: "+strategyNames())
	positionsCmd.Flags().Duration("watch", 0, "refresh on this interval until interrupted (default positions.poll_interval)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(positionsCmd)
}

func strategyNames() string {
	names := make([]string, 0, len(types.Strategies()))
	for _, s := range types.Strategies() {
		names = append(names, fmt.Sprintf("%q", s))
	}
	return strings.Join(names, ", ")
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// Overrides the root hooks: printing the version needs no config.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	PersistentPostRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "analyzer %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit:  %s\n", commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze TICKERS...",
	Short: "Request an analysis and print one card per stock",
	Example: `  analyzer analyze --strategy "Bull Call" RELIANCE,TCS
  analyzer analyze INFY HDFCBANK`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("strategy")
		strategy, err := types.ParseStrategy(name)
		if err != nil {
			return fmt.Errorf("%w (choose one of %s)", err, strategyNames())
		}

		f, err := initializeFormatter(cfg)
		if err != nil {
			return err
		}

		text := strings.Join(args, ",")
		op := logger.StartOperation(cmd.Context(), "cli.analyze", "tickers", text, "strategy", string(strategy))

		av := view.NewAnalysisView(svc)
		issued, err := av.SubmitWait(op.GetContext(), text, strategy)
		if err != nil {
			op.EndWithError(err)
			return err
		}
		if !issued {
			op.EndWithError(errNoTickers)
			return errNoTickers
		}

		snap := av.Snapshot()
		if snap.State.IsFailed() {
			op.EndWithError(errors.New(snap.State.Message()))
		} else {
			op.End("results", len(snap.Items()))
		}

		if err := console.NewRenderer(cmd.OutOrStdout(), f).Analysis(snap.Snapshot); err != nil {
			return err
		}
		if snap.State.IsFailed() {
			return errRequestFailed
		}
		return nil
	},
}

// --- Positions Command ---

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Print open positions with the exit/hold recommendation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetDuration("watch")
		if watch == 0 {
			watch = cfg.Positions.PollInterval
		}

		f, err := initializeFormatter(cfg)
		if err != nil {
			return err
		}
		out := console.NewRenderer(cmd.OutOrStdout(), f)
		pv := view.NewPositionsView(svc)

		if watch <= 0 {
			pv.RefreshWait(cmd.Context())
			snap := pv.Snapshot()
			if err := out.Positions(snap); err != nil {
				return err
			}
			if snap.State.IsFailed() {
				return errRequestFailed
			}
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info(ctx, "Watching positions", "interval", watch.String())
		pv.Poll(ctx, watch, func(snap view.Snapshot[types.Position]) {
			fmt.Fprintf(cmd.OutOrStdout(), "\n# %s\n", snap.Updated.Format(time.TimeOnly))
			if err := out.Positions(snap); err != nil {
				logger.ErrorWithErr(ctx, "Failed to print positions", err)
			}
		})
		return nil
	},
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis and positions screens over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func runServe(ctx context.Context) error {
	if _, err := svc.Health(ctx); err != nil {
		logger.Warn(ctx, "Analysis service is not reachable yet", "base_url", cfg.API.BaseURL, "error", err)
	}

	f, err := initializeFormatter(cfg)
	if err != nil {
		return err
	}

	positions := view.NewPositionsView(svc)
	srv, err := web.NewServer(ctx, web.Deps{
		Backend:        svc,
		Analysis:       view.NewAnalysisView(svc),
		Positions:      positions,
		Tabs:           view.NewTabs(positions),
		Formatter:      f,
		BaseURL:        cfg.API.BaseURL,
		RefreshSeconds: cfg.Server.RefreshSeconds,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(gctx, "Server starting", "addr", "http://"+cfg.Server.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(gctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if interval := cfg.Positions.PollInterval; interval > 0 {
		g.Go(func() error {
			autoRefresh(gctx, positions, interval)
			return nil
		})
	}

	err = g.Wait()
	srv.Wait()
	return err
}

// autoRefresh refreshes the positions screen on an interval once it has been
// opened in a browser.
func autoRefresh(ctx context.Context, positions *view.PositionsView, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if positions.Activated() && !positions.Snapshot().State.IsLoading() {
				positions.Refresh(ctx)
			}
		}
	}
}
