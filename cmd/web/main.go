package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"supermarket-dashboard/internal/binding"
	"supermarket-dashboard/internal/config"
	"supermarket-dashboard/internal/dataset"
	"supermarket-dashboard/internal/middleware"
	"supermarket-dashboard/internal/observability"
	"supermarket-dashboard/internal/server"
	"supermarket-dashboard/internal/services"
	"supermarket-dashboard/internal/ui/templates"
)

const (
	version       = "1.0.0"
	renderTimeout = 10 * time.Second
	loadTimeout   = 30 * time.Second
)

// dashboardHandler renders the page seeded with a fresh session and the default selection.
func dashboardHandler(analytics *services.Analytics, debug bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		view := templates.DashboardView{
			SessionID: uuid.NewString(),
			Cities:    analytics.Cities(),
			Selection: analytics.DefaultSelection(),
		}

		if debug {
			w.Header().Set("Cache-Control", "no-store")
		} else {
			w.Header().Set("Cache-Control", "private, max-age=0")
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.Dashboard(view).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func newRootCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:           "dashboard",
		Short:         "Supermarket sales dashboard",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(debug)
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging and disable page caching")
	return cmd
}

func run(debug bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if debug || cfg.App.Debug {
		cfg.EnableDebug()
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"debug", cfg.App.Debug,
		"csv_file", cfg.Dataset.CSVFile,
	)

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	ds, err := dataset.Load(ctx, cfg.Dataset.CSVFile, dataset.Options{
		Columns:  cfg.Dataset.Columns,
		CacheDir: cfg.Dataset.CacheDir,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	analytics := services.NewAnalytics(ds, logger)
	sessions := binding.NewRegistry(analytics, logger, cfg.Session.TTL)

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go sessions.Janitor(janitorCtx, cfg.Session.SweepInterval)

	srv := server.NewServer(analytics, logger, &server.TemplateHandlers{
		Dashboard: dashboardHandler(analytics, cfg.App.Debug),
	}, server.Options{
		Version:          version,
		Sessions:         sessions,
		RecomputeTimeout: cfg.Session.RecomputeTimeout,
	})

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	handler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
		middleware.Compression(logger),
	)(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)
	gracefulServer.RegisterShutdownHook("sessions", func(ctx context.Context) error {
		stopJanitor()
		return sessions.Shutdown(ctx)
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		return err
	}

	logger.Info("application stopped gracefully")
	return nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}
