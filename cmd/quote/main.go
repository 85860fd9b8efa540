// Package main is the entry point for the quote client.
//
// The display surface is chosen by display.mode (APP_DISPLAY_MODE):
//   - tui: interactive terminal screen (default)
//   - http: JSON API, websocket stream and operational endpoints
//   - plain: fetch once, print, exit
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/quote-client/internal/adapters/clients"
	"github.com/jsamuelsen/quote-client/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-client/internal/adapters/http"
	"github.com/jsamuelsen/quote-client/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-client/internal/adapters/tui"
	"github.com/jsamuelsen/quote-client/internal/app"
	"github.com/jsamuelsen/quote-client/internal/platform/config"
	"github.com/jsamuelsen/quote-client/internal/platform/logging"
	"github.com/jsamuelsen/quote-client/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-client/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the binary.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

// errQuoteUnavailable makes plain mode exit non-zero after printing the
// error view.
var errQuoteUnavailable = errors.New("no quote could be fetched")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		if !errors.Is(err, errQuoteUnavailable) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}

		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging. The terminal UI owns the screen, so only the
	// file sink (if enabled) receives its logs.
	logger, logCloser := logging.Open(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	}, logWriter(cfg.Display.Mode))
	defer func() { _ = logCloser.Close() }()

	logging.SetDefault(logger)

	logger.Info("starting quote client",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("mode", cfg.Display.Mode),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
		Insecure:     cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 5. Create the HTTP client and the forismatic fetcher (ACL pattern)
	userAgent := cfg.Client.UserAgent
	if userAgent == "" {
		userAgent = cfg.App.Name + "/" + Version
	}

	httpClient, err := clients.New(&clients.Config{
		ServiceName: cfg.Services.Quote.Name,
		Timeout:     cfg.Client.Timeout,
		UserAgent:   userAgent,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}

	fetcher := acl.NewForismaticFetcher(acl.ForismaticFetcherConfig{
		Client:  httpClient,
		BaseURL: cfg.Services.Quote.BaseURL,
		Name:    cfg.Services.Quote.Name,
		Logger:  logger,
	})

	// 6. Create the controller (application layer)
	ctrl := app.NewQuoteController(app.QuoteControllerConfig{
		Fetcher: fetcher,
		Logger:  logger,
	})

	if cfg.Display.Mode == config.ModePlain {
		return runPlain(ctx, ctrl, os.Stdout)
	}

	// 7. Run the display surface and the optional refresh schedule until
	// the surface exits or a signal arrives.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var scheduler *app.RefreshScheduler
	if cfg.Display.RefreshSchedule != "" {
		scheduler, err = app.NewRefreshScheduler(cfg.Display.RefreshSchedule, ctrl, logger)
		if err != nil {
			return fmt.Errorf("creating refresh scheduler: %w", err)
		}
	}

	surface := func(ctx context.Context) error { return tui.Run(ctx, ctrl) }

	if cfg.Display.Mode == config.ModeHTTP {
		server, err := newHTTPServer(cfg, logger, fetcher, ctrl)
		if err != nil {
			return err
		}

		surface = server.Run
	}

	g, gctx := errgroup.WithContext(ctx)

	if scheduler != nil {
		g.Go(func() error { return scheduler.Run(gctx) })
	}

	g.Go(func() error {
		defer cancel()
		return surface(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}

// logWriter picks the terminal log destination for a display mode.
func logWriter(mode string) io.Writer {
	switch mode {
	case config.ModeTUI:
		return io.Discard
	case config.ModePlain:
		return os.Stderr
	default:
		return os.Stdout
	}
}

// newHTTPServer wires the http display surface.
func newHTTPServer(cfg *config.Config, logger *slog.Logger, checker ports.HealthChecker, ctrl *app.QuoteController) (*http.Server, error) {
	healthRegistry := ports.NewHealthRegistry(
		ports.WithCheckTimeout(cfg.Server.ReadinessTimeout),
		ports.WithResultTTL(cfg.Server.ReadinessCacheTTL),
	)
	if err := healthRegistry.Register(checker); err != nil {
		return nil, fmt.Errorf("registering quote api health check: %w", err)
	}

	healthHandler := handlers.NewHealthHandler(handlers.HealthHandlerConfig{
		Registry:  healthRegistry,
		BuildInfo: handlers.NewBuildInfo(Version, Commit, BuildTime),
	})

	quoteHandler := handlers.NewQuoteHandler(handlers.QuoteHandlerConfig{Controller: ctrl})

	server := http.New(&cfg.Server, logger)
	server.RegisterOnShutdown(quoteHandler.Close)

	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:        logger,
		ServiceName:   cfg.App.Name,
		HealthHandler: healthHandler,
		QuoteHandler:  quoteHandler,
	})

	return server, nil
}

// plainController is what plain mode needs from the controller.
type plainController interface {
	Mount(ctx context.Context) bool
	Snapshot() app.State
}

// runPlain fetches once, prints the settled view and reports whether a
// quote is on screen.
func runPlain(ctx context.Context, ctrl plainController, w io.Writer) error {
	ctrl.Mount(ctx)

	state := ctrl.Snapshot()

	if _, err := fmt.Fprintln(w, tui.Render(state)); err != nil {
		return fmt.Errorf("writing quote: %w", err)
	}

	if state.ErrorMessage != "" {
		return errQuoteUnavailable
	}

	return nil
}
