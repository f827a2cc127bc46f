package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/metric"

	"povcli/internal/config"
	apierrors "povcli/internal/errors"
	"povcli/internal/infrastructure"
	customMiddleware "povcli/internal/middleware"
	"povcli/internal/services"
	handlers "povcli/internal/transport/http"
)

const AppName = "povcli dataset server"

// Application wires the dataset server together
type Application struct {
	Config         *config.Config
	Paths          *config.Paths
	Router         *chi.Mux
	Server         *http.Server
	DatasetService *services.DatasetService
	HealthService  *services.HealthService
	Logger         *slog.Logger
	OTelProviders  *infrastructure.OTelProviders

	listener net.Listener
	serveErr chan error
}

// NewApplication creates the server from a loaded configuration. A nil
// providers value serves /metrics from the default Prometheus registry.
func NewApplication(cfg *config.Config, logger *slog.Logger, providers *infrastructure.OTelProviders) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := cfg.Paths.Resolve()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
	}

	a.DatasetService = services.NewDatasetService(paths.JSONFile, logger)
	a.HealthService = services.NewHealthService(config.AppVersion, a.DatasetService)

	if err := a.setupRouter(); err != nil {
		return nil, err
	}
	a.createServer()
	return a, nil
}

// setupRouter configures the HTTP router with all routes.
// Order: RequestID, RealIP, OTel, Logger, Recoverer, SecurityHeaders, RateLimit.
func (a *Application) setupRouter() error {
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	r := chi.NewRouter()
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	var meter metric.Meter
	if a.OTelProviders != nil {
		meter = a.OTelProviders.Meter
	}
	otelMiddleware, err := customMiddleware.NewOTelMiddleware(meter, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}

	r.Group(func(r chi.Router) {
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(apierrors.RecoveryMiddleware(errorHandler))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.Compress(5))
		if a.Config.Server.RateLimitRPS > 0 {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Server.RateLimitRPS,
				a.Config.Server.RateLimitBurst,
				a.Logger,
			).Handler)
		}

		datasetHandler := handlers.NewDatasetHandler(a.DatasetService, a.Logger, errorHandler)
		r.Route(config.APIBasePath, func(r chi.Router) {
			r.Mount("/countries", datasetHandler.Routes())
		})
		r.Get(config.HealthEndpoint, handlers.NewHealthHandler(a.HealthService, a.Logger).HealthCheck)
	})

	// Scrapes skip the request middleware
	var exporter http.Handler
	if a.OTelProviders != nil {
		exporter = a.OTelProviders.PrometheusHTTP
	}
	r.Mount(config.MetricsEndpoint, handlers.NewMetricsHandler(exporter).Routes())

	a.Router = r
	return nil
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start binds the listener and serves in the background
func (a *Application) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = ln
	a.serveErr = make(chan error, 1)

	a.Logger.InfoContext(ctx, "Starting server",
		slog.String("name", AppName),
		slog.String("version", config.AppVersion),
		slog.String("addr", ln.Addr().String()),
		slog.String("dataset", a.Paths.JSONFile))

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.serveErr <- err
		}
		close(a.serveErr)
	}()
	return nil
}

// Addr returns the bound address once Start has succeeded
func (a *Application) Addr() string {
	if a.listener == nil {
		return a.Server.Addr
	}
	return a.listener.Addr().String()
}

// Stop shuts the server down gracefully and flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	a.Logger.InfoContext(ctx, "Shutting down server")

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run serves until ctx is cancelled, SIGINT or SIGTERM arrives, or the
// server fails, then shuts down.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Received shutdown signal")
	case serveErr = <-a.serveErr:
		if serveErr != nil {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", serveErr.Error()))
		}
	}

	return errors.Join(serveErr, a.Stop(ctx))
}
