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
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"salespulse/internal/config"
	apierrors "salespulse/internal/errors"
	"salespulse/internal/events"
	"salespulse/internal/infrastructure"
	customMiddleware "salespulse/internal/middleware"
	"salespulse/internal/services"
	"salespulse/internal/store"
	handlers "salespulse/internal/transport/http"
	ws "salespulse/internal/websocket"
	"salespulse/pkg/contracts"
)

// AppName is logged at startup
const AppName = "SalesPulse - Pizza Sales Analytics API"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Registry      *prometheus.Registry
	Metrics       *infrastructure.BusinessMetrics
	Store         *store.MemoryStore
	WebSocketHub  *ws.Hub
	Kafka         *events.KafkaPublisher
	UploadService *services.UploadService
	HealthService *services.HealthService

	stopOnce sync.Once
	stopErr  error
}

// NewApplication loads configuration from the environment and builds the
// application around the global logger.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	return New(cfg, logger)
}

// New wires every component from an already validated configuration
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	registry := prometheus.NewRegistry()
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("failed to register go collector: %w", err)
	}

	otelConfig := infrastructure.NewOTelConfig(cfg.Telemetry)
	otelConfig.Registry = registry
	otelProviders, err := infrastructure.InitializeOTel(otelConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	businessMetrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Registry:      registry,
		Metrics:       businessMetrics,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the store, the event publishers and the services
func (a *Application) initializeServices() error {
	a.Store = store.NewMemoryStore(store.WithLogger(a.Logger))
	if err := a.Registry.Register(store.NewSizeGauge(a.Store)); err != nil {
		return fmt.Errorf("failed to register store gauge: %w", err)
	}

	var publishers []events.Publisher
	if a.Config.WebSocket.Enabled {
		a.WebSocketHub = ws.NewHub(a.Logger)
		a.WebSocketHub.Start()
		publishers = append(publishers, a.WebSocketHub)
	}

	if a.Config.Events.KafkaEnabled() {
		a.Kafka = events.NewKafkaPublisher(a.Config.Events.KafkaBrokers, a.Config.Events.KafkaTopic)
		publishers = append(publishers, a.Kafka)
		a.Logger.Info("Kafka publishing enabled",
			slog.String("brokers", a.Config.Events.KafkaBrokers),
			slog.String("topic", a.Config.Events.KafkaTopic))
	}

	fanout := events.NewFanout(a.Config.Events.PublishTimeout, a.Logger, publishers...)

	a.UploadService = services.NewUploadService(
		a.Store,
		fanout,
		a.OTelProviders.Tracer,
		a.Metrics,
		a.Logger,
	)

	// a nil *Hub must not reach the interface
	var clients services.ClientCounter
	if a.WebSocketHub != nil {
		clients = a.WebSocketHub
	}
	a.HealthService = services.NewHealthService(contracts.Version, a.Store, clients, a.Logger)

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	r := chi.NewRouter()

	// Ordering: RequestID → RealIP → OTel → Logger → Recoverer → Timeout
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	if a.Config.Security.EnableCORS {
		// answers preflight requests before routing
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins:   a.Config.Security.AllowedOrigins,
			AllowCredentials: true,
		}))
	}

	// Set before Mount so the sub-router inherits them
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	// The websocket route skips the wrapping middleware below, which would
	// hide the Hijacker and bound the connection lifetime.
	if a.WebSocketHub != nil {
		r.Method(http.MethodGet, "/ws", handlers.NewWebSocketHandler(
			a.WebSocketHub,
			a.Config.Security.AllowedOrigins,
			a.Config.WebSocket.ReadBufferSize,
			a.Config.WebSocket.WriteBufferSize,
			a.Logger,
		))
	}

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Method(http.MethodGet, "/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(apierrors.RecoveryMiddleware(errorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		if a.Config.Server.RequestTimeout > 0 {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
		}

		health := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Get("/", health.Ready)
		r.Get("/api/health", health.HealthCheck)

		uploads := handlers.NewUploadHandler(
			a.UploadService,
			a.Logger,
			errorHandler,
			a.Config.Upload.FormField,
			a.Config.Upload.MultipartMemory,
		)
		r.Mount("/api", uploads.Routes())
	})

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelError),
	}
}

// Run listens on the configured address and serves until ctx is cancelled
// or the process receives SIGINT or SIGTERM.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		_ = a.Stop(context.Background())
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	return a.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts the
// application down gracefully.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	a.Logger.InfoContext(ctx, "Starting server",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("address", ln.Addr().String()),
		slog.Bool("websocket", a.WebSocketHub != nil),
		slog.Bool("kafka", a.Kafka != nil))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.InfoContext(context.Background(), "Shutdown requested")
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the application. Later calls return the first result.
func (a *Application) Stop(ctx context.Context) error {
	a.stopOnce.Do(func() {
		a.stopErr = a.shutdown(ctx)
	})
	return a.stopErr
}

func (a *Application) shutdown(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	if a.WebSocketHub != nil {
		a.WebSocketHub.Stop()
	}

	if a.Kafka != nil {
		if err := a.Kafka.Close(); err != nil {
			infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Error closing Kafka writer")
		}
	}

	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Error shutting down OpenTelemetry")
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")

	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("log file close: %w", err))
	}

	return errors.Join(errs...)
}
