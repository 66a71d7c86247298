package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"predmaint/internal/config"
	apierrors "predmaint/internal/errors"
	"predmaint/internal/infrastructure"
	customMiddleware "predmaint/internal/middleware"
	"predmaint/internal/pipeline"
	"predmaint/internal/presentation"
	"predmaint/internal/services"
	"predmaint/internal/session"
	handlers "predmaint/internal/transport/http"
	ws "predmaint/internal/websocket"
	"predmaint/web"
)

// BuildTime is set at link time
var BuildTime = time.Now().Format(time.RFC3339)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.Metrics
	Sessions      *session.Store
	WebSocketHub  *ws.Hub
	Services      *ServiceContainer

	errorHandler *apierrors.ErrorHandler
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Analysis     *services.AnalysisService
	Presentation *services.PresentationService
	Health       *services.HealthService
}

// NewApplication wires every component from cfg
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		errorHandler:  apierrors.NewErrorHandler(logger, false),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up routes: %w", err)
	}

	app.createServer()
	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	a.Sessions = session.NewStore(a.Config.Session.TTL, a.Logger)
	a.WebSocketHub = ws.NewHub(a.Logger)

	trainer := pipeline.New(pipeline.Options{
		Trees:     a.Config.Model.Trees,
		Seed:      a.Config.Model.Seed,
		TestRatio: a.Config.Model.TestRatio,
		MaxDepth:  a.Config.Model.MaxDepth,
	}, a.Logger, a.OTelProviders.Tracer)

	deck, err := presentation.DefaultDeck()
	if err != nil {
		return fmt.Errorf("failed to load slide deck: %w", err)
	}
	viewer, err := presentation.NewViewer(deck.Len(), a.Config.Presentation.AdvanceThreshold)
	if err != nil {
		return fmt.Errorf("failed to create slide viewer: %w", err)
	}
	scheduler := presentation.NewScheduler(a.Config.Presentation.AutoplayInterval, a.Logger)

	a.Services = &ServiceContainer{
		Analysis:     services.NewAnalysisService(a.Sessions, trainer, a.WebSocketHub, a.Metrics, a.Logger),
		Presentation: services.NewPresentationService(a.Sessions, deck, viewer, scheduler, a.WebSocketHub, a.Metrics, a.Logger),
		Health:       services.NewHealthService(config.AppVersion, BuildTime, a.Sessions, a.WebSocketHub, a.Logger),
	}

	a.Logger.Info("Services initialized",
		slog.Int("slides", deck.Len()),
		slog.Int("trees", a.Config.Model.Trees),
		slog.Duration("autoplay_interval", a.Config.Presentation.AutoplayInterval))
	return nil
}

// setupRouter builds the middleware chain and mounts every handler
func (a *Application) setupRouter() error {
	renderer, err := handlers.NewPageRenderer(web.Templates())
	if err != nil {
		return err
	}

	validator := customMiddleware.NewValidator()
	sessions := handlers.SessionMiddleware(a.Sessions, a.Config.Session.CookieName, a.Logger)
	maxUpload := a.Config.Server.MaxUploadBytes

	analysisHandler := handlers.NewAnalysisHandler(a.Services.Analysis, validator, maxUpload, a.Logger, a.errorHandler)
	presentationHandler := handlers.NewPresentationHandler(a.Services.Presentation, a.Logger, a.errorHandler)
	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	pageHandler := handlers.NewPageHandler(a.Services.Analysis, a.Services.Presentation, renderer, validator, maxUpload, a.Logger, a.errorHandler)
	wsHandler := handlers.NewWebSocketHandler(a.WebSocketHub, a.Services.Presentation, a.Config.WebSocket, a.Logger, a.errorHandler)

	r := chi.NewRouter()
	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	// Only middleware that leaves the ResponseWriter alone runs in front of
	// the WebSocket upgrade.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.With(sessions).Handle("/ws", wsHandler)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → Security → RateLimit → Timeout
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.errorHandler))
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.errorHandler,
			).Handler)
		}
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))

			r.Mount("/health", healthHandler.Routes())
			r.Get("/version", healthHandler.Version)

			r.Group(func(r chi.Router) {
				r.Use(sessions)
				r.Mount("/analysis", analysisHandler.Routes())
				r.Mount("/presentation", presentationHandler.Routes())
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(sessions)
			pageHandler.RegisterRoutes(r)
		})
	})

	a.Router = r
	return nil
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         a.Config.Address(),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run serves until ctx is cancelled, SIGINT or SIGTERM arrives, or a
// component fails, then shuts everything down.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.WebSocketHub.Run(gctx)
	})
	g.Go(func() error {
		return a.Sessions.RunJanitor(gctx, a.Config.Session.JanitorInterval)
	})
	g.Go(func() error {
		a.Logger.InfoContext(gctx, "HTTP server listening",
			slog.String("address", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("Shutdown requested")
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	a.Services.Presentation.Shutdown()
	a.WebSocketHub.Stop()

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}
