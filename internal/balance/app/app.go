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

	"github.com/aussiebroadwan/balancebot/internal/balance/domain"
	httpapi "github.com/aussiebroadwan/balancebot/internal/balance/http"
	"github.com/aussiebroadwan/balancebot/internal/balance/metrics"
	"github.com/aussiebroadwan/balancebot/internal/balance/service"
	"github.com/aussiebroadwan/balancebot/internal/balance/store"
	"github.com/aussiebroadwan/balancebot/pkg/httpx"
	"github.com/aussiebroadwan/balancebot/pkg/monzo"
	"github.com/aussiebroadwan/balancebot/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the webhook server and its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      store.Store
	api     *monzo.Client
	metrics *metrics.Recorder

	tokenService   *service.TokenService
	webhookService *service.WebhookService

	server *http.Server
	router *httpapi.Router
}

// New validates cfg and initialises every dependency.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "balancebot",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.MetricsEnabled {
		app.metrics = metrics.New()
	}

	db, err := OpenStore(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	app.db = db
	app.logger.Info("state store ready", "backend", cfg.StateBackend)

	app.api = monzo.NewClient(cfg.MonzoAPIURL, monzo.Options{
		ConnectTimeout: cfg.HTTPConnectTimeout,
		ReadTimeout:    cfg.HTTPReadTimeout,
		MaxRetries:     cfg.HTTPMaxRetries,
	})

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("balancebot starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"account_id", app.cfg.MonzoAccountID,
		"sweep_enabled", app.cfg.SweepEnabled,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down balancebot...")

	// Give in-flight webhooks a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing state store", "error", err)
		return err
	}

	app.logger.Info("balancebot stopped")
	return nil
}

// Handler exposes the HTTP router, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Store:                app.db,
		API:                  app.api,
		Metrics:              app.metrics,
		ClientID:             app.cfg.MonzoClientID,
		ClientSecret:         app.cfg.MonzoClientSecret,
		RecoveryRefreshToken: app.cfg.MonzoRefreshToken,
	}

	alerts := &service.AlertService{
		Store:   app.db,
		Tokens:  app.tokenService,
		API:     app.api,
		Metrics: app.metrics,

		AccountID: app.cfg.MonzoAccountID,
		Thresholds: domain.Thresholds{
			Warning:  app.cfg.WarningLimit,
			Critical: app.cfg.CriticalLimit,
		},
		Frequency:    app.cfg.AlertFreq,
		ClickURLBase: app.cfg.ClickURLBase,
	}

	var sweep *service.SweepService
	if app.cfg.SweepEnabled {
		sweep = &service.SweepService{
			Store:     app.db,
			Tokens:    app.tokenService,
			API:       app.api,
			Metrics:   app.metrics,
			AccountID: app.cfg.MonzoAccountID,
			PotID:     app.cfg.SweepPotID,
		}
		app.logger.Info("commitments sweep enabled", "pot_id", app.cfg.SweepPotID)
	}

	app.webhookService = &service.WebhookService{
		Gate: &service.AdmissionGate{
			Store:      app.db,
			FailClosed: !app.cfg.DedupeFailOpen,
		},
		Alerts:  alerts,
		Sweep:   sweep,
		Metrics: app.metrics,
		SeenTTL: app.cfg.SeenTTL,
	}
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)
	router.Webhook = app.webhookService
	router.WebhookSecret = app.cfg.WebhookSecret
	router.AllowQuerySecret = app.cfg.AllowQuerySecret
	router.WebhookLimit = httpx.ParseRateLimitFromEnv("WEBHOOK", httpx.WebhookLimit)
	if app.metrics != nil {
		router.Metrics = app.metrics.Handler()
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
