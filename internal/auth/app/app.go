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

	httpapi "github.com/aussiebroadwan/codegrant/internal/auth/http"
	"github.com/aussiebroadwan/codegrant/internal/auth/service"
	"github.com/aussiebroadwan/codegrant/internal/auth/store"
	"github.com/aussiebroadwan/codegrant/internal/auth/store/drivers"
	"github.com/aussiebroadwan/codegrant/internal/auth/telemetry"
	"github.com/aussiebroadwan/codegrant/internal/auth/upstream"
	"github.com/aussiebroadwan/codegrant/pkg/cryptox"
	"github.com/aussiebroadwan/codegrant/pkg/httpx"
	"github.com/aussiebroadwan/codegrant/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X ...app.BuildVersion=...".
var BuildVersion = "v0.1.0"

// Application wires the store, services and HTTP server together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      store.Store
	metrics *telemetry.Metrics
	secrets cryptox.Hasher

	grants              *service.GrantService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "codegrant",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: telemetry.New(),
	}

	if err := app.initPepper(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := app.initStore(ctx); err != nil {
		return nil, err
	}

	if err := app.seedClients(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initHTTP(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("codegrant starting",
		"port", app.cfg.Port,
		"store", app.cfg.StoreDriver,
		"version", BuildVersion,
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
			app.housekeepingService.Stop()
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
	app.logger.Info("shutting down codegrant...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("codegrant stopped")
	return nil
}

func (app *Application) initPepper() error {
	if app.cfg.PepperFile == "" {
		return nil
	}
	pepper, err := cryptox.LoadPepper(app.cfg.PepperFile)
	if err != nil {
		return err
	}
	app.secrets = cryptox.Hasher{Pepper: pepper}
	return nil
}

// initStore opens the configured driver and applies migrations
func (app *Application) initStore(ctx context.Context) error {
	db, err := drivers.Open(ctx, app.cfg.StoreConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	app.db = db

	app.logger.Info("store ready", "driver", app.cfg.StoreDriver)
	return nil
}

func (app *Application) seedClients(ctx context.Context) error {
	if app.cfg.ClientsFile == "" {
		app.logger.Warn("no clients file configured, using the clients already in the store")
		return nil
	}

	clients, err := LoadClients(app.cfg.ClientsFile)
	if err != nil {
		return err
	}
	pruned, err := SeedClients(ctx, app.db, clients)
	if err != nil {
		return err
	}
	if len(pruned) > 0 {
		app.logger.Info("clients removed from the registry", "client_ids", pruned)
	}

	app.logger.Info("clients seeded", "count", len(clients), "file", app.cfg.ClientsFile)
	return nil
}

func (app *Application) initServices() error {
	authn, err := app.upstreamAuthenticator()
	if err != nil {
		return err
	}

	app.grants = &service.GrantService{
		Clients: &service.ClientRegistry{
			Store:   app.db,
			Metrics: app.metrics,
			Secrets: app.secrets,
		},
		Codes: &service.CodeStore{
			Store:   app.db,
			TTL:     app.cfg.CodeTTL,
			Metrics: app.metrics,
		},
		Upstream: authn,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.CodeRetention,
	)

	return nil
}

func (app *Application) upstreamAuthenticator() (upstream.Authenticator, error) {
	if app.cfg.UpstreamTokenURL == "" {
		app.logger.Warn("no upstream token URL configured, authorize endpoint disabled")
		return upstream.Disabled{}, nil
	}

	authn, err := upstream.NewPasswordAuthenticator(upstream.PasswordConfig{
		TokenURL:     app.cfg.UpstreamTokenURL,
		ClientID:     app.cfg.UpstreamClientID,
		ClientSecret: app.cfg.UpstreamClientSecret,
		Scopes:       app.cfg.UpstreamScopes,
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure upstream: %w", err)
	}
	return authn, nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	trusted, err := httpx.ParseTrustedProxies(app.cfg.TrustedProxies)
	if err != nil {
		return err
	}

	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)
	router.Grants = app.grants
	router.Metrics = app.metrics
	router.IssuerToken = app.cfg.IssuerToken
	router.TrustedProxies = trusted
	router.ApplyRoutes()

	if app.cfg.IssuerToken == "" {
		app.logger.Warn("no issuer token configured, direct code issuance disabled")
	}

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
