package app

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpapi "github.com/inkwellhq/apigate/internal/gateway/http"
	"github.com/inkwellhq/apigate/internal/gateway/scope"
	"github.com/inkwellhq/apigate/internal/gateway/service"
	"github.com/inkwellhq/apigate/internal/gateway/store"
	"github.com/inkwellhq/apigate/internal/gateway/store/drivers/sqlite"
	"github.com/inkwellhq/apigate/pkg/jwtx"
	"github.com/inkwellhq/apigate/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the gateway with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	signer   jwtx.Signer
	verifier jwtx.Verifier

	translator *scope.Translator
	authorizer *scope.Authorizer

	clientService    *service.ClientService
	codeService      *service.CodeService
	authorizeService *service.AuthorizeService
	tokenService     *service.TokenService
	housekeeping     *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "apigate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initKeys(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeeping.Start()

	app.logger.Info("gateway starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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

// Shutdown gracefully stops the server, housekeeping and database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeping.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gateway stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initKeys loads the token signing key, or generates an ephemeral one when
// no key file is configured. Ephemeral keys invalidate outstanding tokens
// on restart, which is fine for dev and tests.
func (app *Application) initKeys() error {
	if app.cfg.SigningKeyPath != "" {
		pemKey, err := os.ReadFile(app.cfg.SigningKeyPath)
		if err != nil {
			return fmt.Errorf("failed to read signing key: %w", err)
		}
		signer, err := jwtx.NewSignerEdDSA("gateway", pemKey)
		if err != nil {
			return fmt.Errorf("failed to load signing key: %w", err)
		}
		app.signer = signer
		app.verifier = jwtx.NewVerifierEdDSA(signer.Public(), app.cfg.Issuer)
		return nil
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate signing key: %w", err)
	}
	signer := jwtx.NewSignerFromKey("gateway", priv)
	app.signer = signer
	app.verifier = jwtx.NewVerifierEdDSA(signer.Public(), app.cfg.Issuer)

	app.logger.Warn("using ephemeral signing key, tokens will not survive restarts")
	return nil
}

func (app *Application) initServices() {
	app.translator = scope.NewTranslator(app.cfg.RolePrefix, app.cfg.BaseRole, app.cfg.PreviewRole)
	app.authorizer = scope.NewAuthorizer(app.translator)

	app.clientService = service.NewClientService(app.db, app.logger)
	app.codeService = service.NewCodeService(app.db, app.cfg.CodeTTL, app.logger)

	app.authorizeService = service.NewAuthorizeService(
		app.clientService,
		app.codeService,
		app.authorizer,
		app.translator,
		app.logger,
		app.identityResolver(),
	)

	app.tokenService = service.NewTokenService(
		app.clientService,
		app.codeService,
		app.authorizer,
		app.signer,
		app.cfg.Issuer,
		app.cfg.AccessTTL,
		app.logger,
	)

	app.housekeeping = service.NewHousekeepingService(
		app.codeService, app.logger, app.cfg.HousekeepingInterval)
}

// identityResolver approves authorize requests that arrive already
// authenticated as a user; anyone else is sent to the login page when one
// is configured, or denied.
func (app *Application) identityResolver() service.Resolver {
	loginURL := app.cfg.LoginURL
	return service.ResolverFunc(func(ctx context.Context, event *service.ResolutionEvent) error {
		if identity, ok := httpapi.IdentityFrom(ctx); ok && identity.UserID != "" {
			event.BindUser(identity.UserID)
			event.Resolve(true)
			return nil
		}
		if loginURL != "" {
			event.SetResponse(&service.ShortCircuitResponse{
				StatusCode: http.StatusFound,
				Location:   loginURL,
			})
		}
		return nil
	})
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)
	router.AuthorizeService = app.authorizeService
	router.TokenService = app.tokenService
	router.ClientService = app.clientService
	router.APIKeyAuth = &httpapi.APIKeyAuthenticator{
		Clients:  app.clientService,
		Sessions: app.db.Sessions(),
	}
	router.BearerAuth = &httpapi.BearerAuthenticator{
		Verifier:   app.verifier,
		Translator: app.translator,
		Users:      app.db.Users(),
		BaseRole:   app.cfg.BaseRole,
	}
	router.Locale = &httpapi.LocaleResolver{Supported: app.cfg.Locales}
	router.Cache = httpapi.CachePolicy{
		TTLMinutes:         app.cfg.CacheTTLMinutes,
		ClientCacheAllowed: app.cfg.ClientCacheAllowed,
	}
	router.PagesStore = app.db.Pages()
	router.PreviewRole = app.cfg.PreviewRole
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: router,
	}
}
