// Package app initializes and runs the identity resolution service. It
// opens the database, applies schema migrations, wires the resolver with
// its optional directory client, and starts the HTTP server with graceful
// shutdown on SIGINT/SIGTERM.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/okozlov/identityd/internal/config"
	"github.com/okozlov/identityd/internal/directory"
	"github.com/okozlov/identityd/internal/httpapi"
	"github.com/okozlov/identityd/internal/logging"
	"github.com/okozlov/identityd/internal/repositories/repomanager"
	"github.com/okozlov/identityd/internal/resolver"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	resolver *resolver.Resolver
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := newLogger(cfg.LogBackend)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	var dir directory.Client
	if cfg.DirectoryEnabled {
		dir = directory.NewLDAPClient(directory.LDAPOptions{
			URL:          cfg.LDAPURL,
			BindDN:       cfg.LDAPBindDN,
			BindPassword: cfg.LDAPBindPassword,
			BaseDN:       cfg.LDAPBaseDN,
			UIDAttribute: cfg.LDAPUIDAttribute,
			AdminGroup:   cfg.LDAPAdminGroup,
			Timeout:      cfg.LDAPTimeout,
		}, logger)
	}

	res := resolver.NewResolver(rm.Users(db), rm.GroupsTx(db), dir, cfg, logger)

	return &App{config: cfg, logger: logger, db: db, resolver: res}, nil
}

func newLogger(backend string) (logging.Logger, error) {
	switch backend {
	case "zap":
		zl, err := zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("zap init error: %w", err)
		}
		return logging.NewZapLogger(zl), nil
	case "", "slog":
		return logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil))), nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	handler := httpapi.NewHandler(app.resolver, app.logger)
	s := httpapi.NewServer(app.config.EndpointAddr, handler, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
