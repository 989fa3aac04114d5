// Package server initializes and runs the application server.
// It opens the database, applies schema migrations, wires the services,
// handles graceful shutdown, and starts the HTTP endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/hoaboard/internal/cryptox"
	"github.com/dmitrijs2005/hoaboard/internal/logging"
	"github.com/dmitrijs2005/hoaboard/internal/server/config"
	"github.com/dmitrijs2005/hoaboard/internal/server/httpapi"
	"github.com/dmitrijs2005/hoaboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/hoaboard/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	crypto, err := cryptox.NewProvider(cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("crypto init error: %w", err)
	}

	us := services.NewUserService(db, rm, crypto, cfg.TokenValidity)
	cs := services.NewCommunityService(db, rm, crypto, cfg.InvitationValidity)
	vs := services.NewVoteService(db, rm)

	srv := httpapi.NewServer(cfg, logger, us, cs, vs, nil)

	return &App{config: cfg, logger: logger, db: db, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
