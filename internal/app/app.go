package app

import (
	"context"
	"log/slog"

	"timetrack/internal/adapter/mysql"
	"timetrack/internal/auth"
	"timetrack/internal/config"
	"timetrack/internal/migrate"
	"timetrack/internal/ports"
	"timetrack/internal/usecase"
)

// App wires the store, the auth layer, and the use cases.
type App struct {
	log      *slog.Logger
	store    ports.Store
	closer   interface{ Close() error }
	engine   *usecase.TrackingEngine
	admin    *usecase.AdminService
	reporter *usecase.Reporter
	auth     *auth.Service
	tokens   *auth.TokenManager
}

func New(ctx context.Context, log *slog.Logger, cfg config.Config) (*App, error) {
	// Run migrations before opening the store for use.
	if err := migrate.Run(ctx, cfg.MySQL.DSN, log); err != nil {
		return nil, err
	}
	store, err := mysql.Open(ctx, cfg.MySQL.DSN, log)
	if err != nil {
		return nil, err
	}

	hasher := auth.NewArgon2Hasher()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	a := &App{
		log:      log,
		store:    store,
		closer:   store,
		engine:   &usecase.TrackingEngine{Log: log, Store: store},
		admin:    &usecase.AdminService{Log: log, Store: store, Hasher: hasher},
		reporter: &usecase.Reporter{Log: log, Store: store},
		auth:     &auth.Service{Log: log, Store: store, Hasher: hasher, Tokens: tokens},
		tokens:   tokens,
	}

	if err := a.auth.Bootstrap(ctx, cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword); err != nil {
		store.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the store connection pool.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
