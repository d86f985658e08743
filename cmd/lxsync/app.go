package main

import (
	"context"
	"errors"
	"os"
	"time"

	"lxsync/internal/cache"
	"lxsync/internal/config"
	"lxsync/internal/httpclient"
	"lxsync/internal/lingxing"
	"lxsync/internal/logging"
	"lxsync/internal/metrics"
	"lxsync/internal/repository"
	"lxsync/internal/service"

	"github.com/rs/zerolog"
)

// app holds the wired components of one invocation.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	api     *lingxing.Client
	runner  *service.Runner
	closers []func() error
}

// newApp loads configuration and wires every component. withDB is false
// for commands that never touch the database.
func newApp(ctx context.Context, withDB bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.App.LogLevel, cfg.App.LogFormat, os.Stderr).With().Str("app", cfg.App.Name).Logger()

	// Bad credentials stop the process before any network call.
	if err := cfg.Validate(); err != nil {
		return nil, logErr(logger, err, "invalid configuration")
	}

	a := &app{cfg: cfg, logger: logger}

	store, err := a.openTokenStore(ctx)
	if err != nil {
		a.Close()
		return nil, logErr(logger, err, "token cache unavailable")
	}

	m := metrics.New()
	hc := httpclient.New(httpclient.Config{
		ConnectTimeout: cfg.HTTP.ConnectTimeout,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		MaxRetries:     cfg.HTTP.MaxRetries,
		BackoffBase:    cfg.HTTP.BackoffBase,
		BackoffMax:     cfg.HTTP.BackoffMax,
		RetryStatuses:  cfg.HTTP.RetryStatuses,
		MinInterval:    cfg.HTTP.MinInterval,
		Metrics:        m,
	}, logger)

	api, err := lingxing.New(lingxing.Config{
		Credentials: lingxing.Credentials{
			AppID:     cfg.Lingxing.AppID,
			AppSecret: cfg.Lingxing.AppSecret,
			Host:      cfg.Lingxing.Host,
		},
		HideZeroStock:    cfg.Lingxing.HideZeroStock,
		QueryStorageList: cfg.Lingxing.QueryStorageList,
	}, hc, lingxing.NewTokenCache(store), logger)
	if err != nil {
		a.Close()
		return nil, logErr(logger, err, "invalid credentials")
	}
	a.api = api

	if !withDB {
		return a, nil
	}

	// Without a connection there is nowhere to record the run.
	db, err := a.openDB(ctx)
	if err != nil {
		a.Close()
		return nil, logErr(logger, err, "database connection failed, run not recorded")
	}
	a.closers = append(a.closers, db.Close)

	a.runner = &service.Runner{
		API:       api,
		Schema:    db,
		Audit:     repository.NewAuditRepository(db),
		Stores:    repository.NewStoreRepository(db, logger),
		Inventory: repository.NewInventoryRepository(db, logger),
		Runs:      repository.NewRunRepository(db),
		Metrics:   m,
		Logger:    logger,
		PushURL:   cfg.Metrics.PushgatewayURL,
		PushJob:   cfg.Metrics.Job,
	}
	return a, nil
}

func (a *app) openTokenStore(ctx context.Context) (cache.Cache, error) {
	tc := a.cfg.TokenCache
	switch tc.Type {
	case "redis":
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		rc, err := cache.NewRedisCache(connectCtx, cache.RedisConfig{
			Addr:      tc.RedisAddress(),
			Password:  tc.RedisPassword,
			DB:        tc.RedisDB,
			KeyPrefix: tc.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rc.Close)
		return rc, nil
	case "memory":
		return cache.NewMemoryCache(), nil
	default:
		fc, err := cache.NewFileCache(tc.Dir, cache.DefaultFilePattern)
		if err != nil {
			return nil, err
		}
		return fc, nil
	}
}

func (a *app) openDB(ctx context.Context) (*repository.DB, error) {
	if a.cfg.Database.Driver == "sqlite" {
		return repository.OpenSQLite(ctx, a.cfg.Database.Path)
	}
	return repository.OpenMySQL(ctx, a.cfg.Database.DSN())
}

func (a *app) options() service.Options {
	return service.Options{
		SourceSystem: a.cfg.Lingxing.SourceSystem,
		Platform:     a.cfg.Lingxing.Platform,
		ChunkSize:    a.cfg.Database.ChunkSize,
		PageSize:     a.cfg.Lingxing.ShopPageSize,
		Length:       a.cfg.Lingxing.InventoryPageSize,
	}
}

// Close releases connections in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func logErr(logger zerolog.Logger, err error, msg string) error {
	logger.Error().Err(err).Msg(msg)
	return err
}
