package app

import (
	"context"
	"fmt"
	"time"

	"github.com/birlikkoshan/todo-api/internal/config"
	"github.com/birlikkoshan/todo-api/internal/repo"
	"github.com/birlikkoshan/todo-api/migrations"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg    config.Config
	log    *log.Logger
	db     *pgxpool.Pool
	redis  *redis.Client
	repo   repo.TodoRepo
	router *gin.Engine
}

// New connects the configured store, retrying with a fixed backoff, runs
// migrations for Postgres and builds the router.
func New(ctx context.Context, cfg config.Config, logger *log.Logger) (*App, error) {
	a := &App{cfg: cfg, log: logger}

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := connectWithRetry(ctx, cfg.Store, logger, "postgres", func() (*pgxpool.Pool, error) {
			return newPostgres(ctx, cfg.PG.DSN)
		})
		if err != nil {
			return nil, err
		}
		a.db = db
		if err := migrations.Up(cfg.PG.DSN); err != nil {
			a.db.Close()
			return nil, err
		}
		a.repo = repo.NewPGTodoRepo(db)
	case config.DriverMemory:
		a.repo = repo.NewMemoryTodoRepo()
	}

	if cfg.NeedsRedis() {
		rdb, err := connectWithRetry(ctx, cfg.Store, logger, "redis", func() (*redis.Client, error) {
			return newRedis(ctx, cfg.Redis)
		})
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.redis = rdb
		if cfg.Store.Driver == config.DriverRedis {
			a.repo = repo.NewRedisTodoRepo(rdb)
		}
	}

	logger.Info("store ready", "driver", cfg.Store.Driver, "cache", cfg.Cache.Enabled)
	a.router = NewRouter(cfg, logger, Deps{Repo: a.repo, Redis: a.redis, Ping: a.ping})
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Close releases the store connections.
func (a *App) Close() error {
	var err error
	if a.redis != nil {
		if cerr := a.redis.Close(); cerr != nil {
			err = fmt.Errorf("redis close: %w", cerr)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	return err
}

func (a *App) ping(ctx context.Context) error {
	if a.db != nil {
		if err := a.db.Ping(ctx); err != nil {
			return fmt.Errorf("pg ping: %w", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
	}
	return nil
}

// connectWithRetry makes up to cfg.ConnectRetries attempts spaced by
// cfg.ConnectBackoff. It runs once at startup; request paths never retry.
func connectWithRetry[T any](ctx context.Context, cfg config.StoreConfig, logger *log.Logger, name string, connect func() (T, error)) (T, error) {
	var (
		out     T
		attempt int
	)
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(cfg.ConnectBackoff.Duration()), uint64(cfg.ConnectRetries-1)),
		ctx,
	)
	err := backoff.RetryNotify(func() error {
		attempt++
		v, err := connect()
		if err != nil {
			return err
		}
		out = v
		return nil
	}, policy, func(err error, wait time.Duration) {
		logger.Warn("store connection failed, retrying", "store", name, "attempt", attempt, "max", cfg.ConnectRetries, "in", wait, "err", err)
	})
	if err != nil {
		return out, fmt.Errorf("%s: giving up after %d attempts: %w", name, attempt, err)
	}
	logger.Info("store connected", "store", name, "attempts", attempt)
	return out, nil
}

func newPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("pg parse config: %w", err))
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return pool, nil
}

func newRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}
