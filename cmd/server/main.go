//	@title			snipbox API
//	@version		1.0
//	@description	Short text submissions with cursor pagination and per-client rate limiting.
//	@BasePath		/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"snipbox/backend/internal/config"
	"snipbox/backend/internal/db"
	"snipbox/backend/internal/handler"
	gh "snipbox/backend/internal/http"
	"snipbox/backend/internal/ratelimit"
	"snipbox/backend/internal/repository"
	"snipbox/backend/internal/scheduler"
	"snipbox/backend/internal/service"
	"snipbox/backend/pkg/logger"
	"snipbox/backend/pkg/snowflake"
)

func main() {
	if err := run(); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.InitWithFormat(logger.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	if err := snowflake.Init(cfg.NodeID); err != nil {
		return fmt.Errorf("init snowflake: %w", err)
	}

	repo, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	limiter, janitor, closeLimiter, err := openLimiter(cfg)
	if err != nil {
		return err
	}
	defer closeLimiter()

	trusted, err := gh.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("parse trusted proxies: %w", err)
	}

	submissionService := service.NewSubmissionService(repo)
	e := gh.NewRouter(
		handler.NewSubmissionHandler(submissionService),
		handler.NewHealthHandler(submissionService),
		limiter,
		gh.RouterOptions{
			TrustedProxies: trusted,
			CORSOrigins:    cfg.CORSOrigins,
			EnableSwagger:  cfg.EnableSwagger,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if janitor != nil {
		janitor.Start()
		defer janitor.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening",
			"addr", cfg.Addr,
			"db_driver", cfg.DBDriver,
			"rate_limit_backend", cfg.RateLimitBackend,
			"rate_limit_max", cfg.RateLimitMax,
			"rate_limit_window", cfg.RateLimitWindow,
		)
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(cfg config.Config) (repository.SubmissionRepository, func(), error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		gdb, err := db.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("postgres handle: %w", err)
		}
		return repository.NewGormSubmissionRepository(gdb), closer("postgres", sqlDB), nil
	default:
		sqlDB, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("database opened", "path", cfg.DBPath)
		return repository.NewSubmissionRepository(sqlDB), closer("sqlite", sqlDB), nil
	}
}

// openLimiter builds the configured limiter. The memory backend comes with a janitor
// that reclaims expired windows once per window length.
func openLimiter(cfg config.Config) (ratelimit.Limiter, *scheduler.Scheduler, func(), error) {
	switch cfg.RateLimitBackend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			client.Close()
			return nil, nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		limiter, err := ratelimit.NewRedisLimiter(client, cfg.RedisPrefix, cfg.RateLimitMax, cfg.RateLimitWindow)
		if err != nil {
			client.Close()
			return nil, nil, nil, err
		}
		return limiter, nil, closer("redis", client), nil
	default:
		limiter, err := ratelimit.NewMemoryLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
		if err != nil {
			return nil, nil, nil, err
		}
		janitor := scheduler.New("ratelimit-sweep", limiter.SweepExpired, cfg.RateLimitWindow)
		return limiter, janitor, func() {}, nil
	}
}

func closer(name string, c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn("close failed", "resource", name, "error", err)
		}
	}
}
