package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/meridianbank/meridian/internal/auth"
	"github.com/meridianbank/meridian/internal/bank"
	"github.com/meridianbank/meridian/internal/config"
	"github.com/meridianbank/meridian/internal/infra"
	"github.com/meridianbank/meridian/internal/logging"
	"github.com/meridianbank/meridian/internal/server"
	"github.com/meridianbank/meridian/internal/store"
)

func main() {
	// A local .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.AppName)
	ctx := context.Background()

	var snapStore store.Store
	if cfg.DatabaseURL != "" {
		db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		pg := store.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Error("ensure snapshot schema", "error", err)
			os.Exit(1)
		}
		snapStore = pg
		logger.Info("using postgres snapshot store")
	} else {
		snapStore = store.NewJSONStore(cfg.SnapshotPath)
		logger.Info("using json snapshot store", "path", cfg.SnapshotPath)
	}

	adminHash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		logger.Error("hash admin password", "error", err)
		os.Exit(1)
	}

	bankSvc, err := bank.Load(ctx, snapStore, bank.Config{
		Agency:                 cfg.Agency,
		CheckingCap:            cfg.CheckingCap,
		CheckingMaxWithdrawals: cfg.CheckingMaxWithdrawals,
		CheckingResetPeriod:    cfg.CheckingResetPeriod,
	}, bank.Bootstrap{
		AdminCPF:          cfg.AdminCPF,
		AdminName:         cfg.AdminName,
		AdminPasswordHash: adminHash,
	}, logger)
	if err != nil {
		logger.Error("load bank state", "error", err)
		os.Exit(1)
	}

	cache, err := connectRedis(ctx, cfg)
	if err != nil {
		logger.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if cache != nil {
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
	}

	srv, err := server.New(cfg, bankSvc, cache, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}

// connectRedis returns nil when no REDIS_URL is configured; the server then
// runs without the idempotency and login rate-limit middlewares.
func connectRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	return infra.NewRedisClient(ctx, cfg.RedisURL)
}
