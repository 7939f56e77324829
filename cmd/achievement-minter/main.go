package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/feral-file/achievement-minter/internal/api/middleware"
	"github.com/feral-file/achievement-minter/internal/api/server"
	"github.com/feral-file/achievement-minter/internal/api/shared/executor"
	"github.com/feral-file/achievement-minter/internal/bootstrap"
	"github.com/feral-file/achievement-minter/internal/config"
	"github.com/feral-file/achievement-minter/internal/logger"
	"github.com/feral-file/achievement-minter/internal/scheduler"
	"github.com/feral-file/achievement-minter/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	migrate    = flag.Bool("migrate", false, "Apply pending database migrations before starting")
)

// drainTimeout bounds how long shutdown waits for an in-flight minting run
const drainTimeout = 30 * time.Second

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadMinterConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "achievement-minter",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Achievement Minter")

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to initialize minter", zap.Error(err))
	}
	defer app.Close()

	if *migrate {
		sqlDB, err := app.DB.DB()
		if err != nil {
			logger.FatalCtx(ctx, "Failed to get database handle", zap.Error(err))
		}
		if err := store.RunMigrations(sqlDB); err != nil {
			logger.FatalCtx(ctx, "Failed to run migrations", zap.Error(err))
		}
	}

	// Create scheduler
	sched, err := scheduler.NewMintingScheduler(scheduler.Config{
		Schedule:   cfg.Minting.Schedule,
		Timezone:   cfg.Minting.Timezone,
		RunOnStart: cfg.Minting.RunOnStart,
	}, app.Minter)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create scheduler", zap.Error(err))
	}

	// Create server
	srv := server.New(server.Config{
		Debug:              cfg.Debug,
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		ReadTimeout:        time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:       time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:        time.Duration(cfg.Server.IdleTimeout) * time.Second,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			OperatorRole: cfg.Auth.OperatorRole,
			APIKeys:      cfg.Auth.APIKeys,
		},
	}, executor.NewExecutor(app.Store, app.Minter), app.Limiter)

	errCh := make(chan error, 2)

	// The scheduler context outlives the signal so an in-flight run can finish its current goal
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	go func() {
		if err := sched.Start(schedCtx); err != nil {
			errCh <- fmt.Errorf("scheduler: %w", err)
		}
	}()

	go func() {
		if err := srv.Start(); err != nil {
			errCh <- fmt.Errorf("server: %w", err)
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err)
	}
	cancel()

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err, zap.String("component", "server"))
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), drainTimeout)
	defer drainCancel()
	if err := sched.Stop(drainCtx); err != nil {
		logger.WarnCtx(drainCtx, "Minting run did not finish in time, cancelling", zap.Error(err))
		schedCancel()
		cancelCtx, cancelCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelCancel()
		_ = sched.Stop(cancelCtx)
	}

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("Achievement minter stopped")
}
