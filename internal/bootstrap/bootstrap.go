package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/feral-file/achievement-minter/internal/adapter"
	"github.com/feral-file/achievement-minter/internal/config"
	"github.com/feral-file/achievement-minter/internal/lock"
	"github.com/feral-file/achievement-minter/internal/logger"
	"github.com/feral-file/achievement-minter/internal/messaging"
	"github.com/feral-file/achievement-minter/internal/minter"
	"github.com/feral-file/achievement-minter/internal/providers/ethereum"
	"github.com/feral-file/achievement-minter/internal/providers/jetstream"
	"github.com/feral-file/achievement-minter/internal/ratelimit"
	"github.com/feral-file/achievement-minter/internal/store"
)

// App holds the wired components shared by the daemon and the operator CLI
type App struct {
	Config    *config.MinterConfig
	DB        *gorm.DB
	Store     store.Store
	Clock     adapter.Clock
	JSON      adapter.JSON
	Redis     adapter.RedisClient
	Publisher messaging.Publisher
	Chain     ethereum.MintClient
	Minter    minter.Minter
	Limiter   ratelimit.Limiter

	closers []func()
}

// OpenDatabase connects to PostgreSQL and applies the pool settings
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	if debug {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := store.ConfigureConnectionPool(db, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime, cfg.ConnMaxIdleTime); err != nil {
		return nil, fmt.Errorf("failed to configure connection pool: %w", err)
	}

	logger.InfoCtx(ctx, "Connected to database",
		zap.String("host", cfg.Host),
		zap.String("dbname", cfg.DBName),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
	)
	return db, nil
}

// NewStoreOnly wires the database and store, for commands that never touch the ledger
func NewStoreOnly(ctx context.Context, cfg *config.MinterConfig) (*App, error) {
	db, err := OpenDatabase(ctx, cfg.Database, cfg.Debug)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Store:  store.NewPGStore(db),
		Clock:  adapter.NewClock(),
		JSON:   adapter.NewJSON(),
	}
	app.onClose(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return app, nil
}

// New wires every component needed to mint. The signing key and contract address
// are required; Redis and NATS are optional and enabled by their addresses.
func New(ctx context.Context, cfg *config.MinterConfig) (*App, error) {
	if err := cfg.Ethereum.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ethereum configuration: %w", err)
	}
	if err := cfg.Minting.Validate(); err != nil {
		return nil, fmt.Errorf("invalid minting configuration: %w", err)
	}

	app, err := NewStoreOnly(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := app.wire(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config

	ethClient, err := adapter.NewEthClientDialer().Dial(ctx, cfg.Ethereum.RPCURL)
	if err != nil {
		return fmt.Errorf("failed to dial ethereum node: %w", err)
	}
	a.Chain, err = ethereum.NewMintClient(ctx, ethClient, a.Clock, ethereum.Config{
		ContractAddress: cfg.Ethereum.ContractAddress,
		PrivateKey:      cfg.Ethereum.PrivateKey,
		PollInterval:    cfg.Ethereum.PollInterval,
		Confirmations:   cfg.Ethereum.Confirmations,
		GasLimit:        cfg.Ethereum.GasLimit,
	})
	if err != nil {
		ethClient.Close()
		return fmt.Errorf("failed to create mint client: %w", err)
	}
	a.onClose(a.Chain.Close)
	logger.InfoCtx(ctx, "Connected to ledger",
		zap.String("chain", a.Chain.Chain().String()),
		zap.String("contract", a.Chain.ContractAddress()),
	)

	var locker lock.Locker
	if cfg.Redis.Addr != "" {
		a.Redis = adapter.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		a.onClose(func() { _ = a.Redis.Close() })
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			// The lock and the rate limiter both degrade to process-local behaviour
			logger.WarnCtx(ctx, "Redis not reachable at startup", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		locker = lock.NewRedisLocker(a.Redis, cfg.Redis.LockKey, cfg.Redis.LockTTL)
	} else {
		logger.WarnCtx(ctx, "Redis not configured, runs are only guarded within this process")
	}

	if cfg.NATS.URL != "" {
		a.Publisher, err = jetstream.NewPublisher(ctx, jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			Subject:        cfg.NATS.Subject,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
			PublishTimeout: cfg.NATS.PublishTimeout,
		}, adapter.NewNatsJetStream(), a.JSON)
		if err != nil {
			return fmt.Errorf("failed to create achievement publisher: %w", err)
		}
		a.onClose(a.Publisher.Close)
	}

	a.Limiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
		RedisKeyPrefix:    "achievement-minter:ratelimit:",
	}, a.Redis, a.Clock)

	a.Minter = minter.New(minter.Config{
		PageSize:            cfg.Minting.PageSize,
		ConfirmationTimeout: cfg.Ethereum.ConfirmationTimeout,
	}, a.Store, a.Chain, locker, a.Publisher, a.Clock, a.JSON)

	return nil
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases connections in reverse order of creation
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
