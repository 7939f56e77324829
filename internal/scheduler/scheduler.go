package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/feral-file/achievement-minter/internal/logger"
	"github.com/feral-file/achievement-minter/internal/minter"
)

// Scheduler is a long-running background task
//
//go:generate mockgen -source=scheduler.go -destination=../mocks/scheduler.go -package=mocks -mock_names=Scheduler=MockScheduler
type Scheduler interface {
	// Start runs the scheduler until the context is canceled or Stop is called
	Start(ctx context.Context) error

	// Stop stops the scheduler and waits for an in-flight run to finish
	Stop(ctx context.Context) error

	// Name returns the scheduler's name for logging and identification
	Name() string
}

// Config holds the minting schedule
type Config struct {
	// Schedule is a standard 5-field cron expression
	Schedule string
	Timezone string
	// RunOnStart triggers one run as soon as the scheduler starts
	RunOnStart bool
}

type mintingScheduler struct {
	config    Config
	minter    minter.Minter
	cron      *cron.Cron
	running   atomic.Bool
	stopOnce  sync.Once
	wg        sync.WaitGroup
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewMintingScheduler creates a scheduler that triggers a minting run on the configured schedule
func NewMintingScheduler(config Config, m minter.Minter) (Scheduler, error) {
	location, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", config.Timezone, err)
	}
	if _, err := cron.ParseStandard(config.Schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", config.Schedule, err)
	}

	cl := cronLogger{}
	return &mintingScheduler{
		config: config,
		minter: m,
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}, nil
}

// Name returns the scheduler's name
func (s *mintingScheduler) Name() string {
	return "minting-scheduler"
}

// Start registers the minting job and blocks until shutdown
func (s *mintingScheduler) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("scheduler already running")
	}
	defer close(s.stoppedCh)

	if _, err := s.cron.AddFunc(s.config.Schedule, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule minting job: %w", err)
	}

	logger.InfoCtx(ctx, "Starting minting scheduler",
		zap.String("schedule", s.config.Schedule),
		zap.String("timezone", s.config.Timezone),
		zap.Bool("run_on_start", s.config.RunOnStart),
	)
	s.cron.Start()

	if s.config.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.tick(ctx)
		}()
	}

	select {
	case <-ctx.Done():
		logger.InfoCtx(ctx, "Minting scheduler stopping due to context cancellation", zap.Error(ctx.Err()))
	case <-s.stopCh:
		logger.InfoCtx(ctx, "Minting scheduler stop requested")
	}

	// Wait for runs in progress
	<-s.cron.Stop().Done()
	s.wg.Wait()

	logger.InfoCtx(ctx, "Minting scheduler stopped")
	return nil
}

// Stop requests shutdown and waits for Start to return
func (s *mintingScheduler) Stop(ctx context.Context) error {
	if !s.running.Load() {
		return nil
	}
	s.stopOnce.Do(func() { close(s.stopCh) })

	select {
	case <-s.stoppedCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for minting scheduler to stop: %w", ctx.Err())
	}
}

// tick runs one minting pass and refreshes the backlog gauge
func (s *mintingScheduler) tick(ctx context.Context) {
	ctx = minter.WithTrigger(ctx, minter.TriggerSchedule)
	result, err := s.minter.RunOnce(ctx)
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("scheduled minting run failed: %w", err),
			zap.Int("total_minted", result.TotalMinted),
		)
		return
	}
	if result.Skipped {
		return
	}

	pending, err := s.minter.PendingCount(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to refresh backlog after run", zap.Error(err))
		return
	}
	logger.InfoCtx(ctx, "Scheduled minting run finished",
		zap.Int("total_minted", result.TotalMinted),
		zap.Int("failed", result.Failed),
		zap.Int64("pending", pending),
	)
}

// cronLogger routes cron's internal logging to zap
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Default().Sugar().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Default().Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
