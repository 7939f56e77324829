package minter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/achievement-minter/internal/adapter"
	"github.com/feral-file/achievement-minter/internal/domain"
	"github.com/feral-file/achievement-minter/internal/lock"
	"github.com/feral-file/achievement-minter/internal/logger"
	"github.com/feral-file/achievement-minter/internal/messaging"
	"github.com/feral-file/achievement-minter/internal/metrics"
	"github.com/feral-file/achievement-minter/internal/providers/ethereum"
	"github.com/feral-file/achievement-minter/internal/store"
)

const (
	// LastRunKey is the key_value_store key holding the summary of the latest run
	LastRunKey = "minting:last_run"

	DefaultPageSize            = 100
	DefaultConfirmationTimeout = 2 * time.Minute
)

// Config holds the orchestrator settings
type Config struct {
	PageSize            int
	ConfirmationTimeout time.Duration
}

// RunResult reports the outcome of one run
type RunResult struct {
	TotalMinted   int           `json:"totalMinted"`
	Failed        int           `json:"failed"`
	AlreadyMinted int           `json:"alreadyMinted"`
	Skipped       bool          `json:"skipped"`
	Duration      time.Duration `json:"duration"`
}

// RunSummary is the persisted record of the latest completed run
type RunSummary struct {
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	TotalMinted   int       `json:"total_minted"`
	Failed        int       `json:"failed"`
	AlreadyMinted int       `json:"already_minted"`
	TriggeredBy   string    `json:"triggered_by"`
	Error         string    `json:"error,omitempty"`
}

// Minter drains the backlog of completed goals into achievement tokens
//
//go:generate mockgen -source=orchestrator.go -destination=../mocks/minter.go -package=mocks -mock_names=Minter=MockMinter
type Minter interface {
	// RunOnce mints every currently eligible goal. Per-goal failures are counted,
	// not returned; only a failed eligibility read (or cancellation) returns an error.
	RunOnce(ctx context.Context) (RunResult, error)

	// PendingCount returns the number of goals waiting to be minted
	PendingCount(ctx context.Context) (int64, error)

	// LastRun returns the summary of the latest run, nil if none was recorded
	LastRun(ctx context.Context) (*RunSummary, error)

	// Running reports whether a run is in flight in this process
	Running() bool
}

type orchestrator struct {
	config    Config
	store     store.Store
	client    ethereum.MintClient
	locker    lock.Locker
	publisher messaging.Publisher
	clock     adapter.Clock
	json      adapter.JSON
	guard     singleFlight
}

// New creates a minting orchestrator. locker and publisher are optional.
func New(
	config Config,
	st store.Store,
	client ethereum.MintClient,
	locker lock.Locker,
	publisher messaging.Publisher,
	clock adapter.Clock,
	json adapter.JSON,
) Minter {
	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}
	if config.ConfirmationTimeout <= 0 {
		config.ConfirmationTimeout = DefaultConfirmationTimeout
	}

	return &orchestrator{
		config:    config,
		store:     st,
		client:    client,
		locker:    locker,
		publisher: publisher,
		clock:     clock,
		json:      json,
	}
}

func (o *orchestrator) Running() bool {
	return o.guard.inFlight()
}

// RunOnce drains the eligible backlog page by page
func (o *orchestrator) RunOnce(ctx context.Context) (RunResult, error) {
	trigger := TriggerFrom(ctx)
	if !o.guard.tryAcquire() {
		logger.InfoCtx(ctx, "Minting run already in progress, skipping", zap.String("trigger", trigger))
		metrics.RecordRun(metrics.RunSkipped, 0)
		return RunResult{Skipped: true}, nil
	}
	defer o.guard.release()

	if o.locker != nil {
		token, acquired, err := o.locker.TryLock(ctx)
		switch {
		case err != nil:
			// The unique goal_id constraint still prevents double records
			logger.WarnCtx(ctx, "Failed to take run lock, proceeding without it", zap.Error(err))
		case !acquired:
			logger.InfoCtx(ctx, "Minting run held by another replica, skipping")
			metrics.RecordRun(metrics.RunSkipped, 0)
			return RunResult{Skipped: true}, nil
		default:
			defer func() {
				if err := o.locker.Unlock(context.WithoutCancel(ctx), token); err != nil {
					logger.WarnCtx(ctx, "Failed to release run lock", zap.Error(err))
				}
			}()
		}
	}

	startedAt := o.clock.Now()
	logger.InfoCtx(ctx, "Starting minting run",
		zap.String("trigger", trigger),
		zap.Int("page_size", o.config.PageSize),
	)

	result, err := o.drain(ctx)
	result.Duration = o.clock.Since(startedAt)

	if err != nil {
		metrics.RecordRun(metrics.RunAborted, result.Duration)
		logger.ErrorCtx(ctx, fmt.Errorf("minting run aborted: %w", err),
			zap.Int("total_minted", result.TotalMinted),
			zap.Int("failed", result.Failed),
		)
	} else {
		metrics.RecordRun(metrics.RunCompleted, result.Duration)
		logger.InfoCtx(ctx, "Minting run completed",
			zap.Int("total_minted", result.TotalMinted),
			zap.Int("failed", result.Failed),
			zap.Int("already_minted", result.AlreadyMinted),
			zap.Duration("duration", result.Duration),
		)
	}

	o.saveSummary(ctx, startedAt, result, err)
	return result, err
}

func (o *orchestrator) drain(ctx context.Context) (RunResult, error) {
	var result RunResult
	var cursor *store.EligibilityCursor

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		page, err := o.store.FindEligibleGoals(ctx, o.config.PageSize, cursor)
		if err != nil {
			return result, fmt.Errorf("failed to read eligible goals: %w", err)
		}
		if len(page) == 0 {
			return result, nil
		}

		for _, goal := range page {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			u := o.mintGoal(ctx, goal)
			switch u.state {
			case statePersisted:
				result.TotalMinted++
				metrics.RecordMint(metrics.OutcomeMinted)
				logger.InfoCtx(ctx, "Minted achievement",
					zap.String("goal_id", goal.GoalID.String()),
					zap.String("tx_hash", u.txHash),
				)
			case stateAlreadyMinted:
				result.AlreadyMinted++
				metrics.RecordMint(metrics.OutcomeAlreadyMinted)
				logger.InfoCtx(ctx, "Goal already minted by a concurrent run",
					zap.String("goal_id", goal.GoalID.String()),
					zap.String("tx_hash", u.txHash),
				)
			default:
				result.Failed++
				metrics.RecordMint(metrics.OutcomeFailed)
				if isLocalSkip(u.reason) {
					logger.WarnCtx(ctx, "Skipping goal",
						zap.String("goal_id", goal.GoalID.String()),
						zap.String("user_id", goal.UserID.String()),
						zap.Error(u.reason),
					)
					continue
				}
				logger.ErrorCtx(ctx, u.reason,
					zap.String("goal_id", goal.GoalID.String()),
					zap.String("user_id", goal.UserID.String()),
					zap.String("state", string(u.failedIn)),
					zap.String("tx_hash", u.txHash),
				)
			}
		}

		// A short page is the tail of the backlog
		if len(page) < o.config.PageSize {
			return result, nil
		}
		cursor = page[len(page)-1].Cursor()
	}
}

func (o *orchestrator) saveSummary(ctx context.Context, startedAt time.Time, result RunResult, runErr error) {
	summary := RunSummary{
		StartedAt:     startedAt.UTC(),
		FinishedAt:    o.clock.Now().UTC(),
		TotalMinted:   result.TotalMinted,
		Failed:        result.Failed,
		AlreadyMinted: result.AlreadyMinted,
		TriggeredBy:   TriggerFrom(ctx),
	}
	if runErr != nil {
		summary.Error = runErr.Error()
	}

	data, err := o.json.Marshal(summary)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to encode run summary", zap.Error(err))
		return
	}
	if err := o.store.SetKeyValue(context.WithoutCancel(ctx), LastRunKey, string(data)); err != nil {
		logger.WarnCtx(ctx, "Failed to save run summary", zap.Error(err))
	}
}

// PendingCount counts the eligible backlog and refreshes the backlog gauge
func (o *orchestrator) PendingCount(ctx context.Context) (int64, error) {
	count, err := o.store.CountEligibleGoals(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count eligible goals: %w", err)
	}
	metrics.SetBacklog(count)
	return count, nil
}

// LastRun loads the latest run summary
func (o *orchestrator) LastRun(ctx context.Context) (*RunSummary, error) {
	value, err := o.store.GetKeyValue(ctx, LastRunKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load run summary: %w", err)
	}
	if value == "" {
		return nil, nil
	}

	var summary RunSummary
	if err := o.json.Unmarshal([]byte(value), &summary); err != nil {
		return nil, fmt.Errorf("failed to decode run summary: %w", err)
	}
	return &summary, nil
}

// isLocalSkip reports whether a unit failed validation before any ledger call
func isLocalSkip(err error) bool {
	return errors.Is(err, domain.ErrInvalidAddress) || errors.Is(err, domain.ErrMissingOwner)
}
