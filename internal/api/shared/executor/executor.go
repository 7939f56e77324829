package executor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/feral-file/achievement-minter/internal/api/shared/dto"
	apierrors "github.com/feral-file/achievement-minter/internal/api/shared/errors"
	"github.com/feral-file/achievement-minter/internal/minter"
	"github.com/feral-file/achievement-minter/internal/store"
)

// Executor is the interface for the API executor
//
//go:generate mockgen -source=executor.go -destination=../../../mocks/mock_api_executor.go -package=mocks -mock_names=Executor=MockAPIExecutor
type Executor interface {
	// TriggerMintRun runs the minting orchestrator to completion and reports the count minted
	TriggerMintRun(ctx context.Context) (*dto.MintRunResponse, error)

	// GetBacklog reports the number of goals waiting to be minted
	GetBacklog(ctx context.Context) (*dto.BacklogResponse, error)

	// GetLastRun returns the latest recorded run, nil if none
	GetLastRun(ctx context.Context) (*dto.LastRunResponse, error)

	// ListUserAchievements returns a page of a user's minted achievements
	ListUserAchievements(ctx context.Context, userID uuid.UUID, limit int, offset int) (*dto.MintRecordListResponse, error)

	// Ping checks the database
	Ping(ctx context.Context) error
}

type executor struct {
	store  store.Store
	minter minter.Minter
}

func NewExecutor(store store.Store, minter minter.Minter) Executor {
	return &executor{store: store, minter: minter}
}

func (e *executor) TriggerMintRun(ctx context.Context) (*dto.MintRunResponse, error) {
	// A disconnecting client must not abort a run halfway through a ledger transaction
	result, err := e.minter.RunOnce(context.WithoutCancel(ctx))
	if err != nil {
		return nil, apierrors.NewServiceError("Minting run aborted", err.Error())
	}
	return dto.MapRunResultToDTO(result), nil
}

func (e *executor) GetBacklog(ctx context.Context) (*dto.BacklogResponse, error) {
	pending, err := e.minter.PendingCount(ctx)
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to count backlog: %v", err))
	}
	return &dto.BacklogResponse{
		PendingCount: pending,
		Running:      e.minter.Running(),
	}, nil
}

func (e *executor) GetLastRun(ctx context.Context) (*dto.LastRunResponse, error) {
	summary, err := e.minter.LastRun(ctx)
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to get last run: %v", err))
	}
	if summary == nil {
		return nil, nil
	}
	return dto.MapRunSummaryToDTO(summary), nil
}

func (e *executor) ListUserAchievements(ctx context.Context, userID uuid.UUID, limit int, offset int) (*dto.MintRecordListResponse, error) {
	records, total, err := e.store.ListMintRecordsByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to list achievements: %v", err))
	}

	items := make([]dto.MintRecordResponse, 0, len(records))
	for _, r := range records {
		items = append(items, dto.MapMintRecordToDTO(r))
	}

	return &dto.MintRecordListResponse{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

func (e *executor) Ping(ctx context.Context) error {
	return e.store.Ping(ctx)
}
