package executor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/feral-file/achievement-minter/internal/api/shared/errors"
	"github.com/feral-file/achievement-minter/internal/api/shared/executor"
	"github.com/feral-file/achievement-minter/internal/domain"
	"github.com/feral-file/achievement-minter/internal/minter"
	"github.com/feral-file/achievement-minter/internal/mocks"
	"github.com/feral-file/achievement-minter/internal/store/schema"
)

type testExecutorMocks struct {
	store    *mocks.MockStore
	minter   *mocks.MockMinter
	executor executor.Executor
}

func setupTestExecutor(t *testing.T) *testExecutorMocks {
	ctrl := gomock.NewController(t)
	tm := &testExecutorMocks{
		store:  mocks.NewMockStore(ctrl),
		minter: mocks.NewMockMinter(ctrl),
	}
	tm.executor = executor.NewExecutor(tm.store, tm.minter)
	return tm
}

func TestTriggerMintRun(t *testing.T) {
	t.Run("reports count and detaches from request cancellation", func(t *testing.T) {
		tm := setupTestExecutor(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		tm.minter.EXPECT().RunOnce(gomock.Any()).DoAndReturn(func(runCtx context.Context) (minter.RunResult, error) {
			assert.NoError(t, runCtx.Err())
			return minter.RunResult{TotalMinted: 4, Failed: 1, Duration: 1500 * time.Millisecond}, nil
		})

		resp, err := tm.executor.TriggerMintRun(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, resp.TotalMinted)
		assert.Equal(t, 1, resp.Failed)
		assert.Equal(t, int64(1500), resp.DurationMs)
	})

	t.Run("aborted run", func(t *testing.T) {
		tm := setupTestExecutor(t)
		tm.minter.EXPECT().RunOnce(gomock.Any()).Return(minter.RunResult{}, errors.New("db down"))

		_, err := tm.executor.TriggerMintRun(context.Background())
		var apiErr *apierrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, apierrors.ErrCodeServiceError, apiErr.Code)
	})
}

func TestGetBacklog(t *testing.T) {
	tm := setupTestExecutor(t)
	tm.minter.EXPECT().PendingCount(gomock.Any()).Return(int64(12), nil)
	tm.minter.EXPECT().Running().Return(true)

	resp, err := tm.executor.GetBacklog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), resp.PendingCount)
	assert.True(t, resp.Running)

	tm.minter.EXPECT().PendingCount(gomock.Any()).Return(int64(0), errors.New("timeout"))
	_, err = tm.executor.GetBacklog(context.Background())
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.ErrCodeDatabaseError, apiErr.Code)
}

func TestGetLastRun(t *testing.T) {
	tm := setupTestExecutor(t)

	tm.minter.EXPECT().LastRun(gomock.Any()).Return(nil, nil)
	resp, err := tm.executor.GetLastRun(context.Background())
	require.NoError(t, err)
	assert.Nil(t, resp)

	started := time.Date(2026, 5, 1, 3, 0, 0, 0, time.UTC)
	tm.minter.EXPECT().LastRun(gomock.Any()).Return(&minter.RunSummary{
		StartedAt:   started,
		FinishedAt:  started.Add(time.Minute),
		TotalMinted: 9,
		TriggeredBy: minter.TriggerSchedule,
	}, nil)
	resp, err = tm.executor.GetLastRun(context.Background())
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 9, resp.TotalMinted)
	assert.Equal(t, started, resp.StartedAt)
	assert.Equal(t, minter.TriggerSchedule, resp.TriggeredBy)
}

func TestListUserAchievements(t *testing.T) {
	tm := setupTestExecutor(t)
	userID := uuid.New()
	tokenID := "42"

	tm.store.EXPECT().ListMintRecordsByUser(gomock.Any(), userID, 10, 20).Return([]schema.MintRecord{
		{
			ID:      uuid.New(),
			UserID:  userID,
			GoalID:  uuid.New(),
			TokenID: &tokenID,
			TxHash:  "0xabc",
			Chain:   domain.ChainEthereumSepolia,
		},
	}, uint64(21), nil)

	resp, err := tm.executor.ListUserAchievements(context.Background(), userID, 10, 20)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, uint64(21), resp.Total)
	assert.Equal(t, "eip155:11155111", resp.Items[0].Chain)
	assert.Equal(t, "42", *resp.Items[0].TokenID)
	assert.Equal(t, userID.String(), resp.Items[0].UserID)
}
