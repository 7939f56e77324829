package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/achievement-minter/internal/logger"
	"github.com/feral-file/achievement-minter/internal/minter"
	"github.com/feral-file/achievement-minter/internal/mocks"
	"github.com/feral-file/achievement-minter/internal/scheduler"
)

func setupTestScheduler(t *testing.T, cfg scheduler.Config) (scheduler.Scheduler, *mocks.MockMinter) {
	require.NoError(t, logger.Initialize(logger.Config{Debug: true}))

	ctrl := gomock.NewController(t)
	m := mocks.NewMockMinter(ctrl)
	s, err := scheduler.NewMintingScheduler(cfg, m)
	require.NoError(t, err)
	return s, m
}

// startScheduler runs Start in the background and returns a channel receiving its result
func startScheduler(ctx context.Context, s scheduler.Scheduler) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- s.Start(ctx)
	}()
	return done
}

func TestNewMintingScheduler_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockMinter(ctrl)

	_, err := scheduler.NewMintingScheduler(scheduler.Config{Schedule: "0 3 * * *", Timezone: "Nowhere/Atlantis"}, m)
	assert.Error(t, err)

	_, err = scheduler.NewMintingScheduler(scheduler.Config{Schedule: "every day", Timezone: "UTC"}, m)
	assert.Error(t, err)

	s, err := scheduler.NewMintingScheduler(scheduler.Config{Schedule: "0 3 * * *", Timezone: "Asia/Taipei"}, m)
	require.NoError(t, err)
	assert.Equal(t, "minting-scheduler", s.Name())
}

func TestMintingScheduler_RunOnStart(t *testing.T) {
	s, m := setupTestScheduler(t, scheduler.Config{Schedule: "0 3 * * *", Timezone: "UTC", RunOnStart: true})

	ran := make(chan struct{})
	m.EXPECT().RunOnce(gomock.Any()).DoAndReturn(func(ctx context.Context) (minter.RunResult, error) {
		assert.Equal(t, minter.TriggerSchedule, minter.TriggerFrom(ctx))
		return minter.RunResult{TotalMinted: 2}, nil
	})
	m.EXPECT().PendingCount(gomock.Any()).DoAndReturn(func(context.Context) (int64, error) {
		close(ran)
		return 0, nil
	})

	done := startScheduler(context.Background(), s)

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("run on start did not happen")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	assert.NoError(t, <-done)
}

func TestMintingScheduler_SkippedRunDoesNotCountBacklog(t *testing.T) {
	s, m := setupTestScheduler(t, scheduler.Config{Schedule: "0 3 * * *", Timezone: "UTC", RunOnStart: true})

	ran := make(chan struct{})
	m.EXPECT().RunOnce(gomock.Any()).DoAndReturn(func(context.Context) (minter.RunResult, error) {
		defer close(ran)
		return minter.RunResult{Skipped: true}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := startScheduler(ctx, s)
	<-ran
	cancel()
	assert.NoError(t, <-done)
}

func TestMintingScheduler_FailedRunDoesNotCountBacklog(t *testing.T) {
	s, m := setupTestScheduler(t, scheduler.Config{Schedule: "0 3 * * *", Timezone: "UTC", RunOnStart: true})

	ran := make(chan struct{})
	m.EXPECT().RunOnce(gomock.Any()).DoAndReturn(func(context.Context) (minter.RunResult, error) {
		defer close(ran)
		return minter.RunResult{}, errors.New("database unavailable")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := startScheduler(ctx, s)
	<-ran
	cancel()
	assert.NoError(t, <-done)
}

func TestMintingScheduler_StartTwice(t *testing.T) {
	s, m := setupTestScheduler(t, scheduler.Config{Schedule: "0 3 * * *", Timezone: "UTC", RunOnStart: true})

	ran := make(chan struct{})
	m.EXPECT().RunOnce(gomock.Any()).DoAndReturn(func(context.Context) (minter.RunResult, error) {
		defer close(ran)
		return minter.RunResult{Skipped: true}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := startScheduler(ctx, s)
	<-ran

	assert.Error(t, s.Start(ctx))

	cancel()
	assert.NoError(t, <-done)
}

func TestMintingScheduler_StopWithoutStart(t *testing.T) {
	s, _ := setupTestScheduler(t, scheduler.Config{Schedule: "0 3 * * *", Timezone: "UTC"})
	assert.NoError(t, s.Stop(context.Background()))
}
