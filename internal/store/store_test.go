package store

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/feral-file/achievement-minter/internal/domain"
	"github.com/feral-file/achievement-minter/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

var baseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, db *gorm.DB, name, role string, wallet *string) schema.User {
	t.Helper()
	user := schema.User{
		ID:            uuid.New(),
		Name:          name,
		Role:          role,
		WalletAddress: wallet,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedGoal(t *testing.T, db *gorm.DB, userID uuid.UUID, title string, status schema.GoalStatus, updatedAt time.Time) schema.Goal {
	t.Helper()
	goal := schema.Goal{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Status:    status,
		CreatedAt: updatedAt.Add(-time.Hour),
		UpdatedAt: updatedAt,
	}
	require.NoError(t, db.Create(&goal).Error)
	return goal
}

func buildMintRecordInput(goal schema.Goal, txHash string) CreateMintRecordInput {
	tokenID := "42"
	confirmedAt := goal.UpdatedAt.Add(time.Minute)
	return CreateMintRecordInput{
		UserID:          goal.UserID,
		GoalID:          goal.ID,
		TokenID:         &tokenID,
		TxHash:          txHash,
		Chain:           domain.ChainEthereumSepolia,
		ContractAddress: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		Description:     goal.Title,
		Metadata: schema.MintRecordMetadata{
			UserInfo:    "Alice:engineer",
			Recipient:   "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
			BlockNumber: 1234,
			GasUsed:     21000,
		},
		GoalCompletedAt: goal.UpdatedAt,
		ConfirmedAt:     &confirmedAt,
	}
}

func strPtr(s string) *string {
	return &s
}

const testWallet = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

// =============================================================================
// Test: FindEligibleGoals / CountEligibleGoals
// =============================================================================

func testFindEligibleGoals(t *testing.T, store Store, db *gorm.DB) {
	ctx := context.Background()

	alice := seedUser(t, db, "Alice", "engineer", strPtr(testWallet))
	bob := seedUser(t, db, "Bob", "designer", nil)

	completed := seedGoal(t, db, alice.ID, "Run a marathon", schema.GoalStatusCompleted, baseTime.Add(2*time.Minute))
	earlier := seedGoal(t, db, bob.ID, "Learn Go", schema.GoalStatusCompleted, baseTime.Add(time.Minute))
	seedGoal(t, db, alice.ID, "Write a book", schema.GoalStatusInProgress, baseTime)
	seedGoal(t, db, alice.ID, "Plan trip", schema.GoalStatusNotStarted, baseTime)

	deleted := seedGoal(t, db, alice.ID, "Deleted goal", schema.GoalStatusCompleted, baseTime)
	require.NoError(t, db.Delete(&deleted).Error)

	minted := seedGoal(t, db, alice.ID, "Already minted", schema.GoalStatusCompleted, baseTime)
	_, err := store.CreateMintRecord(ctx, buildMintRecordInput(minted, "0xminted"))
	require.NoError(t, err)

	orphan := seedGoal(t, db, uuid.New(), "Orphan goal", schema.GoalStatusCompleted, baseTime.Add(3*time.Minute))

	t.Run("returns only completed, live, unminted goals in order", func(t *testing.T) {
		goals, err := store.FindEligibleGoals(ctx, 10, nil)
		require.NoError(t, err)
		require.Len(t, goals, 3)

		assert.Equal(t, earlier.ID, goals[0].GoalID)
		assert.Equal(t, completed.ID, goals[1].GoalID)
		assert.Equal(t, orphan.ID, goals[2].GoalID)
	})

	t.Run("carries owner information", func(t *testing.T) {
		goals, err := store.FindEligibleGoals(ctx, 10, nil)
		require.NoError(t, err)
		require.Len(t, goals, 3)

		bobGoal := goals[0]
		assert.True(t, bobGoal.OwnerExists)
		assert.Equal(t, "Bob", bobGoal.OwnerName)
		assert.Equal(t, "designer", bobGoal.OwnerRole)
		assert.Nil(t, bobGoal.WalletAddress)

		aliceGoal := goals[1]
		assert.True(t, aliceGoal.OwnerExists)
		assert.Equal(t, alice.ID, aliceGoal.UserID)
		assert.Equal(t, "Run a marathon", aliceGoal.Title)
		require.NotNil(t, aliceGoal.WalletAddress)
		assert.Equal(t, testWallet, *aliceGoal.WalletAddress)
		assert.True(t, aliceGoal.UpdatedAt.Equal(completed.UpdatedAt))

		orphanGoal := goals[2]
		assert.False(t, orphanGoal.OwnerExists)
		assert.Empty(t, orphanGoal.OwnerName)
	})

	t.Run("pages with a keyset cursor", func(t *testing.T) {
		page1, err := store.FindEligibleGoals(ctx, 2, nil)
		require.NoError(t, err)
		require.Len(t, page1, 2)

		page2, err := store.FindEligibleGoals(ctx, 2, page1[len(page1)-1].Cursor())
		require.NoError(t, err)
		require.Len(t, page2, 1)
		assert.Equal(t, orphan.ID, page2[0].GoalID)

		page3, err := store.FindEligibleGoals(ctx, 2, page2[0].Cursor())
		require.NoError(t, err)
		assert.Empty(t, page3)
	})

	t.Run("goals sharing a timestamp are ordered by id", func(t *testing.T) {
		tied := baseTime.Add(10 * time.Minute)
		a := seedGoal(t, db, alice.ID, "Tie A", schema.GoalStatusCompleted, tied)
		b := seedGoal(t, db, alice.ID, "Tie B", schema.GoalStatusCompleted, tied)

		first, err := store.FindEligibleGoals(ctx, 1, &EligibilityCursor{UpdatedAt: orphan.UpdatedAt, GoalID: orphan.ID})
		require.NoError(t, err)
		require.Len(t, first, 1)

		second, err := store.FindEligibleGoals(ctx, 1, first[0].Cursor())
		require.NoError(t, err)
		require.Len(t, second, 1)

		got := []uuid.UUID{first[0].GoalID, second[0].GoalID}
		assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, got)
		assert.Negative(t, bytes.Compare(first[0].GoalID[:], second[0].GoalID[:]))
	})

	t.Run("soft-deleted owner is reported missing", func(t *testing.T) {
		carol := seedUser(t, db, "Carol", "pm", strPtr(testWallet))
		goal := seedGoal(t, db, carol.ID, "Ship it", schema.GoalStatusCompleted, baseTime.Add(20*time.Minute))
		require.NoError(t, db.Delete(&carol).Error)

		goals, err := store.FindEligibleGoals(ctx, 100, nil)
		require.NoError(t, err)
		var found *EligibleGoal
		for i := range goals {
			if goals[i].GoalID == goal.ID {
				found = &goals[i]
			}
		}
		require.NotNil(t, found)
		assert.False(t, found.OwnerExists)
	})

	t.Run("rejects non-positive page size", func(t *testing.T) {
		_, err := store.FindEligibleGoals(ctx, 0, nil)
		assert.Error(t, err)
	})
}

func testCountEligibleGoals(t *testing.T, store Store, db *gorm.DB) {
	ctx := context.Background()

	count, err := store.CountEligibleGoals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	alice := seedUser(t, db, "Alice", "engineer", strPtr(testWallet))
	var goals []schema.Goal
	for i := range 5 {
		goals = append(goals, seedGoal(t, db, alice.ID, "Goal", schema.GoalStatusCompleted, baseTime.Add(time.Duration(i)*time.Second)))
	}
	seedGoal(t, db, alice.ID, "Pending", schema.GoalStatusInProgress, baseTime)

	count, err = store.CountEligibleGoals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	_, err = store.CreateMintRecord(ctx, buildMintRecordInput(goals[0], "0xabc"))
	require.NoError(t, err)

	count, err = store.CountEligibleGoals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	// Owner problems surface as failures in the minter, so they stay in the backlog
	noWallet := seedUser(t, db, "Carol", "manager", nil)
	seedGoal(t, db, noWallet.ID, "No wallet", schema.GoalStatusCompleted, baseTime)
	seedGoal(t, db, uuid.New(), "No owner", schema.GoalStatusCompleted, baseTime)

	count, err = store.CountEligibleGoals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)
}

// =============================================================================
// Test: Mint records
// =============================================================================

func testCreateMintRecord(t *testing.T, store Store, db *gorm.DB) {
	ctx := context.Background()

	alice := seedUser(t, db, "Alice", "engineer", strPtr(testWallet))
	goal := seedGoal(t, db, alice.ID, "Run a marathon", schema.GoalStatusCompleted, baseTime)

	t.Run("persists all fields", func(t *testing.T) {
		record, err := store.CreateMintRecord(ctx, buildMintRecordInput(goal, "0xfirst"))
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.NotEqual(t, uuid.Nil, record.ID)

		got, err := store.GetMintRecordByGoalID(ctx, goal.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, record.ID, got.ID)
		assert.Equal(t, alice.ID, got.UserID)
		assert.Equal(t, "0xfirst", got.TxHash)
		require.NotNil(t, got.TokenID)
		assert.Equal(t, "42", *got.TokenID)
		assert.Equal(t, domain.ChainEthereumSepolia, got.Chain)
		assert.Equal(t, "Run a marathon", got.Description)
		assert.True(t, got.GoalCompletedAt.Equal(goal.UpdatedAt))
		require.NotNil(t, got.ConfirmedAt)

		var metadata schema.MintRecordMetadata
		require.NoError(t, json.Unmarshal(got.Metadata, &metadata))
		assert.Equal(t, "Alice:engineer", metadata.UserInfo)
		assert.Equal(t, uint64(1234), metadata.BlockNumber)
	})

	t.Run("duplicate goal reports ErrMintRecordExists and keeps the first record", func(t *testing.T) {
		_, err := store.CreateMintRecord(ctx, buildMintRecordInput(goal, "0xsecond"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrMintRecordExists)

		var count int64
		require.NoError(t, db.Model(&schema.MintRecord{}).Where("goal_id = ?", goal.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		got, err := store.GetMintRecordByGoalID(ctx, goal.ID)
		require.NoError(t, err)
		assert.Equal(t, "0xfirst", got.TxHash)
	})

	t.Run("nil token id and confirmation time are allowed", func(t *testing.T) {
		other := seedGoal(t, db, alice.ID, "Read 10 books", schema.GoalStatusCompleted, baseTime)
		input := buildMintRecordInput(other, "0xnotoken")
		input.TokenID = nil
		input.ConfirmedAt = nil

		_, err := store.CreateMintRecord(ctx, input)
		require.NoError(t, err)

		got, err := store.GetMintRecordByGoalID(ctx, other.ID)
		require.NoError(t, err)
		assert.Nil(t, got.TokenID)
		assert.Nil(t, got.ConfirmedAt)
	})

	t.Run("minted goal is no longer eligible", func(t *testing.T) {
		goals, err := store.FindEligibleGoals(ctx, 100, nil)
		require.NoError(t, err)
		for _, g := range goals {
			assert.NotEqual(t, goal.ID, g.GoalID)
		}
	})
}

func testGetMintRecordByGoalID(t *testing.T, store Store, _ *gorm.DB) {
	record, err := store.GetMintRecordByGoalID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, record)
}

func testListMintRecordsByUser(t *testing.T, store Store, db *gorm.DB) {
	ctx := context.Background()

	alice := seedUser(t, db, "Alice", "engineer", strPtr(testWallet))
	bob := seedUser(t, db, "Bob", "designer", strPtr(testWallet))

	for i := range 3 {
		goal := seedGoal(t, db, alice.ID, "Alice goal", schema.GoalStatusCompleted, baseTime.Add(time.Duration(i)*time.Minute))
		_, err := store.CreateMintRecord(ctx, buildMintRecordInput(goal, "0xalice"))
		require.NoError(t, err)
	}
	bobGoal := seedGoal(t, db, bob.ID, "Bob goal", schema.GoalStatusCompleted, baseTime)
	_, err := store.CreateMintRecord(ctx, buildMintRecordInput(bobGoal, "0xbob"))
	require.NoError(t, err)

	records, total, err := store.ListMintRecordsByUser(ctx, alice.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	assert.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, alice.ID, r.UserID)
	}

	records, total, err = store.ListMintRecordsByUser(ctx, alice.ID, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	assert.Len(t, records, 1)

	records, total, err = store.ListMintRecordsByUser(ctx, uuid.New(), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), total)
	assert.Empty(t, records)
}

// =============================================================================
// Test: KeyValueStore
// =============================================================================

func testKeyValueStore(t *testing.T, store Store, _ *gorm.DB) {
	ctx := context.Background()

	value, err := store.GetKeyValue(ctx, "minting:last_run")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, store.SetKeyValue(ctx, "minting:last_run", `{"total_minted":1}`))
	value, err = store.GetKeyValue(ctx, "minting:last_run")
	require.NoError(t, err)
	assert.Equal(t, `{"total_minted":1}`, value)

	require.NoError(t, store.SetKeyValue(ctx, "minting:last_run", `{"total_minted":2}`))
	value, err = store.GetKeyValue(ctx, "minting:last_run")
	require.NoError(t, err)
	assert.Equal(t, `{"total_minted":2}`, value)
}

// RunStoreTests runs all store tests against the given implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) (Store, *gorm.DB)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store, *gorm.DB)
	}{
		{"FindEligibleGoals", testFindEligibleGoals},
		{"CountEligibleGoals", testCountEligibleGoals},
		{"CreateMintRecord", testCreateMintRecord},
		{"GetMintRecordByGoalID", testGetMintRecordByGoalID},
		{"ListMintRecordsByUser", testListMintRecordsByUser},
		{"KeyValueStore", testKeyValueStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, db := initDB(t)
			tt.fn(t, store, db)
		})
	}
}
