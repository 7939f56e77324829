package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/feral-file/achievement-minter/internal/domain"
	"github.com/feral-file/achievement-minter/internal/store/schema"
)

// EligibleGoal is a completed, not-yet-minted goal joined with its owner
type EligibleGoal struct {
	GoalID    uuid.UUID
	UserID    uuid.UUID
	Title     string
	UpdatedAt time.Time
	// OwnerExists is false when the owning user row is missing or soft-deleted
	OwnerExists   bool
	OwnerName     string
	OwnerRole     string
	WalletAddress *string
}

// Cursor returns the keyset position immediately after this goal
func (g EligibleGoal) Cursor() *EligibilityCursor {
	return &EligibilityCursor{UpdatedAt: g.UpdatedAt, GoalID: g.GoalID}
}

// EligibilityCursor is a keyset position over (updated_at, id)
type EligibilityCursor struct {
	UpdatedAt time.Time
	GoalID    uuid.UUID
}

// CreateMintRecordInput represents the data needed to persist a confirmed mint
type CreateMintRecordInput struct {
	UserID          uuid.UUID
	GoalID          uuid.UUID
	TokenID         *string
	TxHash          string
	Chain           domain.Chain
	ContractAddress string
	Description     string
	Metadata        schema.MintRecordMetadata
	GoalCompletedAt time.Time
	ConfirmedAt     *time.Time
}

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// FindEligibleGoals returns up to pageSize completed, non-deleted goals without a mint record,
	// ordered by (updated_at, id) and strictly after the cursor when one is given
	FindEligibleGoals(ctx context.Context, pageSize int, after *EligibilityCursor) ([]EligibleGoal, error)
	// CountEligibleGoals counts the goals FindEligibleGoals would eventually return,
	// including those whose owner is missing or has no valid wallet
	CountEligibleGoals(ctx context.Context) (int64, error)

	// CreateMintRecord inserts a mint record. Returns domain.ErrMintRecordExists
	// when the goal already has one.
	CreateMintRecord(ctx context.Context, input CreateMintRecordInput) (*schema.MintRecord, error)
	// GetMintRecordByGoalID returns the mint record of a goal, nil if none exists
	GetMintRecordByGoalID(ctx context.Context, goalID uuid.UUID) (*schema.MintRecord, error)
	// ListMintRecordsByUser returns a user's mint records, newest first, and the total count
	ListMintRecordsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]schema.MintRecord, uint64, error)

	// GetKeyValue returns the value stored under key, empty if absent
	GetKeyValue(ctx context.Context, key string) (string, error)
	// SetKeyValue stores value under key
	SetKeyValue(ctx context.Context, key string, value string) error

	// Ping checks database connectivity
	Ping(ctx context.Context) error
}
