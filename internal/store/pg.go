package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/achievement-minter/internal/domain"
	"github.com/feral-file/achievement-minter/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// If any of the pool settings are 0 or empty, the defaults of NormalizeConnectionPoolSettings are used.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 10
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 1 hour
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns <= 0 {
		maxOpenConns = 10
	}
	if maxIdleConns <= 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime <= 0 {
		connMaxLifetime = time.Hour
	}
	if connMaxIdleTime <= 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// eligibleGoalsBaseQuery selects completed, live goals with no mint record.
// The owner is LEFT JOINed so goals with a missing owner still surface and fail fast in the minter.
const eligibleGoalsBaseQuery = `
	FROM goals g
	LEFT JOIN users u ON u.id = g.user_id AND u.deleted_at IS NULL
	WHERE g.status = ?
	  AND g.deleted_at IS NULL
	  AND NOT EXISTS (SELECT 1 FROM mint_records m WHERE m.goal_id = g.id)`

// FindEligibleGoals returns a page of goals that still need an achievement token
func (s *pgStore) FindEligibleGoals(ctx context.Context, pageSize int, after *EligibilityCursor) ([]EligibleGoal, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}

	query := `
	SELECT g.id AS goal_id,
	       g.user_id AS user_id,
	       g.title AS title,
	       g.updated_at AS updated_at,
	       (u.id IS NOT NULL) AS owner_exists,
	       COALESCE(u.name, '') AS owner_name,
	       COALESCE(u.role, '') AS owner_role,
	       u.wallet_address AS wallet_address` + eligibleGoalsBaseQuery

	args := []interface{}{string(schema.GoalStatusCompleted)}
	if after != nil {
		query += `
	  AND (g.updated_at, g.id) > (?, ?)`
		args = append(args, after.UpdatedAt, after.GoalID)
	}
	query += `
	ORDER BY g.updated_at ASC, g.id ASC
	LIMIT ?`
	args = append(args, pageSize)

	var rows []struct {
		GoalID        uuid.UUID `gorm:"column:goal_id"`
		UserID        uuid.UUID `gorm:"column:user_id"`
		Title         string    `gorm:"column:title"`
		UpdatedAt     time.Time `gorm:"column:updated_at"`
		OwnerExists   bool      `gorm:"column:owner_exists"`
		OwnerName     string    `gorm:"column:owner_name"`
		OwnerRole     string    `gorm:"column:owner_role"`
		WalletAddress *string   `gorm:"column:wallet_address"`
	}
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query eligible goals: %w", err)
	}

	goals := make([]EligibleGoal, 0, len(rows))
	for _, r := range rows {
		goals = append(goals, EligibleGoal{
			GoalID:        r.GoalID,
			UserID:        r.UserID,
			Title:         r.Title,
			UpdatedAt:     r.UpdatedAt,
			OwnerExists:   r.OwnerExists,
			OwnerName:     r.OwnerName,
			OwnerRole:     r.OwnerRole,
			WalletAddress: r.WalletAddress,
		})
	}

	return goals, nil
}

// CountEligibleGoals counts goals that still need an achievement token
func (s *pgStore) CountEligibleGoals(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Raw(`SELECT COUNT(*)`+eligibleGoalsBaseQuery, string(schema.GoalStatusCompleted)).
		Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count eligible goals: %w", err)
	}
	return count, nil
}

// CreateMintRecord inserts a mint record, reporting domain.ErrMintRecordExists on a duplicate goal
func (s *pgStore) CreateMintRecord(ctx context.Context, input CreateMintRecordInput) (*schema.MintRecord, error) {
	metadata, err := json.Marshal(input.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mint record metadata: %w", err)
	}

	record := schema.MintRecord{
		ID:              uuid.New(),
		UserID:          input.UserID,
		GoalID:          input.GoalID,
		TokenID:         input.TokenID,
		TxHash:          input.TxHash,
		Chain:           input.Chain,
		ContractAddress: input.ContractAddress,
		Description:     input.Description,
		Metadata:        datatypes.JSON(metadata),
		GoalCompletedAt: input.GoalCompletedAt,
		ConfirmedAt:     input.ConfirmedAt,
	}

	// The unique goal_id constraint is the cross-process guard against double minting
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "goal_id"}},
			DoNothing: true,
		}).
		Create(&record)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create mint record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("goal %s: %w", input.GoalID, domain.ErrMintRecordExists)
	}

	return &record, nil
}

// GetMintRecordByGoalID retrieves the mint record of a goal
func (s *pgStore) GetMintRecordByGoalID(ctx context.Context, goalID uuid.UUID) (*schema.MintRecord, error) {
	var record schema.MintRecord
	err := s.db.WithContext(ctx).Where("goal_id = ?", goalID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get mint record: %w", err)
	}
	return &record, nil
}

// ListMintRecordsByUser lists a user's mint records with pagination
func (s *pgStore) ListMintRecordsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]schema.MintRecord, uint64, error) {
	var total int64
	if err := s.db.WithContext(ctx).
		Model(&schema.MintRecord{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count mint records: %w", err)
	}

	var records []schema.MintRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list mint records: %w", err)
	}

	return records, uint64(total), nil //nolint:gosec,G115
}

// GetKeyValue retrieves a value by key
func (s *pgStore) GetKeyValue(ctx context.Context, key string) (string, error) {
	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get key value: %w", err)
	}
	return kv.Value, nil
}

// SetKeyValue upserts a value by key
func (s *pgStore) SetKeyValue(ctx context.Context, key string, value string) error {
	kv := schema.KeyValueStore{
		Key:   key,
		Value: value,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&kv).Error
	if err != nil {
		return fmt.Errorf("failed to set key value: %w", err)
	}
	return nil
}

// Ping checks database connectivity
func (s *pgStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
