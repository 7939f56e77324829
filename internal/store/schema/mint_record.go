package schema

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/feral-file/achievement-minter/internal/domain"
)

// MintRecord represents the mint_records table - the durable proof that a goal's
// achievement token was minted on the ledger. Rows are never updated or deleted.
type MintRecord struct {
	ID     uuid.UUID `gorm:"column:id;primaryKey;type:uuid"`
	UserID uuid.UUID `gorm:"column:user_id;not null;type:uuid;index"`
	// GoalID is unique: at most one record per goal
	GoalID uuid.UUID `gorm:"column:goal_id;not null;unique;type:uuid"`
	// TokenID is the ledger token id as decimal text, nil when it could not be parsed from the receipt
	TokenID         *string      `gorm:"column:token_id;type:text"`
	TxHash          string       `gorm:"column:tx_hash;not null;type:text"`
	Chain           domain.Chain `gorm:"column:chain;not null;type:text"`
	ContractAddress string       `gorm:"column:contract_address;not null;type:text"`
	Description     string       `gorm:"column:description;not null;type:text"`
	// Metadata holds the minted user info, recipient, block number and gas used
	Metadata        datatypes.JSON `gorm:"column:metadata;type:jsonb"`
	GoalCompletedAt time.Time      `gorm:"column:goal_completed_at;not null;type:timestamptz"`
	ConfirmedAt     *time.Time     `gorm:"column:confirmed_at;type:timestamptz"`
	CreatedAt       time.Time      `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the MintRecord model
func (MintRecord) TableName() string {
	return "mint_records"
}

// MintRecordMetadata is the shape of MintRecord.Metadata
type MintRecordMetadata struct {
	UserInfo    string `json:"user_info"`
	Recipient   string `json:"recipient"`
	BlockNumber uint64 `json:"block_number"`
	GasUsed     uint64 `json:"gas_used"`
}
