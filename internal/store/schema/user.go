package schema

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents the users table. Owned by the planning application; read-only here.
type User struct {
	ID   uuid.UUID `gorm:"column:id;primaryKey;type:uuid"`
	Name string    `gorm:"column:name;not null;type:text"`
	Role string    `gorm:"column:role;not null;type:text"`
	// WalletAddress is the ledger address achievements are minted to
	WalletAddress *string        `gorm:"column:wallet_address;type:text"`
	CreatedAt     time.Time      `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
	DeletedAt     gorm.DeletedAt `gorm:"column:deleted_at;index;type:timestamptz"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
