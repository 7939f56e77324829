package schema

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GoalStatus represents the lifecycle status of a goal
type GoalStatus string

const (
	GoalStatusNotStarted GoalStatus = "NOT_STARTED"
	GoalStatusInProgress GoalStatus = "IN_PROGRESS"
	GoalStatusCompleted  GoalStatus = "COMPLETED"
)

// Goal represents the goals table. Owned by the planning application; read-only here.
type Goal struct {
	ID     uuid.UUID  `gorm:"column:id;primaryKey;type:uuid"`
	UserID uuid.UUID  `gorm:"column:user_id;not null;type:uuid;index"`
	Title  string     `gorm:"column:title;not null;type:text"`
	Status GoalStatus `gorm:"column:status;not null;type:text"`
	// UpdatedAt is the last modification time; for a completed goal it is the completion time
	UpdatedAt time.Time      `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
	CreatedAt time.Time      `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index;type:timestamptz"`
}

// TableName specifies the table name for the Goal model
func (Goal) TableName() string {
	return "goals"
}
