package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog captures auditable grading events: who graded which submission,
// manually or through the AI batch.
type ActivityLog struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	ActorID   uint              `gorm:"not null" json:"actor_id"`
	ActorName string            `gorm:"size:255;not null" json:"actor_name"`
	Action    string            `gorm:"size:64;not null" json:"action"`
	RowID     *uint             `json:"row_id"`
	Metadata  datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

// Activity log actions.
const (
	ActionGraded     = "submission.graded"
	ActionBulkGraded = "submission.bulk_graded"
)
