package models

import (
	"time"

	"gorm.io/datatypes"
)

// Activity actions recorded by the console.
const (
	ActivityExamPublished     = "exam.published"
	ActivityExamStatusChanged = "exam.status_changed"
	ActivityExamDeleted       = "exam.deleted"
	ActivityTeacherSignedIn   = "teacher.signed_in"
	ActivityTeacherSignedOut  = "teacher.signed_out"
)

// ActivityLog is one audit trail entry. Entries are append-only.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"not null;index:idx_activity_actor_created,priority:1" json:"actor_id"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:32;not null;index:idx_activity_entity,priority:1" json:"entity_type"`
	EntityID   *uint             `gorm:"index:idx_activity_entity,priority:2" json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `gorm:"index:idx_activity_actor_created,priority:2,sort:desc" json:"created_at"`
}
