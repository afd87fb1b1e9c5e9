// Package domain contains persistence models for the activity log.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ActorType string

const (
	ActorTypeOperator ActorType = "operator"
	ActorTypeSystem   ActorType = "system"
)

// AuditLog is an immutable activity-log entry. Every reparent, sponsor
// change, withdrawal, promotion and payout confirmation writes one.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	ActorType  ActorType         `gorm:"type:text;not null"`
	ActorID    string            `gorm:"type:text"`
	Action     string            `gorm:"type:text;not null;index"`
	TargetType string            `gorm:"type:text;not null"`
	TargetID   string            `gorm:"type:text;index"`
	Metadata   datatypes.JSONMap `gorm:"not null;default:'{}'"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }
