// Package domain contains the organization graph: one node set (members)
// under two independent relations, placement and sponsorship.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// OrgEdge stores both relations for a member. Either parent may be nil;
// a member with a nil placement parent is a root of the placement tree.
// The two relations are validated and traversed independently.
type OrgEdge struct {
	ID                snowflake.ID  `gorm:"primaryKey"`
	MemberID          snowflake.ID  `gorm:"not null;uniqueIndex"`
	PlacementParentID *snowflake.ID `gorm:"index"`
	SponsorID         *snowflake.ID `gorm:"index"`
	CreatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (OrgEdge) TableName() string { return "org_edges" }
