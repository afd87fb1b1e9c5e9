package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SalesFact is the per-member, per-month fact row written by the payments
// system and consumed read-only here.
type SalesFact struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	MemberID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_sales_fact_member_month,priority:1"`
	TargetMonth string       `gorm:"type:text;not null;index;uniqueIndex:ux_sales_fact_member_month,priority:2"`

	PersonalSales int64 `gorm:"not null;default:0"`
	KitCount      int64 `gorm:"not null;default:0"`
	MetActivity   bool  `gorm:"not null;default:false"`
	RoyalFamily   bool  `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (SalesFact) TableName() string { return "sales_facts" }
