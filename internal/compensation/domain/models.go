// Package domain contains the monthly compensation ledger and run state.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// BonusType enumerates the seven bonus kinds. The set is closed; the
// calculator builds its formula table over exactly these at startup.
type BonusType string

const (
	BonusTypeDaily         BonusType = "DAILY"
	BonusTypeTitle         BonusType = "TITLE"
	BonusTypeReferral      BonusType = "REFERRAL"
	BonusTypePower         BonusType = "POWER"
	BonusTypeMaintenance   BonusType = "MAINTENANCE"
	BonusTypeSalesActivity BonusType = "SALES_ACTIVITY"
	BonusTypeRoyalFamily   BonusType = "ROYAL_FAMILY"
)

// AllBonusTypes lists bonus types in ledger order.
var AllBonusTypes = []BonusType{
	BonusTypeDaily,
	BonusTypeTitle,
	BonusTypeReferral,
	BonusTypePower,
	BonusTypeMaintenance,
	BonusTypeSalesActivity,
	BonusTypeRoyalFamily,
}

// LedgerEntry is one row per (member, month, bonus type). Amounts are yen,
// rounded half-up per entry before any summation. Entries for a month are
// replaced wholesale on recalculation, never merged.
type LedgerEntry struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	MemberID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_ledger_member_month_type,priority:1"`
	TargetMonth string       `gorm:"type:text;not null;index;uniqueIndex:ux_ledger_member_month_type,priority:2"`
	BonusType   BonusType    `gorm:"type:text;not null;uniqueIndex:ux_ledger_member_month_type,priority:3"`
	Amount      int64        `gorm:"not null"`
	Basis       int64        `gorm:"not null"`
	RateApplied float64      `gorm:"not null"`
	ErrorNote   string       `gorm:"type:text"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LedgerEntry) TableName() string { return "compensation_ledger_entries" }

// RunStatus is the calculation state machine per target month.
type RunStatus string

const (
	RunStatusNotStarted RunStatus = "NOT_STARTED"
	RunStatusInProgress RunStatus = "IN_PROGRESS"
	RunStatusCompleted  RunStatus = "COMPLETED"
	RunStatusError      RunStatus = "ERROR"
)

// RunNote records one per-member data error. Data errors never abort the
// run; they are batched into the run report.
type RunNote struct {
	MemberID  string `json:"member_id"`
	BonusType string `json:"bonus_type"`
	Note      string `json:"note"`
}

// CalculationRun tracks one month's calculation.
type CalculationRun struct {
	ID          snowflake.ID                 `gorm:"primaryKey"`
	TargetMonth string                       `gorm:"type:text;not null;uniqueIndex"`
	Status      RunStatus                    `gorm:"type:text;not null;default:'NOT_STARTED'"`
	Notes       datatypes.JSONSlice[RunNote] `gorm:"not null;default:'[]'"`
	StartedAt   *time.Time                   `gorm:""`
	CompletedAt *time.Time                   `gorm:""`
	CreatedAt   time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CalculationRun) TableName() string { return "calculation_runs" }
