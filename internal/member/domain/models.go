// Package domain contains persistence models for members and titles.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// MemberStatus represents member lifecycle states. Withdrawn members are
// retained forever; the ledger references them.
type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "ACTIVE"
	MemberStatusInactive  MemberStatus = "INACTIVE"
	MemberStatusWithdrawn MemberStatus = "WITHDRAWN"
)

// BankAccountType uses the zengin account-type codes.
type BankAccountType string

const (
	BankAccountTypeOrdinary BankAccountType = "1"
	BankAccountTypeChecking BankAccountType = "2"
)

// Member represents an enrolled distributor.
type Member struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	MemberNumber   string       `gorm:"type:text;not null;uniqueIndex"`
	Name           string       `gorm:"type:text;not null"`
	Status         MemberStatus `gorm:"type:text;not null;default:'ACTIVE'"`
	TitleCode      string       `gorm:"type:text;not null;index"`
	JoinDate       time.Time    `gorm:"not null"`
	WithdrawalDate *time.Time   `gorm:""`

	BankCode          string          `gorm:"type:text"`
	BranchCode        string          `gorm:"type:text"`
	BankAccountType   BankAccountType `gorm:"type:text"`
	BankAccountNumber string          `gorm:"type:text"`
	BankAccountHolder string          `gorm:"type:text"` // katakana, per zengin format

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Member) TableName() string { return "members" }

// Title defines an ordered rank with its promotion thresholds. Rank is a
// total order: a higher rank never has a lower Rank value.
type Title struct {
	ID   snowflake.ID `gorm:"primaryKey"`
	Code string       `gorm:"type:text;not null;uniqueIndex"`
	Name string       `gorm:"type:text;not null"`
	Rank int          `gorm:"not null;uniqueIndex"`

	MinPersonalSales     int64 `gorm:"not null;default:0"`
	MinOrganizationSales int64 `gorm:"not null;default:0"`
	MinDirectReferrals   int   `gorm:"not null;default:0"`
	MinDownlineManagers  int   `gorm:"not null;default:0"`
	// ManagerRankFloor is the minimum Rank a downline member must hold to
	// count toward MinDownlineManagers.
	ManagerRankFloor int `gorm:"not null;default:0"`

	TitleBonusAmount int64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Title) TableName() string { return "titles" }
