// Package domain contains payout records and carry-forward balances.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	memberdomain "github.com/wellnest-hd/orgcomp/internal/member/domain"
)

// PayoutStatus is the payout lifecycle. CONFIRMED records are immutable and
// freeze their month against recalculation.
type PayoutStatus string

const (
	PayoutStatusPending   PayoutStatus = "PENDING"
	PayoutStatusGenerated PayoutStatus = "GENERATED"
	PayoutStatusConfirmed PayoutStatus = "CONFIRMED"
)

// PayoutRecord is one member's payout for a month. Bank details are
// snapshotted from the member at generation time; later account changes do
// not rewrite history.
type PayoutRecord struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	MemberID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_payout_member_month,priority:1"`
	TargetMonth string       `gorm:"type:text;not null;index;uniqueIndex:ux_payout_member_month,priority:2"`

	GrossAmount      int64 `gorm:"not null"`
	CarriedInAmount  int64 `gorm:"not null"`
	WithholdingTax   int64 `gorm:"not null"`
	NetAmount        int64 `gorm:"not null"`
	CarriedOutAmount int64 `gorm:"not null"`

	MemberNumber      string                       `gorm:"type:text;not null"`
	BankCode          string                       `gorm:"type:text"`
	BranchCode        string                       `gorm:"type:text"`
	BankAccountType   memberdomain.BankAccountType `gorm:"type:text"`
	BankAccountNumber string                       `gorm:"type:text"`
	BankAccountHolder string                       `gorm:"type:text"`

	Status      PayoutStatus `gorm:"type:text;not null;default:'PENDING'"`
	Note        string       `gorm:"type:text"`
	PaymentDate *time.Time   `gorm:""`
	ConfirmedAt *time.Time   `gorm:""`
	ConfirmedBy string       `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PayoutRecord) TableName() string { return "payout_records" }

// CarryForwardBalance is a member's running below-minimum balance. It is
// mutated only by the payout processor and never goes negative. AsOfMonth
// marks the payout month that produced the balance, which makes a re-run of
// that month idempotent.
type CarryForwardBalance struct {
	MemberID  snowflake.ID `gorm:"primaryKey"`
	Balance   int64        `gorm:"not null;default:0"`
	AsOfMonth string       `gorm:"type:text;not null"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CarryForwardBalance) TableName() string { return "carry_forward_balances" }

// BankTransferFile is the generated zengin-style transfer file. The
// consignor identifies the paying company; the upload form asks for it
// separately from the row data.
type BankTransferFile struct {
	Name          string
	Content       []byte
	Rows          int
	TotalAmount   int64
	ConsignorCode string
	ConsignorName string
}
