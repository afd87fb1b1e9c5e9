package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/wellnest-hd/orgcomp/internal/month"
)

// Promotion records a single rank change applied by EvaluatePromotions.
type Promotion struct {
	MemberID  snowflake.ID
	FromTitle string
	ToTitle   string
}

type Service interface {
	// Withdraw marks a member withdrawn as of the given date. Descendants
	// keep pointing at the withdrawn member until an operator reassigns
	// them; there is no tree compression.
	Withdraw(ctx context.Context, memberID snowflake.ID, withdrawalDate time.Time, actorID string) error

	// EvaluatePromotions promotes every member whose figures for the target
	// month clear the thresholds of a higher title. Promotion is monotonic;
	// the engine never demotes.
	EvaluatePromotions(ctx context.Context, target month.Month) ([]Promotion, error)
}

var (
	ErrMemberNotFound     = errors.New("member_not_found")
	ErrAlreadyWithdrawn   = errors.New("member_already_withdrawn")
	ErrInvalidWithdrawal  = errors.New("invalid_withdrawal_date")
	ErrNoTitlesConfigured = errors.New("no_titles_configured")
)
