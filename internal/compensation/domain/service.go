package domain

import (
	"context"
	"errors"

	"github.com/wellnest-hd/orgcomp/internal/month"
)

// MonthGuard reports months frozen by the payout side. Implemented by the
// payout service; a confirmed month must never be recalculated.
type MonthGuard interface {
	Confirmed(ctx context.Context, target month.Month) (bool, error)
}

type Service interface {
	// Calculate computes the full ledger for the month, replacing any prior
	// entries for that month. Safe to re-run while the month is still open.
	Calculate(ctx context.Context, target month.Month) (CalculationRun, error)

	// Run returns the run state for the month; a month never calculated
	// reports RunStatusNotStarted.
	Run(ctx context.Context, target month.Month) (CalculationRun, error)

	// Ledger lists the month's entries ordered by member and bonus type.
	Ledger(ctx context.Context, target month.Month) ([]LedgerEntry, error)
}

var (
	ErrMonthLocked = errors.New("month_locked")
)
