package domain

import (
	"context"
	"errors"
	"time"

	"github.com/wellnest-hd/orgcomp/internal/month"
)

type Service interface {
	// ComputeMonthlyPayouts turns the month's ledger into payout records,
	// applying the minimum-payout threshold, carry-forward and withholding
	// tax. Re-running replaces the month's records while it is unconfirmed.
	ComputeMonthlyPayouts(ctx context.Context, target month.Month) ([]PayoutRecord, error)

	// GenerateBankTransferFile renders all GENERATED records for the month
	// into the fixed Shift-JIS bank format. The file is built fully in
	// memory; a failed render emits nothing.
	GenerateBankTransferFile(ctx context.Context, target month.Month) (BankTransferFile, error)

	// ConfirmPayment finalizes the month: every GENERATED record becomes
	// CONFIRMED. Confirming twice is an error, never a silent no-op.
	ConfirmPayment(ctx context.Context, target month.Month, paymentDate time.Time, confirmedBy string) error

	// Confirmed reports whether the month has been confirmed. The
	// calculator consults this before touching the ledger.
	Confirmed(ctx context.Context, target month.Month) (bool, error)
}

var (
	ErrMonthLocked             = errors.New("payout_month_locked")
	ErrAlreadyConfirmed        = errors.New("payout_already_confirmed")
	ErrNoGeneratedRecords      = errors.New("no_generated_records")
	ErrCalculationNotCompleted = errors.New("calculation_not_completed")
)
