package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/wellnest-hd/orgcomp/internal/audit/domain"
	compdomain "github.com/wellnest-hd/orgcomp/internal/compensation/domain"
	"github.com/wellnest-hd/orgcomp/internal/config"
	memberdomain "github.com/wellnest-hd/orgcomp/internal/member/domain"
	"github.com/wellnest-hd/orgcomp/internal/month"
	payoutdomain "github.com/wellnest-hd/orgcomp/internal/payout/domain"
	"github.com/wellnest-hd/orgcomp/internal/runlock"
	"github.com/wellnest-hd/orgcomp/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Config   config.Config
	CompSvc  compdomain.Service
	AuditSvc auditdomain.Service
	Locks    *runlock.Service
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	cfg      config.Config
	compSvc  compdomain.Service
	auditSvc auditdomain.Service
	locks    *runlock.Service

	memberrepo repository.Repository[memberdomain.Member]
	payoutrepo repository.Repository[payoutdomain.PayoutRecord]
	carryrepo  repository.Repository[payoutdomain.CarryForwardBalance]
}

func NewService(p Params) payoutdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payout.service"),
		genID:      p.GenID,
		cfg:        p.Config,
		compSvc:    p.CompSvc,
		auditSvc:   p.AuditSvc,
		locks:      p.Locks,
		memberrepo: repository.ProvideStore[memberdomain.Member](p.DB),
		payoutrepo: repository.ProvideStore[payoutdomain.PayoutRecord](p.DB),
		carryrepo:  repository.ProvideStore[payoutdomain.CarryForwardBalance](p.DB),
	}
}

// NewMonthGuard exposes the payout side as the calculator's month guard.
func NewMonthGuard(svc payoutdomain.Service) compdomain.MonthGuard {
	return svc
}

func (s *Service) ComputeMonthlyPayouts(ctx context.Context, target month.Month) ([]payoutdomain.PayoutRecord, error) {
	target, err := month.Parse(target.String())
	if err != nil {
		return nil, err
	}

	confirmed, err := s.Confirmed(ctx, target)
	if err != nil {
		return nil, err
	}
	if confirmed {
		return nil, fmt.Errorf("%w: %s", payoutdomain.ErrMonthLocked, target)
	}

	run, err := s.compSvc.Run(ctx, target)
	if err != nil {
		return nil, err
	}
	if run.Status != compdomain.RunStatusCompleted {
		return nil, fmt.Errorf("%w: %s is %s", payoutdomain.ErrCalculationNotCompleted, target, run.Status)
	}

	if err := s.locks.Acquire(ctx, target, runlock.StagePayout, "payout.service"); err != nil {
		return nil, err
	}
	defer func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), target, runlock.StagePayout); err != nil {
			s.log.Error("failed to release payout lock", zap.String("target_month", target.String()), zap.Error(err))
		}
	}()

	entries, err := s.compSvc.Ledger(ctx, target)
	if err != nil {
		return nil, err
	}

	rewards := make(map[snowflake.ID]int64)
	for _, e := range entries {
		rewards[e.MemberID] += e.Amount
	}

	memberIDs := make([]snowflake.ID, 0, len(rewards))
	for id := range rewards {
		memberIDs = append(memberIDs, id)
	}
	sort.Slice(memberIDs, func(i, j int) bool { return memberIDs[i] < memberIDs[j] })

	existing, err := s.payoutrepo.Find(ctx, &payoutdomain.PayoutRecord{TargetMonth: target.String()})
	if err != nil {
		return nil, err
	}
	priorCarriedIn := make(map[snowflake.ID]int64, len(existing))
	for _, r := range existing {
		priorCarriedIn[r.MemberID] = r.CarriedInAmount
	}

	now := time.Now().UTC()
	records := make([]payoutdomain.PayoutRecord, 0, len(memberIDs))
	balances := make([]payoutdomain.CarryForwardBalance, 0, len(memberIDs))

	for _, id := range memberIDs {
		member, err := s.memberrepo.FindOne(ctx, &memberdomain.Member{ID: id})
		if err != nil {
			return nil, err
		}
		if member == nil {
			return nil, fmt.Errorf("ledger references unknown member %s", id)
		}

		carriedIn, ownsBalance, err := s.carriedIn(ctx, id, target, priorCarriedIn)
		if err != nil {
			return nil, err
		}

		record := s.buildRecord(*member, target, rewards[id], carriedIn, now)
		records = append(records, record)
		if ownsBalance {
			balances = append(balances, payoutdomain.CarryForwardBalance{
				MemberID:  id,
				Balance:   record.CarriedOutAmount,
				AsOfMonth: target.String(),
				UpdatedAt: now,
			})
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Replace-not-append while the month is open.
		if err := tx.Where("target_month = ?", target.String()).Delete(&payoutdomain.PayoutRecord{}).Error; err != nil {
			return err
		}
		if len(records) > 0 {
			if err := tx.CreateInBatches(records, 500).Error; err != nil {
				return err
			}
		}
		for i := range balances {
			if err := tx.Save(&balances[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payouts computed",
		zap.String("target_month", target.String()),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// buildRecord applies the threshold rule: a gross below the minimum is
// carried forward in full, never split; otherwise withholding tax comes out
// and the carry balance clears.
func (s *Service) buildRecord(member memberdomain.Member, target month.Month, reward, carriedIn int64, now time.Time) payoutdomain.PayoutRecord {
	gross := reward + carriedIn

	record := payoutdomain.PayoutRecord{
		ID:              s.genID.Generate(),
		MemberID:        member.ID,
		TargetMonth:     target.String(),
		GrossAmount:     gross,
		CarriedInAmount: carriedIn,

		MemberNumber:      member.MemberNumber,
		BankCode:          member.BankCode,
		BranchCode:        member.BranchCode,
		BankAccountType:   member.BankAccountType,
		BankAccountNumber: member.BankAccountNumber,
		BankAccountHolder: member.BankAccountHolder,

		CreatedAt: now,
		UpdatedAt: now,
	}

	if gross < s.cfg.Plan.MinimumPayoutAmount {
		record.Status = payoutdomain.PayoutStatusPending
		record.CarriedOutAmount = gross
		return record
	}

	if note := validateBankDetails(member); note != "" {
		// Malformed bank details are a data error: the amount is carried
		// rather than sent to a bank row that would be rejected.
		record.Status = payoutdomain.PayoutStatusPending
		record.CarriedOutAmount = gross
		record.Note = note
		return record
	}

	record.Status = payoutdomain.PayoutStatusGenerated
	record.WithholdingTax = roundHalfUp(float64(gross) * s.cfg.Plan.WithholdingRate)
	record.NetAmount = gross - record.WithholdingTax
	return record
}

// carriedIn resolves the balance carried into the month. A re-run of the
// same month reuses the carried-in amount recorded by the previous run so
// the balance is never applied twice. The second return reports whether
// this run may write the balance row: when the stored AsOfMonth is newer
// than the target, a later month already owns the balance and recomputing
// an earlier month must not rewind it.
func (s *Service) carriedIn(ctx context.Context, memberID snowflake.ID, target month.Month, prior map[snowflake.ID]int64) (int64, bool, error) {
	balance, err := s.carryrepo.FindOne(ctx, &payoutdomain.CarryForwardBalance{MemberID: memberID})
	if err != nil {
		return 0, false, err
	}
	ownsBalance := balance == nil || balance.AsOfMonth <= target.String()

	if carried, ok := prior[memberID]; ok {
		return carried, ownsBalance, nil
	}
	if balance == nil || balance.AsOfMonth >= target.String() {
		return 0, ownsBalance, nil
	}
	return balance.Balance, true, nil
}

func (s *Service) ConfirmPayment(ctx context.Context, target month.Month, paymentDate time.Time, confirmedBy string) error {
	target, err := month.Parse(target.String())
	if err != nil {
		return err
	}

	confirmed, err := s.Confirmed(ctx, target)
	if err != nil {
		return err
	}
	if confirmed {
		return fmt.Errorf("%w: %s", payoutdomain.ErrAlreadyConfirmed, target)
	}

	now := time.Now().UTC()
	var updated int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&payoutdomain.PayoutRecord{}).
			Where("target_month = ? AND status = ?", target.String(), payoutdomain.PayoutStatusGenerated).
			Updates(map[string]any{
				"status":       payoutdomain.PayoutStatusConfirmed,
				"payment_date": paymentDate,
				"confirmed_at": now,
				"confirmed_by": confirmedBy,
				"updated_at":   now,
			})
		if result.Error != nil {
			return result.Error
		}
		updated = result.RowsAffected
		if updated == 0 {
			return payoutdomain.ErrNoGeneratedRecords
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.auditSvc.Record(ctx, auditdomain.ActorTypeOperator, confirmedBy, "payout.confirmed", "payout_month", target.String(), map[string]any{
		"payment_date": paymentDate.Format(time.DateOnly),
		"records":      updated,
	}); err != nil {
		s.log.Warn("failed to write payout audit log", zap.Error(err))
	}
	return nil
}

func (s *Service) Confirmed(ctx context.Context, target month.Month) (bool, error) {
	count, err := s.payoutrepo.Count(ctx, &payoutdomain.PayoutRecord{
		TargetMonth: target.String(),
		Status:      payoutdomain.PayoutStatusConfirmed,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
