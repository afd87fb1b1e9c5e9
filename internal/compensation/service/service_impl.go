package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	compdomain "github.com/wellnest-hd/orgcomp/internal/compensation/domain"
	"github.com/wellnest-hd/orgcomp/internal/config"
	memberdomain "github.com/wellnest-hd/orgcomp/internal/member/domain"
	"github.com/wellnest-hd/orgcomp/internal/month"
	orgdomain "github.com/wellnest-hd/orgcomp/internal/organization/domain"
	"github.com/wellnest-hd/orgcomp/internal/runlock"
	salesdomain "github.com/wellnest-hd/orgcomp/internal/sales/domain"
	"github.com/wellnest-hd/orgcomp/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Config     config.Config
	OrgSvc     orgdomain.Service
	SalesSvc   salesdomain.Service
	Locks      *runlock.Service
	MonthGuard compdomain.MonthGuard
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID      *snowflake.Node
	cfg        config.Config
	orgSvc     orgdomain.Service
	salesSvc   salesdomain.Service
	locks      *runlock.Service
	monthGuard compdomain.MonthGuard

	titlerepo repository.Repository[memberdomain.Title]
	runrepo   repository.Repository[compdomain.CalculationRun]

	bonuses map[compdomain.BonusType]bonusFunc
}

func NewService(p Params) compdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("compensation.service"),
		genID:      p.GenID,
		cfg:        p.Config,
		orgSvc:     p.OrgSvc,
		salesSvc:   p.SalesSvc,
		locks:      p.Locks,
		monthGuard: p.MonthGuard,
		titlerepo:  repository.ProvideStore[memberdomain.Title](p.DB),
		runrepo:    repository.ProvideStore[compdomain.CalculationRun](p.DB),
		bonuses:    bonusTable(),
	}
}

type memberResult struct {
	entries []compdomain.LedgerEntry
	notes   []compdomain.RunNote
}

func (s *Service) Calculate(ctx context.Context, target month.Month) (compdomain.CalculationRun, error) {
	target, err := month.Parse(target.String())
	if err != nil {
		return compdomain.CalculationRun{}, err
	}

	confirmed, err := s.monthGuard.Confirmed(ctx, target)
	if err != nil {
		return compdomain.CalculationRun{}, err
	}
	if confirmed {
		return compdomain.CalculationRun{}, fmt.Errorf("%w: %s", compdomain.ErrMonthLocked, target)
	}

	if err := s.locks.Acquire(ctx, target, runlock.StageCalculation, "compensation.service"); err != nil {
		return compdomain.CalculationRun{}, err
	}
	defer func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), target, runlock.StageCalculation); err != nil {
			s.log.Error("failed to release calculation lock", zap.String("target_month", target.String()), zap.Error(err))
		}
	}()

	run, err := s.markInProgress(ctx, target)
	if err != nil {
		return compdomain.CalculationRun{}, err
	}

	snapshot, err := s.orgSvc.Snapshot(ctx)
	if err != nil {
		return s.markError(ctx, run, err)
	}

	// Level-sales memoization happens once, before fan-out; the aggregate
	// is shared read-only by every worker.
	aggs, err := s.salesSvc.BuildAggregates(ctx, snapshot, target)
	if err != nil {
		return s.markError(ctx, run, err)
	}

	titles, err := s.loadTitles(ctx)
	if err != nil {
		return s.markError(ctx, run, err)
	}

	memberIDs := eligibleMembers(snapshot, target)
	results := make([]memberResult, len(memberIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Plan.CalcWorkers)
	for i, id := range memberIDs {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.computeMember(memberInput{
				node:     snapshot.Members[id],
				snapshot: snapshot,
				aggs:     aggs,
				titles:   titles,
				plan:     s.cfg.Plan,
				target:   target,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Cancellation between members leaves the prior ledger untouched.
		return s.markError(ctx, run, err)
	}

	entries := make([]compdomain.LedgerEntry, 0, len(memberIDs))
	notes := make([]compdomain.RunNote, 0)
	for _, r := range results {
		entries = append(entries, r.entries...)
		notes = append(notes, r.notes...)
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Idempotent replace: the month's entries are deleted and rewritten
		// in one transaction, never merged.
		if err := tx.Where("target_month = ?", target.String()).Delete(&compdomain.LedgerEntry{}).Error; err != nil {
			return err
		}
		for i := range entries {
			entries[i].ID = s.genID.Generate()
			entries[i].CreatedAt = now
		}
		if len(entries) > 0 {
			if err := tx.CreateInBatches(entries, 500).Error; err != nil {
				return err
			}
		}

		run.Status = compdomain.RunStatusCompleted
		run.Notes = notes
		run.CompletedAt = &now
		run.UpdatedAt = now
		return tx.Save(&run).Error
	})
	if err != nil {
		return s.markError(ctx, run, err)
	}

	s.log.Info("compensation calculated",
		zap.String("target_month", target.String()),
		zap.Int("members", len(memberIDs)),
		zap.Int("entries", len(entries)),
		zap.Int("data_errors", len(notes)),
	)
	return run, nil
}

func (s *Service) Run(ctx context.Context, target month.Month) (compdomain.CalculationRun, error) {
	run, err := s.runrepo.FindOne(ctx, &compdomain.CalculationRun{TargetMonth: target.String()})
	if err != nil {
		return compdomain.CalculationRun{}, err
	}
	if run == nil {
		return compdomain.CalculationRun{
			TargetMonth: target.String(),
			Status:      compdomain.RunStatusNotStarted,
		}, nil
	}
	return *run, nil
}

func (s *Service) Ledger(ctx context.Context, target month.Month) ([]compdomain.LedgerEntry, error) {
	var entries []compdomain.LedgerEntry
	err := s.db.WithContext(ctx).
		Where("target_month = ?", target.String()).
		Order("member_id, bonus_type").
		Find(&entries).Error
	return entries, err
}

// computeMember runs every formula for one member. A formula's note becomes
// a zero-amount entry plus a run report line; it never fails the run.
func (s *Service) computeMember(in memberInput) memberResult {
	var out memberResult
	for _, bonusType := range compdomain.AllBonusTypes {
		result := s.bonuses[bonusType](in)
		if result.note != "" {
			out.notes = append(out.notes, compdomain.RunNote{
				MemberID:  in.node.ID.String(),
				BonusType: string(bonusType),
				Note:      result.note,
			})
		}
		if result.amount == 0 && result.note == "" {
			continue
		}
		out.entries = append(out.entries, compdomain.LedgerEntry{
			MemberID:    in.node.ID,
			TargetMonth: in.target.String(),
			BonusType:   bonusType,
			Amount:      result.amount,
			Basis:       result.basis,
			RateApplied: result.rate,
			ErrorNote:   result.note,
		})
	}
	return out
}

// eligibleMembers lists members participating in the month, ordered by id so
// fan-out and ledger output are deterministic. A member withdrawn before the
// month started earns nothing but stays in the graph for its descendants.
func eligibleMembers(snapshot *orgdomain.Snapshot, target month.Month) []snowflake.ID {
	monthStart := target.Start()
	ids := make([]snowflake.ID, 0, len(snapshot.Members))
	for id, node := range snapshot.Members {
		if node.Status == memberdomain.MemberStatusWithdrawn &&
			node.WithdrawalDate != nil && node.WithdrawalDate.Before(monthStart) {
			continue
		}
		// End() is midnight on the first of the following month; a member
		// joining exactly then belongs to the next month, not this one.
		if !node.JoinDate.Before(target.End()) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Service) loadTitles(ctx context.Context) (map[string]memberdomain.Title, error) {
	rows, err := s.titlerepo.Find(ctx, &memberdomain.Title{})
	if err != nil {
		return nil, err
	}
	titles := make(map[string]memberdomain.Title, len(rows))
	for _, t := range rows {
		titles[t.Code] = *t
	}
	return titles, nil
}

func (s *Service) markInProgress(ctx context.Context, target month.Month) (compdomain.CalculationRun, error) {
	now := time.Now().UTC()
	existing, err := s.runrepo.FindOne(ctx, &compdomain.CalculationRun{TargetMonth: target.String()})
	if err != nil {
		return compdomain.CalculationRun{}, err
	}
	if existing == nil {
		run := compdomain.CalculationRun{
			ID:          s.genID.Generate(),
			TargetMonth: target.String(),
			Status:      compdomain.RunStatusInProgress,
			Notes:       []compdomain.RunNote{},
			StartedAt:   &now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.runrepo.Create(ctx, &run); err != nil {
			return compdomain.CalculationRun{}, err
		}
		return run, nil
	}

	existing.Status = compdomain.RunStatusInProgress
	existing.Notes = []compdomain.RunNote{}
	existing.StartedAt = &now
	existing.CompletedAt = nil
	existing.UpdatedAt = now
	if err := s.db.WithContext(ctx).Save(existing).Error; err != nil {
		return compdomain.CalculationRun{}, err
	}
	return *existing, nil
}

func (s *Service) markError(ctx context.Context, run compdomain.CalculationRun, cause error) (compdomain.CalculationRun, error) {
	now := time.Now().UTC()
	run.Status = compdomain.RunStatusError
	run.UpdatedAt = now
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Save(&run).Error; err != nil {
		s.log.Error("failed to record run error", zap.String("target_month", run.TargetMonth), zap.Error(err))
	}
	return run, cause
}
