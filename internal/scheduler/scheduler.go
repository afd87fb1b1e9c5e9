// Package scheduler drives the monthly batch: title promotions, then the
// compensation calculation, then payout generation, always for the previous
// calendar month. Each sweep is idempotent; work already done is skipped.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	auditdomain "github.com/wellnest-hd/orgcomp/internal/audit/domain"
	"github.com/wellnest-hd/orgcomp/internal/clock"
	compdomain "github.com/wellnest-hd/orgcomp/internal/compensation/domain"
	memberdomain "github.com/wellnest-hd/orgcomp/internal/member/domain"
	"github.com/wellnest-hd/orgcomp/internal/month"
	payoutdomain "github.com/wellnest-hd/orgcomp/internal/payout/domain"
	"github.com/wellnest-hd/orgcomp/internal/runlock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	MemberSvc memberdomain.Service
	CompSvc   compdomain.Service
	PayoutSvc payoutdomain.Service
	AuditSvc  auditdomain.Service `optional:"true"`
	Config    Config              `optional:"true"`
}

type Scheduler struct {
	log       *zap.Logger
	cfg       Config
	clock     clock.Clock
	memberSvc memberdomain.Service
	compSvc   compdomain.Service
	payoutSvc payoutdomain.Service
	audit     auditdomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.MemberSvc == nil || p.CompSvc == nil || p.PayoutSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:       p.Log.Named("scheduler"),
		cfg:       p.Config.withDefaults(),
		clock:     p.Clock,
		memberSvc: p.MemberSvc,
		compSvc:   p.CompSvc,
		payoutSvc: p.PayoutSvc,
		audit:     p.AuditSvc,
	}, nil
}

// RunOnce sweeps the previous month through the full pipeline. A stage that
// is already done or currently held by another runner is skipped, not an
// error; the next sweep picks up whatever is left.
func (s *Scheduler) RunOnce(parent context.Context) error {
	target := month.FromTime(s.clock.Now()).Prev()

	confirmed, err := s.payoutSvc.Confirmed(parent, target)
	if err != nil {
		return fmt.Errorf("check confirmed: %w", err)
	}
	if confirmed {
		return nil
	}

	var sweepErr error
	sweepErr = errors.Join(sweepErr, s.runJob(parent, target, "promotions", func(ctx context.Context) error {
		promotions, err := s.memberSvc.EvaluatePromotions(ctx, target)
		if err != nil {
			return err
		}
		if len(promotions) > 0 {
			s.log.Info("promotions applied",
				zap.String("target_month", target.String()),
				zap.Int("count", len(promotions)),
			)
		}
		return nil
	}))

	sweepErr = errors.Join(sweepErr, s.runJob(parent, target, "compensation", func(ctx context.Context) error {
		run, err := s.compSvc.Run(ctx, target)
		if err != nil {
			return err
		}
		if run.Status == compdomain.RunStatusCompleted {
			return nil
		}
		_, err = s.compSvc.Calculate(ctx, target)
		return err
	}))

	sweepErr = errors.Join(sweepErr, s.runJob(parent, target, "payouts", func(ctx context.Context) error {
		run, err := s.compSvc.Run(ctx, target)
		if err != nil {
			return err
		}
		if run.Status != compdomain.RunStatusCompleted {
			return nil
		}
		_, err = s.payoutSvc.ComputeMonthlyPayouts(ctx, target)
		return err
	}))

	return sweepErr
}

func (s *Scheduler) runJob(parent context.Context, target month.Month, name string, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	err := fn(ctx)
	elapsed := s.clock.Now().Sub(start)

	if err != nil {
		if errors.Is(err, runlock.ErrRunInProgress) {
			s.log.Info("job already in flight elsewhere", zap.String("job", name))
			return nil
		}
		s.log.Warn("job failed", zap.String("job", name), zap.Duration("elapsed", elapsed), zap.Error(err))
		s.recordJob(parent, target, name, elapsed, err)
		return fmt.Errorf("%s: %w", name, err)
	}

	s.log.Debug("job finished", zap.String("job", name), zap.Duration("elapsed", elapsed))
	s.recordJob(parent, target, name, elapsed, nil)
	return nil
}

func (s *Scheduler) recordJob(ctx context.Context, target month.Month, name string, elapsed time.Duration, jobErr error) {
	if s.audit == nil {
		return
	}
	action := "scheduler.job_completed"
	metadata := map[string]any{
		"job":        name,
		"elapsed_ms": elapsed.Milliseconds(),
	}
	if jobErr != nil {
		action = "scheduler.job_failed"
		metadata["error"] = jobErr.Error()
	}
	if err := s.audit.Record(ctx, auditdomain.ActorTypeSystem, "scheduler", action, "batch_month", target.String(), metadata); err != nil {
		s.log.Warn("audit record failed", zap.String("job", name), zap.Error(err))
	}
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
