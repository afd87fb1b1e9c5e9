package service

import (
	"context"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/wellnest-hd/orgcomp/internal/config"
	"github.com/wellnest-hd/orgcomp/internal/month"
	orgdomain "github.com/wellnest-hd/orgcomp/internal/organization/domain"
	salesdomain "github.com/wellnest-hd/orgcomp/internal/sales/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	Config config.Config
	Facts  salesdomain.FactReader
	OrgSvc orgdomain.Service
}

type Service struct {
	log    *zap.Logger
	cfg    config.Config
	facts  salesdomain.FactReader
	orgSvc orgdomain.Service

	mu    sync.Mutex
	cache map[month.Month]*salesdomain.Aggregates
}

func NewService(p Params) salesdomain.Service {
	return &Service{
		log:    p.Log.Named("sales.service"),
		cfg:    p.Config,
		facts:  p.Facts,
		orgSvc: p.OrgSvc,
		cache:  make(map[month.Month]*salesdomain.Aggregates),
	}
}

func (s *Service) PersonalSales(ctx context.Context, memberID snowflake.ID, target month.Month) (int64, error) {
	aggs, err := s.monthAggregates(ctx, target)
	if err != nil {
		return 0, err
	}
	return aggs.PersonalSales(memberID), nil
}

func (s *Service) OrganizationSales(ctx context.Context, memberID snowflake.ID, target month.Month, maxDepth int) (int64, error) {
	if maxDepth <= 0 {
		return 0, orgdomain.ErrInvalidTraversalDepth
	}
	if limit := s.cfg.Plan.MaxTraversalDepth; maxDepth > limit {
		maxDepth = limit
	}
	aggs, err := s.monthAggregates(ctx, target)
	if err != nil {
		return 0, err
	}
	return aggs.OrganizationSales(memberID, maxDepth), nil
}

func (s *Service) LevelSales(ctx context.Context, memberID snowflake.ID, target month.Month) (salesdomain.LevelSales, error) {
	aggs, err := s.monthAggregates(ctx, target)
	if err != nil {
		return salesdomain.LevelSales{}, err
	}
	return aggs.LevelSales(memberID), nil
}

// BuildAggregates is one pass over the snapshot: every member's personal
// sales is added to the level bucket of each placement ancestor, one climb
// per member bounded by the traversal cap. A naive per-ancestor recompute is
// quadratic on deep trees; this stays O(members x depth cap).
// An explicit call always recomputes, so a recalculation run picks up
// corrected facts; the pass-through queries reuse the last build.
func (s *Service) BuildAggregates(ctx context.Context, snapshot *orgdomain.Snapshot, target month.Month) (*salesdomain.Aggregates, error) {
	personal, err := s.facts.MonthlySales(ctx, target)
	if err != nil {
		return nil, err
	}
	kits, err := s.facts.KitCounts(ctx, target)
	if err != nil {
		return nil, err
	}
	active, err := s.facts.ActivityFlags(ctx, target)
	if err != nil {
		return nil, err
	}
	royal, err := s.facts.RoyalFamilyMembers(ctx, target)
	if err != nil {
		return nil, err
	}

	maxDepth := s.cfg.Plan.MaxTraversalDepth
	aggs := &salesdomain.Aggregates{
		Month:       target,
		MaxDepth:    maxDepth,
		Members:     make(map[snowflake.ID]*salesdomain.MemberAggregate, len(snapshot.Members)),
		KitCounts:   kits,
		ActiveFlags: active,
		RoyalFamily: royal,
	}

	for id := range snapshot.Members {
		aggs.Members[id] = &salesdomain.MemberAggregate{
			PersonalSales: personal[id],
			ByLevel:       make(map[int]int64),
		}
	}

	for id, sales := range personal {
		if sales == 0 {
			continue
		}
		if _, ok := snapshot.Members[id]; !ok {
			s.log.Warn("sales fact for unknown member",
				zap.String("member_id", id.String()),
				zap.String("target_month", target.String()),
			)
			continue
		}
		current := id
		for level := 1; level <= maxDepth; level++ {
			parent, ok := snapshot.PlacementParent[current]
			if !ok {
				break
			}
			if agg, ok := aggs.Members[parent]; ok {
				agg.ByLevel[level] += sales
			}
			current = parent
		}
	}

	s.mu.Lock()
	s.cache[target] = aggs
	s.mu.Unlock()
	return aggs, nil
}

func (s *Service) monthAggregates(ctx context.Context, target month.Month) (*salesdomain.Aggregates, error) {
	s.mu.Lock()
	cached, ok := s.cache[target]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	snapshot, err := s.orgSvc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.BuildAggregates(ctx, snapshot, target)
}
