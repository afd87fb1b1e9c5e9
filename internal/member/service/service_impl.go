package service

import (
	"context"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/wellnest-hd/orgcomp/internal/audit/domain"
	"github.com/wellnest-hd/orgcomp/internal/config"
	memberdomain "github.com/wellnest-hd/orgcomp/internal/member/domain"
	"github.com/wellnest-hd/orgcomp/internal/month"
	orgdomain "github.com/wellnest-hd/orgcomp/internal/organization/domain"
	salesdomain "github.com/wellnest-hd/orgcomp/internal/sales/domain"
	"github.com/wellnest-hd/orgcomp/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Config   config.Config
	OrgSvc   orgdomain.Service
	SalesSvc salesdomain.Service
	AuditSvc auditdomain.Service
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	cfg      config.Config
	orgSvc   orgdomain.Service
	salesSvc salesdomain.Service
	auditSvc auditdomain.Service

	memberrepo repository.Repository[memberdomain.Member]
	titlerepo  repository.Repository[memberdomain.Title]
}

func NewService(p Params) memberdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("member.service"),
		cfg:        p.Config,
		orgSvc:     p.OrgSvc,
		salesSvc:   p.SalesSvc,
		auditSvc:   p.AuditSvc,
		memberrepo: repository.ProvideStore[memberdomain.Member](p.DB),
		titlerepo:  repository.ProvideStore[memberdomain.Title](p.DB),
	}
}

// Withdraw marks the member withdrawn. The member's edges stay exactly as
// they are: descendants keep pointing at the withdrawn member until an
// operator explicitly reassigns them.
func (s *Service) Withdraw(ctx context.Context, memberID snowflake.ID, withdrawalDate time.Time, actorID string) error {
	member, err := s.memberrepo.FindOne(ctx, &memberdomain.Member{ID: memberID})
	if err != nil {
		return err
	}
	if member == nil {
		return memberdomain.ErrMemberNotFound
	}
	if member.Status == memberdomain.MemberStatusWithdrawn {
		return memberdomain.ErrAlreadyWithdrawn
	}
	if withdrawalDate.Before(member.JoinDate) {
		return memberdomain.ErrInvalidWithdrawal
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Model(&memberdomain.Member{}).
		Where("id = ?", memberID).
		Updates(map[string]any{
			"status":          memberdomain.MemberStatusWithdrawn,
			"withdrawal_date": withdrawalDate,
			"updated_at":      now,
		}).Error
	if err != nil {
		return err
	}

	if err := s.auditSvc.Record(ctx, auditdomain.ActorTypeOperator, actorID, "member.withdrawn", "member", memberID.String(), map[string]any{
		"withdrawal_date": withdrawalDate.Format(time.DateOnly),
	}); err != nil {
		s.log.Warn("failed to write withdrawal audit log", zap.Error(err))
	}
	return nil
}

// EvaluatePromotions checks every active member against the title ladder
// for the month and applies the highest rank whose thresholds are all met.
// Promotion is monotonic: the engine never lowers a rank.
func (s *Service) EvaluatePromotions(ctx context.Context, target month.Month) ([]memberdomain.Promotion, error) {
	titleRows, err := s.titlerepo.Find(ctx, &memberdomain.Title{})
	if err != nil {
		return nil, err
	}
	if len(titleRows) == 0 {
		return nil, memberdomain.ErrNoTitlesConfigured
	}

	ladder := make([]memberdomain.Title, 0, len(titleRows))
	for _, t := range titleRows {
		ladder = append(ladder, *t)
	}
	sort.Slice(ladder, func(i, j int) bool { return ladder[i].Rank < ladder[j].Rank })

	rankByCode := make(map[string]int, len(ladder))
	for _, t := range ladder {
		rankByCode[t.Code] = t.Rank
	}

	snapshot, err := s.orgSvc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	aggs, err := s.salesSvc.BuildAggregates(ctx, snapshot, target)
	if err != nil {
		return nil, err
	}

	maxDepth := s.cfg.Plan.MaxTraversalDepth
	promotions := make([]memberdomain.Promotion, 0)

	memberIDs := make([]snowflake.ID, 0, len(snapshot.Members))
	for id := range snapshot.Members {
		memberIDs = append(memberIDs, id)
	}
	sort.Slice(memberIDs, func(i, j int) bool { return memberIDs[i] < memberIDs[j] })

	for _, id := range memberIDs {
		node := snapshot.Members[id]
		if node.Status != memberdomain.MemberStatusActive {
			continue
		}
		currentRank := rankByCode[node.TitleCode]

		best := node.TitleCode
		bestRank := currentRank
		for _, title := range ladder {
			if title.Rank <= bestRank {
				continue
			}
			if s.meetsThresholds(snapshot, aggs, rankByCode, id, title, maxDepth) {
				best = title.Code
				bestRank = title.Rank
			}
		}
		if best == node.TitleCode {
			continue
		}

		now := time.Now().UTC()
		err := s.db.WithContext(ctx).Model(&memberdomain.Member{}).
			Where("id = ?", id).
			Updates(map[string]any{"title_code": best, "updated_at": now}).Error
		if err != nil {
			return nil, err
		}

		promotions = append(promotions, memberdomain.Promotion{
			MemberID:  id,
			FromTitle: node.TitleCode,
			ToTitle:   best,
		})
		if err := s.auditSvc.Record(ctx, auditdomain.ActorTypeSystem, "promotion-batch", "member.promoted", "member", id.String(), map[string]any{
			"target_month": target.String(),
			"from_title":   node.TitleCode,
			"to_title":     best,
		}); err != nil {
			s.log.Warn("failed to write promotion audit log", zap.Error(err))
		}
	}

	return promotions, nil
}

func (s *Service) meetsThresholds(
	snapshot *orgdomain.Snapshot,
	aggs *salesdomain.Aggregates,
	rankByCode map[string]int,
	memberID snowflake.ID,
	title memberdomain.Title,
	maxDepth int,
) bool {
	if aggs.PersonalSales(memberID) < title.MinPersonalSales {
		return false
	}
	if aggs.OrganizationSales(memberID, maxDepth) < title.MinOrganizationSales {
		return false
	}
	if len(snapshot.DirectSponsees(memberID)) < title.MinDirectReferrals {
		return false
	}
	if title.MinDownlineManagers > 0 {
		managers := 0
		for _, desc := range snapshot.Descendants(memberID, maxDepth) {
			node := snapshot.Members[desc.MemberID]
			if rankByCode[node.TitleCode] >= title.ManagerRankFloor {
				managers++
			}
		}
		if managers < title.MinDownlineManagers {
			return false
		}
	}
	return true
}
