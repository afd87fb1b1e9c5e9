package service

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/wellnest-hd/orgcomp/internal/audit/domain"
	"github.com/wellnest-hd/orgcomp/internal/config"
	memberdomain "github.com/wellnest-hd/orgcomp/internal/member/domain"
	orgdomain "github.com/wellnest-hd/orgcomp/internal/organization/domain"
	"github.com/wellnest-hd/orgcomp/internal/runlock"
	"github.com/wellnest-hd/orgcomp/pkg/db"
	"github.com/wellnest-hd/orgcomp/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var memberNumberRe = regexp.MustCompile(`^\d{7}$`)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Config   config.Config
	AuditSvc auditdomain.Service
	Locks    *runlock.Service
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID      *snowflake.Node
	cfg        config.Config
	auditSvc   auditdomain.Service
	locks      *runlock.Service
	memberrepo repository.Repository[memberdomain.Member]
	edgerepo   repository.Repository[orgdomain.OrgEdge]

	// Placement depth is recomputed lazily and invalidated wholesale on any
	// reparent; the chain of every member below the moved node changes.
	depthMu    sync.Mutex
	depthCache map[snowflake.ID]int
}

func NewService(p Params) orgdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("organization.service"),
		genID:      p.GenID,
		cfg:        p.Config,
		auditSvc:   p.AuditSvc,
		locks:      p.Locks,
		memberrepo: repository.ProvideStore[memberdomain.Member](p.DB),
		edgerepo:   repository.ProvideStore[orgdomain.OrgEdge](p.DB),
		depthCache: make(map[snowflake.ID]int),
	}
}

func (s *Service) AddMember(ctx context.Context, req orgdomain.AddMemberRequest) (snowflake.ID, error) {
	if !memberNumberRe.MatchString(req.MemberNumber) {
		return 0, orgdomain.ErrInvalidMemberNumber
	}

	if err := s.requireUnlocked(ctx); err != nil {
		return 0, err
	}

	if req.PlacementParentID != nil {
		if err := s.validateAttachTarget(ctx, *req.PlacementParentID); err != nil {
			return 0, err
		}
	}
	if req.SponsorID != nil {
		if err := s.validateAttachTarget(ctx, *req.SponsorID); err != nil {
			return 0, err
		}
	}

	memberID := s.genID.Generate()
	now := time.Now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member := memberdomain.Member{
			ID:                memberID,
			MemberNumber:      req.MemberNumber,
			Name:              req.Name,
			Status:            memberdomain.MemberStatusActive,
			TitleCode:         req.TitleCode,
			JoinDate:          req.JoinDate,
			BankCode:          req.BankCode,
			BranchCode:        req.BranchCode,
			BankAccountType:   req.BankAccountType,
			BankAccountNumber: req.BankAccountNumber,
			BankAccountHolder: req.BankAccountHolder,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.memberrepo.WithTrx(tx).Create(ctx, &member); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return orgdomain.ErrDuplicateMemberNumber
			}
			return err
		}

		return s.edgerepo.WithTrx(tx).Create(ctx, &orgdomain.OrgEdge{
			ID:                s.genID.Generate(),
			MemberID:          memberID,
			PlacementParentID: req.PlacementParentID,
			SponsorID:         req.SponsorID,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
	})
	if err != nil {
		return 0, err
	}

	s.invalidateDepths()
	return memberID, nil
}

func (s *Service) Reparent(ctx context.Context, memberID snowflake.ID, newParentID *snowflake.ID, reason, actorID string) error {
	if err := s.requireUnlocked(ctx); err != nil {
		return err
	}

	edge, err := s.edgerepo.FindOne(ctx, &orgdomain.OrgEdge{MemberID: memberID})
	if err != nil {
		return err
	}
	if edge == nil {
		return orgdomain.ErrUnknownMember
	}

	if newParentID != nil {
		if *newParentID == memberID {
			return orgdomain.ErrSelfReference
		}
		if err := s.validateAttachTarget(ctx, *newParentID); err != nil {
			return err
		}

		snapshot, err := s.Snapshot(ctx)
		if err != nil {
			return err
		}
		if createsPlacementCycle(snapshot, memberID, *newParentID) {
			return fmt.Errorf("%w: member %s under %s", orgdomain.ErrCycle, memberID, *newParentID)
		}
	}

	oldParentID := edge.PlacementParentID
	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Model(&orgdomain.OrgEdge{}).
		Where("member_id = ?", memberID).
		Updates(map[string]any{"placement_parent_id": newParentID, "updated_at": now}).Error
	if err != nil {
		return err
	}

	s.invalidateDepths()
	s.recordEdgeAudit(ctx, "organization.reparented", memberID, oldParentID, newParentID, reason, actorID)
	return nil
}

func (s *Service) ChangeSponsor(ctx context.Context, memberID snowflake.ID, newSponsorID snowflake.ID, reason, actorID string) error {
	if err := s.requireUnlocked(ctx); err != nil {
		return err
	}
	if newSponsorID == memberID {
		return orgdomain.ErrSelfReference
	}

	edge, err := s.edgerepo.FindOne(ctx, &orgdomain.OrgEdge{MemberID: memberID})
	if err != nil {
		return err
	}
	if edge == nil {
		return orgdomain.ErrUnknownMember
	}
	if err := s.validateAttachTarget(ctx, newSponsorID); err != nil {
		return err
	}

	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	if createsSponsorCycle(snapshot, memberID, newSponsorID) {
		return fmt.Errorf("%w: member %s sponsored by %s", orgdomain.ErrCycle, memberID, newSponsorID)
	}

	oldSponsorID := edge.SponsorID
	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Model(&orgdomain.OrgEdge{}).
		Where("member_id = ?", memberID).
		Updates(map[string]any{"sponsor_id": newSponsorID, "updated_at": now}).Error
	if err != nil {
		return err
	}

	newID := newSponsorID
	s.recordEdgeAudit(ctx, "organization.sponsor_changed", memberID, oldSponsorID, &newID, reason, actorID)
	return nil
}

func (s *Service) Ancestors(ctx context.Context, memberID snowflake.ID, maxDepth int) ([]snowflake.ID, error) {
	maxDepth, err := s.boundDepth(maxDepth)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := snapshot.Members[memberID]; !ok {
		return nil, orgdomain.ErrUnknownMember
	}
	return snapshot.Ancestors(memberID, maxDepth), nil
}

func (s *Service) Descendants(ctx context.Context, memberID snowflake.ID, maxDepth int) ([]orgdomain.Descendant, error) {
	maxDepth, err := s.boundDepth(maxDepth)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := snapshot.Members[memberID]; !ok {
		return nil, orgdomain.ErrUnknownMember
	}
	return snapshot.Descendants(memberID, maxDepth), nil
}

func (s *Service) Depth(ctx context.Context, memberID snowflake.ID) (int, error) {
	s.depthMu.Lock()
	if depth, ok := s.depthCache[memberID]; ok {
		s.depthMu.Unlock()
		return depth, nil
	}
	s.depthMu.Unlock()

	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	if _, ok := snapshot.Members[memberID]; !ok {
		return 0, orgdomain.ErrUnknownMember
	}
	depth := snapshot.Depth(memberID)

	s.depthMu.Lock()
	s.depthCache[memberID] = depth
	s.depthMu.Unlock()
	return depth, nil
}

func (s *Service) Snapshot(ctx context.Context) (*orgdomain.Snapshot, error) {
	members, err := s.memberrepo.Find(ctx, &memberdomain.Member{})
	if err != nil {
		return nil, err
	}
	edges, err := s.edgerepo.Find(ctx, &orgdomain.OrgEdge{})
	if err != nil {
		return nil, err
	}

	snapshot := &orgdomain.Snapshot{
		Members:           make(map[snowflake.ID]orgdomain.MemberNode, len(members)),
		PlacementParent:   make(map[snowflake.ID]snowflake.ID, len(edges)),
		Sponsor:           make(map[snowflake.ID]snowflake.ID, len(edges)),
		PlacementChildren: make(map[snowflake.ID][]snowflake.ID, len(edges)),
		SponsorChildren:   make(map[snowflake.ID][]snowflake.ID, len(edges)),
	}
	for _, m := range members {
		snapshot.Members[m.ID] = orgdomain.MemberNode{
			ID:             m.ID,
			MemberNumber:   m.MemberNumber,
			Status:         m.Status,
			TitleCode:      m.TitleCode,
			JoinDate:       m.JoinDate,
			WithdrawalDate: m.WithdrawalDate,
		}
	}
	for _, e := range edges {
		if e.PlacementParentID != nil {
			snapshot.PlacementParent[e.MemberID] = *e.PlacementParentID
			snapshot.PlacementChildren[*e.PlacementParentID] = append(snapshot.PlacementChildren[*e.PlacementParentID], e.MemberID)
		}
		if e.SponsorID != nil {
			snapshot.Sponsor[e.MemberID] = *e.SponsorID
			snapshot.SponsorChildren[*e.SponsorID] = append(snapshot.SponsorChildren[*e.SponsorID], e.MemberID)
		}
	}
	return snapshot, nil
}

// validateAttachTarget checks that the target exists and is not withdrawn.
// Existing attachments under a withdrawn member stay valid; only new
// attachments are refused.
func (s *Service) validateAttachTarget(ctx context.Context, targetID snowflake.ID) error {
	target, err := s.memberrepo.FindOne(ctx, &memberdomain.Member{ID: targetID})
	if err != nil {
		return err
	}
	if target == nil {
		return fmt.Errorf("%w: %s", orgdomain.ErrInvalidParent, targetID)
	}
	if target.Status == memberdomain.MemberStatusWithdrawn {
		return fmt.Errorf("%w: %s", orgdomain.ErrWithdrawnTarget, targetID)
	}
	return nil
}

func (s *Service) requireUnlocked(ctx context.Context) error {
	held, err := s.locks.AnyHeld(ctx)
	if err != nil {
		return err
	}
	if held {
		return orgdomain.ErrStructureLocked
	}
	return nil
}

func (s *Service) boundDepth(maxDepth int) (int, error) {
	if maxDepth <= 0 {
		return 0, orgdomain.ErrInvalidTraversalDepth
	}
	if limit := s.cfg.Plan.MaxTraversalDepth; maxDepth > limit {
		maxDepth = limit
	}
	return maxDepth, nil
}

func (s *Service) invalidateDepths() {
	s.depthMu.Lock()
	s.depthCache = make(map[snowflake.ID]int)
	s.depthMu.Unlock()
}

func (s *Service) recordEdgeAudit(ctx context.Context, action string, memberID snowflake.ID, oldID, newID *snowflake.ID, reason, actorID string) {
	metadata := map[string]any{
		"reason": reason,
		"old":    idString(oldID),
		"new":    idString(newID),
	}
	if err := s.auditSvc.Record(ctx, auditdomain.ActorTypeOperator, actorID, action, "member", memberID.String(), metadata); err != nil {
		s.log.Warn("failed to write organization audit log", zap.String("action", action), zap.Error(err))
	}
}

// createsPlacementCycle reports whether attaching memberID under candidate
// would make memberID its own placement ancestor.
func createsPlacementCycle(snapshot *orgdomain.Snapshot, memberID, candidate snowflake.ID) bool {
	current := candidate
	for {
		if current == memberID {
			return true
		}
		parent, ok := snapshot.PlacementParent[current]
		if !ok {
			return false
		}
		current = parent
	}
}

func createsSponsorCycle(snapshot *orgdomain.Snapshot, memberID, candidate snowflake.ID) bool {
	current := candidate
	for {
		if current == memberID {
			return true
		}
		sponsor, ok := snapshot.Sponsor[current]
		if !ok {
			return false
		}
		current = sponsor
	}
}

func idString(id *snowflake.ID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
