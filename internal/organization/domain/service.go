package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	memberdomain "github.com/wellnest-hd/orgcomp/internal/member/domain"
)

type AddMemberRequest struct {
	MemberNumber      string
	Name              string
	TitleCode         string
	JoinDate          time.Time
	PlacementParentID *snowflake.ID
	SponsorID         *snowflake.ID

	BankCode          string
	BranchCode        string
	BankAccountType   memberdomain.BankAccountType
	BankAccountNumber string
	BankAccountHolder string
}

type Service interface {
	// AddMember enrolls a member and attaches both edges atomically.
	AddMember(ctx context.Context, req AddMemberRequest) (snowflake.ID, error)

	// Reparent moves the placement edge. newParentID nil detaches the
	// member into a root. Every successful move is written to the
	// activity log with the reason and both parents.
	Reparent(ctx context.Context, memberID snowflake.ID, newParentID *snowflake.ID, reason, actorID string) error

	// ChangeSponsor moves the sponsorship edge, independent of placement.
	ChangeSponsor(ctx context.Context, memberID snowflake.ID, newSponsorID snowflake.ID, reason, actorID string) error

	// Ancestors lists placement ancestors closest-first, bounded by
	// maxDepth. maxDepth must be positive and is capped by configuration.
	Ancestors(ctx context.Context, memberID snowflake.ID, maxDepth int) ([]snowflake.ID, error)

	// Descendants walks the placement subtree breadth-first with level
	// numbers relative to memberID.
	Descendants(ctx context.Context, memberID snowflake.ID, maxDepth int) ([]Descendant, error)

	// Depth returns the member's level in the placement tree (root = 0).
	Depth(ctx context.Context, memberID snowflake.ID) (int, error)

	// Snapshot loads the whole graph for a calculation run.
	Snapshot(ctx context.Context) (*Snapshot, error)
}

var (
	ErrUnknownMember         = errors.New("unknown_member")
	ErrInvalidParent         = errors.New("invalid_parent")
	ErrCycle                 = errors.New("cycle_detected")
	ErrDuplicateMemberNumber = errors.New("duplicate_member_number")
	ErrWithdrawnTarget       = errors.New("withdrawn_target")
	ErrStructureLocked       = errors.New("structure_locked")
	ErrInvalidTraversalDepth = errors.New("invalid_traversal_depth")
	ErrInvalidMemberNumber   = errors.New("invalid_member_number")
	ErrSelfReference         = errors.New("self_reference")
)
