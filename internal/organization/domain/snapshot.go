package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	memberdomain "github.com/wellnest-hd/orgcomp/internal/member/domain"
)

// MemberNode is the per-member data carried in a graph snapshot.
type MemberNode struct {
	ID             snowflake.ID
	MemberNumber   string
	Status         memberdomain.MemberStatus
	TitleCode      string
	JoinDate       time.Time
	WithdrawalDate *time.Time
}

// Descendant is a placement descendant together with its distance from the
// queried member.
type Descendant struct {
	MemberID snowflake.ID
	Level    int
}

// Snapshot is an immutable in-memory copy of the graph, safe for concurrent
// reads. Both relations are plain id-keyed adjacency maps over the same
// member-id space; no node holds a pointer to another node.
type Snapshot struct {
	Members           map[snowflake.ID]MemberNode
	PlacementParent   map[snowflake.ID]snowflake.ID
	Sponsor           map[snowflake.ID]snowflake.ID
	PlacementChildren map[snowflake.ID][]snowflake.ID
	SponsorChildren   map[snowflake.ID][]snowflake.ID
}

// Ancestors returns placement ancestors closest-first, at most maxDepth of
// them. Returns an empty slice for a root.
func (s *Snapshot) Ancestors(memberID snowflake.ID, maxDepth int) []snowflake.ID {
	out := make([]snowflake.ID, 0, 8)
	current := memberID
	for depth := 0; depth < maxDepth; depth++ {
		parent, ok := s.PlacementParent[current]
		if !ok {
			break
		}
		out = append(out, parent)
		current = parent
	}
	return out
}

// Descendants walks the placement subtree breadth-first down to maxDepth,
// reporting each member with its level distance from memberID.
func (s *Snapshot) Descendants(memberID snowflake.ID, maxDepth int) []Descendant {
	out := make([]Descendant, 0, 16)
	frontier := []snowflake.ID{memberID}
	for level := 1; level <= maxDepth && len(frontier) > 0; level++ {
		next := make([]snowflake.ID, 0, len(frontier))
		for _, id := range frontier {
			for _, child := range s.PlacementChildren[id] {
				out = append(out, Descendant{MemberID: child, Level: level})
				next = append(next, child)
			}
		}
		frontier = next
	}
	return out
}

// Depth returns the placement-chain length from memberID to its root.
func (s *Snapshot) Depth(memberID snowflake.ID) int {
	depth := 0
	current := memberID
	for {
		parent, ok := s.PlacementParent[current]
		if !ok {
			return depth
		}
		depth++
		current = parent
	}
}

// DirectSponsees returns the members directly sponsored by memberID.
func (s *Snapshot) DirectSponsees(memberID snowflake.ID) []snowflake.ID {
	return s.SponsorChildren[memberID]
}
