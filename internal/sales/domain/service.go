package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/wellnest-hd/orgcomp/internal/month"
	orgdomain "github.com/wellnest-hd/orgcomp/internal/organization/domain"
)

// FactReader is the Payments collaborator. Facts are fetched in bulk per
// month, never per member.
type FactReader interface {
	// MonthlySales returns personal sales in yen per member for the month.
	MonthlySales(ctx context.Context, target month.Month) (map[snowflake.ID]int64, error)
	// KitCounts returns the number of maintenance kits per member.
	KitCounts(ctx context.Context, target month.Month) (map[snowflake.ID]int64, error)
	// ActivityFlags reports members that met the minimum-activity condition.
	ActivityFlags(ctx context.Context, target month.Month) (map[snowflake.ID]bool, error)
	// RoyalFamilyMembers reports externally supplied royal-family eligibility.
	RoyalFamilyMembers(ctx context.Context, target month.Month) (map[snowflake.ID]bool, error)
}

type Service interface {
	// PersonalSales is a pass-through to the facts collaborator.
	PersonalSales(ctx context.Context, memberID snowflake.ID, target month.Month) (int64, error)

	// OrganizationSales sums personal sales over all placement descendants
	// up to maxDepth, plus the member's own.
	OrganizationSales(ctx context.Context, memberID snowflake.ID, target month.Month, maxDepth int) (int64, error)

	// LevelSales returns the per-level breakdown used by the power bonus.
	LevelSales(ctx context.Context, memberID snowflake.ID, target month.Month) (LevelSales, error)

	// BuildAggregates runs the single aggregation pass over the snapshot
	// for the month. Results are memoized per month.
	BuildAggregates(ctx context.Context, snapshot *orgdomain.Snapshot, target month.Month) (*Aggregates, error)
}
