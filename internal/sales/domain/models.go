// Package domain defines the monthly sales aggregates consumed by the bonus
// formulas and title-promotion checks.
package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/wellnest-hd/orgcomp/internal/month"
)

// LevelSales is the per-level breakdown of placement-descendant sales.
// Levels 1-4 are discrete; level 5 and deeper are combined, matching the
// power bonus tiering.
type LevelSales struct {
	Level1     int64
	Level2     int64
	Level3     int64
	Level4     int64
	Level5Plus int64
}

// Total sums all tiers.
func (l LevelSales) Total() int64 {
	return l.Level1 + l.Level2 + l.Level3 + l.Level4 + l.Level5Plus
}

// MemberAggregate holds one member's own sales and descendant sales keyed by
// relative placement level.
type MemberAggregate struct {
	PersonalSales int64
	ByLevel       map[int]int64
}

// Aggregates is the read-only result of one aggregation pass for a month.
// It is computed once per calculation run and shared across workers.
type Aggregates struct {
	Month    month.Month
	MaxDepth int

	Members     map[snowflake.ID]*MemberAggregate
	KitCounts   map[snowflake.ID]int64
	ActiveFlags map[snowflake.ID]bool
	RoyalFamily map[snowflake.ID]bool
}

// PersonalSales returns the member's own sales for the month.
func (a *Aggregates) PersonalSales(memberID snowflake.ID) int64 {
	agg, ok := a.Members[memberID]
	if !ok {
		return 0
	}
	return agg.PersonalSales
}

// OrganizationSales returns personal sales plus all descendant sales down to
// maxDepth levels.
func (a *Aggregates) OrganizationSales(memberID snowflake.ID, maxDepth int) int64 {
	agg, ok := a.Members[memberID]
	if !ok {
		return 0
	}
	total := agg.PersonalSales
	for level, sales := range agg.ByLevel {
		if level <= maxDepth {
			total += sales
		}
	}
	return total
}

// LevelSales folds the per-level map into the tiers used by the power bonus.
func (a *Aggregates) LevelSales(memberID snowflake.ID) LevelSales {
	agg, ok := a.Members[memberID]
	if !ok {
		return LevelSales{}
	}
	var out LevelSales
	for level, sales := range agg.ByLevel {
		switch level {
		case 1:
			out.Level1 += sales
		case 2:
			out.Level2 += sales
		case 3:
			out.Level3 += sales
		case 4:
			out.Level4 += sales
		default:
			out.Level5Plus += sales
		}
	}
	return out
}
