package service

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/wellnest-hd/orgcomp/internal/config"
	memberdomain "github.com/wellnest-hd/orgcomp/internal/member/domain"
	"github.com/wellnest-hd/orgcomp/internal/month"
	orgdomain "github.com/wellnest-hd/orgcomp/internal/organization/domain"
	salesdomain "github.com/wellnest-hd/orgcomp/internal/sales/domain"
)

func testPlan() config.PlanConfig {
	return config.PlanConfig{
		MinimumPayoutAmount: 5000,
		WithholdingRate:     0.1021,
		DailyBonusBase:      3000,
		ReferralBonusRate:   0.5,
		PowerBonusRates: config.PowerBonusRates{
			Level1:     0.05,
			Level2:     0.04,
			Level3:     0.03,
			Level4:     0.02,
			Level5Plus: 0.01,
		},
		MaintenanceBonusPerKit: 1000,
		SalesActivityBonus:     10000,
		RoyalFamilyBonus:       50000,
		MaxTraversalDepth:      55,
		CalcWorkers:            4,
	}
}

func emptySnapshot() *orgdomain.Snapshot {
	return &orgdomain.Snapshot{
		Members:           map[snowflake.ID]orgdomain.MemberNode{},
		PlacementParent:   map[snowflake.ID]snowflake.ID{},
		Sponsor:           map[snowflake.ID]snowflake.ID{},
		PlacementChildren: map[snowflake.ID][]snowflake.ID{},
		SponsorChildren:   map[snowflake.ID][]snowflake.ID{},
	}
}

func emptyAggs(target month.Month) *salesdomain.Aggregates {
	return &salesdomain.Aggregates{
		Month:       target,
		MaxDepth:    55,
		Members:     map[snowflake.ID]*salesdomain.MemberAggregate{},
		KitCounts:   map[snowflake.ID]int64{},
		ActiveFlags: map[snowflake.ID]bool{},
		RoyalFamily: map[snowflake.ID]bool{},
	}
}

func TestDailyBonusFullMonth(t *testing.T) {
	in := memberInput{
		node: orgdomain.MemberNode{
			ID:       1,
			Status:   memberdomain.MemberStatusActive,
			JoinDate: time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC),
		},
		plan:   testPlan(),
		target: "202401",
	}
	got := dailyBonus(in)
	if got.amount != 3000 {
		t.Fatalf("expected full base 3000, got %d", got.amount)
	}
	if got.basis != 31 {
		t.Fatalf("expected 31 active days, got %d", got.basis)
	}
}

func TestDailyBonusProratedFromJoinDate(t *testing.T) {
	in := memberInput{
		node: orgdomain.MemberNode{
			ID:       1,
			Status:   memberdomain.MemberStatusActive,
			JoinDate: time.Date(2024, time.January, 17, 0, 0, 0, 0, time.UTC),
		},
		plan:   testPlan(),
		target: "202401",
	}
	got := dailyBonus(in)
	// 15 active days of 31: 3000/31*15 = 1451.61... rounds to 1452.
	if got.amount != 1452 {
		t.Fatalf("expected 1452, got %d", got.amount)
	}
	if got.basis != 15 {
		t.Fatalf("expected 15 active days, got %d", got.basis)
	}
}

func TestDailyBonusProratedToWithdrawal(t *testing.T) {
	withdrawal := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	in := memberInput{
		node: orgdomain.MemberNode{
			ID:             1,
			Status:         memberdomain.MemberStatusWithdrawn,
			JoinDate:       time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC),
			WithdrawalDate: &withdrawal,
		},
		plan:   testPlan(),
		target: "202401",
	}
	got := dailyBonus(in)
	// 10 days of 31: 3000/31*10 = 967.74... rounds to 968.
	if got.amount != 968 {
		t.Fatalf("expected 968, got %d", got.amount)
	}
	if got.basis != 10 {
		t.Fatalf("expected 10 active days, got %d", got.basis)
	}
}

func TestDailyBonusInactiveEarnsNothing(t *testing.T) {
	in := memberInput{
		node: orgdomain.MemberNode{
			ID:       1,
			Status:   memberdomain.MemberStatusInactive,
			JoinDate: time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC),
		},
		plan:   testPlan(),
		target: "202401",
	}
	if got := dailyBonus(in); got.amount != 0 {
		t.Fatalf("expected 0 for inactive member, got %d", got.amount)
	}
}

func TestTitleBonusPaysCurrentTitle(t *testing.T) {
	in := memberInput{
		node: orgdomain.MemberNode{ID: 1, TitleCode: "MGR"},
		titles: map[string]memberdomain.Title{
			"MGR": {Code: "MGR", Rank: 2, TitleBonusAmount: 20000},
		},
		plan:   testPlan(),
		target: "202401",
	}
	if got := titleBonus(in); got.amount != 20000 {
		t.Fatalf("expected 20000, got %d", got.amount)
	}
}

func TestTitleBonusUnknownTitleIsDataError(t *testing.T) {
	in := memberInput{
		node:   orgdomain.MemberNode{ID: 1, TitleCode: "GHOST"},
		titles: map[string]memberdomain.Title{},
		plan:   testPlan(),
		target: "202401",
	}
	got := titleBonus(in)
	if got.amount != 0 {
		t.Fatalf("expected 0 for unknown title, got %d", got.amount)
	}
	if got.note != "unknown_title:GHOST" {
		t.Fatalf("expected data-error note, got %q", got.note)
	}
}

// The referral bonus follows the sponsorship relation, not placement. A
// member placed under one distributor but sponsored by another pays the
// sponsor, and the placement parent sees none of it.
func TestReferralBonusFollowsSponsorNotPlacement(t *testing.T) {
	sponsor := snowflake.ID(1)
	placementParent := snowflake.ID(2)
	recruit := snowflake.ID(3)

	snapshot := emptySnapshot()
	snapshot.PlacementParent[recruit] = placementParent
	snapshot.PlacementChildren[placementParent] = []snowflake.ID{recruit}
	snapshot.Sponsor[recruit] = sponsor
	snapshot.SponsorChildren[sponsor] = []snowflake.ID{recruit}

	aggs := emptyAggs("202401")
	aggs.Members[recruit] = &salesdomain.MemberAggregate{PersonalSales: 40000}

	base := memberInput{snapshot: snapshot, aggs: aggs, plan: testPlan(), target: "202401"}

	forSponsor := base
	forSponsor.node = orgdomain.MemberNode{ID: sponsor}
	got := referralBonus(forSponsor)
	if got.amount != 20000 {
		t.Fatalf("expected sponsor credit 20000, got %d", got.amount)
	}
	if got.basis != 40000 {
		t.Fatalf("expected basis 40000, got %d", got.basis)
	}

	forParent := base
	forParent.node = orgdomain.MemberNode{ID: placementParent}
	if got := referralBonus(forParent); got.amount != 0 {
		t.Fatalf("expected placement parent credit 0, got %d", got.amount)
	}
}

func TestReferralBonusRoundsPerSponsee(t *testing.T) {
	sponsor := snowflake.ID(1)
	s1, s2 := snowflake.ID(2), snowflake.ID(3)

	snapshot := emptySnapshot()
	snapshot.SponsorChildren[sponsor] = []snowflake.ID{s1, s2}

	aggs := emptyAggs("202401")
	aggs.Members[s1] = &salesdomain.MemberAggregate{PersonalSales: 33333}
	aggs.Members[s2] = &salesdomain.MemberAggregate{PersonalSales: 33333}

	in := memberInput{
		node:     orgdomain.MemberNode{ID: sponsor},
		snapshot: snapshot,
		aggs:     aggs,
		plan:     testPlan(),
		target:   "202401",
	}
	got := referralBonus(in)
	// Each share is 16666.5, rounded to 16667 before the sum: 33334, not
	// roundHalfUp(33333) = 33333.
	if got.amount != 33334 {
		t.Fatalf("expected 33334, got %d", got.amount)
	}
	if got.basis != 66666 {
		t.Fatalf("expected basis 66666, got %d", got.basis)
	}
}

func TestPowerBonusTierRates(t *testing.T) {
	member := snowflake.ID(1)
	aggs := emptyAggs("202401")
	aggs.Members[member] = &salesdomain.MemberAggregate{
		ByLevel: map[int]int64{
			1: 100000,
			2: 100000,
			3: 100000,
			4: 100000,
			5: 100000,
			6: 100000,
		},
	}

	in := memberInput{
		node:   orgdomain.MemberNode{ID: member},
		aggs:   aggs,
		plan:   testPlan(),
		target: "202401",
	}
	got := powerBonus(in)
	// 5000 + 4000 + 3000 + 2000 + (200000 * 0.01) = 16000.
	if got.amount != 16000 {
		t.Fatalf("expected 16000, got %d", got.amount)
	}
	if got.basis != 600000 {
		t.Fatalf("expected basis 600000, got %d", got.basis)
	}
}

func TestPowerBonusRoundsPerTier(t *testing.T) {
	member := snowflake.ID(1)
	aggs := emptyAggs("202401")
	aggs.Members[member] = &salesdomain.MemberAggregate{
		ByLevel: map[int]int64{1: 33333, 2: 33333},
	}

	in := memberInput{
		node:   orgdomain.MemberNode{ID: member},
		aggs:   aggs,
		plan:   testPlan(),
		target: "202401",
	}
	got := powerBonus(in)
	// L1: 1666.65 -> 1667, L2: 1333.32 -> 1333.
	if got.amount != 3000 {
		t.Fatalf("expected 3000, got %d", got.amount)
	}
}

func TestMaintenanceBonusPerKit(t *testing.T) {
	member := snowflake.ID(1)
	aggs := emptyAggs("202401")
	aggs.KitCounts[member] = 3

	in := memberInput{node: orgdomain.MemberNode{ID: member}, aggs: aggs, plan: testPlan(), target: "202401"}
	got := maintenanceBonus(in)
	if got.amount != 3000 || got.basis != 3 {
		t.Fatalf("expected 3000 over 3 kits, got %d over %d", got.amount, got.basis)
	}

	aggs.KitCounts[member] = 0
	if got := maintenanceBonus(in); got.amount != 0 {
		t.Fatalf("expected 0 without kits, got %d", got.amount)
	}
}

func TestFlagBonuses(t *testing.T) {
	member := snowflake.ID(1)
	aggs := emptyAggs("202401")
	in := memberInput{node: orgdomain.MemberNode{ID: member}, aggs: aggs, plan: testPlan(), target: "202401"}

	if got := salesActivityBonus(in); got.amount != 0 {
		t.Fatalf("expected 0 without activity flag, got %d", got.amount)
	}
	if got := royalFamilyBonus(in); got.amount != 0 {
		t.Fatalf("expected 0 without royal-family flag, got %d", got.amount)
	}

	aggs.ActiveFlags[member] = true
	aggs.RoyalFamily[member] = true
	if got := salesActivityBonus(in); got.amount != 10000 {
		t.Fatalf("expected 10000, got %d", got.amount)
	}
	if got := royalFamilyBonus(in); got.amount != 50000 {
		t.Fatalf("expected 50000, got %d", got.amount)
	}
}

func TestRoundHalfUp(t *testing.T) {
	cases := map[float64]int64{
		0:      0,
		0.4:    0,
		0.5:    1,
		1.49:   1,
		2.5:    3,
		745.33: 745,
	}
	for raw, want := range cases {
		if got := roundHalfUp(raw); got != want {
			t.Fatalf("roundHalfUp(%v): expected %d, got %d", raw, want, got)
		}
	}
}
