package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/wellnest-hd/orgcomp/internal/config"
	"github.com/wellnest-hd/orgcomp/internal/month"
	orgdomain "github.com/wellnest-hd/orgcomp/internal/organization/domain"
	salesdomain "github.com/wellnest-hd/orgcomp/internal/sales/domain"
	"go.uber.org/zap/zaptest"
)

type factStub struct {
	sales  map[snowflake.ID]int64
	kits   map[snowflake.ID]int64
	active map[snowflake.ID]bool
	royal  map[snowflake.ID]bool
}

func (f *factStub) MonthlySales(context.Context, month.Month) (map[snowflake.ID]int64, error) {
	return f.sales, nil
}

func (f *factStub) KitCounts(context.Context, month.Month) (map[snowflake.ID]int64, error) {
	return f.kits, nil
}

func (f *factStub) ActivityFlags(context.Context, month.Month) (map[snowflake.ID]bool, error) {
	return f.active, nil
}

func (f *factStub) RoyalFamilyMembers(context.Context, month.Month) (map[snowflake.ID]bool, error) {
	return f.royal, nil
}

type orgStub struct {
	snapshot *orgdomain.Snapshot
}

func (o *orgStub) AddMember(context.Context, orgdomain.AddMemberRequest) (snowflake.ID, error) {
	return 0, nil
}
func (o *orgStub) Reparent(context.Context, snowflake.ID, *snowflake.ID, string, string) error {
	return nil
}
func (o *orgStub) ChangeSponsor(context.Context, snowflake.ID, snowflake.ID, string, string) error {
	return nil
}
func (o *orgStub) Ancestors(context.Context, snowflake.ID, int) ([]snowflake.ID, error) {
	return nil, nil
}
func (o *orgStub) Descendants(context.Context, snowflake.ID, int) ([]orgdomain.Descendant, error) {
	return nil, nil
}
func (o *orgStub) Depth(context.Context, snowflake.ID) (int, error) { return 0, nil }
func (o *orgStub) Snapshot(context.Context) (*orgdomain.Snapshot, error) {
	return o.snapshot, nil
}

// chainSnapshot builds root <- m1 <- m2 <- ... as a single placement chain.
func chainSnapshot(ids []snowflake.ID) *orgdomain.Snapshot {
	snapshot := &orgdomain.Snapshot{
		Members:           make(map[snowflake.ID]orgdomain.MemberNode, len(ids)),
		PlacementParent:   make(map[snowflake.ID]snowflake.ID),
		Sponsor:           make(map[snowflake.ID]snowflake.ID),
		PlacementChildren: make(map[snowflake.ID][]snowflake.ID),
		SponsorChildren:   make(map[snowflake.ID][]snowflake.ID),
	}
	join := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range ids {
		snapshot.Members[id] = orgdomain.MemberNode{ID: id, JoinDate: join}
		if i > 0 {
			parent := ids[i-1]
			snapshot.PlacementParent[id] = parent
			snapshot.PlacementChildren[parent] = append(snapshot.PlacementChildren[parent], id)
		}
	}
	return snapshot
}

func newSalesService(t *testing.T, snapshot *orgdomain.Snapshot, facts *factStub, maxDepth int) salesdomain.Service {
	t.Helper()
	return NewService(Params{
		Log:    zaptest.NewLogger(t),
		Config: config.Config{Plan: config.PlanConfig{MaxTraversalDepth: maxDepth}},
		Facts:  facts,
		OrgSvc: &orgStub{snapshot: snapshot},
	})
}

func ids(n int) []snowflake.ID {
	out := make([]snowflake.ID, n)
	for i := range out {
		out[i] = snowflake.ID(i + 1)
	}
	return out
}

func TestBuildAggregatesLevelAttribution(t *testing.T) {
	members := ids(4) // root <- a <- b <- c
	root, a, b, c := members[0], members[1], members[2], members[3]

	facts := &factStub{sales: map[snowflake.ID]int64{
		root: 1000,
		a:    2000,
		b:    3000,
		c:    4000,
	}}
	svc := newSalesService(t, chainSnapshot(members), facts, 55)
	ctx := context.Background()
	target := month.Month("202401")

	aggs, err := svc.BuildAggregates(ctx, chainSnapshot(members), target)
	if err != nil {
		t.Fatalf("build aggregates: %v", err)
	}

	levels := aggs.LevelSales(root)
	if levels.Level1 != 2000 || levels.Level2 != 3000 || levels.Level3 != 4000 {
		t.Fatalf("unexpected root level sales: %+v", levels)
	}

	// Organization sales is personal plus all descendant levels.
	if got := aggs.OrganizationSales(root, 55); got != 10000 {
		t.Fatalf("expected org sales 10000, got %d", got)
	}
	if got := aggs.OrganizationSales(b, 55); got != 7000 {
		t.Fatalf("expected b org sales 7000, got %d", got)
	}
	if got := aggs.PersonalSales(c); got != 4000 {
		t.Fatalf("expected c personal 4000, got %d", got)
	}

	// The level-sales invariant: total over levels equals org minus personal.
	if levels.Total() != aggs.OrganizationSales(root, 55)-aggs.PersonalSales(root) {
		t.Fatal("level sales total does not match organization minus personal")
	}
}

func TestLevelFivePlusCombined(t *testing.T) {
	members := ids(8) // chain 7 levels deep under the root
	root := members[0]

	sales := make(map[snowflake.ID]int64, len(members))
	for _, id := range members[1:] {
		sales[id] = 100
	}
	svc := newSalesService(t, chainSnapshot(members), &factStub{sales: sales}, 55)

	aggs, err := svc.BuildAggregates(context.Background(), chainSnapshot(members), "202401")
	if err != nil {
		t.Fatalf("build aggregates: %v", err)
	}

	levels := aggs.LevelSales(root)
	if levels.Level1 != 100 || levels.Level2 != 100 || levels.Level3 != 100 || levels.Level4 != 100 {
		t.Fatalf("unexpected discrete levels: %+v", levels)
	}
	// Levels 5, 6 and 7 fold into one tier.
	if levels.Level5Plus != 300 {
		t.Fatalf("expected level5plus 300, got %d", levels.Level5Plus)
	}
}

func TestTraversalDepthCapStopsClimb(t *testing.T) {
	members := ids(5) // root <- a <- b <- c <- d
	root := members[0]
	d := members[4]

	facts := &factStub{sales: map[snowflake.ID]int64{d: 500}}
	svc := newSalesService(t, chainSnapshot(members), facts, 3)

	aggs, err := svc.BuildAggregates(context.Background(), chainSnapshot(members), "202401")
	if err != nil {
		t.Fatalf("build aggregates: %v", err)
	}

	// d is 4 levels below the root; with the cap at 3 its sales never reach it.
	if got := aggs.OrganizationSales(root, 55); got != 0 {
		t.Fatalf("expected capped org sales 0 at root, got %d", got)
	}
	// c is 1 level above d and still sees it.
	if got := aggs.OrganizationSales(members[3], 55); got != 500 {
		t.Fatalf("expected 500 at c, got %d", got)
	}
}

func TestBuildAggregatesRecomputesOnExplicitCall(t *testing.T) {
	members := ids(2)
	root, a := members[0], members[1]

	facts := &factStub{sales: map[snowflake.ID]int64{a: 1000}}
	svc := newSalesService(t, chainSnapshot(members), facts, 55)
	ctx := context.Background()

	if _, err := svc.BuildAggregates(ctx, chainSnapshot(members), "202401"); err != nil {
		t.Fatalf("first build: %v", err)
	}

	// Corrected facts arrive; an explicit rebuild must pick them up and the
	// pass-through queries must see the rebuilt numbers.
	facts.sales[a] = 2500
	if _, err := svc.BuildAggregates(ctx, chainSnapshot(members), "202401"); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	got, err := svc.OrganizationSales(ctx, root, "202401", 55)
	if err != nil {
		t.Fatalf("organization sales: %v", err)
	}
	if got != 2500 {
		t.Fatalf("expected rebuilt org sales 2500, got %d", got)
	}
}

func TestQueriesForUnknownMemberReturnZero(t *testing.T) {
	members := ids(2)
	svc := newSalesService(t, chainSnapshot(members), &factStub{}, 55)

	got, err := svc.PersonalSales(context.Background(), snowflake.ID(999), "202401")
	if err != nil {
		t.Fatalf("personal sales: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected 0 for unknown member, got %d", got)
	}
}
