package service

import (
	"math"
	"time"

	compdomain "github.com/wellnest-hd/orgcomp/internal/compensation/domain"
	"github.com/wellnest-hd/orgcomp/internal/config"
	memberdomain "github.com/wellnest-hd/orgcomp/internal/member/domain"
	"github.com/wellnest-hd/orgcomp/internal/month"
	orgdomain "github.com/wellnest-hd/orgcomp/internal/organization/domain"
	salesdomain "github.com/wellnest-hd/orgcomp/internal/sales/domain"
)

// memberInput is the read-only state a formula sees for one member. It is
// assembled once per run and shared across workers.
type memberInput struct {
	node     orgdomain.MemberNode
	snapshot *orgdomain.Snapshot
	aggs     *salesdomain.Aggregates
	titles   map[string]memberdomain.Title
	plan     config.PlanConfig
	target   month.Month
}

type bonusResult struct {
	amount int64
	basis  int64
	rate   float64
	note   string
}

type bonusFunc func(in memberInput) bonusResult

// bonusTable binds each bonus type to its formula. The table is fixed at
// startup; adding a bonus type is a compile-time change here and in
// domain.AllBonusTypes.
func bonusTable() map[compdomain.BonusType]bonusFunc {
	return map[compdomain.BonusType]bonusFunc{
		compdomain.BonusTypeDaily:         dailyBonus,
		compdomain.BonusTypeTitle:         titleBonus,
		compdomain.BonusTypeReferral:      referralBonus,
		compdomain.BonusTypePower:         powerBonus,
		compdomain.BonusTypeMaintenance:   maintenanceBonus,
		compdomain.BonusTypeSalesActivity: salesActivityBonus,
		compdomain.BonusTypeRoyalFamily:   royalFamilyBonus,
	}
}

// dailyBonus prorates the participation fee over the days the member was
// active in the month. Members withdrawn mid-month earn through their
// withdrawal date; inactive members earn nothing.
func dailyBonus(in memberInput) bonusResult {
	if in.node.Status == memberdomain.MemberStatusInactive {
		return bonusResult{}
	}

	monthStart := in.target.Start()
	lastDay := in.target.End().AddDate(0, 0, -1)

	activeFrom := monthStart
	if in.node.JoinDate.After(activeFrom) {
		activeFrom = in.node.JoinDate
	}
	activeTo := lastDay
	if in.node.WithdrawalDate != nil && in.node.WithdrawalDate.Before(activeTo) {
		activeTo = *in.node.WithdrawalDate
	}

	activeDays := daysBetween(activeFrom, activeTo)
	if activeDays <= 0 {
		return bonusResult{}
	}

	daysInMonth := in.target.Days()
	amount := roundHalfUp(float64(in.plan.DailyBonusBase) / float64(daysInMonth) * float64(activeDays))
	return bonusResult{amount: amount, basis: int64(activeDays)}
}

// titleBonus pays the flat amount of the member's current title, once per
// month, regardless of how many ranks were climbed to reach it.
func titleBonus(in memberInput) bonusResult {
	title, ok := in.titles[in.node.TitleCode]
	if !ok {
		return bonusResult{note: "unknown_title:" + in.node.TitleCode}
	}
	return bonusResult{amount: title.TitleBonusAmount}
}

// referralBonus credits the sponsor for each direct sponsee's personal
// sales. Attribution follows the sponsorship relation only; the placement
// tree is not consulted. Each sponsee's share is rounded before summing.
func referralBonus(in memberInput) bonusResult {
	rate := in.plan.ReferralBonusRate
	var amount, basis int64
	for _, sponseeID := range in.snapshot.DirectSponsees(in.node.ID) {
		sales := in.aggs.PersonalSales(sponseeID)
		if sales == 0 {
			continue
		}
		basis += sales
		amount += roundHalfUp(rate * float64(sales))
	}
	return bonusResult{amount: amount, basis: basis, rate: rate}
}

// powerBonus applies the per-level rates to placement-descendant sales.
// Levels 1-4 each use their own rate; level 5 and deeper share one rate over
// their combined sales. A level counted at a shallow tier is never counted
// again at the catch-all tier.
func powerBonus(in memberInput) bonusResult {
	levels := in.aggs.LevelSales(in.node.ID)
	rates := in.plan.PowerBonusRates

	amount := roundHalfUp(rates.Level1*float64(levels.Level1)) +
		roundHalfUp(rates.Level2*float64(levels.Level2)) +
		roundHalfUp(rates.Level3*float64(levels.Level3)) +
		roundHalfUp(rates.Level4*float64(levels.Level4)) +
		roundHalfUp(rates.Level5Plus*float64(levels.Level5Plus))

	return bonusResult{amount: amount, basis: levels.Total()}
}

func maintenanceBonus(in memberInput) bonusResult {
	kits := in.aggs.KitCounts[in.node.ID]
	if kits <= 0 {
		return bonusResult{}
	}
	return bonusResult{amount: in.plan.MaintenanceBonusPerKit * kits, basis: kits}
}

func salesActivityBonus(in memberInput) bonusResult {
	if !in.aggs.ActiveFlags[in.node.ID] {
		return bonusResult{}
	}
	return bonusResult{amount: in.plan.SalesActivityBonus}
}

func royalFamilyBonus(in memberInput) bonusResult {
	if !in.aggs.RoyalFamily[in.node.ID] {
		return bonusResult{}
	}
	return bonusResult{amount: in.plan.RoyalFamilyBonus}
}

// roundHalfUp rounds to the nearest yen, half away from zero-ward ties up.
func roundHalfUp(raw float64) int64 {
	return int64(math.Floor(raw + 0.5))
}

// daysBetween counts calendar days from a through b inclusive.
func daysBetween(a, b time.Time) int {
	aDay := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bDay := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bDay.Sub(aDay).Hours()/24) + 1
}
