package config

// PlanConfig carries the compensation plan constants. All money values are
// integer yen; rates are fractions of 1.
type PlanConfig struct {
	MinimumPayoutAmount int64
	WithholdingRate     float64

	DailyBonusBase         int64
	ReferralBonusRate      float64
	PowerBonusRates        PowerBonusRates
	MaintenanceBonusPerKit int64
	SalesActivityBonus     int64
	RoyalFamilyBonus       int64

	MaxTraversalDepth int
	CalcWorkers       int

	BankConsignorCode string
	BankConsignorName string
}

// PowerBonusRates holds the per-level rates for the power bonus. Levels 1-4
// are discrete; everything at level 5 and deeper shares the Level5Plus rate.
type PowerBonusRates struct {
	Level1     float64
	Level2     float64
	Level3     float64
	Level4     float64
	Level5Plus float64
}

func loadPlan() PlanConfig {
	return PlanConfig{
		MinimumPayoutAmount: getenvInt64("PLAN_MINIMUM_PAYOUT", 5000),
		WithholdingRate:     getenvFloat("PLAN_WITHHOLDING_RATE", 0.1021),

		DailyBonusBase:    getenvInt64("PLAN_DAILY_BONUS_BASE", 3000),
		ReferralBonusRate: getenvFloat("PLAN_REFERRAL_RATE", 0.5),
		PowerBonusRates: PowerBonusRates{
			Level1:     getenvFloat("PLAN_POWER_RATE_L1", 0.05),
			Level2:     getenvFloat("PLAN_POWER_RATE_L2", 0.04),
			Level3:     getenvFloat("PLAN_POWER_RATE_L3", 0.03),
			Level4:     getenvFloat("PLAN_POWER_RATE_L4", 0.02),
			Level5Plus: getenvFloat("PLAN_POWER_RATE_L5PLUS", 0.01),
		},
		MaintenanceBonusPerKit: getenvInt64("PLAN_MAINTENANCE_PER_KIT", 1000),
		SalesActivityBonus:     getenvInt64("PLAN_SALES_ACTIVITY_BONUS", 10000),
		RoyalFamilyBonus:       getenvInt64("PLAN_ROYAL_FAMILY_BONUS", 50000),

		MaxTraversalDepth: getenvInt("PLAN_MAX_TRAVERSAL_DEPTH", 55),
		CalcWorkers:       getenvInt("PLAN_CALC_WORKERS", 8),

		BankConsignorCode: getenv("BANK_CONSIGNOR_CODE", ""),
		BankConsignorName: getenv("BANK_CONSIGNOR_NAME", ""),
	}
}
