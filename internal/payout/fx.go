package payout

import (
	"github.com/wellnest-hd/orgcomp/internal/payout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payout.service",
	fx.Provide(
		service.NewService,
		service.NewMonthGuard,
	),
)
