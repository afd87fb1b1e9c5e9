package sales

import (
	"github.com/wellnest-hd/orgcomp/internal/sales/facts"
	"github.com/wellnest-hd/orgcomp/internal/sales/service"
	"go.uber.org/fx"
)

var Module = fx.Module("sales.service",
	fx.Provide(
		facts.NewReader,
		service.NewService,
	),
)
