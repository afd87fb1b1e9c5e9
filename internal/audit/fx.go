package audit

import (
	"github.com/wellnest-hd/orgcomp/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(service.NewService),
)
