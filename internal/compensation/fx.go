package compensation

import (
	"github.com/wellnest-hd/orgcomp/internal/compensation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("compensation.service",
	fx.Provide(service.NewService),
)
