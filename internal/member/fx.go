package member

import (
	"github.com/wellnest-hd/orgcomp/internal/member/service"
	"go.uber.org/fx"
)

var Module = fx.Module("member.service",
	fx.Provide(service.NewService),
)
