package scheduler

import (
	"context"

	"github.com/wellnest-hd/orgcomp/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(
		newConfig,
		New,
	),
	fx.Invoke(registerHooks),
)

func newConfig(appCfg config.Config) Config {
	return Config{
		RunInterval: appCfg.SchedulerRunInterval,
		JobTimeout:  appCfg.SchedulerJobTimeout,
	}
}

func registerHooks(lc fx.Lifecycle, s *Scheduler) {
	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go s.RunForever(runCtx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
