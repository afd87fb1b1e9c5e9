package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/wellnest-hd/orgcomp/internal/audit"
	"github.com/wellnest-hd/orgcomp/internal/clock"
	"github.com/wellnest-hd/orgcomp/internal/compensation"
	"github.com/wellnest-hd/orgcomp/internal/config"
	"github.com/wellnest-hd/orgcomp/internal/logger"
	"github.com/wellnest-hd/orgcomp/internal/member"
	"github.com/wellnest-hd/orgcomp/internal/migration"
	"github.com/wellnest-hd/orgcomp/internal/organization"
	"github.com/wellnest-hd/orgcomp/internal/payout"
	"github.com/wellnest-hd/orgcomp/internal/runlock"
	"github.com/wellnest-hd/orgcomp/internal/sales"
	"github.com/wellnest-hd/orgcomp/internal/scheduler"
	"github.com/wellnest-hd/orgcomp/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,

		audit.Module,
		runlock.Module,
		organization.Module,
		member.Module,
		sales.Module,
		compensation.Module,
		payout.Module,

		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
