// Package seed bootstraps reference data on startup. Seeding is idempotent:
// existing rows are never overwritten, so operator edits to the title ladder
// survive restarts.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	memberdomain "github.com/wellnest-hd/orgcomp/internal/member/domain"
	"gorm.io/gorm"
)

// defaultTitles is the starter ladder used when no titles are configured.
// Ranks are ordered; thresholds are monthly yen figures.
var defaultTitles = []memberdomain.Title{
	{
		Code: "DIST",
		Name: "Distributor",
		Rank: 1,
	},
	{
		Code:               "MGR",
		Name:               "Manager",
		Rank:               2,
		MinPersonalSales:   50000,
		MinDirectReferrals: 2,
		TitleBonusAmount:   10000,
	},
	{
		Code:                 "SRMGR",
		Name:                 "Senior Manager",
		Rank:                 3,
		MinPersonalSales:     50000,
		MinOrganizationSales: 300000,
		MinDirectReferrals:   3,
		TitleBonusAmount:     30000,
	},
	{
		Code:                 "DIR",
		Name:                 "Director",
		Rank:                 4,
		MinPersonalSales:     50000,
		MinOrganizationSales: 1000000,
		MinDirectReferrals:   3,
		MinDownlineManagers:  2,
		ManagerRankFloor:     2,
		TitleBonusAmount:     100000,
	},
}

// EnsureDefaultTitles seeds the title ladder when the titles table is empty.
func EnsureDefaultTitles(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&memberdomain.Title{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		titles := make([]memberdomain.Title, len(defaultTitles))
		copy(titles, defaultTitles)
		for i := range titles {
			titles[i].ID = node.Generate()
			titles[i].CreatedAt = now
		}
		return tx.Create(&titles).Error
	})
}
