// Package facts reads the payment system's monthly fact rows in bulk. One
// query per month, never one per member.
package facts

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/wellnest-hd/orgcomp/internal/month"
	salesdomain "github.com/wellnest-hd/orgcomp/internal/sales/domain"
	"github.com/wellnest-hd/orgcomp/pkg/repository"
	"gorm.io/gorm"
)

type Reader struct {
	factrepo repository.Repository[salesdomain.SalesFact]
}

func NewReader(conn *gorm.DB) salesdomain.FactReader {
	return &Reader{factrepo: repository.ProvideStore[salesdomain.SalesFact](conn)}
}

func (r *Reader) MonthlySales(ctx context.Context, target month.Month) (map[snowflake.ID]int64, error) {
	rows, err := r.monthRows(ctx, target)
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]int64, len(rows))
	for _, row := range rows {
		out[row.MemberID] = row.PersonalSales
	}
	return out, nil
}

func (r *Reader) KitCounts(ctx context.Context, target month.Month) (map[snowflake.ID]int64, error) {
	rows, err := r.monthRows(ctx, target)
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]int64, len(rows))
	for _, row := range rows {
		if row.KitCount > 0 {
			out[row.MemberID] = row.KitCount
		}
	}
	return out, nil
}

func (r *Reader) ActivityFlags(ctx context.Context, target month.Month) (map[snowflake.ID]bool, error) {
	rows, err := r.monthRows(ctx, target)
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]bool, len(rows))
	for _, row := range rows {
		if row.MetActivity {
			out[row.MemberID] = true
		}
	}
	return out, nil
}

func (r *Reader) RoyalFamilyMembers(ctx context.Context, target month.Month) (map[snowflake.ID]bool, error) {
	rows, err := r.monthRows(ctx, target)
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]bool, len(rows))
	for _, row := range rows {
		if row.RoyalFamily {
			out[row.MemberID] = true
		}
	}
	return out, nil
}

func (r *Reader) monthRows(ctx context.Context, target month.Month) ([]*salesdomain.SalesFact, error) {
	return r.factrepo.Find(ctx, &salesdomain.SalesFact{TargetMonth: target.String()})
}
