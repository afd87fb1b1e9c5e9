// Package runlock serializes the monthly batch. A lock is keyed on
// (target_month, stage); insertion into the primary key is the acquisition,
// so two concurrent runs for the same month and stage cannot interleave.
// Organization mutations check AnyHeld before touching edges.
package runlock

import (
	"context"
	"errors"
	"time"

	"github.com/wellnest-hd/orgcomp/internal/month"
	"github.com/wellnest-hd/orgcomp/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Stage string

const (
	StageCalculation Stage = "calculation"
	StagePayout      Stage = "payout"
)

var ErrRunInProgress = errors.New("run_in_progress")

// RunLock is a row held for the duration of a batch run.
type RunLock struct {
	TargetMonth string    `gorm:"type:text;primaryKey"`
	Stage       Stage     `gorm:"type:text;primaryKey"`
	Owner       string    `gorm:"type:text;not null"`
	AcquiredAt  time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (RunLock) TableName() string { return "run_locks" }

type Service struct {
	db *gorm.DB
}

func NewService(conn *gorm.DB) *Service {
	return &Service{db: conn}
}

// Acquire takes the exclusive lock for (target, stage). A concurrent holder
// makes this fail fast with ErrRunInProgress; the caller may retry with
// backoff but the engine never retries financial operations itself.
func (s *Service) Acquire(ctx context.Context, target month.Month, stage Stage, owner string) error {
	err := s.db.WithContext(ctx).Create(&RunLock{
		TargetMonth: target.String(),
		Stage:       stage,
		Owner:       owner,
		AcquiredAt:  time.Now().UTC(),
	}).Error
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return ErrRunInProgress
		}
		return err
	}
	return nil
}

// Release drops the lock. Releasing a lock that is not held is a no-op.
func (s *Service) Release(ctx context.Context, target month.Month, stage Stage) error {
	return s.db.WithContext(ctx).
		Where("target_month = ? AND stage = ?", target.String(), stage).
		Delete(&RunLock{}).Error
}

// AnyHeld reports whether any run lock is currently held. Structural graph
// mutations must wait while a run is in flight.
func (s *Service) AnyHeld(ctx context.Context) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&RunLock{}).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

var Module = fx.Module("runlock",
	fx.Provide(NewService),
)
