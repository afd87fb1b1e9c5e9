package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadSchedulerDurations(t *testing.T) {
	t.Setenv("SCHEDULER_RUN_INTERVAL", "15m")
	t.Setenv("SCHEDULER_JOB_TIMEOUT", "not-a-duration")

	cfg := Load()

	assert.Equal(t, 15*time.Minute, cfg.SchedulerRunInterval)
	// Unparseable values fall back to the default rather than failing boot.
	assert.Equal(t, 30*time.Minute, cfg.SchedulerJobTimeout)
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "orgcomp", cfg.AppName)
	assert.Equal(t, time.Hour, cfg.SchedulerRunInterval)
	assert.Equal(t, int64(5000), cfg.Plan.MinimumPayoutAmount)
	assert.InDelta(t, 0.1021, cfg.Plan.WithholdingRate, 1e-9)
}
