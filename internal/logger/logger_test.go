package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", "orgcomp", "test"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}

func TestNewDefaultsToInfo(t *testing.T) {
	log, err := New("", "orgcomp", "test")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	if !log.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info must be enabled by default")
	}
	if log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("debug must stay disabled by default")
	}
}
