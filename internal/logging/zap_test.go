package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedZap(t *testing.T) (*ZapLogger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	return NewZapLogger(zap.New(core)), logs
}

func TestZapLogger_Levels(t *testing.T) {
	log, logs := newObservedZap(t)
	ctx := context.Background()

	log.Info(ctx, "inf", "a", 1)
	log.Warn(ctx, "wrn", "b", 2)
	log.Error(ctx, "err", "c", 3)

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(entries))
	}
	if entries[0].Message != "inf" || entries[1].Message != "wrn" || entries[2].Message != "err" {
		t.Fatalf("unexpected messages: %+v", entries)
	}
	if got := entries[0].ContextMap()["a"]; got != int64(1) {
		t.Fatalf("expected a=1 on info entry, got %v", got)
	}
}

func TestZapLogger_With_AddsAttributes(t *testing.T) {
	log, logs := newObservedZap(t)

	child := log.With("module", "group_sync")
	child.Info(context.Background(), "hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["module"]; got != "group_sync" {
		t.Fatalf("expected module=group_sync, got %v", got)
	}
}
