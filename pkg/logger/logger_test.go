package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNamedAttachesComponentName(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := &Logger{SugaredLogger: zap.New(core).Sugar()}

	base.Named("assets").Infof("refreshed %d entries", 3)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	if entries[0].LoggerName != "assets" {
		t.Errorf("logger name = %q, want %q", entries[0].LoggerName, "assets")
	}
	if entries[0].Message != "refreshed 3 entries" {
		t.Errorf("message = %q", entries[0].Message)
	}
}
