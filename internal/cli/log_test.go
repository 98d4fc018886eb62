package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", LogInfo, func(l *log.Logger) { l.Info("frame captured") }, true},
		{"debug at info level", LogInfo, func(l *log.Logger) { l.Debug("frame captured") }, false},
		{"debug at debug level", LogDebug, func(l *log.Logger) { l.Debug("frame captured") }, true},
		{"warn at info level", LogInfo, func(l *log.Logger) { l.Warn("cache unavailable") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.Logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug written at info level: %q", buf.String())
	}
	c.SetLogLevel(LogDebug)
	c.Logger.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug not written after SetLogLevel: %q", buf.String())
	}
}

func TestTimerDone(t *testing.T) {
	var buf bytes.Buffer
	startTimer(newLogger(&buf, LogInfo)).done("export finished", "kind", "gif", "frames", 3)

	out := buf.String()
	for _, want := range []string{"export finished", "kind=gif", "frames=3", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("done() = %q, missing %q", out, want)
		}
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		verbose, quiet bool
		want           log.Level
	}{
		{false, false, log.InfoLevel},
		{true, false, log.DebugLevel},
		{false, true, log.WarnLevel},
		{true, true, log.DebugLevel},
	}
	for _, tt := range tests {
		if got := levelFor(tt.verbose, tt.quiet); got != tt.want {
			t.Errorf("levelFor(%v, %v) = %v, want %v", tt.verbose, tt.quiet, got, tt.want)
		}
	}
}

func TestDebugLoggerReportsCaller(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, LogDebug).Debug("frame captured")
	if !strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("debug output lacks caller: %q", buf.String())
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("empty context should yield the default logger")
	}

	var buf bytes.Buffer
	custom := newLogger(&buf, LogInfo)
	ctx := withLogger(context.Background(), custom)
	if loggerFromContext(ctx) != custom {
		t.Fatal("loggerFromContext should return the attached logger")
	}
	loggerFromContext(ctx).Info("attached")
	if buf.Len() == 0 {
		t.Error("attached logger should write to its buffer")
	}
}
