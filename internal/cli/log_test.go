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
		{"info at info level", LogInfo, func(l *log.Logger) { l.Info("solve") }, true},
		{"debug at info level", LogInfo, func(l *log.Logger) { l.Debug("solve") }, false},
		{"debug at debug level", LogDebug, func(l *log.Logger) { l.Debug("solve") }, true},
		{"warn at info level", LogInfo, func(l *log.Logger) { l.Warn("pruned") }, true},
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

func TestLevelFor(t *testing.T) {
	if got := LevelFor(false); got != LogInfo {
		t.Errorf("LevelFor(false) = %v, want %v", got, LogInfo)
	}
	if got := LevelFor(true); got != LogDebug {
		t.Errorf("LevelFor(true) = %v, want %v", got, LogDebug)
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)

	c.Logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug output at info level: %q", buf.String())
	}
	c.SetLogLevel(LogDebug)
	c.Logger.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug output after SetLogLevel = %q", buf.String())
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, LogInfo))

	prog.done("render complete", "formats", "png,json")

	out := buf.String()
	for _, want := range []string{"render complete", "formats=png,json", "duration="} {
		if !strings.Contains(out, want) {
			t.Errorf("progress.done() output %q should contain %q", out, want)
		}
	}
}

func TestLoggerContext(t *testing.T) {
	var buf bytes.Buffer
	custom := newLogger(&buf, LogInfo)

	tests := []struct {
		name string
		ctx  context.Context
		want *log.Logger
	}{
		{"attached", withLogger(context.Background(), custom), custom},
		{"attached to nil", withLogger(nil, custom), custom},
		{"absent", context.Background(), log.Default()},
		{"nil context", nil, log.Default()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := loggerFromContext(tt.ctx); got != tt.want {
				t.Errorf("loggerFromContext() = %p, want %p", got, tt.want)
			}
		})
	}
}
