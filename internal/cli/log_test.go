package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, log.DebugLevel)

	ctx := withLogger(context.Background(), l)
	got := loggerFromContext(ctx)
	got.Debug("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("log output = %q, want it to contain the message", buf.String())
	}
}

func TestLoggerFromContextDefault(t *testing.T) {
	if loggerFromContext(context.Background()) == nil {
		t.Error("loggerFromContext() returned nil without an attached logger")
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, log.InfoLevel)
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug message leaked at info level: %q", buf.String())
	}
}
