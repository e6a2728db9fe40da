package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestLogger(buf *bytes.Buffer, level Level) *TextLogger {
	l := NewTextLogger(buf, level)
	l.Logrus().SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})
	return l
}

func TestTextLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, LevelDebug)

	l.With(String("font", "helvetica")).Info("font added", Int("index", 1), Error("err", errors.New("x y")))

	want := `level=info msg="font added" err="x y" font=helvetica index=1` + "\n"
	if got := buf.String(); got != want {
		t.Errorf("log line = %q, want %q", got, want)
	}
}

func TestTextLoggerTimestamp(t *testing.T) {
	var buf bytes.Buffer
	NewTextLogger(&buf, LevelInfo).Info("hello", Bool("ok", true))
	got := buf.String()
	if !strings.HasPrefix(got, "time=") || !strings.Contains(got, `msg=hello ok=true`) {
		t.Errorf("log line = %q", got)
	}
}

func TestTextLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, LevelWarn)
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("messages below threshold were written: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "level=warn") {
		t.Errorf("warn message missing: %q", buf.String())
	}
	if got := l.Logrus().GetLevel(); got != logrus.WarnLevel {
		t.Errorf("logrus level = %v, want warning", got)
	}
}

func TestTextLoggerWithDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, LevelDebug)
	_ = l.With(String("scope", "child"))
	l.Debug("parent")
	if strings.Contains(buf.String(), "scope=") {
		t.Errorf("child fields leaked into parent: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"trace", LevelDebug},
		{"WARN", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	l = l.With(String("k", "v"))
	l.Error("ignored")
}
