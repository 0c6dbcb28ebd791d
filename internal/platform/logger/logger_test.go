package logger

import (
	"testing"

	"github.com/ogurasousui/staffing/internal/platform/config"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	t.Parallel()

	cases := []struct {
		level string
		want  zapcore.Level
	}{
		{level: "", want: zapcore.InfoLevel},
		{level: "debug", want: zapcore.DebugLevel},
		{level: "WARN", want: zapcore.WarnLevel},
		{level: "error", want: zapcore.ErrorLevel},
	}

	for _, tc := range cases {
		log, err := New(config.LogConfig{Level: tc.level, Environment: "production"})
		if err != nil {
			t.Fatalf("New(%q) returned error: %v", tc.level, err)
		}
		if !log.Core().Enabled(tc.want) {
			t.Errorf("level %q: expected %s enabled", tc.level, tc.want)
		}
		if tc.want > zapcore.DebugLevel && log.Core().Enabled(tc.want-1) {
			t.Errorf("level %q: expected %s disabled", tc.level, tc.want-1)
		}
	}
}

func TestNew_UnknownLevel(t *testing.T) {
	t.Parallel()

	if _, err := New(config.LogConfig{Level: "verbose"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
