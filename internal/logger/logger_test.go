package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Str("user_id", "u-1").Msg("utterance handled")

	output := buf.String()
	if !strings.Contains(output, "utterance handled") {
		t.Errorf("output missing message: %s", output)
	}
	if !strings.Contains(output, "u-1") {
		t.Errorf("output missing field: %s", output)
	}
}

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		value string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Setenv("LOG_LEVEL", tt.value)
		if got := levelFromEnv(); got != tt.want {
			t.Errorf("levelFromEnv() with LOG_LEVEL=%q = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	stored := NewWithWriter(buf).With().Str("request_id", "req-1").Logger()

	ctx := WithContext(context.Background(), stored)
	retrieved := FromContext(ctx)
	retrieved.Info().Msg("from context")

	output := buf.String()
	if !strings.Contains(output, "req-1") {
		t.Errorf("retrieved logger lost fields: %s", output)
	}
}

func TestFromContextDefault(t *testing.T) {
	log := FromContext(context.Background())
	if log.GetLevel() == zerolog.Disabled {
		t.Error("default logger should be enabled")
	}
}
