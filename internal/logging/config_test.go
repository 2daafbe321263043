package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		" DEBUG ": zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"off":     zerolog.Disabled,
	}
	for raw, want := range cases {
		got, ok := parseLevel(raw)
		if !ok || got != want {
			t.Fatalf("parseLevel(%q) got=%v ok=%v want=%v", raw, got, ok, want)
		}
	}
	if _, ok := parseLevel("loud"); ok {
		t.Fatalf("unknown level accepted")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogTimestamp, "false")
	t.Setenv(EnvLogBypass, "1")
	t.Setenv(EnvLogNoColor, "nope")

	cfg := defaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	if cfg.Level != zerolog.ErrorLevel {
		t.Fatalf("level got=%v", cfg.Level)
	}
	if cfg.Timestamp {
		t.Fatalf("timestamp override ignored")
	}
	if !cfg.Bypass {
		t.Fatalf("bypass override ignored")
	}
	if cfg.NoColor {
		t.Fatalf("unparseable bool should be ignored")
	}
}

func TestNewLoggerBypassWritesJSON(t *testing.T) {
	var out bytes.Buffer
	logger := NewLogger(Config{Level: zerolog.InfoLevel, Bypass: true, Out: &out})
	logger.Debug().Msg("hidden")
	logger.Info().Str("port", "/dev/ttyUSB0").Msg("opened")
	line := out.String()
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug line written at info level: %q", line)
	}
	if !strings.Contains(line, `"port":"/dev/ttyUSB0"`) {
		t.Fatalf("unexpected output: %q", line)
	}
}
