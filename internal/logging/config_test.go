package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		raw  string
		want zerolog.Level
		ok   bool
	}{
		{raw: "", want: zerolog.InfoLevel, ok: false},
		{raw: "TRACE", want: zerolog.TraceLevel, ok: true},
		{raw: " debug ", want: zerolog.DebugLevel, ok: true},
		{raw: "warning", want: zerolog.WarnLevel, ok: true},
		{raw: "off", want: zerolog.Disabled, ok: true},
		{raw: "loud", want: zerolog.InfoLevel, ok: false},
	}
	for _, tc := range cases {
		got, ok := ParseLevel(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseLevel(%q) got=(%v,%v) want=(%v,%v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogTimestamp, "false")
	t.Setenv(EnvLogNoColor, "true")
	t.Setenv(EnvLogFile, "/tmp/tallbag.log")

	cfg := DefaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	if cfg.Level != zerolog.ErrorLevel {
		t.Fatalf("unexpected level: %v", cfg.Level)
	}
	if cfg.Timestamp || !cfg.NoColor {
		t.Fatalf("unexpected flags: %+v", cfg)
	}
	if cfg.File != "/tmp/tallbag.log" {
		t.Fatalf("unexpected file: %q", cfg.File)
	}
}

func TestApplyWritesToConsole(t *testing.T) {
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	Apply(Config{Level: zerolog.InfoLevel, NoColor: true, Console: &buf})
	log.Debug().Msg("hidden")
	log.Info().Str("conn", "7").Msg("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record leaked at info level: %q", out)
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, "conn=7") {
		t.Fatalf("missing info record: %q", out)
	}
}
