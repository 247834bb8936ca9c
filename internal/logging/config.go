package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	EnvLogLevel     = "TALLBAG_LOG_LEVEL"
	EnvLogTimestamp = "TALLBAG_LOG_TIMESTAMP"
	EnvLogNoColor   = "TALLBAG_LOG_NOCOLOR"
	EnvLogFile      = "TALLBAG_LOG_FILE"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config describes the process-wide zerolog setup.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	// File, when set, receives JSON records rotated by size in addition to
	// the console.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	// Console defaults to os.Stderr.
	Console io.Writer
}

var configureOnce sync.Once

func ConfigureRuntime() {
	Configure(ProfileRuntime)
}

func ConfigureTests() {
	Configure(ProfileTest)
}

// Configure applies the profile defaults and environment overrides once per
// process.
func Configure(profile Profile) {
	configureOnce.Do(func() {
		cfg := DefaultConfig(profile)
		applyEnvOverrides(&cfg)
		Apply(cfg)
	})
}

func DefaultConfig(profile Profile) Config {
	cfg := Config{
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 7,
	}
	switch profile {
	case ProfileTest:
		cfg.Level = zerolog.DebugLevel
		cfg.Timestamp = false
	default:
		cfg.Level = zerolog.InfoLevel
		cfg.Timestamp = true
	}
	return cfg
}

// Apply replaces the global logger. It may be called again after Configure,
// for example once a config file has been loaded.
func Apply(cfg Config) {
	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}
	var out io.Writer = zerolog.ConsoleWriter{
		Out:        console,
		NoColor:    cfg.NoColor,
		TimeFormat: time.RFC3339,
	}
	if path := strings.TrimSpace(cfg.File); path != "" {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    max(cfg.MaxSizeMB, 1),
			MaxBackups: max(cfg.MaxBackups, 1),
			MaxAge:     max(cfg.MaxAgeDays, 1),
			Compress:   cfg.Compress,
		})
	}

	lctx := zerolog.New(out).With()
	if cfg.Timestamp {
		lctx = lctx.Timestamp()
	}
	log.Logger = lctx.Logger()
	SetLevel(cfg.Level)
}

// SetLevel changes the global level without rebuilding writers.
func SetLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.File = v
	}
}

// ParseLevel accepts the level names used in config files and environment
// variables. ok is false for empty or unknown input.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace", "diagnostics":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none", "inactive":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
