package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/tallbag/internal/logging"
)

// Pipeline modes select the reference source a run is built on.
const (
	ModePush = "push"
	ModePull = "pull"
	ModeChan = "chan"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Name        string
	AdminAddr   string
	CorsOrigins []string
	Log         LogConfig
	Pipeline    PipelineConfig
}

type LogConfig struct {
	Level     string
	Timestamp bool
	NoColor   bool
	File      string
}

// PipelineConfig describes the demonstration pipeline run by tallbagctl and
// the admin server: a reference source, optional upper-casing, and an
// optional sink-side cancellation after Take values.
type PipelineConfig struct {
	Mode      string
	Values    []string
	Fail      string
	Take      int
	Upper     bool
	TraceFile string
	Timeout   time.Duration
}

func Default() Config {
	return Config{
		Name:        "tallbag",
		AdminAddr:   "127.0.0.1:7400",
		CorsOrigins: []string{"http://localhost:3000"},
		Log: LogConfig{
			Level:     "info",
			Timestamp: true,
		},
		Pipeline: PipelineConfig{
			Mode:    ModePush,
			Values:  []string{"alpha", "beta", "gamma"},
			Timeout: 5 * time.Second,
		},
	}
}

type fileConfig struct {
	Name        string       `toml:"name"`
	AdminAddr   string       `toml:"admin_addr"`
	CorsOrigins []string     `toml:"cors_origins"`
	Log         fileLog      `toml:"log"`
	Pipeline    filePipeline `toml:"pipeline"`
}

type fileLog struct {
	Level     string `toml:"level"`
	Timestamp bool   `toml:"timestamp"`
	NoColor   bool   `toml:"no_color"`
	File      string `toml:"file"`
}

type filePipeline struct {
	Mode      string   `toml:"mode"`
	Values    []string `toml:"values"`
	Fail      string   `toml:"fail,omitempty"`
	Take      int      `toml:"take"`
	Upper     bool     `toml:"upper"`
	TraceFile string   `toml:"trace_file,omitempty"`
	Timeout   string   `toml:"timeout"`
}

// Load reads path and applies every key it defines on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config (%s): %w", path, err)
	}

	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeList(raw.CorsOrigins)
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}
	if meta.IsDefined("log", "file") {
		cfg.Log.File = strings.TrimSpace(raw.Log.File)
	}

	if meta.IsDefined("pipeline", "mode") {
		cfg.Pipeline.Mode = strings.ToLower(strings.TrimSpace(raw.Pipeline.Mode))
	}
	if meta.IsDefined("pipeline", "values") {
		cfg.Pipeline.Values = raw.Pipeline.Values
	}
	if meta.IsDefined("pipeline", "fail") {
		cfg.Pipeline.Fail = strings.TrimSpace(raw.Pipeline.Fail)
	}
	if meta.IsDefined("pipeline", "take") {
		cfg.Pipeline.Take = raw.Pipeline.Take
	}
	if meta.IsDefined("pipeline", "upper") {
		cfg.Pipeline.Upper = raw.Pipeline.Upper
	}
	if meta.IsDefined("pipeline", "trace_file") {
		cfg.Pipeline.TraceFile = strings.TrimSpace(raw.Pipeline.TraceFile)
	}
	if meta.IsDefined("pipeline", "timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Pipeline.Timeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse pipeline.timeout: %w", err)
		}
		cfg.Pipeline.Timeout = d
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if cfg.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if cfg.AdminAddr == "" {
		return fmt.Errorf("%w: admin_addr is required", ErrInvalid)
	}
	if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
		return fmt.Errorf("%w: unknown log.level %q", ErrInvalid, cfg.Log.Level)
	}
	if err := ValidatePipeline(cfg.Pipeline); err != nil {
		return err
	}
	return nil
}

func ValidatePipeline(p PipelineConfig) error {
	switch p.Mode {
	case ModePush, ModePull, ModeChan:
	default:
		return fmt.Errorf("%w: pipeline.mode must be push, pull or chan, got %q", ErrInvalid, p.Mode)
	}
	if p.Fail != "" && p.Mode != ModePush {
		return fmt.Errorf("%w: pipeline.fail is only supported in push mode", ErrInvalid)
	}
	if p.Take < 0 {
		return fmt.Errorf("%w: pipeline.take must not be negative", ErrInvalid)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("%w: pipeline.timeout must be positive", ErrInvalid)
	}
	return nil
}

// Logging converts the [log] section for logging.Apply.
func (c LogConfig) Logging() logging.Config {
	out := logging.DefaultConfig(logging.ProfileRuntime)
	if lvl, ok := logging.ParseLevel(c.Level); ok {
		out.Level = lvl
	}
	out.Timestamp = c.Timestamp
	out.NoColor = c.NoColor
	out.File = c.File
	return out
}

func toFile(cfg Config) fileConfig {
	return fileConfig{
		Name:        cfg.Name,
		AdminAddr:   cfg.AdminAddr,
		CorsOrigins: cfg.CorsOrigins,
		Log: fileLog{
			Level:     cfg.Log.Level,
			Timestamp: cfg.Log.Timestamp,
			NoColor:   cfg.Log.NoColor,
			File:      cfg.Log.File,
		},
		Pipeline: filePipeline{
			Mode:      cfg.Pipeline.Mode,
			Values:    cfg.Pipeline.Values,
			Fail:      cfg.Pipeline.Fail,
			Take:      cfg.Pipeline.Take,
			Upper:     cfg.Pipeline.Upper,
			TraceFile: cfg.Pipeline.TraceFile,
			Timeout:   cfg.Pipeline.Timeout.String(),
		},
	}
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
