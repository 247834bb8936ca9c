package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/tallbag/internal/config"
	"github.com/danmuck/tallbag/internal/logging"
	"github.com/danmuck/tallbag/internal/observability"
	"github.com/danmuck/tallbag/internal/pipeline"
	"github.com/danmuck/tallbag/internal/server"
	"github.com/rs/zerolog/log"
)

const defaultConfigPath = "tallbag.toml"

const usage = `usage: tallbagctl <command> [flags]

commands:
  run       run the configured pipeline once and print the report
  serve     start the admin server and reload config on change
  init      write a config template
  validate  check a config file
`

// errRunFailed marks a run whose source ended with an error.
var errRunFailed = errors.New("pipeline run failed")

func main() {
	observability.InitLogger("tallbagctl")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := dispatch(ctx, os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "tallbagctl: %v\n", err)
		}
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return flag.ErrHelp
	}
	switch args[0] {
	case "run":
		return runCmd(ctx, args[1:], stdout)
	case "serve":
		return serveCmd(ctx, args[1:])
	case "init":
		return initCmd(args[1:], stdout)
	case "validate":
		return validateCmd(args[1:], stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runCmd(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	path := fs.String("config", defaultConfigPath, "config path")
	mode := fs.String("mode", "", "override pipeline.mode (push|pull|chan)")
	take := fs.Int("take", -1, "override pipeline.take")
	trace := fs.String("trace", "", "override pipeline.trace_file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		return err
	}
	logging.Apply(cfg.Log.Logging())

	p := cfg.Pipeline
	if *mode != "" {
		p.Mode = *mode
	}
	if *take >= 0 {
		p.Take = *take
	}
	if *trace != "" {
		p.TraceFile = *trace
	}

	report, err := pipeline.Run(ctx, p)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if report.Failed() {
		return fmt.Errorf("%w: %s", errRunFailed, report.Err)
	}
	return nil
}

func serveCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	path := fs.String("config", defaultConfigPath, "config path")
	addr := fs.String("addr", "", "override admin_addr")
	watch := fs.Bool("watch", true, "reload pipeline settings and log level when the config changes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.AdminAddr = *addr
	}
	logging.Apply(cfg.Log.Logging())

	srv := server.New(cfg)
	if *watch {
		go func() {
			err := config.Watch(ctx, *path, func(next config.Config) {
				next.AdminAddr = cfg.AdminAddr
				srv.SetConfig(next)
			})
			if err != nil {
				log.Warn().Err(err).Msg("config watch stopped")
			}
		}()
	}
	log.Info().Str("name", cfg.Name).Str("addr", cfg.AdminAddr).Msg("tallbagctl serve")
	return srv.Serve(ctx)
}

func initCmd(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	output := fs.String("output", defaultConfigPath, "output path for the config template")
	force := fs.Bool("force", false, "overwrite an existing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := config.WriteTemplate(*output, *force); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote config template to %s\n", *output)
	return nil
}

func validateCmd(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	path := fs.String("config", defaultConfigPath, "config path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := config.Load(*path); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "validated config at %s\n", *path)
	return nil
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	log.Info().Str("path", path).Msg("loaded config")
	return cfg, nil
}
