package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/suitcase/internal/codec"
	"github.com/danmuck/suitcase/internal/config"
	"github.com/danmuck/suitcase/internal/observability"
	"github.com/danmuck/suitcase/internal/snapshot"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const usage = `usage: suitctl [-config path] [-max-payload n] <command> [args]

commands:
  inspect FILE     print the frame header and checksum status as JSON
  verify FILE...   exit non-zero if any file fails integrity checks
  configgen        write or validate a suitcase.toml
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("suitctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", config.DefaultPath, "config path")
	maxPayload := fs.Uint64("max-payload", 0, "override max_payload_bytes")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	explicit := false
	maxSet := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "config":
			explicit = true
		case "max-payload":
			maxSet = true
		}
	})
	cfg, err := loadCLIConfig(*configPath, explicit)
	if err != nil {
		fmt.Fprintf(stderr, "suitctl: %v\n", err)
		return 1
	}
	if maxSet {
		cfg.MaxPayloadBytes = *maxPayload
	}
	logger := observability.InitLogger("suitctl", cfg.Logging())
	if cfg.Metrics.Enabled {
		observability.RegisterMetrics()
	}
	opts := cfg.Options(observability.NewCodecObserver(logger, cfg.Metrics.Enabled))

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}
	switch rest[0] {
	case "inspect":
		return runInspect(rest[1:], opts, stdout, logger)
	case "verify":
		return runVerify(rest[1:], opts, stdout, logger)
	case "configgen":
		return runConfigGen(rest[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "suitctl: unknown command %q\n", rest[0])
		fs.Usage()
		return 2
	}
}

func runInspect(args []string, opts codec.Options, stdout io.Writer, logger zerolog.Logger) int {
	if len(args) != 1 {
		logger.Error().Msg("inspect takes exactly one file")
		return 2
	}
	report, err := snapshot.Inspect(args[0], opts)
	if err != nil && report.Path == "" {
		logger.Error().Err(err).Str("path", args[0]).Msg("inspect failed")
		return 1
	}
	out, merr := json.MarshalIndent(report, "", "  ")
	if merr != nil {
		logger.Error().Err(merr).Msg("encode report")
		return 1
	}
	fmt.Fprintln(stdout, string(out))
	if err != nil {
		return 1
	}
	return 0
}

func runVerify(args []string, opts codec.Options, stdout io.Writer, logger zerolog.Logger) int {
	if len(args) == 0 {
		logger.Error().Msg("verify needs at least one file")
		return 2
	}
	code := 0
	for _, path := range args {
		_, err := snapshot.Inspect(path, opts)
		if err != nil {
			code = 1
			event := logger.Error().Err(err).Str("path", path)
			if errors.Is(err, codec.ErrIntegrity) {
				event = event.Str("result", "integrity")
			}
			event.Msg("verify failed")
			fmt.Fprintf(stdout, "FAIL %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(stdout, "ok   %s\n", path)
	}
	return code
}

func runConfigGen(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("configgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("output", config.DefaultPath, "output path for config template")
	validate := fs.Bool("validate", false, "validate an existing config file")
	input := fs.String("input", config.DefaultPath, "config path for validation")
	force := fs.Bool("force", false, "overwrite existing config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *validate {
		if _, err := config.Load(*input); err != nil {
			fmt.Fprintf(stderr, "suitctl: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "validated config at %s\n", *input)
		return 0
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		fmt.Fprintf(stderr, "suitctl: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "wrote config template to %s\n", *output)
	return 0
}
