// Command gennai is the offline arena runner (spec.md §4.6, §6): it parses
// a map file and a punter command list, drives one match to completion,
// and prints the final report as a single JSON document on stdout.
package main

import (
	"flag"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/gennai/arena/internal/arena"
	"github.com/gennai/arena/internal/config"
	"github.com/gennai/arena/internal/mapmodel"
	"github.com/gennai/arena/internal/punter"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()

	var (
		mapPath            = flag.String("map", "", "path to a map JSON file (required)")
		commandsJSON       = flag.String("commands", "", "JSON array of argv arrays, one per punter")
		persistent         = flag.Bool("persistent", false, "pass --persistent to children and reuse processes")
		includeState       = flag.Bool("include_state", false, "retain full punter messages (minus state) in the log")
		includeTime        = flag.Bool("include_time", false, "annotate each completed exchange's log entry with elapsed ms")
		includeCause       = flag.Bool("include_cause", false, "on conflict, attach the original claim as cause")
		featureNegotiation = flag.Bool("feature_negotiation", false, "disable persistent flag for children that don't advertise support")
		logScoreEveryStep  = flag.Bool("log_score_every_step", false, "compute and log provisional scores each turn")
		logLevel           = flag.String("log-level", getenv("GENNAI_LOG_LEVEL", "info"), "debug, info, warning, error, or critical")
	)
	flag.Parse()

	if *mapPath == "" {
		fmt.Fprintln(os.Stderr, "gennai: --map is required")
		os.Exit(2)
	}

	level, err := config.ParseLogLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gennai: %v\n", err)
		os.Exit(2)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	opts := config.Options{
		MapPath:            *mapPath,
		Persistent:         *persistent,
		IncludeState:       *includeState,
		IncludeTime:        *includeTime,
		IncludeCause:       *includeCause,
		FeatureNegotiation: *featureNegotiation,
		LogScoreEveryStep:  *logScoreEveryStep,
		LogLevel:           level,
	}

	commands, err := parseCommands(*commandsJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gennai: %v\n", err)
		os.Exit(2)
	}
	opts.Commands = commands

	report, err := run(opts, log)
	if err != nil {
		log.Error().Err(err).Msg("match aborted")
		os.Exit(1)
	}

	out, err := json.Marshal(report)
	if err != nil {
		log.Error().Err(err).Msg("encode report")
		os.Exit(1)
	}
	fmt.Println(string(out))
}

// parseCommands decodes --commands, or falls back to the smoke-test default
// (spec.md §4.6) when it's empty.
func parseCommands(raw string) ([][]string, error) {
	if raw == "" {
		if env := os.Getenv("GENNAI_COMMANDS"); env != "" {
			raw = env
		} else {
			return config.DefaultCommands(), nil
		}
	}
	var commands [][]string
	if err := json.Unmarshal([]byte(raw), &commands); err != nil {
		return nil, fmt.Errorf("decode --commands: %w", err)
	}
	if len(commands) == 0 {
		return nil, fmt.Errorf("--commands decoded to an empty list")
	}
	return commands, nil
}

func run(opts config.Options, log zerolog.Logger) (arena.Report, error) {
	raw, err := os.ReadFile(opts.MapPath)
	if err != nil {
		return arena.Report{}, fmt.Errorf("read map file: %w", err)
	}
	m, err := mapmodel.Parse(raw)
	if err != nil {
		return arena.Report{}, fmt.Errorf("parse map: %w", err)
	}

	hosts := make([]*punter.Host, len(opts.Commands))
	for i, argv := range opts.Commands {
		h := punter.NewHost(punter.Config{
			Argv:               argv,
			Persistent:         opts.Persistent,
			FeatureNegotiation: opts.FeatureNegotiation,
			Logger:             log,
		})
		h.SetID(i)
		hosts[i] = h
	}

	a := arena.New(m, hosts, arena.Options{
		IncludeState:      opts.IncludeState,
		IncludeTime:       opts.IncludeTime,
		IncludeCause:      opts.IncludeCause,
		LogScoreEveryStep: opts.LogScoreEveryStep,
	}, log)
	return a.Run()
}
