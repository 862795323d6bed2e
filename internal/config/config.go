// Package config holds the runner's option struct and log-level parsing
// (spec.md §6, §9's note to pass an explicit options value rather than
// reading from process-wide globals).
package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Options are the flags accepted by the runner entry (spec.md §6).
type Options struct {
	MapPath            string
	Commands           [][]string
	Persistent         bool
	IncludeState       bool
	IncludeTime        bool
	IncludeCause       bool
	FeatureNegotiation bool
	LogScoreEveryStep  bool
	LogLevel           zerolog.Level
}

// ParseLogLevel maps the runner's five-level vocabulary onto zerolog's levels.
// "critical" has no dedicated zerolog level below Fatal; it is mapped to
// zerolog.Level(5) (Panic) only as a severity marker — library code never
// calls log.Panic()/os.Exit as a side effect of this mapping.
func ParseLogLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warning", "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "critical":
		return zerolog.PanicLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown --log-level %q", s)
	}
}

// DefaultCommands is the smoke-test command list used when --commands is
// omitted (spec.md §4.6): two copies of the passbot reference punter.
func DefaultCommands() [][]string {
	return [][]string{
		{"passbot"},
		{"passbot"},
	}
}
