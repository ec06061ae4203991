// Package logging wires zerolog's global level and console output to a
// urfave/cli/v2 app, plus an optional CPU profiling flag (which also writes
// a heap profile on exit) for benchmarking the decode pipeline against
// recorded sample files.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// Flag names for the verbosity/profiling flags IncludeVerbosityFlags adds.
const (
	FlagTrace      = "very-verbose"
	FlagDebug      = "debug"
	FlagQuiet      = "quiet"
	FlagCPUProfile = "cpu-profile"
)

// IncludeVerbosityFlags appends the standard verbosity and CPU-profile flags
// to app, and chains a profiling-stop hook onto app.After so a profile
// started in Action is always flushed on exit.
func IncludeVerbosityFlags(app *cli.App) {
	app.Flags = append(app.Flags,
		&cli.BoolFlag{Name: FlagTrace, Usage: "enable trace level logging"},
		&cli.BoolFlag{Name: FlagDebug, Usage: "enable debug level logging", EnvVars: []string{"DEBUG"}},
		&cli.BoolFlag{Name: FlagQuiet, Usage: "only log errors", EnvVars: []string{"QUIET"}},
		&cli.StringFlag{Name: FlagCPUProfile, Usage: "write a CPU profile to this path before exit"},
	)

	prevAfter := app.After
	app.After = func(c *cli.Context) error {
		stopErr := stopProfiling(c)
		if prevAfter != nil {
			if err := prevAfter(c); err != nil {
				return err
			}
		}
		return stopErr
	}

	app.InvalidFlagAccessHandler = func(c *cli.Context, name string) {
		log.Fatal().Str("flag", name).Msg("unknown CLI flag")
	}
}

// SetLoggingLevel applies the verbosity flags read back out of c to the
// global zerolog level, and starts CPU profiling if --cpu-profile was given.
func SetLoggingLevel(c *cli.Context) {
	SetVerboseOrQuiet(c.Bool(FlagTrace), c.Bool(FlagDebug), c.Bool(FlagQuiet))
	if path := c.String(FlagCPUProfile); path != "" {
		if err := startProfiling(path); err != nil {
			log.Error().Err(err).Str("path", path).Msg("could not start CPU profile")
		}
	}
}

// SetVerboseOrQuiet sets zerolog's global level from three mutually
// exclusive flags, most verbose wins: trace, then debug, then quiet,
// defaulting to info.
func SetVerboseOrQuiet(trace, debug, quiet bool) {
	level := zerolog.InfoLevel
	switch {
	case trace:
		level = zerolog.TraceLevel
	case debug:
		level = zerolog.DebugLevel
	case quiet:
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)
}

// ConfigureForCli switches the global logger to a human-readable console
// writer on stderr, for interactive (non-JSON-log-collector) use.
func ConfigureForCli() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.UnixDate})
}

func startProfiling(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("logging: creating CPU profile %s: %w", path, err)
	}
	return pprof.StartCPUProfile(f)
}

// stopProfiling flushes the CPU profile started by SetLoggingLevel, if any,
// and writes a matching heap profile alongside it.
func stopProfiling(c *cli.Context) error {
	path := c.String(FlagCPUProfile)
	if path == "" {
		return nil
	}
	pprof.StopCPUProfile()

	heapPath := filepath.Join(filepath.Dir(path), "mem-"+filepath.Base(path))
	f, err := os.Create(heapPath)
	if err != nil {
		return fmt.Errorf("logging: creating heap profile %s: %w", heapPath, err)
	}
	defer f.Close()
	return pprof.WriteHeapProfile(f)
}
