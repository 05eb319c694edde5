// Command arenactl runs an allocation script against a fresh region and
// prints the resulting chunk lists.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/QuangTung97/regionarena/allocator"
	"github.com/QuangTung97/regionarena/internal/flagenv"
	"github.com/QuangTung97/regionarena/internal/script"
)

var (
	EnvPrefix = "ARENACTL_"
	Capacity  = pflag.Uint32P("capacity", "c", 256, "region capacity in bytes (rounded down to a multiple of 8)")
	NoDump    = pflag.Bool("no-dump", false, "do not print the region state after the script")
	Debug     = pflag.Bool("debug", false, "log allocator internals with a zap development logger")
	LogLevel  = flagenv.LevelP("log-level", "L", slog.LevelInfo, "log level")
	LogJSON   = pflag.Bool("log-json", false, "use json logs")
	Help      = pflag.BoolP("help", "h", false, "show this help text")
)

func main() {
	if err := flagenv.ParseEnv(EnvPrefix); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	pflag.Parse()

	if *Help || pflag.NArg() > 1 {
		fmt.Printf("usage: %s [options] [script]\n%s", os.Args[0], pflag.CommandLine.FlagUsages())
		if *Help {
			return
		}
		os.Exit(2)
	}

	if *LogJSON {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: LogLevel,
		})))
	} else {
		slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level: LogLevel,
		})))
	}

	if err := run(); err != nil {
		slog.Error("failed to run script", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if *Debug {
		zl, err := zap.NewDevelopment()
		if err != nil {
			return errors.Wrap(err, "create allocator logger")
		}
		defer zl.Sync()
		allocator.SetLogger(zl)
	}

	var src io.Reader = os.Stdin
	name := "stdin"
	if pflag.NArg() == 1 {
		name = pflag.Arg(0)
		f, err := os.Open(name)
		if err != nil {
			return errors.Wrap(err, "open script")
		}
		defer f.Close()
		src = f
	}

	r, err := allocator.New(*Capacity)
	if err != nil {
		return errors.Wrap(err, "create region")
	}
	defer r.Destroy()

	slog.Info("running script", "script", name, "capacity", r.Capacity())
	if err := script.New(r, os.Stdout, slog.Default()).Run(src); err != nil {
		return errors.Wrapf(err, "run %s", name)
	}

	if !*NoDump {
		fmt.Fprint(os.Stdout, render(r, lipgloss.NewRenderer(os.Stdout)))
	}

	st := r.Stats()
	slog.Info("done",
		"inUse", st.SizeInUse,
		"free", st.FreeBytes,
		"usedChunks", st.UsedChunks,
		"freeChunks", st.FreeChunks,
		"largestFree", st.LargestFree,
	)
	return nil
}
