// Package cli parses the simulator's command line and wires up its
// logger.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/lc3vm/lc3vm/internal/log"
)

// Config is the parsed command line: the image paths to load, in the
// order given, and whether debug-level logging was requested.
type Config struct {
	Paths []string
	Debug bool
}

// ErrUsage is returned when no image paths were given, or wrapped when the
// flags fail to parse. Parse has already printed the usage message by then;
// the caller is expected to exit 0, per the CLI contract; it is not a
// failure.
var ErrUsage = errors.New("cli: usage")

// Parse reads args (as os.Args[1:]) into a Config. It returns ErrUsage if
// no image paths were given, and an error wrapping ErrUsage if the flags
// fail to parse.
func Parse(name string, args []string) (Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	debug := fs.Bool("debug", false, "raise the log level to debug")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s PATH [PATH...]\n", name)
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	if fs.NArg() == 0 {
		fs.Usage()

		return Config{}, ErrUsage
	}

	return Config{Paths: fs.Args(), Debug: *debug}, nil
}

// NewLogger builds the process logger, writing to stderr so stdout
// carries only the guest program's own output. If debug is set, the
// global log level is raised for the lifetime of the process.
func NewLogger(debug bool) *log.Logger {
	if debug {
		log.LogLevel.Set(log.Debug)
	}

	logger := log.NewFormattedLogger(os.Stderr)
	log.SetDefault(logger)

	return logger
}
