package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

var (
	level  = new(slog.LevelVar)
	logger = newLogger(os.Stderr, false)
)

// Options controls the console handler installed by Setup.
type Options struct {
	Verbose bool
	NoColor bool
	Writer  io.Writer // defaults to os.Stderr
}

// Setup installs the process-wide logger. Logs always go to stderr so
// command output on stdout stays clean.
func Setup(opts Options) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	if opts.Verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
	logger = newLogger(w, opts.NoColor)
	slog.SetDefault(logger)
}

func newLogger(w io.Writer, noColor bool) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	}))
}

// Component returns a logger tagged with the given component name.
func Component(name string) *slog.Logger {
	return logger.With("component", name)
}
