package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures a process logger.
//   - Level: trace, debug, info, warn, error, fatal or panic. Unknown values fall back to info.
//   - Format: "pretty" for human-readable dev output, anything else for JSON lines.
//   - Service tags every entry so the API and the CLI tools can share one log sink.
type Options struct {
	Level   string
	Format  string
	Service string
	Version string
	// Out defaults to stdout.
	Out io.Writer
}

// New builds the zerolog logger described by opts and sets the global level.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	var writer io.Writer = out
	if strings.EqualFold(opts.Format, "pretty") {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    out != os.Stdout,
		}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	ctx := zerolog.New(writer).With().Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	if opts.Version != "" {
		ctx = ctx.Str("version", opts.Version)
	}
	return ctx.Caller().Logger()
}

// Setup is New for a named service writing to stdout.
func Setup(level, format, service string) zerolog.Logger {
	return New(Options{Level: level, Format: format, Service: service})
}
