package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Options selects where and how log lines are written.
type Options struct {
	Level  string // logrus level name; empty means info
	Format string // "text" or "json"
	File   string // append to this file instead of stderr
	// Output overrides both File and stderr. Used by tests.
	Output io.Writer
}

// New creates a logger tagged with component and returns it with a cleanup.
// Logs never go to stdout, which carries protocol frames.
func New(component string, opts Options) (*logrus.Entry, func(), error) {
	logger := logrus.New()

	level := logrus.InfoLevel
	if opts.Level != "" {
		lvl, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, err
		}
		level = lvl
	}
	logger.SetLevel(level)

	switch opts.Format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	cleanup := func() {}
	switch {
	case opts.Output != nil:
		logger.SetOutput(opts.Output)
	case opts.File != "":
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		logger.SetOutput(f)
		cleanup = func() { _ = f.Close() }
	default:
		logger.SetOutput(os.Stderr)
	}

	return logger.WithField("component", component), cleanup, nil
}
