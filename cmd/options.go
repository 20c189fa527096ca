package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spiffcs/ghissues-agent/config"
	"github.com/spiffcs/ghissues-agent/internal/log"
)

// Options holds the shared command-line options for the ghissues-agent CLI.
type Options struct {
	ConfigPath string
	Verbosity  int
	LogFormat  string

	// Server overrides
	Addr string

	// Profiling options
	CPUProfile string // Write CPU profile to file
	MemProfile string // Write memory profile to file
	Trace      string // Write execution trace to file

	// logOutput is where logs are written; stderr unless a test swaps it.
	logOutput io.Writer
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithConfigPath sets an explicit config file.
func WithConfigPath(path string) Option {
	return func(o *Options) {
		o.ConfigPath = path
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithAddr overrides the listen address.
func WithAddr(addr string) Option {
	return func(o *Options) {
		o.Addr = addr
	}
}

// WithLogOutput redirects log output.
func WithLogOutput(w io.Writer) Option {
	return func(o *Options) {
		o.logOutput = w
	}
}

// loadConfig loads configuration, applies command-line overrides and
// initializes logging. Flags win over every other source.
func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	if opts.LogFormat != "" {
		cfg.Log.Format = opts.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if opts.Verbosity > 0 {
		level = opts.Verbosity
	}

	w := opts.logOutput
	if w == nil {
		w = os.Stderr
	}
	log.Initialize(level, cfg.Log.Format, w)
	return cfg, nil
}
