package internal

import "io"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config      *Config
	scheduleDir string
	version     string
	logOutput   io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithScheduleDir overrides the directory holding schedule.md. Without it the
// directory of the running executable is used.
func WithScheduleDir(dir string) Option {
	return func(a *application) {
		a.scheduleDir = dir
	}
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithLogOutput sets where structured logs are written (stdout by default).
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}
