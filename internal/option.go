package internal

import "log/slog"

// Option customises Run before the runtime is assembled.
type Option func(*application)

type application struct {
	config *Config
	logger *slog.Logger
}

// WithConfig supplies the gateway configuration. Required.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger routes application logs through logger instead of the default
// JSON logger on stdout. Tests use this to keep server output quiet.
func WithLogger(logger *slog.Logger) Option {
	return func(a *application) {
		a.logger = logger
	}
}
