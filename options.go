package tallbag

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Option configures Connect and Guard.
type Option func(*config)

type config struct {
	logger  zerolog.Logger
	name    string
	metrics bool
}

// WithLogger sets the logger used for lifecycle and violation records.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithName labels log records of the connection or guard.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithoutMetrics disables Prometheus recording.
func WithoutMetrics() Option {
	return func(c *config) {
		c.metrics = false
	}
}

func applyOptions(opts []Option) config {
	c := config{
		logger:  log.Logger,
		metrics: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	return c
}
