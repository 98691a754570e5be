package loader

import (
	"strings"
	"time"

	"github.com/homeweave/dashboard/pkg/logger"
)

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithEndpoint sets the URL or path the cards are fetched from.
func WithEndpoint(endpoint string) Option {
	return func(l *Loader) {
		if strings.TrimSpace(endpoint) != "" {
			l.endpoint = endpoint
		}
	}
}

// WithSelector sets the container the cards are mounted into.
func WithSelector(selector string) Option {
	return func(l *Loader) {
		if strings.TrimSpace(selector) != "" {
			l.selector = selector
		}
	}
}

// WithTimeout bounds the fetch. Zero keeps it unbounded.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithLogger sets the loader logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Loader) {
		if lg != nil {
			l.logger = lg
		}
	}
}
