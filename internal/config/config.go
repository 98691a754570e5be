// Package config defines the dashboard configuration and its loading hooks.
package config

import (
	"context"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":15000".
	Addr string `koanf:"addr"`

	// AppURL identifies the dashboard itself on the RPC registry.
	AppURL string `koanf:"app_url"`

	// StaticDir is the base directory for registered static resources.
	// Empty means a fresh temporary directory removed on shutdown.
	StaticDir string `koanf:"static_dir"`

	// CardsURL is the absolute URL the dashboard page fetches cards from.
	// Empty means the in-process card board.
	CardsURL string `koanf:"cards_url"`

	// ContainerSelector is the region the status cards are mounted into.
	ContainerSelector string `koanf:"container_selector"`

	// FetchTimeoutMS bounds the status card fetch; 0 disables the timeout.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// ShowLoadErrors renders a notice on the page when the card fetch fails.
	ShowLoadErrors bool `koanf:"show_load_errors"`

	// RedocURL is the ReDoc bundle the API docs page loads. Empty means the
	// public CDN build.
	RedocURL string `koanf:"redoc_url"`

	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// New returns a Config populated with defaults. The context is reserved
// for future loaders and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":15000",
		AppURL:            "https://github.com/HomeWeave/Dashboard.git",
		ContainerSelector: ".content .weave-medium-cards-row",
		FetchTimeoutMS:    0,
		ShowLoadErrors:    true,
		MaxBodyBytes:      5 << 20,
	}
}
