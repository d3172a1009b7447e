package config

import (
	"time"

	"github.com/s0up4200/libgate/markup"
	"github.com/s0up4200/libgate/opac"
)

// Config represents the complete configuration structure
type Config struct {
	OPAC      OPACConfig      `mapstructure:"opac"`
	Server    ServerConfig    `mapstructure:"server"`
	API       APIConfig       `mapstructure:"api"`
	Watchlist WatchlistConfig `mapstructure:"watchlist"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// OPACConfig describes the library system being fronted
type OPACConfig struct {
	BaseURL        string         `mapstructure:"base_url"`
	Timeout        time.Duration  `mapstructure:"timeout"`
	UserAgent      string         `mapstructure:"user_agent"`
	MaxSearchPages int            `mapstructure:"max_search_pages"`
	Endpoints      opac.Endpoints `mapstructure:"endpoints"`
	Markers        markup.Markers `mapstructure:"markers"`
}

// Options converts the section into service options
func (c OPACConfig) Options() []opac.Option {
	return []opac.Option{
		opac.WithTimeout(c.Timeout),
		opac.WithUserAgent(c.UserAgent),
		opac.WithMaxSearchPages(c.MaxSearchPages),
		opac.WithEndpoints(c.Endpoints),
		opac.WithMarkers(c.Markers),
	}
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Pprof           bool          `mapstructure:"pprof"`
}

// APIConfig tunes the HTTP API behaviour
type APIConfig struct {
	PerPage          int `mapstructure:"per_page"`
	WatchConcurrency int `mapstructure:"watch_concurrency"`
}

// WatchlistConfig locates the watch list database
type WatchlistConfig struct {
	Path string `mapstructure:"path"`
}

// FilterConfig contains named filter expressions usable from search
type FilterConfig map[string]string

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
