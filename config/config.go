package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/s0up4200/libgate/filter"
)

// EnvPrefix prefixes every environment override, e.g. LIBGATE_OPAC_BASE_URL
const EnvPrefix = "LIBGATE"

// Load loads the configuration from file and environment.
// Without an explicit path a missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".libgate"))
		}

		// Check /etc
		v.AddConfigPath("/etc/libgate/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// OPAC defaults
	v.SetDefault("opac.base_url", "")
	v.SetDefault("opac.timeout", "15s")
	v.SetDefault("opac.user_agent", "")
	v.SetDefault("opac.max_search_pages", 5)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.pprof", false)

	// API defaults
	v.SetDefault("api.per_page", 20)
	v.SetDefault("api.watch_concurrency", 4)

	// Watch list defaults
	v.SetDefault("watchlist.path", "libgate.db")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.OPAC.BaseURL == "" {
		return fmt.Errorf("opac.base_url is required")
	}
	u, err := url.Parse(cfg.OPAC.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("opac.base_url must be an http(s) URL: %s", cfg.OPAC.BaseURL)
	}

	if cfg.OPAC.Timeout <= 0 {
		return fmt.Errorf("opac.timeout must be positive")
	}
	if cfg.OPAC.MaxSearchPages < 1 {
		return fmt.Errorf("opac.max_search_pages must be at least 1")
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", cfg.Server.Port)
	}
	if cfg.API.PerPage < 1 {
		return fmt.Errorf("api.per_page must be at least 1")
	}
	if cfg.Watchlist.Path == "" {
		return fmt.Errorf("watchlist.path is required")
	}

	// Named filters must compile
	for name, expression := range cfg.Filter {
		if _, err := filter.Compile(expression); err != nil {
			return fmt.Errorf("filter %q: %w", name, err)
		}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
