package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"series-explorer/src/helpers"
	"series-explorer/src/models"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvAPIBaseURL = "EXPLORER_API_BASE_URL"
	EnvFREDAPIKey = "FRED_API_KEY"
)

var validDBTypes = map[string]bool{"sqlite": true, "postgres": true}

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// Default returns a configuration with every default applied.
func Default() *Config {
	var modelConfig models.MConfig
	// defaults.Set only fails on malformed tags
	if err := defaults.Set(&modelConfig); err != nil {
		panic(fmt.Sprintf("invalid config defaults: %v", err))
	}
	return &Config{MConfig: &modelConfig}
}

// -----------------------------------------------------------------------------

// NewConfig builds the configuration from defaults, the YAML file at
// configPath (skipped when empty or missing) and environment overrides.
func NewConfig(configPath string) (*Config, error) {
	config := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// defaults only
		case err != nil:
			return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
		default:
			if err := yaml.Unmarshal(data, config.MConfig); err != nil {
				return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
			}
		}
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvAPIBaseURL); ok && strings.TrimSpace(v) != "" {
		c.Explorer.APIBaseURL = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvFREDAPIKey); ok && strings.TrimSpace(v) != "" {
		c.DataService.FRED.APIKey = strings.TrimSpace(v)
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return helpers.NewConfigurationError("application name cannot be empty")
	}

	// Explorer
	if c.Explorer.Host == "" {
		return helpers.NewConfigurationError("explorer host cannot be empty")
	}
	if err := validatePort("explorer", c.Explorer.Port); err != nil {
		return err
	}
	if c.Explorer.APIBaseURL == "" {
		return helpers.NewConfigurationError("explorer api_base_url cannot be empty")
	}
	if c.Explorer.Debounce < 0 {
		return helpers.NewConfigurationError("explorer debounce cannot be negative")
	}
	if c.Explorer.MetricsHistory <= 0 {
		return helpers.NewConfigurationError("explorer metrics_history must be greater than 0")
	}

	// Network
	if c.Network.RequestTimeout <= 0 {
		return helpers.NewConfigurationError("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return helpers.NewConfigurationError("max retries cannot be negative")
	}
	if c.Network.ConcurrentRequests <= 0 {
		return helpers.NewConfigurationError("concurrent requests must be greater than 0")
	}
	if c.Network.RateLimitRPS <= 0 || c.Network.RateLimitBurst <= 0 {
		return helpers.NewConfigurationError("rate limit rps and burst must be greater than 0")
	}
	if c.Network.BreakerMaxFailures == 0 {
		return helpers.NewConfigurationError("breaker_max_failures must be greater than 0")
	}

	// Data service
	if c.DataService.Host == "" {
		return helpers.NewConfigurationError("data service host cannot be empty")
	}
	if err := validatePort("data service", c.DataService.Port); err != nil {
		return err
	}
	if err := validatePort("data service grpc", c.DataService.GrpcPort); err != nil {
		return err
	}

	storage := c.DataService.Storage
	if !validDBTypes[storage.DBType] {
		return helpers.NewConfigurationError(fmt.Sprintf("unsupported database type %q", storage.DBType))
	}
	if storage.DBType == "sqlite" && storage.DBPath == "" {
		return helpers.NewConfigurationError("database path cannot be empty for sqlite")
	}
	if storage.DBType == "postgres" && storage.DBConnectionString == "" {
		return helpers.NewConfigurationError("database connection string cannot be empty for postgres")
	}

	fred := c.DataService.FRED
	if fred.Enabled {
		if fred.APIKey == "" {
			return helpers.NewConfigurationError(fmt.Sprintf("FRED is enabled but no api key is set (config or %s)", EnvFREDAPIKey))
		}
		if fred.BaseURL == "" {
			return helpers.NewConfigurationError("FRED base url cannot be empty")
		}
		if len(fred.Series) == 0 && fred.Limit <= 0 {
			return helpers.NewConfigurationError("FRED limit must be greater than 0 when no series are listed")
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

func validatePort(name string, port int) error {
	if port <= 1024 || port > 65535 {
		return helpers.NewConfigurationError(fmt.Sprintf("invalid %s port number: %d (must be between 1025 and 65535)", name, port))
	}
	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
