package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	sqlgateerrors "sqlgate/pkg/errors"
	"sqlgate/pkg/pool"
)

// ServerConfig represents server configuration
type ServerConfig struct {
	Address string        `yaml:"address"`
	Logging LoggingConfig `yaml:"logging"`
	Pools   []PoolConfig  `yaml:"pools"`
}

// LoggingConfig represents logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PoolConfig represents one named connection pool
type PoolConfig struct {
	Name                  string `yaml:"name"`
	Driver                string `yaml:"driver"` // mysql | sqlite3
	DSN                   string `yaml:"dsn"`
	InitialSize           int    `yaml:"initial_size"`
	IncrementSize         int    `yaml:"increment_size"`
	MaxSize               int    `yaml:"max_size"`
	ShrinkOnReturn        bool   `yaml:"shrink_on_return"`
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds"`
	LoginTimeoutSeconds   int    `yaml:"login_timeout_seconds"`
	IdleTimeoutSeconds    int    `yaml:"idle_timeout_seconds"`
}

// Pool converts the YAML shape into the pool core's configuration
func (p PoolConfig) Pool() pool.Config {
	return pool.Config{
		Driver:         p.Driver,
		DSN:            p.DSN,
		InitialSize:    p.InitialSize,
		IncrementSize:  p.IncrementSize,
		MaxSize:        p.MaxSize,
		ShrinkOnReturn: p.ShrinkOnReturn,
		ConnectTimeout: time.Duration(p.ConnectTimeoutSeconds) * time.Second,
		LoginTimeout:   time.Duration(p.LoginTimeoutSeconds) * time.Second,
		IdleTimeout:    time.Duration(p.IdleTimeoutSeconds) * time.Second,
	}
}

// DefaultConfig returns default configuration
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Address: ":8080",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Pools: []PoolConfig{
			{
				Name:               "default",
				Driver:             "sqlite3",
				DSN:                "./sqlgate.db",
				MaxSize:            10,
				IdleTimeoutSeconds: 300,
			},
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*ServerConfig, error) {
	config := DefaultConfig()

	if configPath != "" {
		if err := loadFromFile(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(path string, config *ServerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, config)
}

// applyEnvOverrides applies environment variable overrides.
// Pool overrides apply to the first configured pool.
func applyEnvOverrides(config *ServerConfig) {
	if addr := os.Getenv("SQLGATE_ADDR"); addr != "" {
		config.Address = addr
	}

	if logLevel := os.Getenv("SQLGATE_LOG_LEVEL"); logLevel != "" {
		config.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("SQLGATE_LOG_FORMAT"); logFormat != "" {
		config.Logging.Format = logFormat
	}

	if len(config.Pools) == 0 {
		return
	}

	if dsn := os.Getenv("SQLGATE_POOL_DSN"); dsn != "" {
		config.Pools[0].DSN = dsn
	}

	if driver := os.Getenv("SQLGATE_POOL_DRIVER"); driver != "" {
		config.Pools[0].Driver = driver
	}

	if idle := os.Getenv("SQLGATE_POOL_IDLE_SECONDS"); idle != "" {
		if val, err := strconv.Atoi(idle); err == nil {
			config.Pools[0].IdleTimeoutSeconds = val
		}
	}

	if maxSize := os.Getenv("SQLGATE_POOL_MAX_SIZE"); maxSize != "" {
		if val, err := strconv.Atoi(maxSize); err == nil {
			config.Pools[0].MaxSize = val
		}
	}
}

// Validate validates the configuration
func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("%w: server address cannot be empty", sqlgateerrors.ErrInvalidConfig)
	}

	if !isValidLogLevel(c.Logging.Level) {
		return fmt.Errorf("%w: invalid log level: %s", sqlgateerrors.ErrInvalidConfig, c.Logging.Level)
	}

	if len(c.Pools) == 0 {
		return fmt.Errorf("%w: at least one pool must be configured", sqlgateerrors.ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Pools))
	for i, p := range c.Pools {
		if p.Name == "" {
			return fmt.Errorf("%w: pool %d has no name", sqlgateerrors.ErrInvalidConfig, i)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: duplicate pool name %q", sqlgateerrors.ErrInvalidConfig, p.Name)
		}
		seen[p.Name] = true

		if err := p.Pool().Validate(); err != nil {
			return fmt.Errorf("pool %q: %w", p.Name, err)
		}
	}

	return nil
}

// isValidLogLevel checks if the log level is valid
func isValidLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// String returns a string representation of the configuration (for logging)
func (c *ServerConfig) String() string {
	names := make([]string, 0, len(c.Pools))
	for _, p := range c.Pools {
		names = append(names, p.Name)
	}
	return fmt.Sprintf("Config{Address: %s, Pools: %s, LogLevel: %s}",
		c.Address, strings.Join(names, ","), c.Logging.Level)
}
