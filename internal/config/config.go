package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for an FTP session
type Config struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Credentials    Credentials   `mapstructure:"credentials"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxWorkers     int           `mapstructure:"max_workers"`
	LogInterval    int           `mapstructure:"log_interval"`
}

// Credentials holds authentication credentials for an FTP connection
type Credentials struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Load loads configuration from an optional file and environment variables.
// Environment variables use the FTPKIT_ prefix with underscores for nesting,
// e.g. FTPKIT_HOST and FTPKIT_CREDENTIALS_PASSWORD.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("ftpkit")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "")
	v.SetDefault("port", 0) // 0 leaves the port to the FTP default
	v.SetDefault("credentials.username", "anonymous")
	v.SetDefault("credentials.password", "")
	v.SetDefault("timeout", "30s")
	v.SetDefault("max_connections", 4)
	v.SetDefault("max_workers", 4)
	v.SetDefault("log_interval", 10)

	// Make sure nested keys resolve from the environment.
	_ = v.BindEnv("credentials.username")
	_ = v.BindEnv("credentials.password")
}

// Addr returns the dial address for the configured server. When the port is
// zero the bare host is returned so the client falls back to the FTP default.
func (c *Config) Addr() string {
	if c.Port == 0 {
		return c.Host
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Credentials.Username == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if c.MaxConnections < 1 {
		return fmt.Errorf("max_connections must be at least 1, got %d", c.MaxConnections)
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("max_workers must be at least 1, got %d", c.MaxWorkers)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	return nil
}
