package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// globalConfig stores the configuration loaded with command-line overrides
// This allows other packages to access the same configuration that was loaded by the server
var (
	globalConfig *Config
	configMutex  sync.Mutex
)

// Config holds the application configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	SSH      SSHConfig      `toml:"ssh"`
	Security SecurityConfig `toml:"security"`
	Logging  LoggingConfig  `toml:"logging"`
}

// LoadOptions holds command-line override options
type LoadOptions struct {
	Host       string
	Port       string
	SSHHost    string
	SSHPort    string
	SSHUser    string
	LogLevel   string
	ConfigFile string
}

// ServerConfig holds the websocket bridge listener configuration
type ServerConfig struct {
	Host         string        `toml:"host" env:"SERVER_HOST" default:"0.0.0.0"`
	Port         string        `toml:"port" env:"SERVER_PORT" default:"8080"`
	ReadTimeout  time.Duration `toml:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `toml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `toml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" default:"120s"`
}

// SSHConfig holds the default target and stream settings for SSH connections
type SSHConfig struct {
	Host           string        `toml:"host" env:"SSH_HOST" default:"127.0.0.1"`
	Port           string        `toml:"port" env:"SSH_PORT" default:"22"`
	User           string        `toml:"user" env:"SSH_USER" default:"user"`
	ConnectTimeout time.Duration `toml:"connect_timeout" env:"SSH_CONNECT_TIMEOUT" default:"5s"`
	IOTimeout      time.Duration `toml:"io_timeout" env:"SSH_IO_TIMEOUT" default:"30s"`
	ReadBufferSize int           `toml:"read_buffer_size" env:"SSH_READ_BUFFER_SIZE" default:"128"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string `toml:"allowed_origins" env:"ALLOWED_ORIGINS" default:""`
	MaxConnections int      `toml:"max_connections" env:"MAX_CONNECTIONS" default:"100"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level" env:"LOG_LEVEL" default:"info"`
	Format string `toml:"format" env:"LOG_FORMAT" default:"text"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         "8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		SSH: SSHConfig{
			Host:           "127.0.0.1",
			Port:           "22",
			User:           "user",
			ConnectTimeout: 5 * time.Second,
			IOTimeout:      30 * time.Second,
			ReadBufferSize: 128,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{},
			MaxConnections: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	return LoadWithOverrides(LoadOptions{})
}

// LoadWithOverrides loads configuration with command-line overrides.
// Precedence, lowest first: defaults, config file, environment, overrides.
func LoadWithOverrides(opts LoadOptions) (*Config, error) {
	config := Default()

	configFile := getOverrideOrEnv(opts.ConfigFile, "CONFIG_FILE", "")
	if configFile != "" {
		if _, err := toml.DecodeFile(configFile, config); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	// Server config
	config.Server.Host = getOverrideOrEnv(opts.Host, "SERVER_HOST", config.Server.Host)
	config.Server.Port = getOverrideOrEnv(opts.Port, "SERVER_PORT", config.Server.Port)
	config.Server.ReadTimeout = getDurationWithDefault("SERVER_READ_TIMEOUT", config.Server.ReadTimeout)
	config.Server.WriteTimeout = getDurationWithDefault("SERVER_WRITE_TIMEOUT", config.Server.WriteTimeout)
	config.Server.IdleTimeout = getDurationWithDefault("SERVER_IDLE_TIMEOUT", config.Server.IdleTimeout)

	// SSH config
	config.SSH.Host = getOverrideOrEnv(opts.SSHHost, "SSH_HOST", config.SSH.Host)
	config.SSH.Port = getOverrideOrEnv(opts.SSHPort, "SSH_PORT", config.SSH.Port)
	config.SSH.User = getOverrideOrEnv(opts.SSHUser, "SSH_USER", config.SSH.User)
	config.SSH.ConnectTimeout = getDurationWithDefault("SSH_CONNECT_TIMEOUT", config.SSH.ConnectTimeout)
	config.SSH.IOTimeout = getDurationWithDefault("SSH_IO_TIMEOUT", config.SSH.IOTimeout)
	config.SSH.ReadBufferSize = getIntWithDefault("SSH_READ_BUFFER_SIZE", config.SSH.ReadBufferSize)

	// Security config
	config.Security.AllowedOrigins = getStringSliceWithDefault("ALLOWED_ORIGINS", config.Security.AllowedOrigins)
	config.Security.MaxConnections = getIntWithDefault("MAX_CONNECTIONS", config.Security.MaxConnections)

	// Logging config
	config.Logging.Level = getOverrideOrEnv(opts.LogLevel, "LOG_LEVEL", config.Logging.Level)
	config.Logging.Format = getEnvWithDefault("LOG_FORMAT", config.Logging.Format)

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Store the configuration globally so other packages can access it
	configMutex.Lock()
	globalConfig = config
	configMutex.Unlock()

	return config, nil
}

// GetGlobalConfig returns the globally stored configuration
// This should be used by packages that need access to the configuration
// loaded by the server with command-line overrides
func GetGlobalConfig() *Config {
	configMutex.Lock()
	defer configMutex.Unlock()
	return globalConfig
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}

	// Validate SSH config
	if c.SSH.Host == "" {
		return fmt.Errorf("ssh host cannot be empty")
	}

	if port, err := strconv.Atoi(c.SSH.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid ssh port: %s", c.SSH.Port)
	}

	if c.SSH.ConnectTimeout <= 0 {
		return fmt.Errorf("ssh connect timeout must be positive")
	}

	if c.SSH.IOTimeout < 0 {
		return fmt.Errorf("ssh io timeout cannot be negative")
	}

	if c.SSH.ReadBufferSize <= 0 {
		return fmt.Errorf("read buffer size must be positive")
	}

	if c.Security.MaxConnections <= 0 {
		return fmt.Errorf("max connections must be positive")
	}

	// Validate logging config
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}

	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceWithDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return splitString(value, ",")
	}
	return defaultValue
}

// getOverrideOrEnv returns command-line override value, env value, or default
func getOverrideOrEnv(override, envKey, defaultValue string) string {
	if override != "" {
		return override
	}
	return getEnvWithDefault(envKey, defaultValue)
}

func splitString(s, sep string) []string {
	if s == "" {
		return []string{}
	}

	var result []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
