package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the tabfetch configuration
type Config struct {
	Timeout         int               `json:"timeout,omitempty"` // milliseconds
	Database        string            `json:"database,omitempty"`
	FollowRedirects *bool             `json:"followRedirects,omitempty"`
	MaxRedirects    int               `json:"maxRedirects,omitempty"`
	ValidateSSL     *bool             `json:"validateSSL,omitempty"`
	Proxy           string            `json:"proxy,omitempty"`
	UserAgent       string            `json:"userAgent,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"` // Default headers for both execution contexts
	Output          string            `json:"output,omitempty"`
	Verbose         *bool             `json:"verbose,omitempty"`
	NoColor         *bool             `json:"noColor,omitempty"`
}

// Error reports an unusable configuration.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetTimeout returns the exchange deadline.
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return time.Duration(DefaultTimeoutMs) * time.Millisecond
	}
	return time.Duration(c.Timeout) * time.Millisecond
}

// GetDatabase returns the session database path.
func (c *Config) GetDatabase() string {
	if c.Database == "" {
		return DefaultDatabasePath()
	}
	return c.Database
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return &Error{Err: err}
	}
	return nil
}

func (c *Config) validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %d", c.Timeout)
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("maxRedirects must not be negative, got %d", c.MaxRedirects)
	}
	switch strings.ToLower(c.Output) {
	case "", OutputConsole, OutputJSON:
	default:
		return fmt.Errorf("unknown output %q (use %s or %s)", c.Output, OutputConsole, OutputJSON)
	}
	return nil
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".tabfetch.json",
	"tabfetch.config.json",
	".tabfetchrc",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if err := config.validate(); err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.Database != "" {
		result.Database = other.Database
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.UserAgent != "" {
		result.UserAgent = other.UserAgent
	}
	if other.Output != "" {
		result.Output = other.Output
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	// Merge headers
	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers)+len(other.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	return &result
}
