package config

import (
	"os"
	"path/filepath"
)

const (
	// DefaultTimeoutMs is the exchange deadline in milliseconds
	DefaultTimeoutMs = 20000
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10

	OutputConsole = "console"
	OutputJSON    = "json"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:         DefaultTimeoutMs,
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    DefaultMaxRedirects,
		ValidateSSL:     BoolPtr(true),
		Output:          OutputConsole,
		Verbose:         BoolPtr(false),
		NoColor:         BoolPtr(false),
	}
}

// DefaultDatabasePath is the session database under the user config
// directory, or in the working directory when there is none.
func DefaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".tabfetch", "tabfetch.db")
	}
	return filepath.Join(dir, "tabfetch", "tabfetch.db")
}
