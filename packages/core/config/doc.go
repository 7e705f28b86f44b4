// Package config handles configuration loading and management for tabfetch.
//
// It provides functionality for:
//   - Loading configuration from .tabfetch.json, tabfetch.config.json or .tabfetchrc
//   - Default configuration values
//   - Merging command-line overrides over file settings
package config
