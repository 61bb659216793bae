// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides configuration management for sirseer-scout with
// support for multiple configuration sources and a well-defined precedence
// order.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. Configuration file
//  4. Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from multiple sources and applies them in
// the correct precedence order. If configPath is provided, it loads from
// that specific file. Otherwise, it searches standard locations:
//   - .sirseer-scout.yaml (current directory)
//   - .sirseer-scout.yml (current directory)
//   - ~/.sirseer/scout.yaml
//   - ~/.sirseer/scout.yml
//
// Environment variables are applied after loading the config file.
// Returns an error if the specified config file cannot be loaded, but will
// succeed with defaults if no config file is found in standard locations.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		defaultPaths := []string{
			".sirseer-scout.yaml",
			".sirseer-scout.yml",
			filepath.Join(os.Getenv("HOME"), ".sirseer", "scout.yaml"),
			filepath.Join(os.Getenv("HOME"), ".sirseer", "scout.yml"),
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	applyEnvOverrides(cfg)

	cfg.Search.StateDir = expandPath(cfg.Search.StateDir)

	return cfg, nil
}

// loadConfigFile reads and parses a YAML config file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	// GitHub endpoints
	if endpoint := os.Getenv("GITHUB_API_ENDPOINT"); endpoint != "" {
		cfg.GitHub.APIEndpoint = endpoint
	}
	if endpoint := os.Getenv("GITHUB_GRAPHQL_ENDPOINT"); endpoint != "" {
		cfg.GitHub.GraphQLEndpoint = endpoint
	}

	// Server
	if addr := os.Getenv("SCOUT_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if devMode := os.Getenv("SCOUT_DEV_MODE"); devMode != "" {
		cfg.Server.DevMode = parseBool(devMode)
	}

	// Search
	if limit := os.Getenv("SCOUT_DEFAULT_LIMIT"); limit != "" {
		if n, err := parsePositiveInt(limit); err == nil {
			cfg.Search.DefaultLimit = n
		}
	}
	if stateDir := os.Getenv("SCOUT_STATE_DIR"); stateDir != "" {
		cfg.Search.StateDir = stateDir
	}

	// Cache
	if mode := os.Getenv("SCOUT_CACHE_MODE"); mode != "" {
		cfg.Cache.Mode = strings.ToLower(strings.TrimSpace(mode))
	}
	if redisURL := os.Getenv("SCOUT_REDIS_URL"); redisURL != "" {
		cfg.Cache.RedisURL = redisURL
	}
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home := os.Getenv("HOME")
		if home == "" {
			home = os.Getenv("USERPROFILE") // Windows
		}
		path = filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// parsePositiveInt parses a string to a positive integer
func parsePositiveInt(s string) (int, error) {
	var i int
	_, err := fmt.Sscanf(s, "%d", &i)
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

// parseBool parses various boolean representations
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}

// Token returns the GitHub token from the configured environment variable.
func (c *Config) Token() string {
	return os.Getenv(c.GitHub.TokenEnv)
}

// EffectiveCacheMode resolves an empty cache mode: the single-slot memory
// cache in dev mode, no cache otherwise.
func (c *Config) EffectiveCacheMode() string {
	if c.Cache.Mode != "" {
		return c.Cache.Mode
	}
	if c.Server.DevMode {
		return CacheModeMemory
	}
	return CacheModeNone
}

// Validate checks if the configuration contains valid values. This should
// be called after loading configuration to catch invalid settings early.
func (c *Config) Validate() error {
	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("default limit must be positive, got: %d", c.Search.DefaultLimit)
	}
	if c.Search.DefaultLimit > 100 {
		return fmt.Errorf("default limit %d exceeds GitHub API limit of 100", c.Search.DefaultLimit)
	}
	if c.GitHub.APIEndpoint == "" {
		return fmt.Errorf("GitHub API endpoint cannot be empty")
	}
	if c.GitHub.GraphQLEndpoint == "" {
		return fmt.Errorf("GitHub GraphQL endpoint cannot be empty")
	}
	if c.GitHub.TokenEnv == "" {
		return fmt.Errorf("GitHub token environment variable name cannot be empty")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server timeouts cannot be negative")
	}

	switch c.EffectiveCacheMode() {
	case CacheModeNone, CacheModeMemory:
	case CacheModeRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache mode redis requires redis_url")
		}
		if _, err := url.Parse(c.Cache.RedisURL); err != nil {
			return fmt.Errorf("invalid redis_url: %w", err)
		}
	default:
		return fmt.Errorf("unknown cache mode %q (want none, memory or redis)", c.Cache.Mode)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl cannot be negative")
	}

	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative, got: %v", c.RateLimit.RequestsPerSecond)
	}
	if c.RateLimit.Burst < 0 {
		return fmt.Errorf("burst cannot be negative, got: %d", c.RateLimit.Burst)
	}
	if c.RateLimit.MaxWait < 0 {
		return fmt.Errorf("max wait cannot be negative")
	}
	if c.RateLimit.RequestTimeout < 0 {
		return fmt.Errorf("request timeout cannot be negative")
	}
	return nil
}
