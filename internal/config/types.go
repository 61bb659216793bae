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

// Package config types define the configuration structures used throughout
// sirseer-scout. These types represent settings that can be loaded from
// YAML configuration files, environment variables, or command-line flags.
package config

import "time"

// Cache modes.
const (
	CacheModeNone   = "none"
	CacheModeMemory = "memory"
	CacheModeRedis  = "redis"
)

// Config represents the complete configuration for sirseer-scout.
type Config struct {
	GitHub    GitHubConfig    `yaml:"github"`
	Server    ServerConfig    `yaml:"server"`
	Search    SearchConfig    `yaml:"search"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// GitHubConfig contains GitHub-specific settings including API endpoints
// and authentication configuration. Custom endpoints point the service at
// GitHub Enterprise.
type GitHubConfig struct {
	APIEndpoint     string `yaml:"api_endpoint"`
	GraphQLEndpoint string `yaml:"graphql_endpoint"`
	TokenEnv        string `yaml:"token_env"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	// WriteTimeout also bounds how long one search may keep fetching pages.
	// Searches are cut off at nine tenths of it and answered with a 504.
	// At the default 1.2 requests per second a selective filter can need
	// more upstream pages than fit, so raise it alongside the rate budget.
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	DevMode        bool          `yaml:"dev_mode"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// SearchConfig contains defaults for search requests and where the CLI
// keeps its checkpoints and run metadata.
type SearchConfig struct {
	DefaultLimit int    `yaml:"default_limit"`
	StateDir     string `yaml:"state_dir"`
}

// CacheConfig selects the result cache. An empty Mode means memory in dev
// mode and none otherwise.
type CacheConfig struct {
	Mode     string        `yaml:"mode"`
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

// RateLimitConfig controls how the GitHub transport paces requests and how
// long it will wait out a rate limit before giving up.
type RateLimitConfig struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	MaxWait           time.Duration `yaml:"max_wait"`
	// RequestTimeout bounds each upstream attempt. The rate-limit wait
	// between attempts is not counted against it.
	RequestTimeout    time.Duration `yaml:"request_timeout"`
}

// DefaultConfig returns a Config with defaults suited to public GitHub.com.
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			APIEndpoint:     "https://api.github.com",
			GraphQLEndpoint: "https://api.github.com/graphql",
			TokenEnv:        "GITHUB_TOKEN",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   60 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		Search: SearchConfig{
			DefaultLimit: 10,
			StateDir:     "~/.sirseer/scout",
		},
		Cache: CacheConfig{
			RedisURL: "redis://localhost:6379/0",
			TTL:      time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1.2,
			Burst:             1,
			MaxWait:           60 * time.Second,
			RequestTimeout:    30 * time.Second,
		},
	}
}
