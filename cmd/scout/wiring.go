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

package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sirseerhq/sirseer-scout/internal/cache"
	"github.com/sirseerhq/sirseer-scout/internal/config"
	scouterrors "github.com/sirseerhq/sirseer-scout/internal/errors"
	"github.com/sirseerhq/sirseer-scout/internal/github"
)

// loadConfig loads and validates configuration, folding in the --dev flag.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.dev {
		cfg.Server.DevMode = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger returns a console logger in dev mode and a JSON one otherwise.
func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// resolveToken prefers the flag over the configured environment variable.
func resolveToken(flagToken string, cfg *config.Config) (string, error) {
	if flagToken != "" {
		return flagToken, nil
	}
	if token := cfg.Token(); token != "" {
		return token, nil
	}
	return "", fmt.Errorf("GitHub token not found. Set %s or use --token flag: %w",
		cfg.GitHub.TokenEnv, scouterrors.ErrInvalidToken)
}

func transportConfig(cfg *config.Config, logger *zap.Logger) *github.TransportConfig {
	return &github.TransportConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		MaxWait:           cfg.RateLimit.MaxWait,
		RequestTimeout:    cfg.RateLimit.RequestTimeout,
		Logger:            logger,
	}
}

// newSearchClient builds the GraphQL client with network retries.
func newSearchClient(token string, cfg *config.Config, logger *zap.Logger) github.Client {
	gql := github.NewGraphQLClient(token, cfg.GitHub.GraphQLEndpoint, transportConfig(cfg, logger))
	return github.NewRetryClient(gql, github.DefaultRetryConfig(), logger)
}

// newCache builds the configured result cache. The returned close function
// is never nil.
func newCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Cache, func() error, error) {
	noop := func() error { return nil }

	switch mode := cfg.EffectiveCacheMode(); mode {
	case config.CacheModeMemory:
		logger.Info("Using in-memory single-entry cache")
		return cache.NewSingleSlot(), noop, nil
	case config.CacheModeRedis:
		redisCache, err := cache.NewRedis(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Using Redis cache", zap.Duration("ttl", cfg.Cache.TTL))
		return redisCache, redisCache.Close, nil
	default:
		return cache.Nop{}, noop, nil
	}
}
