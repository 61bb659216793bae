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
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sirseerhq/sirseer-scout/internal/github"
	"github.com/sirseerhq/sirseer-scout/internal/metrics"
	"github.com/sirseerhq/sirseer-scout/internal/search"
	"github.com/sirseerhq/sirseer-scout/internal/server"
	"github.com/sirseerhq/sirseer-scout/internal/version"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var (
		addr  string
		token string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the user search HTTP API",
		Long: `Start the HTTP API used by the browser UI.

Routes:
  GET|POST /api/search/users         filtered search that skips empty pages
  GET      /api/search/users/simple  one unfiltered page
  GET      /api/search/users/rest    REST search by location and language
  GET      /health
  GET      /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, root, addr, token)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().StringVar(&token, "token", "", "GitHub personal access token (overrides the token environment variable)")

	return cmd
}

func runServe(ctx context.Context, root *rootOptions, addr, tokenFlag string) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	logger, err := newLogger(cfg.Server.DevMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	token, err := resolveToken(tokenFlag, cfg)
	if err != nil {
		return err
	}

	resultCache, closeCache, err := newCache(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer func() {
		if err := closeCache(); err != nil {
			logger.Warn("Failed to close cache", zap.Error(err))
		}
	}()

	collector := metrics.NewCollector("scout")

	svc := search.New(newSearchClient(token, cfg, logger),
		search.WithCache(resultCache),
		search.WithLogger(logger),
		search.WithMetrics(collector),
		search.WithDefaultLimit(cfg.Search.DefaultLimit),
	)

	restClient, err := github.NewRESTClient(token, cfg.GitHub.APIEndpoint, transportConfig(cfg, logger))
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Search:         svc,
		REST:           restClient,
		Logger:         logger,
		Metrics:        collector,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		DefaultLimit:   cfg.Search.DefaultLimit,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
	})

	logger.Info("Scout starting",
		zap.String("version", version.Version),
		zap.String("graphql_endpoint", cfg.GitHub.GraphQLEndpoint),
		zap.String("cache", cfg.EffectiveCacheMode()),
		zap.Bool("dev_mode", cfg.Server.DevMode))

	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
