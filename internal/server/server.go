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

// Package server exposes the user search over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sirseerhq/sirseer-scout/internal/github"
	"github.com/sirseerhq/sirseer-scout/internal/metrics"
	"github.com/sirseerhq/sirseer-scout/internal/search"
)

const shutdownTimeout = 30 * time.Second

// Searcher runs user searches. *search.Service implements it.
type Searcher interface {
	SearchUsersInfinite(ctx context.Context, req search.Request) (*search.Page, error)
	SearchUsers(ctx context.Context, query string) (*search.Page, error)
}

// QualifierSearcher runs REST searches by location and language.
// *github.RESTClient implements it.
type QualifierSearcher interface {
	SearchUsersByQualifiers(ctx context.Context, location, language string, page, perPage int) (*github.RESTSearchResult, error)
}

// Options configures a Server.
type Options struct {
	Search         Searcher
	REST           QualifierSearcher // optional; the REST route is not mounted when nil
	Logger         *zap.Logger
	Metrics        *metrics.Collector
	AllowedOrigins []string
	DefaultLimit   int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Server is the HTTP front end of the search service.
type Server struct {
	search         Searcher
	rest           QualifierSearcher
	logger         *zap.Logger
	metrics        *metrics.Collector
	allowedOrigins []string
	defaultLimit   int
	readTimeout    time.Duration
	writeTimeout   time.Duration
}

// New creates a Server.
func New(opts Options) *Server {
	s := &Server{
		search:         opts.Search,
		rest:           opts.REST,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		allowedOrigins: opts.AllowedOrigins,
		defaultLimit:   opts.DefaultLimit,
		readTimeout:    opts.ReadTimeout,
		writeTimeout:   opts.WriteTimeout,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if len(s.allowedOrigins) == 0 {
		s.allowedOrigins = []string{"*"}
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = search.DefaultLimit
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(s.logger))
	router.Use(requestMetrics(s.metrics))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/health", s.handleHealth)
	router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	router.Route("/api/search/users", func(r chi.Router) {
		// A selective filter can take many throttled upstream pages.
		r.Use(requestDeadline(searchBudget(s.writeTimeout)))
		r.Get("/", s.handleSearchUsers)
		r.Post("/", s.handleSearchUsers)
		r.Get("/simple", s.handleSearchUsersSimple)
		if s.rest != nil {
			r.Get("/rest", s.handleSearchUsersREST)
		}
	})

	return router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.String("address", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
