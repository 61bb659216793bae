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

// Package search runs the filtered user search. A single invocation keeps
// fetching upstream pages until at least one user survives the filters or
// the upstream result set is exhausted, so a client never sees an empty page
// while more results exist.
package search

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/sirseerhq/sirseer-scout/internal/cache"
	"github.com/sirseerhq/sirseer-scout/internal/enrich"
	"github.com/sirseerhq/sirseer-scout/internal/filter"
	"github.com/sirseerhq/sirseer-scout/internal/github"
	"github.com/sirseerhq/sirseer-scout/internal/metadata"
	"github.com/sirseerhq/sirseer-scout/internal/metrics"
)

const (
	kindInfinite = "infinite"
	kindSingle   = "single"
)

// Service runs searches against a GitHub client.
type Service struct {
	client       github.Client
	cache        cache.Cache
	now          func() time.Time
	logger       *zap.Logger
	metrics      *metrics.Collector
	defaultLimit int
}

// Option configures a Service.
type Option func(*Service)

// WithCache sets the page cache. The default is cache.Nop.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithClock sets the clock used for activity indexes.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector. A nil collector records nothing.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithDefaultLimit sets the page size used when a request has none.
func WithDefaultLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.defaultLimit = limit
		}
	}
}

// New creates a Service.
func New(client github.Client, opts ...Option) *Service {
	s := &Service{
		client:       client,
		cache:        cache.Nop{},
		now:          time.Now,
		logger:       zap.NewNop(),
		defaultLimit: DefaultLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchUsersInfinite returns the next non-empty filtered page for req.
// See SearchUsersInfiniteTracked.
func (s *Service) SearchUsersInfinite(ctx context.Context, req Request) (*Page, error) {
	return s.SearchUsersInfiniteTracked(ctx, req, nil)
}

type loopState int

const (
	stateFetching loopState = iota
	stateEvaluating
	stateDone
)

// SearchUsersInfiniteTracked fetches pages starting at req.Cursor until at
// least one user passes req.Filters or the results run out. The returned
// page carries the totalCount and pageInfo of the last page fetched, only
// that page's surviving users, and counts accumulated over every page
// fetched. A run that exhausts the results with nothing surviving returns
// an empty page with HasNextPage false.
//
// Client errors are returned unchanged. If tracker is nil a private one is
// used.
func (s *Service) SearchUsersInfiniteTracked(ctx context.Context, req Request, tracker *metadata.Tracker) (*Page, error) {
	req = req.WithDefaults(s.defaultLimit)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if tracker == nil {
		tracker = metadata.NewWithClock(s.now)
	}

	key := Signature(kindInfinite, req)
	if page, ok := s.cached(ctx, key); ok {
		return page, nil
	}

	opts := github.SearchOptions{
		Query:    BuildQuery(req.Query, req.Location, req.Language),
		PageSize: req.Limit,
		After:    req.Cursor,
		Extended: req.Extended,
	}

	var (
		state     = stateFetching
		upstream  *github.UserPage
		items     []enrich.User
		hasNext   bool
		retrieved int
		filtered  int
		pages     int
	)

	for state != stateDone {
		switch state {
		case stateFetching:
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			page, err := s.fetch(ctx, opts, tracker)
			if err != nil {
				return nil, err
			}
			upstream = page
			pages++
			state = stateEvaluating

		case stateEvaluating:
			now := s.now()
			enriched := enrich.EnrichAll(upstream.Users, now)
			items = filter.Apply(enriched, req.Filters)

			retrieved += len(upstream.Users)
			filtered += len(items)
			tracker.RecordPage(len(upstream.Users), len(items), upstream.EndCursor)
			for i := range upstream.Users {
				tracker.UpdateUserStats(upstream.Users[i].UpdatedAt)
			}

			hasNext = upstream.HasNextPage &&
				upstream.EndCursor != "" &&
				upstream.EndCursor != opts.After

			s.logger.Debug("Evaluated search page",
				zap.Int("page", pages),
				zap.String("cursor", opts.After),
				zap.Int("retrieved", len(upstream.Users)),
				zap.Int("filtered", len(items)),
				zap.Bool("has_next", hasNext))

			if isDone(filtered, hasNext) {
				state = stateDone
				continue
			}
			opts.After = upstream.EndCursor
			state = stateFetching
		}
	}

	if items == nil {
		items = []enrich.User{}
	}
	result := &Page{
		TotalCount: upstream.TotalCount,
		PageInfo: PageInfo{
			HasNextPage: hasNext,
			EndCursor:   upstream.EndCursor,
		},
		Items:          items,
		RetrievedCount: retrieved,
		FilteredCount:  filtered,
	}

	s.metrics.RecordSearch(pages, retrieved, filtered)
	s.logger.Info("Search completed",
		zap.String("query", req.Query),
		zap.String("filters", req.Filters.String()),
		zap.Int("pages", pages),
		zap.Int("api_calls", tracker.APICalls()),
		zap.Int("retrieved", retrieved),
		zap.Int("filtered", filtered),
		zap.Duration("duration", tracker.Elapsed()))

	s.store(ctx, key, result)
	return result, nil
}

// isDone reports whether the loop may stop: something survived the
// filters, or there is nothing left to fetch.
func isDone(filtered int, hasNext bool) bool {
	return filtered >= 1 || !hasNext
}

// SearchUsers fetches and enriches a single page for query with no filters
// and no pagination loop.
func (s *Service) SearchUsers(ctx context.Context, query string) (*Page, error) {
	req := Request{Query: query}.WithDefaults(s.defaultLimit)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := Signature(kindSingle, req)
	if page, ok := s.cached(ctx, key); ok {
		return page, nil
	}

	tracker := metadata.NewWithClock(s.now)
	upstream, err := s.fetch(ctx, github.SearchOptions{
		Query:    BuildQuery(req.Query, "", ""),
		PageSize: req.Limit,
	}, tracker)
	if err != nil {
		return nil, err
	}

	items := filter.Apply(enrich.EnrichAll(upstream.Users, s.now()), filter.Filters{})
	result := &Page{
		TotalCount: upstream.TotalCount,
		PageInfo: PageInfo{
			HasNextPage: upstream.HasNextPage,
			EndCursor:   upstream.EndCursor,
		},
		Items:          items,
		RetrievedCount: len(upstream.Users),
		FilteredCount:  len(items),
	}

	s.metrics.RecordSearch(1, result.RetrievedCount, result.FilteredCount)
	s.store(ctx, key, result)
	return result, nil
}

func (s *Service) fetch(ctx context.Context, opts github.SearchOptions, tracker *metadata.Tracker) (*github.UserPage, error) {
	tracker.IncrementAPICall()
	start := time.Now()
	page, err := s.client.SearchUsers(ctx, opts)
	s.metrics.RecordUpstreamCall(err, time.Since(start))
	if err != nil {
		return nil, err
	}
	if page == nil {
		page = &github.UserPage{}
	}
	return page, nil
}

func (s *Service) cached(ctx context.Context, key string) (*Page, bool) {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Cache read failed", zap.Error(err))
		s.metrics.RecordCache(false)
		return nil, false
	}
	if !ok {
		s.metrics.RecordCache(false)
		return nil, false
	}

	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		s.logger.Warn("Discarding corrupt cache entry", zap.Error(err))
		s.metrics.RecordCache(false)
		return nil, false
	}
	s.metrics.RecordCache(true)
	return &page, true
}

func (s *Service) store(ctx context.Context, key string, page *Page) {
	data, err := json.Marshal(page)
	if err != nil {
		s.logger.Warn("Cache encode failed", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data); err != nil {
		s.logger.Warn("Cache write failed", zap.Error(err))
	}
}
