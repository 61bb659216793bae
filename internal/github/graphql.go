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

package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shurcooL/graphql"
	"go.uber.org/zap"

	scouterrors "github.com/sirseerhq/sirseer-scout/internal/errors"
	"github.com/sirseerhq/sirseer-scout/internal/giterror"
)

// GraphQLClient implements the GitHub Client interface using GraphQL API.
// It provides efficient access to GitHub's user search with support for
// pagination, error handling, and safety features like throttling,
// a single rate-limit retry and response size limits.
type GraphQLClient struct {
	client    *graphql.Client
	inspector giterror.Inspector
}

// NewGraphQLClient creates a new GitHub GraphQL client with the provided token and endpoint.
// The client is configured with:
//   - Bearer authentication via an oauth2 static token source
//   - Custom GraphQL endpoint URL (e.g., for GitHub Enterprise)
//   - Proactive request throttling and one transparent retry on rate limits
//   - Response size limiting to prevent memory issues
//   - User-Agent header for API compliance
//
// A nil cfg uses DefaultTransportConfig.
func NewGraphQLClient(token, endpoint string, cfg *TransportConfig) *GraphQLClient {
	return &GraphQLClient{
		client:    graphql.NewClient(endpoint, newHTTPClient(token, cfg)),
		inspector: giterror.NewErrorChainInspector(giterror.NewInspector()),
	}
}

type pageInfo struct {
	HasNextPage graphql.Boolean
	EndCursor   graphql.String
}

// userFields is the base selection requested for every search.
type userFields struct {
	AvatarURL graphql.String `graphql:"avatarUrl"`
	Bio       graphql.String
	ID        graphql.String `graphql:"id"`
	Followers struct {
		TotalCount graphql.Int
	}
	Login      graphql.String
	Name       graphql.String
	UpdatedAt  time.Time
	URL        graphql.String `graphql:"url"`
	WebsiteURL graphql.String `graphql:"websiteUrl"`
}

// extendedUserFields adds contact and hireability signals to userFields.
type extendedUserFields struct {
	AvatarURL graphql.String `graphql:"avatarUrl"`
	Bio       graphql.String
	ID        graphql.String `graphql:"id"`
	Followers struct {
		TotalCount graphql.Int
	}
	Login      graphql.String
	Name       graphql.String
	UpdatedAt  time.Time
	URL        graphql.String `graphql:"url"`
	WebsiteURL graphql.String `graphql:"websiteUrl"`

	Company            graphql.String
	CreatedAt          time.Time
	Email              graphql.String
	HasSponsorsListing graphql.Boolean
	IsHireable         graphql.Boolean
	Location           graphql.String
	SocialAccounts     struct {
		TotalCount graphql.Int
		Nodes      []struct {
			DisplayName graphql.String
			Provider    graphql.String
			URL         graphql.String `graphql:"url"`
		}
	} `graphql:"socialAccounts(first: 10)"`
	Status *struct {
		Message graphql.String
	}
	TwitterUsername graphql.String
}

// Non-User nodes (organizations can match a user search) leave the fragment
// empty and decode to a zero RawUser.
type userSearchQuery struct {
	Search struct {
		TotalCount graphql.Int `graphql:"totalCount: userCount"`
		PageInfo   pageInfo
		Items      []struct {
			User userFields `graphql:"... on User"`
		} `graphql:"items: nodes"`
	} `graphql:"search(query: $q, type: USER, first: $perPage, after: $after)"`
}

type extendedUserSearchQuery struct {
	Search struct {
		TotalCount graphql.Int `graphql:"totalCount: userCount"`
		PageInfo   pageInfo
		Items      []struct {
			User extendedUserFields `graphql:"... on User"`
		} `graphql:"items: nodes"`
	} `graphql:"search(query: $q, type: USER, first: $perPage, after: $after)"`
}

// SearchUsers fetches a page of users matching opts.Query.
// It supports cursor-based pagination via the opts.After parameter and configurable
// page sizes through opts.PageSize. The method returns a UserPage containing
// the users and pagination information needed to fetch subsequent pages.
func (c *GraphQLClient) SearchUsers(ctx context.Context, opts SearchOptions) (*UserPage, error) {
	variables := map[string]interface{}{
		"q":       graphql.String(opts.Query),
		"perPage": graphql.Int(int32(clampPageSize(opts.PageSize))), // #nosec G115 - capped at 100
		"after":   afterCursor(opts.After),
	}

	if opts.Extended {
		var query extendedUserSearchQuery
		if err := c.client.Query(ctx, &query, variables); err != nil {
			return nil, c.mapError(err)
		}
		page := newUserPage(query.Search.TotalCount, query.Search.PageInfo, len(query.Search.Items))
		for _, item := range query.Search.Items {
			page.Users = append(page.Users, item.User.toRawUser())
		}
		return page, nil
	}

	var query userSearchQuery
	if err := c.client.Query(ctx, &query, variables); err != nil {
		return nil, c.mapError(err)
	}
	page := newUserPage(query.Search.TotalCount, query.Search.PageInfo, len(query.Search.Items))
	for _, item := range query.Search.Items {
		page.Users = append(page.Users, item.User.toRawUser())
	}
	return page, nil
}

func newUserPage(total graphql.Int, info pageInfo, size int) *UserPage {
	return &UserPage{
		TotalCount:  int(total),
		HasNextPage: bool(info.HasNextPage),
		EndCursor:   string(info.EndCursor),
		Users:       make([]RawUser, 0, size),
	}
}

// afterCursor returns a typed nil for the first page so the query still
// declares $after as a nullable String.
func afterCursor(after string) *graphql.String {
	if after == "" {
		return nil
	}
	return graphql.NewString(graphql.String(after))
}

func clampPageSize(size int) int {
	switch {
	case size <= 0:
		return DefaultPageSize
	case size > MaxPageSize:
		return MaxPageSize
	default:
		return size
	}
}

func (u userFields) toRawUser() RawUser {
	return RawUser{
		ID:         string(u.ID),
		Login:      string(u.Login),
		Name:       string(u.Name),
		AvatarURL:  string(u.AvatarURL),
		URL:        string(u.URL),
		WebsiteURL: string(u.WebsiteURL),
		Bio:        string(u.Bio),
		UpdatedAt:  u.UpdatedAt,
		Followers:  Count{TotalCount: int(u.Followers.TotalCount)},
	}
}

func (u extendedUserFields) toRawUser() RawUser {
	user := RawUser{
		ID:                 string(u.ID),
		Login:              string(u.Login),
		Name:               string(u.Name),
		AvatarURL:          string(u.AvatarURL),
		URL:                string(u.URL),
		WebsiteURL:         string(u.WebsiteURL),
		Bio:                string(u.Bio),
		UpdatedAt:          u.UpdatedAt,
		Followers:          Count{TotalCount: int(u.Followers.TotalCount)},
		Company:            string(u.Company),
		CreatedAt:          u.CreatedAt,
		Email:              string(u.Email),
		Location:           string(u.Location),
		TwitterUsername:    string(u.TwitterUsername),
		IsHireable:         bool(u.IsHireable),
		HasSponsorsListing: bool(u.HasSponsorsListing),
		SocialAccounts: SocialAccounts{
			TotalCount: int(u.SocialAccounts.TotalCount),
			Nodes:      make([]SocialAccount, 0, len(u.SocialAccounts.Nodes)),
		},
	}

	for _, account := range u.SocialAccounts.Nodes {
		user.SocialAccounts.Nodes = append(user.SocialAccounts.Nodes, SocialAccount{
			Provider:    string(account.Provider),
			URL:         string(account.URL),
			DisplayName: string(account.DisplayName),
		})
	}

	if u.Status != nil {
		user.Status = &UserStatus{Message: string(u.Status.Message)}
	}

	return user
}

// mapError maps GraphQL errors to our domain errors with actionable messages
func (c *GraphQLClient) mapError(err error) error {
	return mapUpstreamError(c.inspector, err)
}

func mapUpstreamError(inspector giterror.Inspector, err error) error {
	if err == nil {
		return nil
	}

	// Context errors keep their identity so callers can tell cancellation apart
	if ctxErr := contextError(err); ctxErr != nil {
		return ctxErr
	}

	switch giterror.Classify(inspector, err) {
	case giterror.KindRateLimit:
		return fmt.Errorf("GitHub API rate limit exceeded. Please wait before retrying: %w", scouterrors.ErrRateLimit)
	case giterror.KindAuth:
		return fmt.Errorf("GitHub API authentication failed. Please provide a valid token via --token flag or GITHUB_TOKEN environment variable: %w", scouterrors.ErrInvalidToken)
	case giterror.KindComplexity:
		return fmt.Errorf("GraphQL query complexity exceeded. Reducing the page size may help: %w", scouterrors.ErrQueryComplexity)
	case giterror.KindNetwork:
		return fmt.Errorf("network error connecting to GitHub API. Please check your internet connection and try again: %w", scouterrors.ErrNetworkFailure)
	}

	return fmt.Errorf("failed to search users: %v: %w", err, scouterrors.ErrUpstream)
}

func contextError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return context.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return context.DeadlineExceeded
	}
	return nil
}

// limitedReader wraps a ReadCloser with a size limit to prevent excessive memory usage.
type limitedReader struct {
	io.ReadCloser
	limit int64
	read  int64
}

// Read implements io.Reader with size limit enforcement.
func (lr *limitedReader) Read(p []byte) (n int, err error) {
	if lr.read >= lr.limit {
		return 0, fmt.Errorf("response size exceeded limit of %d bytes", lr.limit)
	}

	// Calculate how much we can read
	remaining := lr.limit - lr.read
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err = lr.ReadCloser.Read(p)
	lr.read += int64(n)

	return n, err
}

// newPooledTransport returns the connection-pooled base transport shared by
// the GraphQL and REST clients.
func newPooledTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
