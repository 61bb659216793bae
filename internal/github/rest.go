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
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v80/github"

	scouterrors "github.com/sirseerhq/sirseer-scout/internal/errors"
	"github.com/sirseerhq/sirseer-scout/internal/giterror"
)

// RESTUser is the subset of the REST search item the API exposes.
type RESTUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
	URL       string `json:"url"`
	Type      string `json:"type"`
}

// RESTSearchResult is one page of REST user search results.
type RESTSearchResult struct {
	TotalCount        int        `json:"totalCount"`
	IncompleteResults bool       `json:"incompleteResults"`
	Items             []RESTUser `json:"items"`
}

// RESTClient searches users through the REST search endpoint. It shares the
// GraphQL client's transport, so throttling and the rate-limit retry apply.
type RESTClient struct {
	gh        *gh.Client
	inspector giterror.Inspector
}

// NewRESTClient creates a REST client. An empty apiEndpoint uses api.github.com.
func NewRESTClient(token, apiEndpoint string, cfg *TransportConfig) (*RESTClient, error) {
	client := gh.NewClient(newHTTPClient(token, cfg))

	if apiEndpoint != "" {
		if !strings.HasSuffix(apiEndpoint, "/") {
			apiEndpoint += "/"
		}
		base, err := url.Parse(apiEndpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid API endpoint %q: %w", apiEndpoint, err)
		}
		client.BaseURL = base
	}

	return &RESTClient{
		gh:        client,
		inspector: giterror.NewErrorChainInspector(giterror.NewInspector()),
	}, nil
}

// SearchUsersByQualifiers searches users by location and language. At least
// one qualifier must be non-empty.
func (c *RESTClient) SearchUsersByQualifiers(ctx context.Context, location, language string, page, perPage int) (*RESTSearchResult, error) {
	query := strings.TrimSpace(strings.Join([]string{
		Qualifier("location", location),
		Qualifier("language", language),
	}, " "))
	if query == "" {
		return nil, fmt.Errorf("location or language is required: %w", scouterrors.ErrValidation)
	}

	opts := &gh.SearchOptions{
		ListOptions: gh.ListOptions{Page: page, PerPage: clampPageSize(perPage)},
	}

	result, _, err := c.gh.Search.Users(ctx, query, opts)
	if err != nil {
		return nil, c.wrapError(err)
	}

	out := &RESTSearchResult{
		TotalCount:        result.GetTotal(),
		IncompleteResults: result.GetIncompleteResults(),
		Items:             make([]RESTUser, 0, len(result.Users)),
	}
	for _, u := range result.Users {
		out.Items = append(out.Items, RESTUser{
			ID:        u.GetID(),
			Login:     u.GetLogin(),
			AvatarURL: u.GetAvatarURL(),
			URL:       u.GetHTMLURL(),
			Type:      u.GetType(),
		})
	}

	return out, nil
}

func (c *RESTClient) wrapError(err error) error {
	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return fmt.Errorf("GitHub API rate limit exceeded: %w", scouterrors.ErrRateLimit)
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return fmt.Errorf("GitHub secondary rate limit exceeded: %w", scouterrors.ErrRateLimit)
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		// Classify by status; the message embeds the request URL, which
		// string inspection could misread.
		switch ghErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("GitHub API authentication failed: %w", scouterrors.ErrInvalidToken)
		case http.StatusUnprocessableEntity:
			return fmt.Errorf("%s: %w", ghErr.Message, scouterrors.ErrValidation)
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return fmt.Errorf("GitHub API unavailable (%d): %w", ghErr.Response.StatusCode, scouterrors.ErrNetworkFailure)
		default:
			return fmt.Errorf("GitHub API error (%d) %s: %w", ghErr.Response.StatusCode, ghErr.Message, scouterrors.ErrUpstream)
		}
	}

	return mapUpstreamError(c.inspector, err)
}

// Qualifier renders a search qualifier such as location:"San Francisco".
// Empty values render as the empty string.
func Qualifier(key, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if strings.ContainsAny(value, " \t") {
		value = `"` + strings.ReplaceAll(value, `"`, "") + `"`
	}
	return key + ":" + value
}
