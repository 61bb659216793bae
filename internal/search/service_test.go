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

package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirseerhq/sirseer-scout/internal/cache"
	scouterrors "github.com/sirseerhq/sirseer-scout/internal/errors"
	"github.com/sirseerhq/sirseer-scout/internal/filter"
	"github.com/sirseerhq/sirseer-scout/internal/github"
	"github.com/sirseerhq/sirseer-scout/internal/metadata"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// clientFunc adapts a function to github.Client.
type clientFunc func(ctx context.Context, opts github.SearchOptions) (*github.UserPage, error)

func (f clientFunc) SearchUsers(ctx context.Context, opts github.SearchOptions) (*github.UserPage, error) {
	return f(ctx, opts)
}

func rawUser(n int, website string) github.RawUser {
	return github.RawUser{
		ID:         fmt.Sprintf("U_%d", n),
		Login:      fmt.Sprintf("user%d", n),
		WebsiteURL: website,
		UpdatedAt:  fixedNow.AddDate(0, -1, 0),
	}
}

// batch returns count users numbered from start, none with a website.
func batch(start, count int) []github.RawUser {
	users := make([]github.RawUser, 0, count)
	for i := 0; i < count; i++ {
		users = append(users, rawUser(start+i, ""))
	}
	return users
}

func newService(client github.Client, opts ...Option) *Service {
	return New(client, append([]Option{WithClock(clock)}, opts...)...)
}

func TestSearchUsersInfinite_StopsOnFirstMatchingPage(t *testing.T) {
	mock := github.NewMockClient(
		append(batch(1, 9), rawUser(10, "https://ten.dev")),
		batch(11, 10),
	)
	svc := newService(mock)

	page, err := svc.SearchUsersInfinite(context.Background(), Request{
		Query:   "golang",
		Limit:   10,
		Filters: filter.Filters{HasWebsiteURL: true},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, mock.CallCount)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "user10", page.Items[0].Login)
	assert.Equal(t, 10, page.RetrievedCount)
	assert.Equal(t, 1, page.FilteredCount)
	assert.True(t, page.PageInfo.HasNextPage)
	assert.Equal(t, "cursor-1", page.PageInfo.EndCursor)
	assert.Equal(t, 20, page.TotalCount)
}

func TestSearchUsersInfinite_SkipsStarvedPages(t *testing.T) {
	mock := github.NewMockClient(
		batch(1, 5),
		batch(6, 5),
		batch(11, 5),
		[]github.RawUser{rawUser(16, ""), rawUser(17, "https://seventeen.dev")},
		batch(18, 5),
	)
	svc := newService(mock)

	page, err := svc.SearchUsersInfinite(context.Background(), Request{
		Query:   "rust",
		Limit:   5,
		Filters: filter.Filters{HasWebsiteURL: true},
	})
	require.NoError(t, err)

	calls := mock.Recorded()
	require.Len(t, calls, 4)
	for i, want := range []string{"", "cursor-1", "cursor-2", "cursor-3"} {
		assert.Equal(t, want, calls[i].After, "call %d cursor", i+1)
		assert.Equal(t, "rust type:user", calls[i].Query)
		assert.Equal(t, 5, calls[i].PageSize)
	}

	require.Len(t, page.Items, 1)
	assert.Equal(t, "user17", page.Items[0].Login)
	assert.Equal(t, 17, page.RetrievedCount)
	assert.Equal(t, 1, page.FilteredCount)
	assert.Equal(t, PageInfo{HasNextPage: true, EndCursor: "cursor-4"}, page.PageInfo)
}

func TestSearchUsersInfinite_Exhausted(t *testing.T) {
	mock := github.NewMockClient(batch(1, 3), batch(4, 3))
	svc := newService(mock)

	page, err := svc.SearchUsersInfinite(context.Background(), Request{
		Query:   "nobody",
		Filters: filter.Filters{HasWebsiteURL: true},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, mock.CallCount)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 6, page.RetrievedCount)
	assert.Equal(t, 0, page.FilteredCount)
	assert.False(t, page.PageInfo.HasNextPage)
	assert.Equal(t, "cursor-2", page.PageInfo.EndCursor)
}

func TestSearchUsersInfinite_NoResults(t *testing.T) {
	mock := github.NewMockClientWithOptions(github.WithPages(github.UserPage{}))
	svc := newService(mock)

	page, err := svc.SearchUsersInfinite(context.Background(), Request{Query: "zzzz"})
	require.NoError(t, err)

	assert.Equal(t, 1, mock.CallCount)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.TotalCount)
	assert.False(t, page.PageInfo.HasNextPage)
}

func TestSearchUsersInfinite_ConsecutiveCallsAreDisjoint(t *testing.T) {
	mock := github.NewMockClient(
		[]github.RawUser{rawUser(1, "https://one.dev"), rawUser(2, "")},
		batch(3, 2),
		[]github.RawUser{rawUser(5, "https://five.dev"), rawUser(6, "https://six.dev")},
	)
	svc := newService(mock)
	req := Request{Query: "go", Limit: 2, Filters: filter.Filters{HasWebsiteURL: true}}

	seen := map[string]bool{}
	var logins []string
	for {
		page, err := svc.SearchUsersInfinite(context.Background(), req)
		require.NoError(t, err)
		for _, u := range page.Items {
			assert.False(t, seen[u.ID], "user %s returned twice", u.ID)
			seen[u.ID] = true
			logins = append(logins, u.Login)
		}
		if !page.PageInfo.HasNextPage {
			break
		}
		req.Cursor = page.PageInfo.EndCursor
	}

	assert.Equal(t, []string{"user1", "user5", "user6"}, logins)
	assert.Equal(t, 3, mock.CallCount)
}

func TestSearchUsersInfinite_EmptyEndCursorEndsLoop(t *testing.T) {
	mock := github.NewMockClientWithOptions(github.WithPages(github.UserPage{
		TotalCount:  50,
		Users:       batch(1, 2),
		HasNextPage: true,
	}))
	svc := newService(mock)

	page, err := svc.SearchUsersInfinite(context.Background(), Request{
		Query:   "go",
		Filters: filter.Filters{HasWebsiteURL: true},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, mock.CallCount)
	assert.False(t, page.PageInfo.HasNextPage)
	assert.Empty(t, page.Items)
}

func TestSearchUsersInfinite_NonAdvancingCursorEndsLoop(t *testing.T) {
	calls := 0
	client := clientFunc(func(_ context.Context, opts github.SearchOptions) (*github.UserPage, error) {
		calls++
		return &github.UserPage{
			TotalCount:  100,
			Users:       batch(calls, 1),
			HasNextPage: true,
			EndCursor:   "stuck",
		}, nil
	})
	svc := newService(client)

	page, err := svc.SearchUsersInfinite(context.Background(), Request{
		Query:   "go",
		Cursor:  "stuck",
		Filters: filter.Filters{HasWebsiteURL: true},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.False(t, page.PageInfo.HasNextPage)
	assert.Equal(t, "stuck", page.PageInfo.EndCursor)
}

func TestSearchUsersInfinite_PropagatesClientErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"auth", fmt.Errorf("bad credentials: %w", scouterrors.ErrInvalidToken), scouterrors.ErrInvalidToken},
		{"rate limit", fmt.Errorf("quota: %w", scouterrors.ErrRateLimit), scouterrors.ErrRateLimit},
		{"network", fmt.Errorf("dial: %w", scouterrors.ErrNetworkFailure), scouterrors.ErrNetworkFailure},
		{"upstream", fmt.Errorf("boom: %w", scouterrors.ErrUpstream), scouterrors.ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := github.NewMockClient(batch(1, 2), batch(3, 2))
			mock.Error = tt.err
			mock.ErrorOnCall = 2
			svc := newService(mock)

			page, err := svc.SearchUsersInfinite(context.Background(), Request{
				Query:   "go",
				Filters: filter.Filters{HasWebsiteURL: true},
			})

			assert.Nil(t, page)
			assert.Equal(t, tt.err, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, 2, mock.CallCount)
		})
	}
}

func TestSearchUsersInfinite_Cancelled(t *testing.T) {
	t.Run("before first fetch", func(t *testing.T) {
		mock := github.NewMockClient(batch(1, 2))
		svc := newService(mock)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := svc.SearchUsersInfinite(ctx, Request{Query: "go"})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, mock.CallCount)
	})

	t.Run("between pages", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		calls := 0
		client := clientFunc(func(_ context.Context, opts github.SearchOptions) (*github.UserPage, error) {
			calls++
			cancel()
			return &github.UserPage{
				Users:       batch(calls, 1),
				HasNextPage: true,
				EndCursor:   fmt.Sprintf("c%d", calls),
			}, nil
		})
		svc := newService(client)

		_, err := svc.SearchUsersInfinite(ctx, Request{
			Query:   "go",
			Filters: filter.Filters{HasWebsiteURL: true},
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestSearchUsersInfinite_NilPageIsEmpty(t *testing.T) {
	client := clientFunc(func(context.Context, github.SearchOptions) (*github.UserPage, error) {
		return nil, nil
	})
	svc := newService(client)

	page, err := svc.SearchUsersInfinite(context.Background(), Request{Query: "go"})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.PageInfo.HasNextPage)
}

func TestSearchUsersInfinite_QueryComposition(t *testing.T) {
	mock := github.NewMockClient(batch(1, 1))
	svc := newService(mock)

	_, err := svc.SearchUsersInfinite(context.Background(), Request{
		Query:    "  data science ",
		Location: "San Francisco",
		Language: "go",
		Extended: true,
	})
	require.NoError(t, err)

	calls := mock.Recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, `data science location:"San Francisco" language:go type:user`, calls[0].Query)
	assert.True(t, calls[0].Extended)
	assert.Equal(t, DefaultLimit, calls[0].PageSize)
}

func TestSearchUsersInfinite_DefaultLimit(t *testing.T) {
	mock := github.NewMockClient(batch(1, 1))
	svc := newService(mock, WithDefaultLimit(25))

	_, err := svc.SearchUsersInfinite(context.Background(), Request{Query: "go"})
	require.NoError(t, err)
	assert.Equal(t, 25, mock.Recorded()[0].PageSize)
}

func TestSearchUsersInfinite_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		problem string
	}{
		{"empty query", Request{}, "query is required"},
		{"blank query", Request{Query: "   "}, "query is required"},
		{"limit too large", Request{Query: "go", Limit: 101}, "limit must be at most 100"},
		{"negative limit", Request{Query: "go", Limit: -1}, "limit must be at least 1"},
		{"query too long", Request{Query: strings.Repeat("a", 257)}, "query must be at most 256 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := github.NewMockClient(batch(1, 1))
			svc := newService(mock)

			_, err := svc.SearchUsersInfinite(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, scouterrors.ErrValidation)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Problems, tt.problem)
			assert.Equal(t, 0, mock.CallCount)
		})
	}
}

func TestSearchUsersInfinite_Cache(t *testing.T) {
	mock := github.NewMockClient(
		[]github.RawUser{rawUser(1, "https://one.dev")},
		batch(2, 1),
	)
	slot := cache.NewSingleSlot()
	svc := newService(mock, WithCache(slot))
	req := Request{Query: "go", Filters: filter.Filters{HasWebsiteURL: true}}

	first, err := svc.SearchUsersInfinite(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.SearchUsersInfinite(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, mock.CallCount)
	assert.Equal(t, first.PageInfo, second.PageInfo)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "user1", second.Items[0].Login)

	// A different filter set is a different search.
	req.Filters = filter.Filters{}
	_, err = svc.SearchUsersInfinite(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.CallCount)
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, []byte) error {
	return errors.New("cache down")
}

func TestSearchUsersInfinite_CacheErrorsAreIgnored(t *testing.T) {
	mock := github.NewMockClient(batch(1, 1))
	svc := newService(mock, WithCache(failingCache{}))

	page, err := svc.SearchUsersInfinite(context.Background(), Request{Query: "go"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestSearchUsersInfiniteTracked(t *testing.T) {
	mock := github.NewMockClient(batch(1, 2), batch(3, 2), batch(5, 2))
	svc := newService(mock)
	tracker := metadata.NewWithClock(clock)

	_, err := svc.SearchUsersInfiniteTracked(context.Background(), Request{
		Query:   "go",
		Limit:   2,
		Filters: filter.Filters{HasWebsiteURL: true},
	}, tracker)
	require.NoError(t, err)

	stats := tracker.Stats()
	assert.Equal(t, 3, tracker.APICalls())
	assert.Equal(t, 3, stats.Pages)
	assert.Equal(t, 6, stats.Retrieved)
	assert.Equal(t, 0, stats.Filtered)
	assert.Equal(t, "cursor-3", stats.LastCursor)
}

func TestSearchUsersInfinite_UsesInjectedClock(t *testing.T) {
	user := rawUser(1, "")
	user.UpdatedAt = fixedNow.AddDate(0, -4, 0)
	mock := github.NewMockClient([]github.RawUser{user})
	svc := newService(mock)

	page, err := svc.SearchUsersInfinite(context.Background(), Request{Query: "go"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 4, page.Items[0].ExtendedAttributes.ActivityIndex)

	page, err = svc.SearchUsersInfinite(context.Background(), Request{
		Query:   "go",
		Limit:   11,
		Filters: filter.Filters{RecentlyActive: true},
	})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestSearchUsers_SinglePage(t *testing.T) {
	mock := github.NewMockClient(
		[]github.RawUser{rawUser(1, ""), {}, rawUser(2, "https://two.dev")},
		batch(3, 3),
	)
	svc := newService(mock)

	page, err := svc.SearchUsers(context.Background(), "go")
	require.NoError(t, err)

	assert.Equal(t, 1, mock.CallCount)
	assert.Equal(t, "go type:user", mock.Recorded()[0].Query)
	assert.Equal(t, DefaultLimit, mock.Recorded()[0].PageSize)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.RetrievedCount)
	assert.Equal(t, 2, page.FilteredCount)
	assert.True(t, page.PageInfo.HasNextPage)
}

func TestSearchUsers_Errors(t *testing.T) {
	svc := newService(github.NewMockClientWithOptions(github.WithAuthFailure()))

	_, err := svc.SearchUsers(context.Background(), "go")
	assert.ErrorIs(t, err, scouterrors.ErrInvalidToken)

	_, err = svc.SearchUsers(context.Background(), "")
	assert.ErrorIs(t, err, scouterrors.ErrValidation)
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		text, location, language string
		want                     string
	}{
		{"golang", "", "", "golang type:user"},
		{"", "Berlin", "", "location:Berlin type:user"},
		{"ml", "New York", "python", `ml location:"New York" language:python type:user`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BuildQuery(tt.text, tt.location, tt.language))
	}
}

func TestSignature(t *testing.T) {
	base := Request{Query: "go", Limit: 10}

	assert.Equal(t, Signature(kindInfinite, base), Signature(kindInfinite, base))

	variants := []Request{
		{Query: "rust", Limit: 10},
		{Query: "go", Limit: 20},
		{Query: "go", Limit: 10, Cursor: "c1"},
		{Query: "go", Limit: 10, Extended: true},
		{Query: "go", Limit: 10, Filters: filter.Filters{NoCompany: true}},
		{Query: "go", Limit: 10, Location: "Paris"},
	}
	for _, v := range variants {
		assert.NotEqual(t, Signature(kindInfinite, base), Signature(kindInfinite, v), "%+v", v)
	}
	assert.NotEqual(t, Signature(kindInfinite, base), Signature(kindSingle, base))
}
