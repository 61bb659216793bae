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
	"testing"

	scouterrors "github.com/sirseerhq/sirseer-scout/internal/errors"
)

// Compile-time check that MockClient implements Client
var _ Client = (*MockClient)(nil)

func TestMockClient_SearchUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("walks pages by cursor", func(t *testing.T) {
		mock := NewMockClient(
			[]RawUser{{ID: "1", Login: "alice"}, {ID: "2", Login: "bob"}},
			[]RawUser{{ID: "3", Login: "carol"}},
		)

		first, err := mock.SearchUsers(ctx, SearchOptions{Query: "q"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(first.Users) != 2 || !first.HasNextPage || first.EndCursor != "cursor-1" {
			t.Errorf("unexpected first page: %+v", first)
		}
		if first.TotalCount != 3 {
			t.Errorf("expected TotalCount 3, got %d", first.TotalCount)
		}

		second, err := mock.SearchUsers(ctx, SearchOptions{Query: "q", After: first.EndCursor})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(second.Users) != 1 || second.HasNextPage {
			t.Errorf("unexpected second page: %+v", second)
		}

		// Verify call tracking
		if mock.CallCount != 2 {
			t.Errorf("expected 2 calls, got %d", mock.CallCount)
		}
		if calls := mock.Recorded(); calls[1].After != "cursor-1" {
			t.Errorf("expected second call after cursor-1, got %q", calls[1].After)
		}
	})

	t.Run("unknown cursor", func(t *testing.T) {
		mock := NewMockClient([]RawUser{{ID: "1"}})

		_, err := mock.SearchUsers(ctx, SearchOptions{After: "bogus"})
		if !errors.Is(err, scouterrors.ErrUpstream) {
			t.Errorf("expected ErrUpstream, got %v", err)
		}
	})

	t.Run("no pages yields an empty page", func(t *testing.T) {
		page, err := NewMockClient().SearchUsers(ctx, SearchOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Users) != 0 || page.HasNextPage {
			t.Errorf("expected empty page, got %+v", page)
		}
	})

	t.Run("simulates auth failure", func(t *testing.T) {
		mock := NewMockClientWithOptions(WithAuthFailure())

		_, err := mock.SearchUsers(ctx, SearchOptions{})
		if !errors.Is(err, scouterrors.ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("simulates network failure", func(t *testing.T) {
		mock := NewMockClient()
		mock.ShouldFailNetwork = true

		_, err := mock.SearchUsers(ctx, SearchOptions{})
		if !errors.Is(err, scouterrors.ErrNetworkFailure) {
			t.Errorf("expected ErrNetworkFailure, got %v", err)
		}
	})

	t.Run("simulates rate limit", func(t *testing.T) {
		mock := NewMockClient()
		mock.ShouldFailRateLimit = true

		_, err := mock.SearchUsers(ctx, SearchOptions{})
		if !errors.Is(err, scouterrors.ErrRateLimit) {
			t.Errorf("expected ErrRateLimit, got %v", err)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		mock := NewMockClient()

		cancelCtx, cancel := context.WithCancel(context.Background())
		cancel() // Cancel immediately

		_, err := mock.SearchUsers(cancelCtx, SearchOptions{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestMockClientOptions(t *testing.T) {
	t.Run("with custom error", func(t *testing.T) {
		customErr := errors.New("custom error")
		mock := NewMockClientWithOptions(WithError(customErr))

		_, err := mock.SearchUsers(context.Background(), SearchOptions{})
		if !errors.Is(err, customErr) {
			t.Errorf("expected custom error, got %v", err)
		}
	})

	t.Run("error on a specific call", func(t *testing.T) {
		customErr := errors.New("second call fails")
		mock := NewMockClientWithOptions(
			WithPages(
				UserPage{Users: []RawUser{{ID: "1"}}, HasNextPage: true, EndCursor: "a"},
				UserPage{Users: []RawUser{{ID: "2"}}, EndCursor: "b"},
			),
			WithError(customErr),
		)
		mock.ErrorOnCall = 2

		if _, err := mock.SearchUsers(context.Background(), SearchOptions{}); err != nil {
			t.Fatalf("first call should succeed: %v", err)
		}
		if _, err := mock.SearchUsers(context.Background(), SearchOptions{After: "a"}); !errors.Is(err, customErr) {
			t.Errorf("expected custom error on call 2, got %v", err)
		}
	})
}
