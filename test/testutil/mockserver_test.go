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

package testutil

import (
	"context"
	"errors"
	"net/http"
	"testing"

	scouterrors "github.com/sirseerhq/sirseer-scout/internal/errors"
	"github.com/sirseerhq/sirseer-scout/internal/github"
)

// testTransport turns off throttling and rate-limit waits.
var testTransport = &github.TransportConfig{}

func searchItems(t *testing.T, response map[string]interface{}) []map[string]interface{} {
	t.Helper()
	data, ok := response["data"].(map[string]interface{})
	if !ok {
		t.Fatal("response has no data")
	}
	search, ok := data["search"].(map[string]interface{})
	if !ok {
		t.Fatal("response has no search")
	}
	items, ok := search["items"].([]map[string]interface{})
	if !ok {
		t.Fatal("search has no items")
	}
	return items
}

func TestGenerateUserResponse(t *testing.T) {
	tests := []struct {
		name       string
		startNum   int
		endNum     int
		hasMore    bool
		wantCount  int
		wantCursor bool
	}{
		{name: "single user", startNum: 1, endNum: 1, wantCount: 1},
		{name: "multiple users", startNum: 1, endNum: 10, hasMore: true, wantCount: 10, wantCursor: true},
		{name: "offset range", startNum: 11, endNum: 20, wantCount: 10},
		{name: "empty range", startNum: 5, endNum: 3, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := GenerateUserResponse(tt.startNum, tt.endNum, tt.hasMore)
			items := searchItems(t, response)
			if len(items) != tt.wantCount {
				t.Fatalf("Expected %d users, got %d", tt.wantCount, len(items))
			}

			for i, user := range items {
				num := tt.startNum + i
				website, _ := user["websiteUrl"].(string)
				if (num%2 == 0) != (website != "") {
					t.Errorf("user %d website = %q", num, website)
				}
			}

			search := response["data"].(map[string]interface{})["search"].(map[string]interface{})
			pageInfo := search["pageInfo"].(map[string]interface{})
			if pageInfo["hasNextPage"] != tt.hasMore {
				t.Errorf("hasNextPage = %v, want %v", pageInfo["hasNextPage"], tt.hasMore)
			}
			cursor, _ := pageInfo["endCursor"].(*string)
			if (cursor != nil) != tt.wantCursor {
				t.Errorf("endCursor = %v, want present=%v", cursor, tt.wantCursor)
			}
		})
	}
}

func TestUserBuilder(t *testing.T) {
	user := NewUserBuilder(7).
		WithCompany("@acme").
		WithBio("open to freelance work").
		WithSocialAccount("LINKEDIN", "https://linkedin.com/in/user7").
		WithStatus("hacking").
		Build()

	requiredFields := []string{"id", "login", "avatarUrl", "url", "websiteUrl", "updatedAt", "followers", "socialAccounts"}
	for _, field := range requiredFields {
		if _, ok := user[field]; !ok {
			t.Errorf("user missing required field: %s", field)
		}
	}

	if user["login"] != "user7" || user["company"] != "@acme" {
		t.Errorf("unexpected user: %v", user)
	}
	social := user["socialAccounts"].(map[string]interface{})
	if social["totalCount"] != 1 {
		t.Errorf("socialAccounts.totalCount = %v, want 1", social["totalCount"])
	}
	if user["status"] == nil {
		t.Error("status should be set")
	}
}

func TestSearchResponseBuilderError(t *testing.T) {
	response := NewSearchResponseBuilder().WithError("boom").Build()
	if _, ok := response["data"]; ok {
		t.Error("error response should not carry data")
	}
	errs, ok := response["errors"].([]map[string]interface{})
	if !ok || len(errs) != 1 || errs[0]["message"] != "boom" {
		t.Errorf("errors = %v", response["errors"])
	}
}

func TestMockServer(t *testing.T) {
	server := NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		AssertGraphQLRequest(t, r)
		writeJSON(w, GenerateUserResponse(1, 3, false))
	})

	client := github.NewGraphQLClient("test-token", server.GraphQLURL(), testTransport)
	page, err := client.SearchUsers(context.Background(), github.SearchOptions{Query: "go type:user", PageSize: 3})
	if err != nil {
		t.Fatalf("SearchUsers failed: %v", err)
	}
	if len(page.Users) != 3 || page.HasNextPage {
		t.Errorf("page = %d users, hasNext %v", len(page.Users), page.HasNextPage)
	}
	if server.RequestCount() != 1 {
		t.Errorf("RequestCount = %d, want 1", server.RequestCount())
	}
}

func TestErrorServers(t *testing.T) {
	tests := []struct {
		name    string
		server  func(t *testing.T) *MockServer
		wantErr error
	}{
		{"unauthorized", func(t *testing.T) *MockServer { return NewErrorServer(t, http.StatusUnauthorized) }, scouterrors.ErrInvalidToken},
		{"rate limited", func(t *testing.T) *MockServer { return NewRateLimitServer(t, 1, 5) }, scouterrors.ErrRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := tt.server(t)
			client := github.NewGraphQLClient("test-token", server.GraphQLURL(), testTransport)

			_, err := client.SearchUsers(context.Background(), github.SearchOptions{Query: "go type:user"})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransientErrorServer(t *testing.T) {
	server := NewTransientErrorServer(t, 2, http.StatusBadGateway)
	client := github.NewGraphQLClient("test-token", server.GraphQLURL(), testTransport)

	for i := 0; i < 2; i++ {
		if _, err := client.SearchUsers(context.Background(), github.SearchOptions{Query: "go type:user"}); err == nil {
			t.Fatalf("request %d should have failed", i+1)
		}
	}
	page, err := client.SearchUsers(context.Background(), github.SearchOptions{Query: "go type:user"})
	if err != nil {
		t.Fatalf("third request failed: %v", err)
	}
	if len(page.Users) != 10 {
		t.Errorf("got %d users, want 10", len(page.Users))
	}
}

func TestGitHubLikeMockServer_Paginates(t *testing.T) {
	users := make([]map[string]interface{}, 0, 25)
	for i := 1; i <= 25; i++ {
		users = append(users, NewUserBuilder(i).Build())
	}
	server := NewGitHubLikeMockServer(t, users...)
	client := github.NewGraphQLClient("test-token", server.GraphQLURL(), testTransport)

	var (
		logins []string
		after  string
	)
	for {
		page, err := client.SearchUsers(context.Background(), github.SearchOptions{
			Query:    "go type:user",
			PageSize: 10,
			After:    after,
		})
		if err != nil {
			t.Fatalf("SearchUsers failed: %v", err)
		}
		if page.TotalCount != 25 {
			t.Errorf("TotalCount = %d, want 25", page.TotalCount)
		}
		for _, u := range page.Users {
			logins = append(logins, u.Login)
		}
		if !page.HasNextPage {
			break
		}
		after = page.EndCursor
	}

	if len(logins) != 25 || logins[0] != "user1" || logins[24] != "user25" {
		t.Errorf("paged logins = %v", logins)
	}

	history := server.RequestHistory()
	if len(history) != 3 {
		t.Fatalf("requests = %d, want 3", len(history))
	}
	if history[0].After() != "" || history[1].After() != "offset:10" || history[2].After() != "offset:20" {
		t.Errorf("cursors = %q %q %q", history[0].After(), history[1].After(), history[2].After())
	}
	if history[0].SearchQuery() != "go type:user" {
		t.Errorf("q = %q", history[0].SearchQuery())
	}
}

func TestGitHubLikeMockServer_RateLimit(t *testing.T) {
	server := NewGitHubLikeMockServer(t, NewUserBuilder(1).Build())
	server.SetRateLimit(0)
	client := github.NewGraphQLClient("test-token", server.GraphQLURL(), testTransport)

	_, err := client.SearchUsers(context.Background(), github.SearchOptions{Query: "go type:user"})
	if !errors.Is(err, scouterrors.ErrRateLimit) {
		t.Errorf("error = %v, want rate limit", err)
	}
}
