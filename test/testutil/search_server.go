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
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// GraphQLRequest represents a parsed GraphQL request
type GraphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
	Timestamp time.Time              `json:"-"`
}

// SearchQuery returns the $q variable.
func (r GraphQLRequest) SearchQuery() string {
	q, _ := r.Variables["q"].(string)
	return q
}

// After returns the $after variable, empty for the first page.
func (r GraphQLRequest) After() string {
	after, _ := r.Variables["after"].(string)
	return after
}

// GitHubLikeMockServer serves a fixed set of users through the GraphQL user
// search, paging them the way GitHub does. Cursors are opaque offsets.
type GitHubLikeMockServer struct {
	*httptest.Server

	mu                 sync.Mutex
	users              []map[string]interface{}
	totalCount         int
	rateLimitRemaining int
	rateLimitReset     int64
	requestHistory     []GraphQLRequest
}

// NewGitHubLikeMockServer creates a realistic GitHub API mock over users.
func NewGitHubLikeMockServer(t *testing.T, users ...map[string]interface{}) *GitHubLikeMockServer {
	t.Helper()

	mock := &GitHubLikeMockServer{
		users:              users,
		totalCount:         len(users),
		rateLimitRemaining: 5000,
		rateLimitReset:     time.Now().Add(time.Hour).Unix(),
	}
	mock.Server = httptest.NewServer(http.HandlerFunc(mock.handle))
	t.Cleanup(mock.Close)
	return mock
}

// GraphQLURL returns the endpoint a GraphQL client should be pointed at.
func (m *GitHubLikeMockServer) GraphQLURL() string {
	return m.URL + "/graphql"
}

func (m *GitHubLikeMockServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/graphql" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	auth := r.Header.Get("Authorization")
	if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(w, map[string]string{
			"message":           "Bad credentials",
			"documentation_url": "https://docs.github.com/en/rest",
		})
		return
	}

	var req GraphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, map[string]string{"message": "Problems parsing JSON"})
		return
	}
	req.Timestamp = time.Now()

	m.mu.Lock()
	m.requestHistory = append(m.requestHistory, req)
	m.rateLimitRemaining--
	remaining := m.rateLimitRemaining
	reset := m.rateLimitReset
	m.mu.Unlock()

	if remaining < 0 {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
		w.Header().Set("Retry-After", "3600")
		w.WriteHeader(http.StatusTooManyRequests)
		writeJSON(w, map[string]string{
			"message":           "API rate limit exceeded",
			"documentation_url": "https://docs.github.com/en/rest/rate-limit",
		})
		return
	}

	w.Header().Set("X-RateLimit-Limit", "5000")
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))

	if !strings.Contains(req.Query, "type: USER") {
		writeJSON(w, NewSearchResponseBuilder().WithError("unsupported query").Build())
		return
	}

	response, err := m.page(req)
	if err != nil {
		writeJSON(w, NewSearchResponseBuilder().WithError(err.Error()).Build())
		return
	}
	writeJSON(w, response)
}

func (m *GitHubLikeMockServer) page(req GraphQLRequest) (map[string]interface{}, error) {
	perPage := 10
	if v, ok := req.Variables["perPage"].(float64); ok && v > 0 {
		perPage = int(v)
	}

	offset := 0
	if after := req.After(); after != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(after, "offset:"))
		if err != nil || !strings.HasPrefix(after, "offset:") {
			return nil, fmt.Errorf("invalid cursor %q", after)
		}
		offset = n
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if offset > len(m.users) {
		offset = len(m.users)
	}
	end := offset + perPage
	if end > len(m.users) {
		end = len(m.users)
	}

	builder := NewSearchResponseBuilder().
		WithUsers(m.users[offset:end]...).
		WithTotalCount(m.totalCount)
	if end > offset {
		builder.WithPagination(end < len(m.users), fmt.Sprintf("offset:%d", end))
	}
	return builder.Build(), nil
}

// RequestHistory returns a copy of every request received so far.
func (m *GitHubLikeMockServer) RequestHistory() []GraphQLRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := make([]GraphQLRequest, len(m.requestHistory))
	copy(history, m.requestHistory)
	return history
}

// SetRateLimit sets how many more requests succeed before 429s start.
func (m *GitHubLikeMockServer) SetRateLimit(remaining int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimitRemaining = remaining
}

// SetTotalCount overrides the reported userCount, which GitHub caps
// independently of how many users it will actually page through.
func (m *GitHubLikeMockServer) SetTotalCount(total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalCount = total
}
