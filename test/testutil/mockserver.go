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

// Package testutil provides common test helpers for sirseer-scout
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

// MockServer provides common mock server configurations for testing
type MockServer struct {
	*httptest.Server
	requests atomic.Int32
}

// RequestCount returns how many requests the server has received.
func (m *MockServer) RequestCount() int {
	return int(m.requests.Load())
}

// GraphQLURL returns the endpoint a GraphQL client should be pointed at.
func (m *MockServer) GraphQLURL() string {
	return m.URL + "/graphql"
}

func newCountingServer(t *testing.T, handler func(count int32, w http.ResponseWriter, r *http.Request)) *MockServer {
	t.Helper()
	m := &MockServer{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler(m.requests.Add(1), w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// NewMockServer creates a basic mock server that responds to GraphQL requests
func NewMockServer(t *testing.T, handler http.HandlerFunc) *MockServer {
	t.Helper()
	return newCountingServer(t, func(_ int32, w http.ResponseWriter, r *http.Request) {
		handler(w, r)
	})
}

// NewRateLimitServer creates a mock server that answers the first
// limitedCount requests with 429 and then serves one page of users.
func NewRateLimitServer(t *testing.T, retryAfter, limitedCount int) *MockServer {
	t.Helper()
	return newCountingServer(t, func(count int32, w http.ResponseWriter, r *http.Request) {
		if count <= int32(limitedCount) {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message": "API rate limit exceeded"}`))
			return
		}
		writeJSON(w, GenerateUserResponse(1, 10, false))
	})
}

// NewErrorServer creates a mock server that always returns the specified error
func NewErrorServer(t *testing.T, statusCode int) *MockServer {
	t.Helper()
	return newCountingServer(t, func(_ int32, w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(http.StatusText(statusCode)))
	})
}

// NewTransientErrorServer creates a mock server that fails N times then succeeds
func NewTransientErrorServer(t *testing.T, failCount, errorCode int) *MockServer {
	t.Helper()
	return newCountingServer(t, func(count int32, w http.ResponseWriter, r *http.Request) {
		if count <= int32(failCount) {
			w.WriteHeader(errorCode)
			_, _ = w.Write([]byte(http.StatusText(errorCode)))
			return
		}
		writeJSON(w, GenerateUserResponse(1, 10, false))
	})
}

// GenerateUserResponse generates a user search response holding users
// startNum through endNum. Every even-numbered user has a website.
func GenerateUserResponse(startNum, endNum int, hasMore bool) map[string]interface{} {
	builder := NewSearchResponseBuilder()
	for i := startNum; i <= endNum; i++ {
		user := NewUserBuilder(i)
		if i%2 == 0 {
			user.WithWebsite(fmt.Sprintf("https://user%d.dev", i))
		}
		builder.WithUsers(user.Build())
	}
	if hasMore {
		builder.WithPagination(true, fmt.Sprintf("cursor%d", endNum))
	}
	return builder.WithTotalCount(endNum).Build()
}

// AssertGraphQLRequest validates a GraphQL request structure
func AssertGraphQLRequest(t *testing.T, r *http.Request) {
	t.Helper()
	if r.URL.Path != "/graphql" {
		t.Errorf("Unexpected path: %s", r.URL.Path)
	}
	if r.Method != "POST" {
		t.Errorf("Expected POST method, got: %s", r.Method)
	}
	if ct := r.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type: application/json, got: %s", ct)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// recentTime is a profile update inside the recently-active window.
func recentTime() time.Time {
	return time.Now().Add(-24 * time.Hour).UTC().Truncate(time.Second)
}
