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
	"fmt"
	"sync"

	scouterrors "github.com/sirseerhq/sirseer-scout/internal/errors"
)

// MockClient is a mock implementation of the GitHub Client interface for testing.
// Pages are chained by cursor: the first call (empty After) gets Pages[0] and a
// call with Pages[i].EndCursor gets Pages[i+1].
type MockClient struct {
	mu sync.Mutex

	// Pages to serve
	Pages []UserPage

	// Error to return. With ErrorOnCall > 0 only that call (1-based) fails.
	Error       error
	ErrorOnCall int

	// Behavior flags
	ShouldFailAuth      bool
	ShouldFailNetwork   bool
	ShouldFailRateLimit bool

	// Track calls for verification
	CallCount int
	Calls     []SearchOptions
}

// NewMockClient creates a mock client that serves one page per batch of
// users. Cursors are "cursor-1", "cursor-2", ... and every page except the
// last reports HasNextPage.
func NewMockClient(batches ...[]RawUser) *MockClient {
	total := 0
	for _, batch := range batches {
		total += len(batch)
	}

	pages := make([]UserPage, 0, len(batches))
	for i, batch := range batches {
		pages = append(pages, UserPage{
			TotalCount:  total,
			Users:       batch,
			HasNextPage: i < len(batches)-1,
			EndCursor:   fmt.Sprintf("cursor-%d", i+1),
		})
	}

	return &MockClient{Pages: pages}
}

// SearchUsers implements the Client interface
func (m *MockClient) SearchUsers(ctx context.Context, opts SearchOptions) (*UserPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Track the call
	m.CallCount++
	m.Calls = append(m.Calls, opts)

	// Check for context cancellation
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// Simulate various error conditions
	if m.ShouldFailAuth {
		return nil, fmt.Errorf("authentication failed: %w", scouterrors.ErrInvalidToken)
	}

	if m.ShouldFailNetwork {
		return nil, fmt.Errorf("network timeout: %w", scouterrors.ErrNetworkFailure)
	}

	if m.ShouldFailRateLimit {
		return nil, fmt.Errorf("quota exhausted: %w", scouterrors.ErrRateLimit)
	}

	// Return configured error if set
	if m.Error != nil && (m.ErrorOnCall == 0 || m.ErrorOnCall == m.CallCount) {
		return nil, m.Error
	}

	if len(m.Pages) == 0 {
		return &UserPage{}, nil
	}

	if opts.After == "" {
		page := m.Pages[0]
		return &page, nil
	}

	for i := range m.Pages {
		if m.Pages[i].EndCursor == opts.After && i+1 < len(m.Pages) {
			page := m.Pages[i+1]
			return &page, nil
		}
	}

	return nil, fmt.Errorf("unknown cursor %q: %w", opts.After, scouterrors.ErrUpstream)
}

// Recorded returns a copy of the recorded search options.
func (m *MockClient) Recorded() []SearchOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SearchOptions, len(m.Calls))
	copy(out, m.Calls)
	return out
}

// MockClientOption allows configuring the mock client
type MockClientOption func(*MockClient)

// WithPages sets specific pages to return
func WithPages(pages ...UserPage) MockClientOption {
	return func(m *MockClient) {
		m.Pages = pages
	}
}

// WithError makes the client return a specific error
func WithError(err error) MockClientOption {
	return func(m *MockClient) {
		m.Error = err
	}
}

// WithAuthFailure makes the client simulate authentication failure
func WithAuthFailure() MockClientOption {
	return func(m *MockClient) {
		m.ShouldFailAuth = true
	}
}

// NewMockClientWithOptions creates a mock client with options
func NewMockClientWithOptions(opts ...MockClientOption) *MockClient {
	mock := &MockClient{}
	for _, opt := range opts {
		opt(mock)
	}
	return mock
}
