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

// Package github provides clients for GitHub's user search. It abstracts the
// GraphQL query shape and exposes a small interface for fetching one page of
// users at a cursor, with error mapping to the sentinel errors in
// internal/errors.
//
// The package includes:
//   - A Client interface for fetching pages of users
//   - A GraphQL implementation using the shurcooL/graphql library
//   - A REST implementation for qualifier searches using go-github
//   - An HTTP transport with oauth2 auth, throttling and a single rate-limit retry
//   - A RetryClient for transient network failures
//   - Mock client for testing
//
// Basic usage:
//
//	client := github.NewGraphQLClient("your-github-token", "https://api.github.com/graphql", nil)
//	page, err := client.SearchUsers(ctx, github.SearchOptions{
//	    Query:    "location:Poland type:user",
//	    PageSize: 10,
//	})
//	if err != nil {
//	    // Handle error
//	}
//	for _, u := range page.Users {
//	    // Process user
//	}
package github
