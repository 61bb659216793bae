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

// Package errors defines sentinel errors for consistent error handling across the application.
// The HTTP layer maps them to status codes and the CLI maps them to exit codes.
package errors

import "errors"

// Sentinel errors for consistent error handling, status code and exit code mapping
var (
	// ErrInvalidToken indicates GitHub authentication failed.
	// Maps to HTTP 401 and exit code 2.
	ErrInvalidToken = errors.New("invalid github token")

	// ErrRateLimit indicates GitHub API rate limit has been exceeded even after
	// the transport's single transparent retry.
	// Maps to HTTP 429 and exit code 2.
	ErrRateLimit = errors.New("github rate limit exceeded")

	// ErrNetworkFailure indicates a network connection problem.
	// Maps to HTTP 502 and exit code 3.
	ErrNetworkFailure = errors.New("network connection failed")

	// ErrQueryComplexity indicates GitHub rejected the query as too expensive.
	// Maps to HTTP 502 and exit code 1.
	ErrQueryComplexity = errors.New("graphql query complexity exceeded")

	// ErrUpstream indicates any other failure reported by the GitHub API.
	// Maps to HTTP 502 and exit code 1.
	ErrUpstream = errors.New("github api request failed")

	// ErrValidation indicates request parameters were rejected before any
	// upstream call was made.
	// Maps to HTTP 400 and exit code 4.
	ErrValidation = errors.New("invalid search parameters")
)
