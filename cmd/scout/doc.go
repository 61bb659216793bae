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

// Package main implements the scout command-line interface. scout searches
// GitHub users, enriches each profile with derived attributes and filters
// them, either as an HTTP API for the browser UI or as a CLI that streams
// NDJSON.
//
// Usage:
//
//	scout serve [--addr :8080] [--dev]
//	scout search <query> [flags]
//
// Example:
//
//	export GITHUB_TOKEN=your_token
//	scout search "rust" --location Berlin --has-website --all --output users.ndjson
//
// Exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Authentication or rate limit error
//   - 3: Network error
//   - 4: Invalid search parameters
package main
