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

// Package metadata types define the structures used for tracking and
// persisting information about search runs.
package metadata

import (
	"time"
)

// SearchMetadata is the record of one search run: what was asked, how many
// upstream pages it took and what came back.
type SearchMetadata struct {
	ScoutVersion   string        `json:"scout_version"`
	MethodVersion  string        `json:"method_version"`
	SearchID       string        `json:"search_id"`
	Parameters     SearchParams  `json:"parameters"`
	Results        SearchResults `json:"results"`
	Resumed        bool          `json:"resumed"`
	PreviousSearch *SearchRef    `json:"previous_search,omitempty"`
}

// SearchParams captures the input of a search run so it can be reproduced.
type SearchParams struct {
	Query    string `json:"query"`
	Limit    int    `json:"limit"`
	Cursor   string `json:"cursor,omitempty"`
	Filters  string `json:"filters,omitempty"`
	Extended bool   `json:"extended"`
	FetchAll bool   `json:"fetch_all"`
}

// SearchResults contains the statistics of a completed search run.
type SearchResults struct {
	PagesFetched   int       `json:"pages_fetched"`
	APICallCount   int       `json:"api_calls_made"`
	UsersRetrieved int       `json:"users_retrieved"`
	UsersFiltered  int       `json:"users_filtered"`
	LastCursor     string    `json:"last_cursor,omitempty"`
	OldestUpdate   time.Time `json:"oldest_profile_update,omitempty"`
	NewestUpdate   time.Time `json:"newest_profile_update,omitempty"`
	Duration       string    `json:"search_duration"`
	StartedAt      time.Time `json:"started_at"`
	CompletedAt    time.Time `json:"completed_at"`
}

// SearchRef links a resumed run to the run it continued.
type SearchRef struct {
	SearchID    string    `json:"search_id"`
	CompletedAt time.Time `json:"completed_at"`
}
