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

package state

import (
	"time"
)

// CurrentVersion is the current state schema version.
// Increment this when making breaking changes to the SearchState structure.
const CurrentVersion = 1

// SearchState is the checkpoint of a paginated search run.
type SearchState struct {
	// Version indicates the schema version of this state file.
	Version int `json:"version"`

	// Checksum is the SHA256 hash of the state content (excluding this field).
	Checksum string `json:"checksum"`

	// Query is the caller's search text, without qualifiers added by scout.
	Query string `json:"query"`

	// Filters is the canonical filter string the run was started with.
	// Resuming with different filters starts over.
	Filters string `json:"filters"`

	// Extended records whether users were written with contact fields, so a
	// resume cannot mix the two output shapes in one file.
	Extended bool `json:"extended,omitempty"`

	// LastSearchID correlates the checkpoint with its metadata file.
	LastSearchID string `json:"last_search_id"`

	// Cursor is the endCursor of the last page whose users were written.
	Cursor string `json:"cursor"`

	// HasNextPage is false once the run reached the end of the results.
	HasNextPage bool `json:"has_next_page"`

	// PagesFetched and UsersWritten accumulate across resumed runs.
	PagesFetched int `json:"pages_fetched"`
	UsersWritten int `json:"users_written"`

	// UpdatedAt records when the checkpoint was written.
	UpdatedAt time.Time `json:"updated_at"`
}
