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

// Package metadata provides functionality for tracking and persisting metadata
// about search runs. It records how many upstream pages and API calls a run
// took, how many users were retrieved and survived filtering, and links
// resumed runs to their predecessors.
//
// The search service keeps one Tracker per invocation for logging and
// metrics. The CLI keeps one per run and saves it as JSON next to its
// cursor checkpoint.
package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	// MethodVersion represents the current GraphQL query version
	MethodVersion = "graphql-user-search-v1"
)

// Tracker collects statistics during a search run. It is not safe for
// concurrent use; a run is strictly sequential.
type Tracker struct {
	now          func() time.Time
	startTime    time.Time
	apiCallCount int
	stats        Stats
}

// Stats is a snapshot of what a Tracker has recorded so far.
type Stats struct {
	Pages        int
	Retrieved    int
	Filtered     int
	LastCursor   string
	OldestUpdate time.Time
	NewestUpdate time.Time
}

// New creates a new metadata tracker and initializes it with the current time.
func New() *Tracker {
	return NewWithClock(time.Now)
}

// NewWithClock creates a tracker that reads time from now.
func NewWithClock(now func() time.Time) *Tracker {
	return &Tracker{
		now:       now,
		startTime: now(),
	}
}

// IncrementAPICall records that an API call was made.
func (t *Tracker) IncrementAPICall() {
	t.apiCallCount++
}

// APICalls returns the number of recorded API calls.
func (t *Tracker) APICalls() int {
	return t.apiCallCount
}

// RecordPage records one evaluated upstream page.
func (t *Tracker) RecordPage(retrieved, filtered int, endCursor string) {
	t.stats.Pages++
	t.stats.Retrieved += retrieved
	t.stats.Filtered += filtered
	if endCursor != "" {
		t.stats.LastCursor = endCursor
	}
}

// UpdateUserStats widens the profile update range with one retrieved user.
// Zero times (non-User nodes) are ignored.
func (t *Tracker) UpdateUserStats(updatedAt time.Time) {
	if updatedAt.IsZero() {
		return
	}
	if t.stats.OldestUpdate.IsZero() || updatedAt.Before(t.stats.OldestUpdate) {
		t.stats.OldestUpdate = updatedAt
	}
	if updatedAt.After(t.stats.NewestUpdate) {
		t.stats.NewestUpdate = updatedAt
	}
}

// Stats returns what has been recorded so far.
func (t *Tracker) Stats() Stats {
	return t.stats
}

// Elapsed returns the time since the tracker was created.
func (t *Tracker) Elapsed() time.Duration {
	return t.now().Sub(t.startTime)
}

// GenerateMetadata creates the SearchMetadata record for the run. Call it
// once the run has finished.
func (t *Tracker) GenerateMetadata(scoutVersion string, params SearchParams, resumed bool, previous *SearchRef) *SearchMetadata {
	completedAt := t.now()

	return &SearchMetadata{
		ScoutVersion:  scoutVersion,
		MethodVersion: MethodVersion,
		SearchID:      uuid.NewString(),
		Parameters:    params,
		Results: SearchResults{
			PagesFetched:   t.stats.Pages,
			APICallCount:   t.apiCallCount,
			UsersRetrieved: t.stats.Retrieved,
			UsersFiltered:  t.stats.Filtered,
			LastCursor:     t.stats.LastCursor,
			OldestUpdate:   t.stats.OldestUpdate,
			NewestUpdate:   t.stats.NewestUpdate,
			Duration:       completedAt.Sub(t.startTime).String(),
			StartedAt:      t.startTime,
			CompletedAt:    completedAt,
		},
		Resumed:        resumed,
		PreviousSearch: previous,
	}
}

// SaveMetadata persists a SearchMetadata record to a JSON file in the specified
// directory. The file is written atomically using a temporary file and rename
// to prevent corruption.
//
// The metadata file will be named: search-metadata-{timestamp}.json
func SaveMetadata(metadata *SearchMetadata, stateDir string) error {
	// Ensure state directory exists
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	filename := fmt.Sprintf("search-metadata-%d.json", metadata.Results.StartedAt.Unix())
	path := filepath.Join(stateDir, filename)

	// Write to temporary file first for atomicity
	tmpFile := path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(metadata); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to close metadata file: %w", err)
	}

	// Atomically rename to final location
	if err := os.Rename(tmpFile, path); err != nil {
		return fmt.Errorf("failed to save metadata file: %w", err)
	}

	return nil
}

// LoadLatestMetadata loads the most recent metadata file in stateDir and
// returns it if it was recorded for query. Returns nil when there is none.
func LoadLatestMetadata(stateDir, query string) (*SearchMetadata, error) {
	files, err := filepath.Glob(filepath.Join(stateDir, "search-metadata-*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata files: %w", err)
	}

	var latestFile string
	var latestTime time.Time
	for _, file := range files {
		info, statErr := os.Stat(file)
		if statErr != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = file
		}
	}

	if latestFile == "" {
		return nil, nil
	}

	file, err := os.Open(latestFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer file.Close()

	var metadata SearchMetadata
	if err := json.NewDecoder(file).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	if metadata.Parameters.Query != query {
		return nil, nil
	}

	return &metadata, nil
}

// WriteMetadataToWriter serializes metadata to indented JSON.
func WriteMetadataToWriter(metadata *SearchMetadata, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}
