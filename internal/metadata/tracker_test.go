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

package metadata

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func fixedClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}

func TestTracker_RecordPage(t *testing.T) {
	tracker := New()

	tracker.RecordPage(10, 0, "c1")
	tracker.RecordPage(10, 0, "c2")
	tracker.RecordPage(7, 2, "")

	stats := tracker.Stats()
	if stats.Pages != 3 {
		t.Errorf("Pages = %d, want 3", stats.Pages)
	}
	if stats.Retrieved != 27 {
		t.Errorf("Retrieved = %d, want 27", stats.Retrieved)
	}
	if stats.Filtered != 2 {
		t.Errorf("Filtered = %d, want 2", stats.Filtered)
	}
	if stats.LastCursor != "c2" {
		t.Errorf("LastCursor = %q, want c2 (empty cursors are ignored)", stats.LastCursor)
	}
}

func TestTracker_UpdateUserStats(t *testing.T) {
	tests := []struct {
		name       string
		updates    []time.Time
		wantOldest time.Time
		wantNewest time.Time
	}{
		{
			name:       "single user",
			updates:    []time.Time{time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)},
			wantOldest: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
			wantNewest: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "out of order",
			updates: []time.Time{
				time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC),
				time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC),
			},
			wantOldest: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			wantNewest: time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "zero times ignored",
			updates: []time.Time{
				{},
				time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC),
			},
			wantOldest: time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC),
			wantNewest: time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := New()
			for _, u := range tt.updates {
				tracker.UpdateUserStats(u)
			}

			stats := tracker.Stats()
			if !stats.OldestUpdate.Equal(tt.wantOldest) {
				t.Errorf("OldestUpdate = %v, want %v", stats.OldestUpdate, tt.wantOldest)
			}
			if !stats.NewestUpdate.Equal(tt.wantNewest) {
				t.Errorf("NewestUpdate = %v, want %v", stats.NewestUpdate, tt.wantNewest)
			}
		})
	}
}

func TestTracker_GenerateMetadata(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tracker := NewWithClock(fixedClock(start, start.Add(90*time.Second)))
	tracker.IncrementAPICall()
	tracker.IncrementAPICall()
	tracker.RecordPage(10, 0, "c1")
	tracker.RecordPage(10, 3, "c2")

	params := SearchParams{
		Query:   "location:Poland type:user",
		Limit:   10,
		Filters: "hasWebsiteUrl",
	}

	metadata := tracker.GenerateMetadata("v1.2.3", params, false, nil)

	if metadata.ScoutVersion != "v1.2.3" {
		t.Errorf("ScoutVersion = %s, want v1.2.3", metadata.ScoutVersion)
	}
	if metadata.MethodVersion != MethodVersion {
		t.Errorf("MethodVersion = %s, want %s", metadata.MethodVersion, MethodVersion)
	}
	if _, err := uuid.Parse(metadata.SearchID); err != nil {
		t.Errorf("SearchID %q is not a UUID: %v", metadata.SearchID, err)
	}
	if metadata.Resumed || metadata.PreviousSearch != nil {
		t.Error("fresh run should not reference a previous search")
	}

	if metadata.Results.APICallCount != 2 {
		t.Errorf("APICallCount = %d, want 2", metadata.Results.APICallCount)
	}
	if metadata.Results.PagesFetched != 2 || metadata.Results.UsersRetrieved != 20 || metadata.Results.UsersFiltered != 3 {
		t.Errorf("unexpected results: %+v", metadata.Results)
	}
	if metadata.Results.Duration != "1m30s" {
		t.Errorf("Duration = %s, want 1m30s", metadata.Results.Duration)
	}
	if !metadata.Results.StartedAt.Equal(start) {
		t.Errorf("StartedAt = %v, want %v", metadata.Results.StartedAt, start)
	}
}

func TestTracker_GenerateMetadata_Resumed(t *testing.T) {
	previous := &SearchRef{
		SearchID:    "5b0c2a44-4a0f-4b1b-9d9b-000000000000",
		CompletedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	metadata := New().GenerateMetadata("v1.0.0", SearchParams{Query: "q"}, true, previous)

	if !metadata.Resumed {
		t.Error("Resumed = false, want true")
	}
	if metadata.PreviousSearch == nil || metadata.PreviousSearch.SearchID != previous.SearchID {
		t.Errorf("PreviousSearch = %+v, want %+v", metadata.PreviousSearch, previous)
	}
}

func TestSaveMetadata(t *testing.T) {
	tmpDir := t.TempDir()

	metadata := &SearchMetadata{
		ScoutVersion:  "v1.2.3",
		MethodVersion: MethodVersion,
		SearchID:      "id-1",
		Parameters:    SearchParams{Query: "golang type:user", Limit: 50},
		Results: SearchResults{
			PagesFetched:   3,
			UsersRetrieved: 150,
			UsersFiltered:  12,
			Duration:       "5s",
			APICallCount:   3,
			StartedAt:      time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC),
			CompletedAt:    time.Date(2023, 1, 1, 12, 0, 5, 0, time.UTC),
		},
	}

	if err := SaveMetadata(metadata, tmpDir); err != nil {
		t.Fatalf("SaveMetadata failed: %v", err)
	}

	expectedFile := filepath.Join(tmpDir, "search-metadata-1672574400.json")
	data, err := os.ReadFile(expectedFile)
	if err != nil {
		t.Fatalf("metadata file not created: %v", err)
	}

	var loaded SearchMetadata
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("failed to parse metadata: %v", err)
	}

	if loaded.Results.UsersFiltered != 12 {
		t.Errorf("UsersFiltered = %d, want 12", loaded.Results.UsersFiltered)
	}
	if _, err := os.Stat(expectedFile + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should have been renamed")
	}
}

func TestLoadLatestMetadata(t *testing.T) {
	tmpDir := t.TempDir()

	first := &SearchMetadata{
		SearchID:   "first",
		Parameters: SearchParams{Query: "q"},
		Results:    SearchResults{StartedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	second := &SearchMetadata{
		SearchID:   "second",
		Parameters: SearchParams{Query: "q"},
		Results:    SearchResults{StartedAt: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	if err := SaveMetadata(first, tmpDir); err != nil {
		t.Fatalf("SaveMetadata failed: %v", err)
	}

	// Sleep briefly to ensure different modification times
	time.Sleep(10 * time.Millisecond)

	if err := SaveMetadata(second, tmpDir); err != nil {
		t.Fatalf("SaveMetadata failed: %v", err)
	}

	loaded, err := LoadLatestMetadata(tmpDir, "q")
	if err != nil {
		t.Fatalf("LoadLatestMetadata failed: %v", err)
	}
	if loaded == nil || loaded.SearchID != "second" {
		t.Fatalf("expected the second run, got %+v", loaded)
	}

	other, err := LoadLatestMetadata(tmpDir, "other query")
	if err != nil {
		t.Fatalf("LoadLatestMetadata failed: %v", err)
	}
	if other != nil {
		t.Error("expected nil metadata for a different query")
	}
}

func TestLoadLatestMetadata_Empty(t *testing.T) {
	loaded, err := LoadLatestMetadata(t.TempDir(), "q")
	if err != nil || loaded != nil {
		t.Errorf("expected (nil, nil), got (%v, %v)", loaded, err)
	}
}

func TestWriteMetadataToWriter(t *testing.T) {
	metadata := &SearchMetadata{
		ScoutVersion:  "v1.2.3",
		MethodVersion: MethodVersion,
		SearchID:      "id",
		Parameters:    SearchParams{Query: "q"},
	}

	var buf bytes.Buffer
	if err := WriteMetadataToWriter(metadata, &buf); err != nil {
		t.Fatalf("WriteMetadataToWriter failed: %v", err)
	}

	var loaded SearchMetadata
	if err := json.Unmarshal(buf.Bytes(), &loaded); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}

	if !strings.Contains(buf.String(), "\n  \"scout_version\"") {
		t.Error("output should be indented")
	}
}
