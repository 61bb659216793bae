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
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// userFields are present on every enriched user line.
var userFields = []string{"id", "login", "avatarUrl", "url", "websiteUrl", "followers", "extendedAttributes"}

// AssertNDJSONOutput validates that a file holds expectedUserCount enriched
// users, one per line, and returns them decoded.
func AssertNDJSONOutput(t *testing.T, filePath string, expectedUserCount int) []map[string]interface{} {
	t.Helper()

	file, err := os.Open(filePath)
	if err != nil {
		t.Fatalf("Failed to open output file: %v", err)
	}
	defer file.Close()

	return AssertNDJSONUsers(t, file, expectedUserCount)
}

// AssertNDJSONUsers is AssertNDJSONOutput over a reader.
func AssertNDJSONUsers(t *testing.T, r io.Reader, expectedUserCount int) []map[string]interface{} {
	t.Helper()

	scanner := bufio.NewScanner(r)
	var users []map[string]interface{}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var user map[string]interface{}
		if err := json.Unmarshal([]byte(line), &user); err != nil {
			t.Errorf("Line %d: invalid JSON: %v", len(users)+1, err)
			continue
		}
		for _, field := range userFields {
			if _, ok := user[field]; !ok {
				t.Errorf("Line %d: missing required field '%s'", len(users)+1, field)
			}
		}
		users = append(users, user)
	}

	if err := scanner.Err(); err != nil {
		t.Fatalf("Error reading output: %v", err)
	}
	if len(users) != expectedUserCount {
		t.Fatalf("Expected %d users, got %d", expectedUserCount, len(users))
	}
	return users
}

// AssertMetadataFile decodes the newest search metadata file in dir.
func AssertMetadataFile(t *testing.T, dir string) map[string]interface{} {
	t.Helper()

	metadata := readNewest(t, dir, "search-metadata-*.json")
	for _, field := range []string{"scout_version", "method_version", "search_id", "parameters", "results"} {
		if _, ok := metadata[field]; !ok {
			t.Errorf("Missing required metadata field: %s", field)
		}
	}
	return metadata
}

// AssertCheckpoint decodes the single cursor checkpoint in dir.
func AssertCheckpoint(t *testing.T, dir string) map[string]interface{} {
	t.Helper()

	checkpoint := readNewest(t, dir, "search-*.state")
	for _, field := range []string{"version", "checksum", "query", "cursor", "has_next_page"} {
		if _, ok := checkpoint[field]; !ok {
			t.Errorf("Missing required checkpoint field: %s", field)
		}
	}
	return checkpoint
}

func readNewest(t *testing.T, dir, pattern string) map[string]interface{} {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		t.Fatalf("Failed to glob %s: %v", pattern, err)
	}
	if len(matches) == 0 {
		t.Fatalf("No file matching %s in %s", pattern, dir)
	}
	sort.Strings(matches)

	data, err := os.ReadFile(matches[len(matches)-1])
	if err != nil {
		t.Fatalf("Failed to read %s: %v", matches[len(matches)-1], err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Invalid JSON in %s: %v", matches[len(matches)-1], err)
	}
	return decoded
}

// AssertContainsString checks if a string contains a substring
func AssertContainsString(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Errorf("Expected string to contain %q, got: %s", needle, haystack)
	}
}
