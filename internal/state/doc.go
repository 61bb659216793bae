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

// Package state checkpoints long-running searches so `scout search --resume`
// can pick up at the cursor where an interrupted run stopped.
//
// Every write is atomic (write to a temp file, sync, rename) and carries a
// SHA256 checksum and schema version, so a crash mid-write or a hand-edited
// file is detected on load rather than silently resuming from a bad cursor.
//
// Example usage:
//
//	path := state.FilePath(stateDir, query, filters.String())
//	err := state.SaveState(&state.SearchState{
//	    Query:  query,
//	    Cursor: page.PageInfo.EndCursor,
//	}, path)
package state
