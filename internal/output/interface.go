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

package output

import "github.com/sirseerhq/sirseer-scout/internal/enrich"

// UserWriter is where search results go. The NDJSON Writer is the only
// implementation today.
type UserWriter interface {
	// WriteUser writes one user. It must not buffer across calls.
	WriteUser(user enrich.User) error

	// Close releases the underlying resource.
	Close() error
}
