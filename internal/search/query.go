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

package search

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/sirseerhq/sirseer-scout/internal/github"
)

// userQualifier restricts GitHub's search to user accounts.
const userQualifier = "type:user"

// BuildQuery composes the upstream query: the caller's text, any location
// and language qualifiers, then type:user.
func BuildQuery(text, location, language string) string {
	parts := make([]string, 0, 4)
	if text = strings.TrimSpace(text); text != "" {
		parts = append(parts, text)
	}
	if q := github.Qualifier("location", location); q != "" {
		parts = append(parts, q)
	}
	if q := github.Qualifier("language", language); q != "" {
		parts = append(parts, q)
	}
	parts = append(parts, userQualifier)
	return strings.Join(parts, " ")
}

// Signature identifies a request for caching. Requests that would send the
// same upstream calls and apply the same filters share a signature.
func Signature(kind string, r Request) string {
	h := sha256.New()
	for _, part := range []string{
		kind,
		BuildQuery(r.Query, r.Location, r.Language),
		strconv.Itoa(r.Limit),
		r.Cursor,
		r.Filters.String(),
		strconv.FormatBool(r.Extended),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
