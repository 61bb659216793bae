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

// Package filter applies the structured post-filters that GitHub's search
// syntax cannot express.
package filter

import (
	"strings"

	"github.com/sirseerhq/sirseer-scout/internal/enrich"
)

// RecentActivityMonths is the largest activity index counted as recently active.
const RecentActivityMonths = 2

// Filters are conjunctive. A false field places no constraint.
type Filters struct {
	HasWebsiteURL  bool `json:"hasWebsiteUrl"`
	IsContactable  bool `json:"isContactable"`
	IsHireable     bool `json:"isHireable"`
	NoCompany      bool `json:"noCompany"`
	RecentlyActive bool `json:"recentlyActive"`
}

// Active reports whether any filter is set.
func (f Filters) Active() bool {
	return f.HasWebsiteURL || f.IsContactable || f.IsHireable || f.NoCompany || f.RecentlyActive
}

// String lists the active filters, e.g. "hasWebsiteUrl,noCompany".
func (f Filters) String() string {
	var names []string
	if f.HasWebsiteURL {
		names = append(names, "hasWebsiteUrl")
	}
	if f.IsContactable {
		names = append(names, "isContactable")
	}
	if f.IsHireable {
		names = append(names, "isHireable")
	}
	if f.NoCompany {
		names = append(names, "noCompany")
	}
	if f.RecentlyActive {
		names = append(names, "recentlyActive")
	}
	return strings.Join(names, ",")
}

// Matches reports whether u passes every active filter. Users without an id
// or login (non-User search nodes) never match.
func Matches(u enrich.User, f Filters) bool {
	if u.ID == "" && u.Login == "" {
		return false
	}
	if f.HasWebsiteURL && u.WebsiteURL == "" {
		return false
	}
	if f.IsContactable && !u.ExtendedAttributes.IsContactable {
		return false
	}
	if f.IsHireable && !u.ExtendedAttributes.IsHireable {
		return false
	}
	if f.NoCompany && u.ExtendedAttributes.CompanyHTML != nil {
		return false
	}
	if f.RecentlyActive && u.ExtendedAttributes.ActivityIndex > RecentActivityMonths {
		return false
	}
	return true
}

// Apply returns the users that match f, in their original order.
func Apply(users []enrich.User, f Filters) []enrich.User {
	out := make([]enrich.User, 0, len(users))
	for _, u := range users {
		if Matches(u, f) {
			out = append(out, u)
		}
	}
	return out
}
