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

// Package enrich derives display attributes from raw GitHub users: an
// activity recency index, contactability and hireability flags, and
// HTML-safe company and bio fragments.
//
// Everything here is pure. The caller supplies "now", so the same input
// always produces the same output.
package enrich

import (
	"strings"
	"time"

	"github.com/sirseerhq/sirseer-scout/internal/github"
)

// MaxActivityIndex is the ceiling of ActivityIndex. Users idle for this many
// months or more, or with no known update time, all share it.
const MaxActivityIndex = 10

// User is a RawUser without bio, company and updatedAt, which are replaced
// by the derived ExtendedAttributes.
type User struct {
	ID                 string             `json:"id"`
	Login              string             `json:"login"`
	Name               string             `json:"name"`
	AvatarURL          string             `json:"avatarUrl"`
	URL                string             `json:"url"`
	WebsiteURL         string             `json:"websiteUrl"`
	Location           string             `json:"location,omitempty"`
	Email              string             `json:"email,omitempty"`
	TwitterUsername    string             `json:"twitterUsername,omitempty"`
	Status             *github.UserStatus `json:"status,omitempty"`
	CreatedAt          *time.Time         `json:"createdAt,omitempty"`
	Followers          github.Count       `json:"followers"`
	SocialAccounts     SocialAccounts     `json:"socialAccounts"`
	IsHireable         bool               `json:"isHireable"`
	HasSponsorsListing bool               `json:"hasSponsorsListing"`
	ExtendedAttributes ExtendedAttributes `json:"extendedAttributes"`
}

// ExtendedAttributes holds everything derived during enrichment.
type ExtendedAttributes struct {
	// ActivityIndex is whole months since the last profile update, 0..MaxActivityIndex.
	ActivityIndex int `json:"activityIndex"`
	// CompanyHTML is nil when the user has no company.
	CompanyHTML *string `json:"companyHtml,omitempty"`
	// BioHTML is nil when the user has no bio.
	BioHTML       *string `json:"bioHtml,omitempty"`
	IsContactable bool    `json:"isContactable"`
	IsHireable    bool    `json:"isHireable"`
}

// SocialAccounts mirrors github.SocialAccounts with provider icons resolved.
type SocialAccounts struct {
	TotalCount int             `json:"totalCount"`
	Nodes      []SocialAccount `json:"nodes"`
}

// SocialAccount is a linked profile. Icon is set for providers with a bundled asset.
type SocialAccount struct {
	Provider    string `json:"provider"`
	URL         string `json:"url"`
	DisplayName string `json:"displayName"`
	Icon        string `json:"icon,omitempty"`
}

// iconProviders have an svg under /assets.
var iconProviders = map[string]bool{
	"MASTODON":  true,
	"TWITTER":   true,
	"LINKEDIN":  true,
	"YOUTUBE":   true,
	"INSTAGRAM": true,
}

// Enrich maps one raw user to its display form. It never fails.
func Enrich(raw github.RawUser, now time.Time) User {
	ext := ExtendedAttributes{
		ActivityIndex: ActivityIndex(raw.UpdatedAt, now),
		IsContactable: raw.Email != "" || raw.SocialAccounts.TotalCount > 0 || raw.WebsiteURL != "",
	}

	if raw.Company != "" {
		companyHTML := LinkOrganizations(raw.Company)
		ext.CompanyHTML = &companyHTML
	}

	bioHasKeyword := false
	if raw.Bio != "" {
		bioHTML, matched := HighlightKeywords(raw.Bio)
		ext.BioHTML = &bioHTML
		bioHasKeyword = matched
	}

	ext.IsHireable = raw.IsHireable || raw.HasSponsorsListing || bioHasKeyword

	user := User{
		ID:                 raw.ID,
		Login:              raw.Login,
		Name:               raw.Name,
		AvatarURL:          raw.AvatarURL,
		URL:                raw.URL,
		WebsiteURL:         raw.WebsiteURL,
		Location:           raw.Location,
		Email:              raw.Email,
		TwitterUsername:    raw.TwitterUsername,
		Followers:          raw.Followers,
		IsHireable:         raw.IsHireable,
		HasSponsorsListing: raw.HasSponsorsListing,
		SocialAccounts:     enrichSocialAccounts(raw.SocialAccounts),
		ExtendedAttributes: ext,
	}

	if raw.Status != nil {
		status := *raw.Status
		user.Status = &status
	}
	if !raw.CreatedAt.IsZero() {
		createdAt := raw.CreatedAt
		user.CreatedAt = &createdAt
	}

	return user
}

// EnrichAll enriches a batch, preserving order.
func EnrichAll(raw []github.RawUser, now time.Time) []User {
	users := make([]User, 0, len(raw))
	for _, r := range raw {
		users = append(users, Enrich(r, now))
	}
	return users
}

// ActivityIndex counts whole calendar months between updatedAt and now,
// clamped to MaxActivityIndex. A future updatedAt (clock skew) counts the
// same as a past one of equal distance. A zero updatedAt is treated as
// unknown and maps to MaxActivityIndex.
func ActivityIndex(updatedAt, now time.Time) int {
	if updatedAt.IsZero() {
		return MaxActivityIndex
	}

	from, to := updatedAt.UTC(), now.UTC()
	if from.After(to) {
		from, to = to, from
	}

	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() || (to.Day() == from.Day() && sinceMidnight(to) < sinceMidnight(from)) {
		months--
	}

	switch {
	case months < 0:
		return 0
	case months > MaxActivityIndex:
		return MaxActivityIndex
	default:
		return months
	}
}

func sinceMidnight(t time.Time) time.Duration {
	return t.Sub(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()))
}

func enrichSocialAccounts(in github.SocialAccounts) SocialAccounts {
	out := SocialAccounts{
		TotalCount: in.TotalCount,
		Nodes:      make([]SocialAccount, 0, len(in.Nodes)),
	}
	for _, n := range in.Nodes {
		out.Nodes = append(out.Nodes, SocialAccount{
			Provider:    n.Provider,
			URL:         n.URL,
			DisplayName: n.DisplayName,
			Icon:        ProviderIcon(n.Provider),
		})
	}
	return out
}

// ProviderIcon returns the asset path for a social provider, or "" if none is bundled.
func ProviderIcon(provider string) string {
	if !iconProviders[provider] {
		return ""
	}
	return "/assets/" + strings.ToLower(provider) + ".svg"
}
