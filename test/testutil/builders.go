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
	"fmt"
	"time"
)

// UserBuilder provides a fluent API for creating test users in the shape
// the GraphQL user search returns them.
type UserBuilder struct {
	number          int
	login           string
	name            string
	bio             string
	company         string
	email           string
	location        string
	websiteURL      string
	twitterUsername string
	status          string
	followers       int
	updatedAt       time.Time
	createdAt       time.Time
	isHireable      bool
	hasSponsors     bool
	socialAccounts  []map[string]interface{}
}

// NewUserBuilder creates a new user builder with defaults
func NewUserBuilder(number int) *UserBuilder {
	return &UserBuilder{
		number:    number,
		login:     fmt.Sprintf("user%d", number),
		name:      fmt.Sprintf("User %d", number),
		followers: number * 10,
		updatedAt: recentTime(),
		createdAt: recentTime().AddDate(-3, 0, 0),
	}
}

// WithLogin sets the login
func (b *UserBuilder) WithLogin(login string) *UserBuilder {
	b.login = login
	return b
}

// WithBio sets the profile bio
func (b *UserBuilder) WithBio(bio string) *UserBuilder {
	b.bio = bio
	return b
}

// WithCompany sets the company field
func (b *UserBuilder) WithCompany(company string) *UserBuilder {
	b.company = company
	return b
}

// WithEmail sets the public email
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

// WithLocation sets the location
func (b *UserBuilder) WithLocation(location string) *UserBuilder {
	b.location = location
	return b
}

// WithWebsite sets the website URL
func (b *UserBuilder) WithWebsite(url string) *UserBuilder {
	b.websiteURL = url
	return b
}

// WithTwitter sets the Twitter username
func (b *UserBuilder) WithTwitter(username string) *UserBuilder {
	b.twitterUsername = username
	return b
}

// WithStatus sets the status message
func (b *UserBuilder) WithStatus(message string) *UserBuilder {
	b.status = message
	return b
}

// WithFollowers sets the follower count
func (b *UserBuilder) WithFollowers(count int) *UserBuilder {
	b.followers = count
	return b
}

// WithUpdatedAt sets when the profile was last updated
func (b *UserBuilder) WithUpdatedAt(t time.Time) *UserBuilder {
	b.updatedAt = t
	return b
}

// WithHireable sets the upstream hireable flag
func (b *UserBuilder) WithHireable(hireable bool) *UserBuilder {
	b.isHireable = hireable
	return b
}

// WithSponsorsListing sets the sponsors listing flag
func (b *UserBuilder) WithSponsorsListing(listed bool) *UserBuilder {
	b.hasSponsors = listed
	return b
}

// WithSocialAccount adds a linked social account
func (b *UserBuilder) WithSocialAccount(provider, url string) *UserBuilder {
	b.socialAccounts = append(b.socialAccounts, map[string]interface{}{
		"provider":    provider,
		"url":         url,
		"displayName": b.login,
	})
	return b
}

// Build creates the user data structure. Extended fields are always
// present; a base-field query simply ignores them.
func (b *UserBuilder) Build() map[string]interface{} {
	social := b.socialAccounts
	if social == nil {
		social = []map[string]interface{}{}
	}

	user := map[string]interface{}{
		"id":         fmt.Sprintf("U_%d", b.number),
		"login":      b.login,
		"name":       b.name,
		"avatarUrl":  fmt.Sprintf("https://avatars.githubusercontent.com/u/%d", b.number),
		"url":        fmt.Sprintf("https://github.com/%s", b.login),
		"websiteUrl": b.websiteURL,
		"bio":        b.bio,
		"updatedAt":  b.updatedAt.Format(time.RFC3339),
		"followers": map[string]interface{}{
			"totalCount": b.followers,
		},
		"company":            b.company,
		"createdAt":          b.createdAt.Format(time.RFC3339),
		"email":              b.email,
		"location":           b.location,
		"twitterUsername":    b.twitterUsername,
		"isHireable":         b.isHireable,
		"hasSponsorsListing": b.hasSponsors,
		"socialAccounts": map[string]interface{}{
			"totalCount": len(social),
			"nodes":      social,
		},
	}

	if b.status != "" {
		user["status"] = map[string]interface{}{"message": b.status}
	} else {
		user["status"] = nil
	}

	return user
}

// SearchResponseBuilder builds GraphQL user search responses
type SearchResponseBuilder struct {
	users       []map[string]interface{}
	totalCount  int
	hasNextPage bool
	endCursor   string
	errors      []map[string]interface{}
}

// NewSearchResponseBuilder creates a new response builder
func NewSearchResponseBuilder() *SearchResponseBuilder {
	return &SearchResponseBuilder{
		users: []map[string]interface{}{},
	}
}

// WithUsers adds users to the response
func (b *SearchResponseBuilder) WithUsers(users ...map[string]interface{}) *SearchResponseBuilder {
	b.users = append(b.users, users...)
	return b
}

// WithTotalCount sets the reported userCount
func (b *SearchResponseBuilder) WithTotalCount(total int) *SearchResponseBuilder {
	b.totalCount = total
	return b
}

// WithPagination sets pagination info
func (b *SearchResponseBuilder) WithPagination(hasNext bool, cursor string) *SearchResponseBuilder {
	b.hasNextPage = hasNext
	b.endCursor = cursor
	return b
}

// WithError adds an error to the response
func (b *SearchResponseBuilder) WithError(message string) *SearchResponseBuilder {
	b.errors = append(b.errors, map[string]interface{}{
		"message": message,
	})
	return b
}

// Build creates the GraphQL response. The keys follow the aliases the
// client requests: totalCount for userCount and items for nodes.
func (b *SearchResponseBuilder) Build() map[string]interface{} {
	if len(b.errors) > 0 {
		return map[string]interface{}{
			"errors": b.errors,
		}
	}

	var cursor *string
	if b.endCursor != "" {
		cursor = &b.endCursor
	}

	total := b.totalCount
	if total == 0 {
		total = len(b.users)
	}

	return map[string]interface{}{
		"data": map[string]interface{}{
			"search": map[string]interface{}{
				"totalCount": total,
				"pageInfo": map[string]interface{}{
					"hasNextPage": b.hasNextPage,
					"endCursor":   cursor,
				},
				"items": b.users,
			},
		},
	}
}
