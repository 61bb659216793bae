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

// Package github provides types and interfaces for interacting with the GitHub API.
package github

import "time"

// RawUser is a GitHub user as returned by the search API, before any
// enrichment. Optional string fields are empty when GitHub reports null.
// Fields only requested in extended mode stay zero otherwise.
type RawUser struct {
	ID              string         `json:"id"`
	Login           string         `json:"login"`
	Name            string         `json:"name"`
	AvatarURL       string         `json:"avatarUrl"`
	URL             string         `json:"url"`
	WebsiteURL      string         `json:"websiteUrl"`
	Bio             string         `json:"bio,omitempty"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	Followers       Count          `json:"followers"`
	Company         string         `json:"company,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	Email           string         `json:"email,omitempty"`
	Location        string         `json:"location,omitempty"`
	TwitterUsername string         `json:"twitterUsername,omitempty"`
	Status          *UserStatus    `json:"status,omitempty"`
	SocialAccounts  SocialAccounts `json:"socialAccounts"`

	IsHireable         bool `json:"isHireable"`
	HasSponsorsListing bool `json:"hasSponsorsListing"`
}

// Count wraps GitHub's connection totalCount.
type Count struct {
	TotalCount int `json:"totalCount"`
}

// UserStatus is the user's description of what they're currently doing.
type UserStatus struct {
	Message string `json:"message"`
}

// SocialAccounts lists the social profiles linked on a GitHub profile.
type SocialAccounts struct {
	TotalCount int             `json:"totalCount"`
	Nodes      []SocialAccount `json:"nodes"`
}

// SocialAccount is a single linked social profile.
type SocialAccount struct {
	Provider    string `json:"provider"`
	URL         string `json:"url"`
	DisplayName string `json:"displayName"`
}

// UserPage represents a page of users from a GraphQL search query.
// It includes the users for the current page and pagination information
// to support fetching subsequent pages.
type UserPage struct {
	// TotalCount is GitHub's userCount for the whole query, not the page.
	TotalCount  int
	Users       []RawUser
	HasNextPage bool
	EndCursor   string
}

// SearchOptions configures a single user search request.
type SearchOptions struct {
	// Query is sent to GitHub verbatim, qualifiers included.
	Query string

	// PageSize controls how many users to fetch per page.
	// Defaults to 10 if not specified. Maximum is 100 per GitHub's API limits.
	PageSize int

	// After is the cursor for pagination.
	// Empty string fetches from the beginning.
	// Use UserPage.EndCursor from previous response for next page.
	After string

	// Extended requests the contact and hireability fields in addition
	// to the base profile fields.
	Extended bool
}

// Default values for search operations
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)
