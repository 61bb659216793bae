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
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sirseerhq/sirseer-scout/internal/enrich"
	scouterrors "github.com/sirseerhq/sirseer-scout/internal/errors"
	"github.com/sirseerhq/sirseer-scout/internal/filter"
	"github.com/sirseerhq/sirseer-scout/internal/github"
)

// DefaultLimit is the page size used when a request leaves Limit at zero.
const DefaultLimit = github.DefaultPageSize

// Request is one search invocation.
type Request struct {
	// Query is free text in GitHub search syntax. The service appends type:user.
	Query string `json:"query" validate:"required,max=256"`
	// Limit is the upstream page size.
	Limit int `json:"limit" validate:"min=1,max=100"`
	// Cursor is the opaque endCursor of a previous page. Empty starts from the top.
	Cursor   string         `json:"cursor,omitempty"`
	Filters  filter.Filters `json:"filters"`
	Extended bool           `json:"extended"`

	// Location and Language become search qualifiers composed with Query.
	Location string `json:"location,omitempty" validate:"max=100"`
	Language string `json:"language,omitempty" validate:"max=100"`
}

// PageInfo is the upstream pagination state of the last page fetched.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// Page is what one invocation returns. Items holds only the filtered users
// of the last upstream page fetched. RetrievedCount and FilteredCount
// accumulate over every page fetched by the invocation.
type Page struct {
	TotalCount     int           `json:"totalCount"`
	PageInfo       PageInfo      `json:"pageInfo"`
	Items          []enrich.User `json:"items"`
	RetrievedCount int           `json:"retrievedCount"`
	FilteredCount  int           `json:"filteredCount"`
}

// ValidationError reports request fields that failed validation. It wraps
// errors.ErrValidation.
type ValidationError struct {
	Problems []string
}

// NewValidationError builds a ValidationError from formatted problems.
func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// Unwrap lets errors.Is match errors.ErrValidation.
func (e *ValidationError) Unwrap() error {
	return scouterrors.ErrValidation
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the request after defaults are applied.
func (r Request) Validate() error {
	r.Query = strings.TrimSpace(r.Query)
	if err := validate.Struct(r); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// WithDefaults fills zero fields with their defaults and trims the query.
func (r Request) WithDefaults(defaultLimit int) Request {
	r.Query = strings.TrimSpace(r.Query)
	if r.Limit == 0 {
		r.Limit = defaultLimit
	}
	return r
}

func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate request: %w", err)
	}

	problems := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		problems = append(problems, formatFieldError(e))
	}
	return NewValidationError(problems...)
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if e.Kind() == reflect.Int {
			return fmt.Sprintf("%s must be at least %s", field, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "max":
		if e.Kind() == reflect.Int {
			return fmt.Sprintf("%s must be at most %s", field, e.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
