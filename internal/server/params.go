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

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirseerhq/sirseer-scout/internal/filter"
	"github.com/sirseerhq/sirseer-scout/internal/search"
)

// maxBodyBytes bounds POST search bodies.
const maxBodyBytes = 1 << 20

// flexBool accepts a JSON boolean or the strings "true" and "false".
type flexBool struct {
	set   bool
	value bool
}

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = flexBool{}
		return nil
	}

	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case bool:
		*b = flexBool{set: true, value: v}
		return nil
	case string:
		parsed, err := parseBool(v)
		if err != nil {
			return err
		}
		*b = flexBool{set: true, value: parsed}
		return nil
	default:
		return errors.New("must be true or false")
	}
}

// flexInt accepts a JSON number or a numeric string.
type flexInt struct {
	set   bool
	value int
}

func (n *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = flexInt{}
		return nil
	}

	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case float64:
		if v != float64(int(v)) {
			return errors.New("must be a whole number")
		}
		*n = flexInt{set: true, value: int(v)}
		return nil
	case string:
		if strings.TrimSpace(v) == "" {
			*n = flexInt{}
			return nil
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.New("must be a number")
		}
		*n = flexInt{set: true, value: parsed}
		return nil
	default:
		return errors.New("must be a number")
	}
}

func parseBool(s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("must be true or false, got %q", s)
	}
}

// searchParams is the wire form of a search request before coercion.
type searchParams struct {
	Query          string
	Limit          flexInt
	Cursor         *string
	HasWebsiteURL  flexBool
	IsContactable  flexBool
	IsHireable     flexBool
	NoCompany      flexBool
	RecentlyActive flexBool
	Extended       flexBool
	Location       string
	Language       string
}

var boolParams = []string{
	"hasWebsiteUrl",
	"isContactable",
	"isHireable",
	"noCompany",
	"recentlyActive",
	"extended",
}

func (p *searchParams) boolField(name string) *flexBool {
	switch name {
	case "hasWebsiteUrl":
		return &p.HasWebsiteURL
	case "isContactable":
		return &p.IsContactable
	case "isHireable":
		return &p.IsHireable
	case "noCompany":
		return &p.NoCompany
	case "recentlyActive":
		return &p.RecentlyActive
	case "extended":
		return &p.Extended
	}
	return nil
}

// paramsFromQuery reads search parameters from a URL query string.
func paramsFromQuery(values url.Values) (searchParams, []string) {
	var (
		p        searchParams
		problems []string
	)

	p.Query = values.Get("query")
	p.Location = values.Get("location")
	p.Language = values.Get("language")
	if values.Has("cursor") {
		cursor := values.Get("cursor")
		p.Cursor = &cursor
	}

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			problems = append(problems, "limit must be a number")
		} else {
			p.Limit = flexInt{set: true, value: limit}
		}
	}

	for _, name := range boolParams {
		if !values.Has(name) {
			continue
		}
		v, err := parseBool(values.Get(name))
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s %v", name, err))
			continue
		}
		*p.boolField(name) = flexBool{set: true, value: v}
	}

	return p, problems
}

// paramsFromBody reads search parameters from a JSON object body. Each
// field is decoded on its own so problems name the offending field.
func paramsFromBody(body io.Reader) (searchParams, []string) {
	var (
		p        searchParams
		fields   map[string]json.RawMessage
		problems []string
	)

	if err := json.NewDecoder(body).Decode(&fields); err != nil {
		return p, []string{"request body must be a JSON object"}
	}

	decode := func(name string, dst interface{}) {
		raw, ok := fields[name]
		if !ok {
			return
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				problems = append(problems, name+" has the wrong type")
				return
			}
			problems = append(problems, fmt.Sprintf("%s %v", name, err))
		}
	}

	decode("query", &p.Query)
	decode("limit", &p.Limit)
	decode("cursor", &p.Cursor)
	decode("location", &p.Location)
	decode("language", &p.Language)
	for _, name := range boolParams {
		decode(name, p.boolField(name))
	}

	return p, problems
}

// toRequest coerces params into a search.Request. An absent limit takes
// defaultLimit; a present one must be in range.
func (p searchParams) toRequest(defaultLimit int) search.Request {
	req := search.Request{
		Query:    strings.TrimSpace(p.Query),
		Limit:    defaultLimit,
		Location: p.Location,
		Language: p.Language,
		Extended: p.Extended.value,
		Filters: filter.Filters{
			HasWebsiteURL:  p.HasWebsiteURL.value,
			IsContactable:  p.IsContactable.value,
			IsHireable:     p.IsHireable.value,
			NoCompany:      p.NoCompany.value,
			RecentlyActive: p.RecentlyActive.value,
		},
	}
	if p.Limit.set {
		req.Limit = p.Limit.value
	}
	if p.Cursor != nil {
		req.Cursor = *p.Cursor
	}
	return req
}

// parseSearchRequest builds and validates a search request from either the
// query string (GET) or a JSON body (POST).
func parseSearchRequest(r *http.Request, defaultLimit int) (search.Request, error) {
	var (
		params   searchParams
		problems []string
	)

	if r.Method == http.MethodPost {
		params, problems = paramsFromBody(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	} else {
		params, problems = paramsFromQuery(r.URL.Query())
	}
	if len(problems) > 0 {
		return search.Request{}, search.NewValidationError(problems...)
	}

	req := params.toRequest(defaultLimit)
	if err := req.Validate(); err != nil {
		return search.Request{}, err
	}
	return req, nil
}

// pageParams reads a positive page number and page size for the REST route.
func pageParams(values url.Values, defaultLimit int) (page, limit int, err error) {
	page, limit = 1, defaultLimit
	var problems []string

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 1 {
			problems = append(problems, "page must be a positive number")
		} else {
			page = n
		}
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 1 || n > 100 {
			problems = append(problems, "limit must be between 1 and 100")
		} else {
			limit = n
		}
	}

	if len(problems) > 0 {
		return 0, 0, search.NewValidationError(problems...)
	}
	return page, limit, nil
}
