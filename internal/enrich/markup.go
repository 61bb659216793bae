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

package enrich

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// Rule is one markup rewrite. Rules run over text that has already been
// escaped, so the markup they inject is the only markup in the result.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Replace string
}

// OrganizationRules turn @org mentions into profile links.
var OrganizationRules = []Rule{
	{
		Name:    "org-mention",
		Pattern: regexp.MustCompile(`@([\w-]+)`),
		Replace: `<a href="https://github.com/${1}" target="_blank">@${1}</a>`,
	},
}

// KeywordRules emphasise words that suggest the user is open to work.
// Each stem matches case-insensitively at a word start and extends to the
// end of the word.
var KeywordRules = []Rule{
	{Name: "hire", Pattern: regexp.MustCompile(`(?i)\b(hir\w*)`), Replace: `<em>${1}</em>`},
	{Name: "job", Pattern: regexp.MustCompile(`(?i)\b(job\w*)`), Replace: `<em>${1}</em>`},
	{Name: "freelance", Pattern: regexp.MustCompile(`(?i)\b(free-?lanc\w*)`), Replace: `<em>${1}</em>`},
	{Name: "project", Pattern: regexp.MustCompile(`(?i)\b(project\w*)`), Replace: `<em>${1}</em>`},
}

// escaper strips all tags and escapes entities.
var escaper = bluemonday.StrictPolicy()

// Escape makes untrusted profile text safe to embed in HTML.
func Escape(s string) string {
	return escaper.Sanitize(s)
}

// Apply runs rules in order over s and reports whether any of them matched.
// s is not escaped.
func Apply(rules []Rule, s string) (string, bool) {
	matched := false
	for _, rule := range rules {
		if !rule.Pattern.MatchString(s) {
			continue
		}
		matched = true
		s = rule.Pattern.ReplaceAllString(s, rule.Replace)
	}
	return s, matched
}

// LinkOrganizations escapes company text and links every @org token.
func LinkOrganizations(company string) string {
	out, _ := Apply(OrganizationRules, Escape(company))
	return out
}

// HighlightKeywords escapes bio text and wraps hireability keywords in
// <em>. The bool reports whether any keyword was found.
func HighlightKeywords(bio string) (string, bool) {
	return Apply(KeywordRules, Escape(bio))
}
