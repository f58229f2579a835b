/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher tries an ordered list of compiled patterns against a line.
// A Matcher is immutable after construction and safe for concurrent use.
type Matcher struct {
	concept  string
	patterns []*regexp.Regexp
}

// Match is the result of a successful Matcher.Match.
type Match struct {
	// Pattern is the index of the winning pattern among the compiled ones.
	Pattern int
	// Groups holds the full match at index 0 followed by the capture groups.
	Groups []string
}

// Group returns capture group i, or "" when the group does not exist.
func (m Match) Group(i int) string {
	if i < 0 || i >= len(m.Groups) {
		return ""
	}
	return m.Groups[i]
}

// NewMatcher compiles exprs in order. Patterns that are too long or fail to
// compile are skipped and reported; the returned Matcher is always usable.
// Matching is case-insensitive unless a pattern sets its own flags.
func NewMatcher(concept string, exprs []string) (*Matcher, []error) {
	m := &Matcher{concept: concept}
	var errs []error
	for i, expr := range exprs {
		if strings.TrimSpace(expr) == "" {
			errs = append(errs, &PatternError{Concept: concept, Index: i, Pattern: expr, Message: "empty pattern"})
			continue
		}
		if len(expr) > MaxPatternLength {
			errs = append(errs, &PatternError{
				Concept: concept, Index: i, Pattern: expr,
				Message: fmt.Sprintf("pattern too long: %d bytes (max %d)", len(expr), MaxPatternLength),
			})
			continue
		}
		src := expr
		if !strings.HasPrefix(src, "(?") {
			src = "(?i)" + src
		}
		re, err := regexp.Compile(src)
		if err != nil {
			errs = append(errs, &PatternError{
				Concept: concept, Index: i, Pattern: expr,
				Message: fmt.Sprintf("invalid regular expression: %v", err),
				Cause:   err,
			})
			continue
		}
		m.patterns = append(m.patterns, re)
	}
	return m, errs
}

// Match returns the first pattern matching line.
func (m *Matcher) Match(line string) (Match, bool) {
	if m == nil {
		return Match{}, false
	}
	for i, re := range m.patterns {
		if g := re.FindStringSubmatch(line); g != nil {
			return Match{Pattern: i, Groups: g}, true
		}
	}
	return Match{}, false
}

// MatchString reports whether any pattern matches line.
func (m *Matcher) MatchString(line string) bool {
	_, ok := m.Match(line)
	return ok
}

// Len returns the number of usable patterns.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.patterns)
}

// Concept returns the configuration key this matcher was built from.
func (m *Matcher) Concept() string { return m.concept }
