/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package parser turns scenario text into domain values.
//
// The document is read line by line. An optional "# Title" line comes first,
// then top-level "##" sections are handed to whichever Section claims their
// header. Sections never fail the whole parse: problems are collected as
// SectionErrors and Warnings on the Result, and callers (the loader) decide
// which of them are fatal.
//
// A Parser holds only immutable configuration and may be shared between
// goroutines.
package parser

import (
	"strconv"
	"strings"

	"gmscenario/internal/pattern"
)

// Heading depths of the text dialect.
const (
	DepthTitle   = 1
	DepthSection = 2
	DepthSub     = 3
	DepthItem    = 4
)

// HeadingDepth returns the number of leading '#' markers when they are
// followed by a space or the end of the line, else 0. Headings must start in
// column 0.
func HeadingDepth(line string) int {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 {
		return 0
	}
	if n < len(line) && line[n] != ' ' && line[n] != '\t' {
		return 0
	}
	return n
}

// HeadingText returns the text after the heading markers, trimmed.
func HeadingText(line string) string {
	d := HeadingDepth(line)
	if d == 0 {
		return ""
	}
	return strings.TrimSpace(line[d:])
}

// IsBoundary reports whether line is a heading at depth or shallower.
// Headings deeper than the four dialect levels are never boundaries.
func IsBoundary(line string, depth int) bool {
	d := HeadingDepth(line)
	return d > 0 && d <= depth && d <= DepthItem
}

func isBlank(line string) bool { return strings.TrimSpace(line) == "" }

// continuation returns the text of a line indented by at least two spaces
// (or a tab). Such lines extend the previous value.
func continuation(line string) (string, bool) {
	if !strings.HasPrefix(line, "  ") && !strings.HasPrefix(line, "\t") {
		return "", false
	}
	t := strings.TrimSpace(line)
	if t == "" {
		return "", false
	}
	return t, true
}

// Classifier extracts the fixed line shapes using a pattern set. All methods
// are pure; a false result only means "not this shape".
type Classifier struct {
	p *pattern.Set
}

// NewClassifier returns a classifier over p.
func NewClassifier(p *pattern.Set) Classifier { return Classifier{p: p} }

// KeyValue matches "- key: value".
func (c Classifier) KeyValue(line string) (key, value string, ok bool) {
	m, ok := c.p.KeyValue.Match(strings.TrimSpace(line))
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(m.Group(1)), strings.TrimSpace(m.Group(2)), true
}

// Numbered matches "N. content". N must be a decimal integer.
func (c Classifier) Numbered(line string) (n int, value string, ok bool) {
	m, ok := c.p.NumberedList.Match(strings.TrimSpace(line))
	if !ok {
		return 0, "", false
	}
	n, err := strconv.Atoi(normalizeDigits(m.Group(1)))
	if err != nil {
		return 0, "", false
	}
	return n, strings.TrimSpace(m.Group(2)), true
}

// JudgementResult matches "- level: text".
func (c Classifier) JudgementResult(line string) (level, text string, ok bool) {
	m, ok := c.p.JudgementResult.Match(strings.TrimSpace(line))
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(m.Group(1)), strings.TrimSpace(m.Group(2)), true
}

// Memo matches a labeled memo line and returns its text.
func (c Classifier) Memo(line string) (string, bool) {
	m, ok := c.p.Memo.Match(strings.TrimSpace(line))
	if !ok {
		return "", false
	}
	return strings.TrimSpace(m.Group(1)), true
}

// normalizeDigits maps full-width digits to ASCII.
func normalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '０' && r <= '９' {
			return '0' + (r - '０')
		}
		return r
	}, s)
}
