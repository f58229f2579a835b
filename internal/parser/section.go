/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package parser

import (
	"gmscenario/internal/domain"
	"gmscenario/internal/pattern"
)

// Context is what a Section sees while parsing. Settings are the game
// settings known so far; sections must treat them as read-only.
type Context struct {
	Lines    []string
	Patterns *pattern.Set
	Classify Classifier
	Settings *domain.GameSettings
}

// Outcome is the result of one Section.Parse call. Next is always the index
// of the first line the section did not consume. When Err is set the other
// data fields are ignored.
type Outcome struct {
	Next int

	Metadata     *domain.Metadata
	GameSettings *domain.GameSettings
	Scenes       []*domain.Scene

	Warnings []Warning
	Err      *SectionError
}

func (o *Outcome) warn(i int, text, msg string, kind WarningKind) {
	o.Warnings = append(o.Warnings, Warning{Line: i + 1, Text: text, Message: msg, Kind: kind})
}

func (o *Outcome) unprocessed(i int, text string) {
	o.warn(i, text, "unprocessed line", Unprocessed)
}

// Section is the grammar of one top-level ("##") section.
type Section interface {
	// Name is used in SectionError.Section.
	Name() string
	// CanHandle reports whether line is this section's header.
	CanHandle(line string) bool
	// Parse consumes the section starting at its header line.
	Parse(ctx *Context, start int) Outcome
}

// sectionEnd returns the index of the first line after start that is a
// boundary at depth or shallower.
func sectionEnd(lines []string, start, depth int) int {
	for i := start + 1; i < len(lines); i++ {
		if IsBoundary(lines[i], depth) {
			return i
		}
	}
	return len(lines)
}
