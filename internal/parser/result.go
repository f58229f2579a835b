/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package parser

import (
	"fmt"

	"gmscenario/internal/domain"
)

// Section names used in SectionError.Section.
const (
	SectionTitle        = "title"
	SectionMetadata     = "metadata"
	SectionGameSettings = "game_settings"
	SectionScenes       = "scenes"
)

// WarningKind classifies a Warning.
type WarningKind int

const (
	// Unprocessed marks a line no grammar rule claimed.
	Unprocessed WarningKind = iota
	// Recovered marks a line that was understood but could not be applied
	// as written (bad date, duplicate item, out-of-range slot).
	Recovered
	// Diagnostic marks a document-level observation, such as section order.
	Diagnostic
)

func (k WarningKind) String() string {
	switch k {
	case Unprocessed:
		return "unprocessed"
	case Recovered:
		return "recovered"
	case Diagnostic:
		return "diagnostic"
	default:
		return fmt.Sprintf("WarningKind(%d)", int(k))
	}
}

// Warning is a non-fatal observation about one line. Line is 1-based; 0
// means the warning concerns the whole document.
type Warning struct {
	Line    int
	Text    string
	Message string
	Kind    WarningKind
}

func (w Warning) String() string {
	switch {
	case w.Line == 0:
		return w.Message
	case w.Text == "":
		return fmt.Sprintf("line %d: %s", w.Line, w.Message)
	default:
		return fmt.Sprintf("line %d: %s: %q", w.Line, w.Message, w.Text)
	}
}

// SectionError reports a section that could not be read. The section's
// partial data is discarded.
type SectionError struct {
	Section string
	Line    int
	Message string
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("%s section (line %d): %s", e.Section, e.Line, e.Message)
}

// Fatal reports whether the error prevents building a scenario at all.
func (e *SectionError) Fatal() bool {
	return e.Section == SectionMetadata || e.Section == SectionTitle
}

// Result is the best-effort output of Parse.
type Result struct {
	Title    string
	HasTitle bool

	// Metadata is nil when the document has no metadata section.
	Metadata *domain.Metadata
	// GameSettings is nil when the document has no game settings section.
	GameSettings *domain.GameSettings
	// Defaults are the settings scenes were resolved against when
	// GameSettings is nil.
	Defaults domain.GameSettings

	Scenes []*domain.Scene

	Errors   []*SectionError
	Warnings []Warning
}

// Settings returns the parsed game settings, or the defaults.
func (r *Result) Settings() domain.GameSettings {
	if r.GameSettings != nil {
		return *r.GameSettings
	}
	return r.Defaults
}

// HasFatal reports whether any error is fatal.
func (r *Result) HasFatal() bool {
	for _, e := range r.Errors {
		if e.Fatal() {
			return true
		}
	}
	return false
}
