/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"strings"
	"time"
)

// DefaultTitle replaces blank titles.
const DefaultTitle = "Untitled Scenario"

// TimeLayout is the canonical text form of metadata timestamps.
const TimeLayout = "2006-01-02 15:04:05"

// Metadata describes a scenario document.
//
// Title must not be blank; use SetTitle (or NormalizeTitle when restoring a
// stored value) rather than assigning directly.
type Metadata struct {
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	Version     string    `json:"version,omitempty"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
}

// NewMetadata returns metadata with the default title and both timestamps set
// to the current time.
func NewMetadata() Metadata {
	now := Now()
	return Metadata{Title: DefaultTitle, Created: now, Modified: now}
}

// NormalizeTitle trims t, joins its lines with single spaces and substitutes
// DefaultTitle for blank input. A title is always one line.
func NormalizeTitle(t string) string {
	var parts []string
	for _, l := range strings.Split(strings.ReplaceAll(t, "\r", "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			parts = append(parts, l)
		}
	}
	if len(parts) == 0 {
		return DefaultTitle
	}
	return strings.Join(parts, " ")
}

// SetTitle stores a normalized title and refreshes Modified.
func (m *Metadata) SetTitle(t string) {
	m.Title = NormalizeTitle(t)
	m.Touch()
}

// Touch sets Modified to the current time.
func (m *Metadata) Touch() {
	m.Modified = Now()
}
