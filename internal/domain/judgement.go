/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "strings"

// DefaultJudgementLevels are the outcome tiers of a new scenario, best first.
var DefaultJudgementLevels = []string{"Critical Success", "Success", "Failure", "Critical Failure"}

// defaultLevelIndex points at "Success" in DefaultJudgementLevels.
const defaultLevelIndex = 1

// JudgementLevelSettings is the ordered list of judgement outcome names. The
// order is meaningful: item texts are keyed by the index into this list.
type JudgementLevelSettings struct {
	levels       []string
	defaultIndex int
}

// NewJudgementLevelSettings returns the default four levels.
func NewJudgementLevelSettings() JudgementLevelSettings {
	return JudgementLevelSettings{
		levels:       append([]string(nil), DefaultJudgementLevels...),
		defaultIndex: defaultLevelIndex,
	}
}

// Levels returns a copy of the level names in order.
func (j *JudgementLevelSettings) Levels() []string {
	return append([]string(nil), j.levels...)
}

// SetLevels replaces the level list. Names are trimmed; the default index is
// clamped into the new range.
func (j *JudgementLevelSettings) SetLevels(names []string) {
	levels := make([]string, len(names))
	for i, n := range names {
		levels[i] = strings.TrimSpace(n)
	}
	j.levels = levels
	j.SetDefaultIndex(j.defaultIndex)
}

// LevelCount returns the number of levels.
func (j *JudgementLevelSettings) LevelCount() int { return len(j.levels) }

// Name returns level i, or "" when out of range.
func (j *JudgementLevelSettings) Name(i int) string {
	if i < 0 || i >= len(j.levels) {
		return ""
	}
	return j.levels[i]
}

// IndexOf resolves a level name (trimmed, case-insensitive) to its index, or -1.
func (j *JudgementLevelSettings) IndexOf(name string) int {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1
	}
	for i, l := range j.levels {
		if strings.EqualFold(l, name) {
			return i
		}
	}
	return -1
}

// DefaultIndex is the level shown first when displaying an item.
func (j *JudgementLevelSettings) DefaultIndex() int { return j.defaultIndex }

// SetDefaultIndex sets the default display index, clamped to the level range.
func (j *JudgementLevelSettings) SetDefaultIndex(i int) {
	switch {
	case len(j.levels) == 0 || i < 0:
		j.defaultIndex = 0
	case i >= len(j.levels):
		j.defaultIndex = len(j.levels) - 1
	default:
		j.defaultIndex = i
	}
}
