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
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// suggest returns the candidate closest to word when it is within an edit
// distance that scales with the candidate's length, else "".
func suggest(word string, candidates []string) string {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return ""
	}
	type scored struct {
		val  string
		dist int
	}
	var hits []scored
	for _, c := range candidates {
		cmp := strings.ToLower(strings.TrimSpace(c))
		if cmp == "" || cmp == word {
			continue
		}
		dist := levenshtein.ComputeDistance(word, cmp)
		if dist > levenshteinLimit(utf8.RuneCountInString(cmp)) {
			continue
		}
		hits = append(hits, scored{val: c, dist: dist})
	}
	if len(hits) == 0 {
		return ""
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].dist == hits[j].dist {
			return hits[i].val < hits[j].val
		}
		return hits[i].dist < hits[j].dist
	})
	return hits[0].val
}

func levenshteinLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

func withSuggestion(msg, word string, candidates []string) string {
	if s := suggest(word, candidates); s != "" {
		return fmt.Sprintf("%s (did you mean %q?)", msg, s)
	}
	return msg
}
