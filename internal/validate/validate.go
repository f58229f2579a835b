/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package validate checks business rules that the parser does not enforce.
package validate

import (
	"fmt"
	"strings"

	"gmscenario/internal/domain"
)

// Severity of an Issue.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Issue is one rule violation.
type Issue struct {
	Severity Severity
	// Scene is the scene name, empty for scenario-level issues.
	Scene   string
	Message string
}

func (i Issue) String() string {
	if i.Scene != "" {
		return fmt.Sprintf("%s: scene %q: %s", i.Severity, i.Scene, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Severity, i.Message)
}

// MinJudgementLevels is the smallest usable level list.
const MinJudgementLevels = 2

// Scenario runs every rule and returns the issues in a stable order.
func Scenario(s *domain.Scenario) []Issue {
	var out []Issue
	out = append(out, judgementLevels(&s.GameSettings)...)
	out = append(out, players(&s.GameSettings)...)
	out = append(out, scenes(s)...)
	return out
}

// HasErrors reports whether issues contain an Error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == Error {
			return true
		}
	}
	return false
}

func judgementLevels(gs *domain.GameSettings) []Issue {
	var out []Issue
	levels := gs.Judgement.Levels()
	if len(levels) < MinJudgementLevels {
		out = append(out, Issue{Severity: Error, Message: fmt.Sprintf("need at least %d judgement levels, have %d", MinJudgementLevels, len(levels))})
	}
	seen := map[string]bool{}
	for i, l := range levels {
		if strings.TrimSpace(l) == "" {
			out = append(out, Issue{Severity: Error, Message: fmt.Sprintf("judgement level %d has no name", i+1)})
			continue
		}
		k := strings.ToLower(l)
		if seen[k] {
			out = append(out, Issue{Severity: Error, Message: fmt.Sprintf("judgement level %q is listed twice", l)})
		}
		seen[k] = true
	}
	return out
}

func players(gs *domain.GameSettings) []Issue {
	var out []Issue
	seen := map[string]bool{}
	for _, n := range gs.ActivePlayerNames() {
		if seen[n] {
			out = append(out, Issue{Severity: Warning, Message: fmt.Sprintf("player name %q is used twice", n)})
		}
		seen[n] = true
	}
	return out
}

func scenes(s *domain.Scenario) []Issue {
	var out []Issue
	seen := map[string]bool{}
	active := s.GameSettings.ActivePlayerNames()
	for i, sc := range s.Scenes() {
		name := sc.Name
		if strings.TrimSpace(name) == "" {
			out = append(out, Issue{Severity: Warning, Message: fmt.Sprintf("scene %d has no name", i+1)})
		} else if seen[name] {
			out = append(out, Issue{Severity: Warning, Scene: name, Message: "scene name is used twice"})
		}
		seen[name] = true

		if sc.Len() == 0 {
			out = append(out, Issue{Severity: Warning, Scene: name, Message: "scene has no items"})
		}
		if sc.Kind == domain.SceneSecretDistribution {
			for _, p := range active {
				if sc.Target(p) == nil {
					out = append(out, Issue{Severity: Warning, Scene: name, Message: fmt.Sprintf("no entry for player %q", p)})
				}
			}
		}
	}
	return out
}
