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
	"strings"

	"gmscenario/internal/domain"
	"gmscenario/internal/pattern"
)

type gameSettingsSection struct {
	p *pattern.Set
}

// NewGameSettingsSection returns the "## Game Settings" grammar with its
// Players and Judgement Levels sub-sections.
func NewGameSettingsSection(p *pattern.Set) Section { return gameSettingsSection{p: p} }

func (gameSettingsSection) Name() string { return SectionGameSettings }

func (s gameSettingsSection) CanHandle(line string) bool {
	return HeadingDepth(line) == DepthSection && s.p.GameSettings.MatchString(strings.TrimSpace(line))
}

type subsection int

const (
	subNone subsection = iota
	subPlayers
	subLevels
	subUnknown
)

// Parse starts from the settings in ctx so that sub-sections missing from
// the document keep their current values.
func (s gameSettingsSection) Parse(ctx *Context, start int) Outcome {
	end := sectionEnd(ctx.Lines, start, DepthSection)
	out := Outcome{Next: end}
	gs := ctx.Settings.Clone()

	var (
		sub        subsection
		sawPlayers bool
		highest    int
		levels     []string
	)
	for i := start + 1; i < end; i++ {
		line := ctx.Lines[i]
		if isBlank(line) {
			continue
		}
		if HeadingDepth(line) == DepthSub {
			trimmed := strings.TrimSpace(line)
			switch {
			case s.p.Players.MatchString(trimmed):
				sub = subPlayers
				if !sawPlayers {
					sawPlayers = true
					for j := 0; j < domain.MaxSupportedPlayers; j++ {
						gs.Players.SetName(j, "")
					}
				}
			case s.p.JudgementLevels.MatchString(trimmed):
				sub = subLevels
			default:
				sub = subUnknown
				out.warn(i, line, "unknown game settings sub-section", Unprocessed)
			}
			continue
		}
		switch sub {
		case subUnknown:
			continue
		case subPlayers:
			n, name, ok := ctx.Classify.Numbered(line)
			if !ok {
				out.unprocessed(i, line)
				continue
			}
			if n < 1 || n > domain.MaxSupportedPlayers {
				out.warn(i, line, fmt.Sprintf("player slot out of range 1..%d", domain.MaxSupportedPlayers), Recovered)
				continue
			}
			if s.p.IsEmptyMarker(name) {
				gs.Players.SetName(n-1, "")
				continue
			}
			gs.Players.SetName(n-1, name)
			if n > highest {
				highest = n
			}
		case subLevels:
			_, name, ok := ctx.Classify.Numbered(line)
			if !ok {
				out.unprocessed(i, line)
				continue
			}
			if name == "" {
				out.warn(i, line, "blank judgement level skipped", Recovered)
				continue
			}
			levels = append(levels, name)
		default:
			out.unprocessed(i, line)
		}
	}
	if sawPlayers {
		gs.Players.SetScenarioPlayerCount(highest)
	}
	if len(levels) > 0 {
		gs.Judgement.SetLevels(levels)
	}
	out.GameSettings = &gs
	return out
}
