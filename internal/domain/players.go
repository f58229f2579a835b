/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"
	"strings"
)

const (
	// MaxSupportedPlayers is the fixed roster capacity.
	MaxSupportedPlayers = 6
	// DefaultScenarioPlayerCount is the number of active slots in a new scenario.
	DefaultScenarioPlayerCount = 4
)

// PlaceholderPlayerName returns the positional placeholder for slot i (0-based).
func PlaceholderPlayerName(i int) string {
	return fmt.Sprintf("Player %d", i+1)
}

// PlayerSettings is a fixed-capacity roster plus the number of slots active
// in the current scenario. The active slots are always a prefix of the
// roster.
type PlayerSettings struct {
	names [MaxSupportedPlayers]string
	count int
}

// NewPlayerSettings returns a roster seeded with placeholder names and the
// default player count.
func NewPlayerSettings() PlayerSettings {
	var p PlayerSettings
	for i := range p.names {
		p.names[i] = PlaceholderPlayerName(i)
	}
	p.count = DefaultScenarioPlayerCount
	return p
}

// Name returns the name in slot i, or "" when i is out of range.
func (p *PlayerSettings) Name(i int) string {
	if i < 0 || i >= MaxSupportedPlayers {
		return ""
	}
	return p.names[i]
}

// SetName stores a trimmed name in slot i. A blank name marks the slot as
// unset. Out-of-range slots are ignored.
func (p *PlayerSettings) SetName(i int, name string) bool {
	if i < 0 || i >= MaxSupportedPlayers {
		return false
	}
	p.names[i] = strings.TrimSpace(name)
	return true
}

// Names returns a copy of all roster slots, including unset ones.
func (p *PlayerSettings) Names() []string {
	out := make([]string, MaxSupportedPlayers)
	copy(out, p.names[:])
	return out
}

// ScenarioPlayerCount returns the number of active slots.
func (p *PlayerSettings) ScenarioPlayerCount() int {
	if p.count < 1 {
		return 1
	}
	return p.count
}

// SetScenarioPlayerCount sets the active slot count, clamped to
// [1, MaxSupportedPlayers].
func (p *PlayerSettings) SetScenarioPlayerCount(n int) {
	p.count = ClampPlayerCount(n)
}

// ClampPlayerCount clamps n into [1, MaxSupportedPlayers].
func ClampPlayerCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxSupportedPlayers {
		return MaxSupportedPlayers
	}
	return n
}

// ActivePlayerNames returns the non-blank names within the active prefix.
func (p *PlayerSettings) ActivePlayerNames() []string {
	n := p.ScenarioPlayerCount()
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if p.names[i] != "" {
			out = append(out, p.names[i])
		}
	}
	return out
}

// IndexOf returns the slot holding name, or -1.
func (p *PlayerSettings) IndexOf(name string) int {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1
	}
	for i, n := range p.names {
		if n == name {
			return i
		}
	}
	return -1
}
