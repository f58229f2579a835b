/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// GameSettings aggregates the player roster and the judgement levels.
type GameSettings struct {
	Players   PlayerSettings
	Judgement JudgementLevelSettings
}

// NewGameSettings returns default settings: six placeholder players with
// four active, and the default judgement levels.
func NewGameSettings() GameSettings {
	return GameSettings{
		Players:   NewPlayerSettings(),
		Judgement: NewJudgementLevelSettings(),
	}
}

// ActivePlayerNames returns the names active for this scenario.
func (g *GameSettings) ActivePlayerNames() []string { return g.Players.ActivePlayerNames() }

// LevelCount returns the number of judgement levels.
func (g *GameSettings) LevelCount() int { return g.Judgement.LevelCount() }

// DefaultLevelIndex returns the default judgement display index.
func (g *GameSettings) DefaultLevelIndex() int { return g.Judgement.DefaultIndex() }

// Clone returns a deep copy.
func (g GameSettings) Clone() GameSettings {
	out := g
	out.Judgement.levels = append([]string(nil), g.Judgement.levels...)
	return out
}
