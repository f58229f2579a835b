/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package telemetry

import "gmscenario/internal/domain"

// Event names.
const (
	EventScenarioLoaded = "scenario_loaded"
	EventScenarioSaved  = "scenario_saved"
	EventExport         = "export"
)

// ScenarioStats is the anonymous shape of a scenario.
type ScenarioStats struct {
	Scenes      int
	Exploration int
	Secret      int
	Narrative   int
	Items       int
	Players     int
	Levels      int
	Warnings    int
}

// StatsFor counts the parts of s. warnings is the number of parse warnings
// reported while loading it.
func StatsFor(s *domain.Scenario, warnings int) ScenarioStats {
	st := ScenarioStats{Warnings: warnings}
	if s == nil {
		return st
	}
	st.Players = len(s.GameSettings.ActivePlayerNames())
	st.Levels = s.GameSettings.LevelCount()
	for _, sc := range s.Scenes() {
		st.Scenes++
		st.Items += sc.Len()
		switch sc.Kind {
		case domain.SceneExploration:
			st.Exploration++
		case domain.SceneSecretDistribution:
			st.Secret++
		case domain.SceneNarrative:
			st.Narrative++
		}
	}
	return st
}

// Props converts the stats to event properties.
func (st ScenarioStats) Props() map[string]any {
	return map[string]any{
		"scenes":      st.Scenes,
		"exploration": st.Exploration,
		"secret":      st.Secret,
		"narrative":   st.Narrative,
		"items":       st.Items,
		"players":     st.Players,
		"levels":      st.Levels,
		"warnings":    st.Warnings,
	}
}

// ScenarioLoaded reports a loaded scenario through c.
func (c *Client) ScenarioLoaded(st ScenarioStats) { c.Event(EventScenarioLoaded, st.Props()) }

// ScenarioLoaded reports a loaded scenario through the default client.
func ScenarioLoaded(st ScenarioStats) { Default().ScenarioLoaded(st) }
