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

// Scenario is the root aggregate. It exclusively owns its scenes and their
// items. Mutating methods mark the scenario modified.
type Scenario struct {
	Metadata     Metadata
	GameSettings GameSettings
	// Path is the file the scenario was loaded from or last saved to.
	Path string

	scenes []*Scene
	dirty  bool
}

// New returns an empty scenario with default metadata and game settings.
func New() *Scenario {
	return &Scenario{
		Metadata:     NewMetadata(),
		GameSettings: NewGameSettings(),
	}
}

// Restore builds a clean scenario from stored parts without touching its
// timestamps. Items are resized to the level count of gs and the targets of
// secret distribution scenes are aligned with the active roster of gs, so
// scenes built against another roster end up in the same shape as scenes
// built after gs. The scenes become owned by the scenario.
func Restore(md Metadata, gs GameSettings, scenes []*Scene, path string) *Scenario {
	md.Title = NormalizeTitle(md.Title)
	s := &Scenario{Metadata: md, GameSettings: gs.Clone(), Path: path}
	n := s.GameSettings.LevelCount()
	for _, sc := range scenes {
		if sc == nil {
			continue
		}
		sc.ResizeLevels(n)
		s.scenes = append(s.scenes, sc)
	}
	active := s.GameSettings.ActivePlayerNames()
	for _, sc := range s.scenes {
		if sc.Kind == SceneSecretDistribution {
			_ = sc.AlignTargets(active)
		}
	}
	return s
}

// Scenes returns the scenes in order. The slice is a copy.
func (s *Scenario) Scenes() []*Scene {
	return append([]*Scene(nil), s.scenes...)
}

// SceneCount returns the number of scenes.
func (s *Scenario) SceneCount() int { return len(s.scenes) }

// HasUnsavedChanges reports whether the scenario changed since MarkSaved.
func (s *Scenario) HasUnsavedChanges() bool { return s.dirty }

// MarkModified sets the dirty flag and refreshes the last-modified time.
func (s *Scenario) MarkModified() {
	s.dirty = true
	s.Metadata.Touch()
}

// MarkSaved records path as the scenario's location and clears the dirty flag.
func (s *Scenario) MarkSaved(path string) {
	if path != "" {
		s.Path = path
	}
	s.dirty = false
}

// SetTitle sets the title (blank falls back to DefaultTitle).
func (s *Scenario) SetTitle(t string) {
	s.Metadata.SetTitle(t)
	s.dirty = true
}

// SetAuthor sets the author.
func (s *Scenario) SetAuthor(a string) {
	s.Metadata.Author = strings.TrimSpace(a)
	s.MarkModified()
}

// SetDescription sets the description.
func (s *Scenario) SetDescription(d string) {
	s.Metadata.Description = strings.TrimSpace(d)
	s.MarkModified()
}

// SetScenarioPlayerCount sets the number of active players (clamped) and
// gives every secret-distribution scene a target for each active player.
func (s *Scenario) SetScenarioPlayerCount(n int) {
	s.GameSettings.Players.SetScenarioPlayerCount(n)
	s.syncSecretScenes()
	s.MarkModified()
}

// SetPlayerName renames roster slot i. When the previous name had targets
// in secret-distribution scenes they are re-keyed to the new name. A scene
// that already has a target under the new name fails the call before
// anything changes.
func (s *Scenario) SetPlayerName(i int, name string) error {
	if i < 0 || i >= MaxSupportedPlayers {
		return fmt.Errorf("player slot %d out of range", i+1)
	}
	old := s.GameSettings.Players.Name(i)
	name = strings.TrimSpace(name)

	var rekey []*Scene
	if old != "" && name != "" && old != name {
		for _, sc := range s.scenes {
			if sc.Kind != SceneSecretDistribution || sc.Item(old) == nil {
				continue
			}
			if sc.Item(name) != nil {
				return fmt.Errorf("scene %q: %w: %q", sc.Name, ErrDuplicateItem, name)
			}
			rekey = append(rekey, sc)
		}
	}

	s.GameSettings.Players.SetName(i, name)
	for _, sc := range rekey {
		// checked above: the new name is free in every scene
		_ = sc.RenamePlayer(old, name)
	}
	s.syncSecretScenes()
	s.MarkModified()
	return nil
}

// RenamePlayer renames the slot currently holding oldName.
func (s *Scenario) RenamePlayer(oldName, newName string) error {
	i := s.GameSettings.Players.IndexOf(oldName)
	if i < 0 {
		return fmt.Errorf("%w: player %q", ErrItemNotFound, oldName)
	}
	return s.SetPlayerName(i, newName)
}

// SetJudgementLevels replaces the level list and resizes every
// judgement-capable item, keeping texts by index.
func (s *Scenario) SetJudgementLevels(names []string) {
	s.GameSettings.Judgement.SetLevels(names)
	n := s.GameSettings.LevelCount()
	for _, sc := range s.scenes {
		sc.ResizeLevels(n)
	}
	s.MarkModified()
}

func (s *Scenario) syncSecretScenes() {
	active := s.GameSettings.ActivePlayerNames()
	for _, sc := range s.scenes {
		if sc.Kind == SceneSecretDistribution {
			_ = sc.SyncPlayers(active)
		}
	}
}

// NewScene creates a scene of the given kind wired to the scenario's game
// settings and appends it.
func (s *Scenario) NewScene(kind SceneKind, name string) *Scene {
	var sc *Scene
	switch kind {
	case SceneSecretDistribution:
		sc = NewSecretDistributionScene(name, &s.GameSettings)
	case SceneNarrative:
		sc = NewNarrativeScene(name)
	default:
		sc = NewExplorationScene(name, s.GameSettings.LevelCount())
	}
	s.AddScene(sc)
	return sc
}

// AddScene appends sc. The scenario takes ownership of it.
func (s *Scenario) AddScene(sc *Scene) {
	if sc == nil {
		return
	}
	s.scenes = append(s.scenes, sc)
	s.MarkModified()
}

// RemoveScene deletes the scene with the given ID.
func (s *Scenario) RemoveScene(id string) error {
	for i, sc := range s.scenes {
		if sc.ID == id {
			s.scenes = append(s.scenes[:i], s.scenes[i+1:]...)
			s.MarkModified()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrSceneNotFound, id)
}

// MoveScene moves the scene at index from to index to.
func (s *Scenario) MoveScene(from, to int) error {
	if from < 0 || from >= len(s.scenes) || to < 0 || to >= len(s.scenes) {
		return fmt.Errorf("move scene %d -> %d: index out of range", from, to)
	}
	if from == to {
		return nil
	}
	sc := s.scenes[from]
	s.scenes = append(s.scenes[:from], s.scenes[from+1:]...)
	s.scenes = append(s.scenes[:to], append([]*Scene{sc}, s.scenes[to:]...)...)
	s.MarkModified()
	return nil
}

// SceneByID returns the scene with the given ID, or nil.
func (s *Scenario) SceneByID(id string) *Scene {
	for _, sc := range s.scenes {
		if sc.ID == id {
			return sc
		}
	}
	return nil
}

// SceneByName returns the first scene named name, or nil.
func (s *Scenario) SceneByName(name string) *Scene {
	name = strings.TrimSpace(name)
	for _, sc := range s.scenes {
		if sc.Name == name {
			return sc
		}
	}
	return nil
}
