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

	"github.com/google/uuid"
)

// SceneKind is the closed set of scene variants.
type SceneKind int

const (
	SceneExploration SceneKind = iota
	SceneSecretDistribution
	SceneNarrative
)

// String returns the stable key of the kind.
func (k SceneKind) String() string {
	switch k {
	case SceneExploration:
		return "exploration"
	case SceneSecretDistribution:
		return "secret_distribution"
	case SceneNarrative:
		return "narrative"
	default:
		return fmt.Sprintf("SceneKind(%d)", int(k))
	}
}

// ParseSceneKind is the inverse of SceneKind.String.
func ParseSceneKind(key string) (SceneKind, bool) {
	switch key {
	case "exploration":
		return SceneExploration, true
	case "secret_distribution":
		return SceneSecretDistribution, true
	case "narrative":
		return SceneNarrative, true
	}
	return 0, false
}

// Scene is one scene of a scenario. Kind selects how items are created and
// keyed:
//   - exploration: items are locations, one text per judgement level, unique by name
//   - secret distribution: one item per player, keyed by player name
//   - narrative: items hold a single always-selected content slot
//
// Items are kept in insertion order.
type Scene struct {
	ID   string
	Name string
	Memo string
	Kind SceneKind

	items []*Item
	// levels is the slot count for new judgement-capable items.
	levels int
}

func newScene(kind SceneKind, name string, levels int) *Scene {
	return &Scene{
		ID:     uuid.NewString(),
		Name:   strings.TrimSpace(name),
		Kind:   kind,
		levels: levels,
	}
}

// NewExplorationScene returns an empty exploration scene whose locations get
// levelCount text slots.
func NewExplorationScene(name string, levelCount int) *Scene {
	return newScene(SceneExploration, name, levelCount)
}

// NewSecretDistributionScene returns a scene with one target per active
// player of gs.
func NewSecretDistributionScene(name string, gs *GameSettings) *Scene {
	s := newScene(SceneSecretDistribution, name, gs.LevelCount())
	for _, p := range gs.ActivePlayerNames() {
		s.items = append(s.items, NewItem(p, s.levels))
	}
	return s
}

// NewNarrativeScene returns an empty narrative scene.
func NewNarrativeScene(name string) *Scene {
	return newScene(SceneNarrative, name, 1)
}

// Items returns the scene's items in order. The slice is a copy; the items
// are shared.
func (s *Scene) Items() []*Item {
	return append([]*Item(nil), s.items...)
}

// Len returns the number of items.
func (s *Scene) Len() int { return len(s.items) }

// Item returns the item named name, or nil.
func (s *Scene) Item(name string) *Item {
	if i := s.indexOf(name); i >= 0 {
		return s.items[i]
	}
	return nil
}

// LevelCount is the slot count used for new judgement-capable items.
func (s *Scene) LevelCount() int { return s.levels }

func (s *Scene) indexOf(name string) int {
	name = strings.TrimSpace(name)
	for i, it := range s.items {
		if it.Name == name {
			return i
		}
	}
	return -1
}

func (s *Scene) require(kind SceneKind) error {
	if s.Kind != kind {
		return fmt.Errorf("%w: %s scene", ErrWrongSceneKind, s.Kind)
	}
	return nil
}

func (s *Scene) add(name string, slots int) (*Item, error) {
	if s.indexOf(name) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateItem, strings.TrimSpace(name))
	}
	it := NewItem(name, slots)
	s.items = append(s.items, it)
	return it, nil
}

// RemoveItem deletes the named item from any scene kind.
func (s *Scene) RemoveItem(name string) error {
	i := s.indexOf(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrItemNotFound, name)
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

// ResizeLevels changes the slot count of every judgement-capable item.
// Narrative scenes are left alone.
func (s *Scene) ResizeLevels(levelCount int) {
	if s.Kind == SceneNarrative {
		return
	}
	s.levels = levelCount
	for _, it := range s.items {
		it.Resize(levelCount)
	}
}

// --- exploration ---

// AddLocation appends a new location.
func (s *Scene) AddLocation(name string) (*Item, error) {
	if err := s.require(SceneExploration); err != nil {
		return nil, err
	}
	return s.add(name, s.levels)
}

// Location returns the named location, or nil.
func (s *Scene) Location(name string) *Item {
	if s.Kind != SceneExploration {
		return nil
	}
	return s.Item(name)
}

// --- secret distribution ---

// Target returns the item for player, or nil.
func (s *Scene) Target(player string) *Item {
	if s.Kind != SceneSecretDistribution {
		return nil
	}
	return s.Item(player)
}

// AddTarget adds an item for a player that is not in the roster yet.
func (s *Scene) AddTarget(player string) (*Item, error) {
	if err := s.require(SceneSecretDistribution); err != nil {
		return nil, err
	}
	return s.add(player, s.levels)
}

// RenamePlayer re-keys the target of oldName to newName, keeping its texts
// and position.
func (s *Scene) RenamePlayer(oldName, newName string) error {
	if err := s.require(SceneSecretDistribution); err != nil {
		return err
	}
	i := s.indexOf(oldName)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrItemNotFound, oldName)
	}
	newName = strings.TrimSpace(newName)
	if j := s.indexOf(newName); j >= 0 && j != i {
		return fmt.Errorf("%w: %q", ErrDuplicateItem, newName)
	}
	it := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	it.Name = newName
	s.items = append(s.items[:i], append([]*Item{it}, s.items[i:]...)...)
	return nil
}

// SyncPlayers adds a target for every name in players that has none yet.
// Existing targets (including ones for players no longer active) are kept.
func (s *Scene) SyncPlayers(players []string) error {
	if err := s.require(SceneSecretDistribution); err != nil {
		return err
	}
	for _, p := range players {
		if s.indexOf(p) < 0 {
			s.items = append(s.items, NewItem(p, s.levels))
		}
	}
	return nil
}

// AlignTargets orders the targets by roster: one target per active player
// in roster order, then the remaining targets that still hold a text or
// memo. Empty targets for names outside the roster are dropped.
func (s *Scene) AlignTargets(active []string) error {
	if err := s.require(SceneSecretDistribution); err != nil {
		return err
	}
	byName := make(map[string]*Item, len(s.items))
	for _, it := range s.items {
		byName[it.Name] = it
	}
	onRoster := make(map[string]bool, len(active))
	out := make([]*Item, 0, len(s.items))
	for _, p := range active {
		p = strings.TrimSpace(p)
		if p == "" || onRoster[p] {
			continue
		}
		onRoster[p] = true
		it := byName[p]
		if it == nil {
			it = NewItem(p, s.levels)
		}
		out = append(out, it)
	}
	for _, it := range s.items {
		if onRoster[it.Name] || it.IsEmpty() {
			continue
		}
		out = append(out, it)
	}
	s.items = out
	return nil
}

// --- narrative ---

// AddNarrative appends a narrative item with the given content.
func (s *Scene) AddNarrative(name, content string) (*Item, error) {
	if err := s.require(SceneNarrative); err != nil {
		return nil, err
	}
	it, err := s.add(name, 1)
	if err != nil {
		return nil, err
	}
	it.SetText(0, content)
	return it, nil
}

// Narrative returns the named narrative item, or nil.
func (s *Scene) Narrative(name string) *Item {
	if s.Kind != SceneNarrative {
		return nil
	}
	return s.Item(name)
}

// RenameNarrative renames a narrative item in place.
func (s *Scene) RenameNarrative(oldName, newName string) error {
	if err := s.require(SceneNarrative); err != nil {
		return err
	}
	i := s.indexOf(oldName)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrItemNotFound, oldName)
	}
	if j := s.indexOf(newName); j >= 0 && j != i {
		return fmt.Errorf("%w: %q", ErrDuplicateItem, strings.TrimSpace(newName))
	}
	s.items[i].Name = strings.TrimSpace(newName)
	return nil
}

// UpdateNarrativeContent replaces the content of a narrative item.
func (s *Scene) UpdateNarrativeContent(name, content string) error {
	if err := s.require(SceneNarrative); err != nil {
		return err
	}
	it := s.Item(name)
	if it == nil {
		return fmt.Errorf("%w: %q", ErrItemNotFound, name)
	}
	it.SetText(0, content)
	return nil
}

// RemoveNarrative deletes a narrative item.
func (s *Scene) RemoveNarrative(name string) error {
	if err := s.require(SceneNarrative); err != nil {
		return err
	}
	return s.RemoveItem(name)
}

// RemoveEmptyNarratives deletes narrative items with blank content and memo
// and returns how many were removed.
func (s *Scene) RemoveEmptyNarratives() int {
	if s.Kind != SceneNarrative {
		return 0
	}
	kept := s.items[:0]
	removed := 0
	for _, it := range s.items {
		if it.IsEmpty() {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	for i := len(kept); i < len(s.items); i++ {
		s.items[i] = nil
	}
	s.items = kept
	return removed
}

// ClearNarratives removes every narrative item.
func (s *Scene) ClearNarratives() {
	if s.Kind != SceneNarrative {
		return
	}
	s.items = nil
}

// Clone returns a deep copy with the same ID.
func (s *Scene) Clone() *Scene {
	c := *s
	c.items = make([]*Item, len(s.items))
	for i, it := range s.items {
		c.items[i] = it.clone()
	}
	return &c
}
