/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pattern

import "strings"

// Set is a compiled, immutable format configuration.
type Set struct {
	Metadata        *Matcher
	GameSettings    *Matcher
	Players         *Matcher
	JudgementLevels *Matcher
	Scenes          *Matcher
	Scene           *Matcher

	KeyValue        *Matcher
	NumberedList    *Matcher
	JudgementResult *Matcher
	Memo            *Matcher

	sceneTypes map[string]string
	// sceneLabels keeps the configured spelling of each scene type label.
	sceneLabels  []string
	metadataKeys map[string]string
	emptyMarkers map[string]struct{}
}

// Compile builds a Set from cfg after filling unset concepts with defaults.
// Invalid patterns are dropped and returned as errors; the Set is never nil.
func Compile(cfg Config) (*Set, []error) {
	cfg = cfg.WithDefaults()
	var errs []error
	build := func(concept string, exprs []string) *Matcher {
		m, e := NewMatcher(concept, exprs)
		errs = append(errs, e...)
		return m
	}
	s := &Set{
		Metadata:        build("headers.metadata", cfg.Headers.Metadata),
		GameSettings:    build("headers.game_settings", cfg.Headers.GameSettings),
		Players:         build("headers.players", cfg.Headers.Players),
		JudgementLevels: build("headers.judgement_levels", cfg.Headers.JudgementLevels),
		Scenes:          build("headers.scenes", cfg.Headers.Scenes),
		Scene:           build("headers.scene", cfg.Headers.Scene),
		KeyValue:        build("lines.key_value", cfg.Lines.KeyValue),
		NumberedList:    build("lines.numbered_list", cfg.Lines.NumberedList),
		JudgementResult: build("lines.judgement_result", cfg.Lines.JudgementResult),
		Memo:            build("lines.memo", cfg.Lines.Memo),
		sceneTypes:      map[string]string{},
		metadataKeys:    map[string]string{},
		emptyMarkers:    map[string]struct{}{},
	}
	addAll := func(dst map[string]string, key string, aliases []string) {
		for _, a := range aliases {
			k := fold(a)
			if k == "" {
				continue
			}
			if _, dup := dst[k]; !dup {
				dst[k] = key
			}
		}
	}
	addAll(s.sceneTypes, SceneTypeExploration, cfg.SceneTypes.Exploration)
	addAll(s.sceneTypes, SceneTypeSecretDistribution, cfg.SceneTypes.SecretDistribution)
	addAll(s.sceneTypes, SceneTypeNarrative, cfg.SceneTypes.Narrative)
	seen := map[string]bool{}
	for _, group := range [][]string{cfg.SceneTypes.Exploration, cfg.SceneTypes.SecretDistribution, cfg.SceneTypes.Narrative} {
		for _, a := range group {
			if k := fold(a); k != "" && !seen[k] {
				seen[k] = true
				s.sceneLabels = append(s.sceneLabels, strings.TrimSpace(a))
			}
		}
	}
	addAll(s.metadataKeys, KeyTitle, cfg.MetadataKeys.Title)
	addAll(s.metadataKeys, KeyAuthor, cfg.MetadataKeys.Author)
	addAll(s.metadataKeys, KeyDescription, cfg.MetadataKeys.Description)
	addAll(s.metadataKeys, KeyVersion, cfg.MetadataKeys.Version)
	addAll(s.metadataKeys, KeyCreated, cfg.MetadataKeys.Created)
	addAll(s.metadataKeys, KeyModified, cfg.MetadataKeys.Modified)
	for _, m := range cfg.EmptyMarkers {
		if k := fold(m); k != "" {
			s.emptyMarkers[k] = struct{}{}
		}
	}
	return s, errs
}

// MustDefault compiles Defaults. The defaults are known-good, so any error is
// a programming mistake.
func MustDefault() *Set {
	s, errs := Compile(Defaults())
	if len(errs) > 0 {
		panic(errs[0])
	}
	return s
}

// SceneType resolves a scene type label to one of the SceneType* keys.
func (s *Set) SceneType(label string) (string, bool) {
	k, ok := s.sceneTypes[fold(label)]
	return k, ok
}

// SceneTypeLabels returns every configured label as written in the
// configuration, in configuration order, for suggestions.
func (s *Set) SceneTypeLabels() []string {
	return append([]string(nil), s.sceneLabels...)
}

// MetadataKey resolves a metadata key spelling to one of the Key* constants.
func (s *Set) MetadataKey(key string) (string, bool) {
	k, ok := s.metadataKeys[fold(key)]
	return k, ok
}

// IsEmptyMarker reports whether v denotes an unset player slot. Blank values
// always count as empty.
func (s *Set) IsEmptyMarker(v string) bool {
	k := fold(v)
	if k == "" {
		return true
	}
	_, ok := s.emptyMarkers[k]
	return ok
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
