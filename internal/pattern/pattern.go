/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package pattern holds the configurable regular-expression layer behind the
// scenario parser. Every concept the parser recognises (section headers,
// key-value lines, numbered lists, judgement results, memo lines, scene type
// labels) is described by an ordered list of patterns; the first pattern that
// matches wins, so native-language spellings can be tried before English
// aliases.
//
// Configurations are plain values. A Config can be loaded from YAML, merged
// over the built-in defaults and compiled into an immutable Set that may be
// shared by any number of parser instances.
//
// Example YAML file:
//
//	version: 1
//	headers:
//	  metadata:
//	    - '^##\s*Scenario Info\s*$'
//	lines:
//	  memo:
//	    - '^Note\s*[:：]\s*(.*)$'
//	scene_types:
//	  narrative: [Story, Narration]
//	empty_markers: ['(vacant)']
package pattern

// Config is the structure of a format file. Any concept left empty falls back
// to the defaults returned by Defaults.
type Config struct {
	// Version is the format file version. Only version 1 is supported.
	Version int `yaml:"version"`

	Headers      Headers      `yaml:"headers"`
	Lines        Lines        `yaml:"lines"`
	SceneTypes   SceneTypes   `yaml:"scene_types"`
	MetadataKeys MetadataKeys `yaml:"metadata_keys"`

	// EmptyMarkers are the player-slot values treated as "unset" (compared
	// case-insensitively after trimming).
	EmptyMarkers []string `yaml:"empty_markers"`
}

// Headers lists the heading patterns per section. Each pattern is matched
// against the whole trimmed line.
type Headers struct {
	Metadata        []string `yaml:"metadata"`
	GameSettings    []string `yaml:"game_settings"`
	Players         []string `yaml:"players"`
	JudgementLevels []string `yaml:"judgement_levels"`
	Scenes          []string `yaml:"scenes"`
	// Scene patterns must capture (1) the scene type label and (2) the scene name.
	Scene []string `yaml:"scene"`
}

// Lines lists the line-shape patterns.
//
// Capture groups:
//   - key_value: (1) key, (2) value
//   - numbered_list: (1) number, (2) content
//   - judgement_result: (1) level name, (2) text
//   - memo: (1) text
type Lines struct {
	KeyValue        []string `yaml:"key_value"`
	NumberedList    []string `yaml:"numbered_list"`
	JudgementResult []string `yaml:"judgement_result"`
	Memo            []string `yaml:"memo"`
}

// SceneTypes maps each scene variant to its accepted labels (plain strings,
// compared case-insensitively).
type SceneTypes struct {
	Exploration        []string `yaml:"exploration"`
	SecretDistribution []string `yaml:"secret_distribution"`
	Narrative          []string `yaml:"narrative"`
}

// MetadataKeys maps each known metadata field to its accepted key spellings.
type MetadataKeys struct {
	Title       []string `yaml:"title"`
	Author      []string `yaml:"author"`
	Description []string `yaml:"description"`
	Version     []string `yaml:"version"`
	Created     []string `yaml:"created"`
	Modified    []string `yaml:"modified"`
}

// Scene type keys returned by Set.SceneType.
const (
	SceneTypeExploration        = "exploration"
	SceneTypeSecretDistribution = "secret_distribution"
	SceneTypeNarrative          = "narrative"
)

// Metadata field keys returned by Set.MetadataKey.
const (
	KeyTitle       = "title"
	KeyAuthor      = "author"
	KeyDescription = "description"
	KeyVersion     = "version"
	KeyCreated     = "created"
	KeyModified    = "modified"
)
