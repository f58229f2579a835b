/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gmscenario/internal/domain"
)

// FormatVersion is written to every JSON export.
const FormatVersion = 1

//go:embed scenario.schema.json
var schemaJSON []byte

// Schema returns the JSON schema that JSON exports conform to.
func Schema() []byte { return append([]byte(nil), schemaJSON...) }

type jsonScenario struct {
	Format        string           `json:"format"`
	FormatVersion int              `json:"formatVersion"`
	Metadata      jsonMetadata     `json:"metadata"`
	GameSettings  jsonGameSettings `json:"gameSettings"`
	Scenes        []jsonScene      `json:"scenes"`
}

type jsonMetadata struct {
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
	Created     string `json:"created,omitempty"`
	Modified    string `json:"modified,omitempty"`
}

type jsonGameSettings struct {
	PlayerCount     int      `json:"playerCount"`
	Players         []string `json:"players"`
	JudgementLevels []string `json:"judgementLevels"`
}

type jsonScene struct {
	ID    string     `json:"id"`
	Type  string     `json:"type"`
	Name  string     `json:"name"`
	Memo  string     `json:"memo,omitempty"`
	Items []jsonItem `json:"items"`
}

type jsonItem struct {
	Name  string   `json:"name"`
	Memo  string   `json:"memo,omitempty"`
	Texts []string `json:"texts"`
}

// SchemaError lists the schema violations of an export.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "json export does not conform to schema: " + strings.Join(e.Violations, "; ")
}

// JSON renders s as indented JSON and validates the result against Schema.
func JSON(s *domain.Scenario) ([]byte, error) {
	if s == nil {
		return nil, errors.New("scenario is nil")
	}
	data, err := json.MarshalIndent(toJSON(s), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal scenario: %w", err)
	}
	if err := ValidateJSON(data); err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// ValidateJSON checks data against Schema. Violations are reported as a
// *SchemaError.
func ValidateJSON(data []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validate: %w", err)
	}
	if result.Valid() {
		return nil
	}
	se := &SchemaError{}
	for _, e := range result.Errors() {
		se.Violations = append(se.Violations, e.String())
	}
	return se
}

func toJSON(s *domain.Scenario) jsonScenario {
	gs := &s.GameSettings
	out := jsonScenario{
		Format:        "gmscenario",
		FormatVersion: FormatVersion,
		Metadata: jsonMetadata{
			Title:       s.Metadata.Title,
			Author:      s.Metadata.Author,
			Description: s.Metadata.Description,
			Version:     s.Metadata.Version,
			Created:     jsonTime(s.Metadata.Created),
			Modified:    jsonTime(s.Metadata.Modified),
		},
		GameSettings: jsonGameSettings{
			PlayerCount:     gs.Players.ScenarioPlayerCount(),
			Players:         gs.Players.Names(),
			JudgementLevels: nonNil(gs.Judgement.Levels()),
		},
		Scenes: []jsonScene{},
	}
	for _, sc := range s.Scenes() {
		js := jsonScene{ID: sc.ID, Type: sc.Kind.String(), Name: sc.Name, Memo: sc.Memo, Items: []jsonItem{}}
		for _, it := range sc.Items() {
			js.Items = append(js.Items, jsonItem{Name: it.Name, Memo: it.Memo, Texts: nonNil(it.Texts())})
		}
		out.Scenes = append(out.Scenes, js)
	}
	return out
}

func jsonTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
