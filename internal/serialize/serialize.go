/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package serialize renders a scenario back into the text dialect read by
// the parser package. Output is canonical: serializing a scenario that was
// parsed from serializer output yields the same bytes.
package serialize

import (
	"fmt"
	"strings"
	"time"

	"gmscenario/internal/domain"
	"gmscenario/internal/pattern"
)

// Serializer writes scenarios using a fixed set of labels.
type Serializer struct {
	labels pattern.Labels
}

// New returns a serializer writing the given labels.
func New(labels pattern.Labels) *Serializer {
	return &Serializer{labels: labels}
}

// Serialize renders s with the Japanese labels.
func Serialize(s *domain.Scenario) string {
	return New(pattern.JapaneseLabels()).Serialize(s)
}

// Serialize renders s. A nil scenario renders as an empty document.
func (z *Serializer) Serialize(s *domain.Scenario) string {
	if s == nil {
		return ""
	}
	w := &writer{}
	l := z.labels

	w.line("# " + domain.NormalizeTitle(s.Metadata.Title))
	w.blank()
	z.metadata(w, &s.Metadata)
	w.blank()
	z.gameSettings(w, &s.GameSettings)
	w.blank()
	w.line("## " + l.Scenes)
	for _, sc := range s.Scenes() {
		w.blank()
		z.scene(w, sc, &s.GameSettings)
	}
	return w.String()
}

func (z *Serializer) metadata(w *writer, md *domain.Metadata) {
	l := z.labels
	w.line("## " + l.Metadata)
	w.value("- "+l.Title+": ", domain.NormalizeTitle(md.Title))
	if md.Author != "" {
		w.value("- "+l.Author+": ", md.Author)
	}
	if md.Description != "" {
		w.value("- "+l.Description+": ", md.Description)
	}
	if md.Version != "" {
		w.value("- "+l.Version+": ", md.Version)
	}
	if !md.Created.IsZero() {
		w.line("- " + l.Created + ": " + formatTime(md.Created))
	}
	if !md.Modified.IsZero() {
		w.line("- " + l.Modified + ": " + formatTime(md.Modified))
	}
}

func (z *Serializer) gameSettings(w *writer, gs *domain.GameSettings) {
	l := z.labels
	w.line("## " + l.GameSettings)
	w.blank()
	w.line("### " + l.Players)
	count := gs.Players.ScenarioPlayerCount()
	for i := 0; i < domain.MaxSupportedPlayers; i++ {
		name := gs.Players.Name(i)
		if i >= count || name == "" {
			name = l.EmptyMarker
		}
		w.line(fmt.Sprintf("%d. %s", i+1, name))
	}
	w.blank()
	w.line("### " + l.JudgementLevels)
	for i, name := range gs.Judgement.Levels() {
		w.line(fmt.Sprintf("%d. %s", i+1, name))
	}
}

func (z *Serializer) scene(w *writer, sc *domain.Scene, gs *domain.GameSettings) {
	l := z.labels
	w.line(fmt.Sprintf("### %s: %s", l.SceneTypeLabel(sc.Kind.String()), sc.Name))
	if sc.Memo != "" {
		w.value(l.Memo+": ", sc.Memo)
	}
	for _, it := range sc.Items() {
		w.blank()
		w.line("#### " + it.Name)
		if it.Memo != "" {
			w.value(l.Memo+": ", it.Memo)
		}
		if sc.Kind == domain.SceneNarrative {
			if c := it.Content(); c != "" {
				// an indented first content line would otherwise extend the memo
				if it.Memo != "" {
					w.blank()
				}
				w.raw(c)
			}
			continue
		}
		for i := 0; i < gs.LevelCount() && i < it.LevelCount(); i++ {
			text := it.DisplayText(i)
			level := gs.Judgement.Name(i)
			if strings.TrimSpace(text) == "" || level == "" {
				continue
			}
			w.value("- "+level+": ", text)
		}
	}
}

func formatTime(t time.Time) string {
	return t.In(time.Local).Format(domain.TimeLayout)
}

// writer accumulates lines and collapses runs of blank lines.
type writer struct {
	b         strings.Builder
	lastBlank bool
	started   bool
}

func (w *writer) line(s string) {
	w.b.WriteString(s)
	w.b.WriteByte('\n')
	w.lastBlank = false
	w.started = true
}

func (w *writer) blank() {
	if !w.started || w.lastBlank {
		return
	}
	w.b.WriteByte('\n')
	w.lastBlank = true
}

// value writes prefix+first line and the remaining lines as two-space
// continuation lines. Blank lines inside the value are dropped because a
// blank line ends a continuation.
func (w *writer) value(prefix, v string) {
	lines := strings.Split(v, "\n")
	w.line(prefix + strings.TrimSpace(lines[0]))
	for _, more := range lines[1:] {
		if more = strings.TrimSpace(more); more != "" {
			w.line("  " + more)
		}
	}
}

// raw writes multi-line content as is.
func (w *writer) raw(v string) {
	for _, s := range strings.Split(v, "\n") {
		if strings.TrimSpace(s) == "" {
			w.b.WriteByte('\n')
			w.lastBlank = true
			continue
		}
		w.line(s)
	}
}

func (w *writer) String() string { return w.b.String() }
