/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package parser

import (
	"strings"

	"gmscenario/internal/domain"
	"gmscenario/internal/pattern"
)

type scenesSection struct {
	p *pattern.Set
}

// NewScenesSection returns the "## Scenes" grammar.
func NewScenesSection(p *pattern.Set) Section { return scenesSection{p: p} }

func (scenesSection) Name() string { return SectionScenes }

func (s scenesSection) CanHandle(line string) bool {
	return HeadingDepth(line) == DepthSection && s.p.Scenes.MatchString(strings.TrimSpace(line))
}

// Parse reads "### <type>: <name>" scenes and their "####" items. Judgement
// lines are resolved by name against ctx.Settings.
func (s scenesSection) Parse(ctx *Context, start int) Outcome {
	end := sectionEnd(ctx.Lines, start, DepthSection)
	out := Outcome{Next: end}
	b := &sceneBuilder{ctx: ctx, p: s.p, out: &out}
	for i := start + 1; i < end; i++ {
		b.line(i, ctx.Lines[i])
	}
	b.closeItem()
	out.Scenes = b.scenes
	return out
}

// sceneBuilder is the per-call state of the scenes grammar.
type sceneBuilder struct {
	ctx *Context
	p   *pattern.Set
	out *Outcome

	scenes []*domain.Scene
	scene  *domain.Scene
	// seen holds the item names already read for the current scene.
	seen map[string]bool

	item *domain.Item
	// narrative collects raw content lines of the current narrative item.
	narrative []string
	// extend appends a continuation line to the last value read.
	extend func(string)
}

func (b *sceneBuilder) line(i int, line string) {
	switch HeadingDepth(line) {
	case DepthSub:
		b.closeItem()
		b.openScene(i, line)
		return
	case DepthItem:
		b.closeItem()
		b.openItem(i, line)
		return
	}
	switch {
	case b.scene == nil:
		if !isBlank(line) {
			b.out.unprocessed(i, line)
		}
	case b.item == nil:
		b.sceneLine(i, line)
	case b.scene.Kind == domain.SceneNarrative:
		b.narrativeLine(line)
	default:
		b.itemLine(i, line)
	}
}

func (b *sceneBuilder) openScene(i int, line string) {
	b.scene = nil
	b.extend = nil
	m, ok := b.p.Scene.Match(strings.TrimSpace(line))
	if !ok {
		b.out.unprocessed(i, line)
		return
	}
	label, name := strings.TrimSpace(m.Group(1)), strings.TrimSpace(m.Group(2))
	key, ok := b.p.SceneType(label)
	if !ok {
		b.out.warn(i, line, withSuggestion("unknown scene type "+label, label, b.p.SceneTypeLabels()), Unprocessed)
		return
	}
	kind, _ := domain.ParseSceneKind(key)
	switch kind {
	case domain.SceneSecretDistribution:
		b.scene = domain.NewSecretDistributionScene(name, b.ctx.Settings)
	case domain.SceneNarrative:
		b.scene = domain.NewNarrativeScene(name)
	default:
		b.scene = domain.NewExplorationScene(name, b.ctx.Settings.LevelCount())
	}
	b.seen = map[string]bool{}
	b.scenes = append(b.scenes, b.scene)
}

func (b *sceneBuilder) openItem(i int, line string) {
	b.extend = nil
	if b.scene == nil {
		b.out.unprocessed(i, line)
		return
	}
	name := HeadingText(line)
	if name == "" {
		b.out.warn(i, line, "item without a name", Recovered)
		return
	}
	if b.seen[name] {
		b.out.warn(i, line, "duplicate item, merged into the earlier one", Recovered)
	}
	b.seen[name] = true

	var (
		it  *domain.Item
		err error
	)
	if it = b.scene.Item(name); it == nil {
		switch b.scene.Kind {
		case domain.SceneExploration:
			it, err = b.scene.AddLocation(name)
		case domain.SceneSecretDistribution:
			it, err = b.scene.AddTarget(name)
		case domain.SceneNarrative:
			it, err = b.scene.AddNarrative(name, "")
		}
		if err != nil {
			b.out.warn(i, line, err.Error(), Recovered)
			return
		}
	}
	b.item = it
	if b.scene.Kind == domain.SceneNarrative {
		b.narrative = nil
		if c := it.Content(); c != "" {
			b.narrative = strings.Split(c, "\n")
		}
	}
}

// closeItem stores the accumulated narrative content of the current item.
func (b *sceneBuilder) closeItem() {
	if b.item != nil && b.scene != nil && b.scene.Kind == domain.SceneNarrative {
		b.item.SetText(0, joinContent(b.narrative))
	}
	b.item = nil
	b.narrative = nil
	b.extend = nil
}

func (b *sceneBuilder) sceneLine(i int, line string) {
	if isBlank(line) {
		b.extend = nil
		return
	}
	if more, ok := continuation(line); ok && b.extend != nil {
		b.extend(more)
		return
	}
	if memo, ok := b.ctx.Classify.Memo(line); ok {
		sc := b.scene
		sc.Memo = appendLine(sc.Memo, memo)
		b.extend = func(more string) { sc.Memo = appendLine(sc.Memo, more) }
		return
	}
	b.extend = nil
	b.out.unprocessed(i, line)
}

func (b *sceneBuilder) itemLine(i int, line string) {
	if isBlank(line) {
		b.extend = nil
		return
	}
	if more, ok := continuation(line); ok && b.extend != nil {
		b.extend(more)
		return
	}
	it := b.item
	if memo, ok := b.ctx.Classify.Memo(line); ok {
		it.Memo = appendLine(it.Memo, memo)
		b.extend = func(more string) { it.Memo = appendLine(it.Memo, more) }
		return
	}
	b.extend = nil
	level, text, ok := b.ctx.Classify.JudgementResult(line)
	if !ok {
		b.out.unprocessed(i, line)
		return
	}
	idx := b.ctx.Settings.Judgement.IndexOf(level)
	if idx < 0 || idx >= it.LevelCount() {
		b.out.warn(i, line, withSuggestion("unknown judgement level "+level, level, b.ctx.Settings.Judgement.Levels()), Unprocessed)
		return
	}
	if text != "" {
		it.SetText(idx, text)
	}
	b.extend = func(more string) { it.SetText(idx, appendLine(it.DisplayText(idx), more)) }
}

// narrativeLine accumulates content. A memo is only recognised before the
// first content line; continuation lines extend it until content starts.
func (b *sceneBuilder) narrativeLine(line string) {
	if len(b.narrative) == 0 {
		if isBlank(line) {
			b.extend = nil
			return
		}
		if more, ok := continuation(line); ok && b.extend != nil {
			b.extend(more)
			return
		}
		if memo, ok := b.ctx.Classify.Memo(line); ok {
			it := b.item
			it.Memo = appendLine(it.Memo, memo)
			b.extend = func(more string) { it.Memo = appendLine(it.Memo, more) }
			return
		}
	}
	b.extend = nil
	b.narrative = append(b.narrative, strings.TrimRight(line, " \t"))
}

// joinContent joins lines, dropping leading and trailing blank lines.
func joinContent(lines []string) string {
	for len(lines) > 0 && isBlank(lines[0]) {
		lines = lines[1:]
	}
	for len(lines) > 0 && isBlank(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func appendLine(cur, more string) string {
	if cur == "" {
		return more
	}
	return cur + "\n" + more
}
