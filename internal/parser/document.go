/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package parser

import (
	"fmt"
	"strings"
	"sync"

	"gmscenario/internal/domain"
	"gmscenario/internal/pattern"
)

// Options configure a Parser. The zero value uses the default patterns and
// judgement levels.
type Options struct {
	// Patterns is the compiled format configuration.
	Patterns *pattern.Set
	// DefaultLevels replace domain.DefaultJudgementLevels for documents
	// without a judgement levels sub-section.
	DefaultLevels []string
	// Sections are tried after the built-in sections.
	Sections []Section
}

// Parser is the document state machine. It is immutable after New.
type Parser struct {
	patterns *pattern.Set
	classify Classifier
	defaults domain.GameSettings
	sections []Section
}

// New builds a Parser from opts.
func New(opts Options) *Parser {
	p := opts.Patterns
	if p == nil {
		p = pattern.MustDefault()
	}
	defaults := domain.NewGameSettings()
	if len(opts.DefaultLevels) > 0 {
		defaults.Judgement.SetLevels(opts.DefaultLevels)
	}
	sections := []Section{
		NewMetadataSection(p),
		NewGameSettingsSection(p),
		NewScenesSection(p),
	}
	sections = append(sections, opts.Sections...)
	return &Parser{
		patterns: p,
		classify: NewClassifier(p),
		defaults: defaults,
		sections: sections,
	}
}

var defaultParser = sync.OnceValue(func() *Parser { return New(Options{}) })

// Parse parses text with the default configuration.
func Parse(text string) *Result { return defaultParser().Parse(text) }

// SplitLines normalises line endings, drops a UTF-8 BOM and splits text into
// lines.
func SplitLines(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// Parse runs the title state and then dispatches every remaining non-blank
// line to the first section that claims it. It always returns a Result.
func (p *Parser) Parse(text string) *Result {
	lines := SplitLines(text)
	res := &Result{Defaults: p.defaults.Clone()}
	settings := p.defaults.Clone()
	ctx := &Context{
		Lines:    lines,
		Patterns: p.patterns,
		Classify: p.classify,
		Settings: &settings,
	}

	i := p.parseTitle(lines, res)
	seen := map[string]bool{}
	sawScenes, orderReported := false, false
	for i < len(lines) {
		line := lines[i]
		if isBlank(line) {
			i++
			continue
		}
		sec := p.claim(line)
		if sec == nil {
			res.Warnings = append(res.Warnings, Warning{Line: i + 1, Text: line, Message: "unprocessed line", Kind: Unprocessed})
			i++
			continue
		}
		name := sec.Name()
		if seen[name] && name != SectionScenes {
			res.Warnings = append(res.Warnings, Warning{
				Line: i + 1, Text: line,
				Message: fmt.Sprintf("duplicate %s section ignored", name),
				Kind:    Recovered,
			})
			i = sectionEnd(lines, i, DepthSection)
			continue
		}
		seen[name] = true

		out := run(sec, ctx, i)
		next := out.Next
		if next <= i {
			next = i + 1
		}
		i = next
		if out.Err != nil {
			res.Errors = append(res.Errors, out.Err)
			continue
		}
		res.Warnings = append(res.Warnings, out.Warnings...)
		switch {
		case out.Metadata != nil:
			res.Metadata = out.Metadata
		case out.GameSettings != nil:
			res.GameSettings = out.GameSettings
			settings = out.GameSettings.Clone()
			if sawScenes && !orderReported {
				orderReported = true
				res.Warnings = append(res.Warnings, Warning{
					Message: "scenes appear before game settings; their judgement lines were matched against the default levels",
					Kind:    Diagnostic,
				})
			}
		case name == SectionScenes:
			sawScenes = true
			res.Scenes = append(res.Scenes, out.Scenes...)
		}
	}
	return res
}

// parseTitle captures a leading "# Title" line and returns the index where
// section dispatch starts.
func (p *Parser) parseTitle(lines []string, res *Result) int {
	for i, line := range lines {
		if isBlank(line) {
			continue
		}
		if HeadingDepth(line) == DepthTitle {
			res.Title = HeadingText(line)
			res.HasTitle = true
			return i + 1
		}
		return i
	}
	return len(lines)
}

func (p *Parser) claim(line string) Section {
	for _, s := range p.sections {
		if s.CanHandle(line) {
			return s
		}
	}
	return nil
}

// run calls sec.Parse and turns a panic into a SectionError covering the
// rest of the section.
func run(sec Section, ctx *Context, start int) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{
				Next: sectionEnd(ctx.Lines, start, DepthSection),
				Err: &SectionError{
					Section: sec.Name(),
					Line:    start + 1,
					Message: fmt.Sprintf("%v", r),
				},
			}
		}
	}()
	return sec.Parse(ctx, start)
}
