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
	"time"

	"gmscenario/internal/domain"
	"gmscenario/internal/pattern"
)

var dateLayouts = []string{
	domain.TimeLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
	"2006-01-02",
	"2006/01/02",
}

// ParseTime parses a metadata date in local time.
func ParseTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", v)
}

type metadataSection struct {
	p *pattern.Set
}

// NewMetadataSection returns the "## Metadata" grammar.
func NewMetadataSection(p *pattern.Set) Section { return metadataSection{p: p} }

func (metadataSection) Name() string { return SectionMetadata }

func (s metadataSection) CanHandle(line string) bool {
	return HeadingDepth(line) == DepthSection && s.p.Metadata.MatchString(strings.TrimSpace(line))
}

// Parse reads "- key: value" lines. Unknown keys are ignored and dates that
// do not parse keep their default. A section that has content but not a
// single key-value line is unreadable.
func (s metadataSection) Parse(ctx *Context, start int) Outcome {
	end := sectionEnd(ctx.Lines, start, DepthSection)
	out := Outcome{Next: end}
	md := domain.NewMetadata()

	var (
		content int
		pairs   int
		// last points at the value a continuation line extends.
		last *string
	)
	for i := start + 1; i < end; i++ {
		line := ctx.Lines[i]
		if isBlank(line) {
			last = nil
			continue
		}
		if more, ok := continuation(line); ok && last != nil {
			*last += "\n" + more
			continue
		}
		content++
		last = nil
		if HeadingDepth(line) > 0 {
			out.unprocessed(i, line)
			continue
		}
		key, value, ok := ctx.Classify.KeyValue(line)
		if !ok {
			out.unprocessed(i, line)
			continue
		}
		pairs++
		canon, known := s.p.MetadataKey(key)
		if !known {
			continue
		}
		switch canon {
		case pattern.KeyTitle:
			md.Title = value
			last = &md.Title
		case pattern.KeyAuthor:
			md.Author = value
			last = &md.Author
		case pattern.KeyDescription:
			md.Description = value
			last = &md.Description
		case pattern.KeyVersion:
			md.Version = value
		case pattern.KeyCreated, pattern.KeyModified:
			t, err := ParseTime(value)
			if err != nil {
				out.warn(i, line, "date not understood, keeping default", Recovered)
				continue
			}
			if canon == pattern.KeyCreated {
				md.Created = t
			} else {
				md.Modified = t
			}
		}
	}
	if content > 0 && pairs == 0 {
		out.Err = &SectionError{
			Section: SectionMetadata,
			Line:    start + 1,
			Message: "no readable key-value lines",
		}
		return out
	}
	md.Title = domain.NormalizeTitle(md.Title)
	out.Metadata = &md
	return out
}
