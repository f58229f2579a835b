/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package loader connects the parser, the serializer and a text store. It
// decides which parse problems are fatal and turns the rest into
// human-readable warnings.
package loader

import (
	"fmt"
	"strings"

	"gmscenario/internal/domain"
	"gmscenario/internal/parser"
)

// LoadError reports a document from which no scenario could be built.
type LoadError struct {
	Path   string
	Errors []*parser.SectionError
}

func (e *LoadError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, se := range e.Errors {
		msgs = append(msgs, se.Error())
	}
	where := e.Path
	if where == "" {
		where = "document"
	}
	return fmt.Sprintf("cannot load %s: %s", where, strings.Join(msgs, "; "))
}

// Assemble builds a clean scenario from res. Metadata and title errors are
// fatal; other section errors become "partially unreadable section"
// warnings. Unprocessed-line warnings are passed through.
func Assemble(res *parser.Result, path string) (*domain.Scenario, []string, error) {
	var fatal []*parser.SectionError
	var warnings []string
	for _, se := range res.Errors {
		if se.Fatal() {
			fatal = append(fatal, se)
			continue
		}
		warnings = append(warnings, "partially unreadable section: "+se.Error())
	}
	if len(fatal) > 0 {
		return nil, nil, &LoadError{Path: path, Errors: fatal}
	}
	for _, w := range res.Warnings {
		warnings = append(warnings, w.String())
	}

	md := domain.NewMetadata()
	if res.Metadata != nil {
		md = *res.Metadata
	}
	if res.HasTitle && strings.TrimSpace(res.Title) != "" {
		md.Title = domain.NormalizeTitle(res.Title)
	}
	s := domain.Restore(md, res.Settings(), res.Scenes, path)
	return s, warnings, nil
}
