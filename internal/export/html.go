/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"regexp"

	"github.com/yuin/goldmark"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"gmscenario/internal/domain"
	"gmscenario/internal/pattern"
	"gmscenario/internal/serialize"
)

// unsafeHrefRe matches href/src attributes with dangerous URL schemes in goldmark output.
var unsafeHrefRe = regexp.MustCompile(`(?i)(href|src)="(?:javascript|vbscript|data):[^"]*"`)

var md = goldmark.New(
	goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()),
)

// HTMLOptions controls HTML export.
type HTMLOptions struct {
	Labels pattern.Labels
	// Standalone wraps the fragment in a complete HTML document.
	Standalone bool
}

// HTML renders the canonical text of s through goldmark. Continuation lines
// keep their line breaks.
func HTML(s *domain.Scenario, opt HTMLOptions) ([]byte, error) {
	if s == nil {
		return nil, errors.New("scenario is nil")
	}
	lb := opt.Labels
	if lb.Scenes == "" {
		lb = pattern.JapaneseLabels()
	}
	text := serialize.New(lb).Serialize(s)

	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	body := unsafeHrefRe.ReplaceAll(buf.Bytes(), []byte(`$1="#"`))
	if !opt.Standalone {
		return body, nil
	}
	var doc bytes.Buffer
	doc.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&doc, "<title>%s</title>\n", html.EscapeString(s.Metadata.Title))
	doc.WriteString("</head>\n<body>\n")
	doc.Write(body)
	doc.WriteString("</body>\n</html>\n")
	return doc.Bytes(), nil
}
