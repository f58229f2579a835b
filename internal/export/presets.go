/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gmscenario/internal/domain"
	"gmscenario/internal/pattern"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb     PresetName = "web"
	PresetPrint   PresetName = "print"
	PresetSession PresetName = "session"
)

// BatchOptions controls batch export of one scenario into several formats.
//
// Path semantics:
//   - If OutDir is empty or relative, it is created under <scenario dir>/exports/<preset>/.
//   - Files are named <BaseName>.<ext>; BaseName defaults to the scenario file name.
type BatchOptions struct {
	Preset   PresetName
	Formats  []string // allowed: json, pdf, html; empty means preset defaults
	OutDir   string
	BaseName string
	Labels   pattern.Labels
	FontPath string
	// Handouts overrides the preset's default for PDF player handouts.
	Handouts *bool
}

// BatchExport runs exports according to the given preset and returns the
// written files.
func BatchExport(s *domain.Scenario, opt BatchOptions) ([]string, error) {
	if s == nil {
		return nil, errors.New("scenario is nil")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}

	baseOut := opt.OutDir
	if baseOut == "" {
		baseOut = string(opt.Preset)
		if baseOut == "" {
			baseOut = string(PresetPrint)
		}
	}
	if !filepath.IsAbs(baseOut) {
		root := "."
		if s.Path != "" {
			root = filepath.Dir(s.Path)
		}
		baseOut = filepath.Join(root, "exports", baseOut)
	}
	base := opt.BaseName
	if base == "" {
		base = baseName(s)
	}

	handouts := presetHandouts(opt.Preset)
	if opt.Handouts != nil {
		handouts = *opt.Handouts
	}

	if err := os.MkdirAll(baseOut, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	var written []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		out := filepath.Join(baseOut, base+"."+f)
		var err error
		switch f {
		case "json":
			var data []byte
			if data, err = JSON(s); err == nil {
				err = os.WriteFile(out, data, 0o644)
			}
		case "html":
			var data []byte
			if data, err = HTML(s, HTMLOptions{Labels: opt.Labels, Standalone: true}); err == nil {
				err = os.WriteFile(out, data, 0o644)
			}
		case "pdf":
			err = ExportPDF(s, out, PDFOptions{Labels: opt.Labels, FontPath: opt.FontPath, Handouts: handouts})
		default:
			return written, fmt.Errorf("unknown format: %s", f)
		}
		if err != nil {
			return written, fmt.Errorf("%s export: %w", f, err)
		}
		written = append(written, out)
	}
	return written, nil
}

func baseName(s *domain.Scenario) string {
	if s.Path != "" {
		b := filepath.Base(s.Path)
		return strings.TrimSuffix(b, filepath.Ext(b))
	}
	return "scenario"
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{"html", "json"}
	case PresetSession:
		return []string{"pdf"}
	default:
		return []string{"pdf"}
	}
}

func presetHandouts(p PresetName) bool {
	switch p {
	case PresetSession:
		return true
	default:
		return false
	}
}
