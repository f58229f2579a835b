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
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"gmscenario/internal/domain"
	"gmscenario/internal/pattern"
)

// PDFOptions controls PDF export behavior.
// Units are points (pt).
//
// The built-in Helvetica only covers Latin-1; Japanese scenarios need a
// UTF-8 capable TrueType font in FontPath.
type PDFOptions struct {
	Labels   pattern.Labels
	FontPath string
	// Handouts appends one page per active player with that player's
	// secret-distribution texts.
	Handouts bool
	PageSize string // gofpdf size name, A4 if empty
}

const (
	pdfMargin   = 42.0
	pdfBodySize = 10.0
	pdfLineH    = 14.0
	bodyFont    = "body"
)

type pdfDoc struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
	fam string
}

// ExportPDF writes the GM sheet of s to outPath, creating its directory.
func ExportPDF(s *domain.Scenario, outPath string, opt PDFOptions) error {
	if strings.TrimSpace(outPath) == "" {
		return errors.New("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create pdf: %w", err)
	}
	if err := WritePDF(s, f, opt); err != nil {
		_ = f.Close()
		_ = os.Remove(outPath)
		return err
	}
	return f.Close()
}

// WritePDF renders the GM sheet of s to w: metadata, game settings and every
// scene with its texts per judgement level, followed by the player handouts
// when requested.
func WritePDF(s *domain.Scenario, w io.Writer, opt PDFOptions) error {
	if s == nil {
		return errors.New("scenario is nil")
	}
	lb := opt.Labels
	if lb.Scenes == "" {
		lb = pattern.JapaneseLabels()
	}
	size := opt.PageSize
	if size == "" {
		size = "A4"
	}
	pdf := gofpdf.New("P", "pt", size, "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle(s.Metadata.Title, true)
	if s.Metadata.Author != "" {
		pdf.SetAuthor(s.Metadata.Author, true)
	}
	pdf.SetCreator("gmscenario", false)

	d := &pdfDoc{pdf: pdf, fam: "Helvetica"}
	if opt.FontPath != "" {
		pdf.AddUTF8Font(bodyFont, "", opt.FontPath)
		d.fam = bodyFont
		d.tr = func(s string) string { return s }
	} else {
		d.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	if pdf.Err() {
		return fmt.Errorf("load font: %w", pdf.Error())
	}

	pdf.AddPage()
	d.gmSheet(s, lb)
	if opt.Handouts {
		d.handouts(s, lb)
	}
	if pdf.Err() {
		return fmt.Errorf("render pdf: %w", pdf.Error())
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (d *pdfDoc) heading(text string, size float64) {
	d.pdf.Ln(size * 0.4)
	d.pdf.SetFont(d.fam, "", size)
	d.pdf.MultiCell(0, size*1.3, d.tr(text), "", "L", false)
}

func (d *pdfDoc) para(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	d.pdf.SetFont(d.fam, "", pdfBodySize)
	d.pdf.MultiCell(0, pdfLineH, d.tr(text), "", "L", false)
}

func (d *pdfDoc) note(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	d.pdf.SetTextColor(90, 90, 90)
	d.para(text)
	d.pdf.SetTextColor(0, 0, 0)
}

func (d *pdfDoc) gmSheet(s *domain.Scenario, lb pattern.Labels) {
	md := s.Metadata
	d.heading(md.Title, 20)
	var meta []string
	if md.Author != "" {
		meta = append(meta, lb.Author+": "+md.Author)
	}
	if md.Version != "" {
		meta = append(meta, lb.Version+": "+md.Version)
	}
	d.note(strings.Join(meta, "   "))
	d.para(md.Description)

	gs := &s.GameSettings
	d.heading(lb.Players, 13)
	d.para(strings.Join(gs.ActivePlayerNames(), ", "))
	d.heading(lb.JudgementLevels, 13)
	d.para(strings.Join(gs.Judgement.Levels(), " / "))

	levels := gs.Judgement.Levels()
	for _, sc := range s.Scenes() {
		d.heading(lb.SceneTypeLabel(sc.Kind.String())+": "+sc.Name, 15)
		d.note(sc.Memo)
		for _, it := range sc.Items() {
			d.heading(it.Name, 12)
			d.note(it.Memo)
			if sc.Kind == domain.SceneNarrative {
				d.para(it.Content())
				continue
			}
			d.para(levelTexts(it, levels))
		}
	}
}

// handouts adds one page per active player with the player's texts from
// every secret-distribution scene.
func (d *pdfDoc) handouts(s *domain.Scenario, lb pattern.Labels) {
	levels := s.GameSettings.Judgement.Levels()
	for _, player := range s.GameSettings.ActivePlayerNames() {
		d.pdf.AddPage()
		d.heading(s.Metadata.Title, 12)
		d.heading(player, 18)
		for _, sc := range s.Scenes() {
			it := sc.Target(player)
			if it == nil || it.IsEmpty() {
				continue
			}
			d.heading(lb.SecretDistribution+": "+sc.Name, 13)
			d.para(levelTexts(it, levels))
		}
	}
}

// levelTexts lists the non-empty texts of it prefixed with their level name.
// A single filled slot is printed without prefix.
func levelTexts(it *domain.Item, levels []string) string {
	var lines []string
	filled := 0
	for _, t := range it.Texts() {
		if strings.TrimSpace(t) != "" {
			filled++
		}
	}
	for i, t := range it.Texts() {
		if strings.TrimSpace(t) == "" {
			continue
		}
		if filled == 1 || i >= len(levels) {
			lines = append(lines, t)
			continue
		}
		lines = append(lines, levels[i]+": "+t)
	}
	return strings.Join(lines, "\n")
}
