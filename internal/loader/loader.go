/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package loader

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gmscenario/internal/domain"
	applog "gmscenario/internal/log"
	"gmscenario/internal/parser"
	"gmscenario/internal/pattern"
	"gmscenario/internal/serialize"
)

// TextStore reads and writes whole documents.
type TextStore interface {
	LoadText(path string) (string, error)
	SaveText(path, text string) error
}

// ErrRoundTrip is wrapped by VerifyRoundTrip failures.
var ErrRoundTrip = errors.New("scenario does not survive a save and reload")

// Loader loads and saves scenarios through a TextStore.
type Loader struct {
	store      TextStore
	parser     *parser.Parser
	serializer *serialize.Serializer
	log        *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithParser replaces the default parser.
func WithParser(p *parser.Parser) Option { return func(l *Loader) { l.parser = p } }

// WithSerializer replaces the default (Japanese) serializer.
func WithSerializer(s *serialize.Serializer) Option { return func(l *Loader) { l.serializer = s } }

// New returns a Loader over store.
func New(store TextStore, opts ...Option) *Loader {
	l := &Loader{
		store:      store,
		parser:     parser.New(parser.Options{}),
		serializer: serialize.New(pattern.JapaneseLabels()),
		log:        applog.WithComponent("loader"),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Parse assembles a scenario from text without touching the store.
func (l *Loader) Parse(text, path string) (*domain.Scenario, []string, error) {
	return Assemble(l.parser.Parse(text), path)
}

// Load reads path and assembles it. The returned scenario is clean and
// remembers path.
func (l *Loader) Load(path string) (*domain.Scenario, []string, error) {
	lg := applog.WithOperation(l.log, "load")
	start := time.Now()
	text, err := l.store.LoadText(path)
	if err != nil {
		lg.Error("read failed", slog.String("path", path), slog.Any("err", err))
		return nil, nil, fmt.Errorf("load %s: %w", path, err)
	}
	res := l.parser.Parse(text)
	s, warnings, err := Assemble(res, path)
	if err != nil {
		lg.Error("document unreadable", slog.String("path", path), slog.Any("err", err))
		return nil, nil, err
	}
	lg.Info("loaded",
		slog.String("path", path),
		slog.Int("scenes", s.SceneCount()),
		slog.Int("warnings", len(warnings)),
		slog.Int("section_errors", len(res.Errors)),
		slog.Duration("took", time.Since(start)),
	)
	return s, warnings, nil
}

// Save writes s to path (or s.Path when path is empty) and marks it saved.
func (l *Loader) Save(s *domain.Scenario, path string) error {
	if path == "" {
		path = s.Path
	}
	if path == "" {
		return errors.New("save: no path")
	}
	lg := applog.WithOperation(l.log, "save")
	text := l.serializer.Serialize(s)
	if err := l.store.SaveText(path, text); err != nil {
		lg.Error("write failed", slog.String("path", path), slog.Any("err", err))
		return fmt.Errorf("save %s: %w", path, err)
	}
	s.MarkSaved(path)
	lg.Info("saved", slog.String("path", path), slog.Int("bytes", len(text)))
	return nil
}

// Serialize renders s with the loader's serializer.
func (l *Loader) Serialize(s *domain.Scenario) string { return l.serializer.Serialize(s) }

// VerifyRoundTrip serializes s, parses the text into a second, independent
// scenario and compares the two.
func (l *Loader) VerifyRoundTrip(s *domain.Scenario) error {
	reloaded, _, err := l.Parse(l.serializer.Serialize(s), s.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRoundTrip, err)
	}
	if d := Diff(s, reloaded); len(d) > 0 {
		return fmt.Errorf("%w: %s", ErrRoundTrip, strings.Join(d, "; "))
	}
	return nil
}
