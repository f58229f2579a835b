/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gmscenario/internal/config"
	"gmscenario/internal/crash"
	"gmscenario/internal/domain"
	"gmscenario/internal/loader"
	applog "gmscenario/internal/log"
	"gmscenario/internal/parser"
	"gmscenario/internal/pattern"
	"gmscenario/internal/serialize"
	"gmscenario/internal/storage"
	"gmscenario/internal/telemetry"
)

// app is the state shared by all commands of one invocation.
type app struct {
	cfg      config.AppConfig
	password string
	labels   pattern.Labels
	loader   *loader.Loader
	log      *slog.Logger
	session  *crash.Session
}

func (a *app) init(cfg config.AppConfig, password string) error {
	a.cfg = cfg
	a.password = password
	a.labels = pattern.LabelsFor(cfg.Format.Language)
	a.log = applog.WithComponent("cli")

	var popts parser.Options
	if cfg.Format.PatternFile != "" {
		pc, err := pattern.Load(cfg.Format.PatternFile)
		if err != nil {
			return fmt.Errorf("patterns: %w", err)
		}
		set, errs := pattern.Compile(*pc)
		for _, e := range errs {
			a.log.Warn("pattern skipped", slog.Any("err", e))
		}
		popts.Patterns = set
	}
	store := storage.TextFile{KeepBackups: cfg.Index.KeepBackups}
	a.loader = loader.New(store,
		loader.WithParser(parser.New(popts)),
		loader.WithSerializer(serialize.New(a.labels)),
	)
	return nil
}

// track makes s the scenario autosaved by crash.Recover.
func (a *app) track(s *domain.Scenario) {
	if a.session == nil || s == nil {
		return
	}
	a.session.Path = s.Path
	a.session.Text = func() string { return a.loader.Serialize(s) }
}

// open loads path. The scenario remembers the absolute path.
func (a *app) open(ctx context.Context, path string) (*domain.Scenario, []string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, err
	}
	s, warnings, err := a.loader.Load(abs)
	if err != nil {
		return nil, nil, err
	}
	a.track(s)
	telemetry.ScenarioLoaded(telemetry.StatsFor(s, len(warnings)))
	a.log.DebugContext(applog.ContextWithScenario(ctx, abs), "opened", slog.Int("warnings", len(warnings)))
	return s, warnings, nil
}

// save writes s to its path and records the new text in the local history
// and search index. History and index failures are logged, not returned.
func (a *app) save(ctx context.Context, s *domain.Scenario) error {
	if err := a.loader.Save(s, ""); err != nil {
		return err
	}
	a.track(s)
	telemetry.Event(telemetry.EventScenarioSaved, telemetry.StatsFor(s, 0).Props())
	if !a.cfg.Index.Enabled {
		return nil
	}
	ctx = applog.ContextWithScenario(ctx, s.Path)
	dir := filepath.Dir(s.Path)
	if err := storage.SaveTextSnapshot(ctx, dir, s.Path, a.loader.Serialize(s), time.Now()); err != nil {
		a.log.WarnContext(ctx, "history snapshot failed", slog.Any("err", err))
	} else if a.cfg.Index.KeepSnapshots > 0 {
		if _, err := storage.PruneTextSnapshots(ctx, dir, s.Path, a.cfg.Index.KeepSnapshots); err != nil {
			a.log.WarnContext(ctx, "history prune failed", slog.Any("err", err))
		}
	}
	a.index(ctx, s)
	return nil
}

// index refreshes the search index rows of s in the index of its directory.
func (a *app) index(ctx context.Context, s *domain.Scenario) {
	ctx = applog.ContextWithScenario(ctx, s.Path)
	if err := storage.IndexScenario(ctx, filepath.Dir(s.Path), s.Path, s); err != nil {
		a.log.WarnContext(ctx, "index update failed", slog.Any("err", err))
	}
}

// parseText assembles text as the content of path.
func (a *app) parseText(text, path string) (*domain.Scenario, error) {
	s, _, err := a.loader.Parse(text, path)
	return s, err
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
