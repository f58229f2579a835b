/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"gmscenario/internal/domain"
	applog "gmscenario/internal/log"
	"gmscenario/internal/undo"
	"gmscenario/internal/validate"
)

// edit is one named change applied to a scenario.
type edit struct {
	label string
	apply func(*domain.Scenario) error
}

var errRolledBack = errors.New("some edits were rolled back")

func newEditCmd(a *app) *cobra.Command {
	var (
		title       string
		author      string
		playerCount int
		renames     []string
		levels      []string
		dryRun      bool
	)
	cmd := &cobra.Command{
		Use:   "edit FILE",
		Short: "Apply settings changes and keep the scenario valid",
		Long: `Edit applies the requested changes one at a time in flag order. An edit
that leaves the scenario with rule errors is undone and reported; the
remaining edits still apply. Renaming a player re-keys the secret
distribution entries of that player, and changing the judgement levels
keeps item texts by position.

Examples:
  gmscenario edit mist.md --rename-player アリス=エリカ
  gmscenario edit mist.md --levels 成功,失敗 --player-count 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var edits []edit
			if cmd.Flags().Changed("title") {
				edits = append(edits, edit{"title", func(s *domain.Scenario) error { s.SetTitle(title); return nil }})
			}
			if cmd.Flags().Changed("author") {
				edits = append(edits, edit{"author", func(s *domain.Scenario) error { s.SetAuthor(author); return nil }})
			}
			if cmd.Flags().Changed("player-count") {
				edits = append(edits, edit{fmt.Sprintf("player count %d", playerCount), func(s *domain.Scenario) error {
					if playerCount < 1 || playerCount > domain.MaxSupportedPlayers {
						return fmt.Errorf("player count must be between 1 and %d", domain.MaxSupportedPlayers)
					}
					s.SetScenarioPlayerCount(playerCount)
					return nil
				}})
			}
			for _, r := range renames {
				oldName, newName, ok := strings.Cut(r, "=")
				if !ok {
					return fmt.Errorf("--rename-player wants OLD=NEW, got %q", r)
				}
				edits = append(edits, edit{"rename " + oldName, func(s *domain.Scenario) error { return s.RenamePlayer(oldName, newName) }})
			}
			if cmd.Flags().Changed("levels") {
				edits = append(edits, edit{"judgement levels", func(s *domain.Scenario) error { s.SetJudgementLevels(levels); return nil }})
			}
			if len(edits) == 0 {
				return errors.New("nothing to edit")
			}

			s, _, err := a.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s, rolledBack, err := a.applyEdits(s, edits, cmd)
			if err != nil {
				return err
			}
			if !dryRun && s.HasUnsavedChanges() {
				if err := a.save(cmd.Context(), s); err != nil {
					return err
				}
			}
			if rolledBack > 0 {
				return errRolledBack
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&title, "title", "", "New title")
	f.StringVar(&author, "author", "", "New author")
	f.IntVar(&playerCount, "player-count", 0, "Number of active players (1-6)")
	f.StringArrayVar(&renames, "rename-player", nil, "Rename a player, OLD=NEW (repeatable)")
	f.StringSliceVar(&levels, "levels", nil, "Judgement levels, best first, comma-separated")
	f.BoolVar(&dryRun, "dry-run", false, "Report the result without writing the file")
	return cmd
}

// applyEdits runs edits against s, undoing each one that fails or leaves
// rule errors behind. It returns the resulting scenario, which may be a new
// value when an edit was undone.
func (a *app) applyEdits(s *domain.Scenario, edits []edit, cmd *cobra.Command) (*domain.Scenario, int, error) {
	out := cmd.OutOrStdout()
	lg := applog.WithOperation(a.log, "edit")
	history := undo.NewManager(undo.Config{MaxPerKey: len(edits)})
	key := s.Path
	applied, rolledBack := 0, 0
	for _, e := range edits {
		before := a.loader.Serialize(s)
		history.Push(undo.Snapshot{Key: key, Label: e.label, Text: before})

		reason := ""
		if err := e.apply(s); err != nil {
			reason = err.Error()
		} else if issues := validate.Scenario(s); validate.HasErrors(issues) {
			reason = firstError(issues)
		}
		if reason == "" {
			applied++
			fmt.Fprintf(out, "applied: %s\n", e.label)
			continue
		}

		prev, ok := history.Undo(key, a.loader.Serialize(s))
		if !ok {
			return nil, rolledBack, fmt.Errorf("undo %s: no history", e.label)
		}
		restored, err := a.parseText(prev.Text, s.Path)
		if err != nil {
			return nil, rolledBack, fmt.Errorf("undo %s: %w", e.label, err)
		}
		if applied > 0 {
			restored.MarkModified()
		}
		s = restored
		a.track(s)
		rolledBack++
		lg.Warn("edit rolled back", slog.String("edit", e.label), slog.String("reason", reason))
		fmt.Fprintf(out, "rolled back: %s: %s\n", e.label, reason)
	}
	return s, rolledBack, nil
}

func firstError(issues []validate.Issue) string {
	for _, is := range issues {
		if is.Severity == validate.Error {
			return is.Message
		}
	}
	return ""
}
