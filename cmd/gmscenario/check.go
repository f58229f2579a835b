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
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"gmscenario/internal/domain"
	"gmscenario/internal/pattern"
	"gmscenario/internal/validate"
)

var errCheckFailed = errors.New("check failed")

func newCheckCmd(a *app) *cobra.Command {
	var strict, roundTrip bool
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Report parse warnings and rule violations",
		Long: `Check loads each scenario and prints parse warnings and rule violations,
one per line prefixed with the file name.

The command fails when a file cannot be read or has rule errors. With
--strict warnings fail it too.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := false
			for _, path := range args {
				s, warnings, err := a.open(cmd.Context(), path)
				if err != nil {
					fmt.Fprintf(out, "%s: error: %v\n", path, err)
					failed = true
					continue
				}
				for _, w := range warnings {
					fmt.Fprintf(out, "%s: warning: %s\n", path, w)
				}
				issues := validate.Scenario(s)
				for _, is := range issues {
					fmt.Fprintf(out, "%s: %s\n", path, is)
				}
				if roundTrip {
					if err := a.loader.VerifyRoundTrip(s); err != nil {
						fmt.Fprintf(out, "%s: error: %v\n", path, err)
						failed = true
					}
				}
				if validate.HasErrors(issues) || (strict && (len(warnings) > 0 || len(issues) > 0)) {
					failed = true
				}
				if len(warnings) == 0 && len(issues) == 0 {
					fmt.Fprintf(out, "%s: ok (%d scenes)\n", path, s.SceneCount())
				}
			}
			if failed {
				return errCheckFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on warnings as well as errors")
	cmd.Flags().BoolVar(&roundTrip, "roundtrip", false, "Verify the scenario survives a save and reload")
	return cmd
}

func newFmtCmd(a *app) *cobra.Command {
	var write, list, dropEmpty bool
	cmd := &cobra.Command{
		Use:   "fmt FILE...",
		Short: "Rewrite scenarios in canonical form",
		Long: `Fmt prints the canonical text of each scenario. With -w the file is
rewritten in place (keeping a backup); with -l only the names of files
whose text is not canonical are printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, path := range args {
				s, _, err := a.open(cmd.Context(), path)
				if err != nil {
					return err
				}
				if dropEmpty {
					for _, sc := range s.Scenes() {
						if n := sc.RemoveEmptyNarratives(); n > 0 {
							s.MarkModified()
						}
					}
				}
				text := a.loader.Serialize(s)
				if list || write {
					raw, err := os.ReadFile(s.Path)
					if err != nil {
						return err
					}
					if normalizeNewlines(string(raw)) == text {
						continue
					}
					if list {
						fmt.Fprintln(out, path)
						continue
					}
					if err := a.save(cmd.Context(), s); err != nil {
						return err
					}
					continue
				}
				if _, err := fmt.Fprint(out, text); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result to the source file")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "List files whose text differs from canonical form")
	cmd.Flags().BoolVar(&dropEmpty, "drop-empty", false, "Remove narrative items without content or memo")
	return cmd
}

func normalizeNewlines(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func newNewCmd(a *app) *cobra.Command {
	var (
		title   string
		author  string
		players []string
		levels  []string
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "new FILE",
		Short: "Create a scenario skeleton",
		Long: `New writes a scenario with metadata, game settings and one scene of
each kind. Player names fill the roster from the first slot; the active
player count follows the number of names.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if exists(path) && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", args[0])
			}
			s := domain.New()
			s.Path = path
			if title == "" {
				title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			s.SetTitle(title)
			s.SetAuthor(author)
			if len(levels) > 0 {
				s.SetJudgementLevels(levels)
			}
			if len(players) > domain.MaxSupportedPlayers {
				return fmt.Errorf("at most %d players", domain.MaxSupportedPlayers)
			}
			for i, p := range players {
				if err := s.SetPlayerName(i, p); err != nil {
					return err
				}
			}
			if len(players) > 0 {
				s.SetScenarioPlayerCount(len(players))
			}
			s.NewScene(domain.SceneExploration, a.labels.SceneTypeLabel(pattern.SceneTypeExploration))
			s.NewScene(domain.SceneSecretDistribution, a.labels.SceneTypeLabel(pattern.SceneTypeSecretDistribution))
			s.NewScene(domain.SceneNarrative, a.labels.SceneTypeLabel(pattern.SceneTypeNarrative))
			if err := a.save(cmd.Context(), s); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Scenario title (default: file name)")
	cmd.Flags().StringVar(&author, "author", "", "Author")
	cmd.Flags().StringSliceVar(&players, "players", nil, "Player names, comma-separated")
	cmd.Flags().StringSliceVar(&levels, "levels", nil, "Judgement levels, best first, comma-separated")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
