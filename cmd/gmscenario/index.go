/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gmscenario/internal/scenariopack"
	"gmscenario/internal/storage"
)

func newIndexCmd(a *app) *cobra.Command {
	var remove []string
	cmd := &cobra.Command{
		Use:   "index [DIR]",
		Short: "Rebuild the local search index of a directory",
		Long: `Index loads every scenario file below DIR (default: the current directory)
and stores its text in DIR/.gms/index.sqlite for search. A damaged index is
backed up and rebuilt. Files that do not load are reported and skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			dir, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			if rebuilt, err := storage.DetectAndRebuildIndex(ctx, dir); err != nil {
				return err
			} else if rebuilt {
				fmt.Fprintln(out, "index was damaged and has been rebuilt")
			}
			if len(remove) > 0 {
				for _, p := range remove {
					abs, err := filepath.Abs(p)
					if err != nil {
						return err
					}
					n, err := storage.RemoveFromIndex(ctx, dir, abs)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "removed %s (%d documents)\n", p, n)
				}
				return nil
			}

			indexed, skipped := 0, 0
			err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					if path != dir && (strings.HasPrefix(d.Name(), ".") || d.Name() == "exports") {
						return filepath.SkipDir
					}
					return nil
				}
				if !scenariopack.IsScenarioFile(path) {
					return nil
				}
				s, _, err := a.open(ctx, path)
				if err != nil {
					skipped++
					fmt.Fprintf(out, "skipped %s: %v\n", rel(dir, path), err)
					return nil
				}
				if err := storage.IndexScenario(ctx, dir, s.Path, s); err != nil {
					return err
				}
				indexed++
				return nil
			})
			if err != nil {
				return err
			}
			a.log.Info("index rebuilt", slog.String("dir", dir), slog.Int("indexed", indexed), slog.Int("skipped", skipped))
			fmt.Fprintf(out, "indexed %d scenarios\n", indexed)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&remove, "remove", nil, "Remove a scenario file from the index instead (repeatable)")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		q       storage.SearchQuery
		dir     string
		library bool
	)
	cmd := &cobra.Command{
		Use:   "search TEXT",
		Short: "Search scenario text",
		Long: `Search looks up TEXT in the local index of --dir, or in the shared library
with --library. An empty TEXT lists documents matching the filters.

Types: title, author, description, scene, scene_memo, item, item_memo, text.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				q.Text = args[0]
			}
			var (
				results []storage.SearchResult
				err     error
			)
			if library {
				lib, cancel, lerr := a.openLibrary(cmd.Context())
				if lerr != nil {
					return lerr
				}
				defer cancel()
				defer lib.Close()
				results, err = lib.Search(cmd.Context(), q)
			} else {
				abs, aerr := filepath.Abs(dir)
				if aerr != nil {
					return aerr
				}
				results, err = storage.Search(cmd.Context(), abs, q)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range results {
				where := r.Scenario
				if r.Scene != "" {
					where += " / " + r.Scene
				}
				fmt.Fprintf(out, "%s [%s] %s: %s\n", where, r.Type, r.Path, oneLine(r.Snippet))
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "no matches")
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&dir, "dir", "d", ".", "Directory whose index is searched")
	f.BoolVar(&library, "library", false, "Search the shared library instead of the local index")
	f.StringVar(&q.Scenario, "scenario", "", "Restrict to one scenario (file path relative to --dir, or library title)")
	f.StringVar(&q.Scene, "scene", "", "Restrict to one scene")
	f.StringSliceVarP(&q.Types, "type", "t", nil, "Restrict to document types, comma-separated")
	f.IntVarP(&q.Limit, "limit", "n", 20, "Maximum number of results")
	f.IntVar(&q.Offset, "offset", 0, "Skip this many results")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit   int
		restore int
	)
	cmd := &cobra.Command{
		Use:   "history FILE",
		Short: "List or restore saved versions of a scenario",
		Long: `History lists the versions recorded each time gmscenario wrote FILE, newest
first. --restore N writes version N of the list back to FILE.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			dir := filepath.Dir(path)
			if restore > 0 && restore > limit {
				limit = restore
			}
			snaps, err := storage.ListTextSnapshots(ctx, dir, path, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if restore > 0 {
				if restore > len(snaps) {
					return fmt.Errorf("no version %d (have %d)", restore, len(snaps))
				}
				s, err := a.parseText(snaps[restore-1].Text, path)
				if err != nil {
					return err
				}
				s.MarkModified()
				if err := a.save(ctx, s); err != nil {
					return err
				}
				fmt.Fprintf(out, "restored version %d from %s\n", restore, snaps[restore-1].TS.Local().Format(time.DateTime))
				return nil
			}
			for i, sn := range snaps {
				fmt.Fprintf(out, "%3d  %s  %d bytes\n", i+1, sn.TS.Local().Format(time.DateTime), len(sn.Text))
			}
			if len(snaps) == 0 {
				fmt.Fprintln(out, "no history")
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of versions to list")
	cmd.Flags().IntVar(&restore, "restore", 0, "Restore version N (1 is the newest)")
	return cmd
}

func rel(dir, path string) string {
	if r, err := filepath.Rel(dir, path); err == nil {
		return r
	}
	return path
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 120 {
		return string(r[:117]) + "..."
	}
	return s
}
