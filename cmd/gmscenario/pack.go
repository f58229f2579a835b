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
	"path/filepath"

	"github.com/spf13/cobra"

	"gmscenario/internal/scenariopack"
)

func newPackCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "pack [DIR]",
		Short: "Bundle the scenarios of a directory into a zip archive",
		Long: `Pack writes every scenario document below DIR (default: the current
directory) into a zip archive, together with the configured pattern file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if out == "" {
				abs, err := filepath.Abs(dir)
				if err != nil {
					return err
				}
				out = filepath.Base(abs) + ".zip"
			}
			n, err := scenariopack.Export(dir, out, a.cfg.Format.PatternFile)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "packed %d scenarios into %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Archive path (default: <dir name>.zip)")
	return cmd
}

func newUnpackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unpack ZIP [DIR]",
		Short: "Install the scenarios of an archive into a directory",
		Long: `Unpack extracts the scenario documents of ZIP into DIR (default: the
current directory). Existing files are kept and reported.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 2 {
				dir = args[1]
			}
			res, err := scenariopack.Install(dir, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, f := range res.Skipped {
				fmt.Fprintf(out, "kept existing %s\n", f)
			}
			for _, f := range res.Installed {
				fmt.Fprintf(out, "installed %s\n", f)
				if !a.cfg.Index.Enabled {
					continue
				}
				// index what loads; unreadable files are reported by check
				if s, _, err := a.open(cmd.Context(), filepath.Join(dir, filepath.FromSlash(f))); err == nil {
					a.index(cmd.Context(), s)
				}
			}
			if res.Patterns != "" {
				fmt.Fprintf(out, "pattern file: %s (use --patterns to read these scenarios)\n", res.Patterns)
			}
			return nil
		},
	}
}
