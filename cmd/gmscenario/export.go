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
	"log/slog"

	"github.com/spf13/cobra"

	"gmscenario/internal/export"
	"gmscenario/internal/telemetry"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		preset   string
		formats  []string
		outDir   string
		baseName string
		fontPath string
		handouts bool
	)
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Export a scenario as JSON, PDF or HTML",
		Long: `Export writes the scenario in the formats of a preset:

  web      JSON and HTML
  print    PDF GM sheet
  session  PDF GM sheet plus one handout page per player

Relative output directories are created under <scenario dir>/exports/<preset>/.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			opt := export.BatchOptions{
				Preset:   export.PresetName(preset),
				Formats:  formats,
				OutDir:   outDir,
				BaseName: baseName,
				Labels:   a.labels,
				FontPath: fontPath,
			}
			if cmd.Flags().Changed("handouts") {
				opt.Handouts = &handouts
			}
			files, err := export.BatchExport(s, opt)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			telemetry.Event(telemetry.EventExport, map[string]any{"preset": preset, "files": len(files)})
			a.log.Info("exported", slog.String("preset", preset), slog.Int("files", len(files)))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&preset, "preset", "p", string(export.PresetWeb), "Preset: web, print, session")
	f.StringSliceVarP(&formats, "format", "f", nil, "Formats overriding the preset: json, pdf, html")
	f.StringVarP(&outDir, "out", "o", "", "Output directory")
	f.StringVar(&baseName, "name", "", "Base name of the written files (default: scenario file name)")
	f.StringVar(&fontPath, "font", "", "TrueType font for PDF output (needed for Japanese text)")
	f.BoolVar(&handouts, "handouts", false, "Add player handout pages to PDF output")
	return cmd
}
