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
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gmscenario/internal/config"
	"gmscenario/internal/crash"
	applog "gmscenario/internal/log"
	"gmscenario/internal/telemetry"
	"gmscenario/internal/version"
)

// rootFlags override the loaded configuration for one invocation.
type rootFlags struct {
	lang        string
	patternFile string
	noIndex     bool
	logLevel    string
}

func newRootCmd(sess *crash.Session) *cobra.Command {
	var (
		flags rootFlags
		a     = &app{session: sess}
	)
	root := &cobra.Command{
		Use:   "gmscenario",
		Short: "Read, check and publish TRPG scenario documents",
		Long: `gmscenario reads Markdown-like TRPG scenario documents, checks them,
rewrites them in canonical form and exports them for the table.

Examples:
  # Report warnings and rule violations
  gmscenario check mist.md

  # Rewrite a file in canonical form
  gmscenario fmt -w mist.md

  # Print handouts for the session
  gmscenario export --preset session mist.md`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, password, err := config.Load()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "config: %v (using defaults)\n", err)
			}
			if flags.lang != "" {
				cfg.Format.Language = flags.lang
			}
			if flags.patternFile != "" {
				cfg.Format.PatternFile = flags.patternFile
			}
			if flags.noIndex {
				cfg.Index.Enabled = false
			}
			if flags.logLevel != "" {
				cfg.Logging.Level = flags.logLevel
			}
			applog.Init(applog.Options{
				Level:     cfg.Logging.Level,
				Format:    cfg.Logging.Format,
				AddSource: cfg.Logging.Source,
				File:      cfg.Logging.File,
			})
			tc := telemetry.FromEnv()
			tc.OptIn = tc.OptIn || cfg.General.TelemetryOptIn
			telemetry.NewDefault(tc)
			return a.init(cfg, password)
		},
	}
	root.SetContext(context.Background())

	pf := root.PersistentFlags()
	pf.StringVar(&flags.lang, "lang", "", "Output labels: ja, en (default from config)")
	pf.StringVar(&flags.patternFile, "patterns", "", "YAML file replacing the built-in document patterns")
	pf.BoolVar(&flags.noIndex, "no-index", false, "Do not update the local search index and history")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		newCheckCmd(a),
		newFmtCmd(a),
		newNewCmd(a),
		newEditCmd(a),
		newExportCmd(a),
		newIndexCmd(a),
		newSearchCmd(a),
		newHistoryCmd(a),
		newPublishCmd(a),
		newPullCmd(a),
		newLibraryCmd(a),
		newPackCmd(a),
		newUnpackCmd(a),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		// version works without a readable config
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "gmscenario", version.String())
			return err
		},
	}
}

func main() {
	sess := &crash.Session{}
	defer crash.Recover(sess)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	root := newRootCmd(sess)
	err := root.ExecuteContext(ctx)
	stop()

	flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	telemetry.Shutdown(flushCtx)
	cancel()
	if err != nil {
		applog.WithComponent("cli").Debug("command failed", slog.Any("err", err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
