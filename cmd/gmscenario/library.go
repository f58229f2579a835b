/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gmscenario/internal/backend"
	"gmscenario/internal/config"
)

var errNoLibrary = errors.New("no library configured (set library.dsn in the config file or GMS_PG_DSN)")

// openLibrary connects to the configured library. The returned cancel ends
// the request deadline; call it after Close.
func (a *app) openLibrary(ctx context.Context) (*backend.Library, context.CancelFunc, error) {
	if strings.TrimSpace(a.cfg.Library.DSN) == "" {
		return nil, nil, errNoLibrary
	}
	timeout, err := time.ParseDuration(a.cfg.Library.EffectiveTimeout())
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	lib, err := backend.Open(ctx, a.cfg.Library.DSN, a.password)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("library: %w", err)
	}
	return lib, cancel, nil
}

func (a *app) publisher() string {
	if p := strings.TrimSpace(a.cfg.Library.Publisher); p != "" {
		return p
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}

func newPublishCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "publish FILE",
		Short: "Publish a scenario to the shared library",
		Long: `Publish stores the canonical text of FILE in the shared library under its
title. Publishing a title again creates a new version.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			lib, cancel, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()
			defer lib.Close()
			e, err := lib.Publish(cmd.Context(), s, a.loader.Serialize(s), a.publisher())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %q version %d\n", e.Title, e.Version)
			return nil
		},
	}
}

func newPullCmd(a *app) *cobra.Command {
	var (
		out      string
		revision int64
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "pull TITLE",
		Short: "Download a scenario from the shared library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lib, cancel, err := a.openLibrary(ctx)
			if err != nil {
				return err
			}
			defer cancel()
			defer lib.Close()

			var text string
			if revision > 0 {
				text, err = lib.FetchRevision(ctx, args[0], revision)
			} else {
				_, text, err = lib.Fetch(ctx, args[0])
			}
			if err != nil {
				return err
			}
			if out == "" {
				out = args[0] + ".md"
			}
			path, err := filepath.Abs(out)
			if err != nil {
				return err
			}
			if exists(path) && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", out)
			}
			s, err := a.parseText(text, path)
			if err != nil {
				return err
			}
			s.MarkModified()
			if err := a.save(ctx, s); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Target file (default: TITLE.md)")
	cmd.Flags().Int64Var(&revision, "revision", 0, "Published version to fetch (default: latest)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newLibraryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage the shared library",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List published scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lib, cancel, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()
			defer lib.Close()
			entries, err := lib.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s\tv%d\t%d players\t%d scenes\t%s\t%s\n",
					e.Title, e.Version, e.PlayerCount, e.SceneCount, e.PublishedBy, e.UpdatedAt.Local().Format(time.DateTime))
			}
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove TITLE",
		Short: "Delete a scenario and all its versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, cancel, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()
			defer lib.Close()
			if err := lib.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "removed", args[0])
			return nil
		},
	}

	var forget bool
	login := &cobra.Command{
		Use:   "login",
		Short: "Store the library password in the OS keychain",
		Long: `Login reads the library password from the first line of standard input and
stores it in the OS keychain. --clear removes the stored password.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if forget {
				if err := config.SetLibraryPassword(""); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "password removed")
				return nil
			}
			if stdinIsTerminal() {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			}
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			pw := strings.TrimRight(line, "\r\n")
			if pw == "" {
				return errors.New("empty password")
			}
			if err := config.SetLibraryPassword(pw); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "password stored")
			return nil
		},
	}
	login.Flags().BoolVar(&forget, "clear", false, "Remove the stored password")

	cmd.AddCommand(list, remove, login)
	return cmd
}

// stdinIsTerminal reports whether stdin is interactive.
func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
