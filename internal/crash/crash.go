/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic in the CLI into a crash report plus an
// autosave of the scenario text the process was holding.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "gmscenario/internal/log"
	"gmscenario/internal/storage"
	"gmscenario/internal/telemetry"
	"gmscenario/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Session is the scenario currently held in memory. Text renders it; it is
// called only after a panic.
type Session struct {
	Path string
	Text func() string
}

// Recover captures a panic, logs an error with stacktrace,
// writes an error report file, and attempts a crash-safe autosave
// of the session's scenario text (if provided).
//
// Usage: defer crash.Recover(sess)
func Recover(sess *Session) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, _ := writeReport(sess, r, stack)
		if sess != nil && sess.Path != "" && sess.Text != nil {
			if path, err := autosave(sess); err != nil {
				l.Error("autosave crash snapshot failed", slog.Any("err", err))
			} else {
				l.Info("autosave crash snapshot written", slog.String("path", path))
			}
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		// Exit with a non-zero code to indicate failure in CLI context.
		exitFn(2)
	}
}

// autosave renders the session text, which may itself panic when the
// scenario is in a broken state.
func autosave(sess *Session) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render scenario text: %v", r)
		}
	}()
	return storage.AutosaveCrashSnapshot(sess.Path, sess.Text())
}

// reportDir is <scenario dir>/.gms/crash when a session is known, else the
// system temp dir.
func reportDir(sess *Session) string {
	if sess == nil || sess.Path == "" {
		return os.TempDir()
	}
	dir := filepath.Join(filepath.Dir(sess.Path), storage.WorkDirName, storage.CrashDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return os.TempDir()
	}
	return dir
}

func writeReport(sess *Session, panicVal any, stack []byte) (string, error) {
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(reportDir(sess), fmt.Sprintf("crash-%s.log", stamp))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "gmscenario Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if sess != nil && sess.Path != "" {
		_, _ = fmt.Fprintf(&buf, "Scenario: %s\n", sess.Path)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()

	// The uploaded copy omits the scenario path.
	telemetry.UploadCrash(anonymize(buf.Bytes(), sess))
	return path, nil
}

func anonymize(report []byte, sess *Session) []byte {
	if sess == nil || sess.Path == "" {
		return report
	}
	return bytes.ReplaceAll(report, []byte(sess.Path), []byte("<scenario>"))
}
