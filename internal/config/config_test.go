/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"
)

// isolate points the config path at a temp file and the keyring at the
// in-memory mock.
func isolate(t *testing.T) string {
	t.Helper()
	keyring.MockInit()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, path)
	for _, env := range envKeys {
		t.Setenv(env, "")
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, pw, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if pw != "" {
		t.Fatalf("password = %q, want empty", pw)
	}
	if got, want := cfg.Format.Language, "ja"; got != want {
		t.Fatalf("Format.Language = %q, want %q", got, want)
	}
	if !cfg.Index.Enabled {
		t.Fatalf("Index.Enabled should default to true")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := isolate(t)
	cfg := Defaults()
	cfg.Format.Language = "en"
	cfg.Format.PatternFile = "/tmp/patterns.yaml"
	cfg.Library.DSN = "postgres://gm@db.example/library"
	cfg.Index.KeepSnapshots = 5
	if err := Save(cfg, "s3cret"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if st, err := os.Stat(path); err != nil || st.Size() == 0 {
		t.Fatalf("config file not written: %v", err)
	}
	got, pw, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Format != cfg.Format || got.Library.DSN != cfg.Library.DSN || got.Index.KeepSnapshots != 5 {
		t.Fatalf("round trip mismatch: %#v", got)
	}
	if pw != "s3cret" {
		t.Fatalf("password = %q, want %q", pw, "s3cret")
	}
	if LibraryPassword() != "s3cret" {
		t.Fatalf("LibraryPassword() = %q", LibraryPassword())
	}
	if err := SetLibraryPassword(""); err != nil {
		t.Fatalf("SetLibraryPassword(\"\"): %v", err)
	}
	if LibraryPassword() != "" {
		t.Fatalf("password not removed")
	}
	// Removing twice is fine.
	if err := SetLibraryPassword(""); err != nil {
		t.Fatalf("SetLibraryPassword(\"\") again: %v", err)
	}
}

func TestLoadReportsBadYAML(t *testing.T) {
	path := isolate(t)
	if err := os.WriteFile(path, []byte("format: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, _, err := Load()
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if cfg.Format.Language != "ja" {
		t.Fatalf("defaults not returned on parse error: %#v", cfg.Format)
	}
}

func TestEnvOverridesTelemetry(t *testing.T) {
	isolate(t)
	t.Setenv(EnvTelemetryOptIn, "true")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
}

func TestEnvOverridesFormatAndLibrary(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLanguage, "EN")
	t.Setenv(EnvPatternFile, "/etc/gms/patterns.yaml")
	t.Setenv(EnvIndexEnabled, "off")
	t.Setenv(EnvLibraryDSN, "postgres://x@y/z")
	t.Setenv(EnvLibraryTimeout, "2500")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Format.Language != "en" || cfg.Format.PatternFile != "/etc/gms/patterns.yaml" {
		t.Fatalf("format overrides not applied: %#v", cfg.Format)
	}
	if cfg.Index.Enabled {
		t.Fatalf("index should be disabled by env")
	}
	if cfg.Library.DSN != "postgres://x@y/z" || cfg.Library.EffectiveTimeout() != "2500ms" {
		t.Fatalf("library overrides not applied: %#v", cfg.Library)
	}
	if env, ok := EnvOverrideFor("library.dsn"); !ok || env != EnvLibraryDSN {
		t.Fatalf("EnvOverrideFor(library.dsn) = %q, %v", env, ok)
	}
	if _, ok := EnvOverrideFor("logging.level"); ok {
		t.Fatalf("logging.level is not overridden")
	}
	if _, ok := EnvOverrideFor("unknown.key"); ok {
		t.Fatalf("unknown key reported as overridden")
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/gms.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/gms.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestMergeKeepsDefaultsForZeroValues(t *testing.T) {
	dst := Defaults()
	src := AppConfig{Index: IndexConfig{Enabled: true}}
	mergeInto(&dst, &src)
	if dst.Index.KeepSnapshots != 50 || dst.Library.TimeoutMs != 15000 || dst.Format.Language != "ja" {
		t.Fatalf("zero values overwrote defaults: %#v", dst)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/gms.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/gms.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}
