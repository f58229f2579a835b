/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type GeneralConfig struct {
	TelemetryOptIn bool `yaml:"telemetry_opt_in"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// FormatConfig selects how scenario documents are read and written.
type FormatConfig struct {
	// PatternFile is an optional YAML file replacing the built-in header
	// and line patterns.
	PatternFile string `yaml:"pattern_file"`
	// Language selects the output labels: "ja" or "en".
	Language string `yaml:"language"`
}

// IndexConfig controls the local SQLite index kept next to scenario files.
type IndexConfig struct {
	Enabled       bool `yaml:"enabled"`
	KeepSnapshots int  `yaml:"keep_snapshots"`
	KeepBackups   int  `yaml:"keep_backups"`
}

// LibraryConfig points at the shared Postgres library.
type LibraryConfig struct {
	DSN       string `yaml:"dsn"`
	Publisher string `yaml:"publisher"`
	TimeoutMs int    `yaml:"timeout_ms"`
	// The password is not stored on disk; it lives in the OS keychain.
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Logging       LoggingConfig `yaml:"logging"`
	Format        FormatConfig  `yaml:"format"`
	Index         IndexConfig   `yaml:"index"`
	Library       LibraryConfig `yaml:"library"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
		Format:        FormatConfig{Language: "ja"},
		Index:         IndexConfig{Enabled: true, KeepSnapshots: 50, KeepBackups: 20},
		Library:       LibraryConfig{TimeoutMs: 15000},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath     = "GMS_CONFIG"
	EnvTelemetryOptIn = "GMS_TELEMETRY_OPT_IN"
	EnvPatternFile    = "GMS_PATTERN_FILE"
	EnvLanguage       = "GMS_LANG"
	EnvIndexEnabled   = "GMS_INDEX"
	EnvLibraryDSN     = "GMS_PG_DSN"
	EnvLibraryTimeout = "GMS_PG_TIMEOUT_MS"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GMS_LOG_LEVEL"
	EnvLogFormat = "GMS_LOG_FORMAT"
	EnvLogSource = "GMS_LOG_SOURCE"
	EnvLogFile   = "GMS_LOG_FILE"
)

// ConfigPath returns the per-user config file path. GMS_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GMScenario")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GMScenario")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "gmscenario")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "gmscenario")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// It also loads the library password from keyring (not kept inside the struct; returned separately).
// A config file that exists but does not parse is reported; the defaults are still returned.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	var parseErr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			parseErr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	pw, _ := tokenStore.Get(keyringService, keyringPassword)
	return cfg, pw, parseErr
}

// Save writes the user config YAML and persists the password into OS keyring (if non-empty).
func Save(cfg AppConfig, password string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if password != "" {
		if err := tokenStore.Set(keyringService, keyringPassword, password); err != nil {
			return err
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
	// format
	if strings.TrimSpace(src.Format.PatternFile) != "" {
		dst.Format.PatternFile = strings.TrimSpace(src.Format.PatternFile)
	}
	if strings.TrimSpace(src.Format.Language) != "" {
		dst.Format.Language = strings.ToLower(strings.TrimSpace(src.Format.Language))
	}
	// index
	dst.Index.Enabled = src.Index.Enabled
	if src.Index.KeepSnapshots != 0 {
		dst.Index.KeepSnapshots = src.Index.KeepSnapshots
	}
	if src.Index.KeepBackups != 0 {
		dst.Index.KeepBackups = src.Index.KeepBackups
	}
	// library
	if strings.TrimSpace(src.Library.DSN) != "" {
		dst.Library.DSN = strings.TrimSpace(src.Library.DSN)
	}
	if strings.TrimSpace(src.Library.Publisher) != "" {
		dst.Library.Publisher = strings.TrimSpace(src.Library.Publisher)
	}
	if src.Library.TimeoutMs != 0 {
		dst.Library.TimeoutMs = src.Library.TimeoutMs
	}
}

func envBool(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = envBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvPatternFile)); v != "" {
		cfg.Format.PatternFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLanguage)); v != "" {
		cfg.Format.Language = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvIndexEnabled)); v != "" {
		cfg.Index.Enabled = envBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLibraryDSN)); v != "" {
		cfg.Library.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLibraryTimeout)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Library.TimeoutMs = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = envBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"general.telemetry_opt_in": EnvTelemetryOptIn,
	"format.pattern_file":      EnvPatternFile,
	"format.language":          EnvLanguage,
	"index.enabled":            EnvIndexEnabled,
	"library.dsn":              EnvLibraryDSN,
	"library.timeout_ms":       EnvLibraryTimeout,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// EffectiveTimeout returns the library timeout as a duration string.
func (l LibraryConfig) EffectiveTimeout() string {
	if l.TimeoutMs <= 0 {
		return fmt.Sprintf("%dms", Defaults().Library.TimeoutMs)
	}
	return fmt.Sprintf("%dms", l.TimeoutMs)
}
