/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log provides centralized slog-based logging for gmscenario.
// Console output is a compact one-line format meant for a terminal next to
// the command output; the optional log file receives JSON records with
// rotation. Records are enriched with the scenario file carried in the
// context.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gmscenario/internal/version"

	// lumberjack is optional; used only if file logging is enabled
	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Attribute keys with special meaning for the console handler.
const (
	KeyComponent = "component"
	KeyOperation = "op"
	KeyScenario  = "scenario"
)

// Options controls logger initialization.
// Values can be provided directly, from the config file or via environment variables:
//   - GMS_LOG_LEVEL=debug|info|warn|error
//   - GMS_LOG_FORMAT=console|json
//   - GMS_LOG_FILE=<path> (enables file logging with rotation)
//   - GMS_LOG_SOURCE=true|false (include source)
//
// Defaults: INFO level, console format on stderr, no source.
type Options struct {
	Level     string
	Format    string // "console" or "json"
	AddSource bool
	File      string // optional path for file logging (rotated)
	// Console receives console records; nil means os.Stderr.
	Console io.Writer
}

var (
	defaultLoggerMu sync.RWMutex
	defaultLogger   *slog.Logger
)

// L returns the default application logger, initializing from env if needed.
func L() *slog.Logger {
	defaultLoggerMu.RLock()
	l := defaultLogger
	defaultLoggerMu.RUnlock()
	if l != nil {
		return l
	}
	Init(FromEnv())
	defaultLoggerMu.RLock()
	l = defaultLogger
	defaultLoggerMu.RUnlock()
	return l
}

// Init configures the global logger and sets slog.Default as well.
func Init(opts Options) {
	lvl := parseLevel(opts.Level)
	w := opts.Console
	if w == nil {
		w = os.Stderr
	}

	var console slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		console = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}).
			WithAttrs(staticAttrs())
	} else {
		console = &consoleHandler{level: lvl, source: opts.AddSource, w: w, mu: &sync.Mutex{}}
	}
	handlers := []slog.Handler{withEnricher(console)}

	if strings.TrimSpace(opts.File) != "" {
		rot := &lj.Logger{Filename: opts.File, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		fh := slog.NewJSONHandler(rot, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}).
			WithAttrs(staticAttrs())
		handlers = append(handlers, withEnricher(fh))
	}

	h := handlers[0]
	if len(handlers) > 1 {
		h = multiHandler(handlers...)
	}
	logger := slog.New(h)

	defaultLoggerMu.Lock()
	defaultLogger = logger
	defaultLoggerMu.Unlock()
	slog.SetDefault(logger)
}

// staticAttrs identify the build in machine-read logs.
func staticAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("app", "gmscenario"),
		slog.String("ver", version.Version),
	}
}

// FromEnv builds Options from environment variables.
func FromEnv() Options {
	return Options{
		Level:     getenv("GMS_LOG_LEVEL", "info"),
		Format:    getenv("GMS_LOG_FORMAT", "console"),
		AddSource: strings.EqualFold(getenv("GMS_LOG_SOURCE", "false"), "true"),
		File:      os.Getenv("GMS_LOG_FILE"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// WithComponent returns a logger with the component attribute pre-set.
func WithComponent(name string) *slog.Logger { return L().With(slog.String(KeyComponent, name)) }

// WithOperation annotates the logger with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger {
	return l.With(slog.String(KeyOperation, op))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type scenarioKey struct{}

// ContextWithScenario returns a context whose log records carry the scenario
// file path as the "scenario" attribute.
func ContextWithScenario(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, scenarioKey{}, path)
}

// ScenarioFromContext returns the path set by ContextWithScenario.
func ScenarioFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	p, ok := ctx.Value(scenarioKey{}).(string)
	return p, ok && p != ""
}
