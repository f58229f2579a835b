/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("GMS_LOG_LEVEL", "warn")
	t.Setenv("GMS_LOG_FORMAT", "json")
	t.Setenv("GMS_LOG_SOURCE", "TRUE")
	t.Setenv("GMS_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}

	t.Setenv("GMS_LOG_LEVEL", "")
	if got := FromEnv().Level; got != "info" {
		t.Fatalf("default level = %q", got)
	}
}

func newConsole(buf *bytes.Buffer, level slog.Level) *consoleHandler {
	return &consoleHandler{level: level, w: buf, mu: &sync.Mutex{}}
}

func TestConsoleHandlerLine(t *testing.T) {
	var buf bytes.Buffer
	h := newConsole(&buf, slog.LevelWarn)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error disabled at warn level")
	}

	l := slog.New(h.WithAttrs([]slog.Attr{
		slog.String(KeyComponent, "storage"),
		slog.String(KeyOperation, "save"),
		slog.String(KeyScenario, "/tmp/work/mist.md"),
	}))
	l.Error("write failed",
		slog.Any("err", errors.New("disk full")),
		slog.Int("bytes", 42),
		slog.Duration("took", 1500*time.Millisecond),
		slog.Float64("ratio", 0.5),
		slog.String("empty", ""),
	)

	out := strings.TrimSuffix(buf.String(), "\n")
	wantPrefix := " ERR storage/save mist.md: write failed"
	if !strings.Contains(out, wantPrefix) {
		t.Fatalf("line %q lacks %q", out, wantPrefix)
	}
	for _, want := range []string{`err="disk full"`, "bytes=42", "took=1.5s", "ratio=0.5", `empty=""`} {
		if !strings.Contains(out, want) {
			t.Errorf("line %q lacks %q", out, want)
		}
	}
	if strings.Contains(out, "component=") || strings.Contains(out, "scenario=") {
		t.Errorf("prefix attrs repeated: %q", out)
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("want exactly one line: %q", buf.String())
	}
}

func TestConsoleHandlerGroupsAndRecordPrefix(t *testing.T) {
	var buf bytes.Buffer
	h := newConsole(&buf, slog.LevelDebug)
	l := slog.New(h).With(slog.String("k", "v")).WithGroup("grp")

	l.Debug("probe", slog.Int("n", 7), slog.Group("inner", slog.Bool("ok", true)))
	out := buf.String()
	for _, want := range []string{"DBG probe", "k=v", "grp.n=7", "grp.inner.ok=true"} {
		if !strings.Contains(out, want) {
			t.Errorf("line %q lacks %q", out, want)
		}
	}

	buf.Reset()
	slog.New(h).Info("scanned", slog.String(KeyOperation, "index"))
	if !strings.Contains(buf.String(), "INF /index: scanned") {
		t.Errorf("record op not used as prefix: %q", buf.String())
	}
}

func TestConsoleHandlerSource(t *testing.T) {
	var buf bytes.Buffer
	h := newConsole(&buf, slog.LevelInfo)
	h.source = true
	slog.New(h).Info("where")
	if !strings.Contains(buf.String(), "src=logger_more_test.go:") {
		t.Fatalf("source missing: %q", buf.String())
	}
}

func TestQuoteIfNeeded(t *testing.T) {
	cases := map[string]string{
		"plain":    "plain",
		"":         `""`,
		"two word": `"two word"`,
		"a=b":      `"a=b"`,
		"霧の館":      "霧の館",
	}
	for in, want := range cases {
		if got := quoteIfNeeded(in); got != want {
			t.Errorf("quoteIfNeeded(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEnricherAddsScenarioFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(withEnricher(slog.NewJSONHandler(&buf, nil)))

	l.InfoContext(context.Background(), "plain")
	if strings.Contains(buf.String(), `"scenario"`) {
		t.Fatalf("scenario attr without context value: %q", buf.String())
	}
	buf.Reset()

	l.InfoContext(ContextWithScenario(context.Background(), "a/b.md"), "loaded")
	if !strings.Contains(buf.String(), `"scenario":"a/b.md"`) {
		t.Fatalf("scenario attr missing: %q", buf.String())
	}
	if _, ok := ScenarioFromContext(ContextWithScenario(context.Background(), "")); ok {
		t.Fatalf("empty path reported")
	}
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := multiHandler(
		newConsole(&a, slog.LevelInfo),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	l := slog.New(h).With(slog.String(KeyComponent, "x"))
	l.Info("info only")
	l.Error("both")
	if !strings.Contains(a.String(), "x: info only") || !strings.Contains(a.String(), "x: both") {
		t.Fatalf("console output: %q", a.String())
	}
	if strings.Contains(b.String(), "info only") || !strings.Contains(b.String(), "component=x") {
		t.Fatalf("text output: %q", b.String())
	}
}
