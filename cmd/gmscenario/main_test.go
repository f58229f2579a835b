/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"gmscenario/internal/config"
	"gmscenario/internal/crash"
	"gmscenario/internal/export"
)

// isolate points config, keyring and library settings away from the user's.
func isolate(t *testing.T) {
	t.Helper()
	keyring.MockInit()
	t.Setenv("GMS_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv("GMS_TELEMETRY_OPT_IN", "false")
	t.Setenv("GMS_PG_DSN", "")
	t.Setenv("GMS_LOG_LEVEL", "error")
	t.Setenv("GMS_LOG_FILE", "")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	isolate(t)
	var out bytes.Buffer
	root := newRootCmd(&crash.Session{})
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// sample copies the fixture scenario into a fresh directory.
func sample(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "mist.md"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "mist.md")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "gmscenario "), out)
}

func TestCheckSample(t *testing.T) {
	path := sample(t)
	out, err := run(t, "", "check", "--roundtrip", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, path)
	assert.NotContains(t, out, "error:")
}

func TestCheckFailsOnRuleErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.md")
	doc := "# 短い話\n\n## ゲーム設定\n\n### 判定レベル\n1. 成功\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	out, err := run(t, "", "check", path)
	require.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, out, "need at least 2 judgement levels")
}

func TestCheckMissingFile(t *testing.T) {
	out, err := run(t, "", "check", filepath.Join(t.TempDir(), "nope.md"))
	require.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, out, "error:")
}

func TestFmtWriteIsIdempotent(t *testing.T) {
	path := sample(t)
	canonical, err := run(t, "", "fmt", path)
	require.NoError(t, err)

	_, err = run(t, "", "fmt", "-w", path)
	require.NoError(t, err)
	assert.Equal(t, canonical, readFile(t, path))

	out, err := run(t, "", "fmt", "-l", path)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFmtListsNonCanonicalFiles(t *testing.T) {
	path := sample(t)
	text := readFile(t, path)
	require.NoError(t, os.WriteFile(path, []byte(strings.ReplaceAll(text, "\n", "\r\n")+"\n\n\n"), 0o644))

	out, err := run(t, "", "fmt", "-l", path)
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)
}

func TestNewCreatesScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.md")
	out, err := run(t, "", "new", "--title", "新しい話", "--players", "ミナ,ケン", "--levels", "成功,失敗", path)
	require.NoError(t, err, out)

	text := readFile(t, path)
	assert.Contains(t, text, "新しい話")
	assert.Contains(t, text, "ミナ")
	assert.Contains(t, text, "ケン")

	_, err = run(t, "", "check", path)
	require.NoError(t, err)

	_, err = run(t, "", "new", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestEditRollsBackInvalidEdit(t *testing.T) {
	path := sample(t)
	out, err := run(t, "", "edit", path, "--rename-player", "アリス=エリカ", "--levels", "成功")
	require.ErrorIs(t, err, errRolledBack)
	assert.Contains(t, out, "applied: rename アリス")
	assert.Contains(t, out, "rolled back: judgement levels")

	text := readFile(t, path)
	assert.Contains(t, text, "エリカ")
	assert.NotContains(t, text, "アリス")
	assert.Contains(t, text, "大成功", "levels must survive the rollback")
}

func TestEditUnknownPlayerIsRolledBack(t *testing.T) {
	path := sample(t)
	before := readFile(t, path)
	out, err := run(t, "", "edit", path, "--rename-player", "ゾエ=エリカ")
	require.ErrorIs(t, err, errRolledBack)
	assert.Contains(t, out, "rolled back: rename ゾエ")
	assert.Equal(t, before, readFile(t, path), "nothing applied, nothing written")
}

func TestEditDryRun(t *testing.T) {
	path := sample(t)
	before := readFile(t, path)
	out, err := run(t, "", "edit", "--dry-run", "--title", "別の館", path)
	require.NoError(t, err)
	assert.Contains(t, out, "applied: title")
	assert.Equal(t, before, readFile(t, path))
}

func TestEditNeedsAChange(t *testing.T) {
	_, err := run(t, "", "edit", sample(t))
	require.Error(t, err)
}

func TestExportWebPreset(t *testing.T) {
	path := sample(t)
	out, err := run(t, "", "export", path)
	require.NoError(t, err)

	files := strings.Fields(out)
	require.Len(t, files, 2)
	for _, f := range files {
		assert.Equal(t, filepath.Join(filepath.Dir(path), "exports", "web"), filepath.Dir(f))
		assert.FileExists(t, f)
	}
	data, err := os.ReadFile(filepath.Join(filepath.Dir(path), "exports", "web", "mist.json"))
	require.NoError(t, err)
	assert.NoError(t, export.ValidateJSON(data))
}

func TestExportUnknownFormat(t *testing.T) {
	_, err := run(t, "", "export", "--format", "docx", sample(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestIndexAndSearch(t *testing.T) {
	path := sample(t)
	dir := filepath.Dir(path)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("## メタデータ\nただのメモ\n"), 0o644))

	out, err := run(t, "", "--no-index", "index", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "indexed 1 scenarios")
	assert.Contains(t, out, "skipped notes.txt")

	out, err = run(t, "", "search", "--dir", dir, "鍵を見つける")
	require.NoError(t, err)
	assert.Contains(t, out, "mist.md / 玄関ホール")

	out, err = run(t, "", "search", "--dir", dir, "--type", "title", "")
	require.NoError(t, err)
	assert.Contains(t, out, "[title]")

	out, err = run(t, "", "index", "--remove", path, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "removed")

	out, err = run(t, "", "search", "--dir", dir, "鍵を見つける")
	require.NoError(t, err)
	assert.Contains(t, out, "no matches")
}

func TestHistoryRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "story.md")
	_, err := run(t, "", "new", "--title", "最初の題", path)
	require.NoError(t, err)
	_, err = run(t, "", "edit", "--title", "二番目の題", path)
	require.NoError(t, err)
	require.Contains(t, readFile(t, path), "二番目の題")

	out, err := run(t, "", "history", path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2, out)

	out, err = run(t, "", "history", "--restore", "2", path)
	require.NoError(t, err)
	assert.Contains(t, out, "restored version 2")
	text := readFile(t, path)
	assert.Contains(t, text, "最初の題")
	assert.NotContains(t, text, "二番目の題")

	_, err = run(t, "", "history", "--restore", "9", path)
	require.Error(t, err)
}

func TestLibraryNeedsDSN(t *testing.T) {
	_, err := run(t, "", "publish", sample(t))
	require.ErrorIs(t, err, errNoLibrary)
	_, err = run(t, "", "library", "list")
	require.ErrorIs(t, err, errNoLibrary)
}

func TestLibraryLogin(t *testing.T) {
	out, err := run(t, "s3cret\n", "library", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "password stored")
	assert.Equal(t, "s3cret", config.LibraryPassword())

	_, err = run(t, "", "library", "login", "--clear")
	require.NoError(t, err)
	assert.Empty(t, config.LibraryPassword())

	_, err = run(t, "\n", "library", "login")
	require.Error(t, err)
}

func TestOneLine(t *testing.T) {
	assert.Equal(t, "a b c", oneLine("a\n b\t\tc "))
	long := strings.Repeat("霧", 200)
	assert.Equal(t, 120, len([]rune(oneLine(long))))
}

func TestNormalizeNewlines(t *testing.T) {
	assert.Equal(t, "a\nb\nc", normalizeNewlines("\ufeffa\r\nb\rc"))
}

func TestPackAndUnpack(t *testing.T) {
	path := sample(t)
	zipPath := filepath.Join(t.TempDir(), "mist-pack.zip")
	out, err := run(t, "", "pack", "-o", zipPath, filepath.Dir(path))
	require.NoError(t, err)
	assert.Contains(t, out, "packed 1 scenarios")

	dst := t.TempDir()
	out, err = run(t, "", "unpack", zipPath, dst)
	require.NoError(t, err)
	assert.Contains(t, out, "installed mist.md")
	assert.Equal(t, readFile(t, path), readFile(t, filepath.Join(dst, "mist.md")))

	out, err = run(t, "", "search", "--dir", dst, "鍵を見つける")
	require.NoError(t, err)
	assert.Contains(t, out, "mist.md")

	out, err = run(t, "", "unpack", zipPath, dst)
	require.NoError(t, err)
	assert.Contains(t, out, "kept existing mist.md")
}

func TestFmtDropEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.md")
	doc := "# 短い話\n\n## シーン\n\n### ナラティブ: 結末\n\n#### 空\n\n#### 本文\n霧が晴れる。\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	out, err := run(t, "", "fmt", path)
	require.NoError(t, err)
	assert.Contains(t, out, "#### 空")

	out, err = run(t, "", "fmt", "--drop-empty", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "#### 空")
	assert.Contains(t, out, "#### 本文")
}
