/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scenariopack

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func zipNames(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer r.Close()
	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

func TestExportAndInstall(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "mist.md"), "# 霧の館\n")
	writeFile(t, filepath.Join(src, "campaign", "part2.txt"), "# 第二部\n")
	writeFile(t, filepath.Join(src, "cover.png"), "png")
	writeFile(t, filepath.Join(src, ".gms", "index.sqlite"), "db")
	writeFile(t, filepath.Join(src, "exports", "web", "mist.md"), "exported")
	patterns := filepath.Join(t.TempDir(), "my.yaml")
	writeFile(t, patterns, "version: 1\n")

	zipPath := filepath.Join(src, "pack.zip")
	n, err := Export(src, zipPath, patterns)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 scenario files, got %d", n)
	}
	got := strings.Join(zipNames(t, zipPath), ",")
	want := ManifestName + ",campaign/part2.txt,mist.md," + PatternsName
	if got != want {
		t.Fatalf("entries = %s, want %s", got, want)
	}

	dst := t.TempDir()
	res, err := Install(dst, zipPath)
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if len(res.Installed) != 2 || len(res.Skipped) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Patterns != filepath.Join(dst, PatternsName) {
		t.Fatalf("patterns installed at %q", res.Patterns)
	}
	b, err := os.ReadFile(filepath.Join(dst, "campaign", "part2.txt"))
	if err != nil || string(b) != "# 第二部\n" {
		t.Fatalf("part2 not installed: %v %q", err, b)
	}
	if _, err := os.Stat(filepath.Join(dst, ManifestName)); !os.IsNotExist(err) {
		t.Fatalf("manifest must not be installed")
	}
}

func TestInstallKeepsExistingFiles(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "mist.md"), "new")
	zipPath := filepath.Join(t.TempDir(), "pack.zip")
	if _, err := Export(src, zipPath, ""); err != nil {
		t.Fatalf("export: %v", err)
	}
	dst := t.TempDir()
	writeFile(t, filepath.Join(dst, "mist.md"), "mine")
	res, err := Install(dst, zipPath)
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "mist.md" || len(res.Installed) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	b, _ := os.ReadFile(filepath.Join(dst, "mist.md"))
	if string(b) != "mine" {
		t.Fatalf("existing file overwritten: %q", b)
	}
}

func TestInstallRejectsEscapingNames(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "evil.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("../outside.md")
	_, _ = w.Write([]byte("x"))
	_ = zw.Close()
	_ = f.Close()

	dst := t.TempDir()
	if _, err := Install(dst, zipPath); !errors.Is(err, errUnsafeName) {
		t.Fatalf("expected unsafe name error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dst), "outside.md")); !os.IsNotExist(err) {
		t.Fatalf("file escaped the target directory")
	}
}

func TestCleanName(t *testing.T) {
	cases := map[string]bool{
		"a.md":           true,
		"dir/b.md":       true,
		"dir/../c.md":    true,
		"../x.md":        false,
		"/etc/passwd.md": false,
		"a/../../x.md":   false,
		`..\x.md`:        false,
	}
	for in, ok := range cases {
		_, err := cleanName(in)
		if (err == nil) != ok {
			t.Errorf("cleanName(%q) err=%v, want ok=%v", in, err, ok)
		}
	}
}

func TestExportValidatesArgs(t *testing.T) {
	if _, err := Export("", "x.zip", ""); err == nil {
		t.Fatalf("expected error for empty dir")
	}
	if _, err := Export(t.TempDir(), "", ""); err == nil {
		t.Fatalf("expected error for empty zip path")
	}
	if _, err := Install("", "x.zip"); err == nil {
		t.Fatalf("expected error for empty dir")
	}
	if _, err := Install(t.TempDir(), filepath.Join(t.TempDir(), "missing.zip")); err == nil {
		t.Fatalf("expected error for missing pack")
	}
}
