/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scenariopack bundles a directory of scenario documents into a zip
// archive and installs such archives into another directory.
package scenariopack

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	applog "gmscenario/internal/log"
	"gmscenario/internal/storage"
)

const (
	// ManifestName is the human-readable file list at the archive root.
	ManifestName = "scenariopack.manifest.txt"
	// PatternsName is where a custom pattern file is stored in the archive.
	PatternsName = "patterns.yaml"
)

// Extensions are the file extensions treated as scenario documents.
var Extensions = map[string]bool{".md": true, ".txt": true, ".markdown": true}

var errUnsafeName = errors.New("unsafe entry name")

// IsScenarioFile reports whether name has a scenario document extension.
func IsScenarioFile(name string) bool {
	return Extensions[strings.ToLower(filepath.Ext(name))]
}

// Export zips the scenario documents below dir into destZip. Hidden
// directories and the exports folder are skipped. When patternFile is set it
// is stored as patterns.yaml. Returns the number of scenario files added.
func Export(dir, destZip, patternFile string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("scenariopack"), "export").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return 0, errors.New("dir is required")
	}
	if strings.TrimSpace(destZip) == "" {
		return 0, errors.New("destZip is required")
	}
	destAbs, _ := filepath.Abs(destZip)

	var files []string
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && (strings.HasPrefix(d.Name(), ".") || d.Name() == "exports") {
				return filepath.SkipDir
			}
			return nil
		}
		if abs, _ := filepath.Abs(p); abs == destAbs || !IsScenarioFile(p) {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(files)

	if err := os.MkdirAll(filepath.Dir(destZip), 0o755); err != nil {
		return 0, fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZip)
	zf, err := os.Create(destZip)
	if err != nil {
		return 0, fmt.Errorf("create zip: %w", err)
	}
	zw := zip.NewWriter(zf)

	err = func() error {
		var m strings.Builder
		fmt.Fprintf(&m, "GM Scenario Pack\nCreated: %s\nSource: %s\n\n", time.Now().Format(time.RFC3339), filepath.Base(dir))
		for _, f := range files {
			m.WriteString(f + "\n")
		}
		if err := addBytes(zw, ManifestName, []byte(m.String())); err != nil {
			return fmt.Errorf("add manifest: %w", err)
		}
		for _, f := range files {
			if err := addFile(zw, f, filepath.Join(dir, filepath.FromSlash(f))); err != nil {
				return fmt.Errorf("add %s: %w", f, err)
			}
		}
		if patternFile != "" {
			if err := addFile(zw, PatternsName, patternFile); err != nil {
				return fmt.Errorf("add patterns: %w", err)
			}
		}
		return nil
	}()
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := zf.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(destZip)
		l.Error("zip build failed", slog.Any("err", err))
		return 0, err
	}
	l.Info("scenario pack exported", slog.Int("files", len(files)), slog.String("zip", destZip))
	return len(files), nil
}

func addBytes(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func addFile(zw *zip.Writer, name, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

// Result reports what Install did.
type Result struct {
	Installed []string // slash-separated, relative to the target directory
	Skipped   []string // already present
	// Patterns is the path of the installed pattern file, if the pack had one.
	Patterns string
}

// Install extracts the scenario documents of packZip into dir. Existing
// files are never overwritten; they are reported as skipped. Entries that
// are not scenario documents or the pattern file are ignored, and entries
// whose names escape dir fail the install.
func Install(dir, packZip string) (Result, error) {
	l := applog.WithOperation(applog.WithComponent("scenariopack"), "install").With(slog.String("dir", dir))
	var res Result
	if strings.TrimSpace(dir) == "" {
		return res, errors.New("dir is required")
	}
	r, err := zip.OpenReader(packZip)
	if err != nil {
		return res, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, fmt.Errorf("ensure dir: %w", err)
	}

	for _, f := range r.File {
		if f.FileInfo().IsDir() || f.Name == ManifestName {
			continue
		}
		name, err := cleanName(f.Name)
		if err != nil {
			return res, fmt.Errorf("%w: %q", err, f.Name)
		}
		if name != PatternsName && !IsScenarioFile(name) {
			continue
		}
		if f.UncompressedSize64 > storage.MaxTextFileSize {
			return res, fmt.Errorf("entry %s too large: %d bytes", name, f.UncompressedSize64)
		}
		target := filepath.Join(dir, filepath.FromSlash(name))
		if _, err := os.Stat(target); err == nil {
			l.Warn("skip existing file", slog.String("path", target))
			res.Skipped = append(res.Skipped, name)
			continue
		}
		if err := extract(f, target); err != nil {
			return res, fmt.Errorf("extract %s: %w", name, err)
		}
		if name == PatternsName {
			res.Patterns = target
			continue
		}
		res.Installed = append(res.Installed, name)
	}
	l.Info("scenario pack installed", slog.Int("files", len(res.Installed)), slog.Int("skipped", len(res.Skipped)))
	return res, nil
}

// cleanName rejects absolute names and names that leave the target
// directory.
func cleanName(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(name, "/") || filepath.VolumeName(name) != "" {
		return "", errUnsafeName
	}
	c := path.Clean(name)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", errUnsafeName
	}
	return c, nil
}

func extract(f *zip.File, target string) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(target)
		}
	}()
	_, err = io.Copy(out, io.LimitReader(rc, storage.MaxTextFileSize))
	return err
}
