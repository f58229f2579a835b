/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// WorkDirName holds backups, crash copies and the index next to scenario files.
	WorkDirName    = ".gms"
	BackupsDirName = "backups"
	CrashDirName   = "crash"

	// DefaultKeepBackups is how many backups per file SaveText retains.
	DefaultKeepBackups = 20
	// MaxTextFileSize bounds LoadText.
	MaxTextFileSize = 16 << 20
)

// Errors returned by LoadText. Callers match them with errors.Is.
var (
	ErrNotFound     = errors.New("file not found")
	ErrAccessDenied = errors.New("access denied")
	ErrInvalid      = errors.New("not a readable text file")
)

// TextFile reads and writes scenario documents on the local file system.
// The zero value is ready to use and keeps DefaultKeepBackups backups.
type TextFile struct {
	// KeepBackups limits backups per file; negative disables backups.
	KeepBackups int
}

// LoadText reads path and returns its content as UTF-8 with "\n" line
// endings. UTF-8 (with or without BOM), UTF-16 with BOM and Shift_JIS are
// accepted.
func (TextFile) LoadText(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", classify(path, err)
	}
	if !fi.Mode().IsRegular() {
		return "", fmt.Errorf("%s: %w", path, ErrInvalid)
	}
	if fi.Size() > MaxTextFileSize {
		return "", fmt.Errorf("%s: %w: file too large (%d bytes)", path, ErrInvalid, fi.Size())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", classify(path, err)
	}
	text, err := DecodeText(b)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}

// DecodeText converts raw file content to normalised UTF-8 text.
func DecodeText(b []byte) (string, error) {
	switch {
	case bytes.HasPrefix(b, []byte{0xFE, 0xFF}), bytes.HasPrefix(b, []byte{0xFF, 0xFE}):
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		out, _, err := transform.Bytes(dec, b)
		if err != nil {
			return "", fmt.Errorf("%w: utf-16: %v", ErrInvalid, err)
		}
		b = out
	case bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}):
		b = b[3:]
	}
	if bytes.IndexByte(b, 0) >= 0 {
		return "", fmt.Errorf("%w: binary content", ErrInvalid)
	}
	if !utf8.Valid(b) {
		out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), b)
		if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
			return "", fmt.Errorf("%w: unknown encoding", ErrInvalid)
		}
		b = out
	}
	s := strings.ReplaceAll(string(b), "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n"), nil
}

func classify(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%s: %w", path, ErrAccessDenied)
	default:
		return fmt.Errorf("%s: %w: %v", path, ErrInvalid, err)
	}
}

// SaveText writes text to path with transactional semantics and a
// timestamped backup of the previous content (if present).
func (t TextFile) SaveText(path, text string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("path is required")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", classify(dir, err))
	}
	if _, statErr := os.Stat(path); statErr == nil && t.keep() > 0 {
		if err := t.backup(path); err != nil {
			return fmt.Errorf("backup current file: %w", err)
		}
	}

	// Transactional write: to temp file in same directory, then rename over target
	base := filepath.Base(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", base, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, []byte(text)); werr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp file: %w", classify(temp, werr))
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace file: %w", classify(path, rerr))
	}
	return nil
}

func (t TextFile) keep() int {
	switch {
	case t.KeepBackups < 0:
		return 0
	case t.KeepBackups == 0:
		return DefaultKeepBackups
	default:
		return t.KeepBackups
	}
}

// BackupDir returns the backup directory used for files in dir.
func BackupDir(dir string) string {
	return filepath.Join(dir, WorkDirName, BackupsDirName)
}

func (t TextFile) backup(path string) error {
	bdir := BackupDir(filepath.Dir(path))
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return err
	}
	stamp := time.Now().Format("20060102-150405")
	bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp))
	if err := copyFile(path, bpath); err != nil {
		return err
	}
	backups, err := Backups(path)
	if err != nil {
		return nil
	}
	for len(backups) > t.keep() {
		_ = os.Remove(backups[0])
		backups = backups[1:]
	}
	return nil
}

// Backups lists the backups of path, oldest first.
func Backups(path string) ([]string, error) {
	bdir := BackupDir(filepath.Dir(path))
	ents, err := os.ReadDir(bdir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

// LatestBackup returns the content of the newest backup of path.
func (t TextFile) LatestBackup(path string) (string, error) {
	backups, err := Backups(path)
	if err != nil {
		return "", err
	}
	if len(backups) == 0 {
		return "", fmt.Errorf("%s: no backups: %w", path, ErrNotFound)
	}
	return t.LoadText(backups[len(backups)-1])
}

// AutosaveCrashSnapshot writes text to <dir>/.gms/crash/<base>.<stamp>.md
// and returns the written path. It never touches path itself.
func AutosaveCrashSnapshot(path, text string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("path is required")
	}
	cdir := filepath.Join(filepath.Dir(path), WorkDirName, CrashDirName)
	if err := os.MkdirAll(cdir, 0o755); err != nil {
		return "", fmt.Errorf("create crash dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405")
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := filepath.Join(cdir, fmt.Sprintf("%s.%s.md", base, stamp))
	if err := writeFileSync(out, []byte(text)); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return out, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
