/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gmscenario/internal/domain"
	applog "gmscenario/internal/log"
	"gmscenario/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// IndexPath returns the full path to the index database of a scenario directory.
func IndexPath(dir string) string {
	return filepath.Join(dir, WorkDirName, IndexFileName)
}

// InitOrOpenIndex ensures that the SQLite index exists at <dir>/.gms/index.sqlite,
// opens the database, enables WAL mode, and ensures the meta/version tables exist.
// The returned *sql.DB is ready for use. Callers close it when no longer needed.
func InitOrOpenIndex(dir string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("dir", dir),
	)
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("scenario directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, WorkDirName), 0o755); err != nil {
		l.Error("create .gms dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .gms dir: %w", err)
	}

	path := IndexPath(dir)
	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Debug("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// A fresh DB starts at schema 1 and is migrated forward.
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// SchemaVersion returns the schema version recorded in the index.
func SchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	cur, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_documents_scenario ON documents(scenario);`,
				`CREATE INDEX IF NOT EXISTS idx_text_snapshots_path_ts ON text_snapshots(path, ts);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// ensureIndexSchema creates core index tables and FTS structures if they do not exist.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// One row per searchable piece of a scenario: title, scene names, memos, item texts.
		`CREATE TABLE IF NOT EXISTS documents (
			doc_id   INTEGER PRIMARY KEY,
			type     TEXT    NOT NULL,
			scenario TEXT    NOT NULL,
			path     TEXT    NOT NULL,
			scene    TEXT,
			text     TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_path ON documents(path);`,

		// External-content FTS5 index over documents.text, kept in sync by triggers.
		// The trigram tokenizer matches inside CJK runs that have no word breaks.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_documents USING fts5(
			text,
			content='documents',
			content_rowid='doc_id',
			tokenize = 'trigram'
		);`,

		// Full text history of scenario files.
		`CREATE TABLE IF NOT EXISTS text_snapshots (
			id    INTEGER PRIMARY KEY,
			path  TEXT    NOT NULL,
			ts    TEXT    NOT NULL,
			text  TEXT    NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
			INSERT INTO fts_documents(rowid, text) VALUES (new.doc_id, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS documents_ad AFTER DELETE ON documents BEGIN
			INSERT INTO fts_documents(fts_documents, rowid, text) VALUES ('delete', old.doc_id, old.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS documents_au AFTER UPDATE OF text ON documents BEGIN
			INSERT INTO fts_documents(fts_documents, rowid, text) VALUES ('delete', old.doc_id, old.text);
			INSERT INTO fts_documents(rowid, text) VALUES (new.doc_id, new.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// DetectAndRebuildIndex checks the index of dir for corruption or missing
// schema. A broken index is backed up, removed and recreated empty; callers
// re-index their scenarios afterwards. It returns true when a rebuild happened.
func DetectAndRebuildIndex(ctx context.Context, dir string) (bool, error) {
	path := IndexPath(dir)
	db, err := InitOrOpenIndex(dir)
	if err != nil {
		return true, recreateIndex(dir, path, err)
	}
	needs := false
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		needs = true
	}
	if !needs {
		if _, err := db.ExecContext(ctx, `SELECT 1 FROM documents LIMIT 1;`); err != nil {
			needs = true
		}
	}
	_ = db.Close()
	if !needs {
		return false, nil
	}
	return true, recreateIndex(dir, path, errors.New("quick_check failed"))
}

func recreateIndex(dir, path string, cause error) error {
	backupIndexFile(path)
	for _, suffix := range []string{"", "-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
	db, err := InitOrOpenIndex(dir)
	if err != nil {
		return fmt.Errorf("rebuild index: %w (original error: %v)", err, cause)
	}
	return db.Close()
}

// backupIndexFile copies the current index file into a timestamped backup in .gms/backups.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), BackupsDirName)
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

// Document is one searchable piece of a scenario.
type Document struct {
	Type  string
	Path  string // logical location, e.g. scene:Hall/item:Desk/level:Hit
	Scene string
	Text  string
}

// Document types stored in the index.
const (
	DocTitle       = "title"
	DocAuthor      = "author"
	DocDescription = "description"
	DocScene       = "scene"
	DocSceneMemo   = "scene_memo"
	DocItem        = "item"
	DocItemMemo    = "item_memo"
	DocText        = "text"
)

// ScenarioDocuments splits s into the documents stored in the index. Blank
// texts are skipped.
func ScenarioDocuments(s *domain.Scenario) []Document {
	rows := make([]Document, 0, 64)
	add := func(typ, path, scene, text string) {
		if t := strings.TrimSpace(text); t != "" {
			rows = append(rows, Document{Type: typ, Path: path, Scene: scene, Text: t})
		}
	}
	add(DocTitle, "metadata:title", "", s.Metadata.Title)
	add(DocAuthor, "metadata:author", "", s.Metadata.Author)
	add(DocDescription, "metadata:description", "", s.Metadata.Description)
	levels := s.GameSettings.Judgement.Levels()
	for _, sc := range s.Scenes() {
		sp := "scene:" + sc.Name
		add(DocScene, sp, sc.Name, sc.Name)
		add(DocSceneMemo, sp+"/memo", sc.Name, sc.Memo)
		for _, it := range sc.Items() {
			ip := sp + "/item:" + it.Name
			add(DocItem, ip, sc.Name, it.Name)
			add(DocItemMemo, ip+"/memo", sc.Name, it.Memo)
			for i, text := range it.Texts() {
				level := ""
				if sc.Kind != domain.SceneNarrative && i < len(levels) {
					level = "/level:" + levels[i]
				}
				add(DocText, ip+level, sc.Name, text)
			}
		}
	}
	return rows
}

// IndexScenario replaces the index rows of the scenario file path (stored
// relative to dir when possible) with the content of s.
func IndexScenario(ctx context.Context, dir, path string, s *domain.Scenario) error {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_scenario")
	db, err := InitOrOpenIndex(dir)
	if err != nil {
		return err
	}
	defer db.Close()
	key := scenarioKey(dir, path)
	rows := ScenarioDocuments(s)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE scenario=?;", key); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear documents: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, "INSERT INTO documents(type, scenario, path, scene, text) VALUES(?,?,?,?,?);")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for _, r := range rows {
		scene := sql.NullString{String: r.Scene, Valid: r.Scene != ""}
		if _, err := ins.ExecContext(ctx, r.Type, key, r.Path, scene, r.Text); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert document: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	l.InfoContext(ctx, "indexed", slog.String("key", key), slog.Int("documents", len(rows)))
	return nil
}

// RemoveFromIndex deletes all rows of the scenario file path.
func RemoveFromIndex(ctx context.Context, dir, path string) (int64, error) {
	db, err := InitOrOpenIndex(dir)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	res, err := db.ExecContext(ctx, "DELETE FROM documents WHERE scenario=?;", scenarioKey(dir, path))
	if err != nil {
		return 0, fmt.Errorf("remove from index: %w", err)
	}
	return res.RowsAffected()
}

// scenarioKey is the slash-separated path of a scenario relative to dir.
func scenarioKey(dir, path string) string {
	if rel, err := filepath.Rel(dir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}
