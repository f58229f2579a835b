/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package backend publishes scenarios to a shared library on Postgres and
// fetches them back. Access goes through database/sql with the pgx stdlib
// driver; migrations are embedded.
package backend

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gmscenario/internal/domain"
	applog "gmscenario/internal/log"
	"gmscenario/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when no scenario has the requested title.
var ErrNotFound = errors.New("scenario not found in library")

// Entry describes a published scenario without its text.
type Entry struct {
	ID          int64
	Title       string
	Author      string
	Description string
	PlayerCount int
	SceneCount  int
	Version     int64
	PublishedBy string
	UpdatedAt   time.Time
}

// Library is a shared scenario library.
type Library struct {
	db  *sql.DB
	log *slog.Logger
}

// Open connects to dsn, verifies the connection and applies migrations.
// A non-empty password overrides the one in dsn; it usually comes from the
// OS keyring.
func Open(ctx context.Context, dsn, password string) (*Library, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if password != "" {
		cfg.Password = password
	}
	db := stdlib.OpenDB(*cfg)
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	lib := New(db)
	if err := lib.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return lib, nil
}

// New wraps an open database. Call Migrate before first use.
func New(db *sql.DB) *Library {
	return &Library{db: db, log: applog.WithComponent("library")}
}

// DB exposes the underlying handle.
func (l *Library) DB() *sql.DB { return l.db }

// Close closes the database.
func (l *Library) Close() error { return l.db.Close() }

// Migrate applies embedded SQL migrations in filename order. Applied
// versions are recorded in schema_migrations.
func (l *Library) Migrate(ctx context.Context) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name := e.Name(); strings.HasSuffix(strings.ToLower(name), ".sql") {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	// dialect=PostgreSQL
	if _, err := l.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := l.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		l.log.Info("applying migration", slog.String("file", fname))
		tx, err := l.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES($1, $2)`, version, fname); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", fname, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	parts := strings.SplitN(base, "_", 2)
	if len(parts) < 2 {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}

// language=SQL
// dialect=PostgreSQL
const upsertScenarioSQL = `INSERT INTO scenarios(title, author, description, player_count, scene_count, text, published_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (title) DO UPDATE SET
	author = EXCLUDED.author,
	description = EXCLUDED.description,
	player_count = EXCLUDED.player_count,
	scene_count = EXCLUDED.scene_count,
	text = EXCLUDED.text,
	published_by = EXCLUDED.published_by,
	version = scenarios.version + 1,
	updated_at = now()
RETURNING id, version, updated_at`

// Publish stores text as the newest revision of the scenario titled like s
// and replaces its searchable documents. text is the canonical
// serialization of s.
func (l *Library) Publish(ctx context.Context, s *domain.Scenario, text, publisher string) (Entry, error) {
	if s == nil {
		return Entry{}, errors.New("scenario is nil")
	}
	e := Entry{
		Title:       domain.NormalizeTitle(s.Metadata.Title),
		Author:      s.Metadata.Author,
		Description: s.Metadata.Description,
		PlayerCount: s.GameSettings.Players.ScenarioPlayerCount(),
		SceneCount:  s.SceneCount(),
		PublishedBy: publisher,
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, upsertScenarioSQL,
		e.Title, e.Author, e.Description, e.PlayerCount, e.SceneCount, text, e.PublishedBy,
	).Scan(&e.ID, &e.Version, &e.UpdatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("upsert scenario: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO scenario_revisions(scenario_id, version, text) VALUES($1, $2, $3)`, e.ID, e.Version, text); err != nil {
		return Entry{}, fmt.Errorf("insert revision: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE scenario_id = $1`, e.ID); err != nil {
		return Entry{}, fmt.Errorf("clear documents: %w", err)
	}
	docs := storage.ScenarioDocuments(s)
	for _, d := range docs {
		scene := sql.NullString{String: d.Scene, Valid: d.Scene != ""}
		if _, err := tx.ExecContext(ctx, `INSERT INTO documents(scenario_id, doc_type, external_ref, scene, raw_text) VALUES($1, $2, $3, $4, $5)`,
			e.ID, d.Type, d.Path, scene, d.Text); err != nil {
			return Entry{}, fmt.Errorf("insert document: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Entry{}, fmt.Errorf("commit: %w", err)
	}
	l.log.Info("published",
		slog.String("title", e.Title),
		slog.Int64("version", e.Version),
		slog.Int("documents", len(docs)),
	)
	return e, nil
}

const entryColumns = `id, title, author, description, player_count, scene_count, version, published_by, updated_at`

func scanEntry(row interface{ Scan(...any) error }, e *Entry) error {
	return row.Scan(&e.ID, &e.Title, &e.Author, &e.Description, &e.PlayerCount, &e.SceneCount, &e.Version, &e.PublishedBy, &e.UpdatedAt)
}

// List returns all published scenarios, most recently updated first.
func (l *Library) List(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM scenarios ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := scanEntry(rows, &e); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Fetch returns the entry and latest text of the scenario titled title.
func (l *Library) Fetch(ctx context.Context, title string) (Entry, string, error) {
	var (
		e    Entry
		text string
	)
	row := l.db.QueryRowContext(ctx, `SELECT `+entryColumns+`, text FROM scenarios WHERE title = $1`, domain.NormalizeTitle(title))
	err := row.Scan(&e.ID, &e.Title, &e.Author, &e.Description, &e.PlayerCount, &e.SceneCount, &e.Version, &e.PublishedBy, &e.UpdatedAt, &text)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, "", fmt.Errorf("%w: %q", ErrNotFound, title)
	}
	if err != nil {
		return Entry{}, "", fmt.Errorf("fetch scenario: %w", err)
	}
	return e, text, nil
}

// FetchRevision returns the text of one published version.
func (l *Library) FetchRevision(ctx context.Context, title string, version int64) (string, error) {
	var text string
	err := l.db.QueryRowContext(ctx, `SELECT r.text FROM scenario_revisions r JOIN scenarios s ON s.id = r.scenario_id
		WHERE s.title = $1 AND r.version = $2`, domain.NormalizeTitle(title), version).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %q version %d", ErrNotFound, title, version)
	}
	if err != nil {
		return "", fmt.Errorf("fetch revision: %w", err)
	}
	return text, nil
}

// Remove deletes a scenario with its revisions and documents.
func (l *Library) Remove(ctx context.Context, title string) error {
	res, err := l.db.ExecContext(ctx, `DELETE FROM scenarios WHERE title = $1`, domain.NormalizeTitle(title))
	if err != nil {
		return fmt.Errorf("remove scenario: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, title)
	}
	return nil
}
