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
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"gmscenario/internal/domain"
)

func sampleScenario(t *testing.T) *domain.Scenario {
	t.Helper()
	s := domain.New()
	s.SetTitle("霧の館")
	s.SetAuthor("Sato")
	s.SetJudgementLevels([]string{"成功", "失敗"})
	if err := s.SetPlayerName(0, "アリス"); err != nil {
		t.Fatalf("SetPlayerName: %v", err)
	}
	s.SetScenarioPlayerCount(1)

	hall := s.NewScene(domain.SceneExploration, "玄関ホール")
	hall.Memo = "薄暗い"
	desk, err := hall.AddLocation("古い机")
	if err != nil {
		t.Fatalf("AddLocation: %v", err)
	}
	desk.SetText(0, "引き出しに古びた鍵がある")
	desk.SetText(1, "何も見つからない")

	intro := s.NewScene(domain.SceneSecretDistribution, "導入")
	intro.Target("アリス").SetText(0, "あなたは館の相続人だ")

	end := s.NewScene(domain.SceneNarrative, "結末")
	if _, err := end.AddNarrative("エピローグ", "霧が晴れる"); err != nil {
		t.Fatalf("AddNarrative: %v", err)
	}
	return s
}

func TestInitOrOpenIndex_CreatesDBAndSchema(t *testing.T) {
	dir := t.TempDir()
	db, err := InitOrOpenIndex(dir)
	if err != nil {
		t.Fatalf("InitOrOpenIndex: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var mode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}
	for _, table := range []string{"meta", "version", "documents", "fts_documents", "text_snapshots"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE name=?", table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
	v, err := SchemaVersion(ctx, db)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != schemaVersion {
		t.Fatalf("schema = %d, want %d", v, schemaVersion)
	}
}

func TestInitOrOpenIndex_RequiresDir(t *testing.T) {
	if _, err := InitOrOpenIndex("  "); err == nil {
		t.Fatalf("expected error for blank dir")
	}
}

func TestFTSTriggersFollowDocuments(t *testing.T) {
	dir := t.TempDir()
	db, err := InitOrOpenIndex(dir)
	if err != nil {
		t.Fatalf("InitOrOpenIndex: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	res, err := db.ExecContext(ctx, `INSERT INTO documents(type, scenario, path, scene, text) VALUES('text','a.md','p','s','lantern in the hall')`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	id, _ := res.LastInsertId()
	count := func(q string) int {
		var n int
		if err := db.QueryRowContext(ctx, `SELECT count(*) FROM fts_documents WHERE fts_documents MATCH ?`, q).Scan(&n); err != nil {
			t.Fatalf("match %q: %v", q, err)
		}
		return n
	}
	if got := count("lantern"); got != 1 {
		t.Fatalf("after insert: %d matches", got)
	}
	if _, err := db.ExecContext(ctx, `UPDATE documents SET text='candle in the hall' WHERE doc_id=?`, id); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := count("lantern"); got != 0 {
		t.Fatalf("stale match after update: %d", got)
	}
	if got := count("candle"); got != 1 {
		t.Fatalf("after update: %d matches", got)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM documents WHERE doc_id=?`, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := count("candle"); got != 0 {
		t.Fatalf("after delete: %d matches", got)
	}
}

func TestIndexScenarioReplacesRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mist.md")
	s := sampleScenario(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := IndexScenario(ctx, dir, path, s); err != nil {
			t.Fatalf("IndexScenario #%d: %v", i, err)
		}
	}
	db, err := InitOrOpenIndex(dir)
	if err != nil {
		t.Fatalf("InitOrOpenIndex: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM documents WHERE scenario='mist.md'`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if want := len(ScenarioDocuments(s)); n != want {
		t.Fatalf("documents = %d, want %d", n, want)
	}

	var p string
	err = db.QueryRowContext(ctx, `SELECT path FROM documents WHERE type=? AND text=?`, DocText, "何も見つからない").Scan(&p)
	if err != nil {
		t.Fatalf("text row: %v", err)
	}
	if want := "scene:玄関ホール/item:古い机/level:失敗"; p != want {
		t.Fatalf("path = %q, want %q", p, want)
	}

	removed, err := RemoveFromIndex(ctx, dir, path)
	if err != nil {
		t.Fatalf("RemoveFromIndex: %v", err)
	}
	if removed != int64(n) {
		t.Fatalf("removed = %d, want %d", removed, n)
	}
}

func TestScenarioKey(t *testing.T) {
	dir := t.TempDir()
	if got := scenarioKey(dir, filepath.Join(dir, "sub", "a.md")); got != "sub/a.md" {
		t.Fatalf("scenarioKey inside = %q", got)
	}
	other := filepath.Join(t.TempDir(), "b.md")
	if got := scenarioKey(dir, other); got != filepath.ToSlash(other) {
		t.Fatalf("scenarioKey outside = %q", got)
	}
}

func openRaw(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", filepath.ToSlash(path)))
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	return db
}
