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
	"strings"
	"unicode/utf8"
)

// minFTSRunes is the shortest query the trigram tokenizer can match.
const minFTSRunes = 3

// SearchQuery describes a search over the index.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT); queries shorter
// than three characters fall back to a substring scan.
// Scenario and Scene narrow the result; Types restricts to Doc* kinds.
// Limit/Offset implement pagination; reasonable defaults applied if zero.
type SearchQuery struct {
	Text     string
	Scenario string
	Scene    string
	Types    []string
	Limit    int
	Offset   int
}

// SearchResult represents a single match row.
// Snippet is a highlighted excerpt using [ ] markers when FTS was used, else the stored text.
type SearchResult struct {
	DocID    int64
	Type     string
	Scenario string
	Path     string
	Scene    string
	Snippet  string
}

// Search performs full-text search with optional filters over the index of dir.
// When q.Text is empty, it falls back to a non-FTS scan over documents with filters applied.
func Search(ctx context.Context, dir string, q SearchQuery) ([]SearchResult, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("scenario directory is required")
	}
	db, err := InitOrOpenIndex(dir)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	var args []any
	var sb strings.Builder
	text := strings.TrimSpace(q.Text)
	switch {
	case utf8.RuneCountInString(text) >= minFTSRunes:
		sb.WriteString("SELECT d.doc_id, d.type, d.scenario, d.path, COALESCE(d.scene,''), snippet(fts_documents, 0, '[', ']', '…', 10)\n")
		sb.WriteString("FROM fts_documents JOIN documents d ON fts_documents.rowid = d.doc_id\n")
		sb.WriteString("WHERE fts_documents MATCH ?\n")
		args = append(args, text)
	case text != "":
		sb.WriteString("SELECT d.doc_id, d.type, d.scenario, d.path, COALESCE(d.scene,''), d.text\n")
		sb.WriteString("FROM documents d\nWHERE lower(d.text) LIKE ?\n")
		args = append(args, likeContains(strings.ToLower(text)))
	default:
		sb.WriteString("SELECT d.doc_id, d.type, d.scenario, d.path, COALESCE(d.scene,''), d.text\n")
		sb.WriteString("FROM documents d\nWHERE 1=1\n")
	}
	if len(q.Types) > 0 {
		sb.WriteString(" AND d.type IN (" + placeholders(len(q.Types)) + ")\n")
		for _, t := range q.Types {
			args = append(args, t)
		}
	}
	if s := strings.TrimSpace(q.Scenario); s != "" {
		sb.WriteString(" AND d.scenario = ?\n")
		args = append(args, s)
	}
	if s := strings.TrimSpace(q.Scene); s != "" {
		sb.WriteString(" AND lower(d.scene) LIKE ?\n")
		args = append(args, likeContains(strings.ToLower(s)))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	sb.WriteString("ORDER BY d.scenario, d.doc_id\n")
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, q.Offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var sn sql.NullString
		if err := rows.Scan(&r.DocID, &r.Type, &r.Scenario, &r.Path, &r.Scene, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if sn.Valid {
			r.Snippet = sn.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func likeContains(s string) string { return "%" + s + "%" }

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := strings.Builder{}
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("?")
	}
	return b.String()
}
