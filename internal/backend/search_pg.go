/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"fmt"
	"strings"

	"gmscenario/internal/storage"
)

// Search runs q over the documents of published scenarios and maps the rows
// to storage.SearchResult so local and shared search look alike.
// q.Scenario matches the scenario title. Words go through the tsvector
// index; text without word breaks (Japanese) also matches by substring.
func (l *Library) Search(ctx context.Context, q storage.SearchQuery) ([]storage.SearchResult, error) {
	var (
		args []any
		b    strings.Builder
	)
	// Helper to add parameter and return placeholder like $n
	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	text := strings.TrimSpace(q.Text)
	if text != "" {
		pt := place(text)
		b.WriteString("SELECT d.id, d.doc_type, s.title, d.external_ref, COALESCE(d.scene,''), ")
		b.WriteString("COALESCE(ts_headline('simple', d.raw_text, plainto_tsquery('simple', " + pt + "), 'StartSel=[, StopSel=], MaxFragments=1, MaxWords=12'), '') ")
		b.WriteString("FROM documents d JOIN scenarios s ON s.id = d.scenario_id ")
		b.WriteString("WHERE (d.search_vector @@ plainto_tsquery('simple', " + pt + ") OR d.raw_text ILIKE " + place("%"+text+"%") + ") ")
	} else {
		b.WriteString("SELECT d.id, d.doc_type, s.title, d.external_ref, COALESCE(d.scene,''), d.raw_text ")
		b.WriteString("FROM documents d JOIN scenarios s ON s.id = d.scenario_id WHERE TRUE ")
	}
	if len(q.Types) > 0 {
		b.WriteString(" AND d.doc_type = ANY (" + place(q.Types) + ") ")
	}
	if s := strings.TrimSpace(q.Scenario); s != "" {
		b.WriteString(" AND s.title = " + place(s) + " ")
	}
	if s := strings.TrimSpace(q.Scene); s != "" {
		b.WriteString(" AND lower(COALESCE(d.scene,'')) LIKE " + place("%"+strings.ToLower(s)+"%") + " ")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	b.WriteString(" ORDER BY s.title, d.id ")
	b.WriteString(" LIMIT " + place(limit) + " OFFSET " + place(offset))

	rows, err := l.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search pg query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []storage.SearchResult
	for rows.Next() {
		var r storage.SearchResult
		if err := rows.Scan(&r.DocID, &r.Type, &r.Scenario, &r.Path, &r.Scene, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
