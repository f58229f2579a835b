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
	"time"
)

// language=SQL
// dialect=SQLite
const insertTextSnapshotSQL = `INSERT INTO text_snapshots(path, ts, text) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestTextSnapshotSQL = `SELECT ts, text FROM text_snapshots WHERE path = ? ORDER BY ts DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listTextSnapshotsSQL = `SELECT ts, text FROM text_snapshots WHERE path = ? ORDER BY ts DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldTextSnapshotsSQL = `DELETE FROM text_snapshots WHERE path = ? AND id NOT IN (
	SELECT id FROM text_snapshots WHERE path = ? ORDER BY ts DESC LIMIT ?
)`

// snapshotTSLayout has fixed width so that ts sorts lexically.
const snapshotTSLayout = "2006-01-02T15:04:05.000000000Z07:00"

// TextSnapshot is one stored version of a scenario file.
type TextSnapshot struct {
	TS   time.Time
	Text string
}

// SaveTextSnapshot stores the full text of the scenario file path with a timestamp.
// The index database is ephemeral and derived; this history is meant for change tracking, not canonical storage.
func SaveTextSnapshot(ctx context.Context, dir, path, text string, ts time.Time) error {
	db, err := InitOrOpenIndex(dir)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertTextSnapshotSQL, scenarioKey(dir, path), ts.UTC().Format(snapshotTSLayout), text)
	return err
}

// LatestTextSnapshot returns the newest snapshot of path, or a zero value if none.
func LatestTextSnapshot(ctx context.Context, dir, path string) (TextSnapshot, error) {
	db, err := InitOrOpenIndex(dir)
	if err != nil {
		return TextSnapshot{}, err
	}
	defer func() { _ = db.Close() }()
	var tsStr, txt string
	err = db.QueryRowContext(ctx, selectLatestTextSnapshotSQL, scenarioKey(dir, path)).Scan(&tsStr, &txt)
	if errors.Is(err, sql.ErrNoRows) {
		return TextSnapshot{}, nil
	}
	if err != nil {
		return TextSnapshot{}, err
	}
	ts, _ := time.Parse(snapshotTSLayout, tsStr)
	return TextSnapshot{TS: ts, Text: txt}, nil
}

// ListTextSnapshots returns up to limit most recent snapshots of path.
func ListTextSnapshots(ctx context.Context, dir, path string, limit int) ([]TextSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(dir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listTextSnapshotsSQL, scenarioKey(dir, path), limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []TextSnapshot
	for rows.Next() {
		var tsStr, txt string
		if err := rows.Scan(&tsStr, &txt); err != nil {
			return nil, err
		}
		ts, _ := time.Parse(snapshotTSLayout, tsStr)
		out = append(out, TextSnapshot{TS: ts, Text: txt})
	}
	return out, rows.Err()
}

// PruneTextSnapshots keeps at most keepLast snapshots of path and deletes older ones.
func PruneTextSnapshots(ctx context.Context, dir, path string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(dir)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	key := scenarioKey(dir, path)
	res, err := db.ExecContext(ctx, pruneOldTextSnapshotsSQL, key, key, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
