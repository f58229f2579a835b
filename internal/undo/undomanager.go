/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package undo keeps in-memory undo/redo history of scenario texts.
package undo

import (
	"sync"
	"time"
)

// Snapshot is the canonical text of one scenario before an edit.
// Label names the edit; size is estimated as len(Text).
type Snapshot struct {
	Key   string // scenario path
	Label string
	Text  string
	TS    time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; older entries are pruned when exceeded.
	MaxBytes int
	// MaxPerKey limits number of snapshots per scenario (0 means unlimited).
	MaxPerKey int
	// MinInterval coalesces snapshots pushed within the interval for the same
	// scenario, keeping the older one. Zero disables coalescing.
	MinInterval time.Duration
}

// Manager provides an in-memory undo/redo stack per scenario with memory
// caps. It is safe for concurrent use.
type Manager struct {
	cfg  Config
	mu   sync.Mutex
	undo map[string][]Snapshot
	redo map[string][]Snapshot
	// accounting covers the undo stacks only
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Snapshot), redo: make(map[string][]Snapshot)}
}

// Push records the state before an edit. Within MinInterval of the previous
// push for the same key the older state is kept, so a burst of edits undoes
// in one step. Any push clears the redo stack of the key.
func (m *Manager) Push(s Snapshot) {
	if s.TS.IsZero() {
		s.TS = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redo[s.Key] = nil
	stack := m.undo[s.Key]
	if n := len(stack); n > 0 && m.cfg.MinInterval > 0 && s.TS.Sub(stack[n-1].TS) < m.cfg.MinInterval {
		stack[n-1].TS = s.TS
		return
	}
	m.undo[s.Key] = append(stack, s)
	m.totalBytes += len(s.Text)
	m.enforceCapsLocked(s.Key)
}

// Undo returns the state before the latest edit of key. current is the
// present text; it becomes the redo target.
func (m *Manager) Undo(key, current string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[key]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[key] = stack[:len(stack)-1]
	m.totalBytes -= len(s.Text)
	m.redo[key] = append(m.redo[key], Snapshot{Key: key, Label: s.Label, Text: current, TS: time.Now()})
	return s, true
}

// Redo reverses the latest Undo of key. current becomes undoable again.
func (m *Manager) Redo(key, current string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[key]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[key] = r[:len(r)-1]
	m.undo[key] = append(m.undo[key], Snapshot{Key: key, Label: s.Label, Text: current, TS: time.Now()})
	m.totalBytes += len(current)
	m.enforceCapsLocked(key)
	return s, true
}

// Labels returns the labels of the undoable edits of key, newest first.
func (m *Manager) Labels(key string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[key]
	out := make([]string, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		out = append(out, stack[i].Label)
	}
	return out
}

// Clear drops the history of key.
func (m *Manager) Clear(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[key] {
		m.totalBytes -= len(s.Text)
	}
	delete(m.undo, key)
	delete(m.redo, key)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, keys int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.undo {
		if len(v) > 0 {
			keys++
		}
		totalSnapshots += len(v)
	}
	return m.totalBytes, keys, totalSnapshots
}

func (m *Manager) enforceCapsLocked(key string) {
	if m.cfg.MaxPerKey > 0 {
		stack := m.undo[key]
		if len(stack) > m.cfg.MaxPerKey {
			toDrop := len(stack) - m.cfg.MaxPerKey
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(stack[i].Text)
			}
			m.undo[key] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune oldest across all scenarios
	for m.totalBytes > m.cfg.MaxBytes {
		oldestKey := ""
		found := false
		var oldestTS time.Time
		for k, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldestKey, oldestTS, found = k, stack[0].TS, true
			}
		}
		if !found {
			break
		}
		stack := m.undo[oldestKey]
		m.totalBytes -= len(stack[0].Text)
		m.undo[oldestKey] = stack[1:]
		if len(m.undo[oldestKey]) == 0 {
			delete(m.undo, oldestKey)
		}
	}
}
