/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "strings"

// Item is a judgement-capable scene item: a named target holding one text
// per judgement level. Narrative items use a single slot.
type Item struct {
	Name  string
	Memo  string
	texts []string
}

// NewItem returns an item with levelCount empty texts.
func NewItem(name string, levelCount int) *Item {
	it := &Item{Name: strings.TrimSpace(name)}
	it.Initialize(levelCount)
	return it
}

// Initialize resets the item to levelCount empty texts.
func (it *Item) Initialize(levelCount int) {
	if levelCount < 0 {
		levelCount = 0
	}
	it.texts = make([]string, levelCount)
}

// Resize changes the slot count, keeping existing texts by index.
func (it *Item) Resize(levelCount int) {
	if levelCount < 0 {
		levelCount = 0
	}
	texts := make([]string, levelCount)
	copy(texts, it.texts)
	it.texts = texts
}

// LevelCount returns the number of text slots.
func (it *Item) LevelCount() int { return len(it.texts) }

// SetText stores v at index i. Out-of-range indexes are ignored.
func (it *Item) SetText(i int, v string) bool {
	if i < 0 || i >= len(it.texts) {
		return false
	}
	it.texts[i] = v
	return true
}

// DisplayText returns the text at index i, or "" when i is out of range.
func (it *Item) DisplayText(i int) string {
	if it == nil || i < 0 || i >= len(it.texts) {
		return ""
	}
	return it.texts[i]
}

// Texts returns a copy of all slots.
func (it *Item) Texts() []string {
	return append([]string(nil), it.texts...)
}

// IsEmpty reports whether every slot and the memo are blank.
func (it *Item) IsEmpty() bool {
	if strings.TrimSpace(it.Memo) != "" {
		return false
	}
	for _, t := range it.texts {
		if strings.TrimSpace(t) != "" {
			return false
		}
	}
	return true
}

// Content returns the single slot of a narrative item.
func (it *Item) Content() string { return it.DisplayText(0) }

func (it *Item) clone() *Item {
	c := *it
	c.texts = append([]string(nil), it.texts...)
	return &c
}
