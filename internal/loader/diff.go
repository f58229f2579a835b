/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package loader

import (
	"fmt"
	"slices"

	"gmscenario/internal/domain"
)

// Diff compares the parts of two scenarios that survive a text round trip:
// title, active players, judgement levels, scene kinds and names, memos and
// item texts. Timestamps are ignored. It returns one line per difference.
func Diff(a, b *domain.Scenario) []string {
	var d []string
	add := func(format string, args ...any) { d = append(d, fmt.Sprintf(format, args...)) }

	if a.Metadata.Title != b.Metadata.Title {
		add("title: %q != %q", a.Metadata.Title, b.Metadata.Title)
	}
	for _, f := range []struct{ name, x, y string }{
		{"author", a.Metadata.Author, b.Metadata.Author},
		{"description", a.Metadata.Description, b.Metadata.Description},
		{"version", a.Metadata.Version, b.Metadata.Version},
	} {
		if f.x != f.y {
			add("%s: %q != %q", f.name, f.x, f.y)
		}
	}
	if x, y := a.GameSettings.ActivePlayerNames(), b.GameSettings.ActivePlayerNames(); !slices.Equal(x, y) {
		add("active players: %q != %q", x, y)
	}
	if x, y := a.GameSettings.Judgement.Levels(), b.GameSettings.Judgement.Levels(); !slices.Equal(x, y) {
		add("judgement levels: %q != %q", x, y)
	}
	as, bs := a.Scenes(), b.Scenes()
	if len(as) != len(bs) {
		add("scene count: %d != %d", len(as), len(bs))
		return d
	}
	for i := range as {
		x, y := as[i], bs[i]
		if x.Kind != y.Kind || x.Name != y.Name {
			add("scene %d: %s %q != %s %q", i, x.Kind, x.Name, y.Kind, y.Name)
			continue
		}
		if x.Memo != y.Memo {
			add("scene %q memo: %q != %q", x.Name, x.Memo, y.Memo)
		}
		xi, yi := x.Items(), y.Items()
		if len(xi) != len(yi) {
			add("scene %q item count: %d != %d", x.Name, len(xi), len(yi))
			continue
		}
		for j := range xi {
			if xi[j].Name != yi[j].Name {
				add("scene %q item %d: %q != %q", x.Name, j, xi[j].Name, yi[j].Name)
				continue
			}
			if xi[j].Memo != yi[j].Memo {
				add("scene %q item %q memo: %q != %q", x.Name, xi[j].Name, xi[j].Memo, yi[j].Memo)
			}
			if tx, ty := xi[j].Texts(), yi[j].Texts(); !slices.Equal(tx, ty) {
				add("scene %q item %q texts: %q != %q", x.Name, xi[j].Name, tx, ty)
			}
		}
	}
	return d
}
