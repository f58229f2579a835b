/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package serialize_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmscenario/internal/domain"
	"gmscenario/internal/parser"
	"gmscenario/internal/pattern"
	"gmscenario/internal/serialize"
)

func fixedNow(t *testing.T) {
	t.Helper()
	old := domain.Now
	domain.Now = func() time.Time { return time.Date(2025, 4, 1, 9, 30, 0, 0, time.Local) }
	t.Cleanup(func() { domain.Now = old })
}

func smallScenario(t *testing.T) *domain.Scenario {
	t.Helper()
	s := domain.New()
	s.SetTitle("Case")
	s.SetJudgementLevels([]string{"Hit", "Miss"})
	s.SetScenarioPlayerCount(1)
	hall := s.NewScene(domain.SceneExploration, "Hall")
	desk, err := hall.AddLocation("Desk")
	require.NoError(t, err)
	desk.SetText(0, "key")
	end := s.NewScene(domain.SceneNarrative, "End")
	_, err = end.AddNarrative("Fin", "Bye.")
	require.NoError(t, err)
	return s
}

func TestSerializeEnglishGolden(t *testing.T) {
	fixedNow(t)
	want := strings.Join([]string{
		"# Case",
		"",
		"## Metadata",
		"- Title: Case",
		"- Created: 2025-04-01 09:30:00",
		"- Modified: 2025-04-01 09:30:00",
		"",
		"## Game Settings",
		"",
		"### Players",
		"1. Player 1",
		"2. (empty)",
		"3. (empty)",
		"4. (empty)",
		"5. (empty)",
		"6. (empty)",
		"",
		"### Judgement Levels",
		"1. Hit",
		"2. Miss",
		"",
		"## Scenes",
		"",
		"### Exploration: Hall",
		"",
		"#### Desk",
		"- Hit: key",
		"",
		"### Narrative: End",
		"",
		"#### Fin",
		"Bye.",
		"",
	}, "\n")
	got := serialize.New(pattern.EnglishLabels()).Serialize(smallScenario(t))
	assert.Equal(t, want, got)
}

func TestSerializeJapaneseLabels(t *testing.T) {
	fixedNow(t)
	got := serialize.Serialize(smallScenario(t))
	assert.True(t, strings.HasPrefix(got, "# Case\n\n## メタデータ\n- タイトル: Case\n"))
	assert.Contains(t, got, "### 探索: Hall\n")
	assert.Contains(t, got, "2. （なし）\n")
	assert.Contains(t, got, "### ナラティブ: End\n")
}

func TestSerializeMultiLineValues(t *testing.T) {
	s := domain.New()
	sc := s.NewScene(domain.SceneExploration, "Hall")
	sc.Memo = "first\nsecond"
	it, err := sc.AddLocation("Desk")
	require.NoError(t, err)
	it.SetText(1, "a\n\n  b")
	got := serialize.New(pattern.EnglishLabels()).Serialize(s)
	assert.Contains(t, got, "### Exploration: Hall\nMemo: first\n  second\n")
	assert.Contains(t, got, "- Success: a\n  b\n")
	assert.NotContains(t, got, "Critical Success:", "empty slots are omitted")
}

func TestSerializeSeparatesNarrativeMemoFromContent(t *testing.T) {
	s := domain.New()
	s.SetTitle("Long\nSubtitle")
	sc := s.NewScene(domain.SceneNarrative, "Intro")
	it, err := sc.AddNarrative("Opening", "  indented verse\nplain line")
	require.NoError(t, err)
	it.Memo = "read aloud"
	_, err = sc.AddNarrative("Bare", "no memo here")
	require.NoError(t, err)

	got := serialize.New(pattern.EnglishLabels()).Serialize(s)
	assert.Contains(t, got, "#### Opening\nMemo: read aloud\n\n  indented verse\nplain line\n")
	assert.Contains(t, got, "#### Bare\nno memo here\n")
	assert.True(t, strings.HasPrefix(got, "# Long Subtitle\n"), got)
	assert.Contains(t, got, "- Title: Long Subtitle\n")
}

func TestSerializeInactiveAndBlankSlotsAreEmpty(t *testing.T) {
	s := domain.New()
	require.NoError(t, s.SetPlayerName(1, ""))
	s.SetScenarioPlayerCount(3)
	got := serialize.New(pattern.EnglishLabels()).Serialize(s)
	assert.Contains(t, got, "1. Player 1\n2. (empty)\n3. Player 3\n4. (empty)\n")

	res := parser.Parse(got)
	require.NotNil(t, res.GameSettings)
	assert.Equal(t, s.GameSettings.ActivePlayerNames(), res.GameSettings.ActivePlayerNames())
}

func TestSerializeIsIdempotentThroughParser(t *testing.T) {
	fixedNow(t)
	first := serialize.Serialize(smallScenario(t))
	res := parser.Parse(first)
	require.Empty(t, res.Errors)
	require.Empty(t, res.Warnings)
	s := domain.Restore(*res.Metadata, res.Settings(), res.Scenes, "")
	assert.Equal(t, first, serialize.Serialize(s))
}

func TestSerializeNil(t *testing.T) {
	assert.Equal(t, "", serialize.Serialize(nil))
}
