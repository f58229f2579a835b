/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmscenario/internal/domain"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(b)
}

func unprocessed(ws []Warning) []Warning {
	var out []Warning
	for _, w := range ws {
		if w.Kind == Unprocessed {
			out = append(out, w)
		}
	}
	return out
}

func TestHeadingDepth(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{"# Title", 1},
		{"## Metadata", 2},
		{"### Players", 3},
		{"#### Item", 4},
		{"##### Deep", 5},
		{"#", 1},
		{"#hashtag", 0},
		{"  ## indented", 0},
		{"plain", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HeadingDepth(tt.line), "line %q", tt.line)
	}
	assert.True(t, IsBoundary("## X", DepthSub))
	assert.True(t, IsBoundary("### X", DepthSub))
	assert.False(t, IsBoundary("#### X", DepthSub))
	assert.False(t, IsBoundary("##### X", DepthItem))
}

func TestClassifier(t *testing.T) {
	c := NewClassifier(New(Options{}).patterns)

	k, v, ok := c.KeyValue("- タイトル：霧の館")
	require.True(t, ok)
	assert.Equal(t, "タイトル", k)
	assert.Equal(t, "霧の館", v)

	k, v, ok = c.KeyValue("* Note: a: b")
	require.True(t, ok)
	assert.Equal(t, "Note", k)
	assert.Equal(t, "a: b", v)

	n, v, ok := c.Numbered("3．ボブ")
	require.True(t, ok)
	assert.Equal(t, 3, n)
	assert.Equal(t, "ボブ", v)

	_, _, ok = c.Numbered("three. Bob")
	assert.False(t, ok)

	memo, ok := c.Memo("memo: check the door")
	require.True(t, ok)
	assert.Equal(t, "check the door", memo)

	_, ok = c.Memo("Memorandum")
	assert.False(t, ok)
}

func TestScenarioAExplorationWithSingleLevel(t *testing.T) {
	p := New(Options{DefaultLevels: []string{"Success"}})
	res := p.Parse("# Title\n## Metadata\n- Title: T1\n## Scenes\n### Exploration: Door\n#### Lock\n- Success: opens")

	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
	assert.True(t, res.HasTitle)
	assert.Equal(t, "Title", res.Title)
	require.NotNil(t, res.Metadata)
	assert.Equal(t, "T1", res.Metadata.Title)

	require.Len(t, res.Scenes, 1)
	sc := res.Scenes[0]
	assert.Equal(t, domain.SceneExploration, sc.Kind)
	assert.Equal(t, "Door", sc.Name)
	require.Equal(t, 1, sc.Len())
	lock := sc.Location("Lock")
	require.NotNil(t, lock)
	assert.Equal(t, "opens", lock.DisplayText(0))
}

func TestScenarioBHighestFilledIndexCountsPlayers(t *testing.T) {
	res := Parse("## Game Settings\n### Players\n1. Alice\n2. (empty)\n3. Bob\n")

	require.Empty(t, res.Errors)
	require.NotNil(t, res.GameSettings)
	gs := res.GameSettings
	assert.Equal(t, 3, gs.Players.ScenarioPlayerCount())
	assert.Equal(t, []string{"Alice", "Bob"}, gs.ActivePlayerNames())
	assert.Equal(t, "", gs.Players.Name(1))
	assert.Equal(t, "", gs.Players.Name(3), "unlisted slots are unset")
	assert.Equal(t, domain.DefaultJudgementLevels, gs.Judgement.Levels())
}

func TestScenarioCMissingMetadataIsNotAnError(t *testing.T) {
	res := Parse("## Scenes\n### Narrative: Intro\n#### Opening\nOnce upon a time.\n")
	assert.Empty(t, res.Errors)
	assert.Nil(t, res.Metadata)
	assert.False(t, res.HasTitle)
	require.Len(t, res.Scenes, 1)
	assert.Equal(t, "Once upon a time.", res.Scenes[0].Narrative("Opening").Content())
}

func TestUnclaimedLineProducesExactlyOneWarning(t *testing.T) {
	doc := strings.Join([]string{
		"# Case",
		"## Metadata",
		"- Author: Ann",
		"",
		"this line belongs to nothing",
		"",
		"## Scenes",
		"### Exploration: Hall",
		"#### Desk",
		"- Success: a key",
	}, "\n")
	// The stray line sits inside the metadata range, so metadata reports it.
	res := Parse(doc)
	require.Empty(t, res.Errors)
	ws := unprocessed(res.Warnings)
	require.Len(t, ws, 1)
	assert.Equal(t, 5, ws[0].Line)
	assert.Equal(t, "this line belongs to nothing", ws[0].Text)
	require.Len(t, res.Scenes, 1)
	assert.Equal(t, "a key", res.Scenes[0].Location("Desk").DisplayText(1))

	// Outside any section the document parser reports it.
	res = Parse("# Case\nstray\n## Metadata\n- Author: Ann\n")
	ws = unprocessed(res.Warnings)
	require.Len(t, ws, 1)
	assert.Equal(t, 2, ws[0].Line)
	require.NotNil(t, res.Metadata)
	assert.Equal(t, "Ann", res.Metadata.Author)
}

func TestFullJapaneseDocument(t *testing.T) {
	res := Parse(readFixture(t, "sample_ja.md"))
	require.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)

	assert.Equal(t, "霧の館", res.Title)
	md := res.Metadata
	require.NotNil(t, md)
	assert.Equal(t, "佐藤", md.Author)
	assert.Equal(t, "霧に閉ざされた館の探索シナリオ\n二行目の説明", md.Description)
	assert.Equal(t, "1.2", md.Version)
	assert.Equal(t, "2025-03-01 10:00:00", md.Created.Format(domain.TimeLayout))
	assert.Equal(t, "2025-03-02 18:30:00", md.Modified.Format(domain.TimeLayout))

	gs := res.GameSettings
	require.NotNil(t, gs)
	assert.Equal(t, []string{"アリス", "ボブ"}, gs.ActivePlayerNames())
	assert.Equal(t, []string{"大成功", "成功", "失敗", "大失敗"}, gs.Judgement.Levels())

	require.Len(t, res.Scenes, 3)
	hall := res.Scenes[0]
	assert.Equal(t, domain.SceneExploration, hall.Kind)
	assert.Equal(t, "最初のシーン", hall.Memo)
	desk := hall.Location("古い机")
	require.NotNil(t, desk)
	assert.Equal(t, "引き出しは鍵付き", desk.Memo)
	assert.Equal(t, "隠し引き出しを見つける\n中には手紙がある", desk.DisplayText(0))
	assert.Equal(t, "鍵を見つける", desk.DisplayText(1))
	assert.Equal(t, "何もない", desk.DisplayText(2))
	assert.Equal(t, "", desk.DisplayText(3))

	secret := res.Scenes[1]
	assert.Equal(t, domain.SceneSecretDistribution, secret.Kind)
	require.Equal(t, 2, secret.Len())
	assert.Equal(t, "あなたは館の相続人だ", secret.Target("アリス").DisplayText(1))
	assert.Equal(t, "あなたは何も知らない", secret.Target("ボブ").DisplayText(2))

	ending := res.Scenes[2]
	assert.Equal(t, domain.SceneNarrative, ending.Kind)
	epi := ending.Narrative("エピローグ")
	require.NotNil(t, epi)
	assert.Equal(t, "読み上げ用", epi.Memo)
	assert.Equal(t, "霧が晴れる。\n\n館は静かに崩れ落ちた。", epi.Content())
}

func TestEnglishAliases(t *testing.T) {
	res := Parse(readFixture(t, "sample_en.md"))
	require.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
	require.NotNil(t, res.GameSettings)
	assert.Equal(t, 2, res.GameSettings.Players.ScenarioPlayerCount())
	assert.Equal(t, []string{"Hit", "Miss"}, res.GameSettings.Judgement.Levels())
	require.Len(t, res.Scenes, 3)
	assert.Equal(t, "nothing", res.Scenes[0].Location("Desk").DisplayText(1))
	// Bob is seeded from the roster even without an item header.
	assert.Equal(t, 2, res.Scenes[1].Len())
}

func TestUnknownSceneTypeSkipsOnlyTheHeader(t *testing.T) {
	doc := "## Scenes\n### Explortion: Hall\n#### Desk\n- Success: x\n### Exploration: Yard\n#### Well\n- Failure: wet\n"
	res := Parse(doc)
	require.Len(t, res.Scenes, 1)
	assert.Equal(t, "Yard", res.Scenes[0].Name)
	ws := unprocessed(res.Warnings)
	require.Len(t, ws, 3)
	assert.Equal(t, 2, ws[0].Line)
	assert.Contains(t, ws[0].Message, `did you mean "Exploration"?`)
}

func TestUnknownJudgementLevelWarnsWithSuggestion(t *testing.T) {
	res := Parse("## Scenes\n### Exploration: Hall\n#### Desk\n- Sucess: a key\n")
	require.Len(t, res.Scenes, 1)
	ws := unprocessed(res.Warnings)
	require.Len(t, ws, 1)
	assert.Contains(t, ws[0].Message, `did you mean "Success"?`)
	assert.True(t, res.Scenes[0].Location("Desk").IsEmpty())
}

func TestScenesBeforeGameSettingsEmitsDiagnostic(t *testing.T) {
	doc := strings.Join([]string{
		"## Scenes",
		"### Exploration: Hall",
		"#### Desk",
		"- Hit: found",
		"- Success: default level",
		"## Game Settings",
		"### Judgement Levels",
		"1. Hit",
		"2. Miss",
	}, "\n")
	res := Parse(doc)
	var diags []Warning
	for _, w := range res.Warnings {
		if w.Kind == Diagnostic {
			diags = append(diags, w)
		}
	}
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "before game settings")
	// "Hit" was unknown when the scene was read.
	require.Len(t, unprocessed(res.Warnings), 1)
	assert.Equal(t, "default level", res.Scenes[0].Location("Desk").DisplayText(1))
}

func TestMetadataWithoutKeyValuesIsFatal(t *testing.T) {
	res := Parse("# T\n## Metadata\njust some prose\n## Scenes\n### Exploration: Hall\n")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, SectionMetadata, res.Errors[0].Section)
	assert.True(t, res.HasFatal())
	assert.Nil(t, res.Metadata)
	assert.Len(t, res.Scenes, 1, "later sections still parse")
}

func TestBadDateKeepsDefault(t *testing.T) {
	res := Parse("## Metadata\n- Created: yesterday\n- Author: A\n")
	require.Empty(t, res.Errors)
	require.NotNil(t, res.Metadata)
	assert.False(t, res.Metadata.Created.IsZero())
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, Recovered, res.Warnings[0].Kind)
}

type boomSection struct{}

func (boomSection) Name() string { return "boom" }
func (boomSection) CanHandle(line string) bool {
	return strings.TrimSpace(line) == "## Boom"
}
func (boomSection) Parse(*Context, int) Outcome { panic("kaboom") }

func TestPanickingSectionIsRecovered(t *testing.T) {
	p := New(Options{Sections: []Section{boomSection{}}})
	res := p.Parse("## Boom\n- a: b\nmore\n## Scenes\n### Narrative: N\n#### I\ntext\n")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "boom", res.Errors[0].Section)
	assert.Contains(t, res.Errors[0].Message, "kaboom")
	assert.False(t, res.HasFatal())
	assert.Empty(t, res.Warnings, "lines of the failed section are skipped")
	require.Len(t, res.Scenes, 1)
}

func TestDuplicateItemsMerge(t *testing.T) {
	res := Parse("## Scenes\n### Exploration: Hall\n#### Desk\n- Success: a\n#### Desk\n- Failure: b\n")
	require.Len(t, res.Scenes, 1)
	sc := res.Scenes[0]
	assert.Equal(t, 1, sc.Len())
	assert.Equal(t, "a", sc.Location("Desk").DisplayText(1))
	assert.Equal(t, "b", sc.Location("Desk").DisplayText(2))
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, Recovered, res.Warnings[0].Kind)
}

func TestDuplicateMetadataSectionIgnored(t *testing.T) {
	res := Parse("## Metadata\n- Author: A\n## Metadata\n- Author: B\n")
	require.NotNil(t, res.Metadata)
	assert.Equal(t, "A", res.Metadata.Author)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, 3, res.Warnings[0].Line)
}

func TestCRLFAndBOM(t *testing.T) {
	res := Parse("\ufeff# T\r\n## Metadata\r\n- Author: A\r\n")
	assert.Equal(t, "T", res.Title)
	require.NotNil(t, res.Metadata)
	assert.Equal(t, "A", res.Metadata.Author)
}

func TestParseNeverLoops(t *testing.T) {
	inputs := []string{"", "\n\n", "#", "##", "## Scenes", "### Exploration: x", "####", "- : :", "1."}
	for _, in := range inputs {
		assert.NotNil(t, Parse(in), "input %q", in)
	}
}
