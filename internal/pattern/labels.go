/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pattern

import "strings"

// Labels is the spelling the serializer writes. Every label must be
// recognised by the default patterns so that written files load again.
type Labels struct {
	Metadata        string
	GameSettings    string
	Players         string
	JudgementLevels string
	Scenes          string
	Memo            string
	EmptyMarker     string

	Exploration        string
	SecretDistribution string
	Narrative          string

	Title       string
	Author      string
	Description string
	Version     string
	Created     string
	Modified    string
}

// JapaneseLabels is the default output dialect.
func JapaneseLabels() Labels {
	return Labels{
		Metadata:           "メタデータ",
		GameSettings:       "ゲーム設定",
		Players:            "プレイヤー",
		JudgementLevels:    "判定レベル",
		Scenes:             "シーン",
		Memo:               "メモ",
		EmptyMarker:        "（なし）",
		Exploration:        "探索",
		SecretDistribution: "秘匿配布",
		Narrative:          "ナラティブ",
		Title:              "タイトル",
		Author:             "作者",
		Description:        "説明",
		Version:            "バージョン",
		Created:            "作成日時",
		Modified:           "更新日時",
	}
}

// EnglishLabels writes the English aliases.
func EnglishLabels() Labels {
	return Labels{
		Metadata:           "Metadata",
		GameSettings:       "Game Settings",
		Players:            "Players",
		JudgementLevels:    "Judgement Levels",
		Scenes:             "Scenes",
		Memo:               "Memo",
		EmptyMarker:        "(empty)",
		Exploration:        "Exploration",
		SecretDistribution: "Secret Distribution",
		Narrative:          "Narrative",
		Title:              "Title",
		Author:             "Author",
		Description:        "Description",
		Version:            "Version",
		Created:            "Created",
		Modified:           "Modified",
	}
}

// LabelsFor returns the labels for a language code ("ja", "en"). Unknown
// codes get the Japanese labels.
func LabelsFor(lang string) Labels {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "en", "english":
		return EnglishLabels()
	default:
		return JapaneseLabels()
	}
}

// SceneTypeLabel returns the label for a SceneType* key.
func (l Labels) SceneTypeLabel(sceneType string) string {
	switch sceneType {
	case SceneTypeSecretDistribution:
		return l.SecretDistribution
	case SceneTypeNarrative:
		return l.Narrative
	default:
		return l.Exploration
	}
}
