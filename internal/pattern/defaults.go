/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pattern

// Defaults returns the built-in format: Japanese spellings first, English
// aliases second.
func Defaults() Config {
	return Config{
		Version: SupportedVersion,
		Headers: Headers{
			Metadata:        []string{`^##\s*メタデータ\s*$`, `^##\s*Metadata\s*$`},
			GameSettings:    []string{`^##\s*ゲーム設定\s*$`, `^##\s*Game\s*Settings\s*$`},
			Players:         []string{`^###\s*プレイヤー(?:設定)?\s*$`, `^###\s*Players?\s*$`},
			JudgementLevels: []string{`^###\s*判定レベル\s*$`, `^###\s*Judge?ment\s*Levels?\s*$`},
			Scenes:          []string{`^##\s*シーン(?:一覧)?\s*$`, `^##\s*Scenes\s*$`},
			Scene:           []string{`^###\s*([^:：]+?)\s*[:：]\s*(.*?)\s*$`},
		},
		Lines: Lines{
			KeyValue:        []string{`^[-*]\s*([^:：]+?)\s*[:：]\s*(.*?)\s*$`},
			NumberedList:    []string{`^(\d+)\s*[.．]\s*(.*?)\s*$`},
			JudgementResult: []string{`^[-*]\s*([^:：]+?)\s*[:：]\s*(.*?)\s*$`},
			Memo:            []string{`^メモ\s*[:：]\s*(.*?)\s*$`, `^Memo\s*[:：]\s*(.*?)\s*$`},
		},
		SceneTypes: SceneTypes{
			Exploration:        []string{"探索", "Exploration"},
			SecretDistribution: []string{"秘匿配布", "秘匿情報", "Secret Distribution", "Secret"},
			Narrative:          []string{"ナラティブ", "地の文", "Narrative"},
		},
		MetadataKeys: MetadataKeys{
			Title:       []string{"タイトル", "title"},
			Author:      []string{"作者", "作成者", "author"},
			Description: []string{"説明", "概要", "description"},
			Version:     []string{"バージョン", "version"},
			Created:     []string{"作成日時", "作成日", "created"},
			Modified:    []string{"更新日時", "更新日", "modified", "last modified"},
		},
		EmptyMarkers: []string{"(empty)", "-", "none", "（なし）", "(なし)", "なし", "空き", "（空き）"},
	}
}

// WithDefaults returns a copy of c where every empty concept list is filled
// from Defaults.
func (c Config) WithDefaults() Config {
	d := Defaults()
	out := c
	if out.Version == 0 {
		out.Version = d.Version
	}
	fill := func(dst *[]string, def []string) {
		if len(*dst) == 0 {
			*dst = append([]string(nil), def...)
		}
	}
	fill(&out.Headers.Metadata, d.Headers.Metadata)
	fill(&out.Headers.GameSettings, d.Headers.GameSettings)
	fill(&out.Headers.Players, d.Headers.Players)
	fill(&out.Headers.JudgementLevels, d.Headers.JudgementLevels)
	fill(&out.Headers.Scenes, d.Headers.Scenes)
	fill(&out.Headers.Scene, d.Headers.Scene)
	fill(&out.Lines.KeyValue, d.Lines.KeyValue)
	fill(&out.Lines.NumberedList, d.Lines.NumberedList)
	fill(&out.Lines.JudgementResult, d.Lines.JudgementResult)
	fill(&out.Lines.Memo, d.Lines.Memo)
	fill(&out.SceneTypes.Exploration, d.SceneTypes.Exploration)
	fill(&out.SceneTypes.SecretDistribution, d.SceneTypes.SecretDistribution)
	fill(&out.SceneTypes.Narrative, d.SceneTypes.Narrative)
	fill(&out.MetadataKeys.Title, d.MetadataKeys.Title)
	fill(&out.MetadataKeys.Author, d.MetadataKeys.Author)
	fill(&out.MetadataKeys.Description, d.MetadataKeys.Description)
	fill(&out.MetadataKeys.Version, d.MetadataKeys.Version)
	fill(&out.MetadataKeys.Created, d.MetadataKeys.Created)
	fill(&out.MetadataKeys.Modified, d.MetadataKeys.Modified)
	fill(&out.EmptyMarkers, d.EmptyMarkers)
	return out
}
