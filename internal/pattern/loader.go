/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pattern

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// MaxFormatFileSize is the maximum allowed size for a format file (1MB).
	MaxFormatFileSize = 1 * 1024 * 1024

	// MaxPatternLength is the maximum allowed length for a single regex (512 bytes).
	// Long patterns are the usual source of catastrophic matching costs.
	MaxPatternLength = 512

	// MaxPatternCount is the maximum number of patterns across all concepts.
	MaxPatternCount = 1000

	// SupportedVersion is the currently supported format file version.
	SupportedVersion = 1
)

// sanitizePathError removes the path from os.PathError so error messages do
// not leak file system layout.
func sanitizePathError(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%s: %w", pathErr.Op, pathErr.Err)
	}
	return err
}

// Load reads and validates a format file. Only regular files are accepted.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open format file: %w", sanitizePathError(err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat format file: %w", sanitizePathError(err))
	}
	if !info.Mode().IsRegular() {
		return nil, errors.New("format file must be a regular file (not FIFO, device, or special file)")
	}
	if info.Size() == 0 {
		return nil, errors.New("format file is empty")
	}
	if info.Size() > MaxFormatFileSize {
		return nil, fmt.Errorf("format file too large: %d bytes (max %d)", info.Size(), MaxFormatFileSize)
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxFormatFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read format file: %w", sanitizePathError(err))
	}
	return LoadBytes(data)
}

// LoadBytes parses and validates a format file held in memory.
func LoadBytes(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, errors.New("format file is empty")
	}
	if len(data) > MaxFormatFileSize {
		return nil, fmt.Errorf("format file too large: %d bytes (max %d)", len(data), MaxFormatFileSize)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate performs schema-level checks: version, pattern count and pattern
// length. It does not compile regular expressions; Compile does that and
// skips the ones that fail.
func (c *Config) Validate() error {
	if c.Version != SupportedVersion {
		return &ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (only version %d is supported)", c.Version, SupportedVersion),
		}
	}
	total := 0
	for concept, list := range c.patternLists() {
		total += len(list)
		for i, p := range list {
			if len(p) > MaxPatternLength {
				return &PatternError{
					Concept: concept, Index: i, Pattern: p,
					Message: fmt.Sprintf("pattern too long: %d bytes (max %d)", len(p), MaxPatternLength),
				}
			}
		}
	}
	if total > MaxPatternCount {
		return &ValidationError{
			Field:   "patterns",
			Message: fmt.Sprintf("too many patterns (%d), maximum allowed is %d", total, MaxPatternCount),
		}
	}
	return nil
}

func (c *Config) patternLists() map[string][]string {
	return map[string][]string{
		"headers.metadata":         c.Headers.Metadata,
		"headers.game_settings":    c.Headers.GameSettings,
		"headers.players":          c.Headers.Players,
		"headers.judgement_levels": c.Headers.JudgementLevels,
		"headers.scenes":           c.Headers.Scenes,
		"headers.scene":            c.Headers.Scene,
		"lines.key_value":          c.Lines.KeyValue,
		"lines.numbered_list":      c.Lines.NumberedList,
		"lines.judgement_result":   c.Lines.JudgementResult,
		"lines.memo":               c.Lines.Memo,
	}
}
