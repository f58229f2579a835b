/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pattern

import "fmt"

// ValidationError represents a schema-level problem with a format file
// (e.g. unsupported version).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// PatternError describes a single bad pattern. Compile reports these instead
// of failing so that one typo in a format file never disables the parser.
type PatternError struct {
	Concept string // e.g. "headers.metadata"
	Index   int    // 0-based index within the concept's list
	Pattern string
	Message string
	Cause   error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("pattern %s[%d]: %s", e.Concept, e.Index, e.Message)
}

// Unwrap returns the underlying cause (usually a regexp syntax error).
func (e *PatternError) Unwrap() error {
	return e.Cause
}
