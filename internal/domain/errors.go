/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package domain defines the in-memory scenario model: metadata, game
// settings (player roster and judgement levels), and an ordered list of
// scenes whose items carry one text per judgement level.
//
// The model knows nothing about the text dialect; parsing and serialization
// live in the parser and serialize packages.
package domain

import (
	"errors"
	"time"
)

var (
	// ErrWrongSceneKind is returned when a variant-specific operation is
	// called on a scene of another kind.
	ErrWrongSceneKind = errors.New("operation not supported for this scene kind")
	// ErrItemNotFound is returned when a named item does not exist.
	ErrItemNotFound = errors.New("item not found")
	// ErrDuplicateItem is returned when an item name is already taken.
	ErrDuplicateItem = errors.New("item already exists")
	// ErrSceneNotFound is returned by scenario-level scene lookups.
	ErrSceneNotFound = errors.New("scene not found")
)

// Now is the clock used for timestamps. Tests may replace it.
var Now = time.Now
