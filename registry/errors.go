/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package registry

import "fmt"

// StreamNotFoundError is raised by any operation addressing a stream name
// the registry does not know about.
type StreamNotFoundError struct{ Name string }

func (e *StreamNotFoundError) Error() string { return fmt.Sprintf("stream %q not found", e.Name) }

// StreamAlreadyExistsError is raised by create(name, strict) when name is
// already registered.
type StreamAlreadyExistsError struct{ Name string }

func (e *StreamAlreadyExistsError) Error() string {
	return fmt.Sprintf("stream %q already exists", e.Name)
}

// ReservedNameError is raised when a caller tries to create a
// `_`-prefixed stream through the public API (§4.8: reserved names "may
// only be created internally").
type ReservedNameError struct{ Name string }

func (e *ReservedNameError) Error() string {
	return fmt.Sprintf("stream name %q is reserved", e.Name)
}
