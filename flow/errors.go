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

package flow

import "fmt"

// NotFoundError is raised by stop_flow / stop_flow_by_name for an unknown
// flow name or id.
type NotFoundError struct{ Name string }

func (e *NotFoundError) Error() string { return fmt.Sprintf("flow %q not found", e.Name) }

// AlreadyExistsError is raised by create_flow(strict) when the name is
// already bound to a running flow.
type AlreadyExistsError struct{ Name string }

func (e *AlreadyExistsError) Error() string { return fmt.Sprintf("flow %q already exists", e.Name) }
