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

package value

// SanitizePolicy controls how Sanitize handles Absent leaves found while
// walking a record before it is published to subscribers (§3, §6.2).
type SanitizePolicy int

const (
	// SanitizeRemove deletes absent/undefined leaves recursively. This is
	// the default registry policy.
	SanitizeRemove SanitizePolicy = iota
	// SanitizeNull converts absent/undefined leaves to explicit null.
	SanitizeNull
)

// Sanitize returns a copy of rec with every Absent leaf resolved according
// to policy. Maps and lists are walked recursively; SanitizeRemove drops
// absent map entries and absent list elements are rendered null (removing
// them would shift indices, which no caller expects of a positional list).
func Sanitize(rec Record, policy SanitizePolicy) Record {
	switch t := rec.(type) {
	case Map:
		out := make(Map, len(t))
		for k, v := range t {
			if IsAbsent(v) {
				if policy == SanitizeNull {
					out[k] = nil
				}
				continue
			}
			out[k] = Sanitize(v, policy)
		}
		return out
	case List:
		out := make(List, len(t))
		for i, v := range t {
			if IsAbsent(v) {
				out[i] = nil
				continue
			}
			out[i] = Sanitize(v, policy)
		}
		return out
	case absentType:
		if policy == SanitizeNull {
			return nil
		}
		return Absent
	default:
		return t
	}
}
