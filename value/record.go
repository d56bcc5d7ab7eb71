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

import (
	"fmt"
	"sort"
	"strings"
)

// Record is an immutable JSON-like value: nil, bool, float64, string, an
// ordered []Record, or a map[string]Record. Callers never see a Go struct
// here; the six JSON types are the entire surface, per the data model.
type Record = interface{}

// Map is the canonical record shape for an object-valued Record.
type Map = map[string]Record

// List is the canonical record shape for an array-valued Record.
type List = []Record

// absentType is the type of the Absent sentinel. It is never equal to nil:
// nil represents an explicit JSON null, Absent represents "no such field".
type absentType struct{}

func (absentType) String() string { return "<absent>" }

// Absent is returned by safe lookups when a path does not resolve to a
// value. It is distinct from an explicit JSON null.
var Absent Record = absentType{}

// IsAbsent reports whether v is the Absent sentinel.
func IsAbsent(v Record) bool {
	_, ok := v.(absentType)
	return ok
}

// Clone returns a deep, independent copy of v so that operators downstream
// of a fan-out point never observe mutation from a sibling subscriber.
func Clone(v Record) Record {
	switch t := v.(type) {
	case Map:
		out := make(Map, len(t))
		for k, val := range t {
			out[k] = Clone(val)
		}
		return out
	case List:
		out := make(List, len(t))
		for i, val := range t {
			out[i] = Clone(val)
		}
		return out
	default:
		return t
	}
}

// Truthy implements the one consistent JSON-falsy rule the expression
// evaluator and Filter operator both use (see SPEC_FULL.md §4.4 design
// decision): null, false, 0, "", empty array, empty object and Absent are
// falsy; everything else is truthy.
func Truthy(v Record) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case List:
		return len(t) != 0
	case Map:
		return len(t) != 0
	case absentType:
		return false
	default:
		return true
	}
}

// DeepEqual implements the "==" / "!=" deep-value-equality contract (§4.4).
func DeepEqual(a, b Record) bool {
	if IsAbsent(a) || IsAbsent(b) {
		return IsAbsent(a) && IsAbsent(b)
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !DeepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Map:
		bv, ok := b.(Map)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, present := bv[k]
			if !present || !DeepEqual(v, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare implements numeric-or-lexicographic ordering for "< > <= >=".
// ok is false when the two operands are not both numbers or both strings,
// in which case the comparison result is defined to be false (§4.4).
func Compare(a, b Record) (cmp int, ok bool) {
	switch av := a.(type) {
	case float64:
		bv, isNum := b.(float64)
		if !isNum {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		default:
			return 0, true
		}
	case string:
		bv, isStr := b.(string)
		if !isStr {
			return 0, false
		}
		return strings.Compare(av, bv), true
	default:
		return 0, false
	}
}

// Get performs a safe member/index lookup: accessing a property of a
// null/absent/non-container value yields Absent, never an error or panic
// (Testable Property 4).
func Get(rec Record, key Record) Record {
	switch container := rec.(type) {
	case Map:
		name, ok := key.(string)
		if !ok {
			return Absent
		}
		if v, present := container[name]; present {
			return v
		}
		return Absent
	case List:
		idx, ok := indexOf(key)
		if !ok || idx < 0 || idx >= len(container) {
			return Absent
		}
		return container[idx]
	default:
		return Absent
	}
}

func indexOf(key Record) (int, bool) {
	f, ok := key.(float64)
	if !ok {
		return 0, false
	}
	i := int(f)
	if float64(i) != f {
		return 0, false
	}
	return i, true
}

// GetField is a convenience over Get for the common string-path case used
// by identifier and dot-access expressions.
func GetField(rec Record, name string) Record {
	return Get(rec, name)
}

// String renders a Record for diagnostics (log messages, error text). It is
// never used for wire serialization.
func String(v Record) string {
	switch t := v.(type) {
	case absentType:
		return "<absent>"
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", t)
	case Map:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "%q:%s", k, String(t[k]))
		}
		b.WriteByte('}')
		return b.String()
	case List:
		var b strings.Builder
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(String(e))
		}
		b.WriteByte(']')
		return b.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
