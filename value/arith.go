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
	"math"

	"github.com/spf13/cast"
)

// Add implements "+": numeric addition, string concatenation, and a
// coercing fallback for mixed operands, per the "must not throw" contract
// in §4.4 — NaN rather than a Go panic is the failure mode.
func Add(a, b Record) Record {
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr || bIsStr {
		if aIsStr && bIsStr {
			return as + bs
		}
		// one side is a string: concatenate using the other side's textual form
		return toText(a) + toText(b)
	}
	return cast.ToFloat64(coerce(a)) + cast.ToFloat64(coerce(b))
}

// Sub, Mul, Div implement the remaining arithmetic operators. Division by
// zero yields +/-Inf or NaN, matching IEEE-754 rather than panicking.
func Sub(a, b Record) Record { return numeric(a) - numeric(b) }
func Mul(a, b Record) Record { return numeric(a) * numeric(b) }
func Div(a, b Record) Record { return numeric(a) / numeric(b) }

func numeric(v Record) float64 {
	return cast.ToFloat64(coerce(v))
}

// Neg implements unary "-"; Pos implements unary "+" (numeric coercion,
// no sign change).
func Neg(v Record) Record { return -numeric(v) }
func Pos(v Record) Record { return numeric(v) }

// coerce maps Absent/nil/bool to a numeric-friendly Go value before handing
// off to cast: Absent (a missing field) becomes NaN, explicit null and false
// become 0, and true becomes 1.
func coerce(v Record) interface{} {
	switch t := v.(type) {
	case absentType:
		return math.NaN()
	case nil:
		return 0.0
	case bool:
		if t {
			return 1.0
		}
		return 0.0
	default:
		return t
	}
}

func toText(v Record) string {
	switch t := v.(type) {
	case string:
		return t
	case absentType:
		return ""
	case nil:
		return "null"
	default:
		return cast.ToString(t)
	}
}
