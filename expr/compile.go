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

package expr

import (
	"math"

	"github.com/rulego/flowdsl/lang"
	"github.com/rulego/flowdsl/value"
)

// Fn is a compiled expression: a pure closure over the current item and,
// inside a scan step body, the step's mutable state bag. state is nil
// outside scan bodies, in which case identifier lookup falls straight
// through to item.
type Fn func(item, state value.Record) value.Record

// Compile turns a CST expression into a Fn. It fails only for an unknown
// function name (§4.4) or a wrong argument count to iff/exp (ArityError);
// every other node always compiles.
func Compile(node lang.Expr) (Fn, error) {
	switch n := node.(type) {
	case *lang.Literal:
		v := n.Value
		return func(value.Record, value.Record) value.Record { return v }, nil

	case *lang.Identifier:
		name := n.Name
		return func(item, state value.Record) value.Record {
			if state != nil {
				if v := value.GetField(state, name); !value.IsAbsent(v) {
					return v
				}
			}
			return value.GetField(item, name)
		}, nil

	case *lang.MemberExpr:
		target, err := Compile(n.Target)
		if err != nil {
			return nil, err
		}
		if !n.Computed {
			name := n.Name
			return func(item, state value.Record) value.Record {
				return value.GetField(target(item, state), name)
			}, nil
		}
		index, err := Compile(n.Index)
		if err != nil {
			return nil, err
		}
		return func(item, state value.Record) value.Record {
			return value.Get(target(item, state), index(item, state))
		}, nil

	case *lang.UnaryExpr:
		x, err := Compile(n.X)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case "-":
			return func(item, state value.Record) value.Record { return value.Neg(x(item, state)) }, nil
		default: // "+"
			return func(item, state value.Record) value.Record { return value.Pos(x(item, state)) }, nil
		}

	case *lang.BinaryExpr:
		return compileBinary(n)

	case *lang.TernaryExpr:
		cond, err := Compile(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := Compile(n.Then)
		if err != nil {
			return nil, err
		}
		els, err := Compile(n.Else)
		if err != nil {
			return nil, err
		}
		return func(item, state value.Record) value.Record {
			if value.Truthy(cond(item, state)) {
				return then(item, state)
			}
			return els(item, state)
		}, nil

	case *lang.CallExpr:
		return compileCall(n)

	case *lang.ObjectExpr:
		return CompileObject(n.Object)

	case *lang.ArrayExpr:
		elems := make([]Fn, len(n.Elements))
		for i, e := range n.Elements {
			fn, err := Compile(e)
			if err != nil {
				return nil, err
			}
			elems[i] = fn
		}
		return func(item, state value.Record) value.Record {
			out := make(value.List, len(elems))
			for i, fn := range elems {
				out[i] = fn(item, state)
			}
			return out
		}, nil
	}
	// Unreachable for any node produced by the parser.
	return func(value.Record, value.Record) value.Record { return value.Absent }, nil
}

func compileBinary(n *lang.BinaryExpr) (Fn, error) {
	l, err := Compile(n.L)
	if err != nil {
		return nil, err
	}
	r, err := Compile(n.R)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "+":
		return func(item, state value.Record) value.Record { return value.Add(l(item, state), r(item, state)) }, nil
	case "-":
		return func(item, state value.Record) value.Record { return value.Sub(l(item, state), r(item, state)) }, nil
	case "*":
		return func(item, state value.Record) value.Record { return value.Mul(l(item, state), r(item, state)) }, nil
	case "/":
		return func(item, state value.Record) value.Record { return value.Div(l(item, state), r(item, state)) }, nil
	case "==":
		return func(item, state value.Record) value.Record { return value.DeepEqual(l(item, state), r(item, state)) }, nil
	case "!=":
		return func(item, state value.Record) value.Record { return !value.DeepEqual(l(item, state), r(item, state)) }, nil
	case "<", "<=", ">", ">=":
		return compileComparison(n.Op, l, r), nil
	case "&&":
		// Selecting-return: short-circuits on the falsy operand, otherwise
		// yields the right operand as-is (§4.4).
		return func(item, state value.Record) value.Record {
			lv := l(item, state)
			if !value.Truthy(lv) {
				return lv
			}
			return r(item, state)
		}, nil
	case "||":
		return func(item, state value.Record) value.Record {
			lv := l(item, state)
			if value.Truthy(lv) {
				return lv
			}
			return r(item, state)
		}, nil
	}
	return func(value.Record, value.Record) value.Record { return value.Absent }, nil
}

func compileComparison(op string, l, r Fn) Fn {
	return func(item, state value.Record) value.Record {
		cmp, ok := value.Compare(l(item, state), r(item, state))
		if !ok {
			return false
		}
		switch op {
		case "<":
			return cmp < 0
		case "<=":
			return cmp <= 0
		case ">":
			return cmp > 0
		default: // ">="
			return cmp >= 0
		}
	}
}

func compileCall(n *lang.CallExpr) (Fn, error) {
	switch n.Name {
	case "iff":
		if len(n.Args) != 3 {
			return nil, &ArityError{Name: "iff", Expected: 3, Got: len(n.Args)}
		}
		cond, err := Compile(n.Args[0])
		if err != nil {
			return nil, err
		}
		then, err := Compile(n.Args[1])
		if err != nil {
			return nil, err
		}
		els, err := Compile(n.Args[2])
		if err != nil {
			return nil, err
		}
		return func(item, state value.Record) value.Record {
			if value.Truthy(cond(item, state)) {
				return then(item, state)
			}
			return els(item, state)
		}, nil
	case "exp":
		if len(n.Args) != 1 {
			return nil, &ArityError{Name: "exp", Expected: 1, Got: len(n.Args)}
		}
		x, err := Compile(n.Args[0])
		if err != nil {
			return nil, err
		}
		return func(item, state value.Record) value.Record {
			return math.Exp(numeric(x(item, state)))
		}, nil
	default:
		return nil, &UnknownFunctionError{Name: n.Name}
	}
}

func numeric(v value.Record) float64 {
	// Reuses the same coercion rules as arithmetic: a scalar function
	// argument that is absent/null/bool participates the same way an
	// arithmetic operand would rather than panicking.
	switch t := v.(type) {
	case float64:
		return t
	default:
		return value.Sub(v, 0).(float64)
	}
}
