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

package window

import (
	"fmt"

	"github.com/rulego/flowdsl/expr"
	"github.com/rulego/flowdsl/lang"
	"github.com/rulego/flowdsl/value"
)

// ID identifies one window instance within a group. Count-based windows
// use an int; value-based windows use a float64 bucket start; session
// windows use an incrementing session index (int).
type ID = value.Record

// Window tracks window-id assignment for one group's record sequence. It
// is not safe for concurrent use; the single-threaded cooperative
// scheduling model (§5) means this is never a problem in practice.
type Window interface {
	// Assign records the arrival of a record and returns the window id(s)
	// it belongs to, plus any ids that are now closed as a result (a
	// closed id may or may not be among the ids just assigned).
	Assign(seq int, val float64) (ids []ID, closed []ID)
	// Flush returns every id still open, for end-of-stream finalization.
	Flush() []ID
	// Bounds reports the window's extent when the window kind defines one;
	// returns (Absent, Absent) otherwise. Count-based kinds report the
	// first and last record index, both inclusive; tumbling_window_by and
	// hopping_window_by report [start, start+size) on the value axis;
	// sliding_window_by reports val-size and val for the latest record.
	Bounds(id ID) (start, end value.Record)
}

// Factory builds a fresh Window instance, one per group key.
type Factory func() Window

// UnsupportedWindowError is raised at compile time for an unrecognized
// window function name (§4.3: "unknown operations ... abort plan
// lowering").
type UnsupportedWindowError struct{ Name string }

func (e *UnsupportedWindowError) Error() string {
	return fmt.Sprintf("unsupported window function %q", e.Name)
}

// Compile lowers a WindowCall into a Factory plus, for value-based
// variants, the compiled value_fn used to extract the axis value from
// each record. Constant arguments (size, hop, timeout) are literal
// numbers evaluated once at compile time.
func Compile(call *lang.WindowCall) (Factory, expr.Fn, error) {
	constArg := func(i int) (float64, error) {
		if i >= len(call.Args) {
			return 0, fmt.Errorf("window %q: missing argument %d", call.Func, i)
		}
		fn, err := expr.Compile(call.Args[i])
		if err != nil {
			return 0, err
		}
		v := fn(nil, nil)
		return value.Sub(v, 0).(float64), nil
	}
	valueFnArg := func(i int) (expr.Fn, error) {
		if i >= len(call.Args) {
			return nil, fmt.Errorf("window %q: missing value_fn argument %d", call.Func, i)
		}
		return expr.Compile(call.Args[i])
	}

	switch call.Func {
	case "tumbling_window", "count_window":
		size, err := constArg(0)
		if err != nil {
			return nil, nil, err
		}
		return func() Window { return newTumblingCount(int(size)) }, nil, nil

	case "tumbling_window_by":
		size, err := constArg(0)
		if err != nil {
			return nil, nil, err
		}
		vfn, err := valueFnArg(1)
		if err != nil {
			return nil, nil, err
		}
		return func() Window { return newTumblingValue(size) }, vfn, nil

	case "hopping_window":
		size, err := constArg(0)
		if err != nil {
			return nil, nil, err
		}
		hop, err := constArg(1)
		if err != nil {
			return nil, nil, err
		}
		return func() Window { return newHoppingCount(int(size), int(hop)) }, nil, nil

	case "hopping_window_by":
		size, err := constArg(0)
		if err != nil {
			return nil, nil, err
		}
		hop, err := constArg(1)
		if err != nil {
			return nil, nil, err
		}
		vfn, err := valueFnArg(2)
		if err != nil {
			return nil, nil, err
		}
		return func() Window { return newHoppingValue(size, hop) }, vfn, nil

	case "sliding_window":
		size, err := constArg(0)
		if err != nil {
			return nil, nil, err
		}
		return func() Window { return newSlidingCount(int(size)) }, nil, nil

	case "sliding_window_by":
		size, err := constArg(0)
		if err != nil {
			return nil, nil, err
		}
		vfn, err := valueFnArg(1)
		if err != nil {
			return nil, nil, err
		}
		return func() Window { return newSlidingValue(size) }, vfn, nil

	case "session_window":
		timeout, err := constArg(0)
		if err != nil {
			return nil, nil, err
		}
		vfn, err := valueFnArg(1)
		if err != nil {
			return nil, nil, err
		}
		return func() Window { return newSessionWindow(timeout) }, vfn, nil

	default:
		return nil, nil, &UnsupportedWindowError{Name: call.Func}
	}
}
