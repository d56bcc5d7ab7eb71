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

package operator

import (
	"github.com/rulego/flowdsl/expr"
	"github.com/rulego/flowdsl/value"
)

// ScanStmt is one compiled statement in a scan step body: either an
// assignment into the step's state bag, or an emission.
type ScanStmt struct {
	IsEmit bool
	Path   []string // set when !IsEmit
	Value  expr.Fn
}

// ScanStep is one compiled `step NAME: cond => body` clause.
type ScanStep struct {
	Name string
	Cond expr.Fn
	Body []ScanStmt
}

// Scan maintains one state bag across the lifetime of the pipeline and
// runs every step, in order, against each incoming row (§4.5). A row may
// trigger zero, one, or several steps, and each triggered step may emit
// zero or more records; all emissions preserve
// (row-arrival-index, step-index) order because steps run synchronously
// in a single Process call.
type Scan struct {
	BaseNode
	Steps []ScanStep
	state value.Map
}

func NewScan(steps []ScanStep) *Scan {
	return &Scan{Steps: steps, state: value.Map{}}
}

// Process runs every step against item. A bare single-segment assignment
// (`var = expr;`) is row-local: visible to later steps within this same
// call, discarded before the next item. A dotted path persists into the
// step-lifetime state bag. row starts as a shallow copy of the persisted
// state so conditions and expressions see both kinds of variable through
// the same lookup.
func (s *Scan) Process(item value.Record, emit func(value.Record)) {
	row := make(value.Map, len(s.state))
	for k, v := range s.state {
		row[k] = v
	}
	for _, step := range s.Steps {
		if !value.Truthy(step.Cond(item, row)) {
			continue
		}
		for _, stmt := range step.Body {
			if stmt.IsEmit {
				emit(stmt.Value(item, row))
				continue
			}
			v := stmt.Value(item, row)
			if len(stmt.Path) == 1 {
				row[stmt.Path[0]] = v
				continue
			}
			assignPath(s.state, stmt.Path, v)
			row[stmt.Path[0]] = s.state[stmt.Path[0]]
		}
	}
}

func assignPath(state value.Map, path []string, v value.Record) {
	m := state
	for i := 0; i < len(path)-1; i++ {
		key := path[i]
		next, ok := m[key].(value.Map)
		if !ok {
			next = value.Map{}
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = v
}
