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

// Package plan lowers a parsed pipeline (lang.Pipeline) into a runnable
// operator.Pipeline (§4.3): it compiles every expression and object
// literal it finds, resolves aggregator and window function names, and
// validates that the source stream and every insert_into target are
// streams the caller's registry actually knows about. Any failure aborts
// lowering with a *Error rather than building a partially-wired pipeline.
package plan

import (
	"fmt"

	"github.com/rulego/flowdsl/aggregator"
	"github.com/rulego/flowdsl/expr"
	"github.com/rulego/flowdsl/lang"
	"github.com/rulego/flowdsl/operator"
	"github.com/rulego/flowdsl/window"
)

// Error wraps a lowering failure with the stage that produced it.
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("plan: %s: %v", e.Stage, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// StreamNotFoundError is raised when a pipeline references a stream the
// registry does not know about (source or insert_into target), per §4.3's
// "undeclared streams abort lowering" requirement.
type StreamNotFoundError struct{ Name string }

func (e *StreamNotFoundError) Error() string { return fmt.Sprintf("stream %q not found", e.Name) }

// Options configures lowering.
type Options struct {
	// StreamExists reports whether name is a currently registered stream.
	// When set, Compile rejects an unknown source or insert_into target;
	// when nil, Compile does not check stream existence.
	StreamExists func(name string) bool
	// Publisher backs every InsertInto node's tee (§4.7). May be nil if
	// the pipeline provably contains no insert_into operation, but a nil
	// Publisher with an insert_into present is a caller bug, not a plan
	// error: the node will simply skip publishing.
	Publisher operator.Publisher
}

// Plan is the lowered, ready-to-run form of one pipeline.
type Plan struct {
	Pipeline *operator.Pipeline
	// Collects holds every Collect node created from a `collect()` stage,
	// in textual order, so the caller can attach OnRecord callbacks.
	Collects []*operator.Collect
}

// Compile lowers pipeline into a Plan.
func Compile(pipeline *lang.Pipeline, opts Options) (*Plan, error) {
	if opts.StreamExists != nil && !opts.StreamExists(pipeline.Source) {
		return nil, &Error{Stage: "source", Err: &StreamNotFoundError{Name: pipeline.Source}}
	}

	p := &Plan{}
	var nodes []operator.Node
	for i, op := range pipeline.Operations {
		node, err := lowerOperation(op, opts, p)
		if err != nil {
			return nil, &Error{Stage: fmt.Sprintf("operation[%d]", i), Err: err}
		}
		nodes = append(nodes, node)
	}
	p.Pipeline = operator.New(nodes)
	return p, nil
}

func lowerOperation(op lang.Operation, opts Options, p *Plan) (operator.Node, error) {
	switch n := op.(type) {
	case *lang.WhereOp:
		cond, err := expr.Compile(n.Cond)
		if err != nil {
			return nil, err
		}
		return operator.NewFilter(cond), nil

	case *lang.SelectOp:
		proj, err := expr.CompileObject(n.Object)
		if err != nil {
			return nil, err
		}
		return operator.NewSelect(proj), nil

	case *lang.ScanOp:
		return lowerScan(n)

	case *lang.SummarizeOp:
		return lowerSummarize(n)

	case *lang.InsertIntoOp:
		if opts.StreamExists != nil && !opts.StreamExists(n.Target) {
			return nil, &StreamNotFoundError{Name: n.Target}
		}
		return operator.NewInsertInto(n.Target, opts.Publisher), nil

	case *lang.CollectOp:
		c := operator.NewCollect(nil)
		p.Collects = append(p.Collects, c)
		return c, nil

	default:
		return nil, fmt.Errorf("unknown operation %T", op)
	}
}

func lowerScan(n *lang.ScanOp) (operator.Node, error) {
	steps := make([]operator.ScanStep, 0, len(n.Steps))
	for _, st := range n.Steps {
		cond, err := expr.Compile(st.Condition)
		if err != nil {
			return nil, err
		}
		body := make([]operator.ScanStmt, 0, len(st.Body))
		for _, stmt := range st.Body {
			switch s := stmt.(type) {
			case *lang.AssignStmt:
				fn, err := expr.Compile(s.Expr)
				if err != nil {
					return nil, err
				}
				body = append(body, operator.ScanStmt{Path: s.Path, Value: fn})
			case *lang.EmitStmt:
				fn, err := expr.Compile(s.Expr)
				if err != nil {
					return nil, err
				}
				body = append(body, operator.ScanStmt{IsEmit: true, Value: fn})
			}
		}
		steps = append(steps, operator.ScanStep{Name: st.Name, Cond: cond, Body: body})
	}
	return operator.NewScan(steps), nil
}

func lowerSummarize(n *lang.SummarizeOp) (operator.Node, error) {
	plan, err := aggregator.Compile(n.Aggregates)
	if err != nil {
		return nil, err
	}
	groupFns := make([]expr.Fn, 0, len(n.GroupBy))
	for _, g := range n.GroupBy {
		fn, err := expr.Compile(g)
		if err != nil {
			return nil, err
		}
		groupFns = append(groupFns, fn)
	}

	if n.Window != nil {
		factory, valueFn, err := window.Compile(n.Window)
		if err != nil {
			return nil, err
		}
		sliding := n.Window.Func == "sliding_window" || n.Window.Func == "sliding_window_by"
		return operator.NewSummarizeWindow(groupFns, plan, n.WindowVar, factory, valueFn, n.Window.Func, sliding), nil
	}

	policy, err := lowerEmitClause(n.Emit)
	if err != nil {
		return nil, err
	}
	return operator.NewSummarizeEmit(groupFns, plan, policy), nil
}

func lowerEmitClause(ec *lang.EmitClause) (*operator.EmitPolicy, error) {
	if ec == nil {
		return nil, fmt.Errorf("summarize requires either a window or an emit clause")
	}
	policy := &operator.EmitPolicy{Kind: ec.Kind}
	if ec.N != nil {
		fn, err := expr.Compile(ec.N)
		if err != nil {
			return nil, err
		}
		v := fn(nil, nil)
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("emit every: N must be numeric")
		}
		policy.N = f
	}
	if ec.Using != nil {
		fn, err := expr.Compile(ec.Using)
		if err != nil {
			return nil, err
		}
		policy.Axis = fn
	}
	if ec.Cond != nil {
		fn, err := expr.Compile(ec.Cond)
		if err != nil {
			return nil, err
		}
		policy.Cond = fn
	}
	if ec.Value != nil {
		fn, err := expr.Compile(ec.Value)
		if err != nil {
			return nil, err
		}
		policy.Value = fn
	}
	return policy, nil
}
