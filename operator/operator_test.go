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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/flowdsl/aggregator"
	"github.com/rulego/flowdsl/expr"
	"github.com/rulego/flowdsl/lang"
	"github.com/rulego/flowdsl/value"
	"github.com/rulego/flowdsl/window"
)

func parsePipeline(t *testing.T, src string) *lang.Pipeline {
	t.Helper()
	prog, err := lang.Parse(src)
	require.NoError(t, err)
	return prog.Statements[0].(*lang.Pipeline)
}

func compileExpr(t *testing.T, e lang.Expr) expr.Fn {
	t.Helper()
	fn, err := expr.Compile(e)
	require.NoError(t, err)
	return fn
}

func TestFilterForwardsOnlyTruthy(t *testing.T) {
	pipe := parsePipeline(t, `p | where amount > 10`)
	cond := compileExpr(t, pipe.Operations[0].(*lang.WhereOp).Cond)
	f := NewFilter(cond)

	var out []value.Record
	f.Process(value.Map{"amount": 5.0}, func(r value.Record) { out = append(out, r) })
	f.Process(value.Map{"amount": 20.0}, func(r value.Record) { out = append(out, r) })
	require.Len(t, out, 1)
	assert.Equal(t, 20.0, out[0].(value.Map)["amount"])
}

func TestSelectStripsAndRenames(t *testing.T) {
	pipe := parsePipeline(t, `p | select { name, total: amount }`)
	proj := compileExpr(t, &lang.ObjectExpr{Object: pipe.Operations[0].(*lang.SelectOp).Object})
	s := NewSelect(proj)

	var out value.Record
	s.Process(value.Map{"name": "x", "amount": 7.0, "secret": true}, func(r value.Record) { out = r })
	m := out.(value.Map)
	assert.Equal(t, "x", m["name"])
	assert.Equal(t, 7.0, m["total"])
	_, hasSecret := m["secret"]
	assert.False(t, hasSecret)
}

func TestScanCumulativeSum(t *testing.T) {
	pipe := parsePipeline(t, `p | scan(
		step cumSum: true => cumSum.cumulative_x = iff(cumSum.cumulative_x, cumSum.cumulative_x + x, x), emit({input: x, cumulative: cumSum.cumulative_x});
	)`)
	scanOp := pipe.Operations[0].(*lang.ScanOp)
	var steps []ScanStep
	for _, st := range scanOp.Steps {
		cond := compileExpr(t, st.Condition)
		var body []ScanStmt
		for _, stmt := range st.Body {
			switch s := stmt.(type) {
			case *lang.AssignStmt:
				body = append(body, ScanStmt{Path: s.Path, Value: compileExpr(t, s.Expr)})
			case *lang.EmitStmt:
				body = append(body, ScanStmt{IsEmit: true, Value: compileExpr(t, s.Expr)})
			}
		}
		steps = append(steps, ScanStep{Name: st.Name, Cond: cond, Body: body})
	}
	scan := NewScan(steps)

	var out []value.Record
	emit := func(r value.Record) { out = append(out, r) }
	scan.Process(value.Map{"x": 1.0}, emit)
	scan.Process(value.Map{"x": 2.0}, emit)
	scan.Process(value.Map{"x": 3.0}, emit)

	require.Len(t, out, 3)
	assert.Equal(t, 1.0, out[0].(value.Map)["cumulative"])
	assert.Equal(t, 3.0, out[1].(value.Map)["cumulative"])
	assert.Equal(t, 6.0, out[2].(value.Map)["cumulative"])
}

func TestScanBareAssignmentIsRowLocalNotPersisted(t *testing.T) {
	pipe := parsePipeline(t, `p | scan(
		step mark: true => tripled = x * 3, emit({input: x, tripled: tripled, seen_before: mem.seen});
		step remember: true => mem.seen = x;
	)`)
	scanOp := pipe.Operations[0].(*lang.ScanOp)
	var steps []ScanStep
	for _, st := range scanOp.Steps {
		cond := compileExpr(t, st.Condition)
		var body []ScanStmt
		for _, stmt := range st.Body {
			switch s := stmt.(type) {
			case *lang.AssignStmt:
				body = append(body, ScanStmt{Path: s.Path, Value: compileExpr(t, s.Expr)})
			case *lang.EmitStmt:
				body = append(body, ScanStmt{IsEmit: true, Value: compileExpr(t, s.Expr)})
			}
		}
		steps = append(steps, ScanStep{Name: st.Name, Cond: cond, Body: body})
	}
	scan := NewScan(steps)

	var out []value.Record
	emit := func(r value.Record) { out = append(out, r) }
	scan.Process(value.Map{"x": 2.0}, emit)
	scan.Process(value.Map{"x": 5.0}, emit)

	require.Len(t, out, 2)
	// tripled (bare assignment) is visible to the emit statement within the
	// same row...
	assert.Equal(t, 6.0, out[0].(value.Map)["tripled"])
	// ...but never persists: row two's "mem.seen" (a dotted, persisted path)
	// correctly carries the value from row one, proving the state bag still
	// works, while "tripled" is recomputed fresh rather than leaking.
	assert.Equal(t, 2.0, out[1].(value.Map)["seen_before"])
	assert.Equal(t, 15.0, out[1].(value.Map)["tripled"])
}

func buildSummarizeWindow(t *testing.T, src string) *Summarize {
	t.Helper()
	pipe := parsePipeline(t, src)
	sum := pipe.Operations[0].(*lang.SummarizeOp)
	plan, err := aggregator.Compile(sum.Aggregates)
	require.NoError(t, err)
	var groupFns []expr.Fn
	for _, g := range sum.GroupBy {
		groupFns = append(groupFns, compileExpr(t, g))
	}
	factory, valueFn, err := window.Compile(sum.Window)
	require.NoError(t, err)
	sliding := sum.Window.Func == "sliding_window" || sum.Window.Func == "sliding_window_by"
	varName := sum.WindowVar
	return NewSummarizeWindow(groupFns, plan, varName, factory, valueFn, sum.Window.Func, sliding)
}

func TestSummarizeTumblingWindowByGroup(t *testing.T) {
	s := buildSummarizeWindow(t, `p | summarize { total: sum(amount), count: count() } by product over w = tumbling_window(2)`)

	var out []value.Record
	emit := func(r value.Record) { out = append(out, r) }
	s.Process(value.Map{"product": "x", "amount": 1.0}, emit)
	s.Process(value.Map{"product": "x", "amount": 2.0}, emit)
	s.Process(value.Map{"product": "y", "amount": 3.0}, emit)
	s.Process(value.Map{"product": "y", "amount": 4.0}, emit)

	require.Len(t, out, 2)
	byKey := map[string]value.Map{}
	for _, r := range out {
		m := r.(value.Map)
		byKey[m["group_key"].(string)] = m
	}
	assert.Equal(t, 3.0, byKey["x"]["total"])
	assert.Equal(t, 2.0, byKey["x"]["count"])
	assert.Equal(t, 7.0, byKey["y"]["total"])
	assert.Equal(t, 2.0, byKey["y"]["count"])
}

func TestSummarizeWindowFlushEmitsPartial(t *testing.T) {
	s := buildSummarizeWindow(t, `p | summarize { count: count() } over w = tumbling_window(5)`)

	var out []value.Record
	emit := func(r value.Record) { out = append(out, r) }
	s.Process(value.Map{}, emit)
	s.Process(value.Map{}, emit)
	assert.Empty(t, out)

	s.Flush(emit)
	require.Len(t, out, 1)
	assert.Equal(t, 2.0, out[0].(value.Map)["count"])
}

func TestSummarizeSlidingWindowReplaysBufferedRange(t *testing.T) {
	s := buildSummarizeWindow(t, `p | summarize { total: sum(amount) } over w = sliding_window(2)`)

	var out []value.Record
	emit := func(r value.Record) { out = append(out, r) }
	s.Process(value.Map{"amount": 1.0}, emit)
	s.Process(value.Map{"amount": 2.0}, emit)
	s.Process(value.Map{"amount": 3.0}, emit)

	require.Len(t, out, 3)
	assert.Equal(t, 1.0, out[0].(value.Map)["total"])
	assert.Equal(t, 3.0, out[1].(value.Map)["total"])
	assert.Equal(t, 5.0, out[2].(value.Map)["total"])
}

func buildSummarizeEmit(t *testing.T, src string) *Summarize {
	t.Helper()
	pipe := parsePipeline(t, src)
	sum := pipe.Operations[0].(*lang.SummarizeOp)
	plan, err := aggregator.Compile(sum.Aggregates)
	require.NoError(t, err)
	var groupFns []expr.Fn
	for _, g := range sum.GroupBy {
		groupFns = append(groupFns, compileExpr(t, g))
	}
	policy := &EmitPolicy{Kind: sum.Emit.Kind}
	if sum.Emit.N != nil {
		fn := compileExpr(t, sum.Emit.N)
		policy.N = fn(nil, nil).(float64)
	}
	if sum.Emit.Using != nil {
		policy.Axis = compileExpr(t, sum.Emit.Using)
	}
	if sum.Emit.Cond != nil {
		policy.Cond = compileExpr(t, sum.Emit.Cond)
	}
	if sum.Emit.Value != nil {
		policy.Value = compileExpr(t, sum.Emit.Value)
	}
	return NewSummarizeEmit(groupFns, plan, policy)
}

func TestSummarizeEmitEveryCount(t *testing.T) {
	s := buildSummarizeEmit(t, `p | summarize { count: count() } emit every 2`)

	var out []value.Record
	emit := func(r value.Record) { out = append(out, r) }
	s.Process(value.Map{}, emit) // first record always emits
	s.Process(value.Map{}, emit) // not yet 2 since last emit
	s.Process(value.Map{}, emit) // 2 since last emit -> triggers

	require.Len(t, out, 2)
	assert.Equal(t, 1.0, out[0].(value.Map)["count"])
	assert.Equal(t, 3.0, out[1].(value.Map)["count"])
}

func TestSummarizeEmitOnChange(t *testing.T) {
	s := buildSummarizeEmit(t, `p | summarize { count: count() } emit on change status`)

	var out []value.Record
	emit := func(r value.Record) { out = append(out, r) }
	s.Process(value.Map{"status": "a"}, emit)
	s.Process(value.Map{"status": "a"}, emit)
	s.Process(value.Map{"status": "b"}, emit)

	require.Len(t, out, 2)
}

func TestSummarizeEmitOnGroupChange(t *testing.T) {
	s := buildSummarizeEmit(t, `p | summarize { count: count() } by product emit on group change`)

	var out []value.Record
	emit := func(r value.Record) { out = append(out, r) }
	s.Process(value.Map{"product": "x"}, emit)
	s.Process(value.Map{"product": "x"}, emit)
	s.Process(value.Map{"product": "y"}, emit)

	require.Len(t, out, 2)
}

func TestSummarizeEmitOnUpdate(t *testing.T) {
	s := buildSummarizeEmit(t, `p | summarize { count: count() } emit on update`)

	var out []value.Record
	emit := func(r value.Record) { out = append(out, r) }
	s.Process(value.Map{}, emit)
	s.Process(value.Map{}, emit)

	require.Len(t, out, 2)
	assert.Equal(t, 2.0, out[1].(value.Map)["count"])
}

type fakePublisher struct {
	calls []string
	err   error
}

func (f *fakePublisher) Publish(stream string, _ value.Record) error {
	f.calls = append(f.calls, stream)
	return f.err
}

func TestInsertIntoTeesAndForwardsDespiteError(t *testing.T) {
	pub := &fakePublisher{err: assert.AnError}
	var errs []error
	n := NewInsertInto("alerts", pub)
	n.OnError = func(err error) { errs = append(errs, err) }

	var out value.Record
	n.Process(value.Map{"x": 1.0}, func(r value.Record) { out = r })

	assert.Equal(t, []string{"alerts"}, pub.calls)
	require.Len(t, errs, 1)
	require.NotNil(t, out)
}

func TestCollectInvokesCallback(t *testing.T) {
	var got value.Record
	c := NewCollect(func(r value.Record) { got = r })
	c.Process(value.Map{"x": 1.0}, nil)
	assert.Equal(t, value.Map{"x": 1.0}, got)
}

func TestPipelinePushFlushFinish(t *testing.T) {
	pred := func(item, _ value.Record) value.Record { return value.Truthy(value.GetField(item, "ok")) }
	var collected []value.Record
	pipe := New([]Node{
		NewFilter(pred),
		NewCollect(func(r value.Record) { collected = append(collected, r) }),
	})

	pipe.Push(value.Map{"ok": true})
	pipe.Push(value.Map{"ok": false})
	require.Len(t, collected, 1)

	pipe.Flush()
	pipe.Finish()
}
