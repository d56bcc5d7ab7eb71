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
	"github.com/rulego/flowdsl/aggregator"
	"github.com/rulego/flowdsl/expr"
	"github.com/rulego/flowdsl/lang"
	"github.com/rulego/flowdsl/value"
	"github.com/rulego/flowdsl/window"
)

// EmitPolicy is the compiled form of one of the five mutually-exclusive
// emit-policy variants of §4.6, carried instead of a Window when the
// pipeline author wrote `emit ...` rather than `over NAME = window_fn(...)`.
type EmitPolicy struct {
	Kind  lang.EmitKind
	N     float64 // EmitEvery: count or value-axis step
	Axis  expr.Fn // EmitEvery "using" value_fn; nil means count-based
	Cond  expr.Fn // EmitWhen
	Value expr.Fn // EmitOnChange
}

// Summarize groups records by GroupKeyFns and finalizes aggregate bags
// either at window boundaries (WindowFactory != nil) or at emit-policy
// triggers (Policy != nil); exactly one of the two is set (§4.6).
type Summarize struct {
	BaseNode

	GroupKeyFns []expr.Fn
	Plan        *aggregator.Plan
	WindowVar   string

	// Window mode.
	WindowFactory window.Factory
	WindowValueFn expr.Fn // nil for count-based windows
	WindowType    string  // the window_call function name, carried into the emitted window var
	Sliding       bool    // true for sliding_window(_by): closes are replayed from a buffer, not accumulated

	// Emit-policy mode.
	Policy *EmitPolicy

	windowGroups map[string]*windowGroupState
	policyGroups map[string]*policyGroupState

	groupChangeSeen  bool
	lastGroupKeyText string
}

func NewSummarizeWindow(groupKeyFns []expr.Fn, plan *aggregator.Plan, windowVar string, factory window.Factory, valueFn expr.Fn, windowType string, sliding bool) *Summarize {
	return &Summarize{
		GroupKeyFns:   groupKeyFns,
		Plan:          plan,
		WindowVar:     windowVar,
		WindowFactory: factory,
		WindowValueFn: valueFn,
		WindowType:    windowType,
		Sliding:       sliding,
		windowGroups:  map[string]*windowGroupState{},
	}
}

func NewSummarizeEmit(groupKeyFns []expr.Fn, plan *aggregator.Plan, policy *EmitPolicy) *Summarize {
	return &Summarize{
		GroupKeyFns:  groupKeyFns,
		Plan:         plan,
		Policy:       policy,
		policyGroups: map[string]*policyGroupState{},
	}
}

func (s *Summarize) groupKey(item value.Record) (value.Record, string) {
	if len(s.GroupKeyFns) == 0 {
		return nil, ""
	}
	if len(s.GroupKeyFns) == 1 {
		v := s.GroupKeyFns[0](item, nil)
		return v, value.String(v)
	}
	list := make(value.List, len(s.GroupKeyFns))
	for i, fn := range s.GroupKeyFns {
		list[i] = fn(item, nil)
	}
	return list, value.String(list)
}

func numericAxis(v value.Record) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return value.Sub(v, 0).(float64)
}

// --- window mode -------------------------------------------------------

type windowGroupState struct {
	win    window.Window
	keyVal value.Record
	seq    int
	bags   map[window.ID]*aggregator.Bag
	buffer []value.Record // populated only when Sliding
}

func (s *Summarize) Process(item value.Record, emit func(value.Record)) {
	if s.Policy != nil {
		s.processPolicy(item, emit)
		return
	}
	s.processWindow(item, emit)
}

func (s *Summarize) processWindow(item value.Record, emit func(value.Record)) {
	keyVal, keyText := s.groupKey(item)
	gs := s.windowGroups[keyText]
	if gs == nil {
		gs = &windowGroupState{win: s.WindowFactory(), keyVal: keyVal, bags: map[window.ID]*aggregator.Bag{}}
		s.windowGroups[keyText] = gs
	}

	val := 0.0
	if s.WindowValueFn != nil {
		val = numericAxis(s.WindowValueFn(item, nil))
	}
	seq := gs.seq
	gs.seq++
	if s.Sliding {
		gs.buffer = append(gs.buffer, item)
	}

	ids, closed := gs.win.Assign(seq, val)
	if !s.Sliding {
		for _, id := range ids {
			bag := gs.bags[id]
			if bag == nil {
				bag = s.Plan.NewBag()
				gs.bags[id] = bag
			}
			bag.Add(item)
		}
	}
	for _, id := range closed {
		s.closeWindow(gs, id, emit)
	}
}

func (s *Summarize) closeWindow(gs *windowGroupState, id window.ID, emit func(value.Record)) {
	var bag *aggregator.Bag
	if s.Sliding {
		bag = s.Plan.NewBag()
		start, end := gs.win.Bounds(id)
		if s.WindowValueFn != nil {
			// Value-based bounds lie on the value axis, not buffer
			// indices: replay every buffered record in (start, end].
			lo, hi := numericAxis(start), numericAxis(end)
			for _, rec := range gs.buffer {
				if v := numericAxis(s.WindowValueFn(rec, nil)); v > lo && v <= hi {
					bag.Add(rec)
				}
			}
		} else {
			lo, hi := int(numericAxis(start)), int(numericAxis(end))
			for i := lo; i <= hi; i++ {
				if i >= 0 && i < len(gs.buffer) {
					bag.Add(gs.buffer[i])
				}
			}
		}
	} else {
		var ok bool
		bag, ok = gs.bags[id]
		if !ok {
			return
		}
		delete(gs.bags, id)
	}
	out := bag.Finalize()
	if len(s.GroupKeyFns) > 0 {
		out["group_key"] = gs.keyVal
	}
	start, end := gs.win.Bounds(id)
	idOut := id
	if n, isInt := id.(int); isInt {
		idOut = float64(n) // records carry numbers as float64
	}
	winInfo := value.Map{"id": idOut, "type": s.WindowType}
	if !value.IsAbsent(start) {
		winInfo["start"] = start
		winInfo["end"] = end
	}
	out[s.windowVarName()] = winInfo
	emit(out)
}

func (s *Summarize) windowVarName() string {
	if s.WindowVar == "" {
		return "window"
	}
	return s.WindowVar
}

func (s *Summarize) Flush(emit func(value.Record)) {
	if s.Policy != nil {
		for _, gs := range s.policyGroups {
			emit(s.finalizePolicy(gs))
		}
		return
	}
	for _, gs := range s.windowGroups {
		for _, id := range gs.win.Flush() {
			s.closeWindow(gs, id, emit)
		}
	}
}

// --- emit-policy mode ----------------------------------------------------

type policyGroupState struct {
	bag        *aggregator.Bag
	keyVal     value.Record
	keyText    string
	sinceCount int
	lastAxis   float64
	hasAxis    bool
	lastChange value.Record
	hasChange  bool
}

func (s *Summarize) finalizePolicy(gs *policyGroupState) value.Record {
	out := gs.bag.Finalize()
	if len(s.GroupKeyFns) > 0 {
		out["group_key"] = gs.keyVal
	}
	return out
}

func (s *Summarize) processPolicy(item value.Record, emit func(value.Record)) {
	keyVal, keyText := s.groupKey(item)
	gs := s.policyGroups[keyText]
	first := gs == nil
	if first {
		gs = &policyGroupState{bag: s.Plan.NewBag(), keyVal: keyVal, keyText: keyText}
		s.policyGroups[keyText] = gs
	}
	gs.bag.Add(item)

	trigger := false
	switch s.Policy.Kind {
	case lang.EmitEvery:
		axis := float64(gs.sinceCount + 1)
		if s.Policy.Axis != nil {
			axis = numericAxis(s.Policy.Axis(item, nil))
		}
		if first {
			trigger = true
			gs.lastAxis, gs.hasAxis = axis, true
			gs.sinceCount = 0
		} else if s.Policy.Axis != nil {
			if axis-gs.lastAxis >= s.Policy.N {
				trigger = true
				gs.lastAxis = axis
			}
		} else {
			gs.sinceCount++
			if float64(gs.sinceCount) >= s.Policy.N {
				trigger = true
				gs.sinceCount = 0
			}
		}
	case lang.EmitWhen:
		trigger = value.Truthy(s.Policy.Cond(item, nil))
	case lang.EmitOnChange:
		cur := s.Policy.Value(item, nil)
		if !gs.hasChange || !value.DeepEqual(cur, gs.lastChange) {
			trigger = true
			gs.lastChange, gs.hasChange = cur, true
		}
	case lang.EmitOnGroupChange:
		if !s.groupChangeSeen || s.lastGroupKeyText != keyText {
			trigger = true
		}
		s.groupChangeSeen = true
		s.lastGroupKeyText = keyText
	case lang.EmitOnUpdate:
		trigger = true
	}

	if trigger {
		emit(s.finalizePolicy(gs))
	}
}
