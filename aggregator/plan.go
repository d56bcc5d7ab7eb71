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

package aggregator

import (
	"github.com/rulego/flowdsl/expr"
	"github.com/rulego/flowdsl/lang"
	"github.com/rulego/flowdsl/value"
)

type fieldKind int

const (
	fieldAggregate fieldKind = iota
	fieldPostAggregation
)

type field struct {
	key  string
	kind fieldKind

	ctor  Ctor    // fieldAggregate
	argFn expr.Fn // fieldAggregate, nil for zero-arg aggregates like count()

	postFn expr.Fn // fieldPostAggregation
}

// Plan is a compiled summarize aggregate-object: the field list plus
// enough to build fresh per-group Bags.
type Plan struct {
	fields []field
}

// Compile lowers a summarize aggregate object literal. A key-value
// property whose value is a call to a registered aggregate function
// (count, sum, ...) becomes an aggregate field; any other expression is a
// post-aggregation field, evaluated once per bag finalize against the
// aggregate fields already computed (so `avg: total / count` can refer to
// sibling fields by name, a supplement beyond the minimum aggregate set).
func Compile(obj *lang.ObjectLiteral) (*Plan, error) {
	p := &Plan{}
	for _, prop := range obj.Properties {
		if prop.Kind != lang.PropKeyValue && prop.Kind != lang.PropShorthand {
			// Spread/exclusion forms are meaningless over an aggregate
			// output; they are skipped here and not rejected anywhere.
			continue
		}
		key := prop.Key
		if call, ok := prop.Value.(*lang.CallExpr); ok {
			if ctor, isAgg := Lookup(call.Name); isAgg {
				var argFn expr.Fn
				if len(call.Args) > 0 {
					fn, err := expr.Compile(call.Args[0])
					if err != nil {
						return nil, err
					}
					argFn = fn
				}
				p.fields = append(p.fields, field{key: key, kind: fieldAggregate, ctor: ctor, argFn: argFn})
				continue
			}
		}
		fn, err := expr.Compile(prop.Value)
		if err != nil {
			return nil, err
		}
		p.fields = append(p.fields, field{key: key, kind: fieldPostAggregation, postFn: fn})
	}
	return p, nil
}

// Bag is one group/window's live aggregation state.
type Bag struct {
	plan *Plan
	aggs []Aggregator // parallel to plan.fields, nil entries for post-agg fields
}

// NewBag creates a fresh Bag with new aggregator instances.
func (p *Plan) NewBag() *Bag {
	b := &Bag{plan: p, aggs: make([]Aggregator, len(p.fields))}
	for i, f := range p.fields {
		if f.kind == fieldAggregate {
			b.aggs[i] = f.ctor()
		}
	}
	return b
}

// Reset replaces every aggregator with a fresh instance, used by sliding
// windows which recompute each bag from a buffered record range.
func (b *Bag) Reset() {
	for i, f := range b.plan.fields {
		if f.kind == fieldAggregate {
			b.aggs[i] = f.ctor()
		}
	}
}

// Add feeds one record into every aggregate field.
func (b *Bag) Add(record value.Record) {
	for i, f := range b.plan.fields {
		if f.kind != fieldAggregate {
			continue
		}
		var arg value.Record = record
		if f.argFn != nil {
			arg = f.argFn(record, nil)
		}
		b.aggs[i].Add(arg)
	}
}

// Finalize computes every output field, in declaration order, so that
// post-aggregation fields can see already-finalized sibling values.
func (b *Bag) Finalize() value.Map {
	out := value.Map{}
	for i, f := range b.plan.fields {
		switch f.kind {
		case fieldAggregate:
			out[f.key] = b.aggs[i].Result()
		case fieldPostAggregation:
			out[f.key] = f.postFn(out, nil)
		}
	}
	return out
}
