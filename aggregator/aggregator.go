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

// Package aggregator implements the summarize operator's aggregate
// functions (§4.6) — count/sum at minimum — plus a registry implementers
// can extend, and post-aggregation fields that reference another field's
// finalized value (e.g. `avg: total / count`).
package aggregator

import "github.com/rulego/flowdsl/value"

// Aggregator accumulates one output field of a summarize bag.
type Aggregator interface {
	Add(v value.Record)
	Result() value.Record
}

// Ctor builds a fresh Aggregator instance; bags need a fresh instance per
// group/window rather than a shared one.
type Ctor func() Aggregator

var registry = map[string]Ctor{
	"count": func() Aggregator { return &countAgg{} },
	"sum":   func() Aggregator { return &sumAgg{} },
}

// Register adds a custom aggregator constructor to the global registry.
func Register(name string, ctor Ctor) {
	registry[name] = ctor
}

// Lookup returns the constructor for name, or (nil, false) if name is not
// a registered aggregate function.
func Lookup(name string) (Ctor, bool) {
	ctor, ok := registry[name]
	return ctor, ok
}

type countAgg struct{ n int }

func (a *countAgg) Add(value.Record) { a.n++ }
func (a *countAgg) Result() value.Record { return float64(a.n) }

type sumAgg struct{ total float64 }

func (a *sumAgg) Add(v value.Record) { a.total = value.Add(a.total, v).(float64) }
func (a *sumAgg) Result() value.Record { return a.total }
