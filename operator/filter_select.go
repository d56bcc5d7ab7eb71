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

// Filter forwards item unchanged iff pred(item) is truthy (§4.3).
type Filter struct {
	BaseNode
	Pred expr.Fn
}

func NewFilter(pred expr.Fn) *Filter { return &Filter{Pred: pred} }

func (f *Filter) Process(item value.Record, emit func(value.Record)) {
	if value.Truthy(f.Pred(item, nil)) {
		emit(item)
	}
}

// Select projects item through Project (built by expr.CompileObject),
// implementing both `select {...}` and its legacy alias `project {...}`.
type Select struct {
	BaseNode
	Project expr.Fn
}

func NewSelect(project expr.Fn) *Select { return &Select{Project: project} }

func (s *Select) Process(item value.Record, emit func(value.Record)) {
	emit(s.Project(item, nil))
}
