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

import "github.com/rulego/flowdsl/value"

// Publisher is the narrow registry capability InsertInto needs: publish one
// record to a named stream. Defined here, rather than imported from the
// registry package, so operator has no dependency on stream bookkeeping.
type Publisher interface {
	Publish(stream string, rec value.Record) error
}

// InsertInto tees every record to Target via Publisher and forwards it
// downstream unchanged regardless of publish outcome (§4.7: publish errors
// never interrupt the pipeline, they are only observable through OnError).
type InsertInto struct {
	BaseNode
	Target    string
	Publisher Publisher
	OnError   func(error) // optional; defaults to a no-op below
}

func NewInsertInto(target string, pub Publisher) *InsertInto {
	return &InsertInto{Target: target, Publisher: pub}
}

func (n *InsertInto) Process(item value.Record, emit func(value.Record)) {
	if n.Publisher != nil {
		if err := n.Publisher.Publish(n.Target, item); err != nil && n.OnError != nil {
			n.OnError(err)
		}
	}
	emit(item)
}

// Collect is a terminal node used by embedders and tests: it invokes a Go
// callback for every record instead of handing it to another Node.
type Collect struct {
	BaseNode
	OnRecord func(value.Record)
}

func NewCollect(onRecord func(value.Record)) *Collect {
	return &Collect{OnRecord: onRecord}
}

func (n *Collect) Process(item value.Record, _ func(value.Record)) {
	if n.OnRecord != nil {
		n.OnRecord(item)
	}
}
