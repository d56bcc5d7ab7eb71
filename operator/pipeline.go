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

// Node is one pipeline stage. Process may call emit zero or more times
// (Scan: 0..n; Summarize: 0..n at window/emit-policy triggers; everything
// else: 0 or 1). Flush and Finish have no-op defaults via BaseNode.
type Node interface {
	Process(item value.Record, emit func(value.Record))
	Flush(emit func(value.Record))
	Finish()
}

// BaseNode supplies no-op Flush/Finish so concrete nodes only implement
// what they need, in the shape of the teacher's BaseOp embedding.
type BaseNode struct{}

func (BaseNode) Flush(func(value.Record)) {}
func (BaseNode) Finish()                  {}

// Pipeline is an ordered chain of Nodes (§3 "Pipeline"). push/flush/finish
// are the only entry points; internally it always walks the node list
// head-to-tail, so no node needs a pointer to its neighbor.
type Pipeline struct {
	nodes []Node
}

// New builds a Pipeline over nodes, head first.
func New(nodes []Node) *Pipeline {
	return &Pipeline{nodes: nodes}
}

// Push drives one record through the full chain synchronously.
func (p *Pipeline) Push(rec value.Record) {
	p.feed(0, rec)
}

func (p *Pipeline) feed(idx int, rec value.Record) {
	if idx >= len(p.nodes) {
		return
	}
	p.nodes[idx].Process(rec, func(out value.Record) {
		p.feed(idx+1, out)
	})
}

// Flush finalizes every node's open state (windows, bags) head-to-tail,
// so a record a node's Flush emits still passes through the remaining
// downstream nodes before Flush returns (§4.6).
func (p *Pipeline) Flush() {
	for idx, n := range p.nodes {
		n.Flush(func(out value.Record) {
			p.feed(idx+1, out)
		})
	}
}

// Finish releases every node's resources (timers, open windows) when the
// owning flow stops.
func (p *Pipeline) Finish() {
	for _, n := range p.nodes {
		n.Finish()
	}
}
