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

// Package flowdsl is the embeddable streaming-query engine: parse DSL text
// (package lang), lower it to a runnable pipeline (package plan), and run
// it against a stream registry and flow manager (packages registry, flow).
// There is no process-level surface (§6.3); a REPL or CLI is an external
// collaborator that maps commands onto Engine's exported methods.
package flowdsl

import (
	"fmt"
	"sync"
	"time"

	"github.com/rulego/flowdsl/expr"
	"github.com/rulego/flowdsl/flow"
	"github.com/rulego/flowdsl/lang"
	"github.com/rulego/flowdsl/logger"
	"github.com/rulego/flowdsl/registry"
	"github.com/rulego/flowdsl/value"
)

// Engine ties the registry and flow manager together behind the DSL
// command surface.
type Engine struct {
	registry *registry.Registry
	flows    *flow.Manager

	subMu sync.Mutex
	subs  map[int]subscription
}

type subKind int

const (
	subUser subKind = iota
	subGlobal
)

type subscription struct {
	kind subKind
	name string
}

// Option configures an Engine at construction, mirroring the teacher's
// functional-options shape.
type Option func(*Engine)

// WithLogger installs l as the process-wide console logger (the teacher's
// logger package is a global singleton, so this affects every Engine).
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { logger.SetDefault(l) }
}

// WithSanitizePolicy overrides how Absent fields are rendered before
// publish (default: removed).
func WithSanitizePolicy(p value.SanitizePolicy) Option {
	return func(e *Engine) { e.registry.SetSanitizePolicy(p) }
}

// New builds an Engine with the reserved `_log` stream already present and
// wired to the installed logger.
func New(opts ...Option) *Engine {
	e := &Engine{
		registry: registry.New(),
		subs:     map[int]subscription{},
	}
	e.flows = flow.NewManager(e.registry)
	for _, opt := range opts {
		opt(e)
	}
	logger.SetSink(func(rec logger.Record) {
		_ = e.registry.Insert(registry.LogStreamName, logRecordToValue(rec))
	})
	return e
}

func logRecordToValue(rec logger.Record) value.Record {
	m := value.Map{
		"ts":      rec.Ts.Format(time.RFC3339Nano),
		"level":   string(rec.Level),
		"code":    rec.Code,
		"message": rec.Message,
	}
	if rec.Context != nil {
		ctx := value.Map{}
		for k, v := range rec.Context {
			ctx[k] = v
		}
		m["context"] = ctx
	}
	return m
}

// Execute parses src as a single statement and runs it.
func (e *Engine) Execute(src string) Result {
	prog, err := lang.Parse(src)
	if err != nil {
		return fail(err)
	}
	if len(prog.Statements) == 0 {
		return ok(nil)
	}
	return e.executeStatement(prog.Statements[0])
}

// ExecuteAll parses src as a `;`-separated program and runs every
// statement in order, stopping at the first failure.
func (e *Engine) ExecuteAll(src string) []Result {
	prog, err := lang.Parse(src)
	if err != nil {
		return []Result{fail(err)}
	}
	results := make([]Result, 0, len(prog.Statements))
	for _, stmt := range prog.Statements {
		r := e.executeStatement(stmt)
		results = append(results, r)
		if !r.Success {
			break
		}
	}
	return results
}

func (e *Engine) executeStatement(stmt lang.Statement) Result {
	switch st := stmt.(type) {
	case *lang.CreateStreamStmt:
		if err := e.registry.Create(st.Name, mapPolicy(st.Policy)); err != nil {
			return fail(err)
		}
		return ok(st.Name)

	case *lang.DeleteStreamStmt:
		if err := e.registry.Delete(st.Name); err != nil {
			return fail(err)
		}
		return ok(st.Name)

	case *lang.CreateFlowStmt:
		var ttl *time.Duration
		if st.TTL != nil {
			d := time.Duration(st.TTL.Nanos)
			ttl = &d
		}
		info, err := e.flows.CreateFlow(st.Name, st.Policy, ttl, st.Pipeline, st.SourceText)
		if err != nil {
			return fail(err)
		}
		return ok(info)

	case *lang.DeleteFlowStmt:
		if err := e.flows.StopFlowByName(st.Name); err != nil {
			return fail(err)
		}
		return ok(st.Name)

	case *lang.InsertStmt:
		fn, err := expr.Compile(st.Value)
		if err != nil {
			return fail(err)
		}
		rec := fn(nil, nil)
		if err := e.registry.Insert(st.Target, rec); err != nil {
			return fail(err)
		}
		return ok(nil)

	case *lang.FlushStmt:
		if err := e.registry.Flush(st.Name); err != nil {
			return fail(err)
		}
		return ok(st.Name)

	case *lang.ListStmt:
		if st.Kind == lang.ListFlows {
			return ok(e.flows.List())
		}
		return ok(e.registry.List())

	case *lang.InfoStmt:
		if st.Name == "" {
			return ok(map[string]interface{}{
				"streams": e.registry.List(),
				"flows":   e.flows.List(),
			})
		}
		if info, ok2 := e.flows.Info(st.Name); ok2 {
			return ok(info)
		}
		sinfo, err := e.registry.StreamInfo(st.Name)
		if err != nil {
			return fail(err)
		}
		return ok(sinfo)

	case *lang.SubscribeStmt:
		return e.subscribe(st)

	case *lang.UnsubscribeStmt:
		return e.unsubscribe(st)

	case *lang.Pipeline:
		// A bare pipeline with no `create flow` wrapper is valid top-level
		// syntax for ad-hoc inline testing (§6.1); Execute starts it as an
		// anonymous flow under an internally generated name.
		_, err := e.flows.CreateFlow(fmt.Sprintf("__adhoc_%p", st), lang.PolicyStrict, nil, st, "")
		if err != nil {
			return fail(err)
		}
		return ok(nil)

	default:
		return fail(fmt.Errorf("unsupported statement %T", stmt))
	}
}

func mapPolicy(p lang.CreatePolicy) registry.Policy {
	switch p {
	case lang.PolicyOrReplace:
		return registry.PolicyOrReplace
	case lang.PolicyIfNotExists:
		return registry.PolicyIfNotExists
	default:
		return registry.PolicyStrict
	}
}

// subscribe attaches a default logging callback, since a synchronous
// Execute call has no channel back to the caller for future records; an
// embedder that wants delivery uses SubscribeUser/SubscribeGlobal directly.
func (e *Engine) subscribe(st *lang.SubscribeStmt) Result {
	cb := func(rec value.Record) error {
		logger.Publish(logger.SinkInfo, "Subscription", "record received", map[string]interface{}{
			"stream":  st.StreamName,
			"payload": value.String(rec),
		})
		return nil
	}
	var id int
	var err error
	var kind subKind
	if st.StreamName == "" {
		id = e.registry.SubscribeGlobal(cb)
		kind = subGlobal
	} else {
		id, err = e.registry.SubscribeUser(st.StreamName, cb)
		kind = subUser
	}
	if err != nil {
		return fail(err)
	}
	e.subMu.Lock()
	e.subs[id] = subscription{kind: kind, name: st.StreamName}
	e.subMu.Unlock()
	return ok(id)
}

func (e *Engine) unsubscribe(st *lang.UnsubscribeStmt) Result {
	e.subMu.Lock()
	sub, found := e.subs[st.ID]
	delete(e.subs, st.ID)
	e.subMu.Unlock()
	if !found {
		return fail(fmt.Errorf("unknown subscription id %d", st.ID))
	}
	if sub.kind == subGlobal {
		e.registry.UnsubscribeGlobal(st.ID)
	} else {
		_ = e.registry.UnsubscribeUser(sub.name, st.ID)
	}
	return ok(st.ID)
}

// SubscribeUser exposes registry.SubscribeUser for embedders that want
// delivery of future records rather than Execute's synchronous result.
func (e *Engine) SubscribeUser(stream string, cb registry.SubscriberFunc) (int, error) {
	return e.registry.SubscribeUser(stream, cb)
}

// SubscribeGlobal exposes registry.SubscribeGlobal.
func (e *Engine) SubscribeGlobal(cb registry.SubscriberFunc) int {
	return e.registry.SubscribeGlobal(cb)
}

// OnLifecycle exposes registry.OnLifecycle for stream and flow events.
func (e *Engine) OnLifecycle(cb func(registry.Event)) {
	e.registry.OnLifecycle(cb)
}
