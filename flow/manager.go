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

// Package flow implements the flow lifecycle manager of §4.9: create,
// replace, ttl-expire and delete named flows, each a compiled pipeline
// subscribed to its source stream.
package flow

import (
	"sync"
	"time"

	"github.com/rulego/flowdsl/lang"
	"github.com/rulego/flowdsl/plan"
	"github.com/rulego/flowdsl/registry"
)

// Info is the recorded state of one running flow.
type Info struct {
	ID           int
	Name         string
	Policy       lang.CreatePolicy
	TTL          *time.Duration
	SourceStream string
	SinkStreams  []string
	QueryText    string
	CreatedAt    time.Time

	plan     *plan.Plan
	subID    int
	ttlTimer *time.Timer
	stopped  bool
}

// Manager owns every live flow and the registry they publish/subscribe
// through.
type Manager struct {
	mu       sync.Mutex
	registry *registry.Registry
	byName   map[string]int
	byID     map[int]*Info
	nextID   int
}

func NewManager(reg *registry.Registry) *Manager {
	return &Manager{
		registry: reg,
		byName:   map[string]int{},
		byID:     map[int]*Info{},
	}
}

// CreateFlow compiles pipeline and, depending on policy, starts, replaces,
// or no-ops a named flow (§4.9 steps 1-5).
func (m *Manager) CreateFlow(name string, policy lang.CreatePolicy, ttl *time.Duration, pipeline *lang.Pipeline, queryText string) (*Info, error) {
	m.mu.Lock()
	existingID, exists := m.byName[name]
	m.mu.Unlock()

	if exists {
		switch policy {
		case lang.PolicyStrict:
			return nil, &AlreadyExistsError{Name: name}
		case lang.PolicyIfNotExists:
			m.mu.Lock()
			info := m.byID[existingID]
			m.mu.Unlock()
			return info, nil
		case lang.PolicyOrReplace:
			if err := m.StopFlowByID(existingID); err != nil {
				return nil, err
			}
		}
	}

	compiled, err := plan.Compile(pipeline, plan.Options{
		StreamExists: m.registry.Has,
		Publisher:    m.registry,
	})
	if err != nil {
		return nil, err
	}

	subID, err := m.registry.SubscribeFlow(pipeline.Source, compiled.Pipeline)
	if err != nil {
		return nil, err
	}

	var sinks []string
	for _, op := range pipeline.Operations {
		if ins, ok := op.(*lang.InsertIntoOp); ok {
			sinks = append(sinks, ins.Target)
		}
	}

	m.mu.Lock()
	m.nextID++
	id := m.nextID
	info := &Info{
		ID:           id,
		Name:         name,
		Policy:       policy,
		TTL:          ttl,
		SourceStream: pipeline.Source,
		SinkStreams:  sinks,
		QueryText:    queryText,
		CreatedAt:    time.Now(),
		plan:         compiled,
		subID:        subID,
	}
	m.byName[name] = id
	m.byID[id] = info
	m.mu.Unlock()

	if ttl != nil {
		d := *ttl
		info.ttlTimer = time.AfterFunc(d, func() { _ = m.StopFlowByID(id) })
	}

	m.registry.Emit(registry.Event{Kind: registry.EventFlowCreated, Name: name})
	return info, nil
}

// StopFlowByName stops the flow registered under name.
func (m *Manager) StopFlowByName(name string) error {
	m.mu.Lock()
	id, ok := m.byName[name]
	m.mu.Unlock()
	if !ok {
		return &NotFoundError{Name: name}
	}
	return m.StopFlowByID(id)
}

// StopFlowByID stops the flow with the given id: cancels any TTL timer,
// unsubscribes and finishes its pipeline, and emits flow-deleted (§4.9).
func (m *Manager) StopFlowByID(id int) error {
	m.mu.Lock()
	info, ok := m.byID[id]
	if !ok {
		m.mu.Unlock()
		return &NotFoundError{Name: "<unknown>"}
	}
	if info.stopped {
		m.mu.Unlock()
		return nil
	}
	info.stopped = true
	delete(m.byID, id)
	delete(m.byName, info.Name)
	m.mu.Unlock()

	if info.ttlTimer != nil {
		info.ttlTimer.Stop()
	}
	_ = m.registry.UnsubscribeFlow(info.SourceStream, info.subID)
	info.plan.Pipeline.Finish()

	m.registry.Emit(registry.Event{Kind: registry.EventFlowDeleted, Name: info.Name})
	return nil
}

// Info looks up a flow by name.
func (m *Manager) Info(name string) (*Info, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byName[name]
	if !ok {
		return nil, false
	}
	return m.byID[id], true
}

// List returns every currently running flow's Info.
func (m *Manager) List() []*Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Info, 0, len(m.byID))
	for _, info := range m.byID {
		out = append(out, info)
	}
	return out
}
