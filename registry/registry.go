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

// Package registry implements the stream registry and pub/sub fabric of
// §4.8: named streams, flow/user/global subscribers, and the reserved
// `_log` stream every engine carries from startup.
package registry

import (
	"strings"
	"sync"

	"github.com/rulego/flowdsl/logger"
	"github.com/rulego/flowdsl/value"
)

// LogStreamName is the reserved system stream every Registry creates at
// construction and excludes from lifecycle events (§3, §6.2).
const LogStreamName = "_log"

// Policy mirrors lang.CreatePolicy without introducing a dependency on the
// grammar package; callers translate at the boundary.
type Policy int

const (
	PolicyStrict Policy = iota
	PolicyOrReplace
	PolicyIfNotExists
)

// FlowSubscriber is the capability a flow's pipeline offers the registry:
// exactly the three methods operator.Pipeline already exposes.
type FlowSubscriber interface {
	Push(value.Record)
	Flush()
	Finish()
}

// SubscriberFunc is a user or global subscriber callback. An error return
// causes the registry to drop that subscriber (§4.8).
type SubscriberFunc func(value.Record) error

// EventKind enumerates registry and flow lifecycle notifications.
type EventKind string

const (
	EventStreamCreated EventKind = "stream-created"
	EventStreamDeleted EventKind = "stream-deleted"
	EventFlowCreated   EventKind = "flow-created"
	EventFlowDeleted   EventKind = "flow-deleted"
)

// Event is delivered to every on_lifecycle listener.
type Event struct {
	Kind EventKind
	Name string
}

// Info summarizes one stream's subscriber counts (§4.8 `info`).
type Info struct {
	FlowSubscriberCount int
	UserSubscriberCount int
	Total               int
}

type stream struct {
	name     string
	mu       sync.Mutex // serializes insert fan-out for this stream (§5)
	flowSubs map[int]FlowSubscriber
	userSubs map[int]SubscriberFunc
}

func newStream(name string) *stream {
	return &stream{name: name, flowSubs: map[int]FlowSubscriber{}, userSubs: map[int]SubscriberFunc{}}
}

// Registry owns every stream, the registry-wide global-subscriber set, id
// allocation, and the lifecycle listener list.
type Registry struct {
	mu         sync.Mutex
	streams    map[string]*stream
	nextID     int
	globalSubs map[int]SubscriberFunc
	lifecycle  []func(Event)
	sanitize   value.SanitizePolicy
}

// New builds a Registry with the reserved `_log` stream already present.
func New() *Registry {
	r := &Registry{
		streams:    map[string]*stream{},
		globalSubs: map[int]SubscriberFunc{},
		sanitize:   value.SanitizeRemove,
	}
	r.streams[LogStreamName] = newStream(LogStreamName)
	return r
}

// SetSanitizePolicy overrides the default SanitizeRemove policy applied to
// every record before fan-out.
func (r *Registry) SetSanitizePolicy(p value.SanitizePolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sanitize = p
}

func isReserved(name string) bool { return strings.HasPrefix(name, "_") }

// Create registers name under policy (§4.8). Reserved names are rejected;
// the reserved `_log` stream is created directly by New.
func (r *Registry) Create(name string, policy Policy) error {
	if isReserved(name) {
		return &ReservedNameError{Name: name}
	}
	return r.create(name, policy)
}

func (r *Registry) create(name string, policy Policy) error {
	r.mu.Lock()
	_, exists := r.streams[name]
	switch {
	case exists && policy == PolicyStrict:
		r.mu.Unlock()
		return &StreamAlreadyExistsError{Name: name}
	case exists && policy == PolicyIfNotExists:
		r.mu.Unlock()
		return nil
	case exists && policy == PolicyOrReplace:
		old := r.streams[name]
		r.streams[name] = newStream(name)
		r.mu.Unlock()
		for _, fs := range snapshotFlowSubs(old) {
			fs.Finish()
		}
	default:
		r.streams[name] = newStream(name)
		r.mu.Unlock()
	}
	if !isReserved(name) {
		r.emit(Event{Kind: EventStreamCreated, Name: name})
	}
	return nil
}

// Delete removes name, finishing every flow subscriber first (§4.8).
func (r *Registry) Delete(name string) error {
	r.mu.Lock()
	s, ok := r.streams[name]
	if !ok {
		r.mu.Unlock()
		return &StreamNotFoundError{Name: name}
	}
	delete(r.streams, name)
	r.mu.Unlock()

	for _, fs := range snapshotFlowSubs(s) {
		fs.Finish()
	}
	if !isReserved(name) {
		r.emit(Event{Kind: EventStreamDeleted, Name: name})
	}
	return nil
}

// Has reports whether name is currently registered.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.streams[name]
	return ok
}

// List returns every registered stream name, in no particular order.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.streams))
	for name := range r.streams {
		out = append(out, name)
	}
	return out
}

// StreamInfo reports subscriber counts for name.
func (r *Registry) StreamInfo(name string) (Info, error) {
	r.mu.Lock()
	s, ok := r.streams[name]
	r.mu.Unlock()
	if !ok {
		return Info{}, &StreamNotFoundError{Name: name}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	flowN, userN := len(s.flowSubs), len(s.userSubs)
	return Info{FlowSubscriberCount: flowN, UserSubscriberCount: userN, Total: flowN + userN}, nil
}

func (r *Registry) lookup(name string) (*stream, error) {
	r.mu.Lock()
	s, ok := r.streams[name]
	r.mu.Unlock()
	if !ok {
		return nil, &StreamNotFoundError{Name: name}
	}
	return s, nil
}

// Insert sanitizes recordOrList and publishes it, in order, to every flow
// subscriber, every user subscriber of name, and every global subscriber
// (§4.8). A single record or a value.List of records may be given.
func (r *Registry) Insert(name string, recordOrList value.Record) error {
	s, err := r.lookup(name)
	if err != nil {
		return err
	}

	var records []value.Record
	if list, ok := recordOrList.(value.List); ok {
		records = list
	} else {
		records = []value.Record{recordOrList}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		r.publishOne(s, rec)
	}
	return nil
}

// Publish implements operator.Publisher, letting a Registry back every
// InsertInto node's tee (§4.7) directly.
func (r *Registry) Publish(stream string, rec value.Record) error {
	return r.Insert(stream, rec)
}

func (r *Registry) publishOne(s *stream, rec value.Record) {
	r.mu.Lock()
	policy := r.sanitize
	globalSnapshot := snapshotUserSubs(r.globalSubs)
	r.mu.Unlock()

	sanitized := value.Sanitize(rec, policy)

	for id, fs := range s.flowSubs {
		if !r.deliverFlow(fs, sanitized) {
			delete(s.flowSubs, id)
		}
	}
	for id, cb := range s.userSubs {
		if err := cb(sanitized); err != nil {
			delete(s.userSubs, id)
			r.logSubscriberFailure(s.name, err)
		}
	}
	for id, cb := range globalSnapshot {
		if err := cb(sanitized); err != nil {
			r.mu.Lock()
			delete(r.globalSubs, id)
			r.mu.Unlock()
			r.logSubscriberFailure(s.name, err)
		}
	}
}

func (r *Registry) deliverFlow(fs FlowSubscriber, rec value.Record) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			ok = false
		}
	}()
	fs.Push(rec)
	return true
}

func (r *Registry) logSubscriberFailure(streamName string, err error) {
	logger.Publish(logger.SinkError, "SubscriberFailure", err.Error(), map[string]interface{}{
		"stream":   streamName,
		"trace_id": logger.NewTraceID(),
	})
}

// Flush finalizes every flow subscriber of name (§4.6 "flush").
func (r *Registry) Flush(name string) error {
	s, err := r.lookup(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	subs := snapshotFlowSubs(s)
	s.mu.Unlock()
	for _, fs := range subs {
		fs.Flush()
	}
	return nil
}

func (r *Registry) nextIDLocked() int {
	r.nextID++
	return r.nextID
}

// SubscribeFlow attaches a flow's pipeline to name.
func (r *Registry) SubscribeFlow(name string, fs FlowSubscriber) (int, error) {
	s, err := r.lookup(name)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	id := r.nextIDLocked()
	r.mu.Unlock()
	s.mu.Lock()
	s.flowSubs[id] = fs
	s.mu.Unlock()
	return id, nil
}

// SubscribeUser attaches cb to name.
func (r *Registry) SubscribeUser(name string, cb SubscriberFunc) (int, error) {
	s, err := r.lookup(name)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	id := r.nextIDLocked()
	r.mu.Unlock()
	s.mu.Lock()
	s.userSubs[id] = cb
	s.mu.Unlock()
	return id, nil
}

// SubscribeGlobal attaches cb to every stream's fan-out.
func (r *Registry) SubscribeGlobal(cb SubscriberFunc) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextIDLocked()
	r.globalSubs[id] = cb
	return id
}

// UnsubscribeFlow removes a flow subscriber previously returned by
// SubscribeFlow.
func (r *Registry) UnsubscribeFlow(name string, id int) error {
	s, err := r.lookup(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.flowSubs, id)
	s.mu.Unlock()
	return nil
}

// UnsubscribeUser removes a user subscriber previously returned by
// SubscribeUser.
func (r *Registry) UnsubscribeUser(name string, id int) error {
	s, err := r.lookup(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.userSubs, id)
	s.mu.Unlock()
	return nil
}

// UnsubscribeGlobal removes a global subscriber.
func (r *Registry) UnsubscribeGlobal(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.globalSubs, id)
}

// OnLifecycle registers a listener for stream/flow create/delete events,
// excluding reserved-name streams (§4.8).
func (r *Registry) OnLifecycle(cb func(Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lifecycle = append(r.lifecycle, cb)
}

// Emit publishes a lifecycle event to every listener; exported so the flow
// manager can report flow-created/flow-deleted through the same channel.
func (r *Registry) Emit(e Event) { r.emit(e) }

func (r *Registry) emit(e Event) {
	r.mu.Lock()
	listeners := append([]func(Event){}, r.lifecycle...)
	r.mu.Unlock()
	for _, cb := range listeners {
		cb(e)
	}
}

func snapshotFlowSubs(s *stream) []FlowSubscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FlowSubscriber, 0, len(s.flowSubs))
	for _, fs := range s.flowSubs {
		out = append(out, fs)
	}
	return out
}

func snapshotUserSubs(m map[int]SubscriberFunc) map[int]SubscriberFunc {
	out := make(map[int]SubscriberFunc, len(m))
	for id, cb := range m {
		out[id] = cb
	}
	return out
}
