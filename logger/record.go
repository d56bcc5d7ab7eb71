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

package logger

import (
	"time"

	"github.com/google/uuid"
)

// SinkLevel enumerates the `_log` stream's level field (§6.2), which is a
// distinct vocabulary from the console Level above: it adds "success" for
// lifecycle events (flow created, stream deleted, ...) that aren't errors
// or warnings but are still worth a subscriber's attention.
type SinkLevel string

const (
	SinkInfo    SinkLevel = "info"
	SinkWarning SinkLevel = "warning"
	SinkError   SinkLevel = "error"
	SinkSuccess SinkLevel = "success"
)

// Record is one entry published to the reserved `_log` stream.
type Record struct {
	Ts      time.Time
	Level   SinkLevel
	Code    string
	Message string
	Context map[string]interface{} // optional; may carry a trace_id
}

// Sink receives every Record published via Publish. The engine installs one
// at startup that republishes onto the `_log` stream; tests and standalone
// uses of this package may leave it nil, in which case Publish is a no-op.
type Sink func(Record)

var sink Sink

// SetSink installs the engine's `_log` stream sink, or clears it when s is
// nil.
func SetSink(s Sink) { sink = s }

// Publish sends a structured record to the installed Sink. Safe to call
// with no sink installed.
func Publish(level SinkLevel, code, message string, context map[string]interface{}) {
	if sink == nil {
		return
	}
	sink(Record{Ts: time.Now(), Level: level, Code: code, Message: message, Context: context})
}

// NewTraceID mints a fresh random id for a log record's `context.trace_id`
// field (the `context?` field of §6.2). Every call returns a new id; the
// registry calls it once per SubscriberFailure record, so failures raised
// by the same insert call do not share an id.
func NewTraceID() string {
	return uuid.New().String()
}
