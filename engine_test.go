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

package flowdsl

import (
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/flowdsl/flow"
	"github.com/rulego/flowdsl/logger"
	"github.com/rulego/flowdsl/value"
)

func mustExec(t *testing.T, e *Engine, src string) Result {
	t.Helper()
	r := e.Execute(src)
	require.True(t, r.Success, "exec %q: %s: %s", src, r.Code, r.Message)
	return r
}

// S1 — filter pass-through.
func TestScenarioFilterPassThrough(t *testing.T) {
	e := New()
	mustExec(t, e, `create stream input;`)
	mustExec(t, e, `create stream output;`)
	mustExec(t, e, `create flow f1 from input | where age > 18 | insert_into(output);`)

	var mu sync.Mutex
	var got []value.Record
	_, err := e.SubscribeUser("output", func(rec value.Record) error {
		mu.Lock()
		got = append(got, rec)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	mustExec(t, e, `insert into input [{"name":"A","age":25},{"name":"B","age":16},{"name":"C","age":22}];`)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, "A", value.GetField(got[0], "name"))
	assert.Equal(t, "C", value.GetField(got[1], "name"))
}

// S2 — select strips fields.
func TestScenarioSelectStripsFields(t *testing.T) {
	e := New()
	mustExec(t, e, `create stream input;`)
	mustExec(t, e, `create stream output;`)
	mustExec(t, e, `create flow f1 from input | select { name: name, age: age, email: email } | insert_into(output);`)

	var got value.Record
	_, err := e.SubscribeUser("output", func(rec value.Record) error {
		got = rec
		return nil
	})
	require.NoError(t, err)

	mustExec(t, e, `insert into input {"name":"John","age":30,"email":"j@x","password":"p","ssn":"s"};`)

	m, ok := got.(value.Map)
	require.True(t, ok)
	assert.Equal(t, value.Map{"name": "John", "age": 30.0, "email": "j@x"}, m)
}

// S3 — spread + exclude.
func TestScenarioSpreadExclude(t *testing.T) {
	e := New()
	mustExec(t, e, `create stream input;`)
	mustExec(t, e, `create stream output;`)
	mustExec(t, e, `create flow f1 from input | select { ...*, full_name: name + " " + surname, -password } | insert_into(output);`)

	var got value.Record
	_, err := e.SubscribeUser("output", func(rec value.Record) error {
		got = rec
		return nil
	})
	require.NoError(t, err)

	mustExec(t, e, `insert into input {"name":"A","surname":"B","password":"p","age":1};`)

	m, ok := got.(value.Map)
	require.True(t, ok)
	assert.Equal(t, value.Map{"name": "A", "surname": "B", "age": 1.0, "full_name": "A B"}, m)
}

// S4 — summarize + tumbling by count.
func TestScenarioSummarizeTumbling(t *testing.T) {
	e := New()
	mustExec(t, e, `create stream input;`)
	mustExec(t, e, `create stream output;`)
	mustExec(t, e, `create flow f1 from input | summarize { total: sum(amount), count: count() } by product over w = tumbling_window(2) | insert_into(output);`)

	var mu sync.Mutex
	var got []value.Record
	_, err := e.SubscribeUser("output", func(rec value.Record) error {
		mu.Lock()
		got = append(got, rec)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	mustExec(t, e, `insert into input [{"product":"x","amount":1},{"product":"x","amount":2},{"product":"y","amount":3},{"product":"y","amount":4}];`)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, "x", value.GetField(got[0], "group_key"))
	assert.Equal(t, 3.0, value.GetField(got[0], "total"))
	assert.Equal(t, 2.0, value.GetField(got[0], "count"))
	assert.Equal(t, "y", value.GetField(got[1], "group_key"))
	assert.Equal(t, 7.0, value.GetField(got[1], "total"))
	assert.Equal(t, 2.0, value.GetField(got[1], "count"))
}

// S5 — scan cumulative sum.
func TestScenarioScanCumulativeSum(t *testing.T) {
	e := New()
	mustExec(t, e, `create stream input;`)
	mustExec(t, e, `create stream output;`)
	mustExec(t, e, `create flow f1 from input | scan( step cumSum: true => cumSum.cumulative_x = iff(cumSum.cumulative_x, cumSum.cumulative_x + x, x), emit({input: x, cumulative: cumSum.cumulative_x}); ) | insert_into(output);`)

	var mu sync.Mutex
	var got []value.Record
	_, err := e.SubscribeUser("output", func(rec value.Record) error {
		mu.Lock()
		got = append(got, rec)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	mustExec(t, e, `insert into input [{"x":1},{"x":2},{"x":3}];`)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 3)
	assert.Equal(t, 1.0, value.GetField(got[0], "cumulative"))
	assert.Equal(t, 3.0, value.GetField(got[1], "cumulative"))
	assert.Equal(t, 6.0, value.GetField(got[2], "cumulative"))
}

// S6 — TTL expiry.
func TestScenarioTTLExpiry(t *testing.T) {
	e := New()
	mustExec(t, e, `create stream input;`)
	mustExec(t, e, `create stream output;`)
	mustExec(t, e, `create flow g ttl(50ms) from input | insert_into(output);`)

	assert.Eventually(t, func() bool {
		r := e.Execute(`list flows;`)
		require.True(t, r.Success)
		return !containsFlow(r, "g")
	}, time.Second, 5*time.Millisecond)

	var mu sync.Mutex
	var got []value.Record
	_, err := e.SubscribeUser("output", func(rec value.Record) error {
		mu.Lock()
		got = append(got, rec)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	mustExec(t, e, `insert into input {"x":1};`)
	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, got)
}

func TestExecuteRejectsUnknownSyntax(t *testing.T) {
	e := New()
	r := e.Execute(`this is not valid dsl ###`)
	assert.False(t, r.Success)
}

func TestExecuteFlowAlreadyExists(t *testing.T) {
	e := New()
	mustExec(t, e, `create stream input;`)
	mustExec(t, e, `create flow f1 from input | collect();`)
	r := e.Execute(`create flow f1 from input | collect();`)
	assert.False(t, r.Success)
	assert.Equal(t, "FlowAlreadyExists", r.Code)
}

func TestExecuteStreamNotFound(t *testing.T) {
	e := New()
	r := e.Execute(`create flow f1 from nope | collect();`)
	assert.False(t, r.Success)
}

func TestSubscribeUnsubscribeByID(t *testing.T) {
	e := New()
	mustExec(t, e, `create stream input;`)
	r := mustExec(t, e, `subscribe input;`)
	id, ok := r.Payload.(int)
	require.True(t, ok)

	r2 := e.Execute(`unsubscribe ` + strconv.Itoa(id) + `;`)
	assert.True(t, r2.Success)

	r3 := e.Execute(`unsubscribe ` + strconv.Itoa(id) + `;`)
	assert.False(t, r3.Success)
}

func containsFlow(r Result, name string) bool {
	list, ok := r.Payload.([]*flow.Info)
	if !ok {
		return false
	}
	for _, info := range list {
		if info.Name == name {
			return true
		}
	}
	return false
}

func TestWithLoggerOverridesGlobalDefault(t *testing.T) {
	prior := logger.GetDefault()
	defer logger.SetDefault(prior)

	custom := logger.NewLogger(logger.DEBUG, io.Discard)
	New(WithLogger(custom))
	assert.Same(t, custom, logger.GetDefault())
}

func TestWithSanitizePolicyAppliesOnPublish(t *testing.T) {
	e := New(WithSanitizePolicy(value.SanitizeNull))
	mustExec(t, e, `create stream input;`)

	var got value.Record
	_, err := e.SubscribeUser("input", func(rec value.Record) error {
		got = rec
		return nil
	})
	require.NoError(t, err)

	mustExec(t, e, `insert into input {"a":1,"b":missing};`)
	m, ok := got.(value.Map)
	require.True(t, ok)
	assert.Nil(t, m["b"])
}
