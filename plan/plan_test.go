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

package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/flowdsl/lang"
	"github.com/rulego/flowdsl/value"
)

func parsePipeline(t *testing.T, src string) *lang.Pipeline {
	t.Helper()
	prog, err := lang.Parse(src)
	require.NoError(t, err)
	return prog.Statements[0].(*lang.Pipeline)
}

func streamSet(names ...string) func(string) bool {
	set := map[string]bool{}
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func TestCompileRejectsUnknownSource(t *testing.T) {
	pipe := parsePipeline(t, `input | where x > 1`)
	_, err := Compile(pipe, Options{StreamExists: streamSet()})
	require.Error(t, err)
	var notFound *StreamNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "input", notFound.Name)
}

func TestCompileRejectsUnknownInsertIntoTarget(t *testing.T) {
	pipe := parsePipeline(t, `input | insert_into(missing)`)
	_, err := Compile(pipe, Options{StreamExists: streamSet("input")})
	require.Error(t, err)
	var notFound *StreamNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.Name)
}

func TestCompileRejectsUnknownFunction(t *testing.T) {
	pipe := parsePipeline(t, `input | where bogus_fn(x) > 1`)
	_, err := Compile(pipe, Options{StreamExists: streamSet("input")})
	require.Error(t, err)
}

func TestCompileFullPipelineRuns(t *testing.T) {
	pipe := parsePipeline(t, `input | where amount > 1 | select { amount } | collect()`)
	p, err := Compile(pipe, Options{StreamExists: streamSet("input")})
	require.NoError(t, err)
	require.Len(t, p.Collects, 1)

	var out []value.Record
	p.Collects[0].OnRecord = func(r value.Record) { out = append(out, r) }

	p.Pipeline.Push(value.Map{"amount": 0.5})
	p.Pipeline.Push(value.Map{"amount": 5.0})

	require.Len(t, out, 1)
	assert.Equal(t, 5.0, out[0].(value.Map)["amount"])
}

func TestCompileSummarizeWindow(t *testing.T) {
	pipe := parsePipeline(t, `input | summarize { total: sum(amount) } over w = tumbling_window(2) | collect()`)
	p, err := Compile(pipe, Options{StreamExists: streamSet("input")})
	require.NoError(t, err)

	var out []value.Record
	p.Collects[0].OnRecord = func(r value.Record) { out = append(out, r) }

	p.Pipeline.Push(value.Map{"amount": 1.0})
	p.Pipeline.Push(value.Map{"amount": 2.0})

	require.Len(t, out, 1)
	assert.Equal(t, 3.0, out[0].(value.Map)["total"])
}
