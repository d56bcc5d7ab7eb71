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

package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruthy(t *testing.T) {
	falsy := []Record{nil, false, 0.0, "", List{}, Map{}, Absent}
	for _, v := range falsy {
		assert.False(t, Truthy(v), "expected falsy: %#v", v)
	}

	truthy := []Record{true, 1.0, -1.0, "x", List{1.0}, Map{"a": 1.0}}
	for _, v := range truthy {
		assert.True(t, Truthy(v), "expected truthy: %#v", v)
	}
}

func TestGetSafeLookupNeverPanics(t *testing.T) {
	assert.True(t, IsAbsent(Get(nil, "x")))
	assert.True(t, IsAbsent(Get("a string", "x")))
	assert.True(t, IsAbsent(Get(Map{"a": 1.0}, "missing")))
	assert.True(t, IsAbsent(Get(List{1.0, 2.0}, 10.0)))
	assert.True(t, IsAbsent(Get(List{1.0, 2.0}, "not-an-index")))
	assert.Equal(t, 2.0, Get(List{1.0, 2.0}, 1.0))
}

func TestDeepEqual(t *testing.T) {
	assert.True(t, DeepEqual(Map{"a": 1.0, "b": List{1.0, "x"}}, Map{"b": List{1.0, "x"}, "a": 1.0}))
	assert.False(t, DeepEqual(Map{"a": 1.0}, Map{"a": 2.0}))
	assert.True(t, DeepEqual(Absent, Absent))
	assert.False(t, DeepEqual(Absent, nil))
}

func TestCompare(t *testing.T) {
	cmp, ok := Compare(1.0, 2.0)
	assert.True(t, ok)
	assert.Equal(t, -1, cmp)

	cmp, ok = Compare("b", "a")
	assert.True(t, ok)
	assert.Equal(t, 1, cmp)

	_, ok = Compare(1.0, "a")
	assert.False(t, ok)
}

func TestAddSelectingAndCoercing(t *testing.T) {
	assert.Equal(t, 3.0, Add(1.0, 2.0))
	assert.Equal(t, "ab", Add("a", "b"))
	assert.Equal(t, "a1", Add("a", 1.0))
}

func TestSanitizeRemoveVsNull(t *testing.T) {
	rec := Map{"present": 1.0, "gone": Absent}
	removed := Sanitize(rec, SanitizeRemove).(Map)
	_, stillThere := removed["gone"]
	assert.False(t, stillThere)
	assert.Equal(t, 1.0, removed["present"])

	nulled := Sanitize(rec, SanitizeNull).(Map)
	assert.Nil(t, nulled["gone"])
}
