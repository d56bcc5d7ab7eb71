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

package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTumblingCountCompleteness(t *testing.T) {
	w := newTumblingCount(2)
	var closedTotal int
	for i := 0; i < 5; i++ {
		_, closed := w.Assign(i, 0)
		closedTotal += len(closed) * 2 // each closed window holds exactly `size` records
	}
	// 5 records, size 2: k - (k mod n) = 5 - 1 = 4 records must be in
	// closed windows before flush.
	assert.Equal(t, 4, closedTotal)
	flushed := w.Flush()
	assert.Len(t, flushed, 1)
}

func TestTumblingCountClosesExactlyAtCapacityWithoutFlush(t *testing.T) {
	// k == n: the window must close the moment the size-th record arrives,
	// not on a lookahead record that never comes.
	w := newTumblingCount(2)
	ids0, closed0 := w.Assign(0, 0)
	assert.Equal(t, []ID{0}, ids0)
	assert.Empty(t, closed0)

	ids1, closed1 := w.Assign(1, 0)
	assert.Equal(t, []ID{0}, ids1)
	assert.Equal(t, []ID{0}, closed1)

	// All k=2 records are already in a closed window; nothing left to flush.
	assert.Empty(t, w.Flush())
}

func TestTumblingValueBuckets(t *testing.T) {
	w := newTumblingValue(10)
	ids1, _ := w.Assign(0, 5)
	assert.Equal(t, []ID{0.0}, ids1)
	ids2, closed := w.Assign(1, 15)
	assert.Equal(t, []ID{10.0}, ids2)
	assert.Equal(t, []ID{0.0}, closed)
}

func TestHoppingCountOverlap(t *testing.T) {
	w := newHoppingCount(4, 2)
	// size=4, hop=2: record 0 belongs to window 0 only.
	ids, _ := w.Assign(0, 0)
	assert.Equal(t, []ID{0}, ids)
	// record 2 belongs to window 0 and window 1.
	ids, _ = w.Assign(2, 0)
	assert.ElementsMatch(t, []ID{0, 1}, ids)
	// record 4 closes window 0 (0*2+4=4 <= 5) and opens window 2.
	ids, closed := w.Assign(4, 0)
	assert.Contains(t, ids, 2)
	assert.Contains(t, closed, 0)
}

func TestSlidingCountAlwaysClosesImmediately(t *testing.T) {
	w := newSlidingCount(3)
	ids, closed := w.Assign(5, 0)
	assert.Equal(t, []ID{5}, ids)
	assert.Equal(t, []ID{5}, closed)
	start, end := w.Bounds(5)
	assert.Equal(t, 3.0, start)
	assert.Equal(t, 5.0, end)
}

func TestSessionWindowOpensOnGap(t *testing.T) {
	w := newSessionWindow(5)
	ids, closed := w.Assign(0, 0)
	assert.Equal(t, []ID{0}, ids)
	assert.Empty(t, closed)

	ids, closed = w.Assign(1, 3)
	assert.Equal(t, []ID{0}, ids)
	assert.Empty(t, closed)

	ids, closed = w.Assign(2, 20) // gap of 17 > timeout 5
	assert.Equal(t, []ID{1}, ids)
	assert.Equal(t, []ID{0}, closed)
}
