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
	"math"

	"github.com/rulego/flowdsl/value"
)

// --- tumbling ---------------------------------------------------------

type tumblingCount struct {
	size     int
	opened   bool
	lastID   int
	lastDone bool // true once lastID's window has already been closed by Assign
}

func newTumblingCount(size int) *tumblingCount {
	if size < 1 {
		size = 1
	}
	return &tumblingCount{size: size}
}

// Assign closes a count-based tumbling window the instant it reaches
// capacity, since capacity is known synchronously from seq alone — it
// must not wait for a record belonging to the next window to arrive,
// otherwise a group that stops exactly at a multiple of size never closes.
func (w *tumblingCount) Assign(seq int, _ float64) ([]ID, []ID) {
	id := seq / w.size
	w.lastID, w.opened = id, true
	full := seq%w.size == w.size-1
	w.lastDone = full
	if full {
		return []ID{id}, []ID{id}
	}
	return []ID{id}, nil
}

func (w *tumblingCount) Flush() []ID {
	if w.opened && !w.lastDone {
		return []ID{w.lastID}
	}
	return nil
}

func (w *tumblingCount) Bounds(id ID) (value.Record, value.Record) {
	start := id.(int) * w.size
	return float64(start), float64(start + w.size - 1)
}

type tumblingValue struct {
	size   float64
	opened bool
	lastID float64
}

func newTumblingValue(size float64) *tumblingValue { return &tumblingValue{size: size} }

func (w *tumblingValue) Assign(_ int, val float64) ([]ID, []ID) {
	id := math.Floor(val/w.size) * w.size
	var closed []ID
	if w.opened && id != w.lastID {
		closed = []ID{w.lastID}
	}
	w.lastID, w.opened = id, true
	return []ID{id}, closed
}

func (w *tumblingValue) Flush() []ID {
	if w.opened {
		return []ID{w.lastID}
	}
	return nil
}

func (w *tumblingValue) Bounds(id ID) (value.Record, value.Record) {
	start := id.(float64)
	return start, start + w.size
}

// --- hopping ------------------------------------------------------------

type hoppingCount struct {
	size, hop int
	open      map[int]bool
}

func newHoppingCount(size, hop int) *hoppingCount {
	if size < 1 {
		size = 1
	}
	if hop < 1 {
		hop = 1
	}
	return &hoppingCount{size: size, hop: hop, open: map[int]bool{}}
}

func ceilDivInt(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func (w *hoppingCount) Assign(seq int, _ float64) ([]ID, []ID) {
	idLow := ceilDivInt(seq-w.size+1, w.hop)
	idHigh := seq / w.hop
	var ids []ID
	for id := idLow; id <= idHigh; id++ {
		if id*w.hop <= seq && seq < id*w.hop+w.size {
			ids = append(ids, id)
			w.open[id] = true
		}
	}
	var closed []ID
	for id := range w.open {
		if id*w.hop+w.size <= seq+1 {
			closed = append(closed, id)
			delete(w.open, id)
		}
	}
	return ids, closed
}

func (w *hoppingCount) Flush() []ID {
	out := make([]ID, 0, len(w.open))
	for id := range w.open {
		out = append(out, id)
	}
	return out
}

func (w *hoppingCount) Bounds(id ID) (value.Record, value.Record) {
	start := id.(int) * w.hop
	return float64(start), float64(start + w.size - 1)
}

type hoppingValue struct {
	size, hop float64
	open      map[int]bool
}

func newHoppingValue(size, hop float64) *hoppingValue {
	return &hoppingValue{size: size, hop: hop, open: map[int]bool{}}
}

// Assign assumes a monotonically non-decreasing value axis (the common
// case for time-like value_fns), which lets closing be decided from the
// current value alone rather than needing a lookahead.
func (w *hoppingValue) Assign(_ int, val float64) ([]ID, []ID) {
	kHigh := int(math.Floor(val / w.hop))
	kLow := int(math.Ceil((val - w.size) / w.hop))
	var ids []ID
	for k := kLow; k <= kHigh; k++ {
		start := float64(k) * w.hop
		if start <= val && val < start+w.size {
			ids = append(ids, start)
			w.open[k] = true
		}
	}
	var closed []ID
	for k := range w.open {
		if float64(k)*w.hop+w.size <= val {
			closed = append(closed, float64(k)*w.hop)
			delete(w.open, k)
		}
	}
	return ids, closed
}

func (w *hoppingValue) Flush() []ID {
	out := make([]ID, 0, len(w.open))
	for k := range w.open {
		out = append(out, float64(k)*w.hop)
	}
	return out
}

func (w *hoppingValue) Bounds(id ID) (value.Record, value.Record) {
	start := id.(float64)
	return start, start + w.size
}

// --- sliding --------------------------------------------------------
//
// Sliding windows finalize on every record (the window ending at record i
// always closes immediately), so the summarize operator recomputes the
// aggregate from a buffered range rather than relying on the cumulative
// add/finalize pattern the other window kinds use. Bounds reports the
// range for whichever id was most recently assigned.

type slidingCount struct {
	size       int
	start, end int
}

func newSlidingCount(size int) *slidingCount {
	if size < 1 {
		size = 1
	}
	return &slidingCount{size: size}
}

func (w *slidingCount) Assign(seq int, _ float64) ([]ID, []ID) {
	start := seq - w.size + 1
	if start < 0 {
		start = 0
	}
	w.start, w.end = start, seq
	return []ID{seq}, []ID{seq}
}

func (w *slidingCount) Flush() []ID { return nil }

func (w *slidingCount) Bounds(ID) (value.Record, value.Record) {
	return float64(w.start), float64(w.end)
}

type slidingValue struct {
	size       float64
	start, end float64
}

func newSlidingValue(size float64) *slidingValue { return &slidingValue{size: size} }

func (w *slidingValue) Assign(_ int, val float64) ([]ID, []ID) {
	start := val - w.size
	w.start, w.end = start, val
	return []ID{val}, []ID{val}
}

func (w *slidingValue) Flush() []ID { return nil }

func (w *slidingValue) Bounds(ID) (value.Record, value.Record) {
	return w.start, w.end
}

// --- session -------------------------------------------------------

type sessionWindow struct {
	timeout float64
	started bool
	lastVal float64
	id      int
}

func newSessionWindow(timeout float64) *sessionWindow {
	return &sessionWindow{timeout: timeout}
}

func (w *sessionWindow) Assign(_ int, val float64) ([]ID, []ID) {
	var closed []ID
	if !w.started {
		w.started = true
	} else if val-w.lastVal > w.timeout {
		closed = []ID{w.id}
		w.id++
	}
	w.lastVal = val
	return []ID{w.id}, closed
}

func (w *sessionWindow) Flush() []ID {
	if w.started {
		return []ID{w.id}
	}
	return nil
}

func (w *sessionWindow) Bounds(ID) (value.Record, value.Record) {
	return value.Absent, value.Absent
}
