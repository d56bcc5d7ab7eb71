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

// Package window implements the window-id assignment rules of §4.6:
// tumbling, hopping and sliding windows, each in a count-based and a
// value-based variant, plus count_window (count-based only) and
// session_window (value-based only).
//
// A Window is instantiated once per group key by the summarize operator
// (windowing is partitioned by group, the natural reading of "for each
// (window-id, group-key) the operator maintains a distinct bag" — see
// DESIGN.md). It tracks only window-id assignment and closing; the
// summarize operator owns the aggregator bags keyed by the ids this
// package produces.
package window
