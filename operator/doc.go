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

// Package operator implements the pipeline node kinds named in §3/§4:
// Filter, Select, Scan, Summarize, InsertInto, Collect. Each Node is a
// plain value owned exclusively by its Pipeline; a node references its
// downstream neighbor only implicitly, through the Pipeline's linear node
// list, so there are no back-pointers to walk (§9).
package operator
