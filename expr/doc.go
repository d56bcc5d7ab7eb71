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

// Package expr compiles lang.Expr CST nodes into Go closures over
// (item, state). Compiled closures never panic: every lookup is a safe
// lookup through the value package, and arithmetic coerces rather than
// throwing. The only compile-time failures are an unknown function name
// and a wrong argument count to a known function (ArityError), which plan
// lowering surfaces as structured errors.
package expr
