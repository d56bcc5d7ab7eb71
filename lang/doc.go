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

// Package lang implements the DSL front end: a hand-rolled lexer producing
// a token stream, and a recursive-descent parser with explicit precedence
// levels that turns that token stream into a concrete syntax tree (CST).
//
// The grammar is whitespace-insensitive and pipe-shaped:
//
//	create stream input;
//	create flow f1 as input | where age > 18 | insert_into(output);
//	insert into input {"name": "A", "age": 25};
//
// Every keyword doubles as a valid identifier outside keyword position:
// the parser demotes a keyword token to plain identifier text whenever the
// grammar calls for a name instead of that keyword, so a stream can
// legitimately be named "flow" or a field called "select" without
// quoting.
package lang
