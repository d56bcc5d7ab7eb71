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

package lang

import (
	"fmt"
	"strings"
)

// LexError reports a lexical failure at a specific source position (§7).
type LexError struct {
	Pos     Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %s: %s", e.Pos, e.Message)
}

// ParseError reports a single grammar violation. expected/got are short
// descriptions ("IDENT", "';'", ...) rather than full token dumps.
type ParseError struct {
	Expected string
	Got      string
	Pos      Position
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: expected %s, got %s", e.Pos, e.Expected, e.Got)
}

// ParseErrors aggregates every ParseError found during one parse, per the
// "multiple errors may be reported per parse" contract in §4.2.
type ParseErrors []*ParseError

func (es ParseErrors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

func (es ParseErrors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}
