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
	"errors"

	"github.com/rulego/flowdsl/expr"
	"github.com/rulego/flowdsl/flow"
	"github.com/rulego/flowdsl/lang"
	"github.com/rulego/flowdsl/plan"
	"github.com/rulego/flowdsl/registry"
	"github.com/rulego/flowdsl/window"
)

// Result is the tagged outcome of one Execute call, the uniform surface
// every command function returns (§6.3, §7).
type Result struct {
	Success bool
	Code    string
	Message string
	Payload interface{}
}

func ok(payload interface{}) Result {
	return Result{Success: true, Code: "OK", Payload: payload}
}

// fail classifies err against the structured error types raised by every
// stage (lexer, parser, lowerer, registry, flow manager) into a short code
// for callers that branch on outcome rather than parse Message text.
func fail(err error) Result {
	return Result{Success: false, Code: errorCode(err), Message: err.Error()}
}

func errorCode(err error) string {
	var (
		lexErr        *lang.LexError
		parseErrs     lang.ParseErrors
		unknownFn     *expr.UnknownFunctionError
		arityErr      *expr.ArityError
		unsupportedWn *window.UnsupportedWindowError
		planErr       *plan.Error
		streamNF      *registry.StreamNotFoundError
		streamAE      *registry.StreamAlreadyExistsError
		reservedErr   *registry.ReservedNameError
		flowNF        *flow.NotFoundError
		flowAE        *flow.AlreadyExistsError
	)
	switch {
	case errors.As(err, &lexErr):
		return "LexError"
	case errors.As(err, &parseErrs):
		return "ParseError"
	case errors.As(err, &unknownFn):
		return "UnknownFunction"
	case errors.As(err, &arityErr):
		return "ArityError"
	case errors.As(err, &unsupportedWn):
		return "UnsupportedWindow"
	case errors.As(err, &planErr):
		return "PlanError"
	case errors.As(err, &streamNF):
		return "StreamNotFound"
	case errors.As(err, &streamAE):
		return "StreamAlreadyExists"
	case errors.As(err, &reservedErr):
		return "ReservedName"
	case errors.As(err, &flowNF):
		return "FlowNotFound"
	case errors.As(err, &flowAE):
		return "FlowAlreadyExists"
	default:
		return "Error"
	}
}
