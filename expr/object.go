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

package expr

import (
	"github.com/rulego/flowdsl/lang"
	"github.com/rulego/flowdsl/value"
)

type objectStep struct {
	kind  lang.PropertyKind
	key   string
	value Fn
}

// CompileObject compiles an object literal (select projector or plain
// object-constructor expression) per §4.3's lowering rule: spreads and
// key-value/shorthand entries are applied in textual order into a fresh
// map (later writes win), then every exclusion is deleted, regardless of
// where it appeared in the source text.
func CompileObject(obj *lang.ObjectLiteral) (Fn, error) {
	steps := make([]objectStep, 0, len(obj.Properties))
	var exclusions []string

	for _, prop := range obj.Properties {
		switch prop.Kind {
		case lang.PropExclusion:
			exclusions = append(exclusions, prop.Key)
			continue
		case lang.PropSpreadAll:
			steps = append(steps, objectStep{kind: prop.Kind})
		case lang.PropSpreadExpr:
			fn, err := Compile(prop.Value)
			if err != nil {
				return nil, err
			}
			steps = append(steps, objectStep{kind: prop.Kind, value: fn})
		case lang.PropShorthand:
			steps = append(steps, objectStep{kind: prop.Kind, key: prop.Key})
		case lang.PropKeyValue:
			fn, err := Compile(prop.Value)
			if err != nil {
				return nil, err
			}
			steps = append(steps, objectStep{kind: prop.Kind, key: prop.Key, value: fn})
		}
	}

	return func(item, state value.Record) value.Record {
		out := value.Map{}
		for _, s := range steps {
			switch s.kind {
			case lang.PropSpreadAll:
				copyFields(out, item)
			case lang.PropSpreadExpr:
				copyFields(out, s.value(item, state))
			case lang.PropShorthand:
				out[s.key] = value.GetField(item, s.key)
			case lang.PropKeyValue:
				out[s.key] = s.value(item, state)
			}
		}
		for _, name := range exclusions {
			delete(out, name)
		}
		return out
	}, nil
}

func copyFields(dst value.Map, src value.Record) {
	m, ok := src.(value.Map)
	if !ok {
		return
	}
	for k, v := range m {
		dst[k] = v
	}
}
