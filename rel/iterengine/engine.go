// Copyright 2026 The DAF Relation Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package iterengine is a reference Engine that stores every leaf's payload
// as a plain in-memory []Row and executes relation trees by walking them
// directly, with no query planning beyond what rel/op's commutation
// optimizer already did. It exists to make the algebra runnable and
// testable, not to be fast.
package iterengine

import (
	"github.com/lsst/daf-relation/rel"
)

// Row is one row of an in-memory relation: a value per column.
type Row map[rel.ColumnTag]any

// Engine is the in-memory reference Engine implementation.
type Engine struct {
	*rel.BaseEngine
}

var _ rel.Engine = (*Engine)(nil)

// New returns a new, empty Engine named name.
func New(name string) *Engine {
	return &Engine{BaseEngine: rel.NewBaseEngine(name, defaultFunctions())}
}

// PreservesOrder implements rel.Engine. The reference executor never
// reorders rows except when explicitly asked to (a Sort), so every
// operation preserves whatever order its target already had.
func (e *Engine) PreservesOrder(op rel.Operation) bool { return true }

// GetJoinIdentityPayload implements rel.Engine: a single row with no
// columns.
func (e *Engine) GetJoinIdentityPayload() any { return []Row{{}} }

// GetDoomedPayload implements rel.Engine: zero rows.
func (e *Engine) GetDoomedPayload(columns rel.ColumnSet) any { return []Row{} }

// defaultFunctions is empty: every function this engine currently knows how
// to evaluate (add/sub/mul/truediv/eq/ne/lt/le/gt/ge/and_/or_/not_, see
// expr.go's standardFunctions) is one of rel.BaseEngine's standard operator
// names already, so GetFunction never needs to fall through to this map.
// An engine-specific function would be registered here.
func defaultFunctions() map[string]any {
	return map[string]any{}
}
