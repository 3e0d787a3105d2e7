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

// Package sqlengine is an Engine that represents relations as SQL table
// expressions, translating a Relation tree into a vitess sqlparser AST
// rather than executing anything directly.
package sqlengine

import (
	"github.com/lsst/daf-relation/rel"
	"github.com/lsst/daf-relation/rel/op"
)

// Engine is a SQL-backed Engine. Its payload type is *SelectParts.
type Engine struct {
	*rel.BaseEngine
}

var _ rel.Engine = (*Engine)(nil)

// New returns a new Engine named name.
func New(name string) *Engine {
	return &Engine{BaseEngine: rel.NewBaseEngine(name, defaultFunctions())}
}

// PreservesOrder implements rel.Engine, matching the original SQL engine's
// policy exactly (spec.md §6): Slice and Deduplication preserve order
// (SELECT DISTINCT/OFFSET/LIMIT on top of an ORDER BY keeps it), a Transfer
// to this engine does not (landing rows in a table loses the order they
// arrived in), a Transfer to another engine preserves order exactly when
// that engine does for the same Transfer, and everything else doesn't.
func (e *Engine) PreservesOrder(o rel.Operation) bool {
	switch t := o.(type) {
	case *op.Slice, *op.Deduplication:
		return true
	case *op.Transfer:
		if t.Destination == rel.Engine(e) {
			return false
		}
		return t.Destination.PreservesOrder(o)
	default:
		return false
	}
}

// GetJoinIdentityPayload implements rel.Engine: a single-row, no-column
// SelectParts selecting from the dual table.
func (e *Engine) GetJoinIdentityPayload() any {
	return identitySelectParts()
}

// GetDoomedPayload implements rel.Engine: a SelectParts whose WHERE clause
// is always false.
func (e *Engine) GetDoomedPayload(columns rel.ColumnSet) any {
	return doomedSelectParts(columns)
}

func defaultFunctions() map[string]any {
	return map[string]any{}
}
