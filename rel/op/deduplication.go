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

package op

import (
	"fmt"

	"github.com/lsst/daf-relation/rel"
)

// Deduplication removes duplicate rows, comparing only UniqueKey's columns
// if set, or every key column of the target otherwise. Like Projection, it
// is empty-invariant but not count-invariant: it can shrink a relation's
// row count, but never to zero unless the input already was.
type Deduplication struct {
	UniqueKey rel.ColumnSet // nil means "resolve to target's key columns"
}

var _ UnaryOperation = (*Deduplication)(nil)

// NewDeduplication constructs a Deduplication over key, or over every key
// column of the target (resolved at Apply time) if key is nil.
func NewDeduplication(key rel.ColumnSet) *Deduplication { return &Deduplication{UniqueKey: key} }

func (d *Deduplication) ColumnsRequired() rel.ColumnSet { return d.UniqueKey }
func (d *Deduplication) IsEmptyInvariant() bool         { return true }
func (d *Deduplication) IsCountInvariant() bool         { return false }
func (d *Deduplication) IsOrderDependent() bool         { return false }
func (d *Deduplication) IsCountDependent() bool         { return false }
func (d *Deduplication) ImposesOrder() bool             { return false }

func (d *Deduplication) AppliedEngine(target rel.Relation) rel.Engine    { return target.Engine() }
func (d *Deduplication) AppliedColumns(target rel.Relation) rel.ColumnSet { return target.Columns() }
func (d *Deduplication) AppliedMinRows(target rel.Relation) uint64 {
	if target.MinRows() > 0 {
		return 1
	}
	return 0
}
func (d *Deduplication) AppliedMaxRows(target rel.Relation) *uint64 { return target.MaxRows() }

func (d *Deduplication) String() string { return "deduplication" }

// resolvedKey returns UniqueKey, or every key column of target if UniqueKey
// is unset.
func (d *Deduplication) resolvedKey(target rel.Relation) rel.ColumnSet {
	if d.UniqueKey.Len() > 0 {
		return d.UniqueKey
	}
	return rel.NewColumnSet(target.Columns().Keys()...)
}

func (d *Deduplication) build(target rel.Relation, lock bool) rel.Relation {
	return rel.NewUnaryRelation(d, target, target.Columns(), lock)
}

// Apply deduplicates target. It is a no-op if target's next operation is
// already a Deduplication. Since "duplicate" only means something for an
// unordered multiset, target's row order must not currently be meaningful
// (ExpectUnordered); StripOrdering removes an offending upstream Sort
// instead of raising RowOrderError.
func (d *Deduplication) Apply(target rel.Relation, opts ...ApplyOption) (rel.Relation, error) {
	o := resolveOptions(opts)
	key := d.resolvedKey(target)
	if key.Len() == 0 {
		return nil, rel.ErrColumn.New("deduplication requires at least one key column")
	}
	if !key.IsSubsetOf(target.Columns()) {
		return nil, rel.ErrColumn.New(fmt.Sprintf("target is missing unique-key columns %s", key.Difference(target.Columns())))
	}
	if u, ok := target.(*rel.UnaryRelation); ok {
		if _, ok := u.Op.(*Deduplication); ok {
			return target, nil
		}
	}
	target, err := rel.ExpectUnordered(target, "deduplication does not preserve row order", o.StripOrdering)
	if err != nil {
		return nil, err
	}
	resolved := &Deduplication{UniqueKey: key}
	return applyWithBacktrack(target, o, func(rel.Relation) bool { return true }, resolved.insertRecursive, func(t rel.Relation) rel.Relation {
		return resolved.build(t, o.Lock)
	}, "")
}

// insertRecursive pushes d upstream. Through a Join it recurses into each
// branch independently, only where the resolved unique key lies entirely
// within that branch's own columns, and recombines with Join.Apply using
// the two *independent* recursion results — not the same result applied
// twice to both arguments, which would silently drop whichever branch's
// pushed-down deduplication happened to come first.
func (d *Deduplication) insertRecursive(target rel.Relation, preferredEngine rel.Engine) (rel.Relation, bool) {
	if target.IsLocked() {
		return nil, false
	}
	switch t := target.(type) {
	case *rel.UnaryRelation:
		inner, ok := t.Op.(UnaryOperation)
		if !ok || !crossable(d, inner, t.Target) {
			return nil, false
		}
		newTarget, ok := d.insertRecursiveOrApply(t.Target, preferredEngine)
		if !ok {
			return nil, false
		}
		return rel.NewUnaryRelation(inner, newTarget, inner.AppliedColumns(newTarget), false), true
	case *rel.BinaryRelation:
		join, ok := t.Op.(*Join)
		if !ok {
			return nil, false
		}
		newLHS, newRHS := t.LHS, t.RHS
		changed := false
		if d.UniqueKey.IsSubsetOf(t.LHS.Columns()) {
			if nl, ok := d.insertRecursiveOrApply(t.LHS, preferredEngine); ok {
				newLHS, changed = nl, true
			}
		}
		if d.UniqueKey.IsSubsetOf(t.RHS.Columns()) {
			if nr, ok := d.insertRecursiveOrApply(t.RHS, preferredEngine); ok {
				newRHS, changed = nr, true
			}
		}
		if !changed {
			return nil, false
		}
		rebuilt, err := join.Apply(newLHS, newRHS)
		if err != nil {
			return nil, false
		}
		return rebuilt, true
	default:
		return nil, false
	}
}

func (d *Deduplication) insertRecursiveOrApply(target rel.Relation, preferredEngine rel.Engine) (rel.Relation, bool) {
	if reengine(target, preferredEngine) {
		return d.build(target, false), true
	}
	return d.insertRecursive(target, preferredEngine)
}
