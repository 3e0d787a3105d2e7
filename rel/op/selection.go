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

// Selection filters rows by a Predicate. Back-to-back Selections are merged
// with a logical AND rather than nested (spec §4.2).
type Selection struct {
	rowFilterBase
	Predicate rel.Predicate
}

var _ UnaryOperation = (*Selection)(nil)

// NewSelection constructs a Selection, flattening pred if it is already a
// LogicalAnd so later merges stay flat.
func NewSelection(pred rel.Predicate) *Selection {
	if terms, ok := rel.FlattenLogicalAnd(pred); ok {
		pred = rel.LogicalAndOf(terms...)
	}
	return &Selection{Predicate: pred}
}

func (s *Selection) ColumnsRequired() rel.ColumnSet { return s.Predicate.ColumnsRequired() }
func (s *Selection) IsEmptyInvariant() bool         { return false }
func (s *Selection) IsOrderDependent() bool         { return false }

func (s *Selection) AppliedMinRows(target rel.Relation) uint64 {
	if s.Predicate.AsTrivial() == rel.TrivialTrue {
		return target.MinRows()
	}
	return 0
}
func (s *Selection) AppliedMaxRows(target rel.Relation) *uint64 { return target.MaxRows() }

func (s *Selection) String() string { return fmt.Sprintf("σ[%s]", s.Predicate) }

func (s *Selection) supported(target rel.Relation) bool {
	return s.Predicate.IsSupportedBy(target.Engine())
}

func (s *Selection) build(target rel.Relation, lock bool) rel.Relation {
	return rel.NewUnaryRelation(s, target, target.Columns(), lock)
}

// Apply filters target by Predicate. A trivially-true predicate is a no-op;
// a trivially-false predicate collapses target to an empty leaf with the
// same columns, using the engine's doomed-relation payload. A Selection
// directly on top of another Selection merges into a single predicate via
// logical AND rather than nesting.
func (s *Selection) Apply(target rel.Relation, opts ...ApplyOption) (rel.Relation, error) {
	o := resolveOptions(opts)
	switch s.Predicate.AsTrivial() {
	case rel.TrivialTrue:
		return target, nil
	case rel.TrivialFalse:
		return rel.Leaf{
			LeafEngine:   target.Engine(),
			LeafColumns:  target.Columns(),
			LeafMinRows:  0,
			LeafMaxRows:  rel.Bounded(0),
			LeafPayload:  target.Engine().GetDoomedPayload(target.Columns()),
			LeafMessages: []string{fmt.Sprintf("selection %s is never true", s.Predicate)},
		}, nil
	}
	if u, ok := target.(*rel.UnaryRelation); ok {
		if inner, ok := u.Op.(*Selection); ok {
			merged := NewSelection(rel.LogicalAndOf(inner.Predicate, s.Predicate))
			return merged.Apply(u.Target, opts...)
		}
	}
	return applyWithBacktrack(target, o, s.supported, s.insertRecursive, func(t rel.Relation) rel.Relation {
		return s.build(t, o.Lock)
	}, fmt.Sprintf("engine %s does not support %s", target.Engine(), s.Predicate))
}

// insertRecursive pushes s upstream. Unlike Calculation/PartialJoin, a
// Selection may push into both branches of a Join independently: since a
// Selection is idempotent under conjunction, pushing the same predicate
// into a branch that doesn't strictly need it is still correct, so both
// sides are attempted and whichever succeed are kept.
func (s *Selection) insertRecursive(target rel.Relation, preferredEngine rel.Engine) (rel.Relation, bool) {
	if target.IsLocked() {
		return nil, false
	}
	switch t := target.(type) {
	case *rel.UnaryRelation:
		inner, ok := t.Op.(UnaryOperation)
		if !ok || !crossable(s, inner, t.Target) {
			return nil, false
		}
		newTarget, ok := s.insertRecursiveOrApply(t.Target, preferredEngine)
		if !ok {
			return nil, false
		}
		return rel.NewUnaryRelation(inner, newTarget, inner.AppliedColumns(newTarget), false), true
	case *rel.BinaryRelation:
		switch bop := t.Op.(type) {
		case *Join:
			req := s.Predicate.ColumnsRequired()
			lhs, rhs := t.LHS, t.RHS
			changed := false
			if req.IsSubsetOf(lhs.Columns()) {
				if newLHS, ok := s.insertRecursiveOrApply(lhs, preferredEngine); ok {
					lhs, changed = newLHS, true
				}
			}
			if req.IsSubsetOf(rhs.Columns()) {
				if newRHS, ok := s.insertRecursiveOrApply(rhs, preferredEngine); ok {
					rhs, changed = newRHS, true
				}
			}
			if !changed {
				return nil, false
			}
			rebuilt, err := bop.Apply(lhs, rhs)
			if err != nil {
				return nil, false
			}
			return rebuilt, true
		case *Chain:
			newLHS, okL := s.insertRecursiveOrApply(t.LHS, preferredEngine)
			newRHS, okR := s.insertRecursiveOrApply(t.RHS, preferredEngine)
			if !okL || !okR {
				return nil, false
			}
			rebuilt, err := bop.Apply(newLHS, newRHS)
			if err != nil {
				return nil, false
			}
			return rebuilt, true
		default:
			return nil, false
		}
	default:
		return nil, false
	}
}

func (s *Selection) insertRecursiveOrApply(target rel.Relation, preferredEngine rel.Engine) (rel.Relation, bool) {
	if s.supported(target) && reengine(target, preferredEngine) {
		return s.build(target, false), true
	}
	return s.insertRecursive(target, preferredEngine)
}
