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

// Join combines two relations on their common columns, optionally narrowed
// by an extra Predicate and bounded by MinColumns/MaxColumns (MaxColumns
// nil means "no cap beyond the full column intersection").
type Join struct {
	Predicate  rel.Predicate
	MinColumns rel.ColumnSet
	MaxColumns rel.ColumnSet
}

var _ BinaryOperation = (*Join)(nil)

// NewJoin constructs a Join. pred may be nil for a plain equi-join on
// common columns; maxColumns may be nil for "no cap".
func NewJoin(pred rel.Predicate, minColumns, maxColumns rel.ColumnSet) *Join {
	return &Join{Predicate: pred, MinColumns: minColumns, MaxColumns: maxColumns}
}

func (j *Join) String() string { return "⋈" }

func (j *Join) AppliedEngine(lhs, rhs rel.Relation) rel.Engine    { return lhs.Engine() }
func (j *Join) AppliedColumns(lhs, rhs rel.Relation) rel.ColumnSet { return lhs.Columns().Union(rhs.Columns()) }
func (j *Join) AppliedMinRows(lhs, rhs rel.Relation) uint64       { return 0 }

func (j *Join) AppliedMaxRows(lhs, rhs rel.Relation) *uint64 {
	lmax, rmax := lhs.MaxRows(), rhs.MaxRows()
	if (lmax != nil && *lmax == 0) || (rmax != nil && *rmax == 0) {
		return rel.Bounded(0)
	}
	if lmax == nil || rmax == nil {
		return nil
	}
	v := *lmax * *rmax
	return &v
}

// commonColumns is lhs and rhs's shared columns, capped by MaxColumns when
// set.
func (j *Join) commonColumns(lhs, rhs rel.Relation) rel.ColumnSet {
	common := lhs.Columns().Intersect(rhs.Columns())
	if j.MaxColumns.Len() > 0 {
		common = common.Intersect(j.MaxColumns)
	}
	return common
}

// requiredColumns is the set of columns Predicate needs, if any.
func (j *Join) requiredColumns() rel.ColumnSet {
	if j.Predicate == nil {
		return nil
	}
	return j.Predicate.ColumnsRequired()
}

// Apply joins lhs and rhs. Checks run in this order, deliberately, so that
// a real logic error in an earlier check is never silently masked by a
// later simplification: engines must match; Predicate's columns must all
// be available across the two sides; a Join constructed with distinct
// MinColumns/MaxColumns is resolved to a single common-columns set before
// anything else is checked against it, so every Join that ends up attached
// to a node has MinColumns == MaxColumns; MinColumns must actually be
// present on both lhs and rhs; an ordered operand is rejected with
// ErrRowOrder, or has its Sort stripped under StripOrdering (a join's
// result order is never meaningful); and only after all of that
// does the join-identity shortcut apply (joining with the zero-column,
// single-row identity relation just returns the other operand unchanged).
func (j *Join) Apply(lhs, rhs rel.Relation, opts ...ApplyOption) (rel.Relation, error) {
	o := resolveOptions(opts)
	if lhs.Engine() != rhs.Engine() {
		return nil, rel.ErrEngine.New("join operands are in different engines")
	}
	if j.Predicate != nil {
		required := j.Predicate.ColumnsRequired()
		if !required.IsSubsetOf(lhs.Columns().Union(rhs.Columns())) {
			return nil, rel.ErrColumn.New(fmt.Sprintf("join predicate %s needs columns not present in either operand", j.Predicate))
		}
	}
	resolved := j
	if !j.MaxColumns.Equals(j.MinColumns) {
		common := rel.NewColumnSet(j.commonColumns(lhs, rhs).Keys()...)
		if !common.IsSupersetOf(j.MinColumns) {
			return nil, rel.ErrColumn.New(fmt.Sprintf("resolved common key columns %s do not cover required columns %s", common, j.MinColumns))
		}
		resolved = &Join{Predicate: j.Predicate, MinColumns: common, MaxColumns: common}
	}
	if !lhs.Columns().IsSupersetOf(resolved.MinColumns) {
		return nil, rel.ErrColumn.New(fmt.Sprintf("left operand is missing required common columns %s", resolved.MinColumns.Difference(lhs.Columns())))
	}
	if !rhs.Columns().IsSupersetOf(resolved.MinColumns) {
		return nil, rel.ErrColumn.New(fmt.Sprintf("right operand is missing required common columns %s", resolved.MinColumns.Difference(rhs.Columns())))
	}
	lhs, err := rel.ExpectUnordered(lhs, "join does not preserve left operand row order", o.StripOrdering)
	if err != nil {
		return nil, err
	}
	rhs, err = rel.ExpectUnordered(rhs, "join does not preserve right operand row order", o.StripOrdering)
	if err != nil {
		return nil, err
	}
	if rel.IsJoinIdentity(lhs) {
		return rhs, nil
	}
	if rel.IsJoinIdentity(rhs) {
		return lhs, nil
	}
	return rel.NewBinaryRelation(resolved, lhs, rhs, resolved.AppliedColumns(lhs, rhs), o.Lock), nil
}

// Partial fixes one side of this join (fixedOnLeft selects which) and
// returns a PartialJoin that can be pushed upstream through the other,
// still-moving side's ancestors via the commutation machinery, finally
// resolving into a concrete Join once it lands somewhere compatible with
// fixed's engine.
func (j *Join) Partial(fixed rel.Relation, fixedOnLeft bool) *PartialJoin {
	return &PartialJoin{
		Fixed:       fixed,
		FixedOnLeft: fixedOnLeft,
		Predicate:   j.Predicate,
		MinColumns:  j.MinColumns,
		MaxColumns:  j.MaxColumns,
	}
}

// PartialJoin is a join with one operand already fixed, used internally by
// the commutation machinery to push a join upstream through the other
// (moving) operand's ancestors one at a time. Per invariant, a PartialJoin
// never appears as the operation of a node in a finished tree: Apply always
// either resolves it into a concrete Join or fails outright.
type PartialJoin struct {
	Fixed       rel.Relation
	FixedOnLeft bool
	Predicate   rel.Predicate
	MinColumns  rel.ColumnSet
	MaxColumns  rel.ColumnSet
}

var _ UnaryOperation = (*PartialJoin)(nil)

func (pj *PartialJoin) toJoin() *Join {
	return &Join{Predicate: pj.Predicate, MinColumns: pj.MinColumns, MaxColumns: pj.MaxColumns}
}

func (pj *PartialJoin) requiredColumns() rel.ColumnSet {
	if pj.Predicate == nil {
		return nil
	}
	return pj.Predicate.ColumnsRequired()
}

func (pj *PartialJoin) ColumnsRequired() rel.ColumnSet { return pj.requiredColumns() }
func (pj *PartialJoin) IsEmptyInvariant() bool         { return false }
func (pj *PartialJoin) IsCountInvariant() bool         { return false }
func (pj *PartialJoin) IsOrderDependent() bool         { return false }
func (pj *PartialJoin) IsCountDependent() bool         { return false }
func (pj *PartialJoin) ImposesOrder() bool             { return false }

func (pj *PartialJoin) AppliedEngine(target rel.Relation) rel.Engine { return target.Engine() }
func (pj *PartialJoin) AppliedColumns(target rel.Relation) rel.ColumnSet {
	return pj.Fixed.Columns().Union(target.Columns())
}
func (pj *PartialJoin) AppliedMinRows(target rel.Relation) uint64 { return 0 }
func (pj *PartialJoin) AppliedMaxRows(target rel.Relation) *uint64 {
	return pj.toJoin().AppliedMaxRows(pj.operands(target))
}

// operands returns (lhs, rhs) in the correct order for the underlying Join.
func (pj *PartialJoin) operands(target rel.Relation) (rel.Relation, rel.Relation) {
	if pj.FixedOnLeft {
		return pj.Fixed, target
	}
	return target, pj.Fixed
}

func (pj *PartialJoin) String() string { return "⋈[partial]" }

// resolve completes this PartialJoin into a concrete Join against target.
func (pj *PartialJoin) resolve(target rel.Relation) (rel.Relation, error) {
	lhs, rhs := pj.operands(target)
	return pj.toJoin().Apply(lhs, rhs)
}

// Apply resolves against target directly if it's already compatible,
// otherwise backtracks through target's ancestors (never Fixed's) to reach
// PreferredEngine, falling back to a Transfer, exactly like Calculation.
func (pj *PartialJoin) Apply(target rel.Relation, opts ...ApplyOption) (rel.Relation, error) {
	o := resolveOptions(opts)
	if resolved, err := pj.resolve(target); err == nil && reengine(target, o.PreferredEngine) {
		return resolved, nil
	}
	if o.Backtrack {
		if inserted, ok := pj.insertRecursive(target, o.PreferredEngine); ok {
			return inserted, nil
		}
	}
	if o.PreferredEngine != nil && o.Transfer {
		if transferred, err := (&Transfer{Destination: o.PreferredEngine}).Apply(target); err == nil {
			target = transferred
		}
	}
	if o.RequirePreferredEngine && o.PreferredEngine != nil && target.Engine() != o.PreferredEngine {
		return nil, rel.ErrEngine.New("could not reach preferred engine")
	}
	return pj.resolve(target)
}

// insertRecursive pushes pj further upstream through target's own
// ancestors. It always refuses to cross a Deduplication: a join only
// commutes past deduplicating a fixed relation's rows if those rows are
// already known to be unique, which nothing here can check. Crossing a
// Projection first widens it to keep whatever columns the join predicate
// needs, then narrows back down once the join is resolved underneath.
// Through a Join it tries exactly one branch at a time, like Calculation.
func (pj *PartialJoin) insertRecursive(target rel.Relation, preferredEngine rel.Engine) (rel.Relation, bool) {
	if target.IsLocked() {
		return nil, false
	}
	switch t := target.(type) {
	case *rel.UnaryRelation:
		if _, ok := t.Op.(*Deduplication); ok {
			return nil, false
		}
		if proj, ok := t.Op.(*Projection); ok {
			widened := &Projection{ProjColumns: proj.ProjColumns.Union(pj.requiredColumns())}
			newTarget, err := widened.Apply(t.Target)
			if err != nil {
				return nil, false
			}
			rewrapped, ok := pj.insertRecursiveOrApply(newTarget, preferredEngine)
			if !ok {
				return nil, false
			}
			final, err := (&Projection{ProjColumns: pj.AppliedColumns(t.Target).Intersect(proj.ProjColumns.Union(pj.Fixed.Columns()))}).Apply(rewrapped)
			if err != nil {
				return nil, false
			}
			return final, true
		}
		inner, ok := t.Op.(UnaryOperation)
		if !ok || !crossable(pj, inner, t.Target) {
			return nil, false
		}
		newTarget, ok := pj.insertRecursiveOrApply(t.Target, preferredEngine)
		if !ok {
			return nil, false
		}
		return rel.NewUnaryRelation(inner, newTarget, inner.AppliedColumns(newTarget), false), true
	case *rel.BinaryRelation:
		join, ok := t.Op.(*Join)
		if !ok {
			return nil, false
		}
		if newLHS, ok := pj.insertRecursiveOrApply(t.LHS, preferredEngine); ok {
			if rebuilt, err := join.Apply(newLHS, t.RHS); err == nil {
				return rebuilt, true
			}
		}
		if newRHS, ok := pj.insertRecursiveOrApply(t.RHS, preferredEngine); ok {
			if rebuilt, err := join.Apply(t.LHS, newRHS); err == nil {
				return rebuilt, true
			}
		}
		return nil, false
	default:
		return nil, false
	}
}

func (pj *PartialJoin) insertRecursiveOrApply(target rel.Relation, preferredEngine rel.Engine) (rel.Relation, bool) {
	if resolved, err := pj.resolve(target); err == nil && reengine(target, preferredEngine) {
		return resolved, true
	}
	return pj.insertRecursive(target, preferredEngine)
}
