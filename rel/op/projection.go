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

// Projection restricts a relation to a subset of its columns. It is not
// count-invariant: discarding columns can make previously-distinct rows
// compare equal.
type Projection struct {
	ProjColumns rel.ColumnSet
}

var _ UnaryOperation = (*Projection)(nil)

// NewProjection constructs a Projection onto columns.
func NewProjection(columns rel.ColumnSet) *Projection { return &Projection{ProjColumns: columns} }

func (p *Projection) ColumnsRequired() rel.ColumnSet { return p.ProjColumns }
func (p *Projection) IsEmptyInvariant() bool         { return true }
func (p *Projection) IsCountInvariant() bool         { return false }
func (p *Projection) IsOrderDependent() bool         { return false }
func (p *Projection) IsCountDependent() bool         { return false }
func (p *Projection) ImposesOrder() bool             { return false }

func (p *Projection) AppliedEngine(target rel.Relation) rel.Engine    { return target.Engine() }
func (p *Projection) AppliedColumns(target rel.Relation) rel.ColumnSet { return p.ProjColumns }
func (p *Projection) AppliedMinRows(target rel.Relation) uint64       { return target.MinRows() }
func (p *Projection) AppliedMaxRows(target rel.Relation) *uint64      { return target.MaxRows() }

func (p *Projection) String() string { return fmt.Sprintf("Π[%s]", p.ProjColumns) }

func (p *Projection) build(target rel.Relation, lock bool) rel.Relation {
	return rel.NewUnaryRelation(p, target, p.ProjColumns, lock)
}

// Apply restricts target to ProjColumns. It is a no-op if target already
// has exactly those columns. Two simplifications are applied before
// building a new node: a Projection directly on top of another Projection
// folds into one (the inner one is redundant, since ProjColumns is already
// checked to be a subset of it); a Projection on top of a Calculation whose
// computed column is not being kept discards the Calculation entirely.
func (p *Projection) Apply(target rel.Relation, opts ...ApplyOption) (rel.Relation, error) {
	o := resolveOptions(opts)
	if target.Columns().Equals(p.ProjColumns) {
		return target, nil
	}
	if !p.ProjColumns.IsSubsetOf(target.Columns()) {
		return nil, rel.ErrColumn.New(fmt.Sprintf("target is missing columns %s", p.ProjColumns.Difference(target.Columns())))
	}
	if u, ok := target.(*rel.UnaryRelation); ok {
		switch inner := u.Op.(type) {
		case *Projection:
			return p.Apply(u.Target, opts...)
		case *Calculation:
			if !p.ProjColumns.Contains(inner.Tag) {
				return p.Apply(u.Target, opts...)
			}
		}
	}
	if o.Backtrack {
		if inserted, ok := p.insertRecursive(target, o.PreferredEngine); ok {
			return inserted, nil
		}
	}
	if o.PreferredEngine != nil && o.Transfer && target.Engine() != o.PreferredEngine {
		transferred, err := (&Transfer{Destination: o.PreferredEngine}).Apply(target)
		if err != nil {
			return nil, err
		}
		target = transferred
	}
	if o.RequirePreferredEngine && o.PreferredEngine != nil && target.Engine() != o.PreferredEngine {
		return nil, rel.ErrEngine.New("could not reach preferred engine")
	}
	return p.build(target, o.Lock), nil
}

// insertRecursive pushes p further upstream. Through a unary ancestor it
// narrows p to whatever that ancestor additionally requires and recurses;
// through a Join it expands the pushed-down projections on each branch to
// include the join's common columns and predicate columns (so the join
// itself still has what it needs), then re-projects down to ProjColumns if
// the rebuilt join ended up wider; through a Chain the same ProjColumns
// must be pushed onto both branches unchanged, since a Chain's two sides
// always share the same columns.
func (p *Projection) insertRecursive(target rel.Relation, preferredEngine rel.Engine) (rel.Relation, bool) {
	if target.IsLocked() {
		return nil, false
	}
	switch t := target.(type) {
	case *rel.UnaryRelation:
		inner, ok := t.Op.(UnaryOperation)
		if !ok || !crossable(p, inner, t.Target) {
			return nil, false
		}
		recurseColumns := p.ProjColumns.Union(inner.ColumnsRequired())
		narrower := &Projection{ProjColumns: recurseColumns.Intersect(t.Target.Columns())}
		newTarget, err := narrower.Apply(t.Target, WithPreferredEngine(preferredEngine))
		if err != nil {
			return nil, false
		}
		rebuilt := rel.NewUnaryRelation(inner, newTarget, inner.AppliedColumns(newTarget), false)
		if !rebuilt.Columns().Equals(p.ProjColumns) {
			final, err := p.Apply(rebuilt, WithBacktrack(false))
			if err != nil {
				return nil, false
			}
			return final, true
		}
		return rebuilt, true
	case *rel.BinaryRelation:
		switch bop := t.Op.(type) {
		case *Join:
			recurseColumns := p.ProjColumns.Union(bop.commonColumns(t.LHS, t.RHS)).Union(bop.requiredColumns())
			lhsColumns := recurseColumns.Intersect(t.LHS.Columns())
			rhsColumns := recurseColumns.Intersect(t.RHS.Columns())
			newLHS, err := (&Projection{ProjColumns: lhsColumns}).Apply(t.LHS)
			if err != nil {
				return nil, false
			}
			newRHS, err := (&Projection{ProjColumns: rhsColumns}).Apply(t.RHS)
			if err != nil {
				return nil, false
			}
			joined, err := bop.Apply(newLHS, newRHS)
			if err != nil {
				// Less-ambitious fallback: project just p.ProjColumns onto
				// each branch instead of the join's full requirement.
				newLHS, err = (&Projection{ProjColumns: p.ProjColumns.Intersect(t.LHS.Columns())}).Apply(t.LHS)
				if err != nil {
					return nil, false
				}
				newRHS, err = (&Projection{ProjColumns: p.ProjColumns.Intersect(t.RHS.Columns())}).Apply(t.RHS)
				if err != nil {
					return nil, false
				}
				joined, err = bop.Apply(newLHS, newRHS)
				if err != nil {
					return nil, false
				}
			}
			if !joined.Columns().Equals(p.ProjColumns) {
				final, err := p.Apply(joined, WithBacktrack(false))
				if err != nil {
					return nil, false
				}
				return final, true
			}
			return joined, true
		case *Chain:
			newLHS, err := p.Apply(t.LHS)
			if err != nil {
				return nil, false
			}
			newRHS, err := p.Apply(t.RHS)
			if err != nil {
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
