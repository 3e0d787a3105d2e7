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

// Calculation adds one new column, Tag, computed by Expr from target's
// existing columns. Expr must require at least one column: a Calculation
// whose expression is a bare constant is rejected by NewCalculation, since a
// constant column can always be expressed with Projection over a leaf
// instead.
type Calculation struct {
	Tag  rel.ColumnTag
	Expr rel.ColumnExpression
}

var _ UnaryOperation = (*Calculation)(nil)

// NewCalculation constructs a Calculation, returning ErrColumn if expr
// requires no columns.
func NewCalculation(tag rel.ColumnTag, expr rel.ColumnExpression) (*Calculation, error) {
	if expr.ColumnsRequired().Len() == 0 {
		return nil, rel.ErrColumn.New(fmt.Sprintf("calculated column %s has no required columns", tag.Name()))
	}
	return &Calculation{Tag: tag, Expr: expr}, nil
}

func (c *Calculation) ColumnsRequired() rel.ColumnSet { return c.Expr.ColumnsRequired() }
func (c *Calculation) IsEmptyInvariant() bool         { return true }
func (c *Calculation) IsCountInvariant() bool         { return true }
func (c *Calculation) IsOrderDependent() bool         { return false }
func (c *Calculation) IsCountDependent() bool         { return false }
func (c *Calculation) ImposesOrder() bool             { return false }

func (c *Calculation) AppliedEngine(target rel.Relation) rel.Engine  { return target.Engine() }
func (c *Calculation) AppliedColumns(target rel.Relation) rel.ColumnSet {
	return target.Columns().With(c.Tag)
}
func (c *Calculation) AppliedMinRows(target rel.Relation) uint64  { return target.MinRows() }
func (c *Calculation) AppliedMaxRows(target rel.Relation) *uint64 { return target.MaxRows() }

func (c *Calculation) String() string {
	return fmt.Sprintf("+[%s=%s]", c.Tag.Name(), c.Expr)
}

func (c *Calculation) supported(target rel.Relation) bool {
	return c.Expr.IsSupportedBy(target.Engine())
}

func (c *Calculation) build(target rel.Relation, lock bool) rel.Relation {
	return rel.NewUnaryRelation(c, target, c.AppliedColumns(target), lock)
}

// Apply inserts this Calculation on top of target, backtracking past
// commutable ancestors toward PreferredEngine when the current engine
// cannot evaluate Expr.
func (c *Calculation) Apply(target rel.Relation, opts ...ApplyOption) (rel.Relation, error) {
	o := resolveOptions(opts)
	if target.Columns().Contains(c.Tag) {
		return nil, rel.ErrColumn.New(fmt.Sprintf("column %s already present in target", c.Tag.Name()))
	}
	return applyWithBacktrack(target, o, c.supported, c.insertRecursive, func(t rel.Relation) rel.Relation {
		return c.build(t, o.Lock)
	}, fmt.Sprintf("engine %s does not support %s", target.Engine(), c.Expr))
}

// insertRecursive tries to push c further upstream, past target's own
// operation, to reach preferredEngine without a Transfer. It mirrors the
// original Calculation._insert_recursive: crossing is refused outright
// unless Expr's required columns are still available one level up (a
// Calculation must never be pushed below the very op that produced a
// column it references); through a UnaryOperationRelation it augments a
// Projection with Tag so the pushed-down calculated column survives the
// rebuild, and otherwise simply recurses past any operation that commutes;
// through a BinaryOperationRelation (Join only; Chain never commutes with
// Calculation, since the two branches might compute inconsistent values)
// it tries exactly one branch, whichever has the columns Expr needs.
func (c *Calculation) insertRecursive(target rel.Relation, preferredEngine rel.Engine) (rel.Relation, bool) {
	if target.IsLocked() {
		return nil, false
	}
	switch t := target.(type) {
	case *rel.UnaryRelation:
		inner, ok := t.Op.(UnaryOperation)
		if !ok || !crossable(c, inner, t.Target) {
			return nil, false
		}
		if !c.Expr.ColumnsRequired().IsSubsetOf(t.Target.Columns()) {
			return nil, false
		}
		newTarget, ok := c.insertRecursiveOrApply(t.Target, preferredEngine)
		if !ok {
			return nil, false
		}
		if proj, isProj := inner.(*Projection); isProj {
			augmented := &Projection{ProjColumns: proj.ProjColumns.With(c.Tag)}
			rebuilt, err := augmented.Apply(newTarget)
			if err != nil {
				return nil, false
			}
			return rebuilt, true
		}
		return rel.NewUnaryRelation(inner, newTarget, inner.AppliedColumns(newTarget), false), true
	case *rel.BinaryRelation:
		join, ok := t.Op.(*Join)
		if !ok {
			return nil, false
		}
		if c.Expr.ColumnsRequired().IsSubsetOf(t.LHS.Columns()) {
			if newLHS, ok := c.insertRecursiveOrApply(t.LHS, preferredEngine); ok {
				if rebuilt, err := join.Apply(newLHS, t.RHS); err == nil {
					return rebuilt, true
				}
			}
		}
		if c.Expr.ColumnsRequired().IsSubsetOf(t.RHS.Columns()) {
			if newRHS, ok := c.insertRecursiveOrApply(t.RHS, preferredEngine); ok {
				if rebuilt, err := join.Apply(t.LHS, newRHS); err == nil {
					return rebuilt, true
				}
			}
		}
		return nil, false
	default:
		return nil, false
	}
}

// insertRecursiveOrApply is the base case shared by every operation's
// insertRecursive: once the walk reaches a relation already in
// preferredEngine (or there is no preference), applying directly succeeds;
// otherwise keep walking upstream.
func (c *Calculation) insertRecursiveOrApply(target rel.Relation, preferredEngine rel.Engine) (rel.Relation, bool) {
	if c.supported(target) && reengine(target, preferredEngine) {
		return c.build(target, false), true
	}
	return c.insertRecursive(target, preferredEngine)
}
