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

import "github.com/lsst/daf-relation/rel"

// Chain concatenates two relations with identical columns in the same
// engine, as a multiset union (duplicates across the two sides survive).
type Chain struct{}

var _ BinaryOperation = (*Chain)(nil)

// NewChain constructs a Chain operation.
func NewChain() *Chain { return &Chain{} }

func (c *Chain) String() string { return "∪" }

func (c *Chain) AppliedEngine(lhs, rhs rel.Relation) rel.Engine    { return lhs.Engine() }
func (c *Chain) AppliedColumns(lhs, rhs rel.Relation) rel.ColumnSet { return lhs.Columns() }
func (c *Chain) AppliedMinRows(lhs, rhs rel.Relation) uint64       { return lhs.MinRows() + rhs.MinRows() }

func (c *Chain) AppliedMaxRows(lhs, rhs rel.Relation) *uint64 {
	lmax, rmax := lhs.MaxRows(), rhs.MaxRows()
	if lmax == nil || rmax == nil {
		return nil
	}
	v := *lmax + *rmax
	return &v
}

// Apply concatenates lhs and rhs. Both must be in the same engine and have
// the same columns. An ordered operand is rejected with ErrRowOrder, or has
// its Sort stripped under StripOrdering, since nothing about a Chain
// defines how the two sides' orders would interleave.
// Unlike Join, Chain never shortcuts to returning one operand even when the
// other is provably empty: an empty operand may still carry diagnostic
// messages (a Leaf explaining why it's empty) that a caller relies on
// seeing reflected in the tree.
func (c *Chain) Apply(lhs, rhs rel.Relation, opts ...ApplyOption) (rel.Relation, error) {
	o := resolveOptions(opts)
	if lhs.Engine() != rhs.Engine() {
		return nil, rel.ErrEngine.New("chain operands are in different engines")
	}
	if !lhs.Columns().Equals(rhs.Columns()) {
		return nil, rel.ErrColumn.New("chain operands have different columns")
	}
	lhs, err := rel.ExpectUnordered(lhs, "chain does not preserve left operand row order", o.StripOrdering)
	if err != nil {
		return nil, err
	}
	rhs, err = rel.ExpectUnordered(rhs, "chain does not preserve right operand row order", o.StripOrdering)
	if err != nil {
		return nil, err
	}
	return rel.NewBinaryRelation(c, lhs, rhs, c.AppliedColumns(lhs, rhs), o.Lock), nil
}
