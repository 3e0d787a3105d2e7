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

package rel

import (
	"fmt"
	"reflect"
)

// Relation is the sum type of the three node kinds: Leaf, *UnaryRelation,
// and *BinaryRelation. It is a value type from the caller's perspective:
// relations are immutable once constructed, and trees may share subtrees
// freely (DAG sharing, spec §3 "Lifecycle").
type Relation interface {
	// Engine is the execution backend responsible for this relation.
	Engine() Engine
	// Columns is the set of columns this relation has.
	Columns() ColumnSet
	// MinRows is the minimum number of rows this relation might have.
	MinRows() uint64
	// MaxRows is the maximum number of rows this relation might have, or
	// nil if unbounded.
	MaxRows() *uint64
	// Payload is engine-specific cached content; always nil except on a
	// Leaf (UnaryRelation and BinaryRelation nodes, Materialization nodes
	// included, never carry one).
	Payload() any
	// IsLocked reports whether the optimizer may rewrite within this
	// subtree.
	IsLocked() bool
	fmt.Stringer
}

// Bounded returns a MaxRows pointer for the finite value n.
func Bounded(n uint64) *uint64 { return &n }

// Unbounded returns the MaxRows value meaning "no upper bound."
func Unbounded() *uint64 { return nil }

// IsJoinIdentity reports whether r is the join identity: zero columns,
// exactly one row (spec §3: "columns == ∅ ∧ min_rows == 1 ∧ max_rows == 1").
func IsJoinIdentity(r Relation) bool {
	if r.Columns().Len() != 0 {
		return false
	}
	if r.MinRows() != 1 {
		return false
	}
	max := r.MaxRows()
	return max != nil && *max == 1
}

// UnaryOp is the narrow interface relation.go needs from a unary operation
// in order to compute a UnaryRelation's derived attributes. rel/op's
// UnaryOperation interface embeds this; defining it here (rather than
// importing rel/op) avoids an import cycle, since rel/op imports rel for
// ColumnTag/Engine/Relation.
type UnaryOp interface {
	Operation
	AppliedEngine(target Relation) Engine
	AppliedColumns(target Relation) ColumnSet
	AppliedMinRows(target Relation) uint64
	AppliedMaxRows(target Relation) *uint64
	// ImposesOrder reports whether this operation is itself the source of
	// row order (true only for Sort, the one Reordering variant). It is
	// what ExpectUnordered looks for when stripping upstream ordering.
	ImposesOrder() bool
}

// BinaryOp is the binary-operation analogue of UnaryOp.
type BinaryOp interface {
	Operation
	AppliedEngine(lhs, rhs Relation) Engine
	AppliedColumns(lhs, rhs Relation) ColumnSet
	AppliedMinRows(lhs, rhs Relation) uint64
	AppliedMaxRows(lhs, rhs Relation) *uint64
}

// Leaf is a relation with no upstream target: explicit columns, explicit
// row bounds, an engine-specific payload, and optional diagnostic messages.
type Leaf struct {
	LeafEngine   Engine
	LeafColumns  ColumnSet
	LeafMinRows  uint64
	LeafMaxRows  *uint64
	LeafPayload  any
	LeafLocked   bool
	LeafMessages []string
}

var _ Relation = Leaf{}

func (l Leaf) Engine() Engine     { return l.LeafEngine }
func (l Leaf) Columns() ColumnSet { return l.LeafColumns }
func (l Leaf) MinRows() uint64    { return l.LeafMinRows }
func (l Leaf) MaxRows() *uint64   { return l.LeafMaxRows }
func (l Leaf) Payload() any       { return l.LeafPayload }
func (l Leaf) IsLocked() bool     { return l.LeafLocked }

func (l Leaf) String() string {
	if len(l.LeafMessages) > 0 {
		return fmt.Sprintf("leaf[%s]", l.LeafMessages[0])
	}
	return fmt.Sprintf("leaf[%s]", l.LeafColumns)
}

// Diagnostics returns the leaf's recorded diagnostic messages (spec §3:
// "optional messages (diagnostics)"), e.g. explaining why a doomed relation
// has no rows.
func (l Leaf) Diagnostics() []string { return l.LeafMessages }

// UnaryRelation is a relation formed by applying a UnaryOp to a target
// relation. Construct only via a UnaryOperation's Apply method (rel/op);
// direct construction does not guarantee the invariants in spec §3.
type UnaryRelation struct {
	Op      UnaryOp
	Target  Relation
	columns ColumnSet
	locked  bool
}

var _ Relation = (*UnaryRelation)(nil)

// NewUnaryRelation constructs a UnaryRelation node. It is exported for use
// by rel/op's Apply implementations, not for general use by consumers.
func NewUnaryRelation(op UnaryOp, target Relation, columns ColumnSet, locked bool) *UnaryRelation {
	return &UnaryRelation{Op: op, Target: target, columns: columns, locked: locked}
}

func (u *UnaryRelation) Engine() Engine     { return u.Op.AppliedEngine(u.Target) }
func (u *UnaryRelation) Columns() ColumnSet { return u.columns }
func (u *UnaryRelation) MinRows() uint64    { return u.Op.AppliedMinRows(u.Target) }
func (u *UnaryRelation) MaxRows() *uint64   { return u.Op.AppliedMaxRows(u.Target) }
func (u *UnaryRelation) Payload() any       { return nil }
func (u *UnaryRelation) IsLocked() bool     { return u.locked }

func (u *UnaryRelation) String() string {
	return fmt.Sprintf("%s(%s)", u.Op, u.Target)
}

// BinaryRelation is a relation formed by applying a BinaryOp to a pair of
// target relations. Construct only via a BinaryOperation's Apply method.
type BinaryRelation struct {
	Op      BinaryOp
	LHS     Relation
	RHS     Relation
	columns ColumnSet
	locked  bool
}

var _ Relation = (*BinaryRelation)(nil)

// NewBinaryRelation constructs a BinaryRelation node. Exported for rel/op's
// use.
func NewBinaryRelation(op BinaryOp, lhs, rhs Relation, columns ColumnSet, locked bool) *BinaryRelation {
	return &BinaryRelation{Op: op, LHS: lhs, RHS: rhs, columns: columns, locked: locked}
}

func (b *BinaryRelation) Engine() Engine     { return b.Op.AppliedEngine(b.LHS, b.RHS) }
func (b *BinaryRelation) Columns() ColumnSet { return b.columns }
func (b *BinaryRelation) MinRows() uint64    { return b.Op.AppliedMinRows(b.LHS, b.RHS) }
func (b *BinaryRelation) MaxRows() *uint64   { return b.Op.AppliedMaxRows(b.LHS, b.RHS) }
func (b *BinaryRelation) Payload() any       { return nil }
func (b *BinaryRelation) IsLocked() bool     { return b.locked }

func (b *BinaryRelation) String() string {
	lhsStr := parenthesize(b.LHS, b.Op)
	rhsStr := parenthesize(b.RHS, b.Op)
	return fmt.Sprintf("%s %s %s", lhsStr, b.Op, rhsStr)
}

// parenthesize wraps child's String() in parentheses unless child is a Leaf
// or a BinaryRelation with the same operation as op (spec §6: "Parentheses
// are added around non-leaf, non-same-operator binary children").
func parenthesize(child Relation, op BinaryOp) string {
	switch c := child.(type) {
	case Leaf:
		return c.String()
	case *BinaryRelation:
		if reflect.TypeOf(c.Op) == reflect.TypeOf(op) {
			return c.String()
		}
	}
	return fmt.Sprintf("(%s)", child)
}

// Equal reports structural equality of two relations, per spec §3:
// "equality is structural (except payload, columns, and is_locked are not
// part of identity)". Leaf nodes compare engine, columns, row bounds and
// payload (a leaf's columns and payload ARE its identity, since nothing
// upstream computes them), but not their locked bit or messages;
// UnaryRelation/BinaryRelation compare only (Op, Target) or
// (Op, LHS, RHS), since their columns/payload/locked bit are caches
// derived from that pair, not independent identity.
func Equal(a, b Relation) bool {
	switch av := a.(type) {
	case Leaf:
		bv, ok := b.(Leaf)
		if !ok {
			return false
		}
		return av.LeafEngine == bv.LeafEngine &&
			av.LeafColumns.Equals(bv.LeafColumns) &&
			av.LeafMinRows == bv.LeafMinRows &&
			maxRowsEqual(av.LeafMaxRows, bv.LeafMaxRows) &&
			reflect.DeepEqual(av.LeafPayload, bv.LeafPayload)
	case *UnaryRelation:
		bv, ok := b.(*UnaryRelation)
		if !ok {
			return false
		}
		return reflect.DeepEqual(av.Op, bv.Op) && Equal(av.Target, bv.Target)
	case *BinaryRelation:
		bv, ok := b.(*BinaryRelation)
		if !ok {
			return false
		}
		return reflect.DeepEqual(av.Op, bv.Op) && Equal(av.LHS, bv.LHS) && Equal(av.RHS, bv.RHS)
	default:
		return false
	}
}

func maxRowsEqual(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
