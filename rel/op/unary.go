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

// Package op implements the closed unary/binary operation algebra and the
// commutation/backtracking optimizer embedded in each operation's Apply
// method.
package op

import (
	"github.com/lsst/daf-relation/rel"
)

// UnaryOperation is implemented by every concrete unary operation
// (Calculation, Projection, Selection, Deduplication, Sort, Slice,
// Materialization, Transfer, Identity, PartialJoin). The set is closed by
// convention only: the interface has no unexported method. The shared
// Marker, RowFilter and Reordering property defaults live in the unexported
// markerBase, rowFilterBase and reorderingBase types, which only types in
// this package can embed.
type UnaryOperation interface {
	rel.UnaryOp

	// ColumnsRequired is the set of columns a target relation must already
	// have for this operation to apply to it.
	ColumnsRequired() rel.ColumnSet

	// IsEmptyInvariant reports that this operation cannot turn a non-empty
	// target into an empty one.
	IsEmptyInvariant() bool
	// IsCountInvariant reports that this operation cannot change the
	// multiset size of its target (duplicate removal does not count).
	IsCountInvariant() bool
	// IsOrderDependent reports that this operation's result depends on the
	// row order of its target.
	IsOrderDependent() bool
	// IsCountDependent reports that this operation's result depends on the
	// row count of its target.
	IsCountDependent() bool
}

// ApplyOptions collects the optional controls accepted by the unary and
// binary operations' Apply methods. Not every field is meaningful to every
// operation (Slice, for instance, has no notion of a preferred engine); see
// each operation's Apply doc comment for which fields it reads.
type ApplyOptions struct {
	// PreferredEngine is the engine the operation would ideally run in. If
	// nil, the operation is simply applied in target's existing engine.
	PreferredEngine rel.Engine
	// Backtrack, if true (the default), attempts to insert the operation
	// further upstream, past commutable ancestors, to reach PreferredEngine
	// without adding a Transfer.
	Backtrack bool
	// Transfer, if true, inserts a Transfer to PreferredEngine when
	// backtracking did not succeed (or was not attempted).
	Transfer bool
	// RequirePreferredEngine, if true, raises EngineError when
	// PreferredEngine could not be reached by backtracking or Transfer.
	RequirePreferredEngine bool
	// Lock sets the result relation's IsLocked bit.
	Lock bool
	// StripOrdering, if true, removes an upstream Sort that an
	// order-breaking operation would otherwise conflict with, rather than
	// raising RowOrderError.
	StripOrdering bool
}

// ApplyOption mutates an ApplyOptions value; see the With* functions.
type ApplyOption func(*ApplyOptions)

// WithPreferredEngine sets the engine the operation should ideally end up
// in.
func WithPreferredEngine(e rel.Engine) ApplyOption {
	return func(o *ApplyOptions) { o.PreferredEngine = e }
}

// WithBacktrack overrides the default (true) backtracking behavior.
func WithBacktrack(b bool) ApplyOption { return func(o *ApplyOptions) { o.Backtrack = b } }

// WithTransfer requests a Transfer be inserted if backtracking fails (or is
// disabled) and the preferred engine still isn't reached.
func WithTransfer(b bool) ApplyOption { return func(o *ApplyOptions) { o.Transfer = b } }

// WithRequirePreferredEngine requests EngineError if the preferred engine
// cannot be reached.
func WithRequirePreferredEngine(b bool) ApplyOption {
	return func(o *ApplyOptions) { o.RequirePreferredEngine = b }
}

// WithLock sets IsLocked on the resulting relation.
func WithLock(b bool) ApplyOption { return func(o *ApplyOptions) { o.Lock = b } }

// WithStripOrdering requests that an upstream Sort be removed, rather than
// RowOrderError raised, when it conflicts with this operation.
func WithStripOrdering(b bool) ApplyOption { return func(o *ApplyOptions) { o.StripOrdering = b } }

// resolveOptions applies opts over the default ApplyOptions (Backtrack
// true, everything else false/nil), matching the Python operations' keyword
// argument defaults.
func resolveOptions(opts []ApplyOption) ApplyOptions {
	o := ApplyOptions{Backtrack: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// markerBase implements the algebraic properties shared by every Marker
// subclass (Materialization, Transfer): it never changes rows or columns.
// Embedders may shadow AppliedEngine (Transfer does, since its result moves
// to a different engine).
type markerBase struct{}

func (markerBase) ColumnsRequired() rel.ColumnSet                { return nil }
func (markerBase) IsEmptyInvariant() bool                        { return true }
func (markerBase) IsCountInvariant() bool                        { return true }
func (markerBase) IsOrderDependent() bool                        { return false }
func (markerBase) IsCountDependent() bool                        { return false }
func (markerBase) ImposesOrder() bool                            { return false }
func (markerBase) AppliedEngine(target rel.Relation) rel.Engine  { return target.Engine() }
func (markerBase) AppliedColumns(target rel.Relation) rel.ColumnSet {
	return target.Columns()
}
func (markerBase) AppliedMinRows(target rel.Relation) uint64 { return target.MinRows() }
func (markerBase) AppliedMaxRows(target rel.Relation) *uint64 { return target.MaxRows() }

// rowFilterBase implements the algebraic properties shared by every
// RowFilter subclass (Selection, Slice): columns and engine never change,
// and this family can never be count-invariant (it only removes rows).
// IsEmptyInvariant, IsOrderDependent, and AppliedMinRows are set per
// concrete type.
type rowFilterBase struct{}

func (rowFilterBase) IsCountInvariant() bool                     { return false }
func (rowFilterBase) IsCountDependent() bool                     { return false }
func (rowFilterBase) ImposesOrder() bool                         { return false }
func (rowFilterBase) AppliedEngine(target rel.Relation) rel.Engine { return target.Engine() }
func (rowFilterBase) AppliedColumns(target rel.Relation) rel.ColumnSet {
	return target.Columns()
}

// reorderingBase implements the algebraic properties shared by every
// Reordering subclass (only Sort, in this implementation): rows and columns
// are unaffected in count, and this is the one family that does impose
// order.
type reorderingBase struct{}

func (reorderingBase) ColumnsRequired() rel.ColumnSet                { return nil }
func (reorderingBase) IsEmptyInvariant() bool                        { return true }
func (reorderingBase) IsCountInvariant() bool                        { return true }
func (reorderingBase) IsOrderDependent() bool                        { return false }
func (reorderingBase) IsCountDependent() bool                        { return false }
func (reorderingBase) ImposesOrder() bool                            { return true }
func (reorderingBase) AppliedEngine(target rel.Relation) rel.Engine  { return target.Engine() }
func (reorderingBase) AppliedColumns(target rel.Relation) rel.ColumnSet {
	return target.Columns()
}
func (reorderingBase) AppliedMinRows(target rel.Relation) uint64  { return target.MinRows() }
func (reorderingBase) AppliedMaxRows(target rel.Relation) *uint64 { return target.MaxRows() }
