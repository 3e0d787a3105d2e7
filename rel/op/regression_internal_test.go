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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lsst/daf-relation/rel"
	"github.com/lsst/daf-relation/rel/iterengine"
)

// TestDeduplicationInsertRecursiveJoinRecombinesBothBranches is a
// white-box regression test for the Join branch of
// Deduplication.insertRecursive: it must recombine with
// join.Apply(newLHS, newRHS), the two branches' independent recursion
// results, not apply one branch's result to both arguments. Calling
// insertRecursive directly (rather than through Apply) isolates the
// recombination step from the rest of the backtracking machinery.
func TestDeduplicationInsertRecursiveJoinRecombinesBothBranches(t *testing.T) {
	require := require.New(t)
	e := iterengine.New("e")

	k := rel.NewKeyTag("k")
	l := rel.NewTag("l")
	r := rel.NewTag("r")

	lhs := rel.Leaf{
		LeafEngine:  e,
		LeafColumns: rel.NewColumnSet(k, l),
		LeafMinRows: 2,
		LeafMaxRows: rel.Bounded(2),
		LeafPayload: []iterengine.Row{{k: 1, l: "a"}, {k: 1, l: "a"}},
	}
	rhs := rel.Leaf{
		LeafEngine:  e,
		LeafColumns: rel.NewColumnSet(k, r),
		LeafMinRows: 2,
		LeafMaxRows: rel.Bounded(2),
		LeafPayload: []iterengine.Row{{k: 1, r: "x"}, {k: 2, r: "y"}},
	}

	joined, err := NewJoin(nil, nil, nil).Apply(lhs, rhs)
	require.NoError(err)
	require.True(joined.Columns().Equals(rel.NewColumnSet(k, l, r)))

	d := &Deduplication{UniqueKey: rel.NewColumnSet(k)}
	result, ok := d.insertRecursive(joined, nil)
	require.True(ok, "insertRecursive must push past a Join whose common column covers the unique key on both sides")

	// The fixed recombination keeps both branches' pushed-down
	// deduplications: the rebuilt join's columns must still include l,
	// which only exists on the LHS. The original bug recombined with
	// join.Apply(newRHS, newRHS), silently discarding the LHS branch
	// entirely and losing l from the result.
	require.True(result.Columns().Contains(l), "rebuilt join lost the LHS-only column: insertRecursive dropped the LHS branch")
	require.True(result.Columns().Contains(r), "rebuilt join lost the RHS-only column")
	require.True(result.Columns().Equals(rel.NewColumnSet(k, l, r)))

	bin, ok := result.(*rel.BinaryRelation)
	require.True(ok)
	_, lhsDeduped := bin.LHS.(*rel.UnaryRelation)
	require.True(lhsDeduped, "LHS branch must have its own pushed-down Deduplication, not be reused from RHS")
	_, rhsDeduped := bin.RHS.(*rel.UnaryRelation)
	require.True(rhsDeduped, "RHS branch must have its own pushed-down Deduplication")
	require.False(rel.Equal(bin.LHS, bin.RHS), "LHS and RHS must remain independent recursion results, not the same value reused on both sides")

	rows, err := e.Execute(result)
	require.NoError(err)
	for _, row := range rows {
		require.Contains(row, l, "result row is missing the LHS-only column, consistent with the self-join bug")
		require.Contains(row, r)
	}
}

// TestJoinApplyChecksBothOperandsForMinColumns is a regression test for
// Join.Apply's MinColumns check: both operands must be checked
// independently against MinColumns. The original bug checked lhs's
// columns twice, so a rhs missing a required common column went
// undetected.
func TestJoinApplyChecksBothOperandsForMinColumns(t *testing.T) {
	require := require.New(t)
	e := iterengine.New("e")
	k := rel.NewKeyTag("k")
	other := rel.NewTag("other")

	lhs := rel.Leaf{LeafEngine: e, LeafColumns: rel.NewColumnSet(k), LeafMinRows: 0, LeafMaxRows: rel.Bounded(0)}
	rhsMissingKey := rel.Leaf{LeafEngine: e, LeafColumns: rel.NewColumnSet(other), LeafMinRows: 0, LeafMaxRows: rel.Bounded(0)}

	_, err := NewJoin(nil, rel.NewColumnSet(k), nil).Apply(lhs, rhsMissingKey)
	require.Error(err, "rhs is missing a MinColumns column and must be rejected")
	require.True(rel.ErrColumn.Is(err))

	lhsMissingKey := rel.Leaf{LeafEngine: e, LeafColumns: rel.NewColumnSet(other), LeafMinRows: 0, LeafMaxRows: rel.Bounded(0)}
	rhsHasKey := rel.Leaf{LeafEngine: e, LeafColumns: rel.NewColumnSet(k), LeafMinRows: 0, LeafMaxRows: rel.Bounded(0)}
	_, err = NewJoin(nil, rel.NewColumnSet(k), nil).Apply(lhsMissingKey, rhsHasKey)
	require.Error(err, "lhs is missing a MinColumns column and must be rejected")
	require.True(rel.ErrColumn.Is(err))
}

// TestJoinApplyResolvesDistinctMinMaxColumns is a regression test for
// Join.Apply's common-column resolution: a Join constructed with
// MinColumns != MaxColumns must be resolved, before anything else, to a
// single common key-column set (lhs ∩ rhs ∩ keys, capped by MaxColumns),
// and the node actually attached to the tree must carry that resolved set
// as both its MinColumns and MaxColumns. The original bug built the node
// with the unresolved Join, so MinColumns != MaxColumns could survive onto
// a finished tree node.
func TestJoinApplyResolvesDistinctMinMaxColumns(t *testing.T) {
	require := require.New(t)
	e := iterengine.New("e")
	k := rel.NewKeyTag("k")
	extra := rel.NewTag("extra") // common to both sides, but not a key column

	lhs := rel.Leaf{LeafEngine: e, LeafColumns: rel.NewColumnSet(k, extra), LeafMinRows: 0, LeafMaxRows: rel.Bounded(0)}
	rhs := rel.Leaf{LeafEngine: e, LeafColumns: rel.NewColumnSet(k, extra), LeafMinRows: 0, LeafMaxRows: rel.Bounded(0)}

	result, err := NewJoin(nil, rel.NewColumnSet(k), rel.NewColumnSet(k, extra)).Apply(lhs, rhs)
	require.NoError(err)

	bin, ok := result.(*rel.BinaryRelation)
	require.True(ok)
	resolved, ok := bin.Op.(*Join)
	require.True(ok)
	require.True(resolved.MinColumns.Equals(rel.NewColumnSet(k)), "resolution must drop the non-key common column extra")
	require.True(resolved.MaxColumns.Equals(resolved.MinColumns), "every Join attached to a node must have MinColumns == MaxColumns")

	_, err = NewJoin(nil, rel.NewColumnSet(k, extra), nil).Apply(lhs, rhs)
	require.Error(err, "extra is not a key column, so it can never appear in the resolved common set required by MinColumns")
	require.True(rel.ErrColumn.Is(err))
}
