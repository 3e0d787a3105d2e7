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

package op_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lsst/daf-relation/rel"
	"github.com/lsst/daf-relation/rel/iterengine"
	"github.com/lsst/daf-relation/rel/op"
)

var (
	tagA = rel.NewKeyTag("a")
	tagB = rel.NewTag("b")
	tagC = rel.NewTag("c")
)

func leaf(e *iterengine.Engine, columns rel.ColumnSet, rows []iterengine.Row) rel.Leaf {
	max := uint64(len(rows))
	return rel.Leaf{
		LeafEngine:  e,
		LeafColumns: columns,
		LeafMinRows: uint64(len(rows)),
		LeafMaxRows: &max,
		LeafPayload: rows,
	}
}

func TestCalculationRejectsConstantExpression(t *testing.T) {
	require := require.New(t)
	_, err := op.NewCalculation(tagC, rel.Literal{Value: 1})
	require.Error(err)
	require.True(rel.ErrColumn.Is(err))
}

func TestCalculationAppliedColumns(t *testing.T) {
	require := require.New(t)
	e := iterengine.New("e")
	l := leaf(e, rel.NewColumnSet(tagA, tagB), []iterengine.Row{{tagA: 1, tagB: 2}})

	calc, err := op.NewCalculation(tagC, rel.Reference{Tag: tagB})
	require.NoError(err)
	result, err := calc.Apply(l)
	require.NoError(err)
	require.True(result.Columns().Equals(rel.NewColumnSet(tagA, tagB, tagC)))

	_, err = calc.Apply(result)
	require.Error(err, "re-adding an existing column tag must fail")
}

func TestProjectionNoOpAndMissingColumn(t *testing.T) {
	require := require.New(t)
	e := iterengine.New("e")
	l := leaf(e, rel.NewColumnSet(tagA, tagB), nil)

	same, err := op.NewProjection(rel.NewColumnSet(tagA, tagB)).Apply(l)
	require.NoError(err)
	require.True(rel.Equal(same, l), "projecting onto the full column set is a no-op")

	_, err = op.NewProjection(rel.NewColumnSet(tagC)).Apply(l)
	require.Error(err)
	require.True(rel.ErrColumn.Is(err))
}

func TestProjectionFoldsNestedProjection(t *testing.T) {
	require := require.New(t)
	e := iterengine.New("e")
	l := leaf(e, rel.NewColumnSet(tagA, tagB, tagC), nil)

	first, err := op.NewProjection(rel.NewColumnSet(tagA, tagB)).Apply(l)
	require.NoError(err)
	second, err := op.NewProjection(rel.NewColumnSet(tagA)).Apply(first)
	require.NoError(err)

	u, ok := second.(*rel.UnaryRelation)
	require.True(ok)
	require.True(rel.Equal(l, u.Target), "folded projection targets the original leaf directly, not the intermediate projection")
}

func TestSelectionTrivialPredicates(t *testing.T) {
	require := require.New(t)
	e := iterengine.New("e")
	l := leaf(e, rel.NewColumnSet(tagA), []iterengine.Row{{tagA: 1}})

	sameRelation, err := op.NewSelection(rel.PredicateLiteral{Value: true}).Apply(l)
	require.NoError(err)
	require.True(rel.Equal(sameRelation, l))

	doomed, err := op.NewSelection(rel.PredicateLiteral{Value: false}).Apply(l)
	require.NoError(err)
	require.Equal(uint64(0), doomed.MinRows())
	require.NotNil(doomed.MaxRows())
	require.Equal(uint64(0), *doomed.MaxRows())
}

func TestSelectionMergesNestedSelection(t *testing.T) {
	require := require.New(t)
	e := iterengine.New("e")
	l := leaf(e, rel.NewColumnSet(tagA), []iterengine.Row{{tagA: 1}})

	pred1 := rel.PredicateFunction{FuncName: "gt", Args: []rel.ColumnExpression{rel.Reference{Tag: tagA}, rel.Literal{Value: float64(0)}}}
	pred2 := rel.PredicateFunction{FuncName: "lt", Args: []rel.ColumnExpression{rel.Reference{Tag: tagA}, rel.Literal{Value: float64(10)}}}

	step1, err := op.NewSelection(pred1).Apply(l)
	require.NoError(err)
	step2, err := op.NewSelection(pred2).Apply(step1)
	require.NoError(err)

	u, ok := step2.(*rel.UnaryRelation)
	require.True(ok)
	require.True(rel.Equal(l, u.Target), "merged selection targets the leaf directly")
	sel, ok := u.Op.(*op.Selection)
	require.True(ok)
	require.Contains(sel.Predicate.String(), "gt")
	require.Contains(sel.Predicate.String(), "lt")
}

func TestSliceMergesNestedSlice(t *testing.T) {
	require := require.New(t)
	e := iterengine.New("e")
	rows := []iterengine.Row{{tagA: 1}, {tagA: 2}, {tagA: 3}, {tagA: 4}, {tagA: 5}}
	l := leaf(e, rel.NewColumnSet(tagA), rows)

	first, err := op.NewSlice(1, rel.Bounded(4)).Apply(l) // rows[1:4] = 2,3,4
	require.NoError(err)
	second, err := op.NewSlice(1, rel.Bounded(2)).Apply(first) // [1:2) of that window -> just 3
	require.NoError(err)

	out, err := e.Execute(second)
	require.NoError(err)
	require.Len(out, 1)
	require.Equal(3, out[0][tagA])

	u, ok := second.(*rel.UnaryRelation)
	require.True(ok)
	require.True(rel.Equal(l, u.Target), "merged slice targets the leaf directly, not the intermediate slice")
}

func TestSliceFullRangeIsNoOp(t *testing.T) {
	require := require.New(t)
	e := iterengine.New("e")
	l := leaf(e, rel.NewColumnSet(tagA), nil)

	result, err := op.NewSlice(0, nil).Apply(l)
	require.NoError(err)
	require.True(rel.Equal(result, l))
}

func TestSortMergesNestedSort(t *testing.T) {
	require := require.New(t)
	e := iterengine.New("e")
	l := leaf(e, rel.NewColumnSet(tagA, tagB), nil)

	byA := op.SortTerm{Expression: rel.Reference{Tag: tagA}, Ascending: true}
	byB := op.SortTerm{Expression: rel.Reference{Tag: tagB}, Ascending: false}

	inner, err := op.NewSort(byB).Apply(l)
	require.NoError(err)
	outer, err := op.NewSort(byA).Apply(inner)
	require.NoError(err)

	u, ok := outer.(*rel.UnaryRelation)
	require.True(ok)
	sort, ok := u.Op.(*op.Sort)
	require.True(ok)
	require.Len(sort.Terms, 2)
	require.Equal("a", sort.Terms[0].Expression.String())
	require.Equal("b", sort.Terms[1].Expression.String())
}

func TestMaterializationNoOpOnLeaf(t *testing.T) {
	require := require.New(t)
	e := iterengine.New("e")
	l := leaf(e, rel.NewColumnSet(tagA), nil)

	result, err := op.NewMaterialization("m").Apply(l)
	require.NoError(err)
	require.True(rel.Equal(result, l))
}

func TestMaterializationLocksByDefault(t *testing.T) {
	require := require.New(t)
	e := iterengine.New("e")
	l := leaf(e, rel.NewColumnSet(tagA, tagB), nil)
	proj, err := op.NewProjection(rel.NewColumnSet(tagA)).Apply(l, op.WithLock(false))
	require.NoError(err)

	materialized, err := op.NewMaterialization("m").Apply(proj)
	require.NoError(err)
	require.True(materialized.IsLocked())
}

func TestTransferNoOpWhenAlreadyInDestination(t *testing.T) {
	require := require.New(t)
	e := iterengine.New("e")
	l := leaf(e, rel.NewColumnSet(tagA), nil)

	result, err := op.NewTransfer(rel.Engine(e)).Apply(l)
	require.NoError(err)
	require.True(rel.Equal(result, l))
}

func TestTransferToAnotherEngine(t *testing.T) {
	require := require.New(t)
	src := iterengine.New("src")
	dst := iterengine.New("dst")
	l := leaf(src, rel.NewColumnSet(tagA), nil)

	result, err := op.NewTransfer(rel.Engine(dst)).Apply(l)
	require.NoError(err)
	require.Equal(rel.Engine(dst), result.Engine())
}

func TestChainRequiresSameEngineAndColumns(t *testing.T) {
	require := require.New(t)
	e1 := iterengine.New("e1")
	e2 := iterengine.New("e2")

	l1 := leaf(e1, rel.NewColumnSet(tagA), []iterengine.Row{{tagA: 1}})
	l2 := leaf(e2, rel.NewColumnSet(tagA), []iterengine.Row{{tagA: 2}})
	_, err := op.NewChain().Apply(l1, l2)
	require.Error(err)
	require.True(rel.ErrEngine.Is(err))

	l3 := leaf(e1, rel.NewColumnSet(tagB), []iterengine.Row{{tagB: 2}})
	_, err = op.NewChain().Apply(l1, l3)
	require.Error(err)
	require.True(rel.ErrColumn.Is(err))

	l4 := leaf(e1, rel.NewColumnSet(tagA), []iterengine.Row{{tagA: 3}})
	chained, err := op.NewChain().Apply(l1, l4)
	require.NoError(err)
	rows, err := e1.Execute(chained)
	require.NoError(err)
	require.Len(rows, 2)
}
