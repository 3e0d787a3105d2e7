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

package rel_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lsst/daf-relation/rel"
	"github.com/lsst/daf-relation/rel/iterengine"
	"github.com/lsst/daf-relation/rel/op"
)

func leafOf(e *iterengine.Engine, columns rel.ColumnSet, rows []iterengine.Row) rel.Leaf {
	max := uint64(len(rows))
	return rel.Leaf{
		LeafEngine:  e,
		LeafColumns: columns,
		LeafMinRows: uint64(len(rows)),
		LeafMaxRows: &max,
		LeafPayload: rows,
	}
}

func TestBoundedUnbounded(t *testing.T) {
	require := require.New(t)

	b := rel.Bounded(3)
	require.NotNil(b)
	require.Equal(uint64(3), *b)
	require.Nil(rel.Unbounded())
}

func TestIsJoinIdentity(t *testing.T) {
	require := require.New(t)
	e := iterengine.New("e")

	identity := rel.Leaf{
		LeafEngine:  e,
		LeafColumns: rel.NewColumnSet(),
		LeafMinRows: 1,
		LeafMaxRows: rel.Bounded(1),
		LeafPayload: []iterengine.Row{{}},
	}
	require.True(rel.IsJoinIdentity(identity))

	notIdentity := leafOf(e, rel.NewColumnSet(rel.NewTag("a")), nil)
	require.False(rel.IsJoinIdentity(notIdentity))

	twoRows := rel.Leaf{
		LeafEngine:  e,
		LeafColumns: rel.NewColumnSet(),
		LeafMinRows: 1,
		LeafMaxRows: rel.Unbounded(),
		LeafPayload: []iterengine.Row{{}, {}},
	}
	require.False(rel.IsJoinIdentity(twoRows))
}

func TestEqualStructural(t *testing.T) {
	require := require.New(t)
	e := iterengine.New("e")
	a := rel.NewTag("a")

	l1 := leafOf(e, rel.NewColumnSet(a), []iterengine.Row{{a: 1}})
	l2 := leafOf(e, rel.NewColumnSet(a), []iterengine.Row{{a: 1}})
	require.True(rel.Equal(l1, l2))

	proj, err := op.NewProjection(rel.NewColumnSet(a)).Apply(l1)
	require.NoError(err)
	proj2, err := op.NewProjection(rel.NewColumnSet(a)).Apply(l2)
	require.NoError(err)
	require.True(rel.Equal(proj, proj2), "two UnaryRelations with equal Op and Target are structurally equal")

	l3 := leafOf(e, rel.NewColumnSet(a), []iterengine.Row{{a: 2}})
	require.False(rel.Equal(l1, l3), "differing payload makes leaves unequal")
}

func TestUnaryRelationDerivedAttributes(t *testing.T) {
	require := require.New(t)
	e := iterengine.New("e")
	a := rel.NewTag("a")
	b := rel.NewTag("b")

	leaf := leafOf(e, rel.NewColumnSet(a, b), []iterengine.Row{{a: 1, b: 2}, {a: 3, b: 4}})
	projected, err := op.NewProjection(rel.NewColumnSet(a)).Apply(leaf)
	require.NoError(err)

	require.Equal(rel.Engine(e), projected.Engine())
	require.True(projected.Columns().Equals(rel.NewColumnSet(a)))
	require.Nil(projected.Payload(), "UnaryRelation payload is always nil")
	require.False(projected.IsLocked())
}

func TestBaseEngineRelationNameFormat(t *testing.T) {
	require := require.New(t)
	e := iterengine.New("e")

	n1 := e.GetRelationName("leaf")
	n2 := e.GetRelationName("leaf")
	require.NotEqual(n1, n2, "successive names must be distinct")
	require.Regexp(`^leaf_0000_[0-9a-f]{32}$`, n1)
	require.Regexp(`^leaf_0001_[0-9a-f]{32}$`, n2, "counter increments by one per call")
}
