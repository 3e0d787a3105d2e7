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
)

func TestColumnSetOperations(t *testing.T) {
	require := require.New(t)

	a := rel.NewTag("a")
	b := rel.NewTag("b")
	c := rel.NewTag("c")
	k := rel.NewKeyTag("k")

	s := rel.NewColumnSet(a, b)
	require.True(s.Contains(a))
	require.False(s.Contains(c))
	require.Equal(2, s.Len())

	union := s.Union(rel.NewColumnSet(c))
	require.Equal(3, union.Len())
	require.True(union.Contains(a) && union.Contains(b) && union.Contains(c))

	withC := s.With(c)
	require.Equal(3, withC.Len())
	require.Equal(2, s.Len(), "With must not mutate the receiver")

	withoutA := s.Without(a)
	require.False(withoutA.Contains(a))
	require.True(withoutA.Contains(b))

	inter := rel.NewColumnSet(a, b).Intersect(rel.NewColumnSet(b, c))
	require.True(inter.Equals(rel.NewColumnSet(b)))

	diff := rel.NewColumnSet(a, b).Difference(rel.NewColumnSet(b))
	require.True(diff.Equals(rel.NewColumnSet(a)))

	require.True(rel.NewColumnSet(a).IsSubsetOf(rel.NewColumnSet(a, b)))
	require.False(rel.NewColumnSet(a, c).IsSubsetOf(rel.NewColumnSet(a, b)))
	require.True(rel.NewColumnSet(a, b).IsSupersetOf(rel.NewColumnSet(a)))

	require.True(rel.NewColumnSet(a, b).Equals(rel.NewColumnSet(b, a)))
	require.False(rel.NewColumnSet(a, b).Equals(rel.NewColumnSet(a)))

	keys := rel.NewColumnSet(a, b, k).Keys()
	require.Len(keys, 1)
	require.Equal("k", keys[0].Name())

	require.Equal("a, b", rel.NewColumnSet(b, a).String())
	require.Equal("ColumnSet{a, b}", rel.NewColumnSet(b, a).GoString())
}

func TestColumnSetEmpty(t *testing.T) {
	require := require.New(t)

	empty := rel.NewColumnSet()
	require.Equal(0, empty.Len())
	require.Equal("", empty.String())
	require.True(empty.IsSubsetOf(rel.NewColumnSet(rel.NewTag("a"))))
}

func TestTagIdentity(t *testing.T) {
	require := require.New(t)

	a1 := rel.NewTag("a")
	a2 := rel.NewTag("a")
	require.Equal(a1, a2, "two Tags with the same name and key-ness compare equal")

	key := rel.NewKeyTag("a")
	require.NotEqual(rel.ColumnTag(a1), rel.ColumnTag(key), "key-ness is part of Tag identity")
	require.True(key.IsKey())
	require.False(a1.IsKey())
}
