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

// Package transform provides a generic post-order rewrite over Relation
// trees, reporting whether the rewrite actually changed anything so callers
// can skip rebuilding ancestors of an untouched subtree.
package transform

import "github.com/lsst/daf-relation/rel"

// TreeIdentity reports whether a rewrite left a (sub)tree unchanged.
type TreeIdentity bool

const (
	// SameTree means the rewrite produced an identical tree: the caller may
	// keep reusing the original value instead of the returned one.
	SameTree TreeIdentity = true
	// NewTree means the rewrite produced a different tree.
	NewTree TreeIdentity = false
)

// RelationFunc rewrites a single relation node, reporting whether it
// changed anything. It receives nodes with their children already
// rewritten (post-order).
type RelationFunc func(r rel.Relation) (rel.Relation, TreeIdentity, error)

// Node applies f to every node of r, bottom-up: children are rewritten
// before their parent, and a parent is only rebuilt if f changed it or at
// least one child changed. The TreeIdentity returned is SameTree only if
// nothing anywhere in the tree changed.
func Node(r rel.Relation, f RelationFunc) (rel.Relation, TreeIdentity, error) {
	switch n := r.(type) {
	case rel.Leaf:
		return f(n)
	case *rel.UnaryRelation:
		newTarget, same, err := Node(n.Target, f)
		if err != nil {
			return nil, SameTree, err
		}
		rewritten := r
		if same == NewTree {
			rewritten = rel.NewUnaryRelation(n.Op, newTarget, n.Columns(), n.IsLocked())
		}
		out, fSame, err := f(rewritten)
		if err != nil {
			return nil, SameTree, err
		}
		return out, combine(same, fSame), nil
	case *rel.BinaryRelation:
		newLHS, lhsSame, err := Node(n.LHS, f)
		if err != nil {
			return nil, SameTree, err
		}
		newRHS, rhsSame, err := Node(n.RHS, f)
		if err != nil {
			return nil, SameTree, err
		}
		childSame := combine(lhsSame, rhsSame)
		rewritten := r
		if childSame == NewTree {
			rewritten = rel.NewBinaryRelation(n.Op, newLHS, newRHS, n.Columns(), n.IsLocked())
		}
		out, fSame, err := f(rewritten)
		if err != nil {
			return nil, SameTree, err
		}
		return out, combine(childSame, fSame), nil
	default:
		return f(r)
	}
}

func combine(a, b TreeIdentity) TreeIdentity {
	if a == SameTree && b == SameTree {
		return SameTree
	}
	return NewTree
}
