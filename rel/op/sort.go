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
	"strings"

	"github.com/lsst/daf-relation/rel"
)

// SortTerm is one key of a Sort: an expression to order by, ascending
// unless Ascending is false.
type SortTerm struct {
	Expression rel.ColumnExpression
	Ascending  bool
}

func (t SortTerm) String() string {
	if t.Ascending {
		return t.Expression.String()
	}
	return "-" + t.Expression.String()
}

func (t SortTerm) equal(other SortTerm) bool {
	return t.Ascending == other.Ascending && t.Expression.String() == other.Expression.String()
}

// Sort orders a relation's rows by one or more terms; it is the only
// operation that imposes row order (ImposesOrder is true). A Sort directly
// on top of another Sort merges into one, with this Sort's terms taking
// priority.
type Sort struct {
	reorderingBase
	Terms []SortTerm
}

var _ UnaryOperation = (*Sort)(nil)

// NewSort constructs a Sort ordered by terms, most significant first.
func NewSort(terms ...SortTerm) *Sort { return &Sort{Terms: terms} }

func (s *Sort) ColumnsRequired() rel.ColumnSet {
	result := rel.ColumnSet{}
	for _, t := range s.Terms {
		result = result.Union(t.Expression.ColumnsRequired())
	}
	return result
}

func (s *Sort) String() string {
	parts := make([]string, len(s.Terms))
	for i, t := range s.Terms {
		parts[i] = t.String()
	}
	return fmt.Sprintf("sort[%s]", strings.Join(parts, ","))
}

func (s *Sort) supported(target rel.Relation) bool {
	for _, t := range s.Terms {
		if !t.Expression.IsSupportedBy(target.Engine()) {
			return false
		}
	}
	return true
}

func (s *Sort) build(target rel.Relation, lock bool) rel.Relation {
	return rel.NewUnaryRelation(s, target, target.Columns(), lock)
}

// Apply orders target by Terms. It is a no-op if Terms is empty. A Sort
// directly on top of another Sort merges: this Sort's terms come first,
// followed by any of the inner Sort's terms not already present.
func (s *Sort) Apply(target rel.Relation, opts ...ApplyOption) (rel.Relation, error) {
	o := resolveOptions(opts)
	if len(s.Terms) == 0 {
		return target, nil
	}
	if u, ok := target.(*rel.UnaryRelation); ok {
		if inner, ok := u.Op.(*Sort); ok {
			merged := append([]SortTerm{}, s.Terms...)
			for _, t := range inner.Terms {
				if !containsTerm(merged, t) {
					merged = append(merged, t)
				}
			}
			return (&Sort{Terms: merged}).Apply(u.Target, opts...)
		}
	}
	return applyWithBacktrack(target, o, s.supported, s.insertRecursive, func(t rel.Relation) rel.Relation {
		return s.build(t, o.Lock)
	}, fmt.Sprintf("engine %s does not support one of sort terms %s", target.Engine(), s))
}

func containsTerm(terms []SortTerm, t SortTerm) bool {
	for _, existing := range terms {
		if existing.equal(t) {
			return true
		}
	}
	return false
}

// insertRecursive pushes s upstream past a single unary ancestor at a time.
// Sort never crosses a binary relation: row order bifurcates at a Join or Chain, so there is no single
// upstream place left to impose it. Crossing an ancestor requires that
// ancestor to not itself depend on row order, and the engine immediately
// below it to preserve order across it.
func (s *Sort) insertRecursive(target rel.Relation, preferredEngine rel.Engine) (rel.Relation, bool) {
	if target.IsLocked() {
		return nil, false
	}
	u, ok := target.(*rel.UnaryRelation)
	if !ok {
		return nil, false
	}
	inner, ok := u.Op.(UnaryOperation)
	if !ok || inner.IsOrderDependent() {
		return nil, false
	}
	if !u.Target.Engine().PreservesOrder(inner) {
		return nil, false
	}
	newTarget, ok := s.insertRecursiveOrApply(u.Target, preferredEngine)
	if !ok {
		return nil, false
	}
	return rel.NewUnaryRelation(inner, newTarget, inner.AppliedColumns(newTarget), false), true
}

func (s *Sort) insertRecursiveOrApply(target rel.Relation, preferredEngine rel.Engine) (rel.Relation, bool) {
	if s.supported(target) && reengine(target, preferredEngine) {
		return s.build(target, false), true
	}
	return s.insertRecursive(target, preferredEngine)
}
