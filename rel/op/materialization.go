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

// Materialization marks a relation as a boundary the owning engine should
// cache or persist, under Name. It is a no-op against a Leaf or another
// Materialization, and (unlike every other operation) always locks its
// result, whatever Lock option is passed: once materialized, the optimizer
// should not rewrite what's underneath without an explicit decision to do so.
type Materialization struct {
	markerBase
	Name string
}

var _ UnaryOperation = (*Materialization)(nil)

// NewMaterialization constructs a Materialization under name. An empty name
// is minted via the target engine's GetRelationName at Apply time.
func NewMaterialization(name string) *Materialization { return &Materialization{Name: name} }

func (m *Materialization) String() string { return fmt.Sprintf("materialize['%s']", m.Name) }

// Apply marks target materialized. It is a no-op if target is already a
// Leaf or a Materialization (nothing further upstream needs caching).
func (m *Materialization) Apply(target rel.Relation, opts ...ApplyOption) (rel.Relation, error) {
	if _, ok := target.(rel.Leaf); ok {
		return target, nil
	}
	if u, ok := target.(*rel.UnaryRelation); ok {
		if _, ok := u.Op.(*Materialization); ok {
			return target, nil
		}
	}
	name := m.Name
	if name == "" {
		name = target.Engine().GetRelationName("materialization")
	}
	return rel.NewUnaryRelation(&Materialization{Name: name}, target, target.Columns(), true), nil
}
