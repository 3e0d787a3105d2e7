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

// Transfer moves a relation to a different engine. It is a Marker: columns,
// min/max rows never change, and it never removes an upstream Sort on its
// own (an engine that does not preserve order across a Transfer should
// simply return false from PreservesOrder for it).
type Transfer struct {
	markerBase
	Destination rel.Engine
}

var _ UnaryOperation = (*Transfer)(nil)

// NewTransfer constructs a Transfer to destination.
func NewTransfer(destination rel.Engine) *Transfer { return &Transfer{Destination: destination} }

// AppliedEngine shadows markerBase's: a Transfer's result lives in
// Destination, not target's current engine.
func (t *Transfer) AppliedEngine(target rel.Relation) rel.Engine { return t.Destination }

func (t *Transfer) String() string { return fmt.Sprintf("→[%s]", t.Destination) }

// Apply returns target unchanged if it is already in Destination;
// otherwise wraps it in a Transfer node. It does not check or strip
// target's row order; of the options, it reads only Lock.
func (t *Transfer) Apply(target rel.Relation, opts ...ApplyOption) (rel.Relation, error) {
	o := resolveOptions(opts)
	if target.Engine() == t.Destination {
		return target, nil
	}
	return rel.NewUnaryRelation(t, target, t.AppliedColumns(target), o.Lock), nil
}
