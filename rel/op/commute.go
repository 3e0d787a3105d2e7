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

import "github.com/lsst/daf-relation/rel"

// crossable reports whether push may legally commute past inner, the
// UnaryOperation currently wrapping next (inner.Target() == next), in order
// to land further upstream. Five of the ten unary operations repeat this
// same guard verbatim (Calculation, Projection, Selection, Deduplication,
// PartialJoin): crossing an order-dependent inner operation is only sound
// when next's engine preserves row order under push itself, since push will
// end up sitting between next and inner once the commutation succeeds.
func crossable(push rel.Operation, inner UnaryOperation, next rel.Relation) bool {
	if !inner.IsOrderDependent() {
		return true
	}
	return next.Engine().PreservesOrder(push)
}

// reengine reports whether target is already in engine (or engine is nil,
// meaning "no preference").
func reengine(target rel.Relation, engine rel.Engine) bool {
	return engine == nil || target.Engine() == engine
}

// applyWithBacktrack implements the "try in place, else backtrack toward
// the preferred engine, else insert a Transfer, else give up" sequence
// used by the Apply methods of Calculation, Selection, Deduplication and
// Sort. Projection and PartialJoin carry their own version of these steps
// inside their Apply methods.
// supported reports whether the operation can run against a given target in
// its current engine; insertRecursive attempts to push the operation
// upstream past commutable ancestors to reach preferredEngine; build
// constructs the final relation once a suitable target has been found.
func applyWithBacktrack(
	target rel.Relation,
	o ApplyOptions,
	supported func(rel.Relation) bool,
	insertRecursive func(rel.Relation, rel.Engine) (rel.Relation, bool),
	build func(rel.Relation) rel.Relation,
	unsupportedMsg string,
) (rel.Relation, error) {
	if supported(target) && reengine(target, o.PreferredEngine) {
		return build(target), nil
	}
	if o.Backtrack {
		if inserted, ok := insertRecursive(target, o.PreferredEngine); ok {
			return inserted, nil
		}
	}
	if o.PreferredEngine != nil && o.Transfer {
		transferred, err := (&Transfer{Destination: o.PreferredEngine}).Apply(target)
		if err != nil {
			return nil, err
		}
		target = transferred
		if supported(target) {
			return build(target), nil
		}
	}
	if o.RequirePreferredEngine && o.PreferredEngine != nil && target.Engine() != o.PreferredEngine {
		return nil, rel.ErrEngine.New("could not reach preferred engine")
	}
	if !supported(target) {
		return nil, rel.ErrEngine.New(unsupportedMsg)
	}
	return build(target), nil
}
