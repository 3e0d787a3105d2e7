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

package rel

// IsOrdered reports whether r's row order is currently meaningful: an
// upstream Sort whose effect has not since been invalidated by an operation
// that the relevant engine does not preserve order under.
func IsOrdered(r Relation) bool {
	u, ok := r.(*UnaryRelation)
	if !ok {
		return false
	}
	if u.Op.ImposesOrder() {
		return true
	}
	if !u.Target.Engine().PreservesOrder(u.Op) {
		return false
	}
	return IsOrdered(u.Target)
}

// ExpectUnordered is called unconditionally by the Apply methods of
// Deduplication, Join and Chain (on each operand) before they build a new
// relation on top of target; it does not itself consult
// target.Engine().PreservesOrder. The other operations' Apply methods do
// not call it, so they neither reject nor strip an ordered target. If
// target is not currently ordered, it is returned unchanged. If it is
// ordered: stripOrdering is true, the offending upstream Sort is removed and
// the repaired relation is returned; otherwise ErrRowOrder is returned.
func ExpectUnordered(target Relation, msg string, stripOrdering bool) (Relation, error) {
	if !IsOrdered(target) {
		return target, nil
	}
	if !stripOrdering {
		return nil, ErrRowOrder.New(msg)
	}
	return stripSort(target), nil
}

// stripSort removes the nearest ImposesOrder operation found by walking
// upstream through order-preserving links, rebuilding the intervening nodes
// directly (rather than replaying apply, whose simplifications are not
// needed just to drop a Sort).
func stripSort(r Relation) Relation {
	u, ok := r.(*UnaryRelation)
	if !ok {
		return r
	}
	if u.Op.ImposesOrder() {
		return u.Target
	}
	newTarget := stripSort(u.Target)
	if newTarget == u.Target {
		return r
	}
	return NewUnaryRelation(u.Op, newTarget, u.Op.AppliedColumns(newTarget), u.IsLocked())
}
