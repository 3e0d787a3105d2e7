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

// identityOp is the operation that changes nothing. No code in this package
// constructs one. Identity never appears as the operation of a node in a
// finished tree, so its type is unexported and Apply always returns target
// itself.
type identityOp struct{ markerBase }

var _ UnaryOperation = (*identityOp)(nil)

func (identityOp) String() string { return "identity" }

// Apply always returns target unchanged.
func (identityOp) Apply(target rel.Relation, opts ...ApplyOption) (rel.Relation, error) {
	return target, nil
}
