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

import (
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Engine is an execution-backend identity and policy object. Engines
// compare by reference (==), never by value: two *BaseEngine pointers with
// identical Name fields are still distinct engines. Most engine
// implementations embed BaseEngine for the shared counter/name-minting
// behavior and only implement PreservesOrder themselves.
type Engine interface {
	fmt.Stringer

	// GetRelationName returns a name unique within this engine, formatted
	// "{prefix}_{counter:04d}_{uuid-hex}" (spec §6).
	GetRelationName(prefix string) string

	// PreservesOrder reports whether applying op to a relation in this
	// engine preserves that relation's row order. Join is never queried
	// here (joins never preserve order, spec §4.3 commutation table).
	PreservesOrder(op Operation) bool

	// GetFunction looks up a named column/predicate function. The bool
	// result is false if this engine has no such function.
	GetFunction(name string) (any, bool)

	// GetJoinIdentityPayload returns the payload for a leaf representing
	// the join identity relation in this engine.
	GetJoinIdentityPayload() any

	// GetDoomedPayload returns the payload for a zero-row leaf with the
	// given columns in this engine.
	GetDoomedPayload(columns ColumnSet) any
}

// Operation is implemented by both UnaryOperation and BinaryOperation
// (rel/op); Engine.PreservesOrder and String() forms need only this much.
// It is defined here, rather than in rel/op, so that Engine (which every
// operation package depends on) has no import cycle back to rel/op.
type Operation interface {
	fmt.Stringer
}

// BaseEngine implements the shared parts of Engine: relation-name minting
// via an atomic counter, and a function table consulted by GetFunction.
// Concrete engines embed BaseEngine and supply their own PreservesOrder,
// GetJoinIdentityPayload, and GetDoomedPayload.
type BaseEngine struct {
	EngineName string
	Functions  map[string]any

	counter uint32
}

// NewBaseEngine returns a BaseEngine named name with the given function
// table (may be nil).
func NewBaseEngine(name string, functions map[string]any) *BaseEngine {
	if functions == nil {
		functions = map[string]any{}
	}
	return &BaseEngine{EngineName: name, Functions: functions}
}

// String implements fmt.Stringer and Engine.
func (e *BaseEngine) String() string { return e.EngineName }

// GetRelationName implements Engine. Format:
// "{prefix}_{counter:04d}_{uuid-hex}", matching the original
// GenericConcreteEngine.get_relation_name exactly (spec §6), including its
// use of a bare hex digest (uuid.uuid4().hex) rather than the dashed form.
// The counter is incremented with an atomic add, so concurrent callers each
// get a unique value (spec §5: "may be made thread-safe ... an atomic
// counter suffices").
func (e *BaseEngine) GetRelationName(prefix string) string {
	n := atomic.AddUint32(&e.counter, 1) - 1
	id := uuid.New()
	return fmt.Sprintf("%s_%04d_%s", prefix, n, hex.EncodeToString(id[:]))
}

// standardFunctions mirrors the original engine's preference for looking up
// arithmetic/comparison/logical operators from Python's operator module
// before consulting the engine-specific Functions map (spec §6: "preferring
// standard arithmetic operators ... then the functions map"). The values are
// unused by the core package; their presence is what GetFunction checks for.
var standardFunctions = map[string]struct{}{
	"add": {}, "sub": {}, "mul": {}, "truediv": {},
	"eq": {}, "ne": {}, "lt": {}, "le": {}, "gt": {}, "ge": {},
	"and_": {}, "or_": {}, "not_": {},
}

// GetFunction implements Engine. It first checks the standard operator
// names, then falls back to the engine-specific Functions map.
func (e *BaseEngine) GetFunction(name string) (any, bool) {
	if _, ok := standardFunctions[name]; ok {
		return name, true
	}
	f, ok := e.Functions[name]
	return f, ok
}

// GetJoinIdentityPayload implements Engine with the default of nil; engines
// with a concrete payload representation should override this.
func (e *BaseEngine) GetJoinIdentityPayload() any { return nil }

// GetDoomedPayload implements Engine with the default of nil; engines with
// a concrete payload representation should override this.
func (e *BaseEngine) GetDoomedPayload(columns ColumnSet) any { return nil }
