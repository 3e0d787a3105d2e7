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

// Slice keeps only rows in [Start, Stop) of target's current order; Stop
// nil means unbounded. It is order-dependent (the rows it keeps depend on
// what order they arrive in), so it never attempts to backtrack past an
// ancestor the way most other operations do: Apply only ever merges with a
// directly nested Slice or wraps target as-is.
type Slice struct {
	rowFilterBase
	Start uint64
	Stop  *uint64
}

var _ UnaryOperation = (*Slice)(nil)

// NewSlice constructs a Slice over [start, stop). stop of nil means
// unbounded.
func NewSlice(start uint64, stop *uint64) *Slice { return &Slice{Start: start, Stop: stop} }

func (s *Slice) ColumnsRequired() rel.ColumnSet { return nil }
func (s *Slice) IsEmptyInvariant() bool         { return false }
func (s *Slice) IsOrderDependent() bool         { return true }

func (s *Slice) AppliedMinRows(target rel.Relation) uint64 {
	lower := target.MinRows()
	if lower <= s.Start {
		return 0
	}
	remaining := lower - s.Start
	if s.Stop != nil {
		if window := *s.Stop - s.Start; remaining > window {
			remaining = window
		}
	}
	return remaining
}

func (s *Slice) AppliedMaxRows(target rel.Relation) *uint64 {
	var upper *uint64
	if max := target.MaxRows(); max != nil {
		v := uint64(0)
		if *max > s.Start {
			v = *max - s.Start
		}
		upper = &v
	}
	if s.Stop != nil {
		window := *s.Stop - s.Start
		if upper == nil || *upper > window {
			upper = &window
		}
	}
	return upper
}

func (s *Slice) String() string {
	if s.Stop == nil {
		return fmt.Sprintf("slice[%d:]", s.Start)
	}
	return fmt.Sprintf("slice[%d:%d]", s.Start, *s.Stop)
}

// composeSlice computes the absolute [start, stop) window of applying a
// slice [start, stop) to the already-sliced output of [prevStart, prevStop),
// expressed relative to the original, unsliced relation.
func composeSlice(prevStart uint64, prevStop *uint64, start uint64, stop *uint64) (uint64, *uint64) {
	newStart := prevStart + start
	switch {
	case stop == nil && prevStop == nil:
		return newStart, nil
	case stop == nil:
		return newStart, prevStop
	case prevStop == nil:
		v := *stop + prevStart
		return newStart, &v
	default:
		v := *stop + prevStart
		if *prevStop < v {
			v = *prevStop
		}
		return newStart, &v
	}
}

// Apply slices target. It is a no-op for the full-range slice [0, nil). A
// Slice directly on top of another Slice merges into the single composed
// window rather than nesting.
func (s *Slice) Apply(target rel.Relation, opts ...ApplyOption) (rel.Relation, error) {
	o := resolveOptions(opts)
	if s.Start == 0 && s.Stop == nil {
		return target, nil
	}
	if u, ok := target.(*rel.UnaryRelation); ok {
		if prev, ok := u.Op.(*Slice); ok {
			newStart, newStop := composeSlice(prev.Start, prev.Stop, s.Start, s.Stop)
			merged := &Slice{Start: newStart, Stop: newStop}
			return merged.Apply(u.Target, opts...)
		}
	}
	return rel.NewUnaryRelation(s, target, target.Columns(), o.Lock), nil
}
