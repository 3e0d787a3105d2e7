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

import "gopkg.in/src-d/go-errors.v1"

// The three externally visible error kinds (spec §6/§7). Callers that need
// to distinguish error kinds should use ErrXxx.Is(err); apply never returns
// anything else for these conditions.
var (
	// ErrColumn reports column-contract violations: missing columns,
	// duplicate columns, mismatched column sets, empty unique keys.
	ErrColumn = errors.NewKind("column error: %s")

	// ErrEngine reports engine problems: mismatched engines, expressions
	// unsupported by an engine, or failure to reach a preferred engine.
	ErrEngine = errors.NewKind("engine error: %s")

	// ErrRowOrder reports an ordered subtree encountered where the
	// consuming operation does not preserve order and strip_ordering was
	// not requested.
	ErrRowOrder = errors.NewKind("row order error: %s")
)
