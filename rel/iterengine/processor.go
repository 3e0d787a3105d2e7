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

package iterengine

import (
	"github.com/lsst/daf-relation/rel"
	"github.com/lsst/daf-relation/rel/processor"
)

// AsExecutor adapts e to rel/processor's Executor interface, so a
// Processor can Transfer rows into and out of this engine.
func (e *Engine) AsExecutor() processor.Executor { return executorAdapter{e} }

type executorAdapter struct{ e *Engine }

func (a executorAdapter) Execute(r rel.Relation) ([]processor.Row, error) {
	rows, err := a.e.Execute(r)
	if err != nil {
		return nil, err
	}
	out := make([]processor.Row, len(rows))
	for i, row := range rows {
		out[i] = processor.Row(row)
	}
	return out, nil
}

// Ingest builds a new Leaf in e holding rows verbatim: this engine's
// payload representation already is a row slice, so ingestion is just a
// type conversion.
func (a executorAdapter) Ingest(columns rel.ColumnSet, rows []processor.Row) (rel.Leaf, error) {
	out := make([]Row, len(rows))
	for i, row := range rows {
		out[i] = Row(row)
	}
	return rel.Leaf{
		LeafEngine:  a.e,
		LeafColumns: columns,
		LeafMinRows: uint64(len(out)),
		LeafMaxRows: uint64Ptr(uint64(len(out))),
		LeafPayload: out,
	}, nil
}

func uint64Ptr(v uint64) *uint64 { return &v }
