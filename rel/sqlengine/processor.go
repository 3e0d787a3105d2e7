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

package sqlengine

import (
	"github.com/dolthub/vitess/go/vt/sqlparser"

	"github.com/lsst/daf-relation/rel"
	"github.com/lsst/daf-relation/rel/processor"
)

// AsExecutor adapts e to rel/processor's Executor interface. This engine
// never runs SQL itself (that's the caller's database driver's job once it
// has the text ToSQL produced), so Execute always fails; Ingest is real,
// though, rendering rows as a literal-valued subquery so a Transfer or
// Materialization landing in this engine still produces a usable Leaf.
func (e *Engine) AsExecutor() processor.Executor { return executorAdapter{e} }

type executorAdapter struct{ e *Engine }

func (a executorAdapter) Execute(r rel.Relation) ([]processor.Row, error) {
	return nil, rel.ErrEngine.New(
		"sqlengine has no row executor; render the relation with ToSQL and run it against a real database instead")
}

// Ingest builds a Leaf whose payload selects rows out of thin air: a
// UNION ALL of one literal-valued SELECT per row, aliased to column names,
// or doomedSelectParts if there are no rows at all.
func (a executorAdapter) Ingest(columns rel.ColumnSet, rows []processor.Row) (rel.Leaf, error) {
	sorted := columns.Sorted()
	var stmt sqlparser.SelectStatement
	if len(rows) == 0 {
		stmt = toSelect(doomedSelectParts(columns), columns, false, nil, 0, nil)
	} else {
		selects := make([]*sqlparser.Select, len(rows))
		for i, row := range rows {
			exprs := make(sqlparser.SelectExprs, len(sorted))
			for j, tag := range sorted {
				expr, err := literalExpr(row[tag])
				if err != nil {
					return rel.Leaf{}, err
				}
				alias := sqlparser.ColIdent{}
				if i == 0 {
					alias = sqlparser.NewColIdent(tag.Name())
				}
				exprs[j] = &sqlparser.AliasedExpr{Expr: expr, As: alias}
			}
			selects[i] = &sqlparser.Select{
				SelectExprs: exprs,
				From: sqlparser.TableExprs{&sqlparser.AliasedTableExpr{
					Expr: sqlparser.TableName{Name: sqlparser.NewTableIdent("dual")},
				}},
			}
		}
		stmt = selects[0]
		for _, s := range selects[1:] {
			stmt = &sqlparser.Union{Type: sqlparser.UnionAllStr, Left: stmt, Right: s}
		}
	}
	alias := a.e.GetRelationName("ingested")
	return NewLeaf(a.e, &sqlparser.AliasedTableExpr{
		Expr: &sqlparser.Subquery{Select: stmt},
		As:   sqlparser.NewTableIdent(alias),
	}, namesOf(sorted), uint64(len(rows)), uint64Ptr(uint64(len(rows)))), nil
}

func namesOf(tags []rel.ColumnTag) map[rel.ColumnTag]string {
	out := make(map[rel.ColumnTag]string, len(tags))
	for _, tag := range tags {
		out[tag] = tag.Name()
	}
	return out
}

func uint64Ptr(v uint64) *uint64 { return &v }
