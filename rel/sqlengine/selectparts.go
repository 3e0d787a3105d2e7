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
)

// SelectParts is a staged SQL builder representing either a bare table or a
// simple, not-yet-finalized SELECT: a FROM clause, accumulated WHERE terms,
// and the logical-column expression behind each ColumnTag currently
// available from that FROM clause.
//
// Unlike the original's SelectParts, ColumnsAvailable is never nil here:
// our Go engine has no schema-reflection step (no sqlalchemy Table
// metadata to introspect), so every leaf must supply its own column
// expressions up front via NewLeaf.
type SelectParts struct {
	From             sqlparser.TableExpr
	Where            []sqlparser.Expr
	ColumnsAvailable map[rel.ColumnTag]sqlparser.Expr
}

// NewLeaf builds a rel.Leaf in engine e over table, with columns mapped to
// the given tag -> SQL column name pairs.
func NewLeaf(e *Engine, table sqlparser.TableExpr, columns map[rel.ColumnTag]string, minRows uint64, maxRows *uint64) rel.Leaf {
	available := make(map[rel.ColumnTag]sqlparser.Expr, len(columns))
	tags := rel.NewColumnSet()
	for tag, name := range columns {
		tags = tags.With(tag)
		available[tag] = &sqlparser.ColName{Name: sqlparser.NewColIdent(name)}
	}
	return rel.Leaf{
		LeafEngine:  e,
		LeafColumns: tags,
		LeafMinRows: minRows,
		LeafMaxRows: maxRows,
		LeafPayload: &SelectParts{From: table, ColumnsAvailable: available},
	}
}

func identitySelectParts() *SelectParts {
	return &SelectParts{
		From:             &sqlparser.AliasedTableExpr{Expr: sqlparser.TableName{Name: sqlparser.NewTableIdent("dual")}},
		ColumnsAvailable: map[rel.ColumnTag]sqlparser.Expr{},
	}
}

func doomedSelectParts(columns rel.ColumnSet) *SelectParts {
	available := make(map[rel.ColumnTag]sqlparser.Expr, columns.Len())
	for _, tag := range columns.Sorted() {
		available[tag] = &sqlparser.NullVal{}
	}
	return &SelectParts{
		From:             &sqlparser.AliasedTableExpr{Expr: sqlparser.TableName{Name: sqlparser.NewTableIdent("dual")}},
		Where:            []sqlparser.Expr{sqlparser.NewIntVal([]byte("0"))},
		ColumnsAvailable: available,
	}
}

// selectColumns builds the select-list of a SELECT from parts for exactly
// the given, alphabetically-sorted columns, aliasing each to its tag name.
func selectColumns(parts *SelectParts, columns rel.ColumnSet) sqlparser.SelectExprs {
	sorted := columns.Sorted()
	exprs := make(sqlparser.SelectExprs, 0, len(sorted))
	for _, tag := range sorted {
		exprs = append(exprs, &sqlparser.AliasedExpr{
			Expr: parts.ColumnsAvailable[tag],
			As:   sqlparser.NewColIdent(tag.Name()),
		})
	}
	if len(exprs) == 0 {
		exprs = append(exprs, &sqlparser.AliasedExpr{
			Expr: sqlparser.NewIntVal([]byte("1")),
			As:   sqlparser.NewColIdent("IGNORED"),
		})
	}
	return exprs
}

func whereClause(terms []sqlparser.Expr) *sqlparser.Where {
	if len(terms) == 0 {
		return nil
	}
	expr := terms[0]
	for _, t := range terms[1:] {
		expr = &sqlparser.AndExpr{Left: expr, Right: t}
	}
	return sqlparser.NewWhere(sqlparser.WhereStr, expr)
}

// toSelect renders parts as a complete SELECT over the given output
// columns, with optional DISTINCT/ORDER BY/OFFSET/LIMIT.
func toSelect(parts *SelectParts, columns rel.ColumnSet, distinct bool, orderBy []*sqlparser.Order, offset uint64, limit *uint64) *sqlparser.Select {
	sel := &sqlparser.Select{
		SelectExprs: selectColumns(parts, columns),
		From:        sqlparser.TableExprs{parts.From},
		Where:       whereClause(parts.Where),
		OrderBy:     orderBy,
	}
	if distinct {
		sel.Distinct = sqlparser.DistinctStr
	}
	if offset > 0 || limit != nil {
		sel.Limit = &sqlparser.Limit{}
		if offset > 0 {
			sel.Limit.Offset = sqlparser.NewIntVal([]byte(uitoa(offset)))
		}
		if limit != nil {
			sel.Limit.Rowcount = sqlparser.NewIntVal([]byte(uitoa(*limit)))
		}
	}
	return sel
}

func uitoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// asSubquery wraps a finished SELECT as a derived-table FROM clause, for
// use as a leaf-like SelectParts when an operation needs to fall back to a
// subquery (e.g. a Join operand that itself contains a Slice).
func asSubquery(sel *sqlparser.Select, alias string, columns rel.ColumnSet) *SelectParts {
	available := make(map[rel.ColumnTag]sqlparser.Expr, columns.Len())
	for _, tag := range columns.Sorted() {
		available[tag] = &sqlparser.ColName{
			Qualifier: sqlparser.TableName{Name: sqlparser.NewTableIdent(alias)},
			Name:      sqlparser.NewColIdent(tag.Name()),
		}
	}
	return &SelectParts{
		From: &sqlparser.AliasedTableExpr{
			Expr: &sqlparser.Subquery{Select: sel},
			As:   sqlparser.NewTableIdent(alias),
		},
		ColumnsAvailable: available,
	}
}
