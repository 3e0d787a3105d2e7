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
	"fmt"

	"github.com/dolthub/vitess/go/vt/sqlparser"

	"github.com/lsst/daf-relation/rel"
	"github.com/lsst/daf-relation/rel/op"
)

// ToSQL renders r as SQL text. r must be entirely rooted in engine e.
func ToSQL(r rel.Relation, e *Engine) (string, error) {
	stmt, err := toExecutable(r, e, false, nil, 0, nil)
	if err != nil {
		return "", err
	}
	return sqlparser.String(stmt), nil
}

// fromRelation mirrors SelectParts.from_relation: it builds the staged
// SelectParts for r without finalizing a SELECT, recursing through the
// operations that don't need their own subquery (Calculation, Projection,
// Selection, Join) and falling back to a full subquery for everything
// else.
func fromRelation(r rel.Relation, e *Engine) (*SelectParts, error) {
	if r.Engine() != rel.Engine(e) {
		return nil, rel.ErrEngine.New(fmt.Sprintf("engine %s cannot operate on a relation owned by %s", e, r.Engine()))
	}
	switch n := r.(type) {
	case rel.Leaf:
		parts, ok := n.Payload().(*SelectParts)
		if !ok {
			return nil, rel.ErrEngine.New("leaf payload is not a *sqlengine.SelectParts")
		}
		return parts, nil
	case *rel.UnaryRelation:
		switch t := n.Op.(type) {
		case *op.Materialization:
			return nil, rel.ErrEngine.New(fmt.Sprintf(
				"cannot persist materialization %q during SQL conversion; run the processor first", t.Name))
		case *op.Calculation:
			target, err := fromRelation(n.Target, e)
			if err != nil {
				return nil, err
			}
			available := copyAvailable(target.ColumnsAvailable)
			expr, err := convertColumnExpression(t.Expr, available)
			if err != nil {
				return nil, err
			}
			available[t.Tag] = expr
			return &SelectParts{From: target.From, Where: target.Where, ColumnsAvailable: available}, nil
		case *op.Projection:
			// A Projection only narrows what to_executable selects; it
			// never needs its own subquery.
			return fromRelation(n.Target, e)
		case *op.Selection:
			target, err := fromRelation(n.Target, e)
			if err != nil {
				return nil, err
			}
			terms, err := convertFlattenedPredicate(t.Predicate, target.ColumnsAvailable)
			if err != nil {
				return nil, err
			}
			where := append(append([]sqlparser.Expr{}, target.Where...), terms...)
			return &SelectParts{From: target.From, Where: where, ColumnsAvailable: target.ColumnsAvailable}, nil
		}
	case *rel.BinaryRelation:
		if j, ok := n.Op.(*op.Join); ok {
			return fromJoin(j, n.LHS, n.RHS, e)
		}
	}
	sel, err := toExecutable(r, e, false, nil, 0, nil)
	if err != nil {
		return nil, err
	}
	return asSubquery(sel, e.GetRelationName("subq"), r.Columns()), nil
}

func fromJoin(j *op.Join, lhs, rhs rel.Relation, e *Engine) (*SelectParts, error) {
	lhsParts, err := fromRelation(lhs, e)
	if err != nil {
		return nil, err
	}
	rhsParts, err := fromRelation(rhs, e)
	if err != nil {
		return nil, err
	}
	common := lhs.Columns().Intersect(rhs.Columns())
	var onTerms []sqlparser.Expr
	for _, tag := range common.Sorted() {
		onTerms = append(onTerms, &sqlparser.ComparisonExpr{
			Operator: sqlparser.EqualStr,
			Left:     lhsParts.ColumnsAvailable[tag],
			Right:    rhsParts.ColumnsAvailable[tag],
		})
	}
	available := copyAvailable(lhsParts.ColumnsAvailable)
	for tag, expr := range rhsParts.ColumnsAvailable {
		available[tag] = expr
	}
	if j.Predicate != nil && j.Predicate.AsTrivial() != rel.TrivialTrue {
		extra, err := convertFlattenedPredicate(j.Predicate, available)
		if err != nil {
			return nil, err
		}
		onTerms = append(onTerms, extra...)
	}
	var onClause sqlparser.Expr = sqlparser.NewIntVal([]byte("1"))
	if len(onTerms) == 1 {
		onClause = onTerms[0]
	} else if len(onTerms) > 1 {
		onClause = onTerms[0]
		for _, t := range onTerms[1:] {
			onClause = &sqlparser.AndExpr{Left: onClause, Right: t}
		}
	}
	joined := &sqlparser.JoinTableExpr{
		LeftExpr:  lhsParts.From,
		Join:      sqlparser.JoinStr,
		RightExpr: rhsParts.From,
		On:        onClause,
	}
	where := append(append([]sqlparser.Expr{}, lhsParts.Where...), rhsParts.Where...)
	return &SelectParts{From: joined, Where: where, ColumnsAvailable: available}, nil
}

// viaSelectParts finalizes r's staged SelectParts into a full SELECT over
// r's own columns, used by every branch of toExecutable that can't just
// recurse into its target with adjusted clause parameters.
func viaSelectParts(r rel.Relation, e *Engine, distinct bool, orderBy []op.SortTerm, offset uint64, limit *uint64) (sqlparser.SelectStatement, error) {
	parts, err := fromRelation(r, e)
	if err != nil {
		return nil, err
	}
	order, err := convertOrderBy(orderBy, parts.ColumnsAvailable)
	if err != nil {
		return nil, err
	}
	return toSelect(parts, r.Columns(), distinct, order, offset, limit), nil
}

// toExecutable mirrors Engine.to_executable: it converts r to a complete
// SQL statement, with distinct/orderBy/offset/limit representing
// modifiers an outer caller wants applied on top of r (which commute
// trivially with some of r's own operations and require a subquery for
// others).
func toExecutable(r rel.Relation, e *Engine, distinct bool, orderBy []op.SortTerm, offset uint64, limit *uint64) (sqlparser.SelectStatement, error) {
	if r.Engine() != rel.Engine(e) {
		return nil, rel.ErrEngine.New(fmt.Sprintf("engine %s cannot operate on a relation owned by %s", e, r.Engine()))
	}
	u, isUnary := r.(*rel.UnaryRelation)
	if !isUnary {
		if b, ok := r.(*rel.BinaryRelation); ok {
			if _, ok := b.Op.(*op.Chain); ok {
				return toChainExecutable(b, e, distinct, orderBy, offset, limit)
			}
		}
		return viaSelectParts(r, e, distinct, orderBy, offset, limit)
	}
	switch t := u.Op.(type) {
	case *op.Deduplication:
		return toExecutable(u.Target, e, true, orderBy, offset, limit)
	case *op.Slice:
		if offset > 0 || limit != nil {
			merged, err := (&op.Slice{Start: offset, Stop: shiftLimit(offset, limit)}).Apply(r)
			if err != nil {
				return nil, err
			}
			return toExecutable(merged, e, distinct, orderBy, 0, nil)
		}
		if distinct || len(orderBy) > 0 {
			return viaSelectParts(r, e, distinct, orderBy, 0, nil)
		}
		return toExecutable(u.Target, e, distinct, orderBy, t.Start, sliceLimit(t.Start, t.Stop))
	case *op.Sort:
		if len(orderBy) > 0 {
			merged, err := (&op.Sort{Terms: orderBy}).Apply(r)
			if err != nil {
				return nil, err
			}
			return toExecutable(merged, e, distinct, nil, offset, limit)
		}
		return toExecutable(u.Target, e, distinct, t.Terms, offset, limit)
	case *op.Transfer:
		return nil, rel.ErrEngine.New(fmt.Sprintf(
			"engine %s cannot handle transfer from %s to %s; run the processor first", e, u.Target.Engine(), t.Destination))
	case *op.Calculation, *op.Materialization, *op.Projection, *op.Selection:
		return viaSelectParts(r, e, distinct, orderBy, offset, limit)
	default:
		return nil, rel.ErrEngine.New(fmt.Sprintf("sqlengine cannot convert custom operation %s", t))
	}
}

func toChainExecutable(b *rel.BinaryRelation, e *Engine, distinct bool, orderBy []op.SortTerm, offset uint64, limit *uint64) (sqlparser.SelectStatement, error) {
	lhsSel, err := toExecutable(b.LHS, e, false, nil, 0, nil)
	if err != nil {
		return nil, err
	}
	rhsSel, err := toExecutable(b.RHS, e, false, nil, 0, nil)
	if err != nil {
		return nil, err
	}
	unionType := sqlparser.UnionAllStr
	if distinct {
		unionType = sqlparser.UnionStr
	}
	union := &sqlparser.Union{Type: unionType, Left: lhsSel, Right: rhsSel}
	if len(orderBy) > 0 {
		available := make(map[rel.ColumnTag]sqlparser.Expr, b.Columns().Len())
		for _, tag := range b.Columns().Sorted() {
			available[tag] = &sqlparser.ColName{Name: sqlparser.NewColIdent(tag.Name())}
		}
		order, err := convertOrderBy(orderBy, available)
		if err != nil {
			return nil, err
		}
		union.OrderBy = order
	}
	if offset > 0 || limit != nil {
		union.Limit = &sqlparser.Limit{}
		if offset > 0 {
			union.Limit.Offset = sqlparser.NewIntVal([]byte(uitoa(offset)))
		}
		if limit != nil {
			union.Limit.Rowcount = sqlparser.NewIntVal([]byte(uitoa(*limit)))
		}
	}
	return union, nil
}

func convertOrderBy(terms []op.SortTerm, available map[rel.ColumnTag]sqlparser.Expr) (sqlparser.OrderBy, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	out := make(sqlparser.OrderBy, 0, len(terms))
	for _, term := range terms {
		order, err := convertSortTerm(term.Expression, term.Ascending, available)
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, nil
}

func shiftLimit(offset uint64, limit *uint64) *uint64 {
	if limit == nil {
		return nil
	}
	v := offset + *limit
	return &v
}

// sliceLimit converts a Slice's absolute [start, stop) window to a
// (offset-relative) row-count limit: nil if unbounded.
func sliceLimit(start uint64, stop *uint64) *uint64 {
	if stop == nil {
		return nil
	}
	v := *stop - start
	return &v
}

func copyAvailable(m map[rel.ColumnTag]sqlparser.Expr) map[rel.ColumnTag]sqlparser.Expr {
	out := make(map[rel.ColumnTag]sqlparser.Expr, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
