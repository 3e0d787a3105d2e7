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
	"strconv"

	"github.com/dolthub/vitess/go/vt/sqlparser"

	"github.com/lsst/daf-relation/rel"
)

// convertColumnExpression renders expr as a vitess SQL expression, looking
// up Reference tags in available.
func convertColumnExpression(expr rel.ColumnExpression, available map[rel.ColumnTag]sqlparser.Expr) (sqlparser.Expr, error) {
	switch e := expr.(type) {
	case rel.Literal:
		return literalExpr(e.Value)
	case rel.Reference:
		col, ok := available[e.Tag]
		if !ok {
			return nil, rel.ErrColumn.New(fmt.Sprintf("column %s not available for SQL conversion", e.Tag.Name()))
		}
		return col, nil
	case rel.Call:
		return convertCall(e.FuncName, e.Args, available)
	default:
		return nil, rel.ErrEngine.New(fmt.Sprintf("sqlengine cannot convert expression %s", expr))
	}
}

// convertPredicate renders p as a vitess boolean SQL expression.
func convertPredicate(p rel.Predicate, available map[rel.ColumnTag]sqlparser.Expr) (sqlparser.Expr, error) {
	switch e := p.(type) {
	case rel.PredicateLiteral:
		return literalExpr(e.Value)
	case rel.PredicateReference:
		col, ok := available[e.Tag]
		if !ok {
			return nil, rel.ErrColumn.New(fmt.Sprintf("column %s not available for SQL conversion", e.Tag.Name()))
		}
		return col, nil
	case rel.PredicateFunction:
		return convertCall(e.FuncName, e.Args, available)
	case rel.LogicalAnd:
		terms, _ := rel.FlattenLogicalAnd(e)
		if len(terms) == 0 {
			return literalExpr(true)
		}
		expr, err := convertPredicate(terms[0], available)
		if err != nil {
			return nil, err
		}
		for _, t := range terms[1:] {
			rhs, err := convertPredicate(t, available)
			if err != nil {
				return nil, err
			}
			expr = &sqlparser.AndExpr{Left: expr, Right: rhs}
		}
		return expr, nil
	case rel.LogicalOr:
		lhs, err := convertPredicate(e.LHS, available)
		if err != nil {
			return nil, err
		}
		rhs, err := convertPredicate(e.RHS, available)
		if err != nil {
			return nil, err
		}
		return &sqlparser.OrExpr{Left: lhs, Right: rhs}, nil
	case rel.LogicalNot:
		inner, err := convertPredicate(e.Term, available)
		if err != nil {
			return nil, err
		}
		return &sqlparser.NotExpr{Expr: inner}, nil
	default:
		return nil, rel.ErrEngine.New(fmt.Sprintf("sqlengine cannot convert predicate %s", p))
	}
}

// convertFlattenedPredicate is convertPredicate's LogicalAnd-flattening
// variant used when building a WHERE/ON term list (spec.md §6 / the
// original's convert_flattened_predicate): each top-level AND term becomes
// its own WHERE entry rather than one big AND expression.
func convertFlattenedPredicate(p rel.Predicate, available map[rel.ColumnTag]sqlparser.Expr) ([]sqlparser.Expr, error) {
	terms, ok := rel.FlattenLogicalAnd(p)
	if !ok {
		terms = []rel.Predicate{p}
	}
	out := make([]sqlparser.Expr, 0, len(terms))
	for _, t := range terms {
		expr, err := convertPredicate(t, available)
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
	return out, nil
}

func convertSortTerm(term rel.ColumnExpression, ascending bool, available map[rel.ColumnTag]sqlparser.Expr) (*sqlparser.Order, error) {
	expr, err := convertColumnExpression(term, available)
	if err != nil {
		return nil, err
	}
	direction := sqlparser.AscScr
	if !ascending {
		direction = sqlparser.DescScr
	}
	return &sqlparser.Order{Expr: expr, Direction: direction}, nil
}

func literalExpr(value any) (sqlparser.Expr, error) {
	switch v := value.(type) {
	case nil:
		return &sqlparser.NullVal{}, nil
	case bool:
		if v {
			return sqlparser.NewIntVal([]byte("1")), nil
		}
		return sqlparser.NewIntVal([]byte("0")), nil
	case string:
		return sqlparser.NewStrVal([]byte(v)), nil
	case int:
		return sqlparser.NewIntVal([]byte(strconv.Itoa(v))), nil
	case int64:
		return sqlparser.NewIntVal([]byte(strconv.FormatInt(v, 10))), nil
	case float64:
		return sqlparser.NewFloatVal([]byte(strconv.FormatFloat(v, 'g', -1, 64))), nil
	default:
		return nil, rel.ErrEngine.New(fmt.Sprintf("sqlengine has no literal conversion for %T", value))
	}
}

// convertCall converts a named function call to a vitess expression,
// recognizing the same thirteen operator-module-style names as iterengine
// (add/sub/mul/truediv/eq/ne/lt/le/gt/ge/and_/or_/not_); anything else is
// rendered as a plain SQL function call using name verbatim, matching the
// original's getattr(sql_args[0], name)(*sql_args[1:]) fallback.
func convertCall(name string, argExprs []rel.ColumnExpression, available map[rel.ColumnTag]sqlparser.Expr) (sqlparser.Expr, error) {
	args := make([]sqlparser.Expr, len(argExprs))
	for i, a := range argExprs {
		expr, err := convertColumnExpression(a, available)
		if err != nil {
			return nil, err
		}
		args[i] = expr
	}
	switch name {
	case "add":
		return binary(sqlparser.PlusStr, args)
	case "sub":
		return binary(sqlparser.MinusStr, args)
	case "mul":
		return binary(sqlparser.MultStr, args)
	case "truediv":
		return binary(sqlparser.DivStr, args)
	case "eq":
		return comparison(sqlparser.EqualStr, args)
	case "ne":
		return comparison(sqlparser.NotEqualStr, args)
	case "lt":
		return comparison(sqlparser.LessThanStr, args)
	case "le":
		return comparison(sqlparser.LessEqualStr, args)
	case "gt":
		return comparison(sqlparser.GreaterThanStr, args)
	case "ge":
		return comparison(sqlparser.GreaterEqualStr, args)
	case "and_":
		if len(args) != 2 {
			return nil, rel.ErrEngine.New("and_ expects two arguments")
		}
		return &sqlparser.AndExpr{Left: args[0], Right: args[1]}, nil
	case "or_":
		if len(args) != 2 {
			return nil, rel.ErrEngine.New("or_ expects two arguments")
		}
		return &sqlparser.OrExpr{Left: args[0], Right: args[1]}, nil
	case "not_":
		if len(args) != 1 {
			return nil, rel.ErrEngine.New("not_ expects one argument")
		}
		return &sqlparser.NotExpr{Expr: args[0]}, nil
	default:
		return &sqlparser.FuncExpr{Name: sqlparser.NewColIdent(name), Exprs: exprsOf(args)}, nil
	}
}

func binary(op string, args []sqlparser.Expr) (sqlparser.Expr, error) {
	if len(args) != 2 {
		return nil, rel.ErrEngine.New(fmt.Sprintf("%s expects two arguments", op))
	}
	return &sqlparser.BinaryExpr{Operator: op, Left: args[0], Right: args[1]}, nil
}

func comparison(op string, args []sqlparser.Expr) (sqlparser.Expr, error) {
	if len(args) != 2 {
		return nil, rel.ErrEngine.New(fmt.Sprintf("%s expects two arguments", op))
	}
	return &sqlparser.ComparisonExpr{Operator: op, Left: args[0], Right: args[1]}, nil
}

func exprsOf(args []sqlparser.Expr) sqlparser.SelectExprs {
	out := make(sqlparser.SelectExprs, len(args))
	for i, a := range args {
		out[i] = &sqlparser.AliasedExpr{Expr: a}
	}
	return out
}
