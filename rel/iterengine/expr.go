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
	"fmt"

	"github.com/lsst/daf-relation/rel"
)

// EvalExpr evaluates a ColumnExpression against row, dispatching on the
// concrete type the same way rel.ColumnExpression's variants are defined in
// rel/expression.go.
func EvalExpr(expr rel.ColumnExpression, row Row) (any, error) {
	switch e := expr.(type) {
	case rel.Literal:
		return e.Value, nil
	case rel.Reference:
		return row[e.Tag], nil
	case rel.Call:
		args, err := evalArgs(e.Args, row)
		if err != nil {
			return nil, err
		}
		return callFunction(e.FuncName, args)
	case rel.PredicateLiteral:
		return e.Value, nil
	case rel.PredicateReference:
		v, _ := row[e.Tag].(bool)
		return v, nil
	case rel.PredicateFunction:
		args, err := evalArgs(e.Args, row)
		if err != nil {
			return nil, err
		}
		return callFunction(e.FuncName, args)
	case rel.LogicalAnd:
		for _, t := range e.Terms {
			ok, err := EvalPredicate(t, row)
			if err != nil {
				return nil, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case rel.LogicalOr:
		l, err := EvalPredicate(e.LHS, row)
		if err != nil {
			return nil, err
		}
		if l {
			return true, nil
		}
		return EvalPredicate(e.RHS, row)
	case rel.LogicalNot:
		v, err := EvalPredicate(e.Term, row)
		if err != nil {
			return nil, err
		}
		return !v, nil
	default:
		return nil, rel.ErrEngine.New(fmt.Sprintf("iterengine cannot evaluate expression %s", expr))
	}
}

// EvalPredicate evaluates a Predicate against row and type-asserts the
// result to bool; every Predicate variant evaluates to a Go bool in
// EvalExpr, so a type mismatch here indicates a malformed expression.
func EvalPredicate(p rel.Predicate, row Row) (bool, error) {
	v, err := EvalExpr(p, row)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, rel.ErrEngine.New(fmt.Sprintf("predicate %s did not evaluate to a bool", p))
	}
	return b, nil
}

func evalArgs(exprs []rel.ColumnExpression, row Row) ([]any, error) {
	args := make([]any, len(exprs))
	for i, a := range exprs {
		v, err := EvalExpr(a, row)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// callFunction dispatches the standard operator-module-style names
// directly (rel.BaseEngine.GetFunction resolves these to their bare name
// rather than a callable, since the core package carries no execution
// semantics). Any other name fails with ErrEngine; the engine's Functions
// map is not consulted.
func callFunction(name string, args []any) (any, error) {
	if fn, ok := standardFunctions()[name]; ok {
		return fn(args)
	}
	return nil, rel.ErrEngine.New(fmt.Sprintf("iterengine has no function named %s", name))
}

func arity(name string, args []any, n int) error {
	if len(args) != n {
		return rel.ErrEngine.New(fmt.Sprintf("%s expects %d argument(s), got %d", name, n, len(args)))
	}
	return nil
}

func standardFunctions() map[string]func([]any) (any, error) {
	return map[string]func([]any) (any, error){
		"add": func(args []any) (any, error) {
			if err := arity("add", args, 2); err != nil {
				return nil, err
			}
			a, b, err := numericPair(args[0], args[1])
			if err != nil {
				return nil, err
			}
			return a + b, nil
		},
		"sub": func(args []any) (any, error) {
			if err := arity("sub", args, 2); err != nil {
				return nil, err
			}
			a, b, err := numericPair(args[0], args[1])
			if err != nil {
				return nil, err
			}
			return a - b, nil
		},
		"mul": func(args []any) (any, error) {
			if err := arity("mul", args, 2); err != nil {
				return nil, err
			}
			a, b, err := numericPair(args[0], args[1])
			if err != nil {
				return nil, err
			}
			return a * b, nil
		},
		"truediv": func(args []any) (any, error) {
			if err := arity("truediv", args, 2); err != nil {
				return nil, err
			}
			a, b, err := numericPair(args[0], args[1])
			if err != nil {
				return nil, err
			}
			if b == 0 {
				return nil, rel.ErrEngine.New("division by zero")
			}
			return a / b, nil
		},
		"eq": func(args []any) (any, error) {
			if err := arity("eq", args, 2); err != nil {
				return nil, err
			}
			_, eq := compare(args[0], args[1])
			return eq, nil
		},
		"ne": func(args []any) (any, error) {
			if err := arity("ne", args, 2); err != nil {
				return nil, err
			}
			_, eq := compare(args[0], args[1])
			return !eq, nil
		},
		"lt": func(args []any) (any, error) {
			if err := arity("lt", args, 2); err != nil {
				return nil, err
			}
			less, _ := compare(args[0], args[1])
			return less, nil
		},
		"le": func(args []any) (any, error) {
			if err := arity("le", args, 2); err != nil {
				return nil, err
			}
			less, eq := compare(args[0], args[1])
			return less || eq, nil
		},
		"gt": func(args []any) (any, error) {
			if err := arity("gt", args, 2); err != nil {
				return nil, err
			}
			less, eq := compare(args[0], args[1])
			return !less && !eq, nil
		},
		"ge": func(args []any) (any, error) {
			if err := arity("ge", args, 2); err != nil {
				return nil, err
			}
			less, _ := compare(args[0], args[1])
			return !less, nil
		},
		"and_": func(args []any) (any, error) {
			if err := arity("and_", args, 2); err != nil {
				return nil, err
			}
			a, aok := args[0].(bool)
			b, bok := args[1].(bool)
			if !aok || !bok {
				return nil, rel.ErrEngine.New("and_ expects two bool arguments")
			}
			return a && b, nil
		},
		"or_": func(args []any) (any, error) {
			if err := arity("or_", args, 2); err != nil {
				return nil, err
			}
			a, aok := args[0].(bool)
			b, bok := args[1].(bool)
			if !aok || !bok {
				return nil, rel.ErrEngine.New("or_ expects two bool arguments")
			}
			return a || b, nil
		},
		"not_": func(args []any) (any, error) {
			if err := arity("not_", args, 1); err != nil {
				return nil, err
			}
			a, ok := args[0].(bool)
			if !ok {
				return nil, rel.ErrEngine.New("not_ expects one bool argument")
			}
			return !a, nil
		},
	}
}

func numericPair(l, r any) (float64, float64, error) {
	lf, lok := toFloat64(l)
	rf, rok := toFloat64(r)
	if !lok || !rok {
		return 0, 0, rel.ErrEngine.New(fmt.Sprintf("expected numeric operands, got %v and %v", l, r))
	}
	return lf, rf, nil
}
