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
	"sort"

	"github.com/lsst/daf-relation/rel"
	"github.com/lsst/daf-relation/rel/op"
)

// Execute evaluates r against this engine's in-memory payloads, returning
// the resulting rows. r must be entirely rooted in leaves belonging to e
// (a Transfer to another engine is not executable here).
func (e *Engine) Execute(r rel.Relation) ([]Row, error) {
	if r.Engine() != rel.Engine(e) {
		return nil, rel.ErrEngine.New(fmt.Sprintf("relation is not in engine %s", e))
	}
	return e.execute(r)
}

func (e *Engine) execute(r rel.Relation) ([]Row, error) {
	switch n := r.(type) {
	case rel.Leaf:
		rows, ok := n.Payload().([]Row)
		if !ok {
			return nil, rel.ErrEngine.New("leaf payload is not an iterengine.Row slice")
		}
		return rows, nil
	case *rel.UnaryRelation:
		rows, err := e.execute(n.Target)
		if err != nil {
			return nil, err
		}
		return e.executeUnary(n.Op, n.Target, rows)
	case *rel.BinaryRelation:
		lhs, err := e.execute(n.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := e.execute(n.RHS)
		if err != nil {
			return nil, err
		}
		return e.executeBinary(n.Op, lhs, rhs)
	default:
		return nil, rel.ErrEngine.New("unsupported relation node type")
	}
}

func (e *Engine) executeUnary(o rel.UnaryOp, targetRelation rel.Relation, target []Row) ([]Row, error) {
	switch t := o.(type) {
	case *op.Calculation:
		out := make([]Row, len(target))
		for i, row := range target {
			v, err := EvalExpr(t.Expr, row)
			if err != nil {
				return nil, err
			}
			newRow := copyRow(row)
			newRow[t.Tag] = v
			out[i] = newRow
		}
		return out, nil
	case *op.Projection:
		out := make([]Row, len(target))
		for i, row := range target {
			newRow := Row{}
			for tag := range t.ProjColumns {
				newRow[tag] = row[tag]
			}
			out[i] = newRow
		}
		return out, nil
	case *op.Selection:
		var out []Row
		for _, row := range target {
			ok, err := EvalPredicate(t.Predicate, row)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, row)
			}
		}
		return out, nil
	case *op.Deduplication:
		key := t.UniqueKey
		if key.Len() == 0 {
			key = rel.NewColumnSet(targetRelation.Columns().Keys()...)
		}
		seen := map[string]struct{}{}
		var out []Row
		for _, row := range target {
			rowK := rowKey(row, key)
			if _, ok := seen[rowK]; ok {
				continue
			}
			seen[rowK] = struct{}{}
			out = append(out, row)
		}
		return out, nil
	case *op.Sort:
		out := append([]Row{}, target...)
		sort.SliceStable(out, func(i, j int) bool {
			for _, term := range t.Terms {
				vi, _ := EvalExpr(term.Expression, out[i])
				vj, _ := EvalExpr(term.Expression, out[j])
				if less, eq := compare(vi, vj); !eq {
					if term.Ascending {
						return less
					}
					return !less
				}
			}
			return false
		})
		return out, nil
	case *op.Slice:
		start := t.Start
		if start > uint64(len(target)) {
			start = uint64(len(target))
		}
		stop := uint64(len(target))
		if t.Stop != nil && *t.Stop < stop {
			stop = *t.Stop
		}
		if stop < start {
			stop = start
		}
		return append([]Row{}, target[start:stop]...), nil
	case *op.Materialization, *op.Transfer:
		return target, nil
	default:
		return nil, rel.ErrEngine.New(fmt.Sprintf("iterengine cannot execute operation %s", t))
	}
}

func (e *Engine) executeBinary(o rel.BinaryOp, lhs, rhs []Row) ([]Row, error) {
	switch t := o.(type) {
	case *op.Join:
		var out []Row
		for _, l := range lhs {
			for _, r := range rhs {
				if !rowsMatchCommon(l, r) {
					continue
				}
				merged := copyRow(l)
				for tag, v := range r {
					merged[tag] = v
				}
				if t.Predicate != nil {
					ok, err := EvalPredicate(t.Predicate, merged)
					if err != nil {
						return nil, err
					}
					if !ok {
						continue
					}
				}
				out = append(out, merged)
			}
		}
		return out, nil
	case *op.Chain:
		out := make([]Row, 0, len(lhs)+len(rhs))
		out = append(out, lhs...)
		out = append(out, rhs...)
		return out, nil
	default:
		return nil, rel.ErrEngine.New(fmt.Sprintf("iterengine cannot execute operation %s", t))
	}
}

// rowsMatchCommon reports whether l and r agree on every column they both
// have (the common-column equi-join condition every Join carries
// implicitly, beyond whatever extra Predicate it was given).
func rowsMatchCommon(l, r Row) bool {
	for tag, lv := range l {
		if rv, ok := r[tag]; ok {
			if _, eq := compare(lv, rv); !eq {
				return false
			}
		}
	}
	return true
}

func copyRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

func rowKey(row Row, key rel.ColumnSet) string {
	tags := key.Sorted()
	s := ""
	for _, tag := range tags {
		s += tag.Name() + "=" + fmt.Sprint(row[tag]) + ";"
	}
	return s
}

// compare returns (lv < rv, lv == rv) for two values from column
// expressions; values are compared numerically when both are float64 and
// by formatted string otherwise.
func compare(lv, rv any) (less bool, eq bool) {
	if lf, ok := toFloat64(lv); ok {
		if rf, ok := toFloat64(rv); ok {
			return lf < rf, lf == rf
		}
	}
	ls, rs := fmt.Sprint(lv), fmt.Sprint(rv)
	return ls < rs, ls == rs
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
