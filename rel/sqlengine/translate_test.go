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

package sqlengine_test

import (
	"testing"

	"github.com/dolthub/vitess/go/vt/sqlparser"
	"github.com/stretchr/testify/require"

	"github.com/lsst/daf-relation/rel"
	"github.com/lsst/daf-relation/rel/op"
	"github.com/lsst/daf-relation/rel/sqlengine"
)

var (
	tagID   = rel.NewKeyTag("id")
	tagName = rel.NewTag("name")
	tagDept = rel.NewTag("dept")
)

func peopleLeaf(e *sqlengine.Engine) rel.Leaf {
	return sqlengine.NewLeaf(e, &sqlparser.AliasedTableExpr{
		Expr: sqlparser.TableName{Name: sqlparser.NewTableIdent("people")},
	}, map[rel.ColumnTag]string{tagID: "id", tagName: "name", tagDept: "dept"}, 0, nil)
}

func departmentsLeaf(e *sqlengine.Engine) rel.Leaf {
	return sqlengine.NewLeaf(e, &sqlparser.AliasedTableExpr{
		Expr: sqlparser.TableName{Name: sqlparser.NewTableIdent("departments")},
	}, map[rel.ColumnTag]string{tagDept: "dept"}, 0, nil)
}

func TestToSQLPlainLeaf(t *testing.T) {
	require := require.New(t)
	e := sqlengine.New("sql")
	text, err := sqlengine.ToSQL(peopleLeaf(e), e)
	require.NoError(err)
	require.Contains(text, "from people")
	require.Contains(text, "id")
	require.Contains(text, "name")
	require.Contains(text, "dept")
}

func TestToSQLSelectionAddsWhere(t *testing.T) {
	require := require.New(t)
	e := sqlengine.New("sql")
	people := peopleLeaf(e)

	filtered, err := op.NewSelection(rel.PredicateFunction{
		FuncName: "eq",
		Args:     []rel.ColumnExpression{rel.Reference{Tag: tagDept}, rel.Literal{Value: "eng"}},
	}).Apply(people)
	require.NoError(err)

	text, err := sqlengine.ToSQL(filtered, e)
	require.NoError(err)
	require.Contains(text, "where")
	require.Contains(text, "dept")
}

func TestToSQLProjectionNarrowsSelectList(t *testing.T) {
	require := require.New(t)
	e := sqlengine.New("sql")
	people := peopleLeaf(e)

	projected, err := op.NewProjection(rel.NewColumnSet(tagID, tagName)).Apply(people)
	require.NoError(err)

	text, err := sqlengine.ToSQL(projected, e)
	require.NoError(err)
	require.Contains(text, "id")
	require.Contains(text, "name")
	require.NotContains(text, "dept")
}

func TestToSQLJoinProducesJoinClause(t *testing.T) {
	require := require.New(t)
	e := sqlengine.New("sql")
	people := peopleLeaf(e)
	departments := departmentsLeaf(e)

	joined, err := op.NewJoin(nil, nil, nil).Apply(people, departments)
	require.NoError(err)

	text, err := sqlengine.ToSQL(joined, e)
	require.NoError(err)
	require.Contains(text, "join")
	require.Contains(text, "people")
	require.Contains(text, "departments")
}

func TestToSQLSliceBecomesLimitOffset(t *testing.T) {
	require := require.New(t)
	e := sqlengine.New("sql")
	people := peopleLeaf(e)

	sliced, err := op.NewSlice(5, rel.Bounded(15)).Apply(people)
	require.NoError(err)

	text, err := sqlengine.ToSQL(sliced, e)
	require.NoError(err)
	require.Contains(text, "limit")
}

func TestToSQLSortBecomesOrderBy(t *testing.T) {
	require := require.New(t)
	e := sqlengine.New("sql")
	people := peopleLeaf(e)

	sorted, err := op.NewSort(op.SortTerm{Expression: rel.Reference{Tag: tagName}, Ascending: true}).Apply(people)
	require.NoError(err)

	text, err := sqlengine.ToSQL(sorted, e)
	require.NoError(err)
	require.Contains(text, "order by")
}

func TestToSQLDeduplicationBecomesDistinct(t *testing.T) {
	require := require.New(t)
	e := sqlengine.New("sql")
	people := peopleLeaf(e)

	deduped, err := op.NewDeduplication(rel.NewColumnSet(tagDept)).Apply(people)
	require.NoError(err)

	text, err := sqlengine.ToSQL(deduped, e)
	require.NoError(err)
	require.Contains(text, "distinct")
}

func TestToSQLChainBecomesUnionAll(t *testing.T) {
	require := require.New(t)
	e := sqlengine.New("sql")
	a := peopleLeaf(e)
	b := peopleLeaf(e)

	chained, err := op.NewChain().Apply(a, b)
	require.NoError(err)

	text, err := sqlengine.ToSQL(chained, e)
	require.NoError(err)
	require.Contains(text, "union all")
}

func TestToSQLMaterializationFailsWithoutProcessor(t *testing.T) {
	require := require.New(t)
	e := sqlengine.New("sql")
	people := peopleLeaf(e)

	// An unprocessed Materialization over something more than a leaf
	// cannot be rendered directly; force a non-leaf by projecting first.
	projected, err := op.NewProjection(rel.NewColumnSet(tagID)).Apply(people, op.WithLock(false))
	require.NoError(err)
	materialized, err := op.NewMaterialization("snapshot").Apply(projected)
	require.NoError(err)

	_, err = sqlengine.ToSQL(materialized, e)
	require.Error(err, "a locked Materialization node must be resolved by the processor before it can be rendered as SQL")
	require.True(rel.ErrEngine.Is(err))
}
