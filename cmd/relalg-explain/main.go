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

// Command relalg-explain builds a small, fixed relation tree: it filters an
// in-memory table, runs that filter through the iterengine reference
// executor and prints the rows, transfers the filtered relation onto a SQL
// engine via a Processor, joins it there against a SQL table, and prints
// the generated SQL text.
//
// Run it with -verbose to see logrus trace-level output for every
// operation applied while the tree is built.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dolthub/vitess/go/vt/sqlparser"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lsst/daf-relation/rel"
	"github.com/lsst/daf-relation/rel/iterengine"
	"github.com/lsst/daf-relation/rel/op"
	"github.com/lsst/daf-relation/rel/processor"
	"github.com/lsst/daf-relation/rel/sqlengine"
)

var log = logrus.New()

var (
	nameTag   = rel.NewKeyTag("name")
	ageTag    = rel.NewTag("age")
	deptTag   = rel.NewTag("dept")
	budgetTag = rel.NewTag("budget")
)

func main() {
	verbose := flag.Bool("verbose", false, "log each operation at trace level")
	flag.Parse()
	if *verbose {
		log.SetLevel(logrus.TraceLevel)
	}
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	mem := iterengine.New("mem")
	people := peopleLeaf(mem)

	adultsOp := op.NewSelection(rel.PredicateFunction{
		FuncName: "ge",
		Args:     []rel.ColumnExpression{rel.Reference{Tag: ageTag}, rel.Literal{Value: float64(40)}},
	})
	log.WithField("op", adultsOp).Trace("applying selection")
	adults, err := adultsOp.Apply(people)
	if err != nil {
		return errors.Wrap(err, "building selection")
	}

	iterRows, err := mem.Execute(adults)
	if err != nil {
		return errors.Wrap(err, "executing in-memory tree")
	}
	fmt.Println("iterengine rows (age >= 40):")
	for _, row := range iterRows {
		fmt.Printf("  %v\n", row)
	}

	sql := sqlengine.New("sql")
	departments := departmentsLeaf(sql)

	proc := processor.New()
	proc.Register(rel.Engine(mem), mem.AsExecutor())
	proc.Register(rel.Engine(sql), sql.AsExecutor())

	transferOp := op.NewTransfer(rel.Engine(sql))
	log.WithField("op", transferOp).Trace("applying transfer")
	transferred, err := transferOp.Apply(adults)
	if err != nil {
		return errors.Wrap(err, "building transfer")
	}

	resolved, err := proc.Materialize(transferred)
	if err != nil {
		return errors.Wrap(err, "running processor")
	}

	joinOp := op.NewJoin(nil, nil, nil)
	log.WithField("op", joinOp).Trace("applying join")
	joined, err := joinOp.Apply(resolved, departments)
	if err != nil {
		return errors.Wrap(err, "building join")
	}

	text, err := sqlengine.ToSQL(joined, sql)
	if err != nil {
		return errors.Wrap(err, "rendering SQL")
	}
	fmt.Println("\nsqlengine translation (adults joined against departments):")
	fmt.Println("  " + text)
	return nil
}

func peopleLeaf(mem *iterengine.Engine) rel.Leaf {
	rows := []iterengine.Row{
		{nameTag: "ada", ageTag: float64(36), deptTag: "eng"},
		{nameTag: "grace", ageTag: float64(40), deptTag: "eng"},
		{nameTag: "linus", ageTag: float64(54), deptTag: "ops"},
	}
	maxRows := uint64(len(rows))
	return rel.Leaf{
		LeafEngine:  mem,
		LeafColumns: rel.NewColumnSet(nameTag, ageTag, deptTag),
		LeafMinRows: uint64(len(rows)),
		LeafMaxRows: &maxRows,
		LeafPayload: rows,
	}
}

func departmentsLeaf(sql *sqlengine.Engine) rel.Leaf {
	return sqlengine.NewLeaf(sql, &sqlparser.AliasedTableExpr{
		Expr: sqlparser.TableName{Name: sqlparser.NewTableIdent("departments")},
	}, map[rel.ColumnTag]string{
		deptTag:   "dept",
		budgetTag: "budget",
	}, 0, nil)
}
