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

package rel_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lsst/daf-relation/rel"
)

var (
	exprTagA = rel.NewKeyTag("a")
	exprTagB = rel.NewTag("b")
)

func TestLiteralRequiresNoColumns(t *testing.T) {
	require := require.New(t)
	lit := rel.Literal{Value: 3}
	require.Empty(lit.ColumnsRequired())
	require.Equal("3", lit.String())
}

func TestReferenceRequiresItsColumn(t *testing.T) {
	require := require.New(t)
	ref := rel.Reference{Tag: exprTagA}
	require.True(ref.ColumnsRequired().Equals(rel.NewColumnSet(exprTagA)))
	require.Equal("a", ref.String())
}

func TestCallColumnsRequiredIsUnionOfArgs(t *testing.T) {
	require := require.New(t)
	call := rel.Call{
		FuncName: "add",
		Args:     []rel.ColumnExpression{rel.Reference{Tag: exprTagA}, rel.Reference{Tag: exprTagB}},
	}
	require.True(call.ColumnsRequired().Equals(rel.NewColumnSet(exprTagA, exprTagB)))
	require.Equal("add(a, b)", call.String())
}

func TestPredicateLiteralAsTrivial(t *testing.T) {
	require := require.New(t)
	require.Equal(rel.TrivialTrue, rel.PredicateLiteral{Value: true}.AsTrivial())
	require.Equal(rel.TrivialFalse, rel.PredicateLiteral{Value: false}.AsTrivial())
}

func TestPredicateReferenceAndFunctionAreNonTrivial(t *testing.T) {
	require := require.New(t)
	require.Equal(rel.NonTrivial, rel.PredicateReference{Tag: exprTagA}.AsTrivial())
	require.Equal(rel.NonTrivial, rel.PredicateFunction{FuncName: "eq"}.AsTrivial())
}

func TestLogicalNotInvertsTrivialValue(t *testing.T) {
	require := require.New(t)
	require.Equal(rel.TrivialFalse, rel.LogicalNot{Term: rel.PredicateLiteral{Value: true}}.AsTrivial())
	require.Equal(rel.TrivialTrue, rel.LogicalNot{Term: rel.PredicateLiteral{Value: false}}.AsTrivial())
	require.Equal(rel.NonTrivial, rel.LogicalNot{Term: rel.PredicateReference{Tag: exprTagA}}.AsTrivial())
}

func TestLogicalAndOfFlattensNesting(t *testing.T) {
	require := require.New(t)
	p1 := rel.PredicateReference{Tag: exprTagA}
	p2 := rel.PredicateReference{Tag: exprTagB}
	nested := rel.LogicalAndOf(p1, rel.LogicalAndOf(p2, p1))

	terms, ok := rel.FlattenLogicalAnd(nested)
	require.True(ok)
	require.Len(terms, 3, "LogicalAndOf must flatten a nested LogicalAnd rather than wrapping it")
}

func TestLogicalAndOfDropsTrivialTrueTerms(t *testing.T) {
	require := require.New(t)
	p := rel.PredicateReference{Tag: exprTagA}
	result := rel.LogicalAndOf(p, rel.PredicateLiteral{Value: true})
	require.Equal(p, result, "a trivially-true conjunct must be dropped, leaving the single remaining term unwrapped")
}

func TestLogicalAndOfCollapsesOnTrivialFalse(t *testing.T) {
	require := require.New(t)
	p := rel.PredicateReference{Tag: exprTagA}
	result := rel.LogicalAndOf(p, rel.PredicateLiteral{Value: false})
	require.Equal(rel.TrivialFalse, result.AsTrivial())
}

func TestLogicalAndOfNoTermsIsTrivialTrue(t *testing.T) {
	require := require.New(t)
	result := rel.LogicalAndOf()
	require.Equal(rel.TrivialTrue, result.AsTrivial())
}

func TestFlattenLogicalAndRejectsNonConjunction(t *testing.T) {
	require := require.New(t)
	_, ok := rel.FlattenLogicalAnd(rel.PredicateReference{Tag: exprTagA})
	require.False(ok)
}

func TestLogicalOrRequiresBothSidesColumns(t *testing.T) {
	require := require.New(t)
	or := rel.LogicalOr{LHS: rel.PredicateReference{Tag: exprTagA}, RHS: rel.PredicateReference{Tag: exprTagB}}
	require.True(or.ColumnsRequired().Equals(rel.NewColumnSet(exprTagA, exprTagB)))
	require.Equal(rel.NonTrivial, or.AsTrivial())
}

type stubEngine struct {
	rel.Engine
	supported map[string]bool
}

func (s stubEngine) GetFunction(name string) (any, bool) {
	ok := s.supported[name]
	return nil, ok
}

func TestCallIsSupportedByChecksEngineAndArgs(t *testing.T) {
	require := require.New(t)
	e := stubEngine{supported: map[string]bool{"add": true}}

	supportedCall := rel.Call{FuncName: "add", Args: []rel.ColumnExpression{rel.Reference{Tag: exprTagA}}}
	require.True(supportedCall.IsSupportedBy(e))

	unsupportedCall := rel.Call{FuncName: "missing", Args: nil}
	require.False(unsupportedCall.IsSupportedBy(e))
}
