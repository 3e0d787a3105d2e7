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

package rel

import (
	"fmt"
	"strings"
)

// ColumnExpression is the abstract sum type over literals, column
// references, named functions, and (via Predicate) logical combinators.
// Concrete variants are: Literal, Reference, Call, and every Predicate
// variant (a Predicate is also a ColumnExpression).
type ColumnExpression interface {
	// ColumnsRequired returns the set of ColumnTags this expression reads.
	ColumnsRequired() ColumnSet
	// IsSupportedBy reports whether engine e can evaluate this expression.
	IsSupportedBy(e Engine) bool
	fmt.Stringer
}

// Trivial is the three-valued result of Predicate.AsTrivial.
type Trivial int

const (
	// NonTrivial means the predicate's truth value depends on row content.
	NonTrivial Trivial = iota
	// TrivialTrue means the predicate is always true.
	TrivialTrue
	// TrivialFalse means the predicate is always false.
	TrivialFalse
)

// Predicate is a boolean-valued ColumnExpression.
type Predicate interface {
	ColumnExpression
	// AsTrivial reports whether this predicate is a compile-time constant.
	AsTrivial() Trivial
	// LogicalAnd returns the conjunction of p and other, flattening nested
	// conjunctions and simplifying trivial terms.
	LogicalAnd(other Predicate) Predicate
}

// Literal is a constant-valued ColumnExpression. Literals require no
// columns, so a Calculation may never consist of a bare Literal (spec §4.2:
// "the expression to depend on at least one existing column").
type Literal struct {
	Value any
}

func (l Literal) ColumnsRequired() ColumnSet    { return nil }
func (l Literal) IsSupportedBy(e Engine) bool   { return true }
func (l Literal) String() string                { return fmt.Sprintf("%v", l.Value) }

var _ ColumnExpression = Literal{}

// Reference is a ColumnExpression that reads a single existing column.
type Reference struct {
	Tag ColumnTag
}

func (r Reference) ColumnsRequired() ColumnSet  { return NewColumnSet(r.Tag) }
func (r Reference) IsSupportedBy(e Engine) bool { return true }
func (r Reference) String() string              { return r.Tag.Name() }

var _ ColumnExpression = Reference{}

// Call is a named-function ColumnExpression, e.g. add(a, b). The function
// must be resolvable via Engine.GetFunction for the expression to be
// supported by that engine.
type Call struct {
	FuncName string
	Args     []ColumnExpression
}

func (c Call) ColumnsRequired() ColumnSet {
	result := ColumnSet{}
	for _, a := range c.Args {
		result = result.Union(a.ColumnsRequired())
	}
	return result
}

func (c Call) IsSupportedBy(e Engine) bool {
	if _, ok := e.GetFunction(c.FuncName); !ok {
		return false
	}
	for _, a := range c.Args {
		if !a.IsSupportedBy(e) {
			return false
		}
	}
	return true
}

func (c Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.FuncName, strings.Join(parts, ", "))
}

var _ ColumnExpression = Call{}

// PredicateLiteral is a compile-time constant boolean predicate.
type PredicateLiteral struct {
	Value bool
}

func (p PredicateLiteral) ColumnsRequired() ColumnSet  { return nil }
func (p PredicateLiteral) IsSupportedBy(e Engine) bool { return true }
func (p PredicateLiteral) String() string {
	if p.Value {
		return "true"
	}
	return "false"
}
func (p PredicateLiteral) AsTrivial() Trivial {
	if p.Value {
		return TrivialTrue
	}
	return TrivialFalse
}
func (p PredicateLiteral) LogicalAnd(other Predicate) Predicate { return logicalAndOf(p, other) }

var _ Predicate = PredicateLiteral{}

// PredicateReference treats a single boolean-valued column as a predicate.
type PredicateReference struct {
	Tag ColumnTag
}

func (p PredicateReference) ColumnsRequired() ColumnSet        { return NewColumnSet(p.Tag) }
func (p PredicateReference) IsSupportedBy(e Engine) bool       { return true }
func (p PredicateReference) String() string                    { return p.Tag.Name() }
func (p PredicateReference) AsTrivial() Trivial                { return NonTrivial }
func (p PredicateReference) LogicalAnd(other Predicate) Predicate { return logicalAndOf(p, other) }

var _ Predicate = PredicateReference{}

// PredicateFunction is a named boolean-valued function over ColumnExpression
// arguments, e.g. eq(a, b), lt(a, 0).
type PredicateFunction struct {
	FuncName string
	Args     []ColumnExpression
}

func (p PredicateFunction) ColumnsRequired() ColumnSet {
	result := ColumnSet{}
	for _, a := range p.Args {
		result = result.Union(a.ColumnsRequired())
	}
	return result
}

func (p PredicateFunction) IsSupportedBy(e Engine) bool {
	if _, ok := e.GetFunction(p.FuncName); !ok {
		return false
	}
	for _, a := range p.Args {
		if !a.IsSupportedBy(e) {
			return false
		}
	}
	return true
}

func (p PredicateFunction) String() string {
	parts := make([]string, len(p.Args))
	for i, a := range p.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", p.FuncName, strings.Join(parts, ", "))
}

func (p PredicateFunction) AsTrivial() Trivial { return NonTrivial }

func (p PredicateFunction) LogicalAnd(other Predicate) Predicate { return logicalAndOf(p, other) }

var _ Predicate = PredicateFunction{}

// LogicalAnd is the conjunction of zero or more predicates. Construct via
// logicalAndOf rather than a struct literal, so trivial terms are
// simplified and nesting is flattened (spec §4.2: "flattens nested
// LogicalAnd predicates").
type LogicalAnd struct {
	Terms []Predicate
}

func (l LogicalAnd) ColumnsRequired() ColumnSet {
	result := ColumnSet{}
	for _, t := range l.Terms {
		result = result.Union(t.ColumnsRequired())
	}
	return result
}

func (l LogicalAnd) IsSupportedBy(e Engine) bool {
	for _, t := range l.Terms {
		if !t.IsSupportedBy(e) {
			return false
		}
	}
	return true
}

func (l LogicalAnd) String() string {
	parts := make([]string, len(l.Terms))
	for i, t := range l.Terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " AND ")
}

func (l LogicalAnd) AsTrivial() Trivial { return NonTrivial }

func (l LogicalAnd) LogicalAnd(other Predicate) Predicate { return logicalAndOf(l, other) }

var _ Predicate = LogicalAnd{}

// LogicalOr is the disjunction of two predicates.
type LogicalOr struct {
	LHS, RHS Predicate
}

func (l LogicalOr) ColumnsRequired() ColumnSet {
	return l.LHS.ColumnsRequired().Union(l.RHS.ColumnsRequired())
}
func (l LogicalOr) IsSupportedBy(e Engine) bool {
	return l.LHS.IsSupportedBy(e) && l.RHS.IsSupportedBy(e)
}
func (l LogicalOr) String() string {
	return fmt.Sprintf("(%s OR %s)", l.LHS, l.RHS)
}
func (l LogicalOr) AsTrivial() Trivial                    { return NonTrivial }
func (l LogicalOr) LogicalAnd(other Predicate) Predicate { return logicalAndOf(l, other) }

var _ Predicate = LogicalOr{}

// LogicalNot is the negation of a predicate.
type LogicalNot struct {
	Term Predicate
}

func (l LogicalNot) ColumnsRequired() ColumnSet  { return l.Term.ColumnsRequired() }
func (l LogicalNot) IsSupportedBy(e Engine) bool { return l.Term.IsSupportedBy(e) }
func (l LogicalNot) String() string              { return fmt.Sprintf("NOT %s", l.Term) }
func (l LogicalNot) AsTrivial() Trivial {
	switch l.Term.AsTrivial() {
	case TrivialTrue:
		return TrivialFalse
	case TrivialFalse:
		return TrivialTrue
	default:
		return NonTrivial
	}
}
func (l LogicalNot) LogicalAnd(other Predicate) Predicate { return logicalAndOf(l, other) }

var _ Predicate = LogicalNot{}

// FlattenLogicalAnd reports the flattened list of conjuncts if p is a
// LogicalAnd (recursively flattening any nested LogicalAnd terms), or
// (nil, false) if p is not a LogicalAnd at all.
func FlattenLogicalAnd(p Predicate) ([]Predicate, bool) {
	and, ok := p.(LogicalAnd)
	if !ok {
		return nil, false
	}
	var terms []Predicate
	for _, t := range and.Terms {
		if sub, ok := FlattenLogicalAnd(t); ok {
			terms = append(terms, sub...)
		} else {
			terms = append(terms, t)
		}
	}
	return terms, true
}

// logicalAndOf builds the conjunction of the given predicates, flattening
// nested LogicalAnds and simplifying trivial-true/false terms. A single
// surviving term is returned unwrapped; zero terms returns a trivial-true
// literal; any trivially-false term collapses the whole thing to
// trivial-false.
func logicalAndOf(predicates ...Predicate) Predicate {
	var flat []Predicate
	for _, p := range predicates {
		if terms, ok := FlattenLogicalAnd(p); ok {
			flat = append(flat, terms...)
		} else {
			flat = append(flat, p)
		}
	}
	var kept []Predicate
	for _, p := range flat {
		switch p.AsTrivial() {
		case TrivialFalse:
			return PredicateLiteral{Value: false}
		case TrivialTrue:
			continue
		default:
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return PredicateLiteral{Value: true}
	case 1:
		return kept[0]
	default:
		return LogicalAnd{Terms: kept}
	}
}

// LogicalAndOf is the exported constructor form of logicalAndOf, used by
// rel/op to build Selection predicates.
func LogicalAndOf(predicates ...Predicate) Predicate { return logicalAndOf(predicates...) }
