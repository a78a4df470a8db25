// Copyright 2020-2026 Dolthub, Inc.
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

// Package expression classifies WHERE-clause conjuncts into selections
// (single table), joins (two-table equalities) and complex predicates
// (everything else), the role the teacher's sql/expression package plays in
// describing predicate shapes for the rest of the analyzer.
package expression

import (
	"strings"

	"github.com/dolthub/vitess/go/vt/sqlparser"

	"github.com/subqgen/subqgen/internal/diag"
)

// JoinPredicate is a classified two-alias equality predicate. It's kept
// structured, not just as opaque text, so it can be re-rendered with the
// same canonical "alias.col = alias.col" form the join graph uses — that
// lets callers de-duplicate against join-graph edge text without caring
// whether a predicate's original WHERE-clause spelling happened to match.
type JoinPredicate struct {
	LeftAlias, LeftColumn   string
	RightAlias, RightColumn string
}

// Text renders the predicate the same way the join graph renders an edge
// detail: "left.col = right.col".
func (p JoinPredicate) Text() string {
	return p.LeftAlias + "." + p.LeftColumn + " = " + p.RightAlias + "." + p.RightColumn
}

// ComplexPredicate is a predicate referencing more than one alias that
// isn't a plain two-alias equality (or that contains a top-level OR).
type ComplexPredicate struct {
	Text string
	// IsOrCandidate marks predicates of the shape "(... OR ...)", the
	// candidate list the spec reserves for an external multi-table-OR
	// expansion collaborator; this module only records the flag.
	IsOrCandidate bool
}

// PredicateSet is the classified view of predicates applicable to some
// subset of aliases.
type PredicateSet struct {
	Selections []string
	Joins      []JoinPredicate
	Complex    []ComplexPredicate
}

type predicate struct {
	text       string
	aliases    []string
	topLevelOr bool
	category   category
	join       JoinPredicate
	complex    ComplexPredicate
}

type category int

const (
	catSelection category = iota
	catJoin
	catComplex
)

// Classifier holds every WHERE conjunct of one query, classified once up
// front and queried many times by the enumerator and reconstructor.
type Classifier struct {
	predicates  []predicate
	Diagnostics []diag.Diagnostic
}

// NewClassifier builds and immediately classifies a Classifier from the raw
// WHERE conjuncts the analyzer front extracted. A top-level OR or a
// non-equality two-alias predicate is still kept as a complex predicate
// (the core never raises), but each also records an UnsupportedConstruct
// diagnostic per §7's taxonomy.
func NewClassifier(conjuncts []ConjunctInput) *Classifier {
	c := &Classifier{}
	for _, in := range conjuncts {
		p, d := classify(in)
		c.predicates = append(c.predicates, p)
		if d != nil {
			c.Diagnostics = append(c.Diagnostics, *d)
		}
	}
	return c
}

// ConjunctInput is the subset of parse.Conjunct this package needs; kept
// separate so sql/expression doesn't import sql/parse, matching the
// teacher's package dependency direction (expression has no analyzer-front
// dependency).
type ConjunctInput struct {
	Text       string
	Aliases    []string
	TopLevelOr bool
}

func classify(in ConjunctInput) (predicate, *diag.Diagnostic) {
	p := predicate{text: in.Text, aliases: in.Aliases, topLevelOr: in.TopLevelOr}

	// Ordering matters and is spec-mandated: a top-level OR always wins,
	// even over a single-alias predicate that would otherwise be a plain
	// selection.
	if in.TopLevelOr {
		p.category = catComplex
		p.complex = ComplexPredicate{Text: in.Text, IsOrCandidate: isOrCandidateText(in.Text)}
		d := diag.New(diag.UnsupportedConstruct, "top-level OR predicate excluded from join and EC inference", in.Text)
		return p, &d
	}

	if jp, ok := equalityJoin(in); ok {
		p.category = catJoin
		p.join = jp
		return p, nil
	}

	if len(in.Aliases) == 1 {
		p.category = catSelection
		return p, nil
	}

	p.category = catComplex
	p.complex = ComplexPredicate{Text: in.Text, IsOrCandidate: isOrCandidateText(in.Text)}
	if len(in.Aliases) == 2 {
		d := diag.New(diag.UnsupportedConstruct, "non-equality two-alias predicate excluded from join inference", in.Text)
		return p, &d
	}
	return p, nil
}

// equalityJoin recognizes the "alias1.col1 = alias2.col2" shape using the
// already-rendered predicate text: by this point the AST has already told
// us whether there's a top-level OR, so the remaining check is purely
// syntactic on the two-alias equality shape.
func equalityJoin(in ConjunctInput) (JoinPredicate, bool) {
	if len(in.Aliases) != 2 {
		return JoinPredicate{}, false
	}
	expr, err := sqlparser.ParseExpr(in.Text)
	if err != nil {
		return JoinPredicate{}, false
	}
	cmp, ok := expr.(*sqlparser.ComparisonExpr)
	if !ok || cmp.Operator != sqlparser.EqualStr {
		return JoinPredicate{}, false
	}
	left, ok := cmp.Left.(*sqlparser.ColName)
	if !ok || left.Qualifier.IsEmpty() {
		return JoinPredicate{}, false
	}
	right, ok := cmp.Right.(*sqlparser.ColName)
	if !ok || right.Qualifier.IsEmpty() {
		return JoinPredicate{}, false
	}
	return JoinPredicate{
		LeftAlias: left.Qualifier.Name.String(), LeftColumn: left.Name.String(),
		RightAlias: right.Qualifier.Name.String(), RightColumn: right.Name.String(),
	}, true
}

func isOrCandidateText(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "(") &&
		strings.Contains(strings.ToUpper(text), " OR ")
}

// PredicatesFor returns every predicate applicable to subset: selections for
// any alias in subset, joins whose both endpoints lie in subset, and
// complex predicates whose every referenced alias lies in subset.
func (c *Classifier) PredicatesFor(subset map[string]bool) PredicateSet {
	var out PredicateSet
	for _, p := range c.predicates {
		if !allIn(p.aliases, subset) {
			continue
		}
		switch p.category {
		case catSelection:
			out.Selections = append(out.Selections, p.text)
		case catJoin:
			out.Joins = append(out.Joins, p.join)
		case catComplex:
			out.Complex = append(out.Complex, p.complex)
		}
	}
	return out
}

// JoinPredicatesBetween returns join-category predicates with one endpoint
// in left and the other in right.
func (c *Classifier) JoinPredicatesBetween(left, right map[string]bool) []JoinPredicate {
	var out []JoinPredicate
	for _, p := range c.predicates {
		if p.category != catJoin {
			continue
		}
		a, b := p.join.LeftAlias, p.join.RightAlias
		if (left[a] && right[b]) || (left[b] && right[a]) {
			out = append(out, p.join)
		}
	}
	return out
}

// SelectionsFor returns the raw single-table selection predicates for one
// alias, used by the constant-equality scan in the join-graph package.
func (c *Classifier) SelectionsFor(alias string) []string {
	var out []string
	for _, p := range c.predicates {
		if p.category == catSelection && len(p.aliases) == 1 && p.aliases[0] == alias {
			out = append(out, p.text)
		}
	}
	return out
}

func allIn(aliases []string, subset map[string]bool) bool {
	for _, a := range aliases {
		if !subset[a] {
			return false
		}
	}
	return true
}
