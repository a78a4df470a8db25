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

// Package parse is the analyzer front end. It turns raw SQL text into the
// relations, aliases and raw join/selection material that the classifier and
// join-graph packages build on, the same split of responsibility the
// teacher's own sql/parse package has relative to sql/analyzer and
// sql/expression.
package parse

import (
	"github.com/dolthub/vitess/go/vt/sqlparser"
	errors "gopkg.in/src-d/go-errors.v1"
)

// ErrNoFromClause is returned when the statement has no FROM clause at all,
// or when the query text could not be parsed.
var ErrNoFromClause = errors.NewKind("no FROM clause in query: %s")

// ErrNoRelations is returned when a FROM clause was found but no relation
// could be extracted from it.
var ErrNoRelations = errors.NewKind("no relations found in query")

// ErrNotASelect is returned for anything that isn't a SELECT statement.
var ErrNotASelect = errors.NewKind("not a SELECT statement: %T")

// Relation is a base table reference inside the query: a physical table
// name together with the alias used to address it.
type Relation struct {
	Alias string
	Base  string
}

// JoinEdge is a single original equality join condition extracted from
// either a JOIN...ON clause or the WHERE clause's comma-FROM legacy form.
type JoinEdge struct {
	LeftAlias, LeftColumn   string
	RightAlias, RightColumn string
}

// Conjunct is one top-level AND-separated piece of the WHERE clause,
// rendered back to SQL text and annotated with the aliases it references.
type Conjunct struct {
	Text    string
	Aliases []string
	// TopLevelOr is true when the conjunct's root is itself an OR
	// expression; an OR wrapped in parentheses is not top-level.
	TopLevelOr bool
}

// Result is everything the rest of the pipeline needs from the raw query
// text.
type Result struct {
	// Relations preserves first-appearance order; Aliases is the same
	// data keyed for lookup.
	Relations []Relation
	Aliases   map[string]string

	// JoinEdges holds every original (verbatim, not derived) equality
	// join condition, from ON clauses and from the WHERE clause alike.
	JoinEdges []JoinEdge

	// WhereConjuncts holds every top-level AND-conjunct of the WHERE
	// clause, in source order, for the classifier to categorize.
	WhereConjuncts []Conjunct
}

// Parse reads a single inner-join SQL statement and extracts the relation
// universe, original join edges, and WHERE conjuncts. It only returns an
// error for InputShape failures (query doesn't parse, no FROM, no
// relations); every other irregularity is left for the classifier and join
// graph to degrade gracefully on, per the core's "never raises" contract.
func Parse(sql string) (*Result, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, ErrNoFromClause.New(err.Error())
	}

	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, ErrNotASelect.New(stmt)
	}

	if len(sel.From) == 0 {
		return nil, ErrNoFromClause.New(sql)
	}

	res := &Result{Aliases: map[string]string{}}

	for _, te := range sel.From {
		extractRelations(te, res)
		res.JoinEdges = append(res.JoinEdges, extractJoinEdgesFromTableExpr(te)...)
	}

	if len(res.Relations) == 0 {
		return nil, ErrNoRelations.New()
	}

	if sel.Where != nil && sel.Where.Type == sqlparser.WhereStr {
		res.WhereConjuncts = splitWhere(sel.Where.Expr)
		res.JoinEdges = append(res.JoinEdges, extractEqualityEdges(sel.Where.Expr)...)
	}

	return res, nil
}

func extractRelations(te sqlparser.TableExpr, res *Result) {
	switch t := te.(type) {
	case *sqlparser.AliasedTableExpr:
		name, ok := t.Expr.(sqlparser.TableName)
		if !ok {
			return
		}
		base := name.Name.String()
		alias := base
		if !t.As.IsEmpty() {
			alias = t.As.String()
		}
		if _, exists := res.Aliases[alias]; !exists {
			res.Relations = append(res.Relations, Relation{Alias: alias, Base: base})
			res.Aliases[alias] = base
		}
	case *sqlparser.JoinTableExpr:
		extractRelations(t.LeftExpr, res)
		extractRelations(t.RightExpr, res)
	case *sqlparser.ParenTableExpr:
		for _, inner := range t.Exprs {
			extractRelations(inner, res)
		}
	}
}

// extractJoinEdgesFromTableExpr recurses the FROM tree collecting ON-clause
// equality edges; comma-joins carry no ON clause and contribute nothing
// here (their join conditions live in WHERE).
func extractJoinEdgesFromTableExpr(te sqlparser.TableExpr) []JoinEdge {
	join, ok := te.(*sqlparser.JoinTableExpr)
	if !ok {
		return nil
	}
	edges := extractJoinEdgesFromTableExpr(join.LeftExpr)
	edges = append(edges, extractJoinEdgesFromTableExpr(join.RightExpr)...)
	if join.Condition.On != nil {
		edges = append(edges, extractEqualityEdges(join.Condition.On)...)
	}
	return edges
}

// extractEqualityEdges walks an AND-chain of equality comparisons (as found
// in an ON clause or a legacy comma-FROM WHERE clause) and returns every
// alias.col = alias.col edge found.
func extractEqualityEdges(expr sqlparser.Expr) []JoinEdge {
	switch e := expr.(type) {
	case *sqlparser.AndExpr:
		return append(extractEqualityEdges(e.Left), extractEqualityEdges(e.Right)...)
	case *sqlparser.ComparisonExpr:
		if edge, ok := columnEqualityEdge(e); ok {
			return []JoinEdge{edge}
		}
	}
	return nil
}

func columnEqualityEdge(cmp *sqlparser.ComparisonExpr) (JoinEdge, bool) {
	if cmp.Operator != sqlparser.EqualStr {
		return JoinEdge{}, false
	}
	left, ok := cmp.Left.(*sqlparser.ColName)
	if !ok {
		return JoinEdge{}, false
	}
	right, ok := cmp.Right.(*sqlparser.ColName)
	if !ok {
		return JoinEdge{}, false
	}
	if left.Qualifier.IsEmpty() || right.Qualifier.IsEmpty() {
		return JoinEdge{}, false
	}
	leftAlias := left.Qualifier.Name.String()
	rightAlias := right.Qualifier.Name.String()
	if leftAlias == rightAlias {
		return JoinEdge{}, false
	}
	return JoinEdge{
		LeftAlias: leftAlias, LeftColumn: left.Name.String(),
		RightAlias: rightAlias, RightColumn: right.Name.String(),
	}, true
}

// splitWhere recursively splits a WHERE expression at top-level AND
// boundaries. Because this walks the already-parsed AST, parenthesis
// nesting, string-literal contents, and the AND inside BETWEEN...AND are all
// handled correctly for free: they were never ambiguous to the parser.
func splitWhere(expr sqlparser.Expr) []Conjunct {
	if and, ok := expr.(*sqlparser.AndExpr); ok {
		return append(splitWhere(and.Left), splitWhere(and.Right)...)
	}
	_, topLevelOr := expr.(*sqlparser.OrExpr)
	return []Conjunct{{
		Text:       sqlparser.String(expr),
		Aliases:    referencedAliases(expr),
		TopLevelOr: topLevelOr,
	}}
}

// referencedAliases returns the distinct table aliases referenced by any
// column in expr, in first-seen order.
func referencedAliases(expr sqlparser.Expr) []string {
	var order []string
	seen := map[string]bool{}
	_ = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		if col, ok := node.(*sqlparser.ColName); ok && !col.Qualifier.IsEmpty() {
			alias := col.Qualifier.Name.String()
			if !seen[alias] {
				seen[alias] = true
				order = append(order, alias)
			}
		}
		return true, nil
	}, expr)
	return order
}
