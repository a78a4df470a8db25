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

// Package analyzer builds the join graph and equivalence classes a query's
// aliases participate in, the role the teacher's sql/analyzer package plays
// for join_search.go's relation ordering: here, deciding which alias subsets
// are connected and which pairs of aliases can legally be joined.
package analyzer

import (
	"sort"
	"strings"

	"github.com/subqgen/subqgen/internal/diag"
	"github.com/subqgen/subqgen/sql/expression"
	"github.com/subqgen/subqgen/sql/parse"
)

// closureFuel bounds the constant-equality fixed-point loop; exceeding it
// without converging is reported as a ClosureFuel diagnostic rather than
// looping forever.
const closureFuel = 10

// Edge is one join condition in the graph, either an original edge taken
// verbatim from the FROM/ON/WHERE clauses or one derived by
// constant-equality inference. Transitive equalities over shared columns
// are not stored as Edges; they live only in the union-find classes.
type Edge struct {
	LeftAlias, LeftColumn   string
	RightAlias, RightColumn string
	Derived                 bool
}

func (e Edge) key() string {
	a, b := e.LeftAlias+"."+e.LeftColumn, e.RightAlias+"."+e.RightColumn
	if a > b {
		a, b = b, a
	}
	return a + "|||" + b
}

// Graph is the join graph and equivalence-class structure for a single
// query: every alias is a node, original and derived equality edges connect
// them, and columns that are provably equal collapse into one equivalence
// class via union-find.
type Graph struct {
	Aliases       []string
	OriginalEdges []Edge
	DerivedEdges  []Edge
	Diagnostics   []diag.Diagnostic

	uf *unionFind
	// adjacency of alias -> alias, built from both original and derived
	// edges, used by Connected's BFS.
	adj map[string]map[string]bool
}

// Build constructs the join graph for one parsed query: it seeds the
// equivalence classes from the original join edges, closes them
// transitively over shared relation/column pairs, then layers in joins
// inferred from single-table constant-equality selections (e.g. two aliases
// each constrained to the same literal value of the same column), capped at
// closureFuel fixed-point passes.
func Build(aliases []string, originalEdges []parse.JoinEdge, classifier *expression.Classifier) *Graph {
	g := &Graph{
		Aliases: aliases,
		uf:      newUnionFind(),
		adj:     map[string]map[string]bool{},
	}
	for _, a := range aliases {
		g.uf.find(a) // ensure every alias has a singleton EC even if isolated
	}

	seen := map[string]bool{}
	for _, e := range originalEdges {
		edge := Edge{LeftAlias: e.LeftAlias, LeftColumn: e.LeftColumn, RightAlias: e.RightAlias, RightColumn: e.RightColumn}
		if seen[edge.key()] {
			continue
		}
		seen[edge.key()] = true
		g.OriginalEdges = append(g.OriginalEdges, edge)
		g.addEdge(edge)
	}

	g.closeConstantEquality(classifier, seen)

	return g
}

func (g *Graph) addEdge(e Edge) {
	g.uf.union(e.LeftAlias+"."+e.LeftColumn, e.RightAlias+"."+e.RightColumn)
	g.link(e.LeftAlias, e.RightAlias)
}

func (g *Graph) link(a, b string) {
	if g.adj[a] == nil {
		g.adj[a] = map[string]bool{}
	}
	if g.adj[b] == nil {
		g.adj[b] = map[string]bool{}
	}
	g.adj[a][b] = true
	g.adj[b][a] = true
}

// closeConstantEquality derives new join edges between aliases whose
// single-table selection predicates constrain the same column to the exact
// same literal value: "A.x = 5" and "B.x = 5" implies A and B can join on
// column x. It repeats until a pass adds nothing new, capped at
// closureFuel; hitting the cap without converging is recorded as a
// ClosureFuel diagnostic rather than looping forever.
func (g *Graph) closeConstantEquality(classifier *expression.Classifier, seen map[string]bool) {
	if classifier == nil {
		return
	}
	for pass := 0; pass < closureFuel; pass++ {
		groups := map[string][]string{} // "column|value" -> aliases
		for _, alias := range g.Aliases {
			for _, eq := range constantEqualities(classifier.SelectionsFor(alias)) {
				key := eq.col + "|" + eq.val
				groups[key] = append(groups[key], alias)
			}
		}

		added := false
		for key, group := range groups {
			if len(group) < 2 {
				continue
			}
			col := strings.SplitN(key, "|", 2)[0]
			sort.Strings(group)
			for i := 1; i < len(group); i++ {
				edge := Edge{
					LeftAlias: group[0], LeftColumn: col,
					RightAlias: group[i], RightColumn: col,
					Derived: true,
				}
				if seen[edge.key()] {
					continue
				}
				seen[edge.key()] = true
				g.DerivedEdges = append(g.DerivedEdges, edge)
				g.addEdge(edge)
				added = true
			}
		}
		if !added {
			return
		}
	}
	g.Diagnostics = append(g.Diagnostics, diag.New(diag.ClosureFuel,
		"constant-equality closure did not converge within fuel limit", ""))
}

type constantEquality struct {
	col, val string
}

// constantEqualities scans selection predicate text for the "alias.col =
// literal" shape and returns (column, normalized literal) pairs; anything
// else (ranges, LIKE, IS NULL, non-literal comparisons) is silently skipped,
// not an error, since most selections never participate in constant
// equality.
func constantEqualities(selections []string) []constantEquality {
	var out []constantEquality
	for _, text := range selections {
		if col, val, ok := parseConstantEquality(text); ok {
			out = append(out, constantEquality{col: col, val: val})
		}
	}
	return out
}

// parseConstantEquality recognizes "alias.col = <literal>" (number or quoted
// string) and "alias.col IN (<literal>)" (a single-value IN list; a
// multi-value list is left to the classifier's "complex" bucket) and returns
// the bare column name and a normalized literal value.
func parseConstantEquality(text string) (col, val string, ok bool) {
	if col, val, ok := parseEqualityLiteral(text); ok {
		return col, val, true
	}
	return parseSingleValueIn(text)
}

func parseEqualityLiteral(text string) (col, val string, ok bool) {
	idx := strings.Index(text, "=")
	if idx < 0 {
		return "", "", false
	}
	left := strings.TrimSpace(text[:idx])
	right := strings.TrimSpace(text[idx+1:])
	dot := strings.LastIndex(left, ".")
	if dot < 0 {
		return "", "", false
	}
	col = left[dot+1:]
	// a column that isn't a bare identifier means the "=" belonged to
	// another operator (">=", "<=", "!=") or sat inside a wider expression.
	if col == "" || right == "" || !isWordSuffix(col) {
		return "", "", false
	}
	// reject comparisons that are themselves column references or contain
	// further operators, leaving anything but a bare literal to the
	// classifier's "complex" bucket.
	if strings.ContainsAny(right, "<>!") || strings.Contains(right, ".") {
		return "", "", false
	}
	return col, normalizeLiteral(right), true
}

// parseSingleValueIn recognizes "alias.col IN (<literal>)", rejecting any
// parenthesized list containing more than one value, per the original
// parser's Pattern 2 (_extract_single_constant_value).
func parseSingleValueIn(text string) (col, val string, ok bool) {
	upper := strings.ToUpper(text)
	inIdx := strings.Index(upper, " IN")
	if inIdx < 0 {
		return "", "", false
	}
	left := strings.TrimSpace(text[:inIdx])
	dot := strings.LastIndex(left, ".")
	if dot < 0 {
		return "", "", false
	}
	col = left[dot+1:]
	// rejects "alias.col NOT IN (...)", whose column part would read "col NOT".
	if col == "" || !isWordSuffix(col) {
		return "", "", false
	}

	rest := strings.TrimSpace(text[inIdx+3:])
	open := strings.Index(rest, "(")
	shut := strings.LastIndex(rest, ")")
	if open < 0 || shut < 0 || shut < open {
		return "", "", false
	}
	inner := strings.TrimSpace(rest[open+1 : shut])
	if inner == "" || strings.Contains(inner, ",") {
		return "", "", false
	}
	return col, normalizeLiteral(inner), true
}

// normalizeLiteral strips a trailing "::type" cast suffix, then surrounding
// quotes, matching the original parser's _normalize_value.
func normalizeLiteral(raw string) string {
	s := strings.TrimSpace(raw)
	if idx := strings.LastIndex(s, "::"); idx >= 0 && isWordSuffix(s[idx+2:]) {
		s = s[:idx]
	}
	return strings.Trim(s, "'\"")
}

func isWordSuffix(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// Root returns the equivalence-class representative of alias.column.
func (g *Graph) Root(alias, column string) string {
	return g.uf.find(alias + "." + column)
}

// SameEC reports whether two (alias, column) pairs are in the same
// equivalence class.
func (g *Graph) SameEC(alias1, col1, alias2, col2 string) bool {
	return g.Root(alias1, col1) == g.Root(alias2, col2)
}

// CanJoin reports whether two aliases can be joined: either they share an
// equivalence class linking some column of a to some column of b (the two
// need not share a name — A.x and B.y can land in the same EC via a chain
// of equalities), or an explicit edge connects them directly.
func (g *Graph) CanJoin(a, b string) bool {
	if g.adj[a] != nil && g.adj[a][b] {
		return true
	}
	_, _, ok := g.ecSharedColumn(a, b)
	return ok
}

// SharedColumn returns a (colA, colB) pair such that a.colA and b.colB are
// in the same equivalence class, for callers that need to render a
// synthetic join condition when no literal edge connects a and b directly.
func (g *Graph) SharedColumn(a, b string) (colA, colB string, ok bool) {
	return g.ecSharedColumn(a, b)
}

func (g *Graph) ecSharedColumn(a, b string) (colA, colB string, ok bool) {
	rootToColA := map[string]string{}
	for key := range g.uf.parent {
		if alias, col, split := splitKey(key); split && alias == a {
			rootToColA[g.uf.find(key)] = col
		}
	}
	for key := range g.uf.parent {
		alias, col, split := splitKey(key)
		if !split || alias != b {
			continue
		}
		if ca, found := rootToColA[g.uf.find(key)]; found {
			return ca, col, true
		}
	}
	return "", "", false
}

func splitKey(key string) (alias, col string, ok bool) {
	dot := strings.LastIndex(key, ".")
	if dot < 0 {
		return "", "", false
	}
	return key[:dot], key[dot+1:], true
}

// Connected reports whether every alias in subset forms a single connected
// component under the "EC-connected or shares an explicit edge" adjacency,
// via breadth-first search from an arbitrary member.
func (g *Graph) Connected(subset []string) bool {
	if len(subset) <= 1 {
		return true
	}
	want := map[string]bool{}
	for _, a := range subset {
		want[a] = true
	}
	visited := map[string]bool{subset[0]: true}
	queue := []string{subset[0]}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, other := range subset {
			if visited[other] || other == cur {
				continue
			}
			if g.CanJoin(cur, other) {
				visited[other] = true
				queue = append(queue, other)
			}
		}
	}
	for a := range want {
		if !visited[a] {
			return false
		}
	}
	return true
}

// unionFind is a disjoint-set over "alias.column" keys with path compression
// and union by rank.
type unionFind struct {
	parent map[string]string
	rank   map[string]int
}

func newUnionFind() *unionFind {
	return &unionFind{parent: map[string]string{}, rank: map[string]int{}}
}

func (u *unionFind) find(x string) string {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
		u.rank[x] = 0
		return x
	}
	if u.parent[x] != x {
		u.parent[x] = u.find(u.parent[x])
	}
	return u.parent[x]
}

func (u *unionFind) union(x, y string) {
	rx, ry := u.find(x), u.find(y)
	if rx == ry {
		return
	}
	if u.rank[rx] < u.rank[ry] {
		rx, ry = ry, rx
	}
	u.parent[ry] = rx
	if u.rank[rx] == u.rank[ry] {
		u.rank[rx]++
	}
}
