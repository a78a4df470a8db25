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

package plan

import (
	"sort"
	"strings"

	"github.com/subqgen/subqgen/sql/analyzer"
	"github.com/subqgen/subqgen/sql/expression"
	"github.com/subqgen/subqgen/sql/parse"
)

// Reconstruct renders a subset's SQL sub-query. A singleton subset renders
// as "SELECT * FROM <rendered>;" with an optional WHERE of its selection
// and complex predicates. A joined subset starts its tree at the
// lexicographically smallest alias and grows it one JOIN at a time via
// choose_next, which prefers a verbatim original join edge over a derived
// one whenever any remaining alias offers one; the WHERE clause that
// follows carries every applicable predicate not already spent on an ON
// clause.
func Reconstruct(subset *Subset, relations map[string]parse.Relation, classifier *expression.Classifier, graph *analyzer.Graph) string {
	if subset.Level == 1 {
		sql := "SELECT * FROM " + renderRelation(subset.Aliases[0], relations)
		if where := whereClause(subset.Aliases, classifier, nil); where != "" {
			sql += "\nWHERE " + where
		}
		return sql + ";"
	}

	sorted := append([]string(nil), subset.Aliases...)
	sort.Strings(sorted)

	added := []string{sorted[0]}
	remaining := sorted[1:]
	sql := "SELECT * FROM " + renderRelation(sorted[0], relations)
	usedJoins := map[string]bool{}

	for len(remaining) > 0 {
		c, cond, key, idx := chooseNext(added, remaining, graph)
		sql += "\nJOIN " + renderRelation(c, relations)
		if cond != "" {
			sql += " ON " + cond
			usedJoins[key] = true
		}
		added = append(added, c)
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}

	if where := whereClause(subset.Aliases, classifier, usedJoins); where != "" {
		sql += "\nWHERE " + where
	}
	return sql + ";"
}

func renderRelation(alias string, relations map[string]parse.Relation) string {
	rel, ok := relations[alias]
	if !ok || rel.Base == alias {
		return alias
	}
	return rel.Base + " " + alias
}

// chooseNext scans remaining, in iteration order, for the next alias to
// join to added. It returns immediately on the first candidate offering a
// verbatim original edge; failing that, it falls back to the first
// candidate offering any derived edge or shared equivalence-class column,
// found only after the whole of remaining has been scanned for an original
// one. idx is remaining's index of the chosen alias, for the caller to
// remove it from the slice.
func chooseNext(added, remaining []string, graph *analyzer.Graph) (alias, cond, key string, idx int) {
	for i, c := range remaining {
		if cnd, k, ok := detailBetween(added, c, graph.OriginalEdges); ok {
			return c, cnd, k, i
		}
	}

	fallbackIdx := -1
	var fallbackAlias, fallbackCond, fallbackKey string
	for i, c := range remaining {
		if cnd, k, ok := detailBetween(added, c, graph.DerivedEdges); ok {
			fallbackIdx, fallbackAlias, fallbackCond, fallbackKey = i, c, cnd, k
			break
		}
	}
	if fallbackIdx < 0 {
		for i, c := range remaining {
			for _, a := range added {
				if colA, colB, ok := graph.SharedColumn(a, c); ok {
					fallbackIdx, fallbackAlias = i, c
					fallbackCond = a + "." + colA + " = " + c + "." + colB
					fallbackKey = joinKey(a, colA, c, colB)
					break
				}
			}
			if fallbackIdx >= 0 {
				break
			}
		}
	}
	if fallbackIdx >= 0 {
		return fallbackAlias, fallbackCond, fallbackKey, fallbackIdx
	}

	// Unreachable for a subset the enumerator confirmed connected: every
	// remaining alias is disconnected from added. Take the first one
	// anyway rather than dropping it from the tree.
	return remaining[0], "", "", 0
}

func detailBetween(added []string, c string, edges []analyzer.Edge) (cond, key string, ok bool) {
	for _, e := range edges {
		for _, a := range added {
			if e.LeftAlias == a && e.RightAlias == c {
				return e.LeftAlias + "." + e.LeftColumn + " = " + e.RightAlias + "." + e.RightColumn,
					joinKey(e.LeftAlias, e.LeftColumn, e.RightAlias, e.RightColumn), true
			}
			if e.RightAlias == a && e.LeftAlias == c {
				return e.RightAlias + "." + e.RightColumn + " = " + e.LeftAlias + "." + e.LeftColumn,
					joinKey(e.LeftAlias, e.LeftColumn, e.RightAlias, e.RightColumn), true
			}
		}
	}
	return "", "", false
}

func joinKey(a1, c1, a2, c2 string) string {
	left, right := a1+"."+c1, a2+"."+c2
	if left > right {
		left, right = right, left
	}
	return left + subsetSeparator + right
}

// whereClause renders every selection and complex predicate applicable to
// aliases, plus any classified join predicate not already spent as an
// ON-clause condition, joined by the spec's "\n  AND " separator in
// selections-then-joins-then-complex order.
func whereClause(aliases []string, classifier *expression.Classifier, usedJoins map[string]bool) string {
	if classifier == nil {
		return ""
	}
	subset := map[string]bool{}
	for _, a := range aliases {
		subset[a] = true
	}
	ps := classifier.PredicatesFor(subset)

	var parts []string
	parts = append(parts, ps.Selections...)
	for _, j := range ps.Joins {
		if usedJoins[joinKey(j.LeftAlias, j.LeftColumn, j.RightAlias, j.RightColumn)] {
			continue
		}
		parts = append(parts, j.Text())
	}
	for _, c := range ps.Complex {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, "\n  AND ")
}
