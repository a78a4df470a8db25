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

// Package plan builds the connected-subset DP table (join_search.go's role
// in the teacher) and reconstructs a SQL sub-query for each accepted
// subset.
package plan

import (
	"sort"
	"strings"

	"github.com/subqgen/subqgen/internal/diag"
	"github.com/subqgen/subqgen/sql/analyzer"
)

// subsetSeparator joins a subset's sorted aliases into its canonical key,
// the same "|||" convention the join graph uses for edge identity.
const subsetSeparator = "|||"

// Subset is one DP-table entry: a connected group of aliases together with
// the decomposition that justifies its connectivity, used later to build
// the JOIN tree for reconstruction.
type Subset struct {
	Aliases []string
	Key     string
	Level   int

	// Left and Right are nil for a singleton (Level == 1); for a joined
	// subset, they are the two lower-level subsets whose connection via
	// the join graph was found first, in deterministic search order.
	Left, Right *Subset
}

// EnumerationResult holds every connected subset discovered, grouped by
// level (number of aliases), plus the per-level counts the caller can
// surface as run statistics.
type EnumerationResult struct {
	Levels      map[int][]*Subset
	Counts      map[int]int
	Diagnostics []diag.Diagnostic
}

// Enumerate builds the DP table of connected alias subsets level by level,
// starting from the singleton level and growing one alias at a time. A
// subset of size L is accepted only if the join graph reports every alias
// in it as connected to every other; its stored decomposition splits it
// into a left subset of size in [1, L/2] and a right subset of the
// remaining aliases, the split restricted to that range because a subset
// and its mirror (left/right swapped) are the same decomposition.
func Enumerate(aliases []string, graph *analyzer.Graph) *EnumerationResult {
	sorted := append([]string(nil), aliases...)
	sort.Strings(sorted)

	res := &EnumerationResult{Levels: map[int][]*Subset{}, Counts: map[int]int{}}
	byKey := map[string]*Subset{}

	for _, a := range sorted {
		s := &Subset{Aliases: []string{a}, Key: a, Level: 1}
		res.Levels[1] = append(res.Levels[1], s)
		byKey[s.Key] = s
	}
	res.Counts[1] = len(sorted)

	for level := 2; level <= len(sorted); level++ {
		for _, combo := range combinations(sorted, level) {
			key := subsetKey(combo)
			if !graph.Connected(combo) {
				continue
			}
			decomp := findDecomposition(combo, res, byKey, graph)
			if decomp == nil {
				res.Diagnostics = append(res.Diagnostics, diag.New(diag.Internal,
					"connected subset has no discoverable decomposition", key))
				continue
			}
			s := &Subset{Aliases: combo, Key: key, Level: level, Left: decomp.left, Right: decomp.right}
			res.Levels[level] = append(res.Levels[level], s)
			byKey[key] = s
		}
		res.Counts[level] = len(res.Levels[level])
	}

	return res
}

type decomposition struct {
	left, right *Subset
}

// findDecomposition searches for a split of combo into a left part of size
// leftSize and a right part of the remaining aliases, for leftSize ranging
// over [1, floor(level/2)], returning the first pair of previously accepted
// subsets joined by at least one join-graph edge.
func findDecomposition(combo []string, res *EnumerationResult, byKey map[string]*Subset, graph *analyzer.Graph) *decomposition {
	level := len(combo)
	for leftSize := 1; leftSize <= level/2; leftSize++ {
		for _, left := range combinations(combo, leftSize) {
			right := complement(combo, left)
			leftEntry, ok := byKey[subsetKey(left)]
			if !ok {
				continue
			}
			rightEntry, ok := byKey[subsetKey(right)]
			if !ok {
				continue
			}
			if crossEdge(left, right, graph) {
				return &decomposition{left: leftEntry, right: rightEntry}
			}
		}
	}
	return nil
}

func crossEdge(left, right []string, graph *analyzer.Graph) bool {
	for _, a := range left {
		for _, b := range right {
			if graph.CanJoin(a, b) {
				return true
			}
		}
	}
	return false
}

func subsetKey(aliases []string) string {
	sorted := append([]string(nil), aliases...)
	sort.Strings(sorted)
	return strings.Join(sorted, subsetSeparator)
}

func complement(whole, part []string) []string {
	in := map[string]bool{}
	for _, a := range part {
		in[a] = true
	}
	var out []string
	for _, a := range whole {
		if !in[a] {
			out = append(out, a)
		}
	}
	return out
}

// combinations returns every size-k combination of items, in lexicographic
// order relative to items' input order.
func combinations(items []string, k int) [][]string {
	n := len(items)
	if k <= 0 || k > n {
		return nil
	}
	var out [][]string
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		combo := make([]string, k)
		for i, ix := range idx {
			combo[i] = items[ix]
		}
		out = append(out, combo)

		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
	return out
}
