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
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/subqgen/subqgen/sql/analyzer"
	"github.com/subqgen/subqgen/sql/expression"
	"github.com/subqgen/subqgen/sql/parse"
)

func TestReconstructSingleton(t *testing.T) {
	relations := map[string]parse.Relation{"A": {Alias: "A", Base: "A"}}
	s := &Subset{Aliases: []string{"A"}, Key: "A", Level: 1}
	require.Equal(t, "SELECT * FROM A;", Reconstruct(s, relations, nil, nil))
}

func TestReconstructSingletonWithAliasedBaseTable(t *testing.T) {
	relations := map[string]parse.Relation{"t1": {Alias: "t1", Base: "title"}}
	s := &Subset{Aliases: []string{"t1"}, Key: "t1", Level: 1}
	require.Equal(t, "SELECT * FROM title t1;", Reconstruct(s, relations, nil, nil))
}

// S1 from the scenario catalog: SELECT * FROM A, B WHERE A.x = B.y AND A.z > 10;
func TestReconstructS1(t *testing.T) {
	relations := map[string]parse.Relation{
		"A": {Alias: "A", Base: "A"},
		"B": {Alias: "B", Base: "B"},
	}
	classifier := expression.NewClassifier([]expression.ConjunctInput{
		{Text: "A.x = B.y", Aliases: []string{"A", "B"}},
		{Text: "A.z > 10", Aliases: []string{"A"}},
	})
	graph := analyzer.Build([]string{"A", "B"}, []parse.JoinEdge{
		{LeftAlias: "A", LeftColumn: "x", RightAlias: "B", RightColumn: "y"},
	}, classifier)

	res := Enumerate([]string{"A", "B"}, graph)
	got := Reconstruct(res.Levels[2][0], relations, classifier, graph)
	require.Equal(t, "SELECT * FROM A\nJOIN B ON A.x = B.y\nWHERE A.z > 10;", got)
}

// S2: SELECT * FROM C, D, E WHERE C.a = D.b AND D.b = E.c; — closure on the
// matching column D.b puts C.a and E.c in one equivalence class, so {C,E}
// joins on C.a = E.c.
func TestReconstructS2DerivedEdgeForCE(t *testing.T) {
	relations := map[string]parse.Relation{
		"C": {Alias: "C", Base: "C"},
		"D": {Alias: "D", Base: "D"},
		"E": {Alias: "E", Base: "E"},
	}
	graph := analyzer.Build([]string{"C", "D", "E"}, []parse.JoinEdge{
		{LeftAlias: "C", LeftColumn: "a", RightAlias: "D", RightColumn: "b"},
		{LeftAlias: "D", LeftColumn: "b", RightAlias: "E", RightColumn: "c"},
	}, nil)

	res := Enumerate([]string{"C", "D", "E"}, graph)
	require.Equal(t, 7, len(res.Levels[1])+len(res.Levels[2])+len(res.Levels[3]))

	var ce *Subset
	for _, s := range res.Levels[2] {
		if s.Key == "C|||E" {
			ce = s
		}
	}
	require.NotNil(t, ce)
	got := Reconstruct(ce, relations, nil, graph)
	require.Equal(t, "SELECT * FROM C\nJOIN E ON C.a = E.c;", got)
}

// S3: SELECT * FROM A, B, C WHERE A.x = B.y AND B.z = C.w; — different
// columns on B, so no transitive edge and {A,C} is never emitted.
func TestReconstructS3NoTransitiveAcrossDifferentColumns(t *testing.T) {
	graph := analyzer.Build([]string{"A", "B", "C"}, []parse.JoinEdge{
		{LeftAlias: "A", LeftColumn: "x", RightAlias: "B", RightColumn: "y"},
		{LeftAlias: "B", LeftColumn: "z", RightAlias: "C", RightColumn: "w"},
	}, nil)

	res := Enumerate([]string{"A", "B", "C"}, graph)
	require.Equal(t, 3, len(res.Levels[1]))
	require.Equal(t, 2, len(res.Levels[2]))
	require.Equal(t, 1, len(res.Levels[3]))

	full := res.Levels[3][0]
	require.Equal(t, "A", full.Left.Key)
	require.Equal(t, "B|||C", full.Right.Key)
}

// S4: constant-equality join, SELECT * FROM X, Y WHERE X.k = 'p' AND Y.k = 'p';
func TestReconstructS4ConstantEquality(t *testing.T) {
	relations := map[string]parse.Relation{
		"X": {Alias: "X", Base: "X"},
		"Y": {Alias: "Y", Base: "Y"},
	}
	classifier := expression.NewClassifier([]expression.ConjunctInput{
		{Text: "X.k = 'p'", Aliases: []string{"X"}},
		{Text: "Y.k = 'p'", Aliases: []string{"Y"}},
	})
	graph := analyzer.Build([]string{"X", "Y"}, nil, classifier)
	require.Len(t, graph.DerivedEdges, 1)

	res := Enumerate([]string{"X", "Y"}, graph)
	got := Reconstruct(res.Levels[2][0], relations, classifier, graph)
	require.Equal(t, "SELECT * FROM X\nJOIN Y ON X.k = Y.k\nWHERE X.k = 'p'\n  AND Y.k = 'p';", got)
}

// S5: SELECT * FROM A with no WHERE at all.
func TestReconstructS5NoWhere(t *testing.T) {
	relations := map[string]parse.Relation{"A": {Alias: "A", Base: "A"}}
	s := &Subset{Aliases: []string{"A"}, Key: "A", Level: 1}
	require.Equal(t, "SELECT * FROM A;", Reconstruct(s, relations, nil, nil))
}

// S6: two aliases of the same base relation are distinct aliases.
func TestReconstructS6SameBaseTableTwoAliases(t *testing.T) {
	relations := map[string]parse.Relation{
		"t1": {Alias: "t1", Base: "title"},
		"t2": {Alias: "t2", Base: "title"},
	}
	graph := analyzer.Build([]string{"t1", "t2"}, []parse.JoinEdge{
		{LeftAlias: "t1", LeftColumn: "id", RightAlias: "t2", RightColumn: "id"},
	}, nil)
	res := Enumerate([]string{"t1", "t2"}, graph)
	require.Equal(t, 3, len(res.Levels[1])+len(res.Levels[2]))

	got := Reconstruct(res.Levels[2][0], relations, nil, graph)
	require.Equal(t, "SELECT * FROM title t1\nJOIN title t2 ON t1.id = t2.id;", got)
}

func TestReconstructThreeWayJoinChain(t *testing.T) {
	relations := map[string]parse.Relation{
		"A": {Alias: "A", Base: "A"},
		"B": {Alias: "B", Base: "B"},
		"C": {Alias: "C", Base: "C"},
	}
	graph := analyzer.Build([]string{"A", "B", "C"}, []parse.JoinEdge{
		{LeftAlias: "A", LeftColumn: "x", RightAlias: "B", RightColumn: "x"},
		{LeftAlias: "B", LeftColumn: "y", RightAlias: "C", RightColumn: "y"},
	}, nil)

	res := Enumerate([]string{"A", "B", "C"}, graph)
	got := Reconstruct(res.Levels[3][0], relations, nil, graph)
	require.Equal(t, "SELECT * FROM A\nJOIN B ON A.x = B.x\nJOIN C ON B.y = C.y;", got)
}
