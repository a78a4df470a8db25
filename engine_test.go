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

package subqgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func sqlFor(t *testing.T, res *Result, key string) string {
	t.Helper()
	for _, sq := range res.Subqueries {
		if canonicalKey(sq.Aliases) == key {
			return sq.SQL
		}
	}
	t.Fatalf("no subquery for key %q among %d subqueries", key, len(res.Subqueries))
	return ""
}

func canonicalKey(aliases []string) string {
	if len(aliases) == 1 {
		return aliases[0]
	}
	// only used by tests with two aliases; sort to match the enumerator's
	// canonical key convention.
	if aliases[0] > aliases[1] {
		aliases[0], aliases[1] = aliases[1], aliases[0]
	}
	return aliases[0] + "|||" + aliases[1]
}

func TestAnalyzeS1TwoTableJoinWithSelection(t *testing.T) {
	eng := New(DefaultOptions())
	res, err := eng.Analyze(context.Background(), "SELECT * FROM A, B WHERE A.x = B.y AND A.z > 10")
	require.NoError(t, err)
	require.Len(t, res.Subqueries, 3)
	require.NotEmpty(t, res.RunID)

	got := sqlFor(t, res, "A|||B")
	require.Equal(t, "SELECT * FROM A\nJOIN B ON A.x = B.y\nWHERE A.z > 10;", got)
}

func TestAnalyzeS5SingletonNoWhere(t *testing.T) {
	eng := New(DefaultOptions())
	res, err := eng.Analyze(context.Background(), "SELECT * FROM A")
	require.NoError(t, err)
	require.Len(t, res.Subqueries, 1)
	require.Equal(t, "SELECT * FROM A;", res.Subqueries[0].SQL)
}

func TestAnalyzeS6SameBaseTableTwoAliases(t *testing.T) {
	eng := New(DefaultOptions())
	res, err := eng.Analyze(context.Background(), "SELECT * FROM title t1, title t2 WHERE t1.id = t2.id")
	require.NoError(t, err)
	require.Len(t, res.Subqueries, 3)

	got := sqlFor(t, res, "t1|||t2")
	require.Equal(t, "SELECT * FROM title t1\nJOIN title t2 ON t1.id = t2.id;", got)
}

func TestAnalyzeNoFromClauseReturnsError(t *testing.T) {
	eng := New(DefaultOptions())
	_, err := eng.Analyze(context.Background(), "SELECT 1")
	require.Error(t, err)
}

func TestAnalyzeStatsMatchesPerLevelCounts(t *testing.T) {
	eng := New(DefaultOptions())
	res, err := eng.Analyze(context.Background(), "SELECT * FROM A, B WHERE A.x = B.y")
	require.NoError(t, err)
	stats := res.Stats()
	require.Equal(t, 2, stats[1])
	require.Equal(t, 1, stats[2])
}

func TestAnalyzeExceedsMaxAliasesIsRejected(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxAliases = 1
	eng := New(opts)
	_, err := eng.Analyze(context.Background(), "SELECT * FROM A, B WHERE A.x = B.y")
	require.Error(t, err)
}
