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

// Package subqgen turns a single inner-join SQL query into every connected
// sub-query over its aliases, the training-data generator the rest of this
// module's packages implement in pieces: sql/parse is the analyzer front
// end, sql/expression classifies predicates, sql/analyzer builds the join
// graph, and sql/plan enumerates and reconstructs sub-queries.
package subqgen

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"

	"github.com/subqgen/subqgen/internal/diag"
	"github.com/subqgen/subqgen/sql/analyzer"
	"github.com/subqgen/subqgen/sql/expression"
	"github.com/subqgen/subqgen/sql/parse"
	"github.com/subqgen/subqgen/sql/plan"
)

// Subquery is one generated sub-query: the alias subset it covers, the
// reconstructed SQL text, and the enumeration level (alias count) it
// belongs to.
type Subquery struct {
	Aliases []string
	SQL     string
	Level   int
}

// Result is everything Analyze produces for one input query. Nothing in
// the core raises for a malformed or unsupported construct: such cases are
// recorded as Diagnostics and the rest of the pipeline keeps going on
// whatever did parse cleanly. Only an InputShape failure is returned as a Go
// error: no relation universe to work with (no FROM clause, unparseable
// statement), or more relations than Options.MaxAliases allows.
type Result struct {
	RunID       string
	Subqueries  []Subquery
	Diagnostics []diag.Diagnostic

	counts map[int]int
}

// Stats reports how many connected subsets were accepted at each
// enumeration level, mirroring the per-level counts the Python original
// tracked on its EnumerationResult.
func (r *Result) Stats() map[int]int {
	return r.counts
}

// Engine runs the sub-query generation pipeline with a fixed set of tunable
// Options. Engine holds no per-query mutable state, so independent Engine
// values may run concurrently; see RunMany for a batch helper built on that
// guarantee.
type Engine struct {
	opts   Options
	logger *logrus.Logger
}

// New builds an Engine from opts.
func New(opts Options) *Engine {
	logger := logrus.New()
	logger.SetLevel(opts.logrusLevel())
	return &Engine{opts: opts, logger: logger}
}

// Analyze runs the full pipeline over a single inner-join SQL query:
// parse -> classify -> build join graph -> enumerate connected subsets ->
// reconstruct SQL for each.
func (e *Engine) Analyze(ctx context.Context, query string) (*Result, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "subqgen.Analyze")
	defer span.Finish()

	runID := uuid.NewString()
	log := e.logger.WithField("run_id", runID)

	parseRes, err := e.parsePhase(ctx, query)
	if err != nil {
		log.WithError(err).Warn("query rejected at parse phase")
		return nil, err
	}

	if len(parseRes.Relations) > e.opts.MaxAliases {
		return nil, diag.ErrInputShape.New(fmt.Sprintf(
			"query has %d relations, exceeding the configured ceiling of %d",
			len(parseRes.Relations), e.opts.MaxAliases))
	}

	res := &Result{RunID: runID, counts: map[int]int{}}

	classifier := e.classifyPhase(ctx, parseRes)
	res.Diagnostics = append(res.Diagnostics, classifier.Diagnostics...)
	graph := e.graphPhase(ctx, parseRes, classifier)
	res.Diagnostics = append(res.Diagnostics, graph.Diagnostics...)

	aliases := make([]string, len(parseRes.Relations))
	for i, r := range parseRes.Relations {
		aliases[i] = r.Alias
	}

	enumRes := e.enumeratePhase(ctx, aliases, graph)
	res.Diagnostics = append(res.Diagnostics, enumRes.Diagnostics...)
	res.counts = enumRes.Counts

	e.reconstructPhase(ctx, res, enumRes, parseRes, classifier, graph)

	log.WithField("subqueries", len(res.Subqueries)).Debug("analyze complete")
	return res, nil
}

func (e *Engine) parsePhase(ctx context.Context, query string) (*parse.Result, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "subqgen.parse")
	defer span.Finish()
	return parse.Parse(query)
}

func (e *Engine) classifyPhase(ctx context.Context, parseRes *parse.Result) *expression.Classifier {
	span, _ := opentracing.StartSpanFromContext(ctx, "subqgen.classify")
	defer span.Finish()

	conjuncts := make([]expression.ConjunctInput, len(parseRes.WhereConjuncts))
	for i, c := range parseRes.WhereConjuncts {
		conjuncts[i] = expression.ConjunctInput{Text: c.Text, Aliases: c.Aliases, TopLevelOr: c.TopLevelOr}
	}
	return expression.NewClassifier(conjuncts)
}

func (e *Engine) graphPhase(ctx context.Context, parseRes *parse.Result, classifier *expression.Classifier) *analyzer.Graph {
	span, _ := opentracing.StartSpanFromContext(ctx, "subqgen.joingraph")
	defer span.Finish()

	aliases := make([]string, len(parseRes.Relations))
	for i, r := range parseRes.Relations {
		aliases[i] = r.Alias
	}
	return analyzer.Build(aliases, parseRes.JoinEdges, classifier)
}

func (e *Engine) enumeratePhase(ctx context.Context, aliases []string, graph *analyzer.Graph) *plan.EnumerationResult {
	span, _ := opentracing.StartSpanFromContext(ctx, "subqgen.enumerate")
	defer span.Finish()
	return plan.Enumerate(aliases, graph)
}

func (e *Engine) reconstructPhase(ctx context.Context, res *Result, enumRes *plan.EnumerationResult, parseRes *parse.Result, classifier *expression.Classifier, graph *analyzer.Graph) {
	span, _ := opentracing.StartSpanFromContext(ctx, "subqgen.reconstruct")
	defer span.Finish()

	relations := map[string]parse.Relation{}
	for _, r := range parseRes.Relations {
		relations[r.Alias] = r
	}

	levels := make([]int, 0, len(enumRes.Levels))
	for level := range enumRes.Levels {
		levels = append(levels, level)
	}
	sort.Ints(levels)

	for _, level := range levels {
		for _, s := range enumRes.Levels[level] {
			sql := plan.Reconstruct(s, relations, classifier, graph)
			res.Subqueries = append(res.Subqueries, Subquery{Aliases: s.Aliases, SQL: sql, Level: level})
		}
	}
}
