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

	"golang.org/x/sync/errgroup"
)

// RunMany runs Analyze over every query independently, one Engine per
// query, in parallel. Each Engine instance is stateless data plus a
// logger, so running several at once is safe the way running several
// independent Engine values is safe; this never parallelizes work within a
// single query's pipeline.
//
// The returned slice is positional: results[i] corresponds to queries[i],
// and is nil if that query returned an error. RunMany itself returns the
// first error encountered, after every query has finished running.
func RunMany(ctx context.Context, queries []string, opts Options) ([]*Result, error) {
	results := make([]*Result, len(queries))

	g, ctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			res, err := New(opts).Analyze(ctx, q)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
