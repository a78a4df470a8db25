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

// Package diag holds the non-fatal error taxonomy shared by every stage of
// the pipeline. Nothing in this package ever aborts a query: callers record a
// Diagnostic and keep going, exactly as spec'd for the core ("the core never
// raises").
package diag

import (
	"fmt"

	errors "gopkg.in/src-d/go-errors.v1"
)

// Category names one of the five failure modes the core distinguishes.
type Category string

const (
	InputShape          Category = "InputShape"
	PredicateShape       Category = "PredicateShape"
	UnsupportedConstruct Category = "UnsupportedConstruct"
	ClosureFuel          Category = "ClosureFuel"
	Internal             Category = "Internal"
)

var (
	// ErrInputShape is returned (never panicked) when a query has no FROM
	// clause or no relation could be extracted from it.
	ErrInputShape = errors.NewKind("input shape: %s")

	// ErrPredicateShape names a WHERE clause with unbalanced quotes or
	// parentheses. No stage returns it: such a query fails to parse as a
	// whole, parse.Parse returns ErrNoFromClause, and no partial result is
	// produced.
	ErrPredicateShape = errors.NewKind("predicate shape: %s")
)

// Diagnostic is a single non-fatal observation surfaced alongside a Result.
// It never changes control flow; it's informative only.
type Diagnostic struct {
	Category Category
	Message  string
	// Detail carries the offending predicate/edge/subset text, when there
	// is one, so a caller reasoning about a Diagnostic doesn't have to
	// re-derive it from the query text.
	Detail string
}

func (d Diagnostic) String() string {
	if d.Detail == "" {
		return fmt.Sprintf("[%s] %s", d.Category, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Category, d.Message, d.Detail)
}

// New builds a Diagnostic. It's a plain constructor, not an error: nothing
// in this package's callers treats a Diagnostic as something to propagate
// via `error`.
func New(cat Category, message, detail string) Diagnostic {
	return Diagnostic{Category: cat, Message: message, Detail: detail}
}
