/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package selection implements the lazy relational algebra SELECT statements
are executed with.

Selection Model:
================

A Selection is a schema plus a restartable enumeration. Operators wrap
their inputs and pull rows on demand through Go range-over-func
iterators:

	Limit
	  └── Project
	        └── OrderBy
	              └── Filter
	                    └── Join
	                          ├── Scan users u
	                          └── Scan orders o

Nothing is cached between calls to Enumerate: every enumeration reads the
transaction it is given. Only OrderBy materializes, and only for the
duration of one enumeration.

Errors:
=======

An evaluation error is yielded as (nil, err) and ends the enumeration.
Consumers stop at the first error.
*/
package selection

import (
	"iter"
	"slices"

	"flymem/internal/catalog"
	ferrors "flymem/internal/errors"
	"flymem/internal/expr"
	"flymem/internal/storage"
	"flymem/internal/types"
)

// Selection is a lazily evaluated relation.
type Selection interface {
	Schema() expr.Schema
	Enumerate(tx *storage.Transaction) iter.Seq2[*expr.Row, error]
}

// Collect drains a selection into a slice.
func Collect(tx *storage.Transaction, s Selection) ([]*expr.Row, error) {
	var rows []*expr.Row
	for row, err := range s.Enumerate(tx) {
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ============================================================================
// Scan
// ============================================================================

// RangeBound is one end of an index range constraint.
type RangeBound struct {
	Expr      expr.Expr
	Inclusive bool
}

// Scan reads the rows of a table. Without a constraint it visits every
// visible row; with one it reads row ids from an index. Either way rows are
// yielded in row id order.
type Scan struct {
	Table  *catalog.Table
	Alias  string
	schema expr.Schema

	index  *catalog.Index
	equal  []expr.Expr
	lo, hi *RangeBound
}

// NewScan creates a scan of table under alias (the table name when empty).
func NewScan(table *catalog.Table, alias string) *Scan {
	if alias == "" {
		alias = table.Name()
	}
	return &Scan{Table: table, Alias: alias, schema: table.Schema().Qualify(alias)}
}

// WithLookup constrains the scan to rows whose leading index columns equal
// values. The expressions must not reference columns.
func (s *Scan) WithLookup(ix *catalog.Index, values []expr.Expr) *Scan {
	s.index, s.equal, s.lo, s.hi = ix, values, nil, nil
	return s
}

// WithRange constrains the scan to rows whose leading index column lies
// between lo and hi. Either bound may be nil.
func (s *Scan) WithRange(ix *catalog.Index, lo, hi *RangeBound) *Scan {
	s.index, s.equal, s.lo, s.hi = ix, nil, lo, hi
	return s
}

// Constrained reports whether the scan reads through an index.
func (s *Scan) Constrained() bool { return s.index != nil }

func (s *Scan) Schema() expr.Schema { return s.schema }

func (s *Scan) Enumerate(tx *storage.Transaction) iter.Seq2[*expr.Row, error] {
	if s.index == nil {
		return func(yield func(*expr.Row, error) bool) {
			for row := range s.Table.Rows(tx) {
				if !yield(row, nil) {
					return
				}
			}
		}
	}
	return func(yield func(*expr.Row, error) bool) {
		ids, err := s.indexRowIDs(tx)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, id := range ids {
			row, ok := s.Table.Get(tx, id)
			if !ok {
				continue
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// keyValue evaluates a constant and converts it to the type of key column
// i. A value that cannot be converted matches nothing.
func (s *Scan) keyValue(tx *storage.Transaction, e expr.Expr, i int) (types.Value, bool, error) {
	v, err := e.Eval(tx, nil)
	if err != nil {
		return types.Value{}, false, err
	}
	col := s.Table.Columns()[s.index.Columns()[i]]
	if v.IsNull() {
		return v, false, nil
	}
	cv, err := types.Convert(v, col.Type)
	if err != nil {
		return types.Value{}, false, nil
	}
	return cv, true, nil
}

func (s *Scan) indexRowIDs(tx *storage.Transaction) ([]int64, error) {
	var ids []int64
	if s.equal != nil {
		values := make([]types.Value, len(s.equal))
		for i, e := range s.equal {
			v, ok, err := s.keyValue(tx, e, i)
			if err != nil || !ok {
				return nil, err
			}
			values[i] = v
		}
		ids = slices.Collect(s.index.Lookup(tx, values))
	} else {
		var lo, hi *catalog.Bound
		for _, b := range []struct {
			in  *RangeBound
			out **catalog.Bound
		}{{s.lo, &lo}, {s.hi, &hi}} {
			if b.in == nil {
				continue
			}
			v, ok, err := s.keyValue(tx, b.in.Expr, 0)
			if err != nil || !ok {
				return nil, err
			}
			*b.out = &catalog.Bound{Value: v, Inclusive: b.in.Inclusive}
		}
		ids = slices.Collect(s.index.Range(tx, lo, hi))
	}
	slices.Sort(ids)
	return ids, nil
}

// ============================================================================
// Values
// ============================================================================

// Values is a constant row source: SELECT without FROM, and the VALUES
// list of INSERT.
type Values struct {
	schema expr.Schema
	Rows   [][]expr.Expr
}

// NewValues creates a row source. Every row must match the schema width.
func NewValues(schema expr.Schema, rows [][]expr.Expr) (*Values, error) {
	for _, r := range rows {
		if len(r) != len(schema) {
			return nil, ferrors.NewQueryError("VALUES lists must all be the same length")
		}
	}
	return &Values{schema: schema, Rows: rows}, nil
}

// Single returns the one-row, zero-column source SELECT without FROM
// projects from.
func Single() *Values {
	return &Values{Rows: [][]expr.Expr{{}}}
}

func (v *Values) Schema() expr.Schema { return v.schema }

func (v *Values) Enumerate(tx *storage.Transaction) iter.Seq2[*expr.Row, error] {
	return func(yield func(*expr.Row, error) bool) {
		for _, exprs := range v.Rows {
			values := make([]types.Value, len(exprs))
			for i, e := range exprs {
				val, err := e.Eval(tx, nil)
				if err != nil {
					yield(nil, err)
					return
				}
				values[i] = val
			}
			if !yield(expr.NewRow(values), nil) {
				return
			}
		}
	}
}

// ============================================================================
// Filter
// ============================================================================

// Filter yields the input rows for which the predicate is true. False and
// NULL both reject the row.
type Filter struct {
	Input     Selection
	Predicate expr.Expr
}

// NewFilter wraps input with a boolean predicate resolved against the
// input schema.
func NewFilter(input Selection, pred expr.Expr) (*Filter, error) {
	switch pred.Type().Kind() {
	case types.KindBool, types.KindNull:
	default:
		return nil, ferrors.NewQueryError("argument of WHERE must be type boolean, not type " + pred.Type().Name())
	}
	return &Filter{Input: input, Predicate: pred}, nil
}

func (f *Filter) Schema() expr.Schema { return f.Input.Schema() }

func (f *Filter) Enumerate(tx *storage.Transaction) iter.Seq2[*expr.Row, error] {
	return func(yield func(*expr.Row, error) bool) {
		for row, err := range f.Input.Enumerate(tx) {
			if err != nil {
				yield(nil, err)
				return
			}
			v, err := f.Predicate.Eval(tx, row)
			if err != nil {
				yield(nil, err)
				return
			}
			if expr.Truth(v) != types.True {
				continue
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// ============================================================================
// Project
// ============================================================================

// Project computes output columns from input rows. Its expressions are
// resolved against the input schema.
type Project struct {
	Input  Selection
	Exprs  []expr.Expr
	schema expr.Schema
}

// NewProject creates a projection. names gives the output column names;
// an empty name falls back to expr.OutputName.
func NewProject(input Selection, exprs []expr.Expr, names []string) *Project {
	schema := make(expr.Schema, len(exprs))
	for i, e := range exprs {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		col := expr.Column{Name: name, Type: e.Type()}
		if ref, ok := e.(*expr.ColumnRef); ok {
			col.Table = ref.Column.Table
		}
		if col.Name == "" {
			col.Name = expr.OutputName(e)
		}
		schema[i] = col
	}
	return &Project{Input: input, Exprs: exprs, schema: schema}
}

func (p *Project) Schema() expr.Schema { return p.schema }

func (p *Project) Enumerate(tx *storage.Transaction) iter.Seq2[*expr.Row, error] {
	return func(yield func(*expr.Row, error) bool) {
		for row, err := range p.Input.Enumerate(tx) {
			if err != nil {
				yield(nil, err)
				return
			}
			values := make([]types.Value, len(p.Exprs))
			for i, e := range p.Exprs {
				v, err := e.Eval(tx, row)
				if err != nil {
					yield(nil, err)
					return
				}
				values[i] = v
			}
			if !yield(expr.NewRow(values), nil) {
				return
			}
		}
	}
}
