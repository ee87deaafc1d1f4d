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

package selection

import (
	"iter"
	"slices"

	ferrors "flymem/internal/errors"
	"flymem/internal/expr"
	"flymem/internal/storage"
	"flymem/internal/types"
)

// OrderKey is one ORDER BY item.
type OrderKey struct {
	Expr expr.Expr
	Sort types.SortKey
}

// OrderBy sorts its input. Keys are compared left to right; the first
// non-equal key decides and ties keep input order.
type OrderBy struct {
	Input Selection
	Keys  []OrderKey
}

// NewOrderBy creates a sort over input.
func NewOrderBy(input Selection, keys []OrderKey) *OrderBy {
	return &OrderBy{Input: input, Keys: keys}
}

func (o *OrderBy) Schema() expr.Schema { return o.Input.Schema() }

type sortEntry struct {
	row  *expr.Row
	keys []types.Value
}

func (o *OrderBy) Enumerate(tx *storage.Transaction) iter.Seq2[*expr.Row, error] {
	return func(yield func(*expr.Row, error) bool) {
		var entries []sortEntry
		for row, err := range o.Input.Enumerate(tx) {
			if err != nil {
				yield(nil, err)
				return
			}
			keys := make([]types.Value, len(o.Keys))
			for i, k := range o.Keys {
				v, err := k.Expr.Eval(tx, row)
				if err != nil {
					yield(nil, err)
					return
				}
				keys[i] = v
			}
			entries = append(entries, sortEntry{row: row, keys: keys})
		}
		slices.SortStableFunc(entries, func(a, b sortEntry) int {
			for i, k := range o.Keys {
				if c := types.SortCompare(a.keys[i], b.keys[i], k.Sort); c != 0 {
					return c
				}
			}
			return 0
		})
		for _, e := range entries {
			if !yield(e.row, nil) {
				return
			}
		}
	}
}

// Distinct yields the first occurrence of each distinct row. NULLs are
// not distinct from each other.
type Distinct struct {
	Input Selection
}

// NewDistinct removes duplicate rows from input.
func NewDistinct(input Selection) *Distinct {
	return &Distinct{Input: input}
}

func (d *Distinct) Schema() expr.Schema { return d.Input.Schema() }

func (d *Distinct) Enumerate(tx *storage.Transaction) iter.Seq2[*expr.Row, error] {
	return func(yield func(*expr.Row, error) bool) {
		seen := make(map[string]struct{})
		for row, err := range d.Input.Enumerate(tx) {
			if err != nil {
				yield(nil, err)
				return
			}
			key := row.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// Limit skips Offset rows and then yields at most Count rows. A negative
// Count means no limit.
type Limit struct {
	Input  Selection
	Count  int64
	Offset int64
}

// NewLimit validates LIMIT and OFFSET values.
func NewLimit(input Selection, count, offset int64) (*Limit, error) {
	if offset < 0 {
		return nil, ferrors.NewQueryError("OFFSET must not be negative")
	}
	return &Limit{Input: input, Count: count, Offset: offset}, nil
}

func (l *Limit) Schema() expr.Schema { return l.Input.Schema() }

func (l *Limit) Enumerate(tx *storage.Transaction) iter.Seq2[*expr.Row, error] {
	return func(yield func(*expr.Row, error) bool) {
		if l.Count == 0 {
			return
		}
		var skipped, emitted int64
		for row, err := range l.Input.Enumerate(tx) {
			if err != nil {
				yield(nil, err)
				return
			}
			if skipped < l.Offset {
				skipped++
				continue
			}
			if !yield(row, nil) {
				return
			}
			emitted++
			if l.Count > 0 && emitted >= l.Count {
				return
			}
		}
	}
}
