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
Index Implementation
====================

An index maps key tuples to row ids. Its entries live in a copy-on-write
B-tree stored in the transaction under "idx:<id>", so index maintenance
is versioned exactly like the row store it mirrors.

Key Ordering:
=============

Entries are ordered by the key columns using the ORDER BY comparator of
each column (direction and NULL placement included), then by row id. The
row id makes every entry distinct, so non-unique indexes need no value
lists.

Uniqueness:
===========

A unique index rejects a row whose key equals the key of another live row
in the transaction's view. Keys containing NULL never conflict. Deleting a
row removes its entry, so the key can be reused at once.
*/
package catalog

import (
	"iter"
	"strconv"
	"strings"

	ferrors "flymem/internal/errors"
	"flymem/internal/expr"
	"flymem/internal/storage"
	"flymem/internal/types"
)

// IndexColumn is one key column of an index.
type IndexColumn struct {
	Name string
	Sort types.SortKey
}

// IndexDef describes an index to create.
type IndexDef struct {
	Name    string
	Table   string
	Columns []IndexColumn
	Unique  bool
	Primary bool
}

// indexKey is an entry of the index tree. Probe keys may carry fewer values
// than the index has columns; bound places such a prefix before (-1) or
// after (+1) every entry sharing it.
type indexKey struct {
	values []types.Value
	rowID  int64
	bound  int8
}

// Index is an ordered key → row id structure over columns of one table.
type Index struct {
	id      uint64
	name    string
	table   string
	columns []int
	keys    []IndexColumn
	unique  bool
	primary bool
	// constraint marks indexes backing a PRIMARY KEY or UNIQUE constraint.
	constraint bool
	degree     int
}

// Name implements Object.
func (ix *Index) Name() string { return ix.name }

// Kind implements Object.
func (ix *Index) Kind() ObjectKind { return KindIndex }

// Table returns the name of the indexed table.
func (ix *Index) Table() string { return ix.table }

// Unique reports whether the index enforces uniqueness.
func (ix *Index) Unique() bool { return ix.unique }

// Primary reports whether this is the table's primary key index.
func (ix *Index) Primary() bool { return ix.primary }

// Constraint reports whether the index backs a table constraint.
func (ix *Index) Constraint() bool { return ix.constraint }

// Columns returns the positions of the key columns in the table row.
func (ix *Index) Columns() []int { return ix.columns }

// KeyColumns returns the key column definitions.
func (ix *Index) KeyColumns() []IndexColumn { return ix.keys }

func (ix *Index) key() string { return "idx:" + strconv.FormatUint(ix.id, 10) }

func (ix *Index) compare(a, b indexKey) int {
	n := min(len(a.values), len(b.values))
	for i := 0; i < n; i++ {
		if c := types.SortCompare(a.values[i], b.values[i], ix.keys[i].Sort); c != 0 {
			return c
		}
	}
	switch {
	case len(a.values) < len(b.values):
		return int(a.bound)
	case len(a.values) > len(b.values):
		return -int(b.bound)
	case a.bound != b.bound:
		return int(a.bound) - int(b.bound)
	case a.rowID < b.rowID:
		return -1
	case a.rowID > b.rowID:
		return 1
	}
	return 0
}

func (ix *Index) newTree() *storage.BTree[indexKey, struct{}] {
	return storage.NewBTree[indexKey, struct{}](ix.degree, ix.compare)
}

func cloneIndexTree(t *storage.BTree[indexKey, struct{}]) *storage.BTree[indexKey, struct{}] {
	return t.Clone()
}

// tree returns the index tree visible in tx for reading.
func (ix *Index) tree(tx *storage.Transaction) *storage.BTree[indexKey, struct{}] {
	if t, ok := storage.Lookup[*storage.BTree[indexKey, struct{}]](tx, ix.key()); ok {
		return t
	}
	return ix.newTree()
}

// mutableTree returns the index tree owned by tx.
func (ix *Index) mutableTree(tx *storage.Transaction) *storage.BTree[indexKey, struct{}] {
	return storage.Mutate(tx, ix.key(), cloneIndexTree, ix.newTree)
}

func (ix *Index) extract(row *expr.Row) []types.Value {
	out := make([]types.Value, len(ix.columns))
	for i, c := range ix.columns {
		out[i] = row.Values[c]
	}
	return out
}

func hasNull(values []types.Value) bool {
	for _, v := range values {
		if v.IsNull() {
			return true
		}
	}
	return false
}

// Len returns the number of entries visible in tx.
func (ix *Index) Len(tx *storage.Transaction) int {
	return ix.tree(tx).Len()
}

// conflict returns the row id of another live row in t whose key equals
// values.
func (ix *Index) conflict(t *storage.BTree[indexKey, struct{}], values []types.Value, self int64) (int64, bool) {
	if !ix.unique || hasNull(values) {
		return 0, false
	}
	for rowID := range ix.lookupIn(t, values) {
		if rowID != self {
			return rowID, true
		}
	}
	return 0, false
}

// checkUnique fails with a constraint error if row would duplicate a key.
func (ix *Index) checkUnique(tx *storage.Transaction, row *expr.Row) error {
	values := ix.extract(row)
	if _, dup := ix.conflict(ix.tree(tx), values, row.ID); dup {
		return ferrors.DuplicateKey(ix.name, formatKey(ix, values))
	}
	return nil
}

func (ix *Index) insert(tx *storage.Transaction, row *expr.Row) {
	ix.mutableTree(tx).Set(indexKey{values: ix.extract(row), rowID: row.ID}, struct{}{})
}

// build fills a new tree from rows, failing on the first duplicate key.
func (ix *Index) build(rows iter.Seq[*expr.Row]) (*storage.BTree[indexKey, struct{}], error) {
	t := ix.newTree()
	for row := range rows {
		values := ix.extract(row)
		if _, dup := ix.conflict(t, values, row.ID); dup {
			return nil, ferrors.DuplicateKey(ix.name, formatKey(ix, values)).
				WithHint("Could not create unique index because the table contains duplicated values")
		}
		t.Set(indexKey{values: values, rowID: row.ID}, struct{}{})
	}
	return t, nil
}

func (ix *Index) remove(tx *storage.Transaction, row *expr.Row) {
	ix.mutableTree(tx).Delete(indexKey{values: ix.extract(row), rowID: row.ID})
}

// Lookup yields the row ids whose leading key columns equal values. Fewer
// values than key columns match by prefix. A NULL probe matches nothing.
func (ix *Index) Lookup(tx *storage.Transaction, values []types.Value) iter.Seq[int64] {
	return ix.lookupIn(ix.tree(tx).Clone(), values)
}

func (ix *Index) lookupIn(t *storage.BTree[indexKey, struct{}], values []types.Value) iter.Seq[int64] {
	return func(yield func(int64) bool) {
		if hasNull(values) || len(values) > len(ix.keys) {
			return
		}
		probe := indexKey{values: values, bound: -1}
		for k := range t.From(probe) {
			if !prefixEqual(k.values, values) {
				return
			}
			if !yield(k.rowID) {
				return
			}
		}
	}
}

func prefixEqual(entry, prefix []types.Value) bool {
	for i, v := range prefix {
		if types.Equals(entry[i], v) != types.True {
			return false
		}
	}
	return true
}

// Bound is one end of a range over the leading key column.
type Bound struct {
	Value     types.Value
	Inclusive bool
}

// Range yields the row ids whose leading key value lies between lo and hi
// (either may be nil for an open end), in index order. NULL keys never
// match a range.
func (ix *Index) Range(tx *storage.Transaction, lo, hi *Bound) iter.Seq[int64] {
	t := ix.tree(tx).Clone()
	desc := ix.keys[0].Sort.Descending
	first, last := lo, hi
	if desc {
		first, last = hi, lo
	}
	return func(yield func(int64) bool) {
		if (lo != nil && lo.Value.IsNull()) || (hi != nil && hi.Value.IsNull()) {
			return
		}
		entries := t.All()
		if first != nil {
			probe := indexKey{values: []types.Value{first.Value}, bound: -1}
			if !first.Inclusive {
				probe.bound = 1
			}
			entries = t.From(probe)
		}
		for k := range entries {
			v := k.values[0]
			if v.IsNull() {
				// NULLs sit at one end of the order; skip past them.
				if ix.keys[0].Sort.NullsSortFirst() {
					continue
				}
				return
			}
			if last != nil && !withinLimit(v, last, desc) {
				return
			}
			if !yield(k.rowID) {
				return
			}
		}
	}
}

// withinLimit reports whether v has not passed the far end of a range.
func withinLimit(v types.Value, b *Bound, desc bool) bool {
	o := types.Compare(v, b.Value)
	if o == types.Equal {
		return b.Inclusive
	}
	if desc {
		return o == types.Greater
	}
	return o == types.Less
}

func formatKey(ix *Index, values []types.Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	names := make([]string, len(ix.keys))
	for i, k := range ix.keys {
		names[i] = k.Name
	}
	return "(" + strings.Join(names, ", ") + ")=(" + strings.Join(parts, ", ") + ")"
}
