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

package catalog

import (
	"iter"
	"strconv"

	ferrors "flymem/internal/errors"
	"flymem/internal/expr"
	"flymem/internal/storage"
	"flymem/internal/types"
)

// ColumnDef describes a column of a table to declare.
type ColumnDef struct {
	Name    string
	Type    types.Type
	NotNull bool
	Default expr.Expr
	// Serial creates an owned sequence supplying the default.
	Serial bool
}

// TableDef describes a table to declare.
type TableDef struct {
	Name       string
	Columns    []ColumnDef
	PrimaryKey []string
	Unique     [][]string
}

// Column is a column of a declared table.
type Column struct {
	Name    string
	Type    types.Type
	NotNull bool
	Default expr.Expr
}

// Table is a declared table. The object holds the definition only; rows
// live in the transaction under "rows:<id>" as a copy-on-write B-tree keyed
// by row id, so a scan yields rows in insertion order.
type Table struct {
	id        uint64
	name      string
	columns   []Column
	indexes   []*Index
	sequences []*Sequence
	degree    int
}

// Name implements Object.
func (t *Table) Name() string { return t.name }

// Kind implements Object.
func (t *Table) Kind() ObjectKind { return KindTable }

// Columns returns the column definitions in declaration order.
func (t *Table) Columns() []Column { return t.columns }

// Indexes returns the indexes of the table, primary key first.
func (t *Table) Indexes() []*Index { return t.indexes }

// Sequences returns the sequences owned by columns of the table.
func (t *Table) Sequences() []*Sequence { return t.sequences }

// PrimaryKey returns the primary key index, or nil.
func (t *Table) PrimaryKey() *Index {
	for _, ix := range t.indexes {
		if ix.primary {
			return ix
		}
	}
	return nil
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Schema returns the row schema qualified by the table name.
func (t *Table) Schema() expr.Schema {
	out := make(expr.Schema, len(t.columns))
	for i, c := range t.columns {
		out[i] = expr.Column{Table: t.name, Name: c.Name, Type: c.Type}
	}
	return out
}

func (t *Table) rowsKey() string  { return "rows:" + strconv.FormatUint(t.id, 10) }
func (t *Table) rowIDKey() string { return "rowid:" + strconv.FormatUint(t.id, 10) }

type rowTree = storage.BTree[int64, []types.Value]

func compareRowID(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (t *Table) newRows() *rowTree {
	return storage.NewBTree[int64, []types.Value](t.degree, compareRowID)
}

func cloneRows(r *rowTree) *rowTree { return r.Clone() }

func (t *Table) rows(tx *storage.Transaction) *rowTree {
	if r, ok := storage.Lookup[*rowTree](tx, t.rowsKey()); ok {
		return r
	}
	return t.newRows()
}

func (t *Table) mutableRows(tx *storage.Transaction) *rowTree {
	return storage.Mutate(tx, t.rowsKey(), cloneRows, t.newRows)
}

// Rows yields the rows visible in tx in row id order. The sequence reads a
// snapshot taken when Rows is called, so writes during iteration are not
// observed.
func (t *Table) Rows(tx *storage.Transaction) iter.Seq[*expr.Row] {
	snapshot := t.rows(tx).Clone()
	return func(yield func(*expr.Row) bool) {
		for id, values := range snapshot.All() {
			if !yield(&expr.Row{ID: id, Values: values}) {
				return
			}
		}
	}
}

// Get returns the row with the given id.
func (t *Table) Get(tx *storage.Transaction, rowID int64) (*expr.Row, bool) {
	values, ok := t.rows(tx).Get(rowID)
	if !ok {
		return nil, false
	}
	return &expr.Row{ID: rowID, Values: values}, true
}

// RowCount returns the number of rows visible in tx.
func (t *Table) RowCount(tx *storage.Transaction) int {
	return t.rows(tx).Len()
}

func (t *Table) checkNotNull(values []types.Value) error {
	for i, c := range t.columns {
		if c.NotNull && values[i].IsNull() {
			return ferrors.NotNullViolation(c.Name, t.name)
		}
	}
	return nil
}

func (t *Table) checkUnique(tx *storage.Transaction, row *expr.Row) error {
	for _, ix := range t.indexes {
		if err := ix.checkUnique(tx, row); err != nil {
			return err
		}
	}
	return nil
}

// Insert stores a new row. values must hold one value per column, already
// converted to the column types. Every constraint is checked before
// anything is written.
func (t *Table) Insert(tx *storage.Transaction, values []types.Value) (*expr.Row, error) {
	if len(values) != len(t.columns) {
		return nil, ferrors.Internal("row width does not match table " + t.name)
	}
	if err := t.checkNotNull(values); err != nil {
		return nil, err
	}
	last, _ := storage.Lookup[int64](tx, t.rowIDKey())
	row := &expr.Row{ID: last + 1, Values: values}
	if err := t.checkUnique(tx, row); err != nil {
		return nil, err
	}
	tx.Set(t.rowIDKey(), row.ID)
	t.mutableRows(tx).Set(row.ID, values)
	for _, ix := range t.indexes {
		ix.insert(tx, row)
	}
	return row, nil
}

// Update replaces the values of an existing row, keeping its id.
func (t *Table) Update(tx *storage.Transaction, old *expr.Row, values []types.Value) (*expr.Row, error) {
	if err := t.checkNotNull(values); err != nil {
		return nil, err
	}
	row := &expr.Row{ID: old.ID, Values: values}
	if err := t.checkUnique(tx, row); err != nil {
		return nil, err
	}
	for _, ix := range t.indexes {
		ix.remove(tx, old)
		ix.insert(tx, row)
	}
	t.mutableRows(tx).Set(row.ID, values)
	return row, nil
}

// Delete removes a row and its index entries.
func (t *Table) Delete(tx *storage.Transaction, row *expr.Row) {
	for _, ix := range t.indexes {
		ix.remove(tx, row)
	}
	t.mutableRows(tx).Delete(row.ID)
}
