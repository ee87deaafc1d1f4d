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

package executor

import (
	"flymem/internal/catalog"
	ferrors "flymem/internal/errors"
	"flymem/internal/expr"
	"flymem/internal/selection"
	"flymem/internal/sql"
	"flymem/internal/storage"
	"flymem/internal/types"
)

// ============================================================================
// INSERT
// ============================================================================

type insert struct {
	table *catalog.Table
	// targets[i] is the table column filled from source column i.
	targets []int
	source  selection.Selection
}

func planInsert(schema *catalog.Schema, s *sql.InsertStmt) (Executor, error) {
	t, err := schema.GetTable(s.TableName)
	if err != nil {
		return nil, err
	}
	columns := t.Columns()

	var targets []int
	if len(s.Columns) == 0 {
		targets = make([]int, len(columns))
		for i := range columns {
			targets[i] = i
		}
	} else {
		seen := make(map[int]bool, len(s.Columns))
		for _, name := range s.Columns {
			pos := t.ColumnIndex(name)
			if pos < 0 {
				return nil, ferrors.ColumnNotFound(name).WithDetail("column of relation " + t.Name())
			}
			if seen[pos] {
				return nil, ferrors.NewQueryError("column \"" + name + "\" specified more than once")
			}
			seen[pos] = true
			targets = append(targets, pos)
		}
	}

	target := make(expr.Schema, len(targets))
	for i, pos := range targets {
		target[i] = expr.Column{Name: columns[pos].Name, Type: columns[pos].Type}
	}

	var source selection.Selection
	if s.Select != nil {
		q, err := planQuery(schema, s.Select)
		if err != nil {
			return nil, err
		}
		in := q.Schema()
		if len(in) != len(targets) {
			return nil, ferrors.ValueCountMismatch(len(targets), len(in))
		}
		converters := make([]expr.Expr, len(in))
		for i, c := range in {
			conv, err := expr.Assign(&expr.ColumnRef{Index: i, Column: c}, target[i].Type)
			if err != nil {
				return nil, err
			}
			converters[i] = conv
		}
		source = selection.NewProject(q, converters, target.Names())
	} else {
		b := newBinder(schema, nil)
		rows := make([][]expr.Expr, len(s.Values))
		for r, values := range s.Values {
			if len(values) != len(targets) {
				return nil, ferrors.ValueCountMismatch(len(targets), len(values))
			}
			row := make([]expr.Expr, len(values))
			for i, v := range values {
				e, err := b.bind(v)
				if err != nil {
					return nil, err
				}
				if row[i], err = expr.Assign(e, target[i].Type); err != nil {
					return nil, err
				}
			}
			rows[r] = row
		}
		if source, err = selection.NewValues(target, rows); err != nil {
			return nil, err
		}
	}
	return &insert{table: t, targets: targets, source: source}, nil
}

func (in *insert) Command() string { return CmdInsert }

func (in *insert) Execute(tx *storage.Transaction) (*Result, error) {
	// Drain the source before writing so INSERT ... SELECT from the same
	// table sees only the rows that existed before the statement.
	rows, err := selection.Collect(tx, in.source)
	if err != nil {
		return nil, err
	}
	columns := in.table.Columns()
	for _, row := range rows {
		values := make([]types.Value, len(columns))
		filled := make([]bool, len(columns))
		for i, pos := range in.targets {
			values[pos] = row.Values[i]
			filled[pos] = true
		}
		for pos, col := range columns {
			if filled[pos] {
				continue
			}
			if col.Default == nil {
				values[pos] = types.NullOf(col.Type)
				continue
			}
			if values[pos], err = col.Default.Eval(tx, nil); err != nil {
				return nil, err
			}
		}
		if _, err := in.table.Insert(tx, values); err != nil {
			return nil, err
		}
	}
	return &Result{Command: CmdInsert, RowCount: int64(len(rows)), Tx: tx}, nil
}

// ============================================================================
// UPDATE / DELETE
// ============================================================================

// planTarget builds the row source of UPDATE and DELETE: a scan of the
// table filtered by the WHERE clause.
func planTarget(schema *catalog.Schema, name, alias string, where sql.Expr) (*catalog.Table, selection.Selection, error) {
	t, err := schema.GetTable(name)
	if err != nil {
		return nil, nil, err
	}
	scan := selection.NewScan(t, alias)
	if where == nil {
		return t, scan, nil
	}
	pred, err := newBinder(schema, scan.Schema()).bind(where)
	if err != nil {
		return nil, nil, err
	}
	constrainScan(scan, pred)
	filter, err := selection.NewFilter(scan, pred)
	if err != nil {
		return nil, nil, err
	}
	return t, filter, nil
}

type assignment struct {
	column int
	value  expr.Expr
}

type update struct {
	table  *catalog.Table
	source selection.Selection
	set    []assignment
}

func planUpdate(schema *catalog.Schema, s *sql.UpdateStmt) (Executor, error) {
	t, source, err := planTarget(schema, s.TableName, s.Alias, s.Where)
	if err != nil {
		return nil, err
	}
	b := newBinder(schema, source.Schema())
	columns := t.Columns()
	seen := make(map[int]bool, len(s.Set))
	set := make([]assignment, 0, len(s.Set))
	for _, a := range s.Set {
		pos := t.ColumnIndex(a.Column)
		if pos < 0 {
			return nil, ferrors.ColumnNotFound(a.Column).WithDetail("column of relation " + t.Name())
		}
		if seen[pos] {
			return nil, ferrors.NewQueryError("multiple assignments to same column \"" + a.Column + "\"")
		}
		seen[pos] = true
		e, err := b.bind(a.Value)
		if err != nil {
			return nil, err
		}
		if e, err = expr.Assign(e, columns[pos].Type); err != nil {
			return nil, err
		}
		set = append(set, assignment{column: pos, value: e})
	}
	return &update{table: t, source: source, set: set}, nil
}

func (u *update) Command() string { return CmdUpdate }

func (u *update) Execute(tx *storage.Transaction) (*Result, error) {
	rows, err := selection.Collect(tx, u.source)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		values := append([]types.Value(nil), row.Values...)
		// Every assignment sees the old row.
		for _, a := range u.set {
			if values[a.column], err = a.value.Eval(tx, row); err != nil {
				return nil, err
			}
		}
		if _, err := u.table.Update(tx, row, values); err != nil {
			return nil, err
		}
	}
	return &Result{Command: CmdUpdate, RowCount: int64(len(rows)), Tx: tx}, nil
}

type deleteRows struct {
	table  *catalog.Table
	source selection.Selection
}

func planDelete(schema *catalog.Schema, s *sql.DeleteStmt) (Executor, error) {
	t, source, err := planTarget(schema, s.TableName, s.Alias, s.Where)
	if err != nil {
		return nil, err
	}
	return &deleteRows{table: t, source: source}, nil
}

func (d *deleteRows) Command() string { return CmdDelete }

func (d *deleteRows) Execute(tx *storage.Transaction) (*Result, error) {
	rows, err := selection.Collect(tx, d.source)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		d.table.Delete(tx, row)
	}
	return &Result{Command: CmdDelete, RowCount: int64(len(rows)), Tx: tx}, nil
}
