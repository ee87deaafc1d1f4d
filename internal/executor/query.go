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
	"strconv"

	"flymem/internal/catalog"
	ferrors "flymem/internal/errors"
	"flymem/internal/expr"
	"flymem/internal/selection"
	"flymem/internal/sql"
	"flymem/internal/storage"
	"flymem/internal/types"
)

var joinKinds = map[sql.JoinKind]selection.JoinKind{
	sql.JoinInner: selection.JoinInner,
	sql.JoinLeft:  selection.JoinLeft,
	sql.JoinRight: selection.JoinRight,
	sql.JoinCross: selection.JoinCross,
}

type selectQuery struct {
	sel selection.Selection
}

func planSelect(schema *catalog.Schema, s *sql.SelectStmt) (Executor, error) {
	sel, err := planQuery(schema, s)
	if err != nil {
		return nil, err
	}
	return &selectQuery{sel: sel}, nil
}

func (q *selectQuery) Command() string { return CmdSelect }

func (q *selectQuery) Execute(tx *storage.Transaction) (*Result, error) {
	rows, err := selection.Collect(tx, q.sel)
	if err != nil {
		return nil, err
	}
	return &Result{
		Command:  CmdSelect,
		RowCount: int64(len(rows)),
		Columns:  q.sel.Schema(),
		Rows:     rows,
		Tx:       tx,
	}, nil
}

// planQuery builds the selection tree of a SELECT:
//
//	source ─▶ Filter ─▶ OrderBy ─▶ Project ─▶ Limit
//	source ─▶ Filter ─▶ Project ─▶ Distinct ─▶ OrderBy ─▶ Limit
//
// The second shape is used for SELECT DISTINCT, whose sort keys must be
// output columns.
func planQuery(schema *catalog.Schema, s *sql.SelectStmt) (selection.Selection, error) {
	src, scan, err := planSource(schema, s)
	if err != nil {
		return nil, err
	}
	in := src.Schema()
	b := newBinder(schema, in)

	if s.Where != nil {
		pred, err := b.bind(s.Where)
		if err != nil {
			return nil, err
		}
		if scan != nil {
			constrainScan(scan, pred)
		}
		if src, err = selection.NewFilter(src, pred); err != nil {
			return nil, err
		}
	}

	exprs, names, err := planProjection(b, s)
	if err != nil {
		return nil, err
	}

	var sel selection.Selection
	if s.Distinct {
		project := selection.NewProject(src, exprs, names)
		sel = selection.NewDistinct(project)
		if len(s.OrderBy) > 0 {
			keys, err := distinctOrderKeys(b, project, s.OrderBy)
			if err != nil {
				return nil, err
			}
			sel = selection.NewOrderBy(sel, keys)
		}
	} else {
		if len(s.OrderBy) > 0 {
			keys, err := orderKeys(b, exprs, names, s.OrderBy)
			if err != nil {
				return nil, err
			}
			src = selection.NewOrderBy(src, keys)
		}
		sel = selection.NewProject(src, exprs, names)
	}

	if s.Limit != nil || s.Offset != nil {
		count, offset := int64(-1), int64(0)
		if s.Limit != nil {
			count = *s.Limit
		}
		if s.Offset != nil {
			offset = *s.Offset
		}
		if sel, err = selection.NewLimit(sel, count, offset); err != nil {
			return nil, err
		}
	}
	return sel, nil
}

// planSource builds the FROM clause. scan is returned when the source is a
// single table, so that WHERE may constrain it through an index.
func planSource(schema *catalog.Schema, s *sql.SelectStmt) (selection.Selection, *selection.Scan, error) {
	if s.From == nil {
		return selection.Single(), nil, nil
	}
	t, err := schema.GetTable(s.From.Name)
	if err != nil {
		return nil, nil, err
	}
	scan := selection.NewScan(t, s.From.Alias)
	if len(s.Joins) == 0 {
		return scan, scan, nil
	}

	var src selection.Selection = scan
	for _, j := range s.Joins {
		rt, err := schema.GetTable(j.Table.Name)
		if err != nil {
			return nil, nil, err
		}
		right := selection.NewScan(rt, j.Table.Alias)
		if err := selection.CheckAliases(src.Schema(), right.Schema()); err != nil {
			return nil, nil, err
		}
		var on expr.Expr
		if j.On != nil {
			if on, err = newBinder(schema, src.Schema().Concat(right.Schema())).bind(j.On); err != nil {
				return nil, nil, err
			}
		}
		join, err := selection.NewJoin(joinKinds[j.Kind], src, right, on)
		if err != nil {
			return nil, nil, err
		}
		src = join
	}
	return src, nil, nil
}

// planProjection expands stars and binds the select list. An empty name
// means the default output name of the expression.
func planProjection(b *binder, s *sql.SelectStmt) ([]expr.Expr, []string, error) {
	in := b.columns
	var (
		exprs []expr.Expr
		names []string
	)
	for _, item := range s.Columns {
		if !item.Star {
			e, err := b.bind(item.Expr)
			if err != nil {
				return nil, nil, err
			}
			exprs = append(exprs, e)
			names = append(names, item.Alias)
			continue
		}
		if s.From == nil {
			return nil, nil, ferrors.NewQueryError("SELECT * with no tables specified is not valid")
		}
		if item.StarTable != "" && !in.HasTable(item.StarTable) {
			return nil, nil, ferrors.NewQueryError("missing FROM-clause entry for table \"" + item.StarTable + "\"")
		}
		for _, i := range in.Indexes(item.StarTable) {
			exprs = append(exprs, &expr.ColumnRef{Index: i, Column: in[i]})
			names = append(names, in[i].Name)
		}
	}
	return exprs, names, nil
}

func sortKey(item sql.OrderItem) types.SortKey {
	return types.SortKey{Descending: item.Desc, NullsFirst: item.NullsFirst}
}

// orderPosition resolves "ORDER BY <n>" to a zero-based output column.
func orderPosition(e sql.Expr, width int) (int, bool, error) {
	num, ok := e.(*sql.NumberLit)
	if !ok {
		return 0, false, nil
	}
	pos, err := strconv.Atoi(num.Text)
	if err != nil || pos < 1 || pos > width {
		return 0, true, ferrors.NewQueryError("ORDER BY position " + num.Text + " is not in select list")
	}
	return pos - 1, true, nil
}

// outputIndex finds the output column a bare name in ORDER BY refers to.
func outputIndex(e sql.Expr, exprs []expr.Expr, names []string) int {
	col, ok := e.(*sql.ColumnExpr)
	if !ok || col.Table != "" {
		return -1
	}
	for i, name := range names {
		if name == "" {
			name = expr.OutputName(exprs[i])
		}
		if name == col.Name {
			return i
		}
	}
	return -1
}

// orderKeys resolves sort keys of a plain SELECT. Keys are evaluated below
// the projection, so an output column is replaced by its expression.
func orderKeys(b *binder, exprs []expr.Expr, names []string, items []sql.OrderItem) ([]selection.OrderKey, error) {
	keys := make([]selection.OrderKey, len(items))
	for k, item := range items {
		pos, isPos, err := orderPosition(item.Expr, len(exprs))
		if err != nil {
			return nil, err
		}
		var e expr.Expr
		switch {
		case isPos:
			e = exprs[pos]
		case outputIndex(item.Expr, exprs, names) >= 0:
			e = exprs[outputIndex(item.Expr, exprs, names)]
		default:
			if e, err = b.bind(item.Expr); err != nil {
				return nil, err
			}
		}
		keys[k] = selection.OrderKey{Expr: e, Sort: sortKey(item)}
	}
	return keys, nil
}

// distinctOrderKeys resolves sort keys of SELECT DISTINCT against the
// projection output.
func distinctOrderKeys(b *binder, project *selection.Project, items []sql.OrderItem) ([]selection.OrderKey, error) {
	out := project.Schema()
	names := out.Names()
	keys := make([]selection.OrderKey, len(items))
	for k, item := range items {
		pos, isPos, err := orderPosition(item.Expr, len(out))
		if err != nil {
			return nil, err
		}
		if !isPos {
			pos = outputIndex(item.Expr, project.Exprs, names)
		}
		if pos < 0 {
			e, err := b.bind(item.Expr)
			if err != nil {
				return nil, err
			}
			for i, pe := range project.Exprs {
				if pe.String() == e.String() {
					pos = i
					break
				}
			}
		}
		if pos < 0 {
			return nil, ferrors.NewQueryError("for SELECT DISTINCT, ORDER BY expressions must appear in select list")
		}
		keys[k] = selection.OrderKey{
			Expr: &expr.ColumnRef{Index: pos, Column: out[pos]},
			Sort: sortKey(item),
		}
	}
	return keys, nil
}

// ============================================================================
// Index selection
// ============================================================================

// constrainScan narrows scan to an index when pred contains conjuncts of
// the form "column op constant". The full predicate is still applied by
// the filter above the scan, so a constraint only has to be a superset of
// the matching rows.
//
// Equality on a prefix of an index's key columns is preferred; the longest
// prefix wins. Otherwise the first index whose leading column has a range
// bound is used.
func constrainScan(scan *selection.Scan, pred expr.Expr) {
	columns := scan.Table.Columns()
	equal := make(map[int]expr.Expr)
	lower := make(map[int]*selection.RangeBound)
	upper := make(map[int]*selection.RangeBound)

	for _, c := range conjuncts(pred) {
		switch n := c.(type) {
		case *expr.Comparison:
			col, value, op, ok := columnConstant(n, columns)
			if !ok {
				continue
			}
			switch op {
			case expr.CmpEq:
				if _, dup := equal[col]; !dup {
					equal[col] = value
				}
			case expr.CmpGt, expr.CmpGe:
				if lower[col] == nil {
					lower[col] = &selection.RangeBound{Expr: value, Inclusive: op == expr.CmpGe}
				}
			case expr.CmpLt, expr.CmpLe:
				if upper[col] == nil {
					upper[col] = &selection.RangeBound{Expr: value, Inclusive: op == expr.CmpLe}
				}
			}
		case *expr.Between:
			ref, ok := n.Inner.(*expr.ColumnRef)
			if !ok || n.Negate || !keyConstant(n.Low, columns[ref.Index].Type) || !keyConstant(n.High, columns[ref.Index].Type) {
				continue
			}
			if lower[ref.Index] == nil {
				lower[ref.Index] = &selection.RangeBound{Expr: n.Low, Inclusive: true}
			}
			if upper[ref.Index] == nil {
				upper[ref.Index] = &selection.RangeBound{Expr: n.High, Inclusive: true}
			}
		}
	}

	var (
		best       *catalog.Index
		bestPrefix []expr.Expr
	)
	for _, ix := range scan.Table.Indexes() {
		var prefix []expr.Expr
		for _, col := range ix.Columns() {
			v, ok := equal[col]
			if !ok {
				break
			}
			prefix = append(prefix, v)
		}
		if len(prefix) > len(bestPrefix) {
			best, bestPrefix = ix, prefix
		}
	}
	if best != nil {
		execLog.Debug("Index lookup", "table", scan.Table.Name(), "index", best.Name(), "columns", len(bestPrefix))
		scan.WithLookup(best, bestPrefix)
		return
	}
	for _, ix := range scan.Table.Indexes() {
		lead := ix.Columns()[0]
		lo, hi := lower[lead], upper[lead]
		if lo == nil && hi == nil {
			continue
		}
		execLog.Debug("Index range", "table", scan.Table.Name(), "index", ix.Name())
		scan.WithRange(ix, lo, hi)
		return
	}
}

// columnConstant matches "column op constant" and "constant op column",
// flipping the operator for the latter.
func columnConstant(c *expr.Comparison, columns []catalog.Column) (int, expr.Expr, expr.CmpOp, bool) {
	op := c.Op
	ref, ok := c.Left.(*expr.ColumnRef)
	value := c.Right
	if !ok {
		if ref, ok = c.Right.(*expr.ColumnRef); !ok {
			return 0, nil, 0, false
		}
		value = c.Left
		op = flip(op)
	}
	if ref.Index >= len(columns) || !keyConstant(value, columns[ref.Index].Type) {
		return 0, nil, 0, false
	}
	return ref.Index, value, op, true
}

func flip(op expr.CmpOp) expr.CmpOp {
	switch op {
	case expr.CmpLt:
		return expr.CmpGt
	case expr.CmpLe:
		return expr.CmpGe
	case expr.CmpGt:
		return expr.CmpLt
	case expr.CmpGe:
		return expr.CmpLe
	}
	return op
}

// keyConstant reports whether e can probe an index on a column of type
// col: it must be constant and of the same kind, so that converting it to
// the key type loses nothing.
func keyConstant(e expr.Expr, col types.Type) bool {
	return isConstant(e) && e.Type().Kind() == col.Kind()
}

// conjuncts splits a predicate on AND.
func conjuncts(e expr.Expr) []expr.Expr {
	if l, ok := e.(*expr.Logical); ok && l.Op == expr.LogicAnd {
		return append(conjuncts(l.Left), conjuncts(l.Right)...)
	}
	return []expr.Expr{e}
}
