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

	"flymem/internal/catalog"
	ferrors "flymem/internal/errors"
	"flymem/internal/expr"
	"flymem/internal/storage"
	"flymem/internal/types"
)

// JoinKind is the kind of a join.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinRight
	JoinCross
)

func (k JoinKind) String() string {
	switch k {
	case JoinLeft:
		return "LEFT JOIN"
	case JoinRight:
		return "RIGHT JOIN"
	case JoinCross:
		return "CROSS JOIN"
	default:
		return "JOIN"
	}
}

// CheckAliases fails if a source name of right is already used by left.
func CheckAliases(left, right expr.Schema) error {
	seen := make(map[string]bool)
	for _, c := range right {
		if c.Table == "" || seen[c.Table] {
			continue
		}
		seen[c.Table] = true
		if left.HasTable(c.Table) {
			return ferrors.DuplicateAlias(c.Table)
		}
	}
	return nil
}

// Join is a nested-loop join. The schema is the left columns followed by
// the right columns, and the ON predicate is resolved against it.
//
// A RIGHT join runs as a LEFT join with the operands swapped (isRight):
// the declared right side drives the loop and the declared left side is
// padded with NULLs. Rows are always assembled in declared column order
// before the predicate sees them.
type Join struct {
	Kind   JoinKind
	On     expr.Expr
	schema expr.Schema

	outer, inner Selection
	isRight      bool
	probe        *joinProbe
}

// joinProbe reads the inner side through an index whose leading column is
// equated with an expression over the outer side.
type joinProbe struct {
	scan  *Scan
	index *catalog.Index
	key   expr.Expr
}

// NewJoin creates a join of left and right. on is nil for CROSS JOIN.
func NewJoin(kind JoinKind, left, right Selection, on expr.Expr) (*Join, error) {
	if err := CheckAliases(left.Schema(), right.Schema()); err != nil {
		return nil, err
	}
	if on != nil {
		switch on.Type().Kind() {
		case types.KindBool, types.KindNull:
		default:
			return nil, ferrors.NewQueryError("argument of JOIN/ON must be type boolean, not type " + on.Type().Name())
		}
	} else if kind != JoinCross {
		return nil, ferrors.NewQueryError(kind.String() + " requires an ON condition")
	}
	j := &Join{
		Kind:   kind,
		On:     on,
		schema: left.Schema().Concat(right.Schema()),
		outer:  left,
		inner:  right,
	}
	if kind == JoinRight {
		j.outer, j.inner, j.isRight = right, left, true
	}
	j.probe = j.findProbe()
	return j, nil
}

func (j *Join) Schema() expr.Schema { return j.schema }

// innerOffset is the position of the first inner column in a declared row.
func (j *Join) innerOffset() int {
	if j.isRight {
		return 0
	}
	return len(j.outer.Schema())
}

// combine assembles outer and inner rows in declared column order.
func (j *Join) combine(outer, inner *expr.Row) *expr.Row {
	if j.isRight {
		return inner.Concat(outer)
	}
	return outer.Concat(inner)
}

func (j *Join) Enumerate(tx *storage.Transaction) iter.Seq2[*expr.Row, error] {
	return func(yield func(*expr.Row, error) bool) {
		nullInner := expr.NullRow(j.inner.Schema())
		for outer, err := range j.outer.Enumerate(tx) {
			if err != nil {
				yield(nil, err)
				return
			}
			matched := false
			inner, err := j.innerRows(tx, outer, nullInner)
			if err != nil {
				yield(nil, err)
				return
			}
			for in, err := range inner {
				if err != nil {
					yield(nil, err)
					return
				}
				row := j.combine(outer, in)
				if j.On != nil {
					v, err := j.On.Eval(tx, row)
					if err != nil {
						yield(nil, err)
						return
					}
					if expr.Truth(v) != types.True {
						continue
					}
				}
				matched = true
				if !yield(row, nil) {
					return
				}
			}
			if !matched && (j.Kind == JoinLeft || j.Kind == JoinRight) {
				if !yield(j.combine(outer, nullInner), nil) {
					return
				}
			}
		}
	}
}

// innerRows returns the inner rows to try for one outer row: the probed
// rows when an index applies, every inner row otherwise.
func (j *Join) innerRows(tx *storage.Transaction, outer, nullInner *expr.Row) (iter.Seq2[*expr.Row, error], error) {
	if j.probe == nil {
		return j.inner.Enumerate(tx), nil
	}
	v, err := j.probe.key.Eval(tx, j.combine(outer, nullInner))
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return func(func(*expr.Row, error) bool) {}, nil
	}
	col := j.probe.scan.Table.Columns()[j.probe.index.Columns()[0]]
	key, err := types.Convert(v, col.Type)
	if err != nil {
		// Not representable in the column type; let the predicate decide.
		return j.inner.Enumerate(tx), nil
	}
	ids := slices.Collect(j.probe.index.Lookup(tx, []types.Value{key}))
	slices.Sort(ids)
	table := j.probe.scan.Table
	return func(yield func(*expr.Row, error) bool) {
		for _, id := range ids {
			if row, ok := table.Get(tx, id); ok && !yield(row, nil) {
				return
			}
		}
	}, nil
}

// findProbe looks for a conjunct "inner.col = outer.col" of the ON
// predicate where inner.col leads an index of an unconstrained inner scan.
func (j *Join) findProbe() *joinProbe {
	scan, ok := j.inner.(*Scan)
	if !ok || scan.Constrained() || j.On == nil {
		return nil
	}
	lo := j.innerOffset()
	hi := lo + len(j.inner.Schema())
	isInner := func(ref *expr.ColumnRef) bool { return ref.Index >= lo && ref.Index < hi }

	for _, conj := range conjuncts(j.On) {
		cmp, ok := conj.(*expr.Comparison)
		if !ok || cmp.Op != expr.CmpEq {
			continue
		}
		l, lok := cmp.Left.(*expr.ColumnRef)
		r, rok := cmp.Right.(*expr.ColumnRef)
		if !lok || !rok {
			continue
		}
		var innerRef, outerRef *expr.ColumnRef
		switch {
		case isInner(l) && !isInner(r):
			innerRef, outerRef = l, r
		case isInner(r) && !isInner(l):
			innerRef, outerRef = r, l
		default:
			continue
		}
		for _, ix := range scan.Table.Indexes() {
			if ix.Columns()[0] == innerRef.Index-lo {
				return &joinProbe{scan: scan, index: ix, key: outerRef}
			}
		}
	}
	return nil
}

// conjuncts splits a predicate on AND.
func conjuncts(e expr.Expr) []expr.Expr {
	if l, ok := e.(*expr.Logical); ok && l.Op == expr.LogicAnd {
		return append(conjuncts(l.Left), conjuncts(l.Right)...)
	}
	return []expr.Expr{e}
}
