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

package expr

import (
	"strings"

	ferrors "flymem/internal/errors"
	"flymem/internal/storage"
	"flymem/internal/types"
)

// CmpOp is a comparison operator.
type CmpOp int

const (
	CmpEq CmpOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

var cmpOpNames = [...]string{CmpEq: "=", CmpNe: "<>", CmpLt: "<", CmpLe: "<=", CmpGt: ">", CmpGe: ">="}

func (op CmpOp) String() string { return cmpOpNames[op] }

// holds applies the operator to a non-unknown ordering.
func (op CmpOp) holds(o types.Ordering) bool {
	switch op {
	case CmpEq:
		return o == types.Equal
	case CmpNe:
		return o != types.Equal
	case CmpLt:
		return o == types.Less
	case CmpLe:
		return o == types.Less || o == types.Equal
	case CmpGt:
		return o == types.Greater
	default:
		return o == types.Greater || o == types.Equal
	}
}

// Comparison is a binary comparison. A NULL operand yields NULL.
type Comparison struct {
	Op          CmpOp
	Left, Right Expr
}

// NewComparison type-checks left op right.
func NewComparison(op CmpOp, left, right Expr) (Expr, error) {
	left, right = coercePair(left, right)
	if _, ok := types.Unify(left.Type(), right.Type()); !ok {
		return nil, ferrors.TypeMismatch(op.String(), left.Type().Name(), right.Type().Name())
	}
	return &Comparison{Op: op, Left: left, Right: right}, nil
}

func (c *Comparison) Type() types.Type { return types.Bool }

func (c *Comparison) Eval(tx *storage.Transaction, row *Row) (types.Value, error) {
	l, err := c.Left.Eval(tx, row)
	if err != nil {
		return types.Value{}, err
	}
	r, err := c.Right.Eval(tx, row)
	if err != nil {
		return types.Value{}, err
	}
	return compareValues(c.Op, l, r), nil
}

func compareValues(op CmpOp, l, r types.Value) types.Value {
	if l.IsNull() || r.IsNull() {
		return types.NullOf(types.Bool)
	}
	switch op {
	case CmpEq:
		return types.Equals(l, r).Value()
	case CmpNe:
		return types.Equals(l, r).Not().Value()
	}
	return types.BoolValue(op.holds(types.Compare(l, r)))
}

func (c *Comparison) String() string {
	return c.Left.String() + " " + c.Op.String() + " " + c.Right.String()
}

// ============================================================================
// Logical operators
// ============================================================================

// LogicOp is AND or OR.
type LogicOp int

const (
	LogicAnd LogicOp = iota
	LogicOr
)

func (op LogicOp) String() string {
	if op == LogicAnd {
		return "AND"
	}
	return "OR"
}

func checkBoolean(op string, e Expr) (Expr, error) {
	e = coerceLiteral(e, types.Bool)
	switch e.Type().Kind() {
	case types.KindBool, types.KindNull:
		return e, nil
	}
	return nil, ferrors.NewQueryError("argument of " + op + " must be type boolean, not type " + e.Type().Name())
}

// Logical combines two predicates with three-valued logic.
type Logical struct {
	Op          LogicOp
	Left, Right Expr
}

// NewLogical type-checks left AND/OR right.
func NewLogical(op LogicOp, left, right Expr) (Expr, error) {
	var err error
	if left, err = checkBoolean(op.String(), left); err != nil {
		return nil, err
	}
	if right, err = checkBoolean(op.String(), right); err != nil {
		return nil, err
	}
	return &Logical{Op: op, Left: left, Right: right}, nil
}

func (l *Logical) Type() types.Type { return types.Bool }

func (l *Logical) Eval(tx *storage.Transaction, row *Row) (types.Value, error) {
	lv, err := l.Left.Eval(tx, row)
	if err != nil {
		return types.Value{}, err
	}
	lt := Truth(lv)
	// Short-circuit when the left side decides the result.
	if (l.Op == LogicAnd && lt == types.False) || (l.Op == LogicOr && lt == types.True) {
		return lt.Value(), nil
	}
	rv, err := l.Right.Eval(tx, row)
	if err != nil {
		return types.Value{}, err
	}
	if l.Op == LogicAnd {
		return lt.And(Truth(rv)).Value(), nil
	}
	return lt.Or(Truth(rv)).Value(), nil
}

func (l *Logical) String() string {
	return "(" + l.Left.String() + " " + l.Op.String() + " " + l.Right.String() + ")"
}

// Not negates a predicate; NOT NULL is NULL.
type Not struct {
	Inner Expr
}

// NewNot type-checks NOT inner.
func NewNot(inner Expr) (Expr, error) {
	inner, err := checkBoolean("NOT", inner)
	if err != nil {
		return nil, err
	}
	return &Not{Inner: inner}, nil
}

func (n *Not) Type() types.Type { return types.Bool }

func (n *Not) Eval(tx *storage.Transaction, row *Row) (types.Value, error) {
	v, err := n.Inner.Eval(tx, row)
	if err != nil {
		return types.Value{}, err
	}
	return Truth(v).Not().Value(), nil
}

func (n *Not) String() string { return "NOT " + n.Inner.String() }

// ============================================================================
// Predicates
// ============================================================================

// IsNull tests for SQL NULL. It never returns NULL itself. A JSON null
// document is not SQL NULL.
type IsNull struct {
	Inner  Expr
	Negate bool
}

func (n *IsNull) Type() types.Type { return types.Bool }

func (n *IsNull) Eval(tx *storage.Transaction, row *Row) (types.Value, error) {
	v, err := n.Inner.Eval(tx, row)
	if err != nil {
		return types.Value{}, err
	}
	return types.BoolValue(v.IsNull() != n.Negate), nil
}

func (n *IsNull) String() string {
	if n.Negate {
		return n.Inner.String() + " IS NOT NULL"
	}
	return n.Inner.String() + " IS NULL"
}

// In tests membership in a value list. Without a match, a NULL operand or
// a NULL list element makes the result NULL.
type In struct {
	Inner  Expr
	List   []Expr
	Negate bool
}

// NewIn type-checks inner [NOT] IN (list...).
func NewIn(inner Expr, list []Expr, negate bool) (Expr, error) {
	out := make([]Expr, len(list))
	for i, e := range list {
		e = coerceLiteral(e, inner.Type())
		if _, ok := types.Unify(inner.Type(), e.Type()); !ok {
			return nil, ferrors.TypeMismatch("IN", inner.Type().Name(), e.Type().Name())
		}
		out[i] = e
	}
	return &In{Inner: inner, List: out, Negate: negate}, nil
}

func (in *In) Type() types.Type { return types.Bool }

func (in *In) Eval(tx *storage.Transaction, row *Row) (types.Value, error) {
	v, err := in.Inner.Eval(tx, row)
	if err != nil {
		return types.Value{}, err
	}
	result := types.False
	for _, e := range in.List {
		item, err := e.Eval(tx, row)
		if err != nil {
			return types.Value{}, err
		}
		if v.IsNull() || item.IsNull() {
			result = types.Maybe
			continue
		}
		if types.Equals(v, item) == types.True {
			result = types.True
			break
		}
	}
	if in.Negate {
		result = result.Not()
	}
	return result.Value(), nil
}

func (in *In) String() string {
	parts := make([]string, len(in.List))
	for i, e := range in.List {
		parts[i] = e.String()
	}
	op := " IN ("
	if in.Negate {
		op = " NOT IN ("
	}
	return in.Inner.String() + op + strings.Join(parts, ", ") + ")"
}

// Between tests low <= inner <= high.
type Between struct {
	Inner, Low, High Expr
	Negate           bool
}

// NewBetween type-checks inner [NOT] BETWEEN low AND high.
func NewBetween(inner, low, high Expr, negate bool) (Expr, error) {
	low = coerceLiteral(low, inner.Type())
	high = coerceLiteral(high, inner.Type())
	for _, bound := range []Expr{low, high} {
		if _, ok := types.Unify(inner.Type(), bound.Type()); !ok {
			return nil, ferrors.TypeMismatch("BETWEEN", inner.Type().Name(), bound.Type().Name())
		}
	}
	return &Between{Inner: inner, Low: low, High: high, Negate: negate}, nil
}

func (b *Between) Type() types.Type { return types.Bool }

func (b *Between) Eval(tx *storage.Transaction, row *Row) (types.Value, error) {
	v, err := b.Inner.Eval(tx, row)
	if err != nil {
		return types.Value{}, err
	}
	lo, err := b.Low.Eval(tx, row)
	if err != nil {
		return types.Value{}, err
	}
	hi, err := b.High.Eval(tx, row)
	if err != nil {
		return types.Value{}, err
	}
	result := Truth(compareValues(CmpGe, v, lo)).And(Truth(compareValues(CmpLe, v, hi)))
	if b.Negate {
		result = result.Not()
	}
	return result.Value(), nil
}

func (b *Between) String() string {
	op := " BETWEEN "
	if b.Negate {
		op = " NOT BETWEEN "
	}
	return b.Inner.String() + op + b.Low.String() + " AND " + b.High.String()
}
