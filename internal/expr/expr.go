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
Package expr implements typed scalar expressions.

Expression Model:
=================

The planner turns each AST expression into an Expr tree whose column
references are already resolved to row positions and whose result type
is known. Building a node type-checks it; evaluating it never needs the
schema again.

Evaluation:
===========

Eval takes the transaction explicitly (nextval touches versioned state)
and the input row. Data dependent failures such as a failed cast or a
division by zero are returned as errors at evaluation time.

NULL Handling:
==============

Comparison, arithmetic and string operators return NULL when an operand is
NULL. AND, OR and NOT follow three-valued logic. A filter keeps a row only
when its predicate evaluates to a non-null true.

Literal Coercion:
=================

A string literal compared or combined with a non-text operand is wrapped
in a Cast to the other operand's type, so '42' = id and
doc = '{"a":1}' work as in PostgreSQL. The cast runs at evaluation time.
*/
package expr

import (
	"fmt"

	ferrors "flymem/internal/errors"
	"flymem/internal/storage"
	"flymem/internal/types"
)

// Expr is a typed, resolved scalar expression.
type Expr interface {
	// Type is the static result type. NULL results carry it too.
	Type() types.Type
	// Eval computes the value for one input row.
	Eval(tx *storage.Transaction, row *Row) (types.Value, error)
	// String renders the expression in SQL-like form.
	String() string
}

// OutputName returns the default result column name of an expression: the
// column name for a column reference and "?column?" otherwise.
func OutputName(e Expr) string {
	if c, ok := e.(*ColumnRef); ok {
		return c.Column.Name
	}
	return "?column?"
}

// Truth evaluates a predicate result: NULL is Maybe, a boolean is itself.
func Truth(v types.Value) types.Tribool {
	return types.TriboolFromValue(v)
}

// ============================================================================
// Leaves
// ============================================================================

// ColumnRef reads a column of the input row by position.
type ColumnRef struct {
	Index  int
	Column Column
}

// NewColumnRef resolves a possibly qualified column name against schema.
func NewColumnRef(schema Schema, table, name string) (*ColumnRef, error) {
	i, err := schema.Resolve(table, name)
	if err != nil {
		return nil, err
	}
	return &ColumnRef{Index: i, Column: schema[i]}, nil
}

func (c *ColumnRef) Type() types.Type { return c.Column.Type }

func (c *ColumnRef) Eval(_ *storage.Transaction, row *Row) (types.Value, error) {
	if c.Index >= len(row.Values) {
		return types.Value{}, ferrors.Internal(fmt.Sprintf("column %s out of range", c.Column.QualifiedName()))
	}
	return row.Values[c.Index], nil
}

func (c *ColumnRef) String() string { return c.Column.QualifiedName() }

// Literal is a constant.
type Literal struct {
	Value types.Value
}

// NewLiteral wraps a constant value.
func NewLiteral(v types.Value) *Literal {
	return &Literal{Value: v}
}

func (l *Literal) Type() types.Type { return l.Value.Type() }

func (l *Literal) Eval(*storage.Transaction, *Row) (types.Value, error) {
	return l.Value, nil
}

func (l *Literal) String() string {
	switch {
	case l.Value.IsNull():
		return "NULL"
	case l.Value.Kind() == types.KindText:
		return "'" + l.Value.Text() + "'"
	case l.Value.Kind() == types.KindBool || l.Value.Kind().IsNumeric():
		return l.Value.String()
	}
	return "'" + l.Value.String() + "'::" + l.Value.Type().Name()
}

// ============================================================================
// Casts and coercion
// ============================================================================

// Cast converts its operand to a target type at evaluation time.
type Cast struct {
	Inner Expr
	To    types.Type
}

// NewCast builds an explicit CAST. It fails when the two types have no
// conversion path at all.
func NewCast(inner Expr, to types.Type) (Expr, error) {
	if !types.CanCast(inner.Type(), to) {
		return nil, ferrors.CannotCoerce(inner.Type().Name(), to.Name())
	}
	return &Cast{Inner: inner, To: to}, nil
}

func (c *Cast) Type() types.Type { return c.To }

func (c *Cast) Eval(tx *storage.Transaction, row *Row) (types.Value, error) {
	v, err := c.Inner.Eval(tx, row)
	if err != nil {
		return types.Value{}, err
	}
	return types.Convert(v, c.To)
}

func (c *Cast) String() string {
	return c.Inner.String() + "::" + c.To.Name()
}

// isUntypedText reports whether e is a string literal, which PostgreSQL
// treats as an untyped constant resolved against the other operand.
func isUntypedText(e Expr) bool {
	l, ok := e.(*Literal)
	return ok && !l.Value.IsNull() && l.Value.Kind() == types.KindText
}

// coerceLiteral casts a string literal to the type of its peer operand.
func coerceLiteral(e Expr, peer types.Type) Expr {
	k := peer.Kind()
	if !isUntypedText(e) || k == types.KindText || k == types.KindNull {
		return e
	}
	return &Cast{Inner: e, To: peer}
}

// coercePair applies literal coercion to both operands of a binary operator.
func coercePair(left, right Expr) (Expr, Expr) {
	return coerceLiteral(left, right.Type()), coerceLiteral(right, left.Type())
}

// Assign prepares e for storage into a column of type to. Implicit
// assignment casts and string literals are wrapped in a Cast; anything
// else is a type error.
func Assign(e Expr, to types.Type) (Expr, error) {
	from := e.Type()
	if from.Kind() == to.Kind() {
		if from == to {
			return e, nil
		}
		return &Cast{Inner: e, To: to}, nil
	}
	if from.Kind() == types.KindNull {
		return &Cast{Inner: e, To: to}, nil
	}
	if isUntypedText(e) && types.CanCast(from, to) {
		return &Cast{Inner: e, To: to}, nil
	}
	if types.CanAssign(from, to) {
		return &Cast{Inner: e, To: to}, nil
	}
	return nil, ferrors.CannotCoerce(from.Name(), to.Name())
}

// ============================================================================
// Unary minus
// ============================================================================

// Negate is unary minus over a numeric operand.
type Negate struct {
	Inner Expr
}

// NewNegate builds -inner.
func NewNegate(inner Expr) (Expr, error) {
	inner = coerceLiteral(inner, types.Numeric)
	if k := inner.Type().Kind(); !k.IsNumeric() && k != types.KindNull {
		return nil, ferrors.NewQueryError("operator does not exist: - " + inner.Type().Name())
	}
	return &Negate{Inner: inner}, nil
}

func (n *Negate) Type() types.Type { return n.Inner.Type() }

func (n *Negate) Eval(tx *storage.Transaction, row *Row) (types.Value, error) {
	v, err := n.Inner.Eval(tx, row)
	if err != nil || v.IsNull() {
		return v, err
	}
	return arith(OpSub, zeroOf(v.Type()), v)
}

func (n *Negate) String() string { return "-" + n.Inner.String() }
