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
	"math"

	"github.com/shopspring/decimal"

	ferrors "flymem/internal/errors"
	"flymem/internal/storage"
	"flymem/internal/types"
)

// ArithOp is an arithmetic operator.
type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
)

var arithOpNames = [...]string{OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%"}

func (op ArithOp) String() string { return arithOpNames[op] }

// Arithmetic applies an arithmetic operator to two numeric operands. The
// operands are promoted to the wider of the two types.
type Arithmetic struct {
	Op          ArithOp
	Left, Right Expr
	typ         types.Type
}

// NewArithmetic type-checks left op right.
func NewArithmetic(op ArithOp, left, right Expr) (Expr, error) {
	left, right = coercePair(left, right)
	t, ok := types.Unify(left.Type(), right.Type())
	if !ok {
		return nil, ferrors.TypeMismatch(op.String(), left.Type().Name(), right.Type().Name())
	}
	switch t.Kind() {
	case types.KindNull:
		t = types.Int
	case types.KindInt, types.KindFloat, types.KindNumeric:
	default:
		return nil, ferrors.TypeMismatch(op.String(), left.Type().Name(), right.Type().Name())
	}
	return &Arithmetic{Op: op, Left: left, Right: right, typ: t}, nil
}

func (a *Arithmetic) Type() types.Type { return a.typ }

func (a *Arithmetic) Eval(tx *storage.Transaction, row *Row) (types.Value, error) {
	l, err := a.Left.Eval(tx, row)
	if err != nil {
		return types.Value{}, err
	}
	r, err := a.Right.Eval(tx, row)
	if err != nil {
		return types.Value{}, err
	}
	if l.IsNull() || r.IsNull() {
		return types.NullOf(a.typ), nil
	}
	if l, err = types.Convert(l, a.typ); err != nil {
		return types.Value{}, err
	}
	if r, err = types.Convert(r, a.typ); err != nil {
		return types.Value{}, err
	}
	return arith(a.Op, l, r)
}

func (a *Arithmetic) String() string {
	return "(" + a.Left.String() + " " + a.Op.String() + " " + a.Right.String() + ")"
}

func zeroOf(t types.Type) types.Value {
	switch t.Kind() {
	case types.KindFloat:
		return types.FloatValue(0)
	case types.KindNumeric:
		return types.NumericValue(decimal.Zero)
	}
	return types.IntValue(0)
}

// arith computes l op r for two non-null values of the same numeric kind.
func arith(op ArithOp, l, r types.Value) (types.Value, error) {
	switch l.Kind() {
	case types.KindInt:
		return arithInt(op, l.Int(), r.Int())
	case types.KindFloat:
		return arithFloat(op, l.Float(), r.Float())
	case types.KindNumeric:
		return arithNumeric(op, l.Decimal(), r.Decimal())
	}
	return types.Value{}, ferrors.TypeMismatch(op.String(), l.Type().Name(), r.Type().Name())
}

func arithInt(op ArithOp, a, b int64) (types.Value, error) {
	var out int64
	switch op {
	case OpAdd:
		out = a + b
		if (a > 0 && b > 0 && out < 0) || (a < 0 && b < 0 && out >= 0) {
			return types.Value{}, ferrors.Overflow("integer")
		}
	case OpSub:
		out = a - b
		if (a >= 0 && b < 0 && out < 0) || (a < 0 && b > 0 && out >= 0) {
			return types.Value{}, ferrors.Overflow("integer")
		}
	case OpMul:
		out = a * b
		if a != 0 && (out/a != b || (a == -1 && b == math.MinInt64)) {
			return types.Value{}, ferrors.Overflow("integer")
		}
	case OpDiv:
		if b == 0 {
			return types.Value{}, ferrors.DivisionByZero()
		}
		if a == math.MinInt64 && b == -1 {
			return types.Value{}, ferrors.Overflow("integer")
		}
		out = a / b
	case OpMod:
		if b == 0 {
			return types.Value{}, ferrors.DivisionByZero()
		}
		if b == -1 {
			return types.IntValue(0), nil
		}
		out = a % b
	}
	return types.IntValue(out), nil
}

func arithFloat(op ArithOp, a, b float64) (types.Value, error) {
	var out float64
	switch op {
	case OpAdd:
		out = a + b
	case OpSub:
		out = a - b
	case OpMul:
		out = a * b
	case OpDiv:
		if b == 0 {
			return types.Value{}, ferrors.DivisionByZero()
		}
		out = a / b
	case OpMod:
		if b == 0 {
			return types.Value{}, ferrors.DivisionByZero()
		}
		out = math.Mod(a, b)
	}
	if math.IsInf(out, 0) && !math.IsInf(a, 0) && !math.IsInf(b, 0) {
		return types.Value{}, ferrors.Overflow("double precision")
	}
	return types.FloatValue(out), nil
}

func arithNumeric(op ArithOp, a, b decimal.Decimal) (types.Value, error) {
	switch op {
	case OpAdd:
		return types.NumericValue(a.Add(b)), nil
	case OpSub:
		return types.NumericValue(a.Sub(b)), nil
	case OpMul:
		return types.NumericValue(a.Mul(b)), nil
	case OpDiv:
		if b.IsZero() {
			return types.Value{}, ferrors.DivisionByZero()
		}
		return types.NumericValue(a.Div(b)), nil
	default:
		if b.IsZero() {
			return types.Value{}, ferrors.DivisionByZero()
		}
		return types.NumericValue(a.Mod(b)), nil
	}
}

// ============================================================================
// String concatenation
// ============================================================================

// Concat is the || operator. Text operands are concatenated; two JSON
// operands are merged the way jsonb || jsonb does.
type Concat struct {
	Left, Right Expr
	typ         types.Type
}

// NewConcat type-checks left || right.
func NewConcat(left, right Expr) (Expr, error) {
	// String literals stay text unless the other side is a JSON document.
	if right.Type().Kind().IsJSON() {
		left = coerceLiteral(left, right.Type())
	}
	if left.Type().Kind().IsJSON() {
		right = coerceLiteral(right, left.Type())
	}
	lk, rk := left.Type().Kind(), right.Type().Kind()
	if lk.IsJSON() && rk.IsJSON() {
		return &Concat{Left: left, Right: right, typ: types.JSONB}, nil
	}
	if lk != types.KindText && rk != types.KindText && lk != types.KindNull && rk != types.KindNull {
		return nil, ferrors.TypeMismatch("||", left.Type().Name(), right.Type().Name())
	}
	t := left.Type()
	if lk != types.KindText {
		t = right.Type()
	}
	if t.Kind() != types.KindText {
		t = types.Text
	}
	return &Concat{Left: left, Right: right, typ: t}, nil
}

func (c *Concat) Type() types.Type { return c.typ }

func (c *Concat) Eval(tx *storage.Transaction, row *Row) (types.Value, error) {
	l, err := c.Left.Eval(tx, row)
	if err != nil {
		return types.Value{}, err
	}
	r, err := c.Right.Eval(tx, row)
	if err != nil {
		return types.Value{}, err
	}
	if l.IsNull() || r.IsNull() {
		return types.NullOf(c.typ), nil
	}
	if c.typ.Kind() == types.KindJSONB {
		return types.NewValue(types.JSONB, concatJSON(l.JSONDoc(), r.JSONDoc())), nil
	}
	return types.NewValue(c.typ, l.String()+r.String()), nil
}

func (c *Concat) String() string {
	return "(" + c.Left.String() + " || " + c.Right.String() + ")"
}

// concatJSON merges two objects (right wins on shared keys) and otherwise
// concatenates both operands as arrays, wrapping scalars.
func concatJSON(a, b any) any {
	ma, aObj := a.(map[string]any)
	mb, bObj := b.(map[string]any)
	if aObj && bObj {
		out := make(map[string]any, len(ma)+len(mb))
		for k, v := range ma {
			out[k] = v
		}
		for k, v := range mb {
			out[k] = v
		}
		return out
	}
	return append(asArray(a), asArray(b)...)
}

func asArray(doc any) []any {
	if arr, ok := doc.([]any); ok {
		return append([]any(nil), arr...)
	}
	if doc == types.JSONNull {
		return []any{nil}
	}
	return []any{doc}
}

// ============================================================================
// JSON access
// ============================================================================

// JSONAccess is the -> (field as json) and ->> (field as text) operator.
type JSONAccess struct {
	Doc, Key Expr
	AsText   bool
}

// NewJSONAccess type-checks doc -> key or doc ->> key.
func NewJSONAccess(doc, key Expr, asText bool) (Expr, error) {
	doc = coerceLiteral(doc, types.JSONB)
	if k := doc.Type().Kind(); !k.IsJSON() && k != types.KindNull {
		return nil, ferrors.TypeMismatch(jsonOpName(asText), doc.Type().Name(), key.Type().Name())
	}
	switch key.Type().Kind() {
	case types.KindText, types.KindInt, types.KindNull:
	default:
		return nil, ferrors.TypeMismatch(jsonOpName(asText), doc.Type().Name(), key.Type().Name())
	}
	return &JSONAccess{Doc: doc, Key: key, AsText: asText}, nil
}

func jsonOpName(asText bool) string {
	if asText {
		return "->>"
	}
	return "->"
}

func (j *JSONAccess) Type() types.Type {
	if j.AsText {
		return types.Text
	}
	if j.Doc.Type().Kind() == types.KindJSON {
		return types.JSON
	}
	return types.JSONB
}

func (j *JSONAccess) Eval(tx *storage.Transaction, row *Row) (types.Value, error) {
	d, err := j.Doc.Eval(tx, row)
	if err != nil {
		return types.Value{}, err
	}
	k, err := j.Key.Eval(tx, row)
	if err != nil {
		return types.Value{}, err
	}
	t := j.Type()
	if d.IsNull() || k.IsNull() {
		return types.NullOf(t), nil
	}
	node, ok := types.JSONGet(d.JSONDoc(), k)
	if !ok {
		return types.NullOf(t), nil
	}
	if !j.AsText {
		return types.NewValue(t, node), nil
	}
	s, ok := types.JSONText(node)
	if !ok {
		return types.NullOf(t), nil
	}
	return types.TextValue(s), nil
}

func (j *JSONAccess) String() string {
	return j.Doc.String() + jsonOpName(j.AsText) + j.Key.String()
}
