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
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"flymem/internal/catalog"
	ferrors "flymem/internal/errors"
	"flymem/internal/expr"
	"flymem/internal/sql"
	"flymem/internal/types"
)

// binder turns AST expressions into typed expressions resolved against a
// row schema.
type binder struct {
	schema  *catalog.Schema
	columns expr.Schema
}

func newBinder(schema *catalog.Schema, columns expr.Schema) *binder {
	return &binder{schema: schema, columns: columns}
}

// resolveType maps a written type name to a type using the catalog's
// collation for text.
func resolveType(schema *catalog.Schema, name sql.TypeName) (types.Type, error) {
	t, ok := types.ByName(string(name), schema.Catalog().Collator())
	if !ok {
		return nil, ferrors.ObjectNotFound("type", string(name))
	}
	return t, nil
}

// numberLiteral types an integer literal as integer when it fits and every
// other number as numeric.
func numberLiteral(text string) (types.Value, error) {
	if !strings.ContainsAny(text, ".eE") {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return types.IntValue(i), nil
		}
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return types.Value{}, ferrors.NewSyntaxError("invalid number " + text)
	}
	return types.NumericValue(d), nil
}

func (b *binder) bindAll(list []sql.Expr) ([]expr.Expr, error) {
	out := make([]expr.Expr, len(list))
	for i, e := range list {
		be, err := b.bind(e)
		if err != nil {
			return nil, err
		}
		out[i] = be
	}
	return out, nil
}

// bind resolves one expression.
func (b *binder) bind(e sql.Expr) (expr.Expr, error) {
	switch n := e.(type) {
	case *sql.ColumnExpr:
		ref, err := expr.NewColumnRef(b.columns, n.Table, n.Name)
		if err != nil {
			return nil, err
		}
		return ref, nil

	case *sql.NullLit:
		return expr.NewLiteral(types.NullValue), nil

	case *sql.BoolLit:
		return expr.NewLiteral(types.BoolValue(n.Value)), nil

	case *sql.NumberLit:
		v, err := numberLiteral(n.Text)
		if err != nil {
			return nil, err
		}
		return expr.NewLiteral(v), nil

	case *sql.StringLit:
		return expr.NewLiteral(types.TextValue(n.Value)), nil

	case *sql.UnaryExpr:
		// Fold -<number> so that the most negative integer is representable.
		if num, ok := n.Operand.(*sql.NumberLit); ok && n.Op == "-" {
			v, err := numberLiteral("-" + num.Text)
			if err != nil {
				return nil, err
			}
			return expr.NewLiteral(v), nil
		}
		operand, err := b.bind(n.Operand)
		if err != nil {
			return nil, err
		}
		if n.Op == "NOT" {
			return expr.NewNot(operand)
		}
		return expr.NewNegate(operand)

	case *sql.BinaryExpr:
		return b.bindBinary(n)

	case *sql.IsNullExpr:
		operand, err := b.bind(n.Operand)
		if err != nil {
			return nil, err
		}
		return &expr.IsNull{Inner: operand, Negate: n.Not}, nil

	case *sql.InExpr:
		operand, err := b.bind(n.Operand)
		if err != nil {
			return nil, err
		}
		list, err := b.bindAll(n.List)
		if err != nil {
			return nil, err
		}
		return expr.NewIn(operand, list, n.Not)

	case *sql.BetweenExpr:
		operand, err := b.bind(n.Operand)
		if err != nil {
			return nil, err
		}
		low, err := b.bind(n.Low)
		if err != nil {
			return nil, err
		}
		high, err := b.bind(n.High)
		if err != nil {
			return nil, err
		}
		return expr.NewBetween(operand, low, high, n.Not)

	case *sql.CastExpr:
		operand, err := b.bind(n.Operand)
		if err != nil {
			return nil, err
		}
		to, err := resolveType(b.schema, n.Type)
		if err != nil {
			return nil, err
		}
		return expr.NewCast(operand, to)

	case *sql.FuncCall:
		return b.bindCall(n)
	}
	return nil, ferrors.NotSupported(fmt.Sprintf("expression %T", e))
}

func (b *binder) bindBinary(n *sql.BinaryExpr) (expr.Expr, error) {
	left, err := b.bind(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := b.bind(n.Right)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "AND":
		return expr.NewLogical(expr.LogicAnd, left, right)
	case "OR":
		return expr.NewLogical(expr.LogicOr, left, right)
	case "=":
		return expr.NewComparison(expr.CmpEq, left, right)
	case "<>":
		return expr.NewComparison(expr.CmpNe, left, right)
	case "<":
		return expr.NewComparison(expr.CmpLt, left, right)
	case "<=":
		return expr.NewComparison(expr.CmpLe, left, right)
	case ">":
		return expr.NewComparison(expr.CmpGt, left, right)
	case ">=":
		return expr.NewComparison(expr.CmpGe, left, right)
	case "+":
		return expr.NewArithmetic(expr.OpAdd, left, right)
	case "-":
		return expr.NewArithmetic(expr.OpSub, left, right)
	case "*":
		return expr.NewArithmetic(expr.OpMul, left, right)
	case "/":
		return expr.NewArithmetic(expr.OpDiv, left, right)
	case "%":
		return expr.NewArithmetic(expr.OpMod, left, right)
	case "||":
		return expr.NewConcat(left, right)
	case "->":
		return expr.NewJSONAccess(left, right, false)
	case "->>":
		return expr.NewJSONAccess(left, right, true)
	}
	return nil, ferrors.NotSupported("operator " + n.Op)
}

var aggregates = map[string]bool{"count": true, "sum": true, "avg": true, "min": true, "max": true}

func (b *binder) bindCall(n *sql.FuncCall) (expr.Expr, error) {
	arity := func(want int) error {
		if len(n.Args) != want {
			return ferrors.NewQueryError("function " + n.Name + " expects " + strconv.Itoa(want) + " argument(s), got " + strconv.Itoa(len(n.Args)))
		}
		return nil
	}
	switch n.Name {
	case "nextval":
		if err := arity(1); err != nil {
			return nil, err
		}
		name, ok := n.Args[0].(*sql.StringLit)
		if !ok {
			return nil, ferrors.NotSupported("nextval with a non-constant argument")
		}
		seq, err := b.schema.GetSequence(name.Value)
		if err != nil {
			return nil, err
		}
		return &expr.NextVal{Seq: seq}, nil
	case "coalesce":
		args, err := b.bindAll(n.Args)
		if err != nil {
			return nil, err
		}
		return expr.NewCoalesce(args)
	case "lower", "upper":
		if err := arity(1); err != nil {
			return nil, err
		}
		arg, err := b.bind(n.Args[0])
		if err != nil {
			return nil, err
		}
		return expr.NewCaseFold(arg, n.Name == "upper")
	case "gen_random_uuid":
		if err := arity(0); err != nil {
			return nil, err
		}
		return expr.RandomUUID{}, nil
	}
	if aggregates[n.Name] {
		return nil, ferrors.NotSupported("aggregate function " + n.Name)
	}
	return nil, ferrors.NotSupported("function " + n.Name)
}

// isConstant reports whether e evaluates to the same value for every row
// and every call.
func isConstant(e expr.Expr) bool {
	switch n := e.(type) {
	case *expr.Literal:
		return true
	case *expr.Cast:
		return isConstant(n.Inner)
	case *expr.Negate:
		return isConstant(n.Inner)
	}
	return false
}
