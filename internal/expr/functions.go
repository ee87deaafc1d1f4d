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

	"github.com/google/uuid"

	ferrors "flymem/internal/errors"
	"flymem/internal/storage"
	"flymem/internal/types"
)

// Sequence is the part of a schema sequence that nextval needs.
type Sequence interface {
	Name() string
	NextVal(tx *storage.Transaction) (int64, error)
}

// NextVal advances a sequence in the evaluating transaction.
type NextVal struct {
	Seq Sequence
}

func (n *NextVal) Type() types.Type { return types.Int }

func (n *NextVal) Eval(tx *storage.Transaction, _ *Row) (types.Value, error) {
	v, err := n.Seq.NextVal(tx)
	if err != nil {
		return types.Value{}, err
	}
	return types.IntValue(v), nil
}

func (n *NextVal) String() string { return "nextval('" + n.Seq.Name() + "')" }

// Coalesce returns its first non-null argument.
type Coalesce struct {
	Args []Expr
	typ  types.Type
}

// NewCoalesce type-checks coalesce(args...). All arguments must unify.
func NewCoalesce(args []Expr) (Expr, error) {
	if len(args) == 0 {
		return nil, ferrors.NewQueryError("coalesce requires at least one argument")
	}
	t := types.Null
	for _, a := range args {
		if isUntypedText(a) {
			continue
		}
		u, ok := types.Unify(t, a.Type())
		if !ok {
			return nil, ferrors.TypeMismatch("COALESCE", t.Name(), a.Type().Name())
		}
		t = u
	}
	if t.Kind() == types.KindNull {
		t = types.Text
	}
	out := make([]Expr, len(args))
	for i, a := range args {
		out[i] = coerceLiteral(a, t)
		if out[i].Type() != t && out[i].Type().Kind() != types.KindNull {
			out[i] = &Cast{Inner: out[i], To: t}
		}
	}
	return &Coalesce{Args: out, typ: t}, nil
}

func (c *Coalesce) Type() types.Type { return c.typ }

func (c *Coalesce) Eval(tx *storage.Transaction, row *Row) (types.Value, error) {
	for _, a := range c.Args {
		v, err := a.Eval(tx, row)
		if err != nil {
			return types.Value{}, err
		}
		if !v.IsNull() {
			return v, nil
		}
	}
	return types.NullOf(c.typ), nil
}

func (c *Coalesce) String() string { return "coalesce(" + joinExprs(c.Args) + ")" }

// CaseFold is lower() or upper().
type CaseFold struct {
	Inner Expr
	Upper bool
}

// NewCaseFold type-checks lower(inner) or upper(inner).
func NewCaseFold(inner Expr, upper bool) (Expr, error) {
	switch inner.Type().Kind() {
	case types.KindText, types.KindNull:
		return &CaseFold{Inner: inner, Upper: upper}, nil
	}
	name := "lower"
	if upper {
		name = "upper"
	}
	return nil, ferrors.NewQueryError("function " + name + "(" + inner.Type().Name() + ") does not exist")
}

func (f *CaseFold) Type() types.Type {
	if f.Inner.Type().Kind() == types.KindText {
		return f.Inner.Type()
	}
	return types.Text
}

func (f *CaseFold) Eval(tx *storage.Transaction, row *Row) (types.Value, error) {
	v, err := f.Inner.Eval(tx, row)
	if err != nil || v.IsNull() {
		return types.NullOf(f.Type()), err
	}
	if f.Upper {
		return types.NewValue(f.Type(), strings.ToUpper(v.Text())), nil
	}
	return types.NewValue(f.Type(), strings.ToLower(v.Text())), nil
}

func (f *CaseFold) String() string {
	if f.Upper {
		return "upper(" + f.Inner.String() + ")"
	}
	return "lower(" + f.Inner.String() + ")"
}

// RandomUUID is gen_random_uuid(): a fresh version 4 UUID per evaluation.
type RandomUUID struct{}

func (RandomUUID) Type() types.Type { return types.UUID }

func (RandomUUID) Eval(*storage.Transaction, *Row) (types.Value, error) {
	return types.UUIDValue(uuid.New()), nil
}

func (RandomUUID) String() string { return "gen_random_uuid()" }

func joinExprs(list []Expr) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
