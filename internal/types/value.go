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

package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Value is a typed datum. The zero Value is an untyped NULL.
type Value struct {
	typ Type
	raw any
}

// NewValue pairs a raw datum with its type. A nil raw is SQL NULL.
func NewValue(t Type, raw any) Value {
	return Value{typ: t, raw: raw}
}

// NullOf returns SQL NULL of type t.
func NullOf(t Type) Value {
	return Value{typ: t}
}

// NullValue is an untyped SQL NULL.
var NullValue = Value{typ: Null}

// Constructors for the common types.
func BoolValue(b bool) Value               { return Value{typ: Bool, raw: b} }
func IntValue(i int64) Value               { return Value{typ: Int, raw: i} }
func FloatValue(f float64) Value           { return Value{typ: Float, raw: f} }
func NumericValue(d decimal.Decimal) Value { return Value{typ: Numeric, raw: d} }
func TextValue(s string) Value             { return Value{typ: Text, raw: s} }
func UUIDValue(u uuid.UUID) Value          { return Value{typ: UUID, raw: u} }
func DateValue(t time.Time) Value          { return Value{typ: Date, raw: truncateToDate(t)} }
func TimestampValue(t time.Time) Value     { return Value{typ: Timestamp, raw: t.UTC()} }
func JSONBValue(doc any) Value             { return Value{typ: JSONB, raw: normalizeDoc(doc)} }

// Type returns the value's type. An untyped NULL reports Null.
func (v Value) Type() Type {
	if v.typ == nil {
		return Null
	}
	return v.typ
}

// Kind is shorthand for v.Type().Kind().
func (v Value) Kind() Kind {
	return v.Type().Kind()
}

// IsNull reports whether v is SQL NULL. A JSON null document is not.
func (v Value) IsNull() bool {
	return v.raw == nil
}

// Raw returns the underlying datum, nil for SQL NULL.
func (v Value) Raw() any {
	return v.raw
}

// Bool returns the datum of a non-null boolean value.
func (v Value) Bool() bool {
	b, _ := v.raw.(bool)
	return b
}

// Int returns the datum of a non-null integer value.
func (v Value) Int() int64 {
	i, _ := v.raw.(int64)
	return i
}

// Float returns the datum of a non-null float value.
func (v Value) Float() float64 {
	f, _ := v.raw.(float64)
	return f
}

// Text returns the datum of a non-null text value.
func (v Value) Text() string {
	s, _ := v.raw.(string)
	return s
}

// Decimal returns the datum of a non-null numeric value.
func (v Value) Decimal() decimal.Decimal {
	d, _ := v.raw.(decimal.Decimal)
	return d
}

// Time returns the datum of a non-null date or timestamp value.
func (v Value) Time() time.Time {
	t, _ := v.raw.(time.Time)
	return t
}

// JSONDoc returns the document tree of a non-null json value.
func (v Value) JSONDoc() any {
	return v.raw
}

// Key returns a string that is equal for values that compare Equal. SQL
// NULL gets a key no non-null value can produce.
func (v Value) Key() string {
	if v.IsNull() {
		return "\x00null"
	}
	return v.Type().Key(v.raw)
}

// String renders the value as PostgreSQL would print it as text.
func (v Value) String() string {
	if v.IsNull() {
		return "NULL"
	}
	return v.Type().Format(v.raw)
}

// Go converts the value into a plain Go value for embedding hosts.
//
//	Bool → bool, Int → int64, Float → float64, Numeric → decimal.Decimal,
//	Text → string, UUID → string, Date/Timestamp → time.Time,
//	JSON/JSONB → map[string]any / []any / string / bool / json.Number / nil
func (v Value) Go() any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case KindUUID:
		return v.raw.(uuid.UUID).String()
	case KindJSON, KindJSONB:
		return exportDoc(v.raw)
	}
	return v.raw
}

// FromGo builds a Value from a Go value passed in by a host.
func FromGo(x any) (Value, bool) {
	switch t := x.(type) {
	case nil:
		return NullValue, true
	case Value:
		return t, true
	case bool:
		return BoolValue(t), true
	case int:
		return IntValue(int64(t)), true
	case int32:
		return IntValue(int64(t)), true
	case int64:
		return IntValue(t), true
	case float32:
		return FloatValue(float64(t)), true
	case float64:
		return FloatValue(t), true
	case string:
		return TextValue(t), true
	case decimal.Decimal:
		return NumericValue(t), true
	case uuid.UUID:
		return UUIDValue(t), true
	case time.Time:
		return TimestampValue(t), true
	case json.Number, map[string]any, []any:
		return JSONBValue(t), true
	}
	return Value{}, false
}
