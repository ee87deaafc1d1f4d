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
Package types implements the FlyMem type system.

Type System Overview:
=====================

Every value flowing through the engine is a Value: a raw Go datum paired
with its Type. Types are immutable singletons (Bool, Int, Float, Numeric,
Text, UUID, Date, Timestamp, JSON, JSONB and the Null type of an untyped
NULL literal). Text additionally exists once per collation.

Each Type knows how to order and compare two non-null raw values of its
own kind. Cross-type behavior lives in package functions:

	Convert(v, to)   explicit or implicit conversion, CastError on failure
	Compare(a, b)    Less / Equal / Greater, or Unknown when a side is NULL
	Equals(a, b)     True / False, or Unknown when a side is NULL
	SortCompare(...) the total order used by ORDER BY, with NULL placement

Raw Representations:
====================

	Bool       bool
	Int        int64
	Float      float64
	Numeric    decimal.Decimal (github.com/shopspring/decimal)
	Text       string
	UUID       uuid.UUID (github.com/google/uuid)
	Date       time.Time, UTC midnight
	Timestamp  time.Time, UTC
	JSON/JSONB JSON document tree (see jsonb.go)

A nil raw value is SQL NULL. The JSON null document is the JSONNull
sentinel, so the two can never be confused.

JSONB Ordering:
===============

JSON documents are ordered by a type rank first and structurally within a
rank, following PostgreSQL's jsonb btree ordering:

	[] (top level) < null < boolean < number < string < array < object

Arrays compare by length, then element by element. Objects compare by
key count, then by the values of keys present in both, then by key names.
*/
package types

import (
	"strings"
)

// Kind is the resolved type enum used by planners.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindNumeric
	KindText
	KindUUID
	KindDate
	KindTimestamp
	KindJSON
	KindJSONB
)

var kindNames = [...]string{
	KindNull:      "unknown",
	KindBool:      "boolean",
	KindInt:       "integer",
	KindFloat:     "double precision",
	KindNumeric:   "numeric",
	KindText:      "text",
	KindUUID:      "uuid",
	KindDate:      "date",
	KindTimestamp: "timestamp",
	KindJSON:      "json",
	KindJSONB:     "jsonb",
}

// String returns the SQL name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// IsNumeric reports whether values of the kind take part in arithmetic.
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindFloat || k == KindNumeric
}

// IsJSON reports whether the kind is json or jsonb.
func (k Kind) IsJSON() bool {
	return k == KindJSON || k == KindJSONB
}

// Type describes a data kind: its name and the ordering of its values.
//
// Compare and Equal are only called with non-null raw values of the type
// itself. Compare returns 0 exactly when Equal returns true, and Key
// returns equal strings exactly for equal values.
type Type interface {
	Kind() Kind
	Name() string
	Compare(a, b any) int
	Equal(a, b any) bool
	Key(v any) string
	Format(v any) string
}

// Singleton types.
var (
	Null      Type = nullType{}
	Bool      Type = boolType{}
	Int       Type = intType{}
	Float     Type = floatType{}
	Numeric   Type = numericType{}
	Text      Type = &textType{coll: DefaultCollator}
	UUID      Type = uuidType{}
	Date      Type = dateType{}
	Timestamp Type = timestampType{}
	JSON      Type = jsonType{binary: false}
	JSONB     Type = jsonType{binary: true}
)

// TextWithCollation returns the Text type using collator c.
func TextWithCollation(c Collator) Type {
	if c == nil || c == DefaultCollator {
		return Text
	}
	return &textType{coll: c}
}

// CollatorOf returns the collator of a text type, or the default collator
// for every other type.
func CollatorOf(t Type) Collator {
	if tt, ok := t.(*textType); ok {
		return tt.coll
	}
	return DefaultCollator
}

// typeNames maps SQL type names (and their aliases) to kinds.
var typeNames = map[string]Kind{
	"INT":               KindInt,
	"INTEGER":           KindInt,
	"INT2":              KindInt,
	"INT4":              KindInt,
	"INT8":              KindInt,
	"SMALLINT":          KindInt,
	"BIGINT":            KindInt,
	"SERIAL":            KindInt,
	"BIGSERIAL":         KindInt,
	"SMALLSERIAL":       KindInt,
	"FLOAT":             KindFloat,
	"FLOAT4":            KindFloat,
	"FLOAT8":            KindFloat,
	"REAL":              KindFloat,
	"DOUBLE":            KindFloat,
	"DOUBLE PRECISION":  KindFloat,
	"DECIMAL":           KindNumeric,
	"NUMERIC":           KindNumeric,
	"TEXT":              KindText,
	"VARCHAR":           KindText,
	"CHAR":              KindText,
	"CHARACTER":         KindText,
	"CHARACTER VARYING": KindText,
	"BOOL":              KindBool,
	"BOOLEAN":           KindBool,
	"UUID":              KindUUID,
	"DATE":              KindDate,
	"TIMESTAMP":         KindTimestamp,
	"TIMESTAMPTZ":       KindTimestamp,
	"DATETIME":          KindTimestamp,
	"JSON":              KindJSON,
	"JSONB":             KindJSONB,
}

// IsSerial reports whether a type name declares an auto-increment column.
func IsSerial(name string) bool {
	switch strings.ToUpper(name) {
	case "SERIAL", "BIGSERIAL", "SMALLSERIAL":
		return true
	}
	return false
}

// ByName resolves a SQL type name. Text types get collator c.
func ByName(name string, c Collator) (Type, bool) {
	kind, ok := typeNames[strings.ToUpper(strings.Join(strings.Fields(name), " "))]
	if !ok {
		return nil, false
	}
	if kind == KindText {
		return TextWithCollation(c), true
	}
	return ByKind(kind), true
}

// ByKind returns the singleton type of a kind.
func ByKind(k Kind) Type {
	switch k {
	case KindBool:
		return Bool
	case KindInt:
		return Int
	case KindFloat:
		return Float
	case KindNumeric:
		return Numeric
	case KindText:
		return Text
	case KindUUID:
		return UUID
	case KindDate:
		return Date
	case KindTimestamp:
		return Timestamp
	case KindJSON:
		return JSON
	case KindJSONB:
		return JSONB
	default:
		return Null
	}
}

// numericRank orders the numeric kinds by width for promotion.
func numericRank(k Kind) int {
	switch k {
	case KindInt:
		return 1
	case KindNumeric:
		return 2
	case KindFloat:
		return 3
	}
	return 0
}

// Unify returns the type both operands of a comparison or arithmetic
// operator are converted to. It reports false when no implicit path
// exists.
func Unify(a, b Type) (Type, bool) {
	ka, kb := a.Kind(), b.Kind()
	switch {
	case ka == kb:
		if ka == KindText && CollatorOf(a) == DefaultCollator {
			return b, true
		}
		return a, true
	case ka == KindNull:
		return b, true
	case kb == KindNull:
		return a, true
	case ka.IsNumeric() && kb.IsNumeric():
		if numericRank(ka) >= numericRank(kb) {
			return a, true
		}
		return b, true
	case (ka == KindDate && kb == KindTimestamp) || (ka == KindTimestamp && kb == KindDate):
		return Timestamp, true
	case ka.IsJSON() && kb.IsJSON():
		return JSONB, true
	}
	return nil, false
}

// CanAssign reports whether values of from may be stored into a column of
// type to without an explicit cast.
func CanAssign(from, to Type) bool {
	fk, tk := from.Kind(), to.Kind()
	if fk == tk || fk == KindNull {
		return true
	}
	if fk.IsNumeric() && tk.IsNumeric() {
		return true
	}
	if tk == KindText {
		return true
	}
	if fk.IsJSON() && tk.IsJSON() {
		return true
	}
	return (fk == KindDate && tk == KindTimestamp) || (fk == KindTimestamp && tk == KindDate)
}

// CanCast reports whether an explicit CAST from one type to another has a
// conversion path. Data dependent failures are still possible.
func CanCast(from, to Type) bool {
	fk, tk := from.Kind(), to.Kind()
	if fk == tk || fk == KindNull || fk == KindText || tk == KindText {
		return true
	}
	switch fk {
	case KindBool:
		return tk == KindInt || tk.IsJSON()
	case KindInt:
		return tk.IsNumeric() || tk == KindBool || tk.IsJSON()
	case KindFloat, KindNumeric:
		return tk.IsNumeric() || tk.IsJSON()
	case KindDate, KindTimestamp:
		return tk == KindDate || tk == KindTimestamp
	case KindJSON, KindJSONB:
		return tk.IsJSON() || tk.IsNumeric() || tk == KindBool
	}
	return false
}
