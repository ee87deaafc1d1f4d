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
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	timestampLayout = "2006-01-02 15:04:05.999999"
	dateLayout      = "2006-01-02"
)

func cmp3[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// nullType is the type of an untyped NULL literal. It has no non-null
// values, so its comparison methods are never reached.
type nullType struct{}

func (nullType) Kind() Kind           { return KindNull }
func (nullType) Name() string         { return "unknown" }
func (nullType) Compare(a, b any) int { return 0 }
func (nullType) Equal(a, b any) bool  { return true }
func (nullType) Key(v any) string     { return "" }
func (nullType) Format(v any) string  { return "" }

type boolType struct{}

func (boolType) Kind() Kind   { return KindBool }
func (boolType) Name() string { return "boolean" }

func (boolType) Compare(a, b any) int {
	x, y := a.(bool), b.(bool)
	switch {
	case x == y:
		return 0
	case !x:
		return -1
	}
	return 1
}

func (boolType) Equal(a, b any) bool { return a.(bool) == b.(bool) }
func (t boolType) Key(v any) string  { return t.Format(v) }

func (boolType) Format(v any) string {
	if v.(bool) {
		return "true"
	}
	return "false"
}

type intType struct{}

func (intType) Kind() Kind           { return KindInt }
func (intType) Name() string         { return "integer" }
func (intType) Compare(a, b any) int { return cmp3(a.(int64), b.(int64)) }
func (intType) Equal(a, b any) bool  { return a.(int64) == b.(int64) }
func (intType) Key(v any) string     { return strconv.FormatInt(v.(int64), 10) }
func (intType) Format(v any) string  { return strconv.FormatInt(v.(int64), 10) }

// floatType follows PostgreSQL in treating NaN as equal to itself and
// greater than every other value, which keeps the order total.
type floatType struct{}

func (floatType) Kind() Kind   { return KindFloat }
func (floatType) Name() string { return "double precision" }

func (floatType) Compare(a, b any) int {
	x, y := a.(float64), b.(float64)
	xn, yn := math.IsNaN(x), math.IsNaN(y)
	switch {
	case xn && yn:
		return 0
	case xn:
		return 1
	case yn:
		return -1
	}
	return cmp3(x, y)
}

func (t floatType) Equal(a, b any) bool { return t.Compare(a, b) == 0 }

func (floatType) Key(v any) string {
	f := v.(float64)
	if f == 0 {
		f = 0 // fold -0
	}
	if math.IsNaN(f) {
		return "NaN"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (floatType) Format(v any) string {
	f := v.(float64)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

type numericType struct{}

func (numericType) Kind() Kind           { return KindNumeric }
func (numericType) Name() string         { return "numeric" }
func (numericType) Compare(a, b any) int { return a.(decimal.Decimal).Cmp(b.(decimal.Decimal)) }
func (numericType) Equal(a, b any) bool  { return a.(decimal.Decimal).Equal(b.(decimal.Decimal)) }
func (numericType) Key(v any) string     { return v.(decimal.Decimal).String() }
func (numericType) Format(v any) string  { return v.(decimal.Decimal).String() }

type textType struct {
	coll Collator
}

func (t *textType) Kind() Kind { return KindText }

func (t *textType) Name() string {
	if t.coll.Name() == CollationDefault {
		return "text"
	}
	return "text collate " + string(t.coll.Name())
}

func (t *textType) Compare(a, b any) int { return t.coll.Compare(a.(string), b.(string)) }
func (t *textType) Equal(a, b any) bool  { return t.Compare(a, b) == 0 }
func (t *textType) Key(v any) string     { return t.coll.Key(v.(string)) }
func (t *textType) Format(v any) string  { return v.(string) }

type uuidType struct{}

func (uuidType) Kind() Kind   { return KindUUID }
func (uuidType) Name() string { return "uuid" }

func (uuidType) Compare(a, b any) int {
	x, y := a.(uuid.UUID), b.(uuid.UUID)
	return bytes.Compare(x[:], y[:])
}

func (uuidType) Equal(a, b any) bool { return a.(uuid.UUID) == b.(uuid.UUID) }
func (uuidType) Key(v any) string    { return v.(uuid.UUID).String() }
func (uuidType) Format(v any) string { return v.(uuid.UUID).String() }

type dateType struct{}

func (dateType) Kind() Kind           { return KindDate }
func (dateType) Name() string         { return "date" }
func (dateType) Compare(a, b any) int { return a.(time.Time).Compare(b.(time.Time)) }
func (dateType) Equal(a, b any) bool  { return a.(time.Time).Equal(b.(time.Time)) }
func (dateType) Key(v any) string     { return strconv.FormatInt(v.(time.Time).Unix(), 10) }
func (dateType) Format(v any) string  { return v.(time.Time).Format(dateLayout) }

type timestampType struct{}

func (timestampType) Kind() Kind           { return KindTimestamp }
func (timestampType) Name() string         { return "timestamp" }
func (timestampType) Compare(a, b any) int { return a.(time.Time).Compare(b.(time.Time)) }
func (timestampType) Equal(a, b any) bool  { return a.(time.Time).Equal(b.(time.Time)) }

func (timestampType) Key(v any) string {
	t := v.(time.Time)
	return strconv.FormatInt(t.Unix(), 10) + "." + strconv.Itoa(t.Nanosecond())
}

func (timestampType) Format(v any) string { return v.(time.Time).UTC().Format(timestampLayout) }

// jsonType serves both json and jsonb. The engine keeps json documents in
// the same decoded form as jsonb, so both order and compare alike.
type jsonType struct {
	binary bool
}

func (t jsonType) Kind() Kind {
	if t.binary {
		return KindJSONB
	}
	return KindJSON
}

func (t jsonType) Name() string {
	if t.binary {
		return "jsonb"
	}
	return "json"
}

func (jsonType) Compare(a, b any) int { return CompareJSON(a, b) }
func (jsonType) Equal(a, b any) bool  { return CompareJSON(a, b) == 0 }
func (jsonType) Key(v any) string     { return canonicalJSON(v) }
func (jsonType) Format(v any) string  { return FormatJSON(v) }

// parseBool accepts the PostgreSQL boolean spellings.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t", "true", "y", "yes", "on", "1":
		return true, true
	case "f", "false", "n", "no", "off", "0":
		return false, true
	}
	return false, false
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	dateLayout,
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func truncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
