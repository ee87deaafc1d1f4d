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
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ferrors "flymem/internal/errors"
)

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

func castError(v Value, to Type) error {
	return ferrors.CastError(v.String(), v.Type().Name(), to.Name())
}

// Convert converts v to type to. NULL converts to NULL of the target type.
// A conversion without a defined path, or input that does not parse, fails
// with a CastError.
func Convert(v Value, to Type) (Value, error) {
	if v.IsNull() {
		return NullOf(to), nil
	}
	from := v.Kind()
	if from == to.Kind() {
		return NewValue(to, v.raw), nil
	}
	if to.Kind() == KindText {
		return NewValue(to, v.Type().Format(v.raw)), nil
	}

	switch from {
	case KindText:
		return convertText(v, to)
	case KindBool:
		return convertBool(v, to)
	case KindInt:
		return convertInt(v, to)
	case KindFloat:
		return convertFloat(v, to)
	case KindNumeric:
		return convertNumeric(v, to)
	case KindDate, KindTimestamp:
		return convertTime(v, to)
	case KindJSON, KindJSONB:
		return convertJSON(v, to)
	}
	return Value{}, castError(v, to)
}

func convertText(v Value, to Type) (Value, error) {
	s := v.Text()
	switch to.Kind() {
	case KindBool:
		if b, ok := parseBool(s); ok {
			return BoolValue(b), nil
		}
	case KindInt:
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return IntValue(i), nil
		}
	case KindFloat:
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return FloatValue(f), nil
		}
	case KindNumeric:
		if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
			return NumericValue(d), nil
		}
	case KindUUID:
		if u, err := uuid.Parse(strings.TrimSpace(s)); err == nil {
			return UUIDValue(u), nil
		}
	case KindDate:
		if t, ok := parseTimestamp(s); ok {
			return DateValue(t), nil
		}
	case KindTimestamp:
		if t, ok := parseTimestamp(s); ok {
			return TimestampValue(t), nil
		}
	case KindJSON, KindJSONB:
		doc, err := ParseJSON(s)
		if err != nil {
			return Value{}, err
		}
		return NewValue(to, doc), nil
	}
	return Value{}, castError(v, to)
}

func convertBool(v Value, to Type) (Value, error) {
	switch to.Kind() {
	case KindInt:
		if v.Bool() {
			return IntValue(1), nil
		}
		return IntValue(0), nil
	case KindJSON, KindJSONB:
		return NewValue(to, v.Bool()), nil
	}
	return Value{}, castError(v, to)
}

func convertInt(v Value, to Type) (Value, error) {
	i := v.Int()
	switch to.Kind() {
	case KindBool:
		return BoolValue(i != 0), nil
	case KindFloat:
		return FloatValue(float64(i)), nil
	case KindNumeric:
		return NumericValue(decimal.NewFromInt(i)), nil
	case KindJSON, KindJSONB:
		return NewValue(to, json.Number(strconv.FormatInt(i, 10))), nil
	}
	return Value{}, castError(v, to)
}

func convertFloat(v Value, to Type) (Value, error) {
	f := v.Float()
	switch to.Kind() {
	case KindInt:
		r := math.RoundToEven(f)
		if math.IsNaN(r) || r < math.MinInt64 || r >= math.MaxInt64 {
			return Value{}, ferrors.Overflow("integer")
		}
		return IntValue(int64(r)), nil
	case KindNumeric:
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, castError(v, to)
		}
		return NumericValue(decimal.NewFromFloat(f)), nil
	case KindJSON, KindJSONB:
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, castError(v, to)
		}
		return NewValue(to, json.Number(strconv.FormatFloat(f, 'g', -1, 64))), nil
	}
	return Value{}, castError(v, to)
}

func convertNumeric(v Value, to Type) (Value, error) {
	d := v.Decimal()
	switch to.Kind() {
	case KindInt:
		r := d.Round(0)
		if r.LessThan(minInt64) || r.GreaterThan(maxInt64) {
			return Value{}, ferrors.Overflow("integer")
		}
		return IntValue(r.IntPart()), nil
	case KindFloat:
		f, _ := d.Float64()
		return FloatValue(f), nil
	case KindJSON, KindJSONB:
		return NewValue(to, json.Number(d.String())), nil
	}
	return Value{}, castError(v, to)
}

func convertTime(v Value, to Type) (Value, error) {
	switch to.Kind() {
	case KindDate:
		return DateValue(v.Time()), nil
	case KindTimestamp:
		return TimestampValue(v.Time()), nil
	}
	return Value{}, castError(v, to)
}

func convertJSON(v Value, to Type) (Value, error) {
	doc := v.raw
	switch to.Kind() {
	case KindJSON, KindJSONB:
		return NewValue(to, doc), nil
	case KindBool:
		if b, ok := doc.(bool); ok {
			return BoolValue(b), nil
		}
	case KindInt, KindFloat, KindNumeric:
		if d, ok := jsonScalarNumber(doc); ok {
			return Convert(NumericValue(d), to)
		}
	}
	return Value{}, ferrors.CastError(v.String(), "jsonb "+JSONTypeOf(doc), to.Name())
}
