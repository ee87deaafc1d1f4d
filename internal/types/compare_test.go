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
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func mustJSONB(t *testing.T, text string) Value {
	t.Helper()
	doc, err := ParseJSON(text)
	if err != nil {
		t.Fatalf("ParseJSON(%q): %v", text, err)
	}
	return NewValue(JSONB, doc)
}

func holds(op string, o Ordering) bool {
	switch op {
	case "<":
		return o == Less
	case "<=":
		return o == Less || o == Equal
	case ">":
		return o == Greater
	case ">=":
		return o == Greater || o == Equal
	case "=":
		return o == Equal
	}
	panic("unknown operator " + op)
}

func TestJSONBStructuralOrdering(t *testing.T) {
	tests := []struct {
		left  string
		op    string
		right string
		want  bool
	}{
		{`{}`, ">", `[]`, true},
		{`{}`, ">", `1`, true},
		{`[]`, "<", `1`, true},
		{`{"a":"b"}`, ">", `{"a":"a"}`, true},
		{`{"a":"a","b":"c"}`, ">=", `{"a":"a"}`, true},
		{`{}`, ">=", `null`, true},
		{`1`, ">=", `null`, true},
		{`[]`, "<", `null`, true},
		{`[1,2]`, ">", `[1]`, true},
		{`[2,2]`, ">", `[1,2]`, true},
		{`null`, "=", `null`, true},

		{`{"a":"a"}`, ">", `{"a":"a"}`, false},
		{`{}`, "<", `[]`, false},
		{`[]`, ">=", `null`, false},
		{`[1,2]`, ">", `[1,2,3]`, false},
		{`[2,2]`, ">", `[1,2,3]`, false},
		{`[2,2]`, "=", `null`, false},

		{`true`, ">", `false`, true},
		{`"b"`, ">", `"a"`, true},
		{`1.0`, "=", `1`, true},
		{`"1"`, ">", `1`, true},
		{`[[]]`, ">", `[null]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.left+tt.op+tt.right, func(t *testing.T) {
			o := Compare(mustJSONB(t, tt.left), mustJSONB(t, tt.right))
			if got := holds(tt.op, o); got != tt.want {
				t.Errorf("%s %s %s = %v (ordering %v), want %v", tt.left, tt.op, tt.right, got, o, tt.want)
			}
		})
	}
}

func TestJSONBEqualityMatchesOrdering(t *testing.T) {
	docs := []string{`null`, `[]`, `{}`, `1`, `1.50`, `1.5`, `"x"`, `[1,{"a":null}]`, `{"b":1,"a":2}`, `{"a":2,"b":1}`}
	for _, a := range docs {
		for _, b := range docs {
			va, vb := mustJSONB(t, a), mustJSONB(t, b)
			eq := Equals(va, vb) == True
			if eq != (Compare(va, vb) == Equal) {
				t.Errorf("%s vs %s: Equals and Compare disagree", a, b)
			}
			if eq != (va.Key() == vb.Key()) {
				t.Errorf("%s vs %s: Key and Equals disagree", a, b)
			}
		}
	}
}

func TestNullComparisonIsUnknown(t *testing.T) {
	values := []Value{
		IntValue(1),
		FloatValue(1.5),
		NumericValue(decimal.RequireFromString("2.5")),
		TextValue("a"),
		BoolValue(true),
		UUIDValue(uuid.New()),
		TimestampValue(time.Now()),
		JSONBValue(map[string]any{"a": 1}),
		NewValue(JSONB, JSONNull),
	}
	nulls := []Value{NullValue, NullOf(Int), NullOf(JSONB)}

	for _, v := range values {
		for _, n := range nulls {
			if o := Compare(v, n); o != Unknown {
				t.Errorf("Compare(%v, NULL %s) = %v, want UNKNOWN", v, n.Type().Name(), o)
			}
			if o := Compare(n, v); o != Unknown {
				t.Errorf("Compare(NULL, %v) = %v, want UNKNOWN", v, o)
			}
			if e := Equals(v, n); e != Maybe {
				t.Errorf("Equals(%v, NULL) = %v, want UNKNOWN", v, e)
			}
		}
	}
}

func TestJSONNullIsNotSQLNull(t *testing.T) {
	v := mustJSONB(t, "null")
	if v.IsNull() {
		t.Fatal("json null must not be SQL NULL")
	}
	if Equals(v, mustJSONB(t, "null")) != True {
		t.Error("json null should equal json null")
	}
}

func TestCrossNumericComparison(t *testing.T) {
	tests := []struct {
		a, b Value
		want Ordering
	}{
		{IntValue(1), FloatValue(1.0), Equal},
		{IntValue(2), NumericValue(decimal.RequireFromString("1.5")), Greater},
		{NumericValue(decimal.RequireFromString("0.1")), FloatValue(0.2), Less},
		{DateValue(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)), TimestampValue(time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC)), Less},
	}
	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func sortTexts(values []Value, key SortKey) []string {
	sort.SliceStable(values, func(i, j int) bool {
		return SortCompare(values[i], values[j], key) < 0
	})
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}

func TestSortCompareNullPlacement(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		name string
		key  SortKey
		want []string
	}{
		{"asc", SortKey{}, []string{"a", "b", "NULL"}},
		{"desc", SortKey{Descending: true}, []string{"NULL", "b", "a"}},
		{"desc nulls last", SortKey{Descending: true, NullsFirst: &no}, []string{"b", "a", "NULL"}},
		{"desc nulls first", SortKey{Descending: true, NullsFirst: &yes}, []string{"NULL", "b", "a"}},
		{"asc nulls first", SortKey{NullsFirst: &yes}, []string{"NULL", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := []Value{TextValue("b"), TextValue("a"), NullOf(Text)}
			got := sortTexts(values, tt.key)
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestTriboolLogic(t *testing.T) {
	if True.And(Maybe) != Maybe || False.And(Maybe) != False {
		t.Error("AND truth table broken")
	}
	if True.Or(Maybe) != True || False.Or(Maybe) != Maybe {
		t.Error("OR truth table broken")
	}
	if Maybe.Not() != Maybe || True.Not() != False {
		t.Error("NOT truth table broken")
	}
	if !Maybe.Value().IsNull() || !True.Value().Bool() {
		t.Error("Tribool.Value conversion broken")
	}
}

func TestIsDistinctFrom(t *testing.T) {
	if IsDistinctFrom(NullValue, NullOf(Int)) {
		t.Error("two NULLs are not distinct")
	}
	if !IsDistinctFrom(NullValue, IntValue(1)) {
		t.Error("NULL is distinct from 1")
	}
	if IsDistinctFrom(IntValue(1), FloatValue(1)) {
		t.Error("1 and 1.0 are not distinct")
	}
}
