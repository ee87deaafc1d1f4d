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
	"testing"

	"github.com/shopspring/decimal"

	ferrors "flymem/internal/errors"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		to   Type
		want string
	}{
		{"text to int", TextValue(" 42 "), Int, "42"},
		{"text to float", TextValue("1.5"), Float, "1.5"},
		{"text to numeric", TextValue("10.250"), Numeric, "10.25"},
		{"text to bool", TextValue("yes"), Bool, "true"},
		{"text to uuid", TextValue("A0EEBC99-9C0B-4EF8-BB6D-6BB9BD380A11"), UUID, "a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11"},
		{"text to date", TextValue("2024-03-05 10:11:12"), Date, "2024-03-05"},
		{"text to timestamp", TextValue("2024-03-05T10:11:12Z"), Timestamp, "2024-03-05 10:11:12"},
		{"text to jsonb", TextValue(`{"b":[1, 2],"a":null}`), JSONB, `{"a": null, "b": [1, 2]}`},
		{"int to text", IntValue(-7), Text, "-7"},
		{"int to bool", IntValue(0), Bool, "false"},
		{"float to int rounds to even", FloatValue(2.5), Int, "2"},
		{"numeric to int rounds away", NumericValue(decimal.RequireFromString("2.5")), Int, "3"},
		{"bool to int", BoolValue(true), Int, "1"},
		{"jsonb to json", JSONBValue(map[string]any{}), JSON, "{}"},
		{"jsonb to text", JSONBValue([]any{"x", true}), Text, `["x", true]`},
		{"null stays null", NullValue, Int, "NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.in, tt.to)
			if err != nil {
				t.Fatalf("Convert: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %q, want %q", got.String(), tt.want)
			}
			if !got.IsNull() && got.Kind() != tt.to.Kind() {
				t.Errorf("got kind %v, want %v", got.Kind(), tt.to.Kind())
			}
		})
	}
}

func TestConvertJSONScalars(t *testing.T) {
	doc, err := ParseJSON("12.7")
	if err != nil {
		t.Fatal(err)
	}
	v, err := Convert(NewValue(JSONB, doc), Int)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if v.Int() != 13 {
		t.Errorf("got %d, want 13", v.Int())
	}

	if _, err := Convert(JSONBValue(map[string]any{"a": 1}), Int); !ferrors.IsCastError(err) {
		t.Errorf("object to int should be a cast error, got %v", err)
	}
}

func TestConvertFailures(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		to   Type
	}{
		{"bad int", TextValue("abc"), Int},
		{"bad bool", TextValue("maybe"), Bool},
		{"bad uuid", TextValue("not-a-uuid"), UUID},
		{"bad json", TextValue("{"), JSONB},
		{"trailing json", TextValue("1 2"), JSONB},
		{"bad date", TextValue("yesterday"), Date},
		{"uuid to int", UUIDValue([16]byte{}), Int},
		{"float overflow", FloatValue(1e300), Int},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert(tt.in, tt.to)
			if !ferrors.IsCastError(err) {
				t.Errorf("expected cast error, got %v", err)
			}
		})
	}
}

func TestCastAndUnifyRules(t *testing.T) {
	if !CanCast(Text, UUID) || CanCast(UUID, Int) {
		t.Error("CanCast rules broken for uuid")
	}
	if u, ok := Unify(Int, Float); !ok || u.Kind() != KindFloat {
		t.Errorf("Unify(int, float) = %v, %v", u, ok)
	}
	if u, ok := Unify(Int, Numeric); !ok || u.Kind() != KindNumeric {
		t.Errorf("Unify(int, numeric) = %v, %v", u, ok)
	}
	if _, ok := Unify(Int, Text); ok {
		t.Error("int and text must not unify implicitly")
	}
	if !CanAssign(Int, Text) || CanAssign(Text, Int) {
		t.Error("CanAssign rules broken")
	}
}

func TestByName(t *testing.T) {
	tests := map[string]Kind{
		"int":               KindInt,
		"BIGSERIAL":         KindInt,
		"double  precision": KindFloat,
		"varchar":           KindText,
		"jsonb":             KindJSONB,
		"timestamptz":       KindTimestamp,
	}
	for name, want := range tests {
		typ, ok := ByName(name, nil)
		if !ok || typ.Kind() != want {
			t.Errorf("ByName(%q) = %v, %v; want %v", name, typ, ok, want)
		}
	}
	if _, ok := ByName("geometry", nil); ok {
		t.Error("unknown type resolved")
	}
}

func TestCollations(t *testing.T) {
	nocase, err := NewCollator(CollationNocase, "")
	if err != nil {
		t.Fatal(err)
	}
	ci := TextWithCollation(nocase)
	a, b := NewValue(ci, "Hello"), NewValue(ci, "hello")
	if Equals(a, b) != True || a.Key() != b.Key() {
		t.Error("nocase collation should treat case variants as equal")
	}

	uc, err := NewCollator(CollationUnicode, "en_US")
	if err != nil {
		t.Fatal(err)
	}
	en := TextWithCollation(uc)
	if Compare(NewValue(en, "apple"), NewValue(en, "Banana")) != Less {
		t.Error("unicode collation should order alphabetically across case")
	}
	if Compare(TextValue("apple"), TextValue("Banana")) != Greater {
		t.Error("default collation should compare code points")
	}

	if _, err := NewCollator("klingon", ""); err == nil {
		t.Error("unknown collation accepted")
	}
}
