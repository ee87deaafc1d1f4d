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

// Ordering is the result of a three-way comparison under SQL semantics.
type Ordering int8

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
	Unknown Ordering = 2
)

// String returns the name of the ordering.
func (o Ordering) String() string {
	switch o {
	case Less:
		return "LESS"
	case Equal:
		return "EQUAL"
	case Greater:
		return "GREATER"
	}
	return "UNKNOWN"
}

// Tribool is a three-valued logic truth value.
type Tribool int8

const (
	False Tribool = iota
	True
	Maybe
)

// TriboolOf converts a Go bool.
func TriboolOf(b bool) Tribool {
	if b {
		return True
	}
	return False
}

// String returns the name of the truth value.
func (t Tribool) String() string {
	switch t {
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	}
	return "UNKNOWN"
}

// Value converts the truth value into a boolean Value, NULL for Maybe.
func (t Tribool) Value() Value {
	if t == Maybe {
		return NullOf(Bool)
	}
	return BoolValue(t == True)
}

// TriboolFromValue reads a boolean Value. NULL yields Maybe.
func TriboolFromValue(v Value) Tribool {
	if v.IsNull() {
		return Maybe
	}
	return TriboolOf(v.Bool())
}

// Not negates under three-valued logic.
func (t Tribool) Not() Tribool {
	switch t {
	case True:
		return False
	case False:
		return True
	}
	return Maybe
}

// And combines under three-valued logic: false wins over unknown.
func (t Tribool) And(o Tribool) Tribool {
	if t == False || o == False {
		return False
	}
	if t == True && o == True {
		return True
	}
	return Maybe
}

// Or combines under three-valued logic: true wins over unknown.
func (t Tribool) Or(o Tribool) Tribool {
	if t == True || o == True {
		return True
	}
	if t == False && o == False {
		return False
	}
	return Maybe
}

// unifyValues brings two non-null values to a common type. When no
// implicit path exists both are returned unchanged.
func unifyValues(a, b Value) (Value, Value, Type) {
	if a.Kind() == b.Kind() {
		t, _ := Unify(a.Type(), b.Type())
		return a, b, t
	}
	t, ok := Unify(a.Type(), b.Type())
	if !ok {
		return a, b, nil
	}
	ca, errA := Convert(a, t)
	cb, errB := Convert(b, t)
	if errA != nil || errB != nil {
		return a, b, nil
	}
	return ca, cb, t
}

// Compare orders a and b. Either side being SQL NULL yields Unknown.
// Operands of different kinds are unified first; kinds without a common
// type are ordered by kind so that the result is still deterministic.
func Compare(a, b Value) Ordering {
	if a.IsNull() || b.IsNull() {
		return Unknown
	}
	return Ordering(compareNonNull(a, b))
}

func compareNonNull(a, b Value) int {
	ua, ub, t := unifyValues(a, b)
	if t == nil {
		ka, kb := a.Kind(), b.Kind()
		if ka < kb {
			return -1
		}
		return 1
	}
	return t.Compare(ua.raw, ub.raw)
}

// Equals tests a and b for equality. Either side being SQL NULL yields
// Maybe.
func Equals(a, b Value) Tribool {
	if a.IsNull() || b.IsNull() {
		return Maybe
	}
	ua, ub, t := unifyValues(a, b)
	if t == nil {
		return False
	}
	return TriboolOf(t.Equal(ua.raw, ub.raw))
}

// IsDistinctFrom tests NULL-safe inequality: two NULLs are not distinct.
func IsDistinctFrom(a, b Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() != b.IsNull()
	}
	return Equals(a, b) != True
}

// SortKey describes one ORDER BY key's direction and NULL placement.
type SortKey struct {
	Descending bool
	// NullsFirst overrides the default placement when set. The default
	// puts NULL last for ascending and first for descending order.
	NullsFirst *bool
}

// NullsSortFirst reports where NULLs of this key are placed.
func (k SortKey) NullsSortFirst() bool {
	if k.NullsFirst != nil {
		return *k.NullsFirst
	}
	return k.Descending
}

// SortCompare is the total order used by ORDER BY. NULL is an extreme
// placed per the key; non-null values are compared and the direction
// applied. NULL placement is not affected by the direction.
func SortCompare(a, b Value, key SortKey) int {
	an, bn := a.IsNull(), b.IsNull()
	switch {
	case an && bn:
		return 0
	case an:
		if key.NullsSortFirst() {
			return -1
		}
		return 1
	case bn:
		if key.NullsSortFirst() {
			return 1
		}
		return -1
	}
	c := compareNonNull(a, b)
	if key.Descending {
		return -c
	}
	return c
}
