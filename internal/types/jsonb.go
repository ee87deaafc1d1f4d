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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	ferrors "flymem/internal/errors"
)

/*
JSON Document Representation:
=============================

Documents are decoded with json.Decoder.UseNumber so that numbers keep
their exact text:

	null     JSONNull at the top level, nil when nested
	boolean  bool
	number   json.Number
	string   string
	array    []any
	object   map[string]any

Structural Ordering:
====================

	rank 0  empty array at the top level
	rank 1  null
	rank 2  boolean   false < true
	rank 3  number    exact decimal comparison
	rank 4  string    byte-wise
	rank 5  array     length first, then element by element
	rank 6  object    key count first, then (key, value) pairs in key order

Keys are visited shortest first and then byte-wise, the order in which
PostgreSQL stores jsonb object keys.
*/

type jsonNull struct{}

// JSONNull is the JSON null document. It is a non-null SQL value.
var JSONNull any = jsonNull{}

const (
	rankEmptyTopArray = iota
	rankNull
	rankBool
	rankNumber
	rankString
	rankArray
	rankObject
)

// ParseJSON decodes a JSON text into a document tree.
func ParseJSON(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, ferrors.InvalidJSON(err.Error())
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, ferrors.InvalidJSON("unexpected data after the JSON value")
	}
	return normalizeDoc(doc), nil
}

// normalizeDoc converts host values into the document representation.
func normalizeDoc(doc any) any {
	doc = normalizeNode(doc)
	if doc == nil {
		return JSONNull
	}
	return doc
}

func normalizeNode(n any) any {
	switch t := n.(type) {
	case jsonNull:
		return nil
	case int:
		return json.Number(strconv.Itoa(t))
	case int64:
		return json.Number(strconv.FormatInt(t, 10))
	case float64:
		return json.Number(strconv.FormatFloat(t, 'g', -1, 64))
	case decimal.Decimal:
		return json.Number(t.String())
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeNode(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeNode(e)
		}
		return out
	}
	return n
}

// exportDoc converts a document for a host, turning JSONNull into nil.
func exportDoc(doc any) any {
	if _, ok := doc.(jsonNull); ok {
		return nil
	}
	return doc
}

func jsonRank(n any, top bool) int {
	switch t := n.(type) {
	case nil, jsonNull:
		return rankNull
	case bool:
		return rankBool
	case json.Number:
		return rankNumber
	case string:
		return rankString
	case []any:
		if top && len(t) == 0 {
			return rankEmptyTopArray
		}
		return rankArray
	case map[string]any:
		return rankObject
	}
	return rankNull
}

// CompareJSON orders two documents structurally.
func CompareJSON(a, b any) int {
	return compareNode(a, b, true)
}

func compareNode(a, b any, top bool) int {
	ra, rb := jsonRank(a, top), jsonRank(b, top)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch ra {
	case rankBool:
		return boolType{}.Compare(a, b)
	case rankNumber:
		return compareNumbers(a.(json.Number), b.(json.Number))
	case rankString:
		return strings.Compare(a.(string), b.(string))
	case rankArray:
		x, y := a.([]any), b.([]any)
		if len(x) != len(y) {
			if len(x) < len(y) {
				return -1
			}
			return 1
		}
		for i := range x {
			if c := compareNode(x[i], y[i], false); c != 0 {
				return c
			}
		}
		return 0
	case rankObject:
		x, y := a.(map[string]any), b.(map[string]any)
		if len(x) != len(y) {
			if len(x) < len(y) {
				return -1
			}
			return 1
		}
		kx, ky := sortedKeys(x), sortedKeys(y)
		for i := range kx {
			if c := compareKeys(kx[i], ky[i]); c != 0 {
				return c
			}
			if c := compareNode(x[kx[i]], y[ky[i]], false); c != 0 {
				return c
			}
		}
		return 0
	}
	return 0
}

func compareNumbers(a, b json.Number) int {
	da, errA := decimal.NewFromString(string(a))
	db, errB := decimal.NewFromString(string(b))
	if errA == nil && errB == nil {
		return da.Cmp(db)
	}
	fa, _ := a.Float64()
	fb, _ := b.Float64()
	return floatType{}.Compare(fa, fb)
}

func compareKeys(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return compareKeys(keys[i], keys[j]) < 0 })
	return keys
}

// FormatJSON renders a document the way PostgreSQL prints jsonb.
func FormatJSON(doc any) string {
	var b bytes.Buffer
	writeNode(&b, doc, false)
	return b.String()
}

// canonicalJSON renders a document with normalized numbers, so that
// documents comparing equal render identically.
func canonicalJSON(doc any) string {
	var b bytes.Buffer
	writeNode(&b, doc, true)
	return b.String()
}

func writeNode(b *bytes.Buffer, n any, canonical bool) {
	switch t := n.(type) {
	case nil, jsonNull:
		b.WriteString("null")
	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case json.Number:
		if canonical {
			if d, err := decimal.NewFromString(string(t)); err == nil {
				b.WriteString(d.String())
				return
			}
		}
		b.WriteString(string(t))
	case string:
		writeString(b, t)
	case []any:
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteString(", ")
			}
			writeNode(b, e, canonical)
		}
		b.WriteByte(']')
	case map[string]any:
		b.WriteByte('{')
		for i, k := range sortedKeys(t) {
			if i > 0 {
				b.WriteString(", ")
			}
			writeString(b, k)
			b.WriteString(": ")
			writeNode(b, t[k], canonical)
		}
		b.WriteByte('}')
	default:
		fmt.Fprintf(b, "%v", t)
	}
}

func writeString(b *bytes.Buffer, s string) {
	enc := json.NewEncoder(b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	// Encode appends a newline.
	b.Truncate(b.Len() - 1)
}

// JSONGet implements the -> operator: an object field by name or an array
// element by position (negative positions count from the end). A missing
// field yields ok == false.
func JSONGet(doc any, key Value) (any, bool) {
	switch t := doc.(type) {
	case map[string]any:
		if key.Kind() != KindText {
			return nil, false
		}
		v, ok := t[key.Text()]
		if ok && v == nil {
			return JSONNull, true
		}
		return v, ok
	case []any:
		if key.Kind() != KindInt {
			return nil, false
		}
		i := key.Int()
		if i < 0 {
			i += int64(len(t))
		}
		if i < 0 || i >= int64(len(t)) {
			return nil, false
		}
		if t[i] == nil {
			return JSONNull, true
		}
		return t[i], true
	}
	return nil, false
}

// JSONText implements the text form used by ->>: strings are unquoted and
// a JSON null becomes SQL NULL.
func JSONText(node any) (string, bool) {
	switch t := node.(type) {
	case nil, jsonNull:
		return "", false
	case string:
		return t, true
	}
	return FormatJSON(node), true
}

// JSONTypeOf returns the jsonb_typeof name of a document.
func JSONTypeOf(node any) string {
	switch jsonRank(node, false) {
	case rankBool:
		return "boolean"
	case rankNumber:
		return "number"
	case rankString:
		return "string"
	case rankArray:
		return "array"
	case rankObject:
		return "object"
	}
	return "null"
}

// jsonScalarNumber extracts the numeric value of a number document.
func jsonScalarNumber(node any) (decimal.Decimal, bool) {
	n, ok := node.(json.Number)
	if !ok {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil || math.IsInf(f, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(f), true
	}
	return d, true
}
