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
	"strconv"
	"strings"

	ferrors "flymem/internal/errors"
	"flymem/internal/types"
)

// Column describes one column of a row schema. Table is the source table
// name or alias the column is qualified by; it is empty for computed
// columns.
type Column struct {
	Table string
	Name  string
	Type  types.Type
}

// QualifiedName returns "table.name", or just the name when unqualified.
func (c Column) QualifiedName() string {
	if c.Table == "" {
		return c.Name
	}
	return c.Table + "." + c.Name
}

// Schema is the ordered column list of a row stream.
type Schema []Column

// Names returns the column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Name
	}
	return out
}

// Types returns the column types in order.
func (s Schema) Types() []types.Type {
	out := make([]types.Type, len(s))
	for i, c := range s {
		out[i] = c.Type
	}
	return out
}

// Qualify returns a copy of s with every column attributed to table.
func (s Schema) Qualify(table string) Schema {
	out := make(Schema, len(s))
	for i, c := range s {
		c.Table = table
		out[i] = c
	}
	return out
}

// Concat returns the columns of s followed by those of o.
func (s Schema) Concat(o Schema) Schema {
	out := make(Schema, 0, len(s)+len(o))
	out = append(out, s...)
	return append(out, o...)
}

// Resolve finds the column named name, optionally qualified by table. An
// unqualified name matching columns of two sources is ambiguous.
func (s Schema) Resolve(table, name string) (int, error) {
	found := -1
	for i, c := range s {
		if c.Name != name || (table != "" && c.Table != table) {
			continue
		}
		if found >= 0 {
			return -1, ferrors.AmbiguousColumn(name)
		}
		found = i
	}
	if found < 0 {
		if table != "" {
			return -1, ferrors.ColumnNotFound(table + "." + name)
		}
		return -1, ferrors.ColumnNotFound(name)
	}
	return found, nil
}

// Indexes returns the positions of all columns of table, or of every
// column when table is empty. It is used to expand "*" and "t.*".
func (s Schema) Indexes(table string) []int {
	var out []int
	for i, c := range s {
		if table == "" || c.Table == table {
			out = append(out, i)
		}
	}
	return out
}

// HasTable reports whether any column is attributed to table.
func (s Schema) HasTable(table string) bool {
	for _, c := range s {
		if c.Table == table {
			return true
		}
	}
	return false
}

// String renders the schema as "(a integer, b text)".
func (s Schema) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, c := range s {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.QualifiedName())
		b.WriteByte(' ')
		b.WriteString(c.Type.Name())
	}
	b.WriteByte(')')
	return b.String()
}

// Row is one tuple of a row stream. ID is the row id for rows read from a
// table and zero for derived rows. Rows are never modified after they are
// produced; operators build new rows.
type Row struct {
	ID     int64
	Values []types.Value
}

// NewRow creates a derived row.
func NewRow(values []types.Value) *Row {
	return &Row{Values: values}
}

// NullRow returns a row of n NULLs typed after schema.
func NullRow(schema Schema) *Row {
	values := make([]types.Value, len(schema))
	for i, c := range schema {
		values[i] = types.NullOf(c.Type)
	}
	return &Row{Values: values}
}

// Concat joins two rows into a new derived row.
func (r *Row) Concat(o *Row) *Row {
	values := make([]types.Value, 0, len(r.Values)+len(o.Values))
	values = append(values, r.Values...)
	return &Row{Values: append(values, o.Values...)}
}

// Key returns a string equal for rows whose values are pairwise equal,
// treating NULLs as equal to each other.
func (r *Row) Key() string {
	var b strings.Builder
	for _, v := range r.Values {
		k := v.Key()
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
	}
	return b.String()
}
