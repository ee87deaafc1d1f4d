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

package flymem

// TableInfo describes a table as the session sees it.
type TableInfo struct {
	Name    string
	Columns []Column
	Rows    int
}

// IndexInfo describes an index.
type IndexInfo struct {
	Name    string
	Table   string
	Columns []string
	Unique  bool
	Primary bool
}

// SequenceInfo describes a sequence. Owner is "table.column" for a serial
// column's sequence and empty otherwise.
type SequenceInfo struct {
	Name      string
	Owner     string
	Increment int64
}

// Tables lists the tables in name order.
func (db *DB) Tables() []TableInfo {
	db.mu.Lock()
	defer db.mu.Unlock()
	schema := db.eng.Schema()
	var out []TableInfo
	for _, t := range schema.Tables() {
		info := TableInfo{Name: t.Name(), Rows: t.RowCount(schema.Tx())}
		for _, c := range t.Columns() {
			info.Columns = append(info.Columns, Column{Name: c.Name, Type: c.Type.Name()})
		}
		out = append(out, info)
	}
	return out
}

// Indexes lists the indexes in name order.
func (db *DB) Indexes() []IndexInfo {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []IndexInfo
	for _, ix := range db.eng.Schema().Indexes() {
		info := IndexInfo{Name: ix.Name(), Table: ix.Table(), Unique: ix.Unique(), Primary: ix.Primary()}
		for _, k := range ix.KeyColumns() {
			name := k.Name
			if k.Sort.Descending {
				name += " DESC"
			}
			info.Columns = append(info.Columns, name)
		}
		out = append(out, info)
	}
	return out
}

// Sequences lists the sequences in name order.
func (db *DB) Sequences() []SequenceInfo {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []SequenceInfo
	for _, seq := range db.eng.Schema().Sequences() {
		info := SequenceInfo{Name: seq.Name(), Increment: seq.Increment()}
		if o := seq.Owner(); o != nil {
			info.Owner = o.Table + "." + o.Column
		}
		out = append(out, info)
	}
	return out
}
