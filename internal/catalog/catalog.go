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
Package catalog implements the schema registry of FlyMem: tables,
indexes and sequences, and the row stores behind them.

Registry Model:
===============

Schema objects share one namespace, as relations do in PostgreSQL. Each
object is registered in the transaction under "rel:<name>", so declaring
or dropping a table is versioned: a rolled back CREATE TABLE leaves no
trace and a DROP TABLE is undone by ROLLBACK.

The objects themselves never hold transaction state. Row stores, index
trees and sequence values live in the transaction under keys derived
from the object id.

Structural Changes:
===================

CREATE INDEX, DROP INDEX and DROP SEQUENCE change the index or sequence
set of a table in place. Callers run them against the root transaction
after a full commit (see the executor package), so no open scope can
observe a half-applied change.

Usage:
======

	cat := catalog.New(32, types.DefaultCollator)
	tx := storage.NewRoot().Fork()
	s := cat.Schema(tx)
	table, err := s.DeclareTable(catalog.TableDef{...})
*/
package catalog

import (
	"strconv"
	"strings"
	"sync/atomic"

	ferrors "flymem/internal/errors"
	"flymem/internal/expr"
	"flymem/internal/logging"
	"flymem/internal/storage"
	"flymem/internal/types"
)

// ObjectKind identifies the kind of a schema object.
type ObjectKind int

const (
	KindTable ObjectKind = iota
	KindIndex
	KindSequence
)

// String returns the SQL name of the kind.
func (k ObjectKind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindIndex:
		return "index"
	case KindSequence:
		return "sequence"
	default:
		return "relation"
	}
}

// Object is a named schema object.
type Object interface {
	Name() string
	Kind() ObjectKind
}

const relPrefix = "rel:"

var catalogLog = logging.NewLogger("catalog")

// Catalog allocates object ids and carries the storage settings shared by
// all objects. It holds no schema state itself.
type Catalog struct {
	nextID   atomic.Uint64
	degree   int
	collator types.Collator
}

// New creates a catalog. degree is the B-tree minimum degree of row stores
// and indexes; collator is the collation of TEXT columns.
func New(degree int, collator types.Collator) *Catalog {
	if degree < 2 {
		degree = 2
	}
	if collator == nil {
		collator = types.DefaultCollator
	}
	return &Catalog{degree: degree, collator: collator}
}

// Collator returns the collation applied to TEXT columns.
func (c *Catalog) Collator() types.Collator { return c.collator }

// Schema returns a registry view bound to tx.
func (c *Catalog) Schema(tx *storage.Transaction) *Schema {
	return &Schema{cat: c, tx: tx}
}

// Schema is a read/write registry view bound to one transaction. It is
// created per planning or execution call and never retained.
type Schema struct {
	cat *Catalog
	tx  *storage.Transaction
}

// Tx returns the transaction the view is bound to.
func (s *Schema) Tx() *storage.Transaction { return s.tx }

// Catalog returns the catalog the view belongs to.
func (s *Schema) Catalog() *Catalog { return s.cat }

func (s *Schema) lookup(name string) Object {
	obj, _ := storage.Lookup[Object](s.tx, relPrefix+name)
	return obj
}

func (s *Schema) register(obj Object) {
	s.tx.Set(relPrefix+obj.Name(), obj)
}

func (s *Schema) unregister(name string) {
	s.tx.Delete(relPrefix + name)
}

// GetObject returns the object called name. A missing object is an error
// unless nullIfNotFound is set, in which case nil is returned.
func (s *Schema) GetObject(name string, nullIfNotFound bool) (Object, error) {
	if obj := s.lookup(name); obj != nil {
		return obj, nil
	}
	if nullIfNotFound {
		return nil, nil
	}
	return nil, ferrors.ObjectNotFound("relation", name)
}

// GetTable returns the table called name.
func (s *Schema) GetTable(name string) (*Table, error) {
	obj := s.lookup(name)
	if obj == nil {
		return nil, ferrors.TableNotFound(name)
	}
	t, ok := obj.(*Table)
	if !ok {
		return nil, ferrors.NewQueryError("\"" + name + "\" is not a table")
	}
	return t, nil
}

// GetSequence returns the sequence called name.
func (s *Schema) GetSequence(name string) (*Sequence, error) {
	seq, ok := s.lookup(name).(*Sequence)
	if !ok {
		return nil, ferrors.ObjectNotFound("sequence", name)
	}
	return seq, nil
}

// GetIndex returns the index called name.
func (s *Schema) GetIndex(name string) (*Index, error) {
	ix, ok := s.lookup(name).(*Index)
	if !ok {
		return nil, ferrors.ObjectNotFound("index", name)
	}
	return ix, nil
}

// Tables returns every visible table sorted by name.
func (s *Schema) Tables() []*Table {
	var out []*Table
	for _, key := range s.tx.Keys(relPrefix) {
		if t, ok := storage.Lookup[*Table](s.tx, key); ok {
			out = append(out, t)
		}
	}
	return out
}

// Indexes returns every visible index sorted by name.
func (s *Schema) Indexes() []*Index {
	var out []*Index
	for _, key := range s.tx.Keys(relPrefix) {
		if ix, ok := storage.Lookup[*Index](s.tx, key); ok {
			out = append(out, ix)
		}
	}
	return out
}

// Sequences returns every visible sequence sorted by name.
func (s *Schema) Sequences() []*Sequence {
	var out []*Sequence
	for _, key := range s.tx.Keys(relPrefix) {
		if seq, ok := storage.Lookup[*Sequence](s.tx, key); ok {
			out = append(out, seq)
		}
	}
	return out
}

// freeName returns base, or base with the first numeric suffix that is not
// taken.
func (s *Schema) freeName(base string, taken map[string]bool) string {
	name := base
	for i := 1; s.lookup(name) != nil || taken[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	taken[name] = true
	return name
}

// ============================================================================
// Versioned declarations
// ============================================================================

// DeclareTable registers a new table with its constraint indexes and the
// sequences of its serial columns.
func (s *Schema) DeclareTable(def TableDef) (*Table, error) {
	if s.lookup(def.Name) != nil {
		return nil, ferrors.DuplicateObject("relation", def.Name)
	}
	if len(def.Columns) == 0 {
		return nil, ferrors.NewQueryError("table \"" + def.Name + "\" must have at least one column")
	}

	t := &Table{id: s.cat.nextID.Add(1), name: def.Name, degree: s.cat.degree}
	taken := map[string]bool{def.Name: true}
	seen := make(map[string]bool, len(def.Columns))
	for _, cd := range def.Columns {
		if seen[cd.Name] {
			return nil, ferrors.NewQueryError("column \"" + cd.Name + "\" specified more than once")
		}
		seen[cd.Name] = true
		col := Column{Name: cd.Name, Type: cd.Type, NotNull: cd.NotNull, Default: cd.Default}
		if cd.Serial {
			seq := newSequence(s.cat.nextID.Add(1), SequenceDef{
				Name: s.freeName(def.Name+"_"+cd.Name+"_seq", taken),
			})
			seq.owner = &OwnerRef{Table: def.Name, Column: cd.Name}
			t.sequences = append(t.sequences, seq)
			col.NotNull = true
			col.Default = &expr.NextVal{Seq: seq}
		}
		t.columns = append(t.columns, col)
	}

	if len(def.PrimaryKey) > 0 {
		ix, err := s.constraintIndex(t, def.PrimaryKey, def.Name+"_pkey", taken)
		if err != nil {
			return nil, err
		}
		ix.primary = true
		for _, c := range ix.columns {
			t.columns[c].NotNull = true
		}
		t.indexes = append(t.indexes, ix)
	}
	for _, cols := range def.Unique {
		ix, err := s.constraintIndex(t, cols, def.Name+"_"+strings.Join(cols, "_")+"_key", taken)
		if err != nil {
			return nil, err
		}
		t.indexes = append(t.indexes, ix)
	}

	s.register(t)
	for _, seq := range t.sequences {
		s.register(seq)
	}
	for _, ix := range t.indexes {
		s.register(ix)
	}
	catalogLog.Info("Table created", "table", t.name, "columns", len(t.columns), "indexes", len(t.indexes))
	return t, nil
}

func (s *Schema) constraintIndex(t *Table, cols []string, name string, taken map[string]bool) (*Index, error) {
	def := IndexDef{Table: t.name, Unique: true}
	for _, c := range cols {
		def.Columns = append(def.Columns, IndexColumn{Name: c})
	}
	ix, err := s.newIndex(t, def)
	if err != nil {
		return nil, err
	}
	ix.name = s.freeName(name, taken)
	ix.constraint = true
	return ix, nil
}

func (s *Schema) newIndex(t *Table, def IndexDef) (*Index, error) {
	if len(def.Columns) == 0 {
		return nil, ferrors.NewQueryError("index must have at least one column")
	}
	ix := &Index{
		id:     s.cat.nextID.Add(1),
		name:   def.Name,
		table:  t.name,
		keys:   def.Columns,
		unique: def.Unique,
		degree: s.cat.degree,
	}
	seen := make(map[int]bool, len(def.Columns))
	for _, c := range def.Columns {
		pos := t.ColumnIndex(c.Name)
		if pos < 0 {
			return nil, ferrors.ColumnNotFound(c.Name)
		}
		if seen[pos] {
			return nil, ferrors.NewQueryError("column \"" + c.Name + "\" appears twice in index definition")
		}
		seen[pos] = true
		ix.columns = append(ix.columns, pos)
	}
	return ix, nil
}

// DeclareSequence registers a free-standing sequence.
func (s *Schema) DeclareSequence(def SequenceDef) (*Sequence, error) {
	if s.lookup(def.Name) != nil {
		return nil, ferrors.DuplicateObject("relation", def.Name)
	}
	seq := newSequence(s.cat.nextID.Add(1), def)
	s.register(seq)
	catalogLog.Info("Sequence created", "sequence", seq.name, "start", seq.start, "increment", seq.increment)
	return seq, nil
}

// DropTable removes a table with its rows, indexes and owned sequences.
func (s *Schema) DropTable(name string) error {
	t, err := s.GetTable(name)
	if err != nil {
		return err
	}
	for _, ix := range t.indexes {
		s.unregister(ix.name)
		s.tx.Delete(ix.key())
	}
	for _, seq := range t.sequences {
		s.unregister(seq.name)
		s.tx.Delete(seq.key())
	}
	s.tx.Delete(t.rowsKey())
	s.tx.Delete(t.rowIDKey())
	s.unregister(t.name)
	catalogLog.Info("Table dropped", "table", t.name)
	return nil
}

// ============================================================================
// Structural changes
// ============================================================================

// CreateIndex builds an index over the existing rows of its table and
// attaches it. A duplicate key in a unique index fails before the table is
// changed.
func (s *Schema) CreateIndex(def IndexDef) (*Index, error) {
	t, err := s.GetTable(def.Table)
	if err != nil {
		return nil, err
	}
	if def.Name == "" {
		names := make([]string, len(def.Columns))
		for i, c := range def.Columns {
			names[i] = c.Name
		}
		def.Name = s.freeName(t.name+"_"+strings.Join(names, "_")+"_idx", map[string]bool{})
	} else if s.lookup(def.Name) != nil {
		return nil, ferrors.DuplicateObject("relation", def.Name)
	}
	ix, err := s.newIndex(t, def)
	if err != nil {
		return nil, err
	}
	tree, err := ix.build(t.Rows(s.tx))
	if err != nil {
		return nil, err
	}
	s.tx.Set(ix.key(), tree)
	t.indexes = append(t.indexes[:len(t.indexes):len(t.indexes)], ix)
	s.register(ix)
	catalogLog.Info("Index created", "index", ix.name, "table", t.name, "unique", ix.unique, "entries", tree.Len())
	return ix, nil
}

// DropIndex detaches and removes an index. Indexes backing a constraint
// cannot be dropped on their own.
func (s *Schema) DropIndex(name string) error {
	ix, err := s.GetIndex(name)
	if err != nil {
		return err
	}
	if ix.constraint {
		return ferrors.NewQueryError("cannot drop index " + ix.name + " because constraint " +
			ix.name + " on table " + ix.table + " requires it")
	}
	if t, err := s.GetTable(ix.table); err == nil {
		kept := make([]*Index, 0, len(t.indexes))
		for _, other := range t.indexes {
			if other != ix {
				kept = append(kept, other)
			}
		}
		t.indexes = kept
	}
	s.tx.Delete(ix.key())
	s.unregister(ix.name)
	catalogLog.Info("Index dropped", "index", ix.name, "table", ix.table)
	return nil
}

// DropSequence removes a sequence. A sequence owned by a column is only
// dropped with cascade, which also clears the column default.
func (s *Schema) DropSequence(name string, cascade bool) error {
	seq, err := s.GetSequence(name)
	if err != nil {
		return err
	}
	if owner := seq.owner; owner != nil {
		if !cascade {
			return ferrors.DependentObjects("sequence "+seq.name,
				"default value for column "+owner.Column+" of table "+owner.Table)
		}
		if t, err := s.GetTable(owner.Table); err == nil {
			if c := t.ColumnIndex(owner.Column); c >= 0 {
				t.columns[c].Default = nil
			}
			kept := make([]*Sequence, 0, len(t.sequences))
			for _, other := range t.sequences {
				if other != seq {
					kept = append(kept, other)
				}
			}
			t.sequences = kept
		}
	}
	s.tx.Delete(seq.key())
	s.unregister(seq.name)
	catalogLog.Info("Sequence dropped", "sequence", seq.name, "cascade", cascade)
	return nil
}
