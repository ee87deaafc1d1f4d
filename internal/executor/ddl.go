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

package executor

import (
	"flymem/internal/catalog"
	ferrors "flymem/internal/errors"
	"flymem/internal/expr"
	"flymem/internal/sql"
	"flymem/internal/storage"
	"flymem/internal/types"
)

// ============================================================================
// CREATE TABLE
// ============================================================================

type createTable struct {
	cat *catalog.Catalog
	def catalog.TableDef
}

func planCreateTable(schema *catalog.Schema, s *sql.CreateTableStmt) (Executor, error) {
	obj, _ := schema.GetObject(s.TableName, true)
	if obj != nil {
		if s.IfNotExists {
			return skip(CmdCreateTable, "relation "+s.TableName+" already exists"), nil
		}
		return nil, ferrors.DuplicateObject("relation", s.TableName)
	}

	def := catalog.TableDef{Name: s.TableName}
	columns := make(map[string]bool, len(s.Columns))
	for _, cd := range s.Columns {
		typ, err := resolveType(schema, cd.Type)
		if err != nil {
			return nil, err
		}
		col := catalog.ColumnDef{
			Name:    cd.Name,
			Type:    typ,
			NotNull: cd.NotNull,
			Serial:  types.IsSerial(string(cd.Type)),
		}
		if cd.Default != nil {
			if col.Serial {
				return nil, ferrors.NewQueryError("multiple default values specified for column \"" + cd.Name + "\" of table \"" + s.TableName + "\"")
			}
			// Defaults cannot see the row.
			e, err := newBinder(schema, nil).bind(cd.Default)
			if err != nil {
				return nil, err
			}
			if col.Default, err = expr.Assign(e, typ); err != nil {
				return nil, err
			}
		}
		if cd.PrimaryKey {
			if def.PrimaryKey != nil {
				return nil, multiplePrimaryKeys(s.TableName)
			}
			def.PrimaryKey = []string{cd.Name}
		}
		if cd.Unique {
			def.Unique = append(def.Unique, []string{cd.Name})
		}
		columns[cd.Name] = true
		def.Columns = append(def.Columns, col)
	}

	for _, c := range s.Constraints {
		for _, name := range c.Columns {
			if !columns[name] {
				return nil, ferrors.ColumnNotFound(name).WithDetail("column named in key does not exist")
			}
		}
		switch c.Kind {
		case sql.ConstraintPrimaryKey:
			if def.PrimaryKey != nil {
				return nil, multiplePrimaryKeys(s.TableName)
			}
			def.PrimaryKey = c.Columns
		case sql.ConstraintUnique:
			def.Unique = append(def.Unique, c.Columns)
		}
	}
	return &createTable{cat: schema.Catalog(), def: def}, nil
}

func multiplePrimaryKeys(table string) error {
	return ferrors.NewQueryError("multiple primary keys for table \"" + table + "\" are not allowed")
}

func (c *createTable) Command() string { return CmdCreateTable }

func (c *createTable) Execute(tx *storage.Transaction) (*Result, error) {
	if _, err := c.cat.Schema(tx).DeclareTable(c.def); err != nil {
		return nil, err
	}
	return &Result{Command: CmdCreateTable, Tx: tx}, nil
}

// ============================================================================
// CREATE INDEX
// ============================================================================

type createIndex struct {
	cat *catalog.Catalog
	def catalog.IndexDef
}

func planCreateIndex(schema *catalog.Schema, s *sql.CreateIndexStmt) (Executor, error) {
	t, err := schema.GetTable(s.TableName)
	if err != nil {
		return nil, err
	}
	if s.IndexName != "" {
		if obj, _ := schema.GetObject(s.IndexName, true); obj != nil {
			if s.IfNotExists {
				return skip(CmdCreateIndex, "relation "+s.IndexName+" already exists"), nil
			}
			return nil, ferrors.DuplicateObject("relation", s.IndexName)
		}
	}

	def := catalog.IndexDef{Name: s.IndexName, Table: t.Name(), Unique: s.Unique}
	for _, item := range s.Columns {
		col, ok := item.Expr.(*sql.ColumnExpr)
		if !ok || col.Table != "" {
			return nil, ferrors.NotSupported("index expressions")
		}
		if t.ColumnIndex(col.Name) < 0 {
			return nil, ferrors.ColumnNotFound(col.Name)
		}
		def.Columns = append(def.Columns, catalog.IndexColumn{
			Name: col.Name,
			Sort: types.SortKey{Descending: item.Desc, NullsFirst: item.NullsFirst},
		})
	}
	return &createIndex{cat: schema.Catalog(), def: def}, nil
}

func (c *createIndex) Command() string { return CmdCreateIndex }

func (c *createIndex) Execute(tx *storage.Transaction) (*Result, error) {
	return structural(tx, CmdCreateIndex, func(root *storage.Transaction) error {
		_, err := c.cat.Schema(root).CreateIndex(c.def)
		return err
	})
}

// ============================================================================
// CREATE SEQUENCE
// ============================================================================

type createSequence struct {
	cat *catalog.Catalog
	def catalog.SequenceDef
}

func planCreateSequence(schema *catalog.Schema, s *sql.CreateSequenceStmt) (Executor, error) {
	if obj, _ := schema.GetObject(s.Name, true); obj != nil {
		if s.IfNotExists {
			return skip(CmdCreateSequence, "relation "+s.Name+" already exists"), nil
		}
		return nil, ferrors.DuplicateObject("relation", s.Name)
	}
	def := catalog.SequenceDef{Name: s.Name, Start: s.Start}
	if s.Increment != nil {
		if *s.Increment == 0 {
			return nil, ferrors.NewQueryError("INCREMENT must not be zero")
		}
		def.Increment = *s.Increment
	}
	return &createSequence{cat: schema.Catalog(), def: def}, nil
}

func (c *createSequence) Command() string { return CmdCreateSequence }

func (c *createSequence) Execute(tx *storage.Transaction) (*Result, error) {
	if _, err := c.cat.Schema(tx).DeclareSequence(c.def); err != nil {
		return nil, err
	}
	return &Result{Command: CmdCreateSequence, Tx: tx}, nil
}

// ============================================================================
// DROP
// ============================================================================

type dropTable struct {
	cat  *catalog.Catalog
	name string
}

func planDropTable(schema *catalog.Schema, s *sql.DropTableStmt) (Executor, error) {
	if _, err := schema.GetTable(s.Name); err != nil {
		if s.IfExists && ferrors.IsNotFound(err) {
			return skip(CmdDropTable, "table "+s.Name+" does not exist"), nil
		}
		return nil, err
	}
	return &dropTable{cat: schema.Catalog(), name: s.Name}, nil
}

func (d *dropTable) Command() string { return CmdDropTable }

func (d *dropTable) Execute(tx *storage.Transaction) (*Result, error) {
	if err := d.cat.Schema(tx).DropTable(d.name); err != nil {
		return nil, err
	}
	return &Result{Command: CmdDropTable, Tx: tx}, nil
}

type dropIndex struct {
	cat  *catalog.Catalog
	name string
}

func planDropIndex(schema *catalog.Schema, s *sql.DropIndexStmt) (Executor, error) {
	ix, err := schema.GetIndex(s.Name)
	if err != nil {
		if s.IfExists && ferrors.IsNotFound(err) {
			return skip(CmdDropIndex, "index "+s.Name+" does not exist"), nil
		}
		return nil, err
	}
	if ix.Constraint() {
		return nil, ferrors.NewQueryError("cannot drop index " + ix.Name() + " because constraint " +
			ix.Name() + " on table " + ix.Table() + " requires it")
	}
	return &dropIndex{cat: schema.Catalog(), name: s.Name}, nil
}

func (d *dropIndex) Command() string { return CmdDropIndex }

func (d *dropIndex) Execute(tx *storage.Transaction) (*Result, error) {
	return structural(tx, CmdDropIndex, func(root *storage.Transaction) error {
		return d.cat.Schema(root).DropIndex(d.name)
	})
}

type dropSequence struct {
	cat     *catalog.Catalog
	name    string
	cascade bool
}

func planDropSequence(schema *catalog.Schema, s *sql.DropSequenceStmt) (Executor, error) {
	seq, err := schema.GetSequence(s.Name)
	if err != nil {
		if s.IfExists && ferrors.IsNotFound(err) {
			return skip(CmdDropSequence, "sequence "+s.Name+" does not exist"), nil
		}
		return nil, err
	}
	if owner := seq.Owner(); owner != nil && !s.Cascade {
		return nil, ferrors.DependentObjects("sequence "+seq.Name(),
			"default value for column "+owner.Column+" of table "+owner.Table)
	}
	return &dropSequence{cat: schema.Catalog(), name: s.Name, cascade: s.Cascade}, nil
}

func (d *dropSequence) Command() string { return CmdDropSequence }

func (d *dropSequence) Execute(tx *storage.Transaction) (*Result, error) {
	return structural(tx, CmdDropSequence, func(root *storage.Transaction) error {
		return d.cat.Schema(root).DropSequence(d.name, d.cascade)
	})
}
