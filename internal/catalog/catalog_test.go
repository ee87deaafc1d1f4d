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

package catalog

import (
	"slices"
	"testing"

	ferrors "flymem/internal/errors"
	"flymem/internal/expr"
	"flymem/internal/storage"
	"flymem/internal/types"
)

// setupUsers declares users(id serial primary key, email text unique,
// age integer) in a committed root and returns the catalog and root.
func setupUsers(t *testing.T) (*Catalog, *storage.Transaction, *Table) {
	t.Helper()
	cat := New(3, types.DefaultCollator)
	root := storage.NewRoot()
	tx := root.Fork()
	table, err := cat.Schema(tx).DeclareTable(TableDef{
		Name: "users",
		Columns: []ColumnDef{
			{Name: "id", Type: types.Int, Serial: true},
			{Name: "email", Type: types.Text},
			{Name: "age", Type: types.Int},
		},
		PrimaryKey: []string{"id"},
		Unique:     [][]string{{"email"}},
	})
	if err != nil {
		t.Fatalf("DeclareTable failed: %v", err)
	}
	tx.Commit()
	return cat, root, table
}

func insertUser(t *testing.T, tx *storage.Transaction, table *Table, email any, age any) (*expr.Row, error) {
	t.Helper()
	id, err := table.Columns()[0].Default.Eval(tx, nil)
	if err != nil {
		t.Fatalf("default failed: %v", err)
	}
	e, _ := types.FromGo(email)
	a, _ := types.FromGo(age)
	if email == nil {
		e = types.NullOf(types.Text)
	}
	if age == nil {
		a = types.NullOf(types.Int)
	}
	return table.Insert(tx, []types.Value{id, e, a})
}

func rowIDs(seq func(func(int64) bool)) []int64 {
	var out []int64
	for id := range seq {
		out = append(out, id)
	}
	return out
}

func TestDeclareTable(t *testing.T) {
	cat, root, table := setupUsers(t)
	s := cat.Schema(root)

	if pk := table.PrimaryKey(); pk == nil || pk.Name() != "users_pkey" {
		t.Fatalf("primary key = %v, want users_pkey", pk)
	}
	if _, err := s.GetIndex("users_email_key"); err != nil {
		t.Errorf("unique index not registered: %v", err)
	}
	seq, err := s.GetSequence("users_id_seq")
	if err != nil {
		t.Fatalf("serial sequence not registered: %v", err)
	}
	if owner := seq.Owner(); owner == nil || owner.Table != "users" || owner.Column != "id" {
		t.Errorf("owner = %+v", owner)
	}
	if !table.Columns()[0].NotNull {
		t.Error("primary key column should be NOT NULL")
	}

	_, err = s.DeclareTable(TableDef{Name: "users", Columns: []ColumnDef{{Name: "x", Type: types.Int}}})
	if !ferrors.IsQueryError(err) {
		t.Errorf("duplicate table: got %v, want query error", err)
	}
	_, err = s.DeclareTable(TableDef{Name: "t", Columns: []ColumnDef{
		{Name: "a", Type: types.Int}, {Name: "a", Type: types.Text},
	}})
	if err == nil {
		t.Error("duplicate column should fail")
	}
	if _, err := s.GetTable("missing"); !ferrors.IsNotFound(err) {
		t.Errorf("GetTable(missing) = %v, want not found", err)
	}
	if obj, err := s.GetObject("missing", true); obj != nil || err != nil {
		t.Errorf("GetObject(nullIfNotFound) = %v, %v", obj, err)
	}
	if _, err := s.GetTable("users_pkey"); !ferrors.IsQueryError(err) {
		t.Errorf("GetTable on an index = %v, want query error", err)
	}
}

func TestDeclareTableRollback(t *testing.T) {
	cat := New(4, nil)
	root := storage.NewRoot()
	tx := root.Fork()
	if _, err := cat.Schema(tx).DeclareTable(TableDef{
		Name:    "t",
		Columns: []ColumnDef{{Name: "a", Type: types.Int}},
	}); err != nil {
		t.Fatalf("DeclareTable failed: %v", err)
	}
	tx.Rollback()
	if obj, _ := cat.Schema(root).GetObject("t", true); obj != nil {
		t.Errorf("rolled back table still visible: %v", obj)
	}
}

func TestInsertAndScan(t *testing.T) {
	_, root, table := setupUsers(t)
	tx := root.Fork()
	for i, email := range []string{"a@x", "b@x", "c@x"} {
		row, err := insertUser(t, tx, table, email, int64(20+i))
		if err != nil {
			t.Fatalf("insert %s: %v", email, err)
		}
		if row.Values[0].Int() != int64(i+1) {
			t.Errorf("serial id = %d, want %d", row.Values[0].Int(), i+1)
		}
	}
	var emails []string
	for row := range table.Rows(tx) {
		emails = append(emails, row.Values[1].Text())
	}
	if !slices.Equal(emails, []string{"a@x", "b@x", "c@x"}) {
		t.Errorf("scan order = %v", emails)
	}
	if n := table.RowCount(root); n != 0 {
		t.Errorf("uncommitted rows visible in root: %d", n)
	}
	tx.Commit()
	if n := table.RowCount(root); n != 3 {
		t.Errorf("RowCount after commit = %d, want 3", n)
	}
}

func TestNotNull(t *testing.T) {
	_, root, table := setupUsers(t)
	tx := root.Fork()
	_, err := table.Insert(tx, []types.Value{types.NullOf(types.Int), types.TextValue("a"), types.IntValue(1)})
	if !ferrors.IsConstraintError(err) {
		t.Errorf("NULL primary key: got %v, want constraint error", err)
	}
	if table.RowCount(tx) != 0 {
		t.Error("failed insert left a row behind")
	}
}

func TestUniqueViolation(t *testing.T) {
	_, root, table := setupUsers(t)
	tx := root.Fork()
	if _, err := insertUser(t, tx, table, "a@x", int64(1)); err != nil {
		t.Fatal(err)
	}
	_, err := insertUser(t, tx, table, "a@x", int64(2))
	if !ferrors.IsConstraintError(err) {
		t.Fatalf("duplicate email: got %v, want constraint error", err)
	}
	if table.RowCount(tx) != 1 {
		t.Errorf("RowCount = %d, want 1", table.RowCount(tx))
	}
}

func TestNullKeysDoNotConflict(t *testing.T) {
	_, root, table := setupUsers(t)
	tx := root.Fork()
	for i := 0; i < 3; i++ {
		if _, err := insertUser(t, tx, table, nil, int64(i)); err != nil {
			t.Fatalf("insert NULL email #%d: %v", i, err)
		}
	}
}

func TestUniqueReinsertAfterDelete(t *testing.T) {
	tests := []struct {
		name string
		// commitDelete commits the delete before the re-insert.
		commitDelete bool
	}{
		{"same transaction", false},
		{"committed ancestor", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, root, table := setupUsers(t)
			tx := root.Fork()
			row, err := insertUser(t, tx, table, "a@x", int64(1))
			if err != nil {
				t.Fatal(err)
			}
			tx = tx.Commit().Fork()
			table.Delete(tx, row)
			if tt.commitDelete {
				tx = tx.Commit().Fork()
			}
			if _, err := insertUser(t, tx, table, "a@x", int64(2)); err != nil {
				t.Fatalf("re-insert after delete failed: %v", err)
			}
			if n := table.RowCount(tx); n != 1 {
				t.Errorf("RowCount = %d, want 1", n)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	_, root, table := setupUsers(t)
	tx := root.Fork()
	a, _ := insertUser(t, tx, table, "a@x", int64(1))
	b, _ := insertUser(t, tx, table, "b@x", int64(2))

	values := slices.Clone(b.Values)
	values[1] = types.TextValue("a@x")
	if _, err := table.Update(tx, b, values); !ferrors.IsConstraintError(err) {
		t.Fatalf("update to duplicate email: got %v, want constraint error", err)
	}

	values = slices.Clone(a.Values)
	values[2] = types.IntValue(99)
	updated, err := table.Update(tx, a, values)
	if err != nil {
		t.Fatalf("update keeping own key failed: %v", err)
	}
	got, ok := table.Get(tx, a.ID)
	if !ok || got.Values[2].Int() != 99 {
		t.Errorf("Get after update = %v", got)
	}

	values = slices.Clone(updated.Values)
	values[1] = types.TextValue("z@x")
	if _, err := table.Update(tx, updated, values); err != nil {
		t.Fatal(err)
	}
	ix := table.Indexes()[1]
	if ids := rowIDs(ix.Lookup(tx, []types.Value{types.TextValue("a@x")})); len(ids) != 0 {
		t.Errorf("stale index entry for old key: %v", ids)
	}
	if ids := rowIDs(ix.Lookup(tx, []types.Value{types.TextValue("z@x")})); !slices.Equal(ids, []int64{a.ID}) {
		t.Errorf("Lookup(z@x) = %v, want [%d]", ids, a.ID)
	}
}

func TestIndexRange(t *testing.T) {
	tests := []struct {
		name   string
		sort   types.SortKey
		lo, hi *Bound
		want   []int64
	}{
		{"open", types.SortKey{}, nil, nil, []int64{1, 2, 3, 4}},
		{"ge", types.SortKey{}, &Bound{types.IntValue(20), true}, nil, []int64{2, 3, 4}},
		{"gt", types.SortKey{}, &Bound{types.IntValue(20), false}, nil, []int64{3, 4}},
		{"lt", types.SortKey{}, nil, &Bound{types.IntValue(30), false}, []int64{1, 2}},
		{"between", types.SortKey{}, &Bound{types.IntValue(10), false}, &Bound{types.IntValue(30), true}, []int64{2, 3}},
		{"desc", types.SortKey{Descending: true}, &Bound{types.IntValue(10), true}, &Bound{types.IntValue(30), false}, []int64{2, 1}},
		{"desc open", types.SortKey{Descending: true}, nil, nil, []int64{4, 3, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, root, table := setupUsers(t)
			tx := root.Fork()
			for i, age := range []any{int64(10), int64(20), int64(30), int64(40), nil} {
				if _, err := insertUser(t, tx, table, string(rune('a'+i)), age); err != nil {
					t.Fatal(err)
				}
			}
			ix, err := cat.Schema(tx).CreateIndex(IndexDef{
				Table:   "users",
				Columns: []IndexColumn{{Name: "age", Sort: tt.sort}},
			})
			if err != nil {
				t.Fatal(err)
			}
			if got := rowIDs(ix.Range(tx, tt.lo, tt.hi)); !slices.Equal(got, tt.want) {
				t.Errorf("Range = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateIndexDuplicates(t *testing.T) {
	cat, root, table := setupUsers(t)
	tx := root.Fork()
	insertUser(t, tx, table, "a", int64(1))
	insertUser(t, tx, table, "b", int64(1))
	root = tx.FullCommit()

	_, err := cat.Schema(root).CreateIndex(IndexDef{
		Name:    "users_age_key",
		Table:   "users",
		Unique:  true,
		Columns: []IndexColumn{{Name: "age"}},
	})
	if !ferrors.IsConstraintError(err) {
		t.Fatalf("unique index over duplicates: got %v, want constraint error", err)
	}
	if len(table.Indexes()) != 2 {
		t.Errorf("failed CREATE INDEX changed the table: %d indexes", len(table.Indexes()))
	}
	if obj, _ := cat.Schema(root).GetObject("users_age_key", true); obj != nil {
		t.Error("failed index was registered")
	}
}

func TestDropIndex(t *testing.T) {
	cat, root, table := setupUsers(t)
	s := cat.Schema(root)
	ix, err := s.CreateIndex(IndexDef{Table: "users", Columns: []IndexColumn{{Name: "age"}}})
	if err != nil {
		t.Fatal(err)
	}
	if ix.Name() != "users_age_idx" {
		t.Errorf("generated name = %q", ix.Name())
	}
	if err := s.DropIndex("users_pkey"); !ferrors.IsQueryError(err) {
		t.Errorf("dropping primary key index: got %v, want query error", err)
	}
	if err := s.DropIndex(ix.Name()); err != nil {
		t.Fatal(err)
	}
	if len(table.Indexes()) != 2 {
		t.Errorf("indexes after drop = %d, want 2", len(table.Indexes()))
	}
	if err := s.DropIndex(ix.Name()); !ferrors.IsNotFound(err) {
		t.Errorf("second drop: got %v, want not found", err)
	}
}

func TestSequences(t *testing.T) {
	cat := New(4, nil)
	root := storage.NewRoot()
	start := int64(10)
	seq, err := cat.Schema(root).DeclareSequence(SequenceDef{Name: "s", Start: &start, Increment: 5})
	if err != nil {
		t.Fatal(err)
	}

	tx := root.Fork()
	for _, want := range []int64{10, 15, 20} {
		if got, _ := seq.NextVal(tx); got != want {
			t.Errorf("NextVal = %d, want %d", got, want)
		}
	}
	tx.Rollback()
	if _, ok := seq.CurrVal(root); ok {
		t.Error("rolled back nextval is visible")
	}

	down, _ := cat.Schema(root).DeclareSequence(SequenceDef{Name: "down", Increment: -1})
	if got, _ := down.NextVal(root); got != -1 {
		t.Errorf("descending start = %d, want -1", got)
	}
	if _, err := cat.Schema(root).DeclareSequence(SequenceDef{Name: "s"}); err == nil {
		t.Error("duplicate sequence should fail")
	}
}

func TestDropSequenceCascade(t *testing.T) {
	cat, root, table := setupUsers(t)
	s := cat.Schema(root)

	err := s.DropSequence("users_id_seq", false)
	if !ferrors.IsQueryError(err) {
		t.Fatalf("drop owned sequence: got %v, want query error", err)
	}
	if table.Columns()[0].Default == nil {
		t.Fatal("failed drop cleared the default")
	}
	if err := s.DropSequence("users_id_seq", true); err != nil {
		t.Fatal(err)
	}
	if table.Columns()[0].Default != nil {
		t.Error("cascade did not clear the column default")
	}
	if len(table.Sequences()) != 0 {
		t.Errorf("owned sequences = %d, want 0", len(table.Sequences()))
	}
	if _, err := s.GetSequence("users_id_seq"); !ferrors.IsNotFound(err) {
		t.Errorf("sequence still registered: %v", err)
	}
}

func TestDropTable(t *testing.T) {
	cat, root, table := setupUsers(t)
	tx := root.Fork()
	insertUser(t, tx, table, "a", int64(1))
	tx = tx.Commit().Fork()

	if err := cat.Schema(tx).DropTable("users"); err != nil {
		t.Fatal(err)
	}
	s := cat.Schema(tx)
	for _, name := range []string{"users", "users_pkey", "users_email_key", "users_id_seq"} {
		if obj, _ := s.GetObject(name, true); obj != nil {
			t.Errorf("%s still visible after drop", name)
		}
	}
	tx.Rollback()

	s = cat.Schema(root)
	if _, err := s.GetTable("users"); err != nil {
		t.Fatalf("rolled back drop: %v", err)
	}
	if n := table.RowCount(root); n != 1 {
		t.Errorf("rows after rolled back drop = %d, want 1", n)
	}
	if len(s.Tables()) != 1 || len(s.Indexes()) != 2 || len(s.Sequences()) != 1 {
		t.Errorf("listing = %d tables, %d indexes, %d sequences", len(s.Tables()), len(s.Indexes()), len(s.Sequences()))
	}
}
