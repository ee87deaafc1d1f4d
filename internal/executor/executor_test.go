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
	"strings"
	"testing"

	"flymem/internal/catalog"
	ferrors "flymem/internal/errors"
	"flymem/internal/selection"
	"flymem/internal/sql"
	"flymem/internal/storage"
	"flymem/internal/types"
)

// session runs statements one after another in a single open transaction.
type session struct {
	t   *testing.T
	cat *catalog.Catalog
	tx  *storage.Transaction
}

func newSession(t *testing.T) *session {
	t.Helper()
	return &session{t: t, cat: catalog.New(3, types.DefaultCollator), tx: storage.NewRoot().Fork()}
}

func (s *session) run(text string) (*Result, error) {
	stmts, err := sql.Parse(text)
	if err != nil {
		return nil, err
	}
	var res *Result
	for _, stmt := range stmts {
		ex, err := Plan(s.cat.Schema(s.tx), stmt)
		if err != nil {
			return nil, err
		}
		res, err = ex.Execute(s.tx)
		if res != nil {
			s.tx = res.Tx
		}
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (s *session) exec(text string) *Result {
	s.t.Helper()
	res, err := s.run(text)
	if err != nil {
		s.t.Fatalf("%s: %v", text, err)
	}
	return res
}

// query renders each result row as its values joined by "|".
func (s *session) query(text string) []string {
	s.t.Helper()
	res := s.exec(text)
	out := make([]string, len(res.Rows))
	for i, row := range res.Rows {
		parts := make([]string, len(row.Values))
		for j, v := range row.Values {
			parts[j] = v.String()
		}
		out[i] = strings.Join(parts, "|")
	}
	return out
}

func (s *session) expectRows(text string, want ...string) {
	s.t.Helper()
	got := s.query(text)
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		s.t.Errorf("%s\n got: %q\nwant: %q", text, got, want)
	}
}

func seedUsers(t *testing.T) *session {
	t.Helper()
	s := newSession(t)
	s.exec(`CREATE TABLE users (id serial PRIMARY KEY, name text NOT NULL, age integer DEFAULT 18, email text UNIQUE);
		INSERT INTO users (name, age, email) VALUES ('ann', 30, 'ann@x'), ('bob', NULL, 'bob@x');
		INSERT INTO users (name, email) VALUES ('cid', NULL)`)
	return s
}

func TestInsertDefaultsAndSerial(t *testing.T) {
	s := seedUsers(t)
	s.expectRows("SELECT id, name, age, email FROM users ORDER BY id",
		"1|ann|30|ann@x", "2|bob|NULL|bob@x", "3|cid|18|NULL")

	res := s.exec("INSERT INTO users (name) VALUES ('dan'), ('eve')")
	if res.Command != CmdInsert || res.RowCount != 2 {
		t.Errorf("got %s %d, want INSERT 2", res.Command, res.RowCount)
	}
	s.expectRows("SELECT id FROM users WHERE id > 3 ORDER BY id", "4", "5")
}

func TestCommandTagsAndNoops(t *testing.T) {
	s := newSession(t)
	tests := []struct {
		sql  string
		want string
	}{
		{"CREATE TABLE t (a int)", CmdCreateTable},
		{"CREATE TABLE IF NOT EXISTS t (a int)", CmdCreateTable},
		{"CREATE INDEX t_a ON t (a)", CmdCreateIndex},
		{"CREATE INDEX IF NOT EXISTS t_a ON t (a)", CmdCreateIndex},
		{"CREATE SEQUENCE s START WITH 10", CmdCreateSequence},
		{"CREATE SEQUENCE IF NOT EXISTS s", CmdCreateSequence},
		{"DROP INDEX t_a", CmdDropIndex},
		{"DROP INDEX IF EXISTS t_a", CmdDropIndex},
		{"DROP SEQUENCE s", CmdDropSequence},
		{"DROP SEQUENCE IF EXISTS s", CmdDropSequence},
		{"DROP TABLE t", CmdDropTable},
		{"DROP TABLE IF EXISTS t", CmdDropTable},
	}
	for _, tt := range tests {
		res, err := s.run(tt.sql)
		if err != nil {
			t.Fatalf("%s: %v", tt.sql, err)
		}
		if res.Command != tt.want {
			t.Errorf("%s: command %q, want %q", tt.sql, res.Command, tt.want)
		}
	}
}

func TestPlanErrors(t *testing.T) {
	tests := []struct {
		name  string
		sql   string
		check func(error) bool
	}{
		{"duplicate table", "CREATE TABLE users (a int)", ferrors.IsQueryError},
		{"two primary keys", "CREATE TABLE t (a int PRIMARY KEY, b int PRIMARY KEY)", ferrors.IsQueryError},
		{"unknown type", "CREATE TABLE t (a widget)", ferrors.IsNotFound},
		{"unknown key column", "CREATE TABLE t (a int, PRIMARY KEY (b))", ferrors.IsNotFound},
		{"zero increment", "CREATE SEQUENCE s INCREMENT BY 0", ferrors.IsQueryError},
		{"index expression", "CREATE INDEX ON users (lower(name))", ferrors.IsNotSupported},
		{"missing table", "SELECT * FROM nope", ferrors.IsNotFound},
		{"missing column", "SELECT nope FROM users", ferrors.IsNotFound},
		{"bad star qualifier", "SELECT x.* FROM users", ferrors.IsQueryError},
		{"star without from", "SELECT *", ferrors.IsQueryError},
		{"value count", "INSERT INTO users (name) VALUES ('a', 1)", ferrors.IsQueryError},
		{"duplicate insert column", "INSERT INTO users (name, name) VALUES ('a', 'b')", ferrors.IsQueryError},
		{"duplicate assignment", "UPDATE users SET age = 1, age = 2", ferrors.IsQueryError},
		{"where not boolean", "SELECT * FROM users WHERE age", ferrors.IsQueryError},
		{"order position", "SELECT name FROM users ORDER BY 2", ferrors.IsQueryError},
		{"distinct order", "SELECT DISTINCT name FROM users ORDER BY age", ferrors.IsQueryError},
		{"aggregate", "SELECT count(id) FROM users", ferrors.IsNotSupported},
		{"unknown function", "SELECT frobnicate(1)", ferrors.IsNotSupported},
		{"duplicate alias", "SELECT * FROM users u JOIN users u ON true", ferrors.IsQueryError},
		{"ambiguous column", "SELECT name FROM users a JOIN users b ON a.id = b.id", ferrors.IsQueryError},
		{"constraint index", "DROP INDEX users_pkey", ferrors.IsQueryError},
		{"owned sequence", "DROP SEQUENCE users_id_seq", ferrors.IsQueryError},
		{"missing sequence", "SELECT nextval('nope')", ferrors.IsNotFound},
		{"type mismatch", "SELECT * FROM users WHERE name = 1", ferrors.IsQueryError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seedUsers(t)
			_, err := s.run(tt.sql)
			if err == nil {
				t.Fatalf("%s: expected an error", tt.sql)
			}
			if !tt.check(err) {
				t.Errorf("%s: unexpected error category: %v", tt.sql, err)
			}
		})
	}
}

func TestExecutionErrors(t *testing.T) {
	tests := []struct {
		name  string
		sql   string
		check func(error) bool
	}{
		{"unique", "INSERT INTO users (name, email) VALUES ('x', 'ann@x')", ferrors.IsConstraintError},
		{"not null", "INSERT INTO users (email) VALUES ('z@x')", ferrors.IsConstraintError},
		{"update unique", "UPDATE users SET email = 'ann@x' WHERE name = 'bob'", ferrors.IsConstraintError},
		{"cast", "SELECT 'abc'::integer", ferrors.IsCastError},
		{"unique index build", "INSERT INTO users (name, age) VALUES ('dup', 30); CREATE UNIQUE INDEX ON users (age)", ferrors.IsConstraintError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seedUsers(t)
			_, err := s.run(tt.sql)
			if err == nil || !tt.check(err) {
				t.Errorf("%s: got %v", tt.sql, err)
			}
		})
	}
}

func TestUpdateAndDelete(t *testing.T) {
	s := seedUsers(t)

	res := s.exec("UPDATE users SET age = age + 1, name = upper(name) WHERE age IS NOT NULL")
	if res.RowCount != 2 {
		t.Errorf("UPDATE affected %d rows, want 2", res.RowCount)
	}
	s.expectRows("SELECT name, age FROM users ORDER BY id", "ANN|31", "bob|NULL", "CID|19")

	res = s.exec("DELETE FROM users u WHERE u.age > 20")
	if res.Command != CmdDelete || res.RowCount != 1 {
		t.Errorf("got %s %d, want DELETE 1", res.Command, res.RowCount)
	}
	s.expectRows("SELECT name FROM users ORDER BY name", "CID", "bob")

	// The deleted key is free again.
	s.exec("INSERT INTO users (name, email) VALUES ('ann2', 'ann@x')")
	s.expectRows("SELECT name FROM users WHERE email = 'ann@x'", "ann2")
}

func TestSelectShapes(t *testing.T) {
	s := seedUsers(t)
	tests := []struct {
		sql  string
		want []string
	}{
		{"SELECT 1 + 2, 'a' || 'b'", []string{"3|ab"}},
		{"SELECT * FROM users WHERE id = 2", []string{"2|bob|NULL|bob@x"}},
		{"SELECT name FROM users WHERE age BETWEEN 18 AND 30 ORDER BY age DESC", []string{"ann", "cid"}},
		{"SELECT name FROM users ORDER BY age NULLS FIRST", []string{"bob", "cid", "ann"}},
		{"SELECT name FROM users ORDER BY age", []string{"cid", "ann", "bob"}},
		{"SELECT name AS n FROM users ORDER BY n DESC LIMIT 2", []string{"cid", "bob"}},
		{"SELECT name FROM users ORDER BY 1 LIMIT 1 OFFSET 1", []string{"bob"}},
		{"SELECT name FROM users ORDER BY id LIMIT ALL OFFSET 2", []string{"cid"}},
		{"SELECT DISTINCT age IS NULL FROM users ORDER BY 1", []string{"false", "true"}},
		{"SELECT name FROM users WHERE name IN ('bob', 'cid') AND NOT age IS NULL", []string{"cid"}},
		{"SELECT name FROM users WHERE age <> 30 OR email IS NULL ORDER BY id", []string{"cid"}},
		{"SELECT coalesce(age, 0) FROM users ORDER BY id", []string{"30", "0", "18"}},
		{"SELECT id FROM users WHERE '2' = id", []string{"2"}},
		{"SELECT id FROM users WHERE id >= 2 AND id < 3", []string{"2"}},
		{"SELECT id FROM users WHERE 2 < id", []string{"3"}},
		{"SELECT users.name FROM users WHERE email = 'bob@x'", []string{"bob"}},
	}
	for _, tt := range tests {
		s.expectRows(tt.sql, tt.want...)
	}
}

func TestResultColumns(t *testing.T) {
	s := seedUsers(t)
	res := s.exec("SELECT u.*, age + 1, name AS who FROM users u WHERE false")
	got := strings.Join(res.Columns.Names(), ",")
	if got != "id,name,age,email,?column?,who" {
		t.Errorf("columns = %s", got)
	}
	if res.RowCount != 0 || len(res.Rows) != 0 {
		t.Errorf("expected no rows, got %d", res.RowCount)
	}
}

func TestJoins(t *testing.T) {
	s := newSession(t)
	s.exec(`CREATE TABLE a (id int PRIMARY KEY, v text);
		CREATE TABLE b (id int, a_id int);
		INSERT INTO a VALUES (1, 'one'), (2, 'two'), (3, 'three');
		INSERT INTO b VALUES (10, 1), (11, 1), (12, 4)`)
	tests := []struct {
		sql  string
		want []string
	}{
		{"SELECT a.id, b.id FROM a JOIN b ON a.id = b.a_id ORDER BY b.id", []string{"1|10", "1|11"}},
		{"SELECT a.id, b.id FROM a LEFT JOIN b ON a.id = b.a_id ORDER BY a.id, b.id", []string{"1|10", "1|11", "2|NULL", "3|NULL"}},
		{"SELECT a.id, b.id FROM a RIGHT JOIN b ON a.id = b.a_id ORDER BY b.id", []string{"1|10", "1|11", "NULL|12"}},
	}
	for _, tt := range tests {
		s.expectRows(tt.sql, tt.want...)
	}
	if got := s.query("SELECT * FROM a CROSS JOIN b"); len(got) != 9 {
		t.Errorf("cross join returned %d rows, want 9", len(got))
	}
	if got := s.query("SELECT * FROM a, b WHERE a.id = b.a_id"); len(got) != 2 {
		t.Errorf("comma join returned %d rows, want 2", len(got))
	}
}

func TestInsertSelect(t *testing.T) {
	s := seedUsers(t)
	s.exec("CREATE TABLE names (n text, a numeric)")
	res := s.exec("INSERT INTO names SELECT name, age FROM users WHERE age IS NOT NULL")
	if res.RowCount != 2 {
		t.Errorf("INSERT ... SELECT inserted %d rows, want 2", res.RowCount)
	}
	s.expectRows("SELECT n, a FROM names ORDER BY n", "ann|30", "cid|18")

	// The source is read before any row is written.
	s.exec("INSERT INTO names SELECT n, a FROM names")
	s.expectRows("SELECT n FROM names ORDER BY n", "ann", "ann", "cid", "cid")
}

func TestSequences(t *testing.T) {
	s := newSession(t)
	s.exec("CREATE SEQUENCE s START WITH 5 INCREMENT BY 5")
	s.expectRows("SELECT nextval('s')", "5")
	s.expectRows("SELECT nextval('s')", "10")

	s.exec("CREATE SEQUENCE down INCREMENT BY -1")
	s.expectRows("SELECT nextval('down')", "-1")
}

func TestDropSequenceCascadeClearsDefault(t *testing.T) {
	s := seedUsers(t)
	s.exec("DROP SEQUENCE users_id_seq CASCADE")
	_, err := s.run("INSERT INTO users (name) VALUES ('x')")
	if !ferrors.IsConstraintError(err) {
		t.Errorf("insert without id after CASCADE: got %v, want NOT NULL violation", err)
	}
}

func TestStructuralDDLCommitsChain(t *testing.T) {
	s := seedUsers(t)
	before := s.tx
	s.exec("CREATE INDEX users_age ON users (age)")
	if before.IsOpen() {
		t.Fatal("transaction should be committed by CREATE INDEX")
	}
	if s.tx.Parent() == nil || !s.tx.Parent().IsRoot() {
		t.Fatal("CREATE INDEX should continue in a fork of the root")
	}
	s.expectRows("SELECT name FROM users WHERE age = 18", "cid")

	// A failed change still leaves a usable fork, and the work before it
	// stays committed.
	s.exec("INSERT INTO users (name) VALUES ('ann')")
	_, err := s.run("CREATE UNIQUE INDEX dup ON users (name)")
	if !ferrors.IsConstraintError(err) {
		t.Fatalf("expected duplicate key, got %v", err)
	}
	if !s.tx.IsOpen() {
		t.Fatal("session transaction must be open after a failed structural change")
	}
	s.expectRows("SELECT id FROM users WHERE name = 'ann' ORDER BY id", "1", "4")
	if _, err := s.cat.Schema(s.tx).GetIndex("dup"); !ferrors.IsNotFound(err) {
		t.Errorf("failed index should not exist, got %v", err)
	}
}

func TestIndexConstraintSelection(t *testing.T) {
	s := seedUsers(t)
	schema := s.cat.Schema(s.tx)
	users, err := schema.GetTable("users")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		where       string
		constrained bool
	}{
		{"id = 1", true},
		{"1 = id", true},
		{"id > 1", true},
		{"id BETWEEN 1 AND 2", true},
		{"email = 'a'", true},
		{"id = 1.5", false},
		{"age = 1", false},
		{"id = age", false},
		{"id = 1 OR id = 2", false},
		{"NOT id = 1", false},
	}
	for _, tt := range tests {
		t.Run(tt.where, func(t *testing.T) {
			stmts, err := sql.Parse("SELECT * FROM users WHERE " + tt.where)
			if err != nil {
				t.Fatal(err)
			}
			scan := selection.NewScan(users, "")
			pred, err := newBinder(schema, scan.Schema()).bind(stmts[0].(*sql.SelectStmt).Where)
			if err != nil {
				t.Fatal(err)
			}
			constrainScan(scan, pred)
			if scan.Constrained() != tt.constrained {
				t.Errorf("Constrained() = %v, want %v", scan.Constrained(), tt.constrained)
			}
		})
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		text string
		kind types.Kind
		want string
	}{
		{"42", types.KindInt, "42"},
		{"-9223372036854775808", types.KindInt, "-9223372036854775808"},
		{"9223372036854775808", types.KindNumeric, "9223372036854775808"},
		{"1.50", types.KindNumeric, "1.5"},
		{"1e3", types.KindNumeric, "1000"},
	}
	for _, tt := range tests {
		v, err := numberLiteral(tt.text)
		if err != nil {
			t.Fatalf("%s: %v", tt.text, err)
		}
		if v.Kind() != tt.kind || v.String() != tt.want {
			t.Errorf("%s: got %s %s, want %s %s", tt.text, v.Kind(), v, tt.kind, tt.want)
		}
	}
}
