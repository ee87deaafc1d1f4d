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

package main

import (
	"bytes"
	"strings"
	"testing"

	"flymem/pkg/flymem"
)

func newTestShell(t *testing.T) (*shell, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	db, err := flymem.Open(nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	var out, errOut bytes.Buffer
	sh := newShell(db, &out)
	sh.errOut = &errOut
	return sh, &out, &errOut
}

func TestTerminated(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"SELECT 1;", true},
		{"SELECT 1;  ", true},
		{"SELECT 1", false},
		{"SELECT ';'", false},
		{"SELECT 'a;b';", true},
		{"SELECT 'it''s';", true},
		{"SELECT 1; -- done", true},
		{"SELECT 1 -- not yet;", false},
		{"SELECT \"a;\"", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := terminated(tt.text); got != tt.want {
				t.Errorf("terminated(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestStatementBuffer(t *testing.T) {
	var buf statementBuffer

	if _, ok := buf.Add("   "); ok || buf.Pending() {
		t.Fatal("Blank lines should be skipped")
	}
	if _, ok := buf.Add("SELECT a"); ok {
		t.Fatal("Statement should not be complete yet")
	}
	if !buf.Pending() {
		t.Fatal("Expected pending input")
	}
	text, ok := buf.Add("FROM t;")
	if !ok || text != "SELECT a\nFROM t;" {
		t.Errorf("Unexpected statement %q (complete %v)", text, ok)
	}
	if buf.Pending() {
		t.Error("Buffer should be empty after a complete statement")
	}

	if text, ok := buf.Add(`\dt`); !ok || text != `\dt` {
		t.Errorf("Commands should complete at once, got %q", text)
	}

	// A backslash inside a statement is not a command.
	buf.Add("SELECT")
	if _, ok := buf.Add(`\dt`); ok {
		t.Error("A line inside a statement should not complete it")
	}
}

func TestSplitCommand(t *testing.T) {
	name, arg := splitCommand(`\d  users;`)
	if name != `\d` || arg != "users" {
		t.Errorf("Unexpected split %q %q", name, arg)
	}
}

func TestExecutePrintsResults(t *testing.T) {
	sh, out, errOut := newTestShell(t)

	if !sh.execute("CREATE TABLE t (a int, b text); INSERT INTO t VALUES (1, 'x'), (2, NULL);") {
		t.Fatalf("execute failed: %s", errOut)
	}
	if got := out.String(); got != "INSERT 2\n" {
		t.Errorf("Expected INSERT 2, got %q", got)
	}

	out.Reset()
	if !sh.execute("SELECT a, b AS label FROM t ORDER BY a;") {
		t.Fatalf("execute failed: %s", errOut)
	}
	for _, want := range []string{"a", "label", "1", "x", "NULL", "(2 rows)"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}

	out.Reset()
	sh.execute("CREATE INDEX t_a ON t (a);")
	if got := out.String(); got != "CREATE INDEX\n" {
		t.Errorf("Expected the command tag, got %q", got)
	}
}

func TestExecutePrintsErrors(t *testing.T) {
	sh, out, errOut := newTestShell(t)
	if sh.execute("SELECT * FROM nope;") {
		t.Fatal("Expected failure")
	}
	if out.Len() != 0 {
		t.Errorf("Nothing should go to stdout, got %q", out)
	}
	if !strings.Contains(errOut.String(), "nope") {
		t.Errorf("Expected the error on stderr, got %q", errOut)
	}
}

func TestCommands(t *testing.T) {
	sh, out, errOut := newTestShell(t)
	sh.execute("CREATE TABLE users (id serial PRIMARY KEY, email text UNIQUE);")
	out.Reset()

	tests := []struct {
		command string
		want    []string
	}{
		{`\dt`, []string{"users", "table", "rows"}},
		{`\d users`, []string{"id", "email", "integer", "text"}},
		{`\di`, []string{"users_pkey", "primary key", "users_email_key", "unique"}},
		{`\ds`, []string{"users_id_seq", "users.id"}},
		{`\stats`, []string{"flymem_statements_total 1", "statement cache"}},
		{`\timing`, []string{"Timing is on."}},
		{`\h`, []string{"Shell Commands", `\dt`}},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			out.Reset()
			if sh.command(tt.command) {
				t.Fatal("Command should not quit")
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("Output missing %q:\n%s", want, out)
				}
			}
		})
	}

	if !sh.command(`\q`) {
		t.Error(`\q should quit`)
	}
	errOut.Reset()
	sh.command(`\nope`)
	if !strings.Contains(errOut.String(), "unknown command") {
		t.Errorf("Expected an unknown command error, got %q", errOut)
	}
}

func TestRunScript(t *testing.T) {
	sh, out, errOut := newTestShell(t)
	script := strings.Join([]string{
		"CREATE TABLE t (a int);",
		"INSERT INTO t",
		"  VALUES (1), (2);",
		"INSERT INTO nope VALUES (1);",
		`\dt`,
		"SELECT count_of_nothing FROM t;",
		"SELECT a FROM t WHERE a = 2",
	}, "\n")

	if sh.runScript(strings.NewReader(script)) {
		t.Error("Expected the script to report failure")
	}
	if got := strings.Count(errOut.String(), "ERROR"); got != 2 {
		t.Errorf("Expected 2 errors, got %d:\n%s", got, errOut)
	}
	// The trailing statement without a semicolon still runs.
	if !strings.Contains(out.String(), "(1 row)") {
		t.Errorf("Expected the final SELECT to run:\n%s", out)
	}

	sh2, _, _ := newTestShell(t)
	if !sh2.runScript(strings.NewReader("CREATE TABLE t (a int);\n\\q\nSELECT * FROM nope;")) {
		t.Error(`Statements after \q should not run`)
	}
}
