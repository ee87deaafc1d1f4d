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

package engine

import (
	"testing"

	"flymem/internal/config"
	ferrors "flymem/internal/errors"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

func mustExec(t *testing.T, e *Engine, text string) {
	t.Helper()
	if _, err := e.Exec(text); err != nil {
		t.Fatalf("%s: %v", text, err)
	}
}

func count(t *testing.T, e *Engine, table string) int64 {
	t.Helper()
	res, err := e.Exec("SELECT * FROM " + table)
	if err != nil {
		t.Fatalf("SELECT from %s: %v", table, err)
	}
	return res.RowCount
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Collation = "klingon"
	if _, err := New(cfg); err == nil {
		t.Fatal("Expected an error for an unknown collation")
	}
}

func TestAutocommit(t *testing.T) {
	e := newEngine(t)
	mustExec(t, e, "CREATE TABLE t (a int PRIMARY KEY)")
	mustExec(t, e, "INSERT INTO t VALUES (1)")

	// A failing statement leaves earlier work in place.
	if _, err := e.Exec("INSERT INTO t VALUES (2); INSERT INTO t VALUES (1)"); !ferrors.IsConstraintError(err) {
		t.Fatalf("Expected duplicate key, got %v", err)
	}
	if n := count(t, e, "t"); n != 2 {
		t.Errorf("Expected 2 rows, got %d", n)
	}
	if e.InTransaction() {
		t.Error("No explicit transaction should be open")
	}
}

func TestFailedStatementIsRolledBack(t *testing.T) {
	e := newEngine(t)
	mustExec(t, e, "CREATE TABLE t (a int UNIQUE)")
	mustExec(t, e, "INSERT INTO t VALUES (1)")

	// The second row of the same statement conflicts; the first must not
	// survive either.
	if _, err := e.Exec("INSERT INTO t VALUES (2), (1)"); err == nil {
		t.Fatal("Expected duplicate key")
	}
	if n := count(t, e, "t"); n != 1 {
		t.Errorf("Expected 1 row, got %d", n)
	}
}

func TestExplicitTransaction(t *testing.T) {
	e := newEngine(t)
	mustExec(t, e, "CREATE TABLE t (a int)")

	mustExec(t, e, "BEGIN")
	if !e.InTransaction() {
		t.Fatal("Expected an open transaction")
	}
	mustExec(t, e, "INSERT INTO t VALUES (1), (2)")
	if _, err := e.Exec("SELECT nope FROM t"); err == nil {
		t.Fatal("Expected an error")
	}
	if n := count(t, e, "t"); n != 2 {
		t.Errorf("Expected 2 rows inside the transaction, got %d", n)
	}
	mustExec(t, e, "ROLLBACK")
	if n := count(t, e, "t"); n != 0 {
		t.Errorf("Expected 0 rows after ROLLBACK, got %d", n)
	}

	mustExec(t, e, "BEGIN; INSERT INTO t VALUES (3); COMMIT")
	if n := count(t, e, "t"); n != 1 {
		t.Errorf("Expected 1 row after COMMIT, got %d", n)
	}
}

func TestTransactionControlErrors(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"commit without begin", "COMMIT"},
		{"rollback without begin", "ROLLBACK"},
		{"nested begin", "BEGIN; BEGIN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t)
			_, err := e.Exec(tt.sql)
			if !ferrors.IsTransactionError(err) {
				t.Errorf("Expected a transaction error, got %v", err)
			}
		})
	}
}

func TestStructuralDDLInsideTransaction(t *testing.T) {
	e := newEngine(t)
	mustExec(t, e, "CREATE TABLE t (a int)")
	mustExec(t, e, "BEGIN; INSERT INTO t VALUES (1)")

	// CREATE INDEX commits the work so far.
	mustExec(t, e, "CREATE INDEX t_a ON t (a)")
	mustExec(t, e, "INSERT INTO t VALUES (2)")
	mustExec(t, e, "ROLLBACK")

	if n := count(t, e, "t"); n != 1 {
		t.Errorf("Expected the row inserted before CREATE INDEX to survive, got %d rows", n)
	}
	if _, err := e.Schema().GetIndex("t_a"); err != nil {
		t.Errorf("Index should survive ROLLBACK: %v", err)
	}
}

func TestFailedStructuralDDLKeepsSessionUsable(t *testing.T) {
	e := newEngine(t)
	mustExec(t, e, "CREATE TABLE t (a int); INSERT INTO t VALUES (1), (1)")
	if _, err := e.Exec("CREATE UNIQUE INDEX t_a ON t (a)"); !ferrors.IsConstraintError(err) {
		t.Fatalf("Expected duplicate key, got %v", err)
	}
	mustExec(t, e, "INSERT INTO t VALUES (2)")
	if n := count(t, e, "t"); n != 3 {
		t.Errorf("Expected 3 rows, got %d", n)
	}
}

func TestEmptyBatch(t *testing.T) {
	e := newEngine(t)
	res, err := e.Exec("  ;  -- nothing")
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if res.Command != "" || res.RowCount != 0 {
		t.Errorf("Expected an empty result, got %+v", res)
	}
}

func TestStatsAndCache(t *testing.T) {
	e := newEngine(t)
	mustExec(t, e, "CREATE TABLE t (a int)")
	mustExec(t, e, "SELECT * FROM t")
	mustExec(t, e, "SELECT * FROM t")
	_, _ = e.Exec("SELECT * FROM nope")
	mustExec(t, e, "BEGIN; COMMIT")

	s := e.Stats()
	if s.Metrics.ByCommand["SELECT"] != 2 || s.Metrics.ByCommand["CREATE TABLE"] != 1 {
		t.Errorf("Unexpected per-command counts %v", s.Metrics.ByCommand)
	}
	if s.Metrics.Failed != 1 {
		t.Errorf("Expected 1 failure, got %d", s.Metrics.Failed)
	}
	if s.Metrics.TransactionsBegun != 1 || s.Metrics.TransactionsCommitted != 1 {
		t.Errorf("Unexpected transaction counts %+v", s.Metrics)
	}
	if s.Cache.Hits != 1 {
		t.Errorf("Expected 1 statement cache hit, got %d", s.Cache.Hits)
	}
}
