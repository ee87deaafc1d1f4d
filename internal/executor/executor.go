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
Package executor plans and executes SQL statements.

Executor Overview:
==================

Every statement goes through two phases:

	AST ──Plan(schema)──▶ Executor ──Execute(tx)──▶ Result
	        │                          │
	        names, types,              rows, indexes,
	        existence checks           sequences

Planning reads the schema only. It resolves table and column names,
type-checks expressions and builds the selection tree of a query. Every
user error that does not depend on data is raised here, before the
transaction is touched.

Execution runs against the transaction it is given and performs the
mutation or drains the query. Data dependent errors (casts, unique
violations, NOT NULL) surface here.

IF EXISTS / IF NOT EXISTS:
==========================

When the tolerated condition holds, Plan returns a no-op executor whose
Execute returns the command tag and changes nothing.

Structural DDL:
===============

CREATE INDEX, DROP INDEX and DROP SEQUENCE change the index or sequence
set of a table object directly, which no transaction can undo. Their
executors first fully commit the transaction chain, apply the change to
the committed root and return a fresh fork in Result.Tx. Result.Tx is set
even when the change itself fails, because the input transaction is no
longer open by then.
*/
package executor

import (
	"fmt"

	"flymem/internal/catalog"
	ferrors "flymem/internal/errors"
	"flymem/internal/expr"
	"flymem/internal/logging"
	"flymem/internal/sql"
	"flymem/internal/storage"
)

var execLog = logging.NewLogger("executor")

// Command tags.
const (
	CmdCreateTable    = "CREATE TABLE"
	CmdCreateIndex    = "CREATE INDEX"
	CmdCreateSequence = "CREATE SEQUENCE"
	CmdDropTable      = "DROP TABLE"
	CmdDropIndex      = "DROP INDEX"
	CmdDropSequence   = "DROP SEQUENCE"
	CmdInsert         = "INSERT"
	CmdUpdate         = "UPDATE"
	CmdDelete         = "DELETE"
	CmdSelect         = "SELECT"
)

// Result describes the outcome of one statement.
type Result struct {
	// Command is the command tag, e.g. "INSERT" or "DROP INDEX".
	Command string
	// RowCount is the number of rows affected or returned.
	RowCount int64
	// Columns and Rows are set for SELECT.
	Columns expr.Schema
	Rows    []*expr.Row
	// Tx is the transaction to continue in. It is the input transaction
	// unless the statement committed it.
	Tx *storage.Transaction
}

// Executor is a planned statement.
type Executor interface {
	// Command returns the command tag of the statement.
	Command() string
	// Execute runs the statement in tx.
	Execute(tx *storage.Transaction) (*Result, error)
}

// Plan validates stmt against schema and returns its executor. The
// schema's transaction is only read.
func Plan(schema *catalog.Schema, stmt sql.Statement) (Executor, error) {
	var (
		ex  Executor
		err error
	)
	switch s := stmt.(type) {
	case *sql.CreateTableStmt:
		ex, err = planCreateTable(schema, s)
	case *sql.CreateIndexStmt:
		ex, err = planCreateIndex(schema, s)
	case *sql.CreateSequenceStmt:
		ex, err = planCreateSequence(schema, s)
	case *sql.DropTableStmt:
		ex, err = planDropTable(schema, s)
	case *sql.DropIndexStmt:
		ex, err = planDropIndex(schema, s)
	case *sql.DropSequenceStmt:
		ex, err = planDropSequence(schema, s)
	case *sql.InsertStmt:
		ex, err = planInsert(schema, s)
	case *sql.UpdateStmt:
		ex, err = planUpdate(schema, s)
	case *sql.DeleteStmt:
		ex, err = planDelete(schema, s)
	case *sql.SelectStmt:
		ex, err = planSelect(schema, s)
	default:
		return nil, ferrors.NotSupported(fmt.Sprintf("statement %T", stmt))
	}
	if err != nil {
		execLog.Debug("Plan failed", "error", err)
		return nil, err
	}
	execLog.Debug("Planned statement", "command", ex.Command())
	return ex, nil
}

// noop is the executor of a statement whose IF [NOT] EXISTS condition
// already holds.
type noop struct {
	command string
}

func skip(command, reason string) *noop {
	execLog.Debug("Statement skipped", "command", command, "reason", reason)
	return &noop{command: command}
}

func (n *noop) Command() string { return n.command }

func (n *noop) Execute(tx *storage.Transaction) (*Result, error) {
	return &Result{Command: n.command, Tx: tx}, nil
}

// structural runs change against the fully committed root and returns a
// fresh fork to continue in.
func structural(tx *storage.Transaction, command string, change func(*storage.Transaction) error) (*Result, error) {
	root := tx.FullCommit()
	err := change(root)
	res := &Result{Command: command, Tx: root.Fork()}
	if err != nil {
		execLog.Debug("Structural change failed after commit", "command", command, "error", err)
	}
	return res, err
}
