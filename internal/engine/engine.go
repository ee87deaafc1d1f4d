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
Package engine runs SQL text against one in-memory database.

Runner Overview:
================

The engine owns the committed root transaction and a session scope forked
from it. A call to Exec parses the text (through the statement cache) and
runs every statement in order:

	session scope ──Fork──▶ statement scope ──Plan/Execute──▶ Commit
	                                                      └─▶ Rollback on error

A statement that fails rolls back its own scope only; the session scope
stays open and keeps the work of earlier statements. The batch stops at the
first failure and returns its error.

Autocommit:
===========

Outside an explicit transaction the session scope is fully committed after
every successful statement and a fresh one is forked. BEGIN suspends this
until COMMIT (full commit) or ROLLBACK (discard the session scope).

Structural DDL commits the session scope itself and hands back a new one
in Result.Tx; the engine adopts it, even when the statement failed.

Concurrency:
============

An Engine is not safe for concurrent use. pkg/flymem serializes callers.
*/
package engine

import (
	"time"

	"flymem/internal/cache"
	"flymem/internal/catalog"
	"flymem/internal/config"
	ferrors "flymem/internal/errors"
	"flymem/internal/executor"
	"flymem/internal/logging"
	"flymem/internal/metrics"
	"flymem/internal/sql"
	"flymem/internal/storage"
	"flymem/internal/types"
)

var engineLog = logging.NewLogger("engine")

// Transaction control command tags.
const (
	CmdBegin    = "BEGIN"
	CmdCommit   = "COMMIT"
	CmdRollback = "ROLLBACK"
)

// Engine is one database with a single session.
type Engine struct {
	cat      *catalog.Catalog
	cur      *storage.Transaction
	explicit bool

	stmts   *cache.Cache[[]sql.Statement]
	metrics *metrics.Metrics
}

// New creates an empty database configured by cfg. A nil cfg uses the
// defaults.
func New(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	collator, err := types.NewCollator(types.Collation(cfg.Collation), cfg.Locale)
	if err != nil {
		return nil, err
	}
	root := storage.NewRoot()
	e := &Engine{
		cat:     catalog.New(cfg.IndexDegree, collator),
		cur:     root.Fork(),
		stmts:   cache.New[[]sql.Statement](cache.Config{MaxEntries: cfg.StatementCache}),
		metrics: metrics.New(),
	}
	engineLog.Debug("Engine created", "collation", collator.Name(), "index_degree", cfg.IndexDegree,
		"statement_cache", cfg.StatementCache)
	return e, nil
}

// InTransaction reports whether an explicit transaction is open.
func (e *Engine) InTransaction() bool { return e.explicit }

// Schema returns a read view of the schema as the session sees it.
func (e *Engine) Schema() *catalog.Schema { return e.cat.Schema(e.cur) }

// Stats holds the engine counters and statement cache statistics.
type Stats struct {
	Metrics metrics.Snapshot
	Cache   cache.Stats
}

// Stats returns current statistics.
func (e *Engine) Stats() Stats {
	return Stats{Metrics: e.metrics.Snapshot(), Cache: e.stmts.Stats()}
}

// parse returns the statements of text, from the cache when possible.
func (e *Engine) parse(text string) ([]sql.Statement, error) {
	if stmts, ok := e.stmts.Get(text); ok {
		return stmts, nil
	}
	stmts, err := sql.Parse(text)
	if err != nil {
		return nil, err
	}
	e.stmts.Set(text, stmts)
	return stmts, nil
}

// Exec runs every statement of text and returns the result of the last
// one. An empty text yields an empty result.
func (e *Engine) Exec(text string) (*executor.Result, error) {
	sc := logging.NewStatementContext(text)
	stmts, err := e.parse(text)
	if err != nil {
		e.metrics.RecordFailure()
		sc.LogError(engineLog, err)
		return nil, err
	}

	res := &executor.Result{Tx: e.cur}
	for i, stmt := range stmts {
		start := time.Now()
		if res, err = e.run(stmt); err != nil {
			e.metrics.RecordFailure()
			sc.LogError(engineLog, err, "statement", i+1, "statements", len(stmts))
			return nil, err
		}
		e.metrics.RecordStatement(res.Command, time.Since(start))
	}
	sc.LogComplete(engineLog, res.Command, "statements", len(stmts), "rows", res.RowCount)
	return res, nil
}

func (e *Engine) run(stmt sql.Statement) (*executor.Result, error) {
	switch stmt.(type) {
	case *sql.BeginStmt:
		if e.explicit {
			return nil, ferrors.TransactionAlreadyActive()
		}
		e.explicit = true
		e.metrics.TransactionsBegun.Add(1)
		return &executor.Result{Command: CmdBegin, Tx: e.cur}, nil

	case *sql.CommitStmt:
		if !e.explicit {
			return nil, ferrors.TransactionNotActive()
		}
		e.cur = e.cur.FullCommit().Fork()
		e.explicit = false
		e.metrics.TransactionsCommitted.Add(1)
		return &executor.Result{Command: CmdCommit, Tx: e.cur}, nil

	case *sql.RollbackStmt:
		if !e.explicit {
			return nil, ferrors.TransactionNotActive()
		}
		e.cur = e.cur.Rollback().Fork()
		e.explicit = false
		e.metrics.TransactionsRolledBack.Add(1)
		return &executor.Result{Command: CmdRollback, Tx: e.cur}, nil
	}

	stmtTx := e.cur.Fork()
	ex, err := executor.Plan(e.cat.Schema(stmtTx), stmt)
	if err != nil {
		stmtTx.Rollback()
		return nil, err
	}
	res, err := ex.Execute(stmtTx)
	if err != nil {
		if res != nil && res.Tx != nil && res.Tx != stmtTx {
			// Structural change: the statement scope is already committed.
			e.cur = res.Tx
		} else {
			stmtTx.Rollback()
		}
		return nil, err
	}

	if res.Tx != stmtTx {
		e.cur = res.Tx
	} else {
		stmtTx.Commit()
	}
	if !e.explicit {
		e.cur = e.cur.FullCommit().Fork()
		e.metrics.Autocommits.Add(1)
	}
	res.Tx = e.cur
	return res, nil
}
