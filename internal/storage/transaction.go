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
Transaction Implementation
===========================

This file implements the versioning scope every read and write of FlyMem
goes through. All mutable state (row stores, index trees, sequence values,
schema registrations) lives in transactions as keyed objects.

Transaction Model:
==================

Transactions form a chain. The root holds the committed state and is
never terminal. Every other transaction is a fork layered over its parent:

  - Reads walk the chain from the transaction towards the root and return
    the first pending value (or tombstone) found for a key.
  - Writes are recorded in the transaction's own pending map only.
  - Commit folds the pending map into the parent and returns the parent.
  - Rollback discards the pending map and returns the parent.
  - FullCommit commits every transaction up to the root and returns it.

Committed and rolled back transactions are terminal. Any further use
panics with an INTERNAL *errors.Error: reusing a finished scope is a
programming error in the caller, never a recoverable condition.

Stored values are treated as immutable by readers. Mutable structures
such as B-trees are copied into a transaction on its first write (see
Mutate) and cloned with copy-on-write, so a fork costs O(1).

If the parent is written while a child is open, the child still sees the
parent's current value for keys it has not written itself. On commit the
child's value for a key replaces the parent's (last writer wins per key).
The engine runs one statement fork at a time, so this does not arise in
practice.

Usage:
======

	root := storage.NewRoot()
	tx := root.Fork()
	tx.Set("seq:1", int64(5))
	root = tx.Commit() // tx is now terminal
*/
package storage

import (
	"sort"
	"strings"
	"sync/atomic"

	ferrors "flymem/internal/errors"
	"flymem/internal/logging"
)

// TxState represents the lifecycle state of a transaction.
type TxState int

const (
	TxStateOpen TxState = iota
	TxStateCommitted
	TxStateRolledBack
)

// String returns the state name used in errors and logs.
func (s TxState) String() string {
	switch s {
	case TxStateOpen:
		return "open"
	case TxStateCommitted:
		return "committed"
	case TxStateRolledBack:
		return "rolled back"
	default:
		return "unknown"
	}
}

// tombstone records a delete pending in a fork.
type tombstone struct{}

var (
	txLog    = logging.NewLogger("transaction")
	txIDNext atomic.Uint64
)

// Transaction is one versioning scope. See the file comment for the model.
//
// Thread Safety: a transaction chain must be used from one goroutine at a
// time.
type Transaction struct {
	id      uint64
	parent  *Transaction
	depth   int
	pending map[string]any
	state   TxState
}

// NewRoot creates a root transaction holding empty committed state.
func NewRoot() *Transaction {
	return &Transaction{
		id:      txIDNext.Add(1),
		pending: make(map[string]any),
	}
}

// ID returns the transaction's process-unique identifier.
func (tx *Transaction) ID() uint64 { return tx.id }

// Parent returns the parent scope, or nil for the root.
func (tx *Transaction) Parent() *Transaction { return tx.parent }

// Depth returns the number of ancestors. The root has depth 0.
func (tx *Transaction) Depth() int { return tx.depth }

// IsRoot reports whether tx is the committed root.
func (tx *Transaction) IsRoot() bool { return tx.parent == nil }

// State returns the lifecycle state.
func (tx *Transaction) State() TxState { return tx.state }

// IsOpen reports whether tx accepts reads and writes.
func (tx *Transaction) IsOpen() bool { return tx.state == TxStateOpen }

// Root returns the root of the chain.
func (tx *Transaction) Root() *Transaction {
	t := tx
	for t.parent != nil {
		t = t.parent
	}
	return t
}

// PendingCount returns the number of keys written in this scope.
func (tx *Transaction) PendingCount() int {
	return len(tx.pending)
}

func (tx *Transaction) mustBeOpen(op string) {
	if tx.state != TxStateOpen {
		panic(ferrors.TerminalTransaction(tx.id, tx.state.String(), op))
	}
}

// Fork creates an open child transaction layered over tx.
func (tx *Transaction) Fork() *Transaction {
	tx.mustBeOpen("fork")
	child := &Transaction{
		id:      txIDNext.Add(1),
		parent:  tx,
		depth:   tx.depth + 1,
		pending: make(map[string]any),
	}
	txLog.Debug("fork", "tx", child.id, "parent", tx.id, "depth", child.depth)
	return child
}

// Commit folds the pending changes of tx into its parent, marks tx as
// committed and returns the parent. Committing the root is a no-op that
// returns the root itself.
func (tx *Transaction) Commit() *Transaction {
	tx.mustBeOpen("commit")
	if tx.parent == nil {
		return tx
	}
	parent := tx.parent
	parent.mustBeOpen("accept commit")

	for key, value := range tx.pending {
		if _, isTomb := value.(tombstone); isTomb && parent.parent == nil {
			delete(parent.pending, key)
			continue
		}
		parent.pending[key] = value
	}
	txLog.Debug("commit", "tx", tx.id, "parent", parent.id, "changes", len(tx.pending))

	tx.pending = nil
	tx.state = TxStateCommitted
	return parent
}

// Rollback discards the pending changes of tx, marks it rolled back and
// returns the parent. Rolling back the root panics.
func (tx *Transaction) Rollback() *Transaction {
	tx.mustBeOpen("roll back")
	if tx.parent == nil {
		panic(ferrors.Internal("cannot roll back the root transaction"))
	}
	txLog.Debug("rollback", "tx", tx.id, "parent", tx.parent.id, "discarded", len(tx.pending))
	tx.pending = nil
	tx.state = TxStateRolledBack
	return tx.parent
}

// FullCommit commits tx and every ancestor up to the root and returns the
// root. All transactions on the way become terminal.
func (tx *Transaction) FullCommit() *Transaction {
	tx.mustBeOpen("full commit")
	from, levels := tx.id, tx.depth
	root := tx.Root()
	for t := tx; t != root; {
		t = t.Commit()
	}
	txLog.Debug("full commit", "tx", from, "root", root.id, "levels", levels)
	return root
}

// Get returns the value visible to tx under key.
func (tx *Transaction) Get(key string) (any, bool) {
	tx.mustBeOpen("read")
	for t := tx; t != nil; t = t.parent {
		if v, ok := t.pending[key]; ok {
			if _, isTomb := v.(tombstone); isTomb {
				return nil, false
			}
			return v, true
		}
	}
	return nil, false
}

// Owns reports whether key was written in this scope itself.
func (tx *Transaction) Owns(key string) bool {
	tx.mustBeOpen("read")
	v, ok := tx.pending[key]
	if !ok {
		return false
	}
	_, isTomb := v.(tombstone)
	return !isTomb
}

// Set records value under key in this scope.
func (tx *Transaction) Set(key string, value any) {
	tx.mustBeOpen("write")
	tx.pending[key] = value
}

// Delete hides key from this scope and, once committed, from its ancestors.
func (tx *Transaction) Delete(key string) {
	tx.mustBeOpen("write")
	if tx.parent == nil {
		delete(tx.pending, key)
		return
	}
	tx.pending[key] = tombstone{}
}

// Keys returns the visible keys starting with prefix, sorted.
func (tx *Transaction) Keys(prefix string) []string {
	tx.mustBeOpen("read")
	seen := make(map[string]bool)
	for t := tx; t != nil; t = t.parent {
		for key, v := range t.pending {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			if _, decided := seen[key]; decided {
				continue
			}
			_, isTomb := v.(tombstone)
			seen[key] = !isTomb
		}
	}
	keys := make([]string, 0, len(seen))
	for key, live := range seen {
		if live {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Mutate returns the value under key owned by tx, ready for in-place
// modification. A value inherited from an ancestor is copied with clone
// first; a missing key is initialized with create. Both results are
// recorded in tx.
func Mutate[T any](tx *Transaction, key string, clone func(T) T, create func() T) T {
	if tx.Owns(key) {
		return tx.pending[key].(T)
	}
	var out T
	if v, ok := tx.Get(key); ok {
		out = clone(v.(T))
	} else {
		out = create()
	}
	tx.Set(key, out)
	return out
}

// Lookup returns the value under key typed as T.
func Lookup[T any](tx *Transaction, key string) (T, bool) {
	v, ok := tx.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
