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

package storage

import (
	"cmp"
	"testing"

	ferrors "flymem/internal/errors"
)

// expectTerminalPanic runs fn and fails unless it panics with an INTERNAL error.
func expectTerminalPanic(t *testing.T, what string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Errorf("%s: expected panic", what)
			return
		}
		err, ok := r.(error)
		if !ok || !ferrors.IsInternal(err) {
			t.Errorf("%s: expected internal error panic, got %v", what, r)
		}
	}()
	fn()
}

func TestTransactionForkCommitRoundTrip(t *testing.T) {
	root := NewRoot()
	root.Set("a", 1)

	tx := root.Fork()
	tx.Set("b", 2)
	tx.Delete("a")

	// Pending changes are invisible to the parent until commit.
	if _, ok := root.Get("b"); ok {
		t.Error("Expected b to be invisible in parent before commit")
	}
	if v, ok := root.Get("a"); !ok || v != 1 {
		t.Error("Expected a to stay visible in parent before commit")
	}

	parent := tx.Commit()
	if parent != root {
		t.Fatal("Expected Commit to return the parent")
	}
	if v, ok := root.Get("b"); !ok || v != 2 {
		t.Errorf("Expected b=2 after commit, got %v (ok=%v)", v, ok)
	}
	if _, ok := root.Get("a"); ok {
		t.Error("Expected a to be deleted after commit")
	}
	if tx.State() != TxStateCommitted {
		t.Errorf("Expected committed state, got %s", tx.State())
	}
}

func TestTransactionRollbackInvisibleToNewFork(t *testing.T) {
	root := NewRoot()
	session := root.Fork()
	session.Set("x", "kept")

	stmt := session.Fork()
	stmt.Set("x", "discarded")
	stmt.Set("y", "discarded")
	if v, _ := stmt.Get("x"); v != "discarded" {
		t.Fatalf("Expected own write to be visible, got %v", v)
	}

	if back := stmt.Rollback(); back != session {
		t.Fatal("Expected Rollback to return the parent")
	}

	again := session.Fork()
	if v, _ := again.Get("x"); v != "kept" {
		t.Errorf("Expected kept, got %v", v)
	}
	if _, ok := again.Get("y"); ok {
		t.Error("Expected rolled back key to be invisible to a new fork")
	}
}

func TestTransactionNestedVisibility(t *testing.T) {
	root := NewRoot()
	a := root.Fork()
	a.Set("k", "a")
	b := a.Fork()
	c := b.Fork()

	if v, _ := c.Get("k"); v != "a" {
		t.Errorf("Expected grandchild to see ancestor write, got %v", v)
	}

	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("Expected tombstone to hide ancestor value")
	}
	if _, ok := b.Get("k"); !ok {
		t.Error("Expected tombstone to stay pending in the child")
	}

	sibling := b.Fork()
	sibling.Set("s", true)
	if _, ok := c.Get("s"); ok {
		t.Error("Expected siblings to be isolated")
	}
}

func TestTransactionFullCommit(t *testing.T) {
	root := NewRoot()
	session := root.Fork()
	session.Set("rows", "pending")
	stmt := session.Fork()
	stmt.Set("idx", "pending")
	if stmt.Root() != root || session.Root() != root || root.Root() != root {
		t.Fatal("Expected every scope to report the same root")
	}

	got := stmt.FullCommit()
	if got != root {
		t.Fatal("Expected FullCommit to return the root")
	}
	if !root.IsOpen() {
		t.Error("Expected root to stay open")
	}
	for _, key := range []string{"rows", "idx"} {
		if _, ok := root.Get(key); !ok {
			t.Errorf("Expected %s committed to root", key)
		}
	}

	// No ancestor handle can undo the committed changes.
	expectTerminalPanic(t, "session rollback", func() { session.Rollback() })
	expectTerminalPanic(t, "stmt rollback", func() { stmt.Rollback() })
	if _, ok := root.Get("rows"); !ok {
		t.Error("Expected rows to survive rollback attempts")
	}

	next := got.Fork()
	next.Set("after", 1)
	if !next.IsOpen() || next.Depth() != 1 {
		t.Errorf("Expected open fork at depth 1, got open=%v depth=%d", next.IsOpen(), next.Depth())
	}
}

func TestTransactionTerminalUsePanics(t *testing.T) {
	root := NewRoot()

	committed := root.Fork()
	committed.Commit()
	rolledBack := root.Fork()
	rolledBack.Rollback()

	tests := []struct {
		name string
		fn   func()
	}{
		{"get after commit", func() { committed.Get("k") }},
		{"set after commit", func() { committed.Set("k", 1) }},
		{"fork after commit", func() { committed.Fork() }},
		{"commit twice", func() { committed.Commit() }},
		{"delete after rollback", func() { rolledBack.Delete("k") }},
		{"rollback twice", func() { rolledBack.Rollback() }},
		{"full commit after rollback", func() { rolledBack.FullCommit() }},
		{"rollback root", func() { root.Rollback() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectTerminalPanic(t, tt.name, tt.fn)
		})
	}
}

func TestTransactionCommitRootIsNoop(t *testing.T) {
	root := NewRoot()
	root.Set("k", 1)
	if root.Commit() != root || !root.IsOpen() {
		t.Error("Expected committing the root to keep it open")
	}
	if v, _ := root.Get("k"); v != 1 {
		t.Errorf("Expected k=1, got %v", v)
	}
}

func TestTransactionKeys(t *testing.T) {
	root := NewRoot()
	root.Set("rel:a", 1)
	root.Set("rel:b", 2)
	root.Set("seq:1", 3)

	tx := root.Fork()
	tx.Delete("rel:a")
	tx.Set("rel:c", 4)

	got := tx.Keys("rel:")
	want := []string{"rel:b", "rel:c"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
		}
	}
}

func TestMutateCopiesInheritedTrees(t *testing.T) {
	newTree := func() *BTree[int, string] { return NewBTree[int, string](2, cmp.Compare[int]) }
	clone := func(b *BTree[int, string]) *BTree[int, string] { return b.Clone() }

	root := NewRoot()
	Mutate(root, "rows", clone, newTree).Set(1, "committed")

	tx := root.Fork()
	tree := Mutate(tx, "rows", clone, newTree)
	tree.Set(2, "pending")
	tree.Delete(1)
	if same := Mutate(tx, "rows", clone, newTree); same != tree {
		t.Error("Expected second Mutate to return the owned tree")
	}

	base, _ := Lookup[*BTree[int, string]](root, "rows")
	if base.Len() != 1 || !base.Has(1) {
		t.Errorf("Expected root tree untouched, got %d items", base.Len())
	}

	tx.Rollback()
	base, _ = Lookup[*BTree[int, string]](root, "rows")
	if base.Has(2) {
		t.Error("Expected rolled back row to be invisible")
	}
}
