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
	"fmt"
	"math/rand"
	"testing"
)

func newIntTree(degree int) *BTree[int, string] {
	return NewBTree[int, string](degree, cmp.Compare[int])
}

func keysOf(tree *BTree[int, string]) []int {
	var out []int
	for k := range tree.All() {
		out = append(out, k)
	}
	return out
}

func TestBTreeSetAndGet(t *testing.T) {
	tree := newIntTree(2)

	tree.Set(1, "one")
	tree.Set(2, "two")
	tree.Set(3, "three")

	val, found := tree.Get(1)
	if !found || val != "one" {
		t.Errorf("Expected one, got %s (found=%v)", val, found)
	}
	if _, found := tree.Get(999); found {
		t.Error("Expected 999 to not be found")
	}

	old, replaced := tree.Set(1, "uno")
	if !replaced || old != "one" {
		t.Errorf("Expected replace of one, got %q (replaced=%v)", old, replaced)
	}
	if tree.Len() != 3 {
		t.Errorf("Expected 3 items, got %d", tree.Len())
	}
}

func TestBTreeManyKeysStaySorted(t *testing.T) {
	for _, degree := range []int{2, 3, 8} {
		t.Run(fmt.Sprintf("degree=%d", degree), func(t *testing.T) {
			tree := newIntTree(degree)
			r := rand.New(rand.NewSource(int64(degree)))
			perm := r.Perm(500)
			for _, k := range perm {
				tree.Set(k, fmt.Sprint(k))
			}
			keys := keysOf(tree)
			if len(keys) != 500 {
				t.Fatalf("Expected 500 keys, got %d", len(keys))
			}
			for i, k := range keys {
				if k != i {
					t.Fatalf("Expected key %d at position %d, got %d", i, i, k)
				}
			}
		})
	}
}

func TestBTreeDelete(t *testing.T) {
	for _, degree := range []int{2, 3, 8} {
		t.Run(fmt.Sprintf("degree=%d", degree), func(t *testing.T) {
			tree := newIntTree(degree)
			r := rand.New(rand.NewSource(42))
			for _, k := range r.Perm(400) {
				tree.Set(k, fmt.Sprint(k))
			}

			// Delete every even key in random order.
			for _, k := range r.Perm(400) {
				if k%2 != 0 {
					continue
				}
				v, ok := tree.Delete(k)
				if !ok || v != fmt.Sprint(k) {
					t.Fatalf("Delete(%d) = %q, %v", k, v, ok)
				}
			}
			if _, ok := tree.Delete(0); ok {
				t.Error("Expected second delete of 0 to fail")
			}

			keys := keysOf(tree)
			if len(keys) != 200 || tree.Len() != 200 {
				t.Fatalf("Expected 200 keys, got %d (Len=%d)", len(keys), tree.Len())
			}
			for i, k := range keys {
				if k != 2*i+1 {
					t.Fatalf("Expected key %d at position %d, got %d", 2*i+1, i, k)
				}
			}

			for _, k := range keys {
				tree.Delete(k)
			}
			if tree.Len() != 0 || len(keysOf(tree)) != 0 {
				t.Errorf("Expected empty tree, got %d items", tree.Len())
			}
		})
	}
}

func TestBTreeFrom(t *testing.T) {
	tree := newIntTree(2)
	for k := 0; k < 50; k += 5 {
		tree.Set(k, "")
	}

	var got []int
	for k := range tree.From(12) {
		if k > 30 {
			break
		}
		got = append(got, k)
	}
	want := []int{15, 20, 25, 30}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	minK, _, _ := tree.Min()
	maxK, _, _ := tree.Max()
	if minK != 0 || maxK != 45 {
		t.Errorf("Expected min 0 and max 45, got %d and %d", minK, maxK)
	}
}

func TestBTreeCloneIsolation(t *testing.T) {
	tree := newIntTree(2)
	for k := 0; k < 100; k++ {
		tree.Set(k, "base")
	}

	snapshot := tree.Clone()
	for k := 0; k < 100; k += 2 {
		tree.Delete(k)
	}
	tree.Set(7, "changed")
	tree.Set(1000, "new")

	if snapshot.Len() != 100 {
		t.Errorf("Snapshot length changed to %d", snapshot.Len())
	}
	for k := 0; k < 100; k++ {
		if v, ok := snapshot.Get(k); !ok || v != "base" {
			t.Fatalf("Snapshot lost key %d (%q, %v)", k, v, ok)
		}
	}
	if snapshot.Has(1000) {
		t.Error("Snapshot sees key written after clone")
	}

	// Writes through the clone must not leak back either.
	snapshot.Set(2000, "clone")
	if tree.Has(2000) {
		t.Error("Original sees key written through clone")
	}
	if v, _ := tree.Get(7); v != "changed" {
		t.Errorf("Expected changed, got %q", v)
	}
}

func TestBTreeEmpty(t *testing.T) {
	tree := newIntTree(4)
	if _, ok := tree.Get(1); ok {
		t.Error("Expected empty tree lookup to fail")
	}
	if _, ok := tree.Delete(1); ok {
		t.Error("Expected empty tree delete to fail")
	}
	if _, _, ok := tree.Max(); ok {
		t.Error("Expected no max in empty tree")
	}
	if _, _, ok := tree.Min(); ok {
		t.Error("Expected no min in empty tree")
	}
}
