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
B-Tree Implementation
=====================

This file implements an ordered, copy-on-write B-Tree used for table row
stores (row id → row) and secondary indexes (key tuple → row id).

B-Tree Properties:
==================

  - Each node holds at most 2*t - 1 items (t = minimum degree)
  - Each node except the root holds at least t - 1 items
  - All leaves are at the same depth
  - Items within a node are sorted by the tree's comparator

Copy-on-Write:
==============

Clone returns a second handle over the same nodes in O(1). Every node is
tagged with the write context that created it; a tree only mutates nodes
carrying its own context and copies any other node on the way down. After
Clone neither handle owns the shared nodes, so writes through either one
leave the other untouched. Transactions rely on this: a child transaction
clones its parent's tree on first write, and a scan iterates over a clone
so the statement may modify the table it is reading.

Usage:
======

	tree := storage.NewBTree[int64, string](32, cmp.Compare[int64])
	tree.Set(1, "one")
	snapshot := tree.Clone()
	tree.Delete(1)
	v, ok := snapshot.Get(1) // "one", true
*/
package storage

import (
	"iter"
	"slices"
)

// cowContext marks node ownership. It must not be zero-sized so that every
// allocation yields a distinct pointer.
type cowContext struct {
	_ byte
}

type item[K, V any] struct {
	key   K
	value V
}

type node[K, V any] struct {
	items    []item[K, V]
	children []*node[K, V]
	cow      *cowContext
}

func (n *node[K, V]) leaf() bool {
	return len(n.children) == 0
}

// find returns the position of the first item >= key and whether it is equal.
func (n *node[K, V]) find(key K, cmp func(a, b K) int) (int, bool) {
	return slices.BinarySearchFunc(n.items, key, func(it item[K, V], k K) int {
		return cmp(it.key, k)
	})
}

func (n *node[K, V]) copyFor(cow *cowContext) *node[K, V] {
	out := &node[K, V]{cow: cow}
	out.items = append(make([]item[K, V], 0, len(n.items)+1), n.items...)
	if !n.leaf() {
		out.children = append(make([]*node[K, V], 0, len(n.children)+1), n.children...)
	}
	return out
}

// ascend calls yield for every item >= pivot (all items if pivot is nil).
func (n *node[K, V]) ascend(pivot *K, cmp func(a, b K) int, yield func(K, V) bool) bool {
	i := 0
	if pivot != nil {
		i, _ = n.find(*pivot, cmp)
	}
	for ; i < len(n.items); i++ {
		if !n.leaf() && !n.children[i].ascend(pivot, cmp, yield) {
			return false
		}
		if !yield(n.items[i].key, n.items[i].value) {
			return false
		}
	}
	if !n.leaf() {
		return n.children[len(n.items)].ascend(pivot, cmp, yield)
	}
	return true
}

// BTree is an ordered map with copy-on-write snapshots.
//
// Thread Safety: a BTree is not safe for concurrent mutation. The engine
// serializes access above the storage layer.
type BTree[K, V any] struct {
	root   *node[K, V]
	degree int
	length int
	cmp    func(a, b K) int
	cow    *cowContext
}

// NewBTree creates an empty tree with minimum degree t ordered by cmp.
// Degrees below 2 are raised to 2.
func NewBTree[K, V any](t int, cmp func(a, b K) int) *BTree[K, V] {
	if t < 2 {
		t = 2
	}
	return &BTree[K, V]{degree: t, cmp: cmp, cow: new(cowContext)}
}

// Len returns the number of items in the tree.
func (t *BTree[K, V]) Len() int {
	return t.length
}

// Clone returns an independent tree sharing all current nodes.
func (t *BTree[K, V]) Clone() *BTree[K, V] {
	out := *t
	t.cow = new(cowContext)
	out.cow = new(cowContext)
	return &out
}

func (t *BTree[K, V]) maxItems() int { return 2*t.degree - 1 }
func (t *BTree[K, V]) minItems() int { return t.degree - 1 }

func (t *BTree[K, V]) mutable(n *node[K, V]) *node[K, V] {
	if n.cow == t.cow {
		return n
	}
	return n.copyFor(t.cow)
}

func (t *BTree[K, V]) mutableChild(n *node[K, V], i int) *node[K, V] {
	c := t.mutable(n.children[i])
	n.children[i] = c
	return c
}

// Get returns the value stored under key.
func (t *BTree[K, V]) Get(key K) (V, bool) {
	for n := t.root; n != nil; {
		i, found := n.find(key, t.cmp)
		if found {
			return n.items[i].value, true
		}
		if n.leaf() {
			break
		}
		n = n.children[i]
	}
	var zero V
	return zero, false
}

// Has reports whether key is present.
func (t *BTree[K, V]) Has(key K) bool {
	_, ok := t.Get(key)
	return ok
}

// Set stores value under key. It returns the previous value and true when
// the key was already present.
func (t *BTree[K, V]) Set(key K, value V) (V, bool) {
	if t.root == nil {
		t.root = &node[K, V]{cow: t.cow}
	}
	t.root = t.mutable(t.root)
	if len(t.root.items) >= t.maxItems() {
		old := t.root
		t.root = &node[K, V]{cow: t.cow, children: []*node[K, V]{old}}
		t.splitChild(t.root, 0)
	}
	old, replaced := t.insertNonFull(t.root, item[K, V]{key: key, value: value})
	if !replaced {
		t.length++
	}
	return old, replaced
}

func (t *BTree[K, V]) insertNonFull(n *node[K, V], it item[K, V]) (V, bool) {
	i, found := n.find(it.key, t.cmp)
	if found {
		old := n.items[i].value
		n.items[i] = it
		return old, true
	}
	if n.leaf() {
		n.items = slices.Insert(n.items, i, it)
		var zero V
		return zero, false
	}
	if len(n.children[i].items) >= t.maxItems() {
		t.splitChild(n, i)
		switch c := t.cmp(it.key, n.items[i].key); {
		case c == 0:
			old := n.items[i].value
			n.items[i] = it
			return old, true
		case c > 0:
			i++
		}
	}
	return t.insertNonFull(t.mutableChild(n, i), it)
}

// splitChild splits the full i-th child of the mutable node n.
func (t *BTree[K, V]) splitChild(n *node[K, V], i int) {
	child := t.mutableChild(n, i)
	mid := t.degree - 1
	midItem := child.items[mid]

	right := &node[K, V]{cow: t.cow}
	right.items = append(make([]item[K, V], 0, t.maxItems()), child.items[mid+1:]...)
	clear(child.items[mid:])
	child.items = child.items[:mid]
	if !child.leaf() {
		right.children = append(make([]*node[K, V], 0, t.maxItems()+1), child.children[mid+1:]...)
		clear(child.children[mid+1:])
		child.children = child.children[:mid+1]
	}

	n.items = slices.Insert(n.items, i, midItem)
	n.children = slices.Insert(n.children, i+1, right)
}

// Delete removes key and returns its value.
func (t *BTree[K, V]) Delete(key K) (V, bool) {
	var zero V
	if t.root == nil {
		return zero, false
	}
	t.root = t.mutable(t.root)
	v, ok := t.remove(t.root, key)
	if len(t.root.items) == 0 && !t.root.leaf() {
		t.root = t.root.children[0]
	}
	if ok {
		t.length--
	}
	return v, ok
}

// remove deletes key from the subtree rooted at the mutable node n. Every
// node it descends into holds more than the minimum number of items, so
// removal never leaves a node underfull.
func (t *BTree[K, V]) remove(n *node[K, V], key K) (V, bool) {
	i, found := n.find(key, t.cmp)
	if n.leaf() {
		if !found {
			var zero V
			return zero, false
		}
		out := n.items[i].value
		n.items = slices.Delete(n.items, i, i+1)
		return out, true
	}

	if found {
		out := n.items[i].value
		switch {
		case len(n.children[i].items) > t.minItems():
			n.items[i] = t.removeMax(t.mutableChild(n, i))
			return out, true
		case len(n.children[i+1].items) > t.minItems():
			n.items[i] = t.removeMin(t.mutableChild(n, i+1))
			return out, true
		}
		t.merge(n, i)
		return t.remove(n.children[i], key)
	}

	if len(n.children[i].items) <= t.minItems() {
		i = t.grow(n, i)
	}
	return t.remove(t.mutableChild(n, i), key)
}

func (t *BTree[K, V]) removeMax(n *node[K, V]) item[K, V] {
	if n.leaf() {
		last := len(n.items) - 1
		it := n.items[last]
		n.items = slices.Delete(n.items, last, last+1)
		return it
	}
	i := len(n.children) - 1
	if len(n.children[i].items) <= t.minItems() {
		i = t.grow(n, i)
	}
	return t.removeMax(t.mutableChild(n, i))
}

func (t *BTree[K, V]) removeMin(n *node[K, V]) item[K, V] {
	if n.leaf() {
		it := n.items[0]
		n.items = slices.Delete(n.items, 0, 1)
		return it
	}
	i := 0
	if len(n.children[i].items) <= t.minItems() {
		i = t.grow(n, i)
	}
	return t.removeMin(t.mutableChild(n, i))
}

// grow gives the i-th child of n an extra item, borrowing from a sibling or
// merging with one. It returns the index of the child that now covers the
// original key range.
func (t *BTree[K, V]) grow(n *node[K, V], i int) int {
	if i > 0 && len(n.children[i-1].items) > t.minItems() {
		child := t.mutableChild(n, i)
		left := t.mutableChild(n, i-1)
		last := len(left.items) - 1
		child.items = slices.Insert(child.items, 0, n.items[i-1])
		n.items[i-1] = left.items[last]
		left.items = slices.Delete(left.items, last, last+1)
		if !left.leaf() {
			lc := len(left.children) - 1
			child.children = slices.Insert(child.children, 0, left.children[lc])
			left.children = slices.Delete(left.children, lc, lc+1)
		}
		return i
	}
	if i < len(n.items) && len(n.children[i+1].items) > t.minItems() {
		child := t.mutableChild(n, i)
		right := t.mutableChild(n, i+1)
		child.items = append(child.items, n.items[i])
		n.items[i] = right.items[0]
		right.items = slices.Delete(right.items, 0, 1)
		if !right.leaf() {
			child.children = append(child.children, right.children[0])
			right.children = slices.Delete(right.children, 0, 1)
		}
		return i
	}
	if i >= len(n.items) {
		i--
	}
	t.merge(n, i)
	return i
}

// merge folds item i and child i+1 of n into child i.
func (t *BTree[K, V]) merge(n *node[K, V], i int) {
	left := t.mutableChild(n, i)
	right := n.children[i+1]
	left.items = append(left.items, n.items[i])
	left.items = append(left.items, right.items...)
	left.children = append(left.children, right.children...)
	n.items = slices.Delete(n.items, i, i+1)
	n.children = slices.Delete(n.children, i+1, i+2)
}

// All iterates every item in ascending key order.
func (t *BTree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if t.root != nil {
			t.root.ascend(nil, t.cmp, yield)
		}
	}
}

// From iterates the items with key >= pivot in ascending order.
func (t *BTree[K, V]) From(pivot K) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if t.root != nil {
			t.root.ascend(&pivot, t.cmp, yield)
		}
	}
}

// Min returns the smallest key.
func (t *BTree[K, V]) Min() (K, V, bool) {
	for k, v := range t.All() {
		return k, v, true
	}
	var (
		zk K
		zv V
	)
	return zk, zv, false
}

// Max returns the largest key.
func (t *BTree[K, V]) Max() (K, V, bool) {
	var (
		zk K
		zv V
	)
	n := t.root
	if n == nil || len(n.items) == 0 {
		return zk, zv, false
	}
	for !n.leaf() {
		n = n.children[len(n.children)-1]
	}
	it := n.items[len(n.items)-1]
	return it.key, it.value, true
}
