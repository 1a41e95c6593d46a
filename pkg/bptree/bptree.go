// Package bptree implements an in-memory ordered B+tree.
package bptree

import (
	"cmp"
	"sync"
)

// DefaultOrder is the fallback branching factor if a user-supplied order is too small.
const DefaultOrder = 4

// findChildIndex determines which child pointer to follow in an internal node.
func findChildIndex[K cmp.Ordered](keys []K, searchKey K) int {
	for i, k := range keys {
		if cmp.Less(searchKey, k) {
			return i
		}
	}
	return len(keys)
}

// BPlusTree is an ordered map. All methods are safe for concurrent use.
type BPlusTree[K cmp.Ordered, V any] struct {
	root   *node[K, V]
	order  int
	height int
	size   int
	m      sync.RWMutex
}

// node represents both internal and leaf nodes in the B+Tree.
type node[K cmp.Ordered, V any] struct {
	isLeaf   bool
	keys     []K
	children []*node[K, V] // used if !isLeaf
	values   []V           // used if isLeaf
	parent   *node[K, V]
	next     *node[K, V] // leaf-link pointer, for range scans
}

// NewBPlusTree creates and returns a B+Tree with the given order.
// If the specified order < 3, we fall back to DefaultOrder.
func NewBPlusTree[K cmp.Ordered, V any](order int) *BPlusTree[K, V] {
	if order < 3 {
		order = DefaultOrder
	}
	return &BPlusTree[K, V]{
		root: &node[K, V]{
			isLeaf: true,
			keys:   make([]K, 0, order),
			values: make([]V, 0, order),
		},
		order:  order,
		height: 1,
	}
}

// Height returns the number of levels in the tree
func (tree *BPlusTree[K, V]) Height() int {
	tree.m.RLock()
	defer tree.m.RUnlock()
	return tree.height
}

// Len returns the number of keys stored
func (tree *BPlusTree[K, V]) Len() int {
	tree.m.RLock()
	defer tree.m.RUnlock()
	return tree.size
}

// Search locates the value associated with key.
func (tree *BPlusTree[K, V]) Search(key K) (V, bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	leaf := tree.findLeaf(key)
	if idx, ok := leaf.indexOf(key); ok {
		return leaf.values[idx], true
	}
	var zero V
	return zero, false
}

// Insert adds a (key, value) pair, replacing the value of an existing key.
func (tree *BPlusTree[K, V]) Insert(key K, value V) {
	tree.m.Lock()
	defer tree.m.Unlock()

	leaf := tree.findLeaf(key)
	if insertKeyValueInLeaf(leaf, key, value) {
		tree.size++
	}

	if len(leaf.keys) > tree.order {
		tree.splitLeaf(leaf)
	}
}

// Delete removes key and returns its value. Leaves are never merged or
// rebalanced: an emptied leaf stays linked until later inserts refill it, and
// the tree does not shrink after deletes.
func (tree *BPlusTree[K, V]) Delete(key K) (V, bool) {
	tree.m.Lock()
	defer tree.m.Unlock()

	leaf := tree.findLeaf(key)
	idx, ok := leaf.indexOf(key)
	if !ok {
		var zero V
		return zero, false
	}

	value := leaf.values[idx]
	leaf.keys = append(leaf.keys[:idx], leaf.keys[idx+1:]...)
	leaf.values = append(leaf.values[:idx], leaf.values[idx+1:]...)
	tree.size--
	return value, true
}

// Ascend calls fn for each pair with key >= from in ascending order until
// fn returns false.
func (tree *BPlusTree[K, V]) Ascend(from K, fn func(key K, value V) bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	leaf := tree.findLeaf(from)
	idx := 0
	for idx < len(leaf.keys) && cmp.Less(leaf.keys[idx], from) {
		idx++
	}

	for leaf != nil {
		for ; idx < len(leaf.keys); idx++ {
			if !fn(leaf.keys[idx], leaf.values[idx]) {
				return
			}
		}
		leaf = leaf.next
		idx = 0
	}
}

// findLeaf descends to the leaf that holds (or would hold) key.
func (tree *BPlusTree[K, V]) findLeaf(key K) *node[K, V] {
	current := tree.root
	for !current.isLeaf {
		current = current.children[findChildIndex(current.keys, key)]
	}
	return current
}

func (n *node[K, V]) indexOf(key K) (int, bool) {
	for i, k := range n.keys {
		if k == key {
			return i, true
		}
	}
	return 0, false
}

// insertKeyValueInLeaf inserts in sorted order and reports whether the key is new.
func insertKeyValueInLeaf[K cmp.Ordered, V any](leaf *node[K, V], key K, value V) bool {
	idx := 0
	for idx < len(leaf.keys) && cmp.Less(leaf.keys[idx], key) {
		idx++
	}
	if idx < len(leaf.keys) && leaf.keys[idx] == key {
		leaf.values[idx] = value
		return false
	}
	leaf.keys = append(leaf.keys, key)
	leaf.values = append(leaf.values, value)

	copy(leaf.keys[idx+1:], leaf.keys[idx:])
	leaf.keys[idx] = key

	copy(leaf.values[idx+1:], leaf.values[idx:])
	leaf.values[idx] = value
	return true
}

// splitLeaf handles splitting a leaf node that has overflowed.
func (tree *BPlusTree[K, V]) splitLeaf(leaf *node[K, V]) {
	mid := len(leaf.keys) / 2

	newLeaf := &node[K, V]{
		isLeaf: true,
		keys:   append([]K{}, leaf.keys[mid:]...),
		values: append([]V{}, leaf.values[mid:]...),
		next:   leaf.next,
		parent: leaf.parent,
	}

	leaf.keys = leaf.keys[:mid]
	leaf.values = leaf.values[:mid]
	leaf.next = newLeaf

	if leaf.parent == nil {
		tree.growRoot(leaf, newLeaf, newLeaf.keys[0])
		return
	}

	insertKeyInParent(tree, leaf.parent, newLeaf.keys[0], newLeaf)
}

// insertKeyInParent inserts key and links rightChild after it in parent.
func insertKeyInParent[K cmp.Ordered, V any](tree *BPlusTree[K, V], parent *node[K, V], key K, rightChild *node[K, V]) {
	idx := 0
	for idx < len(parent.keys) && cmp.Less(parent.keys[idx], key) {
		idx++
	}

	parent.keys = append(parent.keys, key)
	copy(parent.keys[idx+1:], parent.keys[idx:])
	parent.keys[idx] = key

	parent.children = append(parent.children, rightChild)
	copy(parent.children[idx+2:], parent.children[idx+1:])
	parent.children[idx+1] = rightChild

	rightChild.parent = parent

	if len(parent.keys) > tree.order {
		splitInternalNode(tree, parent)
	}
}

// splitInternalNode handles splitting an internal node that has overflowed.
func splitInternalNode[K cmp.Ordered, V any](tree *BPlusTree[K, V], internal *node[K, V]) {
	mid := len(internal.keys) / 2
	splitKey := internal.keys[mid]

	newInternal := &node[K, V]{
		keys:     append([]K{}, internal.keys[mid+1:]...),
		children: append([]*node[K, V]{}, internal.children[mid+1:]...),
		parent:   internal.parent,
	}
	for _, child := range newInternal.children {
		child.parent = newInternal
	}

	internal.keys = internal.keys[:mid]
	internal.children = internal.children[:mid+1]

	if internal.parent == nil {
		tree.growRoot(internal, newInternal, splitKey)
		return
	}

	insertKeyInParent(tree, internal.parent, splitKey, newInternal)
}

func (tree *BPlusTree[K, V]) growRoot(left, right *node[K, V], key K) {
	newRoot := &node[K, V]{
		keys:     []K{key},
		children: []*node[K, V]{left, right},
	}
	left.parent = newRoot
	right.parent = newRoot
	tree.root = newRoot
	tree.height++
}
