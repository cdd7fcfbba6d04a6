// Package dlist implements an intrusive, circular, doubly linked list.
//
// Elements embed a Node and link themselves into a List whose sentinel head
// lives inside the List value. The package never allocates: every operation
// only rewires the references of nodes the caller already owns.
//
// A List is not safe for concurrent mutation. Callers that share one across
// goroutines must serialize access themselves; concurrent mutation is
// undefined behaviour.
package dlist

// Node is the link embedded in a list element.
//
// The owner reference is a relation only; the node never keeps its element
// alive beyond the element's own lifetime. A node that is not in any list
// points to itself in both directions.
type Node[T any] struct {
	prev  *Node[T]
	next  *Node[T]
	owner *T
}

// Init detaches n and records the element that embeds it.
func (n *Node[T]) Init(owner *T) *Node[T] {
	n.prev = n
	n.next = n
	n.owner = owner
	return n
}

// Owner returns the element that embeds n, or nil for a sentinel.
func (n *Node[T]) Owner() *T { return n.owner }

// Linked reports whether n is currently part of a list.
func (n *Node[T]) Linked() bool {
	return n.next != nil && n.next != n
}

// Detached reports whether n is in the self-looped state left by Remove.
func (n *Node[T]) Detached() bool {
	return n.next == n && n.prev == n
}

// InsertBefore links n into anchor's list immediately before anchor.
// n must be detached.
func InsertBefore[T any](anchor, n *Node[T]) {
	n.next = anchor
	n.prev = anchor.prev
	anchor.prev.next = n
	anchor.prev = n
}

// InsertAfter links n into anchor's list immediately after anchor.
// n must be detached.
func InsertAfter[T any](anchor, n *Node[T]) {
	n.prev = anchor
	n.next = anchor.next
	anchor.next.prev = n
	anchor.next = n
}

// Remove unlinks n from its list and leaves it pointing to itself.
// Removing a detached node is a no-op.
func Remove[T any](n *Node[T]) {
	if n.next != nil && n.next != n {
		n.prev.next = n.next
		n.next.prev = n.prev
	}
	n.prev = n
	n.next = n
}

// List is a sentinel-headed circular list. The zero value is an empty list.
type List[T any] struct {
	head Node[T]
}

func (l *List[T]) lazyInit() {
	if l.head.next == nil {
		l.head.prev = &l.head
		l.head.next = &l.head
	}
}

// Head returns the sentinel; use it as the anchor to insert at either end.
func (l *List[T]) Head() *Node[T] {
	l.lazyInit()
	return &l.head
}

// Empty reports whether the list has no elements.
func (l *List[T]) Empty() bool {
	return l.head.next == nil || l.head.next == &l.head
}

// First returns the first node, or nil if the list is empty.
func (l *List[T]) First() *Node[T] {
	if l.Empty() {
		return nil
	}
	return l.head.next
}

// Last returns the last node, or nil if the list is empty.
func (l *List[T]) Last() *Node[T] {
	if l.Empty() {
		return nil
	}
	return l.head.prev
}

// After returns the node following n, or nil when n is the last node.
func (l *List[T]) After(n *Node[T]) *Node[T] {
	if n.next == &l.head || n.next == n {
		return nil
	}
	return n.next
}

// Before returns the node preceding n, or nil when n is the first node.
func (l *List[T]) Before(n *Node[T]) *Node[T] {
	if n.prev == &l.head || n.prev == n {
		return nil
	}
	return n.prev
}

// Front returns the first element, or nil.
func (l *List[T]) Front() *T {
	if n := l.First(); n != nil {
		return n.owner
	}
	return nil
}

// Back returns the last element, or nil.
func (l *List[T]) Back() *T {
	if n := l.Last(); n != nil {
		return n.owner
	}
	return nil
}

// PushBack appends n.
func (l *List[T]) PushBack(n *Node[T]) { InsertBefore(l.Head(), n) }

// PushFront prepends n.
func (l *List[T]) PushFront(n *Node[T]) { InsertAfter(l.Head(), n) }

// Len walks the list and counts its elements.
func (l *List[T]) Len() int {
	count := 0
	for n := l.First(); n != nil; n = l.After(n) {
		count++
	}
	return count
}

// Each calls fn for every element in order until fn returns false.
// fn may remove the element it was handed.
func (l *List[T]) Each(fn func(*T) bool) {
	for n := l.First(); n != nil; {
		next := l.After(n)
		if !fn(n.owner) {
			return
		}
		n = next
	}
}
