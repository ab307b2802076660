// Package nodelist implements the node list used wherever the runtime
// needs an ordered, insert/remove-anywhere collection: a pipeline's
// element chain. (An element's ports are kept in plain slices.)
//
// Rather than raw next/prev pointers (unsafe to share across goroutines
// and awkward to debug), nodes are identified by a Handle and held in a
// map, with doubly linked Handle references for order. Handles are never
// reused while live, so holding one across structural mutation stays
// safe.
package nodelist

import "gmf-go/errcode"

// Handle identifies a node within one List. The zero Handle is invalid.
type Handle uint32

type node[T any] struct {
	val  T
	prev Handle
	next Handle
}

// List is an ordered, intrusive-style collection of T values addressed
// by Handle. It is not safe for concurrent use without external locking;
// the embedder decides whether one is needed.
type List[T any] struct {
	nodes  map[Handle]*node[T]
	nextH  Handle
	head   Handle
	tail   Handle
	length int
}

// New returns an empty list.
func New[T any]() *List[T] {
	return &List[T]{nodes: map[Handle]*node[T]{}, nextH: 1}
}

// Len returns the number of nodes currently in the list.
func (l *List[T]) Len() int { return l.length }

// PushBack appends val and returns its Handle.
func (l *List[T]) PushBack(val T) Handle {
	h := l.nextH
	l.nextH++
	n := &node[T]{val: val, prev: l.tail}
	l.nodes[h] = n
	if l.tail != 0 {
		l.nodes[l.tail].next = h
	} else {
		l.head = h
	}
	l.tail = h
	l.length++
	return h
}

// PushFront prepends val and returns its Handle.
func (l *List[T]) PushFront(val T) Handle {
	h := l.nextH
	l.nextH++
	n := &node[T]{val: val, next: l.head}
	l.nodes[h] = n
	if l.head != 0 {
		l.nodes[l.head].prev = h
	} else {
		l.tail = h
	}
	l.head = h
	l.length++
	return h
}

// InsertAfter inserts val immediately after the node at after and returns
// the new node's Handle. Returns errcode.NotFound if after is unknown.
func (l *List[T]) InsertAfter(after Handle, val T) (Handle, errcode.Code) {
	prevN, ok := l.nodes[after]
	if !ok {
		return 0, errcode.NotFound
	}
	h := l.nextH
	l.nextH++
	n := &node[T]{val: val, prev: after, next: prevN.next}
	l.nodes[h] = n
	if prevN.next != 0 {
		l.nodes[prevN.next].prev = h
	} else {
		l.tail = h
	}
	prevN.next = h
	l.length++
	return h, errcode.OK
}

// Remove detaches the node at h. Returns errcode.NotFound if h is unknown.
func (l *List[T]) Remove(h Handle) errcode.Code {
	n, ok := l.nodes[h]
	if !ok {
		return errcode.NotFound
	}
	if n.prev != 0 {
		l.nodes[n.prev].next = n.next
	} else {
		l.head = n.next
	}
	if n.next != 0 {
		l.nodes[n.next].prev = n.prev
	} else {
		l.tail = n.prev
	}
	delete(l.nodes, h)
	l.length--
	return errcode.OK
}

// Get returns the value at h.
func (l *List[T]) Get(h Handle) (T, errcode.Code) {
	n, ok := l.nodes[h]
	if !ok {
		var zero T
		return zero, errcode.NotFound
	}
	return n.val, errcode.OK
}

// Set overwrites the value at h in place.
func (l *List[T]) Set(h Handle, val T) errcode.Code {
	n, ok := l.nodes[h]
	if !ok {
		return errcode.NotFound
	}
	n.val = val
	return errcode.OK
}

// Front returns the first node's Handle, or 0 if the list is empty.
func (l *List[T]) Front() Handle { return l.head }

// Back returns the last node's Handle, or 0 if the list is empty.
func (l *List[T]) Back() Handle { return l.tail }

// Next returns the Handle following h, or 0 at the tail.
func (l *List[T]) Next(h Handle) Handle {
	n, ok := l.nodes[h]
	if !ok {
		return 0
	}
	return n.next
}

// Prev returns the Handle preceding h, or 0 at the head.
func (l *List[T]) Prev(h Handle) Handle {
	n, ok := l.nodes[h]
	if !ok {
		return 0
	}
	return n.prev
}

// Clear removes every node, invalidating all outstanding Handles. The
// handle counter is not reset, so a stale Handle from before the Clear
// can never alias a node inserted after it.
func (l *List[T]) Clear() {
	l.nodes = map[Handle]*node[T]{}
	l.head = 0
	l.tail = 0
	l.length = 0
}

// Each calls fn for every node from head to tail, stopping early if fn
// returns false.
func (l *List[T]) Each(fn func(h Handle, val T) bool) {
	for h := l.head; h != 0; {
		n := l.nodes[h]
		next := n.next
		if !fn(h, n.val) {
			return
		}
		h = next
	}
}
