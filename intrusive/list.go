// Package intrusive implements a doubly-linked circular list with an
// embedded sentinel head, in the style of Pintos's lib/kernel/list.c: nodes
// carry their own link fields rather than being held in an owning slice or
// map, so removal from the middle is O(1) and each Elem is linked into at
// most one list at a time (a value that belongs to several lists carries
// one Elem per list).
//
// The list itself never allocates past NewList; callers own the Elem
// embedded in (or alongside) each value they push.
package intrusive

// Elem is an embeddable link field. Embed it by value in whatever type T
// will live in a List[T], or keep a separate Elem per list a value may
// belong to simultaneously (one Elem per membership, per spec.md's "a READY
// thread is present in exactly one scheduling structure" invariant).
type Elem[T any] struct {
	prev, next *Elem[T]
	list       *List[T]
	Value      T
}

// In reports whether e is currently linked into a list.
func (e *Elem[T]) In() bool {
	return e.list != nil
}

// List is a doubly-linked circular list with a sentinel head node. The zero
// value is not ready to use; call NewList.
type List[T any] struct {
	root Elem[T] // sentinel; root.next is front, root.prev is back
}

// NewList returns an empty list.
func NewList[T any]() *List[T] {
	l := &List[T]{}
	l.root.next = &l.root
	l.root.prev = &l.root
	return l
}

// Empty reports whether the list has no elements.
func (l *List[T]) Empty() bool {
	return l.root.next == &l.root
}

// Front returns the first element, or nil if the list is empty.
func (l *List[T]) Front() *Elem[T] {
	if l.Empty() {
		return nil
	}
	return l.root.next
}

// Back returns the last element, or nil if the list is empty.
func (l *List[T]) Back() *Elem[T] {
	if l.Empty() {
		return nil
	}
	return l.root.prev
}

func (l *List[T]) insertBetween(e, before, after *Elem[T]) {
	e.prev, e.next = before, after
	before.next = e
	after.prev = e
	e.list = l
}

// PushFront links e at the front of the list.
func (l *List[T]) PushFront(e *Elem[T]) {
	l.insertBetween(e, &l.root, l.root.next)
}

// PushBack links e at the back of the list.
func (l *List[T]) PushBack(e *Elem[T]) {
	l.insertBetween(e, l.root.prev, &l.root)
}

// InsertBefore links e immediately before mark, which must currently belong
// to l.
func (l *List[T]) InsertBefore(e, mark *Elem[T]) {
	l.insertBetween(e, mark.prev, mark)
}

// Remove unlinks e from whatever list it belongs to. It is a no-op if e is
// not currently linked into any list.
func Remove[T any](e *Elem[T]) {
	if e.list == nil {
		return
	}
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next, e.list = nil, nil, nil
}

// PopFront unlinks and returns the first element, or nil if empty.
func (l *List[T]) PopFront() *Elem[T] {
	e := l.Front()
	if e == nil {
		return nil
	}
	Remove(e)
	return e
}

// InsertOrdered links e into its sorted position, per less, scanning from
// the front. Equal-ranked existing elements are left in front of e, which
// gives FIFO ordering among ties (spec.md §4.5's "stable" insert).
func (l *List[T]) InsertOrdered(e *Elem[T], less func(a, b T) bool) {
	for cur := l.root.next; cur != &l.root; cur = cur.next {
		if less(e.Value, cur.Value) {
			l.InsertBefore(e, cur)
			return
		}
	}
	l.PushBack(e)
}

// Do calls fn for every element from front to back. fn must not mutate the
// list's linkage (push/pop/remove) while iterating.
func (l *List[T]) Do(fn func(e *Elem[T])) {
	for cur := l.root.next; cur != &l.root; cur = cur.next {
		fn(cur)
	}
}

// Len returns the number of elements, by walking the list (Pintos's
// list_size is likewise O(n); this list does not track a separate count to
// keep Remove O(1) without extra bookkeeping).
func (l *List[T]) Len() int {
	n := 0
	l.Do(func(*Elem[T]) { n++ })
	return n
}
