package pattern

import (
	"strings"
)

type Node[T any] struct {
	isLeaf  bool
	static  map[string]*Node[T]
	dyn     *Node[T]
	payload T
}

func New[T any]() *Node[T] {
	return new(Node[T])
}

// Insert returns a pointer to the payload of the node the segments lead to, creating the
// path if necessary. found tells whether the node was already a leaf.
func (n *Node[T]) Insert(segments []Segment) (payload *T, found bool) {
	node := n

	for _, seg := range segments {
		if seg.Capture {
			if node.dyn == nil {
				node.dyn = New[T]()
			}

			node = node.dyn
			continue
		}

		if node.static == nil {
			node.static = make(map[string]*Node[T])
		}

		next, ok := node.static[seg.Value]
		if !ok {
			next = New[T]()
			node.static[seg.Value] = next
		}

		node = next
	}

	found = node.isLeaf
	node.isLeaf = true

	return &node.payload, found
}

// Lookup finds the most specific leaf matching the path, which payload is accepted by the
// predicate. Static segments are preferred over captures at every position, falling back
// to captures if the static branch led nowhere. Captured values are appended to captures
// in the order they occur.
func (n *Node[T]) Lookup(path string, captures []string, accept func(T) bool) (payload T, values []string, found bool) {
	if len(path) == 0 || path[0] != '/' {
		return payload, captures, false
	}

	return n.lookup(path[1:], captures, accept)
}

func (n *Node[T]) lookup(path string, captures []string, accept func(T) bool) (payload T, values []string, found bool) {
	segment, rest, more := strings.Cut(path, "/")

	if next, ok := n.static[segment]; ok {
		if payload, values, found = next.match(rest, more, captures, accept); found {
			return payload, values, true
		}
	}

	if n.dyn != nil && len(segment) > 0 {
		if payload, values, found = n.dyn.match(rest, more, append(captures, segment), accept); found {
			return payload, values, true
		}
	}

	var zero T
	return zero, captures, false
}

func (n *Node[T]) match(rest string, more bool, captures []string, accept func(T) bool) (payload T, values []string, found bool) {
	if more {
		return n.lookup(rest, captures, accept)
	}

	if n.isLeaf && accept(n.payload) {
		return n.payload, captures, true
	}

	return payload, captures, false
}

// Walk calls fn for every leaf matching the path.
func (n *Node[T]) Walk(path string, fn func(T)) {
	if len(path) == 0 || path[0] != '/' {
		return
	}

	n.walk(path[1:], fn)
}

func (n *Node[T]) walk(path string, fn func(T)) {
	segment, rest, more := strings.Cut(path, "/")
	visit := func(next *Node[T]) {
		switch {
		case more:
			next.walk(rest, fn)
		case next.isLeaf:
			fn(next.payload)
		}
	}

	if next, ok := n.static[segment]; ok {
		visit(next)
	}

	if n.dyn != nil && len(segment) > 0 {
		visit(n.dyn)
	}
}
