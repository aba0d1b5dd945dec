package pathtrie

import (
	"iter"
)

// frame holds the traversal state for one node: a cursor over a snapshot of
// its child segment names and the accumulated path prefix for the node.
type frame struct {
	node     *node
	segments []string
	next     int
	prefix   string
}

// Iterator walks the trie depth-first in pre-order, producing one path per
// Next call without materializing the full result set. The iterator reads
// live trie nodes: mutating the trie (Insert or Clear) while an iterator is
// being advanced is not allowed. Each call to Trie.Iterator starts an
// independent traversal from the beginning.
type Iterator struct {
	stack []frame
}

// Iterator returns a new iterator positioned before the first path.
func (t *Trie) Iterator() *Iterator {
	it := &Iterator{}
	it.pushFrame(t.root, "")
	return it
}

// pushFrame adds a traversal frame for the node unless it has no children
func (it *Iterator) pushFrame(n *node, prefix string) {
	if len(n.children) == 0 {
		return
	}

	segments := make([]string, 0, len(n.children))
	for segment := range n.children {
		segments = append(segments, segment)
	}

	it.stack = append(it.stack, frame{node: n, segments: segments, prefix: prefix})
}

// Next returns the next path in pre-order, or ("", false) once the traversal
// is exhausted. Calling Next after exhaustion keeps returning ("", false).
func (it *Iterator) Next() (string, bool) {
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]

		if top.next >= len(top.segments) {
			it.stack = it.stack[:len(it.stack)-1] // backtrack
			continue
		}

		segment := top.segments[top.next]
		top.next++

		path := joinPath(top.prefix, segment)
		it.pushFrame(top.node.children[segment], path)

		if segment == sepName {
			// The absolute-path marker is structural, not a path of its own.
			continue
		}
		return path, true
	}

	return "", false
}

// All returns a single-use sequence over the trie's paths, in the same order
// an Iterator would produce them.
func (t *Trie) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		it := t.Iterator()
		for path, ok := it.Next(); ok; path, ok = it.Next() {
			if !yield(path) {
				return
			}
		}
	}
}
