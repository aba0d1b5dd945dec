package pathtrie

import (
	"strings"
)

// Insert adds a path to the trie, creating every intermediate node the path
// implies. Absolute paths (leading separator) descend through the marker
// pseudo-segment first, so "a/b" and "/a/b" occupy distinct chains. Empty
// segments and "." segments are dropped; any other string is accepted as a
// segment, including "..". Inserting the same path twice is a no-op.
func (t *Trie) Insert(path string) {
	if path == "" {
		return
	}

	n := t.root
	if path[0] == Sep {
		n = n.child(sepName)
	}

	for _, segment := range strings.Split(path, sepName) {
		if segment == "" || segment == "." {
			continue
		}
		n = n.child(segment)
	}
}

// Clear discards all stored paths and resets the trie to its initial state.
// Iterators obtained before Clear must not be advanced afterwards.
func (t *Trie) Clear() {
	t.root = newNode()
}

// AllUniquePaths returns every distinct path represented in the trie,
// including intermediate ancestors, in pre-order: a path always precedes the
// paths of its descendants. Sibling order follows map enumeration and is not
// stable across calls. The bare separator is never returned; the marker only
// shows up as the leading separator of the paths stored under it.
func (t *Trie) AllUniquePaths() []string {
	paths := []string{}
	collectPaths(t.root, "", &paths)
	return paths
}

// collectPaths recursively appends the paths of all nodes under n
func collectPaths(n *node, prefix string, paths *[]string) {
	for segment, child := range n.children {
		path := joinPath(prefix, segment)
		if segment != sepName {
			*paths = append(*paths, path)
		}
		collectPaths(child, path, paths)
	}
}

// joinPath appends a segment to an accumulated prefix, inserting a separator
// unless the prefix is empty or already ends with one. The latter happens
// exactly when the prefix is the absolute-path marker.
func joinPath(prefix, segment string) string {
	if prefix == "" || prefix[len(prefix)-1] == Sep {
		return prefix + segment
	}
	return prefix + sepName + segment
}
