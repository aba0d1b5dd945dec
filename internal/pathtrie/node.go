// Package pathtrie deduplicates slash-delimited path strings. Inserted paths
// share common prefixes in a trie keyed by path segment, and enumeration
// yields every distinct path the inserted set implies, including every
// intermediate ancestor directory.
package pathtrie

// Sep is the path separator recognized by the trie.
const Sep = '/'

// sepName keys the pseudo-segment that marks absolute paths. It lives
// directly under the root when at least one inserted path was absolute.
const sepName = string(Sep)

// node represents one path segment relative to its parent
type node struct {
	// children maps the next segment name to the child node
	children map[string]*node
}

// newNode creates a new trie node with no children
func newNode() *node {
	return &node{
		children: make(map[string]*node),
	}
}

// child returns the child for the given segment, creating it if absent
func (n *node) child(segment string) *node {
	next, exists := n.children[segment]
	if !exists {
		next = newNode()
		n.children[segment] = next
	}
	return next
}

// Trie stores a set of paths with shared prefixes stored exactly once.
// The zero value is not usable; call New. A Trie is not safe for concurrent
// use, callers must serialize access.
type Trie struct {
	root *node
}

// New creates a new empty trie
func New() *Trie {
	return &Trie{
		root: newNode(),
	}
}
