// Package hierarchy builds and queries the ordered page tree (C2 Hierarchy
// Builder and C3 Hierarchy Resolver) that mirrors a local directory tree.
package hierarchy

import (
	"strings"

	"github.com/consync/consync/internal/document"
)

// Node is a node in the hierarchy tree (PageNode in the spec).
type Node struct {
	ID           string
	Title        string
	Path         []string
	Document     *document.Document // nil for virtual nodes
	Weight       int
	ConfluenceID string
	IsVirtual    bool

	Parent   *Node
	Children []*Node
}

// PathString renders Path as a forward-slash joined string.
func (n *Node) PathString() string {
	return strings.Join(n.Path, "/")
}

// Ancestors returns the chain from n up to (and including) the root.
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for cur := n; cur != nil; cur = cur.Parent {
		out = append(out, cur)
	}
	return out
}

// Tree is the rooted result of a Build call.
type Tree struct {
	Root          *Node
	nodes         []*Node
	nodesByPath   map[string]*Node
	nodesByID     map[string]*Node
	indexFileName string
}

// IndexFileName returns the index-file name the tree was built with, used
// by the resolver's directory-index link-matching fallback.
func (t *Tree) IndexFileName() string {
	return t.indexFileName
}

// NodesByPath returns the path -> node index (keys are PathString-formatted;
// index.md documents are reachable both at their own path and at the
// directory path they govern, per spec §4.2).
func (t *Tree) NodesByPath() map[string]*Node {
	return t.nodesByPath
}

// NodesByID returns the id -> node index.
func (t *Tree) NodesByID() map[string]*Node {
	return t.nodesByID
}

// Nodes returns every node in the tree in creation order.
func (t *Tree) Nodes() []*Node {
	return t.nodes
}

func (t *Tree) addNode(n *Node) {
	t.nodes = append(t.nodes, n)
	t.nodesByID[n.ID] = n
}
