package hierarchy

import (
	"path"
	"strings"

	"github.com/consync/consync/internal/document"
)

// BrokenLink pairs a source node with a link it contains that could not be
// resolved against the tree.
type BrokenLink struct {
	Source *Node
	Link   document.LinkRef
}

// isInternal reports whether href looks like a relative link into the local
// tree, as opposed to an absolute URL, a bare fragment, or a mailto/tel
// scheme link.
func isInternal(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	if strings.Contains(href, "://") {
		return false
	}
	if strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
		return false
	}
	return true
}

// ResolveLinks resolves every internal link found in src's Document against
// the tree, returning the set of target nodes (order of first reference,
// de-duplicated) and the links that could not be resolved.
func ResolveLinks(tree *Tree, src *Node) (targets []*Node, broken []BrokenLink) {
	if src.Document == nil {
		return nil, nil
	}

	seen := make(map[*Node]bool)
	for _, l := range src.Document.Links {
		if !isInternal(l.Href) {
			continue
		}
		target := resolveOne(tree, src, l.Href)
		if target == nil {
			broken = append(broken, BrokenLink{Source: src, Link: l})
			continue
		}
		if !seen[target] {
			seen[target] = true
			targets = append(targets, target)
		}
	}
	return targets, broken
}

func resolveOne(tree *Tree, src *Node, href string) *Node {
	href = strings.SplitN(href, "#", 2)[0]
	if href == "" {
		return src
	}

	base := strings.Join(nodeDirSegments(src), "/")
	joined := path.Clean(path.Join(base, href))
	joined = strings.TrimPrefix(joined, "/")

	// Match order per spec: exact path; path with .md appended; path
	// joined with the index file name; path with .md stripped.
	if n, ok := tree.nodesByPath[joined]; ok {
		return n
	}
	if n, ok := tree.nodesByPath[joined+".md"]; ok {
		return n
	}
	indexName := tree.indexFileName
	if indexName == "" {
		indexName = "index.md"
	}
	withIndex := indexName
	if joined != "" {
		withIndex = joined + "/" + indexName
	}
	if n, ok := tree.nodesByPath[withIndex]; ok {
		return n
	}
	if strings.HasSuffix(joined, ".md") {
		if n, ok := tree.nodesByPath[strings.TrimSuffix(joined, ".md")]; ok {
			return n
		}
	}
	return nil
}

// nodeDirSegments returns the directory a node's links resolve relative to:
// the directory containing the backing file for document nodes (which, for
// an index.md, is the directory itself), or the node's own path for
// directory-only virtual nodes.
func nodeDirSegments(n *Node) []string {
	if n.Document != nil {
		return n.Document.DirSegments()
	}
	return n.Path
}

// nodeFilePath returns the full path target consumers should link to: the
// document's own relative path, or the node's directory path for a node
// with no backing file.
func nodeFilePath(n *Node) []string {
	if n.Document != nil {
		return n.Document.RelPath
	}
	return n.Path
}

// FindCommonAncestor returns the deepest node that is an ancestor of (or
// equal to) both a and b.
func FindCommonAncestor(a, b *Node) *Node {
	ancA := a.Ancestors()
	setA := make(map[*Node]int, len(ancA))
	for i, n := range ancA {
		setA[n] = i
	}
	for _, n := range b.Ancestors() {
		if _, ok := setA[n]; ok {
			return n
		}
	}
	return nil
}

// ComputeRelativePath computes the relative link href needed to reach
// target from the perspective of a document located at from.
func ComputeRelativePath(from, target *Node) string {
	ancestor := FindCommonAncestor(from, target)

	fromDir := nodeDirSegments(from)
	ancestorDepth := 0
	if ancestor != nil {
		ancestorDepth = len(ancestor.Path)
	}

	ups := 0
	if len(fromDir) > ancestorDepth {
		ups = len(fromDir) - ancestorDepth
	}

	targetPath := nodeFilePath(target)
	var down []string
	if len(targetPath) > ancestorDepth {
		down = targetPath[ancestorDepth:]
	}

	segments := make([]string, 0, ups+len(down))
	for i := 0; i < ups; i++ {
		segments = append(segments, "..")
	}
	segments = append(segments, down...)
	if len(segments) == 0 {
		return "."
	}
	return strings.Join(segments, "/")
}

// Validate checks tree-wide structural invariants (P1/P2): every indexed
// path is reachable from the root by walking Children, every node's Parent
// pointer agrees with its parent's Children slice membership, no two nodes
// share a Confluence ID, and no two sibling nodes share a title.
func Validate(tree *Tree) []error {
	var errs []error
	reachable := make(map[*Node]bool)
	var walk func(n *Node)
	walk = func(n *Node) {
		reachable[n] = true
		for _, c := range n.Children {
			if c.Parent != n {
				errs = append(errs, &ValidationError{Path: c.PathString(), Msg: "parent pointer does not match tree structure"})
			}
			walk(c)
		}
	}
	walk(tree.Root)

	for p, n := range tree.nodesByPath {
		if !reachable[n] {
			errs = append(errs, &ValidationError{Path: p, Msg: "node not reachable from root"})
		}
	}

	errs = append(errs, findDuplicateConfluenceIDs(tree)...)
	errs = append(errs, findDuplicateSiblingTitles(tree)...)
	return errs
}

// findDuplicateConfluenceIDs reports every node whose frontmatter-assigned
// confluence_id is already claimed by another node, keyed in first-seen
// order so the error always names the later duplicate.
func findDuplicateConfluenceIDs(tree *Tree) []error {
	var errs []error
	seen := make(map[string]*Node)
	for _, n := range tree.nodes {
		if n.ConfluenceID == "" {
			continue
		}
		if first, ok := seen[n.ConfluenceID]; ok {
			errs = append(errs, &ValidationError{
				Path: n.PathString(),
				Msg:  "duplicate confluence_id " + n.ConfluenceID + " also used by " + first.PathString(),
			})
			continue
		}
		seen[n.ConfluenceID] = n
	}
	return errs
}

// findDuplicateSiblingTitles reports sibling nodes that would collide on
// Confluence, where page titles must be unique within a space.
func findDuplicateSiblingTitles(tree *Tree) []error {
	var errs []error
	var walk func(n *Node)
	walk = func(n *Node) {
		seen := make(map[string]*Node, len(n.Children))
		for _, c := range n.Children {
			if first, ok := seen[c.Title]; ok {
				errs = append(errs, &ValidationError{
					Path: c.PathString(),
					Msg:  "duplicate title " + c.Title + " shared with sibling " + first.PathString(),
				})
			} else {
				seen[c.Title] = c
			}
			walk(c)
		}
	}
	walk(tree.Root)
	return errs
}

// FindBrokenLinks walks every document node in the tree and collects every
// internal link that fails to resolve.
func FindBrokenLinks(tree *Tree) []BrokenLink {
	var broken []BrokenLink
	for _, n := range tree.nodes {
		if n.Document == nil {
			continue
		}
		_, b := ResolveLinks(tree, n)
		broken = append(broken, b...)
	}
	return broken
}

// BuildBacklinks computes, for every node, the set of nodes that link to it.
func BuildBacklinks(tree *Tree) map[*Node][]*Node {
	backlinks := make(map[*Node][]*Node)
	for _, n := range tree.nodes {
		if n.Document == nil {
			continue
		}
		targets, _ := ResolveLinks(tree, n)
		for _, t := range targets {
			backlinks[t] = append(backlinks[t], n)
		}
	}
	return backlinks
}
