package hierarchy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/consync/consync/internal/document"
)

// BuildConfig configures Build (spec §4.2, §6 content.* keys).
type BuildConfig struct {
	RootTitle     string
	IndexFileName string
}

func (c BuildConfig) normalized() BuildConfig {
	if c.RootTitle == "" {
		c.RootTitle = "Home"
	}
	if c.IndexFileName == "" {
		c.IndexFileName = "index.md"
	}
	return c
}

// BuildResult is the outcome of Build: the tree plus any documents that
// could not be placed, and any directory nodes synthesised without a
// backing index document.
type BuildResult struct {
	Tree    *Tree
	Orphans []document.Document
	Virtual []*Node
}

// Build implements the five-step hierarchy construction algorithm of
// spec §4.2: root binding, pre-pass directory-index materialisation
// (shallowest first), parent-chain materialisation, main-pass placement of
// non-index documents, and a final recursive sibling sort.
func Build(docs []document.Document, cfg BuildConfig) (BuildResult, error) {
	cfg = cfg.normalized()

	tree := &Tree{
		nodesByPath:   make(map[string]*Node),
		nodesByID:     make(map[string]*Node),
		indexFileName: cfg.IndexFileName,
	}

	var result BuildResult

	// Index documents by directory path so index.md files can be located
	// during the directory pre-pass without scanning the full doc list
	// repeatedly.
	indexByDir := make(map[string]document.Document)
	var indexDirs []string
	var nonIndex []document.Document

	for _, d := range docs {
		if d.IsIndex {
			dir := strings.Join(d.DirSegments(), "/")
			indexByDir[dir] = d
			indexDirs = append(indexDirs, dir)
		} else {
			nonIndex = append(nonIndex, d)
		}
	}

	// Step 1: root binding. A root-level index document binds directly to
	// the root node; otherwise the root is virtual.
	root := &Node{Title: cfg.RootTitle, ID: ""}
	if d, ok := indexByDir[""]; ok {
		docCopy := d
		root.Document = &docCopy
		root.Title = d.Title
		root.Weight = d.Frontmatter.Weight
		root.ConfluenceID = d.Frontmatter.ConfluenceID
	} else {
		root.IsVirtual = true
	}
	tree.Root = root
	tree.addNode(root)
	tree.nodesByPath[""] = root
	if d, ok := indexByDir[""]; ok {
		tree.nodesByPath[d.PathString()] = root
	}

	// Step 2: pre-pass, shallowest directory first, so a parent directory's
	// index node always exists before a deeper child needs it as a parent.
	sort.SliceStable(indexDirs, func(i, j int) bool {
		return depth(indexDirs[i]) < depth(indexDirs[j])
	})
	for _, dir := range indexDirs {
		if dir == "" {
			continue
		}
		if _, err := materialize(tree, &result, indexByDir, dir, cfg); err != nil {
			return BuildResult{}, err
		}
	}

	// Step 4 (main pass): place every non-index document under its parent
	// directory's node, materialising any missing ancestor chain first
	// (step 3, done inside materialize).
	for _, d := range nonIndex {
		dir := strings.Join(d.DirSegments(), "/")
		parent, err := materialize(tree, &result, indexByDir, dir, cfg)
		if err != nil {
			return BuildResult{}, err
		}

		docCopy := d
		node := &Node{
			ID:           "n:" + d.PathString(),
			Title:        d.Title,
			Path:         append(append([]string{}, d.RelPath...)),
			Document:     &docCopy,
			Weight:       d.Frontmatter.Weight,
			ConfluenceID: d.Frontmatter.ConfluenceID,
			Parent:       parent,
		}
		parent.Children = append(parent.Children, node)
		tree.addNode(node)
		tree.nodesByPath[d.PathString()] = node
	}

	// Step 5: final recursive sibling sort, weight ascending then
	// lowercase title ascending, ties broken by insertion order.
	sortChildren(root)

	result.Tree = tree
	return result, nil
}

func depth(dir string) int {
	if dir == "" {
		return 0
	}
	return strings.Count(dir, "/") + 1
}

// materialize ensures the node for directory path dir exists, creating its
// entire ancestor chain (recursively) as virtual nodes where no index
// document governs them, and binds an index document's own node when one
// is found for dir.
func materialize(tree *Tree, result *BuildResult, indexByDir map[string]document.Document, dir string, cfg BuildConfig) (*Node, error) {
	if existing, ok := tree.nodesByPath[dir]; ok {
		return existing, nil
	}

	segments := document.SplitRelPath(dir)
	parentDir := ""
	if len(segments) > 1 {
		parentDir = strings.Join(segments[:len(segments)-1], "/")
	}
	parent, err := materialize(tree, result, indexByDir, parentDir, cfg)
	if err != nil {
		return nil, err
	}

	if d, ok := indexByDir[dir]; ok {
		docCopy := d
		node := &Node{
			ID:           "n:" + d.PathString(),
			Title:        d.Title,
			Path:         segments,
			Document:     &docCopy,
			Weight:       d.Frontmatter.Weight,
			ConfluenceID: d.Frontmatter.ConfluenceID,
			Parent:       parent,
		}
		parent.Children = append(parent.Children, node)
		tree.addNode(node)
		tree.nodesByPath[dir] = node
		tree.nodesByPath[d.PathString()] = node
		return node, nil
	}

	if len(segments) == 0 {
		return tree.Root, nil
	}

	title := document.SlugTitle(segments, cfg.RootTitle, cfg.IndexFileName)
	node := &Node{
		ID:        "v:" + dir,
		Title:     title,
		Path:      segments,
		IsVirtual: true,
		Parent:    parent,
	}
	parent.Children = append(parent.Children, node)
	tree.addNode(node)
	tree.nodesByPath[dir] = node
	result.Virtual = append(result.Virtual, node)
	return node, nil
}

func sortChildren(n *Node) {
	sort.SliceStable(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if a.Weight != b.Weight {
			return a.Weight < b.Weight
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
	for _, c := range n.Children {
		sortChildren(c)
	}
}

// ValidationError is returned by hierarchy consistency checks.
type ValidationError struct {
	Path string
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("hierarchy: %s: %s", e.Path, e.Msg)
}
