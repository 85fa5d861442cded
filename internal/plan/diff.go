package plan

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/consync/consync/internal/convert"
	"github.com/consync/consync/internal/hierarchy"
	"github.com/consync/consync/internal/state"
)

// DiffOptions configures Diff (spec §6 sync.* keys).
type DiffOptions struct {
	RootPageID    string
	Force         bool
	DeleteOrphans bool
	Convert       convert.Config
}

// RenderError wraps a content-conversion failure encountered while
// computing a node's render-result hash.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("plan: render %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Diff implements the per-node decision table and total ordering of
// spec §4.7: CREATE (depth ascending), UPDATE, MOVE, SKIP, DELETE (path
// depth descending).
func Diff(tree *hierarchy.Tree, st state.SyncState, opts DiffOptions) (SyncPlan, error) {
	resolver := buildLinkResolver(tree)

	var creates, updates, moves, skips, deletes []SyncAction
	seenPaths := make(map[string]bool)

	for _, n := range tree.Nodes() {
		if n.IsVirtual {
			continue
		}
		relPath := n.Document.PathString()
		seenPaths[relPath] = true

		contentHash, err := renderHash(n, resolver, opts.Convert)
		if err != nil {
			return SyncPlan{}, &RenderError{Path: relPath, Err: err}
		}

		parentID := resolveParentID(n, st, opts.RootPageID)
		ps, hasState := st.Pages[relPath]

		action, err := decide(n, ps, hasState, parentID, contentHash, opts.Force)
		if err != nil {
			return SyncPlan{}, err
		}

		switch action.kind {
		case Create:
			creates = append(creates, action)
		case Update:
			updates = append(updates, action)
		case Move:
			moves = append(moves, action)
		case Skip:
			skips = append(skips, action)
		}
	}

	if opts.DeleteOrphans {
		var orphanPaths []string
		for p := range st.Pages {
			if !seenPaths[p] {
				orphanPaths = append(orphanPaths, p)
			}
		}
		sort.Strings(orphanPaths)
		for _, p := range orphanPaths {
			ps := st.Pages[p]
			action, err := NewDeleteAction(ps.ConfluenceID, p, "Orphaned: no longer present locally")
			if err != nil {
				return SyncPlan{}, err
			}
			deletes = append(deletes, action)
		}
	}

	sort.SliceStable(creates, func(i, j int) bool { return creates[i].Depth() < creates[j].Depth() })
	sort.SliceStable(deletes, func(i, j int) bool { return deletes[i].Depth() > deletes[j].Depth() })

	var actions []SyncAction
	actions = append(actions, creates...)
	actions = append(actions, updates...)
	actions = append(actions, moves...)
	actions = append(actions, skips...)
	actions = append(actions, deletes...)

	return SyncPlan{
		SpaceKey:   st.SpaceKey,
		RootPageID: opts.RootPageID,
		Actions:    actions,
	}, nil
}

// decide implements the spec §4.7 per-node decision table, first match wins.
func decide(n *hierarchy.Node, ps state.PageState, hasState bool, parentID, contentHash string, force bool) (SyncAction, error) {
	if !hasState {
		return NewCreateAction(n, n.Title, parentID, contentHash, "No prior state")
	}
	if ps.ConfluenceID == "" {
		return NewCreateAction(n, n.Title, parentID, contentHash, "No remote id recorded")
	}
	if force {
		return NewUpdateAction(n, ps.ConfluenceID, n.Title, parentID, contentHash, "Force update")
	}

	contentChanged := contentHash != ps.ContentHash
	parentChanged := parentID != ps.ParentID
	if contentChanged {
		reason := "Content changed"
		if parentChanged {
			reason = "Content and parent changed"
		}
		return NewUpdateAction(n, ps.ConfluenceID, n.Title, parentID, contentHash, reason)
	}
	if n.Title != ps.Title {
		return NewUpdateAction(n, ps.ConfluenceID, n.Title, parentID, contentHash, "Title changed")
	}
	if parentChanged {
		return NewMoveAction(n, ps.ConfluenceID, n.Title, parentID, "Parent changed")
	}
	return NewSkipAction(n, ps.ConfluenceID, "Unchanged")
}

// resolveParentID implements the spec §4.7 parent-ID resolution: root-level
// nodes use rootPageId directly; otherwise the immediate parent's path is
// looked up in state, falling back to rootPageId if absent (freshly created
// parents are resolved later, by the executor's createdIds map; virtual
// parents stay on rootPageId).
func resolveParentID(n *hierarchy.Node, st state.SyncState, rootPageID string) string {
	if n.Parent == nil {
		return rootPageID
	}
	if n.Parent.Document == nil {
		// Parent is a virtual directory node with no state entry of its
		// own; the spec's resolution rule only consults the immediate
		// parent, so this falls straight back to rootPageId.
		return rootPageID
	}
	parentPath := n.Parent.Document.PathString()
	if ps, ok := st.Pages[parentPath]; ok {
		return ps.ConfluenceID
	}
	return rootPageID
}

func renderHash(n *hierarchy.Node, resolver convert.LinkResolver, cfg convert.Config) (string, error) {
	out, err := convert.Convert(*n.Document, resolver, cfg)
	if err != nil {
		return "", err
	}
	return sha256Hex(out), nil
}

// BuildLinkResolver constructs the basename-keyed resolver the converter
// needs for internal links: it receives only a basename (sans fragment,
// extension, and parent directories) and returns the node's title. When
// more than one document shares a basename, the first one encountered in
// tree-node creation order wins. Exported so the executor's render step
// (wired by the sync command) shares the exact resolution Diff used to
// compute each action's content hash.
func BuildLinkResolver(tree *hierarchy.Tree) convert.LinkResolver {
	return buildLinkResolver(tree)
}

func buildLinkResolver(tree *hierarchy.Tree) convert.LinkResolver {
	byBasename := make(map[string]*hierarchy.Node)
	for _, n := range tree.Nodes() {
		if n.Document == nil {
			continue
		}
		base := path.Base(n.Document.PathString())
		base = strings.TrimSuffix(base, path.Ext(base))
		if _, exists := byBasename[base]; !exists {
			byBasename[base] = n
		}
	}
	return func(basename string) (convert.LinkTarget, bool) {
		n, ok := byBasename[basename]
		if !ok {
			return convert.LinkTarget{}, false
		}
		return convert.LinkTarget{ContentTitle: n.Title}, true
	}
}
