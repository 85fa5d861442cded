package plan

import (
	"testing"

	"github.com/consync/consync/internal/convert"
	"github.com/consync/consync/internal/document"
	"github.com/consync/consync/internal/hierarchy"
	"github.com/consync/consync/internal/state"
)

func buildDiffTree(t *testing.T) *hierarchy.Tree {
	t.Helper()
	mk := func(relPath []string, raw string) document.Document {
		d, err := document.Parse(relPath, "/root/"+relPath[len(relPath)-1], []byte(raw), document.ParseConfig{})
		if err != nil {
			t.Fatal(err)
		}
		return d
	}
	docs := []document.Document{
		mk([]string{"guides", "index.md"}, "---\ntitle: Guides\n---\n# Guides\n"),
		mk([]string{"guides", "setup.md"}, "---\ntitle: Setup\n---\n# Setup\n"),
	}
	res, err := hierarchy.Build(docs, hierarchy.BuildConfig{})
	if err != nil {
		t.Fatal(err)
	}
	return res.Tree
}

func TestDiff_NoStateProducesCreatesInDepthOrder(t *testing.T) {
	tree := buildDiffTree(t)
	p, err := Diff(tree, state.Empty("SPACE", "100"), DiffOptions{RootPageID: "100"})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(p.Actions))
	}
	for _, a := range p.Actions {
		if a.Kind() != Create {
			t.Errorf("expected all CREATE, got %v", a.Kind())
		}
	}
	if p.Actions[0].Node().PathString() != "guides" {
		t.Errorf("expected guides (shallower) first, got %v", p.Actions[0].Node().PathString())
	}
}

func TestDiff_UnchangedProducesSkip(t *testing.T) {
	tree := buildDiffTree(t)
	resolver := buildLinkResolver(tree)

	st := state.Empty("SPACE", "100")
	for _, n := range tree.Nodes() {
		if n.Document == nil {
			continue
		}
		hash, err := renderHash(n, resolver, convert.Config{})
		if err != nil {
			t.Fatal(err)
		}
		parentID := resolveParentID(n, st, "100")
		st.Pages[n.Document.PathString()] = state.PageState{
			Path:         n.Document.PathString(),
			ConfluenceID: "id-" + n.Document.PathString(),
			Title:        n.Title,
			ParentID:     parentID,
			Version:      1,
			ContentHash:  hash,
		}
	}

	p, err := Diff(tree, st, DiffOptions{RootPageID: "100"})
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range p.Actions {
		if a.Kind() != Skip {
			t.Errorf("expected SKIP for unchanged node %v, got %v (%v)", a.Node(), a.Kind(), a.Reason())
		}
	}
}

func TestDiff_ForceProducesUpdate(t *testing.T) {
	tree := buildDiffTree(t)
	st := state.Empty("SPACE", "100")
	st.Pages["guides/index.md"] = state.PageState{ConfluenceID: "id-guides", Title: "Guides", ContentHash: "sha256:x"}
	st.Pages["guides/setup.md"] = state.PageState{ConfluenceID: "id-setup", Title: "Setup", ContentHash: "sha256:y"}

	p, err := Diff(tree, st, DiffOptions{RootPageID: "100", Force: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range p.Actions {
		if a.Kind() != Update {
			t.Errorf("expected UPDATE under force, got %v", a.Kind())
		}
		if a.Reason() != "Force update" {
			t.Errorf("expected Force update reason, got %q", a.Reason())
		}
	}
}

func TestDiff_TitleChangeProducesUpdate(t *testing.T) {
	tree := buildDiffTree(t)
	resolver := buildLinkResolver(tree)
	guides := tree.NodesByPath()["guides/index.md"]
	setup := tree.NodesByPath()["guides/setup.md"]

	guidesHash, _ := renderHash(guides, resolver, convert.Config{})
	setupHash, _ := renderHash(setup, resolver, convert.Config{})

	st := state.Empty("SPACE", "100")
	st.Pages["guides/index.md"] = state.PageState{ConfluenceID: "id-guides", Title: "Old Title", ContentHash: guidesHash}
	st.Pages["guides/setup.md"] = state.PageState{ConfluenceID: "id-setup", Title: "Setup", ContentHash: setupHash}

	p, err := Diff(tree, st, DiffOptions{RootPageID: "100"})
	if err != nil {
		t.Fatal(err)
	}
	var sawTitleChange bool
	for _, a := range p.Actions {
		if a.Node() == guides {
			if a.Kind() != Update || a.Reason() != "Title changed" {
				t.Errorf("expected title-changed UPDATE for guides, got %v %q", a.Kind(), a.Reason())
			}
			sawTitleChange = true
		}
	}
	if !sawTitleChange {
		t.Fatal("expected an action for guides")
	}
}

func TestDiff_DeleteOrphansSortedDepthDescending(t *testing.T) {
	tree := buildDiffTree(t)
	st := state.Empty("SPACE", "100")
	st.Pages["guides/index.md"] = state.PageState{ConfluenceID: "id-guides", Title: "Guides"}
	st.Pages["guides/setup.md"] = state.PageState{ConfluenceID: "id-setup", Title: "Setup"}
	st.Pages["gone/deep/leaf.md"] = state.PageState{ConfluenceID: "id-leaf", Title: "Leaf"}
	st.Pages["gone"] = state.PageState{ConfluenceID: "id-gone", Title: "Gone"}

	p, err := Diff(tree, st, DiffOptions{RootPageID: "100", DeleteOrphans: true})
	if err != nil {
		t.Fatal(err)
	}
	var deletes []SyncAction
	for _, a := range p.Actions {
		if a.Kind() == Delete {
			deletes = append(deletes, a)
		}
	}
	if len(deletes) != 2 {
		t.Fatalf("expected 2 delete actions, got %d", len(deletes))
	}
	if deletes[0].RelativePath() != "gone/deep/leaf.md" {
		t.Errorf("expected deepest orphan first, got %q", deletes[0].RelativePath())
	}
}

func TestDiff_ActionOrderingAcrossKinds(t *testing.T) {
	tree := buildDiffTree(t)
	resolver := buildLinkResolver(tree)
	setup := tree.NodesByPath()["guides/setup.md"]
	setupHash, _ := renderHash(setup, resolver, convert.Config{})

	st := state.Empty("SPACE", "100")
	// guides/index.md has no state -> CREATE.
	st.Pages["guides/setup.md"] = state.PageState{ConfluenceID: "id-setup", Title: "Setup", ContentHash: setupHash}
	st.Pages["stale.md"] = state.PageState{ConfluenceID: "id-stale", Title: "Stale"}

	p, err := Diff(tree, st, DiffOptions{RootPageID: "100", DeleteOrphans: true})
	if err != nil {
		t.Fatal(err)
	}
	var kinds []Kind
	for _, a := range p.Actions {
		kinds = append(kinds, a.Kind())
	}
	if len(kinds) < 3 || kinds[0] != Create || kinds[len(kinds)-1] != Delete {
		t.Errorf("expected CREATE(s) first and DELETE(s) last, got %v", kinds)
	}
}
