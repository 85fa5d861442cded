package state

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStore_LoadMissingDatabaseReturnsEmptyState(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSQLiteStore(filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	got, err := s.Load(context.Background(), "SPACE", "100")
	if err != nil {
		t.Fatal(err)
	}
	if got.SpaceKey != "SPACE" || got.RootPageID != "100" || len(got.Pages) != 0 {
		t.Errorf("unexpected empty state: %+v", got)
	}
}

func TestSQLiteStore_SaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSQLiteStore(filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	st := SyncState{
		SpaceKey:   "SPACE",
		RootPageID: "100",
		Pages: map[string]PageState{
			"a.md": {
				Path:         "a.md",
				ConfluenceID: "123",
				Title:        "A",
				ParentID:     "100",
				Version:      2,
				ContentHash:  "sha256:abc",
			},
		},
	}
	if err := s.Save(context.Background(), st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(context.Background(), "SPACE", "100")
	if err != nil {
		t.Fatal(err)
	}
	page, ok := got.Pages["a.md"]
	if !ok {
		t.Fatalf("expected page a.md in round-tripped state, got %+v", got)
	}
	if page.ConfluenceID != "123" || page.Version != 2 || page.ContentHash != "sha256:abc" {
		t.Errorf("round-tripped state mismatch: %+v", page)
	}
	if page.Title != "A" {
		t.Errorf("expected title to round-trip, got %q", page.Title)
	}
	if page.ParentID != "100" {
		t.Errorf("expected parent id to round-trip, got %q", page.ParentID)
	}
}

func TestSQLiteStore_LoadSpaceKeyMismatchDiscardsState(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSQLiteStore(filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	st := Empty("SPACE-A", "100")
	st.Pages["a.md"] = PageState{Path: "a.md", ConfluenceID: "1", Title: "A"}
	if err := s.Save(context.Background(), st); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load(context.Background(), "SPACE-B", "100")
	if err != nil {
		t.Fatal(err)
	}
	if got.SpaceKey != "SPACE-B" || len(got.Pages) != 0 {
		t.Errorf("expected mismatch to discard stored state, got %+v", got)
	}
}

func TestSQLiteStore_Reset(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSQLiteStore(filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	st := Empty("SPACE", "100")
	st.Pages["a.md"] = PageState{Path: "a.md", ConfluenceID: "1", Title: "A"}
	if err := s.Save(context.Background(), st); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(context.Background()); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load(context.Background(), "SPACE", "100")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Pages) != 0 {
		t.Errorf("expected no pages after reset, got %+v", got.Pages)
	}
}
