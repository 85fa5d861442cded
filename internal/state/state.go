// Package state persists and loads the sync-state document that binds a
// local tree to a remote Confluence space across invocations (C6).
package state

import (
	"context"
)

// PageState records what the last successful (or partial) run knew about
// one local path's remote counterpart.
type PageState struct {
	Path         string `json:"path"`
	ConfluenceID string `json:"confluenceId"`
	Title        string `json:"title"`
	ParentID     string `json:"parentId,omitempty"`
	Version      int    `json:"version"`
	ContentHash  string `json:"contentHash"`
}

// SyncState is the full persisted document (spec §4.6).
type SyncState struct {
	SpaceKey  string                `json:"spaceKey"`
	RootPageID string               `json:"rootPageId"`
	LastSync  string                `json:"lastSync,omitempty"`
	Pages     map[string]PageState  `json:"pages"`
}

// Empty returns a fresh state bound to spaceKey/rootPageID with no pages.
func Empty(spaceKey, rootPageID string) SyncState {
	return SyncState{
		SpaceKey:   spaceKey,
		RootPageID: rootPageID,
		Pages:      map[string]PageState{},
	}
}

// Store is the persistence contract consumed by the executor.
type Store interface {
	Load(ctx context.Context, spaceKey, rootPageID string) (SyncState, error)
	Save(ctx context.Context, state SyncState) error
	Reset(ctx context.Context) error
}
