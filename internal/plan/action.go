// Package plan computes the totally-ordered Sync Plan from a built
// hierarchy tree and the persisted sync state (C7 Diff Engine), and defines
// the SyncAction/SyncPlan types C8 consumes.
package plan

import (
	"errors"
	"fmt"

	"github.com/consync/consync/internal/hierarchy"
)

// Kind identifies which of the five sync operations an action performs.
type Kind string

const (
	Create Kind = "CREATE"
	Update Kind = "UPDATE"
	Delete Kind = "DELETE"
	Move   Kind = "MOVE"
	Skip   Kind = "SKIP"
)

// ErrInvalidAction is returned by the constructors when the requested kind's
// field invariants are not satisfied.
var ErrInvalidAction = errors.New("plan: invalid action")

// SyncAction is a closed tagged union over the five operation kinds,
// approximated in Go with unexported fields and per-kind validating
// constructors rather than a native sum type: callers can only build a
// well-formed action, never assemble an inconsistent one by hand.
type SyncAction struct {
	kind         Kind
	node         *hierarchy.Node
	confluenceID string
	title        string
	relativePath string
	parentID     string
	contentHash  string
	reason       string
}

func (a SyncAction) Kind() Kind                  { return a.kind }
func (a SyncAction) Node() *hierarchy.Node       { return a.node }
func (a SyncAction) ConfluenceID() string        { return a.confluenceID }
func (a SyncAction) Title() string               { return a.title }
func (a SyncAction) RelativePath() string        { return a.relativePath }
func (a SyncAction) ParentID() string            { return a.parentID }
func (a SyncAction) ContentHash() string         { return a.contentHash }
func (a SyncAction) Reason() string              { return a.reason }

// Depth returns the node's tree depth, used for CREATE/DELETE ordering.
// DELETE actions carry no node, so depth is derived from the number of
// '/' separators in RelativePath instead.
func (a SyncAction) Depth() int {
	if a.node != nil {
		return len(a.node.Ancestors()) - 1
	}
	return pathDepth(a.relativePath)
}

// NewCreateAction builds a CREATE action: node present, no confluenceId yet.
func NewCreateAction(node *hierarchy.Node, title, parentID, contentHash, reason string) (SyncAction, error) {
	if node == nil {
		return SyncAction{}, fmt.Errorf("%w: CREATE requires a node", ErrInvalidAction)
	}
	return SyncAction{
		kind:        Create,
		node:        node,
		title:       title,
		parentID:    parentID,
		contentHash: contentHash,
		reason:      reason,
	}, nil
}

// NewUpdateAction builds an UPDATE action: confluenceId required.
func NewUpdateAction(node *hierarchy.Node, confluenceID, title, parentID, contentHash, reason string) (SyncAction, error) {
	if confluenceID == "" {
		return SyncAction{}, fmt.Errorf("%w: UPDATE requires confluenceId", ErrInvalidAction)
	}
	return SyncAction{
		kind:         Update,
		node:         node,
		confluenceID: confluenceID,
		title:        title,
		parentID:     parentID,
		contentHash:  contentHash,
		reason:       reason,
	}, nil
}

// NewMoveAction builds a MOVE action: confluenceId required.
func NewMoveAction(node *hierarchy.Node, confluenceID, title, parentID, reason string) (SyncAction, error) {
	if confluenceID == "" {
		return SyncAction{}, fmt.Errorf("%w: MOVE requires confluenceId", ErrInvalidAction)
	}
	return SyncAction{
		kind:         Move,
		node:         node,
		confluenceID: confluenceID,
		title:        title,
		parentID:     parentID,
		reason:       reason,
	}, nil
}

// NewSkipAction builds a SKIP action: confluenceId required.
func NewSkipAction(node *hierarchy.Node, confluenceID, reason string) (SyncAction, error) {
	if confluenceID == "" {
		return SyncAction{}, fmt.Errorf("%w: SKIP requires confluenceId", ErrInvalidAction)
	}
	return SyncAction{
		kind:         Skip,
		node:         node,
		confluenceID: confluenceID,
		reason:       reason,
	}, nil
}

// NewDeleteAction builds a DELETE action: confluenceId and relativePath
// required, no node (the node no longer exists in the local tree).
func NewDeleteAction(confluenceID, relativePath, reason string) (SyncAction, error) {
	if confluenceID == "" || relativePath == "" {
		return SyncAction{}, fmt.Errorf("%w: DELETE requires confluenceId and relativePath", ErrInvalidAction)
	}
	return SyncAction{
		kind:         Delete,
		confluenceID: confluenceID,
		relativePath: relativePath,
		reason:       reason,
	}, nil
}

// SyncPlan is the ordered output of Diff.
type SyncPlan struct {
	SpaceKey   string
	RootPageID string
	Actions    []SyncAction
}

// Counts tallies actions by kind.
func (p SyncPlan) Counts() map[Kind]int {
	counts := map[Kind]int{}
	for _, a := range p.Actions {
		counts[a.kind]++
	}
	return counts
}

func pathDepth(relPath string) int {
	depth := 0
	for _, c := range relPath {
		if c == '/' {
			depth++
		}
	}
	return depth
}
