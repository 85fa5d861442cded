// Package executor walks a computed sync plan against a remote Confluence
// space, one action at a time (C8 Executor).
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/consync/consync/internal/convert"
	"github.com/consync/consync/internal/logging"
	"github.com/consync/consync/internal/plan"
	"github.com/consync/consync/internal/remote"
	"github.com/consync/consync/internal/state"
)

// Options configures Execute.
type Options struct {
	DryRun     bool
	Convert    convert.Config
	LinkLookup convert.LinkResolver
	Log        logging.Logger
}

func (o Options) logger() logging.Logger {
	if o.Log == nil {
		return logging.NoOp()
	}
	return o.Log
}

// Outcome records what happened to a single plan action.
type Outcome struct {
	Action     plan.SyncAction
	DryRun     bool
	Skipped    bool
	Err        error
	RemotePage remote.Page
}

// Result is the executor's overall output (spec §4.8/§7 SyncResult).
type Result struct {
	Outcomes []Outcome
	Err      error
}

// Success reports whether every action completed (or was intentionally
// skipped/dry-run) without error.
func (r Result) Success() bool {
	return r.Err == nil
}

// Execute runs p sequentially against svc, persisting progress to store as
// it goes. On any non-retryable failure (retries already happened inside
// svc, since remote.RetryingService is a decorator around remote.Service,
// not executor logic) the accumulated state is written and the walk halts;
// lastSync only advances on full success.
func Execute(ctx context.Context, p plan.SyncPlan, svc remote.Service, store state.Store, opts Options) (Result, error) {
	log := opts.logger()
	st, err := store.Load(ctx, p.SpaceKey, p.RootPageID)
	if err != nil {
		return Result{}, fmt.Errorf("executor: load state: %w", err)
	}

	log.Info("executing plan", "actions", len(p.Actions), "dryRun", opts.DryRun)
	createdIDs := make(map[string]string)
	var outcomes []Outcome

	for _, action := range p.Actions {
		if err := ctx.Err(); err != nil {
			return haltOnFailure(ctx, store, st, outcomes, err)
		}

		if opts.DryRun {
			outcomes = append(outcomes, Outcome{Action: action, DryRun: true})
			continue
		}

		outcome, execErr := executeOne(ctx, svc, action, createdIDs, &st, p.RootPageID, opts)
		if execErr != nil {
			log.Error(execErr, "action failed", "kind", action.Kind(), "path", actionPath(action))
			outcome.Err = execErr
			outcomes = append(outcomes, outcome)
			return haltOnFailure(ctx, store, st, outcomes, execErr)
		}
		log.Info("action completed", "kind", action.Kind(), "path", actionPath(action))
		outcomes = append(outcomes, outcome)
	}

	if !opts.DryRun {
		st.LastSync = nowStamp()
		if err := store.Save(ctx, st); err != nil {
			return Result{Outcomes: outcomes}, fmt.Errorf("executor: save state: %w", err)
		}
	}

	return Result{Outcomes: outcomes}, nil
}

func haltOnFailure(ctx context.Context, store state.Store, st state.SyncState, outcomes []Outcome, cause error) (Result, error) {
	if err := store.Save(context.WithoutCancel(ctx), st); err != nil {
		return Result{Outcomes: outcomes, Err: cause}, fmt.Errorf("executor: save partial state after %v: %w", cause, err)
	}
	return Result{Outcomes: outcomes, Err: cause}, cause
}

func executeOne(ctx context.Context, svc remote.Service, action plan.SyncAction, createdIDs map[string]string, st *state.SyncState, rootPageID string, opts Options) (Outcome, error) {
	switch action.Kind() {
	case plan.Create:
		return executeCreate(ctx, svc, action, createdIDs, st, rootPageID, opts)
	case plan.Update:
		return executeUpdate(ctx, svc, action, st, opts)
	case plan.Delete:
		return executeDelete(ctx, svc, action, st)
	case plan.Move:
		return executeMove(ctx, svc, action, createdIDs, st, rootPageID)
	case plan.Skip:
		return Outcome{Action: action, Skipped: true}, nil
	default:
		return Outcome{Action: action}, fmt.Errorf("executor: unknown action kind %q", action.Kind())
	}
}

// effectiveParentID resolves an action's ancestor per spec §4.8: createdIds
// first, so a child whose parent was freshly created earlier in this same
// plan observes the parent's brand-new remote id rather than the stale
// rootPageId fallback the diff engine necessarily computed (the parent had
// no state entry yet at diff time); then the diff-computed parentId itself
// (already state-resolved); then the current state directly; then
// rootPageId.
func effectiveParentID(action plan.SyncAction, createdIDs map[string]string, st *state.SyncState, rootPageID string) string {
	node := action.Node()
	if node != nil && node.Parent != nil && node.Parent.Document != nil {
		parentRelPath := node.Parent.Document.PathString()
		if id, ok := createdIDs[parentRelPath]; ok {
			return id
		}
		if action.ParentID() != "" {
			return action.ParentID()
		}
		if ps, ok := st.Pages[parentRelPath]; ok {
			return ps.ConfluenceID
		}
		return rootPageID
	}
	if action.ParentID() != "" {
		return action.ParentID()
	}
	return rootPageID
}

func executeCreate(ctx context.Context, svc remote.Service, action plan.SyncAction, createdIDs map[string]string, st *state.SyncState, rootPageID string, opts Options) (Outcome, error) {
	node := action.Node()
	body, err := convert.Convert(*node.Document, opts.LinkLookup, opts.Convert)
	if err != nil {
		return Outcome{Action: action}, fmt.Errorf("executor: render %s: %w", node.Document.PathString(), err)
	}

	parentID := effectiveParentID(action, createdIDs, st, rootPageID)
	page, err := svc.CreatePage(ctx, remote.PageInput{
		SpaceKey: st.SpaceKey,
		Title:    action.Title(),
		Body:     body,
		ParentID: parentID,
	})
	if err != nil {
		return Outcome{Action: action}, fmt.Errorf("executor: create %s: %w", node.Document.PathString(), err)
	}

	relPath := node.Document.PathString()
	createdIDs[relPath] = page.ID
	st.Pages[relPath] = state.PageState{
		Path:         relPath,
		ConfluenceID: page.ID,
		Title:        action.Title(),
		ParentID:     parentID,
		Version:      1,
		ContentHash:  action.ContentHash(),
	}
	return Outcome{Action: action, RemotePage: page}, nil
}

func executeUpdate(ctx context.Context, svc remote.Service, action plan.SyncAction, st *state.SyncState, opts Options) (Outcome, error) {
	node := action.Node()
	current, err := svc.GetPage(ctx, action.ConfluenceID())
	if err != nil {
		return Outcome{Action: action}, fmt.Errorf("executor: fetch %s: %w", action.ConfluenceID(), err)
	}

	body, err := convert.Convert(*node.Document, opts.LinkLookup, opts.Convert)
	if err != nil {
		return Outcome{Action: action}, fmt.Errorf("executor: render %s: %w", node.Document.PathString(), err)
	}

	updated, err := svc.UpdatePage(ctx, action.ConfluenceID(), remote.PageInput{
		SpaceKey: st.SpaceKey,
		Title:    action.Title(),
		Body:     body,
		Version:  current.Version + 1,
		ParentID: action.ParentID(),
	})
	if err != nil {
		return Outcome{Action: action}, fmt.Errorf("executor: update %s: %w", action.ConfluenceID(), err)
	}

	relPath := node.Document.PathString()
	st.Pages[relPath] = state.PageState{
		Path:         relPath,
		ConfluenceID: action.ConfluenceID(),
		Title:        action.Title(),
		ParentID:     action.ParentID(),
		Version:      updated.Version,
		ContentHash:  action.ContentHash(),
	}
	return Outcome{Action: action, RemotePage: updated}, nil
}

func executeDelete(ctx context.Context, svc remote.Service, action plan.SyncAction, st *state.SyncState) (Outcome, error) {
	if err := svc.DeletePage(ctx, action.ConfluenceID()); err != nil {
		return Outcome{Action: action}, fmt.Errorf("executor: delete %s: %w", action.ConfluenceID(), err)
	}
	delete(st.Pages, action.RelativePath())
	return Outcome{Action: action}, nil
}

func executeMove(ctx context.Context, svc remote.Service, action plan.SyncAction, createdIDs map[string]string, st *state.SyncState, rootPageID string) (Outcome, error) {
	node := action.Node()
	parentID := effectiveParentID(action, createdIDs, st, rootPageID)
	updated, err := svc.MovePage(ctx, action.ConfluenceID(), parentID)
	if err != nil {
		return Outcome{Action: action}, fmt.Errorf("executor: move %s: %w", action.ConfluenceID(), err)
	}

	relPath := node.Document.PathString()
	ps := st.Pages[relPath]
	ps.ParentID = parentID
	ps.ConfluenceID = action.ConfluenceID()
	st.Pages[relPath] = ps
	return Outcome{Action: action, RemotePage: updated}, nil
}

// actionPath returns the best available path label for logging: the node's
// path for CREATE/UPDATE/MOVE/SKIP, the recorded relative path for DELETE.
func actionPath(action plan.SyncAction) string {
	if node := action.Node(); node != nil && node.Document != nil {
		return node.Document.PathString()
	}
	return action.RelativePath()
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
