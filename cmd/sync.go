package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/consync/consync/internal/executor"
	"github.com/consync/consync/internal/plan"
)

func newSyncCmd() *cobra.Command {
	var dryRun, force bool

	c := &cobra.Command{
		Use:   "sync [TARGET]",
		Short: "Reconcile the local Markdown tree with the remote Confluence space",
		Long: `sync parses every Markdown file under TARGET, computes the actions
needed to make the remote space match the local tree, and executes them.

TARGET can be a SPACE_KEY (e.g. "MYSPACE") or a path to a .md file. If
omitted, the content root is the current directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) > 0 {
				raw = args[0]
			}
			return runSync(cmd, raw, dryRun, force)
		},
	}
	c.Flags().BoolVar(&dryRun, "dry-run", false, "compute and print the plan without executing it")
	c.Flags().BoolVar(&force, "force", false, "update every page regardless of content hash")
	c.Flags().BoolVarP(&flagYes, "yes", "y", false, "skip the confirmation prompt before destructive plans")
	c.Flags().BoolVar(&flagNonInteractive, "non-interactive", false, "fail instead of prompting when confirmation would be required")
	return c
}

func runSync(cmd *cobra.Command, raw string, dryRun, force bool) error {
	ctx := context.Background()
	out := cmd.OutOrStdout()
	log := newLogger()

	rc, err := resolveRunContext(raw)
	if err != nil {
		return err
	}

	svc, closeSvc, err := newRemoteService(rc, log)
	if err != nil {
		return err
	}
	defer closeSvc()

	rootPageID, err := resolveRootPageID(ctx, svc, rc.cfg.Space.Key, rootPageConfig{
		RootPageID:    rc.cfg.Space.RootPageID,
		RootPageTitle: rc.cfg.Space.RootPageTitle,
	})
	if err != nil {
		return err
	}

	store, err := newStateStore(rc)
	if err != nil {
		return err
	}
	st, err := store.Load(ctx, rc.cfg.Space.Key, rootPageID)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	convertCfg := rc.cfg.ConvertConfig()
	diffOpts := rc.cfg.DiffOptions(rootPageID, force, convertCfg)
	syncPlan, err := plan.Diff(rc.tree, st, diffOpts)
	if err != nil {
		return fmt.Errorf("compute plan: %w", err)
	}

	writePlan(out, syncPlan)

	if !dryRun {
		if err := confirmDestructivePlan(cmd.InOrStdin(), out, syncPlan); err != nil {
			return err
		}
	}

	progress := newConsoleProgress(out, "syncing")
	progress.SetTotal(len(syncPlan.Actions))

	result, err := executor.Execute(ctx, syncPlan, svc, store, executor.Options{
		DryRun:     dryRun,
		Convert:    convertCfg,
		LinkLookup: plan.BuildLinkResolver(rc.tree),
		Log:        log,
	})
	for range result.Outcomes {
		progress.Add(1)
	}
	progress.Done()

	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if dryRun {
		fmt.Fprintln(out, "dry run complete, no changes made")
		return nil
	}

	fmt.Fprintln(out, "sync complete")
	return nil
}

// confirmDestructivePlan prompts before a plan with deletions or a large
// number of changes runs, unless --yes was given.
func confirmDestructivePlan(in io.Reader, out io.Writer, p plan.SyncPlan) error {
	counts := p.Counts()
	hasDeletes := counts[plan.Delete] > 0
	changed := len(p.Actions) - counts[plan.Skip]
	return requireSafetyConfirmation(in, out, "sync", changed, hasDeletes)
}
